// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package output implements the rate-limited audio OutputDevice: a
// single-producer/single-consumer queue that paces synthesized audio to a
// sink at real-time playback rate so barge-in stays responsive.
package output

import (
	"context"
	"time"

	internal_type "github.com/rapidaai/api/assistant-api/internal/type"
	"github.com/rapidaai/pkg/commons"
)

// AudioFormat identifies the PCM encoding used to compute playback
// duration and silence padding.
type AudioFormat int

const (
	FormatMuLaw8 AudioFormat = iota
	FormatLinear16
)

// BytesPerSecond returns the byte rate for an encoding/sample-rate/channel
// combination, grounded on the carrier table (μ-law 8kHz=8000 B/s mono,
// linear16 doubles for 16-bit samples, multiplies by channel count).
func BytesPerSecond(format AudioFormat, sampleRate, channels int) int {
	bytesPerSample := 1
	if format == FormatLinear16 {
		bytesPerSample = 2
	}
	if channels <= 0 {
		channels = 1
	}
	return sampleRate * bytesPerSample * channels
}

// Sink is the downstream collaborator the OutputDevice writes audio to —
// the one abstract media WebSocket per call. Send is synchronous; its
// error is fatal to the call (§4.A Failure).
type Sink interface {
	Send(ctx context.Context, callID string, payload []byte) error
}

// LocalMonitor mirrors audio to a local sink (e.g. a speaker) in addition
// to Send, purely additive to pacing — see SPEC_FULL's supplemented
// local-speaker playback mode.
type LocalMonitor interface {
	Monitor(payload []byte)
}

// Option configures a Device.
type Option func(*config)

type config struct {
	queueSize          int
	subchunkSize       int
	silenceByte        byte
	perChunkAllowance  time.Duration
	monitor            LocalMonitor
}

// WithQueueSize sets the bounded FIFO capacity. Defaults to 64.
func WithQueueSize(n int) Option {
	return func(c *config) { c.queueSize = n }
}

// WithSubchunkSize sets the fixed size outbound frames are split into
// before sending, with the final short frame zero-padded with codec
// silence (§4.A step 4).
func WithSubchunkSize(n int) Option {
	return func(c *config) { c.subchunkSize = n }
}

// WithSilenceByte sets the codec-appropriate silence byte used to pad the
// final subchunk. μ-law silence is 0xFF; linear16 silence is 0x00.
func WithSilenceByte(b byte) Option {
	return func(c *config) { c.silenceByte = b }
}

// WithPerChunkAllowance sets the fixed per-chunk scheduling slack
// subtracted from the pacing sleep (PER_CHUNK_ALLOWANCE_SECONDS upstream).
func WithPerChunkAllowance(d time.Duration) Option {
	return func(c *config) { c.perChunkAllowance = d }
}

// WithLocalMonitor mirrors every played chunk to a local sink in addition
// to the network Send.
func WithLocalMonitor(m LocalMonitor) Option {
	return func(c *config) { c.monitor = m }
}

// Device is the rate-limited OutputDevice described in §4.A. Call Run in
// its own goroutine; Enqueue from the producer (synthesizer) goroutine.
type Device struct {
	logger commons.Logger
	sink   Sink
	callID string

	format     AudioFormat
	sampleRate int
	channels   int

	cfg config

	queue chan *internal_type.InterruptibleEvent[*internal_type.AudioChunk]

	processing bool
	current    *internal_type.InterruptibleEvent[*internal_type.AudioChunk]
}

// NewDevice builds a Device bound to sink for callID, pacing audio at
// format/sampleRate/channels.
func NewDevice(logger commons.Logger, sink Sink, callID string, format AudioFormat, sampleRate, channels int, opts ...Option) *Device {
	cfg := config{
		queueSize:         64,
		subchunkSize:      0, // 0 means "do not split"
		silenceByte:       0,
		perChunkAllowance: 0,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Device{
		logger:     logger,
		sink:       sink,
		callID:     callID,
		format:     format,
		sampleRate: sampleRate,
		channels:   channels,
		cfg:        cfg,
		queue:      make(chan *internal_type.InterruptibleEvent[*internal_type.AudioChunk], cfg.queueSize),
	}
}

// Enqueue appends an event to the FIFO queue. Enqueue blocks if the queue
// is full (the producer side of the single-producer/single-consumer
// contract) but respects ctx cancellation.
func (d *Device) Enqueue(ctx context.Context, event *internal_type.InterruptibleEvent[*internal_type.AudioChunk]) error {
	select {
	case d.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interrupt is a no-op: interruption works entirely by emptying the queue
// and flagging in-flight events (§4.A invariant iii), never by signalling
// the consumer loop directly.
func (d *Device) Interrupt() {}

// Run is the long-running consumer loop (§4.A contract). It returns nil on
// clean cancellation and a non-nil error if the sink ever fails — a sink
// send error is fatal to the call.
func (d *Device) Run(ctx context.Context) error {
	bytesPerSec := BytesPerSecond(d.format, d.sampleRate, d.channels)
	if bytesPerSec <= 0 {
		bytesPerSec = 1
	}

	for {
		var event *internal_type.InterruptibleEvent[*internal_type.AudioChunk]
		select {
		case event = <-d.queue:
		case <-ctx.Done():
			// Cancellation is a clean exit point: no on_play fires, no sleep.
			return nil
		}

		d.processing = true
		d.current = event
		chunk := event.Payload

		if event.IsInterrupted() {
			chunk.FireInterrupt()
			d.processing = false
			continue
		}

		start := time.Now()
		playSeconds := float64(len(chunk.Data)) / float64(bytesPerSec)

		if err := d.send(ctx, chunk.Data); err != nil {
			d.processing = false
			return err
		}

		chunk.FirePlay()

		elapsed := time.Since(start).Seconds()
		sleepSeconds := playSeconds - elapsed - d.cfg.perChunkAllowance.Seconds()
		if sleepSeconds > 0 {
			timer := time.NewTimer(time.Duration(sleepSeconds * float64(time.Second)))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				d.processing = false
				return nil
			}
		}

		// Marking non-interruptible happens strictly after the pacing
		// sleep, once the chunk's playback window has actually elapsed.
		event.SetIsInterruptible(false)
		d.processing = false
	}
}

// send slices data into fixed subchunks (zero-padding the final short one
// with codec silence) and writes each to the sink, optionally mirroring to
// a local monitor.
func (d *Device) send(ctx context.Context, data []byte) error {
	if d.cfg.monitor != nil {
		d.cfg.monitor.Monitor(data)
	}

	size := d.cfg.subchunkSize
	if size <= 0 {
		return d.sink.Send(ctx, d.callID, data)
	}

	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		sub := data[i:end]
		if len(sub) < size {
			padded := make([]byte, size)
			copy(padded, sub)
			for j := len(sub); j < size; j++ {
				padded[j] = d.cfg.silenceByte
			}
			sub = padded
		}
		if err := d.sink.Send(ctx, d.callID, sub); err != nil {
			return err
		}
	}
	return nil
}

// WaitForDrain polls "queue empty AND no chunk in flight" and returns true
// on success or false on timeout — it never deadlocks (§4.A, §5).
func (d *Device) WaitForDrain(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(d.queue) == 0 && !d.processing {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false
		}
	}
}
