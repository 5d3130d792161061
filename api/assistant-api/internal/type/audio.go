// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

// ChunkState tracks an AudioChunk through the output device's lifecycle.
type ChunkState int

const (
	ChunkQueued ChunkState = iota
	ChunkPlaying
	ChunkPlayed
	ChunkInterrupted
)

func (s ChunkState) String() string {
	switch s {
	case ChunkQueued:
		return "QUEUED"
	case ChunkPlaying:
		return "PLAYING"
	case ChunkPlayed:
		return "PLAYED"
	case ChunkInterrupted:
		return "INTERRUPTED"
	default:
		return "UNKNOWN"
	}
}

// AudioChunk is an opaque synthesized-audio buffer moving through the
// OutputDevice. The producer creates it; only the OutputDevice consumer
// mutates State and fires the one-shot hooks.
type AudioChunk struct {
	Data  []byte
	State ChunkState

	onPlay      func()
	onInterrupt func()

	playFired      bool
	interruptFired bool
}

// NewAudioChunk wraps data with optional play/interrupt callbacks. Either
// hook may be nil.
func NewAudioChunk(data []byte, onPlay, onInterrupt func()) *AudioChunk {
	return &AudioChunk{Data: data, State: ChunkQueued, onPlay: onPlay, onInterrupt: onInterrupt}
}

// FirePlay transitions the chunk to PLAYED and invokes the on-play hook
// exactly once, regardless of how many times FirePlay is called.
func (c *AudioChunk) FirePlay() {
	c.State = ChunkPlayed
	if c.playFired {
		return
	}
	c.playFired = true
	if c.onPlay != nil {
		c.onPlay()
	}
}

// FireInterrupt transitions the chunk to INTERRUPTED and invokes the
// on-interrupt hook exactly once.
func (c *AudioChunk) FireInterrupt() {
	c.State = ChunkInterrupted
	if c.interruptFired {
		return
	}
	c.interruptFired = true
	if c.onInterrupt != nil {
		c.onInterrupt()
	}
}
