// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package callconfig holds the per-carrier codec/threshold tagged union a
// call session is configured with. It is deliberately config-shaped only:
// concrete carrier call-control clients stay out of scope (§1); this is
// what a caller threads into the output device and AMD-adjacent fields.
package callconfig

// Carrier identifies which tagged-union variant a CallConfig holds.
type Carrier string

const (
	CarrierTwilio Carrier = "twilio"
	CarrierVonage Carrier = "vonage"
	CarrierAltur  Carrier = "altur"
	CarrierBase   Carrier = "base"
)

// Encoding is the audio sample encoding a carrier leg uses.
type Encoding string

const (
	EncodingMuLaw    Encoding = "mulaw"
	EncodingLinear16 Encoding = "linear16"
)

// BytesPerMillisecond grounds the pacing arithmetic 4.A's OutputDevice
// uses, per carrier/encoding/rate/channel combination.
func BytesPerMillisecond(encoding Encoding, sampleRate, channels int) float64 {
	bytesPerSample := 1.0
	if encoding == EncodingLinear16 {
		bytesPerSample = 2.0
	}
	if channels <= 0 {
		channels = 1
	}
	return float64(sampleRate) / 1000.0 * bytesPerSample * float64(channels)
}

// AMDConfig is the answering-machine-detection config shape a caller
// threads through; no AMD logic is implemented here (out of scope, an
// ASR-adjacent concern) — only the config a caller would populate.
type AMDConfig struct {
	Enabled     bool
	CallbackURL string
	Threshold   float64
	Keywords    []string
}

// CallConfig is the tagged union over carrier-specific call configuration.
// Exactly one of Twilio/Vonage/Altur/Base should be non-nil, matching
// Carrier.
type CallConfig struct {
	Carrier Carrier
	AMD     *AMDConfig

	Twilio *TwilioCallConfig
	Vonage *VonageCallConfig
	Altur  *AlturCallConfig
	Base   *BaseCallConfig
}

// TwilioCallConfig mirrors the fields a Twilio Media Streams call needs:
// 8kHz mu-law, mono.
type TwilioCallConfig struct {
	AccountSID  string
	CallSID     string
	SampleRate  int
	Encoding    Encoding
	ChunkSizeMs int
}

// VonageCallConfig mirrors a Vonage Voice API WebSocket leg: 16kHz
// linear16, mono by default.
type VonageCallConfig struct {
	ApplicationID string
	UUID          string
	SampleRate    int
	Encoding      Encoding
	ChunkSizeMs   int
}

// AlturCallConfig is the in-house/local carrier variant: 48kHz linear16
// stereo, the highest-fidelity leg in the table.
type AlturCallConfig struct {
	SessionID   string
	SampleRate  int
	Channels    int
	Encoding    Encoding
	ChunkSizeMs int
}

// BaseCallConfig is the carrier-agnostic fallback used by tests and the
// abstract media WebSocket (§6) when no concrete carrier applies.
type BaseCallConfig struct {
	SampleRate  int
	Channels    int
	Encoding    Encoding
	ChunkSizeMs int
}
