// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import "sync/atomic"

// InterruptibleEvent wraps a payload with an interruptible flag. The flag
// may only transition true -> false, and strictly after the consumer has
// irrevocably committed to the payload (see output.Device).
type InterruptibleEvent[T any] struct {
	Payload T

	interrupted      atomic.Bool
	isInterruptible  atomic.Bool
}

// NewInterruptibleEvent wraps payload as interruptible by default.
func NewInterruptibleEvent[T any](payload T) *InterruptibleEvent[T] {
	e := &InterruptibleEvent[T]{Payload: payload}
	e.isInterruptible.Store(true)
	return e
}

// IsInterruptible reports whether the event can still be cancelled instead
// of delivered.
func (e *InterruptibleEvent[T]) IsInterruptible() bool {
	return e.isInterruptible.Load()
}

// SetIsInterruptible may only move the flag from true to false; once
// cleared it can never be set again.
func (e *InterruptibleEvent[T]) SetIsInterruptible(v bool) {
	if v {
		return
	}
	e.isInterruptible.Store(false)
}

// Interrupt marks the event as interrupted. A no-op once the event has
// already been marked non-interruptible by its consumer.
func (e *InterruptibleEvent[T]) Interrupt() bool {
	if !e.isInterruptible.Load() {
		return false
	}
	e.interrupted.Store(true)
	return true
}

// IsInterrupted reports whether Interrupt has taken effect.
func (e *InterruptibleEvent[T]) IsInterrupted() bool {
	return e.interrupted.Load()
}
