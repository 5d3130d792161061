// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package errors defines the sentinel failure kinds shared across the
// assistant pipeline, so callers can branch with errors.Is/errors.As
// instead of matching on error strings.
package errors

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("...: %w", ErrX) at the call site
// to attach context while keeping errors.Is matching intact.
var (
	// ErrTransport covers failures delivering bytes to a carrier or
	// downstream sink (websocket write failure, SIP transport drop).
	ErrTransport = errors.New("transport error")

	// ErrProtocol covers malformed or unexpected wire messages.
	ErrProtocol = errors.New("protocol error")

	// ErrArgument covers caller-supplied arguments that fail validation.
	ErrArgument = errors.New("argument error")

	// ErrCacheUnavailable is returned when a cache backend cannot be
	// reached; callers should degrade to bypass mode rather than fail.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrModelContextOverflow is returned when a projected transcript
	// cannot be made to fit a model's context window even after
	// truncation.
	ErrModelContextOverflow = errors.New("model context overflow")

	// ErrCallTerminated is returned by operations that can no longer
	// proceed because the call they belong to has ended.
	ErrCallTerminated = errors.New("call terminated")
)

// Is reports whether err wraps target, delegating to the standard
// library so call sites never need to import both packages.
func Is(err, target error) bool { return errors.Is(err, target) }

// As delegates to the standard library's errors.As.
func As(err error, target any) bool { return errors.As(err, target) }
