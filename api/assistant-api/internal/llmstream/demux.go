// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package llmstream demultiplexes a provider-agnostic stream of LLM delta
// chunks into a single stream of text tokens and tool-call fragments.
package llmstream

import (
	"context"

	"github.com/rapidaai/pkg/commons"
)

// FunctionCallDelta is the legacy (pre-tool-calls) function_call delta
// shape some providers still emit.
type FunctionCallDelta struct {
	Name      string
	Arguments string
}

// ToolCallDelta is one incremental fragment of a tool call at a given
// index in a provider's tool_calls array.
type ToolCallDelta struct {
	Index        int
	ID           string
	Name         string
	HasName      bool
	Arguments    string
	HasArguments bool
}

// StreamChunk is the adapter shape every provider's native streaming
// response is mapped to before reaching Demux, so the demultiplexing
// logic itself never depends on a specific SDK's chunk type.
type StreamChunk struct {
	Content      string
	HasContent   bool
	ToolCalls    []ToolCallDelta
	FunctionCall *FunctionCallDelta
	FinishReason string
}

// FunctionFragment is an incremental piece of a tool/function call: a
// name (sent at most once, on first emission for that call) plus the
// incremental arguments string for this delta.
type FunctionFragment struct {
	Name       string
	Arguments  string
	ToolCallID string
}

// TokenKind distinguishes the two shapes a demultiplexed Token can carry.
type TokenKind int

const (
	TokenContent TokenKind = iota
	TokenFunctionFragment
)

// Token is the tagged union Demux emits: either a plain text token or a
// FunctionFragment.
type Token struct {
	Kind     TokenKind
	Content  string
	Fragment FunctionFragment
}

type toolCallState struct {
	id        string
	name      string
	arguments string
	nameSent  bool
}

// Demux reads chunks from in and writes demultiplexed tokens to the
// returned channel, closing it when in closes, ctx is cancelled, or a
// chunk reports a terminal finish_reason. It is lazy, finite, and not
// restartable: a second call must be given a fresh input channel.
func Demux(ctx context.Context, logger commons.Logger, in <-chan StreamChunk) <-chan Token {
	out := make(chan Token)

	go func() {
		defer close(out)

		toolCalls := map[int]*toolCallState{}

		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-in:
				if !ok {
					return
				}

				if chunk.FinishReason != "" {
					if chunk.FinishReason == "content_filter" && logger != nil {
						logger.Warn("detected content filter in streaming completion")
					}
					return
				}

				if chunk.HasContent {
					if !emit(ctx, out, Token{Kind: TokenContent, Content: chunk.Content}) {
						return
					}
					continue
				}

				if len(chunk.ToolCalls) > 0 {
					for _, delta := range chunk.ToolCalls {
						state, exists := toolCalls[delta.Index]
						if !exists {
							state = &toolCallState{}
							toolCalls[delta.Index] = state
						}
						if delta.ID != "" {
							state.id = delta.ID
						}
						if delta.HasName {
							state.name += delta.Name
						}
						if delta.HasArguments {
							state.arguments += delta.Arguments

							// Only index 0 is surfaced downstream; the
							// first tool call wins the tie-break.
							if delta.Index == 0 {
								nameToSend := ""
								if !state.nameSent && state.name != "" {
									nameToSend = state.name
									state.nameSent = true
								}
								fragment := FunctionFragment{
									Name:       nameToSend,
									Arguments:  delta.Arguments,
									ToolCallID: state.id,
								}
								if !emit(ctx, out, Token{Kind: TokenFunctionFragment, Fragment: fragment}) {
									return
								}
							}
						}
					}
					continue
				}

				if chunk.FunctionCall != nil {
					fragment := FunctionFragment{
						Name:      chunk.FunctionCall.Name,
						Arguments: chunk.FunctionCall.Arguments,
					}
					if !emit(ctx, out, Token{Kind: TokenFunctionFragment, Fragment: fragment}) {
						return
					}
				}
			}
		}
	}()

	return out
}

func emit(ctx context.Context, out chan<- Token, tok Token) bool {
	select {
	case out <- tok:
		return true
	case <-ctx.Done():
		return false
	}
}
