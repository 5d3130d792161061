// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/api/assistant-api/internal/tokens"
)

func chatMsg(role, content string) ChatMessage {
	return ChatMessage{Role: role, Content: strPtr(content)}
}

func TestTruncateToContextWindow_NoopWhenUnderBudget(t *testing.T) {
	messages := []ChatMessage{
		chatMsg("system", "preamble"),
		chatMsg("user", "hi"),
		chatMsg("assistant", "hello"),
	}

	out, removed, err := TruncateToContextWindow(nil, messages, nil, "gpt-4o", 500)

	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Len(t, out, 3)
}

func TestTruncateToContextWindow_DropsOldestSafeMessageFirst(t *testing.T) {
	messages := []ChatMessage{
		chatMsg("system", "preamble"),
		chatMsg("user", strings.Repeat("word ", 2000)),
		chatMsg("assistant", strings.Repeat("word ", 2000)),
		chatMsg("user", "most recent question"),
	}

	// A tiny model so the budget is easy to overflow and force truncation.
	out, removed, err := TruncateToContextWindow(nil, messages, nil, "unknown-model", 3800)

	require.NoError(t, err)
	require.Greater(t, removed, 0)
	assert.Equal(t, "system", out[0].Role)
	// The most recent message must survive truncation.
	assert.Equal(t, "most recent question", *out[len(out)-1].Content)
}

func TestTruncateToContextWindow_NeverRemovesToolResponsesOrToolCallAssistants(t *testing.T) {
	messages := []ChatMessage{
		chatMsg("system", "preamble"),
		{Role: "assistant", Content: nil, ToolCalls: []ToolCall{{ID: "T1", Type: "function", Function: FunctionCall{Name: "lookup", Arguments: "{}"}}}},
		{Role: "tool", ToolCallID: "T1", Content: strPtr(strings.Repeat("result ", 50))},
		chatMsg("user", strings.Repeat("filler ", 5000)),
	}

	// A large enough budget that only the oversized filler message (not the
	// small tool-call pair) needs to be dropped to fit.
	out, _, err := TruncateToContextWindow(nil, messages, nil, "unknown-model", 0)

	require.NoError(t, err)
	// The pair must remain intact even though truncation ran.
	var sawToolCallAssistant, sawToolResponse bool
	for _, m := range out {
		if m.Role == "assistant" && len(m.ToolCalls) > 0 {
			sawToolCallAssistant = true
		}
		if m.Role == "tool" {
			sawToolResponse = true
		}
	}
	assert.True(t, sawToolCallAssistant)
	assert.True(t, sawToolResponse)
}

func TestTruncateToContextWindow_StopsAtSystemMessageOnly(t *testing.T) {
	messages := []ChatMessage{
		chatMsg("system", "preamble"),
		chatMsg("user", strings.Repeat("word ", 100000)),
	}

	out, _, err := TruncateToContextWindow(nil, messages, nil, "unknown-model", 3800)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "system", out[0].Role)
}

func TestFirstRemovableIndex_SkipsToolAndToolCallAssistant(t *testing.T) {
	messages := []ChatMessage{
		chatMsg("system", "preamble"),
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "T1"}}},
		{Role: "tool", ToolCallID: "T1", Content: strPtr("result")},
		chatMsg("user", "question"),
	}

	idx := firstRemovableIndex(messages)

	assert.Equal(t, 3, idx)
}

func TestNumTokensFromFunctions_IsIncludedInTotal(t *testing.T) {
	functions := []tokens.FunctionSchema{{Name: "lookup", Description: "looks things up", Parameters: map[string]any{"type": "object"}}}
	withFn, err := totalTokens(nil, []ChatMessage{chatMsg("system", "x")}, functions, "gpt-4o")
	require.NoError(t, err)
	withoutFn, err := totalTokens(nil, []ChatMessage{chatMsg("system", "x")}, nil, "gpt-4o")
	require.NoError(t, err)
	assert.Greater(t, withFn, withoutFn)
}
