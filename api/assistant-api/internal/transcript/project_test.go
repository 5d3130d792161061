// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEventLogs_CollapsesConsecutiveBotMessages(t *testing.T) {
	logs := []EventLog{
		Message{Sender: SenderBot, Text: "Hello"},
		Message{Sender: SenderBot, Text: "there"},
		Message{Sender: SenderHuman, Text: "hi"},
	}

	merged := MergeEventLogs(logs)

	require.Len(t, merged, 2)
	assert.Equal(t, "Hello there", merged[0].(Message).Text)
	assert.Equal(t, "hi", merged[1].(Message).Text)
}

func TestMergeEventLogs_NonBotEntriesPassThroughUnmerged(t *testing.T) {
	logs := []EventLog{
		Message{Sender: SenderBot, Text: "a"},
		ActionStart{ToolCallID: "t1", ActionType: "x"},
		Message{Sender: SenderBot, Text: "b"},
	}

	merged := MergeEventLogs(logs)

	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].(Message).Text)
	assert.Equal(t, "b", merged[2].(Message).Text)
}

func TestProjectToChatMessages_ScenarioS1_ToolCallPairing(t *testing.T) {
	logs := []EventLog{
		Message{Sender: SenderBot, Text: "Let me check"},
		ActionStart{ToolCallID: "T1", ActionType: "lookup", ActionInput: `{"q":"x"}`},
		ActionFinish{ToolCallID: "T1", ResultText: "ok"},
		Message{Sender: SenderBot, Text: "Found it"},
	}

	messages := ProjectToChatMessages(logs, "You are helpful.")

	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "You are helpful.", *messages[0].Content)

	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "Let me check", *messages[1].Content)
	require.Len(t, messages[1].ToolCalls, 1)
	assert.Equal(t, "T1", messages[1].ToolCalls[0].ID)
	assert.Equal(t, "lookup", messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, `{"q":"x"}`, messages[1].ToolCalls[0].Function.Arguments)

	assert.Equal(t, "tool", messages[2].Role)
	assert.Equal(t, "T1", messages[2].ToolCallID)
	assert.Equal(t, "ok", *messages[2].Content)

	assert.Equal(t, "assistant", messages[3].Role)
	assert.Equal(t, "Found it", *messages[3].Content)
	assert.Empty(t, messages[3].ToolCalls)
}

func TestProjectToChatMessages_ScenarioS2_MergesBeforeProjecting(t *testing.T) {
	logs := []EventLog{
		Message{Sender: SenderBot, Text: "Hello"},
		Message{Sender: SenderBot, Text: "there"},
	}

	messages := ProjectToChatMessages(logs, "preamble")

	require.Len(t, messages, 2)
	assert.Equal(t, "Hello there", *messages[1].Content)
}

func TestProjectToChatMessages_OrphanActionStartEmitsNullContentAssistant(t *testing.T) {
	logs := []EventLog{
		Message{Sender: SenderHuman, Text: "what's the weather"},
		ActionStart{ToolCallID: "T2", ActionType: "get_weather", ActionInput: `{}`},
		ActionFinish{ToolCallID: "T2", ResultText: "sunny"},
	}

	messages := ProjectToChatMessages(logs, "preamble")

	require.Len(t, messages, 4)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Nil(t, messages[2].Content)
	require.Len(t, messages[2].ToolCalls, 1)
	assert.Equal(t, "T2", messages[2].ToolCalls[0].ID)
	assert.Equal(t, "tool", messages[3].Role)
	assert.Equal(t, "sunny", *messages[3].Content)
}

func TestProjectToChatMessages_LookaheadTerminatesAtHumanMessage(t *testing.T) {
	logs := []EventLog{
		Message{Sender: SenderBot, Text: "one moment"},
		Message{Sender: SenderHuman, Text: "ok"},
		ActionStart{ToolCallID: "T3", ActionType: "lookup"},
		ActionFinish{ToolCallID: "T3", ResultText: "done"},
	}

	messages := ProjectToChatMessages(logs, "preamble")

	// The bot message must not pick up the tool call beyond the intervening
	// human turn; the orphan ActionStart is still projected on its own.
	require.Len(t, messages, 5)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Empty(t, messages[1].ToolCalls)
	assert.Equal(t, "user", messages[2].Role)
	assert.Equal(t, "assistant", messages[3].Role)
	require.Len(t, messages[3].ToolCalls, 1)
}

func TestProjectToChatMessages_PhraseTriggeredActionIsDropped(t *testing.T) {
	logs := []EventLog{
		ActionStart{ToolCallID: "T4", ActionType: "hangup", Trigger: TriggerPhraseBased},
		ActionFinish{ToolCallID: "T4", ResultText: "bye"},
	}

	messages := ProjectToChatMessages(logs, "preamble")

	require.Len(t, messages, 1, "only the system message; the phrase-triggered action never projects")
}

func TestProjectToChatMessages_ToolCallIDProjectedAtMostOnce(t *testing.T) {
	logs := []EventLog{
		ActionStart{ToolCallID: "T5", ActionType: "lookup"},
		ActionFinish{ToolCallID: "T5", ResultText: "first"},
		ActionStart{ToolCallID: "T5", ActionType: "lookup"},
	}

	messages := ProjectToChatMessages(logs, "preamble")

	toolCallCount := 0
	for _, m := range messages {
		for _, tc := range m.ToolCalls {
			if tc.ID == "T5" {
				toolCallCount++
			}
		}
	}
	assert.Equal(t, 1, toolCallCount)
}

func TestProjectToChatMessages_ConferenceEventProjectsAsUser(t *testing.T) {
	logs := []EventLog{ConferenceEvent{Text: "Alice joined the call"}}

	messages := ProjectToChatMessages(logs, "preamble")

	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "Alice joined the call", *messages[1].Content)
}

func TestProjectToChatMessages_EmptyMessagesAreDropped(t *testing.T) {
	logs := []EventLog{
		Message{Sender: SenderHuman, Text: "   "},
		Message{Sender: SenderHuman, Text: "hi"},
	}

	messages := ProjectToChatMessages(logs, "preamble")

	require.Len(t, messages, 2)
	assert.Equal(t, "hi", *messages[1].Content)
}
