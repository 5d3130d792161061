// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package transcript

import "strings"

// lookaheadWindow bounds how far past a BOT message ProjectToChatMessages
// scans for an associated ActionStart.
const lookaheadWindow = 4

// MergeEventLogs returns a copy of logs with runs of consecutive BOT
// Message entries collapsed into one, their text space-joined. Every
// other entry passes through unchanged and in order.
func MergeEventLogs(logs []EventLog) []EventLog {
	merged := make([]EventLog, 0, len(logs))
	i := 0
	for i < len(logs) {
		msg, ok := logs[i].(Message)
		if !ok || msg.Sender != SenderBot {
			merged = append(merged, logs[i])
			i++
			continue
		}

		var parts []string
		last := msg
		for i < len(logs) {
			m, ok := logs[i].(Message)
			if !ok || m.Sender != SenderBot {
				break
			}
			parts = append(parts, m.Text)
			last = m
			i++
		}
		last.Text = strings.Join(parts, " ")
		merged = append(merged, last)
	}
	return merged
}

// ProjectToChatMessages converts merged (or raw — it merges internally)
// event logs into the OpenAI-compatible chat message list, prepending a
// system message built from preamble. Every non-phrase-triggered
// ActionStart with a tool_call_id that has a matching ActionFinish is
// projected at most once, paired with its tool response.
func ProjectToChatMessages(logs []EventLog, preamble string) []ChatMessage {
	merged := MergeEventLogs(logs)
	messages := []ChatMessage{{Role: "system", Content: strPtr(preamble)}}

	finishes := map[string]ActionFinish{}
	for _, e := range merged {
		if af, ok := e.(ActionFinish); ok && af.ToolCallID != "" {
			finishes[af.ToolCallID] = af
		}
	}

	processed := map[string]bool{}

	i := 0
	for i < len(merged) {
		switch ev := merged[i].(type) {
		case Message:
			if strings.TrimSpace(ev.Text) == "" {
				i++
				continue
			}
			if ev.Sender == SenderBot {
				messages = append(messages, projectBotMessage(ev, merged, i, finishes, processed)...)
			} else {
				messages = append(messages, ChatMessage{Role: "user", Content: strPtr(ev.Text)})
			}
			i++

		case ActionStart:
			if ev.Trigger == TriggerPhraseBased || ev.ToolCallID == "" || processed[ev.ToolCallID] {
				i++
				continue
			}
			if finish, ok := finishes[ev.ToolCallID]; ok {
				messages = append(messages, assistantToolCallMessage(nil, ev))
				processed[ev.ToolCallID] = true
				messages = append(messages, ChatMessage{Role: "tool", ToolCallID: ev.ToolCallID, Content: strPtr(finish.ResultText)})
			}
			i++

		case ConferenceEvent:
			messages = append(messages, ChatMessage{Role: "user", Content: strPtr(ev.Text)})
			i++

		default:
			i++
		}
	}

	return messages
}

// projectBotMessage handles one BOT Message: it looks up to lookaheadWindow
// entries ahead for an associated ActionStart, terminating early at the
// next HUMAN Message, and emits either an assistant+tool_calls pair or a
// plain assistant message.
func projectBotMessage(msg Message, merged []EventLog, idx int, finishes map[string]ActionFinish, processed map[string]bool) []ChatMessage {
	limit := idx + 1 + lookaheadWindow
	if limit > len(merged) {
		limit = len(merged)
	}

	var associated *ActionStart
	for j := idx + 1; j < limit; j++ {
		switch next := merged[j].(type) {
		case ActionStart:
			if next.Trigger != TriggerPhraseBased && next.ToolCallID != "" && !processed[next.ToolCallID] {
				if _, ok := finishes[next.ToolCallID]; ok {
					nc := next
					associated = &nc
				}
			}
		case Message:
			if next.Sender == SenderHuman {
				j = limit
				continue
			}
		}
		if associated != nil {
			break
		}
	}

	if associated == nil {
		return []ChatMessage{{Role: "assistant", Content: strPtr(msg.Text)}}
	}

	processed[associated.ToolCallID] = true
	finish := finishes[associated.ToolCallID]
	content := msg.Text
	return []ChatMessage{
		assistantToolCallMessage(&content, *associated),
		{Role: "tool", ToolCallID: associated.ToolCallID, Content: strPtr(finish.ResultText)},
	}
}

func assistantToolCallMessage(content *string, action ActionStart) ChatMessage {
	return ChatMessage{
		Role:    "assistant",
		Content: content,
		ToolCalls: []ToolCall{{
			ID:   action.ToolCallID,
			Type: "function",
			Function: FunctionCall{
				Name:      action.ActionType,
				Arguments: action.ActionInput,
			},
		}},
	}
}
