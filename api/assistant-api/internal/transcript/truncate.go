// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package transcript

import (
	"encoding/json"

	"github.com/rapidaai/pkg/commons"

	"github.com/rapidaai/api/assistant-api/internal/tokens"
)

// safetyMargin is the fixed margin subtracted, together with the caller's
// replyReserve, from the model's max context before truncation kicks in.
const safetyMargin = 50

// TruncateToContextWindow drops messages from the front of the projected
// list (preserving the system message, and skipping tool-call/tool-response
// pairs unless firstRemovableIndex finds no other candidate, in which case
// index 1 goes regardless) until the token cost fits within model's
// context window minus replyReserve tokens reserved for the agent's own reply and a fixed
// safety margin. It returns the possibly-shortened list and how many
// messages were removed.
func TruncateToContextWindow(logger commons.Logger, messages []ChatMessage, functions []tokens.FunctionSchema, model string, replyReserve int) ([]ChatMessage, int, error) {
	budget := tokens.MaxContextTokens(model) - replyReserve - safetyMargin

	total, err := totalTokens(logger, messages, functions, model)
	if err != nil {
		return nil, 0, err
	}

	removed := 0
	for total > budget && len(messages) > 1 {
		idx := firstRemovableIndex(messages)
		messages = append(messages[:idx], messages[idx+1:]...)
		removed++

		total, err = totalTokens(logger, messages, functions, model)
		if err != nil {
			return nil, removed, err
		}
	}

	if removed > 0 && logger != nil {
		logger.Infof("removed %d messages from prompt to satisfy context limit", removed)
	}
	return messages, removed, nil
}

// firstRemovableIndex scans from index 1 for the first message that is
// neither a tool response nor an assistant message carrying tool_calls,
// so pair integrity is preserved. If none qualifies, index 1 is removed
// unconditionally as an escape hatch.
func firstRemovableIndex(messages []ChatMessage) int {
	for i := 1; i < len(messages); i++ {
		m := messages[i]
		if m.Role == "tool" {
			continue
		}
		if m.Role == "assistant" && len(m.ToolCalls) > 0 {
			continue
		}
		return i
	}
	return 1
}

func totalTokens(logger commons.Logger, messages []ChatMessage, functions []tokens.FunctionSchema, model string) (int, error) {
	msgTokens, err := tokens.NumTokensFromMessages(logger, toTokenMaps(messages), model)
	if err != nil {
		return 0, err
	}
	fnTokens, err := tokens.NumTokensFromFunctions(logger, functions, model)
	if err != nil {
		return 0, err
	}
	return msgTokens + fnTokens, nil
}

// toTokenMaps round-trips ChatMessage through JSON to get the generic
// map[string]any shape the token accountant walks, rather than duplicating
// its field-by-field traversal here.
func toTokenMaps(messages []ChatMessage) []map[string]any {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		encoded, err := json.Marshal(m)
		if err != nil {
			continue
		}
		var decoded map[string]any
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			continue
		}
		out = append(out, decoded)
	}
	return out
}
