// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package tokens counts the tokens a projected transcript and its tool
// schemas would cost against a model's context window, so the transcript
// projector (internal/transcript) knows when to truncate.
package tokens

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rapidaai/pkg/commons"
)

// maxContextTokens is the model-to-max-tokens table. Unknown models fall
// back to a conservative default rather than failing closed.
var maxContextTokens = map[string]int{
	"gpt-4o":       127940,
	"gpt-4o-mini":  127940,
	"gpt-4.1":      999000,
	"gpt-4.1-mini": 999000,
	"gpt-4.1-nano": 999000,
}

const defaultMaxContextTokens = 4050

// encodingFallbacks maps models tiktoken-go does not yet recognize to a
// known alternate encoding, the first of the two fallback tiers.
var encodingFallbacks = map[string]string{
	"gpt-4.1":      "o200k_base",
	"gpt-4.1-mini": "o200k_base",
	"gpt-4.1-nano": "o200k_base",
}

const defaultEncoding = "cl100k_base"

// messageOverhead and nameOverhead mirror the OpenAI chat-completions
// token-accounting constants: every message costs a fixed overhead, and a
// "name" field costs an additional token.
const (
	messageOverhead = 3
	nameOverhead    = 1
	replyPriming    = 3
)

// MaxContextTokens returns the context window for model, stripping a
// leading "ft:<base>:..." fine-tune prefix before lookup.
func MaxContextTokens(model string) int {
	base := model
	if strings.HasPrefix(model, "ft:") {
		parts := strings.Split(model, ":")
		if len(parts) > 1 {
			base = parts[1]
		}
	}
	if n, ok := maxContextTokens[base]; ok {
		return n
	}
	return defaultMaxContextTokens
}

// encodingForModel resolves a tiktoken encoding for model, falling back
// first to a known alternate encoding, then to cl100k_base, so an unknown
// model name is never itself an error; an error is returned only when the
// chosen encoding cannot be loaded.
func encodingForModel(logger commons.Logger, model string) (*tiktoken.Tiktoken, error) {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return enc, nil
	}
	if override, ok := encodingFallbacks[model]; ok {
		return tiktoken.GetEncoding(override)
	}
	if logger != nil {
		logger.Debugf("model %q not found in tiktoken; using %s as approximation", model, defaultEncoding)
	}
	return tiktoken.GetEncoding(defaultEncoding)
}

// NumTokensFromMessages counts the tokens a list of chat messages would
// cost under model's encoding, including the fixed per-message and
// reply-priming overhead.
func NumTokensFromMessages(logger commons.Logger, messages []map[string]any, model string) (int, error) {
	encoding, err := encodingForModel(logger, model)
	if err != nil {
		return 0, fmt.Errorf("resolving encoding for model %q: %w", model, err)
	}

	total := 0
	for _, message := range messages {
		total += messageOverhead
		total += tokensFromValue(encoding, message)
	}
	total += replyPriming
	return total, nil
}

// tokensFromValue recursively walks a decoded JSON-ish map, tokenizing
// every string leaf and adding nameOverhead for "name" keys, mirroring
// the upstream accounting's handling of nested tool-call structures.
func tokensFromValue(encoding *tiktoken.Tiktoken, d map[string]any) int {
	total := 0
	for key, value := range d {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			total += len(encoding.Encode(v, nil, nil))
			if key == "name" {
				total += nameOverhead
			}
		case map[string]any:
			total += tokensFromValue(encoding, v)
		case []any:
			for _, item := range v {
				switch iv := item.(type) {
				case string:
					total += len(encoding.Encode(iv, nil, nil))
				case map[string]any:
					total += tokensFromValue(encoding, iv)
				}
			}
		}
	}
	return total
}

// functionOverheadPreamble is the fixed "# Tools\n\n## functions\n..."
// boilerplate every rendered function schema is prefixed with for billing
// purposes, matching the upstream constant.
const functionOverheadPreamble = "# Tools\n\n## functions\n\nnamespace functions {\n\n} // namespace functions"

// FunctionSchema is the subset of a JSON Schema function/tool definition
// the renderer needs: name, description, and parameters (itself a JSON
// Schema object, optionally containing $ref entries resolved against
// Definitions).
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Definitions map[string]any `json:"definitions,omitempty"`
}

// NumTokensFromFunctions counts the tokens the given function/tool
// schemas would add to a prompt, via the pseudo-TypeScript renderer.
func NumTokensFromFunctions(logger commons.Logger, functions []FunctionSchema, model string) (int, error) {
	if len(functions) == 0 {
		return 0, nil
	}

	encoding, err := encodingForModel(logger, model)
	if err != nil {
		return 0, fmt.Errorf("resolving encoding for model %q: %w", model, err)
	}

	overhead := messageOverhead + len(encoding.Encode(functionOverheadPreamble, nil, nil))

	total := overhead
	for _, f := range functions {
		rendered := formatFunctionIntoPromptString(f)
		total += len(encoding.Encode(rendered, nil, nil))
	}
	return total, nil
}

// formatFunctionIntoPromptString renders one function schema as a
// TypeScript-flavored type alias, the representation the model is billed
// for consuming.
func formatFunctionIntoPromptString(f FunctionSchema) string {
	var b strings.Builder
	b.WriteString("// ")
	b.WriteString(f.Description)
	b.WriteString("\ntype ")
	b.WriteString(f.Name)
	b.WriteString(" = (")

	formatted := formatObjectSchema(f.Parameters, f.Definitions, 0)
	if formatted != "" {
		b.WriteString("_: ")
		b.WriteString(formatted)
	}
	b.WriteString(") => any;\n\n")
	return b.String()
}

func resolveRef(schema, definitions map[string]any) map[string]any {
	ref, ok := schema["$ref"].(string)
	if !ok {
		return schema
	}
	const prefix = "#/definitions/"
	name := strings.TrimPrefix(ref, prefix)
	if resolved, ok := definitions[name].(map[string]any); ok {
		return resolved
	}
	return schema
}

func formatSchema(schema, definitions map[string]any, indent int) string {
	schema = resolveRef(schema, definitions)

	if _, ok := schema["enum"]; ok {
		return formatEnum(schema)
	}

	schemaType, _ := schema["type"].(string)
	switch schemaType {
	case "object":
		return formatObjectSchema(schema, definitions, indent)
	case "integer":
		return "number"
	case "boolean":
		return "boolean"
	case "string", "number":
		return schemaType
	case "array":
		items, _ := schema["items"].(map[string]any)
		return formatSchema(items, definitions, indent) + "[]"
	default:
		return "any"
	}
}

func formatEnum(schema map[string]any) string {
	values, _ := schema["enum"].([]any)
	parts := make([]string, 0, len(values))
	for _, v := range values {
		encoded, _ := json.Marshal(v)
		parts = append(parts, string(encoded))
	}
	return strings.Join(parts, " | ")
}

func formatObjectSchema(schema, definitions map[string]any, indent int) string {
	properties, _ := schema["properties"].(map[string]any)
	if len(properties) == 0 {
		if additional, _ := schema["additionalProperties"].(bool); additional {
			return "object"
		}
		return ""
	}

	required := map[string]bool{}
	if reqList, ok := schema["required"].([]any); ok {
		for _, r := range reqList {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{\n")
	pad := strings.Repeat("  ", indent)
	for _, key := range keys {
		value, _ := properties[key].(map[string]any)
		value = resolveRef(value, definitions)

		rendered := formatSchema(value, definitions, indent+1)
		if rendered == "" {
			continue
		}

		if indent == 0 {
			if desc, ok := value["description"].(string); ok {
				for _, line := range strings.Split(strings.TrimSpace(desc), "\n") {
					b.WriteString(pad)
					b.WriteString("// ")
					b.WriteString(line)
					b.WriteString("\n")
				}
			}
		}

		optional := "?"
		if required[key] {
			optional = ""
		}

		comment := ""
		if def, ok := value["default"]; ok {
			comment = " // default: " + formatDefault(value, def)
		}

		b.WriteString(pad)
		b.WriteString(key)
		b.WriteString(optional)
		b.WriteString(": ")
		b.WriteString(rendered)
		b.WriteString(",")
		b.WriteString(comment)
		b.WriteString("\n")
	}
	if indent > 0 {
		b.WriteString(strings.Repeat("  ", indent-1))
	}
	b.WriteString("}")
	return b.String()
}

func formatDefault(schema map[string]any, def any) string {
	schemaType, _ := schema["type"].(string)
	if schemaType == "number" {
		if f, ok := def.(float64); ok {
			if f == float64(int64(f)) {
				return fmt.Sprintf("%.1f", f)
			}
			return fmt.Sprintf("%v", f)
		}
	}
	return fmt.Sprintf("%v", def)
}
