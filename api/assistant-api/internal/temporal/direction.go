// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package temporal

import (
	"regexp"
	"strings"
)

// Direction is the resolved temporal polarity of a matched phrase.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionPast
	DirectionFuture
)

const (
	directModifierWindow = 20
	tenseVerbWindow       = 50
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// detectDirection mirrors a two-tier heuristic: first look for an explicit
// modifier directly touching the match ("el lunes pasado", "next monday"),
// then fall back to scanning a wider sentence window for a conjugated verb
// that pins the sentence to the past or future register. Returns
// DirectionUnknown when neither signal is present or the verb scan finds
// both registers (a genuinely ambiguous sentence).
func detectDirection(text string, matchPos int, matchText string, languages []string) Direction {
	before, after := splitContext(text, matchPos, matchText, directModifierWindow)
	beforeTrimmed := strings.TrimRight(before, " ")
	afterTrimmed := strings.TrimLeft(after, " ")

	for _, lang := range languages {
		for _, m := range pastModifiersAfter[lang] {
			if hasPrefixFold(afterTrimmed, m) {
				return DirectionPast
			}
		}
	}
	for _, lang := range languages {
		for _, m := range pastModifiersBefore[lang] {
			if hasSuffixFold(beforeTrimmed, m) {
				return DirectionPast
			}
		}
	}
	for _, lang := range languages {
		for _, m := range futureModifiersAfter[lang] {
			if hasPrefixFold(afterTrimmed, m) {
				return DirectionFuture
			}
		}
	}
	for _, lang := range languages {
		for _, m := range futureModifiersBefore[lang] {
			if hasSuffixFold(beforeTrimmed, m) {
				return DirectionFuture
			}
		}
	}

	sentBefore, sentAfter := splitContext(text, matchPos, matchText, tenseVerbWindow)
	window := strings.ToLower(sentBefore + " " + sentAfter)
	tokens := map[string]bool{}
	for _, w := range wordPattern.FindAllString(window, -1) {
		tokens[strings.ToLower(w)] = true
	}

	foundPast := scanVerbs(window, tokens, languages, pastTenseVerbs)
	foundFuture := scanVerbs(window, tokens, languages, futureTenseVerbs)

	switch {
	case foundPast && !foundFuture:
		return DirectionPast
	case foundFuture && !foundPast:
		return DirectionFuture
	default:
		return DirectionUnknown
	}
}

func scanVerbs(window string, tokens map[string]bool, languages []string, verbsByLang map[string][]string) bool {
	for _, lang := range languages {
		for _, verb := range verbsByLang[lang] {
			if strings.Contains(verb, " ") {
				if strings.Contains(window, verb) {
					return true
				}
				continue
			}
			if tokens[verb] {
				return true
			}
		}
	}
	return false
}

func splitContext(text string, matchPos int, matchText string, width int) (before, after string) {
	start := matchPos - width
	if start < 0 {
		start = 0
	}
	end := matchPos + len(matchText) + width
	if end > len(text) {
		end = len(text)
	}
	before = text[start:matchPos]
	afterStart := matchPos + len(matchText)
	if afterStart > len(text) {
		afterStart = len(text)
	}
	after = text[afterStart:end]
	return before, after
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
