// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package temporal detects natural-language date phrases in a transcript
// utterance ("el lunes pasado", "next Tuesday", "in 3 days") and appends a
// resolved ISO date next to each one, so downstream components (actions,
// logging) can work with an unambiguous date instead of a relative phrase.
package temporal

import (
	"sort"
	"strings"
	"time"

	"github.com/rapidaai/pkg/commons"
)

// trailingModifierWindow bounds how far past a match end we look for a
// trailing modifier word ("pasado", "ago") to fold into the annotated span.
const trailingModifierWindow = 15

// DefaultDirection is the direction an ambiguous phrase (no explicit
// modifier and no detectable tense) is resolved in. It is DirectionFuture
// unless a caller sets it otherwise.
var DefaultDirection = DirectionFuture

// Match describes one resolved temporal phrase within an enriched string.
type Match struct {
	Text      string
	Pos       int
	End       int
	Direction Direction
	Date      time.Time
}

// Enrich scans text for temporal phrases in the given languages and
// returns a copy of text with a "(YYYY-MM-DD)" annotation spliced in after
// each one. now is the reference instant phrases are resolved against
// (almost always the call's current time). An ambiguous phrase — no
// explicit modifier and no detectable tense — is resolved in
// DefaultDirection, the future by default, matching the assistant's
// booking-oriented bias.
func Enrich(logger commons.Logger, text string, now time.Time, languages []string) string {
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	matches := resolveMatches(text, now, languages)
	if len(matches) == 0 {
		return text
	}

	// Splice back-to-front so earlier offsets stay valid.
	sort.Slice(matches, func(i, j int) bool { return matches[i].Pos > matches[j].Pos })

	enriched := text
	for _, m := range matches {
		annotation := " (" + m.Date.Format("2006-01-02") + ")"
		enriched = enriched[:m.End] + annotation + enriched[m.End:]
		if logger != nil {
			logger.Debugf("temporal enrichment: %q -> %s", m.Text, m.Date.Format("2006-01-02"))
		}
	}
	return enriched
}

// resolveMatches runs the search/filter/direction/extend pipeline and
// returns non-overlapping matches in ascending position order.
func resolveMatches(text string, now time.Time, languages []string) []Match {
	candidates := searchAll(text, now, languages)

	var valid []Match
	for _, c := range candidates {
		if !isValidMatch(c.text, languages) {
			continue
		}
		dir := detectDirection(text, c.pos, c.text, languages)
		resolveDir := dir
		if resolveDir == DirectionUnknown {
			resolveDir = DefaultDirection
		}
		end := c.pos + len(c.text)
		end = extendOverTrailingModifier(text, end, resolveDir, languages)

		valid = append(valid, Match{
			Text:      text[c.pos:end],
			Pos:       c.pos,
			End:       end,
			Direction: resolveDir,
			Date:      c.resolve(resolveDir),
		})
	}

	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Pos != valid[j].Pos {
			return valid[i].Pos < valid[j].Pos
		}
		return valid[i].End > valid[j].End
	})
	return dedupeOverlapping(valid)
}

func isValidMatch(matchText string, languages []string) bool {
	if len([]rune(matchText)) >= minDateMatchLength {
		return true
	}
	for _, lang := range languages {
		for _, short := range validShortPatterns[lang] {
			if strings.EqualFold(matchText, short) {
				return true
			}
		}
	}
	return false
}

// extendOverTrailingModifier extends a match's end position to swallow an
// immediately-following direction modifier ("pasado", "ago", "next") so the
// annotation lands after the whole phrase rather than in the middle of it.
func extendOverTrailingModifier(text string, end int, dir Direction, languages []string) int {
	modifiersByLang := pastModifiersAfter
	if dir == DirectionFuture {
		modifiersByLang = futureModifiersAfter
	}

	windowEnd := end + trailingModifierWindow
	if windowEnd > len(text) {
		windowEnd = len(text)
	}
	window := text[end:windowEnd]
	trimmed := strings.TrimLeft(window, " ")
	leadingSpace := len(window) - len(trimmed)

	for _, lang := range languages {
		for _, m := range modifiersByLang[lang] {
			if hasPrefixFold(trimmed, m) {
				return end + leadingSpace + len(m)
			}
		}
	}
	return end
}

// dedupeOverlapping keeps the first (leftmost, then longest) match in each
// run of overlapping candidates, since two matchers can fire on the same
// span (e.g. a weekday name also swept up by a wider relative-unit match).
func dedupeOverlapping(matches []Match) []Match {
	var out []Match
	lastEnd := -1
	for _, m := range matches {
		if m.Pos < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.End
	}
	return out
}
