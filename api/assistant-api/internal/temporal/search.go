// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// rawMatch is a candidate temporal phrase found in the input text, with a
// resolver that turns a chosen Direction into a concrete date.
type rawMatch struct {
	text    string
	pos     int
	resolve func(dir Direction) time.Time
}

// searchAll runs every matcher over text and returns every candidate it
// finds, unfiltered and unsorted.
func searchAll(text string, now time.Time, languages []string) []rawMatch {
	var matches []rawMatch
	matches = append(matches, matchWeekdays(text, now, languages)...)
	matches = append(matches, matchRelativeWords(text, now, languages)...)
	matches = append(matches, matchRelativeUnits(text, now, languages)...)
	return matches
}

// findWordOccurrences returns the byte offsets of every case-insensitive,
// whole-word occurrence of word in text. "Whole word" is judged manually
// (rather than with regexp \b) because Go's RE2 word-boundary class is
// ASCII-only and several of the languages here use accented letters.
func findWordOccurrences(text, word string) []int {
	if word == "" {
		return nil
	}
	lowerText := strings.ToLower(text)
	lowerWord := strings.ToLower(word)

	var positions []int
	runes := []rune(lowerText)
	wordRunes := []rune(lowerWord)
	n, m := len(runes), len(wordRunes)

	// byte offsets per rune index, for translating back to string indices.
	offsets := make([]int, n+1)
	b := 0
	for i, r := range runes {
		offsets[i] = b
		b += len(string(r))
	}
	offsets[n] = b

	for i := 0; i+m <= n; i++ {
		match := true
		for j := 0; j < m; j++ {
			if runes[i+j] != wordRunes[j] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if i > 0 && isWordRune(runes[i-1]) {
			continue
		}
		if i+m < n && isWordRune(runes[i+m]) {
			continue
		}
		positions = append(positions, offsets[i])
	}
	return positions
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func matchWeekdays(text string, now time.Time, languages []string) []rawMatch {
	var matches []rawMatch
	for _, lang := range languages {
		names, ok := weekdays[lang]
		if !ok {
			continue
		}
		for weekday, name := range names {
			target := weekday
			for _, pos := range findWordOccurrences(text, name) {
				matched := matchedBytes(text, pos, name)
				matches = append(matches, rawMatch{
					text: matched,
					pos:  pos,
					resolve: func(dir Direction) time.Time {
						return resolveWeekday(now, target, dir)
					},
				})
			}
		}
	}
	return matches
}

// matchedBytes returns the original-cased slice of text at pos with the
// same byte length as name (name is matched case-insensitively, so the
// source text may differ in case from the word list entry).
func matchedBytes(text string, pos int, name string) string {
	end := pos + len(name)
	if end > len(text) {
		end = len(text)
	}
	return text[pos:end]
}

func resolveWeekday(now time.Time, target time.Weekday, dir Direction) time.Time {
	if dir == DirectionPast {
		daysAgo := (int(now.Weekday()) - int(target) + 7) % 7
		if daysAgo == 0 {
			daysAgo = 7
		}
		return dateOnly(now.AddDate(0, 0, -daysAgo))
	}
	daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return dateOnly(now.AddDate(0, 0, daysAhead))
}

func matchRelativeWords(text string, now time.Time, languages []string) []rawMatch {
	var matches []rawMatch
	for _, lang := range languages {
		for word, offset := range relativeDayWords[lang] {
			off := offset
			for _, pos := range findWordOccurrences(text, word) {
				matched := matchedBytes(text, pos, word)
				matches = append(matches, rawMatch{
					text: matched,
					pos:  pos,
					resolve: func(Direction) time.Time {
						return dateOnly(now.AddDate(0, 0, off))
					},
				})
			}
		}
	}
	return matches
}

type relativeUnitPattern struct {
	re   *regexp.Regexp
	unit func(n int) (years, months, days int)
	sign int // +1 future, -1 past
}

// relativeUnitPatterns covers small numeric relative expressions such as
// "in 3 days", "hace 2 semanas", "daqui a 5 dias". Only a representative
// subset of phrasing is covered; anything outside it falls through to the
// weekday/fixed-word matchers or is left unannotated.
var relativeUnitPatterns = map[string][]relativeUnitPattern{
	"en": {
		{regexp.MustCompile(`(?i)\bin (\d+) day(s)?\b`), daysUnit, 1},
		{regexp.MustCompile(`(?i)\bin (\d+) week(s)?\b`), weeksUnit, 1},
		{regexp.MustCompile(`(?i)\b(\d+) day(s)? ago\b`), daysUnit, -1},
		{regexp.MustCompile(`(?i)\b(\d+) week(s)? ago\b`), weeksUnit, -1},
	},
	"es": {
		{regexp.MustCompile(`(?i)\bdentro de (\d+) días?\b`), daysUnit, 1},
		{regexp.MustCompile(`(?i)\bdentro de (\d+) semanas?\b`), weeksUnit, 1},
		{regexp.MustCompile(`(?i)\bhace (\d+) días?\b`), daysUnit, -1},
		{regexp.MustCompile(`(?i)\bhace (\d+) semanas?\b`), weeksUnit, -1},
	},
	"pt": {
		{regexp.MustCompile(`(?i)\bdaqui a (\d+) dias?\b`), daysUnit, 1},
		{regexp.MustCompile(`(?i)\bdaqui a (\d+) semanas?\b`), weeksUnit, 1},
		{regexp.MustCompile(`(?i)\bhá (\d+) dias?\b`), daysUnit, -1},
		{regexp.MustCompile(`(?i)\bhá (\d+) semanas?\b`), weeksUnit, -1},
	},
}

func daysUnit(n int) (int, int, int)  { return 0, 0, n }
func weeksUnit(n int) (int, int, int) { return 0, 0, n * 7 }

func matchRelativeUnits(text string, now time.Time, languages []string) []rawMatch {
	var matches []rawMatch
	for _, lang := range languages {
		for _, pattern := range relativeUnitPatterns[lang] {
			for _, loc := range pattern.re.FindAllStringSubmatchIndex(text, -1) {
				n, err := strconv.Atoi(text[loc[2]:loc[3]])
				if err != nil {
					continue
				}
				years, months, days := pattern.unit(n)
				sign := pattern.sign
				matched := text[loc[0]:loc[1]]
				matches = append(matches, rawMatch{
					text: matched,
					pos:  loc[0],
					resolve: func(Direction) time.Time {
						return dateOnly(now.AddDate(sign*years, sign*months, sign*days))
					},
				})
			}
		}
	}
	return matches
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
