// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// today is a fixed Friday, matching the literal scenarios' reference date.
func today(t *testing.T) time.Time {
	t.Helper()
	tm, err := time.Parse("2006-01-02", "2025-12-05")
	require.NoError(t, err)
	require.Equal(t, time.Friday, tm.Weekday())
	return tm
}

func TestEnrich_FutureWeekdayWithPeriphrasticVerb(t *testing.T) {
	got := Enrich(nil, "voy a pagar el martes", today(t), []string{"es"})
	assert.Equal(t, "voy a pagar el martes (2025-12-09)", got)
}

func TestEnrich_PastWeekdayWithTrailingModifierExtendsAnnotation(t *testing.T) {
	got := Enrich(nil, "el lunes pasado fui", today(t), []string{"es"})
	assert.Equal(t, "el lunes pasado (2025-12-01) fui", got)
}

func TestEnrich_AmbiguousWeekdayDefaultsToFuture(t *testing.T) {
	got := Enrich(nil, "el lunes", today(t), []string{"es"})
	assert.Equal(t, "el lunes (2025-12-08)", got)
}

func TestEnrich_EnglishNextWeekdayModifier(t *testing.T) {
	got := Enrich(nil, "let's meet next tuesday", today(t), []string{"en"})
	assert.Equal(t, "let's meet next tuesday (2025-12-09)", got)
}

func TestEnrich_NoTemporalPhraseReturnsTextUnchanged(t *testing.T) {
	got := Enrich(nil, "I would like a large coffee please", today(t), []string{"en"})
	assert.Equal(t, "I would like a large coffee please", got)
}

func TestEnrich_RelativeDayWordsAreFixedOffsets(t *testing.T) {
	got := Enrich(nil, "nos vemos mañana", today(t), []string{"es"})
	assert.Equal(t, "nos vemos mañana (2025-12-06)", got)
}

func TestEnrich_RelativeUnitPhrase(t *testing.T) {
	got := Enrich(nil, "I'll call you in 3 days", today(t), []string{"en"})
	assert.Equal(t, "I'll call you in 3 days (2025-12-08)", got)
}

func TestEnrich_NDaysAgoResolvesToPast(t *testing.T) {
	got := Enrich(nil, "paid it 2 days ago", today(t), []string{"en"})
	assert.Equal(t, "paid it 2 days ago (2025-12-03)", got)
}

func TestResolveWeekday_FutureWrapsToNextOccurrence(t *testing.T) {
	now := today(t) // Friday
	got := resolveWeekday(now, time.Friday, DirectionFuture)
	assert.Equal(t, "2025-12-12", got.Format("2006-01-02"), "same-weekday future means next week, not today")
}

func TestResolveWeekday_PastWrapsToPriorOccurrence(t *testing.T) {
	now := today(t) // Friday
	got := resolveWeekday(now, time.Friday, DirectionPast)
	assert.Equal(t, "2025-11-28", got.Format("2006-01-02"), "same-weekday past means last week, not today")
}

func TestIsValidMatch_ShortAllowListOverridesLengthFloor(t *testing.T) {
	assert.True(t, isValidMatch("hoy", []string{"es"}))
	assert.False(t, isValidMatch("ya", []string{"en"}), "short word not in the allow list for this language")
	assert.True(t, isValidMatch("ya", []string{"es"}))
	assert.True(t, isValidMatch("lunes", []string{"es"}), "long enough on its own merits")
}

func TestDetectDirection_DirectModifierWinsOverVerbScan(t *testing.T) {
	// "iré el lunes pasado" mixes a future-tense verb ("iré") with an
	// explicit trailing past modifier ("pasado"); the direct modifier must
	// take priority.
	text := "iré el lunes pasado"
	pos := len("iré el ")
	dir := detectDirection(text, pos, "lunes", []string{"es"})
	assert.Equal(t, DirectionPast, dir)
}

func TestDetectDirection_FallsBackToVerbScanWhenNoDirectModifier(t *testing.T) {
	text := "fui el lunes a la tienda"
	pos := len("fui el ")
	dir := detectDirection(text, pos, "lunes", []string{"es"})
	assert.Equal(t, DirectionPast, dir)
}

func TestDetectDirection_UnknownWhenNoSignalPresent(t *testing.T) {
	text := "el lunes"
	dir := detectDirection(text, 3, "lunes", []string{"es"})
	assert.Equal(t, DirectionUnknown, dir)
}
