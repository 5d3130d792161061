// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package action implements the External-Action Runner (parameter location
// routing, signing, dispatch) and its Parameter Formatter helper.
package action

import (
	"strconv"
	"strings"
	"time"

	"github.com/rapidaai/pkg/commons"
)

const (
	FormatEpochSeconds      = "epoch_s"
	FormatEpochMilliseconds = "epoch_ms"
)

// ConvertDatetimeToEpoch parses an ISO-8601 datetime string and returns an
// epoch timestamp in seconds or milliseconds depending on formatType.
// Naive timestamps (no offset) are localized to timezoneName, or UTC if
// timezoneName is empty or unrecognized. On any failure it returns the
// original string unchanged rather than an error, matching the tolerant
// contract of the formatter as a whole.
func ConvertDatetimeToEpoch(logger commons.Logger, datetimeStr, formatType, timezoneName string) any {
	normalized := strings.ReplaceAll(datetimeStr, "Z", "+00:00")

	loc := time.UTC
	if timezoneName != "" {
		if l, err := time.LoadLocation(timezoneName); err == nil {
			loc = l
		} else if logger != nil {
			logger.Warnf("unknown timezone %q, defaulting to UTC for datetime conversion", timezoneName)
		}
	}

	t, err := parseISO8601(normalized, loc)
	if err != nil {
		if logger != nil {
			logger.Warnf("failed to convert datetime %q to epoch: %v; keeping original value", datetimeStr, err)
		}
		return datetimeStr
	}

	switch formatType {
	case FormatEpochSeconds:
		return int64(t.Unix())
	case FormatEpochMilliseconds:
		return t.UnixMilli()
	default:
		if logger != nil {
			logger.Warnf("unknown format type %q, keeping original value", formatType)
		}
		return datetimeStr
	}
}

// isoLayouts covers the offset and naive ISO-8601 shapes the formatter is
// expected to accept; tried in order, first match wins.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func parseISO8601(s string, naiveLoc *time.Location) (time.Time, error) {
	var firstErr error
	for i, layout := range isoLayouts {
		hasOffset := strings.Contains(layout, "Z07:00")
		if hasOffset {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			} else if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, naiveLoc); err == nil {
			return t, nil
		} else if firstErr == nil && i == len(isoLayouts)-1 {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ApplyParameterFormat coerces a single value per formatType. Unknown
// format types, or a formatType that expects a string but is given
// something else, pass the value through unchanged.
func ApplyParameterFormat(logger commons.Logger, value any, formatType string, extraContext map[string]any) any {
	switch formatType {
	case FormatEpochSeconds, FormatEpochMilliseconds:
		str, ok := value.(string)
		if !ok {
			return value
		}
		timezoneName, _ := extraContext["timezone"].(string)
		return ConvertDatetimeToEpoch(logger, str, formatType, timezoneName)
	default:
		return value
	}
}

// ApplyParameterFormats rewrites only the keys named in paramFormats,
// leaving every other key of payload untouched. The returned map is a
// shallow copy; payload itself is never mutated.
func ApplyParameterFormats(logger commons.Logger, payload map[string]any, paramFormats map[string]string, extraContext map[string]any) map[string]any {
	if len(paramFormats) == 0 {
		return payload
	}

	formatted := make(map[string]any, len(payload))
	for k, v := range payload {
		formatted[k] = v
	}

	for name, value := range payload {
		if formatType, ok := paramFormats[name]; ok {
			formatted[name] = ApplyParameterFormat(logger, value, formatType, extraContext)
		}
	}
	return formatted
}

// formatInt returns the base-10 string representation of an epoch value.
// Nothing in this package calls it; path substitution uses toString.
func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
