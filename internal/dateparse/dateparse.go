// Package dateparse parses the relative and absolute date strings accepted
// for date responses and timestamp flags.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDate parses a date input relative to the current time and returns
// midnight UTC of that day.
//
// Supported formats:
//   - Exact dates: "2026-03-01"
//   - Keywords: "today", "yesterday"
//   - Relative offsets into the past: "-3d", "-2w", "-1m"
//   - Day names: "monday", "tuesday", etc. (most recent occurrence, today excluded)
func ParseDate(input string) (time.Time, error) {
	return ParseDateFrom(input, time.Now())
}

// ParseDateFrom parses a date input relative to the given reference time.
func ParseDateFrom(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date input")
	}

	if t, err := time.Parse(time.DateOnly, input); err == nil {
		return t, nil
	}

	switch input {
	case "today":
		return midnight(now), nil
	case "yesterday":
		return midnight(now.AddDate(0, 0, -1)), nil
	}

	if strings.HasPrefix(input, "-") && len(input) >= 3 {
		suffix := input[len(input)-1]
		n, err := strconv.Atoi(input[1 : len(input)-1])
		if err == nil && n >= 0 {
			switch suffix {
			case 'd':
				return midnight(now.AddDate(0, 0, -n)), nil
			case 'w':
				return midnight(now.AddDate(0, 0, -7*n)), nil
			case 'm':
				return midnight(now.AddDate(0, -n, 0)), nil
			default:
				return time.Time{}, fmt.Errorf("unknown relative unit %q in %q (use d, w, or m)", string(suffix), input)
			}
		}
	}

	days := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	if target, ok := days[input]; ok {
		back := (int(now.Weekday()) - int(target) + 7) % 7
		if back == 0 {
			back = 7
		}
		return midnight(now.AddDate(0, 0, -back)), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", input)
}

// ParseTimestamp parses an RFC 3339 timestamp or any date ParseDateFrom
// accepts, returning UTC.
func ParseTimestamp(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" || strings.EqualFold(s, "now") {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return ParseDateFrom(s, now)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
