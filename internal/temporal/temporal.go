// Package temporal parses and checks the timestamps carried by time entries.
package temporal

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidRange     = errors.New("start time must be before end time")
)

// accepted layouts, tried in order; zone-less layouts are read as UTC
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 style date or date-time. The result is UTC,
// truncated to microseconds so it survives a round trip through timestamptz.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Normalize(t), nil
		}
	}

	return time.Time{}, ErrInvalidTimestamp
}

// ParseOptional parses raw when it is non-nil. A nil input yields a nil result.
func ParseOptional(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}

	t, err := ParseTimestamp(*raw)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// ParseFilterBound is the lenient variant used by list filters: anything
// unparseable means "no bound".
func ParseFilterBound(raw string) *time.Time {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return nil
	}
	return &t
}

// ValidateOrder requires start < end strictly. A nil end is a running entry and always passes.
func ValidateOrder(start time.Time, end *time.Time) error {
	if end == nil {
		return nil
	}

	if !start.Before(*end) {
		return ErrInvalidRange
	}

	return nil
}

func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
