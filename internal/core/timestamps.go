package core

import (
	"errors"
	"strings"
	"time"
)

var (
	errEmptyTimestamp   = errors.New("is required")
	errInvalidTimestamp = errors.New("must be a valid timestamp")
)

// Layouts without a zone offset, as sent by HTML datetime-local inputs.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an RFC 3339 timestamp, or an offset-less one in loc,
// and returns it in UTC.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errEmptyTimestamp
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}

	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errInvalidTimestamp
}
