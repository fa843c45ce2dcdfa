package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidTimeRange = errors.New("domain: invalid time range")

// TimeRange is the lookback window of a top artists/tracks query.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// TimeRanges lists every valid window, shortest first.
var TimeRanges = []TimeRange{ShortTerm, MediumTerm, LongTerm}

// ParseTimeRange accepts exactly one of the three window identifiers.
func ParseTimeRange(s string) (TimeRange, error) {
	tr := TimeRange(s)
	if !tr.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	return tr, nil
}

func (t TimeRange) Valid() bool {
	switch t {
	case ShortTerm, MediumTerm, LongTerm:
		return true
	}
	return false
}

// Label is the human-readable name of the window.
func (t TimeRange) Label() string {
	switch t {
	case ShortTerm:
		return "Last 4 Weeks"
	case MediumTerm:
		return "Last 6 Months"
	case LongTerm:
		return "All Time"
	}
	return string(t)
}
