// Package timeutil parses the free-form date and time text stored on projects and phases
// and renders the relative timestamps shown in activity feeds.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	DateTimeLayout = DateLayout + " " + ClockLayout

	// EndOfDayClock is used when a deadline has a date but no time.
	EndOfDayClock = "23:59"
)

// ErrMalformed is matched by every *ParseError.
var ErrMalformed = errors.New("malformed date/time")

// ParseError reports a stored value that does not match the expected layout.
type ParseError struct {
	Value  string
	Layout string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q as %q: %v", e.Value, e.Layout, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

// Combine joins a date and a clock time and parses them as "YYYY-MM-DD HH:MM" in loc.
// There is no fallback layout.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	value := date + " " + clock
	t, err := time.ParseInLocation(DateTimeLayout, value, loc)
	if err != nil {
		return time.Time{}, &ParseError{Value: value, Layout: DateTimeLayout, Err: err}
	}
	return t, nil
}

// Deadline is Combine with the clock defaulting to 23:59 when empty.
func Deadline(date, clock string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(clock) == "" {
		clock = EndOfDayClock
	}
	return Combine(date, clock, loc)
}

// ParseDate parses a bare "YYYY-MM-DD" date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, &ParseError{Value: s, Layout: DateLayout, Err: err}
	}
	return t, nil
}

// ParseClock parses "HH:MM" into a duration since midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, &ParseError{Value: s, Layout: ClockLayout, Err: err}
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// timestampLayouts are tried in order for completed_at. Values without an offset are
// interpreted in the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	DateTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses a stored completion timestamp.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &ParseError{Value: s, Layout: "timestamp", Err: lastErr}
}

// FormatTimestamp renders the value written into completed_at by the admin path.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateTimeLayout)
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Ago renders the distance from t to now at the coarsest non-zero unit.
func Ago(now, t time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%d day(s) ago", int(diff/(24*time.Hour)))
	case diff >= time.Hour:
		return fmt.Sprintf("%d hour(s) ago", int(diff/time.Hour))
	case diff >= time.Minute:
		return fmt.Sprintf("%d minute(s) ago", int(diff/time.Minute))
	default:
		return "Just now"
	}
}
