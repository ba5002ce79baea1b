package projects

import (
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/timeutil"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid project")

func invalid(msg string) error { return fmt.Errorf("%w: %s", ErrInvalid, msg) }

// Validate enforces start_date <= end_date and start_time <= end_time when both sides are
// set. Values that parse are compared as calendar dates and clock times; values that do
// not parse fall back to plain string comparison.
func Validate(p models.Project) error {
	if before(models.Str(p.EndDate), models.Str(p.StartDate), compareDates) {
		return invalid("end date cannot be before start date")
	}
	if before(models.Str(p.EndTime), models.Str(p.StartTime), compareClocks) {
		return invalid("end time cannot be before start time")
	}
	return nil
}

// before reports a < b. Empty values never compare.
func before(a, b string, cmp func(a, b string) (int, bool)) bool {
	if a == "" || b == "" {
		return false
	}
	if c, ok := cmp(a, b); ok {
		return c < 0
	}
	return a < b
}

func compareDates(a, b string) (int, bool) {
	ta, errA := timeutil.ParseDate(a, time.UTC)
	tb, errB := timeutil.ParseDate(b, time.UTC)
	if errA != nil || errB != nil {
		return 0, false
	}
	return ta.Compare(tb), true
}

func compareClocks(a, b string) (int, bool) {
	da, errA := timeutil.ParseClock(a)
	db, errB := timeutil.ParseClock(b)
	if errA != nil || errB != nil {
		return 0, false
	}
	switch {
	case da < db:
		return -1, true
	case da > db:
		return 1, true
	}
	return 0, true
}
