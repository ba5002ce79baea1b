// Package notify derives the reminder and deadline alerts that are active for a user's
// projects at a given instant. Nothing is stored: the same alert is produced on every call
// until its project or phase is completed.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/logging"
	"taskboard/internal/metrics"
	"taskboard/internal/models"
	"taskboard/internal/timeutil"
)

// ReminderLead is how long before a start or deadline the reminder fires.
const ReminderLead = 15 * time.Minute

const (
	ProjectStartReminder    = "Project Start Reminder"
	ProjectStarted          = "Project Started"
	ProjectDeadlineReminder = "Project Deadline Reminder"
	ProjectDeadlineReached  = "Project Deadline Reached"
	PhaseStartReminder      = "Phase Start Reminder"
	PhaseStarted            = "Phase Started"
	PhaseDeadlineReminder   = "Phase Deadline Reminder"
	PhaseDeadlineReached    = "Phase Deadline Reached"
)

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// window describes one start or end check: its two titles and body templates.
type window struct {
	field         string
	reminderTitle string
	reminderBody  string
	reachedTitle  string
	reachedBody   string
}

var (
	projectStart = window{"start", ProjectStartReminder, "Project %s starts in 15 minutes!", ProjectStarted, "Project %s has started!"}
	projectEnd   = window{"end", ProjectDeadlineReminder, "Project %s deadline is in 15 minutes!", ProjectDeadlineReached, "Project %s deadline has passed!"}
	phaseStart   = window{"start", PhaseStartReminder, "Phase %s starts in 15 minutes!", PhaseStarted, "Phase %s has started!"}
	phaseEnd     = window{"end", PhaseDeadlineReminder, "Phase %s deadline is in 15 minutes!", PhaseDeadlineReached, "Phase %s deadline has passed!"}
)

// Evaluate returns the notifications active at now, in project order and, within a
// project, start, end, then each phase's start and end. Dates are interpreted in loc.
// A value that fails to parse only suppresses its own check.
func Evaluate(ctx context.Context, projects []models.Project, now time.Time, loc *time.Location) []Notification {
	e := evaluator{ctx: ctx, now: now, loc: loc, out: []Notification{}}
	for _, p := range projects {
		e.check(projectStart, p.ID, -1, p.Title, models.Str(p.StartDate), models.Str(p.StartTime), p.Completed)
		e.check(projectEnd, p.ID, -1, p.Title, models.Str(p.EndDate), models.Str(p.EndTime), p.Completed)
		for i, ph := range p.Phases {
			e.check(phaseStart, p.ID, i, ph.Title, ph.StartDate, ph.StartTime, ph.Completed)
			e.check(phaseEnd, p.ID, i, ph.Title, ph.EndDate, ph.EndTime, ph.Completed)
		}
	}
	return e.out
}

type evaluator struct {
	ctx context.Context
	now time.Time
	loc *time.Location
	out []Notification
}

func (e *evaluator) check(w window, projectID, phase int, title, date, clock string, completed bool) {
	if date == "" || clock == "" || completed {
		return
	}
	at, err := timeutil.Combine(date, clock, e.loc)
	if err != nil {
		metrics.IncrementDateParseFailure("notification")
		logging.FromContext(e.ctx).Warn("skipping unparseable date",
			zap.Int("project_id", projectID),
			zap.Int("phase", phase),
			zap.String("field", w.field),
			zap.Error(err),
		)
		return
	}
	if !e.now.Before(at.Add(-ReminderLead)) {
		e.emit(w.reminderTitle, fmt.Sprintf(w.reminderBody, title))
	}
	if !e.now.Before(at) {
		e.emit(w.reachedTitle, fmt.Sprintf(w.reachedBody, title))
	}
}

func (e *evaluator) emit(title, body string) {
	metrics.IncrementNotification(title)
	e.out = append(e.out, Notification{Title: title, Body: body})
}
