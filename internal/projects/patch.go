// Package projects holds the write-side rules for projects: partial updates with the
// completion reward, the soft date validation and the admin listing filter.
package projects

import (
	"strings"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/timeutil"
)

// CompletionReward is granted to the owner when a project first becomes completed.
const CompletionReward = 3

// Input is the writable part of a project as sent by clients. Nil means "not provided";
// an empty string clears an optional text field.
type Input struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Category    *string        `json:"category"`
	StartDate   *string        `json:"start_date"`
	EndDate     *string        `json:"end_date"`
	StartTime   *string        `json:"start_time"`
	EndTime     *string        `json:"end_time"`
	Phases      *models.Phases `json:"phases"`
	Completed   *bool          `json:"completed"`
	CompletedAt *string        `json:"completed_at"`
}

// Outcome reports side effects of applying an update.
type Outcome struct {
	// Reward is the number of points to add to the owner.
	Reward int
	// NewlyCompleted is true on the false to true edge of the completed flag.
	NewlyCompleted bool
}

// New builds a project for owner from in. Title is required.
func New(owner int, in Input) (models.Project, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return models.Project{}, invalid("title is required")
	}
	p := models.Project{UserID: owner, Phases: models.Phases{}}
	apply(&p, in)
	return p, Validate(p)
}

// ApplyOwner applies an owner's partial update to prior. The reward is granted only when
// the update carries completed=true and prior was not completed. completed_at is taken
// as sent and never cleared implicitly.
func ApplyOwner(prior models.Project, in Input) (models.Project, Outcome, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return prior, Outcome{}, invalid("title cannot be blank")
	}
	next := prior
	apply(&next, in)

	var out Outcome
	if in.Completed != nil && *in.Completed && !prior.Completed {
		out.NewlyCompleted = true
		out.Reward = CompletionReward
	}
	return next, out, nil
}

// ApplyAdmin applies a moderator's partial update. Completing stamps completed_at with now
// unless one is already set; un-completing clears it. No reward is granted.
func ApplyAdmin(prior models.Project, in Input, now time.Time, loc *time.Location) (models.Project, Outcome, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return prior, Outcome{}, invalid("title cannot be blank")
	}
	next := prior
	apply(&next, in)

	var out Outcome
	if in.Completed != nil {
		if *in.Completed {
			if models.Str(next.CompletedAt) == "" {
				stamp := timeutil.FormatTimestamp(now, loc)
				next.CompletedAt = &stamp
			}
			out.NewlyCompleted = !prior.Completed
		} else {
			next.CompletedAt = nil
		}
	}
	return next, out, nil
}

func apply(p *models.Project, in Input) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	setOptional(&p.Description, in.Description)
	setOptional(&p.Category, in.Category)
	setOptional(&p.StartDate, in.StartDate)
	setOptional(&p.EndDate, in.EndDate)
	setOptional(&p.StartTime, in.StartTime)
	setOptional(&p.EndTime, in.EndTime)
	setOptional(&p.CompletedAt, in.CompletedAt)
	if in.Phases != nil {
		p.Phases = *in.Phases
		if p.Phases == nil {
			p.Phases = models.Phases{}
		}
	}
	if in.Completed != nil {
		p.Completed = *in.Completed
	}
}

func setOptional(dst **string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		*dst = nil
		return
	}
	s := *v
	*dst = &s
}
