package analytics

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/models"
	"taskboard/internal/timeutil"
)

type Kind string

const (
	KindUserSignup       Kind = "user_signup"
	KindProjectCreated   Kind = "project_created"
	KindProjectUpdated   Kind = "project_updated"
	KindProjectCompleted Kind = "project_completed"
)

// Activity is one entry of the admin feed. It is rebuilt on every request.
type Activity struct {
	UUID        string `json:"uuid"`
	ID          string `json:"id"`
	Type        Kind   `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	TimeAgo     string `json:"time_ago"`
	Icon        string `json:"icon"`
	UserID      *int   `json:"user_id,omitempty"`
	ProjectID   *int   `json:"project_id,omitempty"`

	at time.Time
}

// At is the instant the activity is ordered by.
func (a Activity) At() time.Time { return a.at }

func newActivity(kind Kind, id string, at, now time.Time) Activity {
	return Activity{
		UUID:      uuid.NewString(),
		ID:        id,
		Type:      kind,
		Timestamp: at.Format(time.RFC3339),
		TimeAgo:   timeutil.Ago(now, at),
		at:        at,
	}
}

func signupActivity(u models.User, now time.Time) Activity {
	a := newActivity(KindUserSignup, fmt.Sprintf("user_%d", u.ID), u.DateJoined, now)
	a.Title = "New user registered: " + u.Email
	a.Description = fmt.Sprintf("User %s joined the system", u.FullName())
	a.Icon = "person-add"
	a.UserID = intp(u.ID)
	return a
}

func createdActivity(p models.Project, owner string, now time.Time) Activity {
	a := newActivity(KindProjectCreated, fmt.Sprintf("project_%d", p.ID), p.CreatedAt, now)
	a.Title = "New project created: " + projectTitle(p)
	a.Description = "Created by " + owner
	a.Icon = "folder"
	a.ProjectID = intp(p.ID)
	a.UserID = intp(p.UserID)
	return a
}

func updatedActivity(p models.Project, owner string, now time.Time) Activity {
	a := newActivity(KindProjectUpdated, fmt.Sprintf("project_%d_update", p.ID), p.UpdatedAt, now)
	a.Title = "Project updated: " + projectTitle(p)
	a.Description = "Updated by " + owner
	a.Icon = "create"
	a.ProjectID = intp(p.ID)
	a.UserID = intp(p.UserID)
	return a
}

func completedActivity(p models.Project, completedAt time.Time, owner string, now time.Time) Activity {
	a := newActivity(KindProjectCompleted, fmt.Sprintf("project_%d_complete", p.ID), completedAt, now)
	a.Title = "Project completed: " + projectTitle(p)
	a.Description = "Completed by " + owner
	a.Icon = "checkmark-circle"
	a.ProjectID = intp(p.ID)
	a.UserID = intp(p.UserID)
	return a
}

func projectTitle(p models.Project) string {
	if p.Title == "" {
		return "Untitled"
	}
	return p.Title
}

func intp(i int) *int { return &i }
