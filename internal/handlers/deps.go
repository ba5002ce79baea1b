package handlers

import (
	"context"
	"time"

	"taskboard/internal/analytics"
	"taskboard/internal/models"
	"taskboard/internal/projects"
	"taskboard/internal/store"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u models.User) (models.User, error)
	SetPassword(ctx context.Context, id int, hash string) error
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
	DeleteUser(ctx context.Context, id int) error
	Reward(ctx context.Context, id int) (int, error)
}

type ProjectStore interface {
	ProjectsByOwner(ctx context.Context, ownerID int) ([]models.Project, error)
	Project(ctx context.Context, id int, ownerID *int) (models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) error
	UpdateProject(ctx context.Context, id int, ownerID *int, mutate store.Mutation) (models.Project, projects.Outcome, error)
	DeleteProject(ctx context.Context, id int, ownerID *int) error
}

// SnapshotSource loads everything the analytics need in one consistent read.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (analytics.Snapshot, error)
}

type TokenIssuer interface {
	Issue(userID int) (string, error)
}

// Clock supplies the current instant and the zone used for calendar dates.
type Clock struct {
	Now func() time.Time
	Loc *time.Location
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now().In(c.location())
	}
	return c.Now().In(c.location())
}

func (c Clock) location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}
