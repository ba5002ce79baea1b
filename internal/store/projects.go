package store

import (
	"context"
	"fmt"

	"taskboard/internal/models"
	"taskboard/internal/projects"
)

const projectColumns = `id, title, description, category, start_date, end_date, start_time, end_time,
    phases, completed, completed_at, user_id, created_at, updated_at`

// Mutation computes the next state of a project from its locked prior state.
type Mutation func(prior models.Project) (models.Project, projects.Outcome, error)

func (s *Store) ProjectsByOwner(ctx context.Context, ownerID int) ([]models.Project, error) {
	list := []models.Project{}
	err := s.db.SelectContext(ctx, &list,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	return list, translate(err)
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	list := []models.Project{}
	err := s.db.SelectContext(ctx, &list, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC`)
	return list, translate(err)
}

// Project loads a project. When ownerID is set, projects of other users are reported as
// not found.
func (s *Store) Project(ctx context.Context, id int, ownerID *int) (models.Project, error) {
	var p models.Project
	err := s.db.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err != nil {
		return p, translate(err)
	}
	if ownerID != nil && p.UserID != *ownerID {
		return models.Project{}, ErrNotFound
	}
	return p, nil
}

// CreateProject inserts p. created_at and updated_at are set to the same instant.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	if p.Phases == nil {
		p.Phases = models.Phases{}
	}
	err := s.db.QueryRowxContext(ctx, `
INSERT INTO projects (title, description, category, start_date, end_date, start_time, end_time, phases,
    completed, completed_at, user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+projectColumns,
		p.Title, p.Description, p.Category, p.StartDate, p.EndDate, p.StartTime, p.EndTime, p.Phases,
		p.Completed, p.CompletedAt, p.UserID,
	).StructScan(p)
	return translate(err)
}

// UpdateProject locks the row, applies mutate and credits any reward to the owner in the
// same transaction, so concurrent completions of one project reward at most once.
func (s *Store) UpdateProject(ctx context.Context, id int, ownerID *int, mutate Mutation) (models.Project, projects.Outcome, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Project{}, projects.Outcome{}, err
	}
	defer tx.Rollback()

	var prior models.Project
	if err := tx.GetContext(ctx, &prior, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id); err != nil {
		return models.Project{}, projects.Outcome{}, translate(err)
	}
	if ownerID != nil && prior.UserID != *ownerID {
		return models.Project{}, projects.Outcome{}, ErrNotFound
	}

	next, out, err := mutate(prior)
	if err != nil {
		return prior, projects.Outcome{}, err
	}

	var saved models.Project
	err = tx.QueryRowxContext(ctx, `
UPDATE projects SET title = $1, description = $2, category = $3, start_date = $4, end_date = $5,
    start_time = $6, end_time = $7, phases = $8, completed = $9, completed_at = $10, updated_at = NOW()
WHERE id = $11
RETURNING `+projectColumns,
		next.Title, next.Description, next.Category, next.StartDate, next.EndDate,
		next.StartTime, next.EndTime, next.Phases, next.Completed, next.CompletedAt, id,
	).StructScan(&saved)
	if err != nil {
		return models.Project{}, projects.Outcome{}, translate(err)
	}

	if out.Reward > 0 {
		res, err := tx.ExecContext(ctx, `UPDATE users SET reward = reward + $1 WHERE id = $2`, out.Reward, prior.UserID)
		if err := rowsAffected(res, err); err != nil {
			return models.Project{}, projects.Outcome{}, fmt.Errorf("reward owner %d: %w", prior.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Project{}, projects.Outcome{}, err
	}
	return saved, out, nil
}

func (s *Store) DeleteProject(ctx context.Context, id int, ownerID *int) error {
	if ownerID != nil {
		return rowsAffected(s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, *ownerID))
	}
	return rowsAffected(s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id))
}
