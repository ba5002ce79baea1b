package store

import (
	"context"
	"database/sql"

	"taskboard/internal/analytics"
	"taskboard/internal/models"
)

// Snapshot reads all users and projects in one read-only repeatable-read transaction so
// the analytics see a consistent view.
func (s *Store) Snapshot(ctx context.Context) (analytics.Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return analytics.Snapshot{}, err
	}
	defer tx.Rollback()

	snap := analytics.Snapshot{Users: []models.User{}, Projects: []models.Project{}}
	if err := tx.SelectContext(ctx, &snap.Users, `SELECT `+userColumns+` FROM users`); err != nil {
		return analytics.Snapshot{}, err
	}
	if err := tx.SelectContext(ctx, &snap.Projects, `SELECT `+projectColumns+` FROM projects`); err != nil {
		return analytics.Snapshot{}, err
	}
	return snap, tx.Commit()
}
