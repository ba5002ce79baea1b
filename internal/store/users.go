package store

import (
	"context"
	"strings"
	"time"

	"taskboard/internal/models"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, reward, profile_picture,
    is_active, is_superuser, last_login, date_joined`

// CreateUser inserts u and fills in its id and date_joined. Emails are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Username == "" {
		u.Username = u.Email
	}
	err := s.db.QueryRowxContext(ctx, `
INSERT INTO users (username, email, password_hash, first_name, last_name, profile_picture, is_active, is_superuser)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.ProfilePicture, u.IsActive, u.IsSuperuser,
	).StructScan(u)
	return translate(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	return u, translate(err)
}

func (s *Store) UserByID(ctx context.Context, id int) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return u, translate(err)
}

// ListUsers returns every user, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY date_joined DESC, id DESC`)
	return users, translate(err)
}

// UpdateUser writes the editable profile and account fields of u. Password and reward are
// changed through their own methods.
func (s *Store) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	var out models.User
	err := s.db.QueryRowxContext(ctx, `
UPDATE users SET username = $1, email = lower($2), first_name = $3, last_name = $4, profile_picture = $5,
    is_active = $6, is_superuser = $7
WHERE id = $8
RETURNING `+userColumns,
		u.Username, strings.TrimSpace(u.Email), u.FirstName, u.LastName, u.ProfilePicture, u.IsActive, u.IsSuperuser, u.ID,
	).StructScan(&out)
	return out, translate(err)
}

func (s *Store) SetPassword(ctx context.Context, id int, hash string) error {
	return rowsAffected(s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id))
}

func (s *Store) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	return rowsAffected(s.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id))
}

// DeleteUser removes the user; their projects go with them.
func (s *Store) DeleteUser(ctx context.Context, id int) error {
	return rowsAffected(s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (s *Store) Reward(ctx context.Context, id int) (int, error) {
	var points int
	err := s.db.GetContext(ctx, &points, `SELECT reward FROM users WHERE id = $1`, id)
	return points, translate(err)
}
