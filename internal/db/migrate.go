package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// RunMigrations creates the schema if missing. It is safe to run on every start.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    reward INTEGER NOT NULL DEFAULT 0 CHECK (reward >= 0),
    profile_picture TEXT,
    is_active BOOLEAN NOT NULL DEFAULT true,
    is_superuser BOOLEAN NOT NULL DEFAULT false,
    last_login TIMESTAMPTZ,
    date_joined TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));

CREATE TABLE IF NOT EXISTS projects (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    category TEXT,
    start_date TEXT,
    end_date TEXT,
    start_time TEXT,
    end_time TEXT,
    phases JSONB NOT NULL DEFAULT '[]'::jsonb,
    completed BOOLEAN NOT NULL DEFAULT false,
    completed_at TEXT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS projects_user_id_idx ON projects (user_id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	// Older databases stored an empty object when a project had no phases.
	alters := `
DO $$ BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='projects' AND column_name='completed_at'
    ) THEN
        ALTER TABLE projects ADD COLUMN completed_at TEXT;
    END IF;
    UPDATE projects SET phases = '[]'::jsonb WHERE phases = '{}'::jsonb;
END $$;`
	_, err := db.ExecContext(ctx, alters)
	return err
}
