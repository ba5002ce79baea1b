package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type User struct {
	ID             int        `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Reward         int        `db:"reward" json:"reward"`
	ProfilePicture *string    `db:"profile_picture" json:"profile_picture"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	IsSuperuser    bool       `db:"is_superuser" json:"is_superuser"`
	LastLogin      *time.Time `db:"last_login" json:"last_login"`
	DateJoined     time.Time  `db:"date_joined" json:"date_joined"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Phase is a milestone embedded in a project. Empty strings mean "not set".
type Phase struct {
	Title     string `json:"title"`
	StartDate string `json:"start_date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Completed bool   `json:"completed"`
}

// Phases is stored as a single JSONB column.
type Phases []Phase

func (p Phases) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (p *Phases) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = Phases{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("phases: unsupported source type")
	}
	return p.UnmarshalJSON(data)
}

// UnmarshalJSON accepts a list of phases. Legacy rows stored an empty object.
func (p *Phases) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		*p = Phases{}
		return nil
	}
	var list []Phase
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*p = list
	return nil
}

type Project struct {
	ID          int       `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Category    *string   `db:"category" json:"category"`
	StartDate   *string   `db:"start_date" json:"start_date"`
	EndDate     *string   `db:"end_date" json:"end_date"`
	StartTime   *string   `db:"start_time" json:"start_time"`
	EndTime     *string   `db:"end_time" json:"end_time"`
	Phases      Phases    `db:"phases" json:"phases"`
	Completed   bool      `db:"completed" json:"completed"`
	CompletedAt *string   `db:"completed_at" json:"completed_at"`
	UserID      int       `db:"user_id" json:"user"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Str dereferences an optional text column, treating nil as empty.
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
