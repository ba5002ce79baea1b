package handlers

import (
	"time"

	"taskboard/internal/models"
)

// UserDTO adds the derived full name and renders timestamps as RFC 3339 strings.
type UserDTO struct {
	ID             int     `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	FullName       string  `json:"full_name"`
	Reward         int     `json:"reward"`
	ProfilePicture *string `json:"profile_picture"`
	IsActive       bool    `json:"is_active"`
	IsSuperuser    bool    `json:"is_superuser"`
	LastLogin      *string `json:"last_login"`
	DateJoined     string  `json:"date_joined"`
}

func toDateTimeStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName(),
		Reward:         u.Reward,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		IsSuperuser:    u.IsSuperuser,
		LastLogin:      toDateTimeStringPtr(u.LastLogin),
		DateJoined:     u.DateJoined.Format(time.RFC3339),
	}
}

func toUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// AdminProjectDTO is a project as shown to moderators, with its owner inlined.
type AdminProjectDTO struct {
	models.Project
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

func toAdminProjectDTO(p models.Project, owner models.User) AdminProjectDTO {
	return AdminProjectDTO{Project: p, UserEmail: owner.Email, UserName: owner.FullName()}
}
