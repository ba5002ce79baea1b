package handlers

import (
	"context"
	"net/http"
	"strings"

	"taskboard/internal/auth"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
)

type UserHandler struct {
	users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// userPatch is a partial user update. Nil fields are left alone and an empty
// profile_picture clears it.
type userPatch struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	ProfilePicture *string `json:"profile_picture"`
	Password       *string `json:"password"`
	IsActive       *bool   `json:"is_active"`
	IsSuperuser    *bool   `json:"is_superuser"`
}

// apply copies the profile fields onto u. Account flags are applied only when privileged.
func (p userPatch) apply(u *models.User, privileged bool) string {
	if p.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*p.Email))
		if !strings.Contains(email, "@") {
			return "a valid email is required"
		}
		u.Email = email
	}
	if p.Username != nil {
		name := strings.TrimSpace(*p.Username)
		if name == "" {
			return "username cannot be blank"
		}
		u.Username = name
	}
	if p.FirstName != nil {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.ProfilePicture != nil {
		if *p.ProfilePicture == "" {
			u.ProfilePicture = nil
		} else {
			pic := *p.ProfilePicture
			u.ProfilePicture = &pic
		}
	}
	if p.Password != nil {
		if err := auth.ValidatePassword(*p.Password); err != nil {
			return err.Error()
		}
	}
	if privileged {
		if p.IsActive != nil {
			u.IsActive = *p.IsActive
		}
		if p.IsSuperuser != nil {
			u.IsSuperuser = *p.IsSuperuser
		}
	}
	return ""
}

// save persists u and, when the patch carries one, the new password.
// The password is only written once the profile update has succeeded.
func (p userPatch) save(ctx context.Context, users UserStore, u models.User) (models.User, error) {
	var hash string
	if p.Password != nil {
		var err error
		if hash, err = auth.HashPassword(*p.Password); err != nil {
			return u, err
		}
	}
	updated, err := users.UpdateUser(ctx, u)
	if err != nil || hash == "" {
		return updated, err
	}
	if err := users.SetPassword(ctx, updated.ID, hash); err != nil {
		return updated, err
	}
	updated.PasswordHash = hash
	return updated, nil
}

// GetMe godoc
// @Summary Get the current user's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDTO
// @Router /profile [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, ToUserDTO(user))
}

// UpdateMe updates the provided fields on the current user's profile
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	var patch userPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if msg := patch.apply(&user, false); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	updated, err := patch.save(r.Context(), h.users, user)
	if err != nil {
		if status, msg, ok := storeStatus(err); ok {
			writeError(w, status, msg)
			return
		}
		internalError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(updated))
}

type passwordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags profile
// @Accept json
// @Security BearerAuth
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /profile/password [post]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	var body passwordChange
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if auth.CheckPassword(body.CurrentPassword, user.PasswordHash) != nil {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if body.NewPassword != body.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if err := auth.ValidatePassword(body.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(body.NewPassword)
	if err != nil {
		internalError(w, r, err, false)
		return
	}
	if err := h.users.SetPassword(r.Context(), user.ID, hash); err != nil {
		internalError(w, r, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reward godoc
// @Summary Get the current user's reward points
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /reward [get]
func (h *UserHandler) Reward(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	points, err := h.users.Reward(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": points})
}
