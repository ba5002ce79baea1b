package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/logging"
	"taskboard/internal/models"
	"taskboard/internal/store"
)

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
	clock  Clock
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, clock Clock) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, clock: clock}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access string  `json:"access"`
	User   UserDTO `json:"user"`
}

// Register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} tokenResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w, r, err, false)
		return
	}
	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        req.Email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     true,
	}
	if err := h.users.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		internalError(w, r, err, false)
		return
	}
	logging.FromContext(r.Context()).Info("user registered", zap.Int("user_id", user.ID))

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login godoc
// @Summary Exchange credentials for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} tokenResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.users.UserByEmail(r.Context(), c.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		internalError(w, r, err, false)
		return
	}
	if auth.CheckPassword(c.Password, user.PasswordHash) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "account is disabled")
		return
	}

	now := h.clock.now()
	if err := h.users.TouchLastLogin(r.Context(), user.ID, now); err != nil {
		internalError(w, r, err, false)
		return
	}
	user.LastLogin = &now

	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user models.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		internalError(w, r, err, false)
		return
	}
	writeJSON(w, status, tokenResponse{Access: token, User: ToUserDTO(user)})
}
