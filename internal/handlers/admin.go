package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"taskboard/internal/analytics"
	"taskboard/internal/auth"
	"taskboard/internal/logging"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/projects"
	"taskboard/internal/store"
)

// AdminHandler serves the moderation and dashboard endpoints. Routes are expected behind
// middleware.RequireAdmin.
type AdminHandler struct {
	users     UserStore
	projects  ProjectStore
	snapshots SnapshotSource
	clock     Clock
}

func NewAdminHandler(users UserStore, ps ProjectStore, snapshots SnapshotSource, clock Clock) *AdminHandler {
	return &AdminHandler{users: users, projects: ps, snapshots: snapshots, clock: clock}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Counters, on-time/late shares and a preview of recent signups and projects (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.Dashboard
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/dashboard/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Snapshot(r.Context())
	if err != nil {
		internalError(w, r, err, true)
		return
	}
	d := analytics.ComputeStats(r.Context(), snap, h.clock.now(), h.clock.location())
	writeAdmin(w, http.StatusOK, map[string]any{
		"stats":             d.Stats,
		"recent_activities": d.RecentActivities,
	})
}

// Activities godoc
// @Summary Paginated activity feed of the last 30 days
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, starting at 1"
// @Param page_size query int false "Page size, at most 50"
// @Success 200 {object} analytics.Page
// @Failure 400 {object} map[string]string "Invalid pagination"
// @Router /admin/activities [get]
func (h *AdminHandler) Activities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := analytics.ParsePagination(q.Get("page"), q.Get("page_size"))
	if err != nil {
		writeAdminError(w, http.StatusBadRequest, "page and page_size must be positive integers")
		return
	}
	snap, err := h.snapshots.Snapshot(r.Context())
	if err != nil {
		internalError(w, r, err, true)
		return
	}
	page := analytics.ListActivities(r.Context(), snap, h.clock.now(), h.clock.location(), pg)
	writeAdmin(w, http.StatusOK, map[string]any{
		"activities": page.Activities,
		"total":      page.Total,
		"page":       page.Page,
		"page_size":  page.PageSize,
		"has_more":   page.HasMore,
	})
}

// ListProjects godoc
// @Summary Filtered project listing
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Substring over title, description, category and owner"
// @Param status query string false "all, active or completed"
// @Param user_id query int false "Owner id"
// @Param category query string false "Exact category, case-insensitive"
// @Param time_frame query string false "today, week, month or overdue"
// @Success 200 {array} AdminProjectDTO
// @Failure 400 {object} map[string]string
// @Router /admin/projects [get]
func (h *AdminHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	f, err := projects.ParseFilter(r.URL.Query())
	if err != nil {
		writeAdminError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.snapshots.Snapshot(r.Context())
	if err != nil {
		internalError(w, r, err, true)
		return
	}
	owners := make(map[int]models.User, len(snap.Users))
	for _, u := range snap.Users {
		owners[u.ID] = u
	}
	matched := f.Apply(snap.Projects, owners, h.clock.now())
	out := make([]AdminProjectDTO, len(matched))
	for i, p := range matched {
		out[i] = toAdminProjectDTO(p, owners[p.UserID])
	}
	writeAdmin(w, http.StatusOK, map[string]any{"projects": out, "count": len(out)})
}

// GetProject godoc
// @Summary Get any project with its owner and deadline status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} AdminProjectDTO
// @Failure 404 {object} map[string]string "Project not found"
// @Router /admin/projects/{id} [get]
func (h *AdminHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "project not found")
		return
	}
	p, err := h.projects.Project(r.Context(), id, nil)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.writeProject(w, r, p)
}

// UpdateProject godoc
// @Summary Moderate a project
// @Description Completing stamps completed_at when missing, un-completing clears it. No reward is granted.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AdminProjectDTO
// @Router /admin/projects/{id} [patch]
func (h *AdminHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "project not found")
		return
	}
	var in projects.Input
	if err := decode(r, &in); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid body")
		return
	}
	now := h.clock.now()
	p, _, err := h.projects.UpdateProject(r.Context(), id, nil, func(prior models.Project) (models.Project, projects.Outcome, error) {
		return projects.ApplyAdmin(prior, in, now, h.clock.location())
	})
	if err != nil {
		if errors.Is(err, projects.ErrInvalid) {
			writeAdminError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.storeError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("project moderated", zap.Int("project_id", p.ID))
	h.writeProject(w, r, p)
}

// DeleteProject godoc
// @Summary Delete any project
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Project not found"
// @Router /admin/projects/{id} [delete]
func (h *AdminHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "project not found")
		return
	}
	if err := h.projects.DeleteProject(r.Context(), id, nil); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, map[string]any{"message": "project deleted"})
}

func (h *AdminHandler) writeProject(w http.ResponseWriter, r *http.Request, p models.Project) {
	owner, err := h.users.UserByID(r.Context(), p.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		internalError(w, r, err, true)
		return
	}
	writeAdmin(w, http.StatusOK, map[string]any{"project": toAdminProjectDTO(p, owner)})
}

// ListUsers godoc
// @Summary List users, newest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserDTO
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		internalError(w, r, err, true)
		return
	}
	writeAdmin(w, http.StatusOK, map[string]any{"users": toUserDTOs(users), "count": len(users)})
}

type adminCreateUser struct {
	registerRequest
	IsActive    *bool `json:"is_active"`
	IsSuperuser bool  `json:"is_superuser"`
}

// CreateUser godoc
// @Summary Create a user, optionally inactive or an admin
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} UserDTO
// @Failure 400 {object} map[string]string "Invalid email or weak password"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminCreateUser
	if err := decode(r, &req); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.Contains(req.Email, "@") {
		writeAdminError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeAdminError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w, r, err, true)
		return
	}
	u := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     req.IsActive == nil || *req.IsActive,
		IsSuperuser:  req.IsSuperuser,
	}
	if err := h.users.CreateUser(r.Context(), &u); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusCreated, map[string]any{"user": ToUserDTO(u)})
}

// GetUser godoc
// @Summary Get a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserDTO
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "user not found")
		return
	}
	u, err := h.users.UserByID(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, map[string]any{"user": ToUserDTO(u)})
}

// UpdateUser godoc
// @Summary Update a user's profile, flags or password
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserDTO
// @Failure 400 {object} map[string]string "Invalid body"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "user not found")
		return
	}
	var patch userPatch
	if err := decode(r, &patch); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid body")
		return
	}
	u, err := h.users.UserByID(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if msg := patch.apply(&u, true); msg != "" {
		writeAdminError(w, http.StatusBadRequest, msg)
		return
	}
	updated, err := patch.save(r.Context(), h.users, u)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, map[string]any{"user": ToUserDTO(updated)})
}

// DeleteUser godoc
// @Summary Delete a user and their projects
// @Tags admin
// @Security BearerAuth
// @Failure 400 {object} map[string]string "Admins cannot delete themselves"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeAdminError(w, http.StatusNotFound, "user not found")
		return
	}
	if me, _ := middleware.UserFromContext(r.Context()); me.ID == id {
		writeAdminError(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeAdmin(w, http.StatusOK, map[string]any{"message": "user deleted"})
}

func (h *AdminHandler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if status, msg, ok := storeStatus(err); ok {
		writeAdminError(w, status, msg)
		return
	}
	internalError(w, r, err, true)
}
