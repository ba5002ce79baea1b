package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"taskboard/internal/events"
	"taskboard/internal/logging"
	"taskboard/internal/metrics"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/notify"
	"taskboard/internal/projects"
)

type ProjectHandler struct {
	projects ProjectStore
	events   events.Publisher
	clock    Clock
}

func NewProjectHandler(ps ProjectStore, pub events.Publisher, clock Clock) *ProjectHandler {
	return &ProjectHandler{projects: ps, events: pub, clock: clock}
}

// List godoc
// @Summary List the current user's projects, newest first
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Project
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	list, err := h.projects.ProjectsByOwner(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Project
// @Failure 400 {object} map[string]string
// @Router /projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	var in projects.Input
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	p, err := projects.New(user.ID, in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.projects.CreateProject(r.Context(), &p); err != nil {
		internalError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	p, err := h.projects.Project(r.Context(), id, &user.ID)
	if err != nil {
		if status, msg, ok := storeStatus(err); ok {
			writeError(w, status, msg)
			return
		}
		internalError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update godoc
// @Summary Partially update a project
// @Description Completing a project for the first time grants the owner reward points.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Project
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [patch]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var in projects.Input
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	p, out, err := h.projects.UpdateProject(r.Context(), id, &user.ID, func(prior models.Project) (models.Project, projects.Outcome, error) {
		return projects.ApplyOwner(prior, in)
	})
	if err != nil {
		if errors.Is(err, projects.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if status, msg, ok := storeStatus(err); ok {
			writeError(w, status, msg)
			return
		}
		internalError(w, r, err, false)
		return
	}

	if out.NewlyCompleted {
		log := logging.FromContext(r.Context())
		metrics.AddRewardPoints(out.Reward)
		log.Info("project completed", zap.Int("project_id", p.ID), zap.Int("reward", out.Reward))
		evt := events.ProjectCompleted{
			ProjectID:   p.ID,
			UserID:      p.UserID,
			Title:       p.Title,
			Reward:      out.Reward,
			CompletedAt: models.Str(p.CompletedAt),
		}
		if err := h.events.Publish(r.Context(), events.RoutingProjectCompleted, evt); err != nil {
			log.Warn("could not publish event", zap.String("routing_key", events.RoutingProjectCompleted), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.projects.DeleteProject(r.Context(), id, &user.ID); err != nil {
		if status, msg, ok := storeStatus(err); ok {
			writeError(w, status, msg)
			return
		}
		internalError(w, r, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notifications godoc
// @Summary Deadline and start reminders for the current user's projects
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} notify.Notification
// @Router /notifications [get]
func (h *ProjectHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	list, err := h.projects.ProjectsByOwner(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, notify.Evaluate(r.Context(), list, h.clock.now(), h.clock.location()))
}
