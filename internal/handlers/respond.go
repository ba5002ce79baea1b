package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"taskboard/internal/logging"
	"taskboard/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is the envelope of the user-facing endpoints.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAdminError is the envelope of the admin endpoints.
func writeAdminError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}

func writeAdmin(w http.ResponseWriter, status int, body map[string]any) {
	body["status"] = "success"
	writeJSON(w, status, body)
}

// internalError logs err and answers 500 without details.
func internalError(w http.ResponseWriter, r *http.Request, err error, admin bool) {
	logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
	if admin {
		writeAdminError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeError(w, http.StatusInternalServerError, "server error")
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// storeStatus maps store sentinels to a status code. ok is false for unexpected errors.
func storeStatus(err error) (status int, msg string, ok bool) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found", true
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, "already exists", true
	}
	return 0, "", false
}
