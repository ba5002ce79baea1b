package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"taskboard/internal/logging"
	"taskboard/internal/models"
)

type fakeTokens map[string]int

func (f fakeTokens) Parse(tok string) (int, error) {
	id, ok := f[tok]
	if !ok {
		return 0, errors.New("bad token")
	}
	return id, nil
}

type fakeUsers map[int]models.User

func (f fakeUsers) UserByID(_ context.Context, id int) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return u, nil
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthMiddleware(
		fakeTokens{"good": 1, "inactive": 2, "ghost": 3},
		fakeUsers{1: {ID: 1, IsActive: true}, 2: {ID: 2}},
	)
	var seen models.User
	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Token good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"inactive user", "Bearer inactive", http.StatusUnauthorized},
		{"deleted user", "Bearer ghost", http.StatusUnauthorized},
		{"ok", "Bearer good", http.StatusNoContent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != c.want {
				t.Errorf("expected %d, got %d", c.want, rr.Code)
			}
		})
	}
	if seen.ID != 1 {
		t.Errorf("expected user 1 in context, got %+v", seen)
	}
}

// withUser simulates a request that already passed RequireAuth.
func withUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(withUser(req.Context(), models.User{ID: 1})))
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for regular user, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(withUser(req.Context(), models.User{ID: 2, IsSuperuser: true})))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rr.Code)
	}
}

func TestZapRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(ZapRequestLogger(logger))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/7", nil))

	if logs.FilterMessage("inside").Len() != 1 {
		t.Error("expected handler to log through the request logger")
	}
	done := logs.FilterMessage("request completed").All()
	if len(done) != 1 {
		t.Fatalf("expected one completion entry, got %d", len(done))
	}
	fields := done[0].ContextMap()
	if fields["route"] != "/items/{id}" {
		t.Errorf("expected route pattern, got %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", fields["status"])
	}
}
