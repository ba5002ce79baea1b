package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/analytics"
	"taskboard/internal/auth"
	"taskboard/internal/events"
	"taskboard/internal/models"
	"taskboard/internal/notify"
	"taskboard/internal/store"
)

type testEnv struct {
	t      *testing.T
	now    time.Time
	store  *memStore
	events *events.Recorder
	tokens *auth.Issuer
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		t:      t,
		now:    time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		events: &events.Recorder{},
		tokens: auth.NewIssuer([]byte("test-secret"), time.Hour),
	}
	e.store = newMemStore(func() time.Time { return e.now })
	e.router = NewRouter(Deps{
		Users:       e.store,
		Projects:    e.store,
		Snapshots:   e.store,
		Tokens:      e.tokens,
		Events:      e.events,
		Clock:       Clock{Now: func() time.Time { return e.now }, Loc: time.UTC},
		CORSOrigins: []string{"*"},
	})
	return e
}

// user creates an active account directly in the store and returns its id and token.
func (e *testEnv) user(email string, admin bool) (int, string) {
	e.t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		e.t.Fatal(err)
	}
	u := models.User{Email: email, PasswordHash: hash, IsActive: true, IsSuperuser: admin}
	if err := e.store.CreateUser(context.Background(), &u); err != nil {
		e.t.Fatal(err)
	}
	tok, err := e.tokens.Issue(u.ID)
	if err != nil {
		e.t.Fatal(err)
	}
	return u.ID, tok
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	Health(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	if body := w.Body.String(); body != `{"status":"ok"}` {
		t.Errorf("unexpected body %s", body)
	}
}

type fakeBroker bool

func (b fakeBroker) IsConnected() bool { return bool(b) }

func TestHealthBroker(t *testing.T) {
	cases := []struct {
		name   string
		broker BrokerStatus
		want   string
	}{
		{"none", nil, `{"status":"ok"}`},
		{"up", fakeBroker(true), `{"broker":"up","status":"ok"}`},
		{"down", fakeBroker(false), `{"broker":"down","status":"ok"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			router := NewRouter(Deps{Broker: c.broker, Tokens: auth.NewIssuer([]byte("s"), time.Hour)})
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			if body := strings.TrimSpace(rr.Body.String()); body != c.want {
				t.Errorf("expected %s, got %s", c.want, body)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada", "email": "Ada@Example.com", "password": "longpassword", "first_name": "Ada",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %s", rr.Code, rr.Body)
	}
	reg := decodeBody[tokenResponse](t, rr)
	if reg.Access == "" || reg.User.Email != "ada@example.com" || reg.User.FullName != "Ada" {
		t.Errorf("unexpected register response %+v", reg)
	}

	if rr := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ada@example.com", "password": "longpassword"}); rr.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rr.Code)
	}
	if rr := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "bob@example.com", "password": "short"}); rr.Code != http.StatusBadRequest {
		t.Errorf("weak password: expected 400, got %d", rr.Code)
	}

	rr = e.do(http.MethodPost, "/api/auth/login", "", credentials{Email: "ADA@example.com", Password: "longpassword"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", rr.Code, rr.Body)
	}
	login := decodeBody[tokenResponse](t, rr)
	if login.User.LastLogin == nil {
		t.Error("expected last_login to be set")
	}

	if rr := e.do(http.MethodPost, "/api/auth/login", "", credentials{Email: "ada@example.com", Password: "wrongpassword"}); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", rr.Code)
	}

	u := e.store.users[reg.User.ID]
	u.IsActive = false
	e.store.users[u.ID] = u
	if rr := e.do(http.MethodPost, "/api/auth/login", "", credentials{Email: "ada@example.com", Password: "longpassword"}); rr.Code != http.StatusUnauthorized {
		t.Errorf("inactive: expected 401, got %d", rr.Code)
	}
}

func TestRequiresToken(t *testing.T) {
	e := newTestEnv(t)
	if rr := e.do(http.MethodGet, "/api/projects", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestProfileUpdate(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.user("ada@example.com", false)

	rr := e.do(http.MethodPut, "/api/profile", tok, map[string]any{"first_name": "Ada", "is_superuser": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body)
	}
	got := decodeBody[UserDTO](t, rr)
	if got.FirstName != "Ada" || got.IsSuperuser {
		t.Errorf("unexpected profile %+v", got)
	}

	rr = e.do(http.MethodPost, "/api/profile/password", tok, passwordChange{
		CurrentPassword: "password123", NewPassword: "newpassword1", ConfirmPassword: "mismatch",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("mismatched confirmation: expected 400, got %d", rr.Code)
	}
	rr = e.do(http.MethodPost, "/api/profile/password", tok, passwordChange{
		CurrentPassword: "password123", NewPassword: "newpassword1", ConfirmPassword: "newpassword1",
	})
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d %s", rr.Code, rr.Body)
	}
}

// conflictingUsers fails every profile update with a duplicate email.
type conflictingUsers struct {
	*memStore
}

func (conflictingUsers) UpdateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, store.ErrDuplicate
}

func TestFailedProfileUpdateKeepsPassword(t *testing.T) {
	e := newTestEnv(t)
	id, tok := e.user("ada@example.com", false)
	_, admin := e.user("root@example.com", true)
	e.router = NewRouter(Deps{
		Users:     conflictingUsers{e.store},
		Projects:  e.store,
		Snapshots: e.store,
		Tokens:    e.tokens,
		Clock:     Clock{Now: func() time.Time { return e.now }, Loc: time.UTC},
	})

	rr := e.do(http.MethodPut, "/api/profile", tok, map[string]any{"email": "taken@example.com", "password": "brandnewpass"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("profile: expected 409, got %d %s", rr.Code, rr.Body)
	}
	rr = e.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d", id), admin, map[string]any{"email": "taken@example.com", "password": "brandnewpass"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("admin: expected 409, got %d %s", rr.Code, rr.Body)
	}

	u, err := e.store.UserByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if err := auth.CheckPassword("password123", u.PasswordHash); err != nil {
		t.Errorf("password changed despite failed update: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("expected email unchanged, got %s", u.Email)
	}
}

func TestProjectCompletionReward(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.user("ada@example.com", false)

	rr := e.do(http.MethodPost, "/api/projects", tok, map[string]any{"title": "Ship"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", rr.Code, rr.Body)
	}
	p := decodeBody[models.Project](t, rr)
	path := fmt.Sprintf("/api/projects/%d", p.ID)

	for i := 0; i < 2; i++ {
		if rr := e.do(http.MethodPatch, path, tok, map[string]any{"completed": true}); rr.Code != http.StatusOK {
			t.Fatalf("patch: expected 200, got %d %s", rr.Code, rr.Body)
		}
	}

	rr = e.do(http.MethodGet, "/api/reward", tok, nil)
	if got := decodeBody[map[string]int](t, rr); got["points"] != 3 {
		t.Errorf("expected 3 points after repeated completion, got %v", got)
	}
	if e.events.Len() != 1 {
		t.Fatalf("expected one completion event, got %d", e.events.Len())
	}
	evt, ok := e.events.Events[0].Payload.(events.ProjectCompleted)
	if !ok || evt.ProjectID != p.ID || evt.Reward != 3 {
		t.Errorf("unexpected event %+v", e.events.Events[0])
	}
}

func TestProjectValidation(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.user("ada@example.com", false)

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing title", map[string]any{"description": "x"}, http.StatusBadRequest},
		{"reversed dates", map[string]any{"title": "x", "start_date": "2024-06-20", "end_date": "2024-06-01"}, http.StatusBadRequest},
		{"ok", map[string]any{"title": "x", "start_date": "2024-06-01", "end_date": "2024-06-20"}, http.StatusCreated},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if rr := e.do(http.MethodPost, "/api/projects", tok, c.body); rr.Code != c.want {
				t.Errorf("expected %d, got %d %s", c.want, rr.Code, rr.Body)
			}
		})
	}
}

func TestProjectOwnership(t *testing.T) {
	e := newTestEnv(t)
	_, owner := e.user("ada@example.com", false)
	_, other := e.user("bob@example.com", false)

	rr := e.do(http.MethodPost, "/api/projects", owner, map[string]any{"title": "Private"})
	p := decodeBody[models.Project](t, rr)
	path := fmt.Sprintf("/api/projects/%d", p.ID)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		if rr := e.do(method, path, other, map[string]any{}); rr.Code != http.StatusNotFound {
			t.Errorf("%s by other user: expected 404, got %d", method, rr.Code)
		}
	}
	if rr := e.do(http.MethodDelete, path, owner, nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete by owner: expected 204, got %d", rr.Code)
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.user("ada@example.com", false)
	e.do(http.MethodPost, "/api/projects", tok, map[string]any{
		"title": "Launch", "start_date": "2024-06-15", "start_time": "12:10",
	})

	rr := e.do(http.MethodGet, "/api/notifications", tok, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	got := decodeBody[[]notify.Notification](t, rr)
	if len(got) != 1 || got[0].Title != notify.ProjectStartReminder {
		t.Errorf("unexpected notifications %+v", got)
	}
}

type adminEnvelope struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Count    int    `json:"count"`
	PageSize int    `json:"page_size"`
}

func TestAdminRequiresSuperuser(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.user("ada@example.com", false)

	rr := e.do(http.MethodGet, "/api/admin/dashboard/stats", tok, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if env := decodeBody[adminEnvelope](t, rr); env.Status != "error" {
		t.Errorf("expected error envelope, got %+v", env)
	}
}

func TestAdminStats(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root@example.com", true)
	_, tok := e.user("ada@example.com", false)
	e.do(http.MethodPost, "/api/projects", tok, map[string]any{"title": "One"})

	rr := e.do(http.MethodGet, "/api/admin/dashboard/stats", admin, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body)
	}
	body := decodeBody[struct {
		Status           string            `json:"status"`
		Stats            analytics.Stats   `json:"stats"`
		RecentActivities []json.RawMessage `json:"recent_activities"`
	}](t, rr)
	if body.Status != "success" || body.Stats.TotalUsers != 2 || body.Stats.TotalProjects != 1 || body.Stats.NewUsersToday != 2 {
		t.Errorf("unexpected stats %+v", body)
	}
	if len(body.RecentActivities) != 3 {
		t.Errorf("expected 2 signups and 1 project in preview, got %d", len(body.RecentActivities))
	}
}

func TestAdminActivitiesPagination(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root@example.com", true)

	cases := []struct {
		query    string
		want     int
		pageSize int
	}{
		{"", http.StatusOK, analytics.DefaultPageSize},
		{"?page_size=100", http.StatusOK, analytics.MaxPageSize},
		{"?page=9223372036854775807&page_size=20", http.StatusOK, 20},
		{"?page=abc",http.StatusBadRequest, 0},
		{"?page=0", http.StatusBadRequest, 0},
		{"?page_size=-1", http.StatusBadRequest, 0},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			rr := e.do(http.MethodGet, "/api/admin/activities"+c.query, admin, nil)
			if rr.Code != c.want {
				t.Fatalf("expected %d, got %d", c.want, rr.Code)
			}
			env := decodeBody[adminEnvelope](t, rr)
			if c.want == http.StatusOK && env.PageSize != c.pageSize {
				t.Errorf("expected page_size %d, got %d", c.pageSize, env.PageSize)
			}
			if c.want != http.StatusOK && env.Status != "error" {
				t.Errorf("expected error envelope, got %+v", env)
			}
		})
	}
}

func TestAdminProjectListing(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root@example.com", true)
	_, ada := e.user("ada@example.com", false)
	_, bob := e.user("bob@example.com", false)
	e.do(http.MethodPost, "/api/projects", ada, map[string]any{"title": "Engine"})
	e.do(http.MethodPost, "/api/projects", bob, map[string]any{"title": "Garden", "category": "Home"})

	cases := []struct {
		query string
		want  int
		count int
	}{
		{"", http.StatusOK, 2},
		{"?search=ADA@", http.StatusOK, 1},
		{"?category=home", http.StatusOK, 1},
		{"?status=completed", http.StatusOK, 0},
		{"?status=paused", http.StatusBadRequest, 0},
		{"?user_id=abc", http.StatusBadRequest, 0},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			rr := e.do(http.MethodGet, "/api/admin/projects"+c.query, admin, nil)
			if rr.Code != c.want {
				t.Fatalf("expected %d, got %d %s", c.want, rr.Code, rr.Body)
			}
			if env := decodeBody[adminEnvelope](t, rr); env.Count != c.count {
				t.Errorf("expected count %d, got %d", c.count, env.Count)
			}
		})
	}
}

func TestAdminProjectPatch(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root@example.com", true)
	adaID, ada := e.user("ada@example.com", false)
	p := decodeBody[models.Project](t, e.do(http.MethodPost, "/api/projects", ada, map[string]any{"title": "Engine"}))

	rr := e.do(http.MethodPatch, fmt.Sprintf("/api/admin/projects/%d", p.ID), admin, map[string]any{"completed": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body)
	}
	body := decodeBody[struct {
		Project AdminProjectDTO `json:"project"`
	}](t, rr)
	if models.Str(body.Project.CompletedAt) != "2024-06-15 12:00" || body.Project.UserEmail != "ada@example.com" {
		t.Errorf("unexpected project %+v", body.Project)
	}
	if e.store.users[adaID].Reward != 0 {
		t.Errorf("moderator completion must not reward, got %d", e.store.users[adaID].Reward)
	}
	if e.events.Len() != 0 {
		t.Errorf("expected no completion event, got %d", e.events.Len())
	}
}

func TestAdminUsers(t *testing.T) {
	e := newTestEnv(t)
	adminID, admin := e.user("root@example.com", true)
	adaID, _ := e.user("ada@example.com", false)

	if rr := e.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", adminID), admin, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("self delete: expected 400, got %d", rr.Code)
	}

	rr := e.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d", adaID), admin, map[string]any{"is_active": false})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d %s", rr.Code, rr.Body)
	}
	if e.store.users[adaID].IsActive {
		t.Error("expected user to be deactivated")
	}

	rr = e.do(http.MethodPost, "/api/admin/users", admin, map[string]any{"email": "new@example.com", "password": "password123"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", rr.Code, rr.Body)
	}
	if rr := e.do(http.MethodGet, "/api/admin/users", admin, nil); decodeBody[adminEnvelope](t, rr).Count != 3 {
		t.Errorf("expected 3 users, got %s", rr.Body)
	}

	if rr := e.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", adaID), admin, nil); rr.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rr.Code)
	}
	if rr := e.do(http.MethodGet, fmt.Sprintf("/api/admin/users/%d", adaID), admin, nil); rr.Code != http.StatusNotFound {
		t.Errorf("after delete: expected 404, got %d", rr.Code)
	}
}
