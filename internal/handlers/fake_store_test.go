package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskboard/internal/analytics"
	"taskboard/internal/models"
	"taskboard/internal/projects"
	"taskboard/internal/store"
)

// memStore is an in-memory UserStore, ProjectStore and SnapshotSource.
type memStore struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[int]models.User
	projects map[int]models.Project
	nextID   int
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{now: now, users: map[int]models.User{}, projects: map[int]models.Project{}}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.Username == "" {
		u.Username = u.Email
	}
	u.ID = m.id()
	u.DateJoined = m.now()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id int) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) UpdateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prior, ok := m.users[u.ID]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	u.PasswordHash = prior.PasswordHash
	u.Reward = prior.Reward
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) SetPassword(_ context.Context, id int, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memStore) TouchLastLogin(_ context.Context, id int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	for pid, p := range m.projects {
		if p.UserID == id {
			delete(m.projects, pid)
		}
	}
	return nil
}

func (m *memStore) Reward(_ context.Context, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	return u.Reward, nil
}

func (m *memStore) ProjectsByOwner(_ context.Context, ownerID int) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Project{}
	for _, p := range m.projects {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) Project(_ context.Context, id int, ownerID *int) (models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || (ownerID != nil && p.UserID != *ownerID) {
		return models.Project{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = *p
	return nil
}

func (m *memStore) UpdateProject(_ context.Context, id int, ownerID *int, mutate store.Mutation) (models.Project, projects.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prior, ok := m.projects[id]
	if !ok || (ownerID != nil && prior.UserID != *ownerID) {
		return models.Project{}, projects.Outcome{}, store.ErrNotFound
	}
	next, out, err := mutate(prior)
	if err != nil {
		return prior, projects.Outcome{}, err
	}
	next.UpdatedAt = m.now()
	m.projects[id] = next
	if out.Reward > 0 {
		u := m.users[prior.UserID]
		u.Reward += out.Reward
		m.users[prior.UserID] = u
	}
	return next, out, nil
}

func (m *memStore) DeleteProject(_ context.Context, id int, ownerID *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || (ownerID != nil && p.UserID != *ownerID) {
		return store.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *memStore) Snapshot(_ context.Context) (analytics.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := analytics.Snapshot{Users: []models.User{}, Projects: []models.Project{}}
	for _, u := range m.users {
		snap.Users = append(snap.Users, u)
	}
	for _, p := range m.projects {
		snap.Projects = append(snap.Projects, p)
	}
	return snap, nil
}
