// Package analytics computes the admin dashboard counters and the activity feed from a
// snapshot of all users and projects. Every call recomputes from the snapshot it is given.
package analytics

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/logging"
	"taskboard/internal/metrics"
	"taskboard/internal/models"
	"taskboard/internal/timeutil"
)

const (
	PreviewWindow = 7 * 24 * time.Hour
	FeedWindow    = 30 * 24 * time.Hour

	previewPerKind = 5
	previewLimit   = 10

	DefaultPageSize = 20
	MaxPageSize     = 50
)

var ErrInvalidPagination = errors.New("invalid pagination parameters")

// Snapshot is a consistent read of the store taken at the start of a request.
type Snapshot struct {
	Users    []models.User
	Projects []models.Project
}

func (s Snapshot) emails() map[int]string {
	out := make(map[int]string, len(s.Users))
	for _, u := range s.Users {
		out[u.ID] = u.Email
	}
	return out
}

func ownerEmail(emails map[int]string, id int) string {
	if e, ok := emails[id]; ok {
		return e
	}
	return "Unknown"
}

type Stats struct {
	TotalUsers         int `json:"total_users"`
	NewUsersToday      int `json:"new_users_today"`
	ActiveUsersToday   int `json:"active_users_today"`
	TotalProjects      int `json:"total_projects"`
	ProjectsCompleted  int `json:"projects_completed"`
	ProjectsInProgress int `json:"projects_in_progress"`
	ProjectsOnTime     int `json:"projects_on_time"`
	ProjectsLate       int `json:"projects_late"`
	OnTimePercentage   int `json:"on_time_percentage"`
	LatePercentage     int `json:"late_percentage"`
	DailyVisits        int `json:"daily_visits"`
}

type Dashboard struct {
	Stats            Stats      `json:"stats"`
	RecentActivities []Activity `json:"recent_activities"`
}

// ComputeStats builds the dashboard counters and the recent activity preview.
// "Today" is the calendar date of now in loc.
func ComputeStats(ctx context.Context, snap Snapshot, now time.Time, loc *time.Location) Dashboard {
	defer metrics.ObserveAnalytics("stats", time.Now())

	var s Stats
	s.TotalUsers = len(snap.Users)
	for _, u := range snap.Users {
		if timeutil.SameDay(u.DateJoined, now, loc) {
			s.NewUsersToday++
		}
		if u.LastLogin != nil && timeutil.SameDay(*u.LastLogin, now, loc) {
			s.ActiveUsersToday++
		}
	}
	s.DailyVisits = s.ActiveUsersToday

	s.TotalProjects = len(snap.Projects)
	for _, p := range snap.Projects {
		if p.Completed {
			s.ProjectsCompleted++
		} else {
			s.ProjectsInProgress++
		}
	}

	s.ProjectsOnTime, s.ProjectsLate = classifyCompletions(ctx, snap.Projects, loc)
	s.OnTimePercentage, s.LatePercentage = shares(s.ProjectsOnTime, s.ProjectsLate)

	return Dashboard{Stats: s, RecentActivities: recentActivities(snap, now)}
}

// classifyCompletions counts completed projects finished by their deadline and after it.
// Projects whose dates do not parse are left out of both counts.
func classifyCompletions(ctx context.Context, projects []models.Project, loc *time.Location) (onTime, late int) {
	log := logging.FromContext(ctx)
	for _, p := range projects {
		if !p.Completed || models.Str(p.EndDate) == "" || models.Str(p.CompletedAt) == "" {
			continue
		}
		deadline, err := timeutil.Deadline(*p.EndDate, models.Str(p.EndTime), loc)
		if err != nil {
			metrics.IncrementDateParseFailure("stats")
			log.Warn("skipping project with unparseable deadline", zap.Int("project_id", p.ID), zap.Error(err))
			continue
		}
		done, err := timeutil.ParseTimestamp(*p.CompletedAt, loc)
		if err != nil {
			metrics.IncrementDateParseFailure("stats")
			log.Warn("skipping project with unparseable completed_at", zap.Int("project_id", p.ID), zap.Error(err))
			continue
		}
		if done.After(deadline) {
			late++
		} else {
			onTime++
		}
	}
	return onTime, late
}

func shares(onTime, late int) (int, int) {
	total := onTime + late
	if total == 0 {
		return 0, 0
	}
	pct := func(n int) int { return int(math.Round(float64(n) * 100 / float64(total))) }
	return pct(onTime), pct(late)
}

func recentActivities(snap Snapshot, now time.Time) []Activity {
	since := now.Add(-PreviewWindow)
	emails := snap.emails()

	users := make([]models.User, 0, len(snap.Users))
	for _, u := range snap.Users {
		if !u.DateJoined.Before(since) {
			users = append(users, u)
		}
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].DateJoined.After(users[j].DateJoined) })

	projects := make([]models.Project, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		if !p.CreatedAt.Before(since) {
			projects = append(projects, p)
		}
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })

	out := make([]Activity, 0, previewLimit)
	for _, u := range head(users, previewPerKind) {
		a := signupActivity(u, now)
		a.Title = "New user: " + u.Email
		out = append(out, a)
	}
	for _, p := range head(projects, previewPerKind) {
		a := createdActivity(p, ownerEmail(emails, p.UserID), now)
		a.Title = "New project: " + p.Title
		a.Icon = "document-text"
		out = append(out, a)
	}
	sortNewestFirst(out)
	return head(out, previewLimit)
}

// Pagination is a validated page request. Page starts at 1.
type Pagination struct {
	Page     int
	PageSize int
}

// ParsePagination reads the page and page_size query values. Empty values take the
// defaults, a page_size above MaxPageSize is clamped, and anything that is not a positive
// integer is rejected.
func ParsePagination(page, pageSize string) (Pagination, error) {
	p := Pagination{Page: 1, PageSize: DefaultPageSize}
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return p, ErrInvalidPagination
		}
		p.Page = n
	}
	if pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil || n < 1 {
			return p, ErrInvalidPagination
		}
		p.PageSize = min(n, MaxPageSize)
	}
	return p, nil
}

type Page struct {
	Activities []Activity `json:"activities"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	HasMore    bool       `json:"has_more"`
}

// ListActivities merges the signup, creation, update and completion streams of the last
// 30 days, newest first, and returns the requested page.
func ListActivities(ctx context.Context, snap Snapshot, now time.Time, loc *time.Location, pg Pagination) Page {
	defer metrics.ObserveAnalytics("activities", time.Now())

	if pg.Page < 1 {
		pg.Page = 1
	}
	if pg.PageSize < 1 {
		pg.PageSize = DefaultPageSize
	}

	all := feed(ctx, snap, now, loc)
	total := len(all)
	out := Page{Activities: []Activity{}, Total: total, Page: pg.Page, PageSize: pg.PageSize}
	// past the end; also keeps (Page-1)*PageSize from overflowing
	if pg.Page-1 > total/pg.PageSize {
		return out
	}
	start := min((pg.Page-1)*pg.PageSize, total)
	end := min(start+pg.PageSize, total)
	out.Activities = all[start:end]
	out.HasMore = end < total
	return out
}

func feed(ctx context.Context, snap Snapshot, now time.Time, loc *time.Location) []Activity {
	since := now.Add(-FeedWindow)
	emails := snap.emails()
	out := []Activity{}

	for _, u := range snap.Users {
		if !u.DateJoined.Before(since) {
			out = append(out, signupActivity(u, now))
		}
	}
	for _, p := range snap.Projects {
		if !p.CreatedAt.Before(since) {
			out = append(out, createdActivity(p, ownerEmail(emails, p.UserID), now))
		}
	}
	for _, p := range snap.Projects {
		if !p.UpdatedAt.Before(since) && !p.UpdatedAt.Equal(p.CreatedAt) {
			out = append(out, updatedActivity(p, ownerEmail(emails, p.UserID), now))
		}
	}
	log := logging.FromContext(ctx)
	for _, p := range snap.Projects {
		raw := models.Str(p.CompletedAt)
		if raw == "" {
			continue
		}
		done, err := timeutil.ParseTimestamp(raw, loc)
		if err != nil {
			metrics.IncrementDateParseFailure("activity")
			log.Warn("skipping completion with unparseable timestamp", zap.Int("project_id", p.ID), zap.Error(err))
			continue
		}
		if !done.Before(since) {
			out = append(out, completedActivity(p, done, ownerEmail(emails, p.UserID), now))
		}
	}

	sortNewestFirst(out)
	return out
}

func sortNewestFirst(as []Activity) {
	sort.SliceStable(as, func(i, j int) bool { return as[i].at.After(as[j].at) })
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
