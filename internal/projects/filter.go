package projects

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/timeutil"
)

var ErrInvalidFilter = errors.New("invalid filter")

const (
	StatusAll       = "all"
	StatusActive    = "active"
	StatusCompleted = "completed"

	FrameToday   = "today"
	FrameWeek    = "week"
	FrameMonth   = "month"
	FrameOverdue = "overdue"
)

// Filter is the admin project listing query.
type Filter struct {
	Search    string
	Status    string
	UserID    *int
	Category  string
	TimeFrame string
}

// ParseFilter reads search, status, user_id, category and time_frame from q.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Search:    strings.TrimSpace(q.Get("search")),
		Status:    q.Get("status"),
		Category:  strings.TrimSpace(q.Get("category")),
		TimeFrame: q.Get("time_frame"),
	}
	switch f.Status {
	case "":
		f.Status = StatusAll
	case StatusAll, StatusActive, StatusCompleted:
	default:
		return f, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	switch f.TimeFrame {
	case "", FrameToday, FrameWeek, FrameMonth, FrameOverdue:
	default:
		return f, fmt.Errorf("%w: unknown time_frame %q", ErrInvalidFilter, f.TimeFrame)
	}
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: user_id must be an integer", ErrInvalidFilter)
		}
		f.UserID = &id
	}
	return f, nil
}

// Apply returns the projects matching f, newest first. owners maps user id to owner and
// today is the current calendar date.
func (f Filter) Apply(all []models.Project, owners map[int]models.User, today time.Time) []models.Project {
	out := make([]models.Project, 0, len(all))
	for _, p := range all {
		if f.match(p, owners[p.UserID], today) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f Filter) match(p models.Project, owner models.User, today time.Time) bool {
	if f.UserID != nil && p.UserID != *f.UserID {
		return false
	}
	if f.Search != "" && !matchesSearch(p, owner, f.Search) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(models.Str(p.Category), f.Category) {
		return false
	}
	switch f.Status {
	case StatusActive:
		if p.Completed {
			return false
		}
	case StatusCompleted:
		if !p.Completed {
			return false
		}
	}
	if f.TimeFrame != "" {
		return matchesFrame(p, f.TimeFrame, today)
	}
	return true
}

func matchesSearch(p models.Project, owner models.User, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{
		p.Title,
		models.Str(p.Description),
		models.Str(p.Category),
		owner.Email,
		owner.FirstName,
		owner.LastName,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// matchesFrame compares the project's dates against today. Unparseable dates never match.
func matchesFrame(p models.Project, frame string, today time.Time) bool {
	loc := today.Location()
	today = timeutil.StartOfDay(today, loc)
	end, endErr := timeutil.ParseDate(models.Str(p.EndDate), loc)

	switch frame {
	case FrameToday:
		if start, err := timeutil.ParseDate(models.Str(p.StartDate), loc); err == nil && start.Equal(today) {
			return true
		}
		return endErr == nil && end.Equal(today)
	case FrameWeek:
		return endErr == nil && within(end, today, today.AddDate(0, 0, 7))
	case FrameMonth:
		return endErr == nil && within(end, today, today.AddDate(0, 0, 30))
	case FrameOverdue:
		return endErr == nil && end.Before(today) && !p.Completed
	}
	return true
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
