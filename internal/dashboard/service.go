// Package dashboard derives the analytics widgets from the live question collection.
package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gokatarajesh/question-bank/internal/question"
)

const (
	activityDays       = 7
	defaultRecentLimit = 10
	uncategorized      = "Uncategorized"
	aiTag              = "ai"
)

// Lister is the read side of the question service.
type Lister interface {
	List(ctx context.Context) ([]question.Question, error)
}

type Stats struct {
	TotalQuestions   int `json:"totalQuestions"`
	Categories       int `json:"categories"`
	AIGenerated      int `json:"aiGenerated"`
	DifficultyLevels int `json:"difficultyLevels"`
}

type ActivityPoint struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Questions int    `json:"questions"`
}

type CategoryShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type RecentQuestion struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Service computes every widget on demand; nothing is cached here because the
// store may already sit behind the Redis cache.
type Service struct {
	questions   Lister
	recentLimit int
	now         func() time.Time
	loc         *time.Location
}

type Option func(*Service)

// WithClock overrides time.Now and the location used to bucket days.
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *Service) {
		s.now = now
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(questions Lister, recentLimit int, opts ...Option) *Service {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	s := &Service{questions: questions, recentLimit: recentLimit, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	qs, err := s.questions.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	categories := make(map[string]struct{})
	difficulties := make(map[string]struct{})
	st := Stats{TotalQuestions: len(qs)}
	for _, q := range qs {
		if key := categoryKey(q.Category); key != "" {
			categories[key] = struct{}{}
		}
		if d := strings.TrimSpace(q.Difficulty); d != "" {
			difficulties[strings.ToLower(d)] = struct{}{}
		}
		if q.HasTag(aiTag) {
			st.AIGenerated++
		}
	}
	st.Categories = len(categories)
	st.DifficultyLevels = len(difficulties)
	return st, nil
}

// Activity counts questions created on each of the last seven days, oldest first.
func (s *Service) Activity(ctx context.Context) ([]ActivityPoint, error) {
	qs, err := s.questions.List(ctx)
	if err != nil {
		return nil, err
	}

	today := dayStart(s.now().In(s.loc))
	first := today.AddDate(0, 0, -(activityDays - 1))
	points := make([]ActivityPoint, activityDays)
	slot := make(map[string]int, activityDays)
	for i := range points {
		day := first.AddDate(0, 0, i)
		points[i] = ActivityPoint{Name: day.Format("Mon"), Date: day.Format(time.DateOnly)}
		slot[points[i].Date] = i
	}
	for _, q := range qs {
		if i, ok := slot[q.CreatedAt.In(s.loc).Format(time.DateOnly)]; ok {
			points[i].Questions++
		}
	}
	return points, nil
}

// Categories returns per-category counts, largest first.
func (s *Service) Categories(ctx context.Context) ([]CategoryShare, error) {
	qs, err := s.questions.List(ctx)
	if err != nil {
		return nil, err
	}
	// grouped like Stats; the first spelling seen names the group
	index := make(map[string]int)
	out := make([]CategoryShare, 0)
	for _, q := range qs {
		name := strings.TrimSpace(q.Category)
		if name == "" {
			name = uncategorized
		}
		key := categoryKey(name)
		if i, ok := index[key]; ok {
			out[i].Value++
			continue
		}
		index[key] = len(out)
		out = append(out, CategoryShare{Name: name, Value: 1})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Recent lists the newest questions; later inserts win ties.
func (s *Service) Recent(ctx context.Context) ([]RecentQuestion, error) {
	qs, err := s.questions.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RecentQuestion, len(qs))
	for i, q := range qs {
		out[len(qs)-1-i] = RecentQuestion{
			ID:         q.ID,
			Title:      q.Text,
			Category:   q.Category,
			Difficulty: q.Difficulty,
			CreatedAt:  q.CreatedAt,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > s.recentLimit {
		out = out[:s.recentLimit]
	}
	return out, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func categoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
