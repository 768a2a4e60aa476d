package creator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/question"
)

// Service backs the authoring screens: taxonomy, drafts and submission.
type Service struct {
	questions *question.Service
	drafts    *DraftStore
	taxonomy  *Taxonomy
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(questions *question.Service, drafts *DraftStore, taxonomy *Taxonomy, logger zerolog.Logger) *Service {
	return &Service{
		questions: questions,
		drafts:    drafts,
		taxonomy:  taxonomy,
		logger:    logger.With().Str("component", "creator_service").Logger(),
		now:       time.Now,
	}
}

func (s *Service) Categories() []Entry   { return s.taxonomy.Categories }
func (s *Service) Difficulties() []Entry { return s.taxonomy.Difficulties }

// SaveDraft upserts q as a draft, generating an id when q has none.
// Drafts keep their first creation time across saves.
func (s *Service) SaveDraft(ctx context.Context, q question.Question) (Draft, error) {
	q = q.Normalize()
	now := s.now().UTC().Truncate(time.Millisecond)
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = now
	if existing, err := s.drafts.Get(ctx, q.ID); err == nil {
		q.CreatedAt = existing.CreatedAt
	}
	return s.drafts.Save(ctx, Draft{Question: q, Draft: true, SavedAt: now})
}

func (s *Service) Drafts(ctx context.Context) []Draft {
	return s.drafts.List(ctx)
}

func (s *Service) DeleteDraft(ctx context.Context, id string) error {
	return s.drafts.Delete(ctx, id)
}

// PublishDraft claims the draft and stores it as a new question. The draft is
// put back in place when the question is rejected, and a concurrent publish of
// the same draft gets ErrDraftNotFound.
func (s *Service) PublishDraft(ctx context.Context, id string) (question.Question, error) {
	d, pos, err := s.drafts.Take(ctx, id)
	if err != nil {
		return question.Question{}, err
	}
	created, err := s.questions.Create(ctx, d.Question)
	if err != nil {
		if restoreErr := s.drafts.Restore(ctx, d, pos); restoreErr != nil {
			s.logger.Error().Err(restoreErr).Str("draft_id", id).Msg("draft lost after failed publish")
		}
		return question.Question{}, err
	}
	return created, nil
}

// Submit creates a question directly, bypassing drafts.
func (s *Service) Submit(ctx context.Context, q question.Question) (question.Question, error) {
	return s.questions.Create(ctx, q)
}
