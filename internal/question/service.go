package question

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/logging"
)

// Change kinds published after successful mutations.
const (
	ChangeCreated = "question.created"
	ChangeUpdated = "question.updated"
	ChangeDeleted = "question.deleted"
)

// Change describes one committed mutation of the collection.
type Change struct {
	Kind     string    `json:"type"`
	ID       string    `json:"questionId"`
	Question *Question `json:"question,omitempty"`
	At       time.Time `json:"at"`
}

// ChangePublisher fans committed changes out to subscribers (Redis, websocket hub).
type ChangePublisher interface {
	Publish(ctx context.Context, change Change) error
}

// ServiceOptions tunes id and clock sources; zero values use uuid and time.Now.
type ServiceOptions struct {
	Publisher   ChangePublisher
	Clock       func() time.Time
	IDGenerator func() string
}

// Service applies the record rules (ids, timestamps, validation) on top of a Store.
type Service struct {
	store     Store
	publisher ChangePublisher
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(store Store, logger zerolog.Logger, opts ServiceOptions) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	return &Service{
		store:     store,
		publisher: opts.Publisher,
		logger:    logger.With().Str("component", "question_service").Logger(),
		now:       opts.Clock,
		newID:     opts.IDGenerator,
	}
}

// List returns every stored question in insertion order.
func (s *Service) List(ctx context.Context) ([]Question, error) {
	return s.store.List(ctx)
}

// Get returns the question with id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Question, error) {
	return s.store.Get(ctx, id)
}

// Create assigns a fresh id and creation time, validates and stores q.
// Any id or createdAt supplied by the caller is discarded.
func (s *Service) Create(ctx context.Context, q Question) (Question, error) {
	q = q.Normalize()
	q.ID = s.newID()
	q.CreatedAt = s.timestamp()
	if err := q.Validate(); err != nil {
		return Question{}, err
	}

	created, err := s.store.Insert(ctx, q)
	if err != nil {
		return Question{}, err
	}
	s.publish(ctx, ChangeCreated, created.ID, &created)
	return created, nil
}

// Update replaces the record at id with q. The path id wins over q.ID and the
// stored creation time is kept.
func (s *Service) Update(ctx context.Context, id string, q Question) (Question, error) {
	if q.ID != "" && q.ID != id {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("path_id", id).
			Str("body_id", q.ID).
			Msg("update body id ignored in favour of path id")
	}
	q = q.Normalize()
	q.ID = id
	if err := q.Validate(); err != nil {
		return Question{}, err
	}

	updated, err := s.store.Replace(ctx, q)
	if err != nil {
		return Question{}, err
	}
	s.publish(ctx, ChangeUpdated, updated.ID, &updated)
	return updated, nil
}

// Delete removes the record at id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, ChangeDeleted, id, nil)
	return nil
}

// Import stores q keeping its id and createdAt when present; used by bulk loads.
// Records whose id already exists are reported with ErrDuplicateID.
func (s *Service) Import(ctx context.Context, q Question) (Question, error) {
	q = q.Normalize()
	if q.ID == "" {
		q.ID = s.newID()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.timestamp()
	} else {
		q.CreatedAt = q.CreatedAt.UTC()
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	stored, err := s.store.Insert(ctx, q)
	if err != nil {
		return Question{}, err
	}
	s.publish(ctx, ChangeCreated, stored.ID, &stored)
	return stored, nil
}

// timestamp matches the millisecond precision JSON clients send back.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) publish(ctx context.Context, kind, id string, q *Question) {
	if s.publisher == nil {
		return
	}
	change := Change{Kind: kind, ID: id, Question: q, At: s.timestamp()}
	if err := s.publisher.Publish(ctx, change); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Str("kind", kind).Str("question_id", id).Msg("change publish failed")
	}
}
