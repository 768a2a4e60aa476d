package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gokatarajesh/question-bank/internal/question"
)

var (
	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Question store operations by outcome",
	}, []string{"backend", "op", "result"})

	storeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of question store operations in seconds",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"backend", "op"})

	storeSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_questions",
		Help:      "Number of questions seen by the last list call",
	}, []string{"backend"})
)

// InstrumentedStore records operation counts and latency for a question.Store.
type InstrumentedStore struct {
	next    question.Store
	backend string
}

var _ question.Store = (*InstrumentedStore)(nil)

func InstrumentStore(next question.Store, backend string) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend}
}

func (s *InstrumentedStore) List(ctx context.Context) ([]question.Question, error) {
	defer s.observe("list", time.Now())
	qs, err := s.next.List(ctx)
	s.count("list", err)
	if err == nil {
		storeSize.WithLabelValues(s.backend).Set(float64(len(qs)))
	}
	return qs, err
}

func (s *InstrumentedStore) Get(ctx context.Context, id string) (question.Question, error) {
	defer s.observe("get", time.Now())
	q, err := s.next.Get(ctx, id)
	s.count("get", err)
	return q, err
}

func (s *InstrumentedStore) Insert(ctx context.Context, q question.Question) (question.Question, error) {
	defer s.observe("insert", time.Now())
	out, err := s.next.Insert(ctx, q)
	s.count("insert", err)
	return out, err
}

func (s *InstrumentedStore) Replace(ctx context.Context, q question.Question) (question.Question, error) {
	defer s.observe("replace", time.Now())
	out, err := s.next.Replace(ctx, q)
	s.count("replace", err)
	return out, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id string) error {
	defer s.observe("delete", time.Now())
	err := s.next.Delete(ctx, id)
	s.count("delete", err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}

func (s *InstrumentedStore) observe(op string, start time.Time) {
	storeLatency.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStore) count(op string, err error) {
	storeOps.WithLabelValues(s.backend, op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	var (
		corrupt *question.CorruptStoreError
		persist *question.PersistenceError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, question.ErrNotFound):
		return "not_found"
	case errors.Is(err, question.ErrDuplicateID):
		return "duplicate"
	case errors.As(err, &corrupt):
		return "corrupt"
	case errors.As(err, &persist):
		return "persistence_error"
	default:
		return "error"
	}
}
