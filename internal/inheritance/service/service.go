// Package service orchestrates inheritance calculations: it deduplicates
// concurrent identical requests, times and traces each run, saves the
// caller's history and publishes a completion event.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"faraid/internal/inheritance/events"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/metrics"
	"faraid/internal/inheritance/models"
)

const defaultListLimit = 50

var tracer = otel.Tracer("faraid/inheritance")

type Calculator interface {
	Calculate(madhab fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) (*models.Result, error)
}

type HistoryStore interface {
	Save(ctx context.Context, rec *models.Record) error
	Get(ctx context.Context, ownerID, id string) (*models.Record, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Record, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Service is safe for concurrent use.
type Service struct {
	calculator Calculator
	history    HistoryStore
	publisher  EventPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	listLimit  int
	inflight   singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithHistoryStore enables history. Without it calculations are not saved and
// the history operations report the feature as unavailable.
func WithHistoryStore(store HistoryStore) Option {
	return func(s *Service) {
		s.history = store
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithListLimit caps how many history records one request may return.
func WithListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.listLimit = limit
		}
	}
}

func New(calculator Calculator, opts ...Option) *Service {
	s := &Service{
		calculator: calculator,
		logger:     slog.Default(),
		listLimit:  defaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Madhabs describes the four schools in canonical order.
func (s *Service) Madhabs() []fiqh.Config {
	return fiqh.All()
}

// Heirs lists every supported heir category in enumeration order.
func (s *Service) Heirs() []fiqh.Heir {
	return fiqh.AllHeirs()
}
