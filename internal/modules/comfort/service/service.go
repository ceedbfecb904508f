package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/repository"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

// DefaultLatestWindow is the lookback used when none is configured.
const DefaultLatestWindow = 7 * 24 * time.Hour

// ErrUnavailable wraps every store failure. Callers map it to a
// service-unavailable response and never see partial results.
var ErrUnavailable = errors.New("comfort data unavailable")

const (
	opListStations  = "list_stations"
	opQueryReadings = "query_readings"
	opQueryLatest   = "query_latest"
)

type Service struct {
	repository   repository.ComfortRepository
	clock        clockwork.Clock
	metrics      *observability.Metrics
	latestWindow time.Duration
}

type Option func(*Service)

// WithClock replaces the real clock used as the default latest reference.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLatestWindow sets the default lookback for QueryLatestPerStation.
func WithLatestWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.latestWindow = d
		}
	}
}

func NewService(repo repository.ComfortRepository, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		repository:   repo,
		clock:        clockwork.NewRealClock(),
		metrics:      metrics,
		latestWindow: DefaultLatestWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListStations returns every station ordered by name.
func (s *Service) ListStations(ctx context.Context) ([]domain.Station, error) {
	start := s.clock.Now()
	stations, err := s.repository.ListStations(ctx)
	if err = s.observe(ctx, opListStations, start, err); err != nil {
		return nil, err
	}
	return stations, nil
}

// QueryReadings returns readings matching filter ordered by recorded_at.
func (s *Service) QueryReadings(ctx context.Context, filter domain.ReadingsFilter) ([]domain.RawReading, error) {
	start := s.clock.Now()
	readings, err := s.repository.QueryReadings(ctx, filter)
	if err = s.observe(ctx, opQueryReadings, start, err,
		"station_id", filter.StationID,
		"station", filter.StationName,
		"start", filter.Start,
		"end", filter.End,
	); err != nil {
		return nil, err
	}
	return readings, nil
}

// QueryLatestPerStation returns, for each station with a reading inside the
// window, the reading closest to ref. A zero ref means now and a zero window
// means the configured default.
func (s *Service) QueryLatestPerStation(ctx context.Context, ref time.Time, window time.Duration) ([]domain.RawReading, error) {
	start := s.clock.Now()
	if ref.IsZero() {
		ref = start
	}
	if window <= 0 {
		window = s.latestWindow
	}
	readings, err := s.repository.QueryLatest(ctx, ref, ref.Add(-window))
	if err = s.observe(ctx, opQueryLatest, start, err, "ref", ref, "window", window); err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error, attrs ...any) error {
	s.metrics.QueryDuration.WithLabelValues(op).Observe(s.clock.Since(start).Seconds())
	if err == nil {
		return nil
	}
	s.metrics.QueryFailures.WithLabelValues(op).Inc()
	slog.ErrorContext(ctx, "comfort query failed", append([]any{"operation", op, "error", err}, attrs...)...)
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
