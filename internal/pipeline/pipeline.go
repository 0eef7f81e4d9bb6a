package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/station-idw/internal/domain"
	"github.com/couchcryptid/station-idw/internal/observability"
)

// RecordSource loads both tables and returns the joined records for a date.
type RecordSource interface {
	JoinedRecords(ctx context.Context, month, day int) ([]domain.JoinedRecord, domain.LoadReport, error)
}

// Publisher delivers a finished estimate downstream.
type Publisher interface {
	Publish(ctx context.Context, estimate domain.Estimate) error
	Close() error
}

var errSessionClosed = errors.New("session closed")

// Session is the execution context for estimation runs: it owns the source,
// the optional publisher, and the observability handles. Create it with
// NewSession before running and release it with Close afterwards.
type Session struct {
	source    RecordSource
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	newRunID  func() string
	closed    atomic.Bool
}

// NewSession creates a Session. Pass a nil publisher to skip publishing.
func NewSession(source RecordSource, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		source:    source,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		newRunID:  uuid.NewString,
	}
}

// Run executes load, join, filter, and aggregate for q and, when a publisher
// is configured, publishes the result. Every error is a *domain.StageError.
func (s *Session) Run(ctx context.Context, q domain.Query) (domain.Estimate, error) {
	if s.closed.Load() {
		return domain.Estimate{}, &domain.StageError{Stage: domain.StageLoad, Err: errSessionClosed}
	}
	if err := q.Validate(); err != nil {
		return domain.Estimate{}, s.fail(&domain.StageError{Stage: domain.StageTarget, Err: err})
	}

	runID := s.newRunID()
	logger := s.logger.With("run_id", runID)
	start := time.Now()

	logger.Info("run started",
		"target", q.TargetName,
		"lat", q.Target.Lat,
		"lon", q.Target.Lon,
		"month", q.Month,
		"day", q.Day,
		"radius_km", q.RadiusKm,
	)

	records, report, err := s.source.JoinedRecords(ctx, q.Month, q.Day)
	if err != nil {
		var se *domain.StageError
		if !errors.As(err, &se) {
			err = &domain.StageError{Stage: domain.StageLoad, Err: err}
		}
		return domain.Estimate{}, s.fail(err)
	}
	s.recordLoad(logger, report)

	estimate, inRadius, err := Estimate(records, q, logger)
	s.metrics.StationsInRadius.Set(float64(inRadius))
	s.metrics.RowsExcluded.WithLabelValues("outside_radius").Add(float64(len(records) - inRadius))
	if err != nil {
		return domain.Estimate{}, s.fail(err)
	}
	estimate.RunID = runID

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, estimate); err != nil {
			return domain.Estimate{}, s.fail(&domain.StageError{Stage: domain.StagePublish, Err: err})
		}
		logger.Info("estimate published")
	}

	s.metrics.EstimateValue.Set(estimate.ValueF)
	s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	s.metrics.LastSuccess.Set(float64(estimate.ComputedAt.Unix()))

	logger.Info("run complete",
		"estimate_f", estimate.ValueF,
		"stations_used", estimate.StationsUsed,
		"nearest_km", estimate.NearestKm,
		"exact", estimate.Exact,
		"duration", time.Since(start),
	)
	return estimate, nil
}

// Close releases the publisher. A closed session refuses further runs.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.publisher != nil {
		return s.publisher.Close()
	}
	return nil
}

func (s *Session) recordLoad(logger *slog.Logger, report domain.LoadReport) {
	s.metrics.RowsLoaded.WithLabelValues("stations").Add(float64(report.Stations))
	s.metrics.RowsLoaded.WithLabelValues("observations").Add(float64(report.Observations))
	s.metrics.RowsLoaded.WithLabelValues("joined").Add(float64(report.Joined))

	excluded := report.Exclusions()
	for reason, n := range excluded {
		s.metrics.RowsExcluded.WithLabelValues(reason).Add(float64(n))
	}

	logger.Info("records joined",
		"stations", report.Stations,
		"observations", report.Observations,
		"joined", report.Joined,
		"kept", report.Kept,
	)
	if len(excluded) > 0 {
		logger.Info("rows excluded", "reasons", excluded)
	}
	if report.OutOfRange > 0 {
		logger.Warn("stations with out-of-range coordinates skipped", "count", report.OutOfRange)
	}
}

func (s *Session) fail(err error) error {
	stage := domain.StageOf(err)
	s.metrics.RunFailures.WithLabelValues(stage).Inc()
	s.logger.Error("run failed", "stage", stage, "error", err)
	return err
}
