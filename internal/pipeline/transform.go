package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/station-idw/internal/domain"
)

// Estimate annotates records with their distance to the query target, keeps
// those within the radius, and reduces them with inverse distance weighting.
// It returns the number of records inside the radius alongside the estimate.
// Errors are *domain.StageError tagged filter or aggregate.
func Estimate(records []domain.JoinedRecord, q domain.Query, logger *slog.Logger) (domain.Estimate, int, error) {
	annotated := domain.Annotate(q.Target, records)
	inRadius := domain.WithinRadius(annotated, q.RadiusKm)

	logger.Debug("radius filter applied",
		"candidates", len(annotated),
		"in_radius", len(inRadius),
		"radius_km", q.RadiusKm,
	)

	if len(inRadius) == 0 {
		return domain.Estimate{}, 0, &domain.StageError{Stage: domain.StageFilter, Err: domain.ErrNoStationsInRange}
	}

	samples := make([]domain.Sample, len(inRadius))
	for i, r := range inRadius {
		samples[i] = r.Sample()
	}

	result, err := domain.IDW(samples, q.ZeroDistance)
	if err != nil {
		if errors.Is(err, domain.ErrCoincidentStation) {
			err = fmt.Errorf("%w (zero distance policy %q)", err, q.ZeroDistance)
		}
		return domain.Estimate{}, len(inRadius), &domain.StageError{Stage: domain.StageAggregate, Err: err}
	}
	if result.Exact {
		logger.Info("station coincides with target, using its reading", "stations", result.Count)
	}

	return domain.Estimate{
		TargetName:   q.TargetName,
		Target:       q.Target,
		Month:        q.Month,
		Day:          q.Day,
		Year:         q.Year,
		RadiusKm:     q.RadiusKm,
		ValueF:       result.Value,
		StationsUsed: result.Count,
		NearestKm:    result.NearestKm,
		Exact:        result.Exact,
		ComputedAt:   domain.Now(),
	}, len(inRadius), nil
}
