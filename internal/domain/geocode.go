package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrTargetNotFound is returned when the geocoder has no usable position for a place.
var ErrTargetNotFound = errors.New("target not found")

// ResolveTarget looks up the coordinate of a named place. A result at (0,0) or
// out of range is treated as not found. Failures are tagged with StageTarget.
func ResolveTarget(ctx context.Context, geocoder Geocoder, name, state string, logger *slog.Logger) (Coordinate, error) {
	result, err := geocoder.ForwardGeocode(ctx, name, state)
	if err != nil {
		return Coordinate{}, &StageError{Stage: StageTarget, Err: fmt.Errorf("geocode %q: %w", name, err)}
	}

	c := result.Coordinate()
	if (c.Lat == 0 && c.Lon == 0) || !c.Valid() {
		return Coordinate{}, &StageError{Stage: StageTarget, Err: fmt.Errorf("geocode %q, %q: %w", name, state, ErrTargetNotFound)}
	}

	logger.Info("target geocoded",
		"name", name,
		"state", state,
		"lat", c.Lat,
		"lon", c.Lon,
		"place", result.FormattedAddress,
		"confidence", result.Confidence,
	)
	return c, nil
}
