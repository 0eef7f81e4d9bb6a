package gota

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/station-idw/internal/domain"
)

// Source reads the two CSV tables from disk and produces joined records.
// It implements pipeline.RecordSource.
type Source struct {
	stationsPath     string
	observationsPath string
	logger           *slog.Logger
}

// NewSource creates a Source over the given station and observation files.
func NewSource(stationsPath, observationsPath string, logger *slog.Logger) *Source {
	return &Source{
		stationsPath:     stationsPath,
		observationsPath: observationsPath,
		logger:           logger,
	}
}

// JoinedRecords loads both tables, narrows observations to month/day, joins
// them to stations, and decodes the result.
// Failures are returned as *domain.StageError tagged load or join.
func (s *Source) JoinedRecords(ctx context.Context, month, day int) ([]domain.JoinedRecord, domain.LoadReport, error) {
	var report domain.LoadReport
	if err := ctx.Err(); err != nil {
		return nil, report, &domain.StageError{Stage: domain.StageLoad, Err: err}
	}

	stations, err := readFile(s.stationsPath, LoadStations)
	if err != nil {
		return nil, report, &domain.StageError{Stage: domain.StageLoad, Err: err}
	}
	observations, err := readFile(s.observationsPath, LoadObservations)
	if err != nil {
		return nil, report, &domain.StageError{Stage: domain.StageLoad, Err: err}
	}
	s.logger.Info("tables loaded",
		"stations", stations.Nrow(),
		"observations", observations.Nrow(),
	)

	dated, filtered, err := FilterDate(observations, month, day)
	filtered.Stations = stations.Nrow()
	filtered.Observations = observations.Nrow()
	if err != nil {
		return nil, filtered, &domain.StageError{Stage: domain.StageLoad, Err: err}
	}
	s.logger.Info("observations filtered to target date",
		"month", month,
		"day", day,
		"kept", dated.Nrow(),
		"date_mismatch", filtered.DateMismatch,
		"missing_temperature", filtered.MissingTemperature,
	)
	if dated.Nrow() == 0 {
		return nil, filtered, nil
	}

	joined, err := Join(stations, dated)
	if err != nil {
		return nil, filtered, &domain.StageError{Stage: domain.StageJoin, Err: err}
	}

	records, report, err := Decode(joined, month, day)
	report.Stations = filtered.Stations
	report.Observations = filtered.Observations
	report.DateMismatch += filtered.DateMismatch
	report.MissingTemperature += filtered.MissingTemperature
	if err != nil {
		return nil, report, &domain.StageError{Stage: domain.StageJoin, Err: err}
	}
	return records, report, nil
}

func readFile(path string, load func(io.Reader) (dataframe.DataFrame, error)) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	df, err := load(f)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}
