package domain

import "errors"

// Pipeline stages, used to label failures.
const (
	StageTarget    = "target"
	StageLoad      = "load"
	StageJoin      = "join"
	StageFilter    = "filter"
	StageAggregate = "aggregate"
	StagePublish   = "publish"
)

// ErrNoStationsInRange means nothing survived the join, date, and radius filters.
var ErrNoStationsInRange = errors.New("no stations within radius for given date")

// StageError attributes a failure to the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err, or "" if there is none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// LoadReport counts joined rows and the reasons rows were excluded before
// distance annotation.
type LoadReport struct {
	Stations           int
	Observations       int
	Joined             int
	Kept               int
	MissingCoordinates int
	MissingTemperature int
	DateMismatch       int
	OutOfRange         int
}

// Exclusions returns the non-zero exclusion counts keyed by metric reason label.
func (r LoadReport) Exclusions() map[string]int {
	out := make(map[string]int, 4)
	for reason, n := range map[string]int{
		"missing_coordinates": r.MissingCoordinates,
		"missing_temperature": r.MissingTemperature,
		"date_mismatch":       r.DateMismatch,
		"out_of_range":        r.OutOfRange,
	} {
		if n > 0 {
			out[reason] = n
		}
	}
	return out
}
