// Package domain models weather-station observations and the spatial
// interpolation used to estimate a temperature at a point nobody measured.
//
// # Data Source
//
// Station metadata and daily observations come from two CSV tables. The station
// table carries a header row; the observation table does not and its columns are
// assigned positionally:
//
//	stations:      station_id, wban_id, latitude, longitude, ...
//	observations:  station_id, wban_id, month, day, temperature
//
// Stations are identified by the composite key (station_id, wban_id). The same
// key appears in both tables and is the only join condition.
//
// # Units
//
//	Coordinates:  decimal degrees, WGS-84, latitude in [-90, 90], longitude in [-180, 180]
//	Distance:     kilometres along a sphere of radius 6371.0 km
//	Temperature:  degrees Fahrenheit, passed through at source precision
//
// # Interpolation
//
// Each station within the configured radius contributes with weight 1/d, where d
// is its great-circle distance to the target:
//
//	estimate = Σ(value_i / d_i) / Σ(1 / d_i)
//
// The numerator and denominator are accumulated separately (see [Accumulator]) so
// partial sums over disjoint record sets can be merged without changing the
// result beyond floating-point rounding.
//
// A station at distance 0 has no finite weight. [ZeroDistanceExact] returns the
// coincident reading as the estimate; [ZeroDistanceReject] fails with
// [ErrCoincidentStation].
package domain
