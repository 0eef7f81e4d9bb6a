package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// StationKey is the composite identifier shared by the station and observation tables.
type StationKey struct {
	StationID string `json:"station_id"`
	WBANID    string `json:"wban_id"`
}

func (k StationKey) String() string {
	return k.StationID + "-" + k.WBANID
}

// Coordinate represents a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Valid reports whether both components are finite and within range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Station is a measurement site with a known position.
type Station struct {
	Key      StationKey `json:"key"`
	Location Coordinate `json:"location"`
}

// Observation is one station's daily temperature reading.
type Observation struct {
	Key         StationKey `json:"key"`
	Month       int        `json:"month"`
	Day         int        `json:"day"`
	Temperature float64    `json:"temperature"` // degrees F
}

// JoinedRecord pairs an observation with the station that produced it.
type JoinedRecord struct {
	Station     Station     `json:"station"`
	Observation Observation `json:"observation"`
}

// AnnotatedRecord is a JoinedRecord with its distance to the query target.
type AnnotatedRecord struct {
	JoinedRecord
	DistanceKm float64 `json:"distance_km"`
}

// Sample returns the (distance, value) pair used for weighting.
func (r AnnotatedRecord) Sample() Sample {
	return Sample{DistanceKm: r.DistanceKm, Value: r.Observation.Temperature}
}

// Query describes a single point-and-date estimation.
type Query struct {
	TargetName   string             `validate:"required"`
	Target       Coordinate
	Month        int                `validate:"min=1,max=12"`
	Day          int                `validate:"min=1,max=31"`
	Year         int                `validate:"min=1"`
	RadiusKm     float64            `validate:"gte=0"`
	ZeroDistance ZeroDistancePolicy `validate:"oneof=exact reject"`
}

// Validate checks the query's ranges and policy.
func (q Query) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	if !q.Target.Valid() {
		return fmt.Errorf("invalid query: target %s out of range", q.Target)
	}
	return nil
}

// Estimate is the terminal output of a run.
type Estimate struct {
	RunID        string     `json:"run_id"`
	TargetName   string     `json:"target_name"`
	Target       Coordinate `json:"target"`
	Month        int        `json:"month"`
	Day          int        `json:"day"`
	Year         int        `json:"year"`
	RadiusKm     float64    `json:"radius_km"`
	ValueF       float64    `json:"value_f"`
	StationsUsed int        `json:"stations_used"`
	NearestKm    float64    `json:"nearest_km"`
	Exact        bool       `json:"exact"` // a station coincided with the target
	ComputedAt   time.Time  `json:"computed_at"`
}
