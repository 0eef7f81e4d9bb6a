package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoSamples is returned when there is nothing to aggregate.
	ErrNoSamples = errors.New("no samples to aggregate")

	// ErrInvalidDistance marks a sample whose distance or value is unusable.
	ErrInvalidDistance = errors.New("invalid sample")

	// ErrCoincidentStation is returned under ZeroDistanceReject when a station
	// sits exactly on the target.
	ErrCoincidentStation = errors.New("station coincides with target")
)

// ZeroDistancePolicy selects how a station at distance 0 is treated.
type ZeroDistancePolicy string

const (
	// ZeroDistanceExact uses the coincident station's reading as the estimate.
	ZeroDistanceExact ZeroDistancePolicy = "exact"
	// ZeroDistanceReject treats a coincident station as malformed input.
	ZeroDistanceReject ZeroDistancePolicy = "reject"
)

// ParseZeroDistancePolicy maps a configuration string to a policy.
func ParseZeroDistancePolicy(s string) (ZeroDistancePolicy, error) {
	switch p := ZeroDistancePolicy(s); p {
	case ZeroDistanceExact, ZeroDistanceReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown zero distance policy %q", s)
	}
}

// Sample is a (distance, value) pair entering the weighted mean.
type Sample struct {
	DistanceKm float64
	Value      float64
}

// Result is the outcome of an IDW reduction.
type Result struct {
	Value     float64
	Count     int
	NearestKm float64
	Exact     bool
}

// Accumulator holds the running numerator Σ(v/d) and denominator Σ(1/d).
// The zero value is ready to use.
type Accumulator struct {
	weightedSum float64
	weightSum   float64
	count       int
}

// Add folds one sample into the sums. Distance must be finite and positive.
func (a *Accumulator) Add(s Sample) {
	w := 1 / s.DistanceKm
	a.weightedSum += w * s.Value
	a.weightSum += w
	a.count++
}

// Merge folds another accumulator's partial sums into a.
func (a *Accumulator) Merge(other Accumulator) {
	a.weightedSum += other.weightedSum
	a.weightSum += other.weightSum
	a.count += other.count
}

// Count returns how many samples have been added.
func (a *Accumulator) Count() int {
	return a.count
}

// Value returns the weighted mean, or ErrNoSamples when empty. Sums that
// overflowed yield ErrInvalidDistance rather than a NaN or infinite mean.
func (a *Accumulator) Value() (float64, error) {
	if a.count == 0 || a.weightSum == 0 {
		return 0, ErrNoSamples
	}
	v := a.weightedSum / a.weightSum
	if !finite(v) || !finite(a.weightSum) {
		return 0, fmt.Errorf("%w: weighted mean of %d samples is not finite", ErrInvalidDistance, a.count)
	}
	return v, nil
}

// IDW reduces samples to an inverse-distance-weighted mean with weight 1/d.
// Distances of exactly 0 are resolved by policy; any other invalid sample fails
// the whole reduction.
func IDW(samples []Sample, policy ZeroDistancePolicy) (Result, error) {
	if len(samples) == 0 {
		return Result{}, ErrNoSamples
	}

	var (
		acc      Accumulator
		exactSum float64
		exactN   int
	)
	nearest := math.Inf(1)

	for i, s := range samples {
		if err := checkSample(s); err != nil {
			return Result{}, fmt.Errorf("sample %d: %w", i, err)
		}
		nearest = math.Min(nearest, s.DistanceKm)
		if s.DistanceKm == 0 {
			if policy == ZeroDistanceReject {
				return Result{}, fmt.Errorf("sample %d: %w", i, ErrCoincidentStation)
			}
			exactSum += s.Value
			exactN++
			continue
		}
		acc.Add(s)
	}

	if exactN > 0 {
		mean := exactSum / float64(exactN)
		if !finite(mean) {
			return Result{}, fmt.Errorf("%w: mean of %d coincident values is not finite", ErrInvalidDistance, exactN)
		}
		return Result{
			Value:     mean,
			Count:     exactN,
			NearestKm: 0,
			Exact:     true,
		}, nil
	}

	v, err := acc.Value()
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v, Count: acc.Count(), NearestKm: nearest}, nil
}

func checkSample(s Sample) error {
	d := s.DistanceKm
	if !finite(d) || d < 0 {
		return fmt.Errorf("%w: distance %v", ErrInvalidDistance, d)
	}
	// Subnormal distances overflow the 1/d weight.
	if d > 0 && !finite(1/d) {
		return fmt.Errorf("%w: distance %v too small to weight", ErrInvalidDistance, d)
	}
	if !finite(s.Value) {
		return fmt.Errorf("%w: value %v", ErrInvalidDistance, s.Value)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
