package domain

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b in kilometres.
// Coordinates are not validated; callers filter invalid ones upstream.
func HaversineKm(a, b Coordinate) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat) - radians(a.Lat)
	dLambda := radians(b.Lon) - radians(a.Lon)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push h a hair outside [0,1] near antipodes, which would make
	// sqrt(1-h) NaN.
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Annotate computes each record's distance to target. The input is not modified.
func Annotate(target Coordinate, records []JoinedRecord) []AnnotatedRecord {
	out := make([]AnnotatedRecord, len(records))
	for i, r := range records {
		out[i] = AnnotatedRecord{
			JoinedRecord: r,
			DistanceKm:   HaversineKm(target, r.Station.Location),
		}
	}
	return out
}

// WithinRadius keeps records whose distance is at most radiusKm, preserving order.
func WithinRadius(records []AnnotatedRecord, radiusKm float64) []AnnotatedRecord {
	out := make([]AnnotatedRecord, 0, len(records))
	for _, r := range records {
		if r.DistanceKm <= radiusKm {
			out = append(out, r)
		}
	}
	return out
}

// Destination returns the point reached by travelling km along a great circle
// from origin at the initial bearing (degrees clockwise from north).
func Destination(origin Coordinate, bearingDeg, km float64) Coordinate {
	delta := km / EarthRadiusKm
	theta := radians(bearingDeg)
	phi1 := radians(origin.Lat)
	lambda1 := radians(origin.Lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	lon := math.Mod(degrees(lambda2)+540, 360) - 180
	return Coordinate{Lat: degrees(phi2), Lon: lon}
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
