package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	capeCanaveral = Coordinate{Lat: 28.3922, Lon: -80.6077}
	orlando       = Coordinate{Lat: 28.5383, Lon: -81.3792}
	melbourne     = Coordinate{Lat: 28.0836, Lon: -80.6081}
	northPole     = Coordinate{Lat: 90, Lon: 0}
	southPole     = Coordinate{Lat: -90, Lon: 0}
)

func TestHaversineKm_KnownValues(t *testing.T) {
	assert.Equal(t, 0.0, HaversineKm(capeCanaveral, capeCanaveral))
	assert.InDelta(t, 20015.1, HaversineKm(northPole, southPole), 0.1)
	assert.InDelta(t, math.Pi*EarthRadiusKm, HaversineKm(northPole, southPole), 1e-6)

	// One degree of latitude along a meridian.
	assert.InDelta(t, 111.195, HaversineKm(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 1, Lon: 0}), 0.001)
}

func TestHaversineKm_Symmetry(t *testing.T) {
	points := []Coordinate{capeCanaveral, orlando, melbourne, northPole, southPole, {Lat: -33.86, Lon: 151.21}}
	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9, "%s <-> %s", a, b)
		}
	}
}

func TestHaversineKm_ZeroDistance(t *testing.T) {
	for _, p := range []Coordinate{capeCanaveral, northPole, southPole, {Lat: 0, Lon: 180}, {Lat: -12.5, Lon: -179.9}} {
		assert.Equal(t, 0.0, HaversineKm(p, p), "%s", p)
	}
}

func TestHaversineKm_TriangleInequality(t *testing.T) {
	points := []Coordinate{capeCanaveral, orlando, melbourne, northPole, {Lat: 51.5, Lon: -0.12}, {Lat: -33.86, Lon: 151.21}}
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				ac := HaversineKm(a, c)
				abc := HaversineKm(a, b) + HaversineKm(b, c)
				assert.LessOrEqual(t, ac, abc+1e-9, "%s %s %s", a, b, c)
			}
		}
	}
}

func TestHaversineKm_AntipodalNotNaN(t *testing.T) {
	pairs := [][2]Coordinate{
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 180}},
		{{Lat: 0, Lon: -90}, {Lat: 0, Lon: 90}},
		{capeCanaveral, {Lat: -28.3922, Lon: 99.3923}},
	}
	for _, p := range pairs {
		d := HaversineKm(p[0], p[1])
		assert.False(t, math.IsNaN(d))
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, math.Pi*EarthRadiusKm+1e-6)
	}
}

func TestAnnotate(t *testing.T) {
	records := []JoinedRecord{
		{Station: Station{Key: StationKey{"1", "a"}, Location: capeCanaveral}},
		{Station: Station{Key: StationKey{"2", "b"}, Location: orlando}},
	}

	annotated := Annotate(capeCanaveral, records)

	assert.Len(t, annotated, 2)
	assert.Equal(t, 0.0, annotated[0].DistanceKm)
	assert.InDelta(t, 77.15, annotated[1].DistanceKm, 0.01)
	assert.Equal(t, records[1], annotated[1].JoinedRecord)
}

func TestWithinRadius(t *testing.T) {
	records := []AnnotatedRecord{
		{DistanceKm: 10},
		{DistanceKm: 100},
		{DistanceKm: 100.0001},
		{DistanceKm: 150},
		{DistanceKm: 0},
	}

	kept := WithinRadius(records, 100)

	assert.Len(t, kept, 3)
	assert.Equal(t, 10.0, kept[0].DistanceKm)
	assert.Equal(t, 100.0, kept[1].DistanceKm, "boundary is inclusive")
	assert.Equal(t, 0.0, kept[2].DistanceKm)
	assert.Len(t, records, 5, "input untouched")
}

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		want bool
	}{
		{"target", capeCanaveral, true},
		{"poles", northPole, true},
		{"dateline", Coordinate{Lat: 0, Lon: -180}, true},
		{"lat too high", Coordinate{Lat: 90.1, Lon: 0}, false},
		{"lon too low", Coordinate{Lat: 0, Lon: -180.5}, false},
		{"nan", Coordinate{Lat: math.NaN(), Lon: 0}, false},
		{"inf", Coordinate{Lat: 0, Lon: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Valid())
		})
	}
}

func TestDestination_RoundTrip(t *testing.T) {
	for _, bearing := range []float64{0, 45, 90, 135, 180, 225, 270, 315} {
		for _, km := range []float64{1, 10, 99.5, 250} {
			p := Destination(capeCanaveral, bearing, km)
			assert.True(t, p.Valid())
			assert.InDelta(t, km, HaversineKm(capeCanaveral, p), 1e-6, "bearing %v km %v", bearing, km)
		}
	}
}

func TestDestination_DueNorth(t *testing.T) {
	p := Destination(capeCanaveral, 0, 111.19492664455873)
	assert.InDelta(t, capeCanaveral.Lat+1, p.Lat, 1e-9)
	assert.InDelta(t, capeCanaveral.Lon, p.Lon, 1e-9)
}

func TestDestination_WrapsDateline(t *testing.T) {
	p := Destination(Coordinate{Lat: 0, Lon: 179.9}, 90, 50)
	assert.True(t, p.Valid())
	assert.Less(t, p.Lon, 0.0)
}
