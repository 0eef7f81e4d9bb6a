package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-idw/internal/adapter/gota"
	"github.com/couchcryptid/station-idw/internal/domain"
)

var testLayout = layout{
	target:    domain.Coordinate{Lat: 28.3922, Lon: -80.6077},
	stations:  40,
	extentKm:  200,
	month:     1,
	seed:      1986,
	baseTempF: 55,
}

func TestGenerate_Deterministic(t *testing.T) {
	s1, o1 := generate(testLayout)
	s2, o2 := generate(testLayout)

	assert.Equal(t, s1, s2)
	require.Len(t, o2, len(o1))
	for i := range o1 {
		assert.Equal(t, o1[i].key, o2[i].key)
		assert.Equal(t, math.IsNaN(o1[i].temp), math.IsNaN(o2[i].temp), "same rows missing")
	}
}

func TestGenerate_Layout(t *testing.T) {
	stations, observations := generate(testLayout)

	require.Len(t, stations, 40)
	assert.Len(t, observations, 40*31+2)
	for _, s := range stations {
		assert.LessOrEqual(t, domain.HaversineKm(testLayout.target, s.loc), testLayout.extentKm+1e-6)
	}
	assert.True(t, stations[19].noPosition)
	assert.True(t, stations[39].noPosition)
}

func TestRun_WritesLoadableTables(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer

	require.NoError(t, run([]string{"-out-dir", dir}, &stdout))
	assert.Contains(t, stdout.String(), "wrote 40 stations")
	assert.Contains(t, stdout.String(), "wrote 1242 observations")
	assert.Contains(t, stdout.String(), "sanity estimate: ")

	sf, err := os.Open(filepath.Join(dir, "stations.csv"))
	require.NoError(t, err)
	defer sf.Close()
	stations, err := gota.LoadStations(sf)
	require.NoError(t, err)

	of, err := os.Open(filepath.Join(dir, "observations.csv"))
	require.NoError(t, err)
	defer of.Close()
	observations, err := gota.LoadObservations(of)
	require.NoError(t, err)

	a := gota.AuditTables(stations, observations)
	assert.Empty(t, a.DuplicateStations)
	assert.Empty(t, a.InvalidDates)
	assert.Len(t, a.StationsMissingCoordinates, 2)
	assert.Equal(t, 2, a.OrphanObservations)
	assert.Len(t, a.Coverage, 31)
}

func TestRun_RequiresOutDir(t *testing.T) {
	var stdout bytes.Buffer
	err := run(nil, &stdout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-out-dir")
}
