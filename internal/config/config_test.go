package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/stations.csv", cfg.StationsPath)
	assert.Equal(t, "data/1986.csv", cfg.ObservationsPath)
	assert.Equal(t, "Cape Canaveral", cfg.TargetName)
	assert.Equal(t, "FL", cfg.TargetState)
	assert.InDelta(t, 28.3922, cfg.TargetLat, 0)
	assert.InDelta(t, -80.6077, cfg.TargetLon, 0)
	assert.False(t, cfg.TargetExplicit)
	assert.Equal(t, 1, cfg.TargetMonth)
	assert.Equal(t, 28, cfg.TargetDay)
	assert.Equal(t, 1986, cfg.TargetYear)
	assert.InDelta(t, 100.0, cfg.RadiusKm, 0)
	assert.Equal(t, "exact", cfg.ZeroDistancePolicy)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsFile)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "temperature-estimates", cfg.KafkaTopic)
	assert.Equal(t, 10*time.Second, cfg.PublishTimeout)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("STATIONS_PATH", "/data/isd-history.csv")
	t.Setenv("OBSERVATIONS_PATH", "/data/gsod-1986.csv")
	t.Setenv("TARGET_NAME", "Kennedy Space Center")
	t.Setenv("TARGET_LAT", "28.5721")
	t.Setenv("TARGET_LON", "-80.6480")
	t.Setenv("TARGET_MONTH", "2")
	t.Setenv("TARGET_DAY", "1")
	t.Setenv("TARGET_YEAR", "2003")
	t.Setenv("RADIUS_KM", "250.5")
	t.Setenv("ZERO_DISTANCE_POLICY", "reject")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_FILE", "/var/lib/node_exporter/station_idw.prom")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "estimates")
	t.Setenv("PUBLISH_TIMEOUT", "3s")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "true")
	t.Setenv("MAPBOX_TIMEOUT", "10s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/isd-history.csv", cfg.StationsPath)
	assert.Equal(t, "/data/gsod-1986.csv", cfg.ObservationsPath)
	assert.Equal(t, "Kennedy Space Center", cfg.TargetName)
	assert.InDelta(t, 28.5721, cfg.TargetLat, 0)
	assert.InDelta(t, -80.6480, cfg.TargetLon, 0)
	assert.True(t, cfg.TargetExplicit)
	assert.Equal(t, 2, cfg.TargetMonth)
	assert.Equal(t, 1, cfg.TargetDay)
	assert.Equal(t, 2003, cfg.TargetYear)
	assert.InDelta(t, 250.5, cfg.RadiusKm, 0)
	assert.Equal(t, "reject", cfg.ZeroDistancePolicy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/lib/node_exporter/station_idw.prom", cfg.MetricsFile)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "estimates", cfg.KafkaTopic)
	assert.Equal(t, 3*time.Second, cfg.PublishTimeout)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TARGET_LAT", "north"},
		{"TARGET_LAT", "91"},
		{"TARGET_LON", "-181"},
		{"TARGET_MONTH", "13"},
		{"TARGET_MONTH", "jan"},
		{"TARGET_DAY", "0"},
		{"RADIUS_KM", "-5"},
		{"ZERO_DISTANCE_POLICY", "nearest"},
		{"PUBLISH_TIMEOUT", "soon"},
		{"MAPBOX_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_TargetLatAloneIsExplicit(t *testing.T) {
	t.Setenv("TARGET_LAT", "28.40")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TargetExplicit)
	assert.InDelta(t, -80.6077, cfg.TargetLon, 0)
}

func TestLoad_ZeroRadiusAllowed(t *testing.T) {
	t.Setenv("RADIUS_KM", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cfg.RadiusKm, 0)
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenAloneDoesNotGeocode(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestValidate_AfterOverride(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.StationsPath = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATIONS_PATH")
}
