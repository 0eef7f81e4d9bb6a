package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds all run settings, populated from environment variables.
type Config struct {
	StationsPath     string `validate:"required"`
	ObservationsPath string `validate:"required"`

	// Target point and date.
	TargetName  string  `validate:"required"`
	TargetState string
	TargetLat   float64 `validate:"gte=-90,lte=90"`
	TargetLon   float64 `validate:"gte=-180,lte=180"`
	// TargetExplicit is true when TARGET_LAT/TARGET_LON were set, which
	// disables geocoding of TargetName.
	TargetExplicit bool
	TargetMonth    int `validate:"min=1,max=12"`
	TargetDay      int `validate:"min=1,max=31"`
	TargetYear     int `validate:"min=1"`

	RadiusKm           float64 `validate:"gte=0"`
	ZeroDistancePolicy string  `validate:"oneof=exact reject"`

	LogLevel    string
	LogFormat   string
	MetricsFile string

	// Estimate sink. Publishing is off when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaTopic     string
	PublishTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first if present; it never
// overrides variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	lat, latSet, err := parseFloatEnv("TARGET_LAT", 28.3922)
	if err != nil {
		return nil, err
	}
	lon, lonSet, err := parseFloatEnv("TARGET_LON", -80.6077)
	if err != nil {
		return nil, err
	}
	radius, _, err := parseFloatEnv("RADIUS_KM", 100)
	if err != nil {
		return nil, err
	}
	month, err := parseIntEnv("TARGET_MONTH", 1)
	if err != nil {
		return nil, err
	}
	day, err := parseIntEnv("TARGET_DAY", 28)
	if err != nil {
		return nil, err
	}
	year, err := parseIntEnv("TARGET_YEAR", 1986)
	if err != nil {
		return nil, err
	}
	publishTimeout, err := parseDurationEnv("PUBLISH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDurationEnv("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	// A token alone does not enable geocoding.
	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := os.Getenv("MAPBOX_ENABLED") == "true"

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		StationsPath:       sharedcfg.EnvOrDefault("STATIONS_PATH", "data/stations.csv"),
		ObservationsPath:   sharedcfg.EnvOrDefault("OBSERVATIONS_PATH", "data/1986.csv"),
		TargetName:         sharedcfg.EnvOrDefault("TARGET_NAME", "Cape Canaveral"),
		TargetState:        sharedcfg.EnvOrDefault("TARGET_STATE", "FL"),
		TargetLat:          lat,
		TargetLon:          lon,
		TargetExplicit:     latSet || lonSet,
		TargetMonth:        month,
		TargetDay:          day,
		TargetYear:         year,
		RadiusKm:           radius,
		ZeroDistancePolicy: sharedcfg.EnvOrDefault("ZERO_DISTANCE_POLICY", "exact"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsFile:        os.Getenv("METRICS_FILE"),
		KafkaBrokers:       brokers,
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "temperature-estimates"),
		PublishTimeout:     publishTimeout,

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field requirements. Callers that
// override fields after Load (command-line flags) should call it again.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: %q fails %s", envName(verrs[0].Field()), fmt.Sprint(verrs[0].Value()), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// PublishEnabled reports whether estimates should be written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

var envNames = map[string]string{
	"StationsPath":       "STATIONS_PATH",
	"ObservationsPath":   "OBSERVATIONS_PATH",
	"TargetName":         "TARGET_NAME",
	"TargetLat":          "TARGET_LAT",
	"TargetLon":          "TARGET_LON",
	"TargetMonth":        "TARGET_MONTH",
	"TargetDay":          "TARGET_DAY",
	"TargetYear":         "TARGET_YEAR",
	"RadiusKm":           "RADIUS_KM",
	"ZeroDistancePolicy": "ZERO_DISTANCE_POLICY",
}

func envName(field string) string {
	if n, ok := envNames[field]; ok {
		return n
	}
	return field
}

func parseFloatEnv(key string, def float64) (float64, bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, true, nil
}

func parseIntEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
