// Command estimate interpolates the temperature at a target point on a given
// date from nearby weather stations using inverse distance weighting.
//
// Settings come from the environment (see internal/config); flags override them.
//
// Usage:
//
//	go run ./cmd/estimate \
//	  -stations data/stations.csv \
//	  -observations data/1986.csv \
//	  -radius 100
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/station-idw/internal/adapter/gota"
	kafkaadapter "github.com/couchcryptid/station-idw/internal/adapter/kafka"
	"github.com/couchcryptid/station-idw/internal/adapter/mapbox"
	"github.com/couchcryptid/station-idw/internal/config"
	"github.com/couchcryptid/station-idw/internal/domain"
	"github.com/couchcryptid/station-idw/internal/observability"
	"github.com/couchcryptid/station-idw/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "estimate failed: config: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, args, stderr); err != nil {
		fmt.Fprintf(stderr, "estimate failed: config: %v\n", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("metrics export failed", "error", err)
		}
	}()

	target := domain.Coordinate{Lat: cfg.TargetLat, Lon: cfg.TargetLon}
	if cfg.MapboxEnabled && !cfg.TargetExplicit {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		configured := target
		target, err = domain.ResolveTarget(ctx, client, cfg.TargetName, cfg.TargetState, logger)
		if err != nil {
			metrics.RunFailures.WithLabelValues(domain.StageTarget).Inc()
			fmt.Fprintf(stderr, "estimate failed: %v\n", err)
			return 1
		}
		logger.Warn("target position replaced by geocoding",
			"target", cfg.TargetName,
			"position", target.String(),
			"configured", configured.String(),
		)
	} else {
		logger.Info("using configured target position", "target", cfg.TargetName, "position", target.String())
	}

	policy, err := domain.ParseZeroDistancePolicy(cfg.ZeroDistancePolicy)
	if err != nil {
		fmt.Fprintf(stderr, "estimate failed: config: %v\n", err)
		return 1
	}

	var publisher pipeline.Publisher
	if cfg.PublishEnabled() {
		publisher = kafkaadapter.NewWriter(cfg, logger)
		logger.Info("publishing estimates", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	source := gota.NewSource(cfg.StationsPath, cfg.ObservationsPath, logger)
	session := pipeline.NewSession(source, publisher, logger, metrics)
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("session close error", "error", err)
		}
	}()

	estimate, err := session.Run(ctx, domain.Query{
		TargetName:   cfg.TargetName,
		Target:       target,
		Month:        cfg.TargetMonth,
		Day:          cfg.TargetDay,
		Year:         cfg.TargetYear,
		RadiusKm:     cfg.RadiusKm,
		ZeroDistance: policy,
	})
	if err != nil {
		fmt.Fprintf(stderr, "estimate failed: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, domain.FormatEstimate(estimate))
	return 0
}

// applyFlags overrides cfg with any flags present in args and revalidates.
func applyFlags(cfg *config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.StationsPath, "stations", cfg.StationsPath, "path to the stations CSV (with header)")
	fs.StringVar(&cfg.ObservationsPath, "observations", cfg.ObservationsPath, "path to the observations CSV (no header)")
	fs.StringVar(&cfg.TargetName, "target", cfg.TargetName, "display name of the target point")
	fs.StringVar(&cfg.TargetState, "state", cfg.TargetState, "state used when geocoding the target")
	fs.Float64Var(&cfg.TargetLat, "lat", cfg.TargetLat, "target latitude in degrees")
	fs.Float64Var(&cfg.TargetLon, "lon", cfg.TargetLon, "target longitude in degrees")
	fs.IntVar(&cfg.TargetMonth, "month", cfg.TargetMonth, "target month (1-12)")
	fs.IntVar(&cfg.TargetDay, "day", cfg.TargetDay, "target day of month")
	fs.IntVar(&cfg.TargetYear, "year", cfg.TargetYear, "target year, used for display")
	fs.Float64Var(&cfg.RadiusKm, "radius", cfg.RadiusKm, "search radius in kilometers (inclusive)")
	fs.StringVar(&cfg.ZeroDistancePolicy, "zero-distance", cfg.ZeroDistancePolicy, "zero-distance policy: exact or reject")
	fs.BoolVar(&cfg.MapboxEnabled, "geocode", cfg.MapboxEnabled, "resolve the target position with Mapbox unless -lat/-lon are given")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this file after the run")

	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "lat" || f.Name == "lon" {
			cfg.TargetExplicit = true
		}
	})
	return cfg.Validate()
}
