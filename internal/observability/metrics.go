package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "station_idw"

// Metrics holds the Prometheus collectors for one estimation run.
type Metrics struct {
	registry *prometheus.Registry

	RowsLoaded       *prometheus.CounterVec // labels: table={stations,observations,joined}
	RowsExcluded     *prometheus.CounterVec // labels: reason={missing_coordinates,missing_temperature,date_mismatch,out_of_range,outside_radius}
	StationsInRadius prometheus.Gauge
	EstimateValue    prometheus.Gauge
	RunDuration      prometheus.Histogram
	RunFailures      *prometheus.CounterVec // labels: stage
	LastSuccess      prometheus.Gauge

	// Target geocoding.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on a dedicated registry.
// A batch run exports that registry with WriteTextfile instead of serving it.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Rows read per table, including the joined table.",
		}, []string{"table"}),
		RowsExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_excluded_total",
			Help:      "Joined rows dropped before aggregation, by reason.",
		}, []string{"reason"}),
		StationsInRadius: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_in_radius",
			Help:      "Records that passed the radius filter in the last run.",
		}),
		EstimateValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "estimate_degrees_fahrenheit",
			Help:      "Last inverse-distance-weighted temperature estimate.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-join-filter-aggregate run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Failed runs by pipeline stage.",
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Target geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Duration of Mapbox geocoding API calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.RowsLoaded,
		m.RowsExcluded,
		m.StationsInRadius,
		m.EstimateValue,
		m.RunDuration,
		m.RunFailures,
		m.LastSuccess,
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
	)

	return m
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format to path,
// for pickup by a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
