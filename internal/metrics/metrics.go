package metrics

// Prometheus metrics for loads, analyses and weather lookups

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tturner/g5trace/internal/message"
)

const namespace = "g5trace"

// Registry holds the g5trace collectors on a private Prometheus registry.
// It implements collection.Observer and weather.Observer.
type Registry struct {
	reg *prometheus.Registry

	recordsLoaded    *prometheus.CounterVec
	recordsSkipped   prometheus.Counter
	invalidTimes     prometheus.Counter
	loadDuration     prometheus.Histogram
	analysisDuration *prometheus.HistogramVec
	analysisResults  *prometheus.GaugeVec
	weatherLookups   *prometheus.CounterVec
}

// NewRegistry creates and registers every collector.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		recordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Decoded records classified and kept, by message kind.",
		}, []string{"kind"}),
		recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Decoded records skipped as malformed.",
		}),
		invalidTimes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_timestamps_total",
			Help:      "Records kept with an unparsable capture time.",
		}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time to decode and classify one export.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		analysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent in one analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"analysis"}),
		analysisResults: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analysis_results",
			Help:      "Number of results produced by the last run of an analysis.",
		}, []string{"analysis"}),
		weatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_lookups_total",
			Help:      "Weather lookups by outcome.",
		}, []string{"outcome"}),
	}
	r.reg.MustRegister(
		r.recordsLoaded,
		r.recordsSkipped,
		r.invalidTimes,
		r.loadDuration,
		r.analysisDuration,
		r.analysisResults,
		r.weatherLookups,
	)
	return r
}

// Gatherer exposes the registry for export.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// RecordLoaded counts a kept record.
func (r *Registry) RecordLoaded(kind message.Kind) {
	r.recordsLoaded.WithLabelValues(kind.String()).Inc()
}

// RecordSkipped counts a skipped record.
func (r *Registry) RecordSkipped(error) {
	r.recordsSkipped.Inc()
}

// InvalidTimestamp counts a record with an unparsable time.
func (r *Registry) InvalidTimestamp() {
	r.invalidTimes.Inc()
}

// LoadFinished observes the load duration.
func (r *Registry) LoadFinished(elapsed time.Duration) {
	r.loadDuration.Observe(elapsed.Seconds())
}

// WeatherLookup counts a lookup outcome ("ok" or "no_data").
func (r *Registry) WeatherLookup(outcome string) {
	r.weatherLookups.WithLabelValues(outcome).Inc()
}

// ObserveAnalysis records the duration and result count of an analysis.
func (r *Registry) ObserveAnalysis(name string, results int, elapsed time.Duration) {
	r.analysisDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	r.analysisResults.WithLabelValues(name).Set(float64(results))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
