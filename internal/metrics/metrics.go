// Package metrics exposes prometheus collectors for passes, feeds and runs.
package metrics

import (
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
)

const namespace = "article_signals"

var _ ports.Metrics = (*Recorder)(nil)

// Recorder owns a private registry so tests and multiple engines never
// collide on the default one.
type Recorder struct {
	registry     *prometheus.Registry
	passRecords  *prometheus.CounterVec
	feedFetches  *prometheus.CounterVec
	liveBuffer   prometheus.Gauge
	runDurations *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		passRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pass_records_total",
			Help:      "Records seen by each pass, by outcome (processed, skipped, changed, or a rule counter).",
		}, []string{"pass", "outcome"}),
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_total",
			Help:      "Feed fetch attempts by result (ok, empty, error).",
		}, []string{"feed", "result"}),
		liveBuffer: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_buffer_items",
			Help:      "Items held in the live buffer after the last intake run.",
		}),
		runDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"pipeline"}),
	}
	r.registry.MustRegister(r.passRecords, r.feedFetches, r.liveBuffer, r.runDurations)
	return r
}

// ObservePass adds a pass report to the record counters.
func (r *Recorder) ObservePass(report domain.PassReport) {
	if r == nil {
		return
	}
	r.passRecords.WithLabelValues(report.Pass, "processed").Add(float64(report.Processed))
	r.passRecords.WithLabelValues(report.Pass, "skipped").Add(float64(report.Skipped))
	r.passRecords.WithLabelValues(report.Pass, "changed").Add(float64(report.Changed))

	names := make([]string, 0, len(report.Counters))
	for name := range report.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.passRecords.WithLabelValues(report.Pass, name).Add(float64(report.Counters[name]))
	}
}

// ObserveFeed counts one fetch result.
func (r *Recorder) ObserveFeed(res domain.FeedResult) {
	if r == nil {
		return
	}
	result := "ok"
	switch {
	case res.Err != nil:
		result = "error"
	case len(res.Entries) == 0:
		result = "empty"
	}
	r.feedFetches.WithLabelValues(res.Feed.Name, result).Inc()
}

// SetLiveBuffer records the buffer size.
func (r *Recorder) SetLiveBuffer(n int) {
	if r == nil {
		return
	}
	r.liveBuffer.Set(float64(n))
}

// ObserveRun records how long a pipeline took.
func (r *Recorder) ObserveRun(pipeline string, d time.Duration) {
	if r == nil {
		return
	}
	r.runDurations.WithLabelValues(pipeline).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
