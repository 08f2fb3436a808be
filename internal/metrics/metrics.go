// Package metrics collects per-run counters and hands them to a
// node-exporter textfile or a Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Alert stages counted by samesky_alerts_total.
const (
	StageLoaded    = "loaded"
	StageRetracted = "retracted"
	StageInRange   = "in_range"
	StageExcluded  = "excluded"
	StageMatched   = "matched"
)

// Recorder owns a private registry. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	alerts         *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	matches        prometheus.Counter
	obslogRequests *prometheus.CounterVec
	duration       prometheus.Gauge
}

// NewRecorder creates and registers the run metrics.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	r.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "samesky",
		Name:      "alerts_total",
		Help:      "FRB alerts seen at each pipeline stage",
	}, []string{"stage"})
	r.skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "samesky",
		Name:      "alerts_skipped_total",
		Help:      "Alerts skipped because their observation log was unusable",
	}, []string{"reason"})
	r.matches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "samesky",
		Name:      "matches_total",
		Help:      "Coincident ZTF observations found",
	})
	r.obslogRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "samesky",
		Name:      "obslog_requests_total",
		Help:      "Observation log backend lookups by result status, memoized dates excluded",
	}, []string{"status"})
	r.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "samesky",
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last cross-match run",
	})

	r.registry.MustRegister(r.alerts, r.skipped, r.matches, r.obslogRequests, r.duration)
	return r
}

// Alerts adds n alerts to a stage.
func (r *Recorder) Alerts(stage string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.alerts.WithLabelValues(stage).Add(float64(n))
}

// Skipped counts one skipped alert.
func (r *Recorder) Skipped(reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(reason).Inc()
}

// Matches adds n match rows.
func (r *Recorder) Matches(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.matches.Add(float64(n))
}

// ObslogRequest counts one observation log lookup.
func (r *Recorder) ObslogRequest(status string) {
	if r == nil {
		return
	}
	r.obslogRequests.WithLabelValues(status).Inc()
}

// ObserveDuration sets the run duration.
func (r *Recorder) ObserveDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.duration.Set(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push replaces the job's metrics on a Pushgateway.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if r == nil || url == "" {
		return nil
	}
	if job == "" {
		job = "samesky"
	}
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
