// Package metrics exposes Prometheus instrumentation for the spawner.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
)

// Stage names used as the "stage" label.
const (
	StageResolve  = "resolve"
	StageLiveness = "liveness"
	StageGenerate = "generate"
	StagePersist  = "persist"
	StageImport   = "import"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeAccepted  = "accepted"
	OutcomeInvalid   = "invalid"
	OutcomeBusy      = "busy"
	OutcomeThrottled = "throttled"
	OutcomeNotReady  = "not_ready"
)

// Collector holds the registered metrics.
type Collector struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
	bytesTotal    prometheus.Counter
	submissions   *prometheus.CounterVec
	placements    prometheus.Counter
	objects       *prometheus.GaugeVec
}

// New creates a collector on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "orbitforge",
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each acquisition stage",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage", "result"},
		),
		stageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orbitforge",
				Name:      "stage_total",
				Help:      "Acquisition stages run, by result",
			},
			[]string{"stage", "result"},
		),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orbitforge",
			Name:      "model_bytes_total",
			Help:      "Model bytes downloaded",
		}),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orbitforge",
				Name:      "submissions_total",
				Help:      "Prompt submissions, by outcome",
			},
			[]string{"outcome"},
		),
		placements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orbitforge",
			Name:      "placements_total",
			Help:      "Models placed into the scene",
		}),
		objects: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "orbitforge",
				Name:      "orbit_objects",
				Help:      "Live orbiting objects, by state",
			},
			[]string{"state"},
		),
	}

	c.registry.MustRegister(
		c.stageDuration,
		c.stageTotal,
		c.bytesTotal,
		c.submissions,
		c.placements,
		c.objects,
	)
	return c
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveStage records one run of stage that took d and ended with err.
func (c *Collector) ObserveStage(stage string, d time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.stageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
	c.stageTotal.WithLabelValues(stage, result).Inc()
}

// AddBytes counts downloaded model bytes.
func (c *Collector) AddBytes(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.bytesTotal.Add(float64(n))
}

// Submission counts one prompt submission.
func (c *Collector) Submission(outcome string) {
	if c == nil {
		return
	}
	c.submissions.WithLabelValues(outcome).Inc()
}

// Placed counts one placed model.
func (c *Collector) Placed() {
	if c == nil {
		return
	}
	c.placements.Inc()
}

// SetObjects replaces the per-state object gauges.
func (c *Collector) SetObjects(byState map[string]int) {
	if c == nil {
		return
	}
	c.objects.Reset()
	for state, n := range byState {
		c.objects.WithLabelValues(state).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
