// Package metrics exports the pet's vital signs as Prometheus metrics.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcliao/ram-pet/internal/model"
)

const namespace = "ram_pet"

// Feed outcomes used as the "outcome" label.
const (
	OutcomeFull    = "full"
	OutcomePartial = "partial"
	OutcomeRefused = "refused"
	OutcomeError   = "error"
)

type Metrics struct {
	// CommittedBytes is the current reservoir size.
	CommittedBytes prometheus.Gauge
	// FreeBytes is the last host free-memory reading.
	FreeBytes prometheus.Gauge
	Hunger    prometheus.Gauge
	// Stage is the stage index, Baby = 0.
	Stage prometheus.Gauge
	// FeedsTotal counts feedings by outcome.
	FeedsTotal *prometheus.CounterVec
	// GrantedBytesTotal sums bytes granted by the governor.
	GrantedBytesTotal prometheus.Counter
	// StarvedBytesTotal sums bytes lost to starvation.
	StarvedBytesTotal prometheus.Counter
	// SavesTotal counts record writes by status.
	SavesTotal *prometheus.CounterVec
}

// New registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommittedBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "committed_bytes",
			Help:      "Bytes currently committed by the reservoir",
		}),
		FreeBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_free_bytes",
			Help:      "Host free memory at the last reading",
		}),
		Hunger: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hunger",
			Help:      "Hunger in percent",
		}),
		Stage: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage",
			Help:      "Growth stage index (0 = Baby)",
		}),
		FeedsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feeds_total",
			Help:      "Feedings by outcome",
		}, []string{"outcome"}),
		GrantedBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "granted_bytes_total",
			Help:      "Bytes granted by the safety governor",
		}),
		StarvedBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "starved_bytes_total",
			Help:      "Bytes released by starvation",
		}),
		SavesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Save record writes by status",
		}, []string{"status"}),
	}
}

// Observe copies a snapshot into the gauges.
func (m *Metrics) Observe(s model.Snapshot) {
	if m == nil {
		return
	}
	m.CommittedBytes.Set(float64(s.CommittedBytes))
	m.FreeBytes.Set(float64(s.FreeBytes))
	m.Hunger.Set(s.Hunger)
	m.Stage.Set(float64(s.Stage))
}

// RecordFeed counts one feeding.
func (m *Metrics) RecordFeed(r model.FeedResult, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeFull
	switch {
	case r.Starved:
		outcome = OutcomeRefused
	case r.GrantedBytes == 0 && err != nil:
		outcome = OutcomeError
	case r.Partial():
		outcome = OutcomePartial
	}
	m.FeedsTotal.WithLabelValues(outcome).Inc()
	m.GrantedBytesTotal.Add(float64(r.GrantedBytes))
}

func (m *Metrics) RecordStarvation(bytes uint64) {
	if m == nil || bytes == 0 {
		return
	}
	m.StarvedBytesTotal.Add(float64(bytes))
}

func (m *Metrics) RecordSave(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SavesTotal.WithLabelValues(status).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
