package export

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// HealthConfig configures the Prometheus health metrics server.
type HealthConfig struct {
	// Addr is the listen address for the health metrics server.
	// Defaults to ":9090".
	Addr string `yaml:"addr"`
}

// HealthMetrics exposes Prometheus metrics about the reporter itself:
// cycle outcomes, rows written per family, rollback activity.
type HealthMetrics struct {
	log      logrus.FieldLogger
	addr     string
	server   *http.Server
	listener net.Listener
	registry *prometheus.Registry

	// ReportCycles counts successfully committed cycles.
	ReportCycles prometheus.Counter

	// ReportErrors counts failed cycles by kind
	// (acquire, write, commit).
	ReportErrors *prometheus.CounterVec

	// RowsWritten counts rows bound per family.
	RowsWritten *prometheus.CounterVec

	// Rollbacks counts rollbacks by mode (full, savepoint).
	Rollbacks *prometheus.CounterVec

	// CycleDuration observes wall time per report cycle.
	CycleDuration prometheus.Histogram

	// LastReportTimestamp is the epoch-seconds timestamp of the last
	// committed cycle.
	LastReportTimestamp prometheus.Gauge

	running atomic.Bool
}

// NewHealthMetrics creates a new health metrics server.
func NewHealthMetrics(
	log logrus.FieldLogger,
	cfg HealthConfig,
) *HealthMetrics {
	reg := prometheus.NewRegistry()

	h := &HealthMetrics{
		log:      log.WithField("component", "health"),
		addr:     cfg.Addr,
		registry: reg,

		ReportCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sqlsink",
			Name:      "report_cycles_total",
			Help:      "Total committed report cycles.",
		}),
		ReportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sqlsink",
				Name:      "report_errors_total",
				Help:      "Total failed report cycles by error kind.",
			},
			[]string{"kind"},
		),
		RowsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sqlsink",
				Name:      "rows_written_total",
				Help:      "Total rows bound into batches by metric family.",
			},
			[]string{"family"},
		),
		Rollbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sqlsink",
				Name:      "rollbacks_total",
				Help:      "Total transaction rollbacks by mode.",
			},
			[]string{"mode"},
		),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sqlsink",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full report cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, // 1ms-5s
		}),
		LastReportTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sqlsink",
			Name:      "last_report_timestamp_seconds",
			Help:      "Epoch timestamp of the last committed cycle.",
		}),
	}

	reg.MustRegister(
		h.ReportCycles,
		h.ReportErrors,
		h.RowsWritten,
		h.Rollbacks,
		h.CycleDuration,
		h.LastReportTimestamp,
	)

	return h
}

// Start begins serving the /metrics endpoint.
func (h *HealthMetrics) Start(_ context.Context) error {
	if h.addr == "" {
		h.addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		h.registry,
		promhttp.HandlerOpts{},
	))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	// pprof endpoints for CPU/memory profiling.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	h.listener = ln

	h.server = &http.Server{
		Handler: mux,
	}

	h.running.Store(true)

	go func() {
		h.log.WithField("addr", ln.Addr().String()).
			Info("Health metrics server started")

		if err := h.server.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			h.log.WithError(err).
				Error("Health metrics server error")
		}

		h.running.Store(false)
	}()

	return nil
}

// Addr returns the actual listener address. Useful when started
// with ":0" to get the OS-assigned port.
func (h *HealthMetrics) Addr() string {
	if h.listener != nil {
		return h.listener.Addr().String()
	}

	return h.addr
}

// Stop gracefully shuts down the health metrics server.
func (h *HealthMetrics) Stop() error {
	if h.server == nil {
		return nil
	}

	return h.server.Close()
}
