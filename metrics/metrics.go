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
)

var (
	QueueTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "introbot_queue_tasks_total",
		Help: "Queued platform operations by name and outcome",
	}, []string{"task", "outcome"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "introbot_queue_depth",
		Help: "Operations waiting in the rate-limited queue",
	})

	QueueBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "introbot_queue_backoff_seconds",
		Help:    "Delay applied after a rate-limited operation",
		Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32, 64},
	})

	ThreadsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "introbot_threads_created_total",
		Help: "Discussion threads started by the bot",
	})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "introbot_reminders_total",
		Help: "Reminder deliveries by outcome",
	}, []string{"outcome"})

	FormsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "introbot_forms_submitted_total",
		Help: "Onboarding forms posted by type",
	}, []string{"form"})

	RolesGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "introbot_roles_granted_total",
		Help: "Completion roles granted",
	})
)

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// NewServer builds a metrics server listening on addr.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
