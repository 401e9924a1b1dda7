// Package metrics provides Prometheus metrics for the command center.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	commandsTotal      *prometheus.CounterVec
	commandErrorsTotal *prometheus.CounterVec
	channelReconnects  prometheus.Counter
	channelConnected   prometheus.Gauge
	backendRequests    *prometheus.CounterVec
}

var _ ports.Metrics = (*Recorder)(nil)

// New registers the command center metrics on a fresh registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmdcenter_commands_total",
				Help: "Total number of submitted commands",
			},
			[]string{"command", "mode"},
		),
		commandErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmdcenter_command_errors_total",
				Help: "Total number of commands that produced an error",
			},
			[]string{"kind"},
		),
		channelReconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cmdcenter_channel_reconnects_total",
				Help: "Total number of terminal server reconnect attempts",
			},
		),
		channelConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cmdcenter_channel_connected",
				Help: "Whether the terminal server channel is connected (1) or not (0)",
			},
		),
		backendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmdcenter_backend_requests_total",
				Help: "Total number of storage backend requests",
			},
			[]string{"op", "outcome"},
		),
	}
}

// CommandExecuted records one interpreted command.
func (r *Recorder) CommandExecuted(command string, mode domain.Mode) {
	r.commandsTotal.WithLabelValues(command, string(mode)).Inc()
}

// CommandFailed records a command error by taxonomy kind.
func (r *Recorder) CommandFailed(kind string) {
	r.commandErrorsTotal.WithLabelValues(kind).Inc()
}

// ChannelReconnect records a reconnect attempt.
func (r *Recorder) ChannelReconnect() {
	r.channelReconnects.Inc()
}

// ChannelConnected sets the connection gauge.
func (r *Recorder) ChannelConnected(connected bool) {
	if connected {
		r.channelConnected.Set(1)
		return
	}
	r.channelConnected.Set(0)
}

// BackendRequest records a storage backend call.
func (r *Recorder) BackendRequest(op, outcome string) {
	r.backendRequests.WithLabelValues(op, outcome).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
