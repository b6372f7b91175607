// Package metrics holds the Prometheus collectors exported by the bot.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScheduleFetchTotal counts remote schedule fetches by document kind and
	// status ("success" or "error").
	ScheduleFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_fetch_total",
		Help: "Schedule documents fetched from the remote source.",
	}, []string{"kind", "status"})

	// ScheduleCacheHits counts lookups answered without a remote fetch.
	ScheduleCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_cache_hits_total",
		Help: "Schedule requests served from a fresh cached snapshot.",
	}, []string{"kind"})

	// FactsCommands counts facts operations by op and result.
	FactsCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facts_commands_total",
		Help: "Facts operations by kind and result.",
	}, []string{"op", "result"})
)

// MustRegister registers all collectors with registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ScheduleFetchTotal,
		ScheduleCacheHits,
		FactsCommands,
	)
}

// ObserveFetch counts one remote schedule fetch.
func ObserveFetch(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ScheduleFetchTotal.WithLabelValues(kind, status).Inc()
}

// ObserveFacts counts one facts operation.
func ObserveFacts(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	FactsCommands.WithLabelValues(op, result).Inc()
}

// StartServer serves /metrics on addr until ctx is cancelled.
func StartServer(ctx context.Context, log *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics shutdown", "error", err)
		}
	}()

	go func() {
		log.Info("metrics server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()
}
