// Package health serves the liveness probe and, optionally, Prometheus metrics.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/schoolbot/core/logger"
)

const shutdownTimeout = 5 * time.Second

// Options configures the health listener.
type Options struct {
	Listen  string
	Port    int
	Metrics bool
}

// Server answers GET /health and GET / with a static "ok".
type Server struct {
	srv *http.Server
}

// NewRouter builds the chi router with the probe paths mounted.
func NewRouter(metrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", ok)
	r.Get("/health", ok)
	if metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewServer prepares the listener without starting it.
func NewServer(opts Options) *Server {
	addr := net.JoinHostPort(opts.Listen, strconv.Itoa(opts.Port))
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(opts.Metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run serves until ctx is done, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.HTTP.Info("health listening",
			slog.String("event", "listen"),
			slog.String("listen", s.srv.Addr),
		)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("health: listen failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logger.HTTP.Warn("health shutdown failed",
			slog.String("event", "shutdown"),
			logger.Err(err),
		)
		return err
	}
	logger.HTTP.Info("health stopped", slog.String("event", "shutdown"))
	return nil
}
