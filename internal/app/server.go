// # internal/app/server.go
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deadvar/internal/shared/util"
	"deadvar/internal/shared/version"
)

// ObservabilityServer exposes /metrics and /health while watch mode runs.
type ObservabilityServer struct {
	addr   string
	app    *App
	server *http.Server
}

type healthStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Files       int    `json:"files"`
	Findings    int    `json:"findings"`
	Errors      int    `json:"errors"`
	HeapAllocMB uint64 `json:"heap_alloc_mb"`
}

func NewObservabilityServer(addr string, app *App) *ObservabilityServer {
	return &ObservabilityServer{
		addr: addr,
		app:  app,
	}
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		update := s.app.CurrentUpdate()
		status := healthStatus{
			Status:      "up",
			Version:     version.Version,
			Files:       update.FileCount,
			Findings:    update.Findings,
			Errors:      update.Errors,
			HeapAllocMB: util.GetHeapAllocMB(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
