package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
	"github.com/custodia-labs/postmetrics/internal/logger"
	"github.com/custodia-labs/postmetrics/internal/metrics"
)

// maxUploadSize caps the body of one upload.
const maxUploadSize = 32 << 20 // 32MB

// maxRecordsLimit caps the limit parameter of record listings.
const maxRecordsLimit = 10000

// Deps are the services the API serves. Metrics is optional.
type Deps struct {
	Ingest    driving.IngestService
	Query     driving.QueryService
	Analytics driving.AnalyticsService
	Metrics   *metrics.Collector
}

// NewHandler builds the API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware(routePattern))
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/health", handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/uploads", handleUpload(deps))
		r.Get("/records", handleListRecords(deps))
		r.Get("/records/{account}/{id}", handleGetRecord(deps))
		r.Get("/summary", handleSummary(deps))
		r.Get("/status", handleStatus(deps))
	})

	return r
}

// routePattern reports the matched chi pattern so metrics are labelled by
// route rather than by raw path.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	}
}
