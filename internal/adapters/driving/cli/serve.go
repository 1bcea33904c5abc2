package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/postmetrics/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API over the shared query cache.

Endpoints:
  POST /v1/uploads?name=&account=   ingest a CSV request body
  GET  /v1/records                  list records (same filters as query)
  GET  /v1/records/{account}/{id}   one record
  GET  /v1/summary                  KPIs
  GET  /v1/status                   ingest and cache state
  GET  /metrics                     Prometheus metrics
  GET  /health                      liveness

The listen address defaults to the server.addr setting.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	if queryService == nil {
		return errNotConfigured("query")
	}
	if analyticsService == nil {
		return errNotConfigured("analytics")
	}

	addr := serveAddr
	if addr == "" && settingsService != nil {
		addr = settingsService.Pipeline().ServerAddr
	}

	handler := httpapi.NewHandler(httpapi.Deps{
		Ingest:    ingestService,
		Query:     queryService,
		Analytics: analyticsService,
		Metrics:   metricsCollector,
	})

	cmd.Printf("HTTP API listening on http://%s\n", addr)
	return httpapi.Serve(cmd.Context(), addr, handler)
}
