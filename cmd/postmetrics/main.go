// Command postmetrics ingests social analytics exports and serves them to
// the CLI, an HTTP API, an MCP server and a terminal dashboard.
package main

import (
	"os"

	"github.com/custodia-labs/postmetrics/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
