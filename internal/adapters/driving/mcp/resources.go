package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
)

const (
	// uriScheme is the custom URI scheme for postmetrics resources.
	uriScheme = "postmetrics://"

	statusURI = uriScheme + "status"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         statusURI,
		Name:        "status",
		Description: "Ingest pipeline state, record count and cache freshness",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{account}/{id}",
		Name:        "record",
		Description: "A single stored post record",
		MIMEType:    "application/json",
	}, s.handleRecordResource)
}

// statusDocument is the body of the status resource.
type statusDocument struct {
	Ingest    *driving.IngestStatus `json:"ingest"`
	Freshness *domain.Freshness     `json:"freshness"`
}

func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.Ingest.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting ingest status: %w", err)
	}
	fresh, err := s.ports.Query.Freshness(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting freshness: %w", err)
	}
	return jsonResource(req.Params.URI, statusDocument{Ingest: status, Freshness: fresh})
}

func (s *Server) handleRecordResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	key, ok := extractRecordKey(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Query.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return jsonResource(req.Params.URI, rec)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRecordKey parses postmetrics://records/{account}/{id}.
func extractRecordKey(uri string) (domain.IdentityKey, bool) {
	const prefix = uriScheme + "records/"

	if !strings.HasPrefix(uri, prefix) {
		return domain.IdentityKey{}, false
	}
	account, id, ok := strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	if !ok || account == "" || id == "" {
		return domain.IdentityKey{}, false
	}
	return domain.IdentityKey{AccountID: account, ID: id}, true
}
