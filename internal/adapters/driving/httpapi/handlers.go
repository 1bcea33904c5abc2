package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
)

// recordsResponse wraps a record listing.
type recordsResponse struct {
	Count   int                      `json:"count"`
	Records []domain.CanonicalRecord `json:"records"`
}

// uploadResponse is returned for every upload that reached the pipeline.
type uploadResponse struct {
	Report *domain.IngestReport `json:"report"`
	Error  string               `json:"error,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleUpload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			name = "upload.csv"
		}
		account := r.URL.Query().Get("account")

		report, err := deps.Ingest.IngestReader(r.Context(), name, account, r.Body)
		if err != nil {
			code := uploadStatus(err)
			if report != nil {
				writeJSON(w, code, uploadResponse{Report: report, Error: err.Error()})
				return
			}
			httpError(w, code, "%v", err)
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{Report: report})
	}
}

// uploadStatus maps ingest errors onto HTTP status codes.
func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrEmptyUpload), errors.Is(err, domain.ErrUnreadableUpload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIngestInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleListRecords(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec, err := querySpec(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "%v", err)
			return
		}

		records, err := deps.Query.Query(r.Context(), spec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "query failed: %v", err)
			return
		}
		if records == nil {
			records = []domain.CanonicalRecord{}
		}

		writeJSON(w, http.StatusOK, recordsResponse{Count: len(records), Records: records})
	}
}

func handleGetRecord(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := domain.IdentityKey{
			AccountID: chi.URLParam(r, "account"),
			ID:        chi.URLParam(r, "id"),
		}

		rec, err := deps.Query.Get(r.Context(), key)
		if errors.Is(err, domain.ErrNotFound) {
			httpError(w, http.StatusNotFound, "record %s/%s not found", key.AccountID, key.ID)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "lookup failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

func handleSummary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec, err := querySpec(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "%v", err)
			return
		}

		sum, err := deps.Analytics.Summary(r.Context(), spec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "summary failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, sum)
	}
}

// statusResponse combines pipeline state with cache freshness.
type statusResponse struct {
	Ingest    *driving.IngestStatus `json:"ingest"`
	Freshness *domain.Freshness     `json:"freshness"`
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := deps.Ingest.Status(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "status failed: %v", err)
			return
		}
		fresh, err := deps.Query.Freshness(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "freshness failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, statusResponse{Ingest: status, Freshness: fresh})
	}
}

// querySpec reads record filters from the URL query.
func querySpec(r *http.Request) (domain.QuerySpec, error) {
	q := r.URL.Query()
	return domain.QueryParams{
		Account: q.Get("account"),
		Since:   q.Get("since"),
		Until:   q.Get("until"),
		Media:   q.Get("media"),
		Hashtag: q.Get("hashtag"),
		Format:  q.Get("format"),
		Limit:   parseIntParam(r, "limit", 0, maxRecordsLimit),
	}.Spec()
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"status":  code,
		},
	})
}
