// Package api exposes the council file catalog over HTTP and MCP. Both
// surfaces are read-only: all writes go through the pipeline.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"counciltrack/internal/docstore"
	"counciltrack/internal/storage"
)

const defaultListLimit = 50
const maxListLimit = 500

// Deps holds the read-side dependencies of the HTTP handlers.
type Deps struct {
	Store *storage.Store
	Docs  *docstore.Store
}

// NewHandler builds the HTTP API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth())
	r.Get("/index", handleIndex(deps))
	r.Get("/councilfiles", handleListCouncilFiles(deps))
	r.Get("/councilfiles/search", handleSearchCouncilFiles(deps))
	r.Get("/councilfiles/{number}", handleGetCouncilFile(deps))
	r.Get("/meetings", handleListMeetings(deps))
	r.Get("/meetings/{id}", handleGetMeeting(deps))

	return r
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

func handleIndex(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := deps.Docs.ReadIndex()
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "index not built yet: run aggregation first")
			return
		}
		writeJSON(w, idx)
	}
}

func handleListCouncilFiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Store.ListRecentCouncilFiles(queryLimit(r))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list council files: %v", err)
			return
		}
		if records == nil {
			records = []storage.CouncilFileRecord{}
		}
		writeJSON(w, records)
	}
}

func handleSearchCouncilFiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "q is required")
			return
		}
		records, err := deps.Store.SearchCouncilFiles(query, queryLimit(r))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "search failed: %v", err)
			return
		}
		if records == nil {
			records = []storage.CouncilFileRecord{}
		}
		writeJSON(w, records)
	}
}

// handleGetCouncilFile serves the full aggregate document, not the catalog
// row: callers asking for one file want its timeline and attachments.
func handleGetCouncilFile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "number")
		if _, err := deps.Store.GetCouncilFile(number); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "council file %s not found", number)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get council file: %v", err)
			return
		}

		cf, err := deps.Docs.ReadCouncilFile(number)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "catalog row exists but document is unreadable: %v", err)
			return
		}
		writeJSON(w, cf)
	}
}

func handleListMeetings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meetings, err := deps.Store.ListMeetings()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list meetings: %v", err)
			return
		}
		if meetings == nil {
			meetings = []storage.Meeting{}
		}
		writeJSON(w, meetings)
	}
}

func handleGetMeeting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "meeting id must be an integer")
			return
		}
		if _, err := deps.Store.GetMeeting(id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "meeting %d not found", id)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get meeting: %v", err)
			return
		}

		doc, err := deps.Docs.ReadAgenda(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "catalog row exists but document is unreadable: %v", err)
			return
		}
		writeJSON(w, doc)
	}
}

func queryLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
