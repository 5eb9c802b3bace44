// Package handlers exposes a read-only HTTP API over the catalog: recorded
// runs, their artifacts, and their review queues.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mohawk-valley-archives/curator/internal/catalog"
)

type Handler struct {
	store *catalog.Store
}

func New(store *catalog.Store) *Handler {
	return &Handler{store: store}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// resolveRun maps the ?run= query parameter to a run id, defaulting to the
// latest recorded run.
func (h *Handler) resolveRun(w http.ResponseWriter, r *http.Request) (string, bool) {
	runID := r.URL.Query().Get("run")
	if runID != "" {
		return runID, true
	}

	runID, err := h.store.LatestRunID(r.Context())
	if errors.Is(err, catalog.ErrNotFound) {
		h.writeError(w, "No runs recorded", http.StatusNotFound)
		return "", false
	}
	if err != nil {
		h.writeError(w, "Failed to resolve run", http.StatusInternalServerError)
		return "", false
	}
	return runID, true
}

// HandleRuns serves GET /api/runs.
func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, runs)
}

// HandleArtifacts serves GET /api/artifacts and /api/artifacts/{id}.
func (h *Handler) HandleArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID, ok := h.resolveRun(w, r)
	if !ok {
		return
	}

	artifactID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/artifacts"), "/")
	if artifactID == "" {
		artifacts, err := h.store.ListArtifacts(r.Context(), runID)
		if err != nil {
			h.writeError(w, "Failed to list artifacts", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, artifacts)
		return
	}

	artifact, err := h.store.GetArtifact(r.Context(), runID, artifactID)
	if errors.Is(err, catalog.ErrNotFound) {
		h.writeError(w, "Artifact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to load artifact", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, artifact)
}

// HandleReview serves GET /api/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID, ok := h.resolveRun(w, r)
	if !ok {
		return
	}

	items, err := h.store.ListReview(r.Context(), runID)
	if err != nil {
		h.writeError(w, "Failed to list review queue", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, items)
}
