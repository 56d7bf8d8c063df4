package riskapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/catrisk/internal/risk"
)

func (a *API) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	entries := a.history.List(q)

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int("catrisk.history.count", len(entries)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"entries": entries})
}

// statusRequest is the PATCH body for a history entry.
type statusRequest struct {
	Status risk.Status `json:"status"`
}

func (a *API) handleSetHistoryStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if !risk.ValidStatus(req.Status) {
		http.Error(w, `{"error":"invalid status"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("catrisk.history.id", id),
		attribute.String("catrisk.history.status", string(req.Status)),
	)

	// An unknown id is a no-op: the entry may have been evicted or removed
	// by a concurrent delete, and neither is an error for the caller.
	if a.history.SetStatus(r.Context(), id, req.Status) {
		a.logger.Info(r.Context(), "history status updated", "id", id, "status", string(req.Status))
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("catrisk.history.id", id))

	if a.history.Remove(r.Context(), id) {
		a.logger.Info(r.Context(), "history entry removed", "id", id)
	}

	w.WriteHeader(http.StatusNoContent)
}
