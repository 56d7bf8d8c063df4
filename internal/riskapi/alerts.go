package riskapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/catrisk/internal/risk"
)

func (a *API) handleFilteredAlerts(w http.ResponseWriter, r *http.Request) {
	result := a.alerter.CurrentResult()
	if result == nil {
		http.Error(w, `{"error":"no alert result"}`, http.StatusNotFound)
		return
	}

	active := make(map[string]bool)
	for _, s := range r.URL.Query()["severity"] {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			active[s] = true
		}
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int("catrisk.alerts.filters", len(active)))

	alerts := risk.FilterAlerts(result.Alerts, active)
	if alerts == nil {
		alerts = []risk.AlertItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"geography": result.AnalysisGeography,
		"alerts":    alerts,
	})
}

func (a *API) handleExportAlerts(w http.ResponseWriter, r *http.Request) {
	result := a.alerter.CurrentResult()
	if result == nil {
		http.Error(w, `{"error":"no alert result"}`, http.StatusNotFound)
		return
	}

	filename, body, err := risk.ExportAlerts(result, time.Now())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to export alerts")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(body)
}
