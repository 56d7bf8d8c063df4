// Package riskapi exposes the analysis workflows and history log over HTTP.
package riskapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/catrisk/internal/geography"
	"github.com/linnemanlabs/catrisk/internal/risk"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
)

// AnalysisRunner drives the risk concentration workflow.
type AnalysisRunner interface {
	Run(ctx context.Context, geography string) bool
	Snapshot() risk.AnalysisSnapshot
}

// AlertRunner drives the alert & remediation workflow.
type AlertRunner interface {
	Run(ctx context.Context, geography string) bool
	Snapshot() risk.AlertSnapshot
	CurrentResult() *risk.AlertResult
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	analyzer AnalysisRunner
	alerter  AlertRunner
	history  *risk.History
}

// New creates a new API handler.
func New(logger log.Logger, analyzer AnalysisRunner, alerter AlertRunner, history *risk.History) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if analyzer == nil {
		panic(xerrors.New("analysis runner is required"))
	}
	if alerter == nil {
		panic(xerrors.New("alert runner is required"))
	}
	if history == nil {
		panic(xerrors.New("history is required"))
	}
	return &API{
		logger:   logger,
		analyzer: analyzer,
		alerter:  alerter,
		history:  history,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analysis", a.handleStartAnalysis)
		r.Get("/analysis", a.handleGetAnalysis)
		r.Post("/alerts", a.handleStartAlerts)
		r.Get("/alerts", a.handleGetAlerts)
		r.Get("/alerts/filtered", a.handleFilteredAlerts)
		r.Get("/alerts/export", a.handleExportAlerts)
		r.Get("/geographies", a.handleGeographies)
		r.Get("/history", a.handleListHistory)
		r.Patch("/history/{id}", a.handleSetHistoryStatus)
		r.Delete("/history/{id}", a.handleRemoveHistory)
	})
}

// runRequest is the body of both workflow start endpoints.
type runRequest struct {
	Geography string `json:"geography"`
}

func (a *API) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	a.handleStart(w, r, "analysis", a.analyzer.Run)
}

func (a *API) handleStartAlerts(w http.ResponseWriter, r *http.Request) {
	a.handleStart(w, r, "alerts", a.alerter.Run)
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request, workflow string, run func(context.Context, string) bool) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	geo := strings.TrimSpace(req.Geography)
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("catrisk.workflow", workflow),
		attribute.String("catrisk.geography", geo),
	)

	if !run(r.Context(), geo) {
		http.Error(w, `{"error":"geography is required"}`, http.StatusBadRequest)
		return
	}

	a.logger.Info(r.Context(), "workflow started", "workflow", workflow, "geography", geo)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"accepted": true})
}

func (a *API) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	snap := a.analyzer.Snapshot()

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("catrisk.analysis.state", string(snap.State)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (a *API) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	snap := a.alerter.Snapshot()

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("catrisk.alerts.state", string(snap.State)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (a *API) handleGeographies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	matches := geography.Match(q, geography.Catalog)
	if matches == nil {
		matches = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"geographies": matches})
}
