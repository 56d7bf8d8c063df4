package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/catrisk/internal/agent"
)

const alertsFailedMsg = "Alert generation failed. Please try again."

// Notifier receives successful alert results, e.g. for a chat webhook.
type Notifier interface {
	Send(ctx context.Context, geography string, result *AlertResult) error
}

// Alerter drives the alert & remediation workflow. Independent state machine
// from the Analyzer, same Idle -> Running -> {Succeeded, Failed} shape; a
// successful run merges its result into matching pending history entries.
type Alerter struct {
	caller  agent.Caller
	history *History
	// analysisContext supplies the current concentration result, if any,
	// used to contextualize the request prompt.
	analysisContext func() *AnalysisResult
	notifier        Notifier
	logger          log.Logger
	metrics         *Metrics

	mu     sync.Mutex
	seq    uint64
	state  RunState
	result *AlertResult
	errMsg string
}

// NewAlerter creates the alert & remediation orchestrator. analysisContext
// and notifier may be nil.
func NewAlerter(caller agent.Caller, history *History, analysisContext func() *AnalysisResult, notifier Notifier, logger log.Logger, metrics *Metrics) *Alerter {
	if logger == nil {
		logger = log.Nop()
	}
	return &Alerter{
		caller:          caller,
		history:         history,
		analysisContext: analysisContext,
		notifier:        notifier,
		logger:          logger,
		metrics:         metrics,
		state:           StateIdle,
	}
}

// AlertSnapshot is a point-in-time view of the orchestrator.
type AlertSnapshot struct {
	State  RunState     `json:"state"`
	Result *AlertResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Snapshot returns the current state, result, and error.
func (a *Alerter) Snapshot() AlertSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AlertSnapshot{State: a.state, Result: a.result, Error: a.errMsg}
}

// CurrentResult returns the latest successful payload, or nil.
func (a *Alerter) CurrentResult() *AlertResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Run starts an alert & remediation analysis for geography. An empty or
// whitespace geography is rejected with no state transition. A newer run
// supersedes an in-flight one; the superseded outcome is discarded.
func (a *Alerter) Run(ctx context.Context, geography string) bool {
	geo := strings.TrimSpace(geography)
	if geo == "" {
		return false
	}

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.state = StateRunning
	a.result = nil
	a.errMsg = ""
	a.mu.Unlock()

	go a.run(context.WithoutCancel(ctx), seq, geo)
	return true
}

func (a *Alerter) run(ctx context.Context, seq uint64, geo string) {
	start := time.Now()
	L := a.logger.With("workflow", WorkflowAlerts, "geography", geo)

	var analysis *AnalysisResult
	if a.analysisContext != nil {
		analysis = a.analysisContext()
	}

	res, err := a.caller.Call(ctx, alertPrompt(geo, analysis), agent.AlertRemediation)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seq != seq {
		L.Info(ctx, "discarding superseded alert outcome", "seq", seq)
		return
	}

	if err != nil {
		a.settleFailure(ctx, L, err.Error(), start)
		return
	}
	if !res.Success || res.Response == nil || len(res.Response.Result) == 0 {
		a.settleFailure(ctx, L, failureMessage(res, alertsFailedMsg), start)
		return
	}

	var payload AlertResult
	if err := json.Unmarshal(res.Response.Result, &payload); err != nil {
		L.Warn(ctx, "alert payload undecodable", "error", err)
		a.settleFailure(ctx, L, alertsFailedMsg, start)
		return
	}

	a.result = &payload
	a.state = StateSucceeded
	a.metrics.ObserveRun(WorkflowAlerts, StateSucceeded, time.Since(start).Seconds())

	// Correlate by geography: every pending entry for the geography takes
	// the new result, not just the most recent.
	updated := a.history.UpdateWhere(ctx,
		func(e *HistoryEntry) bool {
			return e.Geography == geo && e.Status == StatusPending
		},
		func(e *HistoryEntry) {
			e.AlertResult = &payload
			e.AlertCount = payload.AlertSummary.TotalAlerts
			e.HighestSeverity = mergedSeverity(payload.AlertSummary)
		},
	)
	if updated > 0 {
		a.metrics.IncHistoryUpdate("merge")
	}

	if a.notifier != nil {
		go func() {
			if err := a.notifier.Send(ctx, geo, &payload); err != nil {
				L.Warn(ctx, "alert notification failed", "error", err)
			}
		}()
	}

	L.Info(ctx, "alert analysis complete",
		"duration", time.Since(start).Seconds(),
		"total_alerts", payload.AlertSummary.TotalAlerts,
		"critical", payload.AlertSummary.CriticalCount,
		"history_updated", updated,
	)
}

func (a *Alerter) settleFailure(ctx context.Context, L log.Logger, msg string, start time.Time) {
	a.state = StateFailed
	a.errMsg = msg
	a.metrics.ObserveRun(WorkflowAlerts, StateFailed, time.Since(start).Seconds())
	L.Warn(ctx, "alert analysis failed", "error", msg)
}

// mergedSeverity derives the label written into a merged history entry from
// the summary counts alone. A summary with no critical and no high alerts
// lands on Medium, including the zero-alert case.
func mergedSeverity(s AlertSummary) string {
	switch {
	case s.CriticalCount > 0:
		return "Critical"
	case s.HighCount > 0:
		return "High"
	default:
		return "Medium"
	}
}

// alertPrompt embeds the current analysis context when one exists.
func alertPrompt(geo string, analysis *AnalysisResult) string {
	if analysis == nil {
		return fmt.Sprintf("Analyze concentration risk profile and generate alerts with remedial actions for %s.", geo)
	}

	score := "N/A"
	if analysis.ExposureSummary != nil && analysis.ExposureSummary.ConcentrationScore != 0 {
		score = strconv.FormatFloat(analysis.ExposureSummary.ConcentrationScore, 'f', -1, 64)
	}

	return fmt.Sprintf(
		"Analyze concentration risk profile and generate alerts with remedial actions for %s. Context: Overall risk rating %s/10, concentration score %s, %d threshold breaches detected.",
		geo,
		strconv.FormatFloat(analysis.OverallRiskRating, 'f', -1, 64),
		score,
		len(analysis.ThresholdBreaches),
	)
}
