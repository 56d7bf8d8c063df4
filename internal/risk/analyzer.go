package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/catrisk/internal/agent"
	"github.com/linnemanlabs/catrisk/internal/severity"
)

// analysisPhases are the display-only progress labels advanced while a
// concentration run is in flight. They have no bearing on correctness.
var analysisPhases = []string{
	"Analyzing exposure data...",
	"Fetching catastrophe context...",
	"Checking climate conditions...",
	"Aggregating risk profile...",
}

// phaseInterval is the cadence of progress label advancement.
const phaseInterval = 3 * time.Second

const analysisFailedMsg = "Analysis failed. Please try again."

// Analyzer drives the concentration analysis workflow. It is a re-entrant
// Idle -> Running -> {Succeeded, Failed} state machine; a successful run
// seeds a new history entry as a side effect.
type Analyzer struct {
	caller  agent.Caller
	history *History
	logger  log.Logger
	metrics *Metrics

	// phaseEvery is overridable in tests.
	phaseEvery time.Duration

	mu       sync.Mutex
	seq      uint64
	state    RunState
	phaseIdx int
	result   *AnalysisResult
	errMsg   string
}

// NewAnalyzer creates the concentration analysis orchestrator.
func NewAnalyzer(caller agent.Caller, history *History, logger log.Logger, metrics *Metrics) *Analyzer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Analyzer{
		caller:     caller,
		history:    history,
		logger:     logger,
		metrics:    metrics,
		phaseEvery: phaseInterval,
		state:      StateIdle,
	}
}

// AnalysisSnapshot is a point-in-time view of the orchestrator.
type AnalysisSnapshot struct {
	State  RunState        `json:"state"`
	Phase  string          `json:"phase,omitempty"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Snapshot returns the current state, progress phase, result, and error.
func (a *Analyzer) Snapshot() AnalysisSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := AnalysisSnapshot{State: a.state, Result: a.result, Error: a.errMsg}
	if a.state == StateRunning {
		s.Phase = analysisPhases[a.phaseIdx]
	}
	return s
}

// CurrentResult returns the latest successful payload, or nil.
func (a *Analyzer) CurrentResult() *AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Run starts a concentration analysis for geography. An empty or whitespace
// geography is rejected with no state transition. A run started while a prior
// call is still in flight supersedes it: the prior call's outcome is
// discarded when it settles.
func (a *Analyzer) Run(ctx context.Context, geography string) bool {
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
	a.phaseIdx = 0
	a.mu.Unlock()

	go a.advancePhases(seq)
	go a.run(context.WithoutCancel(ctx), seq, geo)
	return true
}

// advancePhases steps the progress label on a fixed cadence until the run it
// belongs to settles or is superseded.
func (a *Analyzer) advancePhases(seq uint64) {
	ticker := time.NewTicker(a.phaseEvery)
	defer ticker.Stop()
	for range ticker.C {
		a.mu.Lock()
		if a.seq != seq || a.state != StateRunning {
			a.mu.Unlock()
			return
		}
		if a.phaseIdx < len(analysisPhases)-1 {
			a.phaseIdx++
		}
		a.mu.Unlock()
	}
}

func (a *Analyzer) run(ctx context.Context, seq uint64, geo string) {
	start := time.Now()
	L := a.logger.With("workflow", WorkflowAnalysis, "geography", geo)

	res, err := a.caller.Call(ctx, analysisPrompt(geo), agent.RiskCoordinator)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seq != seq {
		L.Info(ctx, "discarding superseded analysis outcome", "seq", seq)
		return
	}

	if err != nil {
		a.settleFailure(ctx, L, err.Error(), start)
		return
	}
	if !res.Success || res.Response == nil || len(res.Response.Result) == 0 {
		a.settleFailure(ctx, L, failureMessage(res, analysisFailedMsg), start)
		return
	}

	var payload AnalysisResult
	if err := json.Unmarshal(res.Response.Result, &payload); err != nil {
		L.Warn(ctx, "analysis payload undecodable", "error", err)
		a.settleFailure(ctx, L, analysisFailedMsg, start)
		return
	}

	a.result = &payload
	a.state = StateSucceeded
	a.metrics.ObserveRun(WorkflowAnalysis, StateSucceeded, time.Since(start).Seconds())

	entry := newHistoryEntry(geo, &payload)
	a.history.InsertFront(ctx, entry)
	a.metrics.IncHistoryUpdate("insert")

	L.Info(ctx, "analysis complete",
		"duration", time.Since(start).Seconds(),
		"risk_rating", payload.OverallRiskRating,
		"breaches", len(payload.ThresholdBreaches),
		"history_id", entry.ID,
	)
}

// settleFailure records the error under the already-held lock.
func (a *Analyzer) settleFailure(ctx context.Context, L log.Logger, msg string, start time.Time) {
	a.state = StateFailed
	a.errMsg = msg
	a.metrics.ObserveRun(WorkflowAnalysis, StateFailed, time.Since(start).Seconds())
	L.Warn(ctx, "analysis failed", "error", msg)
}

// newHistoryEntry builds the history record seeded by a successful analysis.
func newHistoryEntry(geo string, payload *AnalysisResult) HistoryEntry {
	geography := payload.Geography
	if geography == "" {
		geography = geo
	}

	highest := severity.None
	if len(payload.ThresholdBreaches) > 0 {
		labels := make([]string, 0, len(payload.ThresholdBreaches))
		for _, b := range payload.ThresholdBreaches {
			labels = append(labels, b.Severity)
		}
		highest = severity.Max(labels)
	}

	return HistoryEntry{
		ID:              ulid.Make().String(),
		Date:            time.Now(),
		Geography:       geography,
		AlertCount:      len(payload.ThresholdBreaches),
		HighestSeverity: highest,
		Status:          StatusPending,
		AnalysisResult:  payload,
	}
}

// failureMessage prefers the service's own error, then its message, then a
// generic fallback.
func failureMessage(res *agent.Result, fallback string) string {
	if res.Error != "" {
		return res.Error
	}
	if res.Response != nil && res.Response.Message != "" {
		return res.Response.Message
	}
	return fallback
}

func analysisPrompt(geo string) string {
	return fmt.Sprintf("Analyze risk concentration for %s. Provide complete exposure data, catastrophe context, and climate intelligence with threshold breach analysis.", geo)
}
