package riskapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/catrisk/internal/kv/memkv"
	"github.com/linnemanlabs/catrisk/internal/risk"
	"github.com/linnemanlabs/go-core/log"
)

type mockAnalyzer struct {
	mu   sync.Mutex
	ran  []string
	snap risk.AnalysisSnapshot
}

func (m *mockAnalyzer) Run(_ context.Context, geography string) bool {
	if strings.TrimSpace(geography) == "" {
		return false
	}
	m.mu.Lock()
	m.ran = append(m.ran, geography)
	m.mu.Unlock()
	return true
}

func (m *mockAnalyzer) Snapshot() risk.AnalysisSnapshot { return m.snap }

type mockAlerter struct {
	mu     sync.Mutex
	ran    []string
	snap   risk.AlertSnapshot
	result *risk.AlertResult
}

func (m *mockAlerter) Run(_ context.Context, geography string) bool {
	if strings.TrimSpace(geography) == "" {
		return false
	}
	m.mu.Lock()
	m.ran = append(m.ran, geography)
	m.mu.Unlock()
	return true
}

func (m *mockAlerter) Snapshot() risk.AlertSnapshot     { return m.snap }
func (m *mockAlerter) CurrentResult() *risk.AlertResult { return m.result }

type testAPI struct {
	api      *API
	router   chi.Router
	analyzer *mockAnalyzer
	alerter  *mockAlerter
	history  *risk.History
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	analyzer := &mockAnalyzer{}
	alerter := &mockAlerter{}
	history := risk.NewHistory(context.Background(), memkv.New(), log.Nop())

	api := New(nil, analyzer, alerter, history)
	r := chi.NewRouter()
	api.RegisterRoutes(r)

	return &testAPI{api: api, router: r, analyzer: analyzer, alerter: alerter, history: history}
}

//  New / constructor

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	history := risk.NewHistory(context.Background(), memkv.New(), log.Nop())
	api := New(nil, &mockAnalyzer{}, &mockAlerter{}, history)
	if api == nil {
		t.Fatal("New returned nil API")
	}
	if api.logger == nil {
		t.Fatal("New left logger nil; expected Nop logger")
	}
}

func TestNew_NilDeps_Panic(t *testing.T) {
	t.Parallel()

	history := risk.NewHistory(context.Background(), memkv.New(), log.Nop())

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil analyzer", func() { New(nil, nil, &mockAlerter{}, history) }},
		{"nil alerter", func() { New(nil, &mockAnalyzer{}, nil, history) }},
		{"nil history", func() { New(nil, &mockAnalyzer{}, &mockAlerter{}, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				if r := recover(); r == nil {
					t.Fatalf("%s did not panic", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

// Workflow start

func TestStartAnalysis(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid geography", `{"geography":"Florida - Southeast"}`, http.StatusAccepted},
		{"empty geography", `{"geography":""}`, http.StatusBadRequest},
		{"whitespace geography", `{"geography":"   "}`, http.StatusBadRequest},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			ta.router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("POST /api/v1/analysis = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	ta.analyzer.mu.Lock()
	defer ta.analyzer.mu.Unlock()
	if len(ta.analyzer.ran) != 1 || ta.analyzer.ran[0] != "Florida - Southeast" {
		t.Errorf("analyzer runs = %v, want exactly one for Florida - Southeast", ta.analyzer.ran)
	}
}

func TestStartAlerts(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader(`{"geography":"Texas - Gulf Coast"}`))
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/v1/alerts = %d, want %d", rec.Code, http.StatusAccepted)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp["accepted"] != true {
		t.Errorf("accepted = %v, want true", resp["accepted"])
	}

	ta.alerter.mu.Lock()
	defer ta.alerter.mu.Unlock()
	if len(ta.alerter.ran) != 1 || ta.alerter.ran[0] != "Texas - Gulf Coast" {
		t.Errorf("alerter runs = %v", ta.alerter.ran)
	}
}

// Snapshots

func TestGetAnalysis_Snapshot(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	ta.analyzer.snap = risk.AnalysisSnapshot{
		State: risk.StateRunning,
		Phase: "Analyzing exposure data...",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/analysis = %d, want 200", rec.Code)
	}

	var snap risk.AnalysisSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if snap.State != risk.StateRunning {
		t.Errorf("state = %q, want running", snap.State)
	}
	if snap.Phase != "Analyzing exposure data..." {
		t.Errorf("phase = %q", snap.Phase)
	}
}

func TestGetAlerts_Snapshot(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	ta.alerter.snap = risk.AlertSnapshot{
		State: risk.StateFailed,
		Error: "Alert generation failed. Please try again.",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	var snap risk.AlertSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if snap.State != risk.StateFailed || snap.Error == "" {
		t.Errorf("snapshot = %+v, want failed with error", snap)
	}
}

// Filtered alerts

func TestFilteredAlerts(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	ta.alerter.result = &risk.AlertResult{
		AnalysisGeography: "Louisiana",
		Alerts: []risk.AlertItem{
			{AlertID: "ALT-001", Severity: "critical"},
			{AlertID: "ALT-002", Severity: "high"},
			{AlertID: "ALT-003", Severity: "medium"},
		},
	}

	tests := []struct {
		name    string
		url     string
		wantIDs []string
	}{
		{"no filters returns all", "/api/v1/alerts/filtered", []string{"ALT-001", "ALT-002", "ALT-003"}},
		{"single severity", "/api/v1/alerts/filtered?severity=critical", []string{"ALT-001"}},
		{"multiple severities", "/api/v1/alerts/filtered?severity=critical&severity=medium", []string{"ALT-001", "ALT-003"}},
		{"case insensitive", "/api/v1/alerts/filtered?severity=HIGH", []string{"ALT-002"}},
		{"no matches", "/api/v1/alerts/filtered?severity=low", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			ta.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("GET %s = %d, want 200", tt.url, rec.Code)
			}

			var resp struct {
				Geography string           `json:"geography"`
				Alerts    []risk.AlertItem `json:"alerts"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}

			if len(resp.Alerts) != len(tt.wantIDs) {
				t.Fatalf("alert count = %d, want %d", len(resp.Alerts), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if resp.Alerts[i].AlertID != id {
					t.Errorf("alerts[%d] = %q, want %q", i, resp.Alerts[i].AlertID, id)
				}
			}
		})
	}
}

func TestFilteredAlerts_NoResult(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/filtered", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/v1/alerts/filtered with no result = %d, want 404", rec.Code)
	}
}

// Export

func TestExportAlerts(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	ta.alerter.result = &risk.AlertResult{
		AnalysisGeography: "Hawaii",
		AlertSummary: risk.AlertSummary{
			TotalAlerts: 1,
		},
		Alerts: []risk.AlertItem{{AlertID: "ALT-001", Severity: "high"}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/export", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/alerts/export = %d, want 200", rec.Code)
	}

	disp := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disp, "attachment") || !strings.Contains(disp, "alerts-Hawaii-") {
		t.Errorf("Content-Disposition = %q, want attachment with alerts-Hawaii- prefix", disp)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "\n  ") {
		t.Error("export body should be indented JSON")
	}

	var decoded risk.AlertResult
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("export body does not decode: %v", err)
	}
	if decoded.AnalysisGeography != "Hawaii" {
		t.Errorf("geography = %q, want Hawaii", decoded.AnalysisGeography)
	}
}

func TestExportAlerts_NoResult(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/export", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/v1/alerts/export with no result = %d, want 404", rec.Code)
	}
}

// Geographies

func TestGeographies(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	tests := []struct {
		name      string
		url       string
		wantCount int
	}{
		{"empty query returns ten", "/api/v1/geographies", 10},
		{"substring match", "/api/v1/geographies?q=florida", 3},
		{"no match", "/api/v1/geographies?q=atlantis", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			ta.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("GET %s = %d, want 200", tt.url, rec.Code)
			}

			var resp struct {
				Geographies []string `json:"geographies"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp.Geographies == nil {
				t.Fatal("geographies should never encode as null")
			}
			if len(resp.Geographies) != tt.wantCount {
				t.Errorf("geography count = %d, want %d", len(resp.Geographies), tt.wantCount)
			}
		})
	}
}

// History

func seedHistory(t *testing.T, ta *testAPI, id, geo string) {
	t.Helper()
	ta.history.InsertFront(context.Background(), risk.HistoryEntry{
		ID:              id,
		Date:            time.Now().UTC(),
		Geography:       geo,
		HighestSeverity: "High",
		Status:          risk.StatusPending,
	})
}

func TestListHistory(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	seedHistory(t, ta, "01A", "Louisiana")
	seedHistory(t, ta, "01B", "Kansas")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/history = %d, want 200", rec.Code)
	}

	var resp struct {
		Entries []risk.HistoryEntry `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(resp.Entries))
	}
	// Newest first.
	if resp.Entries[0].ID != "01B" || resp.Entries[1].ID != "01A" {
		t.Errorf("entry order = [%s %s], want [01B 01A]", resp.Entries[0].ID, resp.Entries[1].ID)
	}
}

func TestListHistory_Query(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	seedHistory(t, ta, "01A", "Louisiana")
	seedHistory(t, ta, "01B", "Kansas")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?q=kan", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	var resp struct {
		Entries []risk.HistoryEntry `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Geography != "Kansas" {
		t.Errorf("entries = %+v, want only Kansas", resp.Entries)
	}
}

func TestSetHistoryStatus(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	seedHistory(t, ta, "01A", "Louisiana")

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/history/01A", strings.NewReader(`{"status":"Actioned"}`))
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("PATCH /api/v1/history/01A = %d, want 204", rec.Code)
	}

	entry, ok := ta.history.Get("01A")
	if !ok {
		t.Fatal("entry 01A missing after PATCH")
	}
	if entry.Status != risk.StatusActioned {
		t.Errorf("status = %q, want Actioned", entry.Status)
	}
}

func TestSetHistoryStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	seedHistory(t, ta, "01A", "Louisiana")

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/history/01A", strings.NewReader(`{"status":"Escalated"}`))
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("PATCH with invalid status = %d, want 400", rec.Code)
	}

	entry, _ := ta.history.Get("01A")
	if entry.Status != risk.StatusPending {
		t.Errorf("status = %q, want Pending untouched", entry.Status)
	}
}

func TestSetHistoryStatus_UnknownID(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/history/nope", strings.NewReader(`{"status":"Dismissed"}`))
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	// Unknown ids are a silent no-op.
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PATCH unknown id = %d, want 204", rec.Code)
	}
}

func TestRemoveHistory(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	seedHistory(t, ta, "01A", "Louisiana")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/history/01A", nil)
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE /api/v1/history/01A = %d, want 204", rec.Code)
	}
	if _, ok := ta.history.Get("01A"); ok {
		t.Error("entry 01A still present after DELETE")
	}

	// Deleting again is a no-op, still 204.
	rec = httptest.NewRecorder()
	ta.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/history/01A", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second DELETE = %d, want 204", rec.Code)
	}
}
