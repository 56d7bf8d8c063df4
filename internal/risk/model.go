package risk

import "time"

// RunState tracks where an orchestrator is in its lifecycle.
type RunState string

const (
	// StateIdle means no run has been started yet
	StateIdle RunState = "idle"

	// StateRunning means a call to the analysis service is in flight
	StateRunning RunState = "running"

	// StateSucceeded means the latest run finished with a payload
	StateSucceeded RunState = "succeeded"

	// StateFailed means the latest run finished with an error
	StateFailed RunState = "failed"
)

// Status is the analyst-controlled disposition of a history entry.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusActioned  Status = "Actioned"
	StatusDismissed Status = "Dismissed"
)

// ValidStatus reports whether s is one of the three entry dispositions.
func ValidStatus(s Status) bool {
	return s == StatusPending || s == StatusActioned || s == StatusDismissed
}

// AnalysisResult is the concentration workflow payload. Every nested field is
// optional; the service does not guarantee the shape field-by-field, so zero
// values stand in for anything absent.
type AnalysisResult struct {
	Geography           string               `json:"geography,omitempty"`
	OverallRiskRating   float64              `json:"overall_risk_rating,omitempty"`
	ExecutiveSummary    string               `json:"executive_summary,omitempty"`
	ExposureSummary     *ExposureSummary     `json:"exposure_summary,omitempty"`
	CatastropheContext  *CatastropheContext  `json:"catastrophe_context,omitempty"`
	ClimateIntelligence *ClimateIntelligence `json:"climate_intelligence,omitempty"`
	ThresholdBreaches   []ThresholdBreach    `json:"threshold_breaches,omitempty"`
	Recommendations     []string             `json:"recommendations,omitempty"`
}

// ExposureSummary describes the insured portfolio in a geography.
type ExposureSummary struct {
	TotalPolicies      int            `json:"total_policies,omitempty"`
	TotalInsuredValue  string         `json:"total_insured_value,omitempty"`
	ConcentrationScore float64        `json:"concentration_score,omitempty"`
	TopLOB             string         `json:"top_lob,omitempty"`
	LOBBreakdown       []LOBBreakdown `json:"lob_breakdown,omitempty"`
}

// LOBBreakdown is one line-of-business slice of the exposure.
type LOBBreakdown struct {
	LineOfBusiness string  `json:"line_of_business,omitempty"`
	PolicyCount    int     `json:"policy_count,omitempty"`
	InsuredValue   string  `json:"insured_value,omitempty"`
	Percentage     float64 `json:"percentage,omitempty"`
}

// CatastropheContext summarizes catastrophe modeling for a geography.
type CatastropheContext struct {
	RiskRating            float64  `json:"risk_rating,omitempty"`
	RiskTrend             string   `json:"risk_trend,omitempty"`
	TopPerils             []string `json:"top_perils,omitempty"`
	HistoricalLossSummary string   `json:"historical_loss_summary,omitempty"`
	ReturnPeriod100Yr     string   `json:"return_period_100yr,omitempty"`
	ReturnPeriod250Yr     string   `json:"return_period_250yr,omitempty"`
}

// ClimateIntelligence carries the current-conditions assessment.
type ClimateIntelligence struct {
	ClimateRiskScore  float64  `json:"climate_risk_score,omitempty"`
	CurrentConditions string   `json:"current_conditions,omitempty"`
	ActiveWarnings    []string `json:"active_warnings,omitempty"`
	EmergingThreats   []string `json:"emerging_threats,omitempty"`
	SeasonalOutlook   string   `json:"seasonal_outlook,omitempty"`
}

// ThresholdBreach is a metric exceeding its defined limit for a zone.
type ThresholdBreach struct {
	Metric       string  `json:"metric,omitempty"`
	CurrentValue float64 `json:"current_value,omitempty"`
	Threshold    float64 `json:"threshold,omitempty"`
	Severity     string  `json:"severity,omitempty"`
	Zone         string  `json:"zone,omitempty"`
}

// AlertResult is the alert & remediation workflow payload.
type AlertResult struct {
	AnalysisGeography      string       `json:"analysis_geography,omitempty"`
	AlertSummary           AlertSummary `json:"alert_summary,omitempty"`
	Alerts                 []AlertItem  `json:"alerts,omitempty"`
	ImplementationTimeline string       `json:"implementation_timeline,omitempty"`
	OverallRiskReduction   string       `json:"overall_risk_reduction,omitempty"`
}

// AlertSummary counts the alerts in a result by severity.
type AlertSummary struct {
	TotalAlerts   int `json:"total_alerts,omitempty"`
	CriticalCount int `json:"critical_count,omitempty"`
	HighCount     int `json:"high_count,omitempty"`
	MediumCount   int `json:"medium_count,omitempty"`
}

// AlertItem is one breach-triggered alert with its remedial actions.
type AlertItem struct {
	AlertID           string           `json:"alert_id,omitempty"`
	Severity          string           `json:"severity,omitempty"`
	Zone              string           `json:"zone,omitempty"`
	PerilType         string           `json:"peril_type,omitempty"`
	ExposureValue     string           `json:"exposure_value,omitempty"`
	BreachDescription string           `json:"breach_description,omitempty"`
	RemedialActions   []RemedialAction `json:"remedial_actions,omitempty"`
}

// RemedialAction is one suggested mitigation for an alert.
type RemedialAction struct {
	ActionType     string `json:"action_type,omitempty"`
	Description    string `json:"description,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	ExpectedImpact string `json:"expected_impact,omitempty"`
}

// HistoryEntry is the persisted record of one completed concentration
// analysis, optionally enriched with a later alert result.
type HistoryEntry struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	Geography       string          `json:"geography"`
	AlertCount      int             `json:"alertCount"`
	HighestSeverity string          `json:"highestSeverity"`
	Status          Status          `json:"status"`
	AnalysisResult  *AnalysisResult `json:"analysisResult,omitempty"`
	AlertResult     *AlertResult    `json:"alertResult,omitempty"`
}
