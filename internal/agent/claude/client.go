// Package claude implements agent.Caller on the Anthropic API.
package claude

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/catrisk/internal/agent"
)

const responseTokens = 4096

// Client calls the Anthropic messages API and returns the agent envelope.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a new Claude-backed agent caller with the given API key and model.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Call sends a single prompt to the capability selected by agentID. The
// model is instructed to answer with one JSON object; the extracted object is
// returned as the raw result payload, undecoded.
func (c *Client) Call(ctx context.Context, prompt, agentID string) (*agent.Result, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(agentID)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	payload, ok := extractJSON(text.String())
	if !ok {
		return &agent.Result{
			Success:  true,
			Response: &agent.Response{Message: "agent returned no structured payload"},
		}, nil
	}

	return &agent.Result{
		Success:  true,
		Response: &agent.Response{Result: payload},
	}, nil
}

func systemPrompt(agentID string) string {
	switch agentID {
	case agent.AlertRemediation:
		return `You are an insurance portfolio alert and remediation agent. Given a
concentration risk profile for a geography, produce breach-triggered alerts
with remedial actions for underwriting teams.

Respond with exactly one JSON object and nothing else, with fields:
analysis_geography, alert_summary {total_alerts, critical_count, high_count,
medium_count}, alerts [{alert_id, severity, zone, peril_type, exposure_value,
breach_description, remedial_actions [{action_type, description, timeline,
expected_impact}]}], implementation_timeline, overall_risk_reduction.
Severity labels are critical, high, medium, or low.`
	default:
		return `You are an insurance risk concentration coordinator. Given a geography,
assess exposure, catastrophe context, and climate intelligence with threshold
breach analysis.

Respond with exactly one JSON object and nothing else, with fields:
geography, overall_risk_rating (0-10), executive_summary, exposure_summary
{total_policies, total_insured_value, concentration_score (0-100), top_lob,
lob_breakdown [{line_of_business, policy_count, insured_value, percentage}]},
catastrophe_context {risk_rating, risk_trend, top_perils,
historical_loss_summary, return_period_100yr, return_period_250yr},
climate_intelligence {climate_risk_score, current_conditions,
active_warnings, emerging_threats, seasonal_outlook}, threshold_breaches
[{metric, current_value, threshold, severity, zone}], recommendations.
Severity labels are critical, high, medium, or low.`
	}
}

// extractJSON pulls the outermost JSON object out of a model response,
// tolerating markdown fences and surrounding prose.
func extractJSON(s string) (json.RawMessage, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	raw := json.RawMessage(s[start : end+1])
	if !json.Valid(raw) {
		return nil, false
	}
	return raw, true
}
