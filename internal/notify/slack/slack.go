// Package slack sends alert analysis notifications to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/catrisk/internal/risk"
)

const (
	maxAlertLines = 10
	httpTimeout   = 10 * time.Second
)

// Notifier sends alert analysis results to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts an alert analysis result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, geography string, result *risk.AlertResult) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(geography, result)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(geography string, r *risk.AlertResult) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(geography, r),
			{"type": "divider"},
			summaryBlock(r),
			{"type": "divider"},
			alertsBlock(r),
			{"type": "divider"},
			contextBlock(geography),
		},
	}
}

func headerBlock(geography string, r *risk.AlertResult) map[string]any {
	geo := geography
	if geo == "" {
		geo = r.AnalysisGeography
	}
	text := fmt.Sprintf("%s Alerts: %s", summaryEmoji(r.AlertSummary), geo)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func summaryBlock(r *risk.AlertResult) map[string]any {
	s := r.AlertSummary
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Total alerts:* %d", s.TotalAlerts),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Critical:* %d", s.CriticalCount),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*High:* %d", s.HighCount),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Medium:* %d", s.MediumCount),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Timeline:* %s", orNA(r.ImplementationTimeline)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk reduction:* %s", orNA(r.OverallRiskReduction)),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func alertsBlock(r *risk.AlertResult) map[string]any {
	var b bytes.Buffer
	for i, a := range r.Alerts {
		if i == maxAlertLines {
			fmt.Fprintf(&b, "_...and %d more._\n", len(r.Alerts)-maxAlertLines)
			break
		}
		fmt.Fprintf(&b, "• *%s* [%s] %s — %s\n", a.AlertID, a.Severity, a.Zone, a.BreachDescription)
	}

	text := b.String()
	if text == "" {
		text = "_No alerts generated._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Alerts*\n\n%s", text),
		},
	}
}

func contextBlock(geography string) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("catrisk • %s • %s", geography, time.Now().UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func summaryEmoji(s risk.AlertSummary) string {
	switch {
	case s.CriticalCount > 0:
		return "\U0001f534" // red circle
	case s.HighCount > 0:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
