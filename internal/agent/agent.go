// Package agent defines the boundary to the external analysis service.
// The service is a black box: given a natural-language prompt and an agent
// identifier it returns a semi-structured payload or a failure indication.
package agent

import (
	"context"
	"encoding/json"
)

// Fixed agent identifiers for the two analysis capabilities.
const (
	RiskCoordinator  = "risk-coordinator"
	AlertRemediation = "alert-remediation"
)

// Caller is the interface to the external analysis service.
type Caller interface {
	Call(ctx context.Context, prompt, agentID string) (*Result, error)
}

// Result mirrors the service's envelope. The payload under Response.Result is
// not schema-validated here; consumers decode it with optional-field defaults.
type Result struct {
	Success  bool      `json:"success"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Response carries the analysis payload and an optional service message.
type Response struct {
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}
