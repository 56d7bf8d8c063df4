package risk

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportAlerts serializes an alert result as an indented JSON artifact named
// with the analysis geography and the given date.
func ExportAlerts(result *AlertResult, now time.Time) (filename string, body []byte, err error) {
	body, err = json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("marshal alert result: %w", err)
	}

	geo := result.AnalysisGeography
	if geo == "" {
		geo = "report"
	}
	filename = fmt.Sprintf("alerts-%s-%s.json", geo, now.Format("2006-01-02"))
	return filename, body, nil
}
