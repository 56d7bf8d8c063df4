package risk

import "strings"

// FilterAlerts returns, in original order, the alerts whose severity
// lowercases to a member of active. An empty filter set means "show all",
// not "show none".
func FilterAlerts(alerts []AlertItem, active map[string]bool) []AlertItem {
	if len(active) == 0 {
		return alerts
	}
	var out []AlertItem
	for _, a := range alerts {
		if active[strings.ToLower(a.Severity)] {
			out = append(out, a)
		}
	}
	return out
}
