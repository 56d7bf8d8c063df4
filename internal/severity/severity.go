// Package severity defines the ranking over alert severity labels shared by
// the analysis and alert workflows.
package severity

import "strings"

// None is the sentinel for an entry with no ranked severity.
const None = "None"

// Weight returns the rank of a severity label, case-insensitive.
// Unrecognized labels rank with "low".
func Weight(label string) int {
	switch strings.ToLower(label) {
	case "critical":
		return 3
	case "high":
		return 2
	case "medium":
		return 1
	default:
		return 0
	}
}

// Max returns the label with the greatest weight. Ties keep the
// first-encountered label; equal weight never replaces the running maximum.
// An empty input returns None.
func Max(labels []string) string {
	if len(labels) == 0 {
		return None
	}
	max := labels[0]
	for _, l := range labels[1:] {
		if Weight(l) > Weight(max) {
			max = l
		}
	}
	return max
}

// Style names the render style for a label. Unknown labels fall back to the
// medium style so a surprise label from the service still renders.
func Style(label string) string {
	switch strings.ToLower(label) {
	case "critical", "high", "medium", "low":
		return strings.ToLower(label)
	default:
		return "medium"
	}
}
