// Package geography holds the static catalog of analyzable regions and the
// suggestion matcher used by the query surface.
package geography

import "strings"

// Catalog is the fixed set of selectable geographies, in display order.
var Catalog = []string{
	"Florida - Southeast", "Florida - Gulf Coast", "Florida - Panhandle",
	"California - North", "California - Southern", "California - Bay Area",
	"Texas - Gulf Coast", "Texas - North", "Texas - Central",
	"Louisiana", "Mississippi", "Alabama - Gulf",
	"New York - Metro", "New York - Long Island", "New Jersey - Coast",
	"South Carolina - Coast", "North Carolina - Coast",
	"Georgia - Coast", "Virginia - Coast",
	"Oklahoma", "Kansas", "Nebraska",
	"Colorado - Front Range", "Arizona - Phoenix Metro",
	"Washington - Puget Sound", "Oregon - Coast",
	"Hawaii", "Puerto Rico",
	"Midwest Tornado Alley", "Northeast Corridor",
}

// defaultSuggestions caps the list returned for an empty query.
const defaultSuggestions = 10

// Match returns the catalog entries whose lowercase form contains the
// lowercase query, in catalog order. An empty or whitespace query returns
// the first ten entries.
func Match(query string, catalog []string) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		n := min(defaultSuggestions, len(catalog))
		return catalog[:n:n]
	}
	q = strings.ToLower(q)
	var out []string
	for _, g := range catalog {
		if strings.Contains(strings.ToLower(g), q) {
			out = append(out, g)
		}
	}
	return out
}
