// Package nutrition provides the per-100g macro reference table and the
// arithmetic that turns ingredient weights into absolute nutrition values.
//
// The reference table is fetched once from a remote JSON document and cached
// for the life of the process. If the source is unreachable or malformed, a
// small embedded fallback table keeps the pipeline operational in a degraded
// state (and is itself cached — the source is not retried).
package nutrition

import "strings"

// Data holds macro values. Depending on context they are either per 100 g
// (reference table entries) or absolute (ingredient and meal totals).
type Data struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Table maps lower-cased canonical food names to per-100g macro values.
// A loaded table is never mutated.
type Table map[string]Data

// Lookup returns the per-100g entry for name, matching case-insensitively.
func (t Table) Lookup(name string) (Data, bool) {
	d, ok := t[strings.ToLower(name)]
	return d, ok
}

// Contains reports whether name exists in the table, case-insensitively.
func (t Table) Contains(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}
