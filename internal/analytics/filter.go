// File: internal/analytics/filter.go
package analytics

import (
	"strconv"
	"strings"

	"github.com/defiwatchers/rektscope/internal/incident"
)

// Filter selects the subset of incidents the aggregations run over. It
// mirrors the view controls of the dashboard this pipeline feeds: a year,
// an attack type, and a free-text project search. Zero values match
// everything.
type Filter struct {
	Year  int
	Type  string
	Query string
}

// IsZero reports whether the filter matches the whole collection.
func (f Filter) IsZero() bool {
	return f.Year == 0 && f.Type == "" && f.Query == ""
}

// String describes the filter for report metadata and logs.
func (f Filter) String() string {
	if f.IsZero() {
		return "all incidents"
	}
	var parts []string
	if f.Year != 0 {
		parts = append(parts, "year="+strconv.Itoa(f.Year))
	}
	if f.Type != "" {
		parts = append(parts, "type="+f.Type)
	}
	if f.Query != "" {
		parts = append(parts, "search="+f.Query)
	}
	return strings.Join(parts, " ")
}

// Apply returns the matching subset. The input slice is never modified; the
// result is a fresh slice sharing the row values.
func (f Filter) Apply(rows []incident.Normalized) []incident.Normalized {
	if f.IsZero() {
		out := make([]incident.Normalized, len(rows))
		copy(out, rows)
		return out
	}

	query := strings.ToLower(f.Query)
	out := make([]incident.Normalized, 0, len(rows))
	for _, row := range rows {
		if f.Year != 0 && row.Year() != f.Year {
			continue
		}
		if f.Type != "" && !strings.EqualFold(row.Type, f.Type) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(row.Name), query) {
			continue
		}
		out = append(out, row)
	}
	return out
}
