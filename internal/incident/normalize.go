// File: internal/incident/normalize.go
package incident

import (
	"time"

	"go.uber.org/zap"
)

// Years outside this range are almost certainly placeholder or mistyped data
// in the source dataset. They still parse; they are only flagged.
const (
	minPlausibleYear = 1970
	maxPlausibleYear = 2050
)

// ParseCompactDate parses a compact YYYYMMDD date string into a UTC calendar
// date. The input must be exactly 8 ASCII digits. The decomposed components
// are round-tripped through time.Date: inputs like "20230230" (Feb 30) that
// Go would silently normalize to a different day are rejected instead.
func ParseCompactDate(s string) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, false
		}
	}

	year := atoi(s[0:4])
	month := atoi(s[4:6])
	day := atoi(s[6:8])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// SuspiciousYear reports whether a parsed date falls outside the plausible
// range for this dataset. Such dates are kept (some consumers want them
// visible) but worth a warning.
func SuspiciousYear(d time.Time) bool {
	y := d.UTC().Year()
	return y < minPlausibleYear || y > maxPlausibleYear
}

// atoi converts a digit-only substring; callers have already validated it.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// Normalize joins each incident with its root-cause entry and attaches the
// parsed calendar date. Incidents whose date does not parse are dropped
// entirely; this is the dataset's quality gate, so the drop count is logged
// rather than failing the run.
func Normalize(incidents []Incident, lookup RootCauseLookup, logger *zap.Logger) []Normalized {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]Normalized, 0, len(incidents))
	dropped := 0
	for _, in := range incidents {
		parsed, ok := ParseCompactDate(in.Date)
		if !ok {
			dropped++
			logger.Debug("Dropping incident with unparseable date",
				zap.String("name", in.Name),
				zap.String("date", in.Date),
			)
			continue
		}
		if SuspiciousYear(parsed) {
			logger.Warn("Incident date outside plausible range",
				zap.String("name", in.Name),
				zap.Int("year", parsed.Year()),
			)
		}

		n := Normalized{
			Incident:         in,
			ParsedDate:       parsed,
			RootCauseType:    in.Type,
			RootCauseDetails: "N/A",
		}
		if entry, found := lookup[in.Name]; found {
			if entry.Type != "" {
				n.RootCauseType = entry.Type
			}
			if entry.RootCause != "" {
				n.RootCauseDetails = entry.RootCause
			}
		}
		out = append(out, n)
	}

	if dropped > 0 {
		logger.Info("Excluded incidents with malformed dates",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(out)),
		)
	}
	return out
}
