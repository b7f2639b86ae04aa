// File: internal/incident/incident.go
package incident

import (
	"math"
	"strings"
	"time"
)

// Incident is one recorded exploit event, as it appears in the raw dataset.
// Field names mirror the upstream JSON, which mixes casing conventions
// (`Lost` and `Contract` are capitalized at the source).
type Incident struct {
	// Name identifies the affected project. Not unique: a project that was
	// exploited more than once appears in multiple records.
	Name string `json:"name"`
	// Date is a compact numeric string, YYYYMMDD.
	Date string `json:"date"`
	// Type is a free-text attack category. May be empty.
	Type string `json:"type"`
	// Lost is the loss amount in LossType units. A nil pointer means the
	// source row had no usable number.
	Lost *float64 `json:"Lost"`
	// LossType is the currency/unit code for Lost (USD, ETH, WBTC, ...).
	// Comparisons must be case-insensitive.
	LossType string `json:"lossType"`
	// Contract optionally points at proof-of-concept exploit code.
	Contract string `json:"Contract,omitempty"`
}

// LostAmount returns the loss value and whether it is a usable finite number.
func (i Incident) LostAmount() (float64, bool) {
	if i.Lost == nil {
		return 0, false
	}
	v := *i.Lost
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// RootCauseEntry is a post-mortem record keyed by project name. Entries exist
// for only a subset of incidents; a missing entry is expected, not an error.
type RootCauseEntry struct {
	// Type is a comma-separated classification. Only the segment before the
	// first comma is semantically significant (the "main type").
	Type string `json:"type"`
	// RootCause is narrative markdown, rendered by the consumer.
	RootCause string   `json:"rootCause"`
	Date      string   `json:"date"`
	Lost      *float64 `json:"Lost"`
	Images    []string `json:"images,omitempty"`
}

// MainType returns the segment of Type before the first comma, trimmed.
func (e RootCauseEntry) MainType() string {
	main, _, _ := strings.Cut(e.Type, ",")
	return strings.TrimSpace(main)
}

// RootCauseLookup maps project name to its post-mortem entry.
type RootCauseLookup map[string]RootCauseEntry

// Normalized is an incident after date parsing and the root-cause join.
// Only incidents whose date parsed successfully become Normalized.
type Normalized struct {
	Incident

	// ParsedDate is the validated UTC calendar date from the Date field.
	ParsedDate time.Time
	// RootCauseType is the joined entry's type, or the incident's own Type
	// when no entry exists.
	RootCauseType string
	// RootCauseDetails is the joined entry's narrative, or "N/A".
	RootCauseDetails string
}

// Year returns the UTC year of the parsed date.
func (n Normalized) Year() int { return n.ParsedDate.UTC().Year() }

// Month returns the UTC month of the parsed date.
func (n Normalized) Month() time.Month { return n.ParsedDate.UTC().Month() }
