// File: internal/currency/table.go

// Package currency converts loss amounts between the heterogeneous units the
// incident dataset records (native tokens, stablecoins, fiat) and the unit
// the user wants figures displayed in. Rates are fetched once per session
// with documented static fallbacks; a missing rate degrades to a constant,
// it never fails an aggregation.
package currency

import (
	"sort"
	"sync/atomic"
)

// Table is a rate snapshot keyed by unit code. Rates are stored in the
// "USD to unit" direction: rate["ETH"] is how many ETH one USD buys, so
// converting ETH to USD divides by the rate. USD is always present with
// rate 1. Tables are treated as immutable once built; refreshing swaps the
// whole snapshot (see Store).
type Table map[string]float64

// Fallback returns the static rate table used when the live sources are
// unreachable. Values are deliberately coarse; they exist so the dashboard
// keeps working offline, not to be accurate.
func Fallback() Table {
	return Table{
		"USD":   1,
		"BTC":   0.000017,
		"ETH":   0.00033,
		"BNB":   0.002,
		"MATIC": 0.5,
		"SOL":   0.01,
		"AVAX":  0.02,
		"EUR":   0.92,
		"GBP":   0.79,
		"JPY":   150.5,
		"CNY":   7.2,
		"AED":   3.67,
		"KWD":   0.31,
		"TWD":   32.0,
	}
}

// Units returns the table's unit codes in sorted order, for display.
func (t Table) Units() []string {
	units := make([]string, 0, len(t))
	for unit := range t {
		units = append(units, unit)
	}
	sort.Strings(units)
	return units
}

// clone returns a copy so builders never alias a published snapshot.
func (t Table) clone() Table {
	out := make(Table, len(t))
	for unit, rate := range t {
		out[unit] = rate
	}
	return out
}

// Store holds the process-wide rate snapshot. Readers load the current
// table; a refresh replaces it atomically, so concurrent aggregations never
// observe a half-updated table.
type Store struct {
	table atomic.Pointer[Table]
}

// NewStore returns a Store seeded with the fallback table.
func NewStore() *Store {
	s := &Store{}
	fallback := Fallback()
	s.table.Store(&fallback)
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() Table {
	return *s.table.Load()
}

// Replace publishes a new snapshot. The given table is copied.
func (s *Store) Replace(t Table) {
	snapshot := t.clone()
	s.table.Store(&snapshot)
}
