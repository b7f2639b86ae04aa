// File: internal/analytics/aggregate.go

// Package analytics derives aggregate statistics from normalized incident
// collections. Every function here is pure: it takes a slice (the full
// collection or any filtered subset), never mutates it, and returns the same
// output for the same input. The presentation layer recomputes these on
// every filter change, so idempotence is part of the contract.
package analytics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/defiwatchers/rektscope/internal/incident"
	"github.com/defiwatchers/rektscope/internal/protocol"
)

// LossEntry is one key of a loss aggregation with its summed USD amount.
type LossEntry struct {
	Key  string  `json:"key"`
	Loss float64 `json:"loss"`
}

// CountEntry is one key of a frequency aggregation.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// isUSD reports whether a loss is recorded directly in USD. The dataset is
// inconsistent about casing ("USD", "usd", "Usd").
func isUSD(lossType string) bool {
	return strings.EqualFold(lossType, "USD")
}

// TotalLossUSD sums losses recorded in USD. Non-USD, missing and non-finite
// amounts contribute zero. Cross-currency totals are the currency package's
// job; this is the narrower reporting definition used by the global
// aggregate view.
func TotalLossUSD(rows []incident.Normalized) float64 {
	var total float64
	for _, row := range rows {
		if !isUSD(row.LossType) {
			continue
		}
		if v, ok := row.LostAmount(); ok {
			total += v
		}
	}
	return total
}

// LossByYearUSD groups USD losses by the incident's UTC year. Entries are
// ordered ascending by year: the consumer is a chronological trend line.
func LossByYearUSD(rows []incident.Normalized) []LossEntry {
	sums := make(map[string]float64)
	var order []string
	for _, row := range rows {
		if !isUSD(row.LossType) {
			continue
		}
		v, ok := row.LostAmount()
		if !ok {
			continue
		}
		year := strconv.Itoa(row.Year())
		if _, seen := sums[year]; !seen {
			order = append(order, year)
		}
		sums[year] += v
	}

	entries := lossEntries(sums, order)
	sort.SliceStable(entries, func(i, j int) bool {
		return yearValue(entries[i].Key) < yearValue(entries[j].Key)
	})
	return entries
}

// LossByTypeUSD groups USD losses by attack type, ordered descending by
// summed loss. Rows without a type are skipped.
func LossByTypeUSD(rows []incident.Normalized) []LossEntry {
	sums := make(map[string]float64)
	var order []string
	for _, row := range rows {
		if row.Type == "" || !isUSD(row.LossType) {
			continue
		}
		v, ok := row.LostAmount()
		if !ok {
			continue
		}
		if _, seen := sums[row.Type]; !seen {
			order = append(order, row.Type)
		}
		sums[row.Type] += v
	}

	entries := lossEntries(sums, order)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Loss > entries[j].Loss
	})
	return entries
}

// CountByType counts incidents per attack type, descending by count.
func CountByType(rows []incident.Normalized) []CountEntry {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		if row.Type == "" {
			continue
		}
		if _, seen := counts[row.Type]; !seen {
			order = append(order, row.Type)
		}
		counts[row.Type]++
	}

	entries := countEntries(counts, order)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// CountByYear counts incidents per UTC year, descending by year. Note the
// asymmetry with LossByYearUSD: a "latest year first" summary reads
// most-recent-first, while the loss trend reads chronologically.
func CountByYear(rows []incident.Normalized) []CountEntry {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		year := strconv.Itoa(row.Year())
		if _, seen := counts[year]; !seen {
			order = append(order, year)
		}
		counts[year]++
	}

	entries := countEntries(counts, order)
	sort.SliceStable(entries, func(i, j int) bool {
		return yearValue(entries[i].Key) > yearValue(entries[j].Key)
	})
	return entries
}

// RootCauseFrequency counts incidents by the main type of their root-cause
// entry (the segment before the first comma), falling back to the row's own
// attack type when no entry exists. Descending by count.
func RootCauseFrequency(rows []incident.Normalized, lookup incident.RootCauseLookup) []CountEntry {
	counts := make(map[string]int)
	var order []string

	bump := func(key string) {
		if key == "" {
			return
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	for _, row := range rows {
		if entry, found := lookup[row.Name]; found && entry.Type != "" {
			bump(entry.MainType())
			continue
		}
		bump(row.Type)
	}

	entries := countEntries(counts, order)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// AttackTypeMatrix is a dense year-by-type incident count grid for the top
// attack types.
type AttackTypeMatrix struct {
	// Years ascending.
	Years []string `json:"years"`
	// Types by overall frequency, descending.
	Types []string `json:"types"`
	// Counts[i][j] is the number of incidents in Years[i] of Types[j];
	// missing combinations are zero.
	Counts [][]int `json:"counts"`
}

// topAttackTypes is the matrix width; more clutters the chart it feeds.
const topAttackTypes = 5

// AttackTypesByYear builds the year-by-type matrix over the top five attack
// types by overall frequency. Rows without a type or date do not contribute
// a year column.
func AttackTypesByYear(rows []incident.Normalized) AttackTypeMatrix {
	yearSet := make(map[string]bool)
	for _, row := range rows {
		if row.Type == "" {
			continue
		}
		yearSet[strconv.Itoa(row.Year())] = true
	}
	years := make([]string, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	sort.Strings(years)

	byType := CountByType(rows)
	if len(byType) > topAttackTypes {
		byType = byType[:topAttackTypes]
	}
	types := make([]string, len(byType))
	typeIndex := make(map[string]int, len(byType))
	for i, e := range byType {
		types[i] = e.Key
		typeIndex[e.Key] = i
	}

	yearIndex := make(map[string]int, len(years))
	for i, y := range years {
		yearIndex[y] = i
	}

	counts := make([][]int, len(years))
	for i := range counts {
		counts[i] = make([]int, len(types))
	}
	for _, row := range rows {
		ti, ok := typeIndex[row.Type]
		if !ok {
			continue
		}
		yi, ok := yearIndex[strconv.Itoa(row.Year())]
		if !ok {
			continue
		}
		counts[yi][ti]++
	}

	return AttackTypeMatrix{Years: years, Types: types, Counts: counts}
}

// MonthlyDistribution counts incidents per UTC calendar month across all
// years. Index 0 is January.
func MonthlyDistribution(rows []incident.Normalized) [12]int {
	var months [12]int
	for _, row := range rows {
		months[int(row.Month())-1]++
	}
	return months
}

// TopProjectsByLossUSD returns the n incidents with the largest USD-recorded
// losses, keyed by project name, descending.
func TopProjectsByLossUSD(rows []incident.Normalized, n int) []LossEntry {
	var entries []LossEntry
	for _, row := range rows {
		if !isUSD(row.LossType) {
			continue
		}
		if v, ok := row.LostAmount(); ok {
			entries = append(entries, LossEntry{Key: row.Name, Loss: v})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Loss > entries[j].Loss
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// ProtocolFrequency ranks canonical protocols by incident count for the
// given subset. See the protocol package for the matching rules.
func ProtocolFrequency(rows []incident.Normalized) []protocol.Bucket {
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	return protocol.Frequency(names)
}

func lossEntries(sums map[string]float64, order []string) []LossEntry {
	entries := make([]LossEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, LossEntry{Key: key, Loss: sums[key]})
	}
	return entries
}

func countEntries(counts map[string]int, order []string) []CountEntry {
	entries := make([]CountEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, CountEntry{Key: key, Count: counts[key]})
	}
	return entries
}

func yearValue(key string) int {
	v, _ := strconv.Atoi(key)
	return v
}
