// File: internal/analytics/aggregate_test.go
package analytics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defiwatchers/rektscope/internal/incident"
)

func f64(v float64) *float64 { return &v }

// row builds a normalized incident for tests.
func row(name, date, typ string, lost *float64, lossType string) incident.Normalized {
	parsed, ok := incident.ParseCompactDate(date)
	if !ok {
		panic("test row has invalid date: " + date)
	}
	return incident.Normalized{
		Incident: incident.Incident{
			Name:     name,
			Date:     date,
			Type:     typ,
			Lost:     lost,
			LossType: lossType,
		},
		ParsedDate:       parsed,
		RootCauseType:    typ,
		RootCauseDetails: "N/A",
	}
}

func TestTotalLossUSD(t *testing.T) {
	rows := []incident.Normalized{
		row("A", "20230101", "TypeA", f64(100), "usd"),        // case-insensitive match
		row("B", "20230102", "TypeB", f64(50), "ETH"),         // non-USD excluded
		row("C", "20230103", "TypeC", nil, "USD"),             // missing amount excluded
		row("D", "20230104", "TypeD", f64(math.NaN()), "USD"), // NaN excluded
	}
	assert.Equal(t, 100.0, TotalLossUSD(rows))
}

func TestLossByYearUSD_AscendingRegardlessOfInputOrder(t *testing.T) {
	rows := []incident.Normalized{
		row("A", "20240110", "T", f64(2000), "USD"),
		row("B", "20210510", "T", f64(300), "USD"),
		row("C", "20230220", "T", f64(1000), "USD"),
		row("D", "20210610", "T", f64(700), "USD"),
		row("E", "20230101", "T", f64(5), "ETH"), // not USD, excluded
	}

	got := LossByYearUSD(rows)
	want := []LossEntry{
		{Key: "2021", Loss: 1000},
		{Key: "2023", Loss: 1000},
		{Key: "2024", Loss: 2000},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestLossByTypeUSD_DescendingBySum(t *testing.T) {
	rows := []incident.Normalized{
		row("A", "20230101", "Rugpull", f64(100), "USD"),
		row("B", "20230102", "Reentrancy", f64(900), "USD"),
		row("C", "20230103", "Rugpull", f64(200), "USD"),
		row("D", "20230104", "", f64(999), "USD"), // untyped rows skipped
	}

	got := LossByTypeUSD(rows)
	want := []LossEntry{
		{Key: "Reentrancy", Loss: 900},
		{Key: "Rugpull", Loss: 300},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestCountOrderings(t *testing.T) {
	rows := []incident.Normalized{
		row("A", "20230101", "TypeA", f64(1000), "USD"),
		row("B", "20230601", "TypeB", f64(500), "ETH"),
		row("C", "20240101", "TypeA", f64(2000), "USD"),
	}

	byYear := CountByYear(rows)
	require.Len(t, byYear, 2)
	// Descending by year: latest first.
	assert.Equal(t, CountEntry{Key: "2024", Count: 1}, byYear[0])
	assert.Equal(t, CountEntry{Key: "2023", Count: 2}, byYear[1])

	byType := CountByType(rows)
	require.Len(t, byType, 2)
	assert.Equal(t, CountEntry{Key: "TypeA", Count: 2}, byType[0])
	assert.Equal(t, CountEntry{Key: "TypeB", Count: 1}, byType[1])
}

func TestCountByType_TiesKeepEncounterOrder(t *testing.T) {
	rows := []incident.Normalized{
		row("A", "20230101", "Zeta", nil, ""),
		row("B", "20230102", "Alpha", nil, ""),
		row("C", "20230103", "Zeta", nil, ""),
		row("D", "20230104", "Alpha", nil, ""),
	}

	got := CountByType(rows)
	require.Len(t, got, 2)
	// Equal counts: first-encountered key wins, not lexical order.
	assert.Equal(t, "Zeta", got[0].Key)
	assert.Equal(t, "Alpha", got[1].Key)
}

func TestRootCauseFrequency(t *testing.T) {
	lookup := incident.RootCauseLookup{
		"Alpha": {Type: "Reentrancy, Flash Loan"},
		"Beta":  {Type: "Reentrancy"},
	}
	rows := []incident.Normalized{
		row("Alpha", "20230101", "Exploit", nil, ""),
		row("Beta", "20230102", "Exploit", nil, ""),
		row("Gamma", "20230103", "Phishing", nil, ""), // no entry, own type
	}

	got := RootCauseFrequency(rows, lookup)
	want := []CountEntry{
		{Key: "Reentrancy", Count: 2}, // only the main type before the comma
		{Key: "Phishing", Count: 1},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestAttackTypesByYear(t *testing.T) {
	rows := []incident.Normalized{
		row("A", "20220101", "TypeA", nil, ""),
		row("B", "20220201", "TypeA", nil, ""),
		row("C", "20220301", "TypeB", nil, ""),
		row("D", "20230101", "TypeB", nil, ""),
		row("E", "20230201", "TypeC", nil, ""),
		row("F", "20230301", "", nil, ""), // untyped: no year contribution
	}

	m := AttackTypesByYear(rows)
	assert.Equal(t, []string{"2022", "2023"}, m.Years)
	assert.Equal(t, []string{"TypeA", "TypeB", "TypeC"}, m.Types)
	want := [][]int{
		{2, 1, 0}, // 2022
		{0, 1, 1}, // 2023
	}
	assert.Empty(t, cmp.Diff(want, m.Counts))
}

func TestAttackTypesByYear_TruncatesToTopFive(t *testing.T) {
	var rows []incident.Normalized
	types := []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7"}
	for i, typ := range types {
		// Type Tn appears len(types)-i times so frequency is descending.
		for j := 0; j <= len(types)-i; j++ {
			rows = append(rows, row("P", "20230101", typ, nil, ""))
		}
	}

	m := AttackTypesByYear(rows)
	assert.Equal(t, []string{"T1", "T2", "T3", "T4", "T5"}, m.Types)
	require.Len(t, m.Counts, 1)
	assert.Len(t, m.Counts[0], 5)
}

func TestMonthlyDistribution(t *testing.T) {
	rows := []incident.Normalized{
		row("A", "20230115", "T", nil, ""),
		row("B", "20220120", "T", nil, ""),
		row("C", "20231201", "T", nil, ""),
	}
	months := MonthlyDistribution(rows)
	assert.Equal(t, 2, months[0])  // January across both years
	assert.Equal(t, 1, months[11]) // December
	assert.Equal(t, 0, months[5])
}

func TestTopProjectsByLossUSD(t *testing.T) {
	rows := []incident.Normalized{
		row("Small", "20230101", "T", f64(10), "USD"),
		row("Big", "20230102", "T", f64(1000), "USD"),
		row("Medium", "20230103", "T", f64(100), "USD"),
		row("NotUSD", "20230104", "T", f64(99999), "ETH"),
	}

	got := TopProjectsByLossUSD(rows, 2)
	want := []LossEntry{
		{Key: "Big", Loss: 1000},
		{Key: "Medium", Loss: 100},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestSummarize_EndToEndScenario(t *testing.T) {
	// Three incidents: two in 2023 (one USD, one ETH), one in 2024 (USD).
	rows := []incident.Normalized{
		row("P1", "20230310", "TypeA", f64(1000), "USD"),
		row("P2", "20230915", "TypeB", f64(500), "ETH"),
		row("P3", "20240120", "TypeA", f64(2000), "USD"),
	}

	s := Summarize(rows, incident.RootCauseLookup{})

	// USD-only rule: the ETH loss is invisible to the global total.
	assert.Equal(t, 3000.0, s.TotalLossUSD)

	require.Len(t, s.CountByYear, 2)
	assert.Equal(t, CountEntry{Key: "2024", Count: 1}, s.CountByYear[0])
	assert.Equal(t, CountEntry{Key: "2023", Count: 2}, s.CountByYear[1])

	require.Len(t, s.LossByYear, 2)
	assert.Equal(t, LossEntry{Key: "2023", Loss: 1000}, s.LossByYear[0])
	assert.Equal(t, LossEntry{Key: "2024", Loss: 2000}, s.LossByYear[1])

	// The converted display total does include the ETH loss.
	convert := func(amount float64, from, to string) float64 {
		if from == "ETH" {
			return amount * 2500
		}
		return amount
	}
	total := ConvertedTotalLoss(rows, convert, "USD")
	assert.Equal(t, 3000.0+500*2500, total)
}

func TestAggregationsAreIdempotent(t *testing.T) {
	rows := []incident.Normalized{
		row("Alpha", "20230101", "TypeA", f64(100), "USD"),
		row("Beta", "20230601", "TypeB", f64(200), "ETH"),
		row("Alpha", "20240201", "TypeA", f64(300), "USD"),
	}
	lookup := incident.RootCauseLookup{"Alpha": {Type: "Reentrancy"}}

	backup := make([]incident.Normalized, len(rows))
	copy(backup, rows)

	first := Summarize(rows, lookup)
	second := Summarize(rows, lookup)

	assert.Empty(t, cmp.Diff(first, second), "same input must give identical output")
	assert.Empty(t, cmp.Diff(backup, rows), "aggregation must not mutate its input")
}

func TestFilterApply(t *testing.T) {
	rows := []incident.Normalized{
		row("Uniswap", "20230101", "Reentrancy", nil, ""),
		row("Aave", "20230601", "Oracle", nil, ""),
		row("Uniswap", "20240201", "Reentrancy", nil, ""),
	}

	assert.Len(t, Filter{}.Apply(rows), 3)
	assert.Len(t, Filter{Year: 2023}.Apply(rows), 2)
	assert.Len(t, Filter{Type: "reentrancy"}.Apply(rows), 2, "type match is case-insensitive")
	assert.Len(t, Filter{Query: "uni"}.Apply(rows), 2)
	assert.Len(t, Filter{Year: 2023, Query: "aave"}.Apply(rows), 1)
	assert.Empty(t, Filter{Year: 2025}.Apply(rows))

	assert.Equal(t, "all incidents", Filter{}.String())
	assert.Equal(t, "year=2023 type=Oracle", Filter{Year: 2023, Type: "Oracle"}.String())
}
