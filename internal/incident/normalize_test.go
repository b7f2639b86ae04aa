// File: internal/incident/normalize_test.go
package incident

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func f64(v float64) *float64 { return &v }

func TestParseCompactDate(t *testing.T) {
	t.Run("valid dates round-trip", func(t *testing.T) {
		cases := map[string]time.Time{
			"20230228": time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC),
			"20200229": time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC), // leap year
			"19700101": time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
			"20241231": time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		}
		for input, want := range cases {
			got, ok := ParseCompactDate(input)
			require.True(t, ok, "expected %q to parse", input)
			assert.Equal(t, want, got)
		}
	})

	t.Run("impossible calendar days are rejected", func(t *testing.T) {
		for _, input := range []string{
			"20230230", // Feb 30
			"20230229", // Feb 29 in a non-leap year
			"20230431", // Apr 31
			"20231301", // month 13
			"20230100", // day 0
			"20230001", // month 0
		} {
			_, ok := ParseCompactDate(input)
			assert.False(t, ok, "expected %q to be rejected", input)
		}
	})

	t.Run("malformed inputs are rejected", func(t *testing.T) {
		for _, input := range []string{"", "2023", "202302281", "2023-2-28", "2023022a", "abcdefgh"} {
			_, ok := ParseCompactDate(input)
			assert.False(t, ok, "expected %q to be rejected", input)
		}
	})

	t.Run("implausible years parse but are flagged", func(t *testing.T) {
		d, ok := ParseCompactDate("18990415")
		require.True(t, ok)
		assert.True(t, SuspiciousYear(d))

		d, ok = ParseCompactDate("20230415")
		require.True(t, ok)
		assert.False(t, SuspiciousYear(d))
	})
}

// FuzzParseCompactDate asserts the parser's core invariant: any accepted
// input must reproduce itself when the parsed date is formatted back.
func FuzzParseCompactDate(f *testing.F) {
	f.Add("20230228")
	f.Add("20230230")
	f.Add("00000000")
	f.Add("99991231")
	f.Add("not-a-date")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		d, ok := ParseCompactDate(input)
		if !ok {
			return
		}
		roundTripped := fmt.Sprintf("%04d%02d%02d", d.Year(), int(d.Month()), d.Day())
		if roundTripped != input {
			t.Errorf("accepted %q but round-trips to %q", input, roundTripped)
		}
		if !d.Equal(d.UTC()) {
			t.Errorf("parsed date for %q is not UTC", input)
		}
	})
}

func TestNormalize(t *testing.T) {
	logger := zaptest.NewLogger(t)

	lookup := RootCauseLookup{
		"Alpha": {Type: "Reentrancy, Flash Loan", RootCause: "Callback into the vault before state update."},
		"Beta":  {Type: "", RootCause: ""},
	}

	incidents := []Incident{
		{Name: "Alpha", Date: "20230115", Type: "Exploit", Lost: f64(1000), LossType: "USD"},
		{Name: "Beta", Date: "20220301", Type: "Rugpull"},
		{Name: "Gamma", Date: "20210620", Type: "Phishing"},
		{Name: "BadDate", Date: "20230230", Type: "Exploit"},
		{Name: "NoDate", Date: "", Type: "Exploit"},
	}

	rows := Normalize(incidents, lookup, logger)
	require.Len(t, rows, 3, "records with unparseable dates must be dropped")

	alpha := rows[0]
	assert.Equal(t, "Alpha", alpha.Name)
	assert.Equal(t, "Reentrancy, Flash Loan", alpha.RootCauseType)
	assert.Equal(t, "Callback into the vault before state update.", alpha.RootCauseDetails)
	assert.Equal(t, 2023, alpha.Year())

	// An entry with empty fields falls back the same way a missing one does.
	beta := rows[1]
	assert.Equal(t, "Rugpull", beta.RootCauseType)
	assert.Equal(t, "N/A", beta.RootCauseDetails)

	// No entry at all.
	gamma := rows[2]
	assert.Equal(t, "Phishing", gamma.RootCauseType)
	assert.Equal(t, "N/A", gamma.RootCauseDetails)
}

func TestRootCauseEntryMainType(t *testing.T) {
	assert.Equal(t, "Reentrancy", RootCauseEntry{Type: "Reentrancy, Flash Loan"}.MainType())
	assert.Equal(t, "Access Control", RootCauseEntry{Type: " Access Control "}.MainType())
	assert.Equal(t, "", RootCauseEntry{}.MainType())
}

func TestLostAmount(t *testing.T) {
	nan := f64(math.NaN())

	_, ok := Incident{}.LostAmount()
	assert.False(t, ok, "nil Lost must not be usable")

	_, ok = Incident{Lost: nan}.LostAmount()
	assert.False(t, ok, "NaN Lost must not be usable")

	v, ok := Incident{Lost: f64(42.5)}.LostAmount()
	require.True(t, ok)
	assert.Equal(t, 42.5, v)
}
