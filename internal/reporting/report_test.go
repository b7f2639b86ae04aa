// File: internal/reporting/report_test.go
package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defiwatchers/rektscope/internal/analytics"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func sampleEnvelope() Envelope {
	env := NewEnvelope("1.2.0", analytics.Summary{
		Incidents:    3,
		TotalLossUSD: 1234567.89,
		LossByYear: []analytics.LossEntry{
			{Key: "2023", Loss: 1000000},
			{Key: "2024", Loss: 234567.89},
		},
		CountByType: []analytics.CountEntry{
			{Key: "Flash Loan Attack", Count: 2},
			{Key: "Rugpull", Count: 1},
		},
		RootCauseFrequency: []analytics.CountEntry{
			{Key: "Price Oracle Manipulation", Count: 2},
		},
		TopProjectsByLoss: []analytics.LossEntry{
			{Key: "Euler Finance", Loss: 1000000},
		},
	})
	env.IncidentCount = 3
	env.DroppedCount = 1
	env.Filter = "year=2023"
	env.DisplayCurrency = "ETH"
	env.ConvertedTotalLoss = 493.83
	return env
}

func TestNewEnvelopeStampsIdentity(t *testing.T) {
	a := NewEnvelope("1.0.0", analytics.Summary{})
	b := NewEnvelope("1.0.0", analytics.Summary{})

	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.False(t, a.GeneratedAt.IsZero())
	assert.Equal(t, "1.0.0", a.Version)
}

func TestJSONReporterRoundTrip(t *testing.T) {
	buf := &bufCloser{}
	r := &jsonReporter{writer: buf}

	env := sampleEnvelope()
	require.NoError(t, r.Write(env))
	require.NoError(t, r.Close())
	assert.True(t, buf.closed)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, env.RunID, decoded.RunID)
	assert.Equal(t, env.Summary.TotalLossUSD, decoded.Summary.TotalLossUSD)
	assert.Equal(t, "ETH", decoded.DisplayCurrency)
	assert.Len(t, decoded.Summary.LossByYear, 2)
}

func TestTextReporterRendersSections(t *testing.T) {
	buf := &bufCloser{}
	r := &textReporter{writer: buf}

	require.NoError(t, r.Write(sampleEnvelope()))
	out := buf.String()

	assert.Contains(t, out, "rektscope 1.2.0")
	assert.Contains(t, out, "scope      year=2023")
	assert.Contains(t, out, "incidents analyzed: 3 (1 dropped for invalid dates)")
	assert.Contains(t, out, "total loss (USD-denominated): 1,234,567.89")
	assert.Contains(t, out, "total loss (ETH): 493.83")
	assert.Contains(t, out, "Loss by year:")
	assert.Contains(t, out, "Incidents by attack type:")
	assert.Contains(t, out, "Root causes:")
	assert.Contains(t, out, "Euler Finance")
}

func TestTextReporterOmitsConvertedTotalForUSD(t *testing.T) {
	buf := &bufCloser{}
	r := &textReporter{writer: buf}

	env := sampleEnvelope()
	env.DisplayCurrency = "usd"
	require.NoError(t, r.Write(env))

	assert.NotContains(t, buf.String(), "total loss (usd)")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	r, err := New("json", path)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleEnvelope()))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"display_currency": "ETH"`)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("sarif", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:           "0.00",
		999.5:       "999.50",
		1000:        "1,000.00",
		1234567.891: "1,234,567.89",
		-2500:       "-2,500.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatAmount(in), "input %v", in)
	}
}
