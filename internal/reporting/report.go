// File: internal/reporting/report.go

// Package reporting renders an analysis run into its final output form.
// The JSON envelope is the machine interface; the text renderer is a
// terminal summary of the same data.
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/defiwatchers/rektscope/internal/analytics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the top level report document. Every run gets a fresh ID so
// downstream consumers can distinguish re-runs over the same dataset.
type Envelope struct {
	RunID              string            `json:"run_id"`
	GeneratedAt        time.Time         `json:"generated_at"`
	Version            string            `json:"version"`
	IncidentCount      int               `json:"incident_count"`
	DroppedCount       int               `json:"dropped_count"`
	Filter             string            `json:"filter"`
	DisplayCurrency    string            `json:"display_currency"`
	ConvertedTotalLoss float64           `json:"converted_total_loss"`
	Summary            analytics.Summary `json:"summary"`
}

// NewEnvelope stamps run identity onto a computed summary.
func NewEnvelope(version string, summary analytics.Summary) Envelope {
	return Envelope{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Version:     version,
		Summary:     summary,
	}
}

// Reporter writes a completed envelope to its destination.
type Reporter interface {
	Write(env Envelope) error
	Close() error
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// New builds a reporter for the given format writing to outputPath. An
// empty path or "stdout" writes to standard output and Close becomes a
// no-op.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		writer = nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "json":
		return &jsonReporter{writer: writer}, nil
	case "text":
		return &textReporter{writer: writer}, nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

type jsonReporter struct {
	writer io.WriteCloser
}

func (r *jsonReporter) Write(env Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *jsonReporter) Close() error { return r.writer.Close() }

type textReporter struct {
	writer io.WriteCloser
}

func (r *textReporter) Write(env Envelope) error {
	var b strings.Builder

	fmt.Fprintf(&b, "rektscope %s  run %s\n", env.Version, env.RunID)
	fmt.Fprintf(&b, "generated  %s\n", env.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "scope      %s\n\n", env.Filter)

	fmt.Fprintf(&b, "incidents analyzed: %d", env.IncidentCount)
	if env.DroppedCount > 0 {
		fmt.Fprintf(&b, " (%d dropped for invalid dates)", env.DroppedCount)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "total loss (USD-denominated): %s\n", formatAmount(env.Summary.TotalLossUSD))
	if !strings.EqualFold(env.DisplayCurrency, "USD") {
		fmt.Fprintf(&b, "total loss (%s): %s\n", env.DisplayCurrency, formatAmount(env.ConvertedTotalLoss))
	}
	b.WriteString("\n")

	writeLossSection(&b, "Loss by year", env.Summary.LossByYear)
	writeCountSection(&b, "Incidents by year", env.Summary.CountByYear)
	writeLossSection(&b, "Loss by attack type", env.Summary.LossByType)
	writeCountSection(&b, "Incidents by attack type", env.Summary.CountByType)
	writeCountSection(&b, "Root causes", env.Summary.RootCauseFrequency)
	writeProtocols(&b, env.Summary)
	writeAttackMatrix(&b, env.Summary.AttackTypesByYear)
	writeMonthly(&b, env.Summary.MonthlyDistribution)
	writeTopProjects(&b, env.Summary.TopProjectsByLoss)

	_, err := io.WriteString(r.writer, b.String())
	return err
}

func (r *textReporter) Close() error { return r.writer.Close() }

func writeLossSection(b *strings.Builder, title string, entries []analytics.LossEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(b, "  %-28s %s\n", e.Key, formatAmount(e.Loss))
	}
	b.WriteString("\n")
}

func writeCountSection(b *strings.Builder, title string, entries []analytics.CountEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(b, "  %-28s %d\n", e.Key, e.Count)
	}
	b.WriteString("\n")
}

func writeProtocols(b *strings.Builder, s analytics.Summary) {
	if len(s.ProtocolFrequency) == 0 {
		return
	}
	b.WriteString("Most targeted protocols:\n")
	for _, bucket := range s.ProtocolFrequency {
		fmt.Fprintf(b, "  %-28s %d\n", bucket.Name, bucket.Count)
	}
	b.WriteString("\n")
}

func writeAttackMatrix(b *strings.Builder, m analytics.AttackTypeMatrix) {
	if len(m.Years) == 0 || len(m.Types) == 0 {
		return
	}
	b.WriteString("Attack types by year:\n")
	fmt.Fprintf(b, "  %-8s", "")
	for _, typ := range m.Types {
		fmt.Fprintf(b, " %-20s", typ)
	}
	b.WriteString("\n")
	for i, year := range m.Years {
		fmt.Fprintf(b, "  %-8s", year)
		for _, count := range m.Counts[i] {
			fmt.Fprintf(b, " %-20d", count)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeMonthly(b *strings.Builder, months [12]int) {
	total := 0
	for _, c := range months {
		total += c
	}
	if total == 0 {
		return
	}
	b.WriteString("Monthly distribution:\n")
	for i, c := range months {
		fmt.Fprintf(b, "  %-28s %d\n", time.Month(i+1).String(), c)
	}
	b.WriteString("\n")
}

func writeTopProjects(b *strings.Builder, entries []analytics.LossEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("Largest incidents by USD loss:\n")
	for i, e := range entries {
		fmt.Fprintf(b, "  %2d. %-26s %s\n", i+1, e.Key, formatAmount(e.Loss))
	}
	b.WriteString("\n")
}

// formatAmount renders a dollar-scale value with thousands separators.
func formatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}
