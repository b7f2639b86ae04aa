// File: internal/analytics/summary.go
package analytics

import (
	"github.com/defiwatchers/rektscope/internal/incident"
	"github.com/defiwatchers/rektscope/internal/protocol"
)

// topProjects is how many of the largest losses the summary carries.
const topProjects = 10

// Summary is the analysis-ready snapshot derived from one pass over a
// (possibly filtered) incident collection. It is rebuilt from scratch
// whenever the active subset changes; nothing in it is cached or shared.
type Summary struct {
	Incidents int `json:"incidents"`

	// TotalLossUSD uses the USD-only reporting rule; it deliberately
	// diverges from display totals computed with currency conversion.
	TotalLossUSD float64 `json:"total_loss_usd"`

	LossByYear  []LossEntry  `json:"loss_by_year"`
	LossByType  []LossEntry  `json:"loss_by_type"`
	CountByYear []CountEntry `json:"count_by_year"`
	CountByType []CountEntry `json:"count_by_type"`

	RootCauseFrequency []CountEntry      `json:"root_cause_frequency"`
	ProtocolFrequency  []protocol.Bucket `json:"protocol_frequency"`

	AttackTypesByYear   AttackTypeMatrix `json:"attack_types_by_year"`
	MonthlyDistribution [12]int          `json:"monthly_distribution"`
	TopProjectsByLoss   []LossEntry      `json:"top_projects_by_loss"`
}

// Summarize runs every aggregation over the given subset.
func Summarize(rows []incident.Normalized, lookup incident.RootCauseLookup) Summary {
	return Summary{
		Incidents:           len(rows),
		TotalLossUSD:        TotalLossUSD(rows),
		LossByYear:          LossByYearUSD(rows),
		LossByType:          LossByTypeUSD(rows),
		CountByYear:         CountByYear(rows),
		CountByType:         CountByType(rows),
		RootCauseFrequency:  RootCauseFrequency(rows, lookup),
		ProtocolFrequency:   ProtocolFrequency(rows),
		AttackTypesByYear:   AttackTypesByYear(rows),
		MonthlyDistribution: MonthlyDistribution(rows),
		TopProjectsByLoss:   TopProjectsByLossUSD(rows, topProjects),
	}
}

// ConvertFunc converts an amount from one unit to another. It matches the
// currency package's converter so analytics does not depend on rate tables.
type ConvertFunc func(amount float64, from, to string) float64

// ConvertedTotalLoss sums every finite loss in the subset converted to the
// display unit. Unlike TotalLossUSD this includes non-USD losses, so the two
// totals legitimately differ; both definitions exist in the product.
func ConvertedTotalLoss(rows []incident.Normalized, convert ConvertFunc, display string) float64 {
	var total float64
	for _, row := range rows {
		v, ok := row.LostAmount()
		if !ok {
			continue
		}
		unit := row.LossType
		if unit == "" {
			unit = "USD"
		}
		total += convert(v, unit, display)
	}
	return total
}
