// File: internal/currency/convert.go
package currency

import (
	"math"
	"strings"

	"go.uber.org/zap"
)

// wrappedAliases maps wrapped tokens onto the asset they track; the price
// difference is negligible at reporting granularity.
var wrappedAliases = map[string]string{
	"WETH": "ETH",
	"WBNB": "BNB",
	"WBTC": "BTC",
}

// fallbackUSDValue is the approximate USD price per unit, used when the rate
// table has no entry for a known crypto unit.
var fallbackUSDValue = map[string]float64{
	"ETH":   2500,
	"BNB":   500,
	"BTC":   60000,
	"MATIC": 2,
	"SOL":   100,
	"AVAX":  50,
}

// Converter converts amounts against one rate snapshot.
type Converter struct {
	table  Table
	logger *zap.Logger
}

// NewConverter wraps a rate snapshot. The logger records degraded
// conversions (missing rates, unknown units); pass nil to silence them.
func NewConverter(table Table, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{table: table, logger: logger.Named("currency")}
}

// Convert converts amount from one unit to another in two hops through USD.
// Behavior under degradation, in order:
//   - a non-finite or zero-value amount yields 0, never NaN;
//   - wrapped tokens (WETH, WBNB, WBTC) convert as their underlying asset;
//   - a known crypto unit missing from the table uses its fallback USD
//     price and logs a warning;
//   - an unknown source unit is treated as already USD. That is the
//     documented policy for units nobody added handling for, not a bug;
//   - a target unit missing from the table is left in USD (rate 1).
func (c *Converter) Convert(amount float64, from, to string) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}

	from = normalizeUnit(from)
	to = normalizeUnit(to)

	usd := c.toUSD(amount, from)
	if to == "USD" {
		return usd
	}

	rate, ok := c.table[to]
	if !ok || rate == 0 {
		c.logger.Warn("No rate for display unit, leaving amount in USD",
			zap.String("unit", to))
		return usd
	}
	return usd * rate
}

// toUSD converts an amount in the source unit to USD.
func (c *Converter) toUSD(amount float64, from string) float64 {
	if from == "USD" {
		return amount
	}

	if rate, ok := c.table[from]; ok && rate != 0 {
		// The table stores USD->unit rates, so unit->USD divides.
		return amount / rate
	}

	if usdValue, ok := fallbackUSDValue[from]; ok {
		c.logger.Warn("No live rate for unit, using fallback price",
			zap.String("unit", from),
			zap.Float64("usd_value", usdValue))
		return amount * usdValue
	}

	c.logger.Warn("No handling for unit, assuming USD equivalent",
		zap.String("unit", from))
	return amount
}

// normalizeUnit upper-cases a unit code and resolves wrapped-token aliases.
// An empty unit means the dataset recorded the loss without one; USD is the
// documented default.
func normalizeUnit(unit string) string {
	unit = strings.ToUpper(strings.TrimSpace(unit))
	if unit == "" {
		return "USD"
	}
	if base, ok := wrappedAliases[unit]; ok {
		return base
	}
	return unit
}
