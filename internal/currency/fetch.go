// File: internal/currency/fetch.go
package currency

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Default public endpoints. Both are unauthenticated free tiers, which is
// why the fetcher never treats their failure as fatal.
const (
	DefaultCryptoURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin,ethereum,binancecoin,matic-network,solana,avalanche-2&vs_currencies=usd"
	DefaultForexURL  = "https://open.er-api.com/v6/latest/USD"
)

// cryptoIDs maps the price API's asset ids to our unit codes, with the
// fallback rate used when an id is missing from the response.
var cryptoIDs = []struct {
	id       string
	unit     string
	fallback float64
}{
	{"bitcoin", "BTC", 0.000017},
	{"ethereum", "ETH", 0.00033},
	{"binancecoin", "BNB", 0.002},
	{"matic-network", "MATIC", 0.5},
	{"solana", "SOL", 0.01},
	{"avalanche-2", "AVAX", 0.02},
}

// forexUnits are taken from the forex response verbatim: the API already
// reports them in the USD->unit direction the table stores.
var forexUnits = []string{"EUR", "GBP", "JPY", "CNY", "AED", "KWD", "TWD"}

// Fetcher builds a rate table from the public price APIs. Outbound calls
// share one rate limiter so a refresh loop cannot hammer the free tiers.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
	cryptoURL string
	forexURL  string
}

// NewFetcher creates a Fetcher. Empty URLs select the default endpoints; a
// nil client gets a timeout-bounded default.
func NewFetcher(client *http.Client, cryptoURL, forexURL string, rps float64, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cryptoURL == "" {
		cryptoURL = DefaultCryptoURL
	}
	if forexURL == "" {
		forexURL = DefaultForexURL
	}
	if rps <= 0 {
		rps = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger.Named("rates"),
		cryptoURL: cryptoURL,
		forexURL:  forexURL,
	}
}

// Fetch returns a complete rate table. Every degradation path fills in the
// documented fallback constants instead of failing: a rate table is always
// available to the aggregation layer.
func (f *Fetcher) Fetch(ctx context.Context) Table {
	table := Table{"USD": 1}

	if err := f.fetchCrypto(ctx, table); err != nil {
		f.logger.Warn("Crypto rate fetch failed, using fallback rates", zap.Error(err))
		for _, asset := range cryptoIDs {
			table[asset.unit] = asset.fallback
		}
	}

	if err := f.fetchForex(ctx, table); err != nil {
		f.logger.Warn("Forex rate fetch failed, using fallback rates", zap.Error(err))
		fallback := Fallback()
		for _, unit := range forexUnits {
			table[unit] = fallback[unit]
		}
	}

	f.logger.Info("Currency rate table ready", zap.Int("units", len(table)))
	return table
}

// fetchCrypto queries the simple-price endpoint and stores USD->unit rates
// derived from the returned USD prices.
func (f *Fetcher) fetchCrypto(ctx context.Context, table Table) error {
	body, err := f.get(ctx, f.cryptoURL)
	if err != nil {
		return err
	}

	var prices map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &prices); err != nil {
		return fmt.Errorf("decoding crypto rates: %w", err)
	}

	for _, asset := range cryptoIDs {
		entry, ok := prices[asset.id]
		if !ok || entry.USD <= 0 {
			f.logger.Warn("Price missing from crypto response, using fallback",
				zap.String("unit", asset.unit))
			table[asset.unit] = asset.fallback
			continue
		}
		table[asset.unit] = 1 / entry.USD
	}
	return nil
}

// fetchForex queries the USD forex endpoint and copies the supported units.
func (f *Fetcher) fetchForex(ctx context.Context, table Table) error {
	body, err := f.get(ctx, f.forexURL)
	if err != nil {
		return err
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decoding forex rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return fmt.Errorf("forex response contained no rates")
	}

	fallback := Fallback()
	for _, unit := range forexUnits {
		if v, ok := payload.Rates[unit]; ok && v > 0 {
			table[unit] = v
			continue
		}
		f.logger.Warn("Rate missing from forex response, using fallback",
			zap.String("unit", unit))
		table[unit] = fallback[unit]
	}
	return nil
}

// get performs one rate-limited HTTP GET.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
