package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ExchangeRateProvider converts an amount between two currencies. Failures
// are retryable from the caller's point of view: the normalizer maps them to
// RateUnavailable rather than rejecting the user's request.
type ExchangeRateProvider interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// StaticProvider converts using a fixed table of rates quoted from the base
// currency (rate = 1 base unit expressed in the quoted currency). Used as the
// fallback table and in tests.
type StaticProvider struct {
	base  string
	rates map[string]decimal.Decimal
}

// NewStaticProvider builds a provider from a base currency and a base→quote
// rate table. The base itself always carries rate 1.
func NewStaticProvider(base string, rates map[string]decimal.Decimal) *StaticProvider {
	table := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		table[code] = rate
	}
	table[base] = decimal.NewFromInt(1)
	return &StaticProvider{base: base, rates: table}
}

func (p *StaticProvider) Convert(_ context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromRate, ok := p.rates[from]
	if !ok || fromRate.IsZero() {
		return decimal.Zero, fmt.Errorf("static rates: no rate for %s", from)
	}
	toRate, ok := p.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("static rates: no rate for %s", to)
	}
	// from → base → to
	return amount.Div(fromRate).Mul(toRate), nil
}

// HTTPProvider fetches a base-quoted rate table from an exchange-rate API and
// caches it for a TTL. Concurrent refreshes are collapsed with singleflight.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
	ttl      time.Duration

	group singleflight.Group

	mu        sync.RWMutex
	cached    *StaticProvider
	fetchedAt time.Time
}

// NewHTTPProvider builds a provider for an endpoint returning
// {"base":"AED","rates":{"USD":0.272,...}}. timeout bounds each fetch.
func NewHTTPProvider(endpoint string, timeout, ttl time.Duration) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		ttl:      ttl,
	}
}

func (p *HTTPProvider) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	table, err := p.table(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return table.Convert(ctx, amount, from, to)
}

func (p *HTTPProvider) table(ctx context.Context) (*StaticProvider, error) {
	p.mu.RLock()
	cached, fetchedAt := p.cached, p.fetchedAt
	p.mu.RUnlock()
	if cached != nil && time.Since(fetchedAt) < p.ttl {
		return cached, nil
	}

	v, err, _ := p.group.Do("rates", func() (any, error) {
		return p.fetch(ctx)
	})
	if err != nil {
		// A stale table beats a guess only within the TTL; past it we fail
		// and let the caller retry.
		return nil, err
	}
	return v.(*StaticProvider), nil
}

func (p *HTTPProvider) fetch(ctx context.Context) (*StaticProvider, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates endpoint: status %d", resp.StatusCode)
	}

	var payload struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rates endpoint: empty table")
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, rate := range payload.Rates {
		rates[code] = decimal.NewFromFloat(rate)
	}
	table := NewStaticProvider(payload.Base, rates)

	p.mu.Lock()
	p.cached = table
	p.fetchedAt = time.Now()
	p.mu.Unlock()
	return table, nil
}
