// Package currency converts supported currency amounts into the canonical
// unit (AED, 2 decimal places) used for every limit comparison.
package currency

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
)

// minorUnits is the canonical currency's precision. Rounding is applied once
// at this boundary with round-half-to-even and never repeated downstream.
const minorUnits = 2

// Normalizer converts supported currency amounts to the canonical currency.
type Normalizer struct {
	canonical string
	supported map[string]bool
	provider  ExchangeRateProvider
	logger    *zap.Logger
}

// NewNormalizer builds a normalizer for the given canonical currency and
// supported set. The canonical currency is always supported.
func NewNormalizer(canonical string, supported []string, provider ExchangeRateProvider, logger *zap.Logger) *Normalizer {
	set := make(map[string]bool, len(supported)+1)
	for _, code := range supported {
		set[code] = true
	}
	set[canonical] = true
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		canonical: canonical,
		supported: set,
		provider:  provider,
		logger:    logger,
	}
}

// Canonical returns the canonical currency code.
func (n *Normalizer) Canonical() string { return n.canonical }

// Supported reports whether the currency code is convertible.
func (n *Normalizer) Supported(code string) bool { return n.supported[code] }

// Normalize converts amount in the given currency to the canonical currency,
// truncated to minor-unit precision with banker's rounding. A negative amount
// is a caller bug, not a business rejection.
func (n *Normalizer) Normalize(ctx context.Context, amount decimal.Decimal, code string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("currency: negative amount %s", amount)
	}
	if !n.supported[code] {
		return decimal.Zero, errors.E(errors.KindUnsupportedCurrency, "currency %q is not supported", code)
	}
	if code == n.canonical {
		return amount.RoundBank(minorUnits), nil
	}

	converted, err := n.provider.Convert(ctx, amount, code, n.canonical)
	if err != nil {
		n.logger.Warn("exchange rate lookup failed",
			zap.String("from", code),
			zap.String("to", n.canonical),
			zap.Error(err))
		return decimal.Zero, errors.Wrap(errors.KindRateUnavailable, err, "no rate for %s/%s", code, n.canonical)
	}
	return converted.RoundBank(minorUnits), nil
}

// Denormalize converts a canonical amount back into a supported display
// currency, rounded the same way. Used for rendering remaining capacity in
// the user's preferred currency.
func (n *Normalizer) Denormalize(ctx context.Context, amount decimal.Decimal, code string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("currency: negative amount %s", amount)
	}
	if !n.supported[code] {
		return decimal.Zero, errors.E(errors.KindUnsupportedCurrency, "currency %q is not supported", code)
	}
	if code == n.canonical {
		return amount.RoundBank(minorUnits), nil
	}

	converted, err := n.provider.Convert(ctx, amount, n.canonical, code)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.KindRateUnavailable, err, "no rate for %s/%s", n.canonical, code)
	}
	return converted.RoundBank(minorUnits), nil
}
