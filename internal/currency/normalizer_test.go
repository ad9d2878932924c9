package currency

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
)

var testRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromFloat(0.272),
	"EUR": decimal.NewFromFloat(0.231),
	"INR": decimal.NewFromFloat(22.6),
}

func testNormalizer(t *testing.T, provider ExchangeRateProvider) *Normalizer {
	t.Helper()
	if provider == nil {
		provider = NewStaticProvider("AED", testRates)
	}
	return NewNormalizer("AED", []string{"AED", "USD", "EUR", "INR"}, provider, zaptest.NewLogger(t))
}

type failingProvider struct{}

func (failingProvider) Convert(context.Context, decimal.Decimal, string, string) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("upstream down")
}

func TestNormalizeCanonicalPassthrough(t *testing.T) {
	n := testNormalizer(t, nil)

	got, err := n.Normalize(context.Background(), decimal.NewFromFloat(1234.5), "AED")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", got.String())
}

func TestNormalizeConverts(t *testing.T) {
	n := testNormalizer(t, nil)

	// 272 USD at 0.272 USD per AED is exactly 1000 AED.
	got, err := n.Normalize(context.Background(), decimal.NewFromInt(272), "USD")
	require.NoError(t, err)
	assert.Equal(t, "1000", got.String())
}

func TestNormalizeUnsupportedCurrency(t *testing.T) {
	n := testNormalizer(t, nil)

	_, err := n.Normalize(context.Background(), decimal.NewFromInt(100), "XAU")
	require.Error(t, err)
	assert.Equal(t, errors.KindUnsupportedCurrency, errors.KindOf(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestNormalizeRateUnavailableIsRetryable(t *testing.T) {
	n := testNormalizer(t, failingProvider{})

	_, err := n.Normalize(context.Background(), decimal.NewFromInt(100), "USD")
	require.Error(t, err)
	assert.Equal(t, errors.KindRateUnavailable, errors.KindOf(err))
	assert.True(t, errors.IsRetryable(err), "rate failures must be retryable, not rejections")
}

func TestNormalizeNegativeAmountIsCallerBug(t *testing.T) {
	n := testNormalizer(t, nil)

	_, err := n.Normalize(context.Background(), decimal.NewFromInt(-5), "USD")
	require.Error(t, err)
	assert.Equal(t, errors.Kind(""), errors.KindOf(err))
}

func TestBankersRoundingAtBoundary(t *testing.T) {
	// Half-to-even applied once at the boundary: 0.065 rounds down to the
	// even 0.06, 0.075 rounds up to the even 0.08.
	n := testNormalizer(t, nil)
	ctx := context.Background()

	got, err := n.Normalize(ctx, decimal.RequireFromString("0.065"), "AED")
	require.NoError(t, err)
	assert.Equal(t, "0.06", got.String())

	got, err = n.Normalize(ctx, decimal.RequireFromString("0.075"), "AED")
	require.NoError(t, err)
	assert.Equal(t, "0.08", got.String())
}

func TestRoundTripWithinOneMinorUnit(t *testing.T) {
	n := testNormalizer(t, nil)
	ctx := context.Background()
	minor := decimal.NewFromFloat(0.01)

	for _, code := range []string{"USD", "EUR", "INR"} {
		// One canonical minor unit of rounding slack, expressed in the
		// foreign currency, plus the foreign minor unit itself.
		tolerance := testRates[code].Mul(minor).Add(minor)
		for _, amount := range []string{"1", "99.99", "12345.67", "0.01"} {
			original := decimal.RequireFromString(amount)
			canonical, err := n.Normalize(ctx, original, code)
			require.NoError(t, err)
			back, err := n.Denormalize(ctx, canonical, code)
			require.NoError(t, err)

			diff := back.Sub(original).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance),
				"%s %s round-tripped to %s (diff %s)", amount, code, back, diff)
		}
	}
}

func TestStaticProviderCrossRates(t *testing.T) {
	p := NewStaticProvider("AED", testRates)

	// USD → INR via AED: 1 USD = 1/0.272 AED = 3.6765 AED ≈ 83.09 INR.
	got, err := p.Convert(context.Background(), decimal.NewFromInt(1), "USD", "INR")
	require.NoError(t, err)
	f, _ := got.Float64()
	assert.InDelta(t, 83.09, f, 0.1)
}

func TestStaticProviderUnknownCurrency(t *testing.T) {
	p := NewStaticProvider("AED", testRates)

	_, err := p.Convert(context.Background(), decimal.NewFromInt(1), "JPY", "AED")
	assert.Error(t, err)
}
