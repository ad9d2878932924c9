package risk

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

var lowRisk = []string{"AE", "SA", "GB", "US"}

func testScorer(t *testing.T, pep PepChecker, sanctions SanctionsChecker) *Scorer {
	t.Helper()
	if pep == nil {
		pep = NewStaticPepChecker()
	}
	if sanctions == nil {
		sanctions = NewStaticSanctionsChecker()
	}
	return NewScorer(DefaultWeights(), lowRisk, pep, sanctions, time.Second, zaptest.NewLogger(t))
}

type stalledPepChecker struct{}

func (stalledPepChecker) Check(ctx context.Context, _ Identity) (PEPResult, error) {
	<-ctx.Done()
	return PEPResult{}, ctx.Err()
}

func factors(name, nationality string, amount int64) Factors {
	return Factors{
		Identity: Identity{FullName: name, Nationality: nationality},
		Amount:   decimal.NewFromInt(amount),
	}
}

func TestScoreMonotonicInAmount(t *testing.T) {
	s := testScorer(t, nil, nil)
	ctx := context.Background()

	low, err := s.Score(ctx, factors("Jane Doe", "AE", 25_000))
	require.NoError(t, err)
	high, err := s.Score(ctx, factors("Jane Doe", "AE", 5_000_000))
	require.NoError(t, err)

	assert.Greater(t, high.Score, low.Score)
}

func TestScoreNationality(t *testing.T) {
	s := testScorer(t, nil, nil)
	ctx := context.Background()

	local, err := s.Score(ctx, factors("Jane Doe", "AE", 100_000))
	require.NoError(t, err)
	foreign, err := s.Score(ctx, factors("Jane Doe", "XX", 100_000))
	require.NoError(t, err)

	assert.Greater(t, foreign.Score, local.Score)
	assert.Equal(t, models.AMLStatusClear, local.Status)
}

func TestScoreVerifiedResidentDiscount(t *testing.T) {
	s := testScorer(t, nil, nil)
	ctx := context.Background()

	base := factors("Jane Doe", "XX", 100_000)
	unverified, err := s.Score(ctx, base)
	require.NoError(t, err)

	base.Residency = models.ResidencyResident
	base.ResidencyVerified = true
	verified, err := s.Score(ctx, base)
	require.NoError(t, err)

	assert.Less(t, verified.Score, unverified.Score)
}

func TestScorePEPHitPushesToInvestigation(t *testing.T) {
	s := testScorer(t, NewStaticPepChecker("Political Figure"), nil)
	ctx := context.Background()

	// PEP hit on a high-value, off-list profile: 40 + 25 + 35 = 100.
	got, err := s.Score(ctx, factors("Political Figure", "XX", 9_000_000))
	require.NoError(t, err)
	assert.True(t, got.PEP)
	assert.Greater(t, got.Score, 70)
	assert.Equal(t, models.AMLStatusUnderInvestigation, got.Status)
}

func TestScoreHighScoreWithoutHitIsFlagged(t *testing.T) {
	// Raise the nationality weight so score exceeds 70 without a screening
	// hit: flagged, not under investigation.
	w := DefaultWeights()
	w.HighRiskNationality = 60
	s := NewScorer(w, lowRisk, NewStaticPepChecker(), NewStaticSanctionsChecker(), time.Second, zaptest.NewLogger(t))

	got, err := s.Score(context.Background(), factors("Jane Doe", "XX", 9_000_000))
	require.NoError(t, err)
	assert.Greater(t, got.Score, 70)
	assert.Equal(t, models.AMLStatusFlagged, got.Status)
}

func TestScoreSanctionsHit(t *testing.T) {
	s := testScorer(t, nil, NewStaticSanctionsChecker("Bad Actor"))

	got, err := s.Score(context.Background(), factors("Bad Actor", "XX", 9_000_000))
	require.NoError(t, err)
	assert.True(t, got.Sanctioned)
	assert.Equal(t, models.AMLStatusUnderInvestigation, got.Status)
}

func TestScoreClampedToHundred(t *testing.T) {
	s := testScorer(t, NewStaticPepChecker("Political Figure"), NewStaticSanctionsChecker("Political Figure"))

	got, err := s.Score(context.Background(), factors("Political Figure", "XX", 50_000_000))
	require.NoError(t, err)
	assert.Equal(t, 100, got.Score)
}

func TestScreeningTimeoutFailsClosed(t *testing.T) {
	s := NewScorer(DefaultWeights(), lowRisk, stalledPepChecker{}, NewStaticSanctionsChecker(), 50*time.Millisecond, zaptest.NewLogger(t))

	got, err := s.Score(context.Background(), factors("Jane Doe", "AE", 10_000))
	require.Error(t, err)
	assert.Equal(t, errors.KindValidationTimeout, errors.KindOf(err))
	assert.True(t, errors.IsRetryable(err))
	require.NotNil(t, got)
	assert.Equal(t, models.AMLStatusPending, got.Status, "screening failure must never read as clear")
}
