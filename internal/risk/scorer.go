// Package risk composes nationality, transaction size and external
// PEP/sanctions screening into a numeric risk score and an AML status.
package risk

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

// flaggedThreshold is the score above which a user is flagged (or placed
// under investigation when screening also hit).
const flaggedThreshold = 70

// AmountBand adds Points to the score for amounts up to Ceiling. Bands must
// be sorted ascending; amounts above the last ceiling take OverflowPoints.
type AmountBand struct {
	Ceiling decimal.Decimal `json:"ceiling"`
	Points  int             `json:"points"`
}

// Weights holds the tunable scoring policy. The shape is fixed: amount risk
// is monotonic, off-list nationality and screening hits add risk, verified
// residency subtracts it.
type Weights struct {
	AmountBands         []AmountBand `json:"amount_bands"`
	AmountOverflow      int          `json:"amount_overflow"`
	HighRiskNationality int          `json:"high_risk_nationality"`
	PEPHit              int          `json:"pep_hit"`
	SanctionsHit        int          `json:"sanctions_hit"`
	ResidentDiscount    int          `json:"resident_discount"`
}

// DefaultWeights is the policy shipped with the engine.
func DefaultWeights() Weights {
	return Weights{
		AmountBands: []AmountBand{
			{Ceiling: decimal.NewFromInt(50_000), Points: 5},
			{Ceiling: decimal.NewFromInt(250_000), Points: 10},
			{Ceiling: decimal.NewFromInt(1_000_000), Points: 20},
			{Ceiling: decimal.NewFromInt(5_000_000), Points: 30},
		},
		AmountOverflow:      40,
		HighRiskNationality: 25,
		PEPHit:              35,
		SanctionsHit:        40,
		ResidentDiscount:    10,
	}
}

// Factors is one scoring request.
type Factors struct {
	Identity          Identity
	Amount            decimal.Decimal // canonical units
	Residency         models.ResidencyStatus
	ResidencyVerified bool
}

// Assessment is the scoring outcome. Status pending means screening did not
// complete and the caller must retry; pending is never treated as clear.
type Assessment struct {
	Score      int              `json:"score"`
	Status     models.AMLStatus `json:"status"`
	PEP        bool             `json:"pep"`
	Sanctioned bool             `json:"sanctioned"`
	Factors    []string         `json:"factors"`
	ScoredAt   time.Time        `json:"scored_at"`
}

// Scorer computes risk scores. Screening is delegated to the injected
// checkers with a bounded timeout.
type Scorer struct {
	weights   Weights
	lowRisk   map[string]bool
	pep       PepChecker
	sanctions SanctionsChecker
	timeout   time.Duration
	logger    *zap.Logger
}

// NewScorer builds a scorer. lowRiskCountries are ISO country codes treated
// as known-low-risk; timeout bounds each external screening call.
func NewScorer(weights Weights, lowRiskCountries []string, pep PepChecker, sanctions SanctionsChecker, timeout time.Duration, logger *zap.Logger) *Scorer {
	set := make(map[string]bool, len(lowRiskCountries))
	for _, code := range lowRiskCountries {
		set[code] = true
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		weights:   weights,
		lowRisk:   set,
		pep:       pep,
		sanctions: sanctions,
		timeout:   timeout,
		logger:    logger,
	}
}

// Score screens the identity and composes the weighted score. When screening
// fails or times out it returns a pending assessment together with a
// retryable ValidationTimeout error; it never silently reports clear.
func (s *Scorer) Score(ctx context.Context, factors Factors) (*Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var pepRes PEPResult
	var sanRes SanctionsResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pepRes, err = s.pep.Check(gctx, factors.Identity)
		return err
	})
	g.Go(func() error {
		var err error
		sanRes, err = s.sanctions.Check(gctx, factors.Identity)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("aml screening incomplete",
			zap.String("name", factors.Identity.FullName),
			zap.Error(err))
		return &Assessment{Status: models.AMLStatusPending, ScoredAt: time.Now().UTC()},
			errors.Wrap(errors.KindValidationTimeout, err, "aml screening did not complete")
	}

	score := 0
	var applied []string

	score += s.amountPoints(factors.Amount)
	applied = append(applied, "transaction_size")

	if !s.lowRisk[factors.Nationality()] {
		score += s.weights.HighRiskNationality
		applied = append(applied, "nationality")
	}
	if pepRes.IsPEP {
		score += s.weights.PEPHit
		applied = append(applied, "pep")
	}
	if sanRes.IsListed {
		score += s.weights.SanctionsHit
		applied = append(applied, "sanctions")
	}
	if factors.ResidencyVerified &&
		(factors.Residency == models.ResidencyCitizen || factors.Residency == models.ResidencyResident) {
		score -= s.weights.ResidentDiscount
		applied = append(applied, "verified_resident")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status := models.AMLStatusClear
	if score > flaggedThreshold {
		if pepRes.IsPEP || sanRes.IsListed {
			status = models.AMLStatusUnderInvestigation
		} else {
			status = models.AMLStatusFlagged
		}
	}

	return &Assessment{
		Score:      score,
		Status:     status,
		PEP:        pepRes.IsPEP,
		Sanctioned: sanRes.IsListed,
		Factors:    applied,
		ScoredAt:   time.Now().UTC(),
	}, nil
}

func (s *Scorer) amountPoints(amount decimal.Decimal) int {
	for _, band := range s.weights.AmountBands {
		if amount.LessThanOrEqual(band.Ceiling) {
			return band.Points
		}
	}
	return s.weights.AmountOverflow
}

// Nationality returns the identity's nationality code for list lookups.
func (f Factors) Nationality() string {
	return f.Identity.Nationality
}
