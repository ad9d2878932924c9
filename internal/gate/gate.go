// Package gate is the façade composing KYC, AML, currency normalization,
// limit enforcement and order validation into a single decision for "can this
// action proceed". Both the investment and trading flows call through here.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexvestxr/compliance-engine/internal/currency"
	"github.com/nexvestxr/compliance-engine/internal/kyc"
	"github.com/nexvestxr/compliance-engine/internal/limits"
	"github.com/nexvestxr/compliance-engine/internal/orders"
	"github.com/nexvestxr/compliance-engine/internal/risk"
	"github.com/nexvestxr/compliance-engine/pkg/errors"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

// Intent is one proposed action: an investment/withdrawal amount in some
// supported currency, or a trading order with its notional.
type Intent struct {
	Kind     limits.Kind
	Amount   decimal.Decimal
	Currency string
	Order    *orders.Order // nil for plain investment/withdrawal intents
}

// ValidatedOrder is an order that cleared every check, normalized and ready
// for submission to the external settlement layer.
type ValidatedOrder struct {
	Order            *orders.Order   `json:"order"`
	NormalizedAmount decimal.Decimal `json:"normalized_amount"`
	DecisionID       string          `json:"decision_id"`
}

// Evaluation is the outcome of one gate pass. Decision is always set; Order
// is set only when the intent carried an order and it passed.
type Evaluation struct {
	Decision  *models.ComplianceDecision
	Order     *ValidatedOrder
	Remaining map[limits.Period]decimal.Decimal
}

// Gate wires the compliance components together.
type Gate struct {
	classifier *kyc.Classifier
	scorer     *risk.Scorer
	normalizer *currency.Normalizer
	ledger     *limits.Ledger
	validator  *orders.Validator
	metrics    *Metrics
	logger     *zap.Logger
}

// New builds a gate. metrics may be nil.
func New(
	classifier *kyc.Classifier,
	scorer *risk.Scorer,
	normalizer *currency.Normalizer,
	ledger *limits.Ledger,
	validator *orders.Validator,
	metrics *Metrics,
	logger *zap.Logger,
) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		classifier: classifier,
		scorer:     scorer,
		normalizer: normalizer,
		ledger:     ledger,
		validator:  validator,
		metrics:    metrics,
		logger:     logger,
	}
}

// Evaluate runs the full check sequence. Business-rule failures come back as
// rejecting decisions with a nil error; a non-nil error means the evaluation
// itself could not run (caller bug or store failure).
func (g *Gate) Evaluate(ctx context.Context, profile *models.UserProfile, intent Intent) (*Evaluation, error) {
	start := time.Now()
	eval, err := g.evaluate(ctx, profile, intent)
	if err != nil {
		return nil, err
	}
	g.metrics.observe(eval.Decision.Allowed, eval.Decision.ReasonCode, time.Since(start))
	return eval, nil
}

func (g *Gate) evaluate(ctx context.Context, profile *models.UserProfile, intent Intent) (*Evaluation, error) {
	if profile == nil {
		return nil, fmt.Errorf("gate: nil profile")
	}
	if intent.Amount.IsNegative() {
		return nil, fmt.Errorf("gate: negative intent amount %s", intent.Amount)
	}
	if intent.Order != nil && intent.Kind != limits.KindTrading {
		return nil, fmt.Errorf("gate: order intents must use the trading kind, got %q", intent.Kind)
	}

	// Tier sanity before anything else: an invalid tier/level combination is
	// unrepresentable state, not a user rejection.
	if _, err := g.classifier.Classify(profile); err != nil {
		return nil, err
	}

	// 1. KYC must be approved.
	if profile.KYCStatus != models.KYCStatusApproved {
		return g.deny(profile, errors.E(errors.KindKycNotApproved,
			"kyc status is %q, approval required", profile.KYCStatus)), nil
	}

	// 2. A blocked AML status on the profile rejects outright.
	if profile.AMLStatus.Blocked() {
		return g.deny(profile, errors.E(errors.KindAmlBlocked,
			"aml status is %q", profile.AMLStatus)), nil
	}

	// Re-score against the live screening feed for this evaluation; a stale
	// clear on the profile must not bypass a fresh hit. Recompute is the
	// simplest policy and the one assumed here.
	assessment, err := g.scorer.Score(ctx, risk.Factors{
		Identity: risk.Identity{
			FullName:    profile.FullName,
			Nationality: profile.Nationality,
			IDNumber:    profile.ID.String(),
		},
		Amount:            intent.Amount,
		Residency:         profile.Residency,
		ResidencyVerified: profile.KYCStatus == models.KYCStatusApproved,
	})
	if err != nil {
		// Screening unavailable: fail closed, retryable.
		var terr *errors.Error
		if errors.As(err, &terr) {
			return g.deny(profile, terr), nil
		}
		return nil, err
	}
	if assessment.Status.Blocked() {
		return g.deny(profile, errors.E(errors.KindAmlBlocked,
			"aml screening returned %q (score %d)", assessment.Status, assessment.Score)), nil
	}

	// 3. Normalize to canonical units.
	normalized, err := g.normalizer.Normalize(ctx, intent.Amount, intent.Currency)
	if err != nil {
		var cerr *errors.Error
		if errors.As(err, &cerr) {
			return g.deny(profile, cerr), nil
		}
		return nil, err
	}

	// 4. Consume limit capacity.
	result, err := g.ledger.TryDebit(ctx, profile.ID, profile.Tier, intent.Kind, normalized)
	if err != nil {
		var lerr *errors.Error
		if errors.As(err, &lerr) {
			return g.deny(profile, lerr), nil
		}
		return nil, err
	}

	// 5. Orders additionally pass type-specific validation. The debit has
	// already landed, so a validation failure must compensate it.
	if intent.Order != nil {
		if verr := g.validator.Validate(intent.Order, profile.Tier); verr != nil {
			if cerr := g.ledger.Credit(ctx, profile.ID, profile.Tier, intent.Kind, normalized); cerr != nil {
				// The debit is now stranded; surface loudly rather than
				// return a clean rejection.
				g.logger.Error("rollback failed after order rejection",
					zap.String("user_id", profile.ID.String()),
					zap.String("amount", normalized.String()),
					zap.Error(cerr))
				return nil, fmt.Errorf("gate: rollback failed: %w", cerr)
			}
			var oerr *errors.Error
			if errors.As(verr, &oerr) {
				return g.deny(profile, oerr), nil
			}
			return nil, verr
		}
	}

	decision := models.Allow(profile.ID)
	eval := &Evaluation{Decision: decision, Remaining: result.Remaining}
	if intent.Order != nil {
		eval.Order = &ValidatedOrder{
			Order:            intent.Order,
			NormalizedAmount: normalized,
			DecisionID:       decision.ID.String(),
		}
	}
	g.logger.Info("intent allowed",
		zap.String("user_id", profile.ID.String()),
		zap.String("kind", string(intent.Kind)),
		zap.String("normalized", normalized.String()))
	return eval, nil
}

func (g *Gate) deny(profile *models.UserProfile, err *errors.Error) *Evaluation {
	g.logger.Info("intent rejected",
		zap.String("user_id", profile.ID.String()),
		zap.String("reason", string(err.Kind)),
		zap.String("message", err.Message))
	return &Evaluation{
		Decision: models.Deny(profile.ID, string(err.Kind), err.Message, err.Details, err.Retryable()),
	}
}
