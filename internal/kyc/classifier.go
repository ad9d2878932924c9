// Package kyc maps declared tiers and verified documents to KYC levels and
// enforces document completeness for submissions.
package kyc

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

// requiredByLevel holds the deterministic, ordered document set per level.
// Each level is a superset of the one below it.
var requiredByLevel = map[models.KYCLevel][]models.DocumentType{
	models.KYCLevelStandard: {
		models.DocEmiratesID,
		models.DocPassport,
	},
	models.KYCLevelEnhanced: {
		models.DocEmiratesID,
		models.DocPassport,
		models.DocSalaryCertificate,
		models.DocBankStatement,
	},
	models.KYCLevelComprehensive: {
		models.DocEmiratesID,
		models.DocPassport,
		models.DocSalaryCertificate,
		models.DocBankStatement,
		models.DocTradeLicense,
		models.DocProofOfAddress,
	},
}

// Classification is the classifier's view of a profile.
type Classification struct {
	Tier              models.InvestmentTier
	Level             models.KYCLevel
	RequiredDocuments []models.DocumentType
	Complete          int // percentage of required documents verified, rounded down
}

// Classifier derives KYC levels from tiers and validates document sets.
type Classifier struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewClassifier builds a classifier. now is overridable for tests; nil means
// time.Now.
func NewClassifier(logger *zap.Logger, now func() time.Time) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Classifier{logger: logger, now: now}
}

// RequiredDocuments returns a copy of the ordered document set for a level.
func RequiredDocuments(level models.KYCLevel) []models.DocumentType {
	docs := requiredByLevel[level]
	out := make([]models.DocumentType, len(docs))
	copy(out, docs)
	return out
}

// Classify maps a profile to its tier, derived level and required documents.
// A profile carrying an out-of-range tier is invalid state and is rejected,
// never coerced to a default.
func (c *Classifier) Classify(profile *models.UserProfile) (*Classification, error) {
	if !profile.Tier.Valid() {
		return nil, errors.E(errors.KindInvalidState, "unknown investment tier %d", int(profile.Tier))
	}
	level := models.KYCLevelForTier(profile.Tier)
	return &Classification{
		Tier:              profile.Tier,
		Level:             level,
		RequiredDocuments: RequiredDocuments(level),
		Complete:          c.CompletionPercentage(profile),
	}, nil
}

// CompletionPercentage is verified-over-required, as a whole percentage
// rounded down. A verified document past its expiry no longer counts.
func (c *Classifier) CompletionPercentage(profile *models.UserProfile) int {
	required := requiredByLevel[models.KYCLevelForTier(profile.Tier)]
	if len(required) == 0 {
		return 0
	}
	now := c.now()
	verified := 0
	for _, doc := range required {
		rec, ok := profile.Documents[doc]
		if ok && rec.Verified && !rec.Expired(now) {
			verified++
		}
	}
	return verified * 100 / len(required)
}

// ValidateSubmission checks a KYC submission against the requested level's
// document set. Partial submissions are rejected outright, and any submitted
// document already past its expiry fails the submission.
func (c *Classifier) ValidateSubmission(level models.KYCLevel, submitted map[models.DocumentType]models.DocumentRecord) error {
	now := c.now()
	var missing []models.DocumentType
	for _, doc := range requiredByLevel[level] {
		rec, ok := submitted[doc]
		if !ok || !rec.Submitted {
			missing = append(missing, doc)
			continue
		}
		if rec.Expired(now) {
			return errors.E(errors.KindDocumentExpired, "document %s expired on %s", doc, rec.Expiry.Format("2006-01-02"))
		}
	}
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, doc := range missing {
			names[i] = string(doc)
		}
		return errors.E(errors.KindMissingDocuments, "%d required document(s) missing for %s level", len(missing), level).
			WithDetail("missing", strings.Join(names, ","))
	}
	return nil
}

// Transition applies a reviewed status change to the profile's KYC fields.
// Only the status fields this engine owns are touched.
func (c *Classifier) Transition(profile *models.UserProfile, status models.KYCStatus, reason string) error {
	switch status {
	case models.KYCStatusApproved, models.KYCStatusRejected, models.KYCStatusUnderReview, models.KYCStatusExpired:
	default:
		return errors.E(errors.KindInvalidState, "cannot transition KYC to %q", status)
	}
	profile.KYCStatus = status
	profile.UpdatedAt = c.now().UTC()
	c.logger.Info("kyc status transition",
		zap.String("user_id", profile.ID.String()),
		zap.String("status", string(status)),
		zap.String("reason", reason))
	return nil
}
