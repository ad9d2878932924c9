package kyc

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(zaptest.NewLogger(t), func() time.Time { return testNow })
}

func TestTierToLevelMapping(t *testing.T) {
	// The mapping is total and deterministic; there is no other path to a
	// KYC level.
	cases := []struct {
		tier  models.InvestmentTier
		level models.KYCLevel
	}{
		{models.TierRetail, models.KYCLevelStandard},
		{models.TierPremium, models.KYCLevelEnhanced},
		{models.TierInstitutional, models.KYCLevelComprehensive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, models.KYCLevelForTier(tc.tier), tc.tier.String())
	}
}

func TestRequiredDocumentsAreSupersets(t *testing.T) {
	standard := RequiredDocuments(models.KYCLevelStandard)
	enhanced := RequiredDocuments(models.KYCLevelEnhanced)
	comprehensive := RequiredDocuments(models.KYCLevelComprehensive)

	assert.Equal(t, []models.DocumentType{models.DocEmiratesID, models.DocPassport}, standard)
	assert.Equal(t, standard, enhanced[:2])
	assert.Contains(t, enhanced, models.DocSalaryCertificate)
	assert.Contains(t, enhanced, models.DocBankStatement)
	assert.Equal(t, enhanced, comprehensive[:4])
	assert.Contains(t, comprehensive, models.DocTradeLicense)
	assert.Contains(t, comprehensive, models.DocProofOfAddress)
	assert.Len(t, comprehensive, 6)
}

func TestClassifyRejectsUnknownTier(t *testing.T) {
	c := testClassifier(t)
	profile := &models.UserProfile{ID: uuid.New(), Tier: models.InvestmentTier(42)}

	_, err := c.Classify(profile)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
}

func TestCompletionPercentage(t *testing.T) {
	c := testClassifier(t)

	// One of two standard documents verified: 50%.
	profile := &models.UserProfile{
		ID:   uuid.New(),
		Tier: models.TierRetail,
		Documents: map[models.DocumentType]models.DocumentRecord{
			models.DocEmiratesID: {Submitted: true, Verified: true},
			models.DocPassport:   {Submitted: true, Verified: false},
		},
	}
	assert.Equal(t, 50, c.CompletionPercentage(profile))

	// Premium requires four documents: one verified rounds down to 25%.
	profile.Tier = models.TierPremium
	assert.Equal(t, 25, c.CompletionPercentage(profile))

	// Comprehensive requires six: one of six rounds down to 16%.
	profile.Tier = models.TierInstitutional
	assert.Equal(t, 16, c.CompletionPercentage(profile))
}

func TestCompletionIgnoresExpiredDocuments(t *testing.T) {
	c := testClassifier(t)
	expired := testNow.Add(-24 * time.Hour)

	profile := &models.UserProfile{
		ID:   uuid.New(),
		Tier: models.TierRetail,
		Documents: map[models.DocumentType]models.DocumentRecord{
			models.DocEmiratesID: {Submitted: true, Verified: true, Expiry: &expired},
			models.DocPassport:   {Submitted: true, Verified: true},
		},
	}
	assert.Equal(t, 50, c.CompletionPercentage(profile))
}

func TestValidateSubmission(t *testing.T) {
	c := testClassifier(t)
	valid := testNow.Add(365 * 24 * time.Hour)

	t.Run("complete", func(t *testing.T) {
		err := c.ValidateSubmission(models.KYCLevelStandard, map[models.DocumentType]models.DocumentRecord{
			models.DocEmiratesID: {Submitted: true, Expiry: &valid},
			models.DocPassport:   {Submitted: true, Expiry: &valid},
		})
		assert.NoError(t, err)
	})

	t.Run("partial submissions are rejected", func(t *testing.T) {
		err := c.ValidateSubmission(models.KYCLevelEnhanced, map[models.DocumentType]models.DocumentRecord{
			models.DocEmiratesID: {Submitted: true},
			models.DocPassport:   {Submitted: true},
		})
		require.Error(t, err)
		var terr *errors.Error
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, errors.KindMissingDocuments, terr.Kind)
		assert.Equal(t, "salary_certificate,bank_statement", terr.Details["missing"])
	})

	t.Run("expired document fails the submission", func(t *testing.T) {
		expired := testNow.Add(-time.Hour)
		err := c.ValidateSubmission(models.KYCLevelStandard, map[models.DocumentType]models.DocumentRecord{
			models.DocEmiratesID: {Submitted: true, Expiry: &expired},
			models.DocPassport:   {Submitted: true},
		})
		assert.Equal(t, errors.KindDocumentExpired, errors.KindOf(err))
	})
}

func TestTransition(t *testing.T) {
	c := testClassifier(t)
	profile := &models.UserProfile{ID: uuid.New(), Tier: models.TierRetail, KYCStatus: models.KYCStatusSubmitted}

	require.NoError(t, c.Transition(profile, models.KYCStatusApproved, "documents verified"))
	assert.Equal(t, models.KYCStatusApproved, profile.KYCStatus)

	err := c.Transition(profile, models.KYCStatusPending, "")
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
}
