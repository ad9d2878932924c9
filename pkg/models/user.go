package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvestmentTier classifies a user for KYC depth and transaction caps.
type InvestmentTier int

const (
	TierRetail InvestmentTier = iota
	TierPremium
	TierInstitutional
)

func (t InvestmentTier) String() string {
	switch t {
	case TierRetail:
		return "retail"
	case TierPremium:
		return "premium"
	case TierInstitutional:
		return "institutional"
	}
	return "unknown"
}

// Valid reports whether t is one of the closed tier values.
func (t InvestmentTier) Valid() bool {
	return t >= TierRetail && t <= TierInstitutional
}

// ParseTier maps a tier name to its enum value.
func ParseTier(s string) (InvestmentTier, error) {
	switch s {
	case "retail":
		return TierRetail, nil
	case "premium":
		return TierPremium, nil
	case "institutional":
		return TierInstitutional, nil
	}
	return 0, fmt.Errorf("unknown investment tier %q", s)
}

// KYCLevel is the verification depth required for a tier. It is derived from
// the tier and never set independently.
type KYCLevel int

const (
	KYCLevelStandard KYCLevel = iota
	KYCLevelEnhanced
	KYCLevelComprehensive
)

func (l KYCLevel) String() string {
	switch l {
	case KYCLevelStandard:
		return "standard"
	case KYCLevelEnhanced:
		return "enhanced"
	case KYCLevelComprehensive:
		return "comprehensive"
	}
	return "unknown"
}

// KYCLevelForTier is the only path from tier to level: retail maps to
// standard, premium to enhanced, institutional to comprehensive.
func KYCLevelForTier(t InvestmentTier) KYCLevel {
	switch t {
	case TierPremium:
		return KYCLevelEnhanced
	case TierInstitutional:
		return KYCLevelComprehensive
	default:
		return KYCLevelStandard
	}
}

// KYCStatus represents the status of a KYC verification.
type KYCStatus string

const (
	KYCStatusPending     KYCStatus = "pending"
	KYCStatusSubmitted   KYCStatus = "submitted"
	KYCStatusUnderReview KYCStatus = "under_review"
	KYCStatusApproved    KYCStatus = "approved"
	KYCStatusRejected    KYCStatus = "rejected"
	KYCStatusExpired     KYCStatus = "expired"
)

// ResidencyStatus captures a user's UAE residency class.
type ResidencyStatus string

const (
	ResidencyCitizen      ResidencyStatus = "citizen"
	ResidencyResident     ResidencyStatus = "resident"
	ResidencyVisitor      ResidencyStatus = "visitor"
	ResidencyInvestorVisa ResidencyStatus = "investor_visa"
)

// AMLStatus is the outcome of AML screening for a user.
type AMLStatus string

const (
	AMLStatusClear              AMLStatus = "clear"
	AMLStatusFlagged            AMLStatus = "flagged"
	AMLStatusUnderInvestigation AMLStatus = "under_investigation"
	// AMLStatusPending means screening could not complete and must be
	// retried; it is never treated as clear.
	AMLStatusPending AMLStatus = "pending"
)

// Blocked reports whether the status forbids any limit-consuming action.
func (s AMLStatus) Blocked() bool {
	return s == AMLStatusFlagged || s == AMLStatusUnderInvestigation
}

// DocumentType is the closed set of KYC document types.
type DocumentType string

const (
	DocEmiratesID        DocumentType = "emirates_id"
	DocPassport          DocumentType = "passport"
	DocSalaryCertificate DocumentType = "salary_certificate"
	DocBankStatement     DocumentType = "bank_statement"
	DocTradeLicense      DocumentType = "trade_license"
	DocProofOfAddress    DocumentType = "proof_of_address"
)

// DocumentRecord tracks one submitted KYC document.
type DocumentRecord struct {
	Submitted bool       `json:"submitted"`
	Verified  bool       `json:"verified"`
	Expiry    *time.Time `json:"expiry,omitempty"`
}

// Expired reports whether the document carries an expiry date in the past.
func (d DocumentRecord) Expired(now time.Time) bool {
	return d.Expiry != nil && d.Expiry.Before(now)
}

// UserProfile is the engine's read-mostly view of a user. Upstream callers
// own identity and credentials; this engine owns only the KYC, AML and
// limit-usage fields.
type UserProfile struct {
	ID          uuid.UUID                       `json:"id"`
	FullName    string                          `json:"full_name"`
	Tier        InvestmentTier                  `json:"tier"`
	KYCStatus   KYCStatus                       `json:"kyc_status"`
	Nationality string                          `json:"nationality"`
	Residency   ResidencyStatus                 `json:"residency"`
	RiskScore   int                             `json:"risk_score"`
	AMLStatus   AMLStatus                       `json:"aml_status"`
	Documents   map[DocumentType]DocumentRecord `json:"documents"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// KYCLevel returns the verification level implied by the user's tier.
func (u *UserProfile) KYCLevel() KYCLevel {
	return KYCLevelForTier(u.Tier)
}
