package limits

import (
	"github.com/shopspring/decimal"

	"github.com/nexvestxr/compliance-engine/pkg/models"
)

// Kind distinguishes which usage counter a debit consumes.
type Kind string

const (
	KindInvestment Kind = "investment"
	KindWithdrawal Kind = "withdrawal"
	KindTrading    Kind = "trading"
)

// Period is a rolling-window length.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodAnnual  Period = "annual"
)

// Periods lists every window in check order.
var Periods = []Period{PeriodDaily, PeriodMonthly, PeriodAnnual}

// CapsTable maps (tier, kind, period) to a canonical-currency ceiling. Caps
// are configuration, not logic: tiers are recalibrated by swapping tables. A
// missing entry means no cap is enforced for that window.
type CapsTable map[models.InvestmentTier]map[Kind]map[Period]decimal.Decimal

// Cap looks up the ceiling for one window.
func (t CapsTable) Cap(tier models.InvestmentTier, kind Kind, period Period) (decimal.Decimal, bool) {
	kinds, ok := t[tier]
	if !ok {
		return decimal.Zero, false
	}
	periods, ok := kinds[kind]
	if !ok {
		return decimal.Zero, false
	}
	cap, ok := periods[period]
	return cap, ok
}

func aed(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DefaultCaps is the shipped caps table in canonical AED units. Retail
// matches the platform defaults; premium and institutional scale them.
// Trading enforces a daily cap only.
func DefaultCaps() CapsTable {
	return CapsTable{
		models.TierRetail: {
			KindInvestment: {
				PeriodDaily:   aed(50_000),
				PeriodMonthly: aed(500_000),
				PeriodAnnual:  aed(2_000_000),
			},
			KindWithdrawal: {
				PeriodDaily:   aed(25_000),
				PeriodMonthly: aed(250_000),
				PeriodAnnual:  aed(1_000_000),
			},
			KindTrading: {
				PeriodDaily: aed(100_000),
			},
		},
		models.TierPremium: {
			KindInvestment: {
				PeriodDaily:   aed(200_000),
				PeriodMonthly: aed(2_000_000),
				PeriodAnnual:  aed(8_000_000),
			},
			KindWithdrawal: {
				PeriodDaily:   aed(100_000),
				PeriodMonthly: aed(1_000_000),
				PeriodAnnual:  aed(4_000_000),
			},
			KindTrading: {
				PeriodDaily: aed(400_000),
			},
		},
		models.TierInstitutional: {
			KindInvestment: {
				PeriodDaily:   aed(1_000_000),
				PeriodMonthly: aed(10_000_000),
				PeriodAnnual:  aed(40_000_000),
			},
			KindWithdrawal: {
				PeriodDaily:   aed(500_000),
				PeriodMonthly: aed(5_000_000),
				PeriodAnnual:  aed(20_000_000),
			},
			KindTrading: {
				PeriodDaily: aed(2_000_000),
			},
		},
	}
}
