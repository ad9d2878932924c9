// Package limits tracks rolling daily/monthly/annual usage per user and
// enforces tier-based caps. Windows roll lazily at check time; there is no
// background timer.
package limits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

// Result reports a committed debit and the capacity left in each capped
// window afterwards.
type Result struct {
	Remaining map[Period]decimal.Decimal `json:"remaining"`
}

// Ledger enforces the caps table over a usage store. Per-user serialization
// is delegated to the store's per-key update contract.
type Ledger struct {
	caps   CapsTable
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewLedger builds a ledger. now is overridable for tests; nil means
// time.Now.
func NewLedger(caps CapsTable, store Store, logger *zap.Logger, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{caps: caps, store: store, now: now, logger: logger}
}

// periodStart is the boundary instant of the period containing t: midnight
// for daily, first of the month for monthly, January 1 for annual.
func periodStart(p Period, t time.Time) time.Time {
	switch p {
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case PeriodAnnual:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default:
		year, month, day := t.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	}
}

// roll resets the window when now has crossed its period boundary since the
// stored start. Resets happen exactly once per elapsed boundary: after a
// reset WindowStart equals the current boundary, so repeated calls are no-ops.
func roll(w *Window, p Period, now time.Time) {
	boundary := periodStart(p, now)
	if w.WindowStart.Before(boundary) {
		w.Used = decimal.Zero
		w.WindowStart = boundary
	}
}

// TryDebit consumes amount from every capped window for (userID, kind), or
// fails with LimitExceeded and no mutation when any window would overflow.
// The check-and-commit runs atomically across the three windows.
func (l *Ledger) TryDebit(ctx context.Context, userID uuid.UUID, tier models.InvestmentTier, kind Kind, amount decimal.Decimal) (*Result, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("limits: negative debit %s", amount)
	}

	result := &Result{Remaining: make(map[Period]decimal.Decimal, len(Periods))}
	err := l.store.Update(ctx, usageKey(userID, kind), func(usage *Usage) error {
		now := l.now()
		for _, period := range Periods {
			cap, capped := l.caps.Cap(tier, kind, period)
			if !capped {
				continue
			}
			w := usage.Windows[period]
			if w == nil {
				w = &Window{Used: decimal.Zero, WindowStart: periodStart(period, now)}
				usage.Windows[period] = w
			}
			roll(w, period, now)

			projected := w.Used.Add(amount)
			if projected.GreaterThan(cap) {
				return errors.E(errors.KindLimitExceeded,
					"%s %s limit exceeded: cap %s, used %s, requested %s",
					period, kind, cap, w.Used, amount).
					WithDetail("window", string(period)).
					WithDetail("cap", cap.String()).
					WithDetail("used", w.Used.String()).
					WithDetail("requested", amount.String()).
					WithDetail("remaining", cap.Sub(w.Used).String())
			}
		}

		// Every window fits: commit all three together.
		for _, period := range Periods {
			cap, capped := l.caps.Cap(tier, kind, period)
			if !capped {
				continue
			}
			w := usage.Windows[period]
			w.Used = w.Used.Add(amount)
			result.Remaining[period] = cap.Sub(w.Used)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("ledger debit committed",
		zap.String("user_id", userID.String()),
		zap.String("kind", string(kind)),
		zap.String("amount", amount.String()))
	return result, nil
}

// Credit returns previously debited capacity, flooring each window at zero.
// It is the compensating action for a gate rollback and runs under the same
// per-user serialization as TryDebit.
func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, tier models.InvestmentTier, kind Kind, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("limits: negative credit %s", amount)
	}

	err := l.store.Update(ctx, usageKey(userID, kind), func(usage *Usage) error {
		now := l.now()
		for _, period := range Periods {
			if _, capped := l.caps.Cap(tier, kind, period); !capped {
				continue
			}
			w := usage.Windows[period]
			if w == nil {
				continue
			}
			roll(w, period, now)
			w.Used = w.Used.Sub(amount)
			if w.Used.IsNegative() {
				w.Used = decimal.Zero
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Debug("ledger credit applied",
		zap.String("user_id", userID.String()),
		zap.String("kind", string(kind)),
		zap.String("amount", amount.String()))
	return nil
}

// Remaining reports the capacity left in each capped window without
// consuming anything. Rolling a stale window is persisted as a side effect.
func (l *Ledger) Remaining(ctx context.Context, userID uuid.UUID, tier models.InvestmentTier, kind Kind) (map[Period]decimal.Decimal, error) {
	remaining := make(map[Period]decimal.Decimal, len(Periods))
	err := l.store.Update(ctx, usageKey(userID, kind), func(usage *Usage) error {
		now := l.now()
		for _, period := range Periods {
			cap, capped := l.caps.Cap(tier, kind, period)
			if !capped {
				continue
			}
			w := usage.Windows[period]
			if w == nil {
				w = &Window{Used: decimal.Zero, WindowStart: periodStart(period, now)}
				usage.Windows[period] = w
			}
			roll(w, period, now)
			remaining[period] = cap.Sub(w.Used)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}
