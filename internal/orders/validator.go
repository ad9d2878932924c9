// Package orders validates advanced order types (limit, stop-loss, OCO,
// margin) before they are handed to the external settlement layer. It checks
// numeric invariants and tier gating only; limit consumption and KYC/AML
// checks live in the compliance gate.
package orders

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexvestxr/compliance-engine/pkg/errors"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

// Validator applies type-specific order rules. Validation is a single-shot
// transition from proposed to valid or rejected; it never retries.
type Validator struct {
	maxLeverage decimal.Decimal
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewValidator builds a validator. maxLeverage is policy data; a zero or
// negative value falls back to 10x.
func NewValidator(maxLeverage decimal.Decimal, logger *zap.Logger) *Validator {
	if maxLeverage.LessThanOrEqual(decimal.Zero) {
		maxLeverage = decimal.NewFromInt(10)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{maxLeverage: maxLeverage, validate: v, logger: logger}
}

// Validate runs the order through precondition and rule checks, setting its
// terminal status. The returned error is nil exactly when the order is
// valid; business rejections are taxonomy errors mirrored into the order's
// RejectReason.
func (v *Validator) Validate(order *Order, tier models.InvestmentTier) error {
	if order.Terminal() {
		return fmt.Errorf("orders: order %s already %s", order.ID, order.Status)
	}

	if err := v.validate.Struct(order); err != nil {
		// Malformed payloads are caller bugs, not business rejections.
		order.Status = StatusRejected
		order.RejectReason = err.Error()
		return fmt.Errorf("orders: invalid payload: %w", err)
	}

	var err *errors.Error
	switch order.Type {
	case TypeLimit:
		err = v.validateLimit(order, tier)
	case TypeStopLoss:
		err = v.validateStopLoss(order)
	case TypeOCO:
		err = v.validateOCO(order)
	case TypeMargin:
		err = v.validateMargin(order, tier)
	default:
		order.Status = StatusRejected
		return fmt.Errorf("orders: unknown order type %q", order.Type)
	}

	if err != nil {
		order.Status = StatusRejected
		order.RejectReason = err.Message
		v.logger.Info("order rejected",
			zap.String("order_id", order.ID.String()),
			zap.String("type", string(order.Type)),
			zap.String("kind", string(err.Kind)))
		return err
	}

	order.Status = StatusValid
	return nil
}

func (v *Validator) validateLimit(order *Order, tier models.InvestmentTier) *errors.Error {
	if order.Price.LessThanOrEqual(decimal.Zero) {
		return errors.E(errors.KindInvalidPriceOrdering, "limit order price must be positive")
	}
	if (order.PostOnly || order.ReduceOnly) && tier == models.TierRetail {
		return errors.E(errors.KindTierRestricted,
			"post-only and reduce-only orders require premium or institutional tier")
	}
	return nil
}

// validateStopLoss enforces the side-dependent strict ordering between stop
// and protective limit. Equality is not a valid ordering.
func (v *Validator) validateStopLoss(order *Order) *errors.Error {
	if order.StopPrice.LessThanOrEqual(decimal.Zero) {
		return errors.E(errors.KindInvalidPriceOrdering, "stop price must be positive")
	}
	if order.LimitPrice.IsZero() {
		return nil
	}
	switch order.Side {
	case SideBuy:
		if !order.StopPrice.GreaterThan(order.LimitPrice) {
			return errors.E(errors.KindInvalidPriceOrdering,
				"buy stop-loss requires stop %s above limit %s", order.StopPrice, order.LimitPrice)
		}
	case SideSell:
		if !order.StopPrice.LessThan(order.LimitPrice) {
			return errors.E(errors.KindInvalidPriceOrdering,
				"sell stop-loss requires stop %s below limit %s", order.StopPrice, order.LimitPrice)
		}
	}
	return nil
}

// validateOCO encodes the limit leg as the worst acceptable price: for a buy
// the stop protects above it and the target sits above it; mirrored for a
// sell.
func (v *Validator) validateOCO(order *Order) *errors.Error {
	for name, price := range map[string]decimal.Decimal{
		"stop":   order.StopPrice,
		"limit":  order.LimitPrice,
		"target": order.TargetPrice,
	} {
		if price.LessThanOrEqual(decimal.Zero) {
			return errors.E(errors.KindInvalidPriceOrdering, "OCO %s price must be positive", name)
		}
	}
	switch order.Side {
	case SideBuy:
		if !order.StopPrice.GreaterThan(order.LimitPrice) || !order.TargetPrice.GreaterThan(order.LimitPrice) {
			return errors.E(errors.KindInvalidPriceOrdering,
				"buy OCO requires stop %s and target %s above limit %s",
				order.StopPrice, order.TargetPrice, order.LimitPrice)
		}
	case SideSell:
		if !order.StopPrice.LessThan(order.LimitPrice) || !order.TargetPrice.LessThan(order.LimitPrice) {
			return errors.E(errors.KindInvalidPriceOrdering,
				"sell OCO requires stop %s and target %s below limit %s",
				order.StopPrice, order.TargetPrice, order.LimitPrice)
		}
	}
	return nil
}

func (v *Validator) validateMargin(order *Order, tier models.InvestmentTier) *errors.Error {
	if tier != models.TierPremium && tier != models.TierInstitutional {
		return errors.E(errors.KindTierRestricted, "margin orders require premium or institutional tier")
	}
	if order.Price.LessThanOrEqual(decimal.Zero) {
		return errors.E(errors.KindInvalidPriceOrdering, "margin order price must be positive")
	}
	one := decimal.NewFromInt(1)
	if order.Leverage.LessThan(one) || order.Leverage.GreaterThan(v.maxLeverage) {
		return errors.E(errors.KindLeverageExceeded,
			"leverage must be between 1 and %s, got %s", v.maxLeverage, order.Leverage)
	}
	return nil
}
