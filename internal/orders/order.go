package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Type of an order.
type Type string

const (
	TypeLimit    Type = "limit"
	TypeStopLoss Type = "stop_loss"
	TypeOCO      Type = "oco"
	TypeMargin   Type = "margin"
)

// Status is the single-shot validation state: an order moves from proposed to
// exactly one of valid or rejected and never back. Corrections are new
// orders.
type Status string

const (
	StatusProposed Status = "proposed"
	StatusValid    Status = "valid"
	StatusRejected Status = "rejected"
)

// Order is one proposed order covering all four variants; which price fields
// apply depends on Type. Amounts are base-currency units.
type Order struct {
	ID     uuid.UUID       `json:"id"`
	UserID uuid.UUID       `json:"user_id"`
	Pair   string          `json:"pair" validate:"required"`
	Side   Side            `json:"side" validate:"required,oneof=buy sell"`
	Type   Type            `json:"type" validate:"required,oneof=limit stop_loss oco margin"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`

	// limit and margin orders
	Price decimal.Decimal `json:"price,omitempty"`

	// stop-loss and OCO orders
	StopPrice   decimal.Decimal `json:"stop_price,omitempty"`
	LimitPrice  decimal.Decimal `json:"limit_price,omitempty"`
	TargetPrice decimal.Decimal `json:"target_price,omitempty"`

	// margin orders
	Leverage decimal.Decimal `json:"leverage,omitempty"`

	// premium-gated limit order flags
	PostOnly   bool `json:"post_only,omitempty"`
	ReduceOnly bool `json:"reduce_only,omitempty"`

	Status       Status    `json:"status"`
	RejectReason string    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewOrder builds a proposed order with a fresh ID.
func NewOrder(userID uuid.UUID, pair string, side Side, typ Type, amount decimal.Decimal) *Order {
	return &Order{
		ID:        uuid.New(),
		UserID:    userID,
		Pair:      pair,
		Side:      side,
		Type:      typ,
		Amount:    amount,
		Status:    StatusProposed,
		CreatedAt: time.Now().UTC(),
	}
}

// Terminal reports whether the order has already been validated.
func (o *Order) Terminal() bool {
	return o.Status == StatusValid || o.Status == StatusRejected
}
