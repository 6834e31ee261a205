// Package domain holds the data model of the matching core: orders,
// trades, and the enums and error taxonomy that describe them.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the side of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType is the type of an order.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// TimeInForce is the residual-handling policy for an order.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
	TimeInForceGTD TimeInForce = "GTD"
)

// Status is the order state machine.
type Status string

const (
	StatusNew       Status = "new"
	StatusPartial   Status = "partial"
	StatusFilled    Status = "filled"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

// IsTerminal reports whether status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// Order is the immutable identity plus mutable execution state of a
// single order.
type Order struct {
	ID            uuid.UUID
	AccountID     string
	Symbol        string
	Side          Side
	Type          OrderType
	TimeInForce   TimeInForce
	PostOnly      bool
	Price         decimal.Decimal // zero value + HasPrice=false for Market orders
	HasPrice      bool
	ClientOrderID string
	CreatedAt     time.Time

	OriginalQuantity  decimal.Decimal
	FilledQuantity    decimal.Decimal
	RemainingQuantity decimal.Decimal
	Status            Status
	UpdatedAt         time.Time
	SequenceID        uint64
}

// NewOrder constructs an order in status New with remaining == original.
func NewOrder(accountID, symbol string, side Side, typ OrderType, tif TimeInForce, postOnly bool, price decimal.Decimal, hasPrice bool, qty decimal.Decimal, clientOrderID string) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:                uuid.New(),
		AccountID:         accountID,
		Symbol:            symbol,
		Side:              side,
		Type:              typ,
		TimeInForce:       tif,
		PostOnly:          postOnly,
		Price:             price,
		HasPrice:          hasPrice,
		ClientOrderID:     clientOrderID,
		CreatedAt:         now,
		OriginalQuantity:  qty,
		FilledQuantity:    decimal.Zero,
		RemainingQuantity: qty,
		Status:            StatusNew,
		UpdatedAt:         now,
	}
}

// Fill applies a fill of qty to the order, updating filled/remaining
// and transitioning status per the state machine.
func (o *Order) Fill(qty decimal.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(qty)
	o.RemainingQuantity = o.RemainingQuantity.Sub(qty)
	o.UpdatedAt = time.Now().UTC()

	if o.RemainingQuantity.IsZero() {
		o.Status = StatusFilled
		return
	}
	if o.Status == StatusNew {
		o.Status = StatusPartial
	}
}

// Cancel transitions the order to Cancelled, preserving FilledQuantity.
func (o *Order) Cancel() {
	if o.Status.IsTerminal() {
		return
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now().UTC()
}

// Reject transitions a never-resting order to Rejected.
func (o *Order) Reject() {
	o.Status = StatusRejected
	o.UpdatedAt = time.Now().UTC()
}

// IsActive reports whether the order may still rest in a book queue.
func (o *Order) IsActive() bool {
	return (o.Status == StatusNew || o.Status == StatusPartial) && o.RemainingQuantity.GreaterThan(decimal.Zero)
}

// Clone returns a deep-enough copy for snapshotting (decimal.Decimal
// is an immutable value type, so a shallow struct copy suffices).
func (o *Order) Clone() *Order {
	clone := *o
	return &clone
}
