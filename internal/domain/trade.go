package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is an immutable record of a single execution. Once emitted, a
// Trade is never mutated.
type Trade struct {
	ID            uuid.UUID
	Symbol        string
	BuyOrderID    uuid.UUID
	SellOrderID   uuid.UUID
	BuyAccountID  string
	SellAccountID string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	MakerFee      decimal.Decimal
	TakerFee      decimal.Decimal
	TakerSide     Side
	Timestamp     time.Time
	SequenceID    uint64
}

// FeeSchedule is the maker/taker basis-point schedule a matching
// Engine is constructed with once and keeps fixed for the process
// lifetime.
type FeeSchedule struct {
	MakerBps decimal.Decimal
	TakerBps decimal.Decimal
}

// DefaultFeeSchedule is 10 bps maker (0.10%), 15 bps taker (0.15%).
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		MakerBps: decimal.NewFromInt(10),
		TakerBps: decimal.NewFromInt(15),
	}
}

var bpsDivisor = decimal.NewFromInt(10000)

// MakerFee computes price * quantity * MakerBps / 10000.
func (f FeeSchedule) MakerFee(price, quantity decimal.Decimal) decimal.Decimal {
	return price.Mul(quantity).Mul(f.MakerBps).Div(bpsDivisor)
}

// TakerFee computes price * quantity * TakerBps / 10000.
func (f FeeSchedule) TakerFee(price, quantity decimal.Decimal) decimal.Decimal {
	return price.Mul(quantity).Mul(f.TakerBps).Div(bpsDivisor)
}

// NewTrade constructs a Trade. buyOrder/sellOrder are the resolved
// buy- and sell-side orders regardless of which one was the taker;
// takerSide records which one was aggressive for fee attribution.
func NewTrade(symbol string, buyOrder, sellOrder *Order, price, quantity decimal.Decimal, takerSide Side, fees FeeSchedule) *Trade {
	t := &Trade{
		ID:            uuid.New(),
		Symbol:        symbol,
		BuyOrderID:    buyOrder.ID,
		SellOrderID:   sellOrder.ID,
		BuyAccountID:  buyOrder.AccountID,
		SellAccountID: sellOrder.AccountID,
		Price:         price,
		Quantity:      quantity,
		TakerSide:     takerSide,
		Timestamp:     time.Now().UTC(),
	}

	t.MakerFee = fees.MakerFee(price, quantity)
	t.TakerFee = fees.TakerFee(price, quantity)
	return t
}
