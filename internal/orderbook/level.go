package orderbook

import (
	"container/list"

	"github.com/shopspring/decimal"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

// Level is a FIFO queue of resting orders at a single price, ordered
// by arrival (time priority within price priority).
type Level struct {
	Price       decimal.Decimal
	Orders      *list.List // *domain.Order elements, oldest at Front
	TotalVolume decimal.Decimal
}

func newLevel(price decimal.Decimal) *Level {
	return &Level{
		Price:       price,
		Orders:      list.New(),
		TotalVolume: decimal.Zero,
	}
}

func (l *Level) pushBack(o *domain.Order) *list.Element {
	l.TotalVolume = l.TotalVolume.Add(o.RemainingQuantity)
	return l.Orders.PushBack(o)
}

// remove drops e from the queue and subtracts the order's current
// RemainingQuantity from TotalVolume. Use reduceVolume instead when a
// fill has already changed RemainingQuantity before the element is
// removed (the matching walk reduces volume by the fill amount at the
// moment of the fill, not at removal time).
func (l *Level) remove(e *list.Element) {
	o := e.Value.(*domain.Order)
	l.TotalVolume = l.TotalVolume.Sub(o.RemainingQuantity)
	l.Orders.Remove(e)
}

// reduceVolume subtracts qty from TotalVolume, called by the matching
// walk at the moment a resting order is filled (fully or partially).
func (l *Level) reduceVolume(qty decimal.Decimal) {
	l.TotalVolume = l.TotalVolume.Sub(qty)
}

// removeElement drops e from the queue without touching TotalVolume
// (the caller already accounted for the fill via reduceVolume).
func (l *Level) removeElement(e *list.Element) {
	l.Orders.Remove(e)
}

// Front returns the oldest (highest time priority) resting order at
// this level, or nil if it is empty.
func (l *Level) Front() *domain.Order {
	e := l.Orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*domain.Order)
}

// Empty reports whether the level holds no resting orders.
func (l *Level) Empty() bool {
	return l.Orders.Len() == 0
}
