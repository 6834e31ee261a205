// Package matching implements the stateless price-time-priority
// matching algorithm: given a book and an incoming order, it performs
// the crossing walk, stamps trades via the Sequence Authority, and
// resolves the order's final disposition under its time-in-force.
package matching

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/domain"
	"github.com/abdoElHodaky/matchcore/internal/orderbook"
	"github.com/abdoElHodaky/matchcore/internal/sequence"
)

// Engine is a stateless matcher parameterized by a fixed fee
// schedule, set once at construction.
type Engine struct {
	fees   domain.FeeSchedule
	logger *zap.Logger
}

// New constructs an Engine with the given fee schedule. A nil logger
// is replaced with a no-op logger.
func New(fees domain.FeeSchedule, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{fees: fees, logger: logger}
}

// Submit runs order through validation, dispatch, the crossing walk,
// and time-in-force resolution against book, stamping every trade via
// seq. The order itself is stamped only when it comes to rest in the
// book; an order that fills completely, is cancelled, or is rejected
// consumes no sequence id of its own. It holds book's write lock for
// the full operation.
func (e *Engine) Submit(book *orderbook.OrderBook, seq *sequence.Authority, order *domain.Order) *domain.MatchResult {
	book.Lock()
	defer book.Unlock()

	if err := validate(order, book.Symbol); err != nil {
		return domain.Rejected(order, err)
	}

	switch order.Type {
	case domain.OrderTypeStop, domain.OrderTypeStopLimit:
		return domain.Rejected(order, domain.WrapMatchError(domain.ErrCodeBusinessRule, "stop orders not supported at core level", domain.ErrUnsupportedOrder))
	case domain.OrderTypeMarket:
		return e.submitMarket(book, seq, order)
	}

	return e.submitLimit(book, seq, order)
}

// Cancel removes a resting order by id, returning it (with
// FilledQuantity preserved) or false if unknown. Idempotent: a second
// call for the same id returns false.
func (e *Engine) Cancel(book *orderbook.OrderBook, id uuid.UUID) (*domain.Order, bool) {
	return book.Cancel(id)
}

func (e *Engine) submitMarket(book *orderbook.OrderBook, seq *sequence.Authority, order *domain.Order) *domain.MatchResult {
	trades := e.crossWalk(book, seq, order, false, decimal.Zero)

	if len(trades) == 0 {
		return domain.Rejected(order, domain.WrapMatchError(domain.ErrCodeCapacity, "no liquidity", domain.ErrInsufficientBook))
	}
	if order.RemainingQuantity.GreaterThan(decimal.Zero) {
		order.Cancel()
		return &domain.MatchResult{Order: order, Trades: trades, Status: domain.ResultPartial}
	}
	return &domain.MatchResult{Order: order, Trades: trades, Status: domain.ResultFilled}
}

func (e *Engine) submitLimit(book *orderbook.OrderBook, seq *sequence.Authority, order *domain.Order) *domain.MatchResult {
	if order.PostOnly {
		if crosses(book, order) {
			return domain.Rejected(order, domain.WrapMatchError(domain.ErrCodeBusinessRule, "post-only would cross", domain.ErrWouldCross))
		}
		seqID := seq.Next()
		order.SequenceID = seqID
		book.SetLastSequence(seqID)
		book.TrackOrder(order)
		return &domain.MatchResult{Order: order, Status: domain.ResultNew}
	}

	if order.TimeInForce == domain.TimeInForceFOK {
		opposite := order.Side.Opposite()
		available := book.RemainingVolume(opposite, order.Price, true)
		if available.LessThan(order.RemainingQuantity) {
			return domain.Rejected(order, domain.WrapMatchError(domain.ErrCodeBusinessRule, "FOK not fully fillable", domain.ErrInsufficientBook))
		}
	}

	trades := e.crossWalk(book, seq, order, true, order.Price)
	return e.resolveTIF(book, seq, order, trades)
}

func (e *Engine) resolveTIF(book *orderbook.OrderBook, seq *sequence.Authority, order *domain.Order, trades []*domain.Trade) *domain.MatchResult {
	remaining := order.RemainingQuantity

	switch order.TimeInForce {
	case domain.TimeInForceIOC:
		if len(trades) == 0 {
			return domain.Rejected(order, domain.NewMatchError(domain.ErrCodeBusinessRule, "IOC not filled"))
		}
		if remaining.GreaterThan(decimal.Zero) {
			order.Cancel()
			return &domain.MatchResult{Order: order, Trades: trades, Status: domain.ResultPartial}
		}
		return &domain.MatchResult{Order: order, Trades: trades, Status: domain.ResultFilled}

	case domain.TimeInForceFOK:
		// Pre-checked above: remaining must be zero here.
		return &domain.MatchResult{Order: order, Trades: trades, Status: domain.ResultFilled}

	default: // GTC, GTD
		if remaining.GreaterThan(decimal.Zero) {
			seqID := seq.Next()
			order.SequenceID = seqID
			book.SetLastSequence(seqID)
			book.TrackOrder(order)
			if len(trades) == 0 {
				return &domain.MatchResult{Order: order, Status: domain.ResultNew}
			}
			return &domain.MatchResult{Order: order, Trades: trades, Status: domain.ResultPartial}
		}
		return &domain.MatchResult{Order: order, Trades: trades, Status: domain.ResultFilled}
	}
}

// crossWalk consumes resting liquidity on the opposite side of
// order.Side from best price outward, FIFO within each level, until
// either order is fully filled or no more crossable liquidity remains.
func (e *Engine) crossWalk(book *orderbook.OrderBook, seq *sequence.Authority, order *domain.Order, priceLimited bool, limitPrice decimal.Decimal) []*domain.Trade {
	opposite := order.Side.Opposite()
	var trades []*domain.Trade

	for order.RemainingQuantity.GreaterThan(decimal.Zero) {
		level := book.BestLevel(opposite)
		if level == nil {
			break
		}
		if priceLimited {
			if order.Side == domain.SideBuy && level.Price.GreaterThan(limitPrice) {
				break
			}
			if order.Side == domain.SideSell && level.Price.LessThan(limitPrice) {
				break
			}
		}

		for order.RemainingQuantity.GreaterThan(decimal.Zero) && !level.Empty() {
			resting := level.Front()

			fillQty := order.RemainingQuantity
			if resting.RemainingQuantity.LessThan(fillQty) {
				fillQty = resting.RemainingQuantity
			}
			tradePrice := resting.Price

			order.Fill(fillQty)
			resting.Fill(fillQty)

			var buyOrder, sellOrder *domain.Order
			if order.Side == domain.SideBuy {
				buyOrder, sellOrder = order, resting
			} else {
				buyOrder, sellOrder = resting, order
			}

			seqID := seq.Next()
			trade := domain.NewTrade(book.Symbol, buyOrder, sellOrder, tradePrice, fillQty, order.Side, e.fees)
			trade.SequenceID = seqID
			book.SetLastSequence(seqID)
			trades = append(trades, trade)

			book.SettleFill(opposite, level, resting, fillQty)

			e.logger.Debug("trade executed",
				zap.String("symbol", book.Symbol),
				zap.Uint64("sequence", seqID),
				zap.String("price", tradePrice.String()),
				zap.String("quantity", fillQty.String()),
			)
		}
	}

	return trades
}

// crosses reports whether order would cross the book immediately:
// a buy at or above the best ask, or a sell at or below the best bid.
// Reads via BestLevel since the caller already holds the write lock.
func crosses(book *orderbook.OrderBook, order *domain.Order) bool {
	best := book.BestLevel(order.Side.Opposite())
	if best == nil {
		return false
	}
	if order.Side == domain.SideBuy {
		return order.Price.GreaterThanOrEqual(best.Price)
	}
	return order.Price.LessThanOrEqual(best.Price)
}

// validate applies the pre-match checks: symbol match,
// positive quantity, positive price when present, post-only implies
// a price.
func validate(order *domain.Order, bookSymbol string) *domain.MatchError {
	if order.Symbol != bookSymbol {
		return domain.NewMatchError(domain.ErrCodeValidation, "symbol does not match book")
	}
	if !order.OriginalQuantity.GreaterThan(decimal.Zero) {
		return domain.WrapMatchError(domain.ErrCodeValidation, "quantity must be positive", domain.ErrInvalidQuantity)
	}
	if order.HasPrice && !order.Price.GreaterThan(decimal.Zero) {
		return domain.WrapMatchError(domain.ErrCodeValidation, "price must be positive", domain.ErrInvalidPrice)
	}
	if order.PostOnly && !order.HasPrice {
		return domain.WrapMatchError(domain.ErrCodeValidation, "post-only requires a price", domain.ErrPriceRequired)
	}
	if order.Type == domain.OrderTypeLimit && !order.HasPrice {
		return domain.WrapMatchError(domain.ErrCodeValidation, "limit order requires a price", domain.ErrPriceRequired)
	}
	return nil
}
