// Package orderbook implements the per-symbol limit order book:
// price-indexed FIFO queues plus an O(1) cancel-by-id index, exposing
// the read/write primitives the matching algorithm and Book Manager
// build on.
package orderbook

import (
	"container/list"
	"sync"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

// location locates a resting order for O(1) removal: its side and its
// level. The order's node within that level's FIFO list is held in
// orderIndex.
type location struct {
	side  domain.Side
	level *Level
}

// OrderBook holds one symbol's resting bids and asks. Bids are
// indexed best (highest) first, asks best (lowest) first, each as a
// red-black tree of price -> Level so best-price and full-depth walks
// are O(log n) and O(n) respectively, while cancel-by-id is O(1) via
// orderIndex holding each order's list handle.
type OrderBook struct {
	mu sync.RWMutex

	Symbol string
	logger *zap.Logger

	bids *rbt.Tree[decimal.Decimal, *Level]
	asks *rbt.Tree[decimal.Decimal, *Level]

	orderIndex map[uuid.UUID]*list.Element
	orderLoc   map[uuid.UUID]location
	orders     map[uuid.UUID]*domain.Order

	lastSequence uint64
}

// descComparator orders highest-price-first, used for bids so Left()
// yields the best bid.
func descComparator(a, b decimal.Decimal) int {
	return -a.Cmp(b)
}

// ascComparator orders lowest-price-first, used for asks so Left()
// yields the best ask.
func ascComparator(a, b decimal.Decimal) int {
	return a.Cmp(b)
}

// New constructs an empty book for symbol. A nil logger is replaced
// with a no-op logger.
func New(symbol string, logger *zap.Logger) *OrderBook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderBook{
		Symbol:     symbol,
		logger:     logger,
		bids:       rbt.NewWith[decimal.Decimal, *Level](descComparator),
		asks:       rbt.NewWith[decimal.Decimal, *Level](ascComparator),
		orderIndex: make(map[uuid.UUID]*list.Element),
		orderLoc:   make(map[uuid.UUID]location),
		orders:     make(map[uuid.UUID]*domain.Order),
	}
}

func (b *OrderBook) treeFor(side domain.Side) *rbt.Tree[decimal.Decimal, *Level] {
	if side == domain.SideBuy {
		return b.bids
	}
	return b.asks
}

// Rest inserts a resting order into its side's book at its limit
// price, creating the price level if needed. Callers must hold no
// book lock; Rest takes the write lock itself.
func (b *OrderBook) Rest(o *domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.restLocked(o)
}

func (b *OrderBook) restLocked(o *domain.Order) {
	tree := b.treeFor(o.Side)
	level, found := tree.Get(o.Price)
	if !found {
		level = newLevel(o.Price)
		tree.Put(o.Price, level)
	}
	elem := level.pushBack(o)
	b.orderIndex[o.ID] = elem
	b.orderLoc[o.ID] = location{side: o.Side, level: level}
	b.orders[o.ID] = o

	b.logger.Debug("order resting",
		zap.String("symbol", b.Symbol),
		zap.String("order_id", o.ID.String()),
		zap.String("side", string(o.Side)),
		zap.String("price", o.Price.String()),
		zap.String("remaining", o.RemainingQuantity.String()),
	)
}

// Cancel removes a resting order by id in O(1). Returns false if the
// order is not currently resting in this book.
func (b *OrderBook) Cancel(id uuid.UUID) (*domain.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelLocked(id)
}

func (b *OrderBook) cancelLocked(id uuid.UUID) (*domain.Order, bool) {
	elem, ok := b.orderIndex[id]
	if !ok {
		return nil, false
	}
	loc := b.orderLoc[id]
	o := elem.Value.(*domain.Order)

	loc.level.remove(elem)
	if loc.level.Empty() {
		b.treeFor(loc.side).Remove(loc.level.Price)
	}
	delete(b.orderIndex, id)
	delete(b.orderLoc, id)
	delete(b.orders, id)

	o.Cancel()
	b.logger.Debug("order cancelled", zap.String("symbol", b.Symbol), zap.String("order_id", id.String()))
	return o, true
}

// BestBid returns the highest resting bid price and whether one exists.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	node := b.bids.Left()
	if node == nil {
		return decimal.Zero, false
	}
	return node.Key, true
}

// BestAsk returns the lowest resting ask price and whether one exists.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	node := b.asks.Left()
	if node == nil {
		return decimal.Zero, false
	}
	return node.Key, true
}

// Spread returns ask - bid, and false if either side is empty.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// Mid returns (bid+ask)/2, and false if either side is empty.
func (b *OrderBook) Mid() (decimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), true
}

// DepthLevel is one row of a depth snapshot.
type DepthLevel struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// Depth returns up to maxLevels price levels from the best price
// outward for the given side.
func (b *OrderBook) Depth(side domain.Side, maxLevels int) []DepthLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tree := b.treeFor(side)
	it := tree.Iterator()
	out := make([]DepthLevel, 0, maxLevels)
	for it.Next() && len(out) < maxLevels {
		level := it.Value()
		out = append(out, DepthLevel{Price: level.Price, Volume: level.TotalVolume})
	}
	return out
}

// OrderCount returns the number of orders currently resting in the book.
func (b *OrderBook) OrderCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

// Clear drops every resting order, both price trees, and the index,
// leaving the sequence counter untouched. Test/reset use only.
func (b *OrderBook) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids.Clear()
	b.asks.Clear()
	b.orderIndex = make(map[uuid.UUID]*list.Element)
	b.orderLoc = make(map[uuid.UUID]location)
	b.orders = make(map[uuid.UUID]*domain.Order)
}

// Get returns a resting order by id.
func (b *OrderBook) Get(id uuid.UUID) (*domain.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	return o, ok
}

// LastSequence returns the most recently assigned sequence id applied
// to this book (for snapshotting).
func (b *OrderBook) LastSequence() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSequence
}

// SetLastSequence records the sequence id most recently applied to
// this book. Called by the matching engine after each accepted
// operation; callers must hold the write lock or have exclusive
// access to the book.
func (b *OrderBook) SetLastSequence(seq uint64) {
	b.lastSequence = seq
}

// Lock/Unlock expose the book's single-writer exclusion to the
// matching engine, which must hold the write lock for the entire
// duration of a submit/cancel operation.
func (b *OrderBook) Lock()    { b.mu.Lock() }
func (b *OrderBook) Unlock()  { b.mu.Unlock() }
func (b *OrderBook) RLock()   { b.mu.RLock() }
func (b *OrderBook) RUnlock() { b.mu.RUnlock() }

// BestLevel returns the resting Level at the book's best price for
// side, or nil if that side is empty. Used by the matching algorithm
// while the write lock is already held.
func (b *OrderBook) BestLevel(side domain.Side) *Level {
	tree := b.treeFor(side)
	node := tree.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

// SettleFill records that resting (a maker order already sitting in
// level) has just had fillQty applied via resting.Fill(fillQty): it
// reduces the level's aggregate volume and, if resting is now
// terminal, removes it from the queue, the index, and drops the level
// if it is now empty. Called by the matching algorithm while the
// write lock is already held, immediately after resting.Fill.
func (b *OrderBook) SettleFill(side domain.Side, level *Level, resting *domain.Order, fillQty decimal.Decimal) {
	level.reduceVolume(fillQty)
	if resting.Status.IsTerminal() {
		if elem, ok := b.orderIndex[resting.ID]; ok {
			level.removeElement(elem)
		}
		delete(b.orderIndex, resting.ID)
		delete(b.orderLoc, resting.ID)
		delete(b.orders, resting.ID)
		if level.Empty() {
			b.treeFor(side).Remove(level.Price)
		}
	}
}

// TrackOrder stores bookkeeping when the matching algorithm rests a
// new order directly rather than going through Rest (used for the
// remainder of a partially filled incoming order, or a post-only
// order). Equivalent to restLocked but named for call-site clarity
// from the matching package. Caller must already hold the write lock.
func (b *OrderBook) TrackOrder(o *domain.Order) {
	b.restLocked(o)
}

// RemainingVolume sums RemainingQuantity across the resting orders on
// side, best price first; when hasPriceLimit is set it stops at the
// first level that does not cross upToPrice. Used by the FOK
// liquidity pre-check.
func (b *OrderBook) RemainingVolume(side domain.Side, upToPrice decimal.Decimal, hasPriceLimit bool) decimal.Decimal {
	tree := b.treeFor(side)
	it := tree.Iterator()
	total := decimal.Zero
	for it.Next() {
		level := it.Value()
		if hasPriceLimit {
			if side == domain.SideSell && level.Price.GreaterThan(upToPrice) {
				break
			}
			if side == domain.SideBuy && level.Price.LessThan(upToPrice) {
				break
			}
		}
		total = total.Add(level.TotalVolume)
	}
	return total
}
