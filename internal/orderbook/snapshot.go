package orderbook

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

// Snapshot is the exact, gob-serializable representation of an
// OrderBook's state: both side maps with their queues in queue order,
// and the sequence counter value. decimal.Decimal
// implements GobEncode/GobDecode natively so prices round-trip
// exactly without a custom codec.
type Snapshot struct {
	Symbol   string
	Sequence uint64
	Bids     []LevelSnapshot
	Asks     []LevelSnapshot
}

// LevelSnapshot is one price level's FIFO queue, in queue order.
type LevelSnapshot struct {
	Price  decimal.Decimal
	Orders []domain.Order
}

// Export captures the book's current state for serialization. The
// Snapshot Store holds the book's write lock around the call, so
// Export itself does not lock.
func (b *OrderBook) Export() Snapshot {
	return Snapshot{
		Symbol:   b.Symbol,
		Sequence: b.lastSequence,
		Bids:     exportSide(b.bids),
		Asks:     exportSide(b.asks),
	}
}

func exportSide(tree *rbt.Tree[decimal.Decimal, *Level]) []LevelSnapshot {
	out := make([]LevelSnapshot, 0, tree.Size())
	it := tree.Iterator()
	for it.Next() {
		level := it.Value()
		ls := LevelSnapshot{Price: level.Price}
		for e := level.Orders.Front(); e != nil; e = e.Next() {
			ls.Orders = append(ls.Orders, *e.Value.(*domain.Order))
		}
		out = append(out, ls)
	}
	return out
}

// Restore rebuilds an OrderBook from a Snapshot, recreating both side
// trees, the FIFO queues in their original order, and the order
// index, then sets the sequence counter to the snapshotted value.
func Restore(snap Snapshot, logger *zap.Logger) *OrderBook {
	b := New(snap.Symbol, logger)
	restoreSide(b, snap.Bids)
	restoreSide(b, snap.Asks)
	b.lastSequence = snap.Sequence
	return b
}

func restoreSide(b *OrderBook, levels []LevelSnapshot) {
	for _, ls := range levels {
		for i := range ls.Orders {
			o := ls.Orders[i]
			b.restLocked(&o)
		}
	}
}
