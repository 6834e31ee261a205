// Package manager implements the Book Manager: it owns the set of
// per-symbol books, routes requests to the correct book, serializes
// concurrent access per symbol, forwards emitted trades to the event
// sink, and triggers snapshots on schedule.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/domain"
	"github.com/abdoElHodaky/matchcore/internal/eventsink"
	"github.com/abdoElHodaky/matchcore/internal/matching"
	"github.com/abdoElHodaky/matchcore/internal/metrics"
	"github.com/abdoElHodaky/matchcore/internal/orderbook"
	"github.com/abdoElHodaky/matchcore/internal/sequence"
	"github.com/abdoElHodaky/matchcore/internal/snapshot"
)

// symbolState bundles the per-symbol book with its own Sequence
// Authority, the dispatch mutex that keeps sink delivery in sequence
// order for the symbol, and the sequence the book was last
// snapshotted at.
type symbolState struct {
	book         *orderbook.OrderBook
	seq          *sequence.Authority
	dispatchMu   sync.Mutex
	lastSnapshot uint64
}

// Manager routes submit/cancel requests to the correct symbol's book,
// lazily creating books on first reference, and fans emitted trades
// out to the configured Sink in sequence order.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*symbolState

	engine           *matching.Engine
	sink             eventsink.Sink
	store            *snapshot.Store
	snapshotInterval uint64
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

// New constructs a Manager. A nil logger is replaced with a no-op
// logger. snapshotInterval is the number of sequence advances between
// snapshots.
func New(engine *matching.Engine, sink eventsink.Sink, store *snapshot.Store, snapshotInterval uint64, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		states:           make(map[string]*symbolState),
		engine:           engine,
		sink:             sink,
		store:            store,
		snapshotInterval: snapshotInterval,
		logger:           logger,
	}
}

// SetMetrics attaches a metrics handle for order, trade, and
// snapshot-duration observations. Call before the Manager starts
// accepting traffic.
func (m *Manager) SetMetrics(handle *metrics.Metrics) {
	m.metrics = handle
}

func (m *Manager) stateFor(symbol string) *symbolState {
	m.mu.RLock()
	st, ok := m.states[symbol]
	m.mu.RUnlock()
	if ok {
		return st
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[symbol]; ok {
		return st
	}
	st = &symbolState{
		book: orderbook.New(symbol, m.logger),
		seq:  sequence.New(),
	}
	m.states[symbol] = st
	m.logger.Info("book created", zap.String("symbol", symbol))
	return st
}

// Submit routes order to its symbol's book through the Matching
// Engine, fans out any resulting trades to the event sink in sequence
// order, and evaluates the snapshot trigger.
func (m *Manager) Submit(ctx context.Context, order *domain.Order) *domain.MatchResult {
	// A caller-supplied deadline is honored only before the book lock
	// is acquired; once matching starts it runs to completion.
	if err := ctx.Err(); err != nil {
		return domain.Rejected(order, domain.WrapMatchError(domain.ErrCodeInfrastructure, "deadline exceeded", err))
	}

	st := m.stateFor(order.Symbol)

	// dispatchMu spans matching and fan-out so trades reach the sink
	// in sequence order for the symbol; the book's own lock is
	// released before any publish, so readers are never blocked on
	// sink I/O.
	st.dispatchMu.Lock()
	result := m.engine.Submit(st.book, st.seq, order)

	for _, trade := range result.Trades {
		if err := m.sink.Publish(ctx, trade); err != nil {
			// Infrastructure errors never roll back the matching
			// decision; the sink is at-least-once with a durable
			// replay log upstream, assumed.
			m.logger.Warn("trade sink publish failed",
				zap.String("symbol", order.Symbol),
				zap.Uint64("sequence", trade.SequenceID),
				zap.Error(err),
			)
		}
	}
	st.dispatchMu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordResult(order.Symbol, result)
	}
	m.maybeSnapshot(st, order.Symbol)
	return result
}

// Cancel routes a cancel request to symbol's book.
func (m *Manager) Cancel(symbol string, id uuid.UUID) (*domain.Order, bool) {
	st := m.stateFor(symbol)
	return m.engine.Cancel(st.book, id)
}

// Depth returns up to n price levels per side for symbol.
func (m *Manager) Depth(symbol string, n int) (bids, asks []orderbook.DepthLevel) {
	st := m.stateFor(symbol)
	return st.book.Depth(domain.SideBuy, n), st.book.Depth(domain.SideSell, n)
}

// OrderCount returns the number of orders resting in symbol's book.
func (m *Manager) OrderCount(symbol string) int {
	return m.stateFor(symbol).book.OrderCount()
}

// CurrentSequence returns symbol's current sequence counter value.
func (m *Manager) CurrentSequence(symbol string) uint64 {
	return m.stateFor(symbol).seq.Current()
}

// maybeSnapshot takes a snapshot of st's book when its sequence has
// advanced by at least snapshotInterval since the last one taken
// (hit-or-exceed rather than strict modulus equality). Snapshot
// failures are logged and retried on the next qualifying submit;
// they are never surfaced to the submit caller.
func (m *Manager) maybeSnapshot(st *symbolState, symbol string) {
	if m.store == nil || m.snapshotInterval == 0 {
		return
	}

	current := st.seq.Current()

	m.mu.Lock()
	due := current >= st.lastSnapshot+m.snapshotInterval
	if due {
		st.lastSnapshot = current
	}
	m.mu.Unlock()

	if !due {
		return
	}

	started := time.Now()
	if err := m.store.Save(st.book); err != nil {
		m.logger.Warn("snapshot failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	if m.metrics != nil {
		m.metrics.ObserveSnapshot(symbol, time.Since(started))
	}
	m.logger.Info("snapshot taken", zap.String("symbol", symbol), zap.Uint64("sequence", current))
}

// Rehydrate loads every known snapshot from the store before the
// Manager accepts traffic. Missing files simply mean
// a symbol starts from an empty book on first use.
func (m *Manager) Rehydrate() error {
	if m.store == nil {
		return nil
	}
	symbols, err := m.store.List()
	if err != nil {
		return err
	}

	for _, symbol := range symbols {
		book, err := m.store.Load(symbol, m.logger)
		if err != nil {
			m.logger.Warn("snapshot rehydrate failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		seq := sequence.NewFrom(book.LastSequence())

		m.mu.Lock()
		m.states[symbol] = &symbolState{book: book, seq: seq, lastSnapshot: book.LastSequence()}
		m.mu.Unlock()

		m.logger.Info("book rehydrated",
			zap.String("symbol", symbol),
			zap.Uint64("sequence", book.LastSequence()),
			zap.Int("orders", book.OrderCount()),
		)
	}
	return nil
}
