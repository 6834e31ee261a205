// Package eventsink implements the outbound trade event bus consumed
// by the Book Manager: every emitted Trade is forwarded here in
// sequence order per symbol.
package eventsink

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

// Sink is the outbound trade publisher contract. Implementations must
// be safe for concurrent Publish calls; the sink is shared across
// books.
type Sink interface {
	Publish(ctx context.Context, trade *domain.Trade) error
	Close() error
}

// MemorySink accumulates published trades in memory, used by tests
// and by standalone runs with no broker configured.
type MemorySink struct {
	mu     sync.Mutex
	trades []*domain.Trade
}

// NewMemorySink constructs an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish appends trade to the in-memory log.
func (s *MemorySink) Publish(_ context.Context, trade *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
	return nil
}

// Trades returns a snapshot of all trades published so far.
func (s *MemorySink) Trades() []*domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// Close is a no-op for MemorySink.
func (s *MemorySink) Close() error { return nil }

// tradeEnvelope is the JSON wire shape published to the broker: the
// full Trade field set, keyed for partitioning by symbol.
type tradeEnvelope struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	BuyOrderID    string `json:"buy_order_id"`
	SellOrderID   string `json:"sell_order_id"`
	BuyAccountID  string `json:"buy_account_id"`
	SellAccountID string `json:"sell_account_id"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	MakerFee      string `json:"maker_fee"`
	TakerFee      string `json:"taker_fee"`
	TakerSide     string `json:"taker_side"`
	SequenceID    uint64 `json:"sequence_id"`
	Timestamp     int64  `json:"timestamp_unix_nano"`
}

func marshalTrade(trade *domain.Trade) ([]byte, error) {
	env := tradeEnvelope{
		ID:            trade.ID.String(),
		Symbol:        trade.Symbol,
		BuyOrderID:    trade.BuyOrderID.String(),
		SellOrderID:   trade.SellOrderID.String(),
		BuyAccountID:  trade.BuyAccountID,
		SellAccountID: trade.SellAccountID,
		Price:         trade.Price.String(),
		Quantity:      trade.Quantity.String(),
		MakerFee:      trade.MakerFee.String(),
		TakerFee:      trade.TakerFee.String(),
		TakerSide:     string(trade.TakerSide),
		SequenceID:    trade.SequenceID,
		Timestamp:     trade.Timestamp.UnixNano(),
	}
	return json.Marshal(env)
}
