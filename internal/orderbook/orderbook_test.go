package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

func limitOrder(side domain.Side, price, qty int64) *domain.Order {
	return domain.NewOrder("acct", "BTC-USD", side, domain.OrderTypeLimit, domain.TimeInForceGTC, false,
		decimal.NewFromInt(price), true, decimal.NewFromInt(qty), "")
}

func TestOrderBook_RestAndBestPrices(t *testing.T) {
	b := New("BTC-USD", nil)

	b.Rest(limitOrder(domain.SideBuy, 100, 1))
	b.Rest(limitOrder(domain.SideBuy, 105, 1))
	b.Rest(limitOrder(domain.SideSell, 110, 1))
	b.Rest(limitOrder(domain.SideSell, 108, 1))

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(decimal.NewFromInt(105)))

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Equal(decimal.NewFromInt(108)))

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(decimal.NewFromInt(3)))

	assert.Equal(t, 4, b.OrderCount())
}

func TestOrderBook_CancelRemovesOrderAndEmptyLevel(t *testing.T) {
	b := New("BTC-USD", nil)
	o := limitOrder(domain.SideBuy, 100, 1)
	b.Rest(o)

	cancelled, ok := b.Cancel(o.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, b.OrderCount())

	_, ok = b.BestBid()
	assert.False(t, ok, "level must be dropped once its last order is cancelled")
}

func TestOrderBook_CancelUnknownOrderReturnsFalse(t *testing.T) {
	b := New("BTC-USD", nil)
	_, ok := b.Cancel(limitOrder(domain.SideBuy, 100, 1).ID)
	assert.False(t, ok)
}

func TestOrderBook_FIFOWithinLevel(t *testing.T) {
	b := New("BTC-USD", nil)
	first := limitOrder(domain.SideBuy, 100, 1)
	second := limitOrder(domain.SideBuy, 100, 2)
	b.Rest(first)
	b.Rest(second)

	level := b.BestLevel(domain.SideBuy)
	require.NotNil(t, level)
	front := level.Front()
	assert.Equal(t, first.ID, front.ID, "earlier order must be at the front of the FIFO queue")
	assert.True(t, level.TotalVolume.Equal(decimal.NewFromInt(3)))
}

func TestOrderBook_DepthOrderedFromBest(t *testing.T) {
	b := New("BTC-USD", nil)
	b.Rest(limitOrder(domain.SideSell, 110, 1))
	b.Rest(limitOrder(domain.SideSell, 105, 1))
	b.Rest(limitOrder(domain.SideSell, 120, 1))

	depth := b.Depth(domain.SideSell, 10)
	require.Len(t, depth, 3)
	assert.True(t, depth[0].Price.Equal(decimal.NewFromInt(105)))
	assert.True(t, depth[1].Price.Equal(decimal.NewFromInt(110)))
	assert.True(t, depth[2].Price.Equal(decimal.NewFromInt(120)))
}

func TestOrderBook_ClearEmptiesBothSidesKeepingSequence(t *testing.T) {
	b := New("BTC-USD", nil)
	b.Rest(limitOrder(domain.SideBuy, 100, 1))
	b.Rest(limitOrder(domain.SideSell, 110, 1))
	b.SetLastSequence(7)

	b.Clear()

	assert.Equal(t, 0, b.OrderCount())
	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
	assert.Equal(t, uint64(7), b.LastSequence())
}

func TestOrderBook_RemainingVolumeRespectsPriceLimit(t *testing.T) {
	b := New("BTC-USD", nil)
	b.Rest(limitOrder(domain.SideSell, 100, 1))
	b.Rest(limitOrder(domain.SideSell, 105, 2))
	b.Rest(limitOrder(domain.SideSell, 110, 4))

	total := b.RemainingVolume(domain.SideSell, decimal.NewFromInt(105), true)
	assert.True(t, total.Equal(decimal.NewFromInt(3)), "only levels <= 105 should count for a buy crossing up to 105")

	all := b.RemainingVolume(domain.SideSell, decimal.Zero, false)
	assert.True(t, all.Equal(decimal.NewFromInt(7)))
}
