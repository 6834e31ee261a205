package snapshot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/matchcore/internal/domain"
	"github.com/abdoElHodaky/matchcore/internal/orderbook"
)

func buildBook(t *testing.T) *orderbook.OrderBook {
	t.Helper()
	book := orderbook.New("BTC-USD", nil)
	book.Rest(domain.NewOrder("acct-1", "BTC-USD", domain.SideBuy, domain.OrderTypeLimit, domain.TimeInForceGTC, false, decimal.NewFromInt(100), true, decimal.NewFromInt(2), "c1"))
	book.Rest(domain.NewOrder("acct-2", "BTC-USD", domain.SideBuy, domain.OrderTypeLimit, domain.TimeInForceGTC, false, decimal.NewFromInt(100), true, decimal.NewFromInt(3), "c2"))
	book.Rest(domain.NewOrder("acct-3", "BTC-USD", domain.SideSell, domain.OrderTypeLimit, domain.TimeInForceGTC, false, decimal.NewFromInt(105), true, decimal.NewFromInt(1), "c3"))
	book.SetLastSequence(42)
	return book
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, nil)
	original := buildBook(t)

	require.NoError(t, store.Save(original))

	restored, err := store.Load("BTC-USD", nil)
	require.NoError(t, err)

	assert.Equal(t, original.Symbol, restored.Symbol)
	assert.Equal(t, original.LastSequence(), restored.LastSequence())
	assert.Equal(t, original.OrderCount(), restored.OrderCount())

	origBid, _ := original.BestBid()
	restoredBid, ok := restored.BestBid()
	require.True(t, ok)
	assert.True(t, origBid.Equal(restoredBid))

	origAsk, _ := original.BestAsk()
	restoredAsk, ok := restored.BestAsk()
	require.True(t, ok)
	assert.True(t, origAsk.Equal(restoredAsk))

	level := restored.BestLevel(domain.SideBuy)
	require.NotNil(t, level)
	assert.Equal(t, "c1", level.Front().ClientOrderID, "FIFO order within a level must round-trip")
}

func TestStore_LoadMissingReturnsErrNotFound(t *testing.T) {
	store := New(t.TempDir(), nil)
	_, err := store.Load("NO-SUCH-SYMBOL", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, nil)

	require.NoError(t, store.Save(buildBook(t)))

	symbols, err := store.List()
	require.NoError(t, err)
	assert.Contains(t, symbols, "BTC-USD")

	require.NoError(t, store.Delete("BTC-USD"))
	symbols, err = store.List()
	require.NoError(t, err)
	assert.NotContains(t, symbols, "BTC-USD")
}

func TestStore_ListOnMissingDirReturnsEmpty(t *testing.T) {
	store := New(t.TempDir()+"/does-not-exist", nil)
	symbols, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, symbols)
}
