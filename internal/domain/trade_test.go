package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTrade_AttributesMakerFeeToRestingSide(t *testing.T) {
	fees := DefaultFeeSchedule()
	buyer := NewOrder("buyer", "BTC-USD", SideBuy, OrderTypeLimit, TimeInForceGTC, false, decimal.NewFromInt(100), true, decimal.NewFromInt(1), "")
	seller := NewOrder("seller", "BTC-USD", SideSell, OrderTypeLimit, TimeInForceGTC, false, decimal.NewFromInt(100), true, decimal.NewFromInt(1), "")

	trade := NewTrade("BTC-USD", buyer, seller, decimal.NewFromInt(100), decimal.NewFromInt(1), SideBuy, fees)

	expectedMaker := fees.MakerFee(decimal.NewFromInt(100), decimal.NewFromInt(1))
	expectedTaker := fees.TakerFee(decimal.NewFromInt(100), decimal.NewFromInt(1))

	assert.True(t, trade.MakerFee.Equal(expectedMaker))
	assert.True(t, trade.TakerFee.Equal(expectedTaker))
	assert.Equal(t, SideBuy, trade.TakerSide, "the buyer is the taker, so the maker fee belongs to the resting seller")
	assert.Equal(t, buyer.ID, trade.BuyOrderID)
	assert.Equal(t, seller.ID, trade.SellOrderID)
}

func TestFeeSchedule_DefaultBps(t *testing.T) {
	fees := DefaultFeeSchedule()
	price := decimal.NewFromInt(1000)
	qty := decimal.NewFromInt(2)

	// 1000 * 2 * 10 / 10000 = 2
	assert.True(t, fees.MakerFee(price, qty).Equal(decimal.NewFromInt(2)))
	// 1000 * 2 * 15 / 10000 = 3
	assert.True(t, fees.TakerFee(price, qty).Equal(decimal.NewFromInt(3)))
}
