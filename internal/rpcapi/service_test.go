package rpcapi

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/matchcore/internal/domain"
	"github.com/abdoElHodaky/matchcore/internal/eventsink"
	"github.com/abdoElHodaky/matchcore/internal/manager"
	"github.com/abdoElHodaky/matchcore/internal/matching"
)

func newService() *Service {
	eng := matching.New(domain.DefaultFeeSchedule(), nil)
	mgr := manager.New(eng, eventsink.NewMemorySink(), nil, 0, nil)
	return NewService(mgr)
}

func TestService_SubmitOrder_RestsAndReportsNew(t *testing.T) {
	svc := newService()

	resp := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		AccountID: "acct-1", Symbol: "BTC-USD", Side: domain.SideBuy, OrderType: domain.OrderTypeLimit,
		Price: decimal.NewFromInt(100), HasPrice: true, Quantity: decimal.NewFromInt(1),
		TimeInForce: domain.TimeInForceGTC,
	})

	assert.True(t, resp.Success)
	assert.Equal(t, domain.ResultNew, resp.Status)
	assert.Equal(t, 0, resp.TradesCount)
}

func TestService_SubmitOrder_MatchesAndReportsFilled(t *testing.T) {
	svc := newService()

	svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		Symbol: "BTC-USD", Side: domain.SideSell, OrderType: domain.OrderTypeLimit,
		Price: decimal.NewFromInt(100), HasPrice: true, Quantity: decimal.NewFromInt(1),
		TimeInForce: domain.TimeInForceGTC,
	})
	resp := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		Symbol: "BTC-USD", Side: domain.SideBuy, OrderType: domain.OrderTypeLimit,
		Price: decimal.NewFromInt(100), HasPrice: true, Quantity: decimal.NewFromInt(1),
		TimeInForce: domain.TimeInForceGTC,
	})

	assert.True(t, resp.Success)
	assert.Equal(t, domain.ResultFilled, resp.Status)
	assert.Equal(t, 1, resp.TradesCount)
}

func TestService_SubmitOrder_RejectedReportsFailureMessage(t *testing.T) {
	svc := newService()

	resp := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		Symbol: "BTC-USD", Side: domain.SideBuy, OrderType: domain.OrderTypeLimit,
		HasPrice: false, Quantity: decimal.NewFromInt(1), TimeInForce: domain.TimeInForceGTC,
	})

	assert.False(t, resp.Success)
	assert.Equal(t, domain.ResultRejected, resp.Status)
	assert.NotEmpty(t, resp.Message)
}

func TestService_CancelOrder_UnknownIDReportsNotFound(t *testing.T) {
	svc := newService()

	resp := svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		Symbol: "BTC-USD", Side: domain.SideBuy, OrderType: domain.OrderTypeLimit,
		Price: decimal.NewFromInt(100), HasPrice: true, Quantity: decimal.NewFromInt(1),
		TimeInForce: domain.TimeInForceGTC,
	})
	require.True(t, resp.Success)

	book := svc.GetOrderBook(context.Background(), "BTC-USD", 10)
	require.Len(t, book.Bids, 1)

	// The order ID isn't threaded back through SubmitOrderResponse
	// (disposition objects carry no identifiers), so exercise
	// CancelOrder's not-found path here instead.
	cancelResp := svc.CancelOrder(context.Background(), "BTC-USD", uuid.New())
	assert.False(t, cancelResp.Success)
}

func TestParseSubmitOrderRequest_WireStrings(t *testing.T) {
	req, err := ParseSubmitOrderRequest("acct-1", "BTC-USD", "buy", "limit", "45000.5", "0.25", "GTC", true, "client-7")
	require.NoError(t, err)

	assert.Equal(t, domain.SideBuy, req.Side)
	assert.Equal(t, domain.OrderTypeLimit, req.OrderType)
	assert.Equal(t, domain.TimeInForceGTC, req.TimeInForce)
	assert.True(t, req.HasPrice)
	assert.True(t, req.Price.Equal(decimal.RequireFromString("45000.5")))
	assert.True(t, req.Quantity.Equal(decimal.RequireFromString("0.25")))
	assert.True(t, req.PostOnly)
	assert.Equal(t, "client-7", req.ClientOrderID)
}

func TestParseSubmitOrderRequest_EmptyPriceMeansMarket(t *testing.T) {
	req, err := ParseSubmitOrderRequest("acct-1", "BTC-USD", "sell", "market", "", "1", "IOC", false, "")
	require.NoError(t, err)
	assert.False(t, req.HasPrice)
}

func TestParseSubmitOrderRequest_EmptySymbolRejected(t *testing.T) {
	_, err := ParseSubmitOrderRequest("acct-1", "", "buy", "limit", "100", "1", "GTC", false, "")
	assert.ErrorIs(t, err, domain.ErrSymbolRequired)
}

func TestParseSubmitOrderRequest_RejectsMalformedFields(t *testing.T) {
	cases := []struct {
		name                      string
		side, typ, price, qty, tif string
	}{
		{"bad side", "long", "limit", "100", "1", "GTC"},
		{"bad type", "buy", "iceberg", "100", "1", "GTC"},
		{"bad tif", "buy", "limit", "100", "1", "DAY"},
		{"bad price", "buy", "limit", "a lot", "1", "GTC"},
		{"bad quantity", "buy", "limit", "100", "some", "GTC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSubmitOrderRequest("acct", "BTC-USD", tc.side, tc.typ, tc.price, tc.qty, tc.tif, false, "")
			assert.Error(t, err)
		})
	}
}

func TestService_GetOrderBook_ReturnsBothSides(t *testing.T) {
	svc := newService()

	svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		Symbol: "BTC-USD", Side: domain.SideBuy, OrderType: domain.OrderTypeLimit,
		Price: decimal.NewFromInt(100), HasPrice: true, Quantity: decimal.NewFromInt(1),
		TimeInForce: domain.TimeInForceGTC,
	})
	svc.SubmitOrder(context.Background(), SubmitOrderRequest{
		Symbol: "BTC-USD", Side: domain.SideSell, OrderType: domain.OrderTypeLimit,
		Price: decimal.NewFromInt(110), HasPrice: true, Quantity: decimal.NewFromInt(2),
		TimeInForce: domain.TimeInForceGTC,
	})

	resp := svc.GetOrderBook(context.Background(), "BTC-USD", 10)
	require.Len(t, resp.Bids, 1)
	require.Len(t, resp.Asks, 1)
	assert.True(t, resp.Bids[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, resp.Asks[0].Price.Equal(decimal.NewFromInt(110)))
}
