// Package rpcapi exposes the matching core's request surface: submit
// order, cancel order, and get order book, as plain Go methods backed
// by the Book Manager. The wire transport is an external collaborator
// that embeds Service.
package rpcapi

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdoElHodaky/matchcore/internal/domain"
	"github.com/abdoElHodaky/matchcore/internal/manager"
	"github.com/abdoElHodaky/matchcore/internal/orderbook"
)

// SubmitOrderRequest is the wire-agnostic shape of a submit_order
// request.
type SubmitOrderRequest struct {
	AccountID     string
	Symbol        string
	Side          domain.Side
	OrderType     domain.OrderType
	Price         decimal.Decimal
	HasPrice      bool
	Quantity      decimal.Decimal
	TimeInForce   domain.TimeInForce
	PostOnly      bool
	ClientOrderID string
}

// ParseSubmitOrderRequest converts the wire representation of the
// submit surface into a typed request: price and quantity as decimal
// strings, side and order type lowercase, time-in-force uppercase.
// An empty price string means no price, as for market orders.
func ParseSubmitOrderRequest(accountID, symbol, side, orderType, price, quantity, tif string, postOnly bool, clientOrderID string) (SubmitOrderRequest, error) {
	if symbol == "" {
		return SubmitOrderRequest{}, domain.ErrSymbolRequired
	}
	req := SubmitOrderRequest{AccountID: accountID, Symbol: symbol, PostOnly: postOnly, ClientOrderID: clientOrderID}

	switch domain.Side(side) {
	case domain.SideBuy, domain.SideSell:
		req.Side = domain.Side(side)
	default:
		return SubmitOrderRequest{}, fmt.Errorf("unknown side %q", side)
	}

	switch domain.OrderType(orderType) {
	case domain.OrderTypeMarket, domain.OrderTypeLimit, domain.OrderTypeStop, domain.OrderTypeStopLimit:
		req.OrderType = domain.OrderType(orderType)
	default:
		return SubmitOrderRequest{}, fmt.Errorf("unknown order type %q", orderType)
	}

	switch domain.TimeInForce(tif) {
	case domain.TimeInForceGTC, domain.TimeInForceIOC, domain.TimeInForceFOK, domain.TimeInForceGTD:
		req.TimeInForce = domain.TimeInForce(tif)
	default:
		return SubmitOrderRequest{}, fmt.Errorf("unknown time in force %q", tif)
	}

	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return SubmitOrderRequest{}, fmt.Errorf("parse quantity %q: %w", quantity, err)
	}
	req.Quantity = qty

	if price != "" {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return SubmitOrderRequest{}, fmt.Errorf("parse price %q: %w", price, err)
		}
		req.Price = p
		req.HasPrice = true
	}
	return req, nil
}

// SubmitOrderResponse is the submit_order disposition object.
type SubmitOrderResponse struct {
	Success     bool
	Status      domain.ResultStatus
	Message     string
	TradesCount int
}

// CancelOrderResponse is the cancel_order disposition object.
type CancelOrderResponse struct {
	Success bool
	Message string
}

// GetOrderBookResponse is the get_order_book response.
type GetOrderBookResponse struct {
	Symbol string
	Bids   []orderbook.DepthLevel
	Asks   []orderbook.DepthLevel
}

// Service implements the matching core's request surface as plain Go
// methods over the Book Manager. The transport is an external
// collaborator: a gateway embeds Service to put these operations on
// the wire.
type Service struct {
	manager *manager.Manager
}

// NewService constructs a Service bound to mgr.
func NewService(mgr *manager.Manager) *Service {
	return &Service{manager: mgr}
}

// SubmitOrder validates and matches req through the Matching Engine,
// returning the resulting disposition.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitOrderRequest) SubmitOrderResponse {
	order := domain.NewOrder(req.AccountID, req.Symbol, req.Side, req.OrderType, req.TimeInForce,
		req.PostOnly, req.Price, req.HasPrice, req.Quantity, req.ClientOrderID)

	result := s.manager.Submit(ctx, order)

	resp := SubmitOrderResponse{
		Status:      result.Status,
		TradesCount: len(result.Trades),
	}
	if result.Status == domain.ResultRejected {
		resp.Success = false
		if result.Err != nil {
			resp.Message = result.Err.Message
		}
		return resp
	}
	resp.Success = true
	resp.Message = "accepted"
	return resp
}

// CancelOrder cancels an order resting in symbol's book.
func (s *Service) CancelOrder(ctx context.Context, symbol string, orderID uuid.UUID) CancelOrderResponse {
	_, ok := s.manager.Cancel(symbol, orderID)
	if !ok {
		return CancelOrderResponse{Success: false, Message: domain.ErrOrderNotFound.Error()}
	}
	return CancelOrderResponse{Success: true, Message: "cancelled"}
}

// GetOrderBook returns up to depth price levels per side of symbol's
// book, best price first.
func (s *Service) GetOrderBook(ctx context.Context, symbol string, depth int) GetOrderBookResponse {
	bids, asks := s.manager.Depth(symbol, depth)
	return GetOrderBookResponse{Symbol: symbol, Bids: bids, Asks: asks}
}
