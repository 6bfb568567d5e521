package service

import (
	"fmt"
	"regexp"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/engine"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/exchange"
)

var (
	orderIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	symbolRegex  = regexp.MustCompile(`^[A-Z]{1,10}$`)
)

// SubmitOrderRequest represents the input for order submission. OrderID is
// caller-assigned and must be unique among resident orders of the symbol.
type SubmitOrderRequest struct {
	Symbol   string
	OrderID  string
	Type     domain.OrderType
	Side     domain.Side
	Price    *int64 // required for limit, must be absent for market
	Quantity int64
}

// OrderService validates inbound order commands and routes them to the
// right symbol's matching unit.
type OrderService struct {
	registry *exchange.Registry
}

// NewOrderService creates a new OrderService.
func NewOrderService(registry *exchange.Registry) *OrderService {
	return &OrderService{registry: registry}
}

// Submit validates the request shape, routes to the symbol's matcher, and
// returns the fills and disposition.
func (s *OrderService) Submit(req SubmitOrderRequest) (*engine.SubmitResult, error) {
	if req.Type != domain.OrderTypeLimit && req.Type != domain.OrderTypeMarket {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: limit, market", req.Type),
		}
	}
	if req.Side != domain.SideBid && req.Side != domain.SideAsk {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown side: %s. Must be one of: bid, ask", req.Side),
		}
	}
	if !symbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{Message: "symbol must be 1-10 uppercase letters"}
	}
	if !orderIDRegex.MatchString(req.OrderID) {
		return nil, &domain.ValidationError{Message: "order_id must be 1-64 alphanumeric, dash or underscore characters"}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ValidationError{Message: "quantity must be a positive integer"}
	}

	var price int64
	switch req.Type {
	case domain.OrderTypeLimit:
		if req.Price == nil {
			return nil, &domain.ValidationError{Message: "price is required for limit orders"}
		}
		if *req.Price <= 0 {
			return nil, &domain.ValidationError{Message: "price must be a positive integer"}
		}
		price = *req.Price
	case domain.OrderTypeMarket:
		if req.Price != nil {
			return nil, &domain.ValidationError{Message: "price must be omitted for market orders"}
		}
	}

	m, err := s.registry.Lookup(req.Symbol)
	if err != nil {
		return nil, err
	}

	return m.Submit(&domain.Order{
		OrderID:  req.OrderID,
		Symbol:   req.Symbol,
		Type:     req.Type,
		Side:     req.Side,
		Price:    price,
		Quantity: req.Quantity,
	})
}

// Cancel removes a resting order in full.
func (s *OrderService) Cancel(symbol, orderID string) (*domain.Order, error) {
	m, err := s.registry.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return m.Cancel(orderID)
}

// Replace atomically cancels and re-enters an order with the same id at a
// new price and quantity. Time priority is not preserved.
func (s *OrderService) Replace(symbol, orderID string, newPrice, newQty int64) (*engine.SubmitResult, error) {
	m, err := s.registry.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return m.Replace(orderID, newPrice, newQty)
}

// Reduce lowers a resting order's remaining quantity, keeping priority.
func (s *OrderService) Reduce(symbol, orderID string, newRemaining int64) (*domain.Order, error) {
	m, err := s.registry.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return m.Reduce(orderID, newRemaining)
}
