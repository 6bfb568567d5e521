package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/engine"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/service"
)

// OrderHandler handles HTTP requests for order entry endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	Symbol   string `json:"symbol"`
	OrderID  string `json:"order_id"`
	Type     string `json:"type"`
	Side     string `json:"side"`
	Price    *int64 `json:"price"`
	Quantity int64  `json:"quantity"`
}

// replaceOrderRequest is the JSON request body for PUT /orders/{symbol}/{order_id}.
type replaceOrderRequest struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// reduceOrderRequest is the JSON request body for PATCH .../reduce.
type reduceOrderRequest struct {
	RemainingQuantity int64 `json:"remaining_quantity"`
}

// fillResponse is a single fill in a submit or replace response.
type fillResponse struct {
	FillID       string `json:"fill_id"`
	Price        int64  `json:"price"`
	Quantity     int64  `json:"quantity"`
	MakerOrderID string `json:"maker_order_id"`
	TakerOrderID string `json:"taker_order_id"`
	TakerSide    string `json:"taker_side"`
	ExecutedAt   string `json:"executed_at"`
}

// orderResponse is the JSON view of an order's current state.
type orderResponse struct {
	OrderID           string `json:"order_id"`
	Symbol            string `json:"symbol"`
	Type              string `json:"type"`
	Side              string `json:"side"`
	Price             *int64 `json:"price"`
	Quantity          int64  `json:"quantity"`
	FilledQuantity    int64  `json:"filled_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	CancelledQuantity int64  `json:"cancelled_quantity"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
}

// submitOrderResponse is the JSON response for submit and replace.
type submitOrderResponse struct {
	Disposition string         `json:"disposition"`
	Order       orderResponse  `json:"order"`
	Fills       []fillResponse `json:"fills"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.orderSvc.Submit(service.SubmitOrderRequest{
		Symbol:   req.Symbol,
		OrderID:  req.OrderID,
		Type:     domain.OrderType(req.Type),
		Side:     domain.Side(req.Side),
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildSubmitResponse(result))
}

// CancelOrder handles DELETE /orders/{symbol}/{order_id}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.Cancel(symbol, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// ReplaceOrder handles PUT /orders/{symbol}/{order_id}.
func (h *OrderHandler) ReplaceOrder(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	orderID := chi.URLParam(r, "order_id")

	var req replaceOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.orderSvc.Replace(symbol, orderID, req.Price, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSubmitResponse(result))
}

// ReduceOrder handles PATCH /orders/{symbol}/{order_id}/reduce.
func (h *OrderHandler) ReduceOrder(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	orderID := chi.URLParam(r, "order_id")

	var req reduceOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	order, err := h.orderSvc.Reduce(symbol, orderID, req.RemainingQuantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

func buildSubmitResponse(result *engine.SubmitResult) submitOrderResponse {
	fills := make([]fillResponse, 0, len(result.Fills))
	for _, f := range result.Fills {
		fills = append(fills, fillResponse{
			FillID:       f.FillID,
			Price:        f.Price,
			Quantity:     f.Quantity,
			MakerOrderID: f.MakerOrderID,
			TakerOrderID: f.TakerOrderID,
			TakerSide:    string(f.TakerSide),
			ExecutedAt:   f.ExecutedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return submitOrderResponse{
		Disposition: string(result.Disposition),
		Order:       buildOrderResponse(result.Order),
		Fills:       fills,
	}
}

func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:           o.OrderID,
		Symbol:            o.Symbol,
		Type:              string(o.Type),
		Side:              string(o.Side),
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		CancelledQuantity: o.CancelledQuantity,
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if o.Type == domain.OrderTypeLimit {
		price := o.Price
		resp.Price = &price
	}
	return resp
}
