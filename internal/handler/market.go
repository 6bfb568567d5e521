package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/service"
)

// MarketHandler handles HTTP requests for symbol and market data endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// registerSymbolRequest is the JSON request body for POST /symbols.
type registerSymbolRequest struct {
	Symbol string `json:"symbol"`
}

// RegisterSymbol handles POST /symbols.
func (h *MarketHandler) RegisterSymbol(w http.ResponseWriter, r *http.Request) {
	var req registerSymbolRequest
	if err := ParseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.marketSvc.RegisterSymbol(req.Symbol); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"symbol": req.Symbol})
}

// ListSymbols handles GET /symbols.
func (h *MarketHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string][]string{"symbols": h.marketSvc.Symbols()})
}

// GetDepth handles GET /depth/{symbol}.
func (h *MarketHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	snap, err := h.marketSvc.Depth(symbol)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// GetFills handles GET /fills/{symbol}?limit=n.
func (h *MarketHandler) GetFills(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	fills, err := h.marketSvc.Fills(symbol, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]fillResponse, 0, len(fills))
	for _, f := range fills {
		resp = append(resp, fillResponse{
			FillID:       f.FillID,
			Price:        f.Price,
			Quantity:     f.Quantity,
			MakerOrderID: f.MakerOrderID,
			TakerOrderID: f.TakerOrderID,
			TakerSide:    string(f.TakerSide),
			ExecutedAt:   f.ExecutedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "fills": resp})
}
