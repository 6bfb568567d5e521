package service

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/exchange"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/store"
)

func newTestServices(t *testing.T, symbols ...string) (*OrderService, *MarketService) {
	t.Helper()
	fills := store.NewFillStore()
	registry := exchange.NewRegistry(fills)
	market := NewMarketService(registry, fills, slog.Default())
	for _, s := range symbols {
		if err := market.RegisterSymbol(s); err != nil {
			t.Fatalf("register %s: %v", s, err)
		}
	}
	return NewOrderService(registry), market
}

func ptr(v int64) *int64 { return &v }

func TestOrderService_SubmitLimit(t *testing.T) {
	orders, _ := newTestServices(t, "BTCUSD")

	result, err := orders.Submit(SubmitOrderRequest{
		Symbol:   "BTCUSD",
		OrderID:  "o1",
		Type:     domain.OrderTypeLimit,
		Side:     domain.SideBid,
		Price:    ptr(100),
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Disposition != domain.DispositionRested {
		t.Errorf("expected rested, got %s", result.Disposition)
	}
	if result.Order.Price != 100 || result.Order.RemainingQuantity != 10 {
		t.Errorf("unexpected order: %+v", result.Order)
	}
}

func TestOrderService_SubmitValidation(t *testing.T) {
	orders, _ := newTestServices(t, "BTCUSD")

	base := func() SubmitOrderRequest {
		return SubmitOrderRequest{
			Symbol:   "BTCUSD",
			OrderID:  "o1",
			Type:     domain.OrderTypeLimit,
			Side:     domain.SideBid,
			Price:    ptr(100),
			Quantity: 10,
		}
	}

	cases := []struct {
		name   string
		mutate func(*SubmitOrderRequest)
	}{
		{"unknown type", func(r *SubmitOrderRequest) { r.Type = "stop" }},
		{"unknown side", func(r *SubmitOrderRequest) { r.Side = "buy" }},
		{"lowercase symbol", func(r *SubmitOrderRequest) { r.Symbol = "btcusd" }},
		{"symbol too long", func(r *SubmitOrderRequest) { r.Symbol = "ABCDEFGHIJK" }},
		{"empty order id", func(r *SubmitOrderRequest) { r.OrderID = "" }},
		{"order id bad chars", func(r *SubmitOrderRequest) { r.OrderID = "o 1!" }},
		{"zero quantity", func(r *SubmitOrderRequest) { r.Quantity = 0 }},
		{"negative quantity", func(r *SubmitOrderRequest) { r.Quantity = -5 }},
		{"limit without price", func(r *SubmitOrderRequest) { r.Price = nil }},
		{"zero price", func(r *SubmitOrderRequest) { r.Price = ptr(0) }},
		{"negative price", func(r *SubmitOrderRequest) { r.Price = ptr(-10) }},
		{"market with price", func(r *SubmitOrderRequest) { r.Type = domain.OrderTypeMarket }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base()
			tc.mutate(&req)
			_, err := orders.Submit(req)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestOrderService_SubmitUnknownSymbol(t *testing.T) {
	orders, _ := newTestServices(t, "BTCUSD")
	_, err := orders.Submit(SubmitOrderRequest{
		Symbol:   "ETHUSD",
		OrderID:  "o1",
		Type:     domain.OrderTypeLimit,
		Side:     domain.SideBid,
		Price:    ptr(100),
		Quantity: 10,
	})
	if !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestOrderService_CancelRoutes(t *testing.T) {
	orders, _ := newTestServices(t, "BTCUSD")
	orders.Submit(SubmitOrderRequest{
		Symbol: "BTCUSD", OrderID: "o1", Type: domain.OrderTypeLimit,
		Side: domain.SideBid, Price: ptr(100), Quantity: 10,
	})

	o, err := orders.Cancel("BTCUSD", "o1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if o.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", o.Status)
	}

	if _, err := orders.Cancel("ETHUSD", "o1"); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
	if _, err := orders.Cancel("BTCUSD", "o1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderService_ReplaceAndReduceRoute(t *testing.T) {
	orders, _ := newTestServices(t, "BTCUSD")
	orders.Submit(SubmitOrderRequest{
		Symbol: "BTCUSD", OrderID: "o1", Type: domain.OrderTypeLimit,
		Side: domain.SideBid, Price: ptr(100), Quantity: 10,
	})

	result, err := orders.Replace("BTCUSD", "o1", 101, 8)
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if result.Order.Price != 101 || result.Order.RemainingQuantity != 8 {
		t.Errorf("unexpected replaced order: %+v", result.Order)
	}

	o, err := orders.Reduce("BTCUSD", "o1", 3)
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if o.RemainingQuantity != 3 {
		t.Errorf("expected remaining 3, got %d", o.RemainingQuantity)
	}

	if _, err := orders.Replace("ETHUSD", "o1", 101, 8); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestMarketService_RegisterSymbolValidation(t *testing.T) {
	_, market := newTestServices(t)

	for _, bad := range []string{"", "btcusd", "BTC-USD", "ABCDEFGHIJK"} {
		err := market.RegisterSymbol(bad)
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("symbol %q: expected validation error, got %v", bad, err)
		}
	}

	if err := market.RegisterSymbol("BTCUSD"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := market.RegisterSymbol("BTCUSD"); !errors.Is(err, domain.ErrSymbolExists) {
		t.Errorf("expected ErrSymbolExists, got %v", err)
	}
}

func TestMarketService_DepthAndFills(t *testing.T) {
	orders, market := newTestServices(t, "BTCUSD")
	orders.Submit(SubmitOrderRequest{
		Symbol: "BTCUSD", OrderID: "o1", Type: domain.OrderTypeLimit,
		Side: domain.SideBid, Price: ptr(100), Quantity: 10,
	})
	orders.Submit(SubmitOrderRequest{
		Symbol: "BTCUSD", OrderID: "o2", Type: domain.OrderTypeLimit,
		Side: domain.SideAsk, Price: ptr(100), Quantity: 4,
	})

	snap, err := market.Depth("BTCUSD")
	if err != nil {
		t.Fatalf("depth failed: %v", err)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Quantity != 6 {
		t.Errorf("expected bid level 100/6, got %+v", snap.Bids)
	}

	fills, err := market.Fills("BTCUSD", 0)
	if err != nil {
		t.Fatalf("fills failed: %v", err)
	}
	if len(fills) != 1 || fills[0].Quantity != 4 || fills[0].Price != 100 {
		t.Errorf("expected one 4@100 fill, got %+v", fills)
	}

	if _, err := market.Depth("ETHUSD"); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
	if _, err := market.Fills("ETHUSD", 0); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

type countingListener struct{ batches int }

func (l *countingListener) OnDepth(*domain.DepthBatch) { l.batches++ }

func TestMarketService_DefaultListenersAttach(t *testing.T) {
	fills := store.NewFillStore()
	registry := exchange.NewRegistry(fills)
	l := &countingListener{}
	market := NewMarketService(registry, fills, slog.Default(), l)
	if err := market.RegisterSymbol("BTCUSD"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	orders := NewOrderService(registry)
	orders.Submit(SubmitOrderRequest{
		Symbol: "BTCUSD", OrderID: "o1", Type: domain.OrderTypeLimit,
		Side: domain.SideBid, Price: ptr(100), Quantity: 10,
	})

	if l.batches != 1 {
		t.Errorf("expected default listener to receive 1 batch, got %d", l.batches)
	}
}

func TestMarketService_SubscribeSnapshot(t *testing.T) {
	orders, market := newTestServices(t, "BTCUSD")
	orders.Submit(SubmitOrderRequest{
		Symbol: "BTCUSD", OrderID: "o1", Type: domain.OrderTypeLimit,
		Side: domain.SideBid, Price: ptr(100), Quantity: 10,
	})

	l := &countingListener{}
	snap, id, err := market.Subscribe("BTCUSD", l)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if len(snap.Bids) != 1 {
		t.Errorf("expected snapshot with 1 bid level, got %+v", snap)
	}
	if id == "" {
		t.Error("expected a subscription id")
	}

	orders.Submit(SubmitOrderRequest{
		Symbol: "BTCUSD", OrderID: "o2", Type: domain.OrderTypeLimit,
		Side: domain.SideAsk, Price: ptr(105), Quantity: 5,
	})
	if l.batches != 1 {
		t.Errorf("expected 1 batch after subscribing, got %d", l.batches)
	}

	if err := market.Unsubscribe("BTCUSD", id); err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
	orders.Cancel("BTCUSD", "o2")
	if l.batches != 1 {
		t.Errorf("expected no batches after unsubscribe, got %d", l.batches)
	}
}
