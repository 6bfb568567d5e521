package engine

import (
	"testing"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/domain"
)

// helper to create a resting limit order.
func makeOrder(id string, side domain.Side, price, qty int64, seq uint64) *domain.Order {
	return &domain.Order{
		OrderID:           id,
		Symbol:            "TEST",
		Type:              domain.OrderTypeLimit,
		Side:              side,
		Price:             price,
		Quantity:          qty,
		RemainingQuantity: qty,
		Seq:               seq,
		Status:            domain.OrderStatusPending,
	}
}

func TestBidLess_PriceDescending(t *testing.T) {
	a := bookEntry{Price: 200, Seq: 1, OrderID: "a"}
	b := bookEntry{Price: 100, Seq: 1, OrderID: "b"}
	// Higher price should come first (be "less" in bid ordering).
	if !bidLess(a, b) {
		t.Error("expected higher price to be less on bid side")
	}
	if bidLess(b, a) {
		t.Error("expected lower price to not be less on bid side")
	}
}

func TestBidLess_SeqAscending(t *testing.T) {
	a := bookEntry{Price: 100, Seq: 1, OrderID: "a"}
	b := bookEntry{Price: 100, Seq: 2, OrderID: "b"}
	if !bidLess(a, b) {
		t.Error("expected earlier arrival to be less on bid side at same price")
	}
	if bidLess(b, a) {
		t.Error("expected later arrival to not be less on bid side at same price")
	}
}

func TestAskLess_PriceAscending(t *testing.T) {
	a := bookEntry{Price: 100, Seq: 1, OrderID: "a"}
	b := bookEntry{Price: 200, Seq: 1, OrderID: "b"}
	if !askLess(a, b) {
		t.Error("expected lower price to be less on ask side")
	}
	if askLess(b, a) {
		t.Error("expected higher price to not be less on ask side")
	}
}

func TestAskLess_SeqAscending(t *testing.T) {
	a := bookEntry{Price: 100, Seq: 1, OrderID: "a"}
	b := bookEntry{Price: 100, Seq: 2, OrderID: "b"}
	if !askLess(a, b) {
		t.Error("expected earlier arrival to be less on ask side at same price")
	}
}

func TestOrderBook_InsertAndBest(t *testing.T) {
	ob := NewOrderBook("TEST")
	ob.Insert(makeOrder("b1", domain.SideBid, 100, 10, ob.NextSeq()))
	ob.Insert(makeOrder("b2", domain.SideBid, 200, 5, ob.NextSeq()))
	ob.Insert(makeOrder("a1", domain.SideAsk, 300, 10, ob.NextSeq()))
	ob.Insert(makeOrder("a2", domain.SideAsk, 250, 5, ob.NextSeq()))

	bid, ok := ob.BestBid()
	if !ok || bid.OrderID != "b2" {
		t.Fatalf("expected best bid b2 (price 200), got %+v ok=%v", bid, ok)
	}
	ask, ok := ob.BestAsk()
	if !ok || ask.OrderID != "a2" {
		t.Fatalf("expected best ask a2 (price 250), got %+v ok=%v", ask, ok)
	}
}

func TestOrderBook_EmptyBest(t *testing.T) {
	ob := NewOrderBook("TEST")
	if _, ok := ob.BestBid(); ok {
		t.Error("expected no best bid on empty book")
	}
	if _, ok := ob.BestAsk(); ok {
		t.Error("expected no best ask on empty book")
	}
}

func TestOrderBook_BestAtSamePriceIsEarliestArrival(t *testing.T) {
	ob := NewOrderBook("TEST")
	ob.Insert(makeOrder("first", domain.SideAsk, 100, 10, ob.NextSeq()))
	ob.Insert(makeOrder("second", domain.SideAsk, 100, 10, ob.NextSeq()))

	best, ok := ob.BestAsk()
	if !ok || best.OrderID != "first" {
		t.Fatalf("expected earliest arrival first at same price, got %+v", best)
	}
}

func TestOrderBook_Remove(t *testing.T) {
	ob := NewOrderBook("TEST")
	ob.Insert(makeOrder("o1", domain.SideBid, 100, 10, ob.NextSeq()))

	o, ok := ob.Remove("o1")
	if !ok || o.OrderID != "o1" {
		t.Fatalf("expected to remove o1, got %+v ok=%v", o, ok)
	}
	if ob.Contains("o1") {
		t.Error("expected o1 to be gone")
	}
	if _, ok := ob.Remove("o1"); ok {
		t.Error("expected second remove to fail")
	}
	if ob.SideCount(domain.SideBid) != 0 {
		t.Errorf("expected empty bid side, got %d", ob.SideCount(domain.SideBid))
	}
}

func TestOrderBook_LevelAggregate(t *testing.T) {
	ob := NewOrderBook("TEST")
	ob.Insert(makeOrder("o1", domain.SideBid, 100, 10, ob.NextSeq()))
	ob.Insert(makeOrder("o2", domain.SideBid, 100, 7, ob.NextSeq()))
	ob.Insert(makeOrder("o3", domain.SideBid, 99, 3, ob.NextSeq()))

	qty, count := ob.LevelAggregate(domain.SideBid, 100)
	if qty != 17 || count != 2 {
		t.Errorf("level 100: expected qty=17 count=2, got qty=%d count=%d", qty, count)
	}
	qty, count = ob.LevelAggregate(domain.SideBid, 99)
	if qty != 3 || count != 1 {
		t.Errorf("level 99: expected qty=3 count=1, got qty=%d count=%d", qty, count)
	}
	qty, count = ob.LevelAggregate(domain.SideBid, 98)
	if qty != 0 || count != 0 {
		t.Errorf("level 98: expected empty, got qty=%d count=%d", qty, count)
	}
	qty, count = ob.LevelAggregate(domain.SideAsk, 100)
	if qty != 0 || count != 0 {
		t.Errorf("ask level 100: expected empty, got qty=%d count=%d", qty, count)
	}
}

func TestOrderBook_Ladder(t *testing.T) {
	ob := NewOrderBook("TEST")
	ob.Insert(makeOrder("o1", domain.SideAsk, 101, 5, ob.NextSeq()))
	ob.Insert(makeOrder("o2", domain.SideAsk, 100, 10, ob.NextSeq()))
	ob.Insert(makeOrder("o3", domain.SideAsk, 100, 2, ob.NextSeq()))

	ladder := ob.Ladder(domain.SideAsk)
	if len(ladder) != 2 {
		t.Fatalf("expected 2 ask levels, got %d", len(ladder))
	}
	if ladder[0].Price != 100 || ladder[0].Quantity != 12 || ladder[0].OrderCount != 2 {
		t.Errorf("level 0: expected 100/12/2, got %+v", ladder[0])
	}
	if ladder[1].Price != 101 || ladder[1].Quantity != 5 || ladder[1].OrderCount != 1 {
		t.Errorf("level 1: expected 101/5/1, got %+v", ladder[1])
	}

	if got := ob.Ladder(domain.SideBid); len(got) != 0 {
		t.Errorf("expected empty bid ladder, got %v", got)
	}
}

func TestOrderBook_NextSeqMonotonic(t *testing.T) {
	ob := NewOrderBook("TEST")
	prev := ob.NextSeq()
	for i := 0; i < 10; i++ {
		next := ob.NextSeq()
		if next <= prev {
			t.Fatalf("sequence not monotonic: %d after %d", next, prev)
		}
		prev = next
	}
}
