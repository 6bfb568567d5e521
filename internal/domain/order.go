package domain

import "time"

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Side indicates whether an order is a bid (buy) or ask (sell).
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Opposite returns the contra side.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// Disposition reports what the matching engine did with an incoming order.
type Disposition string

const (
	// DispositionFilled: the order matched in full.
	DispositionFilled Disposition = "filled"
	// DispositionRested: no match, the full quantity rests on the book.
	DispositionRested Disposition = "rested"
	// DispositionPartiallyFilled: partial match, the remainder rests on the book.
	DispositionPartiallyFilled Disposition = "partially_filled"
	// DispositionCancelled: partial match, the remainder was cancelled
	// (market orders never rest).
	DispositionCancelled Disposition = "cancelled"
	// DispositionRejected: the order was rejected without mutating the book.
	DispositionRejected Disposition = "rejected"
)

// Order represents a single resting or incoming order. The book assigns Seq
// on acceptance; everything else is set by the caller or the match loop.
//
// Invariant: 0 <= RemainingQuantity <= Quantity. An order whose remaining
// quantity reaches zero is removed from the book.
type Order struct {
	OrderID           string
	Symbol            string
	Type              OrderType
	Side              Side
	Price             int64 // ticks, 0 for market orders
	Quantity          int64
	FilledQuantity    int64
	RemainingQuantity int64
	CancelledQuantity int64
	Seq               uint64 // arrival sequence, drives time priority
	Status            OrderStatus
	CreatedAt         time.Time
}

// Resting reports whether the order still has quantity on the book.
func (o *Order) Resting() bool {
	return o.RemainingQuantity > 0 &&
		(o.Status == OrderStatusPending || o.Status == OrderStatusPartiallyFilled)
}
