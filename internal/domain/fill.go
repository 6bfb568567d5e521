package domain

import "time"

// Fill represents one match between an incoming (taker) order and a resting
// (maker) order. The execution price is always the maker's limit price.
// Fills are emitted per command and never stored by the book itself.
type Fill struct {
	FillID       string
	Symbol       string
	Price        int64
	Quantity     int64
	MakerOrderID string
	TakerOrderID string
	TakerSide    Side
	ExecutedAt   time.Time
}
