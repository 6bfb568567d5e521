package domain

// DepthAction classifies the effect of a command on one price level.
type DepthAction string

const (
	DepthLevelAdded   DepthAction = "added"
	DepthLevelChanged DepthAction = "changed"
	DepthLevelRemoved DepthAction = "removed"
)

// DepthLevel is the aggregated, anonymous view of one price level:
// total resting quantity and order count, no order identities.
type DepthLevel struct {
	Side       Side  `json:"side"`
	Price      int64 `json:"price"`
	Quantity   int64 `json:"quantity"`
	OrderCount int   `json:"order_count"`
}

// DepthDelta is the net effect of one command on one price level.
// Quantity and OrderCount are the post-change aggregates and are zero
// for a removed level.
type DepthDelta struct {
	Action     DepthAction `json:"action"`
	Side       Side        `json:"side"`
	Price      int64       `json:"price"`
	Quantity   int64       `json:"quantity"`
	OrderCount int         `json:"order_count"`
}

// DepthBatch carries every delta produced by a single book command, best
// price first within each side, bids before asks. ChangeID increases by one
// per published batch so feed consumers can detect gaps. A snapshot batch
// (Snapshot == true) restates the full ladder as "added" deltas and reuses
// the latest ChangeID.
type DepthBatch struct {
	Symbol   string       `json:"symbol"`
	ChangeID uint64       `json:"change_id"`
	Snapshot bool         `json:"snapshot"`
	Deltas   []DepthDelta `json:"deltas"`
}

// DepthSnapshot is the complete ladder as of a point in the command stream.
// Bids are ordered by price descending, asks ascending.
type DepthSnapshot struct {
	Symbol   string       `json:"symbol"`
	ChangeID uint64       `json:"change_id"`
	Bids     []DepthLevel `json:"bids"`
	Asks     []DepthLevel `json:"asks"`
}
