// Package book implements one side of the order book: a price-keyed
// ordered map of price levels, each holding its resting orders in
// insertion (time) order. Bids are queried highest-price-first, asks
// lowest-price-first — both via the same in-order btree walk, just with
// an inverted comparator.
package book

import (
	"github.com/holiman/uint256"
	"github.com/tidwall/btree"

	"maelstrom/internal/common"
)

// RestingOrder pairs a canonical order with its identity hash, which is
// what the matching engine's global index keys on.
type RestingOrder struct {
	Hash  string
	Order *common.Order
}

// PriceLevel is the set of orders resting at one price on one side,
// insertion order preserved for time priority. An implementation may
// leave a level in the tree after it empties; callers compact lazily.
type PriceLevel struct {
	Price  *uint256.Int
	Orders []*RestingOrder
}

// HalfBook is one side (all bids, or all asks) of the book.
type HalfBook struct {
	levels *btree.BTreeG[*PriceLevel]
}

// NewHalfBook builds a half-book for the given side. Bids sort
// highest-price-first; asks sort lowest-price-first — both via the same
// in-order tree walk.
func NewHalfBook(side common.Side) *HalfBook {
	var less func(a, b *PriceLevel) bool
	if side == common.Bid {
		less = func(a, b *PriceLevel) bool { return a.Price.Gt(b.Price) }
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price.Lt(b.Price) }
	}
	return &HalfBook{levels: btree.NewBTreeG(less)}
}

// Insert appends a resting order at its price, creating the level if
// necessary.
func (h *HalfBook) Insert(ro *RestingOrder) {
	level, ok := h.levels.Get(&PriceLevel{Price: ro.Order.Price})
	if !ok {
		h.levels.Set(&PriceLevel{Price: ro.Order.Price, Orders: []*RestingOrder{ro}})
		return
	}
	level.Orders = append(level.Orders, ro)
}

// Remove deletes the resting order with the given hash from the level at
// price, preserving the insertion order of the remaining orders. Returns
// false if no such order is present.
func (h *HalfBook) Remove(price *uint256.Int, hash string) (*RestingOrder, bool) {
	level, ok := h.levels.Get(&PriceLevel{Price: price})
	if !ok {
		return nil, false
	}
	for i, ro := range level.Orders {
		if ro.Hash == hash {
			level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
			h.compact(level)
			return ro, true
		}
	}
	return nil, false
}

// Best returns the level that would be walked first: highest price for
// bids, lowest for asks.
func (h *HalfBook) Best() (*PriceLevel, bool) {
	return h.levels.Min()
}

// compact drops the level from the tree if it has gone empty. It is safe
// to call with a level that still holds orders — it is then a no-op.
func (h *HalfBook) compact(level *PriceLevel) {
	if len(level.Orders) == 0 {
		h.levels.Delete(level)
	}
}

// Walk visits every level from best to worst price, stopping early if fn
// returns false.
func (h *HalfBook) Walk(fn func(level *PriceLevel) bool) {
	h.levels.Scan(func(level *PriceLevel) bool {
		return fn(level)
	})
}

// WalkCrossing visits, in best-to-worst order, exactly the levels for
// which crosses reports true, stopping at the first level that
// doesn't (or the first level after visit reports it should stop).
// Each crossed level is visited exactly once regardless of whether
// visit fully empties it — a level left non-empty by self-match
// prevention is not revisited. Levels left empty by visit are
// compacted out of the tree after the walk completes, since deleting
// mid-scan is unsafe.
func (h *HalfBook) WalkCrossing(crosses func(price *uint256.Int) bool, visit func(level *PriceLevel) bool) {
	var emptied []*PriceLevel
	h.levels.Scan(func(level *PriceLevel) bool {
		if !crosses(level.Price) {
			return false
		}
		keepGoing := visit(level)
		if len(level.Orders) == 0 {
			emptied = append(emptied, level)
		}
		return keepGoing
	})
	for _, level := range emptied {
		h.levels.Delete(level)
	}
}

// Len reports the number of distinct price levels (including any left
// empty by lazy compaction).
func (h *HalfBook) Len() int {
	return h.levels.Len()
}
