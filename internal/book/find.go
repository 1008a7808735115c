package book

import "github.com/holiman/uint256"

// Find performs a read-only lookup of the resting order with the given
// hash at price, without mutating the level.
func (h *HalfBook) Find(price *uint256.Int, hash string) (*RestingOrder, bool) {
	level, ok := h.levels.Get(&PriceLevel{Price: price})
	if !ok {
		return nil, false
	}
	for _, ro := range level.Orders {
		if ro.Hash == hash {
			return ro, true
		}
	}
	return nil, false
}
