package book

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"maelstrom/internal/common"
)

func order(amount, price uint64) *common.Order {
	return &common.Order{
		Amount: uint256.NewInt(amount),
		Price:  uint256.NewInt(price),
		Side:   common.Bid,
	}
}

func TestBids_BestIsHighestPrice(t *testing.T) {
	h := NewHalfBook(common.Bid)
	h.Insert(&RestingOrder{Hash: "a", Order: order(1, 10)})
	h.Insert(&RestingOrder{Hash: "b", Order: order(1, 15)})
	h.Insert(&RestingOrder{Hash: "c", Order: order(1, 12)})

	best, ok := h.Best()
	assert.True(t, ok)
	assert.True(t, best.Price.Eq(uint256.NewInt(15)))
}

func TestAsks_BestIsLowestPrice(t *testing.T) {
	h := NewHalfBook(common.Ask)
	h.Insert(&RestingOrder{Hash: "a", Order: order(1, 10)})
	h.Insert(&RestingOrder{Hash: "b", Order: order(1, 15)})
	h.Insert(&RestingOrder{Hash: "c", Order: order(1, 12)})

	best, ok := h.Best()
	assert.True(t, ok)
	assert.True(t, best.Price.Eq(uint256.NewInt(10)))
}

func TestInsert_PreservesTimePriorityWithinLevel(t *testing.T) {
	h := NewHalfBook(common.Bid)
	h.Insert(&RestingOrder{Hash: "first", Order: order(1, 10)})
	h.Insert(&RestingOrder{Hash: "second", Order: order(1, 10)})

	level, ok := h.Best()
	assert.True(t, ok)
	assert.Len(t, level.Orders, 2)
	assert.Equal(t, "first", level.Orders[0].Hash)
	assert.Equal(t, "second", level.Orders[1].Hash)
}

func TestRemove_CompactsEmptyLevel(t *testing.T) {
	h := NewHalfBook(common.Bid)
	h.Insert(&RestingOrder{Hash: "only", Order: order(1, 10)})

	ro, ok := h.Remove(uint256.NewInt(10), "only")
	assert.True(t, ok)
	assert.Equal(t, "only", ro.Hash)
	assert.Equal(t, 0, h.Len())
}

func TestRemove_MissingHash(t *testing.T) {
	h := NewHalfBook(common.Bid)
	h.Insert(&RestingOrder{Hash: "only", Order: order(1, 10)})

	_, ok := h.Remove(uint256.NewInt(10), "nope")
	assert.False(t, ok)
}

func TestFind_DoesNotMutate(t *testing.T) {
	h := NewHalfBook(common.Ask)
	h.Insert(&RestingOrder{Hash: "x", Order: order(1, 10)})

	ro, ok := h.Find(uint256.NewInt(10), "x")
	assert.True(t, ok)
	assert.Equal(t, "x", ro.Hash)
	assert.Equal(t, 1, h.Len())
}

func TestWalkCrossing_StopsAtNonCrossingLevel(t *testing.T) {
	h := NewHalfBook(common.Ask)
	h.Insert(&RestingOrder{Hash: "a", Order: order(1, 9)})
	h.Insert(&RestingOrder{Hash: "b", Order: order(1, 10)})
	h.Insert(&RestingOrder{Hash: "c", Order: order(1, 11)})

	var visited []string
	h.WalkCrossing(
		func(price *uint256.Int) bool { return price.Cmp(uint256.NewInt(10)) <= 0 },
		func(level *PriceLevel) bool {
			for _, ro := range level.Orders {
				visited = append(visited, ro.Hash)
			}
			return true
		},
	)
	assert.Equal(t, []string{"a", "b"}, visited)
}

func TestWalkCrossing_VisitsEachCrossedLevelExactlyOnce(t *testing.T) {
	h := NewHalfBook(common.Bid)
	h.Insert(&RestingOrder{Hash: "alice", Order: order(1, 10)})
	h.Insert(&RestingOrder{Hash: "bob", Order: order(1, 10)})

	var calls int
	h.WalkCrossing(
		func(price *uint256.Int) bool { return true },
		func(level *PriceLevel) bool {
			calls++
			// Simulate a self-match skip on "bob": the level survives
			// with one order left, but must not be revisited.
			level.Orders = level.Orders[:1]
			return true
		},
	)
	assert.Equal(t, 1, calls)
}
