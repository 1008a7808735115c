// Package engine wires a ledger and a pair of half-books into the
// matching engine: the single entry point that accepts, crosses and
// cancels orders while keeping balances and resting liquidity in
// lock-step.
package engine

import (
	"errors"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"maelstrom/internal/book"
	"maelstrom/internal/common"
	"maelstrom/internal/fixedpoint"
	"maelstrom/internal/ledger"
	"maelstrom/internal/orderid"
)

var ErrOrderNotFound = errors.New("engine: order not found")

// L2Level is one order's contribution to a depth snapshot: no
// per-price aggregation, one entry per resting order.
type L2Level struct {
	Amount *uint256.Int
	Price  *uint256.Int
}

// L2Depth caps how many resting orders a Snapshot reports per side,
// matching the wire contract's truncation limit.
const L2Depth = 50

// indexEntry locates a live resting order's price level and side so
// Cancel and Get don't need to scan both books.
type indexEntry struct {
	side  common.Side
	price *uint256.Int
}

// Engine is the single-writer matching engine for one instrument. All
// public methods take the same mutex, which also spans the embedded
// ledger's critical sections — the two stores are never locked
// independently, since self-match prevention and partial fills leave
// them transiently inconsistent mid-operation.
type Engine struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	bids   *book.HalfBook
	asks   *book.HalfBook
	index  map[string]indexEntry
}

// New builds an engine backed by the given ledger. The ledger may be
// shared with callers that only need account lookups; Reserve,
// Release and Settle are only ever invoked under the engine's lock.
func New(l *ledger.Ledger) *Engine {
	return &Engine{
		ledger: l,
		bids:   book.NewHalfBook(common.Bid),
		asks:   book.NewHalfBook(common.Ask),
		index:  make(map[string]indexEntry),
	}
}

func (e *Engine) bookFor(side common.Side) *book.HalfBook {
	if side == common.Bid {
		return e.bids
	}
	return e.asks
}

func oppositeSide(side common.Side) common.Side {
	if side == common.Bid {
		return common.Ask
	}
	return common.Bid
}

// Submit reserves funds for the order, crosses it against the
// opposite book, and rests any unfilled remainder. It returns the
// order's canonical hash alongside the fill outcome.
func (e *Engine) Submit(order common.Order) (string, *common.FillResult, error) {
	hash, err := orderid.HashOrder(order)
	if err != nil {
		return "", nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Reserve(order); err != nil {
		return "", nil, err
	}

	remaining := new(uint256.Int).Set(order.Amount)
	var fills []common.Fill

	opposite := e.bookFor(oppositeSide(order.Side))
	crosses := func(levelPrice *uint256.Int) bool {
		if order.Side == common.Bid {
			return order.Price.Cmp(levelPrice) >= 0
		}
		return order.Price.Cmp(levelPrice) <= 0
	}
	visit := func(level *book.PriceLevel) bool {
		survivors := make([]*book.RestingOrder, 0, len(level.Orders))
		for _, resting := range level.Orders {
			if remaining.Cmp(fixedpoint.ErrorTolerance) <= 0 {
				survivors = append(survivors, resting)
				continue
			}
			if resting.Order.TraderAddress == order.TraderAddress {
				// Self-match prevention: skip, retain, don't consume
				// either side's remaining quantity.
				survivors = append(survivors, resting)
				continue
			}

			fillAmount := minUint256(resting.Order.Amount, remaining)
			fillPrice := new(uint256.Int).Set(resting.Order.Price)

			var from, to ethcommon.Address
			if order.Side == common.Bid {
				from, to = resting.Order.TraderAddress, order.TraderAddress
			} else {
				from, to = order.TraderAddress, resting.Order.TraderAddress
			}
			fills = append(fills, common.Fill{
				From:       from,
				To:         to,
				MakerHash:  resting.Hash,
				TakerHash:  hash,
				FillAmount: fillAmount,
				Price:      fillPrice,
			})

			resting.Order.Amount = new(uint256.Int).Sub(resting.Order.Amount, fillAmount)
			remaining = new(uint256.Int).Sub(remaining, fillAmount)

			if resting.Order.Amount.Cmp(fixedpoint.ErrorTolerance) > 0 {
				survivors = append(survivors, resting)
			} else {
				delete(e.index, resting.Hash)
			}
		}
		level.Orders = survivors
		return remaining.Cmp(fixedpoint.ErrorTolerance) > 0
	}
	opposite.WalkCrossing(crosses, visit)

	result := &common.FillResult{
		Fills:     fills,
		Remaining: remaining,
		Side:      order.Side,
	}

	if len(fills) > 0 {
		if err := e.ledger.Settle(*result); err != nil {
			log.Error().Err(err).Str("hash", hash).Msg("settle failed after matching")
			return "", nil, err
		}
	}

	if remaining.Cmp(fixedpoint.ErrorTolerance) > 0 {
		resting := &common.Order{
			Amount:        new(uint256.Int).Set(remaining),
			Nonce:         order.Nonce,
			Price:         order.Price,
			Side:          order.Side,
			TraderAddress: order.TraderAddress,
		}
		e.bookFor(order.Side).Insert(&book.RestingOrder{Hash: hash, Order: resting})
		e.index[hash] = indexEntry{side: order.Side, price: order.Price}
		if len(fills) > 0 {
			result.Status = common.PartiallyFilled
		} else {
			result.Status = common.Created
		}
	} else {
		result.Status = common.Filled
	}

	log.Info().
		Str("hash", hash).
		Str("side", order.Side.String()).
		Str("status", result.Status.String()).
		Int("fills", len(fills)).
		Msg("order submitted")

	return hash, result, nil
}

// Cancel removes a resting order and releases its hold. Cancelling an
// order that already filled or never existed is an ordinary error,
// not a server fault.
func (e *Engine) Cancel(hash string) (*common.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.index[hash]
	if !ok {
		return nil, ErrOrderNotFound
	}

	ro, ok := e.bookFor(entry.side).Remove(entry.price, hash)
	if !ok {
		delete(e.index, hash)
		return nil, ErrOrderNotFound
	}
	delete(e.index, hash)

	if err := e.ledger.Release(*ro.Order); err != nil {
		return nil, err
	}

	log.Info().Str("hash", hash).Msg("order cancelled")
	return ro.Order, nil
}

// Get returns a resting order by hash without mutating book state.
func (e *Engine) Get(hash string) (*common.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.index[hash]
	if !ok {
		return nil, ErrOrderNotFound
	}
	ro, ok := e.bookFor(entry.side).Find(entry.price, hash)
	if !ok {
		return nil, ErrOrderNotFound
	}
	return ro.Order, nil
}

// Snapshot returns up to L2Depth resting orders per side, best price
// first, with no per-level aggregation.
func (e *Engine) Snapshot() (bids, asks []L2Level) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return collectLevels(e.bids), collectLevels(e.asks)
}

func collectLevels(h *book.HalfBook) []L2Level {
	out := make([]L2Level, 0, L2Depth)
	h.Walk(func(level *book.PriceLevel) bool {
		for _, ro := range level.Orders {
			if len(out) >= L2Depth {
				return false
			}
			out = append(out, L2Level{Amount: ro.Order.Amount, Price: level.Price})
		}
		return len(out) < L2Depth
	})
	return out
}

func minUint256(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}
