// Package common holds the value types shared by the ledger and the
// matching engine: sides, statuses, orders, fills and fill results.
package common

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Side identifies which side of the book an order rests on.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// OrderStatus reports the terminal disposition of a submitted order.
type OrderStatus int

const (
	Created OrderStatus = iota
	Filled
	PartiallyFilled
)

func (s OrderStatus) String() string {
	switch s {
	case Filled:
		return "filled"
	case PartiallyFilled:
		return "partially_filled"
	default:
		return "created"
	}
}

// Order is the canonical, post-reserve representation of a limit order.
// Amount decreases monotonically as the order is matched; every other
// field is immutable for the order's lifetime.
type Order struct {
	Amount        *uint256.Int  // Remaining quantity, scale 10^18
	Nonce         *uint256.Int  // Client-supplied uniqueness token
	Price         *uint256.Int  // Limit price, scale 10^18
	Side          Side          //
	TraderAddress common.Address //
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{amount=%s nonce=%s price=%s side=%s trader=%s}",
		o.Amount, o.Nonce, o.Price, o.Side, o.TraderAddress.Hex(),
	)
}

// Fill is one resting-order/aggressor match. From is always the ask-side
// trader, To is always the bid-side trader, regardless of which one was
// the aggressor.
type Fill struct {
	From       common.Address
	To         common.Address
	MakerHash  string
	TakerHash  string
	FillAmount *uint256.Int
	Price      *uint256.Int
}

// FillResult is the outcome of one Submit call.
type FillResult struct {
	Fills     []Fill
	Remaining *uint256.Int
	Status    OrderStatus
	Side      Side
}
