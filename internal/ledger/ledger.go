// Package ledger is the per-trader balance-hold accounting side of the
// exchange: split free/on-hold balances per asset, with a
// reserve-on-accept / release-on-cancel / settle-on-fill protocol that
// must stay in lock-step with the order book.
package ledger

import (
	"errors"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"maelstrom/internal/common"
	"maelstrom/internal/fixedpoint"
)

var (
	ErrUnknownAccount     = errors.New("ledger: unknown account")
	ErrInsufficientFunds  = errors.New("ledger: insufficient funds")
	ErrInvariantViolated  = errors.New("ledger: invariant violated")
)

// Account holds one trader's split balances for the DDX/USD pair.
type Account struct {
	Trader  ethcommon.Address
	DDXFree *uint256.Int
	DDXHold *uint256.Int
	USDFree *uint256.Int
	USDHold *uint256.Int
}

// TotalDDX and TotalUSD report free plus hold. Summed over the accounts
// on both sides, they are conserved across every matched fill.
func (a Account) TotalDDX() *uint256.Int {
	return new(uint256.Int).Add(a.DDXFree, a.DDXHold)
}

func (a Account) TotalUSD() *uint256.Int {
	return new(uint256.Int).Add(a.USDFree, a.USDHold)
}

func (a Account) clone() *Account {
	c := a
	c.DDXFree = new(uint256.Int).Set(a.DDXFree)
	c.DDXHold = new(uint256.Int).Set(a.DDXHold)
	c.USDFree = new(uint256.Int).Set(a.USDFree)
	c.USDHold = new(uint256.Int).Set(a.USDHold)
	return &c
}

// Ledger is a mutex-guarded map of accounts. Every top-level operation is
// a critical section; MatchingEngine composes Ledger calls with book
// mutations under its own, wider guard (see internal/engine).
type Ledger struct {
	mu       sync.Mutex
	accounts map[ethcommon.Address]*Account
	// nextHandle is a sequential audit counter assigned to every created
	// account, mirroring the original service's "User {n}" display name.
	// It is never exposed over the wire.
	nextHandle uint64
}

func New() *Ledger {
	return &Ledger{accounts: make(map[ethcommon.Address]*Account)}
}

// Create inserts or overwrites an account with the given starting free
// balances. Idempotent: a second call for the same trader replaces the
// account outright, per spec.
func (l *Ledger) Create(trader ethcommon.Address, ddxFree, usdFree *uint256.Int) *Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextHandle++
	acct := &Account{
		Trader:  trader,
		DDXFree: new(uint256.Int).Set(ddxFree),
		DDXHold: new(uint256.Int),
		USDFree: new(uint256.Int).Set(usdFree),
		USDHold: new(uint256.Int),
	}
	l.accounts[trader] = acct
	log.Info().
		Uint64("handle", l.nextHandle).
		Str("trader", trader.Hex()).
		Msg("account created")
	return acct.clone()
}

// Get returns a snapshot copy of the account, or ErrUnknownAccount.
func (l *Ledger) Get(trader ethcommon.Address) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[trader]
	if !ok {
		return nil, ErrUnknownAccount
	}
	return acct.clone(), nil
}

// Delete removes the account unconditionally (spec.md §9 open question:
// the original Rust implementation deletes unconditionally, without
// checking resting holds; this repo keeps that behaviour and flags it as
// dangerous rather than silently changing the documented HTTP contract).
func (l *Ledger) Delete(trader ethcommon.Address) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[trader]
	if !ok {
		return nil, ErrUnknownAccount
	}
	delete(l.accounts, trader)
	return acct.clone(), nil
}

// Reserve debits the trader's free balance and credits the matching hold
// for a new order, admitting up to ErrorTolerance of slack on the balance
// check. Returns ErrUnknownAccount or ErrInsufficientFunds on rejection;
// on success the order is unmodified by Reserve's caller and no state is
// left half-applied on failure.
func (l *Ledger) Reserve(order common.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[order.TraderAddress]
	if !ok {
		return ErrUnknownAccount
	}

	switch order.Side {
	case common.Bid:
		notional, err := fixedpoint.Notional(order.Amount, order.Price)
		if err != nil {
			return err
		}
		limit := new(uint256.Int).Add(fixedpoint.ErrorTolerance, acct.USDFree)
		if notional.Gt(limit) {
			return ErrInsufficientFunds
		}
		acct.USDFree = subClamped(acct.USDFree, notional)
		acct.USDHold = new(uint256.Int).Add(acct.USDHold, notional)
	case common.Ask:
		limit := new(uint256.Int).Add(fixedpoint.ErrorTolerance, acct.DDXFree)
		if order.Amount.Gt(limit) {
			return ErrInsufficientFunds
		}
		acct.DDXFree = subClamped(acct.DDXFree, order.Amount)
		acct.DDXHold = new(uint256.Int).Add(acct.DDXHold, order.Amount)
	}
	return nil
}

// Release is the exact inverse of Reserve, used on cancel. A mismatch
// beyond ErrorTolerance means the hold and the resting order have drifted
// apart — an invariant violation, not a recoverable client error.
func (l *Ledger) Release(order common.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[order.TraderAddress]
	if !ok {
		return ErrUnknownAccount
	}

	switch order.Side {
	case common.Bid:
		notional, err := fixedpoint.Notional(order.Amount, order.Price)
		if err != nil {
			return err
		}
		limit := new(uint256.Int).Add(fixedpoint.ErrorTolerance, acct.USDHold)
		if notional.Gt(limit) {
			log.Error().Str("trader", order.TraderAddress.Hex()).Msg("usd hold underflow on release")
			return ErrInvariantViolated
		}
		acct.USDFree = new(uint256.Int).Add(acct.USDFree, notional)
		acct.USDHold = subClamped(acct.USDHold, notional)
	case common.Ask:
		limit := new(uint256.Int).Add(fixedpoint.ErrorTolerance, acct.DDXHold)
		if order.Amount.Gt(limit) {
			log.Error().Str("trader", order.TraderAddress.Hex()).Msg("ddx hold underflow on release")
			return ErrInvariantViolated
		}
		acct.DDXFree = new(uint256.Int).Add(acct.DDXFree, order.Amount)
		acct.DDXHold = subClamped(acct.DDXHold, order.Amount)
	}
	return nil
}

// Settle applies one FillResult's worth of fills. Each fill debits the
// seller's ddx hold and credits the seller's usd free balance, and debits
// the buyer's usd hold and credits the buyer's ddx free balance. A missing counterparty account is
// silently skipped — fills may reference traders this ledger does not
// track.
func (l *Ledger) Settle(result common.FillResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, fill := range result.Fills {
		notional, err := fixedpoint.Notional(fill.FillAmount, fill.Price)
		if err != nil {
			return err
		}

		if seller, ok := l.accounts[fill.From]; ok {
			limit := new(uint256.Int).Add(fixedpoint.ErrorTolerance, seller.DDXHold)
			if fill.FillAmount.Gt(limit) {
				log.Error().Str("trader", fill.From.Hex()).Msg("ddx hold underflow on settle")
				return ErrInvariantViolated
			}
			seller.DDXHold = subClamped(seller.DDXHold, fill.FillAmount)
			seller.USDFree = new(uint256.Int).Add(seller.USDFree, notional)
		}

		if buyer, ok := l.accounts[fill.To]; ok {
			limit := new(uint256.Int).Add(fixedpoint.ErrorTolerance, buyer.USDHold)
			if notional.Gt(limit) {
				log.Error().Str("trader", fill.To.Hex()).Msg("usd hold underflow on settle")
				return ErrInvariantViolated
			}
			buyer.USDHold = subClamped(buyer.USDHold, notional)
			buyer.DDXFree = new(uint256.Int).Add(buyer.DDXFree, fill.FillAmount)
		}
	}
	return nil
}

// subClamped subtracts y from x, clamping at zero rather than
// underflowing when y exceeds x by at most ErrorTolerance — the slack
// spec.md §3 allows for truncation drift.
func subClamped(x, y *uint256.Int) *uint256.Int {
	if y.Gt(x) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(x, y)
}
