package ledger

import (
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maelstrom/internal/common"
	"maelstrom/internal/fixedpoint"
)

var alice = ethcommon.HexToAddress("0x000000000000000000000000000000000000a1")

func mustFixed(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := fixedpoint.ToFixed(s)
	require.NoError(t, err)
	return v
}

func TestCreateAndGet(t *testing.T) {
	l := New()
	l.Create(alice, mustFixed(t, "1.00"), mustFixed(t, "10.00"))

	acct, err := l.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, "1.00", fixedpoint.ToDecimal(acct.TotalDDX()))
	assert.Equal(t, "10.00", fixedpoint.ToDecimal(acct.TotalUSD()))
}

func TestGet_UnknownAccount(t *testing.T) {
	l := New()
	_, err := l.Get(alice)
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestReserve_Bid_DebitsUSDFree(t *testing.T) {
	l := New()
	l.Create(alice, mustFixed(t, "0.00"), mustFixed(t, "10.00"))

	order := common.Order{
		Amount:        mustFixed(t, "1.00"),
		Price:         mustFixed(t, "5.00"),
		Side:          common.Bid,
		TraderAddress: alice,
	}
	require.NoError(t, l.Reserve(order))

	acct, err := l.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, "5.00", fixedpoint.ToDecimal(acct.USDFree))
	assert.Equal(t, "5.00", fixedpoint.ToDecimal(acct.USDHold))
}

func TestReserve_Ask_DebitsDDXFree(t *testing.T) {
	l := New()
	l.Create(alice, mustFixed(t, "2.00"), mustFixed(t, "0.00"))

	order := common.Order{
		Amount:        mustFixed(t, "1.50"),
		Price:         mustFixed(t, "5.00"),
		Side:          common.Ask,
		TraderAddress: alice,
	}
	require.NoError(t, l.Reserve(order))

	acct, err := l.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, "0.50", fixedpoint.ToDecimal(acct.DDXFree))
	assert.Equal(t, "1.50", fixedpoint.ToDecimal(acct.DDXHold))
}

func TestReserve_InsufficientFunds(t *testing.T) {
	l := New()
	l.Create(alice, mustFixed(t, "0.00"), mustFixed(t, "1.00"))

	order := common.Order{
		Amount:        mustFixed(t, "1.00"),
		Price:         mustFixed(t, "5.00"),
		Side:          common.Bid,
		TraderAddress: alice,
	}
	assert.ErrorIs(t, l.Reserve(order), ErrInsufficientFunds)
}

func TestReleaseIsInverseOfReserve(t *testing.T) {
	l := New()
	l.Create(alice, mustFixed(t, "0.00"), mustFixed(t, "10.00"))

	order := common.Order{
		Amount:        mustFixed(t, "1.00"),
		Price:         mustFixed(t, "5.00"),
		Side:          common.Bid,
		TraderAddress: alice,
	}
	require.NoError(t, l.Reserve(order))
	require.NoError(t, l.Release(order))

	acct, err := l.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, "10.00", fixedpoint.ToDecimal(acct.USDFree))
	assert.Equal(t, "0.00", fixedpoint.ToDecimal(acct.USDHold))
}

func TestSettle_MovesHoldToCounterpartyFree(t *testing.T) {
	bob := ethcommon.HexToAddress("0x000000000000000000000000000000000000b2")
	l := New()
	l.Create(alice, mustFixed(t, "0.00"), mustFixed(t, "10.00")) // buyer
	l.Create(bob, mustFixed(t, "1.00"), mustFixed(t, "0.00"))    // seller

	bid := common.Order{Amount: mustFixed(t, "1.00"), Price: mustFixed(t, "10.00"), Side: common.Bid, TraderAddress: alice}
	ask := common.Order{Amount: mustFixed(t, "1.00"), Price: mustFixed(t, "10.00"), Side: common.Ask, TraderAddress: bob}
	require.NoError(t, l.Reserve(bid))
	require.NoError(t, l.Reserve(ask))

	result := common.FillResult{Fills: []common.Fill{{
		From:       bob,
		To:         alice,
		FillAmount: mustFixed(t, "1.00"),
		Price:      mustFixed(t, "10.00"),
	}}}
	require.NoError(t, l.Settle(result))

	aliceAcct, err := l.Get(alice)
	require.NoError(t, err)
	bobAcct, err := l.Get(bob)
	require.NoError(t, err)

	assert.Equal(t, "1.00", fixedpoint.ToDecimal(aliceAcct.DDXFree))
	assert.Equal(t, "0.00", fixedpoint.ToDecimal(aliceAcct.USDHold))
	assert.Equal(t, "10.00", fixedpoint.ToDecimal(bobAcct.USDFree))
	assert.Equal(t, "0.00", fixedpoint.ToDecimal(bobAcct.DDXHold))
}

func TestSettle_SkipsUntrackedCounterparty(t *testing.T) {
	bob := ethcommon.HexToAddress("0x000000000000000000000000000000000000b2")
	ghost := ethcommon.HexToAddress("0x000000000000000000000000000000000000ff")
	l := New()
	l.Create(bob, mustFixed(t, "1.00"), mustFixed(t, "0.00"))
	ask := common.Order{Amount: mustFixed(t, "1.00"), Price: mustFixed(t, "10.00"), Side: common.Ask, TraderAddress: bob}
	require.NoError(t, l.Reserve(ask))

	result := common.FillResult{Fills: []common.Fill{{
		From:       bob,
		To:         ghost,
		FillAmount: mustFixed(t, "1.00"),
		Price:      mustFixed(t, "10.00"),
	}}}
	require.NoError(t, l.Settle(result))

	bobAcct, err := l.Get(bob)
	require.NoError(t, err)
	assert.Equal(t, "10.00", fixedpoint.ToDecimal(bobAcct.USDFree))
}

func TestDelete_Unconditional(t *testing.T) {
	l := New()
	l.Create(alice, mustFixed(t, "1.00"), mustFixed(t, "1.00"))

	acct, err := l.Delete(alice)
	require.NoError(t, err)
	assert.Equal(t, alice, acct.Trader)

	_, err = l.Get(alice)
	assert.ErrorIs(t, err, ErrUnknownAccount)
}
