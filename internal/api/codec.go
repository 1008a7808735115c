package api

import (
	ethcommon "github.com/ethereum/go-ethereum/common"

	"maelstrom/internal/common"
	"maelstrom/internal/fixedpoint"
	"maelstrom/internal/ledger"
)

func accountToJSON(acct *ledger.Account) JsonAccount {
	return JsonAccount{
		DDXBalance:    fixedpoint.ToDecimal(acct.TotalDDX()),
		USDBalance:    fixedpoint.ToDecimal(acct.TotalUSD()),
		TraderAddress: acct.Trader.Hex(),
	}
}

// orderToJSON renders a canonical order back to the wire shape. The
// hash travels in the URL, not the body, so it has no field here.
func orderToJSON(o *common.Order) JsonOrder {
	return JsonOrder{
		Amount:        fixedpoint.ToDecimal(o.Amount),
		Nonce:         fixedpoint.FormatUint256Hex(o.Nonce),
		Price:         fixedpoint.ToDecimal(o.Price),
		Side:          int(o.Side),
		TraderAddress: o.TraderAddress.Hex(),
	}
}

func orderFromJSON(j JsonOrder) (common.Order, error) {
	amount, err := fixedpoint.ToFixed(j.Amount)
	if err != nil {
		return common.Order{}, err
	}
	price, err := fixedpoint.ToFixed(j.Price)
	if err != nil {
		return common.Order{}, err
	}
	nonce, err := fixedpoint.ParseUint256Hex(j.Nonce)
	if err != nil {
		return common.Order{}, err
	}
	side := common.Bid
	if j.Side != 0 {
		side = common.Ask
	}
	return common.Order{
		Amount:        amount,
		Nonce:         nonce,
		Price:         price,
		Side:          side,
		TraderAddress: ethcommon.HexToAddress(j.TraderAddress),
	}, nil
}

func fillsToJSON(fills []common.Fill) []JsonFill {
	out := make([]JsonFill, 0, len(fills))
	for _, f := range fills {
		out = append(out, JsonFill{
			MakerHash:  f.MakerHash,
			TakerHash:  f.TakerHash,
			FillAmount: fixedpoint.ToDecimal(f.FillAmount),
			Price:      fixedpoint.ToDecimal(f.Price),
		})
	}
	return out
}
