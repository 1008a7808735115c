// Package orderid derives the canonical order identity: an EIP-712
// structured-data hash over the order's economic fields under a fixed
// domain separator. Two orders with identical fields collide by design;
// callers rely on the client-supplied nonce for uniqueness.
package orderid

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"

	"maelstrom/internal/common"
)

// DomainName and DomainVersion fix the EIP-712 domain separator. The
// domain intentionally carries no chainId or verifyingContract — this is
// an off-chain order identity, not a signable on-chain typed message.
const (
	DomainName    = "DDX take-home"
	DomainVersion = "0.1.0"
)

var orderTypes = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
	},
	"Order": []apitypes.Type{
		{Name: "amount", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "price", Type: "uint256"},
		{Name: "side", Type: "uint8"},
		{Name: "traderAddress", Type: "address"},
	},
}

var domain = apitypes.TypedDataDomain{
	Name:    DomainName,
	Version: DomainVersion,
}

// Hash computes the canonical order identity for the given field tuple,
// returned as a lowercase 0x-prefixed 32-byte hex string.
func Hash(amount, nonce, price *uint256.Int, side common.Side, trader ethcommon.Address) (string, error) {
	typedData := apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"amount":        amount.ToBig().String(),
			"nonce":         nonce.ToBig().String(),
			"price":         price.ToBig().String(),
			"side":          fmt.Sprintf("%d", uint8(side)),
			"traderAddress": trader.Hex(),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return "", fmt.Errorf("orderid: hash domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return "", fmt.Errorf("orderid: hash message: %w", err)
	}

	rawData := append([]byte{0x19, 0x01}, append(domainSeparator, messageHash...)...)
	digest := crypto.Keccak256Hash(rawData)
	return digest.Hex(), nil
}

// HashOrder is a convenience wrapper over Hash for a canonical common.Order.
func HashOrder(o common.Order) (string, error) {
	return Hash(o.Amount, o.Nonce, o.Price, o.Side, o.TraderAddress)
}
