// Package fixedpoint converts between decimal strings and the 256-bit
// fixed-point integers the ledger and matching engine operate on
// internally. All internal arithmetic happens at Scale; conversion to and
// from decimal only happens at the JSON boundary.
package fixedpoint

import (
	"errors"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// Decimals is the number of fractional digits at Scale: one whole unit is
// represented as 10^18 fixed-point units.
const Decimals = 18

var (
	ErrBadDecimal = errors.New("fixedpoint: malformed decimal string")
	ErrOverflow   = errors.New("fixedpoint: value overflows 256 bits")
)

// Scale is 10^18 as a uint256.
var Scale = mustFromDecimalString("1" + strings.Repeat("0", Decimals))

// ErrorTolerance is the inclusive slack (10^-14 at Scale) used for balance
// and remainder comparisons.
var ErrorTolerance = uint256.NewInt(10_000)

func mustFromDecimalString(s string) *uint256.Int {
	v := new(uint256.Int)
	if err := v.SetFromDecimal(s); err != nil {
		panic(err)
	}
	return v
}

// ToFixed parses a decimal string such as "1.50" or "3" into a Q/P value
// at Scale, truncating anything beyond 18 fractional digits.
func ToFixed(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrBadDecimal
	}

	neg := strings.HasPrefix(s, "-")
	if neg {
		return nil, ErrBadDecimal
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) {
		return nil, ErrBadDecimal
	}
	if hasFrac {
		if !isDigits(frac) {
			return nil, ErrBadDecimal
		}
		if len(frac) > Decimals {
			frac = frac[:Decimals]
		} else {
			frac = frac + strings.Repeat("0", Decimals-len(frac))
		}
	} else {
		frac = strings.Repeat("0", Decimals)
	}

	combined := whole + frac
	// Strip leading zeros so SetFromDecimal doesn't choke on e.g. "007".
	combined = strings.TrimLeft(combined, "0")
	if combined == "" {
		combined = "0"
	}

	v := new(uint256.Int)
	if err := v.SetFromDecimal(combined); err != nil {
		return nil, ErrOverflow
	}
	return v, nil
}

// ToDecimal renders a Q/P value as a decimal string truncated to exactly
// two fractional digits — the external contract for JsonAccount/JsonOrder
// output.
func ToDecimal(v *uint256.Int) string {
	quo := new(uint256.Int).Div(v, Scale)
	rem := new(uint256.Int).Mod(v, Scale)

	// rem is in [0, 10^18); we want the first two of its 18 digits,
	// truncated toward zero.
	twoDigitScale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals-2))
	cents := new(uint256.Int).Div(rem, twoDigitScale)

	return quo.Dec() + "." + padTwo(cents.Dec())
}

func padTwo(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Notional computes floor(amount*price/Scale), the canonical rounding
// rule used everywhere a cost or proceeds figure is derived.
func Notional(amount, price *uint256.Int) (*uint256.Int, error) {
	var product uint256.Int
	_, overflow := product.MulOverflow(amount, price)
	if overflow {
		return nil, ErrOverflow
	}
	return product.Div(&product, Scale), nil
}

// ParseUint256Hex parses a 0x-prefixed hex-encoded 256-bit nonce.
func ParseUint256Hex(s string) (*uint256.Int, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, ErrBadDecimal
	}
	// SetFromHex rejects zero-padded digits such as "0x01", so the
	// padding is stripped first.
	digits := s[2:]
	if digits == "" {
		return nil, ErrBadDecimal
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	v := new(uint256.Int)
	if err := v.SetFromHex("0x" + digits); err != nil {
		return nil, ErrBadDecimal
	}
	return v, nil
}

// FormatUint256Hex renders a 256-bit value as a 0x-prefixed hex string.
func FormatUint256Hex(v *uint256.Int) string {
	return v.Hex()
}

// ParseUint64 is a small helper for non-fixed-point integer fields.
func ParseUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
