// Package amount converts between human-readable token amounts and native
// integer units. It belongs to the display layer; quoting itself only ever
// sees integers.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount reports an unparsable, negative or over-precise amount.
var ErrInvalidAmount = errors.New("invalid amount")

// LPDecimals is the precision of every pool's LP token.
const LPDecimals = 18

// maxDigits is the decimal length of 2^256-1.
const maxDigits = 78

// ParseRaw parses a native integer amount, decimal or 0x-prefixed hex,
// bounded to 256 bits.
func ParseRaw(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	v, ok := math.ParseBig256(input)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a 256-bit integer", ErrInvalidAmount, input)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, input)
	}
	return v, nil
}

// ParseUnits parses a human-readable amount such as "1000.25" into native
// units of a token with the given decimals. More fractional digits than the
// token carries is an error rather than a silent truncation.
func ParseUnits(input string, decimals uint8) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, input, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, input)
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	// Bound the size from the coefficient and exponent before BigInt or
	// IsInteger expand an input like "1e50000000".
	digits := int64(len(d.Coefficient().String()))
	exp := int64(d.Exponent()) + int64(decimals)
	if digits+exp > maxDigits {
		return nil, fmt.Errorf("%w: %q overflows 256 bits", ErrInvalidAmount, input)
	}
	if -exp > digits {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, input, decimals)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, input, decimals)
	}
	v := shifted.BigInt()
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %q overflows 256 bits", ErrInvalidAmount, input)
	}
	return v, nil
}

// Parse dispatches to ParseRaw or ParseUnits.
func Parse(input string, decimals uint8, raw bool) (*big.Int, error) {
	if raw {
		return ParseRaw(input)
	}
	return ParseUnits(input, decimals)
}

// Format renders native units as a decimal string without trailing zeros.
func Format(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
