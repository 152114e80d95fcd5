package stableswap

import (
	"fmt"
	"math/big"
)

var multipliers [MaxDecimals + 1]*big.Int

func init() {
	ten := big.NewInt(10)
	for d := 0; d <= MaxDecimals; d++ {
		multipliers[d] = new(big.Int).Exp(ten, big.NewInt(int64(MaxDecimals-d)), nil)
	}
}

// PrecisionMultiplier returns 10^(18-decimals). Decimals above 18 are clamped
// to 18; callers validate first.
func PrecisionMultiplier(decimals uint8) *big.Int {
	if decimals > MaxDecimals {
		decimals = MaxDecimals
	}
	return new(big.Int).Set(multipliers[decimals])
}

// ScaleUp converts native balances to the 18-decimal basis:
// xp[i] = balances[i] * 10^(18-decimals[i]).
func ScaleUp(balances []*big.Int, decimals []uint8) ([]*big.Int, error) {
	if len(balances) != len(decimals) {
		return nil, fmt.Errorf("%w: %d balances for %d decimals", ErrConfiguration, len(balances), len(decimals))
	}
	xp := make([]*big.Int, len(balances))
	for i, balance := range balances {
		if decimals[i] > MaxDecimals {
			return nil, fmt.Errorf("%w: token %d has %d decimals", ErrConfiguration, i, decimals[i])
		}
		if balance == nil {
			return nil, fmt.Errorf("%w: balance %d is missing", ErrConfiguration, i)
		}
		xp[i] = new(big.Int).Mul(balance, multipliers[decimals[i]])
	}
	return xp, nil
}

// ScaleDown converts an 18-decimal value back to native units, truncating
// toward zero like the contract does.
func ScaleDown(value *big.Int, decimals uint8) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: %d decimals", ErrConfiguration, decimals)
	}
	return new(big.Int).Quo(value, multipliers[decimals]), nil
}

func scaleUpRates(balances, rates []*big.Int) []*big.Int {
	xp := make([]*big.Int, len(balances))
	for i, balance := range balances {
		xp[i] = scaleUpRate(balance, rates[i])
	}
	return xp
}

func scaleUpRate(value, rate *big.Int) *big.Int {
	out := new(big.Int).Mul(value, rate)
	return out.Quo(out, precision)
}

func scaleDownRate(value, rate *big.Int) *big.Int {
	out := new(big.Int).Mul(value, precision)
	return out.Quo(out, rate)
}
