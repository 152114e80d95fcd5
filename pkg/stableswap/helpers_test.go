package stableswap

import (
	"math/big"
	"testing"
)

func bigInt(t testing.TB, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer literal %q", s)
	}
	return v
}

// units returns whole * 10^decimals.
func units(whole int64, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return scale.Mul(scale, big.NewInt(whole))
}

func tokens(decimals ...uint8) []Token {
	out := make([]Token, len(decimals))
	for i, d := range decimals {
		out[i] = Token{Symbol: "T" + string(rune('A'+i)), Decimals: d}
	}
	return out
}

func ints(values ...*big.Int) []*big.Int {
	return values
}

// scenarioPool is the two-coin 18/6 pool: 1M of each side, A=200, 4 bps.
func scenarioPool() Pool {
	return Pool{
		Tokens:         tokens(18, 6),
		Balances:       ints(units(1_000_000, 18), units(1_000_000, 6)),
		A:              big.NewInt(200),
		LPTotalSupply:  units(2_000_000, 18),
		SwapFee:        big.NewInt(4),
		FeeDenominator: big.NewInt(10_000),
	}
}

// threePool is an unbalanced 18/18/6 pool with Saddle-style fee units.
func threePool() Pool {
	return Pool{
		Tokens:         tokens(18, 18, 6),
		Balances:       ints(units(1000, 18), units(1200, 18), units(800, 6)),
		A:              big.NewInt(100),
		LPTotalSupply:  units(2990, 18),
		SwapFee:        big.NewInt(4_000_000),
		FeeDenominator: big.NewInt(10_000_000_000),
	}
}

func balancedPool() Pool {
	return Pool{
		Tokens:         tokens(18, 18),
		Balances:       ints(units(1_000_000, 18), units(1_000_000, 18)),
		A:              big.NewInt(100),
		LPTotalSupply:  units(2_000_000, 18),
		SwapFee:        big.NewInt(4_000_000),
		FeeDenominator: big.NewInt(10_000_000_000),
	}
}

func zeros(n int) []*big.Int {
	return zeroInts(n)
}

func assertInt(t *testing.T, name string, got *big.Int, want string) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: got nil, want %s", name, want)
	}
	if got.String() != want {
		t.Fatalf("%s mismatch: %s != %s", name, got, want)
	}
}

func absDiff(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	return d.Abs(d)
}
