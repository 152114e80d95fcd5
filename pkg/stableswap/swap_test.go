package stableswap

import (
	"errors"
	"math/big"
	"testing"

	"pgregory.net/rapid"
)

func TestCalculateSwapScenario(t *testing.T) {
	var e Engine
	got, err := e.CalculateSwap(scenarioPool(), 0, 1, units(1000, 18))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 999.595026 out and 0.399998 fee, both in 6-decimal native units.
	assertInt(t, "amount out", got.AmountOut, "999595026")
	assertInt(t, "fee", got.Fee, "399998")
	assertInt(t, "amount in", got.AmountIn, "1000000000000000000000")
}

func TestCalculateSwapThreePool(t *testing.T) {
	var e Engine
	p := threePool()

	cases := []struct {
		from, to int
		dx       *big.Int
		out, fee string
	}{
		{0, 2, units(10, 18), "9968967", "3989"},
		{2, 1, units(10, 6), "10037742743968040270", "4016703779098855"},
		{0, 1, units(10, 18), "10012308890902938357", "4006526166827906"},
	}

	for _, tc := range cases {
		got, err := e.CalculateSwap(p, tc.from, tc.to, tc.dx)
		if err != nil {
			t.Fatalf("%d->%d: unexpected error: %v", tc.from, tc.to, err)
		}
		assertInt(t, "amount out", got.AmountOut, tc.out)
		assertInt(t, "fee", got.Fee, tc.fee)
	}
}

func TestCalculateSwapDoesNotMutatePool(t *testing.T) {
	var e Engine
	p := threePool()
	before := p.Clone()
	if _, err := e.CalculateSwap(p, 0, 1, units(10, 18)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range p.Balances {
		if p.Balances[i].Cmp(before.Balances[i]) != 0 {
			t.Fatalf("balance %d changed: %s -> %s", i, before.Balances[i], p.Balances[i])
		}
	}
}

func TestCalculateSwapZero(t *testing.T) {
	var e Engine
	p := threePool()
	for from := 0; from < p.N(); from++ {
		for to := 0; to < p.N(); to++ {
			if from == to {
				continue
			}
			got, err := e.CalculateSwap(p, from, to, new(big.Int))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.AmountOut.Sign() != 0 || got.Fee.Sign() != 0 {
				t.Fatalf("zero swap %d->%d returned %s/%s", from, to, got.AmountOut, got.Fee)
			}
		}
	}
}

func TestCalculateSwapRejectsBadInput(t *testing.T) {
	var e Engine
	p := threePool()

	if _, err := e.CalculateSwap(p, 1, 1, units(1, 18)); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	if _, err := e.CalculateSwap(p, 0, 3, units(1, 18)); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	if _, err := e.CalculateSwap(p, 0, 1, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}

	bad := p.Clone()
	bad.Tokens[1].Decimals = 19
	if _, err := e.CalculateSwap(bad, 0, 1, units(1, 18)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	bad = p.Clone()
	bad.Balances = bad.Balances[:2]
	if _, err := e.CalculateSwap(bad, 0, 1, units(1, 18)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCalculateSwapFromEmptyOutput(t *testing.T) {
	var e Engine
	p := scenarioPool()
	p.Balances[1] = new(big.Int)
	if _, err := e.CalculateSwap(p, 0, 1, units(1, 18)); !errors.Is(err, ErrDegeneratePool) {
		t.Fatalf("expected degenerate pool, got %v", err)
	}
}

func TestGetDx(t *testing.T) {
	var e Engine
	p := threePool()

	got, err := e.GetDx(p, 2, 0, units(5, 18))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertInt(t, "dx", got, "4989484")

	out, err := e.CalculateSwap(p, 0, 2, units(10, 18))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = e.GetDx(p, 0, 2, out.AmountOut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The 6-decimal output truncates away up to 1e12 of 18-decimal input.
	assertInt(t, "round trip dx", got, "9999999331762994556")
}

func TestGetDxInsufficientLiquidity(t *testing.T) {
	var e Engine
	p := scenarioPool()
	if _, err := e.GetDx(p, 0, 1, units(1_000_000, 6)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected insufficient liquidity, got %v", err)
	}
	got, err := e.GetDx(p, 0, 1, new(big.Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected zero input for zero output, got %s", got)
	}
}

func TestGetVirtualPrice(t *testing.T) {
	var e Engine
	vp, err := e.GetVirtualPrice(scenarioPool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertInt(t, "balanced", vp, "1000000000000000000")

	vp, err = e.GetVirtualPrice(threePool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertInt(t, "three pool", vp, "1003206583402461660")

	empty := scenarioPool()
	empty.LPTotalSupply = new(big.Int)
	if _, err := e.GetVirtualPrice(empty); !errors.Is(err, ErrDegeneratePool) {
		t.Fatalf("expected degenerate pool, got %v", err)
	}
}

// drawPool builds an 18-decimal pool whose balances stay within 3x of each
// other, the depth at which rounding stays within a couple of units.
func drawPool(t *rapid.T, fee int64) (Pool, int, int, *big.Int) {
	n := rapid.IntRange(2, 4).Draw(t, "n")
	base := units(rapid.Int64Range(100_000, 100_000_000).Draw(t, "base"), 18)

	decimals := make([]uint8, n)
	balances := make([]*big.Int, n)
	smallest := (*big.Int)(nil)
	for i := range balances {
		decimals[i] = 18
		factor := rapid.Int64Range(100, 300).Draw(t, "factor")
		b := new(big.Int).Mul(base, big.NewInt(factor))
		balances[i] = b.Quo(b, big.NewInt(100))
		if smallest == nil || balances[i].Cmp(smallest) < 0 {
			smallest = balances[i]
		}
	}

	from := rapid.IntRange(0, n-1).Draw(t, "from")
	to := rapid.IntRange(0, n-2).Draw(t, "to")
	if to >= from {
		to++
	}

	dx := new(big.Int).Mul(smallest, big.NewInt(rapid.Int64Range(1, 1_000_000).Draw(t, "dx")))
	dx.Quo(dx, big.NewInt(100_000_000))

	p := Pool{
		Tokens:         tokens(decimals...),
		Balances:       balances,
		A:              big.NewInt(rapid.Int64Range(10, 5000).Draw(t, "amp")),
		LPTotalSupply:  units(1, 18),
		SwapFee:        big.NewInt(fee),
		FeeDenominator: big.NewInt(10_000_000_000),
	}
	return p, from, to, dx
}

func applySwap(p Pool, from, to int, dx, dy *big.Int) Pool {
	next := p.Clone()
	next.Balances[from].Add(next.Balances[from], dx)
	next.Balances[to].Sub(next.Balances[to], dy)
	return next
}

func TestSwapRoundTripWithoutFee(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var e Engine
		p, from, to, dx := drawPool(t, 0)

		out, err := e.CalculateSwap(p, from, to, dx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		back, err := e.CalculateSwap(applySwap(p, from, to, dx, out.AmountOut), to, from, out.AmountOut)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if absDiff(back.AmountOut, dx).Cmp(big.NewInt(2)) > 0 {
			t.Fatalf("round trip drifted: %s -> %s", dx, back.AmountOut)
		}
	})
}

func TestSwapRoundTripWithFeeLoses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var e Engine
		fee := rapid.Int64Range(1, 100_000_000).Draw(t, "fee")
		p, from, to, dx := drawPool(t, fee)

		out, err := e.CalculateSwap(p, from, to, dx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Fee.Sign() < 0 || out.AmountOut.Sign() < 0 {
			t.Fatalf("negative quote: %+v", out)
		}
		back, err := e.CalculateSwap(applySwap(p, from, to, dx, out.AmountOut), to, from, out.AmountOut)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if back.AmountOut.Cmp(dx) >= 0 {
			t.Fatalf("round trip with fee %d did not lose value: %s -> %s", fee, dx, back.AmountOut)
		}
	})
}

func TestGetDxReconstructsInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var e Engine
		fee := rapid.Int64Range(0, 100_000_000).Draw(t, "fee")
		p, from, to, dx := drawPool(t, fee)

		out, err := e.CalculateSwap(p, from, to, dx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.AmountOut.Sign() == 0 {
			return
		}
		got, err := e.GetDx(p, from, to, out.AmountOut)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if absDiff(got, dx).Cmp(big.NewInt(4)) > 0 {
			t.Fatalf("get_dx drifted: %s -> %s", dx, got)
		}
	})
}
