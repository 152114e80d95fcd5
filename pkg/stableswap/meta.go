package stableswap

import (
	"fmt"
	"math/big"
)

// Side names the pool a composed leg runs against.
type Side string

const (
	SideMeta Side = "meta"
	SideBase Side = "base"
)

// LegKind is the operation a composed leg performs.
type LegKind string

const (
	LegSwap        LegKind = "swap"
	LegDeposit     LegKind = "deposit"
	LegWithdrawOne LegKind = "withdraw_one"
)

// Leg is one single-pool step of an underlying swap. Indices are local to
// the leg's pool; Result amounts use that pool's native units, and for
// deposit and withdraw legs the LP token stands on one side.
type Leg struct {
	Pool   Side
	Kind   LegKind
	From   int
	To     int
	Result SwapResult
}

// MetaSwapResult is an underlying swap quote. The embedded SwapResult carries
// the overall input and output; its Fee is the final leg's fee, in the output
// token. Legs lists every step in execution order.
type MetaSwapResult struct {
	SwapResult
	Legs []Leg
}

// MetaPool pairs a meta pool with the base pool whose LP token sits in the
// meta pool's last slot.
type MetaPool struct {
	Meta Pool
	Base Pool
}

// Validate checks both snapshots.
func (mp MetaPool) Validate() error {
	if err := mp.Meta.Validate(); err != nil {
		return fmt.Errorf("meta pool: %w", err)
	}
	if err := mp.Base.Validate(); err != nil {
		return fmt.Errorf("base pool: %w", err)
	}
	return nil
}

// NumUnderlying is the size of the underlying index space: meta tokens
// (LP slot included) followed by base tokens.
func (mp MetaPool) NumUnderlying() int {
	return mp.Meta.N() + mp.Base.N()
}

func (mp MetaPool) lpIndex() int {
	return mp.Meta.N() - 1
}

// PriceMeta returns the meta pool snapshot with its LP slot rate set to the
// base pool virtual price. All meta-pool math runs against this snapshot.
func (e *Engine) PriceMeta(mp MetaPool) (Pool, error) {
	if err := mp.Validate(); err != nil {
		return Pool{}, err
	}
	vp, err := e.GetVirtualPrice(mp.Base)
	if err != nil {
		return Pool{}, fmt.Errorf("base pool virtual price: %w", err)
	}
	if vp.Sign() == 0 {
		return Pool{}, fmt.Errorf("%w: base pool virtual price is zero", ErrDegeneratePool)
	}
	priced := mp.Meta.Clone()
	priced.Rates = mp.Meta.rates()
	priced.Rates[mp.lpIndex()] = vp
	return priced, nil
}

// CalculateSwapUnderlying quotes dx of underlying token `from` into
// underlying token `to`, composing meta and base pool legs as needed.
func (e *Engine) CalculateSwapUnderlying(mp MetaPool, from, to int, dx *big.Int) (MetaSwapResult, error) {
	if err := mp.Validate(); err != nil {
		return MetaSwapResult{}, err
	}
	total := mp.NumUnderlying()
	if from < 0 || to < 0 || from >= total || to >= total || from == to {
		return MetaSwapResult{}, fmt.Errorf("%w: underlying %d to %d over %d tokens", ErrInvalidIndex, from, to, total)
	}
	if err := checkAmount(dx); err != nil {
		return MetaSwapResult{}, err
	}

	nMeta := mp.Meta.N()
	lp := mp.lpIndex()
	fromBase, toBase := from >= nMeta, to >= nMeta

	if fromBase && toBase {
		res, err := e.CalculateSwap(mp.Base, from-nMeta, to-nMeta, dx)
		if err != nil {
			return MetaSwapResult{}, err
		}
		return composed(dx, Leg{Pool: SideBase, Kind: LegSwap, From: from - nMeta, To: to - nMeta, Result: res}), nil
	}

	meta, err := e.PriceMeta(mp)
	if err != nil {
		return MetaSwapResult{}, err
	}

	switch {
	case !fromBase && !toBase:
		res, err := e.CalculateSwap(meta, from, to, dx)
		if err != nil {
			return MetaSwapResult{}, err
		}
		return composed(dx, Leg{Pool: SideMeta, Kind: LegSwap, From: from, To: to, Result: res}), nil

	case !fromBase:
		var legs []Leg
		lpAmount := dx
		if from != lp {
			res, err := e.CalculateSwap(meta, from, lp, dx)
			if err != nil {
				return MetaSwapResult{}, err
			}
			legs = append(legs, Leg{Pool: SideMeta, Kind: LegSwap, From: from, To: lp, Result: res})
			lpAmount = res.AmountOut
		}
		out, err := e.CalculateWithdrawOneToken(mp.Base, to-nMeta, lpAmount)
		if err != nil {
			return MetaSwapResult{}, err
		}
		legs = append(legs, Leg{
			Pool: SideBase, Kind: LegWithdrawOne, From: -1, To: to - nMeta,
			Result: SwapResult{AmountIn: new(big.Int).Set(lpAmount), AmountOut: out.AmountOut, Fee: out.Fee},
		})
		return composed(dx, legs...), nil

	default:
		amounts := zeroInts(mp.Base.N())
		amounts[from-nMeta].Set(dx)
		var minted ImbalanceResult
		if dx.Sign() == 0 {
			minted = ImbalanceResult{LPDelta: new(big.Int), Fees: zeroInts(mp.Base.N())}
		} else if minted, err = e.CalculateAddLiquidity(mp.Base, amounts); err != nil {
			return MetaSwapResult{}, err
		}
		legs := []Leg{{
			Pool: SideBase, Kind: LegDeposit, From: from - nMeta, To: -1,
			Result: SwapResult{AmountIn: new(big.Int).Set(dx), AmountOut: minted.LPDelta, Fee: minted.Fees[from-nMeta]},
		}}
		if to != lp {
			res, err := e.CalculateSwap(meta, lp, to, minted.LPDelta)
			if err != nil {
				return MetaSwapResult{}, err
			}
			legs = append(legs, Leg{Pool: SideMeta, Kind: LegSwap, From: lp, To: to, Result: res})
		}
		return composed(dx, legs...), nil
	}
}

func composed(dx *big.Int, legs ...Leg) MetaSwapResult {
	last := legs[len(legs)-1].Result
	return MetaSwapResult{
		SwapResult: SwapResult{
			AmountIn:  new(big.Int).Set(dx),
			AmountOut: new(big.Int).Set(last.AmountOut),
			Fee:       new(big.Int).Set(last.Fee),
		},
		Legs: legs,
	}
}
