package stableswap

import (
	"fmt"
	"math/big"
)

// SwapResult is an exact-in swap quote in native units. Fee is denominated in
// the output token.
type SwapResult struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	Fee       *big.Int
}

// CalculateSwap quotes swapping dx of token `from` into token `to`.
func (e *Engine) CalculateSwap(p Pool, from, to int, dx *big.Int) (SwapResult, error) {
	if err := p.Validate(); err != nil {
		return SwapResult{}, err
	}
	if err := p.checkPair(from, to); err != nil {
		return SwapResult{}, err
	}
	if err := checkAmount(dx); err != nil {
		return SwapResult{}, err
	}

	empty := SwapResult{AmountIn: new(big.Int).Set(dx), AmountOut: new(big.Int), Fee: new(big.Int)}
	if dx.Sign() == 0 {
		return empty, nil
	}

	rates := p.rates()
	xp := scaleUpRates(p.Balances, rates)

	x := scaleUpRate(dx, rates[from])
	x.Add(x, xp[from])
	y, err := e.GetY(p.AmpPrecise(), from, to, x, xp)
	if err != nil {
		return SwapResult{}, err
	}

	dy := new(big.Int).Sub(xp[to], y)
	dy.Sub(dy, bigOne)
	if dy.Sign() <= 0 {
		return empty, nil
	}

	fee := new(big.Int).Mul(dy, p.SwapFee)
	fee.Quo(fee, p.FeeDenominator)

	net := new(big.Int).Sub(dy, fee)
	return SwapResult{
		AmountIn:  new(big.Int).Set(dx),
		AmountOut: scaleDownRate(net, rates[to]),
		Fee:       scaleDownRate(fee, rates[to]),
	}, nil
}

// GetDx quotes the input of token `from` needed to receive dy of token `to`.
func (e *Engine) GetDx(p Pool, from, to int, dy *big.Int) (*big.Int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.checkPair(from, to); err != nil {
		return nil, err
	}
	if err := checkAmount(dy); err != nil {
		return nil, err
	}
	if dy.Sign() == 0 {
		return new(big.Int), nil
	}

	gross := new(big.Int).Mul(dy, p.FeeDenominator)
	gross.Quo(gross, new(big.Int).Sub(p.FeeDenominator, p.SwapFee))
	if gross.Cmp(p.Balances[to]) >= 0 {
		return nil, fmt.Errorf("%w: output %s exceeds balance %s", ErrInsufficientLiquidity, gross, p.Balances[to])
	}

	rates := p.rates()
	xp := scaleUpRates(p.Balances, rates)

	y := new(big.Int).Sub(xp[to], scaleUpRate(gross, rates[to]))
	x, err := e.GetY(p.AmpPrecise(), to, from, y, xp)
	if err != nil {
		return nil, err
	}

	dx := new(big.Int).Sub(x, xp[from])
	if dx.Sign() < 0 {
		return new(big.Int), nil
	}
	return scaleDownRate(dx, rates[from]), nil
}

// GetVirtualPrice returns D / LP supply normalised to 1e18.
func (e *Engine) GetVirtualPrice(p Pool) (*big.Int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.LPTotalSupply.Sign() == 0 {
		return nil, fmt.Errorf("%w: lp supply is zero", ErrDegeneratePool)
	}
	d, err := e.GetD(scaleUpRates(p.Balances, p.rates()), p.ann())
	if err != nil {
		return nil, err
	}
	d.Mul(d, precision)
	return d.Quo(d, p.LPTotalSupply), nil
}
