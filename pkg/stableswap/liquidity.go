package stableswap

import (
	"fmt"
	"math/big"
)

// LiquidityResult is the LP amount minted by a deposit or burned by a withdrawal.
type LiquidityResult struct {
	LPDelta *big.Int
}

// WithdrawResult holds proportional withdrawal amounts in native units.
type WithdrawResult struct {
	Amounts []*big.Int
}

// WithdrawOneResult is a single-sided withdrawal quote in native units.
type WithdrawOneResult struct {
	AmountOut *big.Int
	Fee       *big.Int
}

// ImbalanceResult is an LP amount priced with the contract's imbalance fees,
// plus the per-token fees in native units.
type ImbalanceResult struct {
	LPDelta *big.Int
	Fees    []*big.Int
}

// CalculateTokenAmount estimates the LP minted (isDeposit) or burned for the
// given native amounts. Like the contract estimator it charges no fees.
func (e *Engine) CalculateTokenAmount(p Pool, amounts []*big.Int, isDeposit bool) (LiquidityResult, error) {
	if err := p.Validate(); err != nil {
		return LiquidityResult{}, err
	}
	if err := p.checkAmounts(amounts); err != nil {
		return LiquidityResult{}, err
	}

	rates := p.rates()
	ann := p.ann()
	d0, err := e.GetD(scaleUpRates(p.Balances, rates), ann)
	if err != nil {
		return LiquidityResult{}, err
	}

	next := make([]*big.Int, p.N())
	for i, balance := range p.Balances {
		if isDeposit {
			next[i] = new(big.Int).Add(balance, amounts[i])
			continue
		}
		if amounts[i].Cmp(balance) > 0 {
			return LiquidityResult{}, fmt.Errorf("%w: cannot withdraw %s of token %d, balance %s", ErrInsufficientLiquidity, amounts[i], i, balance)
		}
		next[i] = new(big.Int).Sub(balance, amounts[i])
	}
	d1, err := e.GetD(scaleUpRates(next, rates), ann)
	if err != nil {
		return LiquidityResult{}, err
	}

	if isDeposit && (d0.Sign() == 0 || p.LPTotalSupply.Sign() == 0) {
		return LiquidityResult{LPDelta: d1}, nil
	}
	if d0.Sign() == 0 {
		return LiquidityResult{}, fmt.Errorf("%w: withdrawal from an empty pool", ErrDegeneratePool)
	}

	diff := new(big.Int).Sub(d1, d0)
	if !isDeposit {
		diff.Neg(diff)
	}
	if diff.Sign() < 0 {
		diff.SetInt64(0)
	}
	diff.Mul(diff, p.LPTotalSupply)
	return LiquidityResult{LPDelta: diff.Quo(diff, d0)}, nil
}

// CalculateRemoveLiquidity quotes a proportional withdrawal of lpAmount.
func (e *Engine) CalculateRemoveLiquidity(p Pool, lpAmount *big.Int) (WithdrawResult, error) {
	if err := p.Validate(); err != nil {
		return WithdrawResult{}, err
	}
	if err := checkAmount(lpAmount); err != nil {
		return WithdrawResult{}, err
	}
	supply := p.LPTotalSupply
	if supply.Sign() == 0 {
		return WithdrawResult{}, fmt.Errorf("%w: lp supply is zero", ErrDegeneratePool)
	}
	if lpAmount.Cmp(supply) > 0 {
		return WithdrawResult{}, fmt.Errorf("%w: burning %s of %s lp", ErrInsufficientLiquidity, lpAmount, supply)
	}

	adjusted := new(big.Int).Sub(p.FeeDenominator, p.withdrawFee())
	adjusted.Mul(adjusted, lpAmount)
	adjusted.Quo(adjusted, p.FeeDenominator)

	amounts := make([]*big.Int, p.N())
	for i, balance := range p.Balances {
		v := new(big.Int).Mul(balance, adjusted)
		amounts[i] = v.Quo(v, supply)
	}
	return WithdrawResult{Amounts: amounts}, nil
}

// CalculateWithdrawOneToken quotes burning lpAmount for token index only.
// Fee is the shortfall against the fee-free single-sided amount.
func (e *Engine) CalculateWithdrawOneToken(p Pool, index int, lpAmount *big.Int) (WithdrawOneResult, error) {
	if err := p.Validate(); err != nil {
		return WithdrawOneResult{}, err
	}
	if err := p.checkIndex(index); err != nil {
		return WithdrawOneResult{}, err
	}
	if err := checkAmount(lpAmount); err != nil {
		return WithdrawOneResult{}, err
	}
	supply := p.LPTotalSupply
	if supply.Sign() == 0 {
		return WithdrawOneResult{}, fmt.Errorf("%w: lp supply is zero", ErrDegeneratePool)
	}
	if lpAmount.Cmp(supply) > 0 {
		return WithdrawOneResult{}, fmt.Errorf("%w: burning %s of %s lp", ErrInsufficientLiquidity, lpAmount, supply)
	}
	if lpAmount.Sign() == 0 {
		return WithdrawOneResult{AmountOut: new(big.Int), Fee: new(big.Int)}, nil
	}

	rates := p.rates()
	xp := scaleUpRates(p.Balances, rates)
	aPrecise := p.AmpPrecise()
	d0, err := e.GetD(xp, p.ann())
	if err != nil {
		return WithdrawOneResult{}, err
	}
	if d0.Sign() == 0 {
		return WithdrawOneResult{}, fmt.Errorf("%w: invariant is zero", ErrDegeneratePool)
	}

	d1 := new(big.Int).Mul(lpAmount, d0)
	d1.Quo(d1, supply)
	d1.Sub(d0, d1)

	newY, err := e.GetYD(aPrecise, index, xp, d1)
	if err != nil {
		return WithdrawOneResult{}, err
	}

	feePerToken := p.feePerToken()
	reduced := make([]*big.Int, p.N())
	for i, xi := range xp {
		ideal := new(big.Int).Mul(xi, d1)
		ideal.Quo(ideal, d0)

		var expected *big.Int
		if i == index {
			expected = ideal.Sub(ideal, newY)
		} else {
			expected = new(big.Int).Sub(xi, ideal)
		}
		expected.Mul(expected, feePerToken)
		expected.Quo(expected, p.FeeDenominator)
		reduced[i] = new(big.Int).Sub(xi, expected)
	}

	y, err := e.GetYD(aPrecise, index, reduced, d1)
	if err != nil {
		return WithdrawOneResult{}, err
	}
	dy := new(big.Int).Sub(reduced[index], y)
	dy.Sub(dy, bigOne)
	if dy.Sign() < 0 {
		dy.SetInt64(0)
	}

	net := scaleDownRate(dy, rates[index])
	net.Mul(net, new(big.Int).Sub(p.FeeDenominator, p.withdrawFee()))
	net.Quo(net, p.FeeDenominator)

	noFee := scaleDownRate(new(big.Int).Sub(xp[index], newY), rates[index])
	fee := noFee.Sub(noFee, net)
	if fee.Sign() < 0 {
		fee.SetInt64(0)
	}
	return WithdrawOneResult{AmountOut: net, Fee: fee}, nil
}

// CalculateAddLiquidity prices a deposit the way the contract mints it,
// charging the imbalance fee on each token's deviation from the ideal
// proportional balance. The first deposit must supply every token.
func (e *Engine) CalculateAddLiquidity(p Pool, amounts []*big.Int) (ImbalanceResult, error) {
	if err := p.Validate(); err != nil {
		return ImbalanceResult{}, err
	}
	if err := p.checkAmounts(amounts); err != nil {
		return ImbalanceResult{}, err
	}

	rates := p.rates()
	ann := p.ann()
	supply := p.LPTotalSupply
	fees := zeroInts(p.N())

	d0 := new(big.Int)
	if supply.Sign() > 0 {
		var err error
		if d0, err = e.GetD(scaleUpRates(p.Balances, rates), ann); err != nil {
			return ImbalanceResult{}, err
		}
	}

	next := make([]*big.Int, p.N())
	for i, balance := range p.Balances {
		if supply.Sign() == 0 && amounts[i].Sign() == 0 {
			return ImbalanceResult{}, fmt.Errorf("%w: first deposit must supply every token", ErrInvalidAmount)
		}
		next[i] = new(big.Int).Add(balance, amounts[i])
	}
	d1, err := e.GetD(scaleUpRates(next, rates), ann)
	if err != nil {
		return ImbalanceResult{}, err
	}
	if d1.Cmp(d0) <= 0 {
		return ImbalanceResult{}, fmt.Errorf("%w: deposit does not increase the invariant", ErrInvalidAmount)
	}

	if supply.Sign() == 0 || d0.Sign() == 0 {
		return ImbalanceResult{LPDelta: d1, Fees: fees}, nil
	}

	e.chargeImbalance(p, d0, d1, next, fees)
	d2, err := e.GetD(scaleUpRates(next, rates), ann)
	if err != nil {
		return ImbalanceResult{}, err
	}

	minted := new(big.Int).Sub(d2, d0)
	if minted.Sign() < 0 {
		minted.SetInt64(0)
	}
	minted.Mul(minted, supply)
	return ImbalanceResult{LPDelta: minted.Quo(minted, d0), Fees: fees}, nil
}

// CalculateRemoveLiquidityImbalance returns the LP burned to withdraw exactly
// the given native amounts, including imbalance and withdraw fees.
func (e *Engine) CalculateRemoveLiquidityImbalance(p Pool, amounts []*big.Int) (ImbalanceResult, error) {
	if err := p.Validate(); err != nil {
		return ImbalanceResult{}, err
	}
	if err := p.checkAmounts(amounts); err != nil {
		return ImbalanceResult{}, err
	}
	supply := p.LPTotalSupply
	if supply.Sign() == 0 {
		return ImbalanceResult{}, fmt.Errorf("%w: lp supply is zero", ErrDegeneratePool)
	}

	rates := p.rates()
	ann := p.ann()
	d0, err := e.GetD(scaleUpRates(p.Balances, rates), ann)
	if err != nil {
		return ImbalanceResult{}, err
	}
	if d0.Sign() == 0 {
		return ImbalanceResult{}, fmt.Errorf("%w: invariant is zero", ErrDegeneratePool)
	}

	next := make([]*big.Int, p.N())
	for i, balance := range p.Balances {
		if amounts[i].Cmp(balance) > 0 {
			return ImbalanceResult{}, fmt.Errorf("%w: cannot withdraw %s of token %d, balance %s", ErrInsufficientLiquidity, amounts[i], i, balance)
		}
		next[i] = new(big.Int).Sub(balance, amounts[i])
	}
	d1, err := e.GetD(scaleUpRates(next, rates), ann)
	if err != nil {
		return ImbalanceResult{}, err
	}

	fees := zeroInts(p.N())
	e.chargeImbalance(p, d0, d1, next, fees)
	d2, err := e.GetD(scaleUpRates(next, rates), ann)
	if err != nil {
		return ImbalanceResult{}, err
	}

	burned := new(big.Int).Sub(d0, d2)
	burned.Mul(burned, supply)
	burned.Quo(burned, d0)
	if burned.Sign() <= 0 {
		return ImbalanceResult{}, fmt.Errorf("%w: withdrawal burns no lp", ErrInvalidAmount)
	}
	burned.Add(burned, bigOne)
	burned.Mul(burned, p.FeeDenominator)
	burned.Quo(burned, new(big.Int).Sub(p.FeeDenominator, p.withdrawFee()))
	if burned.Cmp(supply) > 0 {
		return ImbalanceResult{}, fmt.Errorf("%w: burning %s of %s lp", ErrInsufficientLiquidity, burned, supply)
	}
	return ImbalanceResult{LPDelta: burned, Fees: fees}, nil
}

// chargeImbalance subtracts the imbalance fee from next in place and records
// it in fees. Ideal balances are measured in native units.
func (e *Engine) chargeImbalance(p Pool, d0, d1 *big.Int, next, fees []*big.Int) {
	feePerToken := p.feePerToken()
	for i, balance := range p.Balances {
		ideal := new(big.Int).Mul(d1, balance)
		ideal.Quo(ideal, d0)
		diff := ideal.Sub(ideal, next[i])
		diff.Abs(diff)

		fee := diff.Mul(diff, feePerToken)
		fee.Quo(fee, p.FeeDenominator)
		fees[i] = fee
		next[i].Sub(next[i], fee)
	}
}

// feePerToken is swapFee * N / (4 * (N - 1)).
func (p Pool) feePerToken() *big.Int {
	n := int64(p.N())
	fee := new(big.Int).Mul(p.SwapFee, big.NewInt(n))
	return fee.Quo(fee, big.NewInt(4*(n-1)))
}

func zeroInts(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = new(big.Int)
	}
	return out
}
