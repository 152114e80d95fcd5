// Package stableswap reproduces the StableSwap invariant math of Curve-style
// pools (Saddle/Nerve lineage) with exact integer arithmetic, so quotes match
// what the pool contract executes.
package stableswap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// APrecision is the fixed-point scale applied to the amplification coefficient.
	APrecision = 100
	// MaxIterations bounds every Newton loop.
	MaxIterations = 255
	// MaxDecimals is the common fixed-point basis all balances are scaled to.
	MaxDecimals = 18
)

var (
	precision  = big.NewInt(1_000_000_000_000_000_000)
	aPrecision = big.NewInt(APrecision)
	bigOne     = big.NewInt(1)
)

// Token describes one pooled asset.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// Pool is a snapshot of on-chain pool state. Operations never mutate it;
// refreshing state means building a new snapshot.
type Pool struct {
	Tokens   []Token
	Balances []*big.Int

	// A is the raw amplification coefficient. APrecise, when set, overrides
	// A*APrecision (pools that are ramping A report a non-multiple).
	A        *big.Int
	APrecise *big.Int

	LPTotalSupply *big.Int

	// Fees are expressed in units of FeeDenominator.
	SwapFee        *big.Int
	WithdrawFee    *big.Int
	FeeDenominator *big.Int

	// Rates optionally replaces the default rate table 10^(36-decimals).
	// Scaled balances are balance*rate/1e18.
	Rates []*big.Int
}

// N returns the number of pooled tokens.
func (p Pool) N() int {
	return len(p.Tokens)
}

// Decimals returns the token decimals in pool order.
func (p Pool) Decimals() []uint8 {
	out := make([]uint8, len(p.Tokens))
	for i, token := range p.Tokens {
		out[i] = token.Decimals
	}
	return out
}

// Validate checks the snapshot shape and parameters.
func (p Pool) Validate() error {
	n := p.N()
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 tokens, got %d", ErrConfiguration, n)
	}
	if len(p.Balances) != n {
		return fmt.Errorf("%w: %d balances for %d tokens", ErrConfiguration, len(p.Balances), n)
	}
	for i, token := range p.Tokens {
		if token.Decimals > MaxDecimals {
			return fmt.Errorf("%w: token %d has %d decimals", ErrConfiguration, i, token.Decimals)
		}
		if p.Balances[i] == nil || p.Balances[i].Sign() < 0 {
			return fmt.Errorf("%w: balance %d is missing or negative", ErrConfiguration, i)
		}
	}
	if p.Rates != nil {
		if len(p.Rates) != n {
			return fmt.Errorf("%w: %d rates for %d tokens", ErrConfiguration, len(p.Rates), n)
		}
		for i, rate := range p.Rates {
			if rate == nil || rate.Sign() <= 0 {
				return fmt.Errorf("%w: rate %d must be positive", ErrConfiguration, i)
			}
		}
	}
	if p.APrecise == nil && (p.A == nil || p.A.Sign() <= 0) {
		return fmt.Errorf("%w: amplification coefficient must be positive", ErrConfiguration)
	}
	if p.APrecise != nil && p.APrecise.Sign() <= 0 {
		return fmt.Errorf("%w: precise amplification coefficient must be positive", ErrConfiguration)
	}
	if p.LPTotalSupply == nil || p.LPTotalSupply.Sign() < 0 {
		return fmt.Errorf("%w: lp total supply is missing or negative", ErrConfiguration)
	}
	if p.FeeDenominator == nil || p.FeeDenominator.Sign() <= 0 {
		return fmt.Errorf("%w: fee denominator must be positive", ErrConfiguration)
	}
	if p.SwapFee == nil || p.SwapFee.Sign() < 0 || p.SwapFee.Cmp(p.FeeDenominator) >= 0 {
		return fmt.Errorf("%w: swap fee must be in [0, fee denominator)", ErrConfiguration)
	}
	if p.WithdrawFee != nil && (p.WithdrawFee.Sign() < 0 || p.WithdrawFee.Cmp(p.FeeDenominator) >= 0) {
		return fmt.Errorf("%w: withdraw fee must be in [0, fee denominator)", ErrConfiguration)
	}
	return nil
}

// AmpPrecise returns A*APrecision, or APrecise when the snapshot carries it.
func (p Pool) AmpPrecise() *big.Int {
	if p.APrecise != nil {
		return new(big.Int).Set(p.APrecise)
	}
	return new(big.Int).Mul(p.A, aPrecision)
}

// Clone returns a deep copy of the snapshot.
func (p Pool) Clone() Pool {
	out := p
	out.Tokens = append([]Token(nil), p.Tokens...)
	out.Balances = cloneInts(p.Balances)
	out.A = cloneInt(p.A)
	out.APrecise = cloneInt(p.APrecise)
	out.LPTotalSupply = cloneInt(p.LPTotalSupply)
	out.SwapFee = cloneInt(p.SwapFee)
	out.WithdrawFee = cloneInt(p.WithdrawFee)
	out.FeeDenominator = cloneInt(p.FeeDenominator)
	out.Rates = cloneInts(p.Rates)
	return out
}

// WithBalances returns a copy of the snapshot holding the given balances.
func (p Pool) WithBalances(balances []*big.Int) Pool {
	out := p.Clone()
	out.Balances = cloneInts(balances)
	return out
}

func (p Pool) withdrawFee() *big.Int {
	if p.WithdrawFee == nil {
		return new(big.Int)
	}
	return p.WithdrawFee
}

func (p Pool) rates() []*big.Int {
	if p.Rates != nil {
		return cloneInts(p.Rates)
	}
	out := make([]*big.Int, p.N())
	for i, token := range p.Tokens {
		out[i] = new(big.Int).Mul(PrecisionMultiplier(token.Decimals), precision)
	}
	return out
}

func (p Pool) ann() *big.Int {
	return new(big.Int).Mul(p.AmpPrecise(), big.NewInt(int64(p.N())))
}

func (p Pool) checkIndex(index int) error {
	if index < 0 || index >= p.N() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, p.N())
	}
	return nil
}

func (p Pool) checkPair(from, to int) error {
	if err := p.checkIndex(from); err != nil {
		return err
	}
	if err := p.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: from and to are both %d", ErrInvalidIndex, from)
	}
	return nil
}

func (p Pool) checkAmounts(amounts []*big.Int) error {
	if len(amounts) != p.N() {
		return fmt.Errorf("%w: expected %d amounts, got %d", ErrInvalidAmount, p.N(), len(amounts))
	}
	for i, amount := range amounts {
		if amount == nil || amount.Sign() < 0 {
			return fmt.Errorf("%w: amount %d is missing or negative", ErrInvalidAmount, i)
		}
	}
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: amount is missing or negative", ErrInvalidAmount)
	}
	return nil
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneInts(values []*big.Int) []*big.Int {
	if values == nil {
		return nil
	}
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = cloneInt(v)
	}
	return out
}
