package registry

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sebastianleba/mobius-interface-sub000/internal/amount"
	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

// ToPool converts a snapshot into an engine pool and validates it.
func ToPool(s model.PoolSnapshot) (stableswap.Pool, error) {
	tokens := make([]stableswap.Token, len(s.Tokens))
	for i, token := range s.Tokens {
		var addr common.Address
		if token.Address != "" {
			parsed, err := ParseAddress(token.Address)
			if err != nil {
				return stableswap.Pool{}, fmt.Errorf("token %d: %w", i, err)
			}
			addr = parsed
		}
		tokens[i] = stableswap.Token{Address: addr, Symbol: token.Symbol, Decimals: token.Decimals}
	}

	balances := make([]*big.Int, len(s.Balances))
	for i, raw := range s.Balances {
		v, err := amount.ParseRaw(raw)
		if err != nil {
			return stableswap.Pool{}, fmt.Errorf("balance %d: %w", i, err)
		}
		balances[i] = v
	}

	a, err := requiredInt("a", s.A)
	if err != nil {
		return stableswap.Pool{}, err
	}
	aPrecise, err := optionalInt("a_precise", s.APrecise)
	if err != nil {
		return stableswap.Pool{}, err
	}
	supply, err := requiredInt("lp_total_supply", s.LPTotalSupply)
	if err != nil {
		return stableswap.Pool{}, err
	}
	swapFee, err := requiredInt("swap_fee", s.SwapFee)
	if err != nil {
		return stableswap.Pool{}, err
	}
	withdrawFee, err := optionalInt("withdraw_fee", s.WithdrawFee)
	if err != nil {
		return stableswap.Pool{}, err
	}
	feeDenominator, err := requiredInt("fee_denominator", s.FeeDenominator)
	if err != nil {
		return stableswap.Pool{}, err
	}

	pool := stableswap.Pool{
		Tokens:         tokens,
		Balances:       balances,
		A:              a,
		APrecise:       aPrecise,
		LPTotalSupply:  supply,
		SwapFee:        swapFee,
		WithdrawFee:    withdrawFee,
		FeeDenominator: feeDenominator,
	}
	if err := pool.Validate(); err != nil {
		return stableswap.Pool{}, err
	}
	return pool, nil
}

func requiredInt(field, value string) (*big.Int, error) {
	v, err := amount.ParseRaw(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

func optionalInt(field, value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	return requiredInt(field, value)
}
