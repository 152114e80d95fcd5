package stableswap

import "errors"

var (
	// ErrConfiguration reports a malformed pool snapshot: decimals above 18,
	// mismatched array lengths or missing parameters.
	ErrConfiguration = errors.New("stableswap: invalid pool configuration")

	// ErrInvalidIndex reports a token index out of range, or identical
	// indices where distinct ones are required.
	ErrInvalidIndex = errors.New("stableswap: invalid token index")

	// ErrDegeneratePool reports a division against a zero balance, zero
	// invariant or zero LP supply.
	ErrDegeneratePool = errors.New("stableswap: degenerate pool")

	// ErrInsufficientLiquidity reports a request larger than what the pool
	// holds (withdrawing more than a balance, burning more than the supply).
	ErrInsufficientLiquidity = errors.New("stableswap: insufficient liquidity")

	// ErrInvalidAmount reports a nil, negative or wrongly shaped amount input.
	ErrInvalidAmount = errors.New("stableswap: invalid amount")
)
