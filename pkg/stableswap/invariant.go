package stableswap

import (
	"fmt"
	"math/big"
)

// GetD computes the StableSwap invariant D for scaled balances xp, where
// ann = A * APrecision * N.
//
//	A * sum(x_i) * n**n + D = A * D * n**n + D**(n+1) / (n**n * prod(x_i))
//
// Converging solution:
//
//	D[j+1] = (Ann*S/A_PRECISION + D_P*n) * D / ((Ann - A_PRECISION)*D/A_PRECISION + (n+1)*D_P)
func (e *Engine) GetD(xp []*big.Int, ann *big.Int) (*big.Int, error) {
	n := int64(len(xp))
	if n == 0 {
		return nil, fmt.Errorf("%w: no balances", ErrConfiguration)
	}
	if ann == nil || ann.Sign() <= 0 {
		return nil, fmt.Errorf("%w: ann must be positive", ErrConfiguration)
	}

	s := new(big.Int)
	for _, x := range xp {
		s.Add(s, x)
	}
	if s.Sign() == 0 {
		return new(big.Int), nil
	}

	nBig := big.NewInt(n)
	nPlusOne := big.NewInt(n + 1)
	annS := new(big.Int).Mul(ann, s)
	annS.Quo(annS, aPrecision)
	annLessPrecision := new(big.Int).Sub(ann, aPrecision)

	d := new(big.Int).Set(s)
	prev := new(big.Int)
	for k := 0; k < MaxIterations; k++ {
		dP := new(big.Int).Set(d)
		for j, x := range xp {
			if x.Sign() <= 0 {
				return nil, fmt.Errorf("%w: balance %d is zero in a non-empty pool", ErrDegeneratePool, j)
			}
			dP.Mul(dP, d)
			dP.Quo(dP, new(big.Int).Mul(x, nBig))
		}
		prev.Set(d)

		num := new(big.Int).Mul(dP, nBig)
		num.Add(num, annS)
		num.Mul(num, d)

		den := new(big.Int).Mul(annLessPrecision, d)
		den.Quo(den, aPrecision)
		den.Add(den, new(big.Int).Mul(dP, nPlusOne))
		if den.Sign() <= 0 {
			return nil, fmt.Errorf("%w: invariant denominator is not positive", ErrDegeneratePool)
		}
		d = num.Quo(num, den)

		if within1(d, prev) {
			return d, nil
		}
	}

	e.notify(SolverD, d, prev)
	return d, nil
}

// GetY returns the new scaled balance of token `to` when the scaled balance of
// `from` becomes x, holding D constant.
func (e *Engine) GetY(aPrecise *big.Int, from, to int, x *big.Int, xp []*big.Int) (*big.Int, error) {
	n := len(xp)
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		return nil, fmt.Errorf("%w: get_y from %d to %d over %d tokens", ErrInvalidIndex, from, to, n)
	}
	if aPrecise == nil || aPrecise.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amplification coefficient must be positive", ErrConfiguration)
	}

	ann := new(big.Int).Mul(aPrecise, big.NewInt(int64(n)))
	d, err := e.GetD(xp, ann)
	if err != nil {
		return nil, err
	}

	nBig := big.NewInt(int64(n))
	c := new(big.Int).Set(d)
	s := new(big.Int)
	for i := 0; i < n; i++ {
		var xi *big.Int
		switch {
		case i == from:
			xi = x
		case i != to:
			xi = xp[i]
		default:
			continue
		}
		if xi.Sign() <= 0 {
			return nil, fmt.Errorf("%w: balance %d is zero", ErrDegeneratePool, i)
		}
		s.Add(s, xi)
		c.Mul(c, d)
		c.Quo(c, new(big.Int).Mul(xi, nBig))
	}

	return e.solveY(SolverY, ann, c, s, d, nBig)
}

// GetYD returns the scaled balance of token index that satisfies invariant d
// with every other balance fixed. Used to price single-sided withdrawals.
func (e *Engine) GetYD(aPrecise *big.Int, index int, xp []*big.Int, d *big.Int) (*big.Int, error) {
	n := len(xp)
	if index < 0 || index >= n {
		return nil, fmt.Errorf("%w: get_y_d index %d over %d tokens", ErrInvalidIndex, index, n)
	}
	if aPrecise == nil || aPrecise.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amplification coefficient must be positive", ErrConfiguration)
	}

	nBig := big.NewInt(int64(n))
	ann := new(big.Int).Mul(aPrecise, nBig)
	c := new(big.Int).Set(d)
	s := new(big.Int)
	for i := 0; i < n; i++ {
		if i == index {
			continue
		}
		if xp[i].Sign() <= 0 {
			return nil, fmt.Errorf("%w: balance %d is zero", ErrDegeneratePool, i)
		}
		s.Add(s, xp[i])
		c.Mul(c, d)
		c.Quo(c, new(big.Int).Mul(xp[i], nBig))
	}

	return e.solveY(SolverYD, ann, c, s, d, nBig)
}

// solveY runs y = (y*y + c) / (2*y + b - D) from y = D.
func (e *Engine) solveY(solver string, ann, c, s, d, nBig *big.Int) (*big.Int, error) {
	c = new(big.Int).Mul(c, d)
	c.Mul(c, aPrecision)
	c.Quo(c, new(big.Int).Mul(ann, nBig))

	b := new(big.Int).Mul(d, aPrecision)
	b.Quo(b, ann)
	b.Add(b, s)

	y := new(big.Int).Set(d)
	prev := new(big.Int)
	for k := 0; k < MaxIterations; k++ {
		prev.Set(y)

		num := new(big.Int).Mul(y, y)
		num.Add(num, c)

		den := new(big.Int).Lsh(y, 1)
		den.Add(den, b)
		den.Sub(den, d)
		if den.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s denominator is not positive", ErrDegeneratePool, solver)
		}
		y = num.Quo(num, den)

		if within1(y, prev) {
			return y, nil
		}
	}

	e.notify(solver, y, prev)
	return y, nil
}

func within1(a, b *big.Int) bool {
	diff := new(big.Int).Sub(a, b)
	return diff.CmpAbs(bigOne) <= 0
}
