package stableswap

import (
	"math/big"

	"go.uber.org/zap"
)

// Solver names reported in NonConvergence events.
const (
	SolverD  = "get_d"
	SolverY  = "get_y"
	SolverYD = "get_y_d"
)

// NonConvergence describes a Newton loop that used all MaxIterations without
// reaching the 1-unit tolerance. The last iterate is still returned to the
// caller, matching the contract, which does not revert in this case either.
type NonConvergence struct {
	Solver     string
	Iterations int
	Last       *big.Int
	Previous   *big.Int
}

// Option configures an Engine.
type Option func(*Engine)

// Engine evaluates StableSwap quotes. It holds no pool state; the zero value
// is ready to use and reports nothing.
type Engine struct {
	hooks []func(NonConvergence)
}

// NewEngine builds an Engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithNonConvergenceHook registers fn to be called whenever a solver exhausts
// its iteration budget.
func WithNonConvergenceHook(fn func(NonConvergence)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.hooks = append(e.hooks, fn)
		}
	}
}

// WithLogger logs non-convergence events at warn level.
func WithLogger(logger *zap.Logger) Option {
	if logger == nil {
		logger = zap.NewNop()
	}
	return WithNonConvergenceHook(func(ev NonConvergence) {
		logger.Warn("solver did not converge",
			zap.String("solver", ev.Solver),
			zap.Int("iterations", ev.Iterations),
			zap.String("last", ev.Last.String()),
			zap.String("previous", ev.Previous.String()),
		)
	})
}

func (e *Engine) notify(solver string, last, previous *big.Int) {
	if e == nil || len(e.hooks) == 0 {
		return
	}
	ev := NonConvergence{
		Solver:     solver,
		Iterations: MaxIterations,
		Last:       new(big.Int).Set(last),
		Previous:   new(big.Int).Set(previous),
	}
	for _, hook := range e.hooks {
		hook(ev)
	}
}
