package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/amount"
	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/internal/registry"
	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

// Quote kinds.
const (
	KindSwap              = "swap"
	KindExactOut          = "exact_out"
	KindDeposit           = "deposit"
	KindWithdraw          = "withdraw"
	KindWithdrawImbalance = "withdraw_imbalance"
	KindWithdrawOne       = "withdraw_one"
	KindAddLiquidity      = "add_liquidity"
	KindMetaSwap          = "meta_swap"
	KindVirtualPrice      = "virtual_price"
)

// Outcome statuses. Everything but StatusOK is a "no result" the caller can
// show instead of a quote.
const (
	StatusOK                    = "ok"
	StatusPoolNotFound          = "pool_not_found"
	StatusInvalidAmount         = "invalid_amount"
	StatusInvalidRequest        = "invalid_request"
	StatusInsufficientLiquidity = "insufficient_liquidity"
	StatusPoolUnavailable       = "pool_unavailable"
	StatusCanceled              = "canceled"
)

var errUnknownKind = errors.New("unknown quote kind")

// Metrics receives one observation per quote.
type Metrics interface {
	ObserveQuote(kind, status string)
}

// Service answers quote requests against the pools held in a registry.
type Service struct {
	registry *registry.Registry
	engine   *stableswap.Engine
	logger   *zap.Logger
	metrics  Metrics
}

func NewService(reg *registry.Registry, engine *stableswap.Engine, logger *zap.Logger, metrics Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = stableswap.NewEngine()
	}
	return &Service{registry: reg, engine: engine, logger: logger, metrics: metrics}
}

// Quote evaluates one request. It never fails: problems come back as an
// outcome with a non-ok status.
func (s *Service) Quote(ctx context.Context, req model.QuoteRequest) model.QuoteOutcome {
	out := model.QuoteOutcome{Pool: req.Pool, Kind: req.Kind}

	var result *model.QuoteResult
	err := ctx.Err()
	if err == nil {
		result, err = s.evaluate(req)
	}

	out.Status = statusOf(err)
	if err != nil {
		out.Message = err.Error()
		s.logger.Debug("quote without result",
			zap.String("pool", req.Pool),
			zap.String("kind", req.Kind),
			zap.String("status", out.Status),
			zap.Error(err),
		)
	} else {
		out.Result = result
	}

	if s.metrics != nil {
		s.metrics.ObserveQuote(req.Kind, out.Status)
	}
	return out
}

func (s *Service) evaluate(req model.QuoteRequest) (*model.QuoteResult, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("%w: no pools loaded", registry.ErrPoolNotFound)
	}
	snapshot, ok := s.registry.Get(req.Pool)
	if !ok {
		if _, err := registry.ParseAddress(req.Pool); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", registry.ErrPoolNotFound, req.Pool)
	}

	if req.Kind == KindMetaSwap {
		mp, err := s.registry.MetaPool(req.Pool)
		if err != nil {
			return nil, err
		}
		return s.metaSwap(mp, req)
	}

	pool, err := s.pool(snapshot)
	if err != nil {
		return nil, err
	}

	switch req.Kind {
	case KindSwap:
		return s.swap(pool, req)
	case KindExactOut:
		return s.exactOut(pool, req)
	case KindDeposit:
		return s.deposit(pool, req)
	case KindWithdraw:
		return s.withdraw(pool, req)
	case KindWithdrawImbalance:
		return s.withdrawImbalance(pool, req)
	case KindWithdrawOne:
		return s.withdrawOne(pool, req)
	case KindAddLiquidity:
		return s.addLiquidity(pool, req)
	case KindVirtualPrice:
		return s.virtualPrice(pool)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownKind, req.Kind)
	}
}

// pool returns the engine pool, pricing the LP slot of meta pools.
func (s *Service) pool(snapshot model.PoolSnapshot) (stableswap.Pool, error) {
	if !snapshot.IsMeta() {
		return s.registry.Pool(snapshot.Address)
	}
	mp, err := s.registry.MetaPool(snapshot.Address)
	if err != nil {
		return stableswap.Pool{}, err
	}
	return s.engine.PriceMeta(mp)
}

func (s *Service) swap(pool stableswap.Pool, req model.QuoteRequest) (*model.QuoteResult, error) {
	if err := checkPair(pool.N(), req.From, req.To); err != nil {
		return nil, err
	}
	dx, err := amount.Parse(req.Amount, pool.Tokens[req.From].Decimals, req.Raw)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.CalculateSwap(pool, req.From, req.To, dx)
	if err != nil {
		return nil, err
	}
	return &model.QuoteResult{
		AmountIn:  tokenAmount(res.AmountIn, pool.Tokens[req.From]),
		AmountOut: tokenAmount(res.AmountOut, pool.Tokens[req.To]),
		Fee:       tokenAmount(res.Fee, pool.Tokens[req.To]),
	}, nil
}

func (s *Service) exactOut(pool stableswap.Pool, req model.QuoteRequest) (*model.QuoteResult, error) {
	if err := checkPair(pool.N(), req.From, req.To); err != nil {
		return nil, err
	}
	dy, err := amount.Parse(req.Amount, pool.Tokens[req.To].Decimals, req.Raw)
	if err != nil {
		return nil, err
	}
	dx, err := s.engine.GetDx(pool, req.From, req.To, dy)
	if err != nil {
		return nil, err
	}
	return &model.QuoteResult{
		AmountIn:  tokenAmount(dx, pool.Tokens[req.From]),
		AmountOut: tokenAmount(dy, pool.Tokens[req.To]),
	}, nil
}

func (s *Service) deposit(pool stableswap.Pool, req model.QuoteRequest) (*model.QuoteResult, error) {
	amounts, err := parseAmounts(pool, req)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.CalculateTokenAmount(pool, amounts, true)
	if err != nil {
		return nil, err
	}
	return &model.QuoteResult{LPDelta: lpAmount(res.LPDelta)}, nil
}

func (s *Service) withdraw(pool stableswap.Pool, req model.QuoteRequest) (*model.QuoteResult, error) {
	lp, err := amount.Parse(req.Amount, amount.LPDecimals, req.Raw)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.CalculateRemoveLiquidity(pool, lp)
	if err != nil {
		return nil, err
	}
	return &model.QuoteResult{
		LPDelta: lpAmount(lp),
		Amounts: tokenAmounts(res.Amounts, pool.Tokens),
	}, nil
}

func (s *Service) withdrawImbalance(pool stableswap.Pool, req model.QuoteRequest) (*model.QuoteResult, error) {
	amounts, err := parseAmounts(pool, req)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.CalculateRemoveLiquidityImbalance(pool, amounts)
	if err != nil {
		return nil, err
	}
	return &model.QuoteResult{
		LPDelta: lpAmount(res.LPDelta),
		Amounts: tokenAmounts(amounts, pool.Tokens),
		Fees:    tokenAmounts(res.Fees, pool.Tokens),
	}, nil
}

func (s *Service) withdrawOne(pool stableswap.Pool, req model.QuoteRequest) (*model.QuoteResult, error) {
	if req.Index < 0 || req.Index >= pool.N() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", stableswap.ErrInvalidIndex, req.Index, pool.N())
	}
	lp, err := amount.Parse(req.Amount, amount.LPDecimals, req.Raw)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.CalculateWithdrawOneToken(pool, req.Index, lp)
	if err != nil {
		return nil, err
	}
	token := pool.Tokens[req.Index]
	return &model.QuoteResult{
		LPDelta:   lpAmount(lp),
		AmountOut: tokenAmount(res.AmountOut, token),
		Fee:       tokenAmount(res.Fee, token),
	}, nil
}

func (s *Service) addLiquidity(pool stableswap.Pool, req model.QuoteRequest) (*model.QuoteResult, error) {
	amounts, err := parseAmounts(pool, req)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.CalculateAddLiquidity(pool, amounts)
	if err != nil {
		return nil, err
	}
	return &model.QuoteResult{
		LPDelta: lpAmount(res.LPDelta),
		Fees:    tokenAmounts(res.Fees, pool.Tokens),
	}, nil
}

func (s *Service) virtualPrice(pool stableswap.Pool) (*model.QuoteResult, error) {
	vp, err := s.engine.GetVirtualPrice(pool)
	if err != nil {
		return nil, err
	}
	return &model.QuoteResult{VirtualPrice: lpAmount(vp)}, nil
}

func (s *Service) metaSwap(mp stableswap.MetaPool, req model.QuoteRequest) (*model.QuoteResult, error) {
	if err := checkPair(mp.NumUnderlying(), req.From, req.To); err != nil {
		return nil, err
	}
	from, to := underlyingToken(mp, req.From), underlyingToken(mp, req.To)
	dx, err := amount.Parse(req.Amount, from.Decimals, req.Raw)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.CalculateSwapUnderlying(mp, req.From, req.To, dx)
	if err != nil {
		return nil, err
	}

	legs := make([]model.QuoteLeg, len(res.Legs))
	for i, leg := range res.Legs {
		legs[i] = model.QuoteLeg{
			Pool:      string(leg.Pool),
			Kind:      string(leg.Kind),
			From:      leg.From,
			To:        leg.To,
			AmountIn:  leg.Result.AmountIn.String(),
			AmountOut: leg.Result.AmountOut.String(),
			Fee:       leg.Result.Fee.String(),
		}
	}
	return &model.QuoteResult{
		AmountIn:  tokenAmount(res.AmountIn, from),
		AmountOut: tokenAmount(res.AmountOut, to),
		Fee:       tokenAmount(res.Fee, to),
		Legs:      legs,
	}, nil
}

func underlyingToken(mp stableswap.MetaPool, index int) stableswap.Token {
	if index < mp.Meta.N() {
		return mp.Meta.Tokens[index]
	}
	return mp.Base.Tokens[index-mp.Meta.N()]
}

func checkPair(n, from, to int) error {
	if from < 0 || to < 0 || from >= n || to >= n || from == to {
		return fmt.Errorf("%w: %d to %d over %d tokens", stableswap.ErrInvalidIndex, from, to, n)
	}
	return nil
}

func parseAmounts(pool stableswap.Pool, req model.QuoteRequest) ([]*big.Int, error) {
	if len(req.Amounts) != pool.N() {
		return nil, fmt.Errorf("%w: expected %d amounts, got %d", amount.ErrInvalidAmount, pool.N(), len(req.Amounts))
	}
	out := make([]*big.Int, len(req.Amounts))
	for i, raw := range req.Amounts {
		v, err := amount.Parse(raw, pool.Tokens[i].Decimals, req.Raw)
		if err != nil {
			return nil, fmt.Errorf("amount %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func tokenAmount(v *big.Int, token stableswap.Token) *model.Amount {
	return &model.Amount{Raw: v.String(), Display: amount.Format(v, token.Decimals), Symbol: token.Symbol}
}

func tokenAmounts(values []*big.Int, tokens []stableswap.Token) []model.Amount {
	out := make([]model.Amount, len(values))
	for i, v := range values {
		out[i] = *tokenAmount(v, tokens[i])
	}
	return out
}

func lpAmount(v *big.Int) *model.Amount {
	return &model.Amount{Raw: v.String(), Display: amount.Format(v, amount.LPDecimals), Symbol: "LP"}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	case errors.Is(err, registry.ErrPoolNotFound):
		return StatusPoolNotFound
	case errors.Is(err, amount.ErrInvalidAmount), errors.Is(err, stableswap.ErrInvalidAmount):
		return StatusInvalidAmount
	case errors.Is(err, stableswap.ErrInsufficientLiquidity):
		return StatusInsufficientLiquidity
	case errors.Is(err, registry.ErrInvalidAddress), errors.Is(err, registry.ErrNotMetaPool),
		errors.Is(err, stableswap.ErrInvalidIndex), errors.Is(err, errUnknownKind):
		return StatusInvalidRequest
	default:
		return StatusPoolUnavailable
	}
}
