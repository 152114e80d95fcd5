package quote

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
)

// PairSummary accumulates successful quotes for one pool, kind and token pair.
type PairSummary struct {
	Pool      string
	Kind      string
	From      int
	To        int
	Quotes    uint64
	AmountIn  *big.Int
	AmountOut *big.Int
	Fee       *big.Int
}

// Summary tallies outcomes of a batch run.
type Summary struct {
	Total    int
	ByStatus map[string]int
	pairs    map[string]*PairSummary
}

func NewSummary() *Summary {
	return &Summary{
		ByStatus: make(map[string]int),
		pairs:    make(map[string]*PairSummary),
	}
}

// Add records one outcome. Only ok quotes with an input and an output
// contribute to pair totals.
func (s *Summary) Add(req model.QuoteRequest, outcome model.QuoteOutcome) error {
	s.Total++
	s.ByStatus[outcome.Status]++

	if outcome.Status != StatusOK || outcome.Result == nil {
		return nil
	}
	res := outcome.Result
	if res.AmountIn == nil || res.AmountOut == nil {
		return nil
	}

	in, err := parseBigInt(res.AmountIn.Raw)
	if err != nil {
		return err
	}
	out, err := parseBigInt(res.AmountOut.Raw)
	if err != nil {
		return err
	}
	fee := big.NewInt(0)
	if res.Fee != nil {
		if fee, err = parseBigInt(res.Fee.Raw); err != nil {
			return err
		}
	}

	key := fmt.Sprintf("%s/%s/%d/%d", req.Pool, req.Kind, req.From, req.To)
	acc, ok := s.pairs[key]
	if !ok {
		acc = &PairSummary{
			Pool:      req.Pool,
			Kind:      req.Kind,
			From:      req.From,
			To:        req.To,
			AmountIn:  big.NewInt(0),
			AmountOut: big.NewInt(0),
			Fee:       big.NewInt(0),
		}
		s.pairs[key] = acc
	}

	acc.AmountIn.Add(acc.AmountIn, in)
	acc.AmountOut.Add(acc.AmountOut, out)
	acc.Fee.Add(acc.Fee, fee)
	acc.Quotes++
	return nil
}

// NoResult is the number of outcomes with a non-ok status.
func (s *Summary) NoResult() int {
	return s.Total - s.ByStatus[StatusOK]
}

// Pairs returns the pair totals ordered by key.
func (s *Summary) Pairs() []PairSummary {
	keys := make([]string, 0, len(s.pairs))
	for key := range s.pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]PairSummary, 0, len(keys))
	for _, key := range keys {
		out = append(out, *s.pairs[key])
	}
	return out
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
