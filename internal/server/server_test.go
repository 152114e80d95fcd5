package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/internal/quote"
	"github.com/sebastianleba/mobius-interface-sub000/internal/registry"
	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

const testPool = "0x3333333333333333333333333333333333333333"

func newTestServer(t *testing.T) (*Server, *Metrics) {
	t.Helper()
	reg := registry.New(nil)
	require.NoError(t, reg.Update(model.PoolSnapshot{
		Address: testPool,
		Name:    "cUSD/USDC",
		Tokens: []model.TokenSnapshot{
			{Symbol: "cUSD", Decimals: 18},
			{Symbol: "USDC", Decimals: 6},
		},
		Balances:       []string{"1000000000000000000000000", "1000000000000"},
		A:              "200",
		LPTotalSupply:  "2000000000000000000000000",
		SwapFee:        "4",
		FeeDenominator: "10000",
		UpdatedAt:      1,
	}))

	metrics := NewMetrics()
	engine := stableswap.NewEngine(stableswap.WithNonConvergenceHook(metrics.ObserveNonConvergence))
	svc := quote.NewService(reg, engine, nil, metrics)
	return New(reg, svc, metrics, nil), metrics
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestQuoteEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/quote",
		`{"pool":"`+testPool+`","kind":"swap","from":0,"to":1,"amount":"1000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out model.QuoteOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, quote.StatusOK, out.Status)
	require.NotNil(t, out.Result)
	assert.Equal(t, "999595026", out.Result.AmountOut.Raw)
	assert.Equal(t, "399998", out.Result.Fee.Raw)
}

func TestQuoteEndpointStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name   string
		body   string
		code   int
		status string
	}{
		{
			name:   "unknown pool",
			body:   `{"pool":"0x9999999999999999999999999999999999999999","kind":"swap","from":0,"to":1,"amount":"1"}`,
			code:   http.StatusNotFound,
			status: quote.StatusPoolNotFound,
		},
		{
			name:   "bad amount",
			body:   `{"pool":"` + testPool + `","kind":"swap","from":0,"to":1,"amount":"abc"}`,
			code:   http.StatusUnprocessableEntity,
			status: quote.StatusInvalidAmount,
		},
		{
			name:   "same token",
			body:   `{"pool":"` + testPool + `","kind":"swap","from":1,"to":1,"amount":"1"}`,
			code:   http.StatusUnprocessableEntity,
			status: quote.StatusInvalidRequest,
		},
		{
			name:   "unknown kind",
			body:   `{"pool":"` + testPool + `","kind":"flash","amount":"1"}`,
			code:   http.StatusUnprocessableEntity,
			status: quote.StatusInvalidRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/quote", tc.body)
			require.Equal(t, tc.code, rec.Code, rec.Body.String())

			var out model.QuoteOutcome
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, tc.status, out.Status)
			assert.Nil(t, out.Result)
			assert.NotEmpty(t, out.Message)
		})
	}

	rec := do(t, srv.Handler(), http.MethodPost, "/quote", `{"pool":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPoolEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/pools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Pools []model.PoolSnapshot `json:"pools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Pools, 1)
	assert.Equal(t, testPool, list.Pools[0].Address)

	rec = do(t, srv.Handler(), http.MethodGet, "/pools/"+testPool, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap model.PoolSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "cUSD/USDC", snap.Name)

	rec = do(t, srv.Handler(), http.MethodGet, "/pools/not-an-address", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/pools/0x9999999999999999999999999999999999999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pools":1`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, metrics := newTestServer(t)

	do(t, srv.Handler(), http.MethodPost, "/quote",
		`{"pool":"`+testPool+`","kind":"swap","from":0,"to":1,"amount":"1"}`)
	metrics.ObserveNonConvergence(stableswap.NonConvergence{Solver: stableswap.SolverD})
	metrics.SetPools(1)

	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `quoter_quotes_total{kind="swap",status="ok"} 1`)
	assert.Contains(t, body, `quoter_solver_nonconvergence_total{solver="get_d"} 1`)
	assert.Contains(t, body, "quoter_pools_loaded 1")
}
