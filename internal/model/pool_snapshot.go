package model

// TokenSnapshot describes one pooled token.
type TokenSnapshot struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// PoolSnapshot is the observed state of a StableSwap pool at one point in
// time. Integer fields are base-10 strings so 256-bit values survive JSON.
type PoolSnapshot struct {
	ChainID        uint64          `json:"chain_id"`
	Address        string          `json:"address"`
	Name           string          `json:"name,omitempty"`
	Tokens         []TokenSnapshot `json:"tokens"`
	Balances       []string        `json:"balances"`
	A              string          `json:"a"`
	APrecise       string          `json:"a_precise,omitempty"`
	LPTotalSupply  string          `json:"lp_total_supply"`
	SwapFee        string          `json:"swap_fee"`
	WithdrawFee    string          `json:"withdraw_fee,omitempty"`
	FeeDenominator string          `json:"fee_denominator"`
	BasePool       string          `json:"base_pool,omitempty"`
	BlockNumber    uint64          `json:"block_number,omitempty"`
	UpdatedAt      int64           `json:"updated_at"`
}

// IsMeta reports whether the pool's last token is another pool's LP token.
func (s PoolSnapshot) IsMeta() bool {
	return s.BasePool != ""
}
