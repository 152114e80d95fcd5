package model

// QuoteRequest is one quote query, read from JSONL, flags or HTTP.
//
// Amounts are human-readable decimals in the token's own precision unless
// Raw is set, in which case they are native integer units.
type QuoteRequest struct {
	Pool    string   `json:"pool"`
	Kind    string   `json:"kind"`
	From    int      `json:"from,omitempty"`
	To      int      `json:"to,omitempty"`
	Index   int      `json:"index,omitempty"`
	Amount  string   `json:"amount,omitempty"`
	Amounts []string `json:"amounts,omitempty"`
	Raw     bool     `json:"raw,omitempty"`
}

// Amount is an integer quantity with its human-readable rendering.
type Amount struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
	Symbol  string `json:"symbol,omitempty"`
}

// QuoteLeg is one single-pool step of a composed meta-pool quote.
type QuoteLeg struct {
	Pool      string `json:"pool"`
	Kind      string `json:"kind"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	Fee       string `json:"fee"`
}

// QuoteResult holds whichever outputs the quote kind produces.
type QuoteResult struct {
	AmountIn     *Amount    `json:"amount_in,omitempty"`
	AmountOut    *Amount    `json:"amount_out,omitempty"`
	Fee          *Amount    `json:"fee,omitempty"`
	LPDelta      *Amount    `json:"lp_delta,omitempty"`
	Amounts      []Amount   `json:"amounts,omitempty"`
	Fees         []Amount   `json:"fees,omitempty"`
	VirtualPrice *Amount    `json:"virtual_price,omitempty"`
	Legs         []QuoteLeg `json:"legs,omitempty"`
}

// QuoteOutcome is either a result or a typed reason there is none.
type QuoteOutcome struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Pool    string       `json:"pool,omitempty"`
	Kind    string       `json:"kind"`
	Result  *QuoteResult `json:"result,omitempty"`
}

// QuoteRecord is one line of batch output.
type QuoteRecord struct {
	Line     int          `json:"line"`
	Request  QuoteRequest `json:"request"`
	Outcome  QuoteOutcome `json:"outcome"`
	QuotedAt string       `json:"quoted_at"`
}
