package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecommendationLabel is the advisory verdict for a single ticker.
type RecommendationLabel string

const (
	RecommendationStrongBuy RecommendationLabel = "Strong Buy"
	RecommendationBuy       RecommendationLabel = "Buy"
	RecommendationHold      RecommendationLabel = "Hold"
	RecommendationSell      RecommendationLabel = "Sell"
)

// Recommendation is the outcome of scoring one ticker. When the upstream
// signals fetch fails, Err carries the reason and Label is empty.
type Recommendation struct {
	Ticker string              `json:"ticker"`
	Label  RecommendationLabel `json:"recommendation,omitempty"`
	Err    string              `json:"error,omitempty"`
}

// IsError reports whether this recommendation carries a fetch failure
// instead of a verdict.
func (r Recommendation) IsError() bool {
	return r.Err != ""
}

// String renders the recommendation the way it is stored and shown to users.
func (r Recommendation) String() string {
	if r.IsError() {
		return "Error: " + r.Err
	}
	return string(r.Label)
}

// Holding is one position in a user's portfolio. Recommendation is the label
// persisted with the row, empty when none has been computed yet.
type Holding struct {
	StockName      string    `json:"stock_name"`
	Ticker         string    `json:"ticker"`
	Quantity       int       `json:"quantity"`
	Recommendation string    `json:"recommendation,omitempty"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// NormalizedTicker returns the ticker trimmed and uppercased.
func (h Holding) NormalizedTicker() string {
	return strings.ToUpper(strings.TrimSpace(h.Ticker))
}

// Portfolio is the ordered set of holdings for one user. It is passed by
// value into the advisor core and never mutated there.
type Portfolio []Holding

// IsEmpty reports whether the portfolio has no holdings at all.
func (p Portfolio) IsEmpty() bool {
	return len(p) == 0
}

// PriceQuote is the market-data answer for one ticker. A nil Price means the
// price is unavailable right now; it is never treated as a zero price.
type PriceQuote struct {
	Ticker string           `json:"ticker"`
	Price  *decimal.Decimal `json:"price"`
}

// Available reports whether the quote carries a usable price.
func (q PriceQuote) Available() bool {
	return q.Price != nil
}

// Valuation is the computed market value of a portfolio at current prices.
// It is derived fresh on every request and never persisted. Every holding
// that passed validation is keyed in Values and Quantities even when its
// price was unavailable; such tickers appear in Unpriced with a note and
// contribute zero to TotalValue.
type Valuation struct {
	Values     map[string]decimal.Decimal `json:"stocks"`
	Quantities map[string]int             `json:"quantities"`
	TotalValue decimal.Decimal            `json:"total_value"`
	Unpriced   map[string]string          `json:"unpriced,omitempty"`
}

// PriceOf derives the per-ticker display price as value/quantity, guarding
// against division by zero.
func (v Valuation) PriceOf(ticker string) decimal.Decimal {
	qty, ok := v.Quantities[ticker]
	if !ok || qty <= 0 {
		return decimal.Zero
	}
	return v.Values[ticker].Div(decimal.NewFromInt(int64(qty)))
}

// TaxLot is one purchase record used for capital-gains reasoning. Fields are
// pointers because the upstream store may hold partial rows; missing values
// render as "N/A" in advisory briefs.
type TaxLot struct {
	Ticker              string           `json:"ticker"`
	BuyPrice            *decimal.Decimal `json:"buy_price"`
	Quantity            *int             `json:"quantity"`
	HoldingPeriodMonths *int             `json:"holding_period_months"`
}
