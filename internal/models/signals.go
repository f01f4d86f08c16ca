package models

// FinancialSignals are the fundamental and technical inputs to the
// recommendation score for one ticker. Missing upstream fields are defaulted
// to zero at the market-client boundary, not inside the scoring logic.
type FinancialSignals struct {
	Ticker          string  `json:"ticker"`
	CurrentPrice    float64 `json:"current_price"`
	TargetMeanPrice float64 `json:"target_mean_price"`
	PriceToBook     float64 `json:"price_to_book"`
	ReturnOnEquity  float64 `json:"return_on_equity"`
	DebtToEquity    float64 `json:"debt_to_equity"`

	// PriceTrend is the mean daily percentage change of the closing price
	// over the configured lookback window.
	PriceTrend float64 `json:"price_trend"`
}
