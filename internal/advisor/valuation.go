package advisor

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/models"
)

// MarketData resolves tickers to current prices and scoring signals.
type MarketData interface {
	GetPrice(ctx context.Context, ticker string) (models.PriceQuote, error)
	GetSignals(ctx context.Context, ticker string) (models.FinancialSignals, error)
}

const unpricedNote = "price unavailable; contributes 0 to total value"

const defaultPriceWorkers = 5

// ValuationEngine computes the market value of a portfolio at current
// prices. Price lookups fan out over a bounded worker pool; a failed lookup
// degrades that single ticker to an unpriced entry instead of failing the
// valuation.
type ValuationEngine struct {
	market  MarketData
	workers int
	logger  *slog.Logger
}

// NewValuationEngine creates a valuation engine. workers bounds the number
// of concurrent price lookups.
func NewValuationEngine(market MarketData, workers int, logger *slog.Logger) *ValuationEngine {
	if workers < 1 {
		workers = defaultPriceWorkers
	}
	return &ValuationEngine{
		market:  market,
		workers: workers,
		logger:  logger,
	}
}

// Valuate computes per-ticker values and the portfolio total. Holdings with
// an empty ticker or non-positive quantity are skipped. The total is the sum
// of priced values only, rounded to two decimal places once at the end.
func (e *ValuationEngine) Valuate(ctx context.Context, portfolio models.Portfolio) models.Valuation {
	valuation := models.Valuation{
		Values:     make(map[string]decimal.Decimal),
		Quantities: make(map[string]int),
		TotalValue: decimal.Zero,
		Unpriced:   make(map[string]string),
	}

	type entry struct {
		ticker   string
		quantity int
	}

	var entries []entry
	seen := make(map[string]bool)
	var tickers []string
	for _, holding := range portfolio {
		ticker := holding.NormalizedTicker()
		if ticker == "" || holding.Quantity <= 0 {
			continue
		}
		entries = append(entries, entry{ticker: ticker, quantity: holding.Quantity})
		if !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}

	if len(entries) == 0 {
		return valuation
	}

	prices := e.fetchPrices(ctx, tickers)

	for _, en := range entries {
		valuation.Quantities[en.ticker] = en.quantity

		price, ok := prices[en.ticker]
		if !ok {
			valuation.Values[en.ticker] = decimal.Zero
			valuation.Unpriced[en.ticker] = unpricedNote
			continue
		}

		value := price.Mul(decimal.NewFromInt(int64(en.quantity)))
		valuation.Values[en.ticker] = value
		valuation.TotalValue = valuation.TotalValue.Add(value)
	}

	// Round once at the end to avoid compounding per-item rounding error.
	valuation.TotalValue = valuation.TotalValue.Round(2)

	return valuation
}

// fetchPrices looks up every ticker concurrently and returns only the ones
// that priced successfully.
func (e *ValuationEngine) fetchPrices(ctx context.Context, tickers []string) map[string]decimal.Decimal {
	workerCount := e.workers
	if len(tickers) < workerCount {
		workerCount = len(tickers)
	}

	type result struct {
		ticker string
		price  *decimal.Decimal
	}

	jobs := make(chan string, len(tickers))
	results := make(chan result, len(tickers))

	for w := 0; w < workerCount; w++ {
		go func() {
			for ticker := range jobs {
				quote, err := e.market.GetPrice(ctx, ticker)
				if err != nil {
					e.logger.Warn("price lookup failed", "ticker", ticker, "error", err)
					results <- result{ticker: ticker}
					continue
				}
				results <- result{ticker: ticker, price: quote.Price}
			}
		}()
	}

	for _, ticker := range tickers {
		jobs <- ticker
	}
	close(jobs)

	prices := make(map[string]decimal.Decimal, len(tickers))
	for range tickers {
		r := <-results
		if r.price != nil {
			prices[r.ticker] = *r.price
		}
	}

	return prices
}
