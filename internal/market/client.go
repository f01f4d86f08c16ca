package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/models"
)

// Config holds market-data client parameters.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	Debug             bool
	CacheTTL          time.Duration
	TrendLookbackDays int
}

// Client queries the market-data provider for quotes, fundamentals and price
// history. All transport and provider failures surface as errors; callers
// treat every failure identically as "data unavailable".
type Client struct {
	http     *resty.Client
	cache    *quoteCache
	lookback int
	logger   *slog.Logger
}

// NewClient constructs a market-data client. A zero CacheTTL disables the
// quote cache.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("market data base URL is required")
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetDebug(cfg.Debug).
		SetHeader("Accept", "application/json")

	var cache *quoteCache
	if cfg.CacheTTL > 0 {
		var err error
		cache, err = newQuoteCache(cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to init quote cache: %w", err)
		}
	}

	lookback := cfg.TrendLookbackDays
	if lookback < 2 {
		lookback = 2
	}

	return &Client{
		http:     httpClient,
		cache:    cache,
		lookback: lookback,
		logger:   logger,
	}, nil
}

type quoteResponse struct {
	Ticker string   `json:"ticker"`
	Price  *float64 `json:"price"`
}

type fundamentalsResponse struct {
	CurrentPrice    *float64 `json:"current_price"`
	TargetMeanPrice *float64 `json:"target_mean_price"`
	PriceToBook     *float64 `json:"price_to_book"`
	ReturnOnEquity  *float64 `json:"return_on_equity"`
	TotalDebt       *float64 `json:"total_debt"`
	TotalEquity     *float64 `json:"total_equity"`
}

type candlesResponse struct {
	Closes []float64 `json:"closes"`
}

// GetPrice resolves the latest price for a ticker. A quote with a nil Price
// means the provider has no data right now; that is not an error.
func (c *Client) GetPrice(ctx context.Context, ticker string) (models.PriceQuote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return models.PriceQuote{}, fmt.Errorf("ticker is required")
	}

	if cached, ok := c.cache.get(ticker); ok {
		return cached, nil
	}

	c.logger.Debug("requesting quote", "ticker", ticker)

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		Get("/v1/quotes/{ticker}")
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("quote request for %s failed: %w", ticker, err)
	}
	if resp.IsError() {
		return models.PriceQuote{}, fmt.Errorf("quote request for %s returned status %d", ticker, resp.StatusCode())
	}

	var raw quoteResponse
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return models.PriceQuote{}, fmt.Errorf("failed to decode quote for %s: %w", ticker, err)
	}

	quote := models.PriceQuote{Ticker: ticker}
	if raw.Price != nil {
		price := decimal.NewFromFloat(*raw.Price).Round(2)
		quote.Price = &price
	}

	c.cache.put(ticker, quote)

	return quote, nil
}

// GetSignals fetches fundamentals and price history for a ticker and derives
// the scoring inputs. Missing provider fields default to zero here, at the
// construction boundary, so scoring logic never sees absent values.
func (c *Client) GetSignals(ctx context.Context, ticker string) (models.FinancialSignals, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return models.FinancialSignals{}, fmt.Errorf("ticker is required")
	}

	fundamentals, err := c.getFundamentals(ctx, ticker)
	if err != nil {
		return models.FinancialSignals{}, err
	}

	closes, err := c.getCloses(ctx, ticker)
	if err != nil {
		return models.FinancialSignals{}, err
	}

	signals := models.FinancialSignals{
		Ticker:          ticker,
		CurrentPrice:    floatOrZero(fundamentals.CurrentPrice),
		TargetMeanPrice: floatOrZero(fundamentals.TargetMeanPrice),
		PriceToBook:     floatOrZero(fundamentals.PriceToBook),
		ReturnOnEquity:  floatOrZero(fundamentals.ReturnOnEquity),
		DebtToEquity:    deriveDebtToEquity(fundamentals.TotalDebt, fundamentals.TotalEquity),
		PriceTrend:      meanDailyChange(closes),
	}

	return signals, nil
}

func (c *Client) getFundamentals(ctx context.Context, ticker string) (fundamentalsResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		Get("/v1/fundamentals/{ticker}")
	if err != nil {
		return fundamentalsResponse{}, fmt.Errorf("fundamentals request for %s failed: %w", ticker, err)
	}
	if resp.IsError() {
		return fundamentalsResponse{}, fmt.Errorf("fundamentals request for %s returned status %d", ticker, resp.StatusCode())
	}

	var raw fundamentalsResponse
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return fundamentalsResponse{}, fmt.Errorf("failed to decode fundamentals for %s: %w", ticker, err)
	}
	return raw, nil
}

func (c *Client) getCloses(ctx context.Context, ticker string) ([]float64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		SetQueryParam("days", fmt.Sprintf("%d", c.lookback)).
		Get("/v1/candles/{ticker}")
	if err != nil {
		return nil, fmt.Errorf("candles request for %s failed: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("candles request for %s returned status %d", ticker, resp.StatusCode())
	}

	var raw candlesResponse
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode candles for %s: %w", ticker, err)
	}
	return raw.Closes, nil
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// deriveDebtToEquity mirrors the provider-side ratio: zero when equity is
// missing or zero, never a division error.
func deriveDebtToEquity(totalDebt, totalEquity *float64) float64 {
	debt := floatOrZero(totalDebt)
	equity := floatOrZero(totalEquity)
	if equity == 0 {
		return 0
	}
	return debt / equity
}

// meanDailyChange computes the mean of successive daily percentage changes.
// Fewer than two closes yields zero.
func meanDailyChange(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		sum += (closes[i] - prev) / prev
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
