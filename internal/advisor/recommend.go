package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfolio/quantfolio/internal/models"
)

// RecommendationEngine scores a ticker's fundamentals and technicals into a
// buy/hold/sell verdict. Scores are recomputed on every call; there is no
// staleness model.
type RecommendationEngine struct {
	market MarketData
	logger *slog.Logger
}

// NewRecommendationEngine creates a recommendation engine.
func NewRecommendationEngine(market MarketData, logger *slog.Logger) *RecommendationEngine {
	return &RecommendationEngine{market: market, logger: logger}
}

// Recommend fetches signals for the ticker and maps the resulting score to a
// label. A failed fetch yields the error variant, never an error return.
func (e *RecommendationEngine) Recommend(ctx context.Context, ticker string) models.Recommendation {
	signals, err := e.market.GetSignals(ctx, ticker)
	if err != nil {
		e.logger.Warn("signals fetch failed", "ticker", ticker, "error", err)
		return models.Recommendation{
			Ticker: ticker,
			Err:    fmt.Sprintf("Failed to fetch data: %v", err),
		}
	}

	score := scoreSignals(signals)

	return models.Recommendation{
		Ticker: ticker,
		Label:  labelForScore(score),
	}
}

// scoreSignals sums five independent sub-scores. All tier comparisons are
// strict; boundary values fall to the next lower tier. A missing or zero
// current price forces the score to zero regardless of the other signals.
func scoreSignals(s models.FinancialSignals) int {
	if s.CurrentPrice == 0 {
		return 0
	}

	score := 0

	// Upside potential against the analyst target.
	if s.TargetMeanPrice > 0 && s.CurrentPrice > 0 {
		upside := (s.TargetMeanPrice - s.CurrentPrice) / s.CurrentPrice
		switch {
		case upside > 0.30:
			score += 6
		case upside > 0.20:
			score += 5
		case upside > 0.10:
			score += 3
		case upside > 0.05:
			score += 2
		}
	}

	// Price-to-book.
	if s.PriceToBook > 0 {
		switch {
		case s.PriceToBook < 1:
			score += 5
		case s.PriceToBook < 2:
			score += 4
		case s.PriceToBook < 3:
			score += 2
		default:
			score -= 1
		}
	}

	// Return on equity.
	if s.ReturnOnEquity > 0 {
		switch {
		case s.ReturnOnEquity > 0.20:
			score += 5
		case s.ReturnOnEquity > 0.15:
			score += 4
		case s.ReturnOnEquity > 0.10:
			score += 3
		default:
			score -= 1
		}
	}

	// Debt-to-equity is always evaluated.
	switch {
	case s.DebtToEquity < 1:
		score += 3
	case s.DebtToEquity < 1.5:
		score += 2
	case s.DebtToEquity < 2.5:
		score += 1
	default:
		score -= 2
	}

	// Historical price trend.
	if s.PriceTrend != 0 {
		switch {
		case s.PriceTrend > 0.03:
			score += 4
		case s.PriceTrend > -0.01:
			score += 2
		default:
			score -= 2
		}
	}

	return score
}

func labelForScore(score int) models.RecommendationLabel {
	switch {
	case score >= 12:
		return models.RecommendationStrongBuy
	case score >= 8:
		return models.RecommendationBuy
	case score >= 5:
		return models.RecommendationHold
	default:
		return models.RecommendationSell
	}
}
