package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quantfolio/quantfolio/internal/models"
)

func TestScoreSignalsZeroPriceForcesZeroScore(t *testing.T) {
	signals := models.FinancialSignals{
		CurrentPrice:    0,
		TargetMeanPrice: 200,
		PriceToBook:     0.5,
		ReturnOnEquity:  0.5,
		DebtToEquity:    0.1,
		PriceTrend:      0.1,
	}

	if got := scoreSignals(signals); got != 0 {
		t.Errorf("expected score 0 for zero current price, got %d", got)
	}
}

func TestScoreSignalsSubScores(t *testing.T) {
	// Baseline contributes only the always-evaluated debt tier (<1 => +3).
	base := models.FinancialSignals{CurrentPrice: 100}

	tests := []struct {
		name     string
		modify   func(*models.FinancialSignals)
		expected int
	}{
		{name: "baseline debt only", modify: func(s *models.FinancialSignals) {}, expected: 3},
		{name: "upside above 30pct", modify: func(s *models.FinancialSignals) { s.TargetMeanPrice = 135 }, expected: 3 + 6},
		{name: "upside above 20pct", modify: func(s *models.FinancialSignals) { s.TargetMeanPrice = 125 }, expected: 3 + 5},
		{name: "upside above 10pct", modify: func(s *models.FinancialSignals) { s.TargetMeanPrice = 115 }, expected: 3 + 3},
		{name: "upside above 5pct", modify: func(s *models.FinancialSignals) { s.TargetMeanPrice = 106 }, expected: 3 + 2},
		{name: "upside at 5pct boundary scores nothing", modify: func(s *models.FinancialSignals) { s.TargetMeanPrice = 105 }, expected: 3},
		{name: "negative target ignored", modify: func(s *models.FinancialSignals) { s.TargetMeanPrice = -10 }, expected: 3},
		{name: "pb under 1", modify: func(s *models.FinancialSignals) { s.PriceToBook = 0.8 }, expected: 3 + 5},
		{name: "pb under 2", modify: func(s *models.FinancialSignals) { s.PriceToBook = 1.5 }, expected: 3 + 4},
		{name: "pb under 3", modify: func(s *models.FinancialSignals) { s.PriceToBook = 2.9 }, expected: 3 + 2},
		{name: "pb high penalized", modify: func(s *models.FinancialSignals) { s.PriceToBook = 5 }, expected: 3 - 1},
		{name: "pb zero ignored", modify: func(s *models.FinancialSignals) { s.PriceToBook = 0 }, expected: 3},
		{name: "pb negative ignored", modify: func(s *models.FinancialSignals) { s.PriceToBook = -1 }, expected: 3},
		{name: "roe above 20pct", modify: func(s *models.FinancialSignals) { s.ReturnOnEquity = 0.25 }, expected: 3 + 5},
		{name: "roe above 15pct", modify: func(s *models.FinancialSignals) { s.ReturnOnEquity = 0.18 }, expected: 3 + 4},
		{name: "roe above 10pct", modify: func(s *models.FinancialSignals) { s.ReturnOnEquity = 0.12 }, expected: 3 + 3},
		{name: "roe low penalized", modify: func(s *models.FinancialSignals) { s.ReturnOnEquity = 0.05 }, expected: 3 - 1},
		{name: "roe negative ignored", modify: func(s *models.FinancialSignals) { s.ReturnOnEquity = -0.2 }, expected: 3},
		{name: "debt under 1.5", modify: func(s *models.FinancialSignals) { s.DebtToEquity = 1.2 }, expected: 2},
		{name: "debt under 2.5", modify: func(s *models.FinancialSignals) { s.DebtToEquity = 2.0 }, expected: 1},
		{name: "debt high penalized", modify: func(s *models.FinancialSignals) { s.DebtToEquity = 3.0 }, expected: -2},
		{name: "trend strong", modify: func(s *models.FinancialSignals) { s.PriceTrend = 0.05 }, expected: 3 + 4},
		{name: "trend mild", modify: func(s *models.FinancialSignals) { s.PriceTrend = 0.01 }, expected: 3 + 2},
		{name: "trend slightly negative still mild", modify: func(s *models.FinancialSignals) { s.PriceTrend = -0.005 }, expected: 3 + 2},
		{name: "trend falling penalized", modify: func(s *models.FinancialSignals) { s.PriceTrend = -0.05 }, expected: 3 - 2},
		{name: "trend zero ignored", modify: func(s *models.FinancialSignals) { s.PriceTrend = 0 }, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := base
			tt.modify(&signals)

			if got := scoreSignals(signals); got != tt.expected {
				t.Errorf("scoreSignals() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestLabelForScoreBoundaries(t *testing.T) {
	tests := []struct {
		score    int
		expected models.RecommendationLabel
	}{
		{12, models.RecommendationStrongBuy},
		{11, models.RecommendationBuy},
		{8, models.RecommendationBuy},
		{7, models.RecommendationHold},
		{5, models.RecommendationHold},
		{4, models.RecommendationSell},
		{0, models.RecommendationSell},
		{-3, models.RecommendationSell},
	}

	for _, tt := range tests {
		if got := labelForScore(tt.score); got != tt.expected {
			t.Errorf("labelForScore(%d) = %q, want %q", tt.score, got, tt.expected)
		}
	}
}

func TestRecommendStrongBuy(t *testing.T) {
	market := newMockMarket()
	market.signals["AAPL"] = models.FinancialSignals{
		Ticker:          "AAPL",
		CurrentPrice:    100,
		TargetMeanPrice: 140, // +6
		PriceToBook:     0.9, // +5
		ReturnOnEquity:  0.3, // +5
		DebtToEquity:    0.5, // +3
		PriceTrend:      0.05, // +4
	}

	engine := NewRecommendationEngine(market, newTestLogger())

	rec := engine.Recommend(context.Background(), "AAPL")
	if rec.IsError() {
		t.Fatalf("unexpected error variant: %s", rec.Err)
	}
	if rec.Label != models.RecommendationStrongBuy {
		t.Errorf("expected Strong Buy, got %q", rec.Label)
	}
}

func TestRecommendZeroPriceMeansSell(t *testing.T) {
	market := newMockMarket()
	market.signals["GHOST"] = models.FinancialSignals{
		Ticker:          "GHOST",
		CurrentPrice:    0,
		TargetMeanPrice: 500,
		PriceToBook:     0.5,
		ReturnOnEquity:  0.5,
	}

	engine := NewRecommendationEngine(market, newTestLogger())

	rec := engine.Recommend(context.Background(), "GHOST")
	if rec.Label != models.RecommendationSell {
		t.Errorf("expected Sell for zero price, got %q", rec.Label)
	}
}

func TestRecommendFetchFailureReturnsErrorVariant(t *testing.T) {
	market := newMockMarket()
	market.signalsErr["DOWN"] = errors.New("provider timeout")

	engine := NewRecommendationEngine(market, newTestLogger())

	rec := engine.Recommend(context.Background(), "DOWN")
	if !rec.IsError() {
		t.Fatal("expected error variant")
	}
	if !strings.Contains(rec.Err, "provider timeout") {
		t.Errorf("expected failure reason in error, got %q", rec.Err)
	}
	if !strings.HasPrefix(rec.String(), "Error: ") {
		t.Errorf("expected Error prefix in rendered recommendation, got %q", rec.String())
	}
}
