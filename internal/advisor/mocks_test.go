package advisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockMarket is a scriptable MarketData implementation.
type mockMarket struct {
	mu sync.Mutex

	prices     map[string]decimal.Decimal
	unpriced   map[string]bool
	priceErr   map[string]error
	signals    map[string]models.FinancialSignals
	signalsErr map[string]error

	priceCalls  map[string]int
	signalCalls map[string]int
}

func newMockMarket() *mockMarket {
	return &mockMarket{
		prices:      make(map[string]decimal.Decimal),
		unpriced:    make(map[string]bool),
		priceErr:    make(map[string]error),
		signals:     make(map[string]models.FinancialSignals),
		signalsErr:  make(map[string]error),
		priceCalls:  make(map[string]int),
		signalCalls: make(map[string]int),
	}
}

func (m *mockMarket) setPrice(ticker string, price float64) {
	m.prices[ticker] = decimal.NewFromFloat(price)
}

func (m *mockMarket) GetPrice(_ context.Context, ticker string) (models.PriceQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.priceCalls[ticker]++

	if err, ok := m.priceErr[ticker]; ok {
		return models.PriceQuote{}, err
	}
	if m.unpriced[ticker] {
		return models.PriceQuote{Ticker: ticker}, nil
	}
	if price, ok := m.prices[ticker]; ok {
		return models.PriceQuote{Ticker: ticker, Price: &price}, nil
	}
	return models.PriceQuote{}, fmt.Errorf("no quote for %s", ticker)
}

func (m *mockMarket) GetSignals(_ context.Context, ticker string) (models.FinancialSignals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.signalCalls[ticker]++

	if err, ok := m.signalsErr[ticker]; ok {
		return models.FinancialSignals{}, err
	}
	if signals, ok := m.signals[ticker]; ok {
		return signals, nil
	}
	return models.FinancialSignals{}, fmt.Errorf("no signals for %s", ticker)
}

// mockCompleter is a scriptable Completer that records every call.
type mockCompleter struct {
	mu sync.Mutex

	completeResponse string
	completeErr      error
	tokenResponse    string
	tokenErr         error

	completeCalls [][]Message
	tokenQueries  []string
}

func (m *mockCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completeCalls = append(m.completeCalls, messages)
	if m.completeErr != nil {
		return "", m.completeErr
	}
	return m.completeResponse, nil
}

func (m *mockCompleter) CompleteToken(_ context.Context, _, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokenQueries = append(m.tokenQueries, user)
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return m.tokenResponse, nil
}

func (m *mockCompleter) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.completeCalls) == 0 {
		return ""
	}
	last := m.completeCalls[len(m.completeCalls)-1]
	if len(last) == 0 {
		return ""
	}
	return last[len(last)-1].Content
}

// mockLots is a scriptable LotSource.
type mockLots struct {
	lots map[string]models.TaxLot
	err  error
}

func (m *mockLots) GetTaxLots(_ context.Context, _ int64) (map[string]models.TaxLot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.lots, nil
}

func decimalPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func intPtr(v int) *int {
	return &v
}
