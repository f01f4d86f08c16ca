package advisor

import (
	"context"
	"log/slog"

	"github.com/quantfolio/quantfolio/internal/models"
)

const (
	noPortfolioResponse = "No portfolio data found. Please upload your portfolio first."
	noLLMResponse       = "No response from LLM"
)

// LotSource supplies cost-basis data for the tax path.
type LotSource interface {
	GetTaxLots(ctx context.Context, userID int64) (map[string]models.TaxLot, error)
}

// Observer receives advisory pipeline events for metrics. Implementations
// must tolerate concurrent calls; a nil Observer disables observation.
type Observer interface {
	ObserveQuery(intent string)
	ObserveRecommendation(label string)
}

// Config holds advisor tuning knobs.
type Config struct {
	// PriceWorkers bounds concurrent price lookups during valuation.
	PriceWorkers int

	// HistoryLimit is how many prior conversation turns are forwarded into
	// the grounding prompt.
	HistoryLimit int
}

// Advisor routes a user question to the stock or tax pipeline and produces a
// grounded natural-language answer. It holds no state across requests; the
// portfolio and history are passed in fresh per call.
type Advisor struct {
	classifier   *Classifier
	valuator     *ValuationEngine
	recommender  *RecommendationEngine
	tax          *TaxAnalyzer
	completer    Completer
	lots         LotSource
	prompts      *PromptTemplates
	observer     Observer
	historyLimit int
	logger       *slog.Logger
}

// New wires the advisory pipeline. observer may be nil.
func New(cfg Config, market MarketData, completer Completer, lots LotSource, observer Observer, logger *slog.Logger) *Advisor {
	prompts := NewPromptTemplates()

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 10
	}

	return &Advisor{
		classifier:   NewClassifier(completer, prompts, logger),
		valuator:     NewValuationEngine(market, cfg.PriceWorkers, logger),
		recommender:  NewRecommendationEngine(market, logger),
		tax:          NewTaxAnalyzer(completer, prompts, logger),
		completer:    completer,
		lots:         lots,
		prompts:      prompts,
		observer:     observer,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// HandleQuery answers one user question end to end. An empty portfolio
// short-circuits to a fixed response before any classification happens.
func (a *Advisor) HandleQuery(ctx context.Context, userID int64, query string, portfolio models.Portfolio, history []models.ChatMessage) string {
	if portfolio.IsEmpty() {
		return noPortfolioResponse
	}

	intent := a.classifier.Classify(ctx, query)
	a.observeQuery(intent)

	a.logger.Info("query classified", "user_id", userID, "intent", intent)

	if intent == models.IntentTax {
		return a.answerTaxQuestion(ctx, userID, query, portfolio, history)
	}
	return a.answerStockQuestion(ctx, query, portfolio, history)
}

// Valuate exposes the valuation engine for callers that need portfolio
// values without a question, such as the portfolio endpoint.
func (a *Advisor) Valuate(ctx context.Context, portfolio models.Portfolio) models.Valuation {
	return a.valuator.Valuate(ctx, portfolio)
}

// Recommend exposes the recommendation engine for a single ticker.
func (a *Advisor) Recommend(ctx context.Context, ticker string) models.Recommendation {
	rec := a.recommender.Recommend(ctx, ticker)
	if !rec.IsError() {
		a.observeRecommendation(rec.Label)
	}
	return rec
}

func (a *Advisor) answerStockQuestion(ctx context.Context, query string, portfolio models.Portfolio, history []models.ChatMessage) string {
	valuation := a.valuator.Valuate(ctx, portfolio)
	recommendations := a.recommendationsFor(ctx, portfolio)

	grounding := a.prompts.StockContext(valuation, recommendations)

	messages := a.historyMessages(history)
	messages = append(messages, Message{
		Role:    RoleUser,
		Content: grounding + "\n\nUser question: " + query,
	})

	answer, err := a.completer.Complete(ctx, messages)
	if err != nil {
		a.logger.Error("stock answer completion failed", "error", err)
		return noLLMResponse
	}
	return answer
}

func (a *Advisor) answerTaxQuestion(ctx context.Context, userID int64, query string, portfolio models.Portfolio, history []models.ChatMessage) string {
	lots, err := a.lots.GetTaxLots(ctx, userID)
	if err != nil {
		// Degrades to the analyzer's no-data sentinel rather than failing.
		a.logger.Warn("tax lot load failed", "user_id", userID, "error", err)
		lots = nil
	}

	recommendations := a.recommendationsFor(ctx, portfolio)

	return a.tax.AnalyzeSellingStrategy(ctx, query, recommendations, lots, a.historyMessages(history))
}

// recommendationsFor builds the per-ticker recommendation map for grounding.
// A label already present in the portfolio snapshot is reused verbatim;
// missing ones are computed on demand.
func (a *Advisor) recommendationsFor(ctx context.Context, portfolio models.Portfolio) map[string]string {
	recommendations := make(map[string]string)
	for _, holding := range portfolio {
		ticker := holding.NormalizedTicker()
		if ticker == "" {
			continue
		}
		if _, done := recommendations[ticker]; done {
			continue
		}

		if holding.Recommendation != "" {
			recommendations[ticker] = holding.Recommendation
			continue
		}

		recommendations[ticker] = a.Recommend(ctx, ticker).String()
	}
	return recommendations
}

// historyMessages converts the most recent stored turns into LLM messages,
// oldest first.
func (a *Advisor) historyMessages(history []models.ChatMessage) []Message {
	if len(history) > a.historyLimit {
		history = history[len(history)-a.historyLimit:]
	}

	messages := make([]Message, 0, len(history))
	for _, turn := range history {
		role := RoleUser
		if turn.Role == models.ChatRoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}
	return messages
}

func (a *Advisor) observeQuery(intent models.QueryIntent) {
	if a.observer != nil {
		a.observer.ObserveQuery(string(intent))
	}
}

func (a *Advisor) observeRecommendation(label models.RecommendationLabel) {
	if a.observer != nil {
		a.observer.ObserveRecommendation(string(label))
	}
}
