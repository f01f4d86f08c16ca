package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/models"
)

const (
	taxNoDataResponse   = "No sufficient data available for tax analysis."
	taxNoStocksResponse = "No valid stocks found for tax analysis."
)

// TaxAnalyzer builds a capital-gains advisory from recommendations and tax
// lot data. The lot brief is the grounding for the LLM narrative.
type TaxAnalyzer struct {
	completer Completer
	prompts   *PromptTemplates
	logger    *slog.Logger
}

// NewTaxAnalyzer creates a tax strategy analyzer.
func NewTaxAnalyzer(completer Completer, prompts *PromptTemplates, logger *slog.Logger) *TaxAnalyzer {
	return &TaxAnalyzer{
		completer: completer,
		prompts:   prompts,
		logger:    logger,
	}
}

// AnalyzeSellingStrategy answers the user's tax question grounded in the lot
// brief, partitioning holdings by recommendation. Tickers recommended "Sell"
// (case-insensitive) are analyzed first; only when none exist does it fall
// back to Hold/Buy holdings. Empty inputs and empty partitions return fixed
// sentinel responses instead of errors. history carries prior conversation
// turns forwarded into the completion for continuity.
func (a *TaxAnalyzer) AnalyzeSellingStrategy(ctx context.Context, question string, recommendations map[string]string, lots map[string]models.TaxLot, history []Message) string {
	if len(recommendations) == 0 || len(lots) == 0 {
		return taxNoDataResponse
	}

	var prompt string
	if sell := tickersWithStatus(recommendations, "sell"); len(sell) > 0 {
		prompt = a.prompts.SellStrategyPrompt(question, buildLotBrief(sell, lots))
	} else {
		fallback := tickersWithStatus(recommendations, "hold", "buy")
		if len(fallback) == 0 {
			return taxNoStocksResponse
		}
		prompt = a.prompts.FallbackStrategyPrompt(question, buildLotBrief(fallback, lots))
	}

	messages := append(append([]Message{}, history...), Message{Role: RoleUser, Content: prompt})

	answer, err := a.completer.Complete(ctx, messages)
	if err != nil {
		a.logger.Error("tax strategy completion failed", "error", err)
		return noLLMResponse
	}
	return answer
}

// tickersWithStatus returns, sorted, the tickers whose recommendation matches
// any of the given statuses, ignoring case.
func tickersWithStatus(recommendations map[string]string, statuses ...string) []string {
	var matched []string
	for ticker, status := range recommendations {
		for _, want := range statuses {
			if strings.EqualFold(strings.TrimSpace(status), want) {
				matched = append(matched, ticker)
				break
			}
		}
	}

	if len(matched) == 0 {
		return nil
	}

	// Deterministic brief ordering.
	sort.Strings(matched)
	return matched
}

// buildLotBrief renders one line per ticker with its purchase details, using
// "N/A" for any missing lot field.
func buildLotBrief(tickers []string, lots map[string]models.TaxLot) string {
	lines := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		lot := lots[ticker]
		lines = append(lines, fmt.Sprintf("%s: Bought at %s | Held for %s months | Quantity: %s",
			ticker,
			decimalOrNA(lot.BuyPrice),
			intOrNA(lot.HoldingPeriodMonths),
			intOrNA(lot.Quantity)))
	}
	return strings.Join(lines, "\n")
}

func decimalOrNA(v *decimal.Decimal) string {
	if v == nil {
		return "N/A"
	}
	return v.String()
}

func intOrNA(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}
