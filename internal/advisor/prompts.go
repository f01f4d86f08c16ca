package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quantfolio/quantfolio/internal/models"
)

// PromptTemplates holds the fixed prompt texts used across the advisory
// pipeline.
type PromptTemplates struct {
	ClassifierSystemPrompt string
}

// NewPromptTemplates creates the default prompt set.
func NewPromptTemplates() *PromptTemplates {
	return &PromptTemplates{
		ClassifierSystemPrompt: "You are a classifier that determines whether a user query is about stocks or taxes. " +
			"Only respond with exactly 'stock' or 'tax'.",
	}
}

// StockContext renders the grounding context for a stock question: current
// prices, per-ticker values, total value and recommendations, plus a note for
// tickers whose price was unavailable.
func (p *PromptTemplates) StockContext(valuation models.Valuation, recommendations map[string]string) string {
	tickers := sortedKeys(valuation.Values)

	var prices, values []string
	for _, ticker := range tickers {
		prices = append(prices, fmt.Sprintf("%s: %s", ticker, valuation.PriceOf(ticker).StringFixed(2)))
		values = append(values, fmt.Sprintf("%s: %s", ticker, valuation.Values[ticker].StringFixed(2)))
	}

	var recs []string
	for _, ticker := range sortedKeys(recommendations) {
		recs = append(recs, fmt.Sprintf("%s: %s", ticker, recommendations[ticker]))
	}

	var b strings.Builder
	b.WriteString("Here is the user's portfolio:\n\n")
	b.WriteString("Stock Prices:\n")
	b.WriteString(strings.Join(prices, "\n"))
	b.WriteString("\n\nStock Values:\n")
	b.WriteString(strings.Join(values, "\n"))
	fmt.Fprintf(&b, "\n\nTotal Portfolio Value: %s\n", valuation.TotalValue.StringFixed(2))

	if len(valuation.Unpriced) > 0 {
		b.WriteString("\nUnpriced Tickers:\n")
		for _, ticker := range sortedKeys(valuation.Unpriced) {
			fmt.Fprintf(&b, "%s: %s\n", ticker, valuation.Unpriced[ticker])
		}
	}

	b.WriteString("\nRecommendations:\n")
	b.WriteString(strings.Join(recs, "\n"))
	b.WriteString("\n\nAnswer the user's question clearly and concisely.")

	return b.String()
}

// SellStrategyPrompt grounds the user's tax question in the holdings already
// recommended for sale and asks for a selling strategy alongside the answer.
func (p *PromptTemplates) SellStrategyPrompt(question, lotBrief string) string {
	return fmt.Sprintf(`You are a tax expert with deep knowledge of stock taxation and capital gains.

The user has the following stocks recommended for selling:
%s

The user has a tax-related question:

%s

Please answer clearly, accurately, and concisely, and suggest the most tax-efficient selling strategy, considering:
- Long-term vs short-term capital gains taxes
- FIFO vs LIFO methods
- Tax loss harvesting opportunities
- Holding period optimisations`, lotBrief, question)
}

// FallbackStrategyPrompt covers the case where nothing is marked for sale but
// the portfolio may still benefit from tax optimisation.
func (p *PromptTemplates) FallbackStrategyPrompt(question, lotBrief string) string {
	return fmt.Sprintf(`You are a tax expert with deep knowledge of stock taxation and capital gains.

The user has no 'Sell' recommendations. Here are their current holdings:
%s

The user has a tax-related question:

%s

Please answer clearly, accurately, and concisely, and suggest:
- Which stocks (if any) could be sold now for tax efficiency
- Potential tax loss harvesting opportunities
- Optimal sale sequencing based on holding periods
- Any long-term holding advantages to preserve`, lotBrief, question)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
