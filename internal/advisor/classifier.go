package advisor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quantfolio/quantfolio/internal/models"
)

// Classifier decides whether a question is about stocks or taxes with a
// single constrained LLM call.
type Classifier struct {
	completer Completer
	prompts   *PromptTemplates
	logger    *slog.Logger
}

// NewClassifier creates a query classifier.
func NewClassifier(completer Completer, prompts *PromptTemplates, logger *slog.Logger) *Classifier {
	return &Classifier{
		completer: completer,
		prompts:   prompts,
		logger:    logger,
	}
}

// Classify returns the intent of a free-text query. The response is matched
// by substring rather than parsed: "tax" appearing anywhere (any case) means
// a tax question, and everything else, including a failed call, falls back to
// the stock intent. The stock bias on ambiguous output is intentional product
// behavior.
func (c *Classifier) Classify(ctx context.Context, query string) models.QueryIntent {
	raw, err := c.completer.CompleteToken(ctx, c.prompts.ClassifierSystemPrompt, query)
	if err != nil {
		c.logger.Warn("classification failed, defaulting to stock", "error", err)
		return models.IntentStock
	}

	if strings.Contains(strings.ToLower(raw), "tax") {
		return models.IntentTax
	}
	return models.IntentStock
}
