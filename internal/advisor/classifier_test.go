package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/quantfolio/quantfolio/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected models.QueryIntent
	}{
		{name: "exact stock", response: "stock", expected: models.IntentStock},
		{name: "exact tax", response: "tax", expected: models.IntentTax},
		{name: "uppercase tax", response: "TAX", expected: models.IntentTax},
		{name: "tax embedded in chatter", response: "This looks like a Tax question.", expected: models.IntentTax},
		{name: "unrelated token defaults to stock", response: "banana", expected: models.IntentStock},
		{name: "empty response defaults to stock", response: "", expected: models.IntentStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &mockCompleter{tokenResponse: tt.response}
			classifier := NewClassifier(completer, NewPromptTemplates(), newTestLogger())

			got := classifier.Classify(context.Background(), "some question")
			if got != tt.expected {
				t.Errorf("Classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestClassifyErrorDefaultsToStock(t *testing.T) {
	completer := &mockCompleter{tokenErr: errors.New("api down")}
	classifier := NewClassifier(completer, NewPromptTemplates(), newTestLogger())

	got := classifier.Classify(context.Background(), "should I sell for tax reasons?")
	if got != models.IntentStock {
		t.Errorf("expected stock fallback on error, got %q", got)
	}
}

func TestClassifyForwardsQuery(t *testing.T) {
	completer := &mockCompleter{tokenResponse: "stock"}
	classifier := NewClassifier(completer, NewPromptTemplates(), newTestLogger())

	classifier.Classify(context.Background(), "is AAPL overvalued?")

	if len(completer.tokenQueries) != 1 || completer.tokenQueries[0] != "is AAPL overvalued?" {
		t.Errorf("query not forwarded to the classifier call: %v", completer.tokenQueries)
	}
}
