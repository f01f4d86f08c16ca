package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Message is one turn of an LLM conversation.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Completer abstracts the LLM provider. Complete produces a free-form answer;
// CompleteToken is the constrained single-token variant used for
// classification.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	CompleteToken(ctx context.Context, system, user string) (string, error)
}

// CompleterConfig holds LLM call parameters.
type CompleterConfig struct {
	APIKey          string
	Model           string
	ClassifierModel string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
}

// OpenAICompleter implements Completer against the OpenAI chat API.
type OpenAICompleter struct {
	client *openai.Client
	cfg    CompleterConfig
	logger *slog.Logger
}

// NewOpenAICompleter creates an OpenAI-backed completer.
func NewOpenAICompleter(cfg CompleterConfig, logger *slog.Logger) *OpenAICompleter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ClassifierModel == "" {
		cfg.ClassifierModel = cfg.Model
	}

	return &OpenAICompleter{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		logger: logger,
	}
}

// Complete sends a chat completion and returns the assistant text.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	apiCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages:    toOpenAIMessages(messages),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(apiCtx, request)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("chat completion finished",
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}

// CompleteToken sends a single-token, zero-temperature completion. The tight
// limits constrain the model to answer with exactly one label token.
func (c *OpenAICompleter) CompleteToken(ctx context.Context, system, user string) (string, error) {
	apiCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.ClassifierModel,
		Temperature: 0,
		MaxTokens:   1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := c.client.CreateChatCompletion(apiCtx, request)
	if err != nil {
		return "", fmt.Errorf("classification completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("classification completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return converted
}
