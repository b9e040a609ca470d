package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
	"github.com/campusconnect/forum/internal/metrics"
)

const kindCompletion = "completion"

// Completer is a generative answer provider over the chat completions API.
type Completer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewCompleter creates a generative answer provider.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{
		client: newClient(cfg),
		model:  cfg.ChatModel,
		logger: cfg.Logger,
	}
}

// Complete implements domain.Completer: one synchronous chat completion
// over the ordered turn sequence.
func (c *Completer) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    mapRole(turn.Role),
			Content: turn.Text,
		})
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})

	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(kindCompletion, c.model, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(kindCompletion, c.model, "api_error").Inc()
		return "", parseAPIError("completion", err)
	}

	if len(resp.Choices) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues(kindCompletion, c.model, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(kindCompletion, c.model, "empty_response").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrProviderUnavailable)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(kindCompletion, c.model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(kindCompletion, c.model).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.ProviderTokensTotal.
			WithLabelValues(kindCompletion, c.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.ProviderTokensTotal.
			WithLabelValues(kindCompletion, c.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Duration("latency", duration),
		zap.Int("turns", len(turns)),
	)

	return resp.Choices[0].Message.Content, nil
}

func mapRole(role domain.Role) string {
	switch role {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
