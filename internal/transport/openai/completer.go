// Package openai implements the synthesis provider via an OpenAI-compatible
// chat-completion API. Any endpoint speaking the protocol works through
// BaseURL, including Gemini's compatibility surface.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/notemill/notemill/internal/domain"
	"github.com/notemill/notemill/internal/metrics"
)

const stageName = "synthesis"

// Completer is a synthesis provider using chat completions.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	provider    string
	logger      *zap.Logger
}

// Config holds the synthesis provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Provider    string // metrics label, default "openai"
	Logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible synthesis provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		if hc, ok := clientCfg.HTTPClient.(*http.Client); ok {
			hc.Timeout = cfg.Timeout
		}
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Completer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		provider:    provider,
		logger:      logger,
	}
}

// Synthesize implements domain.Synthesizer. Returns the generated text with
// transport-level metrics; citation parsing happens upstream.
func (c *Completer) Synthesize(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, stageName, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(c.provider, stageName, "api_error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, stageName, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(c.provider, stageName, "empty_response").Inc()
		return "", domain.NewSynthesisProviderError(0, fmt.Errorf("empty completion response"))
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, stageName, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(c.provider, stageName).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.SynthesisTokensTotal.WithLabelValues(c.provider, c.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.SynthesisTokensTotal.WithLabelValues(c.provider, c.model, "completion").
			Add(float64(resp.Usage.CompletionTokens))
		metrics.SynthesisTokensTotal.WithLabelValues(c.provider, c.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// parseAPIError extracts the HTTP status from the API error so the
// orchestrator can classify it for retry. All errors wrap
// domain.ErrSynthesisProvider for correct 502 mapping.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return domain.NewSynthesisProviderError(reqErr.HTTPStatusCode,
			fmt.Errorf("completion API error: %s", string(reqErr.Body)))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewSynthesisProviderError(apiErr.HTTPStatusCode,
			fmt.Errorf("completion API error: %s", apiErr.Message))
	}

	return domain.NewSynthesisProviderError(0, fmt.Errorf("completion request failed: %w", err))
}
