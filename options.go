package notemill

import (
	"time"

	"go.uber.org/zap"

	researchuc "github.com/notemill/notemill/internal/usecase/research"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	serpAPIKey    string
	searchBaseURL string

	llmAPIKey      string
	llmBaseURL     string
	llmModel       string
	llmTemperature float32

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	searcher    Searcher
	synthesizer Synthesizer

	pipeline researchuc.Config
	logger   *zap.Logger
}

// WithSerpAPI configures the SerpAPI web search provider.
func WithSerpAPI(apiKey string) Option {
	return func(c *clientConfig) {
		c.serpAPIKey = apiKey
	}
}

// WithSearchBaseURL overrides the search provider endpoint.
// Useful for SerpAPI-compatible proxies.
func WithSearchBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		c.searchBaseURL = baseURL
	}
}

// WithOpenAI configures the synthesis provider with an OpenAI-compatible
// chat-completion API.
func WithOpenAI(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.llmAPIKey = apiKey
		c.llmModel = model
	}
}

// WithOpenAIBaseURL overrides the synthesis endpoint. Any OpenAI-compatible
// surface works, including Gemini's.
func WithOpenAIBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		c.llmBaseURL = baseURL
	}
}

// WithTemperature sets the synthesis sampling temperature. Default 0.
func WithTemperature(t float32) Option {
	return func(c *clientConfig) {
		c.llmTemperature = t
	}
}

// WithRedisCache enables the Redis-backed search result cache.
// ttl bounds how long raw provider hits are kept; synthesized answers are
// never cached.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	}
}

// WithSearcher replaces the web search provider. Intended for custom
// providers and test fakes.
func WithSearcher(s Searcher) Option {
	return func(c *clientConfig) {
		c.searcher = s
	}
}

// WithSynthesizer replaces the synthesis provider. Intended for custom
// providers and test fakes.
func WithSynthesizer(s Synthesizer) Option {
	return func(c *clientConfig) {
		c.synthesizer = s
	}
}

// WithTimeouts sets the per-attempt stage timeouts and the overall request
// deadline. Zero values keep the defaults.
func WithTimeouts(search, synthesis, overall time.Duration) Option {
	return func(c *clientConfig) {
		if search > 0 {
			c.pipeline.SearchTimeout = search
		}
		if synthesis > 0 {
			c.pipeline.SynthesisTimeout = synthesis
		}
		if overall > 0 {
			c.pipeline.OverallDeadline = overall
		}
	}
}

// WithRetries sets extra attempts per stage after the first, and the fixed
// backoff between attempts. attempts 0 disables retries.
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(c *clientConfig) {
		c.pipeline.RetryAttempts = attempts
		if backoff > 0 {
			c.pipeline.RetryBackoff = backoff
		}
	}
}

// WithEvidenceBudget bounds the evidence fed to the prompt.
func WithEvidenceBudget(maxItems, maxChars int) Option {
	return func(c *clientConfig) {
		if maxItems > 0 {
			c.pipeline.EvidenceMaxItems = maxItems
		}
		if maxChars > 0 {
			c.pipeline.EvidenceMaxChars = maxChars
		}
	}
}

// WithMaxSearchResults sets how many hits are requested from the search
// provider per query.
func WithMaxSearchResults(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.pipeline.MaxSearchResults = n
		}
	}
}

// WithLogger enables structured logging for SDK operations.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
