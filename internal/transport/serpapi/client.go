// Package serpapi implements the web-search provider via the SerpAPI
// Google-search endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/notemill/notemill/internal/domain"
	"github.com/notemill/notemill/internal/metrics"
)

const providerName = "serpapi"

// Client is a search provider using the SerpAPI HTTP API. It makes exactly
// one outbound call per Search invocation and never retries; retry policy
// belongs to the orchestrator.
type Client struct {
	apiKey  string
	baseURL string
	engine  string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the search provider settings.
type Config struct {
	APIKey  string
	BaseURL string // default https://serpapi.com
	Engine  string // default "google"
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates a SerpAPI search client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://serpapi.com"
	}
	engine := cfg.Engine
	if engine == "" {
		engine = "google"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		engine:  engine,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// searchResponse mirrors the subset of the SerpAPI payload we consume.
type searchResponse struct {
	OrganicResults []struct {
		Position int    `json:"position"` // 1-based
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// Search implements domain.Searcher. Non-2xx responses and transport
// failures yield *domain.ProviderError; partial or garbled payloads are
// never returned as hits.
func (c *Client) Search(
	ctx context.Context, query domain.Query, maxResults int,
) ([]domain.SearchHit, error) {
	q := url.Values{}
	q.Set("engine", c.engine)
	q.Set("q", query.String())
	q.Set("num", strconv.Itoa(maxResults))
	q.Set("api_key", c.apiKey)
	endpoint := c.baseURL + "/search.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewSearchProviderError(0, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "search", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(providerName, "search", "transport").Inc()
		return nil, domain.NewSearchProviderError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "search", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(providerName, "search", "http_status").Inc()
		return nil, domain.NewSearchProviderError(resp.StatusCode,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "search", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(providerName, "search", "decode").Inc()
		return nil, domain.NewSearchProviderError(0, fmt.Errorf("decode response: %w", err))
	}
	if payload.Error != "" {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "search", "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(providerName, "search", "api_error").Inc()
		return nil, domain.NewSearchProviderError(0, fmt.Errorf("api error: %s", payload.Error))
	}

	metrics.ProviderRequestsTotal.WithLabelValues(providerName, "search", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(providerName, "search").Observe(duration.Seconds())

	hits := make([]domain.SearchHit, 0, min(len(payload.OrganicResults), maxResults))
	for i, r := range payload.OrganicResults {
		if len(hits) >= maxResults {
			break
		}
		rank := r.Position - 1
		if rank < 0 {
			rank = i
		}
		hits = append(hits, domain.SearchHit{
			URL:     r.Link,
			Title:   r.Title,
			Snippet: r.Snippet,
			Rank:    rank,
		})
	}

	c.logger.Debug("search completed",
		zap.String("provider", providerName),
		zap.Int("hits", len(hits)),
		zap.Duration("latency", duration),
	)

	return hits, nil
}
