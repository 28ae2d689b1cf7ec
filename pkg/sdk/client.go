// Package sdk provides a Go client for the notemill research HTTP API.
//
//	client := sdk.New("http://localhost:8080")
//	resp, err := client.Research(ctx, "impact of caffeine on sleep")
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Source is a cited source in a research response.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ResearchResponse is the result of one research request.
type ResearchResponse struct {
	Query    string   `json:"query"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Warnings []string `json:"warnings"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTimeout sets the request timeout. Default 30s; the service enforces
// its own overall deadline, so this should be at least as long.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// Client is an HTTP client for the notemill API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Research runs one research request.
func (c *Client) Research(ctx context.Context, query string) (ResearchResponse, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return ResearchResponse{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/research", bytes.NewReader(body),
	)
	if err != nil {
		return ResearchResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ResearchResponse{}, fmt.Errorf("research request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ResearchResponse{}, parseAPIError(resp)
	}

	var out ResearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ResearchResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Health fetches the service health report. A degraded service returns the
// report with a non-nil *APIError carrying status 503.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	var out HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return HealthResponse{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return out, &APIError{StatusCode: resp.StatusCode, Code: out.Status, Message: "service degraded"}
	}
	return out, nil
}
