// Package notemill embeds the research pipeline in-process: web search,
// evidence assembly, LLM synthesis, and citation resolution behind a single
// Client, without running the HTTP service.
//
//	client, _ := notemill.New(
//	    notemill.WithSerpAPI(os.Getenv("SERPAPI_API_KEY")),
//	    notemill.WithOpenAI(os.Getenv("LLM_API_KEY"), "gpt-4o-mini"),
//	)
//	defer client.Close()
//	resp, _ := client.Research(ctx, "impact of caffeine on sleep")
package notemill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notemill/notemill/internal/db"
	dbRedis "github.com/notemill/notemill/internal/db/redis"
	"github.com/notemill/notemill/internal/domain"
	logpkg "github.com/notemill/notemill/internal/logger"
	"github.com/notemill/notemill/internal/repository/searchcache"
	openaiSynth "github.com/notemill/notemill/internal/transport/openai"
	"github.com/notemill/notemill/internal/transport/serpapi"
	researchuc "github.com/notemill/notemill/internal/usecase/research"
)

const defaultReadinessTimeout = 10 * time.Second

// Sentinel errors returned by Research.
var (
	// ErrInvalidQuery signals an empty or whitespace-only query.
	ErrInvalidQuery = domain.ErrInvalidQuery
	// ErrSynthesisUnavailable signals that no answer could be synthesized.
	ErrSynthesisUnavailable = domain.ErrSynthesisUnavailable
	// ErrDeadlineExceeded signals that the overall request deadline was breached.
	ErrDeadlineExceeded = domain.ErrDeadlineExceeded
)

// SearchHit is one web search result fed into evidence assembly.
type SearchHit struct {
	URL     string
	Title   string
	Snippet string
	Rank    int
}

// Searcher is a pluggable web search provider.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error)
}

// Synthesizer is a pluggable LLM completion provider.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// Source is a cited source in a research response.
type Source struct {
	URL   string
	Title string
}

// Response is the result of one research request. Warnings describe
// non-fatal degradations; a response with warnings is still a success.
type Response struct {
	Query    string
	Answer   string
	Sources  []Source
	Warnings []string
}

// Client is the notemill SDK entry point.
type Client struct {
	research *researchuc.Service
	store    db.Store
	logger   *zap.Logger
}

// New creates a notemill Client. A search provider (WithSerpAPI or
// WithSearcher) and a synthesis provider (WithOpenAI or WithSynthesizer)
// are required; everything else has defaults.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		pipeline: researchuc.DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	searcher, err := buildSearcher(cfg)
	if err != nil {
		return nil, err
	}

	synthesizer, err := buildSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if len(cfg.cacheAddrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("notemill: create cache store: %w", err)
		}
		if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("notemill: cache store not ready: %w", err)
		}
		searcher = searchcache.New(searcher, store, cfg.cacheTTL, nil, cfg.logger)
	}

	return &Client{
		research: researchuc.New(searcher, synthesizer, cfg.pipeline),
		store:    store,
		logger:   cfg.logger,
	}, nil
}

func buildSearcher(cfg *clientConfig) (domain.Searcher, error) {
	if cfg.searcher != nil {
		return &searcherAdapter{inner: cfg.searcher}, nil
	}
	if cfg.serpAPIKey == "" {
		return nil, errors.New("notemill: search provider required (use WithSerpAPI or WithSearcher)")
	}
	return serpapi.New(&serpapi.Config{
		APIKey:  cfg.serpAPIKey,
		BaseURL: cfg.searchBaseURL,
		Timeout: cfg.pipeline.SearchTimeout,
		Logger:  cfg.logger,
	}), nil
}

func buildSynthesizer(cfg *clientConfig) (researchuc.Synthesizer, error) {
	if cfg.synthesizer != nil {
		return cfg.synthesizer, nil
	}
	if cfg.llmAPIKey == "" {
		return nil, errors.New("notemill: synthesis provider required (use WithOpenAI or WithSynthesizer)")
	}
	return openaiSynth.NewCompleter(&openaiSynth.Config{
		APIKey:      cfg.llmAPIKey,
		BaseURL:     cfg.llmBaseURL,
		Model:       cfg.llmModel,
		Temperature: cfg.llmTemperature,
		Timeout:     cfg.pipeline.SynthesisTimeout,
		Logger:      cfg.logger,
	}), nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Research runs the full pipeline for one query.
func (c *Client) Research(ctx context.Context, query string) (Response, error) {
	ctx = logpkg.ContextWithLogger(ctx, c.logger)

	resp, err := c.research.Research(ctx, query)
	if err != nil {
		return Response{}, err
	}

	sources := make([]Source, len(resp.Sources))
	for i, s := range resp.Sources {
		sources[i] = Source{URL: s.URL, Title: s.Title}
	}

	return Response{
		Query:    resp.Query,
		Answer:   resp.Answer,
		Sources:  sources,
		Warnings: resp.Warnings,
	}, nil
}

// searcherAdapter wraps a public Searcher to satisfy internal domain.Searcher.
type searcherAdapter struct {
	inner Searcher
}

func (a *searcherAdapter) Search(
	ctx context.Context, query domain.Query, maxResults int,
) ([]domain.SearchHit, error) {
	hits, err := a.inner.Search(ctx, query.String(), maxResults)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]domain.SearchHit, len(hits))
	for i, h := range hits {
		out[i] = domain.SearchHit{URL: h.URL, Title: h.Title, Snippet: h.Snippet, Rank: h.Rank}
	}
	return out, nil
}
