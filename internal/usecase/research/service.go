package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notemill/notemill/internal/domain"
	"github.com/notemill/notemill/internal/logger"
)

// Config holds orchestration tunables. Zero values fall back to defaults.
type Config struct {
	SearchTimeout    time.Duration // per search attempt
	SynthesisTimeout time.Duration // per synthesis attempt
	OverallDeadline  time.Duration // hard ceiling for the whole request
	RetryAttempts    int           // extra attempts per stage after the first
	RetryBackoff     time.Duration
	MaxSearchResults int
	EvidenceMaxItems int
	EvidenceMaxChars int
}

// DefaultConfig returns the default orchestration tunables.
func DefaultConfig() Config {
	return Config{
		SearchTimeout:    10 * time.Second,
		SynthesisTimeout: 10 * time.Second,
		OverallDeadline:  20 * time.Second,
		RetryAttempts:    1,
		RetryBackoff:     250 * time.Millisecond,
		MaxSearchResults: 10,
		EvidenceMaxItems: 8,
		EvidenceMaxChars: 4000,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = def.SearchTimeout
	}
	if c.SynthesisTimeout <= 0 {
		c.SynthesisTimeout = def.SynthesisTimeout
	}
	if c.OverallDeadline <= 0 {
		c.OverallDeadline = def.OverallDeadline
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.MaxSearchResults <= 0 {
		c.MaxSearchResults = def.MaxSearchResults
	}
	if c.EvidenceMaxItems <= 0 {
		c.EvidenceMaxItems = def.EvidenceMaxItems
	}
	if c.EvidenceMaxChars <= 0 {
		c.EvidenceMaxChars = def.EvidenceMaxChars
	}
}

// Service orchestrates one research request: search, evidence assembly,
// prompt construction, synthesis, and citation resolution. Every
// request-scoped object lives and dies inside Research; nothing is shared
// between concurrent requests.
type Service struct {
	search Searcher
	synth  Synthesizer
	cfg    Config
}

// New creates a research orchestrator. Request-scoped logging flows in
// through the context (logger.FromContext).
func New(search Searcher, synth Synthesizer, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{search: search, synth: synth, cfg: cfg}
}

// Research runs the full pipeline for one query.
//
// A search failure degrades the response (empty evidence, warning
// domain.WarnSearchUnavailable) — the model can still answer from general
// knowledge. A synthesis failure is fatal: there is no answer without it.
// Breaching the overall deadline aborts the in-flight stage and surfaces
// domain.ErrDeadlineExceeded.
func (s *Service) Research(ctx context.Context, rawQuery string) (domain.ResearchResponse, error) {
	query, err := domain.NewQuery(rawQuery)
	if err != nil {
		return domain.ResearchResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OverallDeadline)
	defer cancel()

	log := logger.FromContext(ctx)

	warnings := []string{}

	outcome := s.runSearch(ctx, query)
	evidence := outcome.Evidence()
	if !outcome.Available() {
		warnings = append(warnings, domain.WarnSearchUnavailable)
		log.Warn("search unavailable, synthesizing without evidence",
			zap.String("reason", outcome.Reason()))
	}

	prompt := BuildPrompt(query, evidence)

	answer, err := callWithRetry(ctx, s.cfg.SynthesisTimeout, s.cfg.RetryAttempts, s.cfg.RetryBackoff,
		func(ctx context.Context) (string, error) {
			return s.synth.Synthesize(ctx, prompt.Text)
		})
	if err != nil {
		if ctx.Err() != nil {
			return domain.ResearchResponse{}, fmt.Errorf("%w: %w", domain.ErrDeadlineExceeded, err)
		}
		return domain.ResearchResponse{}, fmt.Errorf("%w: %w", domain.ErrSynthesisUnavailable, err)
	}

	result, citationWarnings := ResolveCitations(answer, prompt)
	warnings = append(warnings, citationWarnings...)

	sources := result.Cited
	if sources == nil {
		sources = []domain.Source{}
	}

	log.Info("research completed",
		zap.Int("evidence_items", evidence.Len()),
		zap.Int("sources_cited", len(sources)),
		zap.Strings("warnings", warnings),
	)

	return domain.ResearchResponse{
		Query:    query.String(),
		Answer:   result.AnswerText,
		Sources:  sources,
		Warnings: warnings,
	}, nil
}

// runSearch executes the search stage and folds any failure into an explicit
// unavailable outcome — search errors never abort the request on their own.
func (s *Service) runSearch(ctx context.Context, query domain.Query) domain.SearchOutcome {
	hits, err := callWithRetry(ctx, s.cfg.SearchTimeout, s.cfg.RetryAttempts, s.cfg.RetryBackoff,
		func(ctx context.Context) ([]domain.SearchHit, error) {
			return s.search.Search(ctx, query, s.cfg.MaxSearchResults)
		})
	if err != nil {
		return domain.SearchUnavailable(err.Error())
	}
	return domain.SearchHits(domain.AssembleEvidence(hits, s.cfg.EvidenceMaxItems, s.cfg.EvidenceMaxChars))
}
