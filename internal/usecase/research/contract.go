package research

import (
	"context"

	"github.com/notemill/notemill/internal/domain"
)

// Searcher is the web-search capability consumed by the orchestrator.
// One bounded outbound call per invocation, no internal retries.
type Searcher interface {
	Search(ctx context.Context, query domain.Query, maxResults int) ([]domain.SearchHit, error)
}

// Synthesizer is the LLM completion capability consumed by the orchestrator.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}
