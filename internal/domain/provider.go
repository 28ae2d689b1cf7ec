package domain

import "context"

// Searcher is the web-search capability. Implementations make one bounded
// outbound call per invocation and never retry internally; retry policy
// belongs to the orchestrator. A failed call returns *ProviderError.
type Searcher interface {
	Search(ctx context.Context, query Query, maxResults int) ([]SearchHit, error)
}

// Synthesizer is the LLM completion capability: prompt in, generated text
// out. A failed call returns *ProviderError.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}
