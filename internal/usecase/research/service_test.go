package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/notemill/notemill/internal/domain"
)

// --- Mocks ---

type mockSearcher struct {
	hits       []domain.SearchHit
	err        error
	calls      int
	lastMax    int
	lastQuery  string
	failTimes  int // fail the first N calls, then succeed
	failStatus int
}

func (m *mockSearcher) Search(_ context.Context, q domain.Query, maxResults int) ([]domain.SearchHit, error) {
	m.calls++
	m.lastMax = maxResults
	m.lastQuery = q.String()
	if m.failTimes > 0 && m.calls <= m.failTimes {
		return nil, domain.NewSearchProviderError(m.failStatus, errors.New("induced failure"))
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

type mockSynthesizer struct {
	text       string
	err        error
	calls      int
	lastPrompt string
	block      bool // hang until ctx is cancelled
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.block {
		<-ctx.Done()
		return "", domain.NewSynthesisProviderError(0, ctx.Err())
	}
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func fastConfig() Config {
	return Config{
		SearchTimeout:    time.Second,
		SynthesisTimeout: time.Second,
		OverallDeadline:  5 * time.Second,
		RetryAttempts:    1,
		RetryBackoff:     time.Millisecond,
		MaxSearchResults: 5,
		EvidenceMaxItems: 3,
		EvidenceMaxChars: 500,
	}
}

func fiveHits() []domain.SearchHit {
	return []domain.SearchHit{
		{URL: "https://a.example/1", Title: "Sleep study", Snippet: "Caffeine delays sleep onset.", Rank: 0},
		{URL: "https://b.example/2", Title: "Half-life", Snippet: "Caffeine half-life is about 5 hours.", Rank: 1},
		{URL: "https://c.example/3", Title: "Adenosine", Snippet: "Caffeine blocks adenosine receptors.", Rank: 2},
		{URL: "https://d.example/4", Title: "Dosage", Snippet: "Effects vary with dose.", Rank: 3},
		{URL: "https://e.example/5", Title: "Tolerance", Snippet: "Tolerance develops over weeks.", Rank: 4},
	}
}

// --- Tests ---

func TestResearch_EndToEnd(t *testing.T) {
	search := &mockSearcher{hits: fiveHits()}
	synth := &mockSynthesizer{text: "Caffeine delays sleep onset [1] and has a long half-life [2]."}
	svc := New(search, synth, fastConfig())

	resp, err := svc.Research(context.Background(), "impact of caffeine on sleep")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Query != "impact of caffeine on sleep" {
		t.Errorf("unexpected query: %q", resp.Query)
	}
	if search.lastMax != 5 {
		t.Errorf("expected maxResults 5, got %d", search.lastMax)
	}

	// maxItems=3 caps the evidence; the prompt must index exactly 1..3.
	for _, want := range []string{"[1] Sleep study", "[2] Half-life", "[3] Adenosine"} {
		if !strings.Contains(synth.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(synth.lastPrompt, "[4]") {
		t.Error("prompt should not index beyond the evidence cap")
	}

	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp.Sources))
	}
	if resp.Sources[0].URL != "https://a.example/1" || resp.Sources[1].URL != "https://b.example/2" {
		t.Errorf("unexpected sources: %+v", resp.Sources)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", resp.Warnings)
	}
}

func TestResearch_EmptyQueryRejectedBeforeAnyCall(t *testing.T) {
	search := &mockSearcher{}
	synth := &mockSynthesizer{}
	svc := New(search, synth, fastConfig())

	for _, raw := range []string{"", "   \t\n"} {
		_, err := svc.Research(context.Background(), raw)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("raw=%q: expected ErrInvalidQuery, got %v", raw, err)
		}
	}
	if search.calls != 0 {
		t.Errorf("search must not be called for invalid queries, calls=%d", search.calls)
	}
	if synth.calls != 0 {
		t.Errorf("synthesis must not be called for invalid queries, calls=%d", synth.calls)
	}
}

func TestResearch_SearchFailureDegrades(t *testing.T) {
	search := &mockSearcher{err: domain.NewSearchProviderError(401, errors.New("bad key"))}
	synth := &mockSynthesizer{text: "From general knowledge: caffeine disrupts sleep."}
	svc := New(search, synth, fastConfig())

	resp, err := svc.Research(context.Background(), "caffeine and sleep")
	if err != nil {
		t.Fatalf("search failure must not fail the request: %v", err)
	}

	if len(resp.Warnings) != 1 || resp.Warnings[0] != domain.WarnSearchUnavailable {
		t.Errorf("expected search_unavailable warning, got %v", resp.Warnings)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("expected empty sources, got %+v", resp.Sources)
	}
	if resp.Sources == nil {
		t.Error("sources must be an empty list, not nil")
	}
	if !strings.Contains(synth.lastPrompt, "general knowledge") {
		t.Error("synthesis should receive the empty-evidence prompt")
	}
}

func TestResearch_SearchTransientFailureRetriedThenSucceeds(t *testing.T) {
	search := &mockSearcher{hits: fiveHits(), failTimes: 1, failStatus: 503}
	synth := &mockSynthesizer{text: "Answer [1]."}
	svc := New(search, synth, fastConfig())

	resp, err := svc.Research(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if search.calls != 2 {
		t.Errorf("expected 1 retry (2 calls), got %d", search.calls)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("recovered search should not warn, got %v", resp.Warnings)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(resp.Sources))
	}
}

func TestResearch_SearchPermanentFailureNotRetried(t *testing.T) {
	search := &mockSearcher{err: domain.NewSearchProviderError(403, errors.New("forbidden"))}
	synth := &mockSynthesizer{text: "fallback answer"}
	svc := New(search, synth, fastConfig())

	if _, err := svc.Research(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if search.calls != 1 {
		t.Errorf("4xx search failure must not be retried, calls=%d", search.calls)
	}
}

func TestResearch_SynthesisFailureIsFatal(t *testing.T) {
	search := &mockSearcher{hits: fiveHits()}
	synth := &mockSynthesizer{err: domain.NewSynthesisProviderError(500, errors.New("model down"))}
	svc := New(search, synth, fastConfig())

	_, err := svc.Research(context.Background(), "q")
	if !errors.Is(err, domain.ErrSynthesisUnavailable) {
		t.Fatalf("expected ErrSynthesisUnavailable, got %v", err)
	}
	if synth.calls != 2 {
		t.Errorf("transient synthesis failure should be retried once, calls=%d", synth.calls)
	}
}

func TestResearch_SynthesisPermanentFailureNotRetried(t *testing.T) {
	search := &mockSearcher{hits: fiveHits()}
	synth := &mockSynthesizer{err: domain.NewSynthesisProviderError(401, errors.New("bad key"))}
	svc := New(search, synth, fastConfig())

	_, err := svc.Research(context.Background(), "q")
	if !errors.Is(err, domain.ErrSynthesisUnavailable) {
		t.Fatalf("expected ErrSynthesisUnavailable, got %v", err)
	}
	if synth.calls != 1 {
		t.Errorf("4xx synthesis failure must not be retried, calls=%d", synth.calls)
	}
}

func TestResearch_UnresolvableCitationWarns(t *testing.T) {
	search := &mockSearcher{hits: fiveHits()}
	synth := &mockSynthesizer{text: "Cites [1] and [3], plus bogus [5]."}
	svc := New(search, synth, fastConfig())

	resp, err := svc.Research(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Evidence capped at 3 items: [5] cannot resolve.
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp.Sources))
	}
	if resp.Sources[0].Title != "Sleep study" || resp.Sources[1].Title != "Adenosine" {
		t.Errorf("expected sources in reference order, got %+v", resp.Sources)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0] != domain.WarnCitationUnresolved {
		t.Errorf("expected citation_unresolved warning, got %v", resp.Warnings)
	}
}

func TestResearch_OverallDeadline(t *testing.T) {
	cfg := fastConfig()
	cfg.OverallDeadline = 50 * time.Millisecond
	cfg.SynthesisTimeout = time.Second

	search := &mockSearcher{hits: fiveHits()}
	synth := &mockSynthesizer{block: true}
	svc := New(search, synth, cfg)

	_, err := svc.Research(context.Background(), "q")
	if !errors.Is(err, domain.ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
	}
}
