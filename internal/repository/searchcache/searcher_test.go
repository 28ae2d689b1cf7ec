package searchcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/notemill/notemill/internal/db"
	"github.com/notemill/notemill/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	setKeys []string
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.setKeys = append(m.setKeys, key)
	return nil
}

type mockSearcher struct {
	hits  []domain.SearchHit
	err   error
	calls int
}

func (m *mockSearcher) Search(_ context.Context, _ domain.Query, _ int) ([]domain.SearchHit, error) {
	m.calls++
	return m.hits, m.err
}

func mustQuery(t *testing.T, raw string) domain.Query {
	t.Helper()
	q, err := domain.NewQuery(raw)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return q
}

// --- Tests ---

func TestSearch_MissThenHit(t *testing.T) {
	hits := []domain.SearchHit{{URL: "https://a.example", Title: "A", Snippet: "s", Rank: 0}}
	inner := &mockSearcher{hits: hits}
	store := newMockStore()
	c := New(inner, store, time.Minute, nil, zap.NewNop())

	q := mustQuery(t, "caffeine and sleep")

	got, err := c.Search(context.Background(), q, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://a.example" {
		t.Fatalf("unexpected hits: %+v", got)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}

	// Second call must be served from the cache.
	got, err = c.Search(context.Background(), q, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected cached hits: %+v", got)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner not to be called again, got %d calls", inner.calls)
	}
}

func TestSearch_KeyDependsOnMaxResults(t *testing.T) {
	inner := &mockSearcher{}
	store := newMockStore()
	c := New(inner, store, time.Minute, nil, zap.NewNop())

	q := mustQuery(t, "same query")
	if _, err := c.Search(context.Background(), q, 5); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Search(context.Background(), q, 10); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("different maxResults should miss: expected 2 inner calls, got %d", inner.calls)
	}
}

func TestSearch_InnerErrorPassesThrough(t *testing.T) {
	inner := &mockSearcher{err: domain.NewSearchProviderError(503, errors.New("down"))}
	c := New(inner, newMockStore(), time.Minute, nil, zap.NewNop())

	_, err := c.Search(context.Background(), mustQuery(t, "q"), 5)
	if !errors.Is(err, domain.ErrSearchProvider) {
		t.Errorf("expected ErrSearchProvider, got %v", err)
	}
}

func TestSearch_InnerErrorNotCached(t *testing.T) {
	inner := &mockSearcher{err: domain.NewSearchProviderError(0, errors.New("timeout"))}
	store := newMockStore()
	c := New(inner, store, time.Minute, nil, zap.NewNop())

	_, _ = c.Search(context.Background(), mustQuery(t, "q"), 5)
	if len(store.setKeys) != 0 {
		t.Error("failed searches must not be cached")
	}
}

func TestSearch_StoreErrorsDegradeToMiss(t *testing.T) {
	hits := []domain.SearchHit{{URL: "https://a.example", Title: "A"}}
	inner := &mockSearcher{hits: hits}
	store := newMockStore()
	store.getErr = errors.New("conn refused")
	store.setErr = errors.New("conn refused")
	c := New(inner, store, time.Minute, nil, zap.NewNop())

	got, err := c.Search(context.Background(), mustQuery(t, "q"), 5)
	if err != nil {
		t.Fatalf("store failure must not fail the search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected hits: %+v", got)
	}
}

func TestSearch_CorruptCacheEntryDegradesToMiss(t *testing.T) {
	hits := []domain.SearchHit{{URL: "https://a.example", Title: "A"}}
	inner := &mockSearcher{hits: hits}
	store := newMockStore()
	c := New(inner, store, time.Minute, nil, zap.NewNop())

	q := mustQuery(t, "q")
	store.data[c.cacheKey(q, 5)] = []byte("not json")

	got, err := c.Search(context.Background(), q, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry should fall through to inner, calls=%d", inner.calls)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected hits: %+v", got)
	}
}
