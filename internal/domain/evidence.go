package domain

import (
	"net/url"
	"sort"
	"strings"
)

// EvidenceSet is the bounded, deduplicated, rank-ordered set of search hits
// handed to the synthesis prompt. Construct via AssembleEvidence; the zero
// value is a valid empty set.
type EvidenceSet struct {
	items []SearchHit
}

// AssembleEvidence reduces raw search hits to an EvidenceSet:
//
//  1. Sort by rank ascending (stable).
//  2. Deduplicate by normalized URL, keeping the lowest-ranked hit.
//  3. Greedily accumulate while the running title+snippet character total
//     stays within maxChars and the item count within maxItems, stopping at
//     the first hit that would exceed either bound.
//
// The result is always a subset of the input and deterministic for identical
// input ordering. Empty input yields an empty set, never an error.
func AssembleEvidence(hits []SearchHit, maxItems, maxChars int) EvidenceSet {
	if len(hits) == 0 || maxItems <= 0 || maxChars <= 0 {
		return EvidenceSet{}
	}

	ordered := make([]SearchHit, len(hits))
	copy(ordered, hits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	seen := make(map[string]struct{}, len(ordered))
	items := make([]SearchHit, 0, min(len(ordered), maxItems))
	chars := 0

	for _, h := range ordered {
		key := NormalizeURL(h.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		cost := len(h.Title) + len(h.Snippet)
		if len(items) >= maxItems || chars+cost > maxChars {
			break
		}
		seen[key] = struct{}{}
		items = append(items, h)
		chars += cost
	}

	return EvidenceSet{items: items}
}

// Items returns the hits in rank order. The returned slice must not be mutated.
func (e EvidenceSet) Items() []SearchHit { return e.items }

// Len returns the number of hits in the set.
func (e EvidenceSet) Len() int { return len(e.items) }

// Empty reports whether the set holds no hits.
func (e EvidenceSet) Empty() bool { return len(e.items) == 0 }

// NormalizeURL reduces a URL to its deduplication key: lowercased
// scheme+host+path with any trailing slash stripped. Query strings and
// fragments do not distinguish sources. Unparseable input falls back to
// the lowercased raw string.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(raw), "/"))
	}
	normalized := strings.ToLower(u.Scheme + "://" + u.Host + u.Path)
	return strings.TrimSuffix(normalized, "/")
}
