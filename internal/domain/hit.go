package domain

// SearchHit is a single web-search result as returned by the search provider.
// Hits are read-only once produced; Rank is the provider-assigned order
// starting at 0.
type SearchHit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// Source is a cited origin in a research response.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}
