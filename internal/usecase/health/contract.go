package health

import "context"

// CachePinger checks cache store availability. The external research
// providers are deliberately absent here: health must answer without
// spending provider quota.
type CachePinger interface {
	Ping(ctx context.Context) error
}
