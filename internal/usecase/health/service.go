package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckConfigured indicates a component that is configured but not
	// probed (the external providers — probing them costs quota).
	CheckConfigured CheckResult = "configured"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service answers liveness checks. It never invokes the search or synthesis
// providers; it only reports that they are configured, and optionally pings
// the cache store.
type Service struct {
	cache               CachePinger
	searchConfigured    bool
	synthesisConfigured bool
}

// New creates a Service. cache can be nil when no cache store is configured.
func New(cache CachePinger, searchConfigured, synthesisConfigured bool) *Service {
	return &Service{
		cache:               cache,
		searchConfigured:    searchConfigured,
		synthesisConfigured: synthesisConfigured,
	}
}

// Check reports process liveness and component states.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.searchConfigured {
		checks["search_provider"] = CheckConfigured
	}
	if s.synthesisConfigured {
		checks["synthesis_provider"] = CheckConfigured
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
