package domain

// SearchOutcome is the tagged result of the search stage: either an assembled
// EvidenceSet or an explicit "unavailable" marker carrying the reason. The
// orchestrator branches on it without exception-style control flow — a failed
// search is a valid outcome, not an error.
type SearchOutcome struct {
	evidence    EvidenceSet
	unavailable bool
	reason      string
}

// SearchHits wraps an assembled evidence set into a successful outcome.
func SearchHits(evidence EvidenceSet) SearchOutcome {
	return SearchOutcome{evidence: evidence}
}

// SearchUnavailable marks the search stage as failed for the given reason.
func SearchUnavailable(reason string) SearchOutcome {
	return SearchOutcome{unavailable: true, reason: reason}
}

// Available reports whether search produced evidence (possibly empty).
func (o SearchOutcome) Available() bool { return !o.unavailable }

// Evidence returns the assembled set; empty when the outcome is unavailable.
func (o SearchOutcome) Evidence() EvidenceSet { return o.evidence }

// Reason returns the failure description for an unavailable outcome.
func (o SearchOutcome) Reason() string { return o.reason }
