package domain

// SynthesisResult is the parsed model output: the answer text plus the
// sources it actually cited, ordered by first reference.
type SynthesisResult struct {
	AnswerText string
	Cited      []Source
}

// ResearchResponse is the final per-request result returned to the caller.
// Warnings describe non-fatal degradations (e.g. WarnSearchUnavailable);
// a response with warnings is still a success.
type ResearchResponse struct {
	Query    string   `json:"query"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Warnings []string `json:"warnings"`
}
