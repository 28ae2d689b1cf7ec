package research

import (
	"regexp"
	"strconv"

	"github.com/notemill/notemill/internal/domain"
)

var citationMarkerRegex = regexp.MustCompile(`\[(\d+)\]`)

// ResolveCitations extracts [i]-style markers from the model output and
// resolves them against the prompt's evidence index. Cited sources keep the
// order of first reference; duplicate markers collapse. Markers outside the
// index are dropped silently and reported via a single
// domain.WarnCitationUnresolved warning — never an error.
func ResolveCitations(answerText string, prompt Prompt) (domain.SynthesisResult, []string) {
	result := domain.SynthesisResult{AnswerText: answerText}

	matches := citationMarkerRegex.FindAllStringSubmatch(answerText, -1)
	if len(matches) == 0 {
		return result, nil
	}

	seen := make(map[int]struct{}, len(matches))
	unresolved := false

	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > len(prompt.Sources) {
			unresolved = true
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		result.Cited = append(result.Cited, prompt.Sources[idx-1])
	}

	var warnings []string
	if unresolved {
		warnings = append(warnings, domain.WarnCitationUnresolved)
	}
	return result, warnings
}
