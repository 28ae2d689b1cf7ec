package research

import (
	"fmt"
	"strings"

	"github.com/notemill/notemill/internal/domain"
)

// Prompt is the rendered model input plus the evidence index used to resolve
// citation markers back to sources: marker [i] refers to Sources[i-1].
type Prompt struct {
	Text    string
	Sources []domain.Source
}

// BuildPrompt renders the synthesis prompt for a query and its evidence.
// Pure and total: identical inputs always produce an identical prompt.
// Each evidence item carries an explicit 1-based index the model cites as [i].
func BuildPrompt(query domain.Query, evidence domain.EvidenceSet) Prompt {
	var b strings.Builder

	b.WriteString("You are a research assistant. Answer the question below")
	if evidence.Empty() {
		b.WriteString(" from your general knowledge.\n\n")
		b.WriteString("No web sources are available for this question. ")
		b.WriteString("State clearly that your answer is not backed by retrieved sources, ")
		b.WriteString("and do not invent citations or URLs.\n\n")
		b.WriteString("QUESTION: ")
		b.WriteString(query.String())
		b.WriteString("\n")
		return Prompt{Text: b.String()}
	}

	b.WriteString(" using only the numbered sources provided.\n\n")
	b.WriteString("QUESTION: ")
	b.WriteString(query.String())
	b.WriteString("\n\nSOURCES:\n")

	sources := make([]domain.Source, 0, evidence.Len())
	for i, h := range evidence.Items() {
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, h.Title, h.URL, h.Snippet)
		sources = append(sources, domain.Source{URL: h.URL, Title: h.Title})
	}

	b.WriteString("RULES:\n")
	b.WriteString("- Use only information from the sources above.\n")
	b.WriteString("- Cite sources inline with their bracketed index, e.g. [1] or [2].\n")
	b.WriteString("- Cite only indices that appear in the source list; never fabricate sources or URLs.\n")
	b.WriteString("- If the sources do not answer the question, say so.\n")

	return Prompt{Text: b.String(), Sources: sources}
}
