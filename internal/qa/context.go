package qa

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/docqa/internal/retrieval"
)

// BuildContext renders retrieved chunks as the model's document context. Each
// source carries a provenance header so the model can ground citations, with
// the snippet underneath and a blank line between sources.
func BuildContext(sources []retrieval.RetrievedChunk) string {
	var b strings.Builder
	for _, s := range sources {
		page := 0
		if s.Page != nil {
			page = *s.Page
		}
		fmt.Fprintf(&b, "[doc_id = %s page = %d chunk_id = %s score = %.4f]\n", s.DocID, page, s.ChunkID, s.Score)
		b.WriteString(s.TextSnippet)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// TruncateContext hard-caps the context at max bytes. The cut is blind to
// token boundaries; trailing whitespace from the cut is dropped.
func TruncateContext(docContext string, max int) string {
	if len(docContext) <= max {
		return docContext
	}
	return strings.TrimRight(truncate(docContext, max), " \t\n")
}

// CleanQuestion collapses whitespace and caps the question length.
func CleanQuestion(q string, max int) string {
	q = strings.Join(strings.Fields(q), " ")
	return truncate(q, max)
}

// truncate cuts s at no more than max bytes, backing the cut off so a
// multi-byte rune is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
