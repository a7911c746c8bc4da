package chunker

import (
	"strings"
	"unicode/utf8"
)

// Normalize strips control bytes and trims lines while keeping newlines:
// paragraphs are semantic units the splitter relies on.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	s = strings.TrimSpace(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// recursiveSplit splits text into pieces no longer than maxLen characters,
// trying separators in priority order. Adjacent pieces are greedily
// re-accumulated into the largest chunk that still fits; a piece that stays
// too long recurses into the next separator. The empty separator is the hard
// character cut and always succeeds.
func recursiveSplit(text string, maxLen int, seps []string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	if len(seps) == 0 {
		// Should not happen with a validated config, but never loop forever.
		seps = []string{""}
	}
	sep, rest := seps[0], seps[1:]

	if sep == "" {
		var parts []string
		for i := 0; i < len(text); {
			end := hardCut(text, i, maxLen)
			if p := strings.TrimSpace(text[i:end]); p != "" {
				parts = append(parts, p)
			}
			i = end
		}
		return parts
	}

	raw := strings.Split(text, sep)
	if len(raw) == 1 {
		return recursiveSplit(text, maxLen, rest)
	}

	var chunks []string
	current := ""
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		candidate := part
		if current != "" {
			candidate = current + sep + part
		}
		if len(candidate) <= maxLen {
			current = candidate
			continue
		}
		if current != "" {
			chunks = append(chunks, recursiveSplit(current, maxLen, rest)...)
		}
		current = part
	}
	if current != "" {
		chunks = append(chunks, recursiveSplit(current, maxLen, rest)...)
	}

	out := chunks[:0]
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// hardCut returns the end of the next piece starting at i: at most maxLen
// bytes, backed off so a multi-byte rune is never split. A rune wider than
// maxLen is emitted whole rather than split.
func hardCut(text string, i, maxLen int) int {
	end := i + maxLen
	if end >= len(text) {
		return len(text)
	}
	for end > i && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == i {
		_, size := utf8.DecodeRuneInString(text[i:])
		end = i + size
	}
	return end
}

// applyOverlap prefixes every chunk after the first with the trailing overlap
// characters of the previous output chunk, preserving local context across
// chunk boundaries without re-reading the original text.
func applyOverlap(chunks []string, overlap int) []string {
	if len(chunks) == 0 || overlap <= 0 {
		return chunks
	}

	out := make([]string, 0, len(chunks))
	out = append(out, chunks[0])
	for i := 1; i < len(chunks); i++ {
		prev := out[len(out)-1]
		tail := prev
		if len(prev) > overlap {
			start := len(prev) - overlap
			for start < len(prev) && !utf8.RuneStart(prev[start]) {
				start++
			}
			tail = prev[start:]
		}
		out = append(out, strings.TrimSpace(tail+" "+chunks[i]))
	}
	return out
}
