// Package cache provides the read-through caches of the question answering
// pipeline and the key derivation they share. Keys embed the versions of
// everything that influenced the cached value, so a model or parameter change
// never has to purge anything: old entries simply stop being addressed.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// NormalizeQuestion trims and collapses internal whitespace so trivially
// reformatted questions share cache entries.
func NormalizeQuestion(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// Masking patterns, applied in order. Email goes first so the digits inside
// an address are not rewritten as numbers.
var (
	reEmail   = regexp.MustCompile(`\S+@\S+`)
	reMoney   = regexp.MustCompile(`\$[\d,]+(?:\.\d+)?`)
	rePercent = regexp.MustCompile(`\b\d+(\.\d+)?%`)
	reYear    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reNumber  = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
)

// MaskEntities replaces volatile literals in a normalized question with
// placeholder tokens. Questions that differ only in those literals mask to
// the same string and can share a semantic cache slot.
func MaskEntities(q string) string {
	q = NormalizeQuestion(q)
	q = reEmail.ReplaceAllString(q, "[EMAIL]")
	q = reMoney.ReplaceAllString(q, "[AMOUNT]")
	q = rePercent.ReplaceAllString(q, "[PERCENT]")
	q = reYear.ReplaceAllString(q, "[YEAR]")
	q = reNumber.ReplaceAllString(q, "[NUMBER]")
	return q
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ScopeKey canonicalizes an ask scope: "all" when no documents are named,
// otherwise the sorted distinct doc ids joined with commas. Neither order
// nor repetition in the request list changes the key.
func ScopeKey(docIDs []string) string {
	if len(docIDs) == 0 {
		return "all"
	}
	ids := append([]string(nil), docIDs...)
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return strings.Join(out, ",")
}

// QueryEmbeddingKey addresses a cached query embedding. Keyed by model and
// chunking version, never by scope: the same question embeds identically
// regardless of which documents are searched.
func QueryEmbeddingKey(model, chunkingVersion, question string) string {
	return fmt.Sprintf("qemb:%s:%s:%s", model, chunkingVersion, hashHex(NormalizeQuestion(question)))
}

// RetrievalKey addresses one document's cached retrieval results for a
// question.
func RetrievalKey(scope, indexVersion, docID, question string, topK int) string {
	return fmt.Sprintf("retr:%s:%s:%s:%s:%d", scope, indexVersion, docID, hashHex(NormalizeQuestion(question)), topK)
}

// AnswerKey addresses the exact-answer cache for a question and scope.
func AnswerKey(scope, pipelineVersion, question string, topK int) string {
	return fmt.Sprintf("ans:%s:%s:%s:%d", scope, pipelineVersion, hashHex(NormalizeQuestion(question)), topK)
}

// SemanticKey addresses the semantic cache slot for a question's masked form.
// Append the EmbSuffix or RespSuffix to address the stored embedding or the
// stored response.
func SemanticKey(scope, pipelineVersion, question string, topK int) string {
	return fmt.Sprintf("sem:%s:%s:%s:%d", scope, pipelineVersion, hashHex(MaskEntities(question)), topK)
}

// Suffixes for the two halves of a semantic cache slot.
const (
	EmbSuffix  = ":emb"
	RespSuffix = ":resp"
)
