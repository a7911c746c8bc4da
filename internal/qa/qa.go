// Package qa turns retrieved chunks into a grounded answer with an explicit
// no-answer policy.
package qa

import "context"

// NoAnswerText is the canonical refusal. Returned verbatim whenever the model
// produces no answer or its confidence falls below the configured floor.
const NoAnswerText = "I don't know based on the provided documents."

// Result is a model answer with an optional confidence in [0, 1].
type Result struct {
	Answer     string   `json:"answer"`
	Confidence *float64 `json:"confidence"`
}

// Service generates an answer for a question given assembled document
// context.
type Service interface {
	Answer(ctx context.Context, question, docContext string) (*Result, error)
}
