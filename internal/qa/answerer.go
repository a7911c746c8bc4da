package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/retrieval"
)

// Answerer assembles context, asks the QA service and enforces the no-answer
// policy.
type Answerer struct {
	qaCfg  config.QAConfig
	retCfg config.RetrievalConfig
	svc    Service
}

// NewAnswerer creates an Answerer over the given QA service.
func NewAnswerer(cfg *config.Config, svc Service) *Answerer {
	return &Answerer{qaCfg: cfg.QA, retCfg: cfg.Retrieval, svc: svc}
}

// AnswerWithSources answers the question from the given retrieved chunks.
// When the model returns an empty answer, or a confidence below min_score,
// the answer becomes NoAnswerText while the confidence and sources are
// preserved so the caller can still show what was considered.
func (a *Answerer) AnswerWithSources(ctx context.Context, question string, sources []retrieval.RetrievedChunk) (*Result, error) {
	question = CleanQuestion(question, a.retCfg.MaxQuestionChars)
	docContext := TruncateContext(BuildContext(sources), a.qaCfg.MaxContextChars)

	res, err := a.svc.Answer(ctx, question, docContext)
	if err != nil {
		return nil, fmt.Errorf("answering question: %w", err)
	}

	if strings.TrimSpace(res.Answer) == "" || belowFloor(res.Confidence, a.qaCfg.MinScore) {
		return &Result{Answer: NoAnswerText, Confidence: res.Confidence}, nil
	}
	return res, nil
}

func belowFloor(confidence *float64, floor float64) bool {
	return confidence != nil && *confidence < floor
}
