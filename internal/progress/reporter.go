// Package progress reports build pipeline progress to the terminal or,
// when running under CI, as plain log lines.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress events while documents move through the
// chunk, embed and index stages.
type Reporter interface {
	// Start announces how many documents will be built.
	Start(total int)
	// Doc marks the start of the i-th document (zero-based).
	Doc(i int, docID string)
	// Stage names the pipeline stage currently running for the document.
	Stage(stage string)
	// Finish reports how many documents were built and how many failed.
	Finish(built, failed int)
}

// NewReporter picks a reporter for the current environment: plain log
// lines under CI, a progress bar otherwise.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays an interactive progress bar.
type TerminalReporter struct {
	bar   *progressbar.ProgressBar
	docID string
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Building documents"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Doc(i int, docID string) {
	r.docID = shortID(docID)
	if r.bar != nil {
		r.bar.Describe(r.docID)
		_ = r.bar.Set(i)
	}
}

func (r *TerminalReporter) Stage(stage string) {
	if r.bar != nil {
		r.bar.Describe(fmt.Sprintf("%s %s", r.docID, stage))
	}
}

func (r *TerminalReporter) Finish(built, failed int) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "built %d document(s), %d failed\n", built, failed)
	}
}

// CIReporter prints one line per event, suitable for CI logs.
type CIReporter struct {
	total   int
	current int
}

func (r *CIReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(os.Stderr, "building %d document(s)\n", total)
}

func (r *CIReporter) Doc(i int, docID string) {
	r.current = i + 1
	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", r.current, r.total, docID)
}

func (r *CIReporter) Stage(stage string) {
	fmt.Fprintf(os.Stderr, "[%d/%d]   %s\n", r.current, r.total, stage)
}

func (r *CIReporter) Finish(built, failed int) {
	fmt.Fprintf(os.Stderr, "build complete: %d built, %d failed\n", built, failed)
}

// shortID abbreviates a doc id for bar descriptions.
func shortID(docID string) string {
	if len(docID) > 12 {
		return docID[:12]
	}
	return docID
}
