// Package progress renders ingestion feedback on stderr; stdout is
// reserved for command output.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives one Step per processed document.
type Reporter interface {
	Start(total int)
	Step(label string)
	Finish()
}

// NewReporter picks a terminal progress bar, or plain line output when
// running under CI.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &lineReporter{}
	}
	return &barReporter{}
}

type barReporter struct {
	bar *progressbar.ProgressBar
}

func (r *barReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("ingest"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) Step(label string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(label)
	_ = r.bar.Add(1)
}

func (r *barReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// lineReporter prints one line per document, which reads better in CI
// logs than bar redraw escapes.
type lineReporter struct {
	total int
	done  int
}

func (r *lineReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(os.Stderr, "ingesting %d documents\n", total)
}

func (r *lineReporter) Step(label string) {
	r.done++
	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", r.done, r.total, label)
}

func (r *lineReporter) Finish() {
	fmt.Fprintf(os.Stderr, "processed %d of %d documents\n", r.done, r.total)
}
