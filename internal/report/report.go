// Package report renders per-file outcomes on standard output in the
// fixed line format that calling scripts parse, and logs repair detail
// through the structured logger when verbose diagnostics are enabled.
package report

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"mojifix/internal/diff"
	"mojifix/internal/fixer"
)

// CompletionMarker is the final line printed after every pass, whatever
// the per-file outcomes were.
const CompletionMarker = "All files processed!"

// Writer prints one status line per processed file, then a blank line and
// the completion marker. The line format is stable; do not change it
// without updating everything that scrapes it.
type Writer struct {
	out     io.Writer
	logger  *zap.Logger
	engine  *diff.Engine
	verbose bool
}

// NewWriter returns a Writer emitting status lines to out. When verbose is
// set, each repaired file also gets a per-line change log on the logger.
func NewWriter(out io.Writer, logger *zap.Logger, verbose bool) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		out:     out,
		logger:  logger,
		engine:  diff.NewEngine(),
		verbose: verbose,
	}
}

// Outcome prints the status line for one processed file.
func (w *Writer) Outcome(res fixer.Result) {
	switch res.Outcome {
	case fixer.OutcomeSkipped:
		fmt.Fprintf(w.out, "SKIPPED: %s (not found)\n", res.File)
	case fixer.OutcomeFixed:
		fmt.Fprintf(w.out, "FIXED: %s\n", res.File)
		if w.verbose {
			w.logChanges(res)
		}
	case fixer.OutcomeNoChanges:
		fmt.Fprintf(w.out, "NO CHANGES: %s\n", res.File)
	case fixer.OutcomeError:
		fmt.Fprintf(w.out, "ERROR: %s - %v\n", res.File, res.Err)
	}
}

// Done prints the completion marker.
func (w *Writer) Done(fixer.Report) {
	fmt.Fprintf(w.out, "\n%s\n", CompletionMarker)
}

// logChanges logs each repaired line with the fragments that changed on
// it. Diagnostics go to the logger only, never to the status stream.
func (w *Writer) logChanges(res fixer.Result) {
	for _, ch := range w.engine.ChangedLines(res.Before, res.After) {
		removed, added := w.engine.Fragments(ch.Before, ch.After)
		w.logger.Debug("Line repaired",
			zap.String("file", res.File),
			zap.Int("line", ch.Line),
			zap.Strings("removed", removed),
			zap.Strings("added", added))
	}
	w.logger.Debug("File repaired",
		zap.String("file", res.File),
		zap.String("encoding", res.Encoding),
		zap.Int("replacements", res.Stats.Total))
}
