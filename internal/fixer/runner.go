package fixer

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reporter receives per-file results as they are produced and the final
// report once the pass is over.
type Reporter interface {
	// Outcome is called once per file, in list order, as soon as the
	// file's processing finishes.
	Outcome(Result)
	// Done is called exactly once after the last file.
	Done(Report)
}

// Report summarizes one complete pass over the target list.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Results  []Result

	Fixed     int
	Skipped   int
	NoChanges int
	Errors    int
}

// Failed reports whether any file ended in an error outcome.
func (r Report) Failed() bool {
	return r.Errors > 0
}

// Runner drives a single sequential pass over a list of files. Files are
// processed strictly in order, one at a time; a failure on one file never
// stops the pass.
type Runner struct {
	fixer    *Fixer
	reporter Reporter
	logger   *zap.Logger
}

// NewRunner wires a Fixer to a Reporter. The reporter may be nil when the
// caller only wants the returned Report.
func NewRunner(f *Fixer, rep Reporter, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{fixer: f, reporter: rep, logger: logger}
}

// Run processes every named file in order and returns the summary report.
func (r *Runner) Run(files []string) Report {
	report := Report{RunID: uuid.NewString(), Started: time.Now()}
	r.logger.Info("Repair pass starting", zap.String("run_id", report.RunID), zap.Int("targets", len(files)))

	for _, name := range files {
		res := r.fixer.Process(name)
		report.Results = append(report.Results, res)
		switch res.Outcome {
		case OutcomeFixed:
			report.Fixed++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeNoChanges:
			report.NoChanges++
		case OutcomeError:
			report.Errors++
			r.logger.Warn("Target failed", zap.String("file", name), zap.Error(res.Err))
		}
		if r.reporter != nil {
			r.reporter.Outcome(res)
		}
	}

	report.Duration = time.Since(report.Started)
	if r.reporter != nil {
		r.reporter.Done(report)
	}
	r.logger.Info("Repair pass complete",
		zap.String("run_id", report.RunID),
		zap.Int("fixed", report.Fixed),
		zap.Int("skipped", report.Skipped),
		zap.Int("unchanged", report.NoChanges),
		zap.Int("errors", report.Errors),
		zap.Duration("duration", report.Duration))
	return report
}
