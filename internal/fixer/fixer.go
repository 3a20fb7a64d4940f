// Package fixer applies the mojibake repair pipeline to individual files:
// stat, read, decode, repair, and write back as UTF-8 when the content
// changed. Every failure is absorbed into the per-file result so one bad
// file never interrupts the rest of a run.
package fixer

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"mojifix/internal/decode"
	"mojifix/internal/mojibake"
)

// Outcome classifies the terminal state of one processed file. The four
// outcomes are mutually exclusive.
type Outcome string

const (
	// OutcomeSkipped means the file could not be found, so nothing was done.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFixed means corruption was found and the repaired content was
	// written back.
	OutcomeFixed Outcome = "fixed"
	// OutcomeNoChanges means the file decoded cleanly and contained no
	// corruption; it was not touched on disk.
	OutcomeNoChanges Outcome = "no-changes"
	// OutcomeError means reading, decoding, or writing failed.
	OutcomeError Outcome = "error"
)

// Result records what happened to a single file.
type Result struct {
	// File is the name exactly as it appeared in the target list.
	File string
	// Path is the resolved location that was checked on disk.
	Path string
	// Outcome is the terminal classification for this file.
	Outcome Outcome
	// Encoding names the decoder that accepted the content ("utf-16" or
	// "utf-8"). Empty when the file was skipped or undecodable.
	Encoding string
	// Stats counts the replacements made, keyed by unit.
	Stats mojibake.Stats
	// Before and After hold the decoded content around the repair. They
	// are populated only for OutcomeFixed, for change reporting.
	Before string
	After  string
	// Err carries the failure for OutcomeError.
	Err error
}

// Fixer repairs one file at a time against a fixed decoder chain and
// replacement table.
type Fixer struct {
	workspace string
	chain     decode.Chain
	table     mojibake.Table
	logger    *zap.Logger
}

// New returns a Fixer that resolves relative names against workspace and
// uses the default decoder chain and replacement table.
func New(workspace string, logger *zap.Logger) *Fixer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fixer{
		workspace: workspace,
		chain:     decode.Default(),
		table:     mojibake.Default(),
		logger:    logger,
	}
}

// Process runs the full pipeline on one file and reports the outcome.
// It never returns an error; failures are captured on the Result.
func (f *Fixer) Process(name string) Result {
	res := Result{File: name, Path: f.resolve(name)}

	// Existence check. Any stat failure counts as absent, matching the
	// way a plain exists-check behaves on unreadable paths.
	if _, err := os.Stat(res.Path); err != nil {
		res.Outcome = OutcomeSkipped
		f.logger.Debug("Target not found", zap.String("file", name), zap.String("path", res.Path))
		return res
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = fmt.Errorf("read: %w", err)
		return res
	}

	text, enc, err := f.chain.Decode(data)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = err
		return res
	}
	res.Encoding = enc
	f.logger.Debug("Decoded target", zap.String("file", name), zap.String("encoding", enc), zap.Int("bytes", len(data)))

	fixed, stats := f.table.Repair(text)
	res.Stats = stats
	if fixed == text {
		res.Outcome = OutcomeNoChanges
		return res
	}

	// Repaired files are normalized to UTF-8 without a BOM regardless of
	// what they decoded from.
	if err := os.WriteFile(res.Path, []byte(fixed), 0644); err != nil {
		res.Outcome = OutcomeError
		res.Err = fmt.Errorf("write: %w", err)
		return res
	}

	res.Outcome = OutcomeFixed
	res.Before = text
	res.After = fixed
	f.logger.Debug("Repaired target",
		zap.String("file", name),
		zap.String("encoding", enc),
		zap.Int("replacements", stats.Total))
	return res
}

func (f *Fixer) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.workspace, name)
}
