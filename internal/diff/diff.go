// Package diff extracts line-level changes between two versions of a
// file's content using the sergi/go-diff engine.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change describes one line that differs between the old and new content.
// Line is 1-based and counted against the old content. Repairs substitute
// text in place, so a changed line carries both its Before and After text;
// a line only present on one side leaves the other field empty.
type Change struct {
	Line   int
	Before string
	After  string
}

// Engine computes line-level changes. Use NewEngine; the zero value has no
// underlying differ.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine returns an engine tuned for exact diffs.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // Disable timeout for accuracy
	return &Engine{dmp: dmp}
}

// DefaultEngine is a singleton engine for general use.
var DefaultEngine = NewEngine()

// ChangedLines is a convenience function using the default engine.
func ChangedLines(before, after string) []Change {
	return DefaultEngine.ChangedLines(before, after)
}

// ChangedLines reports every line whose content differs between before and
// after. A deleted run followed by an inserted run is paired positionally,
// so an in-place substitution shows up as one Change with both versions.
func (e *Engine) ChangedLines(before, after string) []Change {
	if before == after {
		return nil
	}

	// Line-level reduction avoids newline boundary artifacts when
	// converting to line ops.
	a, b, lineArray := e.dmp.DiffLinesToChars(before, after)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	var changes []Change
	oldLine := 1
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldLine += len(splitLines(d.Text))

		case diffmatchpatch.DiffDelete:
			removed := splitLines(d.Text)
			var added []string
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				added = splitLines(diffs[i+1].Text)
				i++
			}
			for j, line := range removed {
				ch := Change{Line: oldLine + j, Before: line}
				if j < len(added) {
					ch.After = added[j]
				}
				changes = append(changes, ch)
			}
			for j := len(removed); j < len(added); j++ {
				changes = append(changes, Change{Line: oldLine + len(removed), After: added[j]})
			}
			oldLine += len(removed)

		case diffmatchpatch.DiffInsert:
			for _, line := range splitLines(d.Text) {
				changes = append(changes, Change{Line: oldLine, After: line})
			}
		}
	}
	return changes
}

// Fragments returns the texts removed from and added to a single line, in
// order. It is useful for showing exactly which tokens a substitution
// touched.
func (e *Engine) Fragments(before, after string) (removed, added []string) {
	diffs := e.dmp.DiffMain(before, after, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			removed = append(removed, d.Text)
		case diffmatchpatch.DiffInsert:
			added = append(added, d.Text)
		}
	}
	return removed, added
}

// splitLines splits on newlines, dropping the empty trailing element that
// a terminating newline produces.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
