// Package mojibake defines the replacement table for superscript-two unit
// abbreviations corrupted by a code page 437 round trip, and applies it to
// text.
//
// The corruption: "²" is 0xC2 0xB2 in UTF-8. Rendered and re-saved under
// CP437 (the Windows OEM console codepage), those two bytes become the two
// characters "┬" (0xC2) and "▓" (0xB2), so "mm²" in a report file turns
// into "mm┬▓". The table maps each corrupted unit abbreviation back to its
// clean form.
package mojibake

import (
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// SuperscriptTwo is the glyph whose UTF-8 bytes produced the mojibake.
const SuperscriptTwo = "²"

// defaultUnits are the unit abbreviations the repair covers.
var defaultUnits = []string{"m", "mm", "cm", "in", "ft"}

// CorruptForm returns the mojibake rendering of s: its UTF-8 bytes
// re-decoded one at a time through code page 437, the same path the real
// corruption took.
func CorruptForm(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		b.WriteRune(charmap.CodePage437.DecodeByte(c))
	}
	return b.String()
}

// Entry maps one corrupted unit abbreviation to its repaired form.
type Entry struct {
	Unit    string // unit label, e.g. "mm"
	Corrupt string // mojibake form, e.g. "mm┬▓"
	Fixed   string // repaired form, e.g. "mm²"
}

// Table is an ordered replacement table. Entries are kept sorted with the
// longest corrupted pattern first: "m┬▓" is a suffix of "mm┬▓", and matching
// the shorter pattern first would leave artifacts like "m²m" behind.
type Table struct {
	entries []Entry
}

// NewTable builds a table covering the given unit abbreviations. The
// corrupted form of each entry is derived from its clean form via CP437
// rather than spelled out, so the table documents its own provenance.
func NewTable(units ...string) Table {
	entries := make([]Entry, 0, len(units))
	for _, u := range units {
		fixed := u + SuperscriptTwo
		entries = append(entries, Entry{
			Unit:    u,
			Corrupt: CorruptForm(fixed),
			Fixed:   fixed,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Corrupt) != len(entries[j].Corrupt) {
			return len(entries[i].Corrupt) > len(entries[j].Corrupt)
		}
		return entries[i].Corrupt < entries[j].Corrupt
	})
	return Table{entries: entries}
}

// Default returns the table for the five unit abbreviations the report
// generator emits: m², mm², cm², in², ft².
func Default() Table {
	return NewTable(defaultUnits...)
}

// Entries returns the table contents in match order (longest corrupted
// pattern first).
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Stats records the replacements performed by one Repair call.
type Stats struct {
	PerUnit map[string]int
	Total   int
}

// Repair applies the table to s in a single left-to-right pass, always
// matching the longest corrupted pattern at the current position. Matches
// never overlap, and repaired output contains no corrupted pattern, so
// Repair is idempotent.
func (t Table) Repair(s string) (string, Stats) {
	stats := Stats{PerUnit: make(map[string]int)}

	if !t.touches(s) {
		return s, stats
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		e, ok := t.matchAt(s, i)
		if !ok {
			b.WriteByte(s[i])
			i++
			continue
		}
		b.WriteString(e.Fixed)
		stats.PerUnit[e.Unit]++
		stats.Total++
		i += len(e.Corrupt)
	}
	return b.String(), stats
}

// touches reports whether any corrupted pattern occurs in s at all.
func (t Table) touches(s string) bool {
	for _, e := range t.entries {
		if strings.Contains(s, e.Corrupt) {
			return true
		}
	}
	return false
}

// matchAt returns the longest entry whose corrupted form starts at s[i:].
func (t Table) matchAt(s string, i int) (Entry, bool) {
	for _, e := range t.entries {
		if strings.HasPrefix(s[i:], e.Corrupt) {
			return e, true
		}
	}
	return Entry{}, false
}
