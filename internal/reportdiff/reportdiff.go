// Package reportdiff compares a previously rendered report with the current
// one and emits a diff-match-patch text patch.
package reportdiff

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// volatile marks lines that change on every run and are left out of the diff.
var volatile = []string{`"run_id"`, `"generated_at"`, "*Run:", "Run,", "Generated,"}

// Stats counts the lines added and removed between two reports.
type Stats struct {
	Added   int
	Removed int
}

// Changed reports whether any line differs.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Removed > 0
}

// GenerateDiff returns a line-level patch turning baseline into current.
// Both are normalized first so whitespace and per-run metadata do not show
// up as changes. It returns "" when the reports are equivalent. A summary
// line is written to w (may be nil).
func GenerateDiff(baseline, current string, w io.Writer) (string, Stats) {
	before := normalize(baseline)
	after := normalize(current)

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var stats Stats
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Added += n
		case diffmatchpatch.DiffDelete:
			stats.Removed += n
		}
	}
	if w != nil {
		fmt.Fprintf(w, "report diff: +%d -%d lines\n", stats.Added, stats.Removed)
	}
	if !stats.Changed() {
		return "", stats
	}

	patchText := dmp.PatchToText(dmp.PatchMake(before, diffs))
	return patchText, stats
}

// normalize trims trailing whitespace, converts CRLF to LF, drops volatile
// lines and guarantees a trailing newline.
func normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if isVolatile(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n"
}

func isVolatile(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, v := range volatile {
		if strings.HasPrefix(trimmed, v) {
			return true
		}
	}
	return false
}
