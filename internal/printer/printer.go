// Package printer writes colored status lines for interactive commands.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes status lines to w. Color follows color.NoColor, which is
// set when w is not a terminal or NO_COLOR is present.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Success prints a green line with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintln(p.w, prefixed("✓", fmt.Sprintf(format, a...)))
}

// Warning prints a yellow line with a warning prefix.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintln(p.w, prefixed("!", fmt.Sprintf(format, a...)))
}

// Error prints a bold red line.
func (p *Printer) Error(format string, a ...any) {
	red.Fprintln(p.w, prefixed("✗", fmt.Sprintf(format, a...)))
}

// Step prints a cyan line for one stage of a multi-step operation.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintln(p.w, prefixed("→", fmt.Sprintf(format, a...)))
}

func prefixed(mark, msg string) string {
	msg = strings.TrimRight(msg, "\n")
	if strings.HasPrefix(msg, mark) {
		return msg
	}
	return mark + " " + msg
}
