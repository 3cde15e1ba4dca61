package render

import (
	"fmt"

	"github.com/falobo92/ADC2/internal/schema"
)

// Renderer formats a Report into bytes for output.
type Renderer interface {
	Render(report *schema.Report) ([]byte, error)
}

// Formats lists the supported output formats.
var Formats = []string{"json", "md", "table", "csv", "xlsx"}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "json" (default), "md", "table", "csv", "xlsx".
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "json":
		return &jsonRenderer{}, nil
	case "md":
		return &markdownRenderer{}, nil
	case "table":
		return &tableRenderer{}, nil
	case "csv":
		return &csvRenderer{}, nil
	case "xlsx":
		return &xlsxRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are json, md, table, csv, xlsx", format)
	}
}

// Binary reports whether format produces non-text output that should not be
// written to a terminal.
func Binary(format string) bool {
	return format == "xlsx"
}
