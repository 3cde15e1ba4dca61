package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/falobo92/ADC2/internal/schema"
)

type markdownRenderer struct{}

var mdTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"row": func(cells []string) string { return "| " + strings.Join(cells, " | ") + " |" },
	"rule": func(n int) string {
		return "|" + strings.Repeat(" --- |", n)
	},
}).Parse(`# ADC Progress Report

**Scope:** {{ .Report.Input.Scope }} | **Records:** {{ .Report.Input.RecordCount }} | **Source:** {{ .Report.Input.Source }}
{{ range .Sections }}
---

## {{ .Title }}
{{ if .Header }}
{{ row .Header }}
{{ rule (len .Header) }}
{{ range .Rows }}{{ row . }}
{{ end }}{{ end }}{{ range .Notes }}
{{ . }}
{{ end }}{{ end }}
---
*Run: {{ .Report.RunID }} | Generated: {{ .Report.Meta.GeneratedAt }} | Locale: {{ .Report.Meta.Locale }}*
`))

func (r *markdownRenderer) Render(report *schema.Report) ([]byte, error) {
	data := struct {
		Report   *schema.Report
		Sections []section
	}{report, sections(report)}

	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
