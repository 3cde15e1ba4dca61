package render

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/falobo92/ADC2/internal/schema"
)

type tableRenderer struct{}

func (r *tableRenderer) Render(report *schema.Report) ([]byte, error) {
	var buf bytes.Buffer
	for i, s := range sections(report) {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintln(&buf, s.Title)
		if len(s.Header) > 0 {
			// Week labels like "S. 23" must reach the terminal verbatim.
			t := tablewriter.NewTable(&buf, tablewriter.WithHeaderAutoFormat(tw.Off))
			header := make([]any, len(s.Header))
			for j, h := range s.Header {
				header[j] = h
			}
			t.Header(header...)
			if err := t.Bulk(s.Rows); err != nil {
				return nil, fmt.Errorf("rendering table: %w", err)
			}
			if err := t.Render(); err != nil {
				return nil, fmt.Errorf("rendering table: %w", err)
			}
		}
		for _, n := range s.Notes {
			fmt.Fprintln(&buf, n)
		}
	}
	return buf.Bytes(), nil
}
