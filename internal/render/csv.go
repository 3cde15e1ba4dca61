package render

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/falobo92/ADC2/internal/schema"
)

type csvRenderer struct{}

// Render writes each section's grid; sections are separated by an empty
// record. Sections without a grid emit their notes, one per line.
func (r *csvRenderer) Render(report *schema.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, s := range sections(report) {
		if i > 0 {
			if err := w.Write([]string{""}); err != nil {
				return nil, err
			}
		}
		rows := s.Rows
		if len(s.Header) > 0 {
			rows = append([][]string{s.Header}, rows...)
		} else {
			for _, n := range s.Notes {
				rows = append(rows, []string{n})
			}
		}
		if err := w.WriteAll(rows); err != nil {
			return nil, fmt.Errorf("rendering csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("rendering csv: %w", err)
	}
	return buf.Bytes(), nil
}
