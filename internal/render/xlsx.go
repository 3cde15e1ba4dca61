package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/falobo92/ADC2/internal/schema"
)

type xlsxRenderer struct{}

const summarySheet = "Resumen"

// Render writes one sheet per section plus a summary sheet holding the
// narrative lines and run metadata.
func (r *xlsxRenderer) Render(report *schema.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rendering xlsx: %w", err)
	}
	summary := [][]any{
		{"Run", report.RunID},
		{"Scope", report.Input.Scope},
		{"Records", report.Input.RecordCount},
		{"Generated", report.Meta.GeneratedAt},
		{},
	}

	for _, s := range sections(report) {
		summary = append(summary, []any{s.Title})
		for _, n := range s.Notes {
			summary = append(summary, []any{n})
		}
		if len(s.Header) == 0 {
			continue
		}
		if _, err := f.NewSheet(s.Name); err != nil {
			return nil, fmt.Errorf("rendering xlsx: %w", err)
		}
		if err := writeRows(f, s.Name, append([][]string{s.Header}, s.Rows...)); err != nil {
			return nil, err
		}
	}

	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("rendering xlsx: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("rendering xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("rendering xlsx sheet %s: %w", sheet, err)
		}
	}
	return nil
}
