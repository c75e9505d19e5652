package report

import (
	"fmt"
	"io"

	"reconciler/core/reconcile"

	"github.com/xuri/excelize/v2"
)

const (
	differencesSheet = "Differences"
	summarySheet     = "Summary"
)

// WriteXLSX writes a workbook with a summary sheet and one row per difference.
func WriteXLSX(w io.Writer, l Layout, diffs []reconcile.Difference) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	s := reconcile.Summarize(diffs, l.Left, l.Right)
	summary := [][]any{
		{"Left", l.Left},
		{"Right", l.Right},
		{"Key", l.Selection.Key},
		{"Differences", s.Total},
		{"Missing from " + l.Left, s.MissingLeft},
		{"Missing from " + l.Right, s.MissingRight},
		{"Mismatches", s.Mismatches},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if _, err := f.NewSheet(differencesSheet); err != nil {
		return fmt.Errorf("failed to add differences sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(differencesSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(l.Header())); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, d := range diffs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, toCells(l.Row(d))); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush differences: %w", err)
	}

	return f.Write(w)
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
