package report

import (
	"fmt"
	"io"

	"reconciler/core/reconcile"

	"github.com/olekukonko/tablewriter"
)

// WriteSummary renders the per-kind counts.
func WriteSummary(w io.Writer, l Layout, s reconcile.Summary) error {
	table := tablewriter.NewTable(w)
	table.Header("Result", "Count")

	rows := [][]any{
		{"Missing from " + l.Left, s.MissingLeft},
		{"Missing from " + l.Right, s.MissingRight},
		{"Mismatches", s.Mismatches},
		{"Total", s.Total},
	}
	for _, row := range rows {
		if err := table.Append(row...); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteTable renders up to limit differences. A non-positive limit renders all.
func WriteTable(w io.Writer, l Layout, diffs []reconcile.Difference, limit int) error {
	shown := reconcile.Page(diffs, 0, limit)

	table := tablewriter.NewTable(w)
	table.Header(toCells(l.Header())...)
	for _, d := range shown {
		if err := table.Append(toCells(l.Row(d))...); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if rest := len(diffs) - len(shown); rest > 0 {
		_, err := fmt.Fprintf(w, "... %d more differences not shown\n", rest)
		return err
	}
	return nil
}
