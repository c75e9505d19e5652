package report

import (
	"strings"

	"reconciler/core/reconcile"
)

// Layout describes one comparison for rendering.
type Layout struct {
	Left      string
	Right     string
	Selection reconcile.Selection
}

// Header returns the column names of Rows.
func (l Layout) Header() []string {
	header := []string{"Type", "Key", "Missing From", "Fields"}
	for _, f := range l.Selection.Compare {
		header = append(header, f+" ("+l.Left+")", f+" ("+l.Right+")")
	}
	return header
}

// Row flattens d. Values from the side lacking the record are left empty.
func (l Layout) Row(d reconcile.Difference) []string {
	row := []string{string(d.Type), d.Key, d.Source, strings.Join(d.Fields, ", ")}

	left, right := d.Details[l.Left], d.Details[l.Right]
	for _, f := range l.Selection.Compare {
		row = append(row, left.Get(f), right.Get(f))
	}
	return row
}

// Rows flattens every difference.
func (l Layout) Rows(diffs []reconcile.Difference) [][]string {
	rows := make([][]string, 0, len(diffs))
	for _, d := range diffs {
		rows = append(rows, l.Row(d))
	}
	return rows
}
