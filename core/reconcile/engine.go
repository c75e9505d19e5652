package reconcile

import (
	"context"

	"reconciler/core/table"
)

// Identifiers returns the labels used for a and b in Difference.Source and
// Difference.Details.
func Identifiers(a, b *table.Table) (left, right string) {
	return Labels(a.Source, b.Source)
}

// Labels derives table identifiers from source names. Identical names get a "#2"
// suffix on the right-hand side.
func Labels(leftSource, rightSource string) (left, right string) {
	left, right = leftSource, rightSource
	if left == "" {
		left = "A"
	}
	if right == "" {
		right = "B"
	}
	if left == right {
		right += "#2"
	}
	return left, right
}

// Reconcile compares a against b on sel.Key and returns every difference, left-table
// rows first, then right-table rows whose key never appeared on the left.
func Reconcile(ctx context.Context, a, b *table.Table, sel Selection, opts Options) ([]Difference, error) {
	sel = sel.Normalize()
	if err := sel.ValidateFor(a, b); err != nil {
		return nil, err
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	progress := opts.OnProgress
	if progress == nil {
		progress = func(int) {}
	}

	left, right := Identifiers(a, b)

	// First occurrence wins on duplicate right-hand keys.
	index := make(map[string]table.Record, len(b.Records))
	for _, rec := range b.Records {
		k := rec.Get(sel.Key)
		if _, ok := index[k]; !ok {
			index[k] = rec
		}
	}

	var diffs []Difference
	processed := make(map[string]struct{}, len(a.Records))
	total := len(a.Records)

	for start := 0; start < total; start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+batchSize, total)
		for _, rec := range a.Records[start:end] {
			k := rec.Get(sel.Key)
			processed[k] = struct{}{}

			match, ok := index[k]
			if !ok {
				diffs = append(diffs, Difference{
					Type:    DiffMissing,
					Key:     k,
					Source:  right,
					Details: map[string]table.Record{left: rec},
				})
				continue
			}

			if fields := differingFields(rec, match, sel.Compare); len(fields) > 0 {
				diffs = append(diffs, Difference{
					Type:    DiffMismatch,
					Key:     k,
					Fields:  fields,
					Details: map[string]table.Record{left: rec, right: match},
				})
			}
		}

		progress(end * 90 / total)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, rec := range b.Records {
		k := rec.Get(sel.Key)
		if _, seen := processed[k]; seen {
			continue
		}
		diffs = append(diffs, Difference{
			Type:    DiffMissing,
			Key:     k,
			Source:  left,
			Details: map[string]table.Record{right: rec},
		})
	}

	progress(100)
	return diffs, nil
}

func differingFields(a, b table.Record, fields []string) []string {
	var out []string
	for _, f := range fields {
		if a.Get(f) != b.Get(f) {
			out = append(out, f)
		}
	}
	return out
}

// Summarize counts diffs by kind. left and right are the identifiers returned by Identifiers.
func Summarize(diffs []Difference, left, right string) Summary {
	s := Summary{Total: len(diffs)}
	for _, d := range diffs {
		switch {
		case d.Type == DiffMismatch:
			s.Mismatches++
		case d.Source == left:
			s.MissingLeft++
		case d.Source == right:
			s.MissingRight++
		}
	}
	return s
}

// Page returns diffs[offset:offset+limit] clamped to the slice bounds.
// A non-positive limit returns everything after offset.
func Page(diffs []Difference, offset, limit int) []Difference {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(diffs) {
		return []Difference{}
	}
	end := len(diffs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return diffs[offset:end]
}
