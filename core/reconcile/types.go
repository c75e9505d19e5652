package reconcile

import "reconciler/core/table"

// DiffType tells the two kinds of difference apart.
type DiffType string

const (
	// DiffMissing marks a record present in one table only.
	DiffMissing DiffType = "missing"
	// DiffMismatch marks a matched pair whose compare fields differ.
	DiffMismatch DiffType = "mismatch"
)

// Difference is one reconciliation finding.
type Difference struct {
	// Type is either DiffMissing or DiffMismatch.
	Type DiffType `json:"type"`

	// Key is the key field value of the record(s) described.
	Key string `json:"key"`

	// Source is the identifier of the table that lacks the record.
	// Only set for DiffMissing.
	Source string `json:"source,omitempty"`

	// Fields lists the differing compare fields in selection order.
	// Only set for DiffMismatch.
	Fields []string `json:"fields,omitempty"`

	// Details maps table identifier to the full record from that table.
	// Missing differences carry one entry, mismatches carry two.
	Details map[string]table.Record `json:"details"`
}

// Summary provides aggregate counts over a result set.
type Summary struct {
	// Total is the number of differences.
	Total int `json:"total"`

	// MissingLeft counts records present only in the right-hand table.
	MissingLeft int `json:"missing_left"`

	// MissingRight counts records present only in the left-hand table.
	MissingRight int `json:"missing_right"`

	// Mismatches counts matched records with differing fields.
	Mismatches int `json:"mismatches"`
}

// Options controls a single Reconcile call.
type Options struct {
	// BatchSize is the number of left-hand rows processed between progress
	// reports and cancellation checks. Zero or negative means DefaultBatchSize.
	BatchSize int

	// OnProgress receives the completion percentage. It may be nil.
	OnProgress func(percent int)
}
