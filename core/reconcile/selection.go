package reconcile

import (
	"strings"

	"reconciler/core/failure"
	"reconciler/core/table"
)

// Selection names the key field used for matching and the fields checked for equality.
type Selection struct {
	Key     string   `json:"key"`
	Compare []string `json:"compare"`
}

// Normalize trims names, drops blank and repeated compare fields, and keeps their order.
func (s Selection) Normalize() Selection {
	out := Selection{Key: strings.TrimSpace(s.Key)}
	seen := make(map[string]struct{}, len(s.Compare))
	for _, f := range s.Compare {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out.Compare = append(out.Compare, f)
	}
	return out
}

// Validate checks the selection on its own.
func (s Selection) Validate() error {
	if s.Key == "" {
		return failure.Selection("a key field is required")
	}
	if len(s.Compare) == 0 {
		return failure.Selection("at least one compare field is required")
	}
	return nil
}

// ValidateFor checks that every selected field exists in both headers.
func (s Selection) ValidateFor(a, b *table.Table) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, t := range []*table.Table{a, b} {
		if !t.HasField(s.Key) {
			return failure.Selection("key field %q not found in %s", s.Key, t.Source)
		}
		for _, f := range s.Compare {
			if !t.HasField(f) {
				return failure.Selection("compare field %q not found in %s", f, t.Source)
			}
		}
	}
	return nil
}
