package table

// Record is a single row keyed by header name.
type Record map[string]string

// Get returns the value of a field, or "" when the cell is empty or the field is absent.
func (r Record) Get(field string) string {
	return r[field]
}

// Table is an ordered sequence of records sharing the same header.
type Table struct {
	// Source identifies the file the table was decoded from (usually the file name).
	Source string `json:"source"`

	// Header holds the field names in column order.
	Header []string `json:"header"`

	// Records holds the data rows in file order.
	Records []Record `json:"records"`
}

// New creates an empty table with the given source identifier and header.
func New(source string, header []string) *Table {
	return &Table{
		Source:  source,
		Header:  append([]string(nil), header...),
		Records: []Record{},
	}
}

// AppendRow converts a raw row into a Record and appends it.
// Cells are matched to header names by position; a later column with the same name
// overwrites an earlier one. Cells beyond the header, cells under an unnamed column and
// empty cells are dropped.
// Fully blank rows are skipped. It reports whether a record was appended.
func (t *Table) AppendRow(row []string) bool {
	rec := make(Record, len(t.Header))
	for i, name := range t.Header {
		if i >= len(row) {
			break
		}
		if name == "" {
			continue
		}
		if row[i] == "" {
			// Still shadow an earlier column of the same name.
			delete(rec, name)
			continue
		}
		rec[name] = row[i]
	}
	if len(rec) == 0 {
		return false
	}
	t.Records = append(t.Records, rec)
	return true
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasField reports whether name is one of the header fields.
func (t *Table) HasField(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// SizeBytes estimates the memory held by the table.
// The estimate counts string payloads plus a fixed per-entry overhead and is only meant
// for cache accounting.
func (t *Table) SizeBytes() int64 {
	if t == nil {
		return 0
	}
	const (
		stringOverhead = 16
		entryOverhead  = 48
	)
	size := int64(len(t.Source) + stringOverhead)
	for _, h := range t.Header {
		size += int64(len(h) + stringOverhead)
	}
	for _, rec := range t.Records {
		size += entryOverhead
		for k, v := range rec {
			size += int64(len(k)+len(v)) + 2*stringOverhead
		}
	}
	return size
}
