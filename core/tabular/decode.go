package tabular

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"reconciler/core/failure"
	"reconciler/core/table"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffLen is the number of leading bytes inspected to detect the format.
const sniffLen = 3072

// ctxCheckRows is how often spreadsheet iteration checks for cancellation.
const ctxCheckRows = 4096

type format int

const (
	formatUnknown format = iota
	formatEmpty
	formatCSV
	formatXLSX
	formatLegacy
)

// rowReader yields raw rows until io.EOF.
type rowReader interface {
	Next() ([]string, error)
	Close() error
}

// Decode reads f into a table. The first row is the header.
// onProgress, if not nil, receives the read percentage after every chunk.
func Decode(ctx context.Context, f File, cfg Config, onProgress func(float64)) (*table.Table, error) {
	cfg = cfg.withDefaults()

	rows, err := openRows(ctx, f, cfg, onProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	header, err := rows.Next()
	if err == io.EOF {
		return table.New(f.Name, nil), nil
	}
	if err != nil {
		return nil, err
	}

	t := table.New(f.Name, header)
	for {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.AppendRow(row)
	}

	return t, nil
}

// Headers returns the first row of f.
func Headers(ctx context.Context, f File, cfg Config) ([]string, error) {
	rows, err := openRows(ctx, f, cfg.withDefaults(), nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	header, err := rows.Next()
	if err == io.EOF {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return header, nil
}

// Preview returns up to n raw rows of f, header row included.
// A non-positive n uses the configured preview size.
func Preview(ctx context.Context, f File, cfg Config, n int) ([][]string, error) {
	cfg = cfg.withDefaults()
	if n <= 0 {
		n = cfg.PreviewRows
	}

	rows, err := openRows(ctx, f, cfg, nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([][]string, 0, n)
	for len(out) < n {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, append([]string(nil), row...))
	}
	return out, nil
}

func openRows(ctx context.Context, f File, cfg Config, onProgress func(float64)) (rowReader, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("file %s cannot be opened", f.Name)
	}

	rc, err := f.Open(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, failure.Decode(err, "failed to open %s", f.Name)
	}

	cr := newChunkReader(ctx, rc, cfg.ChunkSize, f.Size, onProgress)
	br := bufio.NewReaderSize(cr, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		rc.Close()
		return nil, readError(f.Name, err)
	}

	switch detectFormat(head) {
	case formatEmpty:
		rc.Close()
		return emptyRows{}, nil
	case formatCSV:
		return newCSVRows(br, rc, f.Name, sniffDelimiter(head)), nil
	case formatXLSX:
		return newXLSXRows(ctx, br, rc, f.Name)
	case formatLegacy:
		rc.Close()
		return nil, failure.Decode(nil, "%s is a legacy binary Excel workbook, save it as XLSX or CSV", f.Name)
	default:
		rc.Close()
		return nil, failure.Decode(nil, "%s has unrecognized content (%s)", f.Name, mimetype.Detect(head).String())
	}
}

func detectFormat(head []byte) format {
	if len(head) == 0 {
		return formatEmpty
	}
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		switch {
		case m.Is(MediaTypeXLSX), m.Is("application/zip"):
			return formatXLSX
		case m.Is("application/x-ole-storage"):
			return formatLegacy
		case m.Is("text/plain"):
			return formatCSV
		}
	}
	return formatUnknown
}

// sniffDelimiter picks the most frequent candidate separator on the first line,
// ignoring quoted text. Comma wins ties and is the fallback.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	candidates := []rune{',', ';', '\t', '|'}
	counts := make(map[rune]int, len(candidates))
	inQuotes := false
	for _, r := range string(head) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := ','
	for _, c := range candidates {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func readError(name string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return failure.Decode(err, "failed to read %s", name)
}

type emptyRows struct{}

func (emptyRows) Next() ([]string, error) { return nil, io.EOF }
func (emptyRows) Close() error            { return nil }

type csvRows struct {
	r      *csv.Reader
	closer io.Closer
	name   string
}

func newCSVRows(r io.Reader, closer io.Closer, name string, delimiter rune) *csvRows {
	// Strip a UTF-8 BOM and transcode UTF-16 input; anything else passes through untouched
	// so invalid bytes are still caught below.
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(decoded)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	return &csvRows{r: cr, closer: closer, name: name}
}

func (c *csvRows) Next() ([]string, error) {
	rec, err := c.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, failure.Decode(perr.Err, "%s: line %d", c.name, perr.Line)
		}
		return nil, readError(c.name, err)
	}

	for _, v := range rec {
		if !utf8.ValidString(v) {
			line, _ := c.r.FieldPos(0)
			return nil, failure.Decode(nil, "%s: line %d: invalid UTF-8 text", c.name, line)
		}
	}
	return rec, nil
}

func (c *csvRows) Close() error {
	return c.closer.Close()
}

type xlsxRows struct {
	ctx  context.Context
	wb   *excelize.File
	rows *excelize.Rows
	name string
	seen int
}

func newXLSXRows(ctx context.Context, r io.Reader, closer io.Closer, name string) (rowReader, error) {
	data, err := io.ReadAll(r)
	closer.Close()
	if err != nil {
		return nil, readError(name, err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, failure.Decode(err, "failed to open workbook %s", name)
	}

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		wb.Close()
		return emptyRows{}, nil
	}

	rows, err := wb.Rows(sheets[0])
	if err != nil {
		wb.Close()
		return nil, failure.Decode(err, "failed to read sheet %q of %s", sheets[0], name)
	}

	return &xlsxRows{ctx: ctx, wb: wb, rows: rows, name: name}, nil
}

func (x *xlsxRows) Next() ([]string, error) {
	x.seen++
	if x.seen%ctxCheckRows == 0 {
		if err := x.ctx.Err(); err != nil {
			return nil, err
		}
	}

	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, failure.Decode(err, "failed to read rows of %s", x.name)
		}
		return nil, io.EOF
	}

	cols, err := x.rows.Columns()
	if err != nil {
		return nil, failure.Decode(err, "%s: row %d", x.name, x.seen)
	}
	return cols, nil
}

func (x *xlsxRows) Close() error {
	x.rows.Close()
	return x.wb.Close()
}
