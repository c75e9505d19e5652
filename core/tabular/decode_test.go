package tabular

import (
	"context"
	"strings"
	"testing"

	"reconciler/core/failure"
	"reconciler/core/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_CSV(t *testing.T) {
	data := "id,date,amount,payee\n1,2023-01-01,100,Alice\n2,2023-01-02,200,Bob\n\n3,2023-01-03,,Charlie\n"
	f := memFile("bank.csv", MediaTypeCSV, []byte(data))

	tbl, err := Decode(context.Background(), f, Config{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "bank.csv", tbl.Source)
	assert.Equal(t, []string{"id", "date", "amount", "payee"}, tbl.Header)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, table.Record{"id": "1", "date": "2023-01-01", "amount": "100", "payee": "Alice"}, tbl.Records[0])
	assert.Equal(t, table.Record{"id": "3", "date": "2023-01-03", "payee": "Charlie"}, tbl.Records[2])
}

func TestDecode_CSVChunkBoundaries(t *testing.T) {
	// A quoted field with an embedded newline must survive any chunk split.
	data := "id,note\n1,\"first line\nsecond line\"\n2,\"a, b\"\n3,plain\n"

	for _, chunk := range []int{1, 3, 7, 16, 1024} {
		f := memFile("notes.csv", MediaTypeCSV, []byte(data))

		var calls []float64
		tbl, err := Decode(context.Background(), f, Config{ChunkSize: chunk}, func(p float64) {
			calls = append(calls, p)
		})
		require.NoError(t, err, "chunk size %d", chunk)
		require.Equal(t, 3, tbl.Len(), "chunk size %d", chunk)
		assert.Equal(t, "first line\nsecond line", tbl.Records[0]["note"])
		assert.Equal(t, "a, b", tbl.Records[1]["note"])
		assert.Equal(t, "plain", tbl.Records[2]["note"])

		require.NotEmpty(t, calls)
		assert.Equal(t, float64(100), calls[len(calls)-1])
		for i := 1; i < len(calls); i++ {
			assert.GreaterOrEqual(t, calls[i], calls[i-1])
		}
		wantCalls := (len(data) + chunk - 1) / chunk
		assert.Len(t, calls, wantCalls, "chunk size %d", chunk)
	}
}

func TestDecode_CSVSemicolonAndBOM(t *testing.T) {
	data := "\xEF\xBB\xBFid;montant;beneficiaire\n1;100;Alice\n2;250,50;Bob\n"
	f := memFile("export.csv", MediaTypeXLS, []byte(data))

	tbl, err := Decode(context.Background(), f, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "montant", "beneficiaire"}, tbl.Header)
	assert.Equal(t, "250,50", tbl.Records[1]["montant"])
}

func TestDecode_CSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"InvalidUTF8", "id,name\n1,\xff\xfe\xfdabc\n", "invalid UTF-8"},
		{"BareQuote", "id,name\n1,\"unterminated\n2,x\n", "line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := memFile("bad.csv", MediaTypeCSV, []byte(tt.data))
			_, err := Decode(context.Background(), f, Config{}, nil)
			require.Error(t, err)
			assert.Equal(t, failure.KindDecode, failure.KindOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	f := memFile("empty.csv", MediaTypeCSV, nil)
	tbl, err := Decode(context.Background(), f, Config{}, nil)
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Zero(t, tbl.Len())
}

func TestDecode_HeaderOnly(t *testing.T) {
	f := memFile("h.csv", MediaTypeCSV, []byte("id,amount\n"))
	tbl, err := Decode(context.Background(), f, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount"}, tbl.Header)
	assert.Zero(t, tbl.Len())
}

func TestDecode_XLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"id", "date", "montant", "beneficiaire"},
		{1, "2023-01-01", 100, "Alice"},
		{2, "2023-01-02", 250, "Bob"},
		{5, "2023-01-05", 500, "Eve"},
	})
	f := memFile("db_data.xlsx", MediaTypeXLSX, data)

	var last float64
	tbl, err := Decode(context.Background(), f, Config{ChunkSize: 512}, func(p float64) { last = p })
	require.NoError(t, err)

	assert.Equal(t, float64(100), last)
	assert.Equal(t, []string{"id", "date", "montant", "beneficiaire"}, tbl.Header)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, table.Record{"id": "2", "date": "2023-01-02", "montant": "250", "beneficiaire": "Bob"}, tbl.Records[1])
}

func TestDecode_CorruptWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]any{{"id"}, {1}})
	truncated := data[:len(data)/2]

	f := memFile("broken.xlsx", MediaTypeXLSX, truncated)
	_, err := Decode(context.Background(), f, Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, failure.KindDecode, failure.KindOf(err))
}

func TestDecode_LegacyWorkbook(t *testing.T) {
	ole := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 600)...)
	f := memFile("old.xls", MediaTypeXLS, ole)

	_, err := Decode(context.Background(), f, Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, failure.KindDecode, failure.KindOf(err))
	assert.Contains(t, err.Error(), "legacy")
}

func TestDecode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := memFile("a.csv", MediaTypeCSV, []byte("id\n1\n"))
	_, err := Decode(ctx, f, Config{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeaders(t *testing.T) {
	csvFile := memFile("a.csv", MediaTypeCSV, []byte("id,amount\n1,100\n"))
	h, err := Headers(context.Background(), csvFile, Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount"}, h)

	xlsxFile := memFile("b.xlsx", MediaTypeXLSX, buildWorkbook(t, [][]any{{"key", "value"}, {"k", 1}}))
	h, err = Headers(context.Background(), xlsxFile, Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "value"}, h)

	h, err = Headers(context.Background(), memFile("e.csv", MediaTypeCSV, nil), Config{})
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestPreview(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("id,amount\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("1,2\n")
	}
	f := memFile("a.csv", MediaTypeCSV, []byte(sb.String()))

	rows, err := Preview(context.Background(), f, Config{}, 0)
	require.NoError(t, err)
	assert.Len(t, rows, DefaultPreviewRows)
	assert.Equal(t, []string{"id", "amount"}, rows[0])

	rows, err = Preview(context.Background(), f, Config{}, 50)
	require.NoError(t, err)
	assert.Len(t, rows, 21)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, formatEmpty, detectFormat(nil))
	assert.Equal(t, formatCSV, detectFormat([]byte("a,b\n1,2\n")))
	assert.Equal(t, formatXLSX, detectFormat(buildWorkbook(t, [][]any{{"a"}})))
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1;2;3")))
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ',', sniffDelimiter([]byte("\"x;y;z\",b\n")))
	assert.Equal(t, ',', sniffDelimiter([]byte("single")))
}
