package compare

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"reconciler/core/failure"
	"reconciler/core/reconcile"
	"reconciler/core/storage/mocks"
	"reconciler/core/tablecache"
	"reconciler/core/tabular"
	"reconciler/core/worker"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	leftCSV  = "id,amt\n1,100\n2,200\n3,300\n"
	rightCSV = "id,amt\n1,100\n2,250\n5,500\n"
)

var amountSel = reconcile.Selection{Key: "id", Compare: []string{"amt"}}

func csvFile(name, body string) tabular.File {
	return tabular.File{
		Name:      name,
		Size:      int64(len(body)),
		MediaType: tabular.MediaTypeCSV,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(body))), nil
		},
	}
}

// countingFile counts how often the file is opened.
func countingFile(name, body string, modTime time.Time, opens *int32) tabular.File {
	f := csvFile(name, body)
	f.ModTime = modTime
	open := f.Open
	f.Open = func(ctx context.Context) (io.ReadCloser, error) {
		atomic.AddInt32(opens, 1)
		return open(ctx)
	}
	return f
}

// blockingFile never yields data until its context ends.
func blockingFile(name string) tabular.File {
	f := csvFile(name, "id,amt\n")
	f.Open = func(ctx context.Context) (io.ReadCloser, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f
}

func newTestService(t *testing.T, client *mocks.Client, opts Options) *Service {
	t.Helper()
	cache := tablecache.New(tablecache.Config{}, nil, zap.NewNop())
	host := worker.NewHost(opts.Reconcile.Timeout(), zap.NewNop())
	if client == nil {
		return NewService(nil, "test-bucket", zap.NewNop(), cache, host, opts)
	}
	return NewService(client, "test-bucket", zap.NewNop(), cache, host, opts)
}

func waitFinished(t *testing.T, s *Service, id string) Run {
	t.Helper()
	var run Run
	require.Eventually(t, func() bool {
		var err error
		run, err = s.RunStatus(id)
		require.NoError(t, err)
		return run.Finished()
	}, 5*time.Second, 5*time.Millisecond)
	return run
}

func TestService_DecodeUsesCache(t *testing.T) {
	s := newTestService(t, nil, Options{})
	ctx := context.Background()

	var opens int32
	f := countingFile("a.csv", leftCSV, time.UnixMilli(1000), &opens)

	first, err := s.Decode(ctx, f, nil)
	require.NoError(t, err)
	second, err := s.Decode(ctx, f, nil)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&opens))
}

func TestService_DecodeWithoutModTimeBypassesCache(t *testing.T) {
	s := newTestService(t, nil, Options{})
	ctx := context.Background()

	var opens int32
	f := countingFile("a.csv", leftCSV, time.Time{}, &opens)

	_, err := s.Decode(ctx, f, nil)
	require.NoError(t, err)
	_, err = s.Decode(ctx, f, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&opens))
}

func TestService_HeadersAndPreview(t *testing.T) {
	s := newTestService(t, nil, Options{Decoder: tabular.Config{PreviewRows: 2}})
	ctx := context.Background()

	headers, err := s.Headers(ctx, csvFile("a.csv", leftCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amt"}, headers)

	rows, err := s.Preview(ctx, csvFile("a.csv", leftCSV), 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "amt"}, {"1", "100"}}, rows)

	bad := csvFile("a.pdf", leftCSV)
	bad.MediaType = "application/pdf"
	_, err = s.Headers(ctx, bad)
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))
}

func TestService_Compare(t *testing.T) {
	s := newTestService(t, nil, Options{})

	run, err := s.Compare(context.Background(), CompareRequest{
		Left:      csvFile("a.csv", leftCSV),
		Right:     csvFile("b.csv", rightCSV),
		Selection: amountSel,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	run = waitFinished(t, s, run.ID)
	assert.Equal(t, RunDone, run.State)
	assert.Equal(t, 100, run.Progress)
	require.NotNil(t, run.Summary)
	assert.Equal(t, reconcile.Summary{Total: 3, MissingLeft: 1, MissingRight: 1, Mismatches: 1}, *run.Summary)

	page, err := s.RunPage(run.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Differences, 1)
	assert.Equal(t, "3", page.Differences[0].Key)
	assert.Equal(t, "b.csv", page.Differences[0].Source)
}

func TestService_CompareRejectsSynchronously(t *testing.T) {
	s := newTestService(t, nil, Options{})

	bad := csvFile("b.pdf", rightCSV)
	bad.MediaType = "application/pdf"

	tests := []struct {
		name string
		req  CompareRequest
		kind failure.Kind
	}{
		{
			name: "disallowed media type",
			req:  CompareRequest{Left: csvFile("a.csv", leftCSV), Right: bad, Selection: amountSel},
			kind: failure.KindValidation,
		},
		{
			name: "empty compare set",
			req:  CompareRequest{Left: csvFile("a.csv", leftCSV), Right: csvFile("b.csv", rightCSV), Selection: reconcile.Selection{Key: "id"}},
			kind: failure.KindSelection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned := false
			tt.req.Cleanup = func() { cleaned = true }

			_, err := s.Compare(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, failure.KindOf(err))
			assert.True(t, cleaned)
			assert.Nil(t, s.host.Active())
		})
	}
}

func TestService_CompareFailures(t *testing.T) {
	s := newTestService(t, nil, Options{})

	tests := []struct {
		name  string
		right tabular.File
		sel   reconcile.Selection
		kind  failure.Kind
	}{
		{
			name:  "field missing from header",
			right: csvFile("b.csv", "id,total\n1,1\n"),
			sel:   amountSel,
			kind:  failure.KindSelection,
		},
		{
			name:  "malformed csv",
			right: csvFile("b.csv", "id,amt\n1,\"unterminated\n"),
			sel:   amountSel,
			kind:  failure.KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := s.Compare(context.Background(), CompareRequest{Left: csvFile("a.csv", leftCSV), Right: tt.right, Selection: tt.sel})
			require.NoError(t, err)

			run = waitFinished(t, s, run.ID)
			assert.Equal(t, RunFailed, run.State)
			require.NotNil(t, run.Error)
			assert.Equal(t, tt.kind, run.Error.Kind)
			assert.Nil(t, run.Summary)
		})
	}
}

func TestService_CompareTimeout(t *testing.T) {
	s := newTestService(t, nil, Options{})
	s.host = worker.NewHost(20*time.Millisecond, zap.NewNop())

	run, err := s.Compare(context.Background(), CompareRequest{
		Left:      blockingFile("a.csv"),
		Right:     csvFile("b.csv", rightCSV),
		Selection: amountSel,
	})
	require.NoError(t, err)

	run = waitFinished(t, s, run.ID)
	assert.Equal(t, RunFailed, run.State)
	assert.Equal(t, failure.KindTimeout, run.Error.Kind)
}

func TestService_NewRunSupersedesActive(t *testing.T) {
	s := newTestService(t, nil, Options{})

	cleaned := make(chan struct{})
	first, err := s.Compare(context.Background(), CompareRequest{
		Left:      blockingFile("slow.csv"),
		Right:     csvFile("b.csv", rightCSV),
		Selection: amountSel,
		Cleanup:   func() { close(cleaned) },
	})
	require.NoError(t, err)

	second, err := s.Compare(context.Background(), CompareRequest{
		Left:      csvFile("a.csv", leftCSV),
		Right:     csvFile("b.csv", rightCSV),
		Selection: amountSel,
	})
	require.NoError(t, err)

	assert.Equal(t, RunCancelled, waitFinished(t, s, first.ID).State)
	assert.Equal(t, RunDone, waitFinished(t, s, second.ID).State)

	select {
	case <-cleaned:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded run was not cleaned up")
	}
}

// slowFile takes delay to open and ignores cancellation meanwhile, like a large
// workbook being unpacked.
func slowFile(name, body string, modTime time.Time, delay time.Duration) tabular.File {
	f := csvFile(name, body)
	f.ModTime = modTime
	open := f.Open
	f.Open = func(ctx context.Context) (io.ReadCloser, error) {
		time.Sleep(delay)
		return open(ctx)
	}
	return f
}

func TestService_RerunSameFilesWhileDecoding(t *testing.T) {
	s := newTestService(t, nil, Options{})

	// Longer than the host's grace period, so the rerun joins the loads still in flight.
	left := slowFile("a.csv", leftCSV, time.UnixMilli(1000), 700*time.Millisecond)
	right := slowFile("b.csv", rightCSV, time.UnixMilli(2000), 700*time.Millisecond)

	first, err := s.Compare(context.Background(), CompareRequest{Left: left, Right: right, Selection: amountSel})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	second, err := s.Compare(context.Background(), CompareRequest{
		Left:      left,
		Right:     right,
		Selection: reconcile.Selection{Key: "id", Compare: []string{"amt", "id"}},
	})
	require.NoError(t, err)

	assert.Equal(t, RunCancelled, waitFinished(t, s, first.ID).State)

	done := waitFinished(t, s, second.ID)
	require.Equal(t, RunDone, done.State, "error: %v", done.Error)
	assert.Equal(t, 3, done.Summary.Total)
}

func TestService_CancelRun(t *testing.T) {
	s := newTestService(t, nil, Options{})

	run, err := s.Compare(context.Background(), CompareRequest{
		Left:      blockingFile("slow.csv"),
		Right:     csvFile("b.csv", rightCSV),
		Selection: amountSel,
	})
	require.NoError(t, err)

	cancelled, err := s.CancelRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunCancelled, cancelled.State)

	_, err = s.CancelRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestService_RunHistory(t *testing.T) {
	s := newTestService(t, nil, Options{Reconcile: reconcile.Config{RunHistory: 2}})

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := s.Compare(context.Background(), CompareRequest{
			Left:      csvFile("a.csv", leftCSV),
			Right:     csvFile("b.csv", rightCSV),
			Selection: amountSel,
		})
		require.NoError(t, err)
		waitFinished(t, s, run.ID)
		ids = append(ids, run.ID)
	}

	_, err := s.RunStatus(ids[0])
	assert.ErrorIs(t, err, ErrRunNotFound)
	for _, id := range ids[1:] {
		_, err := s.RunStatus(id)
		assert.NoError(t, err)
	}
}

func TestService_CompareBatch(t *testing.T) {
	s := newTestService(t, nil, Options{})

	results := s.CompareBatch(context.Background(), []Pair{
		{Left: csvFile("a.csv", leftCSV), Right: csvFile("b.csv", rightCSV)},
		{Left: csvFile("a.csv", leftCSV), Right: csvFile("c.csv", "ref,amt\n1,1\n")},
		{Left: csvFile("a.csv", leftCSV), Right: csvFile("a.csv", leftCSV)},
	}, amountSel, 0)

	require.Len(t, results, 3)
	assert.Equal(t, 3, results[0].Summary.Total)
	assert.Nil(t, results[0].Error)

	require.NotNil(t, results[1].Error)
	assert.Equal(t, failure.KindSelection, results[1].Error.Kind)

	assert.Equal(t, "a.csv#2", results[2].Right)
	assert.Equal(t, 0, results[2].Summary.Total)
}

func TestService_ObjectFile(t *testing.T) {
	client := new(mocks.Client)
	s := newTestService(t, client, Options{})
	modified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	client.On("StatObject", mock.Anything, "test-bucket", "ledgers/a.csv", mock.Anything).
		Return(minio.ObjectInfo{Key: "ledgers/a.csv", Size: int64(len(leftCSV)), LastModified: modified}, nil)
	client.On("GetObject", mock.Anything, "test-bucket", "ledgers/a.csv", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(leftCSV))), nil)

	f, err := s.ObjectFile(context.Background(), "/ledgers/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "ledgers/a.csv", f.Name)
	assert.Equal(t, tabular.MediaTypeCSV, f.MediaType)
	assert.Equal(t, modified, f.ModTime)

	tbl, err := s.Decode(context.Background(), f, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	client.AssertExpectations(t)
}

func TestService_ObjectFileErrors(t *testing.T) {
	_, err := newTestService(t, nil, Options{}).ObjectFile(context.Background(), "a.csv")
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))

	client := new(mocks.Client)
	s := newTestService(t, client, Options{})
	client.On("StatObject", mock.Anything, "test-bucket", "gone.csv", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})
	client.On("StatObject", mock.Anything, "test-bucket", "down.csv", mock.Anything).
		Return(minio.ObjectInfo{}, errors.New("connection refused"))

	_, err = s.ObjectFile(context.Background(), "gone.csv")
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))

	_, err = s.ObjectFile(context.Background(), "down.csv")
	assert.Equal(t, failure.KindRuntime, failure.KindOf(err))
}

func TestService_ListObjects(t *testing.T) {
	client := new(mocks.Client)
	s := newTestService(t, client, Options{})

	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "in/a.csv", Size: 10}
	ch <- minio.ObjectInfo{Key: "in/notes.txt", Size: 5}
	ch <- minio.ObjectInfo{Key: "in/b.xlsx", Size: 20}
	close(ch)
	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	objects, err := s.ListObjects(context.Background(), "in/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "in/a.csv", objects[0].Key)
	assert.Equal(t, tabular.MediaTypeXLSX, objects[1].MediaType)
}

func TestService_ReportAndExport(t *testing.T) {
	client := new(mocks.Client)
	s := newTestService(t, client, Options{ReportPrefix: "reports/"})

	run, err := s.Compare(context.Background(), CompareRequest{
		Left:      csvFile("a.csv", leftCSV),
		Right:     csvFile("b.csv", rightCSV),
		Selection: amountSel,
	})
	require.NoError(t, err)
	waitFinished(t, s, run.ID)

	var buf bytes.Buffer
	require.NoError(t, s.WriteRunReport(run.ID, &buf))
	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	rows, err := wb.GetRows("Differences")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	client.On("PutObject", mock.Anything, "test-bucket", "reports/"+run.ID+".xlsx", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	key, err := s.ExportRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "reports/"+run.ID+".xlsx", key)
	client.AssertExpectations(t)
}

func TestService_ReportRequiresFinishedRun(t *testing.T) {
	s := newTestService(t, nil, Options{})

	run, err := s.Compare(context.Background(), CompareRequest{
		Left:      blockingFile("slow.csv"),
		Right:     csvFile("b.csv", rightCSV),
		Selection: amountSel,
	})
	require.NoError(t, err)
	defer s.CancelRun(run.ID)

	err = s.WriteRunReport(run.ID, io.Discard)
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))
	assert.ErrorIs(t, s.WriteRunReport("missing", io.Discard), ErrRunNotFound)
}
