package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"reconciler/core/failure"
	"reconciler/core/reconcile"
	"reconciler/core/report"
	"reconciler/core/storage"
	"reconciler/core/table"
	"reconciler/core/tablecache"
	"reconciler/core/tabular"
	"reconciler/core/worker"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize is the number of differences returned per page.
const DefaultPageSize = 100

// Options holds the service settings.
type Options struct {
	Decoder      tabular.Config
	Reconcile    reconcile.Config
	ReportPrefix string
}

// Service handles file inspection and comparison runs.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
	cache  *tablecache.Cache
	host   *worker.Host
	opts   Options

	mu    sync.Mutex
	runs  map[string]*runEntry
	order []string
}

// NewService creates a compare service. client and cache may be nil.
func NewService(client storage.Client, bucket string, logger *zap.Logger, cache *tablecache.Cache, host *worker.Host, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if host == nil {
		host = worker.NewHost(opts.Reconcile.Timeout(), logger)
	}
	if opts.Reconcile.RunHistory <= 0 {
		opts.Reconcile.RunHistory = reconcile.DefaultRunHistory
	}

	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
		cache:  cache,
		host:   host,
		opts:   opts,
		runs:   make(map[string]*runEntry),
	}
}

// ValidateFile checks size and media type without reading the file.
func (s *Service) ValidateFile(f tabular.File) error {
	return tabular.Validate(f, s.opts.Decoder)
}

// Headers returns the header row of f.
func (s *Service) Headers(ctx context.Context, f tabular.File) ([]string, error) {
	if err := s.ValidateFile(f); err != nil {
		return nil, err
	}
	return tabular.Headers(ctx, f, s.opts.Decoder)
}

// Preview returns the first n raw rows of f, header included. n <= 0 uses the
// configured preview size.
func (s *Service) Preview(ctx context.Context, f tabular.File, n int) ([][]string, error) {
	if err := s.ValidateFile(f); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.opts.Decoder.PreviewRows
	}
	return tabular.Preview(ctx, f, s.opts.Decoder, n)
}

// Decode reads f into a table, going through the cache when f has a modification time.
func (s *Service) Decode(ctx context.Context, f tabular.File, onProgress func(float64)) (*table.Table, error) {
	if err := s.ValidateFile(f); err != nil {
		return nil, err
	}

	decode := func(ctx context.Context) (*table.Table, error) {
		return tabular.Decode(ctx, f, s.opts.Decoder, onProgress)
	}
	if s.cache == nil {
		return decode(ctx)
	}
	return s.cache.GetOrLoad(ctx, tablecache.Key{Name: f.Name, ModTime: f.ModTime}, decode)
}

// CompareRequest describes a comparison run.
type CompareRequest struct {
	Left      tabular.File
	Right     tabular.File
	Selection reconcile.Selection
	BatchSize int
	// Cleanup, if set, runs once the run has stopped reading its files.
	Cleanup func()
}

// Compare validates the request and starts a background run, superseding the active
// one. Validation failures are returned directly and no run is started. The run
// outlives ctx; use CancelRun to stop it.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (Run, error) {
	sel := req.Selection.Normalize()

	err := ctx.Err()
	if err == nil {
		err = s.checkRequest(req, sel)
	}
	if err != nil {
		if req.Cleanup != nil {
			req.Cleanup()
		}
		return Run{}, err
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = s.opts.Reconcile.BatchSize
	}

	left, right := reconcile.Labels(req.Left.Name, req.Right.Name)
	entry := &runEntry{run: Run{
		State:     RunPending,
		Left:      left,
		Right:     right,
		Selection: sel,
		StartedAt: time.Now(),
	}}

	// Request contexts are recycled once the handler returns.
	handle := s.host.Start(context.Background(), s.job(entry, req, sel, batchSize))

	s.mu.Lock()
	entry.run.ID = handle.ID.String()
	entry.handle = handle
	s.remember(entry)
	snapshot := entry.run
	s.mu.Unlock()

	s.logger.Info("Comparison started",
		zap.String("run_id", snapshot.ID),
		zap.String("left", left),
		zap.String("right", right),
		zap.String("key", sel.Key),
		zap.Strings("compare", sel.Compare),
	)

	go s.consume(entry, handle, req.Cleanup)
	return snapshot, nil
}

func (s *Service) checkRequest(req CompareRequest, sel reconcile.Selection) error {
	if err := s.ValidateFile(req.Left); err != nil {
		return err
	}
	if err := s.ValidateFile(req.Right); err != nil {
		return err
	}
	return sel.Validate()
}

// job decodes both files concurrently, then reconciles them.
func (s *Service) job(entry *runEntry, req CompareRequest, sel reconcile.Selection, batchSize int) worker.Job {
	return func(ctx context.Context, progress func(int)) ([]reconcile.Difference, error) {
		s.update(entry, func(r *Run) {
			r.State = RunRunning
			r.Stage = StageDecoding
		})

		var a, b *table.Table
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			t, err := s.Decode(gctx, req.Left, func(p float64) {
				s.update(entry, func(r *Run) { r.LeftDecode = int(p) })
			})
			a = t
			return err
		})
		g.Go(func() error {
			t, err := s.Decode(gctx, req.Right, func(p float64) {
				s.update(entry, func(r *Run) { r.RightDecode = int(p) })
			})
			b = t
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		s.update(entry, func(r *Run) {
			r.Stage = StageComparing
			r.LeftDecode, r.RightDecode = 100, 100
		})

		return reconcile.Reconcile(ctx, a, b, sel, reconcile.Options{
			BatchSize:  batchSize,
			OnProgress: progress,
		})
	}
}

// consume records the run's events until its stream closes.
func (s *Service) consume(entry *runEntry, handle *worker.Handle, cleanup func()) {
	for ev := range handle.Events() {
		s.mu.Lock()
		switch ev.Type {
		case worker.EventProgress:
			entry.run.Progress = ev.Progress
		case worker.EventResult:
			summary := reconcile.Summarize(ev.Differences, entry.run.Left, entry.run.Right)
			entry.diffs = ev.Differences
			entry.run.Summary = &summary
			entry.run.Progress = 100
			entry.finish(RunDone)
		case worker.EventError:
			entry.run.Error = failure.Describe(ev.Err)
			entry.finish(RunFailed)
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	if !entry.run.Finished() {
		entry.finish(RunCancelled)
	}
	s.mu.Unlock()

	if cleanup != nil {
		<-handle.Done()
		cleanup()
	}
}

func (s *Service) update(entry *runEntry, fn func(r *Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !entry.run.Finished() {
		fn(&entry.run)
	}
}

// remember stores entry and drops the oldest finished runs beyond the history size.
// Called with s.mu held.
func (s *Service) remember(entry *runEntry) {
	s.runs[entry.run.ID] = entry
	s.order = append(s.order, entry.run.ID)

	for i := 0; len(s.order) > s.opts.Reconcile.RunHistory && i < len(s.order); {
		id := s.order[i]
		if e := s.runs[id]; e != nil && !e.run.Finished() {
			i++
			continue
		}
		delete(s.runs, id)
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
}

// RunStatus returns a snapshot of the run.
func (s *Service) RunStatus(id string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return entry.run, nil
}

// RunPage returns the run snapshot and differences[offset:offset+limit].
func (s *Service) RunPage(id string, offset, limit int) (*RunPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &RunPage{
		Run:         entry.run,
		Offset:      offset,
		Limit:       limit,
		Differences: reconcile.Page(entry.diffs, offset, limit),
	}, nil
}

// CancelRun terminates a run. Finished runs are left untouched.
func (s *Service) CancelRun(id string) (Run, error) {
	s.mu.Lock()
	entry, ok := s.runs[id]
	if !ok {
		s.mu.Unlock()
		return Run{}, ErrRunNotFound
	}
	handle := entry.handle
	finished := entry.run.Finished()
	s.mu.Unlock()

	if !finished {
		handle.Cancel()
		<-handle.Done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !entry.run.Finished() {
		entry.finish(RunCancelled)
	}
	return entry.run, nil
}

// WriteRunReport writes the differences of a finished run as an XLSX workbook.
func (s *Service) WriteRunReport(id string, w io.Writer) error {
	s.mu.Lock()
	entry, ok := s.runs[id]
	if !ok {
		s.mu.Unlock()
		return ErrRunNotFound
	}
	run, diffs := entry.run, entry.diffs
	s.mu.Unlock()

	if run.State != RunDone {
		return failure.Validation("run %s is %s, reports are only available for finished runs", id, run.State)
	}

	return report.WriteXLSX(w, report.Layout{Left: run.Left, Right: run.Right, Selection: run.Selection}, diffs)
}

// ExportRun uploads the run report to the bucket and returns the object key.
func (s *Service) ExportRun(ctx context.Context, id string) (string, error) {
	if s.client == nil {
		return "", failure.Validation("object storage is disabled")
	}

	var buf bytes.Buffer
	if err := s.WriteRunReport(id, &buf); err != nil {
		return "", err
	}

	key := s.opts.ReportPrefix + id + ".xlsx"
	_, err := s.client.PutObject(ctx, s.bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: tabular.MediaTypeXLSX,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	s.logger.Info("Report exported", zap.String("run_id", id), zap.String("key", key))
	return key, nil
}
