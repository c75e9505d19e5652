package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reconciler/core/failure"
	"reconciler/core/reconcile"
	"reconciler/core/table"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// eventBuffer bounds the progress events queued for a slow consumer.
// One slot is always kept free for the terminal event.
const eventBuffer = 32

// supersedeGrace is how long Start waits for a cancelled run to return.
const supersedeGrace = 500 * time.Millisecond

// ErrCancelled is returned by Handle.Wait when the run ended without a terminal event.
var ErrCancelled = errors.New("run cancelled")

// Job is the work performed by a run. progress may be called with any percentage;
// only increasing values are forwarded.
type Job func(ctx context.Context, progress func(percent int)) ([]reconcile.Difference, error)

// Host runs at most one job at a time.
type Host struct {
	mu      sync.Mutex
	active  *Handle
	timeout time.Duration
	// grace bounds how long Start waits for a superseded run to return.
	grace  time.Duration
	logger *zap.Logger
}

// NewHost creates a host. A zero timeout disables the run deadline.
func NewHost(timeout time.Duration, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{timeout: timeout, grace: supersedeGrace, logger: logger}
}

// Start cancels the active run, if any, and launches job in a new goroutine.
func (h *Host) Start(ctx context.Context, job Job) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	if h.timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, h.timeout)
		prev := cancel
		cancel = func() {
			cancelTimeout()
			prev()
		}
	}

	handle := &Handle{
		ID:       uuid.New(),
		events:   make(chan Event, eventBuffer),
		cancel:   cancel,
		done:     make(chan struct{}),
		progress: -1,
	}

	h.mu.Lock()
	prev := h.active
	h.active = handle
	h.mu.Unlock()

	if prev != nil {
		h.logger.Info("Superseding active run",
			zap.String("run_id", prev.ID.String()),
			zap.String("next_run_id", handle.ID.String()),
		)
		prev.Cancel()
		h.awaitExit(prev)
	}

	go h.run(runCtx, handle, job)
	return handle
}

// awaitExit waits up to the grace period for a cancelled run to return, so its tables
// are released before the next run starts decoding.
func (h *Host) awaitExit(prev *Handle) {
	timer := time.NewTimer(h.grace)
	defer timer.Stop()

	select {
	case <-prev.Done():
	case <-timer.C:
		h.logger.Warn("Superseded run still running, starting the next one alongside it",
			zap.String("run_id", prev.ID.String()),
			zap.Duration("grace", h.grace),
		)
	}
}

// Run starts a reconciliation of a against b.
func (h *Host) Run(ctx context.Context, a, b *table.Table, sel reconcile.Selection, batchSize int) *Handle {
	return h.Start(ctx, func(ctx context.Context, progress func(int)) ([]reconcile.Difference, error) {
		return reconcile.Reconcile(ctx, a, b, sel, reconcile.Options{
			BatchSize:  batchSize,
			OnProgress: progress,
		})
	})
}

// Active returns the running handle, or nil.
func (h *Host) Active() *Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Stop cancels the active run, if any.
func (h *Host) Stop() {
	h.mu.Lock()
	active := h.active
	h.active = nil
	h.mu.Unlock()

	if active != nil {
		active.Cancel()
	}
}

func (h *Host) run(ctx context.Context, handle *Handle, job Job) {
	logger := h.logger.With(zap.String("run_id", handle.ID.String()))
	start := time.Now()

	defer func() {
		handle.cancel()
		handle.close()
		close(handle.done)

		h.mu.Lock()
		if h.active == handle {
			h.active = nil
		}
		h.mu.Unlock()
	}()

	logger.Info("Run started")

	diffs, err := safeRun(ctx, job, func(p int) {
		if handle.emitProgress(p) {
			logger.Debug("Run progress", zap.Int("percent", p))
		}
	})

	if err == nil {
		handle.emit(Event{Type: EventResult, Progress: 100, Differences: diffs})
		logger.Info("Run completed",
			zap.Int("differences", len(diffs)),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}

	switch {
	case handle.stopped():
		logger.Info("Run cancelled", zap.Duration("duration", time.Since(start)))
		return
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		err = failure.Timeout(err, "comparison did not finish within %s", h.timeout)
	case errors.Is(err, context.Canceled):
		logger.Info("Run cancelled by caller context", zap.Duration("duration", time.Since(start)))
		return
	}

	logger.Warn("Run failed",
		zap.String("kind", string(failure.KindOf(err))),
		zap.Error(err),
		zap.Duration("duration", time.Since(start)),
	)
	handle.emit(Event{Type: EventError, Err: err})
}

// safeRun recovers a panicking job into a runtime error.
func safeRun(ctx context.Context, job Job, progress func(int)) (diffs []reconcile.Difference, err error) {
	defer func() {
		if r := recover(); r != nil {
			diffs = nil
			err = failure.Runtime(fmt.Errorf("%v", r), "comparison aborted")
		}
	}()
	return job(ctx, progress)
}
