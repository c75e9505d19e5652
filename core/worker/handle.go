package worker

import (
	"context"
	"sync"

	"reconciler/core/reconcile"

	"github.com/google/uuid"
)

// Handle is the caller's view of a run. Events must be consumed by a single reader.
type Handle struct {
	ID uuid.UUID

	mu       sync.Mutex
	events   chan Event
	closed   bool
	halted   bool
	progress int
	cancel   context.CancelFunc
	done     chan struct{}
}

// Events returns the run's event stream. It is closed after the terminal event, or
// right away when the run is cancelled.
func (h *Handle) Events() <-chan Event {
	return h.events
}

// Done is closed once the run's goroutine has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel terminates the run. Events still buffered are discarded, so a reader sees
// the stream end without a terminal event. An event already received is not recalled.
func (h *Handle) Cancel() {
	h.mu.Lock()
	h.halted = true
	if !h.closed {
		h.closed = true
		close(h.events)
		for range h.events {
		}
	}
	h.mu.Unlock()

	h.cancel()
}

// Wait consumes the event stream until it ends. It returns ErrCancelled when the
// run was terminated before producing an outcome.
func (h *Handle) Wait(onProgress func(percent int)) ([]reconcile.Difference, error) {
	for ev := range h.events {
		switch ev.Type {
		case EventProgress:
			if onProgress != nil {
				onProgress(ev.Progress)
			}
		case EventResult:
			return ev.Differences, nil
		case EventError:
			return nil, ev.Err
		}
	}
	return nil, ErrCancelled
}

func (h *Handle) stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.halted
}

// emitProgress forwards p when it advances the last reported value and the
// consumer has room for it.
func (h *Handle) emitProgress(p int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || p <= h.progress || len(h.events) >= cap(h.events)-1 {
		return false
	}
	h.progress = p
	h.events <- Event{Type: EventProgress, Progress: p}
	return true
}

// emit sends a terminal event. The reserved buffer slot keeps it from blocking.
func (h *Handle) emit(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.events <- ev
}

func (h *Handle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed {
		h.closed = true
		close(h.events)
	}
}
