package worker

import "reconciler/core/reconcile"

// EventType identifies the kind of event emitted by a run.
type EventType string

const (
	// EventProgress reports a completion percentage.
	EventProgress EventType = "progress"
	// EventResult carries the differences of a successful run.
	EventResult EventType = "result"
	// EventError carries the failure of a run.
	EventError EventType = "error"
)

// Event is a single message from a background run.
type Event struct {
	Type        EventType
	Progress    int
	Differences []reconcile.Difference
	Err         error
}
