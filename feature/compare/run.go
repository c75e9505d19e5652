package compare

import (
	"errors"
	"time"

	"reconciler/core/failure"
	"reconciler/core/reconcile"
	"reconciler/core/worker"
)

// ErrRunNotFound is returned for unknown or expired run ids.
var ErrRunNotFound = errors.New("run not found")

// RunState is the lifecycle state of a comparison run.
type RunState string

const (
	RunPending   RunState = "pending"
	RunRunning   RunState = "running"
	RunDone      RunState = "done"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Stage is the current step of a running comparison.
type Stage string

const (
	StageDecoding  Stage = "decoding"
	StageComparing Stage = "comparing"
)

// Run is a snapshot of a comparison run.
type Run struct {
	// ID is the run identifier returned to the caller.
	ID string `json:"run_id"`

	// State is the lifecycle state.
	State RunState `json:"state"`

	// Stage tells decoding from comparing while the run is active.
	Stage Stage `json:"stage,omitempty"`

	// Left and Right are the table identifiers used in differences.
	Left  string `json:"left"`
	Right string `json:"right"`

	// Selection is the normalized field selection.
	Selection reconcile.Selection `json:"selection"`

	// LeftDecode and RightDecode are the read percentages of each file.
	LeftDecode  int `json:"left_decode"`
	RightDecode int `json:"right_decode"`

	// Progress is the comparison percentage.
	Progress int `json:"progress"`

	// Summary is set once the run is done.
	Summary *reconcile.Summary `json:"summary,omitempty"`

	// Error is set when the run failed.
	Error *failure.Report `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the run reached a final state.
func (r Run) Finished() bool {
	return r.State == RunDone || r.State == RunFailed || r.State == RunCancelled
}

// RunPage is a run snapshot plus one page of its differences.
type RunPage struct {
	Run
	Offset      int                    `json:"offset"`
	Limit       int                    `json:"limit"`
	Differences []reconcile.Difference `json:"differences"`
}

// runEntry is the mutable record kept by the service. Guarded by Service.mu.
type runEntry struct {
	run    Run
	diffs  []reconcile.Difference
	handle *worker.Handle
}

func (e *runEntry) finish(state RunState) {
	now := time.Now()
	e.run.State = state
	e.run.Stage = ""
	e.run.FinishedAt = &now
}
