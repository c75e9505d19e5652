// Package worker runs comparisons in the background and streams their outcome as
// typed events.
//
// A Host owns at most one active run. Starting a run cancels the previous one; a
// cancelled run closes its event channel without a terminal event. A run that
// completes emits zero or more EventProgress events followed by exactly one
// EventResult or EventError, then the channel is closed.
//
//	host := worker.NewHost(10*time.Minute, logger)
//	h := host.Run(ctx, left, right, sel, 0)
//	for ev := range h.Events() {
//	    switch ev.Type {
//	    case worker.EventProgress:
//	        fmt.Printf("%d%%\n", ev.Progress)
//	    case worker.EventResult:
//	        render(ev.Differences)
//	    case worker.EventError:
//	        report(ev.Err)
//	    }
//	}
package worker
