package compare

import (
	"context"

	"reconciler/core/failure"
	"reconciler/core/reconcile"
	"reconciler/core/tabular"

	"go.uber.org/zap"
)

// Pair is one comparison of a batch.
type Pair struct {
	Left  tabular.File
	Right tabular.File
}

// BatchResult is the outcome of one pair.
type BatchResult struct {
	Left        string                 `json:"left"`
	Right       string                 `json:"right"`
	Summary     *reconcile.Summary     `json:"summary,omitempty"`
	Differences []reconcile.Difference `json:"differences,omitempty"`
	Error       *failure.Report        `json:"error,omitempty"`
}

// CompareBatch compares each pair in turn with the same selection. It runs in the
// caller's goroutine and does not supersede the interactive run. A failing pair does
// not stop the others; cancelling ctx fails the remaining pairs.
func (s *Service) CompareBatch(ctx context.Context, pairs []Pair, sel reconcile.Selection, batchSize int) []BatchResult {
	sel = sel.Normalize()
	if batchSize <= 0 {
		batchSize = s.opts.Reconcile.BatchSize
	}

	results := make([]BatchResult, 0, len(pairs))
	for i, p := range pairs {
		left, right := reconcile.Labels(p.Left.Name, p.Right.Name)
		res := BatchResult{Left: left, Right: right}

		diffs, err := s.comparePair(ctx, p, sel, batchSize)
		if err != nil {
			s.logger.Warn("Batch pair failed",
				zap.Int("pair", i),
				zap.String("left", left),
				zap.String("right", right),
				zap.Error(err),
			)
			res.Error = failure.Describe(err)
		} else {
			summary := reconcile.Summarize(diffs, left, right)
			res.Summary = &summary
			res.Differences = diffs
		}
		results = append(results, res)
	}
	return results
}

func (s *Service) comparePair(ctx context.Context, p Pair, sel reconcile.Selection, batchSize int) ([]reconcile.Difference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkRequest(CompareRequest{Left: p.Left, Right: p.Right}, sel); err != nil {
		return nil, err
	}

	a, err := s.Decode(ctx, p.Left, nil)
	if err != nil {
		return nil, err
	}
	b, err := s.Decode(ctx, p.Right, nil)
	if err != nil {
		return nil, err
	}
	return reconcile.Reconcile(ctx, a, b, sel, reconcile.Options{BatchSize: batchSize})
}
