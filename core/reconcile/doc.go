// Package reconcile compares two decoded tables on a key field and reports the
// records missing from either side and the matched records whose compare fields differ.
//
// # Algorithm
//
// The right-hand table is indexed once by key value (first occurrence wins). The
// left-hand table is then walked in batches; every row is looked up in the index and
// either reported missing from the right or compared field by field. A final pass
// over the right-hand table reports the keys never seen on the left. Output order is
// left-table order followed by right-table order, whatever the batch size.
//
// Progress is reported after every batch, scaled to 0-90, and reaches 100 once the
// final pass is done. The context is checked between batches.
//
// # Usage Example
//
//	sel := reconcile.Selection{Key: "id", Compare: []string{"amount"}}
//	diffs, err := reconcile.Reconcile(ctx, left, right, sel, reconcile.Options{
//	    BatchSize:  10000,
//	    OnProgress: func(p int) { log.Printf("%d%%", p) },
//	})
//
// Keys are compared as decoded strings: "1" and "1.0" are different keys.
package reconcile
