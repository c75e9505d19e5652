package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reconciler/core/reconcile"
	"reconciler/core/report"
	"reconciler/core/table"
	"reconciler/core/tabular"
	"reconciler/core/utils"
	"reconciler/feature/compare"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	keyField      string
	compareFields []string
	batchSize     int
	fromObjects   bool
	outputPath    string
	jsonOutput    bool
	showLimit     int
)

// compareCmd compares two files and prints the differences.
var compareCmd = &cobra.Command{
	Use:   "compare LEFT RIGHT",
	Short: "Compare two CSV or Excel files by a key field",
	Long: `Compare two files and report records missing from either side and
records whose compare fields differ.

Examples:
  # Compare two local files
  reconciler compare a.csv b.xlsx --key id --compare amount,status

  # Compare two bucket objects and save the full report
  reconciler compare --object exports/a.csv exports/b.csv --key id --compare amount --output diff.xlsx

  # Print every difference as JSON
  reconciler compare a.csv b.csv --key id --compare amount --json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

// batchCmd compares several pairs with one selection.
var batchCmd = &cobra.Command{
	Use:   "batch LEFT:RIGHT [LEFT:RIGHT...]",
	Short: "Compare several pairs of files with the same selection",
	Long: `Compare each pair in turn and print one summary line per pair.
A failing pair does not stop the others.

Example:
  reconciler compare batch jan-a.csv:jan-b.csv feb-a.csv:feb-b.csv --key id --compare amount`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	for _, c := range []*cobra.Command{compareCmd, batchCmd} {
		flags := c.Flags()
		flags.StringVarP(&keyField, "key", "k", "", "Field matching records across files (required)")
		flags.StringSliceVarP(&compareFields, "compare", "c", nil, "Fields compared on matched records (required)")
		flags.IntVar(&batchSize, "batch-size", 0, "Rows per batch (default from config)")
		flags.BoolVar(&fromObjects, "object", false, "Read arguments as bucket object keys")
		_ = c.MarkFlagRequired("key")
		_ = c.MarkFlagRequired("compare")
	}

	compareCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the full report to this XLSX file")
	compareCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print differences as JSON")
	compareCmd.Flags().IntVar(&showLimit, "limit", 50, "Differences printed in the table (0 for all)")

	compareCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(compareCmd)
}

func selectionFromFlags() reconcile.Selection {
	return reconcile.Selection{Key: keyField, Compare: utils.SplitList(compareFields...)}
}

// resolveFile turns an argument into a file, from disk or from the bucket.
func resolveFile(ctx context.Context, svc *compare.Service, arg string) (tabular.File, error) {
	if fromObjects {
		return svc.ObjectFile(ctx, arg)
	}
	return tabular.LocalFile(arg)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	svc := a.service()

	sel := selectionFromFlags()
	if err := sel.Validate(); err != nil {
		return err
	}

	files := make([]tabular.File, 2)
	for i, arg := range args {
		if files[i], err = resolveFile(ctx, svc, arg); err != nil {
			return err
		}
		if err := svc.ValidateFile(files[i]); err != nil {
			return err
		}
	}

	started := time.Now()
	a.logger.Info("Decoding files",
		zap.String("left", files[0].Name),
		zap.String("left_size", humanize.IBytes(uint64(files[0].Size))),
		zap.String("right", files[1].Name),
		zap.String("right_size", humanize.IBytes(uint64(files[1].Size))),
	)

	tables := make([]*table.Table, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		g.Go(func() error {
			t, err := svc.Decode(gctx, files[i], nil)
			tables[i] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("Comparing",
		zap.Int("left_rows", tables[0].Len()),
		zap.Int("right_rows", tables[1].Len()),
	)

	if batchSize <= 0 {
		batchSize = a.cfg.Reconcile.BatchSize
	}
	handle := a.host.Run(ctx, tables[0], tables[1], sel, batchSize)
	diffs, err := handle.Wait(func(p int) {
		fmt.Fprintf(os.Stderr, "\rComparing... %3d%%", p)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	left, right := reconcile.Identifiers(tables[0], tables[1])
	layout := report.Layout{Left: left, Right: right, Selection: sel.Normalize()}
	summary := reconcile.Summarize(diffs, left, right)

	a.logger.Info("Comparison finished",
		zap.Int("differences", summary.Total),
		zap.Duration("took", time.Since(started)),
	)

	if outputPath != "" {
		if err := writeReportFile(outputPath, layout, diffs); err != nil {
			return err
		}
		a.logger.Info("Report written", zap.String("path", outputPath))
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if diffs == nil {
			diffs = []reconcile.Difference{}
		}
		return enc.Encode(diffs)
	}

	if err := report.WriteSummary(out, layout, summary); err != nil {
		return err
	}
	if len(diffs) == 0 {
		return nil
	}
	return report.WriteTable(out, layout, diffs, showLimit)
}

func writeReportFile(path string, l report.Layout, diffs []reconcile.Difference) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteXLSX(f, l, diffs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	svc := a.service()

	pairs := make([]compare.Pair, 0, len(args))
	for _, arg := range args {
		l, r, ok := strings.Cut(arg, ":")
		if !ok || l == "" || r == "" {
			return fmt.Errorf("pair %q must have the form LEFT:RIGHT", arg)
		}
		left, err := resolveFile(ctx, svc, l)
		if err != nil {
			return err
		}
		right, err := resolveFile(ctx, svc, r)
		if err != nil {
			return err
		}
		pairs = append(pairs, compare.Pair{Left: left, Right: right})
	}

	results := svc.CompareBatch(ctx, pairs, selectionFromFlags(), batchSize)

	tbl := tablewriter.NewTable(cmd.OutOrStdout())
	tbl.Header("Left", "Right", "Missing Left", "Missing Right", "Mismatches", "Total", "Error")
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			if err := tbl.Append(r.Left, r.Right, "", "", "", "", r.Error.Message); err != nil {
				return err
			}
			continue
		}
		s := r.Summary
		if err := tbl.Append(r.Left, r.Right, s.MissingLeft, s.MissingRight, s.Mismatches, s.Total, ""); err != nil {
			return err
		}
	}
	if err := tbl.Render(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pairs failed", failed, len(results))
	}
	return nil
}
