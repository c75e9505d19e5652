package cmd

import (
	"fmt"
	"strings"

	"reconciler/core/tabular"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var previewRows int

// headersCmd prints the header row of a file.
var headersCmd = &cobra.Command{
	Use:   "headers FILE",
	Short: "Print the header row of a CSV or Excel file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		svc := a.service()

		f, err := resolveFile(ctx, svc, args[0])
		if err != nil {
			return err
		}
		headers, err := svc.Headers(ctx, f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s, %d columns)\n", f.Name, humanize.IBytes(uint64(f.Size)), len(headers))
		for i, h := range headers {
			fmt.Fprintf(out, "%3d  %s\n", i+1, h)
		}
		return nil
	},
}

// previewCmd prints the first rows of a file.
var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Print the first rows of a CSV or Excel file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		svc := a.service()

		f, err := resolveFile(ctx, svc, args[0])
		if err != nil {
			return err
		}
		rows, err := svc.Preview(ctx, f, previewRows)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is empty\n", f.Name)
			return nil
		}

		return renderRows(cmd, rows)
	},
}

// renderRows prints rows with the first one as header, padding short rows.
func renderRows(cmd *cobra.Command, rows [][]string) error {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	cells := func(r []string) []any {
		out := make([]any, width)
		for i := range out {
			if i < len(r) {
				out[i] = strings.TrimSpace(r[i])
			} else {
				out[i] = ""
			}
		}
		return out
	}

	tbl := tablewriter.NewTable(cmd.OutOrStdout())
	tbl.Header(cells(rows[0])...)
	for _, r := range rows[1:] {
		if err := tbl.Append(cells(r)...); err != nil {
			return err
		}
	}
	return tbl.Render()
}

func init() {
	for _, c := range []*cobra.Command{headersCmd, previewCmd} {
		c.Flags().BoolVar(&fromObjects, "object", false, "Read the argument as a bucket object key")
		RootCmd.AddCommand(c)
	}
	previewCmd.Flags().IntVar(&previewRows, "rows", tabular.DefaultPreviewRows, "Number of rows, header included")
}
