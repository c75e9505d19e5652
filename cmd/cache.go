package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// cacheCmd is the parent command for parsed-table cache maintenance.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the parsed-table cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(contextOf(cmd))
		if err != nil {
			return err
		}
		defer a.close()
		if a.cache == nil {
			return fmt.Errorf("the table cache is disabled")
		}

		entries, err := a.cache.Entries(contextOf(cmd))
		if err != nil {
			return err
		}

		tbl := tablewriter.NewTable(cmd.OutOrStdout())
		tbl.Header("Name", "Modified", "Size", "Last Used")
		for _, e := range entries {
			modified, used := "", ""
			if !e.ModifiedAt.IsZero() {
				modified = e.ModifiedAt.Format("2006-01-02 15:04:05")
			}
			if !e.AccessedAt.IsZero() {
				used = humanize.Time(e.AccessedAt)
			}
			if err := tbl.Append(e.Name, modified, humanize.IBytes(uint64(e.SizeBytes)), used); err != nil {
				return err
			}
		}
		return tbl.Render()
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(contextOf(cmd))
		if err != nil {
			return err
		}
		defer a.close()
		if a.cache == nil {
			return fmt.Errorf("the table cache is disabled")
		}

		if err := a.cache.Purge(contextOf(cmd)); err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}
		a.logger.Info("Cache purged")
		return nil
	},
}

// contextOf returns the command's context, which is nil when run outside ExecuteContext.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd)
	RootCmd.AddCommand(cacheCmd)
}
