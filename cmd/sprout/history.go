package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chris/sprout/config"
	"github.com/chris/sprout/internal/care"
	"github.com/chris/sprout/internal/store"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [plant]",
		Short: "Show recent care history, optionally for one plant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")
			plant := ""
			if len(args) == 1 {
				plant = args[0]
			}

			backend, err := openBackend(ctx, config.Load())
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			st, err := store.Open(ctx, backend)
			if err != nil {
				return err
			}
			entries, err := st.RecentHistory(ctx, plant, limit)
			if err != nil {
				return err
			}
			printHistory(os.Stdout, entries)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 5, "maximum number of entries")
	return cmd
}

func printHistory(w io.Writer, entries []care.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No care history yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPLANT\tACTION\tNOTES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Date, e.Plant, color.New(color.FgCyan).Sprint(e.Action), e.Notes)
	}
	tw.Flush()
}
