package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chris/sprout/config"
	"github.com/chris/sprout/internal/care"
	"github.com/chris/sprout/internal/db"
	"github.com/chris/sprout/internal/store"
)

func plantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plants",
		Short: "Show the plant inventory and pending care",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx, config.Load())
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			plants, err := backend.LoadPlants(ctx)
			if err != nil {
				return fmt.Errorf("loading plants: %w", err)
			}
			printPlants(os.Stdout, plants, time.Now())

			if rr, ok := backend.(store.RunRecorder); ok {
				run, err := rr.LastRun(ctx)
				if err != nil {
					return fmt.Errorf("reading last run: %w", err)
				}
				if run != nil {
					fmt.Printf("\nLast advisor run %s: %d task(s). %s\n", runAgo(*run, time.Now()), run.Tasks, run.Summary)
				}
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Add or update a plant (sqlite store only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx, config.Load())
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			database, ok := backend.(*db.DB)
			if !ok {
				return fmt.Errorf("plants add needs STORE_BACKEND=sqlite; edit the spreadsheet directly")
			}

			p := care.Plant{Name: strings.TrimSpace(args[0])}
			p.Environment, _ = cmd.Flags().GetString("env")
			p.LastWatered, _ = cmd.Flags().GetString("watered")
			p.LastFertilized, _ = cmd.Flags().GetString("fertilized")
			p.Notes, _ = cmd.Flags().GetString("notes")
			p.Light, _ = cmd.Flags().GetString("light")
			p.Humidity, _ = cmd.Flags().GetString("humidity")
			for _, d := range []string{p.LastWatered, p.LastFertilized} {
				if _, err := time.Parse(care.DateLayout, d); d != "" && err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
				}
			}

			if err := database.UpsertPlant(ctx, p); err != nil {
				return err
			}
			fmt.Printf("✓ Saved %s\n", p.Name)
			return nil
		},
	}
	add.Flags().String("env", "", "environment, e.g. Indoor or Outdoor")
	add.Flags().String("watered", "", "last watered date (YYYY-MM-DD)")
	add.Flags().String("fertilized", "", "last fertilized date (YYYY-MM-DD)")
	add.Flags().String("notes", "", "free-form notes")
	add.Flags().String("light", "", "light conditions")
	add.Flags().String("humidity", "", "humidity conditions")
	cmd.AddCommand(add)

	return cmd
}

func printPlants(w io.Writer, plants []care.Plant, now time.Time) {
	if len(plants) == 0 {
		fmt.Fprintln(w, "No plants yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENVIRONMENT\tWATERED\tFERTILIZED\tSTATUS")
	for _, p := range plants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Name,
			p.Environment,
			ago(p.LastWatered, care.DateLayout, now),
			ago(p.LastFertilized, care.DateLayout, now),
			statusLabel(p.Status),
		)
	}
	tw.Flush()
}

func statusLabel(s care.Pending) string {
	if !s.IsPending() {
		return color.New(color.FgGreen).Sprint(s.String())
	}
	return color.New(color.FgYellow).Sprint(s.String())
}

// ago renders a stored date relative to now, or "-" when it is blank or
// unparseable.
func runAgo(run store.Run, now time.Time) string {
	t, err := run.Time()
	if err != nil {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func ago(value, layout string, now time.Time) string {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return "-"
	}
	if layout == care.DateLayout {
		days, _ := care.DaysSince(value, now)
		if days == 0 {
			return "today"
		}
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
