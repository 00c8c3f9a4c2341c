package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chris/sprout/config"
	"github.com/chris/sprout/internal/scheduler"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sprout",
		Short: "Sprout - a daily plant-care advisor",
		Long: `Sprout reads your plant inventory, checks the weather, asks a language model
what needs doing, and messages you the list. Reply in chat to log what you did.`,
		SilenceUsage: true,
		RunE:         runOnce,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Sync replies and send today's care tasks once",
		RunE:  runOnce,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Reconcile chat replies without asking for new tasks",
		RunE:  syncOnce,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Run the advisor on its cron schedule until interrupted",
		RunE:  schedule,
	})
	rootCmd.AddCommand(plantsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serviceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.Close()
	return a.advisor.RunOnce(ctx)
}

func syncOnce(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.Close()
	return a.advisor.SyncOnly(ctx)
}

func schedule(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.advisor.RunOnce, a.advisor.SyncOnly)
	if err := sched.Start(cfg.CareCron, cfg.SyncCron); err != nil {
		return err
	}
	log.Println("advisor is scheduled. Press Ctrl+C to exit.")
	<-ctx.Done()
	log.Println("shutting down.")
	sched.Stop()
	return nil
}

