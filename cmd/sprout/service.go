package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/chris/sprout/config"
	"github.com/chris/sprout/internal/service"
	"github.com/chris/sprout/internal/store"
)

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the launchd agent that runs the scheduler",
	}
	m := service.NewManager()

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Check the config, install the binary and load the launchd agent",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return m.Install(config.Load()) },
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the agent, its next runs and the last advisor run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			var runs store.RunRecorder
			backend, err := openBackend(ctx, cfg)
			if err != nil {
				log.Printf("status: store unavailable: %v", err)
			} else {
				defer closeBackend(backend)
				runs, _ = backend.(store.RunRecorder)
			}
			return m.Status(ctx, cfg, runs)
		},
	})

	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show the agent's logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, _ := cmd.Flags().GetInt("lines")
			follow, _ := cmd.Flags().GetBool("follow")
			return m.Logs(lines, follow)
		},
	}
	logs.Flags().IntP("lines", "n", 50, "lines to show from each log")
	logs.Flags().BoolP("follow", "f", false, "keep following the logs")
	cmd.AddCommand(logs)

	for _, sub := range []struct {
		use, short string
		fn         func() error
	}{
		{"uninstall", "Unload the agent and remove the binary", m.Uninstall},
		{"start", "Start the agent", m.Start},
		{"stop", "Stop the agent", m.Stop},
		{"restart", "Restart the agent", m.Restart},
	} {
		fn := sub.fn
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return fn() },
		})
	}
	return cmd
}
