package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RobertBroersma/dmx-hackathon/internal/daemon"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := opts.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			service, err := daemon.NewService(cfg, path)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}

			return service.Run()
		},
	}
}

// newServiceCmd builds one of the system service management commands.
func newServiceCmd(opts *options, use, short string, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		Aliases: aliases,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := opts.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			service, err := daemon.NewService(cfg, path)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}

			op := map[string]func() (string, error){
				"install": service.Install,
				"remove":  service.Remove,
				"start":   service.StartService,
				"stop":    service.StopService,
				"status":  service.Status,
			}[use]

			status, err := op()
			if err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), status)

			return nil
		},
	}
}
