package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"deskrelay/internal/hostrun"
	"deskrelay/internal/logging"
)

func newHubCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "hub",
		Short: "Run a standalone hub and print its events",
		Long: `Run the hub in the foreground in place of the desktop app.

Every connect, disconnect and message from a browser proxy is printed to
stdout. Each line typed on stdin is broadcast to all connected proxies.
Logs go to stderr and to a hub-<run>.log file in the log directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, logPath, err := logging.NewRun(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			}, cfg.Logging.Dir, "hub", cfg.Logging.RetentionDays)
			if logger == nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "warn: %v\n", err)
			}
			logger.Debug("hub logging initialized", logging.String("log_path", logPath))

			return hostrun.Run(cmd.Context(), cfg, logger, hostrun.Options{
				In:   cmd.InOrStdin(),
				Out:  cmd.OutOrStdout(),
				JSON: jsonOutput,
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print events as JSON lines even on a terminal")
	return cmd
}
