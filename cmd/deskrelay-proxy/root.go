package main

import (
	"context"

	"github.com/spf13/cobra"

	"deskrelay/internal/config"
)

type proxyFunc func(ctx context.Context, cfg *config.Config, args []string) error

func newRootCommand(run proxyFunc) *cobra.Command {
	var flags *config.Flags

	cmd := &cobra.Command{
		Use:           "deskrelay-proxy [origin] [manifest]",
		Short:         "Native Messaging host relaying to the desktop hub",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := flags.Load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args)
		},
	}
	flags = config.RegisterFlags(cmd.Flags())
	return cmd
}
