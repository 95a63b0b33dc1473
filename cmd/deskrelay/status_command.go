package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"deskrelay/internal/config"
	"deskrelay/internal/ipc"
)

const statusDialTimeout = 2 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the hub socket accepts connections",
		Long: `Probe the hub socket and show the effective settings.

The probe opens and immediately closes one connection, which the hub
reports as a short-lived client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			reachable, probeErr := probeHub(cmd.Context(), cfg.IPC.SocketPath)
			locked, lockErr := lockHeld(cfg)

			configSource := ctx.configPath
			if !ctx.configExists {
				configSource += " (not found, defaults)"
			}
			rows := [][]string{
				{"Socket", cfg.IPC.SocketPath},
				{"Hub reachable", yesNo(reachable)},
				{"Hub lock held", lockState(locked, lockErr)},
				{"Config", configSource},
				{"Broadcast interval", cfg.BroadcastInterval().String()},
				{"Relay retry delay", cfg.RetryDelay().String()},
				{"Relay poll delay", cfg.PollDelay().String()},
				{"Proxy idle delay", cfg.IdleDelay().String()},
				{"Read buffer", strconv.Itoa(cfg.IPC.ReadBufferSize) + " bytes"},
				{"Log directory", cfg.Logging.Dir},
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows))
			if probeErr != nil {
				fmt.Fprintf(out, "Hub unavailable: %v\n", probeErr)
			}
			return nil
		},
	}
}

func probeHub(ctx context.Context, socket string) (bool, error) {
	dialCtx, cancel := context.WithTimeout(ctx, statusDialTimeout)
	defer cancel()
	conn, err := ipc.Dial(dialCtx, socket)
	if err != nil {
		return false, wrapDialError(err, socket)
	}
	_ = conn.Close()
	return true, nil
}

// lockHeld reports whether some process holds the hub lock. The desktop app
// does not take this lock, so "no" alone does not mean no hub is running.
func lockHeld(cfg *config.Config) (bool, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		return false, lock.Unlock()
	}
	return true, nil
}

func lockState(held bool, err error) string {
	if err != nil {
		return "unknown (" + err.Error() + ")"
	}
	return yesNo(held)
}
