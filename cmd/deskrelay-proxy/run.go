package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"deskrelay/internal/config"
	"deskrelay/internal/ipc"
	"deskrelay/internal/logging"
	"deskrelay/internal/proxy"
)

func runProxy(cmdCtx context.Context, cfg *config.Config, args []string) error {
	ctx, cancel := signal.NotifyContext(cmdCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessionID := uuid.NewString()
	logger, logPath, err := logging.NewRun(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
		SessionID:   sessionID,
	}, cfg.Logging.Dir, "proxy", cfg.Logging.RetentionDays)
	if logger == nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: %v\n", err)
	}

	logger.Info("deskrelay proxy starting",
		logging.String(logging.FieldEventType, "proxy_started"),
		logging.String(logging.FieldSocket, cfg.IPC.SocketPath),
		logging.Strings("browser_args", os.Args[1:]),
		logging.Strings("positional_args", args),
		logging.Int("pid", os.Getpid()),
		logging.String("log_path", logPath))

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		logging.WarnWithContext(logger, "stdin is a terminal", "proxy_stdin_tty",
			logging.String(logging.FieldImpact, "typed input is not framed and will be rejected"),
			logging.String(logging.FieldErrorHint, "the proxy is meant to be launched by the browser"))
	}

	relay := ipc.NewRelay(ipc.RelayOptions{
		Path:           cfg.IPC.SocketPath,
		RetryDelay:     cfg.RetryDelay(),
		PollDelay:      cfg.PollDelay(),
		ReadBufferSize: cfg.IPC.ReadBufferSize,
		Logger:         logger,
	})
	orchestrator := proxy.New(relay, proxy.Options{
		ChannelCapacity: cfg.Relay.ChannelCapacity,
		IdleDelay:       cfg.IdleDelay(),
		MaxMessageBytes: uint32(cfg.Proxy.MaxMessageBytes),
		Logger:          logger,
	})

	err = orchestrator.Run(ctx, os.Stdin, os.Stdout)
	switch {
	case errors.Is(err, io.EOF):
		logger.Info("browser disconnected; proxy exiting",
			logging.String(logging.FieldEventType, "proxy_exit"))
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("proxy interrupted",
			logging.String(logging.FieldEventType, "proxy_exit"))
		return nil
	default:
		logging.ErrorWithContext(logger, "proxy stopped", "proxy_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the browser restarts the host on the next connectNative call"))
		return err
	}
}
