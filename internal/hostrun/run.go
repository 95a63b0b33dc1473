// Package hostrun runs a standalone hub for development and diagnostics. It
// plays the desktop application: every hub event is printed, and every line
// typed on the input is broadcast to the connected proxies.
package hostrun

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"

	"deskrelay/internal/bridge"
	"deskrelay/internal/config"
	"deskrelay/internal/ipc"
	"deskrelay/internal/logging"
)

// ErrHubRunning reports that another process holds the hub lock.
var ErrHubRunning = errors.New("another deskrelay hub is already running")

// Options configures where the hub reads operator input and prints events.
type Options struct {
	In  io.Reader
	Out io.Writer
	// JSON forces JSON lines even when Out is a terminal.
	JSON bool
}

// Run holds the hub lock, starts the hub, and blocks until ctx is cancelled
// or the process receives SIGINT or SIGTERM.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrHubRunning, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release hub lock", logging.Error(err))
		}
	}()

	b := bridge.New(cfg, logger)
	printer := &eventPrinter{out: opts.Out, pretty: !opts.JSON && isTerminal(opts.Out)}
	if err := b.Listen(printer.print); err != nil {
		return err
	}
	logger.Info("deskrelay hub started",
		logging.String(logging.FieldSocket, b.Path()),
		logging.String("lock", cfg.LockPath()),
		logging.String(logging.FieldEventType, "hub_started"))

	if opts.In != nil {
		go forwardLines(opts.In, b, logger)
	}

	<-signalCtx.Done()
	logger.Info("deskrelay hub shutting down",
		logging.String(logging.FieldEventType, "hub_stopping"))
	return b.Stop()
}

// forwardLines broadcasts each non-empty input line until in is exhausted.
func forwardLines(in io.Reader, b *bridge.Bridge, logger *slog.Logger) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := b.Send(line); err != nil {
			logging.WarnWithContext(logger, "input line not sent", "hub_input_rejected",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the line was not broadcast"))
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("input closed", logging.Error(err))
	}
}

type eventPrinter struct {
	out    io.Writer
	pretty bool
}

func (p *eventPrinter) print(event ipc.Message) {
	if p.pretty {
		stamp := time.Now().Format("15:04:05")
		switch event.Kind {
		case ipc.KindMessage:
			fmt.Fprintf(p.out, "%s  client %d  %s\n", stamp, event.ClientID, event.Message)
		default:
			fmt.Fprintf(p.out, "%s  client %d  %s\n", stamp, event.ClientID, event.Kind)
		}
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = p.out.Write(data)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
