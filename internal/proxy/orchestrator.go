package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"deskrelay/internal/clock"
	"deskrelay/internal/framing"
	"deskrelay/internal/logging"
)

const (
	defaultChannelCapacity = 32
	defaultIdleDelay       = 100 * time.Millisecond

	// browserMessageLimit is the largest message a browser accepts from a
	// native host.
	browserMessageLimit = 1 << 20
)

// Relay carries text between the proxy and the desktop hub. Start must not
// block; the relay runs until ctx is cancelled.
type Relay interface {
	Start(ctx context.Context, incoming chan<- string, outgoing <-chan string)
}

// Options configures an Orchestrator. Zero values select the defaults.
type Options struct {
	ChannelCapacity int
	IdleDelay       time.Duration
	// MaxMessageBytes rejects larger frames from the browser. Zero disables
	// the check.
	MaxMessageBytes uint32
	Logger          *slog.Logger
	Clock           clock.Clock
}

// Orchestrator pumps messages between stdio and a Relay.
type Orchestrator struct {
	relay     Relay
	capacity  int
	idleDelay time.Duration
	maxSize   uint32
	logger    *slog.Logger
	clock     clock.Clock
}

// New returns an orchestrator that will drive relay.
func New(relay Relay, opts Options) *Orchestrator {
	o := &Orchestrator{
		relay:     relay,
		capacity:  opts.ChannelCapacity,
		idleDelay: opts.IdleDelay,
		maxSize:   opts.MaxMessageBytes,
		logger:    logging.NewComponentLogger(opts.Logger, "proxy"),
		clock:     clock.OrReal(opts.Clock),
	}
	if o.capacity <= 0 {
		o.capacity = defaultChannelCapacity
	}
	if o.idleDelay <= 0 {
		o.idleDelay = defaultIdleDelay
	}
	return o
}

// Run starts the relay and shuttles messages until stdin ends, stdout fails,
// or ctx is cancelled. A clean close of stdin by the browser yields io.EOF;
// every other return is a failure.
//
// The stdin reader cannot be interrupted, so after an stdout failure or
// cancellation it stays blocked until its next read returns.
func (o *Orchestrator) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if o.relay == nil {
		return errors.New("proxy requires a relay")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	incoming := make(chan string, o.capacity)
	outgoing := make(chan string, o.capacity)
	o.relay.Start(ctx, incoming, outgoing)

	done := make(chan error, 2)
	go func() { done <- o.readBrowser(ctx, framing.NewReader(stdin, o.maxSize), outgoing) }()
	go func() { done <- o.writeBrowser(ctx, framing.NewWriter(stdout), incoming) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) readBrowser(ctx context.Context, reader *framing.Reader, outgoing chan<- string) error {
	for {
		text, err := reader.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				o.logger.Info("browser closed stdin",
					logging.String(logging.FieldEventType, "proxy_stdin_closed"))
				return io.EOF
			}
			return fmt.Errorf("read from browser: %w", err)
		}
		if text == "" {
			select {
			case <-o.clock.After(o.idleDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		o.logger.Debug("message from browser",
			logging.Int("bytes", len(text)),
			logging.String(logging.FieldEventType, "proxy_browser_message"))
		select {
		case outgoing <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (o *Orchestrator) writeBrowser(ctx context.Context, writer *framing.Writer, incoming <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text := <-incoming:
			if len(text) > browserMessageLimit {
				logging.WarnWithContext(o.logger, "message exceeds browser size limit", "proxy_message_too_large",
					logging.Int("bytes", len(text)),
					logging.Int("limit", browserMessageLimit),
					logging.String(logging.FieldImpact, "the browser will likely drop the message and disconnect the host"),
					logging.String(logging.FieldErrorHint, "reduce the payload sent by the desktop app"))
			}
			if err := writer.WriteMessage(text); err != nil {
				return fmt.Errorf("write to browser: %w", err)
			}
		}
	}
}
