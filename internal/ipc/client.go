package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"deskrelay/internal/clock"
	"deskrelay/internal/logging"
)

const (
	defaultRetryDelay = 5 * time.Second
	defaultPollDelay  = 100 * time.Millisecond
)

// Dialer opens a stream connection to the hub at path.
type Dialer func(ctx context.Context, path string) (net.Conn, error)

// RelayOptions configures a Relay. Zero values select the defaults.
type RelayOptions struct {
	Path           string
	RetryDelay     time.Duration
	PollDelay      time.Duration
	ReadBufferSize int
	Logger         *slog.Logger
	Clock          clock.Clock
	// Dial defaults to the platform socket or pipe transport.
	Dial Dialer
}

// Dial opens one connection to the hub at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	conn, err := dial(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, path, err)
	}
	return conn, nil
}

// Relay keeps a client connection to the hub alive for as long as its
// context lives, reconnecting after every failure.
type Relay struct {
	path       string
	retryDelay time.Duration
	pollDelay  time.Duration
	bufSize    int
	logger     *slog.Logger
	clock      clock.Clock
	dial       Dialer
}

// NewRelay returns a relay for opts.Path. Nothing is dialed until Start.
func NewRelay(opts RelayOptions) *Relay {
	r := &Relay{
		path:       opts.Path,
		retryDelay: opts.RetryDelay,
		pollDelay:  opts.PollDelay,
		bufSize:    opts.ReadBufferSize,
		logger:     logging.NewComponentLogger(opts.Logger, "relay"),
		clock:      clock.OrReal(opts.Clock),
		dial:       opts.Dial,
	}
	if r.retryDelay <= 0 {
		r.retryDelay = defaultRetryDelay
	}
	if r.pollDelay <= 0 {
		r.pollDelay = defaultPollDelay
	}
	if r.bufSize <= 0 {
		r.bufSize = defaultReadBufferSize
	}
	if r.dial == nil {
		r.dial = dial
	}
	return r
}

// Start launches the connection supervisor and returns immediately.
//
// Everything read from the hub, plus ConnectedNotice and DisconnectedNotice,
// is sent on incoming. Every string received on outgoing while a connection
// is up is written to the hub; strings received while disconnected wait in
// the channel. The supervisor stops when ctx is cancelled.
func (r *Relay) Start(ctx context.Context, incoming chan<- string, outgoing <-chan string) {
	go r.supervise(ctx, incoming, outgoing)
}

func (r *Relay) supervise(ctx context.Context, incoming chan<- string, outgoing <-chan string) {
	for ctx.Err() == nil {
		r.logger.Debug("connecting to hub",
			logging.String(logging.FieldSocket, r.path),
			logging.String(logging.FieldEventType, "relay_connecting"))

		conn, err := r.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Info("hub unavailable; will retry",
				logging.String(logging.FieldSocket, r.path),
				logging.Duration("retry_in", r.retryDelay),
				logging.Error(err),
				logging.String(logging.FieldEventType, "relay_connect_failed"))
		} else {
			r.serve(ctx, conn, incoming, outgoing)
		}

		if !sleep(ctx, r.clock, r.retryDelay) {
			return
		}
	}
}

func (r *Relay) connect(ctx context.Context) (net.Conn, error) {
	conn, err := r.dial(ctx, r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, r.path, err)
	}
	return conn, nil
}

// serve runs one connection: the read loop here, the write loop in a
// goroutine scoped to this connection. It returns once the connection is
// gone and the writer has exited.
func (r *Relay) serve(ctx context.Context, conn net.Conn, incoming chan<- string, outgoing <-chan string) {
	r.logger.Info("connected to hub",
		logging.String(logging.FieldSocket, r.path),
		logging.String(logging.FieldEventType, "relay_connected"))

	// Closing conn on cancellation unblocks the read loop below.
	stopClose := context.AfterFunc(ctx, func() { _ = conn.Close() })
	connCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		stopClose()
		cancel()
		_ = conn.Close()
		wg.Wait()
	}()

	if !deliver(ctx, incoming, ConnectedNotice) {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.forward(connCtx, conn, outgoing); err != nil {
			r.logger.Debug("relay writer stopped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "relay_writer_stopped"))
		}
	}()

	buf := make([]byte, r.bufSize)
	for {
		text, err := r.read(conn, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Info("hub connection lost",
				logging.Error(err),
				logging.Duration("retry_in", r.retryDelay),
				logging.String(logging.FieldEventType, "relay_disconnected"))
			deliver(ctx, incoming, DisconnectedNotice)
			return
		}
		if !deliver(ctx, incoming, text) {
			return
		}
		if !sleep(ctx, r.clock, r.pollDelay) {
			return
		}
	}
}

// read returns one chunk from the hub. Undecodable bytes are replaced with
// U+FFFD rather than failing the connection.
func (r *Relay) read(conn net.Conn, buf []byte) (string, error) {
	n, err := conn.Read(buf)
	if n > 0 {
		return strings.ToValidUTF8(string(buf[:n]), "\uFFFD"), nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return "", ErrPeerClosed
	}
	return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
}

// forward writes outgoing strings to conn until ctx is cancelled, a write
// fails, or outgoing is closed.
func (r *Relay) forward(ctx context.Context, conn net.Conn, outgoing <-chan string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-outgoing:
			if !ok {
				return ErrChannelClosed
			}
			if _, err := io.WriteString(conn, text); err != nil {
				err = fmt.Errorf("%w: %w", ErrWriteFailed, err)
				logging.WarnWithContext(r.logger, "message to desktop app dropped", "relay_write_failed",
					logging.Error(err),
					logging.Int("bytes", len(text)),
					logging.String(logging.FieldImpact, "the message was lost and the writer stops until the next connection"))
				return err
			}
		}
	}
}

func deliver(ctx context.Context, ch chan<- string, text string) bool {
	select {
	case ch <- text:
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep waits d on c. It reports false when ctx ended first.
func sleep(ctx context.Context, c clock.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-c.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
