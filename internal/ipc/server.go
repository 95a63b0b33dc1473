package ipc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"deskrelay/internal/clock"
	"deskrelay/internal/logging"
)

const (
	defaultBroadcastInterval = 100 * time.Millisecond
	defaultReadBufferSize    = 4096
	acceptRetryDelay         = 100 * time.Millisecond
)

// HubOptions configures a Hub. Zero values select the defaults.
type HubOptions struct {
	Path              string
	BroadcastInterval time.Duration
	ReadBufferSize    int
	Logger            *slog.Logger
	Clock             clock.Clock
}

// Hub is the desktop side of the local socket. It is meant to live for the
// whole process; there is no shutdown path.
type Hub struct {
	path     string
	interval time.Duration
	bufSize  int
	logger   *slog.Logger
	clock    clock.Clock

	started  atomic.Bool
	listener net.Listener
	events   chan<- Message
	nextID   uint32 // accept loop only

	queueMu sync.Mutex
	queue   []string

	connMu sync.Mutex
	conns  []*connection
}

// connection is the hub's handle on one accepted client. Only the broadcast
// loop writes to conn; only the reader loop reads from it.
type connection struct {
	id   uint32
	conn net.Conn
}

func (c *connection) send(text string) error {
	if _, err := io.WriteString(c.conn, text); err != nil {
		return fmt.Errorf("%w: client %d: %w", ErrWriteFailed, c.id, err)
	}
	return nil
}

// NewHub configures a hub for opts.Path without opening it.
func NewHub(opts HubOptions) *Hub {
	interval := opts.BroadcastInterval
	if interval <= 0 {
		interval = defaultBroadcastInterval
	}
	bufSize := opts.ReadBufferSize
	if bufSize <= 0 {
		bufSize = defaultReadBufferSize
	}
	return &Hub{
		path:     opts.Path,
		interval: interval,
		bufSize:  bufSize,
		logger:   logging.NewComponentLogger(opts.Logger, "hub"),
		clock:    clock.OrReal(opts.Clock),
	}
}

// Path returns the socket or pipe path the hub serves.
func (h *Hub) Path() string { return h.path }

// Start opens the endpoint and begins accepting clients and broadcasting
// queued messages. Every event is delivered on events, which the caller must
// keep draining; a full channel stalls the accept and reader loops.
func (h *Hub) Start(events chan<- Message) error {
	if events == nil {
		return errors.New("ipc hub requires an event channel")
	}
	if h.path == "" {
		return errors.New("ipc hub requires a socket path")
	}
	if !h.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	listener, err := listen(h.path)
	if err != nil {
		h.started.Store(false)
		return err
	}
	h.listener = listener
	h.events = events

	ticker := h.clock.NewTicker(h.interval)
	go h.broadcastLoop(ticker)
	go h.acceptLoop()

	h.logger.Info("IPC hub listening",
		logging.String(logging.FieldSocket, h.path),
		logging.Duration("broadcast_interval", h.interval),
		logging.String(logging.FieldEventType, "hub_listening"))
	return nil
}

// Stop is reserved. The hub runs until the process exits and Stop currently
// does nothing.
func (h *Hub) Stop() error {
	return nil
}

// Send queues text for the next broadcast to every connected client. It
// never blocks on delivery.
func (h *Hub) Send(text string) {
	h.queueMu.Lock()
	h.queue = append(h.queue, text)
	h.queueMu.Unlock()
}

func (h *Hub) acceptLoop() {
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logging.WarnWithContext(h.logger, "accept failed", "ipc_accept_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "browser proxies may fail to connect"),
				logging.String(logging.FieldErrorHint, "check socket permissions and restart the desktop app if this repeats"))
			<-h.clock.After(acceptRetryDelay)
			continue
		}

		h.nextID++
		c := &connection{id: h.nextID, conn: conn}
		h.connMu.Lock()
		h.conns = append(h.conns, c)
		h.connMu.Unlock()

		h.logAccepted(c)
		h.events <- Message{ClientID: c.id, Kind: KindConnected}
		go h.readLoop(c)
	}
}

func (h *Hub) logAccepted(c *connection) {
	attrs := []logging.Attr{
		logging.ClientID(c.id),
		logging.String(logging.FieldEventType, "hub_client_connected"),
	}
	if pid, uid, ok := peerCredentials(c.conn); ok {
		attrs = append(attrs, logging.Int("peer_pid", int(pid)), logging.Uint64("peer_uid", uint64(uid)))
	}
	h.logger.Info("client connected", logging.Args(attrs...)...)
}

// readLoop forwards every read as one event. It closes the connection before
// reporting the disconnect so the next broadcast prunes it.
func (h *Hub) readLoop(c *connection) {
	buf := make([]byte, h.bufSize)
	cause := h.readUntilClosed(c, buf)

	_ = c.conn.Close()
	h.logger.Info("client disconnected",
		logging.ClientID(c.id),
		logging.String("reason", cause.Error()),
		logging.String(logging.FieldEventType, "hub_client_disconnected"))
	h.events <- Message{ClientID: c.id, Kind: KindDisconnected}
}

func (h *Hub) readUntilClosed(c *connection, buf []byte) error {
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if !utf8.Valid(chunk) {
				logging.WarnWithContext(h.logger, "dropping client after undecodable read", "hub_invalid_encoding",
					logging.ClientID(c.id),
					logging.Int("bytes", n),
					logging.String(logging.FieldImpact, "the client is disconnected"),
					logging.String(logging.FieldErrorHint, "clients must send UTF-8 text"))
				return ErrInvalidEncoding
			}
			h.events <- Message{ClientID: c.id, Kind: KindMessage, Message: string(chunk)}
		}
		switch {
		case err == nil && n > 0:
			continue
		case err == nil || errors.Is(err, io.EOF):
			return ErrPeerClosed
		default:
			return fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
	}
}

func (h *Hub) broadcastLoop(ticker *clock.Ticker) {
	defer ticker.Stop()
	for range ticker.C {
		h.flush()
	}
}

// flush drains the whole queue, oldest first, writing each message to every
// connection in acceptance order. A connection whose write fails is dropped
// from the set and skipped for the rest of the flush.
func (h *Hub) flush() {
	h.queueMu.Lock()
	pending := h.queue
	h.queue = nil
	h.queueMu.Unlock()
	if len(pending) == 0 {
		return
	}

	h.connMu.Lock()
	conns := append([]*connection(nil), h.conns...)
	h.connMu.Unlock()

	dead := make(map[uint32]struct{})
	for _, text := range pending {
		for _, c := range conns {
			if _, skip := dead[c.id]; skip {
				continue
			}
			if err := c.send(text); err != nil {
				dead[c.id] = struct{}{}
				h.logger.Debug("broadcast write failed; pruning connection",
					logging.ClientID(c.id),
					logging.Error(err),
					logging.String(logging.FieldEventType, "hub_write_failed"))
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(target *connection) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	for i, c := range h.conns {
		if c == target {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			return
		}
	}
}
