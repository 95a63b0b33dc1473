package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"deskrelay/internal/config"
	"deskrelay/internal/ipc"
	"deskrelay/internal/logging"
)

// Bridge exposes a Hub through a callback-based API.
type Bridge struct {
	hub    *ipc.Hub
	buffer int
	logger *slog.Logger
}

// New builds a bridge whose hub is configured from cfg.
func New(cfg *config.Config, logger *slog.Logger) *Bridge {
	hub := ipc.NewHub(ipc.HubOptions{
		Path:              cfg.IPC.SocketPath,
		BroadcastInterval: cfg.BroadcastInterval(),
		ReadBufferSize:    cfg.IPC.ReadBufferSize,
		Logger:            logger,
	})
	return &Bridge{
		hub:    hub,
		buffer: cfg.IPC.EventBuffer,
		logger: logging.NewComponentLogger(logger, "bridge"),
	}
}

// Path returns the endpoint the hub listens on.
func (b *Bridge) Path() string { return b.hub.Path() }

// Listen starts the hub and calls callback for every event, one at a time,
// in the order the hub produced them. A slow callback backs up the hub's
// accept and reader loops once the event buffer is full.
func (b *Bridge) Listen(callback func(ipc.Message)) error {
	if callback == nil {
		return errors.New("bridge listen requires a callback")
	}
	events := make(chan ipc.Message, b.buffer)
	if err := b.hub.Start(events); err != nil {
		return fmt.Errorf("start ipc hub: %w", err)
	}
	go func() {
		for event := range events {
			b.logger.Debug("hub event",
				logging.ClientID(event.ClientID),
				logging.String("kind", event.Kind.String()),
				logging.String(logging.FieldEventType, "bridge_event"))
			callback(event)
		}
	}()
	return nil
}

// Send queues text for the next broadcast. It may be called before Listen;
// the text then goes out with the first broadcast after the hub starts.
func (b *Bridge) Send(text string) error {
	if !utf8.ValidString(text) {
		return ipc.ErrInvalidEncoding
	}
	b.hub.Send(text)
	return nil
}

// Stop is reserved. It currently does nothing and always succeeds.
func (b *Bridge) Stop() error {
	return b.hub.Stop()
}
