package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIPC(); err != nil {
		return err
	}
	if err := c.validateRelay(); err != nil {
		return err
	}
	if err := c.validateProxy(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateIPC() error {
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must be set")
	}
	if c.IPC.BroadcastIntervalMS < 1 {
		return errors.New("ipc.broadcast_interval_ms must be positive")
	}
	if c.IPC.ReadBufferSize < 1 {
		return errors.New("ipc.read_buffer_size must be positive")
	}
	if c.IPC.EventBuffer < 0 {
		return errors.New("ipc.event_buffer must not be negative")
	}
	return nil
}

func (c *Config) validateRelay() error {
	if c.Relay.RetryDelayMS < 1 {
		return errors.New("relay.retry_delay_ms must be positive")
	}
	if c.Relay.PollDelayMS < 0 {
		return errors.New("relay.poll_delay_ms must not be negative")
	}
	if c.Relay.ChannelCapacity < 0 {
		return errors.New("relay.channel_capacity must not be negative")
	}
	return nil
}

func (c *Config) validateProxy() error {
	if c.Proxy.MaxMessageBytes < 0 || c.Proxy.MaxMessageBytes > math.MaxUint32 {
		return fmt.Errorf("proxy.max_message_bytes must be between 0 and %d", uint32(math.MaxUint32))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
