package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeIPC(); err != nil {
		return err
	}
	c.normalizeRelay()
	if c.Proxy.IdleDelayMS <= 0 {
		c.Proxy.IdleDelayMS = defaultIdleDelayMS
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeIPC() error {
	if value, ok := os.LookupEnv(SocketEnv); ok && strings.TrimSpace(value) != "" {
		c.IPC.SocketPath = value
	}
	c.IPC.SocketPath = strings.TrimSpace(c.IPC.SocketPath)
	switch {
	case c.IPC.SocketPath == "":
		path, err := DefaultSocketPath()
		if err != nil {
			return fmt.Errorf("ipc.socket_path: %w", err)
		}
		c.IPC.SocketPath = path
	case !isNamedPipe(c.IPC.SocketPath):
		path, err := expandPath(c.IPC.SocketPath)
		if err != nil {
			return fmt.Errorf("ipc.socket_path: %w", err)
		}
		c.IPC.SocketPath = path
	}

	if c.IPC.BroadcastIntervalMS == 0 {
		c.IPC.BroadcastIntervalMS = defaultBroadcastIntervalMS
	}
	if c.IPC.ReadBufferSize == 0 {
		c.IPC.ReadBufferSize = defaultReadBufferSize
	}
	if c.IPC.EventBuffer == 0 {
		c.IPC.EventBuffer = defaultEventBuffer
	}
	return nil
}

func (c *Config) normalizeRelay() {
	if c.Relay.RetryDelayMS == 0 {
		c.Relay.RetryDelayMS = defaultRetryDelayMS
	}
	if c.Relay.PollDelayMS == 0 {
		c.Relay.PollDelayMS = defaultPollDelayMS
	}
	if c.Relay.ChannelCapacity == 0 {
		c.Relay.ChannelCapacity = defaultChannelCapacity
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	dir, err := expandPath(c.Logging.Dir)
	if err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	c.Logging.Dir = dir
	return nil
}
