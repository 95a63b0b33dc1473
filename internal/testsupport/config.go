// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"deskrelay/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose socket and log directory are unique to
// the test. The hub broadcasts every 10ms so tests on the real clock stay
// fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.IPC.SocketPath = SocketPath(t)
	cfg.IPC.BroadcastIntervalMS = 10
	cfg.Logging.Dir = filepath.Join(t.TempDir(), "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBroadcastInterval overrides the hub broadcast period.
func WithBroadcastInterval(d time.Duration) ConfigOption {
	return func(cfg *config.Config) {
		cfg.IPC.BroadcastIntervalMS = int(d / time.Millisecond)
	}
}

// WithRelayDelays overrides the relay's retry and poll delays.
func WithRelayDelays(retry, poll time.Duration) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Relay.RetryDelayMS = int(retry / time.Millisecond)
		cfg.Relay.PollDelayMS = int(poll / time.Millisecond)
	}
}

// SocketPath returns a fresh unix socket path. Socket paths are limited to
// about a hundred bytes and t.TempDir can exceed that on macOS, so the
// directory lives directly under os.TempDir.
func SocketPath(t testing.TB) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "deskrelay")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "hub.sock")
}
