package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	defaultConfigPath          = "~/.config/deskrelay/config.toml"
	projectConfigName          = "deskrelay.toml"
	socketName                 = "deskrelay.sock"
	defaultBroadcastIntervalMS = 100
	defaultReadBufferSize      = 4096
	defaultEventBuffer         = 32
	defaultRetryDelayMS        = 5000
	defaultPollDelayMS         = 100
	defaultChannelCapacity     = 32
	defaultIdleDelayMS         = 100
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogDir              = "~/.local/share/deskrelay/logs"
	defaultLogRetentionDays    = 14

	// SocketEnv overrides the socket path for both executables.
	SocketEnv = "DESKRELAY_SOCKET"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		IPC: IPC{
			BroadcastIntervalMS: defaultBroadcastIntervalMS,
			ReadBufferSize:      defaultReadBufferSize,
			EventBuffer:         defaultEventBuffer,
		},
		Relay: Relay{
			RetryDelayMS:    defaultRetryDelayMS,
			PollDelayMS:     defaultPollDelayMS,
			ChannelCapacity: defaultChannelCapacity,
		},
		Proxy: Proxy{
			IdleDelayMS: defaultIdleDelayMS,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			Dir:           defaultLogDir,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// DefaultSocketPath is the well-known endpoint shared by the hub and the
// proxy: a named pipe on Windows, ~/tmp/deskrelay.sock elsewhere.
func DefaultSocketPath() (string, error) {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + socketName, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "tmp", socketName), nil
}
