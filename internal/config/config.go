package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// IPC configures the hub side of the local socket.
type IPC struct {
	// SocketPath overrides the platform default endpoint.
	SocketPath          string `toml:"socket_path"`
	BroadcastIntervalMS int    `toml:"broadcast_interval_ms"`
	ReadBufferSize      int    `toml:"read_buffer_size"`
	EventBuffer         int    `toml:"event_buffer"`
}

// Relay configures the reconnecting client inside the proxy.
type Relay struct {
	RetryDelayMS    int `toml:"retry_delay_ms"`
	PollDelayMS     int `toml:"poll_delay_ms"`
	ChannelCapacity int `toml:"channel_capacity"`
}

// Proxy configures the Native Messaging stdio side.
type Proxy struct {
	IdleDelayMS int `toml:"idle_delay_ms"`
	// MaxMessageBytes caps inbound frames from the browser. Zero disables
	// the check.
	MaxMessageBytes int64 `toml:"max_message_bytes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for deskrelay.
type Config struct {
	IPC     IPC     `toml:"ipc"`
	Relay   Relay   `toml:"relay"`
	Proxy   Proxy   `toml:"proxy"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the path that was consulted, and whether that file existed. A
// missing file is not an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	var buf strings.Builder
	encoder := toml.NewEncoder(&buf).SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}

// BroadcastInterval is the hub's queue drain period.
func (c *Config) BroadcastInterval() time.Duration {
	return time.Duration(c.IPC.BroadcastIntervalMS) * time.Millisecond
}

// RetryDelay is the relay's wait between connection attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Relay.RetryDelayMS) * time.Millisecond
}

// PollDelay is the relay's pause between socket reads.
func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.Relay.PollDelayMS) * time.Millisecond
}

// IdleDelay is the proxy's pause after an empty stdin frame.
func (c *Config) IdleDelay() time.Duration {
	return time.Duration(c.Proxy.IdleDelayMS) * time.Millisecond
}

// LockPath is the single-instance lock guarding the hub socket.
func (c *Config) LockPath() string {
	return filepath.Join(c.Logging.Dir, "hub.lock")
}

// EnsureDirectories creates the directories the hub and proxy write into.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Logging.Dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Logging.Dir, err)
	}
	if !isNamedPipe(c.IPC.SocketPath) {
		if err := os.MkdirAll(filepath.Dir(c.IPC.SocketPath), 0o755); err != nil {
			return fmt.Errorf("create socket directory: %w", err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func isNamedPipe(path string) bool {
	return strings.HasPrefix(path, `\\.\pipe\`)
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
