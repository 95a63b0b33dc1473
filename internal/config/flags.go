package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Flags holds the command-line overrides shared by both executables.
type Flags struct {
	ConfigPath string
	SocketPath string
}

// RegisterFlags binds --config/-c and --socket on fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Configuration file path")
	fs.StringVar(&f.SocketPath, "socket", "", "Hub socket or named pipe path (overrides config and "+SocketEnv+")")
	return f
}

// Load reads the configuration named by --config and applies --socket on
// top of it.
func (f *Flags) Load() (*Config, string, bool, error) {
	cfg, path, exists, err := Load(strings.TrimSpace(f.ConfigPath))
	if err != nil {
		return nil, "", false, err
	}
	socket := strings.TrimSpace(f.SocketPath)
	if socket == "" {
		return cfg, path, exists, nil
	}
	if !isNamedPipe(socket) {
		socket, err = expandPath(socket)
		if err != nil {
			return nil, "", false, fmt.Errorf("--socket: %w", err)
		}
	}
	cfg.IPC.SocketPath = socket
	return cfg, path, exists, nil
}
