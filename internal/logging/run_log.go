package logging

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// NewRun builds the logger described by opts and tees it into a JSON file
// <dir>/<prefix>-<run>.log for this process run. Older files with the same
// prefix are pruned after retentionDays. When the file cannot be opened the
// console logger is still returned alongside the error.
func NewRun(opts Options, dir, prefix string, retentionDays int) (*slog.Logger, string, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(dir) == "" {
		return logger, "", nil
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.log", prefix, runID))
	fileLogger, err := New(Options{
		Level:       opts.Level,
		Format:      "json",
		OutputPaths: []string{path},
		Development: opts.Development,
		SessionID:   opts.SessionID,
	})
	if err != nil {
		return logger, "", fmt.Errorf("open run log: %w", err)
	}

	logger = TeeLogger(logger, fileLogger.Handler())
	CleanupOldLogs(logger, retentionDays, RetentionTarget{
		Dir:     dir,
		Pattern: prefix + "-*.log",
		Exclude: []string{path},
	})
	return logger, path, nil
}

// TeeLogger duplicates everything base logs into the extra handlers. Each
// handler keeps its own level.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base != nil {
		handlers = append([]slog.Handler{base.Handler()}, handlers...)
	}
	return slog.New(slog.NewMultiHandler(handlers...))
}
