package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deskrelay/internal/logging"
)

func TestNewRunTeesIntoRunFile(t *testing.T) {
	dir := t.TempDir()
	console := filepath.Join(dir, "console.txt")
	stale := filepath.Join(dir, "proxy-20200101T000000.000Z.log")
	if err := os.WriteFile(stale, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write stale log: %v", err)
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	logger, runPath, err := logging.NewRun(logging.Options{
		Level:       "info",
		OutputPaths: []string{console},
		SessionID:   "run-1",
	}, dir, "proxy", 7)
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(runPath), "proxy-") {
		t.Fatalf("unexpected run log path %q", runPath)
	}

	logger.Info("proxy starting")

	if content := readLog(t, console); !strings.Contains(content, "proxy starting") {
		t.Fatalf("console output missing record: %q", content)
	}
	content := readLog(t, runPath)
	if !strings.Contains(content, `"msg":"proxy starting"`) || !strings.Contains(content, `"session_id":"run-1"`) {
		t.Fatalf("run log missing JSON record: %q", content)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale run log not pruned: %v", err)
	}
}

func TestNewRunWithoutDirectory(t *testing.T) {
	logger, runPath, err := logging.NewRun(logging.Options{OutputPaths: []string{filepath.Join(t.TempDir(), "c.log")}}, "", "hub", 7)
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if logger == nil || runPath != "" {
		t.Fatalf("NewRun = %v, %q; want console logger and no run file", logger, runPath)
	}
}
