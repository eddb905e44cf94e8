// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := tt.level.toSlogLevel(); got != tt.want {
			t.Errorf("Level(%d).toSlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_Defaults(t *testing.T) {
	logger := New(Config{})
	defer logger.Close()

	if logger.slog == nil {
		t.Fatal("New() returned logger with nil slog")
	}
	if logger.file != nil {
		t.Error("file handle should be nil without LogDir")
	}
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "topology",
		Quiet:   true,
	})

	logger.Info("graph mutation", "edges", 7)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	wantFile := filepath.Join(dir,
		"topology_"+time.Now().Format("2006-01-02")+".log")
	raw, err := os.ReadFile(wantFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &entry); err != nil {
		t.Fatalf("log file is not JSON: %v", err)
	}
	if entry["msg"] != "graph mutation" {
		t.Errorf("msg = %v, want %q", entry["msg"], "graph mutation")
	}
	if entry["service"] != "topology" {
		t.Errorf("service = %v, want %q", entry["service"], "topology")
	}
	if entry["edges"] != float64(7) {
		t.Errorf("edges = %v, want 7", entry["edges"])
	}
}

func TestNew_FileLoggingBadDirFallsBack(t *testing.T) {
	// A file in place of the directory makes MkdirAll fail; the logger
	// must still come up stderr-only.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0640); err != nil {
		t.Fatal(err)
	}

	logger := New(Config{LogDir: blocker})
	defer logger.Close()

	if logger.file != nil {
		t.Error("file handle should be nil when the log dir is unusable")
	}
	logger.Info("still alive") // must not panic
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filter",
		Quiet:   true,
	})

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("kept too")
	logger.Close()

	raw, err := os.ReadFile(filepath.Join(dir,
		"filter_"+time.Now().Format("2006-01-02")+".log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	out := string(raw)
	if strings.Contains(out, "dropped") {
		t.Errorf("sub-threshold messages leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "kept too") {
		t.Errorf("Warn/Error messages missing from output:\n%s", out)
	}
}

func TestLogger_With(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "with", Quiet: true})

	child := logger.With("flow_id", "flow-1")
	child.Info("executed")
	logger.Close()

	raw, err := os.ReadFile(filepath.Join(dir,
		"with_"+time.Now().Format("2006-01-02")+".log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(raw), `"flow_id":"flow-1"`) {
		t.Errorf("child attribute missing:\n%s", raw)
	}
}

func TestLogger_CloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "close", Quiet: true})

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "conc", Quiet: true})
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Info("concurrent write", "goroutine", n, "iter", j)
			}
		}(i)
	}
	wg.Wait()
}

// =============================================================================
// Multi-Handler Tests
// =============================================================================

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	}}

	logger := slog.New(handler)
	logger.Info("fan out", "key", "value")

	if !strings.Contains(a.String(), "fan out") {
		t.Errorf("first handler missed the record: %q", a.String())
	}
	if !strings.Contains(b.String(), "fan out") {
		t.Errorf("second handler missed the record: %q", b.String())
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	warnOnly := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := &multiHandler{handlers: []slog.Handler{warnOnly}}

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(Info) = true with a Warn-only handler")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("Enabled(Error) = false with a Warn-only handler")
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/.atlas/logs", filepath.Join(home, ".atlas/logs")},
		{"/var/log/atlas", "/var/log/atlas"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
