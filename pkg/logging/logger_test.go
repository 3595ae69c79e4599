// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.name); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})

	logger.Info("interval estimated", "scenario_id", "auth_flow", "mean", 5.2)
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	filename := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	line := strings.TrimSpace(string(data))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("file log must be JSON: %v\n%s", err, data)
	}
	if entry["msg"] != "interval estimated" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["service"] != "testsvc" {
		t.Errorf("service attribute missing: %v", entry)
	}
	if entry["scenario_id"] != "auth_flow" {
		t.Errorf("attributes missing: %v", entry)
	}
}

func TestNew_LevelFilter(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})

	logger.Debug("dropped")
	logger.Info("also dropped")
	logger.Warn("kept")
	logger.Close()

	filename := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	out := string(data)
	if strings.Contains(out, "dropped") {
		t.Errorf("messages below Warn must be filtered:\n%s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("Warn message missing:\n%s", out)
	}
}

func TestWith_AddsAttributes(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})

	child := logger.With("run_id", "auth_flow_20260824_ab12cd34")
	child.Info("trial completed")
	logger.Close()

	filename := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "auth_flow_20260824_ab12cd34") {
		t.Errorf("child attribute missing:\n%s", data)
	}
}

func TestClose_NoFileIsNoop(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("close without file: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("double close: %v", err)
	}
}

func TestMultiHandler(t *testing.T) {
	dir := t.TempDir()
	fileA, err := os.Create(filepath.Join(dir, "a.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer fileA.Close()
	fileB, err := os.Create(filepath.Join(dir, "b.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer fileB.Close()

	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(fileA, nil),
		slog.NewTextHandler(fileB, nil),
	}}
	slog.New(h).Info("fan out", "k", "v")

	for _, path := range []string{fileA.Name(), fileB.Name()} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if !strings.Contains(string(data), "fan out") {
			t.Errorf("%s missing record:\n%s", path, data)
		}
	}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("handler should be enabled at Info")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := expandPath("~/.gauge/logs"); got != filepath.Join(home, ".gauge/logs") {
		t.Errorf("expected home expansion, got %q", got)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("absolute path must be unchanged, got %q", got)
	}
}
