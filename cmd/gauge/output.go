// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
)

// ANSI codes, applied only when stdout is a terminal so piped output stays
// clean for scripts.
const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiBold   = "\033[1m"
)

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func colorize(code, s string) string {
	if !stdoutIsTerminal() {
		return s
	}
	return code + s + ansiReset
}

func passText(s string) string { return colorize(ansiGreen, s) }
func warnText(s string) string { return colorize(ansiYellow, s) }
func failText(s string) string { return colorize(ansiRed, s) }
func boldText(s string) string { return colorize(ansiBold, s) }

// statusText picks a color by verdict or signal name.
func statusText(s string) string {
	switch s {
	case "IMPROVED", "STABLE", "NORMAL", "PASS":
		return passText(s)
	case "WARNING":
		return warnText(s)
	default:
		return failText(s)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultBaselineDir() string {
	return envOr("GAUGE_BASELINE_DIR", filepath.Join(gaugeHome(), "baselines"))
}

func defaultHistoryDir() string {
	return envOr("GAUGE_HISTORY_DIR", filepath.Join(gaugeHome(), "drift"))
}

func gaugeHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".gauge")
	}
	return ".gauge"
}
