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
	"testing"
)

func TestReadScores(t *testing.T) {
	dir := t.TempDir()

	t.Run("floats with blanks and comments", func(t *testing.T) {
		path := filepath.Join(dir, "scores.txt")
		content := "# run 2026-08-24\n5.1\n5.3\n\n5.0\n  5.2\n5.4\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		scores, err := readScores(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []float64{5.1, 5.3, 5.0, 5.2, 5.4}
		if len(scores) != len(want) {
			t.Fatalf("expected %d scores, got %d", len(want), len(scores))
		}
		for i := range want {
			if scores[i] != want[i] {
				t.Errorf("score %d: expected %v, got %v", i, want[i], scores[i])
			}
		}
	})

	t.Run("bad line", func(t *testing.T) {
		path := filepath.Join(dir, "bad.txt")
		if err := os.WriteFile(path, []byte("5.1\nseven\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := readScores(path); err == nil {
			t.Errorf("expected error for non-numeric line")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := readScores(filepath.Join(dir, "nope.txt")); err == nil {
			t.Errorf("expected error for missing file")
		}
	})
}
