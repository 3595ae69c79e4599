// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
)

func sampleState() *drift.State {
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return &drift.State{
		ScenarioID:    "auth_flow",
		Target:        7.0,
		CumulativeSum: -0.7,
		History: []drift.Observation{
			{Timestamp: base, Score: 6.8, Delta: -0.2},
			{Timestamp: base.Add(time.Hour), Score: 6.5, Delta: -0.5},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output must be valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}

	header := records[0]
	if header[0] != "timestamp" || header[4] != "cumulative_sum" {
		t.Errorf("unexpected header: %v", header)
	}
	if records[1][1] != "auth_flow" || records[1][2] != "6.8000" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[2][4] != "-0.7000" {
		t.Errorf("cumulative sum must accumulate down the file: %v", records[2])
	}
}

func TestWriteCSV_EmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	state := &drift.State{ScenarioID: "auth_flow"}
	if err := WriteCSV(&buf, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output must be valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d rows", len(records))
	}
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift.csv")
	if err := WriteCSVFile(path, sampleState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Contains(data, []byte("auth_flow")) {
		t.Errorf("file missing data:\n%s", data)
	}
}

func TestNewInfluxExporter_IncompleteConfig(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "")
	t.Setenv("INFLUXDB_ORG", "")
	t.Setenv("INFLUXDB_BUCKET", "")

	if _, err := NewInfluxExporter(InfluxConfig{}); err == nil {
		t.Errorf("expected error for incomplete destination")
	}
}
