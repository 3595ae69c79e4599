// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export ships drift history to external sinks: CSV for
// spreadsheets and ad-hoc analysis, InfluxDB for dashboards.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
)

// WriteCSV renders a scenario's drift history as CSV.
//
// Columns: timestamp, scenario_id, score, delta, cumulative_sum. The
// cumulative sum column is recomputed row by row so the file is
// self-contained for plotting.
func WriteCSV(w io.Writer, state *drift.State) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "scenario_id", "score", "delta", "cumulative_sum"}); err != nil {
		return err
	}

	var running float64
	for _, obs := range state.History {
		running += obs.Delta
		record := []string{
			obs.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			state.ScenarioID,
			strconv.FormatFloat(obs.Score, 'f', 4, 64),
			strconv.FormatFloat(obs.Delta, 'f', 4, 64),
			strconv.FormatFloat(running, 'f', 4, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes a scenario's drift history to a file.
func WriteCSVFile(path string, state *drift.State) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, state); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// InfluxDB
// -----------------------------------------------------------------------------

// InfluxConfig locates the destination bucket. Empty fields fall back to the
// INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, and INFLUXDB_BUCKET
// environment variables.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

func (c *InfluxConfig) applyEnv() {
	if c.URL == "" {
		c.URL = os.Getenv("INFLUXDB_URL")
	}
	if c.Token == "" {
		c.Token = os.Getenv("INFLUXDB_TOKEN")
	}
	if c.Org == "" {
		c.Org = os.Getenv("INFLUXDB_ORG")
	}
	if c.Bucket == "" {
		c.Bucket = os.Getenv("INFLUXDB_BUCKET")
	}
}

// InfluxExporter writes drift observations as time-series points.
type InfluxExporter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxExporter connects to InfluxDB using config plus env fallbacks.
//
// Outputs:
//   - *InfluxExporter: The exporter. Never nil on success.
//   - error: Non-nil if the destination is not fully specified.
func NewInfluxExporter(cfg InfluxConfig) (*InfluxExporter, error) {
	cfg.applyEnv()
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx destination incomplete: url=%q org=%q bucket=%q",
			cfg.URL, cfg.Org, cfg.Bucket)
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxExporter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Export writes every observation in the state as a "drift" measurement
// point tagged with the scenario ID.
func (e *InfluxExporter) Export(ctx context.Context, state *drift.State) error {
	var running float64
	for _, obs := range state.History {
		running += obs.Delta
		point := influxdb2.NewPoint("drift",
			map[string]string{"scenario_id": state.ScenarioID},
			map[string]interface{}{
				"score":          obs.Score,
				"delta":          obs.Delta,
				"cumulative_sum": running,
			},
			obs.Timestamp,
		)
		if err := e.writeAPI.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("writing point for %s: %w", state.ScenarioID, err)
		}
	}
	return nil
}

// Close releases the client connection.
func (e *InfluxExporter) Close() {
	e.client.Close()
}
