// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trial runs scenario trials: it scores transcripts in parallel,
// aggregates trial scores into an interval, and stamps every run with a
// unique run ID.
package trial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianGauge/services/gauge/objective"
	"github.com/AleutianAI/AleutianGauge/services/gauge/stats"
)

// NewRunID builds a unique, sortable run identifier:
// {scenario}_{timestamp}_{uuid8}.
//
// The timestamp makes runs sort chronologically in listings; the UUID
// fragment keeps two runs in the same second distinct.
func NewRunID(scenarioID string) string {
	stamp := time.Now().UTC().Format("20060102T150405")
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s", scenarioID, stamp, short)
}

// TranscriptResult pairs one transcript's objective report with its index in
// the input slice.
type TranscriptResult struct {
	Index  int               `json:"index"`
	Report *objective.Report `json:"report"`
}

// ScoreTranscripts runs the objective rules over every transcript
// concurrently. Results come back in input order regardless of completion
// order.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - transcripts: Transcript texts to score.
//   - parallelism: Maximum concurrent scorers. Values < 1 mean unlimited.
//
// Outputs:
//   - []TranscriptResult: One result per transcript, in input order.
//   - error: Non-nil if the context was canceled mid-run.
func ScoreTranscripts(ctx context.Context, transcripts []string, parallelism int) ([]TranscriptResult, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}

	results := make([]TranscriptResult, len(transcripts))

	g, gCtx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, text := range transcripts {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = TranscriptResult{
				Index:  i,
				Report: objective.RunAll(text),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is the aggregate of one scenario run.
type Summary struct {
	RunID      string          `json:"run_id"`
	ScenarioID string          `json:"scenario_id"`
	Scores     []float64       `json:"scores"`
	Interval   *stats.Interval `json:"interval"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`
}

// Summarize estimates the confidence interval over trial scores and wraps it
// with run metadata.
func Summarize(scenarioID string, scores []float64, level float64, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	ci, err := stats.EstimateAt(scores, level)
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", scenarioID, err)
	}

	summary := &Summary{
		RunID:      NewRunID(scenarioID),
		ScenarioID: scenarioID,
		Scores:     scores,
		Interval:   ci,
		StartedAt:  start.UTC(),
		Duration:   time.Since(start),
	}

	logger.Info("run summarized",
		slog.String("run_id", summary.RunID),
		slog.Float64("mean", ci.Mean),
		slog.Float64("margin", ci.Margin),
		slog.Int("trials", ci.SampleSize),
	)
	return summary, nil
}
