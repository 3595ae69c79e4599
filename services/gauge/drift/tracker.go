// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package drift accumulates per-scenario score deltas across runs and raises
// a signal when the cumulative drift crosses a band threshold.
//
// A single run that scores 6.8 against a 7.0 target is noise; thirty such
// runs are a 6.0-point cumulative drift and a real model change. The
// cumulative sum is what makes the slow bleed visible.
package drift

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

// Signal is a drift severity band.
type Signal string

const (
	// SignalNormal means |cumulative sum| is below the warning threshold.
	SignalNormal Signal = "NORMAL"

	// SignalWarning means drift has crossed the warning threshold.
	SignalWarning Signal = "WARNING"

	// SignalAlert means drift has crossed the alert threshold.
	SignalAlert Signal = "ALERT"
)

// Default tracker parameters.
const (
	DefaultTarget           = 7.0
	DefaultWarningThreshold = 2.0
	DefaultAlertThreshold   = 3.0
)

// Status is a point-in-time view of a scenario's drift.
type Status struct {
	ScenarioID    string    `json:"scenario_id"`
	Target        float64   `json:"target"`
	CumulativeSum float64   `json:"cumulative_sum"`
	Signal        Signal    `json:"signal"`
	Observations  int       `json:"observations"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// Target is the expected scenario score. Deltas accumulate against it.
	// Default: 7.0
	Target float64

	// WarningThreshold is |cumulative sum| at which WARNING is raised.
	// Default: 2.0
	WarningThreshold float64

	// AlertThreshold is |cumulative sum| at which ALERT is raised.
	// Default: 3.0
	AlertThreshold float64

	// Logger for output.
	Logger *slog.Logger
}

// DefaultTrackerConfig returns sensible defaults.
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		Target:           DefaultTarget,
		WarningThreshold: DefaultWarningThreshold,
		AlertThreshold:   DefaultAlertThreshold,
		Logger:           slog.Default(),
	}
}

// TrackerOption configures the tracker.
type TrackerOption func(*TrackerConfig)

// WithTarget sets the expected scenario score.
func WithTarget(target float64) TrackerOption {
	return func(c *TrackerConfig) {
		c.Target = target
	}
}

// WithThresholds sets the warning and alert thresholds.
func WithThresholds(warning, alert float64) TrackerOption {
	return func(c *TrackerConfig) {
		if warning > 0 && alert > warning {
			c.WarningThreshold = warning
			c.AlertThreshold = alert
		}
	}
}

// WithTrackerLogger sets the logger.
func WithTrackerLogger(logger *slog.Logger) TrackerOption {
	return func(c *TrackerConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// Tracker records scenario scores and classifies cumulative drift.
//
// Thread Safety: Safe for concurrent use. Observations are recorded through
// the store's Update primitive, which holds an exclusive lock across the
// whole read-modify-write cycle.
type Tracker struct {
	store  HistoryStore
	config *TrackerConfig
	logger *slog.Logger
}

// NewTracker creates a drift tracker on top of a history store.
//
// Inputs:
//   - store: History store. Must not be nil.
//   - opts: Configuration options.
//
// Outputs:
//   - *Tracker: The new tracker. Never nil.
func NewTracker(store HistoryStore, opts ...TrackerOption) *Tracker {
	config := DefaultTrackerConfig()
	for _, opt := range opts {
		opt(config)
	}

	return &Tracker{
		store:  store,
		config: config,
		logger: config.Logger,
	}
}

// RecordObservation appends a score observation and returns the updated
// status. The cumulative sum persists across calls and is never reset; the
// target is fixed at first observation so later config changes do not
// silently rebase an existing history.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - scenarioID: Scenario name.
//   - score: Observed mean score. Must be finite.
//
// Outputs:
//   - *Status: Updated drift status. Never nil on success.
//   - error: Non-nil if the score is invalid or persistence fails.
func (t *Tracker) RecordObservation(ctx context.Context, scenarioID string, score float64) (*Status, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, errors.New("score must be finite")
	}

	var status *Status
	err := t.store.Update(ctx, scenarioID, func(state *State) error {
		if state.UpdatedAt.IsZero() {
			state.Target = t.config.Target
		}

		delta := score - state.Target
		state.CumulativeSum += delta
		state.History = append(state.History, Observation{
			Timestamp: time.Now().UTC(),
			Score:     score,
			Delta:     delta,
		})
		state.UpdatedAt = time.Now().UTC()

		status = t.statusOf(state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logAttrs := []any{
		slog.String("scenario_id", scenarioID),
		slog.Float64("score", score),
		slog.Float64("cumulative_sum", status.CumulativeSum),
		slog.String("signal", string(status.Signal)),
	}
	switch status.Signal {
	case SignalAlert:
		t.logger.Error("drift alert", logAttrs...)
	case SignalWarning:
		t.logger.Warn("drift warning", logAttrs...)
	default:
		t.logger.Debug("drift observation recorded", logAttrs...)
	}

	return status, nil
}

// Status returns the current drift status without recording anything.
// Returns ErrHistoryNotFound if the scenario has no history.
func (t *Tracker) Status(ctx context.Context, scenarioID string) (*Status, error) {
	state, err := t.store.Load(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	return t.statusOf(state), nil
}

// History returns the full recorded state for a scenario.
func (t *Tracker) History(ctx context.Context, scenarioID string) (*State, error) {
	return t.store.Load(ctx, scenarioID)
}

// Scenarios lists every scenario with recorded drift history.
func (t *Tracker) Scenarios(ctx context.Context) ([]string, error) {
	return t.store.List(ctx)
}

// Classify maps a cumulative sum to its severity band. Drift in either
// direction counts: a model suddenly scoring far above target is also a
// change worth investigating.
func (t *Tracker) Classify(cumulativeSum float64) Signal {
	abs := math.Abs(cumulativeSum)
	switch {
	case abs >= t.config.AlertThreshold:
		return SignalAlert
	case abs >= t.config.WarningThreshold:
		return SignalWarning
	default:
		return SignalNormal
	}
}

func (t *Tracker) statusOf(state *State) *Status {
	return &Status{
		ScenarioID:    state.ScenarioID,
		Target:        state.Target,
		CumulativeSum: state.CumulativeSum,
		Signal:        t.Classify(state.CumulativeSum),
		Observations:  len(state.History),
		UpdatedAt:     state.UpdatedAt,
	}
}
