// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package drift

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestTracker(t *testing.T, opts ...TrackerOption) *Tracker {
	t.Helper()
	opts = append(opts, WithTrackerLogger(slog.New(slog.DiscardHandler)))
	return NewTracker(NewMemoryHistory(), opts...)
}

func TestTracker_Accumulation(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	// Each run scores 6.8 against the 7.0 target: -0.2 per observation.
	var status *Status
	var err error
	for i := 0; i < 5; i++ {
		status, err = tracker.RecordObservation(ctx, "auth_flow", 6.8)
		if err != nil {
			t.Fatalf("observation %d: %v", i, err)
		}
	}

	if math.Abs(status.CumulativeSum-(-1.0)) > 1e-9 {
		t.Errorf("expected cumulative sum -1.0, got %v", status.CumulativeSum)
	}
	if status.Signal != SignalNormal {
		t.Errorf("expected NORMAL at -1.0, got %s", status.Signal)
	}
	if status.Observations != 5 {
		t.Errorf("expected 5 observations, got %d", status.Observations)
	}
}

func TestTracker_BandTransitions(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	// -0.5 per observation: NORMAL until -2.0, WARNING until -3.0, then ALERT.
	expected := []Signal{SignalNormal, SignalNormal, SignalNormal,
		SignalWarning, SignalWarning, SignalAlert, SignalAlert}

	for i, want := range expected {
		status, err := tracker.RecordObservation(ctx, "auth_flow", 6.5)
		if err != nil {
			t.Fatalf("observation %d: %v", i, err)
		}
		if status.Signal != want {
			t.Errorf("observation %d (sum %.1f): expected %s, got %s",
				i, status.CumulativeSum, want, status.Signal)
		}
	}
}

func TestTracker_PositiveDriftSignals(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	// Scoring far above target drifts in the positive direction.
	var status *Status
	for i := 0; i < 3; i++ {
		var err error
		status, err = tracker.RecordObservation(ctx, "auth_flow", 8.5)
		if err != nil {
			t.Fatalf("observation %d: %v", i, err)
		}
	}

	if status.CumulativeSum <= 0 {
		t.Fatalf("expected positive drift, got %v", status.CumulativeSum)
	}
	if status.Signal != SignalAlert {
		t.Errorf("expected ALERT at +4.5, got %s", status.Signal)
	}
}

func TestTracker_NeverResets(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	tracker.RecordObservation(ctx, "auth_flow", 4.0) // -3.0
	status, err := tracker.RecordObservation(ctx, "auth_flow", 7.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An on-target score contributes zero but clears nothing.
	if math.Abs(status.CumulativeSum-(-3.0)) > 1e-9 {
		t.Errorf("expected cumulative sum -3.0 after on-target run, got %v", status.CumulativeSum)
	}
	if status.Signal != SignalAlert {
		t.Errorf("alert must persist, got %s", status.Signal)
	}
}

func TestTracker_TargetFixedAtFirstObservation(t *testing.T) {
	store := NewMemoryHistory()
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	first := NewTracker(store, WithTarget(7.0), WithTrackerLogger(logger))
	first.RecordObservation(ctx, "auth_flow", 6.0) // -1.0

	// A tracker configured with a different target keeps accumulating
	// against the recorded one.
	second := NewTracker(store, WithTarget(5.0), WithTrackerLogger(logger))
	status, err := second.RecordObservation(ctx, "auth_flow", 6.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(status.CumulativeSum-(-2.0)) > 1e-9 {
		t.Errorf("expected sum -2.0 against original target, got %v", status.CumulativeSum)
	}
	if status.Target != 7.0 {
		t.Errorf("expected recorded target 7.0, got %v", status.Target)
	}
}

func TestTracker_ConcurrentRecording(t *testing.T) {
	const writers = 200
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	stores := map[string]HistoryStore{}
	stores["memory"] = NewMemoryHistory()
	fileStore, err := NewFileHistory(t.TempDir())
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	stores["file"] = fileStore

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			tracker := NewTracker(store, WithTrackerLogger(logger))

			// Every writer contributes +1.0; a lost update shows up as a
			// short history or a low cumulative sum.
			var wg sync.WaitGroup
			errCh := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := tracker.RecordObservation(ctx, "auth_flow", 8.0); err != nil {
						errCh <- err
					}
				}()
			}
			wg.Wait()
			close(errCh)
			for err := range errCh {
				t.Fatalf("record: %v", err)
			}

			status, err := tracker.Status(ctx, "auth_flow")
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			if status.Observations != writers {
				t.Errorf("expected %d observations, got %d", writers, status.Observations)
			}
			if math.Abs(status.CumulativeSum-float64(writers)) > 1e-9 {
				t.Errorf("expected cumulative sum %d.0, got %v", writers, status.CumulativeSum)
			}
		})
	}
}

func TestTracker_ScenariosIsolated(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	tracker.RecordObservation(ctx, "auth_flow", 4.0)
	status, err := tracker.RecordObservation(ctx, "search_flow", 7.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.CumulativeSum != 0 {
		t.Errorf("scenarios must not share drift, got %v", status.CumulativeSum)
	}

	names, err := tracker.Scenarios(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 scenarios, got %v", names)
	}
}

func TestTracker_InvalidScore(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	if _, err := tracker.RecordObservation(ctx, "auth_flow", math.NaN()); err == nil {
		t.Errorf("expected error for NaN score")
	}
	if _, err := tracker.RecordObservation(ctx, "auth_flow", math.Inf(-1)); err == nil {
		t.Errorf("expected error for infinite score")
	}
}

func TestTracker_StatusWithoutHistory(t *testing.T) {
	tracker := newTestTracker(t)
	if _, err := tracker.Status(context.Background(), "unknown"); !errors.Is(err, ErrHistoryNotFound) {
		t.Errorf("expected ErrHistoryNotFound, got %v", err)
	}
}

func TestFileHistoryStore_Roundtrip(t *testing.T) {
	store, err := NewFileHistory(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	tracker := NewTracker(store, WithTrackerLogger(logger))
	for _, score := range []float64{6.5, 6.5, 6.5} {
		if _, err := tracker.RecordObservation(ctx, "auth_flow", score); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	// A fresh tracker over the same directory sees the accumulated state.
	reopened, err := NewFileHistory(store.dir)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	status, err := NewTracker(reopened, WithTrackerLogger(logger)).Status(ctx, "auth_flow")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if math.Abs(status.CumulativeSum-(-1.5)) > 1e-9 {
		t.Errorf("expected persisted sum -1.5, got %v", status.CumulativeSum)
	}
	if status.Observations != 3 {
		t.Errorf("expected 3 persisted observations, got %d", status.Observations)
	}

	state, err := reopened.Load(ctx, "auth_flow")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 1; i < len(state.History); i++ {
		if state.History[i].Timestamp.Before(state.History[i-1].Timestamp) {
			t.Errorf("history out of order at %d", i)
		}
	}
}

func TestFileHistoryStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileHistory(dir)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("seeding corrupt file: %v", err)
	}
	if _, err := store.Load(context.Background(), "broken"); !errors.Is(err, ErrInvalidHistory) {
		t.Errorf("expected ErrInvalidHistory, got %v", err)
	}
}
