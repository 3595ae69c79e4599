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
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
)

func newDriftTracker() (*drift.Tracker, error) {
	store, err := drift.NewFileHistory(historyDir)
	if err != nil {
		return nil, err
	}
	return drift.NewTracker(store,
		drift.WithTarget(driftTarget),
		drift.WithTrackerLogger(appLogger.Slog()),
	), nil
}

// runDriftRecordCommand records one score observation for a scenario.
func runDriftRecordCommand(cmd *cobra.Command, args []string) error {
	scenario := args[0]
	score, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parsing score %q: %w", args[1], err)
	}

	tracker, err := newDriftTracker()
	if err != nil {
		return err
	}
	status, err := tracker.RecordObservation(cmd.Context(), scenario, score)
	if err != nil {
		return err
	}

	printDriftStatus(status)
	return nil
}

// runDriftStatusCommand shows the current drift state for a scenario.
func runDriftStatusCommand(cmd *cobra.Command, args []string) error {
	tracker, err := newDriftTracker()
	if err != nil {
		return err
	}
	status, err := tracker.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printDriftStatus(status)
	return nil
}

func printDriftStatus(status *drift.Status) {
	fmt.Printf("%s %s\n", boldText("scenario:"), status.ScenarioID)
	fmt.Printf("  target:       %.2f\n", status.Target)
	fmt.Printf("  observations: %d\n", status.Observations)
	fmt.Printf("  cumulative:   %+.2f\n", status.CumulativeSum)
	fmt.Printf("  signal:       %s\n", statusText(string(status.Signal)))
}
