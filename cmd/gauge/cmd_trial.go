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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGauge/services/gauge/config"
	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
	"github.com/AleutianAI/AleutianGauge/services/gauge/regression"
	"github.com/AleutianAI/AleutianGauge/services/gauge/trial"
)

// runTrialCommand summarizes a scenario run, checks the regression gate, and
// records the run in the drift history.
func runTrialCommand(cmd *cobra.Command, args []string) error {
	suite, err := config.Load(suitePath)
	if err != nil {
		return err
	}
	scenario, ok := suite.Scenario(scenarioID)
	if !ok {
		return fmt.Errorf("scenario %q not in suite %s", scenarioID, suitePath)
	}

	scores, err := readScores(scoresPath)
	if err != nil {
		return err
	}
	if len(scores) != scenario.Trials {
		appLogger.Warn("trial count mismatch",
			"scenario_id", scenario.ID,
			"expected", scenario.Trials,
			"got", len(scores))
	}

	summary, err := trial.Summarize(scenario.ID, scores, scenario.Level, appLogger.Slog())
	if err != nil {
		return err
	}

	store, err := regression.NewFileBaseline(baselineDir)
	if err != nil {
		return err
	}
	gate := regression.NewGate(store,
		regression.WithConfidenceLevel(scenario.Level),
		regression.WithUpdateBaseline(updateBaseline),
		regression.WithRequireBaseline(requireBaseline),
		regression.WithGateLogger(appLogger.Slog()),
	)

	decision, err := gate.Check(cmd.Context(), scenario.ID, scores)
	if err != nil {
		return err
	}

	history, err := drift.NewFileHistory(defaultHistoryDir())
	if err != nil {
		return err
	}
	tracker := drift.NewTracker(history,
		drift.WithTarget(scenario.Target),
		drift.WithTrackerLogger(appLogger.Slog()),
	)
	status, err := tracker.RecordObservation(cmd.Context(), scenario.ID, summary.Interval.Mean)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", boldText("run:"), summary.RunID)
	fmt.Printf("  interval: %.2f ± %.2f (n=%d, %.0f%%)\n",
		summary.Interval.Mean, summary.Interval.Margin,
		summary.Interval.SampleSize, summary.Interval.Level*100)
	if decision.Comparison != nil {
		fmt.Printf("  verdict:  %s\n", statusText(string(decision.Comparison.Verdict)))
	} else {
		fmt.Printf("  verdict:  %s\n", warnText("FIRST RUN"))
	}
	if decision.BaselineUpdated {
		fmt.Printf("  baseline: updated\n")
	}
	fmt.Printf("  drift:    %+.2f (%s)\n", status.CumulativeSum, statusText(string(status.Signal)))

	if !decision.Pass && failOnRegression {
		return fmt.Errorf("%w: %s", regression.ErrGateFailed, scenario.ID)
	}
	return nil
}

// readScores parses one float per line, ignoring blanks and # comments.
func readScores(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading scores %s: %w", path, err)
	}
	defer f.Close()

	var scores []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		score, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing score %q in %s: %w", line, path, err)
		}
		scores = append(scores, score)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}
