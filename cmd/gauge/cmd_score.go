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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGauge/services/gauge/trial"
)

// runScoreCommand scores one or more transcript files with the objective
// rules and prints a per-file breakdown.
func runScoreCommand(cmd *cobra.Command, args []string) error {
	transcripts := make([]string, len(args))
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading transcript %s: %w", path, err)
		}
		transcripts[i] = string(data)
	}

	results, err := trial.ScoreTranscripts(cmd.Context(), transcripts, scoreParallel)
	if err != nil {
		return err
	}

	if scoreAsJSON {
		out := make(map[string]any, len(results))
		for i, r := range results {
			out[args[i]] = r.Report
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for i, r := range results {
		fmt.Printf("%s\n", boldText(args[i]))
		for _, res := range r.Report.Results {
			fmt.Printf("  %-20s %.0f/%.0f  %s\n", res.Rule, res.Points, res.Max, res.Evidence)
		}
		fmt.Printf("  total: %.0f/%.0f\n", r.Report.Total, r.Report.Max)
	}

	appLogger.Info("transcripts scored", "count", len(results))
	return nil
}
