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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGauge/services/gauge/rubric"
)

// runValidateCommand validates a judge payload file: schema, bounds, and
// rubric total. With --clamp, out-of-range points are corrected instead of
// rejected.
func runValidateCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading payload %s: %w", path, err)
	}

	raw, err := rubric.Decode(data)
	if err != nil {
		return err
	}
	breakdown, err := rubric.Parse(raw)
	if err != nil {
		return err
	}

	if err := rubric.ValidateBounds(breakdown); err != nil {
		var boundsErr *rubric.BoundsError
		if !clampScores || !errors.As(err, &boundsErr) {
			return err
		}
		breakdown = rubric.ClampBounds(breakdown, appLogger.Slog())
		fmt.Printf("%s %d criteria clamped into range\n",
			warnText("clamped:"), len(boundsErr.Violations))
	}

	if err := rubric.ValidateTotal(breakdown, expectedTotal); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", passText("valid:"), path)
	for _, name := range breakdown.Names() {
		c := breakdown.Criteria[name]
		fmt.Printf("  %-20s %.1f/%.1f\n", name, c.Points, c.Max)
	}
	fmt.Printf("  total: %.1f/%.1f\n", breakdown.Total(), breakdown.MaxTotal())
	return nil
}
