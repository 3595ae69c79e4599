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

	"github.com/AleutianAI/AleutianGauge/services/gauge/sdp"
)

// runSDPCommand computes a degradation-adjusted score for one raw score and
// external-change ratio.
func runSDPCommand(cmd *cobra.Command, args []string) error {
	scorer := sdp.NewScorer(nil, nil)
	record, err := scorer.Score(rawScore, externalChange)
	if err != nil {
		return err
	}

	if sdpAsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	fmt.Println(record.Line())
	appLogger.Info("sdp computed",
		"raw", record.Raw,
		"sdp", record.SDP,
		"interpretation", string(record.Interpretation))
	return nil
}
