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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
	"github.com/AleutianAI/AleutianGauge/services/gauge/export"
)

func loadDriftState(cmd *cobra.Command, scenario string) (*drift.State, error) {
	store, err := drift.NewFileHistory(historyDir)
	if err != nil {
		return nil, err
	}
	return store.Load(cmd.Context(), scenario)
}

// runExportCSVCommand writes a scenario's drift history as CSV.
func runExportCSVCommand(cmd *cobra.Command, args []string) error {
	state, err := loadDriftState(cmd, args[0])
	if err != nil {
		return err
	}

	if exportOut == "" {
		return export.WriteCSV(os.Stdout, state)
	}
	if err := export.WriteCSVFile(exportOut, state); err != nil {
		return err
	}
	fmt.Printf("%s %d observations -> %s\n", passText("exported:"), len(state.History), exportOut)
	return nil
}

// runExportInfluxCommand ships a scenario's drift history to InfluxDB.
func runExportInfluxCommand(cmd *cobra.Command, args []string) error {
	state, err := loadDriftState(cmd, args[0])
	if err != nil {
		return err
	}

	exporter, err := export.NewInfluxExporter(export.InfluxConfig{
		URL:    influxURL,
		Token:  influxToken,
		Org:    influxOrg,
		Bucket: influxBucket,
	})
	if err != nil {
		return err
	}
	defer exporter.Close()

	if err := exporter.Export(cmd.Context(), state); err != nil {
		return err
	}
	fmt.Printf("%s %d observations -> influx\n", passText("exported:"), len(state.History))
	appLogger.Info("drift history exported",
		"scenario_id", state.ScenarioID,
		"observations", len(state.History))
	return nil
}
