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
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
	"github.com/AleutianAI/AleutianGauge/services/gauge/regression"
	"github.com/AleutianAI/AleutianGauge/services/gauge/server"
)

// runServeCommand starts the status server and blocks until interrupted.
func runServeCommand(cmd *cobra.Command, args []string) error {
	history, err := drift.NewFileHistory(historyDir)
	if err != nil {
		return err
	}
	tracker := drift.NewTracker(history, drift.WithTrackerLogger(appLogger.Slog()))

	baselines, err := regression.NewFileBaseline(baselineDir)
	if err != nil {
		return err
	}

	srv, err := server.New(tracker, baselines, server.Config{
		Addr:        serveAddr,
		BaselineDir: baselineDir,
		Logger:      appLogger.Slog(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
