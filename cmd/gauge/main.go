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
	"log/slog"
	"os"

	"github.com/AleutianAI/AleutianGauge/pkg/logging"
)

var appLogger *logging.Logger

func main() {
	if err := rootCmd.Execute(); err != nil {
		if appLogger != nil {
			appLogger.Error("command failed", "error", err.Error())
		} else {
			slog.Error("command failed", "error", err.Error())
		}
		closeLogger()
		os.Exit(1)
	}
	closeLogger()
}

func closeLogger() {
	if appLogger != nil {
		appLogger.Close()
	}
}
