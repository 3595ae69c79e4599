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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGauge/pkg/logging"
)

// --- Global Command Variables ---
var (
	logLevel  string
	logDir    string
	logJSON   bool
	quietMode bool

	// score
	scoreParallel int
	scoreAsJSON   bool

	// validate
	expectedTotal float64
	clampScores   bool

	// trial
	suitePath        string
	scenarioID       string
	scoresPath       string
	baselineDir      string
	updateBaseline   bool
	requireBaseline  bool
	failOnRegression bool

	// drift
	historyDir  string
	driftTarget float64

	// sdp
	rawScore       float64
	externalChange float64
	sdpAsJSON      bool

	// export
	exportOut    string
	influxURL    string
	influxToken  string
	influxOrg    string
	influxBucket string

	// serve
	serveAddr string

	rootCmd = &cobra.Command{
		Use:   "gauge",
		Short: "A cli to score, compare, and track AI coding-agent evaluations",
		Long: `Gauge turns noisy per-run evaluation scores into statistically
defensible verdicts: confidence intervals over repeated trials,
interval-overlap regression gates, and cumulative drift tracking.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			appLogger = logging.New(logging.Config{
				Level:   logging.ParseLevel(logLevel),
				LogDir:  logDir,
				Service: "cli",
				JSON:    logJSON,
				Quiet:   quietMode,
			})
		},
	}

	// --- Scoring ---
	scoreCmd = &cobra.Command{
		Use:   "score [transcript files...]",
		Short: "Run the objective process rules over agent transcripts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScoreCommand, // Defined in cmd_score.go
	}

	validateCmd = &cobra.Command{
		Use:   "validate [judge payload file]",
		Short: "Validate a judge score payload against the rubric schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidateCommand, // Defined in cmd_validate.go
	}

	// --- Trials / Gate ---
	trialCmd = &cobra.Command{
		Use:   "trial",
		Short: "Summarize a scenario run and check it through the regression gate",
		RunE:  runTrialCommand, // Defined in cmd_trial.go
	}

	// --- Drift ---
	driftCmd = &cobra.Command{
		Use:   "drift",
		Short: "Track cumulative score drift per scenario",
	}
	driftRecordCmd = &cobra.Command{
		Use:   "record [scenario] [score]",
		Short: "Record a scenario score observation",
		Args:  cobra.ExactArgs(2),
		RunE:  runDriftRecordCommand, // Defined in cmd_drift.go
	}
	driftStatusCmd = &cobra.Command{
		Use:   "status [scenario]",
		Short: "Show the current drift status for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runDriftStatusCommand, // Defined in cmd_drift.go
	}

	// --- SDP ---
	sdpCmd = &cobra.Command{
		Use:   "sdp",
		Short: "Compute a degradation-adjusted score",
		RunE:  runSDPCommand, // Defined in cmd_sdp.go
	}

	// --- Export ---
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export drift history to external sinks",
	}
	exportCSVCmd = &cobra.Command{
		Use:   "csv [scenario]",
		Short: "Export a scenario's drift history as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCSVCommand, // Defined in cmd_export.go
	}
	exportInfluxCmd = &cobra.Command{
		Use:   "influx [scenario]",
		Short: "Export a scenario's drift history to InfluxDB",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportInfluxCommand, // Defined in cmd_export.go
	}

	// --- Serve ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve drift status, baselines, and metrics over HTTP",
		RunE:  runServeCommand, // Defined in cmd_serve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Directory for JSON log files (disabled when empty)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Emit JSON logs on stderr")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false,
		"Suppress stderr logging")

	scoreCmd.Flags().IntVar(&scoreParallel, "parallel", 4,
		"Maximum transcripts scored concurrently")
	scoreCmd.Flags().BoolVar(&scoreAsJSON, "json", false,
		"Print reports as JSON")
	rootCmd.AddCommand(scoreCmd)

	validateCmd.Flags().Float64Var(&expectedTotal, "expected-total", 10,
		"Expected sum of criterion maxima (10 or 11)")
	validateCmd.Flags().BoolVar(&clampScores, "clamp", false,
		"Clamp out-of-range points instead of failing")
	rootCmd.AddCommand(validateCmd)

	trialCmd.Flags().StringVar(&suitePath, "suite", "",
		"Path to the scenario suite YAML")
	trialCmd.Flags().StringVar(&scenarioID, "scenario", "",
		"Scenario ID within the suite")
	trialCmd.Flags().StringVar(&scoresPath, "scores", "",
		"Path to a file with one trial score per line")
	trialCmd.Flags().StringVar(&baselineDir, "baseline-dir", defaultBaselineDir(),
		"Directory holding baseline JSON files")
	trialCmd.Flags().BoolVar(&updateBaseline, "update-baseline", false,
		"Replace the baseline when the run passes")
	trialCmd.Flags().BoolVar(&requireBaseline, "require-baseline", false,
		"Fail when no baseline exists")
	trialCmd.Flags().BoolVar(&failOnRegression, "fail-on-regression", true,
		"Exit non-zero on a REGRESSION verdict")
	trialCmd.MarkFlagRequired("suite")
	trialCmd.MarkFlagRequired("scenario")
	trialCmd.MarkFlagRequired("scores")
	rootCmd.AddCommand(trialCmd)

	driftCmd.PersistentFlags().StringVar(&historyDir, "dir", defaultHistoryDir(),
		"Directory holding drift history JSON files")
	driftRecordCmd.Flags().Float64Var(&driftTarget, "target", 7.0,
		"Expected scenario score (used on first observation)")
	driftCmd.AddCommand(driftRecordCmd)
	driftCmd.AddCommand(driftStatusCmd)
	rootCmd.AddCommand(driftCmd)

	sdpCmd.Flags().Float64Var(&rawScore, "raw", 0,
		"Raw scenario score")
	sdpCmd.Flags().Float64Var(&externalChange, "external-change", 0,
		"External-change ratio, e.g. -0.1 for a 10% degraded environment")
	sdpCmd.Flags().BoolVar(&sdpAsJSON, "json", false,
		"Print the record as JSON")
	sdpCmd.MarkFlagRequired("raw")
	rootCmd.AddCommand(sdpCmd)

	exportCmd.PersistentFlags().StringVar(&historyDir, "dir", defaultHistoryDir(),
		"Directory holding drift history JSON files")
	exportCSVCmd.Flags().StringVar(&exportOut, "out", "",
		"Output file (stdout when empty)")
	exportInfluxCmd.Flags().StringVar(&influxURL, "url", "",
		"InfluxDB URL (falls back to INFLUXDB_URL)")
	exportInfluxCmd.Flags().StringVar(&influxToken, "token", "",
		"InfluxDB token (falls back to INFLUXDB_TOKEN)")
	exportInfluxCmd.Flags().StringVar(&influxOrg, "org", "",
		"InfluxDB org (falls back to INFLUXDB_ORG)")
	exportInfluxCmd.Flags().StringVar(&influxBucket, "bucket", "",
		"InfluxDB bucket (falls back to INFLUXDB_BUCKET)")
	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportInfluxCmd)
	rootCmd.AddCommand(exportCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", envOr("GAUGE_ADDR", ":12310"),
		"Listen address (falls back to GAUGE_ADDR)")
	serveCmd.Flags().StringVar(&baselineDir, "baseline-dir", defaultBaselineDir(),
		"Directory holding baseline JSON files")
	serveCmd.Flags().StringVar(&historyDir, "history-dir", defaultHistoryDir(),
		"Directory holding drift history JSON files")
	rootCmd.AddCommand(serveCmd)
}
