// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	driftCumulativeSum = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gauge_drift_cumulative_sum",
		Help: "Cumulative score drift per scenario",
	}, []string{"scenario_id"})

	driftSignal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gauge_drift_signal",
		Help: "Drift signal per scenario (0=normal, 1=warning, 2=alert)",
	}, []string{"scenario_id"})

	driftObservations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gauge_drift_observations",
		Help: "Recorded observation count per scenario",
	}, []string{"scenario_id"})

	baselineCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gauge_baseline_cache_requests_total",
		Help: "Baseline cache requests by outcome",
	}, []string{"outcome"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gauge_http_requests_total",
		Help: "HTTP requests by path and status",
	}, []string{"path", "status"})
)

func signalValue(signal string) float64 {
	switch signal {
	case "WARNING":
		return 1
	case "ALERT":
		return 2
	default:
		return 0
	}
}
