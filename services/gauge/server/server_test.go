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
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
	"github.com/AleutianAI/AleutianGauge/services/gauge/regression"
)

func newTestServer(t *testing.T, baselineDir string) (*Server, *drift.Tracker, regression.Baseline) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	tracker := drift.NewTracker(drift.NewMemoryHistory(), drift.WithTrackerLogger(logger))

	var baselines regression.Baseline
	if baselineDir != "" {
		store, err := regression.NewFileBaseline(baselineDir)
		require.NoError(t, err)
		baselines = store
	} else {
		baselines = regression.NewMemoryBaseline()
	}

	srv, err := New(tracker, baselines, Config{
		BaselineDir: baselineDir,
		Logger:      logger,
	})
	require.NoError(t, err)
	return srv, tracker, baselines
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	w := doRequest(srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestServer_DriftStatus(t *testing.T) {
	srv, tracker, _ := newTestServer(t, "")
	_, err := tracker.RecordObservation(context.Background(), "auth_flow", 6.5)
	require.NoError(t, err)

	t.Run("known scenario", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/v1/drift/auth_flow")
		require.Equal(t, http.StatusOK, w.Code)

		var status drift.Status
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "auth_flow", status.ScenarioID)
		assert.InDelta(t, -0.5, status.CumulativeSum, 1e-9)
		assert.Equal(t, drift.SignalNormal, status.Signal)
	})

	t.Run("unknown scenario", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/v1/drift/nope")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/v1/drift")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "auth_flow")
	})
}

func TestServer_Baselines(t *testing.T) {
	srv, _, baselines := newTestServer(t, "")
	err := baselines.Set(context.Background(), "auth_flow", &regression.BaselineData{
		ScenarioID: "auth_flow",
		Mean:       6.5,
		Margin:     0.4,
		SampleSize: 5,
	})
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/v1/baselines/auth_flow")
		require.Equal(t, http.StatusOK, w.Code)

		var data regression.BaselineData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
		assert.Equal(t, 6.5, data.Mean)
	})

	t.Run("cached get returns same payload", func(t *testing.T) {
		first := doRequest(srv, http.MethodGet, "/api/v1/baselines/auth_flow")
		second := doRequest(srv, http.MethodGet, "/api/v1/baselines/auth_flow")
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/v1/baselines/nope")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/api/v1/baselines")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "auth_flow")
	})
}

func TestServer_BaselineCacheInvalidation(t *testing.T) {
	dir := t.TempDir()
	srv, _, baselines := newTestServer(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.watchBaselines(ctx)

	require.NoError(t, baselines.Set(context.Background(), "auth_flow", &regression.BaselineData{
		ScenarioID: "auth_flow",
		Mean:       6.0,
		SampleSize: 5,
	}))

	w := doRequest(srv, http.MethodGet, "/api/v1/baselines/auth_flow")
	require.Equal(t, http.StatusOK, w.Code)

	// Rewrite the baseline file behind the store's back.
	require.NoError(t, baselines.Set(context.Background(), "auth_flow", &regression.BaselineData{
		ScenarioID: "auth_flow",
		Mean:       9.0,
		SampleSize: 5,
	}))

	// The watcher invalidates asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for {
		w = doRequest(srv, http.MethodGet, "/api/v1/baselines/auth_flow")
		var data regression.BaselineData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
		if data.Mean == 9.0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache never invalidated, still serving mean %v", data.Mean)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Sanity: the file really is on disk where the watcher looks.
	_, err := os.Stat(filepath.Join(dir, "auth_flow.json"))
	require.NoError(t, err)
}

func TestServer_Metrics(t *testing.T) {
	srv, tracker, _ := newTestServer(t, "")
	_, err := tracker.RecordObservation(context.Background(), "auth_flow", 3.0)
	require.NoError(t, err)

	// Hitting the drift endpoint publishes gauges.
	doRequest(srv, http.MethodGet, "/api/v1/drift/auth_flow")

	w := doRequest(srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "gauge_drift_cumulative_sum")
	assert.Contains(t, body, "gauge_drift_signal")
}
