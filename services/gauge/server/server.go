// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes drift status, baselines, and Prometheus metrics
// over HTTP for dashboards and CI tooling.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianGauge/services/gauge/drift"
	"github.com/AleutianAI/AleutianGauge/services/gauge/regression"
)

// Config configures the status server.
type Config struct {
	// Addr is the listen address, e.g. ":12310".
	Addr string

	// BaselineDir, when set, is watched for changes so external baseline
	// edits invalidate the in-memory cache.
	BaselineDir string

	// Logger for output. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves drift and baseline state over HTTP.
//
// Thread Safety: Safe for concurrent use.
type Server struct {
	tracker   *drift.Tracker
	baselines regression.Baseline
	config    Config
	logger    *slog.Logger

	cacheMu sync.RWMutex
	cache   map[string]*regression.BaselineData

	engine  *gin.Engine
	watcher *fsnotify.Watcher
}

// New creates a status server over the given tracker and baseline store.
//
// Inputs:
//   - tracker: Drift tracker. Must not be nil.
//   - baselines: Baseline store. Must not be nil.
//   - config: Server configuration.
//
// Outputs:
//   - *Server: The new server. Never nil on success.
//   - error: Non-nil if the baseline watcher cannot be created.
func New(tracker *drift.Tracker, baselines regression.Baseline, config Config) (*Server, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Addr == "" {
		config.Addr = ":12310"
	}

	s := &Server{
		tracker:   tracker,
		baselines: baselines,
		config:    config,
		logger:    config.Logger,
		cache:     make(map[string]*regression.BaselineData),
	}

	if config.BaselineDir != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("creating baseline watcher: %w", err)
		}
		if err := watcher.Add(config.BaselineDir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watching %s: %w", config.BaselineDir, err)
		}
		s.watcher = watcher
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.countRequests())

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	api.GET("/drift", s.handleDriftList)
	api.GET("/drift/:scenario", s.handleDriftStatus)
	api.GET("/baselines", s.handleBaselineList)
	api.GET("/baselines/:scenario", s.handleBaselineGet)

	s.engine = engine
	return s, nil
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if s.watcher != nil {
		go s.watchBaselines(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", slog.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.watcher != nil {
		s.watcher.Close()
	}
	return srv.Shutdown(shutdownCtx)
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// watchBaselines invalidates the cache whenever a baseline file changes.
func (s *Server) watchBaselines(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.cacheMu.Lock()
				s.cache = make(map[string]*regression.BaselineData)
				s.cacheMu.Unlock()
				s.logger.Debug("baseline cache invalidated", slog.String("file", event.Name))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("baseline watcher error", slog.String("error", err.Error()))
		}
	}
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDriftList(c *gin.Context) {
	names, err := s.tracker.Scenarios(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	statuses := make([]*drift.Status, 0, len(names))
	for _, name := range names {
		status, err := s.tracker.Status(c.Request.Context(), name)
		if err != nil {
			continue
		}
		s.publishDriftMetrics(status)
		statuses = append(statuses, status)
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": statuses})
}

func (s *Server) handleDriftStatus(c *gin.Context) {
	scenarioID := c.Param("scenario")
	status, err := s.tracker.Status(c.Request.Context(), scenarioID)
	if err != nil {
		if errors.Is(err, drift.ErrHistoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no drift history for scenario"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.publishDriftMetrics(status)
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleBaselineList(c *gin.Context) {
	names, err := s.baselines.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": names})
}

func (s *Server) handleBaselineGet(c *gin.Context) {
	scenarioID := c.Param("scenario")

	s.cacheMu.RLock()
	cached, ok := s.cache[scenarioID]
	s.cacheMu.RUnlock()
	if ok {
		baselineCacheHits.WithLabelValues("hit").Inc()
		c.JSON(http.StatusOK, cached)
		return
	}
	baselineCacheHits.WithLabelValues("miss").Inc()

	data, err := s.baselines.Get(c.Request.Context(), scenarioID)
	if err != nil {
		if errors.Is(err, regression.ErrBaselineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no baseline for scenario"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.cacheMu.Lock()
	s.cache[scenarioID] = data
	s.cacheMu.Unlock()
	c.JSON(http.StatusOK, data)
}

func (s *Server) publishDriftMetrics(status *drift.Status) {
	driftCumulativeSum.WithLabelValues(status.ScenarioID).Set(status.CumulativeSum)
	driftSignal.WithLabelValues(status.ScenarioID).Set(signalValue(string(status.Signal)))
	driftObservations.WithLabelValues(status.ScenarioID).Set(float64(status.Observations))
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		httpRequestsTotal.WithLabelValues(c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
	}
}
