// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package regression

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianGauge/services/gauge/stats"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrBaselineNotFound indicates no baseline exists for the scenario.
	ErrBaselineNotFound = errors.New("baseline not found")

	// ErrInvalidBaseline indicates the baseline data is corrupted.
	ErrInvalidBaseline = errors.New("invalid baseline data")
)

// -----------------------------------------------------------------------------
// Baseline Interface
// -----------------------------------------------------------------------------

// Baseline stores and retrieves per-scenario score baselines.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Baseline interface {
	// Get retrieves the baseline for a scenario.
	// Returns ErrBaselineNotFound if no baseline exists.
	Get(ctx context.Context, scenarioID string) (*BaselineData, error)

	// Set stores a new baseline for a scenario.
	Set(ctx context.Context, scenarioID string, data *BaselineData) error

	// List returns all available scenario IDs.
	List(ctx context.Context) ([]string, error)

	// Delete removes a baseline.
	Delete(ctx context.Context, scenarioID string) error
}

// BaselineData holds the accepted score distribution for a scenario.
type BaselineData struct {
	// ScenarioID is the scenario this baseline belongs to.
	ScenarioID string `json:"scenario_id"`

	// Mean is the baseline mean score.
	Mean float64 `json:"mean"`

	// Margin is the confidence interval half-width at Level.
	Margin float64 `json:"margin"`

	// Level is the confidence level the margin was computed at.
	Level float64 `json:"level"`

	// SampleSize is the number of trials behind this baseline.
	SampleSize int `json:"sample_size"`

	// Version identifies this baseline version.
	Version string `json:"version"`

	// CreatedAt is when the baseline was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the baseline was last updated.
	UpdatedAt time.Time `json:"updated_at"`

	// Metadata holds arbitrary additional data.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Interval reconstitutes the stored band as a stats.Interval for comparison.
func (b *BaselineData) Interval() *stats.Interval {
	return &stats.Interval{
		Mean:             b.Mean,
		Margin:           b.Margin,
		Lower:            b.Mean - b.Margin,
		Upper:            b.Mean + b.Margin,
		SampleSize:       b.SampleSize,
		DegreesOfFreedom: b.SampleSize - 1,
		Level:            b.Level,
	}
}

// FromInterval builds baseline data from a freshly estimated interval.
func FromInterval(scenarioID string, ci *stats.Interval) *BaselineData {
	return &BaselineData{
		ScenarioID: scenarioID,
		Mean:       ci.Mean,
		Margin:     ci.Margin,
		Level:      ci.Level,
		SampleSize: ci.SampleSize,
	}
}

// -----------------------------------------------------------------------------
// Memory Baseline (for testing)
// -----------------------------------------------------------------------------

// MemoryBaselineStore stores baselines in memory.
//
// Description:
//
//	MemoryBaselineStore is useful for testing and short-lived processes.
//	Data is lost when the process exits.
//
// Thread Safety: Safe for concurrent use.
type MemoryBaselineStore struct {
	mu   sync.RWMutex
	data map[string]*BaselineData
}

// NewMemoryBaseline creates a new memory-backed baseline store.
//
// Outputs:
//   - *MemoryBaselineStore: The new store. Never nil.
func NewMemoryBaseline() *MemoryBaselineStore {
	return &MemoryBaselineStore{
		data: make(map[string]*BaselineData),
	}
}

// Get implements Baseline.
func (m *MemoryBaselineStore) Get(_ context.Context, scenarioID string) (*BaselineData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[scenarioID]
	if !ok {
		return nil, ErrBaselineNotFound
	}

	// Return a copy to prevent mutation
	dataCopy := *data
	return &dataCopy, nil
}

// Set implements Baseline.
func (m *MemoryBaselineStore) Set(_ context.Context, scenarioID string, data *BaselineData) error {
	if data == nil {
		return errors.New("baseline data must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Store a copy
	dataCopy := *data
	dataCopy.UpdatedAt = time.Now()
	if dataCopy.CreatedAt.IsZero() {
		dataCopy.CreatedAt = dataCopy.UpdatedAt
	}
	m.data[scenarioID] = &dataCopy
	return nil
}

// List implements Baseline.
func (m *MemoryBaselineStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	return names, nil
}

// Delete implements Baseline.
func (m *MemoryBaselineStore) Delete(_ context.Context, scenarioID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[scenarioID]; !ok {
		return ErrBaselineNotFound
	}
	delete(m.data, scenarioID)
	return nil
}

// -----------------------------------------------------------------------------
// File Baseline
// -----------------------------------------------------------------------------

// FileBaselineStore stores baselines in JSON files.
//
// Description:
//
//	FileBaselineStore persists baselines to disk as JSON files.
//	Each scenario gets its own file: {dir}/{scenario_id}.json
//
// Thread Safety: Safe for concurrent use within a single process.
type FileBaselineStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileBaseline creates a file-backed baseline store.
//
// Inputs:
//   - dir: Directory to store baseline files. Created if not exists.
//
// Outputs:
//   - *FileBaselineStore: The new store. Never nil.
//   - error: Non-nil if directory cannot be created.
func NewFileBaseline(dir string) (*FileBaselineStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileBaselineStore{dir: dir}, nil
}

// Get implements Baseline.
func (f *FileBaselineStore) Get(_ context.Context, scenarioID string) (*BaselineData, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.filePath(scenarioID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBaselineNotFound
		}
		return nil, err
	}

	var baseline BaselineData
	if err := json.Unmarshal(data, &baseline); err != nil {
		return nil, ErrInvalidBaseline
	}
	if baseline.ScenarioID == "" || baseline.SampleSize < 0 {
		return nil, ErrInvalidBaseline
	}

	return &baseline, nil
}

// Set implements Baseline.
func (f *FileBaselineStore) Set(_ context.Context, scenarioID string, data *BaselineData) error {
	if data == nil {
		return errors.New("baseline data must not be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data.UpdatedAt = time.Now()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = data.UpdatedAt
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(f.filePath(scenarioID), jsonData, 0644)
}

// List implements Baseline.
func (f *FileBaselineStore) List(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			names = append(names, name[:len(name)-5])
		}
	}
	return names, nil
}

// Delete implements Baseline.
func (f *FileBaselineStore) Delete(_ context.Context, scenarioID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.filePath(scenarioID))
	if os.IsNotExist(err) {
		return ErrBaselineNotFound
	}
	return err
}

func (f *FileBaselineStore) filePath(scenarioID string) string {
	return filepath.Join(f.dir, scenarioID+".json")
}
