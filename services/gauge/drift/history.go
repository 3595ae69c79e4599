// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package drift

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrHistoryNotFound indicates no drift history exists for the scenario.
	ErrHistoryNotFound = errors.New("drift history not found")

	// ErrInvalidHistory indicates the history data is corrupted.
	ErrInvalidHistory = errors.New("invalid drift history")

	// ErrHistoryLocked indicates another process holds the history lock.
	ErrHistoryLocked = errors.New("drift history locked by another process")
)

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Observation is one recorded scenario score.
type Observation struct {
	// Timestamp is when the score was observed.
	Timestamp time.Time `json:"timestamp"`

	// Score is the observed scenario mean score.
	Score float64 `json:"score"`

	// Delta is score minus the scenario target, as accumulated.
	Delta float64 `json:"delta"`
}

// State is the full drift record for one scenario. CumulativeSum is the
// running sum of per-observation deltas across the entire history; it is
// never reset, so a slow bleed of small deltas still surfaces.
type State struct {
	ScenarioID    string        `json:"scenario_id"`
	Target        float64       `json:"target"`
	CumulativeSum float64       `json:"cumulative_sum"`
	History       []Observation `json:"history"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// clone returns a deep copy so store reads never alias internal state.
func (s *State) clone() *State {
	out := *s
	out.History = append([]Observation(nil), s.History...)
	return &out
}

// -----------------------------------------------------------------------------
// HistoryStore Interface
// -----------------------------------------------------------------------------

// HistoryStore persists per-scenario drift state.
//
// Thread Safety: Implementations must be safe for concurrent use.
type HistoryStore interface {
	// Load retrieves the drift state for a scenario.
	// Returns ErrHistoryNotFound if no history exists.
	Load(ctx context.Context, scenarioID string) (*State, error)

	// Save persists the full drift state for a scenario.
	Save(ctx context.Context, state *State) error

	// Update applies fn to the scenario's state and persists the result,
	// holding the store's exclusive lock across the whole
	// read-modify-write cycle. A scenario with no history gets a fresh
	// State with only ScenarioID set. If fn returns an error nothing is
	// persisted.
	Update(ctx context.Context, scenarioID string, fn func(*State) error) error

	// List returns all scenario IDs with recorded history.
	List(ctx context.Context) ([]string, error)
}

// -----------------------------------------------------------------------------
// Memory History (for testing)
// -----------------------------------------------------------------------------

// MemoryHistoryStore keeps drift state in memory.
//
// Thread Safety: Safe for concurrent use.
type MemoryHistoryStore struct {
	mu   sync.RWMutex
	data map[string]*State
}

// NewMemoryHistory creates a memory-backed history store.
func NewMemoryHistory() *MemoryHistoryStore {
	return &MemoryHistoryStore{data: make(map[string]*State)}
}

// Load implements HistoryStore.
func (m *MemoryHistoryStore) Load(_ context.Context, scenarioID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.data[scenarioID]
	if !ok {
		return nil, ErrHistoryNotFound
	}
	return state.clone(), nil
}

// Save implements HistoryStore.
func (m *MemoryHistoryStore) Save(_ context.Context, state *State) error {
	if state == nil || state.ScenarioID == "" {
		return errors.New("state must have a scenario id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[state.ScenarioID] = state.clone()
	return nil
}

// Update implements HistoryStore.
func (m *MemoryHistoryStore) Update(_ context.Context, scenarioID string, fn func(*State) error) error {
	if scenarioID == "" {
		return errors.New("scenario id must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state := &State{ScenarioID: scenarioID}
	if existing, ok := m.data[scenarioID]; ok {
		state = existing.clone()
	}
	if err := fn(state); err != nil {
		return err
	}
	m.data[scenarioID] = state.clone()
	return nil
}

// List implements HistoryStore.
func (m *MemoryHistoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	return names, nil
}

// -----------------------------------------------------------------------------
// File History
// -----------------------------------------------------------------------------

// FileHistoryStore persists drift state as one JSON file per scenario.
//
// Description:
//
//	Every update rewrites the whole file: the record is append-only in
//	meaning but small in practice, and a full rewrite keeps the file
//	readable by humans and external tooling at any moment. Writes are
//	serialized by an in-process mutex plus an advisory {scenario}.lock
//	file so concurrent CLI invocations do not interleave.
//
// Thread Safety: Safe for concurrent use.
type FileHistoryStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileHistory creates a file-backed history store.
//
// Inputs:
//   - dir: Directory for history files. Created if not exists.
//
// Outputs:
//   - *FileHistoryStore: The new store. Never nil.
//   - error: Non-nil if the directory cannot be created.
func NewFileHistory(dir string) (*FileHistoryStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileHistoryStore{dir: dir}, nil
}

// Load implements HistoryStore.
func (f *FileHistoryStore) Load(_ context.Context, scenarioID string) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readState(scenarioID)
}

// Save implements HistoryStore.
func (f *FileHistoryStore) Save(_ context.Context, state *State) error {
	if state == nil || state.ScenarioID == "" {
		return errors.New("state must have a scenario id")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	unlock, err := f.acquireLock(state.ScenarioID)
	if err != nil {
		return err
	}
	defer unlock()

	return f.writeState(state)
}

// Update implements HistoryStore. The mutex and the advisory lock file are
// both held from read through write, so concurrent updaters never clobber
// each other's observations.
func (f *FileHistoryStore) Update(_ context.Context, scenarioID string, fn func(*State) error) error {
	if scenarioID == "" {
		return errors.New("scenario id must not be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	unlock, err := f.acquireLock(scenarioID)
	if err != nil {
		return err
	}
	defer unlock()

	state, err := f.readState(scenarioID)
	if err != nil {
		if !errors.Is(err, ErrHistoryNotFound) {
			return err
		}
		state = &State{ScenarioID: scenarioID}
	}
	if err := fn(state); err != nil {
		return err
	}
	return f.writeState(state)
}

// readState reads a scenario file. Caller must hold f.mu.
func (f *FileHistoryStore) readState(scenarioID string) (*State, error) {
	data, err := os.ReadFile(f.filePath(scenarioID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, ErrInvalidHistory
	}
	if state.ScenarioID == "" {
		return nil, ErrInvalidHistory
	}
	return &state, nil
}

// writeState rewrites a scenario file. Caller must hold f.mu and the
// advisory lock.
func (f *FileHistoryStore) writeState(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.filePath(state.ScenarioID), data, 0644)
}

// List implements HistoryStore.
func (f *FileHistoryStore) List(_ context.Context) ([]string, error) {
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

// acquireLock creates the advisory lock file. A stale lock older than a
// minute is broken: a crashed CLI run must not wedge the scenario forever.
func (f *FileHistoryStore) acquireLock(scenarioID string) (func(), error) {
	lockPath := f.filePath(scenarioID) + ".lock"

	fh, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > time.Minute {
				os.Remove(lockPath)
				return f.acquireLock(scenarioID)
			}
			return nil, fmt.Errorf("%w: %s", ErrHistoryLocked, lockPath)
		}
		return nil, err
	}
	fh.Close()

	return func() { os.Remove(lockPath) }, nil
}

func (f *FileHistoryStore) filePath(scenarioID string) string {
	return filepath.Join(f.dir, scenarioID+".json")
}
