// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates scenario definitions for trial runs.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ScenarioConfig defines one evaluation scenario.
type ScenarioConfig struct {
	// ID is the scenario identifier, used in run IDs, baselines, and drift
	// history file names.
	ID string `yaml:"id" validate:"required,alphanum|containsany=_-"`

	// Description is a human-readable summary of what the scenario tests.
	Description string `yaml:"description"`

	// Trials is the number of repeated trials per run.
	Trials int `yaml:"trials" validate:"required,gte=2,lte=1000"`

	// Target is the expected mean score, used by the drift tracker.
	Target float64 `yaml:"target" validate:"gte=0,lte=11"`

	// RubricTotal is the expected sum of criterion maxima (10 or 11).
	RubricTotal float64 `yaml:"rubric_total" validate:"eq=10|eq=11"`

	// Level is the confidence level for interval estimation.
	Level float64 `yaml:"level" validate:"gt=0,lt=1"`

	// Tags are free-form labels carried into baseline metadata.
	Tags []string `yaml:"tags,omitempty"`
}

// SuiteConfig is a YAML file holding one or more scenarios.
type SuiteConfig struct {
	Scenarios []ScenarioConfig `yaml:"scenarios" validate:"required,min=1,dive"`
}

// Defaults applied to fields the YAML leaves at zero.
const (
	DefaultTrials      = 5
	DefaultTarget      = 7.0
	DefaultRubricTotal = 10.0
	DefaultLevel       = 0.95
)

var validate = validator.New()

// Load reads and validates a suite file.
//
// Inputs:
//   - path: Path to the YAML suite file.
//
// Outputs:
//   - *SuiteConfig: Validated suite with defaults applied. Never nil on
//     success.
//   - error: Non-nil on read, parse, or validation failure.
func Load(path string) (*SuiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates suite YAML.
func Parse(data []byte) (*SuiteConfig, error) {
	var suite SuiteConfig
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite yaml: %w", err)
	}

	for i := range suite.Scenarios {
		suite.Scenarios[i].applyDefaults()
	}

	if err := validate.Struct(&suite); err != nil {
		return nil, fmt.Errorf("validating suite: %w", err)
	}

	seen := make(map[string]bool, len(suite.Scenarios))
	for _, sc := range suite.Scenarios {
		if seen[sc.ID] {
			return nil, fmt.Errorf("duplicate scenario id %q", sc.ID)
		}
		seen[sc.ID] = true
	}

	return &suite, nil
}

// Scenario returns the scenario with the given ID.
func (s *SuiteConfig) Scenario(id string) (*ScenarioConfig, bool) {
	for i := range s.Scenarios {
		if s.Scenarios[i].ID == id {
			return &s.Scenarios[i], true
		}
	}
	return nil, false
}

func (c *ScenarioConfig) applyDefaults() {
	if c.Trials == 0 {
		c.Trials = DefaultTrials
	}
	if c.Target == 0 {
		c.Target = DefaultTarget
	}
	if c.RubricTotal == 0 {
		c.RubricTotal = DefaultRubricTotal
	}
	if c.Level == 0 {
		c.Level = DefaultLevel
	}
}
