// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sdp adjusts raw scenario scores for measured external change, so a
// score drop caused by the underlying model degrading is not booked against
// the process under evaluation.
//
// SDP reads as "software delivery performance": the raw score measures the
// whole system, the adjusted score estimates the process contribution once
// the external-change ratio is factored out.
package sdp

import (
	"errors"
	"fmt"
	"math"
)

// Interpretation classifies an adjusted record.
type Interpretation string

const (
	// InterpretModelDegraded means external change pulled scores down and
	// the process could not absorb it.
	InterpretModelDegraded Interpretation = "MODEL_DEGRADED"

	// InterpretModelImproved means external change pushed scores up.
	InterpretModelImproved Interpretation = "MODEL_IMPROVED"

	// InterpretStable means no material external change and an on-target
	// raw score.
	InterpretStable Interpretation = "STABLE"

	// InterpretSDLCRobust means the process held its target despite a
	// degraded external environment.
	InterpretSDLCRobust Interpretation = "SDLC_ROBUST"

	// InterpretSDLCIssue means the raw score misses target in ways the
	// external change does not explain.
	InterpretSDLCIssue Interpretation = "SDLC_ISSUE"
)

// PolicyConfig holds the tunable thresholds of the default policy.
type PolicyConfig struct {
	// ClampRatio bounds the adjusted score to raw*(1±ClampRatio). The
	// external-change estimate is itself noisy; the clamp keeps a bad
	// estimate from swinging the adjusted score arbitrarily.
	// Default: 0.2
	ClampRatio float64

	// NearZeroRatio is the |ratio| below which external change is treated
	// as absent.
	// Default: 0.05
	NearZeroRatio float64

	// RawTarget is the raw score at or above which the process is
	// considered on target.
	// Default: 7.0
	RawTarget float64
}

// DefaultPolicyConfig returns the standard thresholds.
func DefaultPolicyConfig() *PolicyConfig {
	return &PolicyConfig{
		ClampRatio:    0.2,
		NearZeroRatio: 0.05,
		RawTarget:     7.0,
	}
}

// Policy maps a raw score and external-change ratio to an interpretation.
// The adjustment arithmetic is fixed; only the reading of it is pluggable.
type Policy func(raw, ratio float64) Interpretation

// NewPolicy builds an interpretation policy from thresholds.
func NewPolicy(cfg *PolicyConfig) Policy {
	if cfg == nil {
		cfg = DefaultPolicyConfig()
	}
	return func(raw, ratio float64) Interpretation {
		switch {
		case ratio <= -cfg.NearZeroRatio:
			if raw >= cfg.RawTarget {
				return InterpretSDLCRobust
			}
			return InterpretModelDegraded
		case ratio >= cfg.NearZeroRatio:
			if raw >= cfg.RawTarget {
				return InterpretModelImproved
			}
			return InterpretSDLCIssue
		default:
			if raw < cfg.RawTarget {
				return InterpretSDLCIssue
			}
			return InterpretStable
		}
	}
}

// DefaultPolicy is NewPolicy(DefaultPolicyConfig()).
var DefaultPolicy = NewPolicy(nil)

// Record is one adjusted score with its full audit trail. Every input and
// intermediate survives serialization so an adjustment can be re-derived
// later.
type Record struct {
	// Raw is the unadjusted scenario score.
	Raw float64 `json:"raw"`

	// ExternalChange is the measured external-change ratio. Negative means
	// the environment degraded.
	ExternalChange float64 `json:"external_change"`

	// Adjustment is raw * ratio, the amount attributed to external change.
	Adjustment float64 `json:"adjustment"`

	// SDP is the adjusted score after clamping.
	SDP float64 `json:"sdp"`

	// Delta is SDP minus Raw.
	Delta float64 `json:"delta"`

	// Robustness is the pre-clamp adjusted score. When it differs from SDP
	// the clamp engaged.
	Robustness float64 `json:"robustness"`

	// Interpretation is the policy's reading of the record.
	Interpretation Interpretation `json:"interpretation"`
}

// Line renders the record as a single report line.
func (r *Record) Line() string {
	return fmt.Sprintf("raw=%.2f external=%+.3f sdp=%.2f delta=%+.2f robustness=%.2f %s",
		r.Raw, r.ExternalChange, r.SDP, r.Delta, r.Robustness, r.Interpretation)
}

// Scorer computes degradation-adjusted scores under a policy.
type Scorer struct {
	config *PolicyConfig
	policy Policy
}

// NewScorer creates a scorer. A nil config uses defaults; a nil policy uses
// the default policy over the same config.
func NewScorer(cfg *PolicyConfig, policy Policy) *Scorer {
	if cfg == nil {
		cfg = DefaultPolicyConfig()
	}
	if policy == nil {
		policy = NewPolicy(cfg)
	}
	return &Scorer{config: cfg, policy: policy}
}

// Score computes the adjusted record for one raw score.
//
// Inputs:
//   - raw: Raw scenario score. Must be finite and non-negative.
//   - externalChange: External-change ratio, e.g. -0.1 for a 10% degraded
//     environment. Must be finite.
//
// Outputs:
//   - *Record: The adjusted record. Never nil on success.
//   - error: Non-nil on invalid input.
//
// The adjusted score is clamped to [raw*(1-ClampRatio), raw*(1+ClampRatio)].
func (s *Scorer) Score(raw, externalChange float64) (*Record, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < 0 {
		return nil, fmt.Errorf("raw score must be finite and non-negative, got %v", raw)
	}
	if math.IsNaN(externalChange) || math.IsInf(externalChange, 0) {
		return nil, errors.New("external change ratio must be finite")
	}

	adjustment := raw * externalChange
	robustness := raw - adjustment

	lo := raw * (1 - s.config.ClampRatio)
	hi := raw * (1 + s.config.ClampRatio)
	sdp := math.Min(math.Max(robustness, lo), hi)

	return &Record{
		Raw:            raw,
		ExternalChange: externalChange,
		Adjustment:     adjustment,
		SDP:            sdp,
		Delta:          sdp - raw,
		Robustness:     robustness,
		Interpretation: s.policy(raw, externalChange),
	}, nil
}
