// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package regression compares scenario score distributions across runs and
// gates deployments on the verdict.
//
// The comparison is interval overlap, not a point comparison of means: two
// runs whose confidence intervals overlap are statistically indistinguishable
// and must read as STABLE no matter which mean is higher.
package regression

import (
	"fmt"

	"github.com/AleutianAI/AleutianGauge/services/gauge/stats"
)

// Verdict classifies a candidate run against a baseline run.
type Verdict string

const (
	// VerdictImproved means the candidate interval sits entirely above the
	// baseline interval.
	VerdictImproved Verdict = "IMPROVED"

	// VerdictStable means the intervals overlap.
	VerdictStable Verdict = "STABLE"

	// VerdictRegression means the candidate interval sits entirely below the
	// baseline interval.
	VerdictRegression Verdict = "REGRESSION"
)

// Comparison is the result of comparing a candidate against a baseline.
type Comparison struct {
	Verdict   Verdict `json:"verdict"`
	Baseline  Band    `json:"baseline"`
	Candidate Band    `json:"candidate"`

	// MeanDelta is candidate mean minus baseline mean. Informational; the
	// verdict never depends on it when the intervals overlap.
	MeanDelta float64 `json:"mean_delta"`
}

// Band is the serializable view of one side's interval.
type Band struct {
	Mean  float64 `json:"mean"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	N     int     `json:"n"`
}

// String renders the comparison for logs and reports.
func (c *Comparison) String() string {
	return fmt.Sprintf("%s: baseline [%.2f, %.2f] vs candidate [%.2f, %.2f] (delta %+.2f)",
		c.Verdict, c.Baseline.Lower, c.Baseline.Upper,
		c.Candidate.Lower, c.Candidate.Upper, c.MeanDelta)
}

// Compare classifies candidate against baseline by interval overlap.
//
// Inputs:
//   - baseline: Interval from the baseline run. Must not be nil.
//   - candidate: Interval from the candidate run. Must not be nil.
//
// Outputs:
//   - *Comparison: The verdict with both bands. Never nil.
//
// Swapping the arguments flips IMPROVED and REGRESSION and preserves STABLE.
func Compare(baseline, candidate *stats.Interval) *Comparison {
	cmp := &Comparison{
		Baseline:  bandOf(baseline),
		Candidate: bandOf(candidate),
		MeanDelta: candidate.Mean - baseline.Mean,
	}

	switch {
	case candidate.Lower > baseline.Upper:
		cmp.Verdict = VerdictImproved
	case candidate.Upper < baseline.Lower:
		cmp.Verdict = VerdictRegression
	default:
		cmp.Verdict = VerdictStable
	}
	return cmp
}

func bandOf(ci *stats.Interval) Band {
	return Band{Mean: ci.Mean, Lower: ci.Lower, Upper: ci.Upper, N: ci.SampleSize}
}
