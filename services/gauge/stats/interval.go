// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stats turns repeated trial scores into confidence intervals.
//
// Agent evaluation scores are stochastic: the same scenario run twice
// produces different numbers. A single score is therefore never compared
// directly; callers estimate an interval over repeated trials and compare
// intervals instead (see the regression package).
package stats

import (
	"errors"
	"math"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInsufficientSamples indicates fewer than two trial scores were
	// provided. The sample standard deviation is undefined for n < 2, so
	// the interval would degenerate to a point with a dishonest margin.
	ErrInsufficientSamples = errors.New("insufficient samples for interval estimation")

	// ErrInvalidScore indicates a score is NaN or infinite.
	ErrInvalidScore = errors.New("score must be a finite number")
)

// -----------------------------------------------------------------------------
// Confidence Interval
// -----------------------------------------------------------------------------

// Interval is a two-sided confidence interval over repeated trial scores.
//
// Invariants: Lower = Mean - Margin, Upper = Mean + Margin, Margin >= 0.
// Intervals are computed fresh per call and never persisted; the regression
// baseline stores only the (mean, margin, sample_size) triple.
type Interval struct {
	// Mean is the sample mean of the trial scores.
	Mean float64 `json:"mean"`

	// Margin is the half-width of the interval.
	Margin float64 `json:"margin"`

	// Lower is Mean - Margin.
	Lower float64 `json:"lower"`

	// Upper is Mean + Margin.
	Upper float64 `json:"upper"`

	// SampleSize is the number of trial scores used.
	SampleSize int `json:"sample_size"`

	// DegreesOfFreedom is SampleSize - 1.
	DegreesOfFreedom int `json:"degrees_of_freedom"`

	// Level is the confidence level (e.g. 0.95).
	Level float64 `json:"level"`
}

// Width returns the full interval width.
func (i *Interval) Width() float64 {
	return i.Upper - i.Lower
}

// Contains returns true if the interval contains the value.
func (i *Interval) Contains(v float64) bool {
	return v >= i.Lower && v <= i.Upper
}

// Estimate computes a 95% confidence interval for the mean trial score.
//
// Inputs:
//   - scores: Trial scores. Order is irrelevant. Must have at least 2 entries.
//
// Outputs:
//   - *Interval: The estimated interval. Never nil on success.
//   - error: ErrInsufficientSamples for n < 2, ErrInvalidScore for NaN/Inf.
//
// Thread Safety: Stateless, safe for concurrent use.
func Estimate(scores []float64) (*Interval, error) {
	return EstimateAt(scores, 0.95)
}

// EstimateAt computes a confidence interval at the given confidence level.
//
// The margin is t_crit * s / sqrt(n), with s the Bessel-corrected sample
// standard deviation and t_crit the two-sided critical value of the
// t-distribution at n-1 degrees of freedom.
func EstimateAt(scores []float64, level float64) (*Interval, error) {
	if len(scores) < 2 {
		return nil, ErrInsufficientSamples
	}
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, ErrInvalidScore
		}
	}

	n := len(scores)
	m := mean(scores)
	s := sampleStdDev(scores, m)

	df := n - 1
	tCrit := tCriticalValue(df, level)
	margin := tCrit * s / math.Sqrt(float64(n))

	return &Interval{
		Mean:             m,
		Margin:           margin,
		Lower:            m - margin,
		Upper:            m + margin,
		SampleSize:       n,
		DegreesOfFreedom: df,
		Level:            level,
	}, nil
}

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

// mean calculates the arithmetic mean.
func mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// sampleStdDev calculates the Bessel-corrected sample standard deviation.
func sampleStdDev(scores []float64, mean float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	var sumSq float64
	for _, s := range scores {
		diff := s - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(scores)-1))
}

// tCriticalValue returns the approximate two-sided t critical value.
func tCriticalValue(df int, level float64) float64 {
	// Pre-computed values for common cases
	if df >= 30 {
		switch {
		case level >= 0.99:
			return 2.576
		case level >= 0.95:
			return 1.96
		case level >= 0.90:
			return 1.645
		default:
			return 1.96
		}
	}

	// Table lookup for small df
	t95 := []float64{12.706, 4.303, 3.182, 2.776, 2.571, 2.447, 2.365, 2.306, 2.262, 2.228,
		2.201, 2.179, 2.160, 2.145, 2.131, 2.120, 2.110, 2.101, 2.093, 2.086,
		2.080, 2.074, 2.069, 2.064, 2.060, 2.056, 2.052, 2.048, 2.045, 2.042}
	t99 := []float64{63.657, 9.925, 5.841, 4.604, 4.032, 3.707, 3.499, 3.355, 3.250, 3.169,
		3.106, 3.055, 3.012, 2.977, 2.947, 2.921, 2.898, 2.878, 2.861, 2.845,
		2.831, 2.819, 2.807, 2.797, 2.787, 2.779, 2.771, 2.763, 2.756, 2.750}

	if df < 1 {
		df = 1
	}

	switch {
	case level >= 0.99:
		return t99[df-1]
	case level >= 0.95:
		return t95[df-1]
	default:
		return t95[df-1] * 0.85 // Approximate for 90%
	}
}
