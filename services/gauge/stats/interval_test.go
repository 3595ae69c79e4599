// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stats

import (
	"errors"
	"math"
	"testing"
)

func TestEstimate_Fixture(t *testing.T) {
	// Observed scenario fixture: five tightly clustered trial scores.
	scores := []float64{5.1, 5.3, 5.0, 5.2, 5.4}

	ci, err := Estimate(scores)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(ci.Mean-5.2) > 1e-9 {
		t.Errorf("expected mean 5.2, got %v", ci.Mean)
	}
	if math.Abs(ci.Margin-0.2) > 0.01 {
		t.Errorf("expected margin ~0.2, got %v", ci.Margin)
	}
	if ci.Lower > 5.01 || ci.Lower < 4.99 {
		t.Errorf("expected lower ~5.0, got %v", ci.Lower)
	}
	if ci.Upper < 5.39 || ci.Upper > 5.41 {
		t.Errorf("expected upper ~5.4, got %v", ci.Upper)
	}
	if ci.SampleSize != 5 {
		t.Errorf("expected sample size 5, got %d", ci.SampleSize)
	}
	if ci.DegreesOfFreedom != 4 {
		t.Errorf("expected df 4, got %d", ci.DegreesOfFreedom)
	}
}

func TestEstimate_Invariants(t *testing.T) {
	scores := []float64{7.0, 6.5, 8.0, 7.5}

	ci, err := Estimate(scores)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(ci.Lower-(ci.Mean-ci.Margin)) > 1e-12 {
		t.Errorf("lower != mean - margin: %v vs %v", ci.Lower, ci.Mean-ci.Margin)
	}
	if math.Abs(ci.Upper-(ci.Mean+ci.Margin)) > 1e-12 {
		t.Errorf("upper != mean + margin: %v vs %v", ci.Upper, ci.Mean+ci.Margin)
	}
	if ci.Margin < 0 {
		t.Errorf("margin must be non-negative, got %v", ci.Margin)
	}
}

func TestEstimate_InsufficientSamples(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, err := Estimate(nil); !errors.Is(err, ErrInsufficientSamples) {
			t.Errorf("expected ErrInsufficientSamples, got %v", err)
		}
	})

	t.Run("single score", func(t *testing.T) {
		if _, err := Estimate([]float64{7.0}); !errors.Is(err, ErrInsufficientSamples) {
			t.Errorf("expected ErrInsufficientSamples, got %v", err)
		}
	})
}

func TestEstimate_InvalidScore(t *testing.T) {
	if _, err := Estimate([]float64{5.0, math.NaN()}); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore for NaN, got %v", err)
	}
	if _, err := Estimate([]float64{5.0, math.Inf(1)}); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore for Inf, got %v", err)
	}
}

func TestEstimate_WidthShrinksWithSampleSize(t *testing.T) {
	// Fixed variance: alternating values keep the sample stddev constant, so
	// a growing n must tighten (or hold) the interval.
	build := func(n int) []float64 {
		scores := make([]float64, n)
		for i := range scores {
			if i%2 == 0 {
				scores[i] = 6.0
			} else {
				scores[i] = 8.0
			}
		}
		return scores
	}

	prev := math.Inf(1)
	for _, n := range []int{2, 4, 8, 16, 32, 64} {
		ci, err := Estimate(build(n))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if ci.Width() > prev {
			t.Errorf("n=%d: width %v grew beyond previous %v", n, ci.Width(), prev)
		}
		prev = ci.Width()
	}
}

func TestEstimate_ZeroVariance(t *testing.T) {
	ci, err := Estimate([]float64{7.0, 7.0, 7.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ci.Margin != 0 {
		t.Errorf("expected zero margin for identical scores, got %v", ci.Margin)
	}
	if ci.Lower != 7.0 || ci.Upper != 7.0 {
		t.Errorf("expected degenerate interval [7,7], got [%v,%v]", ci.Lower, ci.Upper)
	}
}

func TestTCriticalValue(t *testing.T) {
	cases := []struct {
		df    int
		level float64
		want  float64
	}{
		{1, 0.95, 12.706},
		{4, 0.95, 2.776},
		{29, 0.95, 2.045},
		{30, 0.95, 1.96},
		{100, 0.95, 1.96},
		{4, 0.99, 4.604},
		{50, 0.99, 2.576},
	}

	for _, tc := range cases {
		got := tCriticalValue(tc.df, tc.level)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("tCriticalValue(%d, %v) = %v, want %v", tc.df, tc.level, got, tc.want)
		}
	}
}
