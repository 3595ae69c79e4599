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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianGauge/services/gauge/stats"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrGateFailed indicates the regression gate did not pass.
	ErrGateFailed = errors.New("regression gate failed")
)

// -----------------------------------------------------------------------------
// Gate Configuration
// -----------------------------------------------------------------------------

// GateConfig configures the regression gate.
type GateConfig struct {
	// Level is the confidence level for candidate intervals.
	// Default: 0.95
	Level float64

	// UpdateBaselineOnPass replaces the baseline when the verdict is not
	// REGRESSION. A regression never overwrites the baseline it failed
	// against.
	// Default: false
	UpdateBaselineOnPass bool

	// RequireBaseline fails if no baseline exists.
	// Default: false (missing baseline = seed and pass)
	RequireBaseline bool

	// Logger for output.
	Logger *slog.Logger
}

// DefaultGateConfig returns sensible defaults.
func DefaultGateConfig() *GateConfig {
	return &GateConfig{
		Level:                0.95,
		UpdateBaselineOnPass: false,
		RequireBaseline:      false,
		Logger:               slog.Default(),
	}
}

// -----------------------------------------------------------------------------
// Gate Options
// -----------------------------------------------------------------------------

// GateOption configures the gate.
type GateOption func(*GateConfig)

// WithConfidenceLevel sets the confidence level for candidate intervals.
func WithConfidenceLevel(level float64) GateOption {
	return func(c *GateConfig) {
		if level > 0 && level < 1 {
			c.Level = level
		}
	}
}

// WithUpdateBaseline enables baseline update on pass.
func WithUpdateBaseline(enabled bool) GateOption {
	return func(c *GateConfig) {
		c.UpdateBaselineOnPass = enabled
	}
}

// WithRequireBaseline requires baseline to exist.
func WithRequireBaseline(required bool) GateOption {
	return func(c *GateConfig) {
		c.RequireBaseline = required
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(c *GateConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// -----------------------------------------------------------------------------
// Gate
// -----------------------------------------------------------------------------

// Gate checks scenario score runs against stored baselines.
//
// Description:
//
//	Gate estimates a confidence interval from the candidate scores,
//	compares it against the stored baseline band, and decides whether
//	the run may proceed through the CI/CD pipeline.
//
// Thread Safety: Safe for concurrent use. Concurrent checks of the same
// scenario with UpdateBaselineOnPass enabled race on the Get-then-Set
// baseline replacement; each write replaces the whole baseline, so the last
// writer wins and no baseline is ever partially updated.
type Gate struct {
	baseline Baseline
	config   *GateConfig
	logger   *slog.Logger
}

// NewGate creates a new regression gate.
//
// Inputs:
//   - baseline: Baseline store. Must not be nil.
//   - opts: Configuration options.
//
// Outputs:
//   - *Gate: The new gate. Never nil.
func NewGate(baseline Baseline, opts ...GateOption) *Gate {
	config := DefaultGateConfig()
	for _, opt := range opts {
		opt(config)
	}

	return &Gate{
		baseline: baseline,
		config:   config,
		logger:   config.Logger,
	}
}

// GateDecision contains the gate check result.
type GateDecision struct {
	// Pass is true if the gate allows deployment.
	Pass bool

	// ScenarioID is the checked scenario.
	ScenarioID string

	// Comparison is the interval comparison. Nil on a first run with no
	// baseline.
	Comparison *Comparison

	// Candidate is the interval estimated from the candidate scores.
	Candidate *stats.Interval

	// BaselineUpdated is true if the baseline was created or replaced.
	BaselineUpdated bool

	// Report is a human-readable summary.
	Report string

	// Duration is the check duration.
	Duration time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time
}

// Check evaluates candidate scores against the stored baseline.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - scenarioID: Scenario name.
//   - scores: Candidate trial scores. At least two required.
//
// Outputs:
//   - *GateDecision: The gate decision. Never nil on success.
//   - error: Non-nil only if the check could not be performed.
//
// Thread Safety: Safe for concurrent use.
func (g *Gate) Check(ctx context.Context, scenarioID string, scores []float64) (*GateDecision, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}

	ctx, span := otel.Tracer("gauge/regression").Start(ctx, "regression.Gate.Check",
		trace.WithAttributes(
			attribute.String("scenario_id", scenarioID),
			attribute.Int("sample_size", len(scores)),
		),
	)
	defer span.End()

	start := time.Now()
	decision := &GateDecision{
		ScenarioID: scenarioID,
		Timestamp:  start,
	}

	candidate, err := stats.EstimateAt(scores, g.config.Level)
	if err != nil {
		return nil, fmt.Errorf("estimating candidate interval for %s: %w", scenarioID, err)
	}
	decision.Candidate = candidate

	// Get baseline
	baselineData, err := g.baseline.Get(ctx, scenarioID)
	if err != nil {
		if errors.Is(err, ErrBaselineNotFound) {
			return g.firstRun(ctx, decision, candidate, start)
		}
		return nil, err
	}

	cmp := Compare(baselineData.Interval(), candidate)
	decision.Comparison = cmp
	decision.Pass = cmp.Verdict != VerdictRegression
	span.SetAttributes(attribute.String("verdict", string(cmp.Verdict)))

	if decision.Pass && g.config.UpdateBaselineOnPass {
		newBaseline := FromInterval(scenarioID, candidate)
		newBaseline.Version = baselineData.Version
		newBaseline.CreatedAt = baselineData.CreatedAt
		if setErr := g.baseline.Set(ctx, scenarioID, newBaseline); setErr != nil {
			g.logger.Warn("failed to update baseline",
				slog.String("scenario_id", scenarioID),
				slog.String("error", setErr.Error()),
			)
		} else {
			decision.BaselineUpdated = true
		}
	}

	decision.Report = g.buildReport(decision)
	decision.Duration = time.Since(start)

	g.logger.Info("regression gate checked",
		slog.String("scenario_id", scenarioID),
		slog.String("verdict", string(cmp.Verdict)),
		slog.Bool("pass", decision.Pass),
		slog.Bool("baseline_updated", decision.BaselineUpdated),
	)
	return decision, nil
}

// firstRun handles the no-baseline path: fail when a baseline is required,
// otherwise seed one from the candidate and pass.
func (g *Gate) firstRun(ctx context.Context, decision *GateDecision, candidate *stats.Interval, start time.Time) (*GateDecision, error) {
	if g.config.RequireBaseline {
		decision.Pass = false
		decision.Report = "Baseline not found and RequireBaseline is enabled"
		decision.Duration = time.Since(start)
		return decision, nil
	}

	seed := FromInterval(decision.ScenarioID, candidate)
	seed.Version = "1"
	if setErr := g.baseline.Set(ctx, decision.ScenarioID, seed); setErr != nil {
		g.logger.Warn("failed to create initial baseline",
			slog.String("scenario_id", decision.ScenarioID),
			slog.String("error", setErr.Error()),
		)
	} else {
		decision.BaselineUpdated = true
	}

	decision.Pass = true
	decision.Report = "No baseline found - first run, baseline seeded"
	decision.Duration = time.Since(start)
	return decision, nil
}

// buildReport renders a short markdown summary of the decision.
func (g *Gate) buildReport(d *GateDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Regression Gate: %s\n\n", d.ScenarioID)
	if d.Pass {
		b.WriteString("**Status: PASS**\n\n")
	} else {
		b.WriteString("**Status: FAIL**\n\n")
	}
	if d.Comparison != nil {
		fmt.Fprintf(&b, "- Verdict: %s\n", d.Comparison.Verdict)
		fmt.Fprintf(&b, "- Baseline: %.2f ± %.2f (n=%d)\n",
			d.Comparison.Baseline.Mean,
			d.Comparison.Baseline.Upper-d.Comparison.Baseline.Mean,
			d.Comparison.Baseline.N)
		fmt.Fprintf(&b, "- Candidate: %.2f ± %.2f (n=%d)\n",
			d.Candidate.Mean, d.Candidate.Margin, d.Candidate.SampleSize)
		fmt.Fprintf(&b, "- Mean delta: %+.2f\n", d.Comparison.MeanDelta)
	}
	if d.BaselineUpdated {
		b.WriteString("- Baseline updated\n")
	}
	return b.String()
}
