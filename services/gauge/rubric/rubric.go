// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rubric validates judge-produced score payloads at the trust
// boundary and converts them into a strongly typed breakdown.
//
// The judge is an external model; its payload is duck-typed JSON and is never
// trusted until it passes schema, bounds, and total validation here. No
// downstream component sees the raw payload shape.
package rubric

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Rubric totals in use. The standard rubric sums to 10; one extra criterion
// raises it to 11 for scenarios that carry it.
const (
	StandardTotal = 10.0
	ExtendedTotal = 11.0
)

// Criterion is one scored rubric entry. Invariant: 0 <= Points <= Max.
type Criterion struct {
	Name     string  `json:"name"`
	Points   float64 `json:"points"`
	Max      float64 `json:"max"`
	Evidence string  `json:"evidence"`
}

// Breakdown is a validated judge payload: a mapping of criterion name to
// result plus the judge's prose fields.
type Breakdown struct {
	Criteria     map[string]Criterion `json:"criteria"`
	Summary      string               `json:"summary"`
	Improvements []string             `json:"improvements"`

	// Score and Pass are optional judge-supplied aggregates. The engine
	// recomputes the total from criteria; these are carried for audit only.
	Score *float64 `json:"score,omitempty"`
	Pass  *bool    `json:"pass,omitempty"`
}

// Total returns the sum of awarded points.
func (b *Breakdown) Total() float64 {
	var sum float64
	for _, c := range b.Criteria {
		sum += c.Points
	}
	return sum
}

// MaxTotal returns the sum of criterion maxima.
func (b *Breakdown) MaxTotal() float64 {
	var sum float64
	for _, c := range b.Criteria {
		sum += c.Max
	}
	return sum
}

// Names returns the criterion names in sorted order.
func (b *Breakdown) Names() []string {
	names := make([]string, 0, len(b.Criteria))
	for name := range b.Criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// clone returns a deep copy. ClampBounds relies on this to stay pure.
func (b *Breakdown) clone() *Breakdown {
	out := &Breakdown{
		Criteria:     make(map[string]Criterion, len(b.Criteria)),
		Summary:      b.Summary,
		Improvements: append([]string(nil), b.Improvements...),
	}
	for name, c := range b.Criteria {
		out.Criteria[name] = c
	}
	if b.Score != nil {
		s := *b.Score
		out.Score = &s
	}
	if b.Pass != nil {
		p := *b.Pass
		out.Pass = &p
	}
	return out
}

// -----------------------------------------------------------------------------
// Parsing (duck-typed boundary)
// -----------------------------------------------------------------------------

// Decode unmarshals raw JSON into the untyped payload shape used by
// ValidateSchema. Transport-level parsing of the judge response happens
// upstream; Decode only handles the payload object itself.
func Decode(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaError{Detail: fmt.Sprintf("payload is not a JSON object: %v", err)}
	}
	return raw, nil
}

// Parse validates the untyped payload's shape and converts it into a typed
// Breakdown. Bounds and total are NOT checked here; callers chain
// ValidateBounds and ValidateTotal (or ClampBounds) as policy dictates.
//
// Outputs:
//   - *Breakdown: The typed payload. Never nil on success.
//   - error: *SchemaError or *InvalidInputError with the offending field named.
func Parse(raw map[string]any) (*Breakdown, error) {
	if err := ValidateSchema(raw); err != nil {
		return nil, err
	}

	criteria := raw["criteria"].(map[string]any)
	out := &Breakdown{
		Criteria: make(map[string]Criterion, len(criteria)),
		Summary:  raw["summary"].(string),
	}

	for _, item := range raw["improvements"].([]any) {
		s, ok := item.(string)
		if !ok {
			return nil, &InvalidInputError{Field: "improvements", Value: item}
		}
		out.Improvements = append(out.Improvements, s)
	}

	for name, entry := range criteria {
		fields := entry.(map[string]any)
		points, err := toNumber(fmt.Sprintf("criteria.%s.points", name), fields["points"])
		if err != nil {
			return nil, err
		}
		max, err := toNumber(fmt.Sprintf("criteria.%s.max", name), fields["max"])
		if err != nil {
			return nil, err
		}
		evidence, _ := fields["evidence"].(string)
		out.Criteria[name] = Criterion{
			Name:     name,
			Points:   points,
			Max:      max,
			Evidence: evidence,
		}
	}

	if v, ok := raw["score"]; ok {
		score, err := toNumber("score", v)
		if err != nil {
			return nil, err
		}
		out.Score = &score
	}
	if v, ok := raw["pass"]; ok {
		pass, ok := v.(bool)
		if !ok {
			return nil, &InvalidInputError{Field: "pass", Value: v}
		}
		out.Pass = &pass
	}

	return out, nil
}

// toNumber coerces a decoded JSON value to float64.
func toNumber(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, &InvalidInputError{Field: field, Value: v}
		}
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &InvalidInputError{Field: field, Value: v}
		}
		return f, nil
	default:
		return 0, &InvalidInputError{Field: field, Value: v}
	}
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

// ValidateSchema verifies the untyped payload shape before any score from it
// is trusted: a non-empty criteria mapping, a string summary, an improvements
// array, and points/max/evidence on every criterion entry.
//
// Outputs:
//   - error: *SchemaError naming every missing or mistyped field, nil if valid.
func ValidateSchema(raw map[string]any) error {
	var missing []string

	criteria, ok := raw["criteria"].(map[string]any)
	if !ok || len(criteria) == 0 {
		missing = append(missing, "criteria")
	}
	if _, ok := raw["summary"].(string); !ok {
		missing = append(missing, "summary")
	}
	if _, ok := raw["improvements"].([]any); !ok {
		missing = append(missing, "improvements")
	}

	for name, entry := range criteria {
		fields, ok := entry.(map[string]any)
		if !ok {
			missing = append(missing, fmt.Sprintf("criteria.%s", name))
			continue
		}
		for _, key := range []string{"points", "max", "evidence"} {
			if _, ok := fields[key]; !ok {
				missing = append(missing, fmt.Sprintf("criteria.%s.%s", name, key))
			}
		}
	}

	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// ValidateBounds verifies 0 <= points <= max for every criterion.
//
// Outputs:
//   - error: *BoundsError listing every violating criterion, nil if valid.
func ValidateBounds(b *Breakdown) error {
	var violations []BoundsViolation
	for _, name := range b.Names() {
		c := b.Criteria[name]
		if c.Points < 0 || c.Points > c.Max {
			violations = append(violations, BoundsViolation{
				Criterion: name,
				Points:    c.Points,
				Max:       c.Max,
			})
		}
	}
	if len(violations) > 0 {
		return &BoundsError{Violations: violations}
	}
	return nil
}

// ValidateTotal verifies the criterion maxima sum to the declared rubric
// total (10, or 11 when the extra criterion applies).
//
// Outputs:
//   - error: *TotalError with expected and actual sums, nil if they match.
func ValidateTotal(b *Breakdown, expectedTotal float64) error {
	actual := b.MaxTotal()
	if math.Abs(actual-expectedTotal) > 1e-9 {
		return &TotalError{Expected: expectedTotal, Actual: actual}
	}
	return nil
}

// ClampBounds returns a corrected copy of the breakdown with every
// out-of-range points value clamped into [0, max]. One warning is logged per
// clamped criterion; clamping is never silent. The input is not mutated and
// the operation is idempotent.
//
// This is the recovery path for when strict bounds validation is not
// required; it is the only sanctioned automatic correction.
func ClampBounds(b *Breakdown, logger *slog.Logger) *Breakdown {
	if logger == nil {
		logger = slog.Default()
	}

	out := b.clone()
	for _, name := range b.Names() {
		c := out.Criteria[name]
		clamped := c.Points
		if clamped < 0 {
			clamped = 0
		}
		if clamped > c.Max {
			clamped = c.Max
		}
		if clamped != c.Points {
			logger.Warn("clamped out-of-range criterion points",
				slog.String("criterion", name),
				slog.Float64("points", c.Points),
				slog.Float64("max", c.Max),
				slog.Float64("clamped_to", clamped),
			)
			c.Points = clamped
			out.Criteria[name] = c
		}
	}
	return out
}
