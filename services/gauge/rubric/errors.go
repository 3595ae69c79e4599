// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rubric

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaError indicates a structurally malformed judge payload. It is
// unrecoverable for the affected evaluation: a payload that cannot be parsed
// must never be silently scored as zero.
type SchemaError struct {
	// Missing lists absent or mistyped top-level or criterion fields.
	Missing []string

	// Detail is an optional human-readable elaboration.
	Detail string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("judge payload failed schema validation")
	if len(e.Missing) > 0 {
		sorted := make([]string, len(e.Missing))
		copy(sorted, e.Missing)
		sort.Strings(sorted)
		b.WriteString(": missing or invalid fields: ")
		b.WriteString(strings.Join(sorted, ", "))
	}
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// BoundsViolation names one criterion whose points fall outside [0, max].
type BoundsViolation struct {
	Criterion string
	Points    float64
	Max       float64
}

func (v BoundsViolation) String() string {
	return fmt.Sprintf("%s: points %.2f outside [0, %.2f]", v.Criterion, v.Points, v.Max)
}

// BoundsError lists every criterion with out-of-range points. Recoverable via
// ClampBounds, which is the only sanctioned automatic correction.
type BoundsError struct {
	Violations []BoundsViolation
}

// Error implements the error interface.
func (e *BoundsError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "judge payload has out-of-range points: " + strings.Join(parts, "; ")
}

// TotalError indicates the criterion maxima do not sum to the declared rubric
// total. This signals a rubric/version drift bug upstream and is surfaced,
// never auto-fixed.
type TotalError struct {
	Expected float64
	Actual   float64
}

// Error implements the error interface.
func (e *TotalError) Error() string {
	return fmt.Sprintf("rubric total mismatch: criterion maxima sum to %.2f, expected %.2f",
		e.Actual, e.Expected)
}

// InvalidInputError indicates a value that cannot be interpreted, such as a
// non-numeric points field.
type InvalidInputError struct {
	Field string
	Value any
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for %s: %v (type %T)", e.Field, e.Value, e.Value)
}
