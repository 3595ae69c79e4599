// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package objective scores agent transcripts on mechanically checkable
// process criteria. Every rule is a pure function of the transcript text, so
// a transcript always scores the same regardless of host, locale, or run
// count. These scores complement the judge rubric; they never replace it.
package objective

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule names as they appear in results and reports.
const (
	RuleTaskTracking = "task_tracking"
	RuleConfidence   = "confidence_signaling"
	RuleTDDRed       = "tdd_red_first"
)

// MaxTotal is the highest objective score a transcript can earn.
const MaxTotal = 4.0

// Result is the outcome of one rule applied to a transcript.
type Result struct {
	Rule     string  `json:"rule"`
	Points   float64 `json:"points"`
	Max      float64 `json:"max"`
	Evidence string  `json:"evidence"`
}

// Report aggregates every rule result for one transcript. Results is in fixed
// rule order so reports diff cleanly across runs.
type Report struct {
	Results []Result `json:"results"`
	Total   float64  `json:"total"`
	Max     float64  `json:"max"`
}

// taskMarkers are the tool-call markers that prove the agent used the task
// tracker. Matching is exact-case: lowercase or mixed-case mentions in prose
// do not count as tool usage.
var taskMarkers = []string{"TaskCreate:", "TaskUpdate:", "TaskComplete:"}

// confidenceRe matches a whole-word uppercase confidence level. "highway" and
// "high" must not match; the agent is expected to emit the literal token.
var confidenceRe = regexp.MustCompile(`\b(HIGH|MEDIUM|LOW)\b`)

// CheckTaskTracking awards 1 point when the transcript contains at least one
// task-tracker marker.
func CheckTaskTracking(text string) Result {
	for _, marker := range taskMarkers {
		if idx := strings.Index(text, marker); idx >= 0 {
			return Result{
				Rule:     RuleTaskTracking,
				Points:   1,
				Max:      1,
				Evidence: fmt.Sprintf("%s at offset %d", strings.TrimSuffix(marker, ":"), idx),
			}
		}
	}
	return Result{
		Rule:     RuleTaskTracking,
		Max:      1,
		Evidence: "no task-tracker markers found",
	}
}

// CheckConfidence awards 1 point when the transcript states a confidence
// level as a whole-word uppercase token.
func CheckConfidence(text string) Result {
	if loc := confidenceRe.FindStringIndex(text); loc != nil {
		return Result{
			Rule:     RuleConfidence,
			Points:   1,
			Max:      1,
			Evidence: fmt.Sprintf("%s at offset %d", text[loc[0]:loc[1]], loc[0]),
		}
	}
	return Result{
		Rule:     RuleConfidence,
		Max:      1,
		Evidence: "no uppercase confidence level stated",
	}
}

// CheckTDDRed awards 2 points when the first test-like file touch strictly
// precedes the first implementation-like touch. A transcript that only
// touches tests, or touches nothing, earns 0: the rule rewards the red-first
// ordering, not the absence of implementation work.
func CheckTDDRed(text string) Result {
	events := ScanTouches(text)

	firstTest := -1
	firstImpl := -1
	var testPath, implPath string
	for _, ev := range events {
		switch ev.Kind {
		case TouchTest:
			if firstTest < 0 {
				firstTest = ev.Pos
				testPath = ev.Path
			}
		case TouchImpl:
			if firstImpl < 0 {
				firstImpl = ev.Pos
				implPath = ev.Path
			}
		}
		if firstTest >= 0 && firstImpl >= 0 {
			break
		}
	}

	switch {
	case firstTest >= 0 && firstImpl >= 0 && firstTest < firstImpl:
		return Result{
			Rule:     RuleTDDRed,
			Points:   2,
			Max:      2,
			Evidence: fmt.Sprintf("%s touched before %s", testPath, implPath),
		}
	case firstTest >= 0 && firstImpl >= 0:
		return Result{
			Rule:     RuleTDDRed,
			Max:      2,
			Evidence: fmt.Sprintf("%s touched before any test file", implPath),
		}
	case firstImpl >= 0:
		return Result{
			Rule:     RuleTDDRed,
			Max:      2,
			Evidence: "implementation touched with no test touches",
		}
	case firstTest >= 0:
		return Result{
			Rule:     RuleTDDRed,
			Max:      2,
			Evidence: "tests touched with no implementation touches",
		}
	default:
		return Result{
			Rule:     RuleTDDRed,
			Max:      2,
			Evidence: "no file touches found",
		}
	}
}

// RunAll applies every rule in fixed order and aggregates the results.
func RunAll(text string) *Report {
	results := []Result{
		CheckTaskTracking(text),
		CheckConfidence(text),
		CheckTDDRed(text),
	}

	report := &Report{Results: results, Max: MaxTotal}
	for _, r := range results {
		report.Total += r.Points
	}
	return report
}
