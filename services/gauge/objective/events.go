// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package objective

import (
	"regexp"
	"strings"
)

// TouchKind classifies a touched file path.
type TouchKind int

const (
	// TouchImpl is an implementation-like file touch.
	TouchImpl TouchKind = iota

	// TouchTest is a test-like file touch.
	TouchTest
)

// String returns the string representation of a TouchKind.
func (k TouchKind) String() string {
	switch k {
	case TouchTest:
		return "test"
	case TouchImpl:
		return "impl"
	default:
		return "unknown"
	}
}

// TouchEvent is one ordered file-touch extracted from a transcript: a
// create/write/modify marker followed by a path.
type TouchEvent struct {
	// Pos is the byte offset of the marker in the transcript. Events are
	// returned in ascending Pos order; ordering is what the TDD rule scores.
	Pos int

	// Path is the touched file path as written in the transcript.
	Path string

	// Kind is the classification of Path.
	Kind TouchKind
}

// touchRe matches transcript lines announcing a file touch, e.g.
// "Write file: src/validate.js" or "Created file tests/auth_test.go".
var touchRe = regexp.MustCompile(
	`(?m)\b(?:Write|Wrote|Writing|Create|Created|Creating|Edit|Edited|Editing|Modify|Modified|Modifying|Update|Updated|Updating)\s+file:?\s+(\S+)`)

// testIndicators mark a path as test-like when present in its lowercased
// form. Kept as substrings so "spec.rb", "auth_test.go", "tests/util.py" and
// "__tests__/App.jsx" all classify the same way.
var testIndicators = []string{"test", "spec"}

// ScanTouches tokenizes the transcript into an ordered stream of file-touch
// events. Classification happens here so scoring rules stay pure predicates
// over the event stream.
func ScanTouches(text string) []TouchEvent {
	matches := touchRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	events := make([]TouchEvent, 0, len(matches))
	for _, m := range matches {
		path := strings.TrimRight(text[m[2]:m[3]], ".,;:)")
		events = append(events, TouchEvent{
			Pos:  m[0],
			Path: path,
			Kind: classifyPath(path),
		})
	}
	return events
}

// classifyPath decides whether a path is test-like or implementation-like.
func classifyPath(path string) TouchKind {
	lower := strings.ToLower(path)
	for _, indicator := range testIndicators {
		if strings.Contains(lower, indicator) {
			return TouchTest
		}
	}
	return TouchImpl
}
