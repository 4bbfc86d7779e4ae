// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "strings"

// Pattern decides whether a dotted member path ("submod.cls.method") is
// selected. A Pattern is the union of a single glob, a set of globs, or an
// arbitrary predicate — the three forms an include/exclude rule may take.
type Pattern interface {
	Match(path string) bool
}

// globPattern matches a dotted path segment-by-segment. "*" matches exactly
// one segment; "**" matches zero or more segments.
type globPattern string

func (g globPattern) Match(path string) bool {
	return matchGlob(string(g), path)
}

func matchGlob(glob, path string) bool {
	return matchSegments(strings.Split(glob, "."), strings.Split(path, "."))
}

func matchSegments(glob, path []string) bool {
	if len(glob) == 0 {
		return len(path) == 0
	}
	head := glob[0]
	if head == "**" {
		if matchSegments(glob[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchSegments(glob, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if !matchSegment(head, path[0]) {
		return false
	}
	return matchSegments(glob[1:], path[1:])
}

// matchSegment matches a single dotted segment against a glob that may
// contain "*" (any run of characters) and "?" (single character).
func matchSegment(glob, seg string) bool {
	return matchSegmentRunes([]rune(glob), []rune(seg))
}

func matchSegmentRunes(glob, seg []rune) bool {
	if len(glob) == 0 {
		return len(seg) == 0
	}
	switch glob[0] {
	case '*':
		if matchSegmentRunes(glob[1:], seg) {
			return true
		}
		if len(seg) == 0 {
			return false
		}
		return matchSegmentRunes(glob, seg[1:])
	case '?':
		if len(seg) == 0 {
			return false
		}
		return matchSegmentRunes(glob[1:], seg[1:])
	default:
		if len(seg) == 0 || glob[0] != seg[0] {
			return false
		}
		return matchSegmentRunes(glob[1:], seg[1:])
	}
}

// globList is the union of several globPatterns — a match on any of them
// selects the path.
type globList []string

func (g globList) Match(path string) bool {
	for _, p := range g {
		if matchGlob(p, path) {
			return true
		}
	}
	return false
}

// predicatePattern wraps an arbitrary Go predicate as a Pattern.
type predicatePattern func(path string) bool

func (p predicatePattern) Match(path string) bool { return p(path) }

// Glob returns a Pattern matching a single glob expression.
func Glob(expr string) Pattern { return globPattern(expr) }

// Globs returns a Pattern matching any of the given glob expressions.
func Globs(exprs ...string) Pattern {
	cp := make(globList, len(exprs))
	copy(cp, exprs)
	return cp
}

// Predicate wraps fn as a Pattern.
func Predicate(fn func(path string) bool) Pattern { return predicatePattern(fn) }

// All matches every path.
var All Pattern = predicatePattern(func(string) bool { return true })

// None matches no path.
var None Pattern = predicatePattern(func(string) bool { return false })
