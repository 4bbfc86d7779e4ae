// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		glob, path string
		want       bool
	}{
		{"sqrt", "sqrt", true},
		{"sqrt", "cos", false},
		{"*", "sqrt", true},
		{"*", "sub.sqrt", false},
		{"sub.*", "sub.sqrt", true},
		{"sub.*", "sub.sub2.sqrt", false},
		{"**", "sub.sub2.sqrt", true},
		{"sub.**", "sub.sub2.sqrt", true},
		{"sub.**.sqrt", "sub.sub2.sqrt", true},
		{"sub.**.sqrt", "sub.sqrt", true},
		{"s?rt", "sqrt", true},
		{"s?rt", "sqqrt", false},
	}
	for _, c := range cases {
		got := matchGlob(c.glob, c.path)
		assert.Equalf(t, c.want, got, "glob=%q path=%q", c.glob, c.path)
	}
}

func TestGlobs(t *testing.T) {
	p := Globs("foo", "bar.*")
	assert.True(t, p.Match("foo"))
	assert.True(t, p.Match("bar.baz"))
	assert.False(t, p.Match("qux"))
}

func TestPredicate(t *testing.T) {
	p := Predicate(func(s string) bool { return len(s) > 3 })
	assert.True(t, p.Match("abcd"))
	assert.False(t, p.Match("ab"))
}
