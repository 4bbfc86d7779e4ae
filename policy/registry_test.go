// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cursor struct {
	Rows []int
}

func (c *cursor) FetchOne() (int, bool) {
	if len(c.Rows) == 0 {
		return 0, false
	}
	return c.Rows[0], true
}

func (c *cursor) unexportedReset() {}

func TestResolveName(t *testing.T) {
	r := New()
	_, err := r.RegisterFunc("sqrt", func(x float64) float64 { return x })
	require.NoError(t, err)
	require.NoError(t, r.RegisterConst("pi", 3.14159))

	binding, ok := r.ResolveName("sqrt")
	require.True(t, ok)
	_, isFn := binding.(BoundFunction)
	assert.True(t, isFn)

	binding, ok = r.ResolveName("pi")
	require.True(t, ok)
	_, isConst := binding.(BuiltinValue)
	assert.True(t, isConst)

	_, ok = r.ResolveName("missing")
	assert.False(t, ok)
}

func TestNameCollision(t *testing.T) {
	r := New()
	_, err := r.RegisterFunc("f", func() {})
	require.NoError(t, err)
	_, err = r.RegisterFunc("f", func() {})
	require.Error(t, err)
	var collision *NameCollisionError
	assert.ErrorAs(t, err, &collision)
}

func TestResolveModuleMemberRecursive(t *testing.T) {
	sub := NewModule("trig").WithRecursive(true).Func("sin", func(x float64) float64 { return x })
	top := NewModule("math").WithRecursive(true).
		Func("sqrt", func(x float64) float64 { return x }).
		Submodule(sub)
	r := New()
	require.NoError(t, r.RegisterModule(top))

	resolved, ok := r.ResolveModuleMember("math", "sqrt")
	require.True(t, ok)
	_, isFn := resolved.(ResolvedFunction)
	assert.True(t, isFn)

	resolved, ok = r.ResolveModuleMember("math", "trig.sin")
	require.True(t, ok)
	_, isFn = resolved.(ResolvedFunction)
	assert.True(t, isFn)

	_, ok = r.ResolveModuleMember("math", "trig.cos")
	assert.False(t, ok)
}

func TestResolveModuleMemberNonRecursiveBlocksSubmodule(t *testing.T) {
	sub := NewModule("trig").Func("sin", func(x float64) float64 { return x })
	top := NewModule("math").Submodule(sub) // not recursive
	r := New()
	require.NoError(t, r.RegisterModule(top))

	_, ok := r.ResolveModuleMember("math", "trig.sin")
	assert.False(t, ok, "non-recursive module must not expose submodules")
}

func TestAttributeAllowedAndFuzzedDangerousNames(t *testing.T) {
	r := New()
	_, err := r.RegisterClass("Cursor", &cursor{}, Visible(Medium))
	require.NoError(t, err)

	c := &cursor{Rows: []int{1}}
	assert.True(t, r.AttributeAllowed(c, "FetchOne"))

	dangerous := []string{"__class__", "__globals__", "__subclasses__", "mro", "unexportedReset", "Rows"}
	// Rows is an exported field so it IS allowed by default include-all;
	// the rest must never be reachable regardless of what name is probed.
	for _, name := range dangerous {
		if name == "Rows" {
			assert.True(t, r.AttributeAllowed(c, name))
			continue
		}
		assert.False(t, r.AttributeAllowed(c, name), "must reject %s", name)
	}
}

func TestClassExcludePattern(t *testing.T) {
	r := New()
	entry, err := r.RegisterClass("Cursor", &cursor{}, Visible(Medium))
	require.NoError(t, err)
	entry.Exclude(Glob("Rows"))

	c := &cursor{Rows: []int{1}}
	assert.True(t, r.AttributeAllowed(c, "FetchOne"))
	assert.False(t, r.AttributeAllowed(c, "Rows"))
}
