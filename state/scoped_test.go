// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopedReadsThroughToParent(t *testing.T) {
	parent := NewVersioned(NewMemoryKV())
	parent.Set("x", 1.0)

	scope := NewScoped(parent)
	v, ok := scope.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestScopedWritesNeverReachParent(t *testing.T) {
	parent := NewVersioned(NewMemoryKV())
	scope := NewScoped(parent)
	scope.Set("x", 1.0)

	v, ok := scope.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = parent.Get("x")
	assert.False(t, ok, "scoped writes must not leak into the parent")
}

func TestScopedRemoveShadowsParentValue(t *testing.T) {
	parent := NewVersioned(NewMemoryKV())
	parent.Set("x", 1.0)
	scope := NewScoped(parent)

	assert.True(t, scope.Remove("x"))
	_, ok := scope.Get("x")
	assert.False(t, ok)

	pv, ok := parent.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, pv, "removal inside a scope must not affect the parent")
}
