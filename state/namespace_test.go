// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespacedIsolatesKeys(t *testing.T) {
	root := NewVersioned(NewMemoryKV())
	a := NewNamespaced(root, "a")
	b := NewNamespaced(root, "b")

	a.Set("x", 1.0)
	b.Set("x", 2.0)

	va, ok := a.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, va)

	vb, ok := b.Get("x")
	require.True(t, ok)
	assert.Equal(t, 2.0, vb)

	assert.Equal(t, []string{"x"}, a.Keys())
	assert.Equal(t, []string{"x"}, b.Keys())
}

func TestNamespacedKeysVsDescendantKeys(t *testing.T) {
	root := NewVersioned(NewMemoryKV())
	ns := NewNamespaced(root, "a")
	ns.Set("x", 1.0)
	ns.Namespace("sub").Set("y", 2.0)

	assert.Equal(t, []string{"x"}, ns.Keys(), "Keys must not include nested descendants")

	descendants := ns.DescendantKeys()
	assert.Contains(t, descendants, "x")
	assert.Contains(t, descendants, "sub.y")
}

func TestNamespacedBaseStoreUnwrapsToRoot(t *testing.T) {
	root := NewVersioned(NewMemoryKV())
	ns := NewNamespaced(root, "a").Namespace("b")
	assert.Same(t, root, ns.BaseStore())
}
