// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	_, ok := kv.Get("a")
	assert.False(t, ok)

	kv.Set("a", []byte("1"))
	v, ok := kv.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)
	assert.True(t, kv.Contains("a"))
}

func TestDiskKV(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewDiskKV(dir)
	require.NoError(t, err)

	kv.Set("commit1:key", []byte("payload"))
	v, ok := kv.Get("commit1:key")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), v)
	assert.True(t, kv.Contains("commit1:key"))
	assert.False(t, kv.Contains("missing"))
}

func TestCacheKV(t *testing.T) {
	backing := NewMemoryKV()
	cache, err := NewCacheKV(backing, 8)
	require.NoError(t, err)

	cache.Set("a", []byte("1"))
	// Visible directly on the backing store too (write-through).
	v, ok := backing.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	// A value written directly to backing is still reachable through the
	// cache on first read (read-through on miss).
	backing.Set("b", []byte("2"))
	v, ok = cache.Get("b")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), v)
}
