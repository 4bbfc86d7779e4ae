// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionedEmptyStoreHasStableSentinel(t *testing.T) {
	v1 := NewVersioned(NewMemoryKV())
	v2 := NewVersioned(NewMemoryKV())
	assert.Equal(t, v1.CurrentCommit(), v2.CurrentCommit())
	assert.Equal(t, EmptyCommit, v1.CurrentCommit())
}

func TestVersionedSetGetSnapshot(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("x", 42.0)
	val, ok := v.Get("x")
	require.True(t, ok)
	assert.Equal(t, 42.0, val)

	result := v.Snapshot()
	assert.True(t, result.Changed)
	assert.NotEqual(t, EmptyCommit, result.CommitHash)
	assert.Empty(t, result.UnsavedKeys)

	// Value still reads the same after the commit.
	val, ok = v.Get("x")
	require.True(t, ok)
	assert.Equal(t, 42.0, val)
}

func TestVersionedSnapshotNoopWhenNothingChanged(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("x", 1.0)
	first := v.Snapshot()
	require.True(t, first.Changed)

	second := v.Snapshot()
	assert.False(t, second.Changed)
	assert.Equal(t, first.CommitHash, second.CommitHash)
}

func TestVersionedMutationDetection(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("items", []any{1.0, 2.0})
	v.Snapshot()

	got, ok := v.Get("items")
	require.True(t, ok)
	items := got.([]any)
	items[0] = 99.0 // mutate the live object obtained from Get, no explicit Set

	result := v.Snapshot()
	assert.True(t, result.Changed, "mutated read object must be detected and committed")

	got2, _ := v.Get("items")
	assert.Equal(t, 99.0, got2.([]any)[0])
}

func TestVersionedRemoveExcludesFromNextCommit(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("a", 1.0)
	v.Set("b", 2.0)
	v.Snapshot()

	assert.True(t, v.Remove("a"))
	result := v.Snapshot()
	assert.True(t, result.Changed)

	_, ok := v.Get("a")
	assert.False(t, ok)
	_, ok = v.Get("b")
	assert.True(t, ok)
}

type unserializable struct {
	Ch chan int
}

func TestVersionedSnapshotReportsUnsavedKeys(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("f", unserializable{Ch: make(chan int)})
	v.Set("ok", 1.0)

	result := v.Snapshot()
	assert.True(t, result.Changed)
	assert.Contains(t, result.UnsavedKeys, "f")

	// The unsaved value remains readable process-locally.
	_, ok := v.Get("f")
	assert.True(t, ok)

	// It's retried (and fails again) on the next snapshot.
	v.Set("ok2", 2.0)
	result2 := v.Snapshot()
	assert.Contains(t, result2.UnsavedKeys, "f")
}

func TestVersionedCheckoutIsolatesWrites(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("a", 1.0)
	commitA := v.Snapshot().CommitHash

	v.Set("a", 2.0)
	v.Snapshot()

	old, err := v.Checkout(commitA)
	require.NoError(t, err)
	val, ok := old.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, val, "checked-out view must see the value as of that commit")

	old.Set("a", 999.0)
	current, _ := v.Get("a")
	assert.Equal(t, 2.0, current, "writes to a checked-out view must not affect the original")
}

func TestVersionedHistoryWalksParentChain(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("a", 1.0)
	c1 := v.Snapshot().CommitHash
	v.Set("a", 2.0)
	c2 := v.Snapshot().CommitHash

	history := v.History()
	assert.Equal(t, c2, history[0])
	assert.Contains(t, history, c1)
	assert.Equal(t, EmptyCommit, history[len(history)-1])
}

func TestVersionedKeysExcludeReserved(t *testing.T) {
	v := NewVersioned(NewMemoryKV())
	v.Set("visible", 1.0)
	AddEventToLog(v, Event{Kind: "system", Content: "hi"})
	keys := v.Keys()
	assert.Contains(t, keys, "visible")
	assert.NotContains(t, keys, eventLogKey)
}
