// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEventToLogAndEvents(t *testing.T) {
	s := NewEphemeral()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	AddEventToLog(s, Event{Timestamp: base, Kind: "thinking", Content: "first"})
	AddEventToLog(s, Event{Timestamp: base.Add(time.Second), Kind: "code", Content: "second"})

	events := Events(s)
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].Content)
	assert.Equal(t, "second", events[1].Content)
}

func TestAddEventToLogHandlesTimestampCollisions(t *testing.T) {
	s := NewEphemeral()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	AddEventToLog(s, Event{Timestamp: ts, Kind: "thinking", Content: "a"})
	AddEventToLog(s, Event{Timestamp: ts, Kind: "thinking", Content: "b"})

	events := Events(s)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Content)
	assert.Equal(t, "b", events[1].Content)
}

func TestMergedEventsSortsChronologically(t *testing.T) {
	parent := NewEphemeral()
	child := NewEphemeral()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	AddEventToLog(parent, Event{Timestamp: base.Add(2 * time.Second), Kind: "system", Content: "p2"})
	AddEventToLog(child, Event{Timestamp: base.Add(1 * time.Second), Kind: "system", Content: "c1"})
	AddEventToLog(parent, Event{Timestamp: base, Kind: "system", Content: "p0"})

	merged := MergedEvents(parent, child)
	require.Len(t, merged, 3)
	assert.Equal(t, "p0", merged[0].Content)
	assert.Equal(t, "c1", merged[1].Content)
	assert.Equal(t, "p2", merged[2].Content)
}

func TestEventLogKeyHiddenFromKeys(t *testing.T) {
	s := NewEphemeral()
	s.Set("visible", 1)
	AddEventToLog(s, Event{Timestamp: time.Now(), Kind: "system", Content: "hi"})

	keys := s.Keys()
	assert.Contains(t, keys, "visible")
	assert.NotContains(t, keys, eventLogKey)
}
