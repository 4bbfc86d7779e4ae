// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"time"
)

// eventLogKey is the reserved logical key holding the ordered list of
// event-entry key references. It is never returned by Keys/Items.
const eventLogKey = "__event_log__"

// Event is one entry appended to a namespace's event log: a record of a
// task iteration's thinking/code/observation, kept for conversation-history
// reconstruction and for rendering prior turns back into the prompt.
type Event struct {
	Timestamp time.Time
	Kind      string // "thinking", "code", "output", "error", "system"
	Content   string
}

// AddEventToLog appends event to s's own event log. Each event is stored
// under its own timestamp-derived key, with __event_log__ holding only the
// ordered list of references — so a commit that adds one event serializes
// one small new key, not the whole growing history.
func AddEventToLog(s State, event Event) {
	eventKey := fmt.Sprintf("__event_%d__", event.Timestamp.UnixMicro())
	for counter := 0; s.Contains(eventKey); counter++ {
		eventKey = fmt.Sprintf("__event_%d_%d__", event.Timestamp.UnixMicro(), counter)
	}
	s.Set(eventKey, event)

	var refs []string
	if existing, ok := s.Get(eventLogKey); ok {
		refs, _ = existing.([]string)
	}
	refs = append(refs, eventKey)
	s.Set(eventLogKey, refs)
}

// Events returns s's own event log in append order, oldest first.
func Events(s State) []Event {
	existing, ok := s.Get(eventLogKey)
	if !ok {
		return nil
	}
	refs, _ := existing.([]string)
	out := make([]Event, 0, len(refs))
	for _, key := range refs {
		v, ok := s.Get(key)
		if !ok {
			continue
		}
		if ev, ok := v.(Event); ok {
			out = append(out, ev)
		}
	}
	return out
}

// MergedEvents walks every namespace in namespaces (typically a parent
// followed by its descendants, outermost first) and returns their event
// logs concatenated and sorted into one chronological timeline.
func MergedEvents(namespaces ...State) []Event {
	var all []Event
	for _, ns := range namespaces {
		all = append(all, Events(ns)...)
	}
	// Stable insertion sort: event volume per task iteration is small, and
	// preserving relative order for equal timestamps matters more than
	// raw throughput here.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].Timestamp.Before(all[j-1].Timestamp); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	return all
}
