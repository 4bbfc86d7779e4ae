// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Package state implements a content-addressed, versioned key-value store:
// snapshot/commit/checkout, namespace isolation, mutation detection via
// byte-hash comparison, and graceful degradation when a value cannot be
// serialized.
package state

// State is the trait every store implements.
type State interface {
	// Get returns the value stored under key, or (nil, false) if absent.
	Get(key string) (any, bool)
	// Set stores value under key.
	Set(key string, value any)
	// Remove deletes key, returning whether it was present.
	Remove(key string) bool
	// Keys returns the direct keys visible in this store's current view.
	// Reserved keys (prefixed "__") are never included.
	Keys() []string
	// Values returns the values corresponding to Keys(), in the same order.
	Values() []any
	// Items returns a snapshot map of Keys() to their values.
	Items() map[string]any
	// Contains reports whether key is present.
	Contains(key string) bool
	// BaseStore unwraps to the ultimate persistent root: a *Versioned or
	// *Ephemeral. A Namespaced store delegates to its parent's BaseStore.
	BaseStore() State
}

// reserved reports whether a logical key is a reserved, never user-visible
// key.
func reserved(key string) bool {
	return len(key) >= 2 && key[0] == '_' && key[1] == '_'
}

// filterReserved returns keys with every reserved entry removed, preserving
// order.
func filterReserved(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !reserved(k) {
			out = append(out, k)
		}
	}
	return out
}
