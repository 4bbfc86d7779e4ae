// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bytedance/sonic"
)

// Serialize encodes v into a stable byte representation suitable for
// content-addressed storage and mutation-hash comparison. It fails for
// values that don't marshal cleanly (e.g. a live host handle, a function,
// a channel) — callers must treat that as "can't commit, not a crash".
func Serialize(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Deserialize decodes bytes produced by Serialize into a generic any value
// (maps, slices, and scalar JSON types — callers that need a concrete
// struct should call sonic.Unmarshal directly against their own target).
func Deserialize(b []byte) (any, error) {
	var v any
	if err := sonic.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// contentHash returns the SHA-256 hex digest of b, used both for the
// commit-hash namespace and for mutation detection.
func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// diskFileName maps an arbitrary KV key to a filesystem-safe file name.
func diskFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
