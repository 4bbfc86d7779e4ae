// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addSqrt(r *Registry) {
	_, _ = r.RegisterFunc("sqrt", func(x float64) float64 { return x }, Visible(High), Doc("square root"))
}

// TestFingerprintDeterminism verifies that identical declared surfaces
// produce identical fingerprints, and any change to visibility, docstring,
// or primer text flips it.
func TestFingerprintDeterminism(t *testing.T) {
	r1 := New()
	addSqrt(r1)
	r2 := New()
	addSqrt(r2)

	assert.Equal(t, Fingerprint("primer", r1), Fingerprint("primer", r2))

	r3 := New()
	_, err := r3.RegisterFunc("sqrt", func(x float64) float64 { return x }, Visible(Medium), Doc("square root"))
	require.NoError(t, err)
	assert.NotEqual(t, Fingerprint("primer", r1), Fingerprint("primer", r3), "visibility change must flip fingerprint")

	r4 := New()
	_, err = r4.RegisterFunc("sqrt", func(x float64) float64 { return x }, Visible(High), Doc("different doc"))
	require.NoError(t, err)
	assert.NotEqual(t, Fingerprint("primer", r1), Fingerprint("primer", r4), "docstring change must flip fingerprint")

	assert.NotEqual(t, Fingerprint("primer-a", r1), Fingerprint("primer-b", r1), "primer change must flip fingerprint")
}

func TestFingerprintIgnoresCallableIdentity(t *testing.T) {
	r1 := New()
	_, _ = r1.RegisterFunc("f", func() int { return 1 }, Visible(High))
	r2 := New()
	_, _ = r2.RegisterFunc("f", func() int { return 2 }, Visible(High))
	assert.Equal(t, Fingerprint("p", r1), Fingerprint("p", r2), "host callable bodies are not part of identity")
}
