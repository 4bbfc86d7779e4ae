// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassFailAggregatorBasic(t *testing.T) {
	base := Stats{TotalTrials: 4, CompletedTrials: 4}
	stats := PassFailAggregator([]bool{true, false, true, true}, base)

	assert.Equal(t, 4, stats.TotalTrials)
	assert.Equal(t, 3, stats.PassCount)
	assert.Equal(t, 1, stats.FailCount)
	assert.InDelta(t, 0.75, stats.PassRate, 0.001)
}

func TestPassFailAggregatorEdgeCases(t *testing.T) {
	base := Stats{TotalTrials: 2, CompletedTrials: 2}

	allPass := PassFailAggregator([]bool{true, true}, base)
	assert.Equal(t, 2, allPass.PassCount)
	assert.Equal(t, 0, allPass.FailCount)
	assert.Equal(t, 1.0, allPass.PassRate)

	allFail := PassFailAggregator([]bool{false, false}, base)
	assert.Equal(t, 0, allFail.PassCount)
	assert.Equal(t, 2, allFail.FailCount)
	assert.Equal(t, 0.0, allFail.PassRate)

	empty := PassFailAggregator(nil, Stats{})
	assert.Equal(t, 0.0, empty.PassRate)
}

func TestNumericAggregator(t *testing.T) {
	base := Stats{TotalTrials: 3, CompletedTrials: 3}
	stats := NumericAggregator([]float64{1, 2, 3}, base)

	assert.InDelta(t, 2.0, stats.Mean, 0.001)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 3.0, stats.Max)
	assert.Greater(t, stats.StdDev, 0.0)
}
