// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package bench

import "math"

// PassFailAggregator reduces a slice of per-trial boolean judge results into
// PassFailStats, grounded on pass_fail_aggregator in
// original_source/tests/agex/bench/test_aggregators.py.
func PassFailAggregator(results []bool, base Stats) PassFailStats {
	var pass, fail int
	for _, r := range results {
		if r {
			pass++
		} else {
			fail++
		}
	}
	rate := 0.0
	if len(results) > 0 {
		rate = float64(pass) / float64(len(results))
	}
	return PassFailStats{Stats: base, PassCount: pass, FailCount: fail, PassRate: rate}
}

// NumericAggregator reduces a slice of per-trial numeric scores into
// NumericStats (mean/min/max/stddev), grounded on numeric_aggregator in the
// same test module.
func NumericAggregator(scores []float64, base Stats) NumericStats {
	if len(scores) == 0 {
		return NumericStats{Stats: base}
	}
	sum, min, max := 0.0, scores[0], scores[0]
	for _, s := range scores {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	mean := sum / float64(len(scores))
	var variance float64
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(scores))
	return NumericStats{
		Stats:  base,
		Mean:   mean,
		Min:    min,
		Max:    max,
		StdDev: math.Sqrt(variance),
	}
}
