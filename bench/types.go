// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Package bench is a thin, optional benchmark harness: run a batch of
// trials against a task and aggregate their outcomes. Explicitly named a
// Non-goal of the core runtime, it's kept as a supplemental package rather
// than core-tested, grounded on original_source/tests/agex/bench and
// original_source/benchmarks.
package bench

import "time"

// Params is a trial's call arguments, args/kwargs-shaped the way a task's
// "inputs" record is (bench ported Params.args/kwargs verbatim from the
// original's dataclass since Go's call convention is the same positional
// vs. named split).
type Params struct {
	Args   []any
	Kwargs map[string]any
}

// NewParams is the params(...) helper the original exposes for building a
// Params from a mix of positional values.
func NewParams(args ...any) Params {
	return Params{Args: args}
}

// WithKwargs returns a copy of p with kwargs attached.
func (p Params) WithKwargs(kwargs map[string]any) Params {
	p.Kwargs = kwargs
	return p
}

// Trial is one benchmark case: the input to send and a judge deciding
// whether the task's result counts as a pass.
type Trial struct {
	Name     string
	Params   Params
	Expected any
	Judge    func(actual any) bool
}

// Stats is the base set of run statistics every aggregator extends.
type Stats struct {
	TotalTrials     int
	CompletedTrials int
	ErroredTrials   int
	ActionsPerTrial float64
	TimePerTrial    time.Duration
}

// PassFailStats extends Stats with a boolean judge's pass/fail tally.
type PassFailStats struct {
	Stats
	PassCount int
	FailCount int
	PassRate  float64
}

// NumericStats extends Stats with a numeric judge's score distribution.
type NumericStats struct {
	Stats
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
}
