// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"context"
	"time"

	"github.com/agexrun/agex/agent"
	"github.com/agexrun/agex/state"
)

// TrialResult is one trial's outcome: either a successful result or an
// error, plus the event log the task loop emitted along the way (ported
// from TrialResult in original_source/tests/agex/bench/test_core.py).
type TrialResult[Out any] struct {
	Trial  Trial
	Result Out
	Events []state.Event
	Err    error
}

// Succeeded reports whether the trial completed without error.
func (r TrialResult[Out]) Succeeded() bool { return r.Err == nil }

// Suite runs a fixed task against a slice of trials, collecting each
// trial's result and the events its task loop emitted. Build adapts a
// trial's dynamic Params into the task's typed In, since a benchmark trial
// carries args/kwargs the way a task's "inputs" record does but Task.Run
// needs a concrete Go value.
type Suite[In, Out any] struct {
	Task  *agent.Task[In, Out]
	Build func(Params) In
}

// RunSuite drives every trial in trials through s.Task and returns one
// TrialResult per trial, in order.
func RunSuite[In, Out any](ctx context.Context, s Suite[In, Out], trials []Trial) []TrialResult[Out] {
	out := make([]TrialResult[Out], 0, len(trials))
	for _, trial := range trials {
		var events []state.Event
		args := s.Build(trial.Params)
		result, err := s.Task.Run(ctx, args, agent.WithEventHandler(func(ev state.Event) {
			events = append(events, ev)
		}))
		out = append(out, TrialResult[Out]{Trial: trial, Result: result, Events: events, Err: err})
	}
	return out
}

// BenchmarkPassFail runs trials and aggregates them with a boolean judge
// (ported from benchmark_pass_fail in original_source/tests/agex/bench/
// test_core.py): each trial's Judge decides pass/fail against its Result.
func BenchmarkPassFail[In, Out any](ctx context.Context, s Suite[In, Out], trials []Trial) PassFailStats {
	started := time.Now()
	results := RunSuite(ctx, s, trials)
	base, judged := summarize(results, started)
	return PassFailAggregator(judged, base)
}

// BenchmarkNumeric runs trials and aggregates them with a numeric judge
// (ported from benchmark_numeric), where Trial.Judge is ignored in favor of
// score reporting results directly against Trial.Expected via scorer.
func BenchmarkNumeric[In, Out any](ctx context.Context, s Suite[In, Out], trials []Trial, scorer func(result Out, trial Trial) float64) NumericStats {
	started := time.Now()
	results := RunSuite(ctx, s, trials)
	base, _ := summarize(results, started)
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Succeeded() {
			scores = append(scores, scorer(r.Result, r.Trial))
		}
	}
	return NumericAggregator(scores, base)
}

func summarize[Out any](results []TrialResult[Out], started time.Time) (Stats, []bool) {
	base := Stats{TotalTrials: len(results)}
	judged := make([]bool, 0, len(results))
	totalActions := 0
	for _, r := range results {
		if r.Succeeded() {
			base.CompletedTrials++
			judged = append(judged, r.Trial.Judge != nil && r.Trial.Judge(r.Result))
		} else {
			base.ErroredTrials++
			judged = append(judged, false)
		}
		totalActions += countActions(r.Events)
	}
	if len(results) > 0 {
		base.ActionsPerTrial = float64(totalActions) / float64(len(results))
		base.TimePerTrial = time.Since(started) / time.Duration(len(results))
	}
	return base, judged
}

func countActions(events []state.Event) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == "action" {
			n++
		}
	}
	return n
}
