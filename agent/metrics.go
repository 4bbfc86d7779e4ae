// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "github.com/prometheus/client_golang/prometheus"

// metrics tracks per-agent task loop activity. Each Agent gets its own
// instance rather than sharing package-level collectors, so benchmarks
// running several agents in the same process (spec §5 "benchmarks may run
// tasks in parallel") don't have their counts blended together; every
// collector carries an "agent" label for that reason.
type metrics struct {
	iterations *prometheus.CounterVec
	llmRetries *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agex",
			Subsystem: "task_loop",
			Name:      "iterations_total",
			Help:      "Number of task loop iterations executed.",
		}, []string{"agent"}),
		llmRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agex",
			Subsystem: "task_loop",
			Name:      "llm_retries_total",
			Help:      "Number of LLM completion retry attempts.",
		}, []string{"agent"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agex",
			Subsystem: "task_loop",
			Name:      "outcomes_total",
			Help:      "Task loop terminal outcomes by kind.",
		}, []string{"agent", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agex",
			Subsystem: "task_loop",
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of a completed task invocation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
	}
}

// Register adds the agent's collectors to reg. Safe to call once per
// process per registerer; a benchmark harness wiring up its own
// prometheus.Registry calls this for every agent it constructs.
func (a *Agent) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{a.metrics.iterations, a.metrics.llmRetries, a.metrics.outcomes, a.metrics.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
