// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "github.com/agexrun/agex/eval"

// Option configures an Agent at construction, mirroring the
// Option/optionFunc/apply pattern the teacher's agent configuration used.
type Option interface{ apply(*Agent) }

type optionFunc func(*Agent)

func (o optionFunc) apply(a *Agent) { o(a) }

// WithMaxIterations bounds the task loop's iteration count before it raises
// TaskTimeout (spec §4.5 "Termination").
func WithMaxIterations(n int) Option {
	return optionFunc(func(a *Agent) { a.maxIterations = n })
}

// WithLLMMaxRetries bounds retry-with-backoff attempts on LLM transport
// failure before the loop raises LLMFail (spec §7 "LLM errors").
func WithLLMMaxRetries(n int) Option {
	return optionFunc(func(a *Agent) { a.llmMaxRetries = n })
}

// WithLimits overrides the per-evaluation wall-clock/operation-count
// budget the sandbox interpreter enforces (spec §5 "Cancellation and
// timeouts").
func WithLimits(l eval.Limits) Option {
	return optionFunc(func(a *Agent) { a.evalLimits = l })
}

// WithSubAgent binds namespace to a different Agent's task loop, so a
// task-decorated function by that name dispatches to sub's registry and
// LLM client instead of this Agent's own (spec §5 "Multi-agent
// concurrency").
func WithSubAgent(namespace string, sub *Agent) Option {
	return optionFunc(func(a *Agent) { a.subAgents[namespace] = sub })
}
