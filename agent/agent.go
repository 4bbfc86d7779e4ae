// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the bounded think-act control loop (spec §2,
// §4.5): an Agent is a record of (name, primer text, policy, LLM client
// handle, resource limits); a Task is a typed entry point that drives the
// loop to convergence on a success, failure, clarification, or timeout
// signal.
package agent

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/agexrun/agex/eval"
	"github.com/agexrun/agex/llm"
	"github.com/agexrun/agex/policy"
)

// Agent is the unit spec §2's control-flow diagram drives: a capability
// surface (Registry), an LLM handle (Client), and the resource limits that
// bound a single task invocation.
type Agent struct {
	Name   string
	Primer string

	Registry *policy.Registry
	Client   llm.Client

	// Fingerprint is the deterministic identity hash over (primer, sorted
	// capability surface) — spec §3's "two agents with identical effective
	// capability surface share a fingerprint" invariant.
	Fingerprint string

	maxIterations int
	llmMaxRetries int
	evalLimits    eval.Limits

	// subAgents routes a task-namespace to a different Agent's loop. A
	// namespace with no entry here is serviced by this same Agent
	// recursively, under a child namespace — the default reading of
	// spec §5's "a task may call a sub-agent task" for a single-binary
	// deployment with no separate sub-agent registration step.
	subAgents map[string]*Agent

	metrics *metrics
	tracer  trace.Tracer
}

const (
	defaultMaxIterations = 30
	defaultLLMMaxRetries = 3
)

// New builds and registers an Agent. Registration failure (a name already
// taken by a different *Agent) is returned rather than panicking, per
// spec §5's "name collisions raise an error."
func New(name, primer string, reg *policy.Registry, client llm.Client, opts ...Option) (*Agent, error) {
	a := &Agent{
		Name:          name,
		Primer:        primer,
		Registry:      reg,
		Client:        client,
		Fingerprint:   policy.Fingerprint(primer, reg),
		maxIterations: defaultMaxIterations,
		llmMaxRetries: defaultLLMMaxRetries,
		evalLimits:    eval.DefaultLimits(),
		subAgents:     map[string]*Agent{},
		metrics:       newMetrics(),
		tracer:        otel.Tracer("github.com/agexrun/agex/agent"),
	}
	for _, o := range opts {
		o.apply(a)
	}
	if err := register(a); err != nil {
		return nil, err
	}
	return a, nil
}
