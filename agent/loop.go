// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agexrun/agex/eval"
	"github.com/agexrun/agex/llm"
	"github.com/agexrun/agex/render"
	"github.com/agexrun/agex/state"
)

// contextBudgetFraction is the share of the model's context window given
// to the per-iteration rendered message (state diffs + stdout); the rest
// is left for the system message and prior conversation turns.
const contextBudgetFraction = 3

var _ eval.TaskRunner = (*Agent)(nil)

// runLoop drives one task invocation to a terminal signal or
// max_iterations exhaustion (spec §4.5). store is the namespace the loop
// reads/writes; ownedVersioned is non-nil only when the loop itself is
// responsible for snapshotting (spec's "state ownership rules").
func (a *Agent) runLoop(ctx context.Context, namespace, docstring string, store state.State, ownedVersioned *state.Versioned, topLevel bool, onEvent func(state.Event)) (eval.Value, error) {
	notify := func(ev state.Event) {
		if onEvent != nil {
			onEvent(ev)
		}
	}
	started := time.Now()
	agentPrimer := a.Primer
	if docstring != "" {
		agentPrimer = strings.TrimSpace(agentPrimer + "\n\nTask \"" + namespace + "\":\n" + docstring)
	}

	if len(conversationLog(store)) == 0 {
		appendMessage(store, llm.TextMessage(llm.RoleSystem, render.System(a.Registry, agentPrimer)))
	}

	hostObjects := a.Registry.HostObjects().Snapshot()

	for iter := 0; iter < a.maxIterations; iter++ {
		a.metrics.iterations.WithLabelValues(a.Name).Inc()
		iterCtx, span := a.tracer.Start(ctx, "agex.task.iteration", trace.WithAttributes(
			attribute.String("agex.namespace", namespace),
			attribute.Int("agex.iteration", iter),
		))

		completion, err := a.completeWithRetry(iterCtx, conversationLog(store))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			a.metrics.outcomes.WithLabelValues(a.Name, "llm_fail").Inc()
			return nil, err
		}
		span.End()

		appendMessage(store, llm.TextMessage(llm.RoleAssistant, fmt.Sprintf("%s\n\n%s", completion.Thinking, completion.Code)))
		notify(emitAction(store, completion.Thinking, completion.Code))

		it := eval.NewInterp(a.Registry, store, hostObjects, a, a.evalLimits)
		program, perr := eval.Parse(completion.Code)
		var runErr error
		if perr != nil {
			runErr = perr
		} else {
			runErr = it.Run(program)
		}

		switch sig := runErr.(type) {
		case nil:
			a.closeIteration(store, it.Stdout(), ownedVersioned)

		case *eval.TaskSuccess:
			notify(emitSuccess(store, eval.Repr(sig.Result)))
			a.metrics.outcomes.WithLabelValues(a.Name, "success").Inc()
			a.snapshotIfOwned(store, ownedVersioned)
			a.metrics.duration.WithLabelValues(a.Name).Observe(time.Since(started).Seconds())
			return sig.Result, nil

		case *eval.TaskContinue:
			stdout := it.Stdout()
			if sig.Note != "" {
				stdout = strings.TrimSpace(stdout + "\nnote: " + sig.Note)
			}
			a.closeIteration(store, stdout, ownedVersioned)

		case *eval.TaskFail:
			if topLevel {
				notify(emitError(store, sig.Message, false))
				a.metrics.outcomes.WithLabelValues(a.Name, "fail").Inc()
				a.snapshotIfOwned(store, ownedVersioned)
				return nil, sig
			}
			a.snapshotIfOwned(store, ownedVersioned)
			return nil, sig

		case *eval.TaskClarify:
			if topLevel {
				notify(emitError(store, sig.Message, false))
				a.metrics.outcomes.WithLabelValues(a.Name, "clarify").Inc()
				a.snapshotIfOwned(store, ownedVersioned)
				return nil, sig
			}
			a.snapshotIfOwned(store, ownedVersioned)
			return nil, sig

		default:
			msg := runErr.Error()
			notify(emitError(store, msg, true))
			a.closeIteration(store, it.Stdout()+"\nEvaluation error: "+msg, ownedVersioned)
		}
	}
	a.metrics.outcomes.WithLabelValues(a.Name, "timeout").Inc()
	return nil, &TaskTimeout{Namespace: namespace, Iterations: a.maxIterations}
}

// closeIteration renders the next context message from this iteration's
// stdout/diffs, appends it to the conversation log, and snapshots if the
// loop owns the backing Versioned store (spec §4.5 steps 6-7).
func (a *Agent) closeIteration(store state.State, stdout string, ownedVersioned *state.Versioned) {
	diffs := map[string]any{}
	if ownedVersioned != nil {
		diffs, _ = ownedVersioned.Diffs("")
	}
	budget := a.Client.ContextWindow() / contextBudgetFraction
	msg := render.Context(a.Client, diffs, nil, stdout, budget)
	if msg != "" {
		appendMessage(store, llm.TextMessage(llm.RoleUser, msg))
	}
	a.snapshotIfOwned(store, ownedVersioned)
}

func (a *Agent) snapshotIfOwned(store state.State, ownedVersioned *state.Versioned) {
	if ownedVersioned == nil {
		return
	}
	result := ownedVersioned.Snapshot()
	if len(result.UnsavedKeys) > 0 {
		appendMessage(store, llm.TextMessage(llm.RoleUser, "Warning: could not persist keys: "+strings.Join(result.UnsavedKeys, ", ")))
	}
}

// completeWithRetry calls the LLM client with bounded retry-and-backoff on
// transport failure, exhausting into LLMFail (spec §4.5 step 3, §7 "LLM
// errors").
func (a *Agent) completeWithRetry(ctx context.Context, messages []llm.Message) (llm.LLMResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= a.llmMaxRetries; attempt++ {
		if attempt > 0 {
			a.metrics.llmRetries.WithLabelValues(a.Name).Inc()
			select {
			case <-ctx.Done():
				return llm.LLMResponse{}, ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}
		resp, err := a.Client.Complete(ctx, messages, llm.CompleteOptions{})
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return llm.LLMResponse{}, &llm.ErrLLMFail{Attempts: a.llmMaxRetries + 1, Err: lastErr}
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 250 * time.Millisecond
	if d > 5*time.Second {
		return 5 * time.Second
	}
	return d
}

// RunTask implements eval.TaskRunner: dispatch from a guest call into a
// @task-decorated function routes here instead of executing a body (task
// functions declare an empty body; their behavior is this loop).
func (a *Agent) RunTask(it *eval.Interp, namespace, docstring string, params []eval.Param, args []eval.Value, kwargs map[string]eval.Value) (eval.Value, error) {
	sub := a
	if s, ok := a.subAgents[namespace]; ok {
		sub = s
	}

	parent := it.Store()
	var child state.State
	if ns, ok := parent.(*state.Namespaced); ok {
		child = ns.Namespace(namespace)
	} else {
		child = state.NewNamespaced(parent.BaseStore(), namespace)
	}
	child.Set("inputs", bindInputs(params, args, kwargs))

	result, err := sub.runLoop(context.Background(), namespace, docstring, child, nil, false, nil)
	if err == nil {
		return result, nil
	}

	// Sub-agent TaskFail/TaskClarify/TaskTimeout/LLMFail never propagate as
	// a sandbox exception: they become a recoverable stdout line in the
	// parent's namespace, and the call itself evaluates to None (spec §4.1
	// "Sub-agent dispatch", §7 "Sub-agent signal conversion").
	switch e := err.(type) {
	case *eval.TaskFail:
		it.AppendStdout("Sub-agent failed: " + e.Message)
		return nil, nil
	case *eval.TaskClarify:
		it.AppendStdout("Sub-agent needs clarification: " + e.Message)
		return nil, nil
	case *TaskTimeout:
		it.AppendStdout("Sub-agent timed out: " + e.Error())
		return nil, nil
	case *llm.ErrLLMFail:
		it.AppendStdout("Sub-agent LLM failure: " + e.Error())
		return nil, nil
	default:
		return nil, err
	}
}
