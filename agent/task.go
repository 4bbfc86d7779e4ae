// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	deepcopy "github.com/tiendc/go-deepcopy"

	"github.com/agexrun/agex/state"
)

// Task is a typed entry point `(args) -> Out` (spec §2 "A task is a typed
// entry point"). Each Task is bound to the Agent whose loop drives it;
// the same Agent may expose several Tasks under different names.
type Task[In, Out any] struct {
	Name  string
	Agent *Agent

	schema map[string]any
}

// NewTask builds a Task bound to agent. The expected result's JSON Schema
// is generated once at construction (via invopop/jsonschema, reflecting
// over Out) and folded into the rendered primer so the model sees the
// declared return shape without the task loop needing its own schema
// validator.
func NewTask[In, Out any](name string, agent *Agent) *Task[In, Out] {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: false,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	var zero Out
	schemaMap := map[string]any{}
	if raw, err := json.Marshal(reflector.Reflect(&zero)); err == nil {
		_ = json.Unmarshal(raw, &schemaMap)
	}
	return &Task[In, Out]{Name: name, Agent: agent, schema: schemaMap}
}

// ValidationError reports a task_success value that failed the declared
// Out type check (spec §7 "Validation errors").
type ValidationError struct {
	Task string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %q: result failed validation: %v", e.Task, e.Err)
}
func (e *ValidationError) Unwrap() error { return e.Err }

// RunOptions carries the optional state/event-handler knobs spec §6's
// task surface exposes: `(args..., state?=None, on_event?=handler) -> T`.
type RunOptions struct {
	state   state.State
	onEvent func(state.Event)
}

type RunOption interface{ apply(*RunOptions) }

type runOptionFunc func(*RunOptions)

func (f runOptionFunc) apply(o *RunOptions) { f(o) }

// WithState supplies the state the task reads/writes. Its concrete type
// decides snapshot ownership (spec §4.5 "State ownership rules").
func WithState(s state.State) RunOption {
	return runOptionFunc(func(o *RunOptions) { o.state = s })
}

// WithEventHandler is called for each event the task loop emits, the
// incremental-observation half of the `.stream(...)` surface (spec §6).
func WithEventHandler(fn func(state.Event)) RunOption {
	return runOptionFunc(func(o *RunOptions) { o.onEvent = fn })
}

// Run deep-copies args into a fresh inputs record, binds it under the
// task's namespace, drives the loop, and validates the TaskSuccess result
// against Out before returning it (spec §4.5 "Pre-invocation", §7
// "Validation errors").
func (t *Task[In, Out]) Run(ctx context.Context, args In, opts ...RunOption) (Out, error) {
	var zero Out
	ro := &RunOptions{}
	for _, o := range opts {
		o.apply(ro)
	}

	var copied In
	if err := deepcopy.Copy(&copied, &args); err != nil {
		return zero, fmt.Errorf("task %q: deep-copy arguments: %w", t.Name, err)
	}

	outType := reflect.TypeOf(&zero).Elem()

	store, owned := t.adoptState(ro.state)
	store.Set("inputs", toGuestValue(copied))
	store.Set("__expected_return_type__", outType.String())

	result, err := t.Agent.runLoop(ctx, t.Name, t.docstring(), store, owned, true, ro.onEvent)
	if err != nil {
		return zero, err
	}

	outVal, err := fromGuestValue(result, outType)
	if err != nil {
		return zero, &ValidationError{Task: t.Name, Err: err}
	}
	return outVal.Interface().(Out), nil
}

// adoptState implements spec §3's task-invocation lifecycle rules: nil
// gets a fresh Ephemeral the loop never snapshots; a Versioned is wrapped
// in a Namespaced under the agent's name and the loop owns its snapshots;
// a Namespaced is used as-is and the caller keeps snapshot responsibility.
func (t *Task[In, Out]) adoptState(s state.State) (state.State, *state.Versioned) {
	switch v := s.(type) {
	case nil:
		return state.NewEphemeral(), nil
	case *state.Versioned:
		return state.NewNamespaced(v, t.Agent.Name), v
	case *state.Namespaced:
		return v, nil
	default:
		return v, nil
	}
}

func (t *Task[In, Out]) docstring() string {
	if len(t.schema) == 0 {
		return ""
	}
	return fmt.Sprintf("Expected result shape for task_success (JSON Schema): %v", t.schema)
}
