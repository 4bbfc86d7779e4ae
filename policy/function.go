// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "reflect"

// FunctionEntry is a single registered host callable with its spec. It
// backs both the top-level namespace and function members reached through
// a module.
type FunctionEntry struct {
	Name      string
	Fn        any
	Spec      MemberSpec
	Signature string // rendered parameter list, e.g. "(x: int, y: int) -> int"
}

func (e *FunctionEntry) describableName() string { return e.Name }
func (e *FunctionEntry) visibility() Visibility   { return e.Spec.Visibility }

// Call invokes the wrapped Go function via reflection, converting sandbox
// argument values positionally. It does not perform sandbox-to-host type
// coercion beyond what [reflect.Value.Call] allows directly assignable;
// the evaluator's call dispatcher (eval/calls.go) is responsible for
// adapting sandbox Values into the expected Go argument types before
// invoking this.
func (e *FunctionEntry) Call(args []reflect.Value) ([]reflect.Value, error) {
	v := reflect.ValueOf(e.Fn)
	if v.Kind() != reflect.Func {
		return nil, &NotCallableError{Name: e.Name}
	}
	return v.Call(args), nil
}

// NotCallableError is returned when a registered entry is not a Go func.
type NotCallableError struct{ Name string }

func (e *NotCallableError) Error() string {
	return "policy: " + e.Name + " is not callable"
}

// NewFunction registers a bare function entry; used directly for
// `"__main__"` registrations and internally by module/class registration.
func NewFunction(name string, fn any, opts ...MemberOption) *FunctionEntry {
	return &FunctionEntry{Name: name, Fn: fn, Spec: newSpec(opts...)}
}

// WithSignature attaches a rendered signature string, used by the renderer
// instead of deriving one via reflection (host functions rarely carry
// parameter names reflect can recover).
func (e *FunctionEntry) WithSignature(sig string) *FunctionEntry {
	e.Signature = sig
	return e
}
