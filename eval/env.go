// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import "github.com/agexrun/agex/state"

// Scope is anywhere a name can be bound and looked up. Module-level code
// runs directly against the namespace's persisted state.State so top-level
// variables survive a snapshot between task-loop iterations; a function
// call runs against a throwaway frame instead, so its locals vanish when
// the call returns.
type Scope interface {
	Get(name string) (Value, bool)
	Set(name string, v Value)
}

// stateScope adapts a state.State namespace to Scope, so module-level
// execution reads and writes directly through the persisted store.
type stateScope struct{ store state.State }

func newStateScope(s state.State) *stateScope { return &stateScope{store: s} }

func (s *stateScope) Get(name string) (Value, bool) { return s.store.Get(name) }
func (s *stateScope) Set(name string, v Value)       { s.store.Set(name, v) }

// closureScope is the live view a function or lambda captures at
// definition time: only the names the body actually references free are
// visible, and a later write to one of those names in the defining scope
// is observed on the next call because lookups happen against the parent
// live, never against a value snapshot. Writes inside the function never
// flow back through a closureScope; the grammar disallows `nonlocal` and
// `global` so that's never observable from guest code anyway.
type closureScope struct {
	parent Scope
	free   map[string]struct{}
}

func newClosureScope(parent Scope, free map[string]struct{}) *closureScope {
	return &closureScope{parent: parent, free: free}
}

func (c *closureScope) Get(name string) (Value, bool) {
	if _, ok := c.free[name]; !ok {
		return nil, false
	}
	return c.parent.Get(name)
}

func (c *closureScope) Set(name string, v Value) {
	// Discarded: a write here would only be reachable via nonlocal, which
	// the parser rejects: it is a reserved keyword (token.go) that no
	// statement rule accepts, so parsing fails with "unexpected token".
}

// frame is a function call's local scope: its own bindings, falling back
// to the closure for names it doesn't bind itself.
type frame struct {
	locals  map[string]Value
	closure Scope
}

func newFrame(closure Scope) *frame {
	return &frame{locals: map[string]Value{}, closure: closure}
}

func (f *frame) Get(name string) (Value, bool) {
	if v, ok := f.locals[name]; ok {
		return v, true
	}
	if f.closure != nil {
		return f.closure.Get(name)
	}
	return nil, false
}

func (f *frame) Set(name string, v Value) { f.locals[name] = v }
