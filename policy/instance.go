// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"reflect"
	"sync"
)

// InstanceEntry wraps a live host object, stored by name in the per-process
// [HostObjectRegistry]. Unlike [ClassEntry], an instance namespace may
// declare exception mappings that translate domain errors raised by its
// methods into sandbox-visible exception kinds.
type InstanceEntry struct {
	Name    string
	Type    reflect.Type
	Spec    MemberSpec
	include Pattern
	exclude Pattern

	overrides map[string]MemberSpec
	// exceptionMappings translates a host error (identified by its dynamic
	// type) to a sandbox exception kind name (e.g. "ValueError").
	exceptionMappings map[reflect.Type]string
}

func (i *InstanceEntry) describableName() string { return i.Name }
func (i *InstanceEntry) visibility() Visibility   { return i.Spec.Visibility }

// NewInstance registers an instance namespace over the live value obj,
// which must already be stored under name in a [HostObjectRegistry].
func NewInstance(name string, obj any, opts ...MemberOption) *InstanceEntry {
	return &InstanceEntry{
		Name:              name,
		Type:              reflect.TypeOf(obj),
		Spec:              newSpec(opts...),
		include:           All,
		exclude:           None,
		overrides:         map[string]MemberSpec{},
		exceptionMappings: map[reflect.Type]string{},
	}
}

// Include restricts visible members to those matching p.
func (i *InstanceEntry) Include(p Pattern) *InstanceEntry {
	i.include = p
	return i
}

// Exclude hides members matching p even if Include would select them.
func (i *InstanceEntry) Exclude(p Pattern) *InstanceEntry {
	i.exclude = p
	return i
}

// Member overrides the spec for a single named method or property.
func (i *InstanceEntry) Member(name string, opts ...MemberOption) *InstanceEntry {
	i.overrides[name] = newSpec(opts...)
	return i
}

// MapException registers a translation from a host error type to a sandbox
// exception kind name, so `try/except` in agent code can catch the
// instance's domain errors.
func (i *InstanceEntry) MapException(errType reflect.Type, sandboxKind string) *InstanceEntry {
	i.exceptionMappings[errType] = sandboxKind
	return i
}

// TranslateException returns the sandbox exception kind registered for
// err's dynamic type, or "" if none is mapped.
func (i *InstanceEntry) TranslateException(err error) string {
	if err == nil {
		return ""
	}
	t := reflect.TypeOf(err)
	for t != nil {
		if kind, ok := i.exceptionMappings[t]; ok {
			return kind
		}
		break
	}
	return ""
}

func (i *InstanceEntry) selected(name string) bool {
	return i.include.Match(name) && !i.exclude.Match(name)
}

// AttributeAllowed reports whether attr may be read off this instance.
func (i *InstanceEntry) AttributeAllowed(attr string) bool {
	return i.selected(attr)
}

// MemberSpecFor returns the effective spec for a member name.
func (i *InstanceEntry) MemberSpecFor(name string) MemberSpec {
	if s, ok := i.overrides[name]; ok {
		return s
	}
	return MemberSpec{Visibility: i.Spec.Visibility}
}

// HostObjectRegistry is the per-process table of live registered objects
// that instance namespaces reference by name. It is not persisted:
// registered instances are process-local capability tokens, never
// serialized into state.
type HostObjectRegistry struct {
	mu      sync.RWMutex
	objects map[string]any
}

// NewHostObjectRegistry creates an empty registry.
func NewHostObjectRegistry() *HostObjectRegistry {
	return &HostObjectRegistry{objects: map[string]any{}}
}

// Register stores obj under name, returning an error if name is taken.
func (r *HostObjectRegistry) Register(name string, obj any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[name]; exists {
		return &NameCollisionError{Name: name}
	}
	r.objects[name] = obj
	return nil
}

// Lookup returns the object registered under name.
func (r *HostObjectRegistry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	return obj, ok
}

// Snapshot returns a copy of every registered (name, object) pair, the
// shape eval.NewInterp wants for its hostObjects argument.
func (r *HostObjectRegistry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.objects))
	for k, v := range r.objects {
		out[k] = v
	}
	return out
}

// NameCollisionError is returned when a registration name is already taken.
type NameCollisionError struct{ Name string }

func (e *NameCollisionError) Error() string {
	return "policy: name already registered: " + e.Name
}
