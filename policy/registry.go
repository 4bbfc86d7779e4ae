// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"reflect"
	"strings"
	"sync"
)

// Registry is the capability registry an [Agent] carries: the answer to
// every `resolve_name`, `resolve_module_member`, and `attribute_allowed`
// query the evaluator issues. A zero Registry is not usable; construct one
// with [New].
type Registry struct {
	mu sync.RWMutex

	functions map[string]*FunctionEntry
	classes   map[string]*ClassEntry
	instances map[string]*InstanceEntry
	modules   map[string]*ModuleEntry
	consts    map[string]BuiltinValue

	// classesByType lets AttributeAllowed judge attribute reads on host
	// values of a registered type that were never bound under a top-level
	// name (e.g. values returned from a registered function call).
	classesByType map[reflect.Type]*ClassEntry

	hostObjects *HostObjectRegistry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		functions:     map[string]*FunctionEntry{},
		classes:       map[string]*ClassEntry{},
		instances:     map[string]*InstanceEntry{},
		modules:       map[string]*ModuleEntry{},
		consts:        map[string]BuiltinValue{},
		classesByType: map[reflect.Type]*ClassEntry{},
		hostObjects:   NewHostObjectRegistry(),
	}
}

func (r *Registry) taken(name string) bool {
	_, f := r.functions[name]
	_, c := r.classes[name]
	_, i := r.instances[name]
	_, m := r.modules[name]
	_, k := r.consts[name]
	return f || c || i || m || k
}

// RegisterFunc registers a top-level ("__main__") function.
func (r *Registry) RegisterFunc(name string, fn any, opts ...MemberOption) (*FunctionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(name) {
		return nil, &NameCollisionError{Name: name}
	}
	entry := NewFunction(name, fn, opts...)
	r.functions[name] = entry
	return entry, nil
}

// RegisterConst registers a top-level constant value.
func (r *Registry) RegisterConst(name string, value any, opts ...MemberOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(name) {
		return &NameCollisionError{Name: name}
	}
	r.consts[name] = BuiltinValue{Value: value, Spec: newSpec(opts...)}
	return nil
}

// RegisterClass registers a top-level class namespace over the Go type of
// zero, also indexing it by reflect.Type so instances of this type
// returned from anywhere in the sandbox are attribute-gated the same way.
func (r *Registry) RegisterClass(name string, zero any, opts ...MemberOption) (*ClassEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(name) {
		return nil, &NameCollisionError{Name: name}
	}
	entry := NewClass(name, zero, opts...)
	r.classes[name] = entry
	r.classesByType[entry.Type] = entry
	return entry, nil
}

// RegisterInstance registers a top-level instance namespace over a live
// object, storing the object itself in the process-global host object
// registry under name.
func (r *Registry) RegisterInstance(name string, obj any, opts ...MemberOption) (*InstanceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(name) {
		return nil, &NameCollisionError{Name: name}
	}
	if err := r.hostObjects.Register(name, obj); err != nil {
		return nil, err
	}
	entry := NewInstance(name, obj, opts...)
	r.instances[name] = entry
	return entry, nil
}

// RegisterModule registers a top-level module namespace built with
// [NewModule] and its builder methods.
func (r *Registry) RegisterModule(entry *ModuleEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(entry.Name) {
		return &NameCollisionError{Name: entry.Name}
	}
	r.modules[entry.Name] = entry
	return nil
}

// HostObjects returns the process-local registry of live registered
// instances.
func (r *Registry) HostObjects() *HostObjectRegistry {
	return r.hostObjects
}

// ResolveName resolves a free identifier against every registered
// namespace: functions, classes, instances, modules, and constants.
func (r *Registry) ResolveName(name string) (NameBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.functions[name]; ok {
		return BoundFunction{Entry: fn}, true
	}
	if c, ok := r.classes[name]; ok {
		return BoundClass{Entry: c}, true
	}
	if i, ok := r.instances[name]; ok {
		return BoundInstance{Entry: i}, true
	}
	if m, ok := r.modules[name]; ok {
		return BoundModule{Entry: m}, true
	}
	if k, ok := r.consts[name]; ok {
		return k, true
	}
	return nil, false
}

// ResolveModuleMember resolves a member of a registered top-level module.
// member may be dotted (e.g. "sub.Func") to reach through recursive
// submodules.
func (r *Registry) ResolveModuleMember(moduleName, member string) (Resolved, bool) {
	r.mu.RLock()
	mod, ok := r.modules[moduleName]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return resolveDotted(mod, member)
}

func resolveDotted(mod *ModuleEntry, member string) (Resolved, bool) {
	parts := strings.Split(member, ".")
	for i, part := range parts {
		last := i == len(parts)-1
		resolved, ok := mod.Member(part)
		if !ok {
			return nil, false
		}
		if last {
			return resolved, true
		}
		sub, ok := resolved.(ResolvedModule)
		if !ok {
			return nil, false // intermediate segment isn't a module; can't descend further
		}
		mod = sub.Entry
	}
	return nil, false
}

// AttributeAllowed judges attribute reads on host values of a registered
// class type that were never bound under a top-level name. The builtin
// container/scalar whitelist for the evaluator's own Value variants lives
// in package eval, not here.
func (r *Registry) AttributeAllowed(hostValue any, attr string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := reflect.TypeOf(hostValue)
	entry, ok := r.classesByType[t]
	if !ok {
		return false
	}
	return entry.AttributeAllowed(attr)
}

// ClassForType returns the registered ClassEntry for a host value's Go
// type, if any, so callers (the evaluator's attribute dispatcher) can also
// read the effective MemberSpec when rendering errors or docs.
func (r *Registry) ClassForType(hostValue any) (*ClassEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.classesByType[reflect.TypeOf(hostValue)]
	return entry, ok
}

// InstanceByName returns the registered InstanceEntry, if any.
func (r *Registry) InstanceByName(name string) (*InstanceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.instances[name]
	return e, ok
}

// Functions, Classes, Instances, Modules, Consts return snapshots of the
// registry's top-level namespaces, used by the renderer and the
// fingerprint pass. Returned maps are copies; mutating them has no effect
// on the registry.
func (r *Registry) Functions() map[string]*FunctionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneMap(r.functions)
}

func (r *Registry) Classes() map[string]*ClassEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneMap(r.classes)
}

func (r *Registry) Instances() map[string]*InstanceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneMap(r.instances)
}

func (r *Registry) Modules() map[string]*ModuleEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneMap(r.modules)
}

func (r *Registry) Consts() map[string]BuiltinValue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]BuiltinValue, len(r.consts))
	for k, v := range r.consts {
		out[k] = v
	}
	return out
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
