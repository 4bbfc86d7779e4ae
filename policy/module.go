// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

// ModuleEntry wraps a host module namespace. Since Go has no live
// reflectable package objects, a ModuleEntry is built from an explicit
// registration table: the host lists the functions, constants, classes,
// and (if Recursive) submodules it wants reachable, each with its own
// [MemberSpec].
type ModuleEntry struct {
	Name      string
	Spec      MemberSpec
	Recursive bool

	funcs      map[string]*FunctionEntry
	consts     map[string]ResolvedConstant
	classes    map[string]*ClassEntry
	submodules map[string]*ModuleEntry

	include Pattern
	exclude Pattern
}

func (m *ModuleEntry) describableName() string { return m.Name }
func (m *ModuleEntry) visibility() Visibility   { return m.Spec.Visibility }

// NewModule registers an empty module namespace under name.
func NewModule(name string, opts ...MemberOption) *ModuleEntry {
	return &ModuleEntry{
		Name:       name,
		Spec:       newSpec(opts...),
		funcs:      map[string]*FunctionEntry{},
		consts:     map[string]ResolvedConstant{},
		classes:    map[string]*ClassEntry{},
		submodules: map[string]*ModuleEntry{},
		include:    All,
		exclude:    None,
	}
}

// WithRecursive marks the module so that submodules attached via
// [ModuleEntry.Submodule] are reachable as policy-gated namespaces; a
// non-recursive module exposes none of its submodules, attached or not.
func (m *ModuleEntry) WithRecursive(recursive bool) *ModuleEntry {
	m.Recursive = recursive
	return m
}

// Include restricts visible members to those matching p.
func (m *ModuleEntry) Include(p Pattern) *ModuleEntry {
	m.include = p
	return m
}

// Exclude hides members matching p even if Include would select them.
func (m *ModuleEntry) Exclude(p Pattern) *ModuleEntry {
	m.exclude = p
	return m
}

func (m *ModuleEntry) selected(name string) bool {
	return m.include.Match(name) && !m.exclude.Match(name)
}

// Func registers a callable member.
func (m *ModuleEntry) Func(name string, fn any, opts ...MemberOption) *ModuleEntry {
	m.funcs[name] = NewFunction(name, fn, opts...)
	return m
}

// Const registers a plain-value member.
func (m *ModuleEntry) Const(name string, value any, opts ...MemberOption) *ModuleEntry {
	m.consts[name] = ResolvedConstant{Value: value, Spec: newSpec(opts...)}
	return m
}

// Class registers a class member reachable as `module.ClassName`.
func (m *ModuleEntry) Class(entry *ClassEntry) *ModuleEntry {
	m.classes[entry.Name] = entry
	return m
}

// Submodule attaches a nested module reachable as `module.sub`.
func (m *ModuleEntry) Submodule(entry *ModuleEntry) *ModuleEntry {
	m.submodules[entry.Name] = entry
	return m
}

// Member resolves a single, non-dotted member name within this module,
// honoring include/exclude. It does not recurse into submodules; dotted
// resolution is [Registry.ResolveModuleMember]'s job.
func (m *ModuleEntry) Member(name string) (Resolved, bool) {
	if !m.selected(name) {
		return nil, false
	}
	if fn, ok := m.funcs[name]; ok {
		return ResolvedFunction{Entry: fn}, true
	}
	if c, ok := m.consts[name]; ok {
		return ResolvedConstant(c), true
	}
	if cls, ok := m.classes[name]; ok {
		return ResolvedClass{Entry: cls}, true
	}
	if sub, ok := m.submodules[name]; ok {
		if !m.Recursive {
			return nil, false
		}
		return ResolvedModule{Entry: sub}, true
	}
	return nil, false
}

// MemberNames enumerates this module's directly registered, selected
// member names (functions, constants, classes, submodules), used by the
// renderer and the fingerprint pass.
func (m *ModuleEntry) MemberNames() []string {
	var names []string
	for name := range m.funcs {
		if m.selected(name) {
			names = append(names, name)
		}
	}
	for name := range m.consts {
		if m.selected(name) {
			names = append(names, name)
		}
	}
	for name := range m.classes {
		if m.selected(name) {
			names = append(names, name)
		}
	}
	for name := range m.submodules {
		if m.selected(name) {
			names = append(names, name)
		}
	}
	return names
}
