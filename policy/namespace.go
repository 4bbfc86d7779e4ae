// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy implements a capability registry: for every name lookup,
// attribute access, and import the evaluator performs, Policy decides
// whether it is permitted and, for the renderer, how visible it should be.
//
// Go has no runtime reflection over its own packages, so a module
// namespace here is built from an explicit registration table rather than
// introspection of a real Go package. Class and instance namespaces do use
// [reflect] against registered Go types/values, since those are concrete
// runtime values the host controls.
package policy

// MemberSpec is a per-member override: a namespace's docstring, prompt
// visibility, and (for classes) whether construction is exposed.
type MemberSpec struct {
	Visibility    Visibility
	Docstring     string
	Constructable bool
}

// MemberOption configures a MemberSpec.
type MemberOption func(*MemberSpec)

// Visible sets the member's rendering visibility.
func Visible(v Visibility) MemberOption {
	return func(s *MemberSpec) { s.Visibility = v }
}

// Doc sets the member's docstring, used when rendered at High visibility.
func Doc(doc string) MemberOption {
	return func(s *MemberSpec) { s.Docstring = doc }
}

// Constructable controls whether a class's constructor is exposed to the
// sandbox.
func Constructable(b bool) MemberOption {
	return func(s *MemberSpec) { s.Constructable = b }
}

func newSpec(opts ...MemberOption) MemberSpec {
	s := MemberSpec{Visibility: Medium, Constructable: true}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// NameBinding is what [Registry.ResolveName] returns for a free identifier.
// It is a closed sum type over the variants below; use a type switch to
// discriminate.
type NameBinding interface {
	isNameBinding()
}

// BuiltinValue is a plain host value bound directly into the sandbox's
// global namespace (e.g. a registered constant).
type BuiltinValue struct {
	Value any
	Spec  MemberSpec
}

func (BuiltinValue) isNameBinding() {}

// BoundFunction is a top-level function namespace entry (the implicit
// namespace of free functions registered directly on a Registry).
type BoundFunction struct {
	Entry *FunctionEntry
}

func (BoundFunction) isNameBinding() {}

// BoundClass is a top-level class namespace entry.
type BoundClass struct {
	Entry *ClassEntry
}

func (BoundClass) isNameBinding() {}

// BoundInstance is a top-level instance namespace entry (a live registered
// host object reachable by name).
type BoundInstance struct {
	Entry *InstanceEntry
}

func (BoundInstance) isNameBinding() {}

// BoundModule is a top-level module namespace entry.
type BoundModule struct {
	Entry *ModuleEntry
}

func (BoundModule) isNameBinding() {}

// Resolved is what [Registry.ResolveModuleMember] returns for a dotted
// member path reached through a module.
type Resolved interface {
	isResolved()
}

// ResolvedFunction is a function member resolved from a module.
type ResolvedFunction struct {
	Entry *FunctionEntry
}

func (ResolvedFunction) isResolved() {}

// ResolvedClass is a class member resolved from a module.
type ResolvedClass struct {
	Entry *ClassEntry
}

func (ResolvedClass) isResolved() {}

// ResolvedConstant is a plain value member resolved from a module.
type ResolvedConstant struct {
	Value any
	Spec  MemberSpec
}

func (ResolvedConstant) isResolved() {}

// ResolvedModule is a submodule resolved from a recursive module: attribute
// access that resolves to a submodule produces a derived dotted name rooted
// at the parent module.
type ResolvedModule struct {
	Entry *ModuleEntry
}

func (ResolvedModule) isResolved() {}

// describable is implemented by every namespace kind so the renderer and
// the fingerprint pass can walk them uniformly.
type describable interface {
	// describableName is the namespace's registered name.
	describableName() string
	// visibility is this namespace's own declared visibility (pre-promotion).
	visibility() Visibility
}
