// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"reflect"
	"strings"
)

// ClassEntry wraps a registered Go type, exposing its exported methods and
// fields by include/exclude pattern. ClassEntry is also how
// [Registry.AttributeAllowed] judges attribute
// reads on arbitrary host values of a registered type that flow through
// the sandbox without ever being bound under a top-level name (e.g. a
// struct value returned from a registered function call).
type ClassEntry struct {
	Name    string
	Type    reflect.Type // the underlying Go type (struct or pointer-to-struct)
	Spec    MemberSpec
	New     any // optional constructor func; nil if not Constructable
	include Pattern
	exclude Pattern
	// overrides holds a MemberSpec per method/field name, consulted by the
	// renderer for docstrings and per-member visibility.
	overrides map[string]MemberSpec
}

func (c *ClassEntry) describableName() string { return c.Name }
func (c *ClassEntry) visibility() Visibility   { return c.Spec.Visibility }

// NewClass registers a class namespace over the Go type of zero.
func NewClass(name string, zero any, opts ...MemberOption) *ClassEntry {
	t := reflect.TypeOf(zero)
	return &ClassEntry{
		Name:      name,
		Type:      t,
		Spec:      newSpec(opts...),
		include:   All,
		exclude:   None,
		overrides: map[string]MemberSpec{},
	}
}

// WithConstructor registers the function used to build new instances when
// the sandbox calls the class as a constructor.
func (c *ClassEntry) WithConstructor(fn any) *ClassEntry {
	c.New = fn
	return c
}

// Include restricts visible members to those matching p.
func (c *ClassEntry) Include(p Pattern) *ClassEntry {
	c.include = p
	return c
}

// Exclude hides members matching p even if Include would select them.
func (c *ClassEntry) Exclude(p Pattern) *ClassEntry {
	c.exclude = p
	return c
}

// Member overrides the spec for a single named method or field.
func (c *ClassEntry) Member(name string, opts ...MemberOption) *ClassEntry {
	s := newSpec(opts...)
	c.overrides[name] = s
	return c
}

// selected reports whether member name passes this class's include/exclude
// filters.
func (c *ClassEntry) selected(name string) bool {
	if strings.HasPrefix(name, "_") {
		return false // never expose unexported-style/dunder-style names
	}
	return c.include.Match(name) && !c.exclude.Match(name)
}

// MemberNames enumerates the exported method and field names selected by
// this class's include/exclude rule, deduplicated and sorted by the
// caller if order matters (fingerprint.go sorts explicitly).
func (c *ClassEntry) MemberNames() []string {
	seen := map[string]bool{}
	var names []string
	t := c.Type
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() || !c.selected(m.Name) || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		names = append(names, m.Name)
	}
	structType := t
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	if structType.Kind() == reflect.Struct {
		for i := 0; i < structType.NumField(); i++ {
			f := structType.Field(i)
			if !f.IsExported() || !c.selected(f.Name) || seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	return names
}

// MemberSpecFor returns the effective spec for a member name, falling back
// to the class's own default visibility when no override is registered.
func (c *ClassEntry) MemberSpecFor(name string) MemberSpec {
	if s, ok := c.overrides[name]; ok {
		return s
	}
	return MemberSpec{Visibility: c.Spec.Visibility, Constructable: true}
}

// AttributeAllowed reports whether attr may be read off a host value of
// this class's type.
func (c *ClassEntry) AttributeAllowed(attr string) bool {
	return c.selected(attr)
}
