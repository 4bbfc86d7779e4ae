// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package state

import "strings"

// Namespaced is a view over a parent [State] where every logical key is
// transparently prefixed with a dotted path. Two Namespaced views over
// disjoint prefixes never see each other's keys even though they share the
// same underlying store.
type Namespaced struct {
	parent State
	prefix string // dotted path, no trailing separator, "" for the root
}

var _ State = (*Namespaced)(nil)

// NewNamespaced creates a view rooted at prefix ("" is the parent's own
// root) over parent.
func NewNamespaced(parent State, prefix string) *Namespaced {
	return &Namespaced{parent: parent, prefix: prefix}
}

// Namespace returns a child view one level deeper, composing this view's
// prefix with name.
func (n *Namespaced) Namespace(name string) *Namespaced {
	return &Namespaced{parent: n.parent, prefix: n.qualify(name)}
}

func (n *Namespaced) qualify(key string) string {
	if n.prefix == "" {
		return key
	}
	return n.prefix + "." + key
}

func (n *Namespaced) unqualify(key string) (string, bool) {
	if n.prefix == "" {
		if strings.Contains(key, ".") {
			return "", false
		}
		return key, true
	}
	trimmed := strings.TrimPrefix(key, n.prefix+".")
	if trimmed == key {
		return "", false
	}
	if strings.Contains(trimmed, ".") {
		return "", false
	}
	return trimmed, true
}

func (n *Namespaced) Get(key string) (any, bool) {
	return n.parent.Get(n.qualify(key))
}

func (n *Namespaced) Set(key string, value any) {
	n.parent.Set(n.qualify(key), value)
}

func (n *Namespaced) Remove(key string) bool {
	return n.parent.Remove(n.qualify(key))
}

// Keys returns only the direct children of this namespace: keys with
// exactly one more path segment than the namespace's own prefix.
// DescendantKeys returns every key at or below this namespace instead.
func (n *Namespaced) Keys() []string {
	var out []string
	for _, k := range n.parent.Keys() {
		if local, ok := n.unqualify(k); ok {
			out = append(out, local)
		}
	}
	return out
}

// DescendantKeys returns every logical key nested anywhere under this
// namespace's prefix, dotted-path relative to it.
func (n *Namespaced) DescendantKeys() []string {
	var out []string
	all := n.parent.Keys()
	prefix := n.prefix
	for _, k := range all {
		if prefix == "" {
			out = append(out, k)
			continue
		}
		if strings.HasPrefix(k, prefix+".") {
			out = append(out, strings.TrimPrefix(k, prefix+"."))
		}
	}
	return out
}

func (n *Namespaced) Values() []any {
	keys := n.Keys()
	vals := make([]any, 0, len(keys))
	for _, k := range keys {
		v, _ := n.Get(k)
		vals = append(vals, v)
	}
	return vals
}

func (n *Namespaced) Items() map[string]any {
	keys := n.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k], _ = n.Get(k)
	}
	return out
}

func (n *Namespaced) Contains(key string) bool {
	return n.parent.Contains(n.qualify(key))
}

func (n *Namespaced) BaseStore() State { return n.parent.BaseStore() }
