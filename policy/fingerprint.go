// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint computes a deterministic identity hash: a SHA-256 over
// {primer, sorted functions, sorted constants, sorted classes with members,
// sorted instances with member overrides, sorted modules with nested
// classes/members}. Host callable bodies are never hashed —
// identity is by declared surface only, so two registries with identical
// primer text and capability surface produce the same fingerprint even if
// the Go functions backing them differ.
func Fingerprint(primer string, r *Registry) string {
	var b strings.Builder
	b.WriteString("primer:")
	b.WriteString(primer)
	b.WriteString("\n")

	writeFunctions(&b, "main.fn", r.Functions())
	writeConsts(&b, "main.const", r.Consts())
	writeClasses(&b, "main.class", r.Classes())
	writeInstances(&b, "main.instance", r.Instances())
	writeModules(&b, "main.module", r.Modules())

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeFunctions(b *strings.Builder, prefix string, fns map[string]*FunctionEntry) {
	names := sortedKeys(fns)
	for _, name := range names {
		fn := fns[name]
		fmt.Fprintf(b, "%s:%s:%s\n", prefix, name, specString(fn.Spec))
	}
}

func writeConsts(b *strings.Builder, prefix string, consts map[string]BuiltinValue) {
	names := sortedKeys(consts)
	for _, name := range names {
		fmt.Fprintf(b, "%s:%s:%s\n", prefix, name, specString(consts[name].Spec))
	}
}

func writeClasses(b *strings.Builder, prefix string, classes map[string]*ClassEntry) {
	names := sortedKeys(classes)
	for _, name := range names {
		c := classes[name]
		fmt.Fprintf(b, "%s:%s:%s\n", prefix, name, specString(c.Spec))
		members := c.MemberNames()
		sort.Strings(members)
		for _, m := range members {
			fmt.Fprintf(b, "%s.%s.member:%s:%s\n", prefix, name, m, specString(c.MemberSpecFor(m)))
		}
	}
}

func writeInstances(b *strings.Builder, prefix string, instances map[string]*InstanceEntry) {
	names := sortedKeys(instances)
	for _, name := range names {
		i := instances[name]
		fmt.Fprintf(b, "%s:%s:%s\n", prefix, name, specString(i.Spec))
		members := sortedKeys(i.overrides)
		for _, m := range members {
			fmt.Fprintf(b, "%s.%s.member:%s:%s\n", prefix, name, m, specString(i.overrides[m]))
		}
	}
}

func writeModules(b *strings.Builder, prefix string, modules map[string]*ModuleEntry) {
	names := sortedKeys(modules)
	for _, name := range names {
		writeModule(b, prefix, name, modules[name])
	}
}

func writeModule(b *strings.Builder, prefix, name string, m *ModuleEntry) {
	path := prefix + "." + name
	fmt.Fprintf(b, "%s:recursive=%v:%s\n", path, m.Recursive, specString(m.Spec))
	writeFunctions(b, path+".fn", m.funcs)
	writeConsts(b, path+".const", m.consts)
	writeClasses(b, path+".class", m.classes)
	subs := sortedKeys(m.submodules)
	for _, s := range subs {
		writeModule(b, path+".sub", s, m.submodules[s])
	}
}

func specString(s MemberSpec) string {
	return fmt.Sprintf("vis=%s,doc=%s,ctor=%v", s.Visibility, s.Docstring, s.Constructable)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
