// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Package render turns a Policy registry and the task loop's recent State
// activity into prompt text under a token budget (spec §4.4).
package render

import (
	"fmt"
	"sort"
	"strings"

	heredoc "github.com/MakeNowJust/heredoc/v2"

	"github.com/agexrun/agex/policy"
)

// builtinPrimer is the fixed prose block every system message opens with:
// it describes the task-completion primitives and the per-iteration
// stdout contract so the LLM doesn't need this re-explained in every
// agent's own primer text (spec §6).
var builtinPrimer = heredoc.Doc(`
	You control a Python-like sandbox. Respond with a single JSON object
	shaped {"thinking": "...", "code": "..."}. "code" is executed directly;
	it has no implicit return value, so finish every turn by calling one of:

	  task_success(value)   end the task, returning value
	  task_fail(message)    end the task as failed
	  task_clarify(question) end the task, asking the user a question
	  task_continue(note)   keep the task going into another iteration

	Anything printed via print() during this iteration is shown back to you
	next turn and then discarded; it does not persist across iterations the
	way assigned variables do.
`)

// System builds the static system message: builtin primer, then every
// describable namespace in reg rendered as a Python-like signature block,
// then the agent's own primer text.
func System(reg *policy.Registry, agentPrimer string) string {
	var b strings.Builder
	b.WriteString(builtinPrimer)
	b.WriteString("\n")
	writeFunctions(&b, reg.Functions())
	writeClasses(&b, reg.Classes())
	writeModules(&b, reg.Modules())
	writeInstances(&b, reg.Instances())
	if agentPrimer != "" {
		b.WriteString("\n")
		b.WriteString(agentPrimer)
		b.WriteString("\n")
	}
	return b.String()
}

func writeFunctions(b *strings.Builder, fns map[string]*policy.FunctionEntry) {
	for _, name := range sortedKeys(fns) {
		e := fns[name]
		renderDef(b, "def", name, e.Signature, e.Spec)
	}
}

func writeClasses(b *strings.Builder, classes map[string]*policy.ClassEntry) {
	for _, name := range sortedKeys(classes) {
		c := classes[name]
		vis := c.EffectiveVisibility()
		if vis == policy.Low {
			continue
		}
		fmt.Fprintf(b, "class %s:\n", name)
		if vis == policy.High && c.Spec.Docstring != "" {
			fmt.Fprintf(b, "    \"\"\"%s\"\"\"\n", c.Spec.Docstring)
		}
		for _, m := range c.MemberNames() {
			spec := c.MemberSpecFor(m)
			if spec.Visibility == policy.Low {
				continue
			}
			fmt.Fprintf(b, "    %s\n", m)
		}
		b.WriteString("\n")
	}
}

func writeModules(b *strings.Builder, mods map[string]*policy.ModuleEntry) {
	for _, name := range sortedKeys(mods) {
		m := mods[name]
		vis := m.EffectiveVisibility()
		if vis == policy.Low {
			continue
		}
		fmt.Fprintf(b, "module %s:\n", name)
		for _, member := range m.MemberNames() {
			fmt.Fprintf(b, "    %s\n", member)
		}
		b.WriteString("\n")
	}
}

func writeInstances(b *strings.Builder, insts map[string]*policy.InstanceEntry) {
	for _, name := range sortedKeys(insts) {
		i := insts[name]
		vis := i.EffectiveVisibility()
		if vis == policy.Low {
			continue
		}
		fmt.Fprintf(b, "%s: instance\n", name)
	}
}

func renderDef(b *strings.Builder, kw, name, sig string, spec policy.MemberSpec) {
	if spec.Visibility == policy.Low {
		return
	}
	if sig == "" {
		sig = "(...)"
	}
	fmt.Fprintf(b, "%s %s%s:\n", kw, name, sig)
	if spec.Visibility == policy.High && spec.Docstring != "" {
		fmt.Fprintf(b, "    \"\"\"%s\"\"\"\n", spec.Docstring)
	}
	b.WriteString("\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
