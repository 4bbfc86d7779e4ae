// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"strings"

	"github.com/agexrun/agex/policy"
)

// DescribeNamespace renders a single registered namespace's definition
// text outside of a full system-message render pass, for CLI introspection
// (MODULE ADDITIONS #3, ported from the original's render/view.py notebook
// helper).
func DescribeNamespace(reg *policy.Registry, name string) (string, error) {
	if fn, ok := reg.Functions()[name]; ok {
		var b strings.Builder
		renderDef(&b, "def", name, fn.Signature, fn.Spec)
		return b.String(), nil
	}
	if c, ok := reg.Classes()[name]; ok {
		var b strings.Builder
		writeClasses(&b, map[string]*policy.ClassEntry{name: c})
		return b.String(), nil
	}
	if m, ok := reg.Modules()[name]; ok {
		var b strings.Builder
		writeModules(&b, map[string]*policy.ModuleEntry{name: m})
		return b.String(), nil
	}
	if i, ok := reg.Instances()[name]; ok {
		var b strings.Builder
		writeInstances(&b, map[string]*policy.InstanceEntry{name: i})
		return b.String(), nil
	}
	return "", fmt.Errorf("render: no namespace registered under %q", name)
}
