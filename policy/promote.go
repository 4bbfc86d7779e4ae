// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

// EffectiveVisibility computes this class's promoted visibility: promoted
// from Low to Medium if any member is High.
func (c *ClassEntry) EffectiveVisibility() Visibility {
	if c.Spec.Visibility != Low {
		return c.Spec.Visibility
	}
	var vis []Visibility
	for _, name := range c.MemberNames() {
		vis = append(vis, c.MemberSpecFor(name).Visibility)
	}
	return promote(c.Spec.Visibility, vis, nil)
}

// EffectiveVisibility computes this module's promoted visibility: promoted
// from Low to Medium if any member is High or any contained class is
// itself promoted.
func (m *ModuleEntry) EffectiveVisibility() Visibility {
	if m.Spec.Visibility != Low {
		return m.Spec.Visibility
	}
	var vis []Visibility
	var promoted []bool
	for name := range m.funcs {
		if m.selected(name) {
			vis = append(vis, m.funcs[name].Spec.Visibility)
		}
	}
	for name, k := range m.consts {
		if m.selected(name) {
			vis = append(vis, k.Spec.Visibility)
		}
	}
	for name, cls := range m.classes {
		if !m.selected(name) {
			continue
		}
		eff := cls.EffectiveVisibility()
		vis = append(vis, cls.Spec.Visibility)
		promoted = append(promoted, eff != cls.Spec.Visibility)
	}
	for name, sub := range m.submodules {
		if !m.selected(name) || !m.Recursive {
			continue
		}
		eff := sub.EffectiveVisibility()
		vis = append(vis, sub.Spec.Visibility)
		promoted = append(promoted, eff != sub.Spec.Visibility)
	}
	return promote(m.Spec.Visibility, vis, promoted)
}

// EffectiveVisibility for an instance namespace behaves like a class: it
// promotes from Low to Medium if any exposed member is High.
func (i *InstanceEntry) EffectiveVisibility() Visibility {
	if i.Spec.Visibility != Low {
		return i.Spec.Visibility
	}
	// Instance members aren't reflect-enumerated by default (the host
	// typically documents only what it explicitly overrides); promotion
	// here only consults registered overrides.
	var vis []Visibility
	for _, spec := range i.overrides {
		vis = append(vis, spec.Visibility)
	}
	return promote(i.Spec.Visibility, vis, nil)
}
