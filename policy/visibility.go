// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package policy

// Visibility is a prompt-rendering hint. It never affects whether a name,
// attribute, or module is reachable by the evaluator — only whether and how
// the renderer describes it to the model.
type Visibility int

const (
	// Low hides the member from rendering unless promoted.
	Low Visibility = iota
	// Medium renders the signature only, body elided.
	Medium
	// High renders the full signature and docstring.
	High
)

func (v Visibility) String() string {
	switch v {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// promote computes the visibility promotion rule: a container (module or
// class) is promoted from Low to Medium if any direct member is High, or if
// any nested container was itself promoted (signaled by memberPromoted).
func promote(base Visibility, memberVisibilities []Visibility, memberPromoted []bool) Visibility {
	if base != Low {
		return base
	}
	for _, v := range memberVisibilities {
		if v == High {
			return Medium
		}
	}
	for _, p := range memberPromoted {
		if p {
			return Medium
		}
	}
	return Low
}
