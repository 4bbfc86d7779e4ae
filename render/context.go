// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"sort"

	"github.com/agexrun/agex/eval"
	"github.com/agexrun/agex/internal/pool"
	"github.com/agexrun/agex/state"
)

// maxDiffItems caps how many changed keys are rendered and maxReprLen caps
// the length of the fallback repr (spec §4.4), so a single huge value can't
// dominate the whole diff stream.
const (
	maxDiffItems = 50
	maxReprLen   = 2000
)

// Context builds the per-iteration user message: the most recent commit's
// diffs (insertion order, reserved keys filtered) and this iteration's
// stdout, independently truncated to fit their share of totalBudget (spec
// §4.4).
func Context(counter TokenCounter, diffs map[string]any, diffOrder []string, stdout string, totalBudget int) string {
	diffText := renderDiffs(diffs, diffOrder)
	haveDiffs := diffText != ""
	haveStdout := stdout != ""
	diffBudget, stdoutBudget := splitBudget(totalBudget, haveDiffs, haveStdout)

	buf := pool.String.Get()
	defer func() {
		buf.Reset()
		pool.String.Put(buf)
	}()

	if haveDiffs {
		buf.WriteString("State changes:\n")
		buf.WriteString(truncateToBudget(counter, diffText, diffBudget))
		buf.WriteString("\n")
	}
	if haveStdout {
		if haveDiffs {
			buf.WriteString("\n")
		}
		buf.WriteString("Output:\n")
		buf.WriteString(truncateToBudget(counter, stdout, stdoutBudget))
		buf.WriteString("\n")
	}
	return buf.String()
}

// renderDiffs renders each changed key in diffOrder as `name = <value>`,
// skipping reserved keys (__stdout__, __event_log__, ...) the way spec §3's
// "never surfaced in rendered state diffs" invariant requires.
func renderDiffs(diffs map[string]any, diffOrder []string) string {
	order := diffOrder
	if order == nil {
		order = sortedDiffKeys(diffs)
	}
	buf := pool.String.Get()
	defer func() {
		buf.Reset()
		pool.String.Put(buf)
	}()
	n := 0
	for _, k := range order {
		if isReservedKey(k) {
			continue
		}
		v, ok := diffs[k]
		if !ok {
			continue
		}
		if n >= maxDiffItems {
			fmt.Fprintf(buf, "... (%d more)\n", len(order)-n)
			break
		}
		fmt.Fprintf(buf, "%s = %s\n", k, renderValueCompactly(v))
		n++
	}
	return buf.String()
}

func sortedDiffKeys(diffs map[string]any) []string {
	keys := make([]string, 0, len(diffs))
	for k := range diffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isReservedKey(k string) bool {
	return len(k) >= 2 && k[0] == '_' && k[1] == '_'
}

// renderValueCompactly applies the per-type rendering strategy: shape for
// array-like, length for sized containers, a length-bounded repr
// otherwise.
func renderValueCompactly(v any) string {
	switch x := v.(type) {
	case *eval.List:
		return fmt.Sprintf("<list of %d>", len(x.Items))
	case *eval.Tuple:
		return fmt.Sprintf("<tuple of %d>", len(x.Items))
	case *eval.Dict:
		return fmt.Sprintf("<dict of %d>", x.Len())
	case *eval.Set:
		return fmt.Sprintf("<set of %d>", x.Len())
	default:
		r := eval.Repr(v)
		if len(r) > maxReprLen {
			return r[:maxReprLen] + "...(truncated)"
		}
		return r
	}
}

// DescendantEventCount is a small helper for CLI/debug tooling that wants
// to show how much conversation history a namespace is carrying without
// rendering the whole thing.
func DescendantEventCount(s state.State) int {
	return len(state.Events(s))
}
