// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package render

import "github.com/agexrun/agex/llm"

// TokenCounter is the minimal budget-counting surface the renderer needs
// from an llm.Client: estimate_tokens(text) by model name (spec §4.4).
type TokenCounter interface {
	EstimateTokens(text string) int
}

var _ TokenCounter = (llm.Client)(nil)

// splitBudget allocates total between two streams, 60/40 when both are
// non-empty, or the whole budget to whichever one is present. Each stream
// is then truncated independently — the two counts never borrow from each
// other, since spec §4.4/§9 treats state diffs and stdout as independently
// meaningful.
func splitBudget(total int, haveFirst, haveSecond bool) (firstBudget, secondBudget int) {
	switch {
	case haveFirst && haveSecond:
		return total * 6 / 10, total - total*6/10
	case haveFirst:
		return total, 0
	case haveSecond:
		return 0, total
	default:
		return 0, 0
	}
}

// truncateToBudget trims text to fit within budget tokens as counted by
// counter, appending an ellipsis marker rather than silently dropping the
// remainder. Truncation works line-by-line so a cut never lands mid-line.
func truncateToBudget(counter TokenCounter, text string, budget int) string {
	if budget <= 0 {
		if text == "" {
			return ""
		}
		return "... (truncated)"
	}
	if counter.EstimateTokens(text) <= budget {
		return text
	}
	lines := splitLines(text)
	kept := make([]string, 0, len(lines))
	used := 0
	for _, line := range lines {
		cost := counter.EstimateTokens(line) + 1
		if used+cost > budget {
			break
		}
		kept = append(kept, line)
		used += cost
	}
	out := joinLines(kept)
	if len(kept) < len(lines) {
		if out != "" {
			out += "\n"
		}
		out += "... (truncated)"
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
