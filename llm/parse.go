// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

type rawCompletion struct {
	Thinking string `json:"thinking"`
	Code     string `json:"code"`
}

// parseStructuredResponse decodes a provider's raw text into the
// {thinking, code} shape every adapter must produce (spec §6). Providers
// routinely wrap JSON in a fenced code block, so a fence is stripped
// before decoding.
func parseStructuredResponse(text string) (LLMResponse, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	var raw rawCompletion
	if err := sonic.UnmarshalString(text, &raw); err != nil {
		return LLMResponse{}, fmt.Errorf("parse structured llm response: %w", err)
	}
	if raw.Code == "" {
		return LLMResponse{}, fmt.Errorf("parse structured llm response: missing \"code\" field")
	}
	return LLMResponse{Thinking: raw.Thinking, Code: raw.Code}, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) < 2 {
		return text
	}
	body := lines[1]
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
