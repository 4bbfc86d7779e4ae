// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
)

// New builds a Client for cfg.Provider, grounded on the teacher's
// model/factory.go DefaultModelFactory dispatch (provider name instead of
// model-name string-prefix sniffing, since AGEX_LLM_PROVIDER is explicit).
func New(ctx context.Context, cfg *Config) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "gemini":
		return NewGemini(ctx, cfg)
	case "dummy", "":
		return NewDummy(LLMResponse{Thinking: "", Code: "task_fail('no dummy responses queued')"}), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
