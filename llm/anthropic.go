// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// Anthropic adapts Claude's Messages API to the Client contract. Grounded
// on the teacher's model/anthropic.go Claude type, trimmed to the single
// synchronous completion this spec's task loop needs (no streaming, no
// tool-use translation — `complete(messages) -> {thinking, code}` is the
// whole contract).
type Anthropic struct {
	client      anthropic.Client
	model       string
	window      int
	maxRetries  int
	temperature float64
	topP        float64
}

var _ Client = (*Anthropic)(nil)

// NewAnthropic builds an Anthropic client from the SDK's default client
// options, which read ANTHROPIC_API_KEY from the environment; cfg.Model
// selects the model, defaulting to the latest Claude 3.5 Sonnet when empty.
func NewAnthropic(cfg *Config) *Anthropic {
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaude3_5SonnetLatest)
	}
	return &Anthropic{
		client:      anthropic.NewClient(anthropic.DefaultClientOptions()...),
		model:       model,
		window:      200_000,
		maxRetries:  3,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

func (a *Anthropic) Complete(ctx context.Context, messages []Message, opts CompleteOptions) (LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(coalesceInt(opts.MaxTokens, 4096)),
	}
	params.Temperature = anthropic.Float(coalesceFloat(opts.Temperature, a.temperature))
	params.TopP = anthropic.Float(coalesceFloat(opts.TopP, a.topP))

	for _, m := range messages {
		if m.Role == RoleSystem {
			params.System = append(params.System, anthropic.TextBlockParam{Text: flatten(m)})
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(flatten(m))},
		})
	}

	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			lastErr = err
			continue
		}
		text := ""
		for _, block := range resp.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		parsed, perr := parseStructuredResponse(text)
		if perr != nil {
			lastErr = perr
			continue
		}
		return parsed, nil
	}
	return LLMResponse{}, &ErrLLMFail{Attempts: a.maxRetries, Err: lastErr}
}

func (a *Anthropic) EstimateTokens(text string) int { return estimateTokens(a.model, text) }
func (a *Anthropic) ContextWindow() int             { return a.window }
func (a *Anthropic) Model() string                  { return a.model }
func (a *Anthropic) ProviderName() string           { return "anthropic" }

func flatten(m Message) string {
	if m.Content != "" || len(m.Parts) == 0 {
		return m.Content
	}
	out := ""
	for _, p := range m.Parts {
		if p.Text != "" {
			out += p.Text
		} else {
			out += fmt.Sprintf("[image: %s, %d bytes]", p.Mime, len(p.Image))
		}
	}
	return out
}

func coalesceInt(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func coalesceFloat(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

