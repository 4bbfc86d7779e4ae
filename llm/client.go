// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm defines the wire-level contract between the task loop and a
// language model provider, plus adapters for the providers the pack
// vendors. Everything upstream of Client is a provider-format detail; the
// task loop only ever sees Message/LLMResponse.
package llm

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Role is the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is one piece of a MultimodalMessage.
type ContentPart struct {
	Text  string
	Image []byte
	Mime  string
}

func TextPart(text string) ContentPart { return ContentPart{Text: text} }

func ImagePart(data []byte, mime string) ContentPart {
	return ContentPart{Image: data, Mime: mime}
}

// Message is either a plain TextMessage or a MultimodalMessage; Parts is
// nil for a TextMessage.
type Message struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

func TextMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

func MultimodalMessage(role Role, parts ...ContentPart) Message {
	return Message{Role: role, Parts: parts}
}

// LLMResponse is the only shape a provider adapter is allowed to produce:
// the task loop parses no other fields out of a completion.
type LLMResponse struct {
	Thinking string
	Code     string
}

// CompleteOptions carries the per-call knobs the environment/programmatic
// config layer can set; a zero value means "use the client's default".
type CompleteOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Client is the only wire-level interface visible to the core task loop.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts CompleteOptions) (LLMResponse, error)
	EstimateTokens(text string) int
	ContextWindow() int
	Model() string
	ProviderName() string
}

// Config is the environment/programmatic configuration for an LLM client,
// with precedence explicit call args > programmatic global config > env >
// hard-coded defaults (spec §6).
type Config struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Option configures a Config, mirroring types/agent_config.go's
// optionFunc/apply pattern from the teacher.
type Option interface{ apply(*Config) }

type optionFunc func(*Config)

func (o optionFunc) apply(c *Config) { o(c) }

func WithProvider(name string) Option {
	return optionFunc(func(c *Config) { c.Provider = name })
}

func WithModel(name string) Option {
	return optionFunc(func(c *Config) { c.Model = name })
}

func WithTemperature(t float64) Option {
	return optionFunc(func(c *Config) { c.Temperature = t })
}

func WithMaxTokens(n int) Option {
	return optionFunc(func(c *Config) { c.MaxTokens = n })
}

func WithTopP(p float64) Option {
	return optionFunc(func(c *Config) { c.TopP = p })
}

// NewConfig seeds a Config from AGEX_LLM_* environment variables, then
// layers programmatic options on top, so NewConfig(opts...) already
// implements the env > defaults half of the precedence chain and the
// caller's opts implement the programmatic half.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		Provider:    envOr("AGEX_LLM_PROVIDER", "dummy"),
		Model:       envOr("AGEX_LLM_MODEL", ""),
		Temperature: envFloat("AGEX_LLM_TEMPERATURE", 0.7),
		MaxTokens:   envInt("AGEX_LLM_MAX_TOKENS", 4096),
		TopP:        envFloat("AGEX_LLM_TOP_P", 1.0),
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// ErrLLMFail wraps an exhausted-retries transport/parse failure, matching
// spec §7's `LLMFail` task signal.
type ErrLLMFail struct {
	Attempts int
	Err      error
}

func (e *ErrLLMFail) Error() string {
	return fmt.Sprintf("llm completion failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrLLMFail) Unwrap() error { return e.Err }
