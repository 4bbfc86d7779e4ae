// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/genai"
)

// Gemini adapts google.golang.org/genai to the Client contract. Grounded
// on the teacher's model/google_llm.go Gemini type, trimmed to a single
// synchronous completion.
type Gemini struct {
	client      *genai.Client
	model       string
	window      int
	maxRetries  int
	temperature float64
	topP        float64
}

var _ Client = (*Gemini)(nil)

const geminiDefaultModel = "gemini-1.5-pro"

// NewGemini builds a Gemini client. It prefers GOOGLE_API_KEY; if unset it
// falls back to Application Default Credentials (oauth2/google), the way
// Vertex-backed deployments authenticate.
func NewGemini(ctx context.Context, cfg *Config) (*Gemini, error) {
	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	clientCfg := &genai.ClientConfig{}
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		clientCfg.APIKey = apiKey
	} else {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, fmt.Errorf("gemini: no GOOGLE_API_KEY and no application default credentials: %w", err)
		}
		clientCfg.Credentials = creds
		clientCfg.Backend = genai.BackendVertexAI
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{
		client:      client,
		model:       model,
		window:      1_000_000,
		maxRetries:  3,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}, nil
}

func (g *Gemini) Complete(ctx context.Context, messages []Message, opts CompleteOptions) (LLMResponse, error) {
	var contents []*genai.Content
	var systemText string
	for _, m := range messages {
		if m.Role == RoleSystem {
			systemText += flatten(m) + "\n"
			continue
		}
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(flatten(m), role))
	}
	temp := float32(coalesceFloat(opts.Temperature, g.temperature))
	topP := float32(coalesceFloat(opts.TopP, g.topP))
	genCfg := &genai.GenerateContentConfig{
		Temperature: &temp,
		TopP:        &topP,
	}
	if systemText != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}
	if mt := coalesceInt(opts.MaxTokens, 0); mt > 0 {
		genCfg.MaxOutputTokens = int32(mt)
	}

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
		if err != nil {
			lastErr = err
			continue
		}
		text := resp.Text()
		parsed, perr := parseStructuredResponse(text)
		if perr != nil {
			lastErr = perr
			continue
		}
		return parsed, nil
	}
	return LLMResponse{}, &ErrLLMFail{Attempts: g.maxRetries, Err: lastErr}
}

func (g *Gemini) EstimateTokens(text string) int { return estimateTokens(g.model, text) }
func (g *Gemini) ContextWindow() int             { return g.window }
func (g *Gemini) Model() string                  { return g.model }
func (g *Gemini) ProviderName() string           { return "gemini" }
