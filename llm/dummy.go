// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"sync"
)

// Dummy is a deterministic test double for Client: a queue of canned
// responses, or a scripted function, with no network I/O. Ported from
// the original's agex/llm/dummy_client.py test double (MODULE ADDITIONS
// #2) since every package's tests need one instead of hitting a real
// provider.
type Dummy struct {
	mu        sync.Mutex
	responses []LLMResponse
	next      int
	script    func(messages []Message, call int) (LLMResponse, error)
	model     string
	window    int
	calls     []Call
}

// Call records one invocation for assertions in tests.
type Call struct {
	Messages []Message
	Opts     CompleteOptions
}

var _ Client = (*Dummy)(nil)

// NewDummy builds a Dummy that replays responses in order. Calling
// Complete more times than there are responses repeats the last one.
func NewDummy(responses ...LLMResponse) *Dummy {
	return &Dummy{responses: responses, model: "dummy", window: 1_000_000}
}

// NewDummyFunc builds a Dummy driven by a scripting function instead of a
// fixed queue, for tests that need responses to depend on what was sent.
func NewDummyFunc(script func(messages []Message, call int) (LLMResponse, error)) *Dummy {
	return &Dummy{script: script, model: "dummy", window: 1_000_000}
}

func (d *Dummy) Complete(_ context.Context, messages []Message, opts CompleteOptions) (LLMResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Messages: messages, Opts: opts})
	if d.script != nil {
		return d.script(messages, len(d.calls)-1)
	}
	if len(d.responses) == 0 {
		return LLMResponse{}, fmt.Errorf("dummy client: no responses queued")
	}
	idx := d.next
	if idx >= len(d.responses) {
		idx = len(d.responses) - 1
	} else {
		d.next++
	}
	return d.responses[idx], nil
}

// EstimateTokens uses a whitespace word count; callers that need exact
// tiktoken-go parity should exercise a real provider adapter instead.
func (d *Dummy) EstimateTokens(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if !isSpace && !inWord {
			n++
		}
		inWord = !isSpace
	}
	return n
}

func (d *Dummy) ContextWindow() int   { return d.window }
func (d *Dummy) Model() string        { return d.model }
func (d *Dummy) ProviderName() string { return "dummy" }

// Calls returns every recorded invocation, for test assertions.
func (d *Dummy) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}
