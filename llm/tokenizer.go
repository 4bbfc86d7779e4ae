// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenizerByModel caches an encoding per model name; BPE construction is
// expensive enough (loading the merge table) that every adapter sharing
// one encoding per process matters for the task loop's per-iteration
// render-and-budget path.
var (
	tokenizerMu    sync.Mutex
	tokenizerCache = map[string]*tiktoken.Tiktoken{}
)

// estimateTokens counts text under tiktoken-go's encoding for modelName,
// falling back to the fixed cl100k_base encoding when the model name isn't
// one tiktoken-go recognizes directly (true for every non-OpenAI model this
// runtime talks to, since tiktoken has no Anthropic/Gemini vocabularies of
// its own, but is still a stable, fast approximation for budget purposes),
// and to len(text)/4 if that encoding cannot be loaded either.
func estimateTokens(modelName, text string) int {
	tokenizerMu.Lock()
	enc, ok := tokenizerCache[modelName]
	tokenizerMu.Unlock()
	if !ok {
		var err error
		enc, err = tiktoken.EncodingForModel(modelName)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return len(text) / 4
			}
		}
		tokenizerMu.Lock()
		tokenizerCache[modelName] = enc
		tokenizerMu.Unlock()
	}
	return len(enc.Encode(text, nil, nil))
}
