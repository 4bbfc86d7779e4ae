// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/agexrun/agex/llm"
	"github.com/agexrun/agex/state"
)

// msgLogKey is the reserved logical key holding the ordered list of stored
// message references (spec §6 "Persisted state layout").
const msgLogKey = "__msg_log__"

type actionPayload struct {
	Thinking string `json:"thinking"`
	Code     string `json:"code"`
}

type errorPayload struct {
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// emitAction records the assistant's {thinking, code} completion as an
// ActionEvent (spec §4.5 step 4) and returns it so the .stream(...)
// surface can forward it to a caller's event handler as it happens.
func emitAction(s state.State, thinking, code string) state.Event {
	payload, err := sonic.MarshalString(actionPayload{Thinking: thinking, Code: code})
	if err != nil {
		payload = thinking
	}
	ev := state.Event{Timestamp: time.Now(), Kind: "action", Content: payload}
	state.AddEventToLog(s, ev)
	return ev
}

// emitSuccess records a SuccessEvent (spec §4.5 step 5, "on TaskSuccess").
func emitSuccess(s state.State, resultRepr string) state.Event {
	ev := state.Event{Timestamp: time.Now(), Kind: "success", Content: resultRepr}
	state.AddEventToLog(s, ev)
	return ev
}

// emitError records an ErrorEvent. recoverable is true for anything that
// lets the loop continue to the next iteration; false for a terminal
// TaskFail/TaskClarify/TaskTimeout (spec §4.5 step 5, §7 "Propagation
// policy").
func emitError(s state.State, message string, recoverable bool) state.Event {
	payload, err := sonic.MarshalString(errorPayload{Message: message, Recoverable: recoverable})
	if err != nil {
		payload = message
	}
	ev := state.Event{Timestamp: time.Now(), Kind: "error", Content: payload}
	state.AddEventToLog(s, ev)
	return ev
}

// appendMessage stores msg under a fresh __msgN__ key and appends that key
// to __msg_log__, the reference-list structure spec §4.5 step 2 describes
// so a growing conversation doesn't re-serialize its whole history on
// every commit.
func appendMessage(s state.State, msg llm.Message) {
	var refs []string
	if existing, ok := s.Get(msgLogKey); ok {
		refs, _ = existing.([]string)
	}
	key := fmt.Sprintf("__msg%d__", len(refs))
	s.Set(key, msg)
	refs = append(refs, key)
	s.Set(msgLogKey, refs)
}

// conversationLog reconstructs the stored message history in append order.
func conversationLog(s state.State) []llm.Message {
	existing, ok := s.Get(msgLogKey)
	if !ok {
		return nil
	}
	refs, _ := existing.([]string)
	out := make([]llm.Message, 0, len(refs))
	for _, key := range refs {
		v, ok := s.Get(key)
		if !ok {
			continue
		}
		if msg, ok := v.(llm.Message); ok {
			out = append(out, msg)
		}
	}
	return out
}
