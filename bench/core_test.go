// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agexrun/agex/agent"
	"github.com/agexrun/agex/llm"
	"github.com/agexrun/agex/policy"
)

type mathInputs struct {
	Question string `json:"question"`
}

func TestBenchmarkPassFail(t *testing.T) {
	client := llm.NewDummy(
		llm.LLMResponse{Thinking: "solving", Code: "task_success('4')"},
		llm.LLMResponse{Thinking: "solving", Code: "task_success('2')"},
	)
	a, err := agent.New(t.Name(), "solve math problems", policy.New(), client)
	require.NoError(t, err)

	task := agent.NewTask[mathInputs, string]("solve_math", a)
	suite := Suite[mathInputs, string]{
		Task: task,
		Build: func(p Params) mathInputs {
			return mathInputs{Question: p.Args[0].(string)}
		},
	}

	trials := []Trial{
		{Params: NewParams("What is 2+2?"), Judge: func(actual any) bool { return actual == "4" }},
		{Params: NewParams("What is 1+1?"), Judge: func(actual any) bool { return actual == "2" }},
	}

	stats := BenchmarkPassFail(context.Background(), suite, trials)
	require.Equal(t, 2, stats.TotalTrials)
	require.Equal(t, 2, stats.CompletedTrials)
	require.Equal(t, 0, stats.ErroredTrials)
	require.Equal(t, 2, stats.PassCount)
	require.Equal(t, 1.0, stats.PassRate)
}
