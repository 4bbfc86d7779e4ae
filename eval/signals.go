// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import "fmt"

// AgentExit is raised by task_success/task_fail/task_clarify/task_continue
// to unwind the sandbox straight out of the evaluator and into the task
// loop, bypassing ordinary try/except handling the way a guest raise does
// not.
type AgentExit interface {
	error
	agentExit()
}

// TaskSuccess ends the task loop and returns Result to the caller once it
// passes output validation against the task's declared return type.
type TaskSuccess struct{ Result Value }

func (e *TaskSuccess) Error() string { return fmt.Sprintf("task_success(%v)", e.Result) }
func (*TaskSuccess) agentExit()      {}

// TaskFail ends the task loop with a failure message. A top-level task
// propagates it to the host; a sub-agent task has it converted to a stdout
// entry in the parent's namespace instead.
type TaskFail struct{ Message string }

func (e *TaskFail) Error() string { return fmt.Sprintf("task_fail(%s)", e.Message) }
func (*TaskFail) agentExit()      {}

// TaskClarify ends the task loop asking the host for clarification. Same
// top-level/sub-agent propagation split as TaskFail.
type TaskClarify struct{ Message string }

func (e *TaskClarify) Error() string { return fmt.Sprintf("task_clarify(%s)", e.Message) }
func (*TaskClarify) agentExit()      {}

// TaskContinue ends evaluation of the current iteration's code without
// ending the task loop: the loop renders new context and submits another
// LLM completion. Unlike the ordinary "evaluation fell through" case, a
// note is attached for the next prompt.
type TaskContinue struct{ Note string }

func (e *TaskContinue) Error() string { return fmt.Sprintf("task_continue(%s)", e.Note) }
func (*TaskContinue) agentExit()      {}
