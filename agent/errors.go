// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "fmt"

// TaskTimeout is raised when a task loop exhausts max_iterations without
// reaching a terminal signal (spec §4.5 "Termination"). Wall-clock timeout
// per evaluation is a separate concern enforced by eval.Limits, not this
// type.
type TaskTimeout struct {
	Namespace  string
	Iterations int
}

func (e *TaskTimeout) Error() string {
	return fmt.Sprintf("task %q exceeded %d iterations without a terminal signal", e.Namespace, e.Iterations)
}
