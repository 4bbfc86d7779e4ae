// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "github.com/agexrun/agex/eval"

// bindInputs matches positional/keyword call arguments against a
// task-decorated function's declared parameters and returns them as a
// sandbox record, the shape the reserved "inputs" variable takes (spec
// §4.5 "Pre-invocation"). A default that isn't a bare literal is left
// unbound: a task signature has no owning scope to evaluate a non-literal
// default expression against (the decorator validates an empty body, not
// a callable one).
func bindInputs(params []eval.Param, args []eval.Value, kwargs map[string]eval.Value) *eval.Dict {
	d := eval.NewDict()
	for i, p := range params {
		if i < len(args) {
			d.Set(p.Name, args[i])
			continue
		}
		if v, ok := kwargs[p.Name]; ok {
			d.Set(p.Name, v)
			continue
		}
		if lit, ok := literalValue(p.Default); ok {
			d.Set(p.Name, lit)
		}
	}
	return d
}

func literalValue(e eval.Expr) (eval.Value, bool) {
	switch n := e.(type) {
	case *eval.StringExpr:
		return n.Value, true
	case *eval.NumberExpr:
		if n.IsFloat {
			return n.Float, true
		}
		return n.Int, true
	case *eval.BoolExpr:
		return n.Value, true
	case *eval.NoneExpr:
		return nil, true
	default:
		return nil, false
	}
}
