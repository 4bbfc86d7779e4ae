// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"fmt"
	"strings"
	"time"

	"github.com/agexrun/agex/policy"
	"github.com/agexrun/agex/state"
)

// TaskRunner dispatches a call into a @task-decorated function to whatever
// owns the agent task loop, keeping the evaluator itself free of any
// knowledge of prompts, LLM calls, or iteration limits.
type TaskRunner interface {
	RunTask(it *Interp, namespace, docstring string, params []Param, args []Value, kwargs map[string]Value) (Value, error)
}

// Limits bounds a single evaluation the way base.py's timeout and
// operation-count checks do: whichever bound trips first ends the run.
type Limits struct {
	Timeout    time.Duration
	MaxOps     int
}

func DefaultLimits() Limits {
	return Limits{Timeout: 5 * time.Second, MaxOps: 1_000_000}
}

// Interp walks a parsed program against a registry-gated namespace. One
// Interp instance is good for exactly one evaluation; create a fresh one
// per task-loop iteration.
type Interp struct {
	registry    *policy.Registry
	store       state.State
	moduleScope Scope
	hostObjects map[string]any

	limits    Limits
	startedAt time.Time
	opCount   int

	stdout     strings.Builder
	taskRunner TaskRunner
}

// NewInterp builds an interpreter bound to a capability registry and a
// namespace of persisted variables. hostObjects supplies the live Go
// values backing any registered instance the registry exposes by name.
func NewInterp(reg *policy.Registry, store state.State, hostObjects map[string]any, runner TaskRunner, limits Limits) *Interp {
	it := &Interp{
		registry:    reg,
		store:       store,
		hostObjects: hostObjects,
		limits:      limits,
		taskRunner:  runner,
	}
	it.moduleScope = newStateScope(store)
	return it
}

// Stdout returns everything captured via print() calls during Run.
func (it *Interp) Stdout() string { return it.stdout.String() }

// AppendStdout writes s followed by a newline to this iteration's captured
// stdout, the same sink print() writes to. The task loop uses this to
// record a sub-agent's TaskFail/TaskClarify signal as a recoverable note in
// the calling iteration's output stream (spec §4.5 step 5) instead of
// propagating it as a Go error.
func (it *Interp) AppendStdout(s string) {
	it.stdout.WriteString(s)
	it.stdout.WriteString("\n")
}

// Store returns the module-level state this interpreter was constructed
// with, the same store a TaskRunner receives for anchoring sub-agent
// namespaces.
func (it *Interp) Store() state.State { return it.store }

// Run executes a parsed program's top-level statements against the module
// scope and returns without error unless a guest exception escapes, an
// AgentExit signal fires, or a resource limit trips.
func (it *Interp) Run(program []Stmt) error {
	it.startedAt = time.Now()
	it.opCount = 0
	sig, err := it.execBlock(program, it.moduleScope)
	if err != nil {
		return err
	}
	if sig.kind == signalReturn {
		return evalErrf(0, "return statement outside of a function")
	}
	return nil
}

func (it *Interp) checkLimits(line int) error {
	it.opCount++
	if it.limits.Timeout > 0 && time.Since(it.startedAt) > it.limits.Timeout {
		return evalErrf(line, "execution timed out after %s", it.limits.Timeout)
	}
	if it.limits.MaxOps > 0 && it.opCount > it.limits.MaxOps {
		return evalErrf(line, "exceeded maximum operation limit (%d operations); likely an infinite loop", it.limits.MaxOps)
	}
	return nil
}

// --- Statement execution ---

func (it *Interp) execBlock(stmts []Stmt, sc Scope) (signal, error) {
	for _, s := range stmts {
		sig, err := it.execStmt(s, sc)
		if err != nil {
			return noSignal, err
		}
		if sig.kind != signalNone {
			return sig, nil
		}
	}
	return noSignal, nil
}

func (it *Interp) execStmt(s Stmt, sc Scope) (signal, error) {
	if err := it.checkLimits(s.Line()); err != nil {
		return noSignal, err
	}
	switch n := s.(type) {
	case *ExprStmt:
		_, err := it.evalExpr(n.X, sc)
		return noSignal, err
	case *AssignStmt:
		v, err := it.evalExpr(n.Value, sc)
		if err != nil {
			return noSignal, err
		}
		return noSignal, it.assign(n.Target, v, sc)
	case *AugAssignStmt:
		return noSignal, it.execAugAssign(n, sc)
	case *IfStmt:
		cond, err := it.evalExpr(n.Cond, sc)
		if err != nil {
			return noSignal, err
		}
		if truthy(cond) {
			return it.execBlock(n.Body, sc)
		}
		return it.execBlock(n.Orelse, sc)
	case *WhileStmt:
		return it.execWhile(n, sc)
	case *ForStmt:
		return it.execFor(n, sc)
	case *FunctionDefStmt:
		free := freeVariables(n.Params, n.Body)
		fn := &UserFunction{
			Name:    n.Name,
			Params:  n.Params,
			Body:    n.Body,
			Closure: newClosureScope(sc, free),
		}
		if n.IsTask {
			fn.TaskNamespace = n.Name
			fn.TaskDocstring = leadingDocstring(n.Body)
		}
		sc.Set(n.Name, fn)
		return noSignal, nil
	case *ClassDefStmt:
		return noSignal, it.execClassDef(n, sc)
	case *ReturnStmt:
		var v Value
		if n.Value != nil {
			var err error
			v, err = it.evalExpr(n.Value, sc)
			if err != nil {
				return noSignal, err
			}
		}
		return signal{kind: signalReturn, value: v}, nil
	case *PassStmt:
		return noSignal, nil
	case *BreakStmt:
		return signal{kind: signalBreak}, nil
	case *ContinueStmt:
		return signal{kind: signalContinue}, nil
	case *RaiseStmt:
		return noSignal, it.execRaise(n, sc)
	case *TryStmt:
		return it.execTry(n, sc)
	case *WithStmt:
		return it.execWith(n, sc)
	case *AssertStmt:
		return noSignal, it.execAssert(n, sc)
	default:
		return noSignal, evalErrf(s.Line(), "statement type %T is not supported", s)
	}
}

func (it *Interp) execAugAssign(n *AugAssignStmt, sc Scope) error {
	cur, err := it.evalExpr(n.Target, sc)
	if err != nil {
		return err
	}
	rhs, err := it.evalExpr(n.Value, sc)
	if err != nil {
		return err
	}
	result, err := applyBinOp(n.Op, cur, rhs, n.Line())
	if err != nil {
		return err
	}
	return it.assign(n.Target, result, sc)
}

func (it *Interp) execWhile(n *WhileStmt, sc Scope) (signal, error) {
	for {
		cond, err := it.evalExpr(n.Cond, sc)
		if err != nil {
			return noSignal, err
		}
		if !truthy(cond) {
			return noSignal, nil
		}
		sig, err := it.execBlock(n.Body, sc)
		if err != nil {
			return noSignal, err
		}
		switch sig.kind {
		case signalBreak:
			return noSignal, nil
		case signalReturn:
			return sig, nil
		}
	}
}

func (it *Interp) execFor(n *ForStmt, sc Scope) (signal, error) {
	iterVal, err := it.evalExpr(n.Iter, sc)
	if err != nil {
		return noSignal, err
	}
	items, err := iterate(iterVal, n.Line())
	if err != nil {
		return noSignal, err
	}
	for _, item := range items {
		if err := it.assign(n.Target, item, sc); err != nil {
			return noSignal, err
		}
		sig, err := it.execBlock(n.Body, sc)
		if err != nil {
			return noSignal, err
		}
		switch sig.kind {
		case signalBreak:
			return noSignal, nil
		case signalReturn:
			return sig, nil
		}
	}
	return noSignal, nil
}

func (it *Interp) execClassDef(n *ClassDefStmt, sc Scope) error {
	// ClassDefStmt only carries flat dataclass fields in this grammar;
	// class bodies with methods use AgexClass instead, built directly by
	// whatever constructs a richer class from a full method table.
	sc.Set(n.Name, &AgexDataClass{Name: n.Name, Fields: n.Fields})
	return nil
}

func (it *Interp) execRaise(n *RaiseStmt, sc Scope) error {
	if n.Exc == nil {
		return evalErrf(n.Line(), "bare 'raise' outside of an except block is not supported")
	}
	v, err := it.evalExpr(n.Exc, sc)
	if err != nil {
		return err
	}
	return toGuestError(v, n.Line())
}

func toGuestError(v Value, line int) error {
	switch e := v.(type) {
	case *GuestException:
		return e
	case AgentExit:
		return e
	case string:
		return &GuestException{Kind: "Exception", Msg: e, Line: line}
	default:
		return &GuestException{Kind: "Exception", Msg: fmt.Sprintf("%v", e), Payload: v, Line: line}
	}
}

func (it *Interp) execTry(n *TryStmt, sc Scope) (signal, error) {
	sig, err := it.execBlock(n.Body, sc)
	if err != nil {
		if _, isExit := err.(AgentExit); isExit {
			return noSignal, err
		}
		ge, ok := err.(*GuestException)
		if !ok {
			if _, isEval := err.(*EvalError); isEval {
				return noSignal, err
			}
			ge = &GuestException{Kind: "Exception", Msg: err.Error(), Line: n.Line()}
		}
		for _, h := range n.Handlers {
			if h.Kind != "" && h.Kind != "Exception" && !matchesExceptionKind(h.Kind, ge.Kind) {
				continue
			}
			if h.Target != "" {
				sc.Set(h.Target, ge)
			}
			if fin, ferr := it.runFinally(n, sc); ferr != nil || fin.kind != signalNone {
				return fin, ferr
			}
			return it.execBlock(h.Body, sc)
		}
		if fin, ferr := it.runFinally(n, sc); ferr != nil || fin.kind != signalNone {
			return fin, ferr
		}
		return noSignal, err
	}
	if sig.kind == signalNone {
		orelseSig, orelseErr := it.execBlock(n.Orelse, sc)
		if orelseErr != nil || orelseSig.kind != signalNone {
			if fin, ferr := it.runFinally(n, sc); ferr != nil || fin.kind != signalNone {
				return fin, ferr
			}
			return orelseSig, orelseErr
		}
	}
	if fin, ferr := it.runFinally(n, sc); ferr != nil || fin.kind != signalNone {
		return fin, ferr
	}
	return sig, nil
}

func (it *Interp) runFinally(n *TryStmt, sc Scope) (signal, error) {
	if len(n.Finally) == 0 {
		return noSignal, nil
	}
	return it.execBlock(n.Finally, sc)
}

// matchesExceptionKind treats a handler's named kind as matching the
// raised kind exactly, or matching the catch-all "Exception".
func matchesExceptionKind(handlerKind, raisedKind string) bool {
	return handlerKind == raisedKind || handlerKind == "Exception"
}

func (it *Interp) execWith(n *WithStmt, sc Scope) (signal, error) {
	type entered struct {
		ctx Value
	}
	var opened []entered
	defer func() {
		for i := len(opened) - 1; i >= 0; i-- {
			it.exitContext(opened[i].ctx, n.Line())
		}
	}()
	scoped := newStateScope(state.NewScoped(it.currentStore(sc)))
	bodyScope := scopeOver(sc, scoped)
	for _, item := range n.Items {
		ctxVal, err := it.evalExpr(item.Ctx, sc)
		if err != nil {
			return noSignal, err
		}
		entered2, err := it.enterContext(ctxVal, n.Line())
		if err != nil {
			return noSignal, err
		}
		opened = append(opened, entered{ctx: ctxVal})
		if item.Target != "" {
			bodyScope.Set(item.Target, entered2)
		}
	}
	return it.execBlock(n.Body, bodyScope)
}

func (it *Interp) execAssert(n *AssertStmt, sc Scope) error {
	cond, err := it.evalExpr(n.Cond, sc)
	if err != nil {
		return err
	}
	if truthy(cond) {
		return nil
	}
	msg := "assertion failed"
	if n.Msg != nil {
		mv, err := it.evalExpr(n.Msg, sc)
		if err != nil {
			return err
		}
		msg = fmt.Sprintf("%v", mv)
	}
	return &GuestException{Kind: "AssertionError", Msg: msg, Line: n.Line()}
}

// assign dispatches an assignment target: a name, a tuple (destructuring),
// an attribute, or a subscript.
func (it *Interp) assign(target Expr, v Value, sc Scope) error {
	switch t := target.(type) {
	case *NameExpr:
		sc.Set(t.Name, v)
		return nil
	case *TupleExpr:
		items, err := iterate(v, t.Line())
		if err != nil {
			return evalErrf(t.Line(), "cannot unpack non-iterable value for assignment")
		}
		if len(items) != len(t.Elts) {
			return evalErrf(t.Line(), "expected %d values to unpack, but got %d", len(t.Elts), len(items))
		}
		for i, elt := range t.Elts {
			if err := it.assign(elt, items[i], sc); err != nil {
				return err
			}
		}
		return nil
	case *AttributeExpr:
		obj, err := it.evalExpr(t.X, sc)
		if err != nil {
			return err
		}
		return it.setAttr(obj, t.Attr, v, t.Line())
	case *SubscriptExpr:
		obj, err := it.evalExpr(t.X, sc)
		if err != nil {
			return err
		}
		idx, err := it.evalIndexOrSlice(t.Index, sc)
		if err != nil {
			return err
		}
		return setSubscript(obj, idx, v, t.Line())
	default:
		return evalErrf(target.Line(), "assignment target must be a name, tuple, attribute, or subscript")
	}
}

// leadingDocstring returns a task function's declared docstring: a bare
// string-literal expression statement as the first statement of its body,
// the same convention Python uses. A task with no such statement has no
// docstring; the loop falls back to the function's bare name.
func leadingDocstring(body []Stmt) string {
	if len(body) == 0 {
		return ""
	}
	es, ok := body[0].(*ExprStmt)
	if !ok {
		return ""
	}
	se, ok := es.X.(*StringExpr)
	if !ok {
		return ""
	}
	return se.Value
}

func (it *Interp) currentStore(sc Scope) state.State {
	if ss, ok := sc.(*stateScope); ok {
		return ss.store
	}
	return it.store
}

// scopeOver layers a child Scope (for `with` block locals) on top of the
// enclosing scope, the same fallback structure a frame gives a function.
func scopeOver(parent Scope, localStore Scope) Scope {
	return &frame{locals: map[string]Value{}, closure: chainScope{local: localStore, parent: parent}}
}

// chainScope reads from local first, then parent; writes to local only.
type chainScope struct {
	local  Scope
	parent Scope
}

func (c chainScope) Get(name string) (Value, bool) {
	if v, ok := c.local.Get(name); ok {
		return v, true
	}
	return c.parent.Get(name)
}
func (c chainScope) Set(name string, v Value) { c.local.Set(name, v) }
