// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"fmt"
	"reflect"

	"github.com/agexrun/agex/policy"
)

// resolveName looks a name up in this order: builtins, builtin exception
// classes, the active scope (module state or a function's frame), then the
// registry's top-level names (functions, classes, instances, modules and
// constants, which never share a name).
func (it *Interp) resolveName(name string, sc Scope, line int) (Value, error) {
	if fn, ok := builtins[name]; ok {
		return fn, nil
	}
	if exc, ok := exceptionClasses[name]; ok {
		return exc, nil
	}
	if v, ok := sc.Get(name); ok {
		return v, nil
	}
	binding, ok := it.registry.ResolveName(name)
	if !ok {
		return nil, raiseErr(line, "NameError", "name '%s' is not defined. (forgot import?)", name)
	}
	switch b := binding.(type) {
	case policy.BuiltinValue:
		return b.Value, nil
	case policy.BoundFunction:
		return &NativeFunction{Name: name, Fn: it.reflectCaller(b.Entry)}, nil
	case policy.BoundClass:
		return it.classCaller(b.Entry), nil
	case policy.BoundInstance:
		host := it.hostObjects[name]
		return &BoundInstanceObject{Name: name, Entry: b.Entry, Host: host}, nil
	case policy.BoundModule:
		return &AgexModule{ModuleName: name}, nil
	}
	return nil, raiseErr(line, "NameError", "name '%s' is not defined. (forgot import?)", name)
}

func (it *Interp) resolveModuleMember(moduleName, member string, line int) (Value, error) {
	res, ok := it.registry.ResolveModuleMember(moduleName, member)
	if !ok {
		return nil, raiseErr(line, "AttributeError", "module '%s' has no attribute '%s'", moduleName, member)
	}
	switch r := res.(type) {
	case policy.ResolvedFunction:
		return &NativeFunction{Name: member, Fn: it.reflectCaller(r.Entry)}, nil
	case policy.ResolvedClass:
		return it.classCaller(r.Entry), nil
	case policy.ResolvedConstant:
		return r.Value, nil
	case policy.ResolvedModule:
		return &AgexModule{ModuleName: moduleName + "." + member}, nil
	}
	return nil, raiseErr(line, "AttributeError", "module '%s' has no attribute '%s'", moduleName, member)
}

// reflectCaller adapts a registered Go function to the sandbox calling
// convention: sandbox Values are converted positionally into the target's
// Go parameter types, and the call's error return (if present) is
// translated into a guest exception rather than a Go panic.
func (it *Interp) reflectCaller(entry *policy.FunctionEntry) func(args []Value, kwargs map[string]Value) (Value, error) {
	return func(args []Value, kwargs map[string]Value) (Value, error) {
		fv := reflect.ValueOf(entry.Fn)
		ft := fv.Type()
		if len(kwargs) > 0 {
			return nil, raiseErr(0, "TypeError", "%s() does not accept keyword arguments", entry.Name)
		}
		if ft.NumIn() != len(args) && !ft.IsVariadic() {
			return nil, raiseErr(0, "TypeError", "%s() takes %d positional arguments but %d were given", entry.Name, ft.NumIn(), len(args))
		}
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			want := ft.In(min(i, ft.NumIn()-1))
			conv, err := convertArg(a, want)
			if err != nil {
				return nil, raiseErr(0, "TypeError", "%s() argument %d: %s", entry.Name, i+1, err)
			}
			in[i] = conv
		}
		out := fv.Call(in)
		return reflectResultsToValue(out, entry.Name, 0)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func convertArg(v Value, want reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(want), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(want) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(want) {
		switch want.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Float32, reflect.Float64, reflect.String,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return rv.Convert(want), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("expected %s, got %s", want, typeName(v))
}

func reflectResultsToValue(out []reflect.Value, name string, line int) (Value, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type().Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		if !last.IsNil() {
			return nil, translateHostError(last.Interface().(error), line)
		}
		out = out[:len(out)-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		items := make([]Value, len(out))
		for i, v := range out {
			items[i] = v.Interface()
		}
		return &Tuple{Items: items}, nil
	}
}

func translateHostError(err error, line int) error {
	return &GuestException{Kind: "Exception", Msg: err.Error(), Line: line}
}

// classCaller adapts a registered class's constructor into a Callable the
// evaluator can invoke the same way it invokes any other callable.
func (it *Interp) classCaller(entry *policy.ClassEntry) *NativeFunction {
	return &NativeFunction{
		Name: entry.Name,
		Fn: func(args []Value, kwargs map[string]Value) (Value, error) {
			if entry.New == nil {
				return nil, raiseErr(0, "TypeError", "'%s' is not constructable", entry.Name)
			}
			fv := reflect.ValueOf(entry.New)
			ft := fv.Type()
			in := make([]reflect.Value, len(args))
			for i, a := range args {
				want := ft.In(min(i, ft.NumIn()-1))
				conv, err := convertArg(a, want)
				if err != nil {
					return nil, raiseErr(0, "TypeError", "%s(): %s", entry.Name, err)
				}
				in[i] = conv
			}
			out := fv.Call(in)
			return reflectResultsToValue(out, entry.Name, 0)
		},
	}
}

// --- Calling ---

func (it *Interp) evalCall(n *CallExpr, sc Scope) (Value, error) {
	args, err := it.evalExprList(n.Args, sc)
	if err != nil {
		return nil, err
	}
	kwargs := map[string]Value{}
	for k, ke := range n.Keywords {
		v, err := it.evalExpr(ke, sc)
		if err != nil {
			return nil, err
		}
		kwargs[k] = v
	}
	if name, ok := n.Func.(*NameExpr); ok {
		if sfn, ok := statefulBuiltins[name.Name]; ok {
			return sfn(it, args, kwargs)
		}
	}
	fnVal, err := it.evalExpr(n.Func, sc)
	if err != nil {
		return nil, err
	}
	callee, ok := fnVal.(Callable)
	if !ok {
		return nil, raiseErr(n.Line(), "TypeError", "'%s' object is not callable", typeName(fnVal))
	}
	return callee.Call(it, args, kwargs)
}

func (it *Interp) callUserFunction(fn *UserFunction, args []Value, kwargs map[string]Value, _ any) (Value, error) {
	fr := newFrame(fn.Closure)
	if err := it.bindArguments(fn.Name, fn.Params, args, kwargs, fr); err != nil {
		return nil, err
	}
	sig, err := it.execBlock(fn.Body, fr)
	if err != nil {
		return nil, err
	}
	if sig.kind == signalReturn {
		return sig.value, nil
	}
	return nil, nil
}

func (it *Interp) bindArguments(fnName string, params []Param, args []Value, kwargs map[string]Value, fr *frame) error {
	remaining := map[string]Value{}
	for k, v := range kwargs {
		remaining[k] = v
	}
	for i, p := range params {
		switch {
		case i < len(args):
			if _, dup := remaining[p.Name]; dup {
				return raiseErr(0, "TypeError", "%s() got multiple values for argument '%s'", fnName, p.Name)
			}
			fr.locals[p.Name] = args[i]
		case hasKey(remaining, p.Name):
			fr.locals[p.Name] = remaining[p.Name]
			delete(remaining, p.Name)
		case p.Default != nil:
			v, err := it.evalExpr(p.Default, fr.closure)
			if err != nil {
				return err
			}
			fr.locals[p.Name] = v
		default:
			return raiseErr(0, "TypeError", "%s() missing required positional argument: '%s'", fnName, p.Name)
		}
	}
	if len(args) > len(params) {
		return raiseErr(0, "TypeError", "%s() takes %d positional arguments but %d were given", fnName, len(params), len(args))
	}
	for k := range remaining {
		return raiseErr(0, "TypeError", "%s() got an unexpected keyword argument '%s'", fnName, k)
	}
	return nil
}

func (it *Interp) runTask(fn *UserFunction, args []Value, kwargs map[string]Value) (Value, error) {
	if it.taskRunner == nil {
		return nil, evalErrf(0, "task '%s' has no task runner configured", fn.Name)
	}
	return it.taskRunner.RunTask(it, fn.TaskNamespace, fn.TaskDocstring, fn.Params, args, kwargs)
}

// --- Live host instances ---

func (it *Interp) getBoundInstanceAttr(o *BoundInstanceObject, attr string, line int) (Value, error) {
	if !o.Entry.AttributeAllowed(attr) {
		return nil, raiseErr(line, "AttributeError", "'%s' object has no attribute '%s'", o.Name, attr)
	}
	rv := reflect.ValueOf(o.Host)
	if m := rv.MethodByName(attr); m.IsValid() {
		return &BoundInstanceMethod{Owner: o, MethodName: attr}, nil
	}
	fieldVal := reflect.Indirect(rv)
	if fieldVal.Kind() == reflect.Struct {
		if f := fieldVal.FieldByName(attr); f.IsValid() {
			return f.Interface(), nil
		}
	}
	return nil, raiseErr(line, "AttributeError", "'%s' object has no attribute '%s'", o.Name, attr)
}

func (it *Interp) callHostMethod(owner *BoundInstanceObject, methodName string, args []Value, kwargs map[string]Value) (Value, error) {
	if len(kwargs) > 0 {
		return nil, raiseErr(0, "TypeError", "%s() does not accept keyword arguments", methodName)
	}
	rv := reflect.ValueOf(owner.Host)
	m := rv.MethodByName(methodName)
	if !m.IsValid() {
		return nil, raiseErr(0, "AttributeError", "'%s' object has no attribute '%s'", owner.Name, methodName)
	}
	mt := m.Type()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := mt.In(min(i, mt.NumIn()-1))
		conv, err := convertArg(a, want)
		if err != nil {
			return nil, raiseErr(0, "TypeError", "%s(): %s", methodName, err)
		}
		in[i] = conv
	}
	out := m.Call(in)
	if n := len(out); n > 0 {
		if hostErr, ok := out[n-1].Interface().(error); ok && hostErr != nil {
			if kind := owner.Entry.TranslateException(hostErr); kind != "" {
				return nil, &GuestException{Kind: kind, Msg: hostErr.Error()}
			}
		}
	}
	v, err := reflectResultsToValue(out, methodName, 0)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// --- Context managers ---

func (it *Interp) enterContext(ctx Value, line int) (Value, error) {
	if o, ok := ctx.(*BoundInstanceObject); ok {
		rv := reflect.ValueOf(o.Host)
		if m := rv.MethodByName("Enter"); m.IsValid() {
			out := m.Call(nil)
			v, err := reflectResultsToValue(out, "Enter", line)
			if err != nil {
				return nil, err
			}
			return v, nil
		}
		return o, nil
	}
	return ctx, nil
}

func (it *Interp) exitContext(ctx Value, line int) {
	if o, ok := ctx.(*BoundInstanceObject); ok {
		rv := reflect.ValueOf(o.Host)
		if m := rv.MethodByName("Exit"); m.IsValid() {
			m.Call(nil)
		}
	}
}
