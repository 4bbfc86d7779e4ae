// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/agexrun/agex/policy"
)

// Value is anything a guest program can hold: nil, bool, int64, float64,
// string, *List, *Dict, *Set, *Tuple, a callable, or a user object.
// Go has no sum type that fits every case cheaply, so resolution happens
// through type switches at the handful of call sites that need it rather
// than through a tagged wrapper.
type Value = any

// List is a mutable, ordered sequence. Tuple reuses the same backing slice
// type but is treated as immutable by the interpreter.
type List struct {
	Items []Value
}

type Tuple struct {
	Items []Value
}

// Dict preserves insertion order, matching a guest's expectation that
// dict iteration order follows insertion (as it does in modern Python).
type Dict struct {
	m *orderedmap.OrderedMap[Value, Value]
}

func NewDict() *Dict {
	return &Dict{m: orderedmap.New[Value, Value]()}
}

func (d *Dict) Get(key Value) (Value, bool)   { return d.m.Get(key) }
func (d *Dict) Set(key, value Value)          { d.m.Set(key, value) }
func (d *Dict) Delete(key Value) bool         { _, ok := d.m.Delete(key); return ok }
func (d *Dict) Len() int                      { return d.m.Len() }
func (d *Dict) Oldest() *orderedmap.Pair[Value, Value] { return d.m.Oldest() }

func (d *Dict) Keys() []Value {
	out := make([]Value, 0, d.m.Len())
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (d *Dict) Values() []Value {
	out := make([]Value, 0, d.m.Len())
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Set is a guest `set`, backed by an ordered map of member to struct{} so
// iteration order matches insertion, which keeps output deterministic for
// rendering and testing.
type Set struct {
	m *orderedmap.OrderedMap[Value, struct{}]
}

func NewSet() *Set { return &Set{m: orderedmap.New[Value, struct{}]()} }

func (s *Set) Add(v Value)          { s.m.Set(v, struct{}{}) }
func (s *Set) Contains(v Value) bool { _, ok := s.m.Get(v); return ok }
func (s *Set) Remove(v Value) bool  { _, ok := s.m.Delete(v); return ok }
func (s *Set) Len() int             { return s.m.Len() }
func (s *Set) Items() []Value {
	out := make([]Value, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Callable is anything invocable from guest code.
type Callable interface {
	Call(it *Interp, args []Value, kwargs map[string]Value) (Value, error)
}

// NativeFunction wraps a host Go function registered into the agent's
// module namespace.
type NativeFunction struct {
	Name string
	Fn   func(args []Value, kwargs map[string]Value) (Value, error)
}

func (f *NativeFunction) Call(it *Interp, args []Value, kwargs map[string]Value) (Value, error) {
	return f.Fn(args, kwargs)
}

// UserFunction is a function or lambda defined in guest code, closing over
// the environment active at definition time. TaskNamespace is non-empty
// when the function was declared with the task decorator; dispatch then
// routes through the owning agent's task loop instead of executing Body.
type UserFunction struct {
	Name          string
	Params        []Param
	Body          []Stmt
	Closure       Scope
	TaskNamespace string
	TaskDocstring string
}

func (f *UserFunction) Call(it *Interp, args []Value, kwargs map[string]Value) (Value, error) {
	if f.TaskNamespace != "" {
		return it.runTask(f, args, kwargs)
	}
	return it.callUserFunction(f, args, kwargs, nil)
}

// AgexMethod binds a UserFunction to an instance as its implicit first
// argument, the way a bound Python method binds `self`.
type AgexMethod struct {
	Instance *AgexInstance
	Function *UserFunction
}

func (m *AgexMethod) Call(it *Interp, args []Value, kwargs map[string]Value) (Value, error) {
	full := append([]Value{m.Instance}, args...)
	return it.callUserFunction(m.Function, full, kwargs, nil)
}

// AgexClass is a user-defined class value with a method table. The `class`
// statement does not build one (it builds an [AgexDataClass]), and nothing
// in this package constructs an AgexClass.
type AgexClass struct {
	Name    string
	Methods map[string]*UserFunction
}

func (c *AgexClass) Call(it *Interp, args []Value, kwargs map[string]Value) (Value, error) {
	inst := &AgexInstance{Cls: c, Attributes: map[string]Value{}}
	if init, ok := c.Methods["__init__"]; ok {
		if _, err := (&AgexMethod{Instance: inst, Function: init}).Call(it, args, kwargs); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (c *AgexClass) String() string { return fmt.Sprintf("<class '%s'>", c.Name) }

// AgexInstance is an instance of a user-defined AgexClass.
type AgexInstance struct {
	Cls        *AgexClass
	Attributes map[string]Value
}

func (o *AgexInstance) String() string { return fmt.Sprintf("<%s object>", o.Cls.Name) }

func (o *AgexInstance) GetAttr(name string) (Value, error) {
	if v, ok := o.Attributes[name]; ok {
		return v, nil
	}
	if fn, ok := o.Cls.Methods[name]; ok {
		return &AgexMethod{Instance: o, Function: fn}, nil
	}
	return nil, raiseErr(0, "AttributeError", "'%s' object has no attribute '%s'", o.Cls.Name, name)
}

func (o *AgexInstance) SetAttr(name string, v Value) { o.Attributes[name] = v }

// AgexDataClass is a flat-dataclass definition: a callable factory that
// binds positional and keyword arguments to a fixed set of named fields,
// producing an AgexObject whose attribute set can't grow past those fields.
type AgexDataClass struct {
	Name   string
	Fields []Param
}

func (d *AgexDataClass) Call(it *Interp, args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) > len(d.Fields) {
		return nil, raiseErr(0, "TypeError", "%s() takes %d positional arguments but %d were given", d.Name, len(d.Fields), len(args))
	}
	bound := map[string]Value{}
	remaining := map[string]Value{}
	for k, v := range kwargs {
		remaining[k] = v
	}
	for i, f := range d.Fields {
		switch {
		case i < len(args):
			if _, dup := remaining[f.Name]; dup {
				return nil, raiseErr(0, "TypeError", "%s() got multiple values for argument '%s'", d.Name, f.Name)
			}
			bound[f.Name] = args[i]
		case hasKey(remaining, f.Name):
			bound[f.Name] = remaining[f.Name]
			delete(remaining, f.Name)
		case f.Default != nil:
			v, err := it.evalExpr(f.Default, it.moduleScope)
			if err != nil {
				return nil, err
			}
			bound[f.Name] = v
		default:
			return nil, raiseErr(0, "TypeError", "%s() missing required positional argument: '%s'", d.Name, f.Name)
		}
	}
	if len(remaining) > 0 {
		for k := range remaining {
			return nil, raiseErr(0, "TypeError", "%s() got an unexpected keyword argument '%s'", d.Name, k)
		}
	}
	return &AgexObject{Cls: d, Attributes: bound}, nil
}

func hasKey(m map[string]Value, k string) bool { _, ok := m[k]; return ok }

// AgexObject is an instance of an AgexDataClass: a flat, fixed-shape record.
type AgexObject struct {
	Cls        *AgexDataClass
	Attributes map[string]Value
}

func (o *AgexObject) String() string {
	var sb strings.Builder
	sb.WriteString(o.Cls.Name)
	sb.WriteByte('(')
	for i, f := range o.Cls.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", f.Name, o.Attributes[f.Name])
	}
	sb.WriteByte(')')
	return sb.String()
}

func (o *AgexObject) GetAttr(name string) (Value, error) {
	if v, ok := o.Attributes[name]; ok {
		return v, nil
	}
	return nil, raiseErr(0, "AttributeError", "'%s' object has no attribute '%s'", o.Cls.Name, name)
}

func (o *AgexObject) SetAttr(name string, v Value) error {
	found := false
	for _, f := range o.Cls.Fields {
		if f.Name == name {
			found = true
			break
		}
	}
	if !found {
		return raiseErr(0, "AttributeError", "'%s' object has no attribute '%s' (cannot add new attributes)", o.Cls.Name, name)
	}
	o.Attributes[name] = v
	return nil
}

// AgexModule is a sandboxed proxy over a registered module namespace;
// attribute access is resolved lazily against the policy registry rather
// than eagerly snapshotted, so registry updates after module creation are
// still honored.
type AgexModule struct {
	ModuleName string
}

func (m *AgexModule) String() string { return fmt.Sprintf("<module '%s'>", m.ModuleName) }

// BoundInstanceObject proxies a live host object registered with the agent,
// exposing only the methods and properties the policy allows.
type BoundInstanceObject struct {
	Name   string
	Entry  *policy.InstanceEntry
	Host   any
}

func (o *BoundInstanceObject) String() string { return fmt.Sprintf("<live_object '%s'>", o.Name) }

// BoundInstanceMethod proxies a single allowed method on a live host object.
type BoundInstanceMethod struct {
	Owner      *BoundInstanceObject
	MethodName string
}

func (m *BoundInstanceMethod) Call(it *Interp, args []Value, kwargs map[string]Value) (Value, error) {
	return it.callHostMethod(m.Owner, m.MethodName, args, kwargs)
}
