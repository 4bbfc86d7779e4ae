// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// builtins is the sandbox's global namespace, checked before the active
// scope and before any registry-backed name so a guest program can never
// shadow `len` or `range` with a registered capability of the same name.
var builtins map[string]*NativeFunction

// statefulBuiltins need the evaluator itself (print writes to captured
// stdout; the task_* family raises AgentExit signals), so they're wired
// directly against call sites in calls.go rather than through the plain
// NativeFunction calling convention.
var statefulBuiltins map[string]func(it *Interp, args []Value, kwargs map[string]Value) (Value, error)

func init() {
	builtins = map[string]*NativeFunction{
		"len":      {Name: "len", Fn: biLen},
		"range":    {Name: "range", Fn: biRange},
		"str":      {Name: "str", Fn: biStr},
		"int":      {Name: "int", Fn: biInt},
		"float":    {Name: "float", Fn: biFloat},
		"bool":     {Name: "bool", Fn: biBool},
		"list":     {Name: "list", Fn: biList},
		"dict":     {Name: "dict", Fn: biDict},
		"set":      {Name: "set", Fn: biSet},
		"tuple":    {Name: "tuple", Fn: biTuple},
		"abs":      {Name: "abs", Fn: biAbs},
		"min":      {Name: "min", Fn: biMin},
		"max":      {Name: "max", Fn: biMax},
		"sum":      {Name: "sum", Fn: biSum},
		"sorted":   {Name: "sorted", Fn: biSorted},
		"reversed": {Name: "reversed", Fn: biReversed},
		"enumerate": {Name: "enumerate", Fn: biEnumerate},
		"zip":      {Name: "zip", Fn: biZip},
		"isinstance": {Name: "isinstance", Fn: biIsInstance},
		"type":     {Name: "type", Fn: biType},
		"all":      {Name: "all", Fn: biAll},
		"any":      {Name: "any", Fn: biAny},
		"round":    {Name: "round", Fn: biRound},
		"hasattr":  {Name: "hasattr", Fn: biHasAttr},
	}
	statefulBuiltins = map[string]func(it *Interp, args []Value, kwargs map[string]Value) (Value, error){
		"print":         biPrint,
		"task_success":  biTaskSuccess,
		"task_fail":     biTaskFail,
		"task_clarify":  biTaskClarify,
		"task_continue": biTaskContinue,
	}
	exceptionClasses = map[string]*ExceptionClass{}
	for _, kind := range []string{
		"Exception", "ValueError", "TypeError", "KeyError", "IndexError",
		"AttributeError", "NameError", "ZeroDivisionError", "ArithmeticError",
		"AssertionError", "StopIteration",
	} {
		exceptionClasses[kind] = &ExceptionClass{Kind: kind}
	}
}

// exceptionClasses backs resolveName's builtin lookup for the exception
// names guest code can both raise-by-name (the bare identifier in an
// `except` clause) and construct directly, e.g. `raise ValueError("bad")`.
var exceptionClasses map[string]*ExceptionClass

func biLen(args []Value, _ map[string]Value) (Value, error) {
	if len(args) != 1 {
		return nil, raiseErr(0, "TypeError", "len() takes exactly one argument (%d given)", len(args))
	}
	switch v := args[0].(type) {
	case string:
		return int64(len([]rune(v))), nil
	case *List:
		return int64(len(v.Items)), nil
	case *Tuple:
		return int64(len(v.Items)), nil
	case *Dict:
		return int64(v.Len()), nil
	case *Set:
		return int64(v.Len()), nil
	}
	return nil, raiseErr(0, "TypeError", "object of type '%s' has no len()", typeName(args[0]))
}

func biRange(args []Value, _ map[string]Value) (Value, error) {
	ints := make([]int64, len(args))
	for i, a := range args {
		v, ok := a.(int64)
		if !ok {
			return nil, raiseErr(0, "TypeError", "'%s' object cannot be interpreted as an integer", typeName(a))
		}
		ints[i] = v
	}
	switch len(ints) {
	case 1:
		return newRange(0, ints[0], 1), nil
	case 2:
		return newRange(ints[0], ints[1], 1), nil
	case 3:
		if ints[2] == 0 {
			return nil, raiseErr(0, "ValueError", "range() arg 3 must not be zero")
		}
		return newRange(ints[0], ints[1], ints[2]), nil
	}
	return nil, raiseErr(0, "TypeError", "range expected 1 to 3 arguments, got %d", len(args))
}

func biStr(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return "", nil
	}
	return pyRepr(args[0], false), nil
}

func biInt(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return int64(0), nil
	}
	switch v := args[0].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, raiseErr(0, "ValueError", "invalid literal for int() with base 10: '%s'", v)
		}
		return n, nil
	}
	return nil, raiseErr(0, "TypeError", "int() argument must be a string or a number, not '%s'", typeName(args[0]))
}

func biFloat(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return float64(0), nil
	}
	switch v := args[0].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, raiseErr(0, "ValueError", "could not convert string to float: '%s'", v)
		}
		return f, nil
	}
	return nil, raiseErr(0, "TypeError", "float() argument must be a string or a number, not '%s'", typeName(args[0]))
}

func biBool(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return false, nil
	}
	return truthy(args[0]), nil
}

func biList(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return &List{}, nil
	}
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	return &List{Items: append([]Value{}, items...)}, nil
}

func biTuple(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return &Tuple{}, nil
	}
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	return &Tuple{Items: append([]Value{}, items...)}, nil
}

func biSet(args []Value, _ map[string]Value) (Value, error) {
	s := NewSet()
	if len(args) == 0 {
		return s, nil
	}
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	for _, v := range items {
		s.Add(v)
	}
	return s, nil
}

func biDict(args []Value, kwargs map[string]Value) (Value, error) {
	d := NewDict()
	if len(args) == 1 {
		if src, ok := args[0].(*Dict); ok {
			for _, k := range src.Keys() {
				v, _ := src.Get(k)
				d.Set(k, v)
			}
		}
	}
	for k, v := range kwargs {
		d.Set(k, v)
	}
	return d, nil
}

func biAbs(args []Value, _ map[string]Value) (Value, error) {
	if len(args) != 1 {
		return nil, raiseErr(0, "TypeError", "abs() takes exactly one argument")
	}
	switch v := args[0].(type) {
	case int64:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case float64:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	}
	return nil, raiseErr(0, "TypeError", "bad operand type for abs(): '%s'", typeName(args[0]))
}

func biMin(args []Value, _ map[string]Value) (Value, error) { return extremum(args, true) }
func biMax(args []Value, _ map[string]Value) (Value, error) { return extremum(args, false) }

func extremum(args []Value, wantMin bool) (Value, error) {
	items := args
	if len(args) == 1 {
		var err error
		items, err = iterate(args[0], 0)
		if err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		name := "max"
		if wantMin {
			name = "min"
		}
		return nil, raiseErr(0, "ValueError", "%s() arg is an empty sequence", name)
	}
	best := items[0]
	for _, v := range items[1:] {
		ok, err := compareOne("<", v, best, 0)
		if err != nil {
			return nil, err
		}
		if ok == wantMin {
			best = v
		}
	}
	return best, nil
}

func biSum(args []Value, _ map[string]Value) (Value, error) {
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	var start Value = int64(0)
	if len(args) > 1 {
		start = args[1]
	}
	acc := start
	for _, v := range items {
		acc, err = applyBinOp("+", acc, v, 0)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func biSorted(args []Value, kwargs map[string]Value) (Value, error) {
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	out := append([]Value{}, items...)
	reverse := truthy(kwargs["reverse"])
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		ok, err := compareOne("<", out[i], out[j], 0)
		if err != nil {
			sortErr = err
		}
		if reverse {
			return !ok
		}
		return ok
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &List{Items: out}, nil
}

func biReversed(args []Value, _ map[string]Value) (Value, error) {
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return &List{Items: out}, nil
}

func biEnumerate(args []Value, kwargs map[string]Value) (Value, error) {
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	start := int64(0)
	if s, ok := kwargs["start"]; ok {
		start, _ = s.(int64)
	}
	out := make([]Value, len(items))
	for i, v := range items {
		out[i] = &Tuple{Items: []Value{start + int64(i), v}}
	}
	return &List{Items: out}, nil
}

func biZip(args []Value, _ map[string]Value) (Value, error) {
	var seqs [][]Value
	minLen := -1
	for _, a := range args {
		items, err := iterate(a, 0)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, items)
		if minLen == -1 || len(items) < minLen {
			minLen = len(items)
		}
	}
	if minLen < 0 {
		minLen = 0
	}
	out := make([]Value, minLen)
	for i := 0; i < minLen; i++ {
		row := make([]Value, len(seqs))
		for j, s := range seqs {
			row[j] = s[i]
		}
		out[i] = &Tuple{Items: row}
	}
	return &List{Items: out}, nil
}

func biIsInstance(args []Value, _ map[string]Value) (Value, error) {
	if len(args) != 2 {
		return nil, raiseErr(0, "TypeError", "isinstance() takes exactly 2 arguments")
	}
	wantName, ok := args[1].(string)
	if !ok {
		return nil, raiseErr(0, "TypeError", "isinstance() arg 2 must be a type name")
	}
	return typeName(args[0]) == wantName, nil
}

func biType(args []Value, _ map[string]Value) (Value, error) {
	if len(args) != 1 {
		return nil, raiseErr(0, "TypeError", "type() takes exactly one argument")
	}
	return typeName(args[0]), nil
}

func biAll(args []Value, _ map[string]Value) (Value, error) {
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	for _, v := range items {
		if !truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func biAny(args []Value, _ map[string]Value) (Value, error) {
	items, err := iterate(args[0], 0)
	if err != nil {
		return nil, err
	}
	for _, v := range items {
		if truthy(v) {
			return true, nil
		}
	}
	return false, nil
}

func biRound(args []Value, _ map[string]Value) (Value, error) {
	f, ok := asFloat(args[0])
	if !ok {
		return nil, raiseErr(0, "TypeError", "type %s doesn't define __round__ method", typeName(args[0]))
	}
	if len(args) > 1 {
		n, _ := args[1].(int64)
		mult := pow10(n)
		return roundHalfEven(f*mult) / mult, nil
	}
	return int64(roundHalfEven(f)), nil
}

func pow10(n int64) float64 {
	r := 1.0
	for i := int64(0); i < n; i++ {
		r *= 10
	}
	return r
}

func roundHalfEven(f float64) float64 {
	floor := float64(int64(f))
	if floor > f {
		floor--
	}
	diff := f - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if int64(floor)%2 == 0 {
			return floor
		}
		return floor + 1
	}
}

func biHasAttr(args []Value, _ map[string]Value) (Value, error) {
	if len(args) != 2 {
		return nil, raiseErr(0, "TypeError", "hasattr() takes exactly 2 arguments")
	}
	name, ok := args[1].(string)
	if !ok {
		return false, nil
	}
	switch o := args[0].(type) {
	case *AgexInstance:
		_, err := o.GetAttr(name)
		return err == nil, nil
	case *AgexObject:
		_, err := o.GetAttr(name)
		return err == nil, nil
	}
	return false, nil
}

func biPrint(it *Interp, args []Value, kwargs map[string]Value) (Value, error) {
	sep := " "
	if s, ok := kwargs["sep"].(string); ok {
		sep = s
	}
	end := "\n"
	if e, ok := kwargs["end"].(string); ok {
		end = e
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatValue(a)
	}
	it.stdout.WriteString(strings.Join(parts, sep))
	it.stdout.WriteString(end)
	return nil, nil
}

func biTaskSuccess(it *Interp, args []Value, _ map[string]Value) (Value, error) {
	var result Value
	if len(args) > 0 {
		result = args[0]
	}
	return nil, &TaskSuccess{Result: result}
}

func biTaskFail(it *Interp, args []Value, _ map[string]Value) (Value, error) {
	msg := ""
	if len(args) > 0 {
		msg = formatValue(args[0])
	}
	return nil, &TaskFail{Message: msg}
}

func biTaskClarify(it *Interp, args []Value, _ map[string]Value) (Value, error) {
	msg := ""
	if len(args) > 0 {
		msg = formatValue(args[0])
	}
	return nil, &TaskClarify{Message: msg}
}

func biTaskContinue(it *Interp, args []Value, _ map[string]Value) (Value, error) {
	note := ""
	if len(args) > 0 {
		note = formatValue(args[0])
	}
	return nil, &TaskContinue{Note: note}
}

// Repr renders a sandbox value the way `repr()` would, for callers outside
// this package that need to show a guest value compactly (the renderer's
// state-diff and stdout rendering, spec §4.4).
func Repr(v Value) string { return pyRepr(v, true) }

// pyRepr renders a value the way `str()` (quoted=false) or `repr()`
// (quoted=true) would.
func pyRepr(v Value, quoted bool) string {
	switch x := v.(type) {
	case string:
		if quoted {
			return "'" + x + "'"
		}
		return x
	case *List:
		parts := make([]string, len(x.Items))
		for i, it := range x.Items {
			parts[i] = pyRepr(it, true)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Tuple:
		parts := make([]string, len(x.Items))
		for i, it := range x.Items {
			parts[i] = pyRepr(it, true)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *Dict:
		var parts []string
		for _, k := range x.Keys() {
			v, _ := x.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", pyRepr(k, true), pyRepr(v, true)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Set:
		var parts []string
		for _, it := range x.Items() {
			parts = append(parts, pyRepr(it, true))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return formatValue(v)
	}
}
