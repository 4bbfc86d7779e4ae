// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import "strings"

// stringMethod, listMethod, dictMethod, and setMethod implement the static
// whitelist of built-in container/scalar methods the sandbox exposes.
// Unlike registry-gated host objects, these never need a policy check:
// they operate purely on sandbox-native values, so there's nothing to
// escape through them.

func stringMethod(s string, name string, line int) (Value, error) {
	wrap := func(fn func(args []Value) (Value, error)) *NativeFunction {
		return &NativeFunction{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) { return fn(args) }}
	}
	switch name {
	case "upper":
		return wrap(func(args []Value) (Value, error) { return strings.ToUpper(s), nil }), nil
	case "lower":
		return wrap(func(args []Value) (Value, error) { return strings.ToLower(s), nil }), nil
	case "strip":
		return wrap(func(args []Value) (Value, error) { return strings.TrimSpace(s), nil }), nil
	case "lstrip":
		return wrap(func(args []Value) (Value, error) { return strings.TrimLeft(s, " \t\n\r"), nil }), nil
	case "rstrip":
		return wrap(func(args []Value) (Value, error) { return strings.TrimRight(s, " \t\n\r"), nil }), nil
	case "split":
		return wrap(func(args []Value) (Value, error) {
			sep := ""
			if len(args) > 0 {
				sep, _ = args[0].(string)
			}
			var parts []string
			if sep == "" {
				parts = strings.Fields(s)
			} else {
				parts = strings.Split(s, sep)
			}
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return &List{Items: out}, nil
		}), nil
	case "join":
		return wrap(func(args []Value) (Value, error) {
			items, err := iterate(args[0], line)
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, it := range items {
				str, ok := it.(string)
				if !ok {
					return nil, raiseErr(line, "TypeError", "sequence item %d: expected str instance, %s found", i, typeName(it))
				}
				parts[i] = str
			}
			return strings.Join(parts, s), nil
		}), nil
	case "replace":
		return wrap(func(args []Value) (Value, error) {
			old, _ := args[0].(string)
			newS, _ := args[1].(string)
			return strings.ReplaceAll(s, old, newS), nil
		}), nil
	case "startswith":
		return wrap(func(args []Value) (Value, error) {
			prefix, _ := args[0].(string)
			return strings.HasPrefix(s, prefix), nil
		}), nil
	case "endswith":
		return wrap(func(args []Value) (Value, error) {
			suffix, _ := args[0].(string)
			return strings.HasSuffix(s, suffix), nil
		}), nil
	case "find":
		return wrap(func(args []Value) (Value, error) {
			sub, _ := args[0].(string)
			return int64(strings.Index(s, sub)), nil
		}), nil
	case "count":
		return wrap(func(args []Value) (Value, error) {
			sub, _ := args[0].(string)
			return int64(strings.Count(s, sub)), nil
		}), nil
	case "title":
		return wrap(func(args []Value) (Value, error) { return strings.Title(s), nil }), nil
	case "capitalize":
		return wrap(func(args []Value) (Value, error) {
			if s == "" {
				return s, nil
			}
			return strings.ToUpper(s[:1]) + strings.ToLower(s[1:]), nil
		}), nil
	case "format":
		return wrap(func(args []Value) (Value, error) {
			return nil, raiseErr(line, "AgexError", "format string attribute access is restricted; use an f-string instead")
		}), nil
	}
	return nil, raiseErr(line, "AttributeError", "'str' object has no attribute '%s'", name)
}

func listMethod(l *List, name string, line int) (Value, error) {
	wrap := func(fn func(args []Value) (Value, error)) *NativeFunction {
		return &NativeFunction{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) { return fn(args) }}
	}
	switch name {
	case "append":
		return wrap(func(args []Value) (Value, error) {
			l.Items = append(l.Items, args[0])
			return nil, nil
		}), nil
	case "extend":
		return wrap(func(args []Value) (Value, error) {
			items, err := iterate(args[0], line)
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, items...)
			return nil, nil
		}), nil
	case "insert":
		return wrap(func(args []Value) (Value, error) {
			i, _ := args[0].(int64)
			idx := clampIndex(int(i), len(l.Items))
			l.Items = append(l.Items[:idx], append([]Value{args[1]}, l.Items[idx:]...)...)
			return nil, nil
		}), nil
	case "pop":
		return wrap(func(args []Value) (Value, error) {
			if len(l.Items) == 0 {
				return nil, raiseErr(line, "IndexError", "pop from empty list")
			}
			idx := len(l.Items) - 1
			if len(args) > 0 {
				i, _ := args[0].(int64)
				idx = int(i)
				if idx < 0 {
					idx += len(l.Items)
				}
			}
			if idx < 0 || idx >= len(l.Items) {
				return nil, raiseErr(line, "IndexError", "pop index out of range")
			}
			v := l.Items[idx]
			l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
			return v, nil
		}), nil
	case "remove":
		return wrap(func(args []Value) (Value, error) {
			for i, v := range l.Items {
				if valuesEqual(v, args[0]) {
					l.Items = append(l.Items[:i], l.Items[i+1:]...)
					return nil, nil
				}
			}
			return nil, raiseErr(line, "ValueError", "list.remove(x): x not in list")
		}), nil
	case "index":
		return wrap(func(args []Value) (Value, error) {
			for i, v := range l.Items {
				if valuesEqual(v, args[0]) {
					return int64(i), nil
				}
			}
			return nil, raiseErr(line, "ValueError", "%v is not in list", args[0])
		}), nil
	case "count":
		return wrap(func(args []Value) (Value, error) {
			n := int64(0)
			for _, v := range l.Items {
				if valuesEqual(v, args[0]) {
					n++
				}
			}
			return n, nil
		}), nil
	case "sort":
		return wrap(func(args []Value) (Value, error) {
			sorted, err := biSorted([]Value{l}, map[string]Value{})
			if err != nil {
				return nil, err
			}
			l.Items = sorted.(*List).Items
			return nil, nil
		}), nil
	case "reverse":
		return wrap(func(args []Value) (Value, error) {
			for i, j := 0, len(l.Items)-1; i < j; i, j = i+1, j-1 {
				l.Items[i], l.Items[j] = l.Items[j], l.Items[i]
			}
			return nil, nil
		}), nil
	case "clear":
		return wrap(func(args []Value) (Value, error) {
			l.Items = nil
			return nil, nil
		}), nil
	case "copy":
		return wrap(func(args []Value) (Value, error) {
			return &List{Items: append([]Value{}, l.Items...)}, nil
		}), nil
	}
	return nil, raiseErr(line, "AttributeError", "'list' object has no attribute '%s'", name)
}

func dictMethod(d *Dict, name string, line int) (Value, error) {
	wrap := func(fn func(args []Value) (Value, error)) *NativeFunction {
		return &NativeFunction{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) { return fn(args) }}
	}
	switch name {
	case "get":
		return wrap(func(args []Value) (Value, error) {
			v, ok := d.Get(args[0])
			if ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, nil
		}), nil
	case "keys":
		return wrap(func(args []Value) (Value, error) { return &List{Items: d.Keys()}, nil }), nil
	case "values":
		return wrap(func(args []Value) (Value, error) { return &List{Items: d.Values()}, nil }), nil
	case "items":
		return wrap(func(args []Value) (Value, error) {
			var out []Value
			for pair := d.Oldest(); pair != nil; pair = pair.Next() {
				out = append(out, &Tuple{Items: []Value{pair.Key, pair.Value}})
			}
			return &List{Items: out}, nil
		}), nil
	case "pop":
		return wrap(func(args []Value) (Value, error) {
			v, ok := d.Get(args[0])
			if !ok {
				if len(args) > 1 {
					return args[1], nil
				}
				return nil, raiseErr(line, "KeyError", "%v", args[0])
			}
			d.Delete(args[0])
			return v, nil
		}), nil
	case "update":
		return wrap(func(args []Value) (Value, error) {
			other, ok := args[0].(*Dict)
			if !ok {
				return nil, raiseErr(line, "TypeError", "update() argument must be a dict")
			}
			for _, k := range other.Keys() {
				v, _ := other.Get(k)
				d.Set(k, v)
			}
			return nil, nil
		}), nil
	case "setdefault":
		return wrap(func(args []Value) (Value, error) {
			if v, ok := d.Get(args[0]); ok {
				return v, nil
			}
			var def Value
			if len(args) > 1 {
				def = args[1]
			}
			d.Set(args[0], def)
			return def, nil
		}), nil
	}
	return nil, raiseErr(line, "AttributeError", "'dict' object has no attribute '%s'", name)
}

func setMethod(s *Set, name string, line int) (Value, error) {
	wrap := func(fn func(args []Value) (Value, error)) *NativeFunction {
		return &NativeFunction{Name: name, Fn: func(args []Value, _ map[string]Value) (Value, error) { return fn(args) }}
	}
	switch name {
	case "add":
		return wrap(func(args []Value) (Value, error) { s.Add(args[0]); return nil, nil }), nil
	case "remove":
		return wrap(func(args []Value) (Value, error) {
			if !s.Remove(args[0]) {
				return nil, raiseErr(line, "KeyError", "%v", args[0])
			}
			return nil, nil
		}), nil
	case "discard":
		return wrap(func(args []Value) (Value, error) { s.Remove(args[0]); return nil, nil }), nil
	case "union":
		return wrap(func(args []Value) (Value, error) {
			out := NewSet()
			for _, v := range s.Items() {
				out.Add(v)
			}
			other, ok := args[0].(*Set)
			if ok {
				for _, v := range other.Items() {
					out.Add(v)
				}
			}
			return out, nil
		}), nil
	case "intersection":
		return wrap(func(args []Value) (Value, error) {
			other, ok := args[0].(*Set)
			out := NewSet()
			if !ok {
				return out, nil
			}
			for _, v := range s.Items() {
				if other.Contains(v) {
					out.Add(v)
				}
			}
			return out, nil
		}), nil
	case "difference":
		return wrap(func(args []Value) (Value, error) {
			other, ok := args[0].(*Set)
			out := NewSet()
			for _, v := range s.Items() {
				if !ok || !other.Contains(v) {
					out.Add(v)
				}
			}
			return out, nil
		}), nil
	}
	return nil, raiseErr(line, "AttributeError", "'set' object has no attribute '%s'", name)
}
