// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import "strings"

// iterate materializes any iterable guest value into a slice, since the
// interpreter always consumes an iterable eagerly (no generators in this
// grammar; base.py's generic_visit rejects `yield` outright).
func iterate(v Value, line int) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		return x.Items, nil
	case *Tuple:
		return x.Items, nil
	case *Set:
		return x.Items(), nil
	case *Dict:
		return x.Keys(), nil
	case string:
		out := make([]Value, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	case *rangeValue:
		return x.items(), nil
	}
	return nil, raiseErr(line, "TypeError", "'%s' object is not iterable", typeName(v))
}

// rangeValue is the lazily-describable result of range(); it materializes
// through iterate() the same as any other sequence.
type rangeValue struct {
	start, stop, step int64
}

func newRange(start, stop, step int64) *rangeValue {
	return &rangeValue{start: start, stop: stop, step: step}
}

func (r *rangeValue) items() []Value {
	var out []Value
	if r.step > 0 {
		for i := r.start; i < r.stop; i += r.step {
			out = append(out, i)
		}
	} else if r.step < 0 {
		for i := r.start; i > r.stop; i += r.step {
			out = append(out, i)
		}
	}
	return out
}

func (it *Interp) getAttr(obj Value, attr string, line int) (Value, error) {
	switch o := obj.(type) {
	case *AgexInstance:
		return o.GetAttr(attr)
	case *AgexObject:
		return o.GetAttr(attr)
	case *AgexModule:
		return it.resolveModuleMember(o.ModuleName, attr, line)
	case *BoundInstanceObject:
		return it.getBoundInstanceAttr(o, attr, line)
	case string:
		return stringMethod(o, attr, line)
	case *List:
		return listMethod(o, attr, line)
	case *Dict:
		return dictMethod(o, attr, line)
	case *Set:
		return setMethod(o, attr, line)
	}
	if obj != nil {
		if !it.registry.AttributeAllowed(obj, attr) {
			return nil, raiseErr(line, "AttributeError", "access to attribute '%s' is not permitted", attr)
		}
	}
	return nil, raiseErr(line, "AttributeError", "'%s' object has no attribute '%s'", typeName(obj), attr)
}

func (it *Interp) setAttr(obj Value, attr string, v Value, line int) error {
	switch o := obj.(type) {
	case *AgexInstance:
		o.SetAttr(attr, v)
		return nil
	case *AgexObject:
		return o.SetAttr(attr, v)
	}
	return raiseErr(line, "AttributeError", "'%s' object attributes cannot be set", typeName(obj))
}

func getSubscript(obj, idx Value, line int) (Value, error) {
	if sl, ok := idx.(*sliceIndex); ok {
		return applySlice(obj, sl, line)
	}
	switch o := obj.(type) {
	case *List:
		i, err := toIndex(idx, len(o.Items), line)
		if err != nil {
			return nil, err
		}
		return o.Items[i], nil
	case *Tuple:
		i, err := toIndex(idx, len(o.Items), line)
		if err != nil {
			return nil, err
		}
		return o.Items[i], nil
	case string:
		runes := []rune(o)
		i, err := toIndex(idx, len(runes), line)
		if err != nil {
			return nil, err
		}
		return string(runes[i]), nil
	case *Dict:
		v, ok := o.Get(idx)
		if !ok {
			return nil, raiseErr(line, "KeyError", "%v", idx)
		}
		return v, nil
	}
	return nil, raiseErr(line, "TypeError", "'%s' object is not subscriptable", typeName(obj))
}

func setSubscript(obj, idx, v Value, line int) error {
	switch o := obj.(type) {
	case *List:
		i, err := toIndex(idx, len(o.Items), line)
		if err != nil {
			return err
		}
		o.Items[i] = v
		return nil
	case *Dict:
		o.Set(idx, v)
		return nil
	}
	return raiseErr(line, "TypeError", "'%s' object does not support item assignment", typeName(obj))
}

func toIndex(idx Value, length, line int) (int, error) {
	i, ok := idx.(int64)
	if !ok {
		return 0, raiseErr(line, "TypeError", "indices must be integers, not %s", typeName(idx))
	}
	n := int(i)
	if n < 0 {
		n += length
	}
	if n < 0 || n >= length {
		return 0, raiseErr(line, "IndexError", "index out of range")
	}
	return n, nil
}

// sliceIndex is produced by evaluating a SliceExpr inside a subscript.
type sliceIndex struct {
	Lo, Hi, Step *int64
}

func applySlice(obj Value, sl *sliceIndex, line int) (Value, error) {
	switch o := obj.(type) {
	case *List:
		lo, hi, step := normalizeSlice(sl, len(o.Items))
		return &List{Items: sliceItems(o.Items, lo, hi, step)}, nil
	case *Tuple:
		lo, hi, step := normalizeSlice(sl, len(o.Items))
		return &Tuple{Items: sliceItems(o.Items, lo, hi, step)}, nil
	case string:
		runes := []rune(o)
		lo, hi, step := normalizeSlice(sl, len(runes))
		var sb strings.Builder
		for i := lo; (step > 0 && i < hi) || (step < 0 && i > hi); i += step {
			sb.WriteRune(runes[i])
		}
		return sb.String(), nil
	}
	return nil, raiseErr(line, "TypeError", "'%s' object is not subscriptable", typeName(obj))
}

func normalizeSlice(sl *sliceIndex, length int) (lo, hi, step int) {
	step = 1
	if sl.Step != nil {
		step = int(*sl.Step)
	}
	if step > 0 {
		lo, hi = 0, length
	} else {
		lo, hi = length-1, -1
	}
	if sl.Lo != nil {
		lo = clampIndex(int(*sl.Lo), length)
	}
	if sl.Hi != nil {
		hi = clampIndex(int(*sl.Hi), length)
	}
	return
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}

func sliceItems(items []Value, lo, hi, step int) []Value {
	var out []Value
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, items[i])
		}
	} else if step < 0 {
		for i := lo; i > hi; i += step {
			out = append(out, items[i])
		}
	}
	return out
}
