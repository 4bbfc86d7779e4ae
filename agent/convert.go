// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/agexrun/agex/eval"
)

// toGuestValue converts an arbitrary Go value into the sandbox's Value
// universe, the same shape a guest assignment would produce, so a task's
// "inputs" record reads like any other sandbox record (spec §4.5
// "Pre-invocation", grounded on the teacher's aiconv-style host/guest
// conversion layer generalized from ADK-content to sandbox values).
func toGuestValue(v any) eval.Value {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		lst := &eval.List{}
		for i := 0; i < rv.Len(); i++ {
			lst.Items = append(lst.Items, toGuestValue(rv.Index(i).Interface()))
		}
		return lst
	case reflect.Map:
		d := eval.NewDict()
		for _, key := range rv.MapKeys() {
			d.Set(fmt.Sprint(key.Interface()), toGuestValue(rv.MapIndex(key).Interface()))
		}
		return d
	case reflect.Struct:
		d := eval.NewDict()
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue // unexported
			}
			name, _ := jsonFieldName(f)
			d.Set(name, toGuestValue(rv.Field(i).Interface()))
		}
		return d
	default:
		return fmt.Sprint(v)
	}
}

// fromGuestValue converts a sandbox Value back into target using
// reflection: the output-validation half of the task decorator's contract
// (spec §4.5 step 5, §7 "Validation errors: task_success return value
// fails the declared type check").
func fromGuestValue(v eval.Value, target reflect.Type) (reflect.Value, error) {
	if target.Kind() == reflect.Interface {
		if v == nil {
			return reflect.Zero(target), nil
		}
		return reflect.ValueOf(v), nil
	}
	switch target.Kind() {
	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected str, got %T", v)
		}
		return reflect.ValueOf(s), nil
	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected bool, got %T", v)
		}
		return reflect.ValueOf(b), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(int64)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected int, got %T", v)
		}
		out := reflect.New(target).Elem()
		out.SetInt(n)
		return out, nil
	case reflect.Float32, reflect.Float64:
		out := reflect.New(target).Elem()
		switch n := v.(type) {
		case float64:
			out.SetFloat(n)
		case int64:
			out.SetFloat(float64(n))
		default:
			return reflect.Value{}, fmt.Errorf("expected float, got %T", v)
		}
		return out, nil
	case reflect.Slice:
		items, err := asItemSlice(v)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(target, 0, len(items))
		for _, item := range items {
			elem, err := fromGuestValue(item, target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, elem)
		}
		return out, nil
	case reflect.Map:
		d, ok := v.(*eval.Dict)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected dict, got %T", v)
		}
		out := reflect.MakeMapWithSize(target, d.Len())
		for _, k := range d.Keys() {
			val, _ := d.Get(k)
			kv, err := fromGuestValue(k, target.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			vv, err := fromGuestValue(val, target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(kv, vv)
		}
		return out, nil
	case reflect.Struct:
		d, ok := v.(*eval.Dict)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected record, got %T", v)
		}
		out := reflect.New(target).Elem()
		for i := 0; i < target.NumField(); i++ {
			f := target.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name, _ := jsonFieldName(f)
			val, ok := d.Get(name)
			if !ok {
				continue
			}
			fv, err := fromGuestValue(val, f.Type)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %s: %w", name, err)
			}
			out.Field(i).Set(fv)
		}
		return out, nil
	default:
		return reflect.Value{}, fmt.Errorf("unsupported result type %s", target)
	}
}

func asItemSlice(v eval.Value) ([]eval.Value, error) {
	switch x := v.(type) {
	case *eval.List:
		return x.Items, nil
	case *eval.Tuple:
		return x.Items, nil
	default:
		return nil, fmt.Errorf("expected list or tuple, got %T", v)
	}
}

func jsonFieldName(f reflect.StructField) (string, bool) {
	tag, ok := f.Tag.Lookup("json")
	if !ok || tag == "" {
		return f.Name, false
	}
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return f.Name, false
	}
	return tag, true
}
