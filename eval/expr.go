// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"fmt"
	"strconv"
	"strings"
)

func (it *Interp) evalExpr(e Expr, sc Scope) (Value, error) {
	if err := it.checkLimits(e.Line()); err != nil {
		return nil, err
	}
	switch n := e.(type) {
	case *NameExpr:
		return it.resolveName(n.Name, sc, n.Line())
	case *NumberExpr:
		if n.IsFloat {
			return n.Float, nil
		}
		return n.Int, nil
	case *StringExpr:
		return n.Value, nil
	case *BoolExpr:
		return n.Value, nil
	case *NoneExpr:
		return nil, nil
	case *ListExpr:
		items, err := it.evalExprList(n.Elts, sc)
		if err != nil {
			return nil, err
		}
		return &List{Items: items}, nil
	case *TupleExpr:
		items, err := it.evalExprList(n.Elts, sc)
		if err != nil {
			return nil, err
		}
		return &Tuple{Items: items}, nil
	case *SetExpr:
		items, err := it.evalExprList(n.Elts, sc)
		if err != nil {
			return nil, err
		}
		s := NewSet()
		for _, v := range items {
			s.Add(v)
		}
		return s, nil
	case *DictExpr:
		d := NewDict()
		for i := range n.Keys {
			k, err := it.evalExpr(n.Keys[i], sc)
			if err != nil {
				return nil, err
			}
			v, err := it.evalExpr(n.Values[i], sc)
			if err != nil {
				return nil, err
			}
			d.Set(k, v)
		}
		return d, nil
	case *UnaryExpr:
		return it.evalUnary(n, sc)
	case *BinaryExpr:
		x, err := it.evalExpr(n.X, sc)
		if err != nil {
			return nil, err
		}
		y, err := it.evalExpr(n.Y, sc)
		if err != nil {
			return nil, err
		}
		return applyBinOp(n.Op, x, y, n.Line())
	case *BoolOpExpr:
		return it.evalBoolOp(n, sc)
	case *CompareExpr:
		return it.evalCompare(n, sc)
	case *CallExpr:
		return it.evalCall(n, sc)
	case *AttributeExpr:
		x, err := it.evalExpr(n.X, sc)
		if err != nil {
			return nil, err
		}
		return it.getAttr(x, n.Attr, n.Line())
	case *SubscriptExpr:
		x, err := it.evalExpr(n.X, sc)
		if err != nil {
			return nil, err
		}
		idx, err := it.evalIndexOrSlice(n.Index, sc)
		if err != nil {
			return nil, err
		}
		return getSubscript(x, idx, n.Line())
	case *SliceExpr:
		return it.evalSliceStandalone(n, sc)
	case *LambdaExpr:
		free := freeVariables(n.Params, []Stmt{&ReturnStmt{Value: n.Body}})
		return &UserFunction{
			Name:    "<lambda>",
			Params:  n.Params,
			Body:    []Stmt{&ReturnStmt{Value: n.Body}},
			Closure: newClosureScope(sc, free),
		}, nil
	case *TernaryExpr:
		cond, err := it.evalExpr(n.Cond, sc)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return it.evalExpr(n.Then, sc)
		}
		return it.evalExpr(n.Else, sc)
	case *ListCompExpr:
		return it.evalListComp(n, sc)
	case *FStringExpr:
		return it.evalFString(n, sc)
	default:
		return nil, evalErrf(e.Line(), "expression type %T is not supported", e)
	}
}

func (it *Interp) evalExprList(exprs []Expr, sc Scope) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := it.evalExpr(e, sc)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (it *Interp) evalUnary(n *UnaryExpr, sc Scope) (Value, error) {
	x, err := it.evalExpr(n.X, sc)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "not":
		return !truthy(x), nil
	case "-":
		switch v := x.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, evalErrf(n.Line(), "bad operand type for unary -: %s", typeName(x))
	case "+":
		return x, nil
	case "~":
		if v, ok := x.(int64); ok {
			return ^v, nil
		}
		return nil, evalErrf(n.Line(), "bad operand type for unary ~: %s", typeName(x))
	}
	return nil, evalErrf(n.Line(), "unsupported unary operator %q", n.Op)
}

func (it *Interp) evalBoolOp(n *BoolOpExpr, sc Scope) (Value, error) {
	var last Value
	for _, op := range n.Operands {
		v, err := it.evalExpr(op, sc)
		if err != nil {
			return nil, err
		}
		last = v
		if n.Op == "and" && !truthy(v) {
			return v, nil
		}
		if n.Op == "or" && truthy(v) {
			return v, nil
		}
	}
	return last, nil
}

func (it *Interp) evalCompare(n *CompareExpr, sc Scope) (Value, error) {
	left, err := it.evalExpr(n.X, sc)
	if err != nil {
		return nil, err
	}
	for i, op := range n.Ops {
		right, err := it.evalExpr(n.Comps[i], sc)
		if err != nil {
			return nil, err
		}
		ok, err := compareOne(op, left, right, n.Line())
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func (it *Interp) evalSliceStandalone(n *SliceExpr, sc Scope) (Value, error) {
	return nil, evalErrf(n.Line(), "a slice expression may only appear inside a subscript")
}

// evalIndexOrSlice evaluates a subscript's index, producing a *sliceIndex
// when the index syntax is a slice (a[lo:hi:step]) instead of recursing
// into evalExpr, which would otherwise reject a bare SliceExpr node.
func (it *Interp) evalIndexOrSlice(idx Expr, sc Scope) (Value, error) {
	sl, ok := idx.(*SliceExpr)
	if !ok {
		return it.evalExpr(idx, sc)
	}
	out := &sliceIndex{}
	if sl.Lo != nil {
		v, err := it.evalExpr(sl.Lo, sc)
		if err != nil {
			return nil, err
		}
		i, ok := v.(int64)
		if !ok {
			return nil, evalErrf(sl.Line(), "slice indices must be integers")
		}
		out.Lo = &i
	}
	if sl.Hi != nil {
		v, err := it.evalExpr(sl.Hi, sc)
		if err != nil {
			return nil, err
		}
		i, ok := v.(int64)
		if !ok {
			return nil, evalErrf(sl.Line(), "slice indices must be integers")
		}
		out.Hi = &i
	}
	if sl.Step != nil {
		v, err := it.evalExpr(sl.Step, sc)
		if err != nil {
			return nil, err
		}
		i, ok := v.(int64)
		if !ok {
			return nil, evalErrf(sl.Line(), "slice indices must be integers")
		}
		out.Step = &i
	}
	return out, nil
}

func (it *Interp) evalListComp(n *ListCompExpr, sc Scope) (Value, error) {
	iterVal, err := it.evalExpr(n.Iter, sc)
	if err != nil {
		return nil, err
	}
	items, err := iterate(iterVal, n.Line())
	if err != nil {
		return nil, err
	}
	compScope := newFrame(sc)
	if n.IsDict {
		d := NewDict()
		for _, item := range items {
			if err := it.assign(n.Var, item, compScope); err != nil {
				return nil, err
			}
			keep, err := it.evalCompIfs(n.Ifs, compScope)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
			k, err := it.evalExpr(n.Elt, compScope)
			if err != nil {
				return nil, err
			}
			v, err := it.evalExpr(n.Value, compScope)
			if err != nil {
				return nil, err
			}
			d.Set(k, v)
		}
		return d, nil
	}
	var out []Value
	for _, item := range items {
		if err := it.assign(n.Var, item, compScope); err != nil {
			return nil, err
		}
		keep, err := it.evalCompIfs(n.Ifs, compScope)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		v, err := it.evalExpr(n.Elt, compScope)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return &List{Items: out}, nil
}

func (it *Interp) evalCompIfs(ifs []Expr, sc Scope) (bool, error) {
	for _, cond := range ifs {
		v, err := it.evalExpr(cond, sc)
		if err != nil {
			return false, err
		}
		if !truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func (it *Interp) evalFString(n *FStringExpr, sc Scope) (Value, error) {
	var sb strings.Builder
	for _, part := range n.Parts {
		if part.Expr == nil {
			sb.WriteString(part.Literal)
			continue
		}
		v, err := it.evalExpr(part.Expr, sc)
		if err != nil {
			return nil, err
		}
		if part.Spec == "" {
			sb.WriteString(formatValue(v))
		} else {
			sb.WriteString(formatValueSpec(v, part.Spec))
		}
	}
	return sb.String(), nil
}

// formatValueSpec covers the common slice of Python's format-spec
// mini-language: fixed-point precision for floats, and right/left/center
// padding with an optional width and fill character. Anything fancier
// (grouping, sign control, the general presentation types) falls back to
// the unspecced rendering.
func formatValueSpec(v Value, spec string) string {
	body := spec
	align := byte(0)
	fill := byte(' ')
	if len(body) >= 2 && strings.ContainsRune("<>^", rune(body[1])) {
		fill, align, body = body[0], body[1], body[2:]
	} else if len(body) >= 1 && strings.ContainsRune("<>^", rune(body[0])) {
		align, body = body[0], body[1:]
	}
	if dot := strings.IndexByte(body, '.'); dot >= 0 && strings.HasSuffix(body, "f") {
		prec, err := strconv.Atoi(body[dot+1 : len(body)-1])
		if err == nil {
			if f, ok := asFloat(v); ok {
				return strconv.FormatFloat(f, 'f', prec, 64)
			}
		}
	}
	if body == "d" {
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10)
		}
	}
	width := body
	if width != "" && strings.HasSuffix(width, "f") {
		width = ""
	}
	w, err := strconv.Atoi(width)
	if err != nil || w <= 0 {
		return formatValue(v)
	}
	s := formatValue(v)
	if len(s) >= w {
		return s
	}
	pad := w - len(s)
	if align == 0 {
		if _, isNum := v.(int64); isNum {
			align = '>'
		} else if _, isF := v.(float64); isF {
			align = '>'
		} else {
			align = '<'
		}
	}
	padding := strings.Repeat(string(fill), pad)
	switch align {
	case '>':
		return padding + s
	case '^':
		left := pad / 2
		right := pad - left
		return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), right)
	default:
		return s + padding
	}
}

// --- Operators ---

func truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *List:
		return len(x.Items) > 0
	case *Tuple:
		return len(x.Items) > 0
	case *Dict:
		return x.Len() > 0
	case *Set:
		return x.Len() > 0
	default:
		return true
	}
}

func typeName(v Value) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case *List:
		return "list"
	case *Tuple:
		return "tuple"
	case *Dict:
		return "dict"
	case *Set:
		return "set"
	case *AgexObject:
		return v.(*AgexObject).Cls.Name
	case *AgexInstance:
		return v.(*AgexInstance).Cls.Name
	default:
		return fmt.Sprintf("%T", v)
	}
}

func asFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func applyBinOp(op string, x, y Value, line int) (Value, error) {
	if op == "+" {
		if xs, ok := x.(string); ok {
			if ys, ok := y.(string); ok {
				return xs + ys, nil
			}
		}
		if xl, ok := x.(*List); ok {
			if yl, ok := y.(*List); ok {
				out := append([]Value{}, xl.Items...)
				out = append(out, yl.Items...)
				return &List{Items: out}, nil
			}
		}
	}
	xi, xIsInt := x.(int64)
	yi, yIsInt := y.(int64)
	if xIsInt && yIsInt {
		switch op {
		case "+":
			return xi + yi, nil
		case "-":
			return xi - yi, nil
		case "*":
			return xi * yi, nil
		case "//":
			if yi == 0 {
				return nil, raiseErr(line, "ZeroDivisionError", "integer division or modulo by zero")
			}
			return floorDivInt(xi, yi), nil
		case "%":
			if yi == 0 {
				return nil, raiseErr(line, "ZeroDivisionError", "integer modulo by zero")
			}
			return floorModInt(xi, yi), nil
		case "/":
			if yi == 0 {
				return nil, raiseErr(line, "ZeroDivisionError", "division by zero")
			}
			return float64(xi) / float64(yi), nil
		case "**":
			return intPow(xi, yi), nil
		case "&":
			return xi & yi, nil
		case "|":
			return xi | yi, nil
		case "^":
			return xi ^ yi, nil
		case "<<":
			return xi << uint(yi), nil
		case ">>":
			return xi >> uint(yi), nil
		}
	}
	if xf, ok1 := asFloat(x); ok1 {
		if yf, ok2 := asFloat(y); ok2 {
			switch op {
			case "+":
				return xf + yf, nil
			case "-":
				return xf - yf, nil
			case "*":
				return xf * yf, nil
			case "/":
				if yf == 0 {
					return nil, raiseErr(line, "ZeroDivisionError", "division by zero")
				}
				return xf / yf, nil
			case "//":
				if yf == 0 {
					return nil, raiseErr(line, "ZeroDivisionError", "division by zero")
				}
				return floorDivFloat(xf, yf), nil
			case "%":
				if yf == 0 {
					return nil, raiseErr(line, "ZeroDivisionError", "division by zero")
				}
				return floorModFloat(xf, yf), nil
			case "**":
				return powFloat(xf, yf), nil
			}
		}
	}
	return nil, raiseErr(line, "TypeError", "unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(x), typeName(y))
}

func compareOne(op string, left, right Value, line int) (bool, error) {
	switch op {
	case "==":
		return valuesEqual(left, right), nil
	case "!=":
		return !valuesEqual(left, right), nil
	case "is":
		return left == right, nil
	case "is not":
		return left != right, nil
	case "in":
		return containsValue(right, left, line)
	case "not in":
		ok, err := containsValue(right, left, line)
		return !ok, err
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	ls, lsok := left.(string)
	rs, rsok := right.(string)
	if lsok && rsok {
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}
	return false, raiseErr(line, "TypeError", "'%s' not supported between instances of '%s' and '%s'", op, typeName(left), typeName(right))
}

func valuesEqual(a, b Value) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	if al, ok := a.(*List); ok {
		if bl, ok := b.(*List); ok {
			if len(al.Items) != len(bl.Items) {
				return false
			}
			for i := range al.Items {
				if !valuesEqual(al.Items[i], bl.Items[i]) {
					return false
				}
			}
			return true
		}
	}
	return a == b
}

func containsValue(container, item Value, line int) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, raiseErr(line, "TypeError", "'in <string>' requires string as left operand")
		}
		return strings.Contains(c, s), nil
	case *List:
		for _, v := range c.Items {
			if valuesEqual(v, item) {
				return true, nil
			}
		}
		return false, nil
	case *Tuple:
		for _, v := range c.Items {
			if valuesEqual(v, item) {
				return true, nil
			}
		}
		return false, nil
	case *Set:
		return c.Contains(item), nil
	case *Dict:
		_, ok := c.Get(item)
		return ok, nil
	}
	return false, raiseErr(line, "TypeError", "argument of type '%s' is not iterable", typeName(container))
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

func intPow(a, b int64) Value {
	if b < 0 {
		return powFloat(float64(a), float64(b))
	}
	var result int64 = 1
	for i := int64(0); i < b; i++ {
		result *= a
	}
	return result
}

func formatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
