// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

// freeVariables returns every name a function or lambda body reads that is
// neither one of its parameters nor bound earlier in the body, including
// the names a nested def reads from outside itself. This is an
// over-approximation of the classic "free variables" set (a name read
// before a later assignment in the same body still counts as free), which
// only means a closure can see a little more of its defining scope than
// strictly necessary. That's safe: it can never expose a name the defining scope
// itself didn't already have bound.
func freeVariables(params []Param, body []Stmt) map[string]struct{} {
	bound := map[string]struct{}{}
	for _, p := range params {
		bound[p.Name] = struct{}{}
	}
	free := map[string]struct{}{}
	c := &collector{bound: bound, free: free}
	for _, s := range body {
		c.walkStmt(s)
	}
	return free
}

type collector struct {
	bound map[string]struct{}
	free  map[string]struct{}
}

func (c *collector) markRead(name string) {
	if _, ok := c.bound[name]; !ok {
		c.free[name] = struct{}{}
	}
}

func (c *collector) walkStmts(stmts []Stmt) {
	for _, s := range stmts {
		c.walkStmt(s)
	}
}

func (c *collector) walkStmt(s Stmt) {
	switch n := s.(type) {
	case *ExprStmt:
		c.walkExpr(n.X)
	case *AssignStmt:
		c.walkExpr(n.Value)
		c.bindTarget(n.Target)
	case *AugAssignStmt:
		c.walkExpr(n.Target)
		c.walkExpr(n.Value)
		c.bindTarget(n.Target)
	case *IfStmt:
		c.walkExpr(n.Cond)
		c.walkStmts(n.Body)
		c.walkStmts(n.Orelse)
	case *WhileStmt:
		c.walkExpr(n.Cond)
		c.walkStmts(n.Body)
	case *ForStmt:
		c.walkExpr(n.Iter)
		c.bindTarget(n.Target)
		c.walkStmts(n.Body)
	case *FunctionDefStmt:
		c.bound[n.Name] = struct{}{}
		for _, p := range n.Params {
			if p.Default != nil {
				c.walkExpr(p.Default)
			}
		}
		inner := map[string]struct{}{}
		for k := range c.bound {
			inner[k] = struct{}{}
		}
		for _, p := range n.Params {
			inner[p.Name] = struct{}{}
		}
		(&collector{bound: inner, free: c.free}).walkStmts(n.Body)
	case *ClassDefStmt:
		c.bound[n.Name] = struct{}{}
	case *ReturnStmt:
		if n.Value != nil {
			c.walkExpr(n.Value)
		}
	case *RaiseStmt:
		if n.Exc != nil {
			c.walkExpr(n.Exc)
		}
	case *TryStmt:
		c.walkStmts(n.Body)
		for _, h := range n.Handlers {
			if h.Target != "" {
				c.bound[h.Target] = struct{}{}
			}
			c.walkStmts(h.Body)
		}
		c.walkStmts(n.Orelse)
		c.walkStmts(n.Finally)
	case *WithStmt:
		for _, item := range n.Items {
			c.walkExpr(item.Ctx)
			if item.Target != "" {
				c.bound[item.Target] = struct{}{}
			}
		}
		c.walkStmts(n.Body)
	case *AssertStmt:
		c.walkExpr(n.Cond)
		if n.Msg != nil {
			c.walkExpr(n.Msg)
		}
	}
}

// bindTarget marks the names an assignment target introduces as bound
// going forward, and walks any expression pieces of that target that are
// themselves reads (e.g. `obj.attr = x` reads `obj`).
func (c *collector) bindTarget(target Expr) {
	switch t := target.(type) {
	case *NameExpr:
		c.bound[t.Name] = struct{}{}
	case *TupleExpr:
		for _, e := range t.Elts {
			c.bindTarget(e)
		}
	case *AttributeExpr:
		c.walkExpr(t.X)
	case *SubscriptExpr:
		c.walkExpr(t.X)
		c.walkExpr(t.Index)
	}
}

func (c *collector) walkExpr(e Expr) {
	switch n := e.(type) {
	case *NameExpr:
		c.markRead(n.Name)
	case *ListExpr:
		for _, el := range n.Elts {
			c.walkExpr(el)
		}
	case *TupleExpr:
		for _, el := range n.Elts {
			c.walkExpr(el)
		}
	case *SetExpr:
		for _, el := range n.Elts {
			c.walkExpr(el)
		}
	case *DictExpr:
		for _, k := range n.Keys {
			c.walkExpr(k)
		}
		for _, v := range n.Values {
			c.walkExpr(v)
		}
	case *UnaryExpr:
		c.walkExpr(n.X)
	case *BinaryExpr:
		c.walkExpr(n.X)
		c.walkExpr(n.Y)
	case *BoolOpExpr:
		for _, op := range n.Operands {
			c.walkExpr(op)
		}
	case *CompareExpr:
		c.walkExpr(n.X)
		for _, cm := range n.Comps {
			c.walkExpr(cm)
		}
	case *CallExpr:
		c.walkExpr(n.Func)
		for _, a := range n.Args {
			c.walkExpr(a)
		}
		for _, v := range n.Keywords {
			c.walkExpr(v)
		}
	case *AttributeExpr:
		c.walkExpr(n.X)
	case *SubscriptExpr:
		c.walkExpr(n.X)
		c.walkExpr(n.Index)
	case *SliceExpr:
		if n.Lo != nil {
			c.walkExpr(n.Lo)
		}
		if n.Hi != nil {
			c.walkExpr(n.Hi)
		}
		if n.Step != nil {
			c.walkExpr(n.Step)
		}
	case *LambdaExpr:
		inner := map[string]struct{}{}
		for k := range c.bound {
			inner[k] = struct{}{}
		}
		for _, p := range n.Params {
			inner[p.Name] = struct{}{}
		}
		sub := &collector{bound: inner, free: c.free}
		sub.walkExpr(n.Body)
	case *TernaryExpr:
		c.walkExpr(n.Cond)
		c.walkExpr(n.Then)
		c.walkExpr(n.Else)
	case *ListCompExpr:
		c.walkExpr(n.Iter)
		inner := map[string]struct{}{}
		for k := range c.bound {
			inner[k] = struct{}{}
		}
		sub := &collector{bound: inner, free: c.free}
		sub.bindTarget(n.Var)
		sub.walkExpr(n.Elt)
		if n.Value != nil {
			sub.walkExpr(n.Value)
		}
		for _, cond := range n.Ifs {
			sub.walkExpr(cond)
		}
	case *FStringExpr:
		for _, part := range n.Parts {
			if part.Expr != nil {
				c.walkExpr(part.Expr)
			}
		}
	}
}
