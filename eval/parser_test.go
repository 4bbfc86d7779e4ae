// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleAssign(t *testing.T) {
	prog, err := Parse("x = 1 + 2\n")
	require.NoError(t, err)
	require.Len(t, prog, 1)
	assign, ok := prog[0].(*AssignStmt)
	require.True(t, ok)
	name, ok := assign.Target.(*NameExpr)
	require.True(t, ok)
	assert.Equal(t, "x", name.Name)
	bin, ok := assign.Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}

func TestParseIfElifElse(t *testing.T) {
	src := "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog, 1)
	top, ok := prog[0].(*IfStmt)
	require.True(t, ok)
	require.Len(t, top.Orelse, 1)
	nested, ok := top.Orelse[0].(*IfStmt)
	require.True(t, ok)
	require.Len(t, nested.Orelse, 1)
}

func TestParseFunctionDefWithDefaultAndTaskDecorator(t *testing.T) {
	src := "@task\ndef greet(name, excited=True):\n    return name\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog, 1)
	fn, ok := prog[0].(*FunctionDefStmt)
	require.True(t, ok)
	assert.True(t, fn.IsTask)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "name", fn.Params[0].Name)
	assert.Nil(t, fn.Params[0].Default)
	require.NotNil(t, fn.Params[1].Default)
}

func TestParseDataclassFields(t *testing.T) {
	src := "class Point:\n    x: int\n    y: int = 0\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	cls, ok := prog[0].(*ClassDefStmt)
	require.True(t, ok)
	require.Len(t, cls.Fields, 2)
	assert.Equal(t, "x", cls.Fields[0].Name)
	assert.Nil(t, cls.Fields[0].Default)
	assert.Equal(t, "y", cls.Fields[1].Name)
	assert.NotNil(t, cls.Fields[1].Default)
}

func TestParseTryExceptFinally(t *testing.T) {
	src := "try:\n    risky()\nexcept ValueError as e:\n    handle(e)\nfinally:\n    cleanup()\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	tr, ok := prog[0].(*TryStmt)
	require.True(t, ok)
	require.Len(t, tr.Handlers, 1)
	assert.Equal(t, "ValueError", tr.Handlers[0].Kind)
	assert.Equal(t, "e", tr.Handlers[0].Target)
	require.Len(t, tr.Finally, 1)
}

func TestParseWithStatement(t *testing.T) {
	src := "with open(path) as f:\n    read(f)\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	w, ok := prog[0].(*WithStmt)
	require.True(t, ok)
	require.Len(t, w.Items, 1)
	assert.Equal(t, "f", w.Items[0].Target)
}

func TestParseListComprehension(t *testing.T) {
	src := "x = [i * 2 for i in items if i > 0]\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	assign := prog[0].(*AssignStmt)
	comp, ok := assign.Value.(*ListCompExpr)
	require.True(t, ok)
	assert.False(t, comp.IsDict)
	require.Len(t, comp.Ifs, 1)
}

func TestParseDictComprehension(t *testing.T) {
	src := "x = {k: v for k, v in pairs}\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	assign := prog[0].(*AssignStmt)
	comp, ok := assign.Value.(*ListCompExpr)
	require.True(t, ok)
	assert.True(t, comp.IsDict)
	assert.NotNil(t, comp.Value)
}

func TestParseFString(t *testing.T) {
	src := `x = f"hello {name}, you are {age:.1f} years old"` + "\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	assign := prog[0].(*AssignStmt)
	fs, ok := assign.Value.(*FStringExpr)
	require.True(t, ok)
	require.Len(t, fs.Parts, 5)
	assert.Equal(t, "hello ", fs.Parts[0].Literal)
	name, ok := fs.Parts[1].Expr.(*NameExpr)
	require.True(t, ok)
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, ", you are ", fs.Parts[2].Literal)
	assert.Equal(t, ".1f", fs.Parts[3].Spec)
}

func TestParseFStringNestedSubscript(t *testing.T) {
	src := `x = f"{d['key']}"` + "\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	assign := prog[0].(*AssignStmt)
	fs, ok := assign.Value.(*FStringExpr)
	require.True(t, ok)
	require.Len(t, fs.Parts, 1)
	sub, ok := fs.Parts[0].Expr.(*SubscriptExpr)
	require.True(t, ok)
	str, ok := sub.Index.(*StringExpr)
	require.True(t, ok)
	assert.Equal(t, "key", str.Value)
}

func TestParseSliceSubscript(t *testing.T) {
	src := "x = items[1:3]\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	assign := prog[0].(*AssignStmt)
	sub, ok := assign.Value.(*SubscriptExpr)
	require.True(t, ok)
	sl, ok := sub.Index.(*SliceExpr)
	require.True(t, ok)
	require.NotNil(t, sl.Lo)
	require.NotNil(t, sl.Hi)
}

func TestParseLambda(t *testing.T) {
	src := "f = lambda a, b=1: a + b\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	assign := prog[0].(*AssignStmt)
	lam, ok := assign.Value.(*LambdaExpr)
	require.True(t, ok)
	require.Len(t, lam.Params, 2)
}

func TestParseCallWithKeywordArgs(t *testing.T) {
	src := "result = run(1, 2, extra=True)\n"
	prog, err := Parse(src)
	require.NoError(t, err)
	assign := prog[0].(*AssignStmt)
	call, ok := assign.Value.(*CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	require.Contains(t, call.Keywords, "extra")
}
