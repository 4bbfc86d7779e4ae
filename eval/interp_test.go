// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agexrun/agex/policy"
	"github.com/agexrun/agex/state"
)

func runSrc(t *testing.T, src string) (*Interp, state.State) {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err)
	store := state.NewEphemeral()
	it := NewInterp(policy.New(), store, nil, nil, DefaultLimits())
	require.NoError(t, it.Run(prog))
	return it, store
}

func TestRunPersistsTopLevelAssignments(t *testing.T) {
	_, store := runSrc(t, "x = 1\ny = x + 2\n")
	x, ok := store.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), x)
	y, ok := store.Get("y")
	require.True(t, ok)
	assert.Equal(t, int64(3), y)
}

func TestFloorDivAndModMatchPythonSign(t *testing.T) {
	_, store := runSrc(t, "a = -7 // 2\nb = -7 % 2\n")
	a, _ := store.Get("a")
	b, _ := store.Get("b")
	assert.Equal(t, int64(-4), a)
	assert.Equal(t, int64(1), b)
}

func TestIfElseBranches(t *testing.T) {
	_, store := runSrc(t, "if 1 > 2:\n    r = 'a'\nelse:\n    r = 'b'\n")
	r, _ := store.Get("r")
	assert.Equal(t, "b", r)
}

func TestWhileBreakAndContinue(t *testing.T) {
	src := "total = 0\ni = 0\nwhile i < 10:\n    i = i + 1\n    if i % 2 == 0:\n        continue\n    if i > 7:\n        break\n    total = total + i\n"
	_, store := runSrc(t, src)
	total, _ := store.Get("total")
	assert.Equal(t, int64(1+3+5+7), total)
}

func TestForLoopOverList(t *testing.T) {
	src := "nums = [1, 2, 3]\ntotal = 0\nfor n in nums:\n    total = total + n\n"
	_, store := runSrc(t, src)
	total, _ := store.Get("total")
	assert.Equal(t, int64(6), total)
}

func TestFunctionCallAndReturn(t *testing.T) {
	src := "def square(n):\n    return n * n\nresult = square(5)\n"
	_, store := runSrc(t, src)
	result, _ := store.Get("result")
	assert.Equal(t, int64(25), result)
}

func TestClosureCapturesEnclosingVariable(t *testing.T) {
	src := "def make_adder(n):\n    def add(x):\n        return x + n\n    return add\nadd5 = make_adder(5)\nresult = add5(10)\n"
	_, store := runSrc(t, src)
	result, _ := store.Get("result")
	assert.Equal(t, int64(15), result)
}

func TestDataclassConstructionAndAttributeAccess(t *testing.T) {
	src := "class Point:\n    x: int\n    y: int = 0\np = Point(3)\nresult = p.x + p.y\n"
	_, store := runSrc(t, src)
	result, _ := store.Get("result")
	assert.Equal(t, int64(3), result)
}

func TestDataclassRejectsNewAttributes(t *testing.T) {
	src := "class Point:\n    x: int\np = Point(1)\np.z = 2\n"
	_, _, err := parseAndRun(t, src)
	require.Error(t, err)
}

func TestTryExceptCatchesRaisedException(t *testing.T) {
	src := "caught = False\ntry:\n    raise ValueError('bad')\nexcept ValueError as e:\n    caught = True\n    msg = str(e)\n"
	_, store := runSrc(t, src)
	caught, _ := store.Get("caught")
	assert.Equal(t, true, caught)
}

func TestTryFinallyAlwaysRuns(t *testing.T) {
	src := "ran = False\ntry:\n    x = 1\nfinally:\n    ran = True\n"
	_, store := runSrc(t, src)
	ran, _ := store.Get("ran")
	assert.Equal(t, true, ran)
}

func TestUncaughtExceptionKindDoesNotMatchHandler(t *testing.T) {
	src := "try:\n    raise KeyError('missing')\nexcept ValueError:\n    x = 1\n"
	_, _, err := parseAndRun(t, src)
	require.Error(t, err)
	ge, ok := err.(*GuestException)
	require.True(t, ok)
	assert.Equal(t, "KeyError", ge.Kind)
}

func TestFStringInterpolation(t *testing.T) {
	src := `name = "world"` + "\n" + `greeting = f"hello {name}!"` + "\n"
	_, store := runSrc(t, src)
	greeting, _ := store.Get("greeting")
	assert.Equal(t, "hello world!", greeting)
}

func TestFStringFormatSpecPrecision(t *testing.T) {
	src := `pi = 3.14159` + "\n" + `msg = f"{pi:.2f}"` + "\n"
	_, store := runSrc(t, src)
	msg, _ := store.Get("msg")
	assert.Equal(t, "3.14", msg)
}

func TestListCompConstructsList(t *testing.T) {
	src := "doubled = [n * 2 for n in [1, 2, 3] if n > 1]\n"
	_, store := runSrc(t, src)
	doubled, ok := store.Get("doubled")
	require.True(t, ok)
	lst, ok := doubled.(*List)
	require.True(t, ok)
	require.Len(t, lst.Items, 2)
	assert.Equal(t, int64(4), lst.Items[0])
	assert.Equal(t, int64(6), lst.Items[1])
}

func TestMaxOpsLimitTripsOnInfiniteLoop(t *testing.T) {
	prog, err := Parse("i = 0\nwhile True:\n    i = i + 1\n")
	require.NoError(t, err)
	store := state.NewEphemeral()
	limits := Limits{Timeout: 0, MaxOps: 50}
	it := NewInterp(policy.New(), store, nil, nil, limits)
	err = it.Run(prog)
	require.Error(t, err)
	_, isEval := err.(*EvalError)
	assert.True(t, isEval)
}

// parseAndRun is like runSrc but surfaces the run error instead of failing
// the test, for cases exercising guest-raised or resource-limit errors.
func parseAndRun(t *testing.T, src string) (*Interp, state.State, error) {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err)
	store := state.NewEphemeral()
	it := NewInterp(policy.New(), store, nil, nil, DefaultLimits())
	return it, store, it.Run(prog)
}
