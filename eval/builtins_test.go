// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenOverStringsListsAndDicts(t *testing.T) {
	_, store := runSrc(t, "a = len('hello')\nb = len([1, 2, 3])\n")
	a, _ := store.Get("a")
	b, _ := store.Get("b")
	assert.Equal(t, int64(5), a)
	assert.Equal(t, int64(3), b)
}

func TestSortedAndReversed(t *testing.T) {
	_, store := runSrc(t, "a = sorted([3, 1, 2])\nb = list(reversed([1, 2, 3]))\n")
	a, _ := store.Get("a")
	b, _ := store.Get("b")
	al := a.(*List)
	bl := b.(*List)
	assert.Equal(t, []Value{int64(1), int64(2), int64(3)}, al.Items)
	assert.Equal(t, []Value{int64(3), int64(2), int64(1)}, bl.Items)
}

func TestMinMaxSum(t *testing.T) {
	_, store := runSrc(t, "lo = min([3, 1, 2])\nhi = max([3, 1, 2])\ntotal = sum([1, 2, 3])\n")
	lo, _ := store.Get("lo")
	hi, _ := store.Get("hi")
	total, _ := store.Get("total")
	assert.Equal(t, int64(1), lo)
	assert.Equal(t, int64(3), hi)
	assert.Equal(t, int64(6), total)
}

func TestIsInstanceAndType(t *testing.T) {
	_, store := runSrc(t, "a = isinstance(1, 'int')\nb = isinstance('x', 'str')\nc = isinstance(1, 'str')\n")
	a, _ := store.Get("a")
	b, _ := store.Get("b")
	c, _ := store.Get("c")
	assert.Equal(t, true, a)
	assert.Equal(t, true, b)
	assert.Equal(t, false, c)
}

func TestEnumerateAndZip(t *testing.T) {
	src := "pairs = list(enumerate(['a', 'b']))\nzipped = list(zip([1, 2], ['x', 'y']))\n"
	_, store := runSrc(t, src)
	pairs, _ := store.Get("pairs")
	zipped, _ := store.Get("zipped")
	pl := pairs.(*List)
	require.Len(t, pl.Items, 2)
	first := pl.Items[0].(*Tuple)
	assert.Equal(t, int64(0), first.Items[0])
	assert.Equal(t, "a", first.Items[1])
	zl := zipped.(*List)
	require.Len(t, zl.Items, 2)
}

func TestStringMethodsUpperSplitJoin(t *testing.T) {
	src := "a = 'hi'.upper()\nb = 'a,b,c'.split(',')\nc = '-'.join(['x', 'y'])\n"
	_, store := runSrc(t, src)
	a, _ := store.Get("a")
	b, _ := store.Get("b")
	c, _ := store.Get("c")
	assert.Equal(t, "HI", a)
	bl := b.(*List)
	require.Len(t, bl.Items, 3)
	assert.Equal(t, "x-y", c)
}

func TestListMethodsAppendPopSort(t *testing.T) {
	src := "items = [3, 1, 2]\nitems.append(0)\nlast = items.pop()\nitems.sort()\n"
	_, store := runSrc(t, src)
	items, _ := store.Get("items")
	last, _ := store.Get("last")
	il := items.(*List)
	assert.Equal(t, int64(0), last)
	assert.Equal(t, []Value{int64(1), int64(2), int64(3)}, il.Items)
}

func TestDictMethodsGetKeysValues(t *testing.T) {
	src := "d = {'a': 1, 'b': 2}\nv = d.get('a')\nmissing = d.get('z', -1)\nks = list(d.keys())\n"
	_, store := runSrc(t, src)
	v, _ := store.Get("v")
	missing, _ := store.Get("missing")
	ks, _ := store.Get("ks")
	assert.Equal(t, int64(1), v)
	assert.Equal(t, int64(-1), missing)
	ksl := ks.(*List)
	require.Len(t, ksl.Items, 2)
}

func TestSetMethodsUnionIntersection(t *testing.T) {
	src := "s1 = {1, 2, 3}\ns2 = {2, 3, 4}\nu = s1.union(s2)\ni = s1.intersection(s2)\n"
	_, store := runSrc(t, src)
	u, _ := store.Get("u")
	i, _ := store.Get("i")
	assert.Equal(t, 4, u.(*Set).Len())
	assert.Equal(t, 2, i.(*Set).Len())
}

func TestRaiseBuiltinExceptionClassCarriesKind(t *testing.T) {
	_, _, err := parseAndRun(t, "raise ValueError('bad input')\n")
	require.Error(t, err)
	ge, ok := err.(*GuestException)
	require.True(t, ok)
	assert.Equal(t, "ValueError", ge.Kind)
	assert.Equal(t, "bad input", ge.Msg)
}

func TestExceptClauseCatchesConstructedExceptionByKind(t *testing.T) {
	src := "caught = None\ntry:\n    raise KeyError('missing')\nexcept KeyError as e:\n    caught = str(e)\n"
	_, store := runSrc(t, src)
	caught, _ := store.Get("caught")
	assert.Equal(t, "KeyError: missing", caught)
}
