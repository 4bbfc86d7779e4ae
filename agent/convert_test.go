// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/agexrun/agex/eval"
)

type point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

func TestToGuestValueStruct(t *testing.T) {
	got := toGuestValue(point{X: 3, Y: 4.5})
	d, ok := got.(*eval.Dict)
	require.True(t, ok)

	x, _ := d.Get("x")
	y, _ := d.Get("y")
	require.Equal(t, int64(3), x)
	require.Equal(t, 4.5, y)
}

func TestToGuestFromGuestRoundTrip(t *testing.T) {
	want := point{X: 7, Y: 1.5}
	guest := toGuestValue(want)

	out, err := fromGuestValue(guest, reflect.TypeOf(point{}))
	require.NoError(t, err)

	got := out.Interface().(point)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromGuestValueList(t *testing.T) {
	lst := &eval.List{Items: []eval.Value{int64(1), int64(2), int64(3)}}
	out, err := fromGuestValue(lst, reflect.TypeOf([]int{}))
	require.NoError(t, err)

	want := []int{1, 2, 3}
	if diff := cmp.Diff(want, out.Interface()); diff != "" {
		t.Errorf("slice conversion mismatch (-want +got):\n%s", diff)
	}
}
