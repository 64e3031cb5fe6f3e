// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package array

import (
	"testing"

	"github.com/consensys/go-measure/pkg/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Array_01(t *testing.T) {
	_, err := New([]string{"x"}, []uint{2}, nil, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ops.ErrShapeMismatch)
	_, err = New([]string{"x", "x"}, []uint{2, 2}, nil, []float64{1, 2, 3, 4})
	assert.Error(t, err)
	//
	a, err := New([]string{"x", "y"}, []uint{2, 3}, nil, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, a.Get(1, 2))
	assert.Equal(t, 1.0, a.Get(0, 1))
	//
	n, ok := a.Dim("y")
	assert.True(t, ok)
	assert.Equal(t, uint(3), n)
	_, ok = a.Dim("z")
	assert.False(t, ok)
}

func Test_Array_02(t *testing.T) {
	x := Arange("x", 2)
	y := Arange("y", 3)
	xy, err := Binary(ops.Mul, x, y)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, xy.Names())
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 2}, xy.Data())
	// Broadcast a scalar
	z, err := Binary(ops.Add, xy, Scalar(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 2, 3}, z.Data())
	// Shared dimension
	w, err := Binary(ops.Add, xy, x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 2, 3}, w.Data())
}

func Test_Array_03(t *testing.T) {
	_, err := Binary(ops.Add, Arange("x", 2), Arange("x", 3))
	assert.ErrorIs(t, err, ops.ErrShapeMismatch)
	//
	v, err := New(nil, nil, []uint{2}, []float64{1, 2})
	require.NoError(t, err)
	w, err := New(nil, nil, []uint{3}, []float64{1, 2, 3})
	require.NoError(t, err)
	_, err = Binary(ops.Add, v, w)
	assert.ErrorIs(t, err, ops.ErrShapeMismatch)
}

func Test_Array_04(t *testing.T) {
	a, err := New([]string{"x", "y"}, []uint{2, 3}, nil, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	//
	sx, err := Reduce(ops.Add, a, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, sx.Names())
	assert.Equal(t, []float64{3, 5, 7}, sx.Data())
	//
	sy, err := Reduce(ops.Max, a, []string{"y", "z"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, sy.Data())
	//
	all, err := Reduce(ops.Mul, a, []string{"x", "y"})
	require.NoError(t, err)
	assert.Empty(t, all.Names())
	assert.Equal(t, []float64{0}, all.Data())
	//
	same, err := Reduce(ops.Add, a, nil)
	require.NoError(t, err)
	assert.Same(t, a, same)
	//
	_, err = Reduce(ops.Sub, a, []string{"x"})
	assert.Error(t, err)
}

func Test_Array_05(t *testing.T) {
	a, err := New([]string{"x", "y"}, []uint{2, 3}, nil, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	//
	b, err := Index(a, "y", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, b.Names())
	assert.Equal(t, []float64{2, 5}, b.Data())
	//
	c, err := Index(a, "x", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 5}, c.Data())
	//
	_, err = Index(a, "x", 2)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func Test_Array_06(t *testing.T) {
	a, err := New([]string{"x", "y"}, []uint{2, 2}, nil, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	//
	b, err := Rename(a, "x", "z")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y"}, b.Names())
	assert.Equal(t, a.Data(), b.Data())
	// Diagonal
	d, err := Rename(a, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, d.Names())
	assert.Equal(t, []float64{1, 4}, d.Data())
	//
	_, err = Rename(Arange("x", 2), "x", "x")
	require.NoError(t, err)
}

func Test_Array_07(t *testing.T) {
	a := Fill([]string{"x"}, []uint{3}, 0.5)
	b := Fill([]string{"x"}, []uint{3}, 0.5)
	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equals(Arange("x", 3)))
	assert.Equal(t, "(x:3)[0.5 0.5 0.5]", a.String())
	//
	n := Unary(ops.Neg, Arange("x", 3))
	assert.Equal(t, []float64{0, -1, -2}, n.Data())
}

func Test_Array_08(t *testing.T) {
	a, err := New([]string{"x", "y"}, []uint{2, 3}, nil, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	//
	b, err := Permute(a, []string{"y", "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, b.Names())
	assert.Equal(t, []uint{3, 2}, b.Sizes())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, b.Data())
	//
	_, err = Permute(a, []string{"x", "x"})
	assert.ErrorIs(t, err, ops.ErrShapeMismatch)
	_, err = Permute(a, []string{"x"})
	assert.ErrorIs(t, err, ops.ErrShapeMismatch)
}
