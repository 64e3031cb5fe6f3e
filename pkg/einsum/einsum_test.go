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
package einsum

import (
	"math/rand"
	"testing"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Einsum_01(t *testing.T) {
	equation := check_Equation(t, "ab,bc->ac")
	assert.Equal(t, [][]string{{"a", "b"}, {"b", "c"}}, equation.Inputs)
	assert.Equal(t, []string{"a", "c"}, equation.Output)
	assert.Equal(t, []string{"b"}, equation.Contracted())
	assert.Equal(t, "ab,bc->ac", equation.String())
	// Implicit output
	assert.Equal(t, "ab,bc->ac", check_Equation(t, "ab, bc").String())
	assert.Equal(t, "ba,ab->", check_Equation(t, "ba,ab").String())
	assert.Equal(t, []string{"a", "b"}, check_Equation(t, "ba,ab->").Contracted())
}

func Test_Einsum_02(t *testing.T) {
	for _, text := range []string{"aa->a", "ab->c", "a1,b", "ab->aa"} {
		_, err := Parse(text)
		assert.Error(t, err, text)
	}
	//
	_, err := ParseBackend("min-product")
	require.ErrorIs(t, err, ErrUnsupportedBackend)
	backend, err := ParseBackend("max-product")
	require.NoError(t, err)
	assert.Equal(t, MaxProduct, backend)
}

// Matrix multiplication
func Test_Einsum_03(t *testing.T) {
	arena := term.NewArena()
	equation := check_Equation(t, "ab,bc->ac")
	lhs := check_Operand(t, arena, []string{"a", "b"}, 1, 2, 3, 4)
	rhs := check_Operand(t, arena, []string{"b", "c"}, 5, 6, 7, 8)
	//
	for _, method := range []func(*term.Arena, Backend, Equation, ...term.Term) (term.Term, error){Naive, Direct} {
		result, err := method(arena, SumProduct, equation, lhs, rhs)
		require.NoError(t, err)
		check_Result(t, result, []string{"a", "c"}, 19, 22, 43, 50)
	}
}

// Max-product is only computed directly
func Test_Einsum_04(t *testing.T) {
	arena := term.NewArena()
	equation := check_Equation(t, "ab,bc->ac")
	lhs := check_Operand(t, arena, []string{"a", "b"}, 1, 2, 3, 4)
	rhs := check_Operand(t, arena, []string{"b", "c"}, 5, 6, 7, 8)
	//
	_, err := Naive(arena, MaxProduct, equation, lhs, rhs)
	require.ErrorIs(t, err, ErrUnsupportedBackend)
	//
	result, err := Direct(arena, MaxProduct, equation, lhs, rhs)
	require.NoError(t, err)
	check_Result(t, result, []string{"a", "c"}, 14, 16, 28, 32)
}

// Full contraction and transposition
func Test_Einsum_05(t *testing.T) {
	arena := term.NewArena()
	operand := check_Operand(t, arena, []string{"a", "b"}, 1, 2, 3, 4)
	//
	for _, method := range []func(*term.Arena, Backend, Equation, ...term.Term) (term.Term, error){Naive, Direct} {
		result, err := method(arena, SumProduct, check_Equation(t, "ab,ab->"), operand, operand)
		require.NoError(t, err)
		check_Close(t, arena.Number(30), result)
		//
		result, err = method(arena, SumProduct, check_Equation(t, "ab->ba"), operand)
		require.NoError(t, err)
		check_Result(t, result, []string{"b", "a"}, 1, 3, 2, 4)
	}
}

func Test_Einsum_06(t *testing.T) {
	arena := term.NewArena()
	equation := check_Equation(t, "ab,bc->ac")
	operand := check_Operand(t, arena, []string{"a", "b"}, 1, 2, 3, 4)
	//
	_, err := Direct(arena, SumProduct, equation, operand)
	require.ErrorIs(t, err, term.ErrShapeMismatch)
	_, err = Naive(arena, SumProduct, equation, operand, operand)
	require.ErrorIs(t, err, term.ErrShapeMismatch)
}

// Symbolic and direct computation agree on random operands.
func Test_Einsum_07(t *testing.T) {
	var (
		arena    = term.NewArena()
		rng      = rand.New(rand.NewSource(1))
		sizes    = map[string]uint{"a": 2, "b": 3, "c": 4, "d": 2, "e": 3}
		examples = []string{"ab,bc,cd->ad", "abc,cd,de->ae", "ab,b->a", "abc,bcd->", "a,b,c->abc"}
	)
	//
	for _, text := range examples {
		equation := check_Equation(t, text)
		operands, err := Example(arena, equation, sizes, rng)
		require.NoError(t, err)
		//
		naive, err := Naive(arena, SumProduct, equation, operands...)
		require.NoError(t, err, text)
		direct, err := Direct(arena, SumProduct, equation, operands...)
		require.NoError(t, err, text)
		//
		check_Close(t, direct, naive)
	}
	//
	_, err := Example(arena, check_Equation(t, "az->a"), sizes, rng)
	require.Error(t, err)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Equation(t *testing.T, text string) Equation {
	t.Helper()
	equation, err := Parse(text)
	require.NoError(t, err)
	//
	return equation
}

// check_Operand constructs a two-by-two operand.
func check_Operand(t *testing.T, arena *term.Arena, names []string, data ...float64) term.Term {
	t.Helper()
	arr, err := array.New(names, []uint{2, 2}, nil, data)
	require.NoError(t, err)
	operand, err := arena.Tensor(arr)
	require.NoError(t, err)
	//
	return operand
}

func check_Result(t *testing.T, result term.Term, names []string, data ...float64) {
	t.Helper()
	tensor, ok := result.(*term.Tensor)
	require.True(t, ok, "expected tensor, got %s", result.String())
	assert.Equal(t, names, tensor.Array().Names())
	assert.InDeltaSlice(t, data, tensor.Array().Data(), 1e-9)
}

func check_Close(t *testing.T, expected term.Term, actual term.Term) {
	t.Helper()
	//
	switch expected := expected.(type) {
	case *term.Number:
		number, ok := actual.(*term.Number)
		require.True(t, ok, "expected number, got %s", actual.String())
		assert.InDelta(t, expected.Value(), number.Value(), 1e-9)
	case *term.Tensor:
		check_Result(t, actual, expected.Array().Names(), expected.Array().Data()...)
	default:
		t.Fatalf("unexpected result %s", expected.String())
	}
}
