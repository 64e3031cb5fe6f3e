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
package term

import (
	"errors"
	"testing"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/consensys/go-measure/pkg/util/sexp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnvironment = Environment{
	"x": domain.Real(),
	"y": domain.Real(),
	"i": domain.Discrete(3),
	"j": domain.Discrete(2),
}

// Printed terms parse back to themselves.
func Test_Parser_01(t *testing.T) {
	arena := NewArena(WithInterpretation(Reflect))
	x := arena.Variable("x", domain.Real())
	y := arena.Variable("y", domain.Real())
	i := arena.Variable("i", domain.Discrete(3))
	xi := check_Ok(t)(arena.Binary(ops.Mul, x, i))
	//
	check_RoundTrip(t, arena, x)
	check_RoundTrip(t, arena, arena.Number(-1.5))
	check_RoundTrip(t, arena, arena.Number(2, domain.Discrete(3)))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Binary(ops.Add, x, check_Ok(t)(arena.Binary(ops.Mul, y,
		arena.Number(2))))))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Binary(ops.Pow, x, y)))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Binary(ops.Le, i, i)))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Unary(ops.Neg, x)))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Finitary(ops.Mul, x, y, i)))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Reduce(ops.Add, xi, "i")))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Stack("k", x, y)))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Substitute(xi, map[string]Term{"i": arena.Number(1,
		domain.Discrete(3))})))
	//
	measure := check_Tensor(t, arena, []string{"i"}, []uint{3}, 0.2, 0.3, 0.5)
	check_RoundTrip(t, arena, measure)
	check_RoundTrip(t, arena, check_Ok(t)(arena.Integrate(measure, x)))
	check_RoundTrip(t, arena, check_Ok(t)(arena.Tensor(array.Arange("j", 2), domain.Discrete(2))))
}

// Associative operators accept more than two arguments.
func Test_Parser_02(t *testing.T) {
	arena := NewArena()
	x := arena.Variable("x", domain.Real())
	y := arena.Variable("y", domain.Real())
	//
	expected := check_Ok(t)(arena.Binary(ops.Add, check_Ok(t)(arena.Binary(ops.Add, x, y)), arena.Number(1)))
	require.Same(t, expected, check_Ok(t)(Parse(arena, testEnvironment, "(+ x y 1)")))
	// Evaluated eagerly
	require.Same(t, arena.Number(3), check_Ok(t)(Parse(arena, testEnvironment, "(subs (+ x 1) (x 2))")))
	require.Same(t, arena.Number(-2), check_Ok(t)(Parse(arena, testEnvironment, "(- 2)")))
}

func Test_Parser_03(t *testing.T) {
	check_ParseError(t, "(+ x q)", 5, 6, "unknown variable")
	check_ParseError(t, "(foo x)", 1, 4, "unknown operator")
	check_ParseError(t, "(- x y 1)", 0, 9, "operator is not associative")
	check_ParseError(t, "(tensor (i) [1])", 9, 10, "invalid dimension")
	check_ParseError(t, "(reduce + i x)", 10, 11, "expected list of variables")
	check_ParseError(t, "()", 0, 2, "invalid term")
	check_ParseError(t, "(+ x", 4, 5, "unexpected end-of-file")
}

// Construction errors are reported with their position.
func Test_Parser_04(t *testing.T) {
	arena := NewArena()
	//
	_, err := Parse(arena, testEnvironment, "(+ x (subs x (x (num 1 3))))")
	require.ErrorIs(t, err, ErrDomainMismatch)
	//
	var posError *PositionError
	//
	require.ErrorAs(t, err, &posError)
	assert.Equal(t, 5, posError.Span().Start())
	assert.Equal(t, 27, posError.Span().End())
	//
	_, err = Parse(arena, testEnvironment, "(tensor (i:2) [1 2 3])")
	require.ErrorIs(t, err, ErrShapeMismatch)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_RoundTrip(t *testing.T, arena *Arena, term Term) {
	t.Helper()
	parsed, err := Parse(arena, testEnvironment, term.String())
	require.NoError(t, err, term.String())
	require.Same(t, term, parsed, term.String())
}

func check_ParseError(t *testing.T, text string, start int, end int, msg string) {
	t.Helper()
	_, err := Parse(NewArena(), testEnvironment, text)
	//
	var syntaxError *sexp.SyntaxError
	//
	require.True(t, errors.As(err, &syntaxError), "%s: expected syntax error, got %v", text, err)
	assert.Equal(t, msg, syntaxError.Message())
	assert.Equal(t, start, syntaxError.Span().Start(), text)
	assert.Equal(t, end, syntaxError.Span().End(), text)
}
