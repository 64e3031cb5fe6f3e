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
	"testing"

	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integrating a sum introduces a counting measure.
func Test_Integrate_01(t *testing.T) {
	arena := NewArena()
	measure := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.3, 0.7)
	body := check_Tensor(t, arena, []string{"x", "y"}, []uint{2, 3}, 1, 2, 3, 4, 5, 6)
	sum := check_Reflect(t, arena, func() (Term, error) { return arena.Reduce(ops.Add, body, "y") })
	//
	result := check_Rule(t, arena, integrateReduce, measure, sum)
	//
	check_Value(t, arena, 12.3, result)
	check_Equivalent(t, arena, check_Integral(t, arena, measure, sum), result)
	// Only sums are handled
	max := check_Reflect(t, arena, func() (Term, error) { return arena.Reduce(ops.Max, body, "y") })
	require.Nil(t, check_Rule(t, arena, integrateReduce, measure, max))
}

// Integration is linear in the integrand.
func Test_Integrate_02(t *testing.T) {
	arena := NewArena()
	measure := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.5, 0.5)
	lhs := check_Tensor(t, arena, []string{"x"}, []uint{2}, 1, 2)
	rhs := check_Tensor(t, arena, []string{"x"}, []uint{2}, 3, 5)
	sum := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Add, lhs, rhs) })
	//
	result := check_Rule(t, arena, integrateFinitary, measure, sum)
	//
	require.Same(t, arena.Number(5.5), result)
}

// Factors not depending on the integrated variables are moved outside.
func Test_Integrate_03(t *testing.T) {
	arena := NewArena()
	c := arena.Variable("c", domain.Real())
	d := arena.Variable("d", domain.Real())
	measure := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.5, 0.5)
	payout := check_Tensor(t, arena, []string{"x"}, []uint{2}, 2, 4)
	product := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Mul, c, payout) })
	//
	result := check_Rule(t, arena, integrateFinitary, measure, product)
	//
	require.Same(t, check_Ok(t)(arena.Binary(ops.Mul, c, arena.Number(3))), result)
	require.Same(t, arena.Number(6), check_Ok(t)(arena.Substitute(result, map[string]Term{"c": arena.Number(2)})))
	// Everything is constant
	constant := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Mul, c, d) })
	result = check_Rule(t, arena, integrateFinitary, measure, constant)
	expected := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Mul, c, d, arena.Number(1)) })
	require.Same(t, expected, result)
	// Nothing is constant
	dependent := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Mul, payout, payout) })
	require.Nil(t, check_Rule(t, arena, integrateFinitary, measure, dependent))
}

// Product measures are integrated one factor at a time.
func Test_Integrate_04(t *testing.T) {
	arena := NewArena()
	p := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.4, 0.6)
	q := check_Tensor(t, arena, []string{"x", "y"}, []uint{2, 2}, 0.1, 0.9, 0.8, 0.2)
	f := check_Tensor(t, arena, []string{"y"}, []uint{2}, 1, 2)
	g := check_Tensor(t, arena, []string{"x"}, []uint{2}, 3, 4)
	measure := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Mul, p, q) })
	integrand := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Mul, f, g) })
	//
	result := check_Rule(t, arena, integrateProduct, measure, integrand)
	//
	check_Value(t, arena, 5.16, result)
	check_Equivalent(t, arena, check_Integral(t, arena, measure, integrand), result)
	// Any integrand
	result = check_Rule(t, arena, integrateMeasure, measure, f)
	check_Equivalent(t, arena, check_Integral(t, arena, measure, f), result)
}

// Integration is linear in the measure.
func Test_Integrate_05(t *testing.T) {
	arena := NewArena()
	p := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.4, 0.6)
	q := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.1, 0.9)
	f := check_Tensor(t, arena, []string{"x", "z"}, []uint{2, 2}, 1, 2, 3, 4)
	measure := check_Reflect(t, arena, func() (Term, error) { return arena.Finitary(ops.Add, p, q) })
	//
	result := check_Rule(t, arena, integrateMeasure, measure, f)
	//
	check_Equivalent(t, arena, check_Integral(t, arena, measure, f), result)
	require.Equal(t, "{z:int(2)}", result.Inputs().String())
}

// Binary sums and products are treated as finitary ones.
func Test_Integrate_06(t *testing.T) {
	arena := NewArena(WithInterpretation(Optimize))
	c := arena.Variable("c", domain.Real())
	measure := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.5, 0.5)
	payout := check_Tensor(t, arena, []string{"x"}, []uint{2}, 2, 4)
	//
	product := check_Ok(t)(arena.Binary(ops.Mul, c, payout))
	require.Equal(t, KindBinary, product.Kind())
	//
	result := check_Ok(t)(arena.Integrate(measure, product))
	require.Same(t, check_Ok(t)(arena.Binary(ops.Mul, c, arena.Number(3))), result)
	//
	negated := check_Ok(t)(arena.Unary(ops.Neg, product))
	result = check_Ok(t)(arena.Integrate(measure, negated))
	check_Value(t, arena, -6, check_Ok(t)(arena.Substitute(result, map[string]Term{"c": arena.Number(2)})))
}

// Associative operations are flattened.
func Test_Integrate_07(t *testing.T) {
	arena := NewArena(WithInterpretation(Optimize))
	x := arena.Variable("x", domain.Real())
	y := arena.Variable("y", domain.Real())
	z := arena.Variable("z", domain.Real())
	//
	sum := check_Ok(t)(arena.Finitary(ops.Add, x, y))
	//
	require.Same(t, check_Ok(t)(arena.Finitary(ops.Add, x, y, z)), check_Ok(t)(arena.Binary(ops.Add, sum, z)))
	require.Same(t, check_Ok(t)(arena.Finitary(ops.Add, z, x, y)), check_Ok(t)(arena.Binary(ops.Add, z, sum)))
	require.Equal(t, KindBinary, check_Ok(t)(arena.Binary(ops.Mul, sum, z)).Kind())
}

// Base measures.
func Test_Integrate_08(t *testing.T) {
	arena := NewArena()
	x := arena.Variable("x", domain.Discrete(4))
	y := arena.Variable("y", domain.Discrete(3))
	r := arena.Variable("r", domain.Real())
	xy := check_Ok(t)(arena.Binary(ops.Mul, x, y))
	//
	uniform := check_Ok(t)(arena.BaseMeasure(x, []string{"x"}, true))
	require.Same(t, check_Tensor(t, arena, []string{"x"}, []uint{4}, 0.25, 0.25, 0.25, 0.25), uniform)
	//
	counting := check_Ok(t)(arena.BaseMeasure(xy, []string{"x", "y", "z"}, false))
	require.Same(t, arena.Number(12), check_Ok(t)(arena.ReduceAll(ops.Add, counting)))
	//
	require.Same(t, arena.Number(1), check_Ok(t)(arena.BaseMeasure(xy, nil, true)))
	//
	_, err := arena.BaseMeasure(r, []string{"r"}, false)
	require.ErrorIs(t, err, ErrUnimplementedMeasure)
}

// Integrals without integrated variables are products.
func Test_Integrate_09(t *testing.T) {
	arena := NewArena()
	c := arena.Variable("c", domain.Real())
	measure := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.5, 0.5)
	//
	require.Same(t, check_Ok(t)(arena.Binary(ops.Mul, measure, c)), check_Ok(t)(arena.IntegrateOver(measure, c, "z")))
	//
	var integral Term
	//
	require.NoError(t, arena.Interpret(Reflect, func() (err error) {
		integral, err = arena.Integrate(measure, c)
		return err
	}))
	//
	require.Equal(t, KindIntegrate, integral.Kind())
	assert.Equal(t, []string{"x"}, integral.(*Integrate).Vars())
	assert.Equal(t, "{c:real}", integral.Inputs().String())
}

// Rules fired are counted.
func Test_Integrate_10(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	arena := NewArena(WithInterpretation(Optimize), WithMetrics(metrics))
	c := arena.Variable("c", domain.Real())
	measure := check_Tensor(t, arena, []string{"x"}, []uint{2}, 0.5, 0.5)
	payout := check_Tensor(t, arena, []string{"x"}, []uint{2}, 2, 4)
	product := check_Ok(t)(arena.Binary(ops.Mul, c, payout))
	//
	_ = check_Ok(t)(arena.Integrate(measure, product))
	//
	for _, rule := range []string{"integrate-binary", "integrate-finitary", "integrate-ground"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rewrites.WithLabelValues("optimize", rule)), rule)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Reflect(t *testing.T, arena *Arena, fn func() (Term, error)) Term {
	t.Helper()
	//
	var result Term
	//
	require.NoError(t, arena.Interpret(Reflect, func() (err error) {
		result, err = fn()
		return err
	}))
	//
	return result
}

// check_Integral constructs a lazy integral over all measure variables.
func check_Integral(t *testing.T, arena *Arena, measure Term, integrand Term) Term {
	t.Helper()
	//
	return check_Reflect(t, arena, func() (Term, error) { return arena.Integrate(measure, integrand) })
}

// check_Rule applies a rule under Optimize to the integral of an integrand
// against a measure (over all measure variables).
func check_Rule(t *testing.T, arena *Arena, rule RuleFunc, measure Term, integrand Term) Term {
	t.Helper()
	//
	app := &Application{Kind: KindIntegrate, Args: []Term{measure, integrand}, Vars: measure.Inputs().Filter(
		measure.Inputs().Names())}
	require.NoError(t, arena.check(app))
	//
	var result Term
	//
	require.NoError(t, arena.Interpret(Optimize, func() (err error) {
		result, err = rule(arena, app)
		return err
	}))
	//
	return result
}
