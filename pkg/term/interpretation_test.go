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

// More specific rules are tried first, and declining rules are skipped.
func Test_Interpretation_01(t *testing.T) {
	dispatcher := NewDispatcher("test", Reflect).
		Register("generic", On(KindBinary, AnyKind, AnyKind), check_Constant(1)).
		Register("specific", On(KindBinary, ValueKinds, ValueKinds), check_Constant(2)).
		Register("declining", On(KindBinary, KindsOf(KindNumber), KindsOf(KindNumber)), check_Constant(-1))
	//
	rules := dispatcher.Rules(KindBinary, []Kind{KindNumber, KindNumber})
	require.Len(t, rules, 3)
	assert.Equal(t, "declining", rules[0].Name)
	assert.Equal(t, "specific", rules[1].Name)
	assert.Equal(t, "generic", rules[2].Name)
	//
	arena := NewArena(WithInterpretation(dispatcher))
	x := arena.Variable("x", domain.Real())
	//
	require.Same(t, arena.Number(2), check_Ok(t)(arena.Binary(ops.Add, arena.Number(5), arena.Number(6))))
	require.Same(t, arena.Number(1), check_Ok(t)(arena.Binary(ops.Add, x, x)))
	require.Equal(t, KindUnary, check_Ok(t)(arena.Unary(ops.Neg, x)).Kind())
}

// Equally specific rules are tried in registration order.
func Test_Interpretation_02(t *testing.T) {
	dispatcher := NewDispatcher("test", Reflect).
		Register("first", On(KindUnary, AnyKind), check_Constant(1)).
		Register("second", On(KindUnary, AnyKind), check_Constant(2))
	arena := NewArena(WithInterpretation(dispatcher))
	//
	require.Same(t, arena.Number(1), check_Ok(t)(arena.Unary(ops.Neg, arena.Variable("x", domain.Real()))))
}

func Test_Interpretation_03(t *testing.T) {
	variadic := Pattern{Kind: KindFinitary, Args: []KindSet{KindsOf(KindVariable)}, Rest: ValueKinds}
	fixed := On(KindBinary, AnyKind, AnyKind)
	//
	assert.True(t, variadic.Matches(KindFinitary, []Kind{KindVariable, KindNumber, KindTensor}))
	assert.True(t, variadic.Matches(KindFinitary, []Kind{KindVariable}))
	assert.False(t, variadic.Matches(KindFinitary, []Kind{KindNumber}))
	assert.False(t, variadic.Matches(KindFinitary, []Kind{KindVariable, KindVariable}))
	assert.False(t, variadic.Matches(KindBinary, []Kind{KindVariable, KindNumber}))
	assert.True(t, fixed.Matches(KindBinary, []Kind{KindStack, KindSubs}))
	assert.False(t, fixed.Matches(KindBinary, []Kind{KindStack, KindSubs, KindNumber}))
	assert.False(t, fixed.Matches(KindBinary, []Kind{KindStack}))
	//
	assert.Equal(t, 0, fixed.Specificity())
	assert.Equal(t, 17, variadic.Specificity())
}

// Interning and rewriting are counted.
func Test_Interpretation_04(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	arena := NewArena(WithMetrics(metrics))
	//
	arena.Variable("x", domain.Real())
	arena.Variable("x", domain.Real())
	check_Ok(t)(arena.Binary(ops.Add, arena.Number(1), arena.Number(2)))
	//
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.Interned))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rewrites.WithLabelValues("eager", "binary-values")))
}

// ===================================================================
// Test Helpers
// ===================================================================

// check_Constant returns a rule which rewrites everything to a given number,
// or declines for negative numbers.
func check_Constant(value float64) RuleFunc {
	return func(arena *Arena, app *Application) (Term, error) {
		if value < 0 {
			return nil, nil
		}
		//
		return arena.Number(value), nil
	}
}
