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
	"fmt"
	"slices"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
)

func init() {
	Optimize.
		Register("integrate-ground", On(KindIntegrate, GroundKinds, GroundKinds), integrateGround).
		Register("integrate-reduce", On(KindIntegrate, AnyKind, KindsOf(KindReduce)), integrateReduce).
		Register("integrate-finitary", On(KindIntegrate, GroundKinds, KindsOf(KindFinitary)), integrateFinitary).
		Register("integrate-binary", On(KindIntegrate, GroundKinds, KindsOf(KindBinary)), integrateBinary).
		Register("integrate-neg", On(KindIntegrate, GroundKinds, KindsOf(KindUnary)), integrateNeg).
		Register("integrate-product", On(KindIntegrate, KindsOf(KindFinitary), KindsOf(KindFinitary)),
			integrateProduct).
		Register("integrate-measure", On(KindIntegrate, KindsOf(KindFinitary), AnyKind), integrateMeasure).
		Register("flatten-lhs", On(KindBinary, KindsOf(KindFinitary), AnyKind), flattenBinary).
		Register("flatten-rhs", On(KindBinary, AnyKind, KindsOf(KindFinitary)), flattenBinary)
}

// BaseMeasure constructs the counting measure over some discrete free
// variables of a term, as a product of one factor per variable.  When
// normalized, each factor is uniform (i.e. sums to one).  Names which are not
// free in the term are ignored, and an error is returned if any variable is
// real.
func (p *Arena) BaseMeasure(t Term, vars []string, normalized bool) (Term, error) {
	var (
		inputs  = t.Inputs()
		factors []Term
	)
	//
	for i, name := range inputs.names {
		if !slices.Contains(vars, name) {
			continue
		}
		//
		dom := inputs.domains[i]
		//
		if dom.IsReal() {
			return nil, fmt.Errorf("%w: base measure over real variable %s", ErrUnimplementedMeasure, name)
		}
		//
		value := 1.0
		//
		if normalized {
			value /= float64(dom.Size())
		}
		//
		factors = append(factors, p.fromArray(array.Fill([]string{name}, []uint{dom.Size()}, value), domain.Real()))
	}
	//
	if len(factors) == 0 {
		return p.Number(1), nil
	}
	//
	return p.Finitary(ops.Mul, factors...)
}

// integrateReduce integrates a sum by integrating its body against the
// counting measure over the summed variables, and then integrating the result.
func integrateReduce(arena *Arena, app *Application) (Term, error) {
	var reduce = app.Args[1].(*Reduce)
	//
	if reduce.op != ops.Add {
		return nil, nil
	}
	//
	base, err := arena.BaseMeasure(reduce.arg, reduce.vars, false)
	//
	if err != nil {
		return nil, err
	}
	//
	inner, err := arena.IntegrateOver(base, reduce.arg, reduce.vars...)
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.IntegrateOver(app.Args[0], inner, app.Vars...)
}

// integrateFinitary distributes an integral over a sum and, for a product,
// factors out those operands which do not depend on the integrated variables.
func integrateFinitary(arena *Arena, app *Application) (Term, error) {
	var (
		measure   = app.Args[0]
		integrand = app.Args[1].(*Finitary)
	)
	//
	switch integrand.op {
	case ops.Add:
		return integrateTerms(arena, integrand.operands, func(operand Term) (Term, error) {
			return arena.IntegrateOver(measure, operand, app.Vars...)
		})
	case ops.Mul:
		return factorConstants(arena, measure, integrand, app.Vars)
	default:
		return nil, nil
	}
}

// factorConstants rewrites the integral of a product such that operands not
// depending on the integrated variables are multiplied with the integral of
// the remaining operands.  This declines if there are no such operands.
func factorConstants(arena *Arena, measure Term, integrand *Finitary, vars []string) (Term, error) {
	var (
		constants []Term
		dependent []Term
	)
	//
	for _, operand := range integrand.operands {
		if operand.Inputs().Intersects(vars) {
			dependent = append(dependent, operand)
		} else {
			constants = append(constants, operand)
		}
	}
	//
	if len(constants) == 0 {
		return nil, nil
	}
	//
	outer, err := arena.Finitary(ops.Mul, constants...)
	//
	if err != nil {
		return nil, err
	}
	// An empty product is the unit
	var rest Term = arena.Number(1, integrand.output.Scalar())
	//
	if len(dependent) > 0 {
		if rest, err = arena.Finitary(ops.Mul, dependent...); err != nil {
			return nil, err
		}
	}
	//
	inner, err := arena.IntegrateOver(measure, rest, vars...)
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.Binary(ops.Mul, outer, inner)
}

// integrateBinary treats a sum or product of two terms as a finitary one.
func integrateBinary(arena *Arena, app *Application) (Term, error) {
	var binary = app.Args[1].(*Binary)
	//
	if binary.op != ops.Add && binary.op != ops.Mul {
		return nil, nil
	}
	//
	integrand, err := arena.Finitary(binary.op, binary.lhs, binary.rhs)
	//
	if err != nil {
		return nil, err
	} else if integrand.Kind() == KindBinary {
		return nil, nil
	}
	//
	return arena.IntegrateOver(app.Args[0], integrand, app.Vars...)
}

// integrateNeg moves negation outside of an integral.
func integrateNeg(arena *Arena, app *Application) (Term, error) {
	var unary = app.Args[1].(*Unary)
	//
	if unary.op != ops.Neg || !unary.output.IsReal() {
		return nil, nil
	}
	//
	inner, err := arena.IntegrateOver(app.Args[0], unary.arg, app.Vars...)
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.Unary(ops.Neg, inner)
}

// integrateProduct integrates a sum or product against a product measure.
func integrateProduct(arena *Arena, app *Application) (Term, error) {
	var (
		measure   = app.Args[0].(*Finitary)
		integrand = app.Args[1].(*Finitary)
	)
	//
	switch {
	case integrand.op == ops.Add:
		return integrateTerms(arena, integrand.operands, func(operand Term) (Term, error) {
			return arena.IntegrateOver(measure, operand, app.Vars...)
		})
	case integrand.op == ops.Mul && measure.op == ops.Mul:
		return integrateTower(arena, measure, integrand, app.Vars)
	default:
		return nil, nil
	}
}

// integrateMeasure distributes an integral over a sum of measures, and peels
// apart a product measure.
func integrateMeasure(arena *Arena, app *Application) (Term, error) {
	var measure = app.Args[0].(*Finitary)
	//
	switch measure.op {
	case ops.Add:
		return integrateTerms(arena, measure.operands, func(operand Term) (Term, error) {
			return arena.IntegrateOver(operand, app.Args[1], app.Vars...)
		})
	case ops.Mul:
		return integrateTower(arena, measure, app.Args[1], app.Vars)
	default:
		return nil, nil
	}
}

// integrateTower integrates against a product measure by selecting one factor
// as the root and integrating the remaining factors first.  The root is the
// factor depending on the fewest integrated variables (earliest first), and
// the inner integral covers only those variables on which the root does not
// depend.
func integrateTower(arena *Arena, measure *Finitary, integrand Term, vars []string) (Term, error) {
	var (
		root  = 0
		count = len(vars) + 1
	)
	//
	for i, factor := range measure.operands {
		if n := len(factor.Inputs().Filter(vars)); n < count {
			root, count = i, n
		}
	}
	//
	var (
		outer = measure.operands[root].Inputs().Filter(vars)
		inner = slices.DeleteFunc(slices.Clone(vars), func(v string) bool { return slices.Contains(outer, v) })
		rest  = slices.Delete(slices.Clone(measure.operands), root, root+1)
	)
	//
	others, err := arena.Finitary(ops.Mul, rest...)
	//
	if err != nil {
		return nil, err
	}
	//
	result, err := arena.IntegrateOver(others, integrand, inner...)
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.IntegrateOver(measure.operands[root], result, outer...)
}

// integrateTerms sums the integrals of a sequence of terms.
func integrateTerms(arena *Arena, terms []Term, fn func(Term) (Term, error)) (Term, error) {
	var results = make([]Term, len(terms))
	//
	for i, t := range terms {
		var err error
		//
		if results[i], err = fn(t); err != nil {
			return nil, err
		}
	}
	//
	return arena.Finitary(ops.Add, results...)
}

// flattenBinary merges an associative binary operation into a finitary operand
// of the same operator.
func flattenBinary(arena *Arena, app *Application) (Term, error) {
	if !app.Op.IsAssociative() {
		return nil, nil
	}
	//
	var (
		operands []Term
		merged   bool
	)
	//
	for _, arg := range app.Args {
		if f, ok := arg.(*Finitary); ok && f.op == app.Op {
			operands = append(operands, f.operands...)
			merged = true
		} else {
			operands = append(operands, arg)
		}
	}
	//
	if !merged {
		return nil, nil
	}
	//
	return arena.Finitary(app.Op, operands...)
}
