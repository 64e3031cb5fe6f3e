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
	"math"
	"slices"
	"strconv"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/consensys/go-measure/pkg/util/sexp"
)

// Binding associates a variable name with the term substituted for it.
type Binding struct {
	Name  string
	Value Term
}

// ============================================================================
// Variable
// ============================================================================

// Variable is a named free variable over a given domain.
type Variable struct {
	node
	name string
}

// Kind implementation for Term interface.
func (p *Variable) Kind() Kind { return KindVariable }

// Name returns the name of this variable.
func (p *Variable) Name() string { return p.name }

// Lisp implementation for Term interface.
func (p *Variable) Lisp() sexp.SExp {
	return sexp.NewSymbol(p.name)
}

func (p *Variable) String() string { return p.Lisp().String(true) }

// ============================================================================
// Number
// ============================================================================

// Number is a scalar constant, whose domain is either discrete or real.
type Number struct {
	node
	value float64
}

// Kind implementation for Term interface.
func (p *Number) Kind() Kind { return KindNumber }

// Value returns the value of this number.
func (p *Number) Value() float64 { return p.value }

// Lisp implementation for Term interface.  Real numbers are printed as plain
// symbols, whilst discrete numbers record their domain size.
func (p *Number) Lisp() sexp.SExp {
	var value = sexp.NewSymbol(formatFloat(p.value))
	//
	if p.output.IsDiscrete() {
		return sexp.NewList(sexp.NewSymbol("num"), value, sexp.NewSymbol(strconv.FormatUint(uint64(p.output.Size()), 10)))
	}
	//
	return value
}

func (p *Number) String() string { return p.Lisp().String(true) }

// ============================================================================
// Tensor
// ============================================================================

// Tensor is a dense array of values, whose named dimensions are its inputs
// (each ranging over a discrete domain of the dimension's size).
type Tensor struct {
	node
	data *array.Array
}

// Kind implementation for Term interface.
func (p *Tensor) Kind() Kind { return KindTensor }

// Array returns the data held in this tensor.
func (p *Tensor) Array() *array.Array { return p.data }

// Lisp implementation for Term interface.
func (p *Tensor) Lisp() sexp.SExp {
	var (
		names  = p.data.Names()
		sizes  = p.data.Sizes()
		data   = p.data.Data()
		dims   = make([]sexp.SExp, len(names))
		values = make([]sexp.SExp, len(data))
	)
	//
	for i, n := range names {
		dims[i] = sexp.NewSymbol(fmt.Sprintf("%s:%d", n, sizes[i]))
	}
	//
	for i, v := range data {
		values[i] = sexp.NewSymbol(formatFloat(v))
	}
	//
	list := sexp.NewList(sexp.NewSymbol("tensor"), sexp.NewList(dims...), sexp.NewArray(values...))
	// Only non-default element domains are recorded
	if p.output != domain.Real() {
		list.Append(sexp.NewSymbol(p.output.String()))
	}
	//
	return list
}

func (p *Tensor) String() string { return p.Lisp().String(true) }

// ============================================================================
// Unary
// ============================================================================

// Unary is the application of a unary operator to a single argument.
type Unary struct {
	node
	op  *ops.Op
	arg Term
}

// Kind implementation for Term interface.
func (p *Unary) Kind() Kind { return KindUnary }

// Op returns the operator being applied.
func (p *Unary) Op() *ops.Op { return p.op }

// Arg returns the argument.
func (p *Unary) Arg() Term { return p.arg }

// Lisp implementation for Term interface.
func (p *Unary) Lisp() sexp.SExp {
	return sexp.NewList(sexp.NewSymbol(p.op.Name()), p.arg.Lisp())
}

func (p *Unary) String() string { return p.Lisp().String(true) }

// ============================================================================
// Binary
// ============================================================================

// Binary is the application of a binary operator to two arguments.
type Binary struct {
	node
	op  *ops.Op
	lhs Term
	rhs Term
}

// Kind implementation for Term interface.
func (p *Binary) Kind() Kind { return KindBinary }

// Op returns the operator being applied.
func (p *Binary) Op() *ops.Op { return p.op }

// Lhs returns the left-hand argument.
func (p *Binary) Lhs() Term { return p.lhs }

// Rhs returns the right-hand argument.
func (p *Binary) Rhs() Term { return p.rhs }

// Lisp implementation for Term interface.
func (p *Binary) Lisp() sexp.SExp {
	return sexp.NewList(sexp.NewSymbol(p.op.Symbol()), p.lhs.Lisp(), p.rhs.Lisp())
}

func (p *Binary) String() string { return p.Lisp().String(true) }

// ============================================================================
// Finitary
// ============================================================================

// Finitary is the application of an associative operator to two or more
// operands.
type Finitary struct {
	node
	op       *ops.Op
	operands []Term
}

// Kind implementation for Term interface.
func (p *Finitary) Kind() Kind { return KindFinitary }

// Op returns the operator being applied.
func (p *Finitary) Op() *ops.Op { return p.op }

// Operands returns the operands, in order.
func (p *Finitary) Operands() []Term { return slices.Clone(p.operands) }

// Lisp implementation for Term interface.
func (p *Finitary) Lisp() sexp.SExp {
	list := sexp.NewList(sexp.NewSymbol("finitary"), sexp.NewSymbol(p.op.Symbol()))
	//
	for _, arg := range p.operands {
		list.Append(arg.Lisp())
	}
	//
	return list
}

func (p *Finitary) String() string { return p.Lisp().String(true) }

// ============================================================================
// Reduce
// ============================================================================

// Reduce folds an associative operator over every assignment to a set of
// (bound) variables.
type Reduce struct {
	node
	op   *ops.Op
	arg  Term
	vars []string
}

// Kind implementation for Term interface.
func (p *Reduce) Kind() Kind { return KindReduce }

// Op returns the reduction operator.
func (p *Reduce) Op() *ops.Op { return p.op }

// Arg returns the term being reduced.
func (p *Reduce) Arg() Term { return p.arg }

// Vars returns the (sorted) names of the variables being reduced.
func (p *Reduce) Vars() []string { return slices.Clone(p.vars) }

// Lisp implementation for Term interface.
func (p *Reduce) Lisp() sexp.SExp {
	return sexp.NewList(sexp.NewSymbol("reduce"), sexp.NewSymbol(p.op.Symbol()), symbols(p.vars), p.arg.Lisp())
}

func (p *Reduce) String() string { return p.Lisp().String(true) }

// ============================================================================
// Stack
// ============================================================================

// Stack combines one or more parts into a single term indexed by a fresh
// discrete variable, such that substituting i for that variable yields the
// ith part.
type Stack struct {
	node
	name  string
	parts []Term
}

// Kind implementation for Term interface.
func (p *Stack) Kind() Kind { return KindStack }

// Name returns the name of the index variable.
func (p *Stack) Name() string { return p.name }

// Parts returns the parts of this stack.
func (p *Stack) Parts() []Term { return slices.Clone(p.parts) }

// Lisp implementation for Term interface.
func (p *Stack) Lisp() sexp.SExp {
	list := sexp.NewList(sexp.NewSymbol("stack"), sexp.NewSymbol(p.name))
	//
	for _, part := range p.parts {
		list.Append(part.Lisp())
	}
	//
	return list
}

func (p *Stack) String() string { return p.Lisp().String(true) }

// ============================================================================
// Subs
// ============================================================================

// Subs is a lazy substitution of one or more terms for variables of an
// argument.
type Subs struct {
	node
	arg      Term
	bindings []Binding
}

// Kind implementation for Term interface.
func (p *Subs) Kind() Kind { return KindSubs }

// Arg returns the term being substituted into.
func (p *Subs) Arg() Term { return p.arg }

// Bindings returns the bindings being substituted, sorted by name.
func (p *Subs) Bindings() []Binding { return slices.Clone(p.bindings) }

// Lisp implementation for Term interface.
func (p *Subs) Lisp() sexp.SExp {
	list := sexp.NewList(sexp.NewSymbol("subs"), p.arg.Lisp())
	//
	for _, b := range p.bindings {
		list.Append(sexp.NewList(sexp.NewSymbol(b.Name), b.Value.Lisp()))
	}
	//
	return list
}

func (p *Subs) String() string { return p.Lisp().String(true) }

// ============================================================================
// Integrate
// ============================================================================

// Integrate represents the integral (or, over discrete variables, the sum) of
// an integrand against a measure, over a set of reduced variables.
type Integrate struct {
	node
	measure   Term
	integrand Term
	vars      []string
}

// Kind implementation for Term interface.
func (p *Integrate) Kind() Kind { return KindIntegrate }

// Measure returns the measure being integrated against.
func (p *Integrate) Measure() Term { return p.measure }

// Integrand returns the term being integrated.
func (p *Integrate) Integrand() Term { return p.integrand }

// Vars returns the (sorted) names of the variables being integrated out.
func (p *Integrate) Vars() []string { return slices.Clone(p.vars) }

// Lisp implementation for Term interface.
func (p *Integrate) Lisp() sexp.SExp {
	return sexp.NewList(sexp.NewSymbol("integrate"), symbols(p.vars), p.measure.Lisp(), p.integrand.Lisp())
}

func (p *Integrate) String() string { return p.Lisp().String(true) }

// ============================================================================
// Helpers
// ============================================================================

func symbols(names []string) *sexp.List {
	var list = sexp.NewList()
	//
	for _, n := range names {
		list.Append(sexp.NewSymbol(n))
	}
	//
	return list
}

func formatFloat(value float64) string {
	switch {
	case math.IsInf(value, 1):
		return "inf"
	case math.IsInf(value, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
}
