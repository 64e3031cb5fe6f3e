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
package ops

import (
	"errors"
	"fmt"
	"math"

	"github.com/consensys/go-measure/pkg/domain"
)

// ErrShapeMismatch indicates operands whose shapes cannot be combined by a
// given operator.
var ErrShapeMismatch = errors.New("shape mismatch")

// Op identifies an operator in the closed operator table.  Operators are
// compared by identity, so there is exactly one instance of each.
type Op struct {
	// Name used when printing and when looking up by name.
	name string
	// Symbol used when printing expressions.
	symbol string
	// Implementation for unary operators (nil otherwise)
	unary func(float64) float64
	// Implementation for binary operators (nil otherwise)
	binary func(float64, float64) float64
	// Determines whether this operator is associative and commutative.
	associative bool
	// Identity element (for associative operators only)
	identity float64
	// Result domain of a discrete (unary) argument
	discrete1 func(domain.Domain) domain.Domain
	// Result domain of two discrete arguments
	discrete2 func(domain.Domain, domain.Domain) domain.Domain
	// Determines whether a real result is truth-valued
	logical bool
}

// Name returns the name of this operator (e.g. "add").
func (p *Op) Name() string {
	return p.name
}

// Symbol returns the printed symbol of this operator (e.g. "+").
func (p *Op) Symbol() string {
	return p.symbol
}

// IsUnary determines whether this operator takes exactly one argument.
func (p *Op) IsUnary() bool {
	return p.unary != nil
}

// IsBinary determines whether this operator takes exactly two arguments.
func (p *Op) IsBinary() bool {
	return p.binary != nil
}

// IsAssociative determines whether this operator is associative and
// commutative.  Only such operators can be used for reductions.
func (p *Op) IsAssociative() bool {
	return p.associative
}

// Identity returns the identity element of an associative operator.
func (p *Op) Identity() float64 {
	if !p.associative {
		panic(fmt.Sprintf("operator %s has no identity", p.name))
	}
	//
	return p.identity
}

// Apply1 applies this (unary) operator to a given value.
func (p *Op) Apply1(x float64) float64 {
	return p.unary(x)
}

// Apply2 applies this (binary) operator to a given pair of values.
func (p *Op) Apply2(x, y float64) float64 {
	return p.binary(x, y)
}

// UnaryDomain determines the result domain of applying this (unary) operator
// to an argument of the given domain.
func (p *Op) UnaryDomain(arg domain.Domain) domain.Domain {
	if arg.IsDiscrete() {
		return p.discrete1(arg)
	}
	//
	return arg
}

// BinaryDomain determines the result domain of applying this (binary)
// operator to arguments of the given domains.  Real shapes are broadcast when
// one side is scalar, otherwise they must match exactly.
func (p *Op) BinaryDomain(lhs, rhs domain.Domain) (domain.Domain, error) {
	if lhs.IsDiscrete() && rhs.IsDiscrete() {
		return p.discrete2(lhs, rhs), nil
	} else if lhs.IsScalar() {
		return domain.Real(rhs.Shape()...), nil
	} else if rhs.IsScalar() || lhs == rhs {
		return domain.Real(lhs.Shape()...), nil
	}
	//
	return domain.Domain{}, fmt.Errorf("%w: %s %s %s", ErrShapeMismatch, lhs.String(), p.symbol, rhs.String())
}

// IsLogical determines whether this operator produces truth values.
func (p *Op) IsLogical() bool {
	return p.logical
}

func (p *Op) String() string {
	return p.name
}

// ============================================================================
// Operator Table
// ============================================================================

var (
	// Neg is arithmetic negation.
	Neg = unaryOp("neg", "neg", func(x float64) float64 { return -x }, toReal)
	// Abs is the absolute value.
	Abs = unaryOp("abs", "abs", math.Abs, same)
	// Sqrt is the square root.
	Sqrt = unaryOp("sqrt", "sqrt", math.Sqrt, toReal)
	// Exp is the exponential function.
	Exp = unaryOp("exp", "exp", math.Exp, toReal)
	// Log is the natural logarithm.
	Log = unaryOp("log", "log", math.Log, toReal)
	// Log1p is log(1+x).
	Log1p = unaryOp("log1p", "log1p", math.Log1p, toReal)
	// Not is logical negation.
	Not = unaryOp("not", "not", func(x float64) float64 { return truth(x == 0) }, toBool)
)

var (
	// Add is addition.
	Add = assocOp("add", "+", func(x, y float64) float64 { return x + y }, 0, sumDomain)
	// Mul is multiplication.
	Mul = assocOp("mul", "*", func(x, y float64) float64 { return x * y }, 1, productDomain)
	// Min is the minimum of two values.
	Min = assocOp("min", "min", math.Min, math.Inf(1), minDomain)
	// Max is the maximum of two values.
	Max = assocOp("max", "max", math.Max, math.Inf(-1), maxDomain)
	// And is logical conjunction.
	And = logicalOp("and", "&", func(x, y float64) float64 { return truth(x != 0 && y != 0) }, true, 1)
	// Or is logical disjunction.
	Or = logicalOp("or", "|", func(x, y float64) float64 { return truth(x != 0 || y != 0) }, true, 0)
	// Xor is logical exclusive or.
	Xor = logicalOp("xor", "^", func(x, y float64) float64 { return truth((x != 0) != (y != 0)) }, true, 0)
	// Sub is subtraction.
	Sub = binaryOp("sub", "-", func(x, y float64) float64 { return x - y })
	// Div is division.
	Div = binaryOp("div", "/", func(x, y float64) float64 { return x / y })
	// Pow is exponentiation.
	Pow = binaryOp("pow", "**", math.Pow)
	// Eq is equality.
	Eq = logicalOp("eq", "==", func(x, y float64) float64 { return truth(x == y) }, false, 0)
	// Ne is disequality.
	Ne = logicalOp("ne", "!=", func(x, y float64) float64 { return truth(x != y) }, false, 0)
	// Lt is strictly less than.
	Lt = logicalOp("lt", "<", func(x, y float64) float64 { return truth(x < y) }, false, 0)
	// Le is less than or equal.
	Le = logicalOp("le", "<=", func(x, y float64) float64 { return truth(x <= y) }, false, 0)
	// Gt is strictly greater than.
	Gt = logicalOp("gt", ">", func(x, y float64) float64 { return truth(x > y) }, false, 0)
	// Ge is greater than or equal.
	Ge = logicalOp("ge", ">=", func(x, y float64) float64 { return truth(x >= y) }, false, 0)
)

// UNARY lists all unary operators.
var UNARY = []*Op{Neg, Abs, Sqrt, Exp, Log, Log1p, Not}

// BINARY lists all binary operators.
var BINARY = []*Op{Add, Sub, Mul, Div, Pow, Eq, Ne, Lt, Le, Gt, Ge, Min, Max, And, Or, Xor}

// REDUCTIONS lists all operators which can be used for reductions.
var REDUCTIONS = []*Op{Add, Mul, Min, Max, And, Or, Xor}

// Lookup an operator by its name or symbol.  Since some binary and unary
// operators share a symbol (e.g. "-"), the number of arguments is used to
// disambiguate.
func Lookup(key string, arity uint) (*Op, bool) {
	var table = BINARY
	//
	if arity == 1 {
		table = UNARY
		// Unary minus
		if key == "-" {
			return Neg, true
		}
	}
	//
	for _, op := range table {
		if op.name == key || op.symbol == key {
			return op, true
		}
	}
	//
	return nil, false
}

// ============================================================================
// Helpers
// ============================================================================

func unaryOp(name, symbol string, fn func(float64) float64, typing func(domain.Domain) domain.Domain) *Op {
	return &Op{name: name, symbol: symbol, unary: fn, discrete1: typing, logical: name == "not"}
}

func binaryOp(name, symbol string, fn func(float64, float64) float64) *Op {
	return &Op{name: name, symbol: symbol, binary: fn, discrete2: func(_, _ domain.Domain) domain.Domain {
		return domain.Real()
	}}
}

func assocOp(name, symbol string, fn func(float64, float64) float64, identity float64,
	typing func(domain.Domain, domain.Domain) domain.Domain) *Op {
	return &Op{name: name, symbol: symbol, binary: fn, associative: true, identity: identity, discrete2: typing}
}

func logicalOp(name, symbol string, fn func(float64, float64) float64, associative bool, identity float64) *Op {
	return &Op{name: name, symbol: symbol, binary: fn, associative: associative, identity: identity,
		discrete2: func(_, _ domain.Domain) domain.Domain {
			return domain.Bool
		}, logical: true}
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	//
	return 0
}

func same(d domain.Domain) domain.Domain { return d }

func toReal(domain.Domain) domain.Domain { return domain.Real() }

func toBool(domain.Domain) domain.Domain { return domain.Bool }

// Sums of values drawn from {0..n-1} and {0..m-1} lie within {0..n+m-2}.
func sumDomain(lhs, rhs domain.Domain) domain.Domain {
	return domain.Discrete(lhs.Size() + rhs.Size() - 1)
}

// Products of values drawn from {0..n-1} and {0..m-1} lie within
// {0..(n-1)*(m-1)}.
func productDomain(lhs, rhs domain.Domain) domain.Domain {
	return domain.Discrete((lhs.Size()-1)*(rhs.Size()-1) + 1)
}

func minDomain(lhs, rhs domain.Domain) domain.Domain {
	return domain.Discrete(min(lhs.Size(), rhs.Size()))
}

func maxDomain(lhs, rhs domain.Domain) domain.Domain {
	return domain.Discrete(max(lhs.Size(), rhs.Size()))
}
