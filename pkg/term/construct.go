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

// Variable constructs a free variable of a given domain.
func (p *Arena) Variable(name string, dom domain.Domain) *Variable {
	var app = Application{Kind: KindVariable, Name: name, output: dom}
	// Cannot fail
	_ = app.inputs.add(name, dom)
	//
	return p.intern(&app).(*Variable)
}

// Number constructs a scalar constant.  The domain is real unless otherwise
// given, and must be scalar.
func (p *Arena) Number(value float64, dom ...domain.Domain) *Number {
	var output = domain.Real()
	//
	if len(dom) > 0 {
		output = dom[0]
	}
	//
	if !output.IsScalar() {
		panic(fmt.Sprintf("number %g has non-scalar domain %s", value, output.String()))
	}
	//
	return p.intern(&Application{Kind: KindNumber, Value: value, output: output}).(*Number)
}

// Tensor constructs a term from a given array of data.  Each named dimension
// of the array becomes a discrete input of the same size.  The element domain
// defaults to a real domain of the array's element shape.  A tensor without
// inputs and with a scalar domain is normalised to a Number.
func (p *Arena) Tensor(data *array.Array, dtype ...domain.Domain) (Term, error) {
	var output = domain.Real(data.Shape()...)
	//
	if len(dtype) > 0 {
		output = dtype[0]
		//
		if !slices.Equal(output.Shape(), data.Shape()) {
			return nil, fmt.Errorf("%w: tensor domain %s for elements of shape %v", ErrShapeMismatch, output.String(),
				data.Shape())
		}
	}
	//
	for i, n := range data.Sizes() {
		if n == 0 {
			return nil, fmt.Errorf("%w: tensor dimension %s is empty", ErrShapeMismatch, data.Names()[i])
		}
	}
	//
	return p.fromArray(data, output), nil
}

// fromArray constructs a term from an array which is known to be valid.
func (p *Arena) fromArray(data *array.Array, output domain.Domain) Term {
	var (
		names = data.Names()
		sizes = data.Sizes()
	)
	//
	if len(names) == 0 && output.IsScalar() {
		return p.Number(data.Get(), output)
	}
	//
	var app = Application{Kind: KindTensor, Data: data, output: output}
	//
	for i, n := range names {
		_ = app.inputs.add(n, domain.Discrete(sizes[i]))
	}
	//
	return p.intern(&app)
}

// Unary constructs the application of a unary operator.
func (p *Arena) Unary(op *ops.Op, arg Term) (Term, error) {
	if !op.IsUnary() {
		return nil, fmt.Errorf("%w: %s is not unary", ErrUnsupportedOperator, op.Name())
	}
	//
	return p.construct(&Application{Kind: KindUnary, Op: op, Args: []Term{arg}})
}

// Binary constructs the application of a binary operator.
func (p *Arena) Binary(op *ops.Op, lhs Term, rhs Term) (Term, error) {
	if !op.IsBinary() {
		return nil, fmt.Errorf("%w: %s is not binary", ErrUnsupportedOperator, op.Name())
	}
	//
	return p.construct(&Application{Kind: KindBinary, Op: op, Args: []Term{lhs, rhs}})
}

// Finitary constructs the application of an associative operator to one or
// more operands.  A single operand is returned as is.
func (p *Arena) Finitary(op *ops.Op, operands ...Term) (Term, error) {
	if !op.IsAssociative() {
		return nil, fmt.Errorf("%w: %s is not associative", ErrUnsupportedOperator, op.Name())
	}
	//
	switch len(operands) {
	case 0:
		return nil, fmt.Errorf("%w: finitary %s without operands", ErrUnsupportedOperator, op.Name())
	case 1:
		return operands[0], nil
	}
	//
	return p.construct(&Application{Kind: KindFinitary, Op: op, Args: slices.Clone(operands)})
}

// Reduce constructs the reduction of a term with an associative operator over
// some of its free variables.  Names which are not free in the term are
// ignored and, if none remain, the term is returned unchanged.
func (p *Arena) Reduce(op *ops.Op, arg Term, vars ...string) (Term, error) {
	if !op.IsAssociative() {
		return nil, fmt.Errorf("%w: cannot reduce with %s", ErrUnsupportedOperator, op.Name())
	}
	//
	if vars = arg.Inputs().Filter(vars); len(vars) == 0 {
		return arg, nil
	}
	//
	return p.construct(&Application{Kind: KindReduce, Op: op, Args: []Term{arg}, Vars: vars})
}

// ReduceAll reduces a term over all of its free variables.
func (p *Arena) ReduceAll(op *ops.Op, arg Term) (Term, error) {
	return p.Reduce(op, arg, arg.Inputs().names...)
}

// Stack constructs a term which yields the ith of one or more parts, when i is
// substituted for a fresh discrete variable of the given name.
func (p *Arena) Stack(name string, parts ...Term) (Term, error) {
	return p.construct(&Application{Kind: KindStack, Name: name, Args: slices.Clone(parts)})
}

// Substitute terms for some of the free variables of a given term.  Bindings
// for variables which are not free are ignored and, if none remain, the term
// is returned unchanged.  Each substituted term must have the domain of the
// variable it replaces.
func (p *Arena) Substitute(t Term, bindings map[string]Term) (Term, error) {
	var filtered []Binding
	//
	for name, value := range bindings {
		if t.Inputs().Has(name) {
			filtered = append(filtered, Binding{name, value})
		}
	}
	//
	if len(filtered) == 0 {
		return t, nil
	}
	//
	slices.SortFunc(filtered, compareBindings)
	//
	return p.construct(&Application{Kind: KindSubs, Args: []Term{t}, Bindings: filtered})
}

// Rename some of the free variables of a given term.
func (p *Arena) Rename(t Term, names map[string]string) (Term, error) {
	var bindings = make(map[string]Term)
	//
	for from, to := range names {
		if dom, ok := t.Inputs().Get(from); ok {
			bindings[from] = p.Variable(to, dom)
		}
	}
	//
	return p.Substitute(t, bindings)
}

// Integrate constructs the integral of an integrand against a measure, over
// all free variables of the measure.  Variables free only in the integrand are
// not integrated out and remain free in the result.
func (p *Arena) Integrate(measure Term, integrand Term) (Term, error) {
	return p.IntegrateOver(measure, integrand, measure.Inputs().names...)
}

// IntegrateOver constructs the integral of an integrand against a measure, over
// a given set of variables.  Names free in neither the measure nor the
// integrand are ignored and, if none remain, this is simply the product of the
// measure and the integrand.
func (p *Arena) IntegrateOver(measure Term, integrand Term, vars ...string) (Term, error) {
	inputs, err := unionOf(measure, integrand)
	//
	if err != nil {
		return nil, err
	} else if vars = inputs.Filter(vars); len(vars) == 0 {
		return p.Binary(ops.Mul, measure, integrand)
	}
	//
	return p.construct(&Application{Kind: KindIntegrate, Args: []Term{measure, integrand}, Vars: vars})
}

// ============================================================================
// Type Checking
// ============================================================================

// check a given application, determining the inputs and output of the term it
// describes.
func (p *Arena) check(app *Application) error {
	var err error
	//
	switch app.Kind {
	case KindUnary:
		app.inputs = app.Args[0].Inputs()
		app.output = app.Op.UnaryDomain(app.Args[0].Output())
	case KindBinary, KindFinitary:
		if app.inputs, err = unionOf(app.Args...); err != nil {
			return err
		}
		//
		app.output = app.Args[0].Output()
		//
		for _, arg := range app.Args[1:] {
			if app.output, err = app.Op.BinaryDomain(app.output, arg.Output()); err != nil {
				return err
			}
		}
	case KindReduce:
		app.inputs = app.Args[0].Inputs().without(app.Vars)
		app.output = app.Args[0].Output()
	case KindStack:
		return checkStack(app)
	case KindSubs:
		return checkSubs(app)
	case KindIntegrate:
		if app.inputs, err = unionOf(app.Args...); err != nil {
			return err
		}
		//
		app.inputs = app.inputs.without(app.Vars)
		app.output = app.Args[1].Output()
	default:
		panic(fmt.Sprintf("unexpected %s application", app.Kind.String()))
	}
	//
	return nil
}

func checkStack(app *Application) error {
	if len(app.Args) == 0 {
		return fmt.Errorf("%w: stack %s without parts", ErrUnsupportedOperator, app.Name)
	}
	//
	inputs, err := unionOf(app.Args...)
	//
	if err != nil {
		return err
	} else if inputs.Has(app.Name) {
		return fmt.Errorf("%w: stack index %s is already free", ErrDomainMismatch, app.Name)
	}
	//
	app.output = app.Args[0].Output()
	//
	for _, part := range app.Args[1:] {
		if part.Output() != app.output {
			return fmt.Errorf("%w: stack parts have domains %s and %s", ErrDomainMismatch, app.output.String(),
				part.Output().String())
		}
	}
	// Index variable comes first
	_ = app.inputs.add(app.Name, domain.Discrete(uint(len(app.Args))))
	//
	for i, n := range inputs.names {
		_ = app.inputs.add(n, inputs.domains[i])
	}
	//
	return nil
}

func checkSubs(app *Application) error {
	var (
		arg   = app.Args[0]
		names = make([]string, len(app.Bindings))
	)
	//
	for i, b := range app.Bindings {
		dom, ok := arg.Inputs().Get(b.Name)
		//
		if !ok {
			return fmt.Errorf("substituted variable %s is not free in %s", b.Name, arg.String())
		} else if dom != b.Value.Output() {
			return fmt.Errorf("%w: cannot substitute %s of domain %s for %s of domain %s", ErrDomainMismatch,
				b.Value.String(), b.Value.Output().String(), b.Name, dom.String())
		}
		//
		names[i] = b.Name
	}
	//
	app.inputs = arg.Inputs().without(names)
	app.output = arg.Output()
	//
	for _, b := range app.Bindings {
		inputs := b.Value.Inputs()
		//
		for i, n := range inputs.names {
			if err := app.inputs.add(n, inputs.domains[i]); err != nil {
				return err
			}
		}
	}
	//
	return nil
}
