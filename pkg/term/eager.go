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
	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/ops"
)

func init() {
	Eager.
		Register("unary-values", On(KindUnary, ValueKinds), eagerUnary).
		Register("binary-values", On(KindBinary, ValueKinds, ValueKinds), eagerBinary).
		Register("binary-arange-lhs", On(KindBinary, KindsOf(KindVariable), ValueKinds), eagerArange).
		Register("binary-arange-rhs", On(KindBinary, ValueKinds, KindsOf(KindVariable)), eagerArange).
		Register("finitary-values", Pattern{Kind: KindFinitary, Rest: ValueKinds}, eagerFinitary).
		Register("reduce-values", On(KindReduce, ValueKinds), eagerReduce).
		Register("reduce-enumerate", On(KindReduce, AnyKind), eagerEnumerate).
		Register("stack-numbers", Pattern{Kind: KindStack, Rest: KindsOf(KindNumber)}, eagerStack).
		Register("subs", On(KindSubs, AnyKind), eagerSubs).
		Register("integrate-ground", On(KindIntegrate, GroundKinds, GroundKinds), integrateGround)
}

// arrayOf returns the data held by a value.
func arrayOf(t Term) *array.Array {
	switch t := t.(type) {
	case *Number:
		return array.Scalar(t.value)
	case *Tensor:
		return t.data
	default:
		panic("term is not a value")
	}
}

func eagerUnary(arena *Arena, app *Application) (Term, error) {
	return arena.fromArray(array.Unary(app.Op, arrayOf(app.Args[0])), app.output), nil
}

func eagerBinary(arena *Arena, app *Application) (Term, error) {
	result, err := array.Binary(app.Op, arrayOf(app.Args[0]), arrayOf(app.Args[1]))
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.fromArray(result, app.output), nil
}

// eagerArange materialises a discrete variable, when combined with a value, as
// the tensor enumerating its domain.
func eagerArange(arena *Arena, app *Application) (Term, error) {
	var args = []Term{app.Args[0], app.Args[1]}
	//
	for i, arg := range args {
		if v, ok := arg.(*Variable); ok {
			if v.output.IsReal() {
				return nil, nil
			}
			//
			args[i] = arena.fromArray(array.Arange(v.name, v.output.Size()), v.output)
		}
	}
	//
	return arena.Binary(app.Op, args[0], args[1])
}

func eagerFinitary(arena *Arena, app *Application) (Term, error) {
	var (
		result = app.Args[0]
		err    error
	)
	//
	for _, arg := range app.Args[1:] {
		if result, err = arena.Binary(app.Op, result, arg); err != nil {
			return nil, err
		}
	}
	//
	return result, nil
}

func eagerReduce(arena *Arena, app *Application) (Term, error) {
	result, err := array.Reduce(app.Op, arrayOf(app.Args[0]), app.Vars)
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.fromArray(result, app.output), nil
}

// eagerEnumerate reduces over discrete variables by substituting every value of
// each variable in turn, and combining the results.  This declines if any
// reduced variable is real.
func eagerEnumerate(arena *Arena, app *Application) (Term, error) {
	var arg = app.Args[0]
	//
	for _, v := range app.Vars {
		if dom, _ := arg.Inputs().Get(v); dom.IsReal() {
			return nil, nil
		}
	}
	//
	var result = arg
	//
	for _, v := range app.Vars {
		dom, _ := arg.Inputs().Get(v)
		body := result
		//
		for i := range dom.Size() {
			ith, err := arena.substitute(body, []Binding{{v, arena.Number(float64(i), dom)}})
			//
			if err != nil {
				return nil, err
			} else if i == 0 {
				result = ith
			} else if result, err = arena.Binary(app.Op, result, ith); err != nil {
				return nil, err
			}
		}
	}
	//
	return result, nil
}

// eagerStack combines a stack of numbers into a tensor.
func eagerStack(arena *Arena, app *Application) (Term, error) {
	var data = make([]float64, len(app.Args))
	//
	for i, part := range app.Args {
		data[i] = part.(*Number).value
	}
	//
	result, err := array.New([]string{app.Name}, []uint{uint(len(data))}, nil, data)
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.fromArray(result, app.output), nil
}

func eagerSubs(arena *Arena, app *Application) (Term, error) {
	return arena.substitute(app.Args[0], app.Bindings)
}

// integrateGround integrates ground terms by summing their product over the
// integrated variables.
func integrateGround(arena *Arena, app *Application) (Term, error) {
	product, err := arena.Binary(ops.Mul, app.Args[0], app.Args[1])
	//
	if err != nil {
		return nil, err
	}
	//
	return arena.Reduce(ops.Add, product, app.Vars...)
}
