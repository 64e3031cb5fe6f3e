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
)

// Reinterpret rebuilds a term bottom-up under the active interpretation.  For
// example, reinterpreting a term built under Reflect with Eager active
// evaluates it as far as possible.  Shared subterms are rebuilt once.
func (p *Arena) Reinterpret(t Term) (Term, error) {
	return p.reinterpret(t, make(map[Term]Term))
}

// Evaluate reinterprets a term under Eager, and fails unless this produces a
// value.
func (p *Arena) Evaluate(t Term) (Term, error) {
	var result Term
	//
	err := p.Interpret(Eager, func() error {
		var err error
		result, err = p.Reinterpret(t)
		//
		return err
	})
	//
	if err != nil {
		return nil, err
	} else if !IsValue(result) {
		return nil, fmt.Errorf("%w: %s does not evaluate to a value", ErrUnsupportedOperator, result.String())
	}
	//
	return result, nil
}

func (p *Arena) reinterpret(t Term, memo map[Term]Term) (Term, error) {
	if result, ok := memo[t]; ok {
		return result, nil
	}
	//
	var (
		result Term
		err    error
	)
	//
	switch t := t.(type) {
	case *Variable, *Number, *Tensor:
		return t, nil
	case *Unary:
		var arg Term
		if arg, err = p.reinterpret(t.arg, memo); err == nil {
			result, err = p.Unary(t.op, arg)
		}
	case *Binary:
		var args []Term
		if args, err = p.reinterpretAll(memo, t.lhs, t.rhs); err == nil {
			result, err = p.Binary(t.op, args[0], args[1])
		}
	case *Finitary:
		var args []Term
		if args, err = p.reinterpretAll(memo, t.operands...); err == nil {
			result, err = p.Finitary(t.op, args...)
		}
	case *Reduce:
		var arg Term
		if arg, err = p.reinterpret(t.arg, memo); err == nil {
			result, err = p.Reduce(t.op, arg, t.vars...)
		}
	case *Stack:
		var parts []Term
		if parts, err = p.reinterpretAll(memo, t.parts...); err == nil {
			result, err = p.Stack(t.name, parts...)
		}
	case *Subs:
		result, err = p.reinterpretSubs(t, memo)
	case *Integrate:
		var args []Term
		if args, err = p.reinterpretAll(memo, t.measure, t.integrand); err == nil {
			result, err = p.IntegrateOver(args[0], args[1], t.vars...)
		}
	}
	//
	if err != nil {
		return nil, err
	}
	//
	memo[t] = result
	//
	return result, nil
}

func (p *Arena) reinterpretAll(memo map[Term]Term, terms ...Term) ([]Term, error) {
	var (
		result = make([]Term, len(terms))
		err    error
	)
	//
	for i, t := range terms {
		if result[i], err = p.reinterpret(t, memo); err != nil {
			return nil, err
		}
	}
	//
	return result, nil
}

func (p *Arena) reinterpretSubs(t *Subs, memo map[Term]Term) (Term, error) {
	arg, err := p.reinterpret(t.arg, memo)
	//
	if err != nil {
		return nil, err
	}
	//
	var bindings = make(map[string]Term, len(t.bindings))
	//
	for _, b := range t.bindings {
		if bindings[b.Name], err = p.reinterpret(b.Value, memo); err != nil {
			return nil, err
		}
	}
	//
	return p.Substitute(arg, bindings)
}
