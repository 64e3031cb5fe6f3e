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
	"fmt"
	"strconv"
	"strings"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/consensys/go-measure/pkg/util/sexp"
)

// Environment maps variable names to their domains, and is used to resolve the
// variables (free or bound) occurring in a parsed term.
type Environment map[string]domain.Domain

// Parse a term from its textual (S-Expression) form, constructing it within a
// given arena under the active interpretation.  Syntax errors are reported as
// *sexp.SyntaxError, whilst construction errors (e.g. ErrDomainMismatch) are
// reported as *PositionError.
func Parse(arena *Arena, env Environment, text string) (Term, error) {
	s, parser, err := sexp.Parse(text)
	//
	if err != nil {
		return nil, err
	}
	//
	return (&termParser{arena, env, parser}).translate(s)
}

type termParser struct {
	arena  *Arena
	env    Environment
	parser *sexp.Parser
}

func (p *termParser) translate(s sexp.SExp) (Term, error) {
	var (
		result Term
		err    error
	)
	//
	switch s := s.(type) {
	case *sexp.Symbol:
		return p.translateSymbol(s)
	case *sexp.List:
		if s.Len() == 0 || s.Get(0).AsSymbol() == nil {
			return nil, p.parser.Error(s, "invalid term")
		}
		//
		result, err = p.translateList(s)
	default:
		return nil, p.parser.Error(s, "invalid term")
	}
	//
	var (
		syntaxError *sexp.SyntaxError
		posError    *PositionError
	)
	//
	if err == nil {
		return result, nil
	} else if errors.As(err, &syntaxError) || errors.As(err, &posError) {
		return nil, err
	}
	//
	return nil, &PositionError{p.parser.SpanOf(s), err}
}

// PositionError is an error arising from the construction of a parsed term,
// along with the position of the offending term.
type PositionError struct {
	span sexp.Span
	err  error
}

// Span returns the position of the term which could not be constructed.
func (p *PositionError) Span() sexp.Span {
	return p.span
}

func (p *PositionError) Error() string {
	return fmt.Sprintf("%d:%d: %s", p.span.Start(), p.span.End(), p.err.Error())
}

func (p *PositionError) Unwrap() error {
	return p.err
}

func (p *termParser) translateSymbol(s *sexp.Symbol) (Term, error) {
	if value, err := strconv.ParseFloat(s.Value, 64); err == nil {
		return p.arena.Number(value), nil
	} else if dom, ok := p.env[s.Value]; ok {
		return p.arena.Variable(s.Value, dom), nil
	}
	//
	return nil, p.parser.Error(s, "unknown variable")
}

func (p *termParser) translateList(s *sexp.List) (Term, error) {
	var head = s.Get(0).AsSymbol().Value
	//
	switch head {
	case "num":
		return p.translateNum(s)
	case "tensor":
		return p.translateTensor(s)
	case "finitary":
		if s.Len() < 3 {
			return nil, p.parser.Error(s, "finitary requires an operator and operands")
		}
		//
		op, err := p.translateOp(s.Get(1), 2)
		if err != nil {
			return nil, err
		}
		//
		args, err := p.translateAll(s.Elements[2:])
		if err != nil {
			return nil, err
		}
		//
		return p.arena.Finitary(op, args...)
	case "reduce":
		if s.Len() != 4 {
			return nil, p.parser.Error(s, "reduce requires an operator, variables and an argument")
		}
		//
		op, err := p.translateOp(s.Get(1), 2)
		if err != nil {
			return nil, err
		}
		//
		vars, err := p.translateNames(s.Get(2))
		if err != nil {
			return nil, err
		}
		//
		arg, err := p.translate(s.Get(3))
		if err != nil {
			return nil, err
		}
		//
		return p.arena.Reduce(op, arg, vars...)
	case "stack":
		if s.Len() < 3 || s.Get(1).AsSymbol() == nil {
			return nil, p.parser.Error(s, "stack requires an index and parts")
		}
		//
		parts, err := p.translateAll(s.Elements[2:])
		if err != nil {
			return nil, err
		}
		//
		return p.arena.Stack(s.Get(1).AsSymbol().Value, parts...)
	case "subs":
		return p.translateSubs(s)
	case "integrate":
		if s.Len() != 4 {
			return nil, p.parser.Error(s, "integrate requires variables, a measure and an integrand")
		}
		//
		vars, err := p.translateNames(s.Get(1))
		if err != nil {
			return nil, err
		}
		//
		args, err := p.translateAll(s.Elements[2:])
		if err != nil {
			return nil, err
		}
		//
		return p.arena.IntegrateOver(args[0], args[1], vars...)
	}
	//
	return p.translateApplication(s)
}

// translate the application of an operator, where associative operators may be
// applied to more than two arguments.
func (p *termParser) translateApplication(s *sexp.List) (Term, error) {
	var arity = uint(s.Len() - 1)
	//
	if arity == 0 {
		return nil, p.parser.Error(s, "missing arguments")
	}
	//
	op, err := p.translateOp(s.Get(0), min(arity, 2))
	if err != nil {
		return nil, err
	}
	//
	args, err := p.translateAll(s.Elements[1:])
	//
	switch {
	case err != nil:
		return nil, err
	case arity == 1:
		return p.arena.Unary(op, args[0])
	case arity > 2 && !op.IsAssociative():
		return nil, p.parser.Error(s, "operator is not associative")
	}
	//
	result := args[0]
	//
	for _, arg := range args[1:] {
		if result, err = p.arena.Binary(op, result, arg); err != nil {
			return nil, err
		}
	}
	//
	return result, nil
}

func (p *termParser) translateNum(s *sexp.List) (Term, error) {
	if s.Len() != 3 || s.Get(1).AsSymbol() == nil || s.Get(2).AsSymbol() == nil {
		return nil, p.parser.Error(s, "num requires a value and a size")
	}
	//
	value, err := strconv.ParseFloat(s.Get(1).AsSymbol().Value, 64)
	if err != nil {
		return nil, p.parser.Error(s.Get(1), "invalid number")
	}
	//
	size, err := strconv.ParseUint(s.Get(2).AsSymbol().Value, 10, 0)
	if err != nil || size == 0 {
		return nil, p.parser.Error(s.Get(2), "invalid size")
	}
	//
	return p.arena.Number(value, domain.Discrete(uint(size))), nil
}

func (p *termParser) translateTensor(s *sexp.List) (Term, error) {
	if s.Len() < 3 || s.Len() > 4 || s.Get(1).AsList() == nil || s.Get(2).AsArray() == nil {
		return nil, p.parser.Error(s, "tensor requires dimensions and data")
	}
	//
	var (
		dims   = s.Get(1).AsList()
		values = s.Get(2).AsArray()
		names  = make([]string, dims.Len())
		sizes  = make([]uint, dims.Len())
		data   = make([]float64, values.Len())
		dtype  = domain.Real()
		err    error
	)
	//
	for i, dim := range dims.Elements {
		var (
			symbol = dim.AsSymbol()
			size   uint64
			ok     bool
			text   string
		)
		//
		if symbol != nil {
			names[i], text, ok = strings.Cut(symbol.Value, ":")
		}
		//
		if ok {
			size, err = strconv.ParseUint(text, 10, 0)
		}
		//
		if !ok || err != nil || size == 0 {
			return nil, p.parser.Error(dim, "invalid dimension")
		}
		//
		sizes[i] = uint(size)
	}
	//
	for i, value := range values.Elements {
		if value.AsSymbol() == nil {
			return nil, p.parser.Error(value, "invalid number")
		} else if data[i], err = strconv.ParseFloat(value.AsSymbol().Value, 64); err != nil {
			return nil, p.parser.Error(value, "invalid number")
		}
	}
	//
	if s.Len() == 4 {
		if s.Get(3).AsSymbol() == nil {
			return nil, p.parser.Error(s.Get(3), "invalid domain")
		} else if dtype, err = domain.Parse(s.Get(3).AsSymbol().Value); err != nil {
			return nil, p.parser.Error(s.Get(3), err.Error())
		}
	}
	//
	arr, err := array.New(names, sizes, dtype.Shape(), data)
	if err != nil {
		return nil, err
	}
	//
	return p.arena.Tensor(arr, dtype)
}

func (p *termParser) translateSubs(s *sexp.List) (Term, error) {
	if s.Len() < 2 {
		return nil, p.parser.Error(s, "subs requires an argument")
	}
	//
	arg, err := p.translate(s.Get(1))
	if err != nil {
		return nil, err
	}
	//
	var bindings = make(map[string]Term)
	//
	for _, e := range s.Elements[2:] {
		binding := e.AsList()
		//
		if binding == nil || binding.Len() != 2 || binding.Get(0).AsSymbol() == nil {
			return nil, p.parser.Error(e, "invalid binding")
		}
		//
		value, err := p.translate(binding.Get(1))
		if err != nil {
			return nil, err
		}
		//
		bindings[binding.Get(0).AsSymbol().Value] = value
	}
	//
	return p.arena.Substitute(arg, bindings)
}

func (p *termParser) translateOp(s sexp.SExp, arity uint) (*ops.Op, error) {
	if symbol := s.AsSymbol(); symbol != nil {
		if op, ok := ops.Lookup(symbol.Value, arity); ok {
			return op, nil
		}
	}
	//
	return nil, p.parser.Error(s, "unknown operator")
}

func (p *termParser) translateNames(s sexp.SExp) ([]string, error) {
	var list = s.AsList()
	//
	if list == nil {
		return nil, p.parser.Error(s, "expected list of variables")
	}
	//
	var names = make([]string, list.Len())
	//
	for i, e := range list.Elements {
		if e.AsSymbol() == nil {
			return nil, p.parser.Error(e, "expected variable")
		}
		//
		names[i] = e.AsSymbol().Value
	}
	//
	return names, nil
}

func (p *termParser) translateAll(elements []sexp.SExp) ([]Term, error) {
	var (
		result = make([]Term, len(elements))
		err    error
	)
	//
	for i, e := range elements {
		if result[i], err = p.translate(e); err != nil {
			return nil, err
		}
	}
	//
	return result, nil
}
