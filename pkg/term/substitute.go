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
	"strings"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/domain"
)

// substitute a set of bindings simultaneously throughout a given term.  Terms
// are rebuilt bottom-up using the active interpretation, such that (for
// example) substituting values under Eager produces values.  Bound variables
// shadow bindings of the same name, and are renamed where they would
// otherwise capture a free variable of a substituted value.
func (p *Arena) substitute(t Term, bindings []Binding) (Term, error) {
	if bindings = relevant(t, bindings); len(bindings) == 0 {
		return t, nil
	}
	//
	switch t := t.(type) {
	case *Variable:
		return bindings[0].Value, nil
	case *Tensor:
		return p.substituteTensor(t, bindings)
	case *Unary:
		arg, err := p.substitute(t.arg, bindings)
		if err != nil {
			return nil, err
		}
		//
		return p.Unary(t.op, arg)
	case *Binary:
		args, err := p.substituteAll(bindings, t.lhs, t.rhs)
		if err != nil {
			return nil, err
		}
		//
		return p.Binary(t.op, args[0], args[1])
	case *Finitary:
		args, err := p.substituteAll(bindings, t.operands...)
		if err != nil {
			return nil, err
		}
		//
		return p.Finitary(t.op, args...)
	case *Reduce:
		args, vars, err := p.substituteBound(t.vars, bindings, t.arg)
		if err != nil {
			return nil, err
		}
		//
		return p.Reduce(t.op, args[0], vars...)
	case *Integrate:
		args, vars, err := p.substituteBound(t.vars, bindings, t.measure, t.integrand)
		if err != nil {
			return nil, err
		}
		//
		return p.IntegrateOver(args[0], args[1], vars...)
	case *Stack:
		return p.substituteStack(t, bindings)
	case *Subs:
		merged, err := p.compose(t, bindings)
		if err != nil {
			return nil, err
		}
		//
		return p.substitute(t.arg, merged)
	default:
		return nil, fmt.Errorf("%w: cannot substitute into %s", ErrUnsupportedOperator, t.String())
	}
}

// compose the bindings of a lazy substitution with a further set of bindings,
// such that applying the result to the argument of the substitution is
// equivalent to applying both in turn.
func (p *Arena) compose(t *Subs, bindings []Binding) ([]Binding, error) {
	var (
		inputs = t.arg.Inputs()
		merged = make([]Binding, 0, len(t.bindings)+len(bindings))
	)
	//
	for _, b := range t.bindings {
		value, err := p.substitute(b.Value, bindings)
		if err != nil {
			return nil, err
		}
		//
		merged = append(merged, Binding{b.Name, value})
	}
	//
	for _, b := range bindings {
		if inputs.Has(b.Name) && !slices.ContainsFunc(t.bindings, func(c Binding) bool { return c.Name == b.Name }) {
			merged = append(merged, b)
		}
	}
	//
	slices.SortFunc(merged, compareBindings)
	//
	return merged, nil
}

// substituteAll substitutes bindings into each of a sequence of terms.
func (p *Arena) substituteAll(bindings []Binding, terms ...Term) ([]Term, error) {
	var (
		result = make([]Term, len(terms))
		err    error
	)
	//
	for i, t := range terms {
		if result[i], err = p.substitute(t, bindings); err != nil {
			return nil, err
		}
	}
	//
	return result, nil
}

// substituteBound substitutes bindings into the children of a term which binds
// a given set of variables.  This returns the updated children, along with
// the (possibly renamed) bound variables.
func (p *Arena) substituteBound(vars []string, bindings []Binding, args ...Term) ([]Term, []string, error) {
	// Bound variables shadow bindings
	bindings = slices.DeleteFunc(slices.Clone(bindings), func(b Binding) bool {
		return slices.Contains(vars, b.Name)
	})
	//
	if len(bindings) == 0 {
		return args, vars, nil
	}
	//
	var (
		renaming []Binding
		renamed  = slices.Clone(vars)
	)
	// Rename any bound variable captured by a substituted value
	for i, v := range vars {
		if captures(bindings, v) {
			renamed[i] = freshName(v, bindings, args)
			renaming = append(renaming, Binding{v, p.Variable(renamed[i], boundDomain(v, args))})
		}
	}
	//
	slices.SortFunc(renaming, compareBindings)
	//
	args, err := p.substituteAll(renaming, args...)
	//
	if err != nil {
		return nil, nil, err
	}
	//
	args, err = p.substituteAll(bindings, args...)
	//
	return args, renamed, err
}

// substituteTensor substitutes bindings into a tensor.  Numbers index the
// corresponding dimension, and variables rename it.  Any other value cannot be
// substituted eagerly, so is left as a lazy substitution.
func (p *Arena) substituteTensor(t *Tensor, bindings []Binding) (Term, error) {
	var (
		data    = t.data
		renames []Binding
		lazy    []Binding
		err     error
	)
	//
	for _, b := range bindings {
		switch v := b.Value.(type) {
		case *Number:
			if data, err = array.Index(data, b.Name, uint(v.value)); err != nil {
				return nil, err
			}
		case *Variable:
			renames = append(renames, b)
		default:
			lazy = append(lazy, b)
		}
	}
	// Renaming alongside lazy bindings could conflate dimensions
	if len(lazy) > 0 {
		lazy = append(lazy, renames...)
		renames = nil
		//
		slices.SortFunc(lazy, compareBindings)
	}
	// Rename via temporaries, so that swaps are simultaneous
	for _, b := range renames {
		if data, err = array.Rename(data, b.Name, temporary(b.Name)); err != nil {
			return nil, err
		}
	}
	//
	for _, b := range renames {
		if data, err = array.Rename(data, temporary(b.Name), b.Value.(*Variable).name); err != nil {
			return nil, err
		}
	}
	//
	result := p.fromArray(data, t.output)
	//
	if len(lazy) == 0 {
		return result, nil
	}
	//
	return p.reflectSubs(result, lazy)
}

// substituteStack substitutes bindings into a stack.  Substituting a number for
// the index variable selects the corresponding part.
func (p *Arena) substituteStack(t *Stack, bindings []Binding) (Term, error) {
	var (
		index *Binding
		rest  []Binding
	)
	//
	for i, b := range bindings {
		if b.Name == t.name {
			index = &bindings[i]
		} else if b.Value.Inputs().Has(t.name) {
			// Substituted value would be conflated with the index
			return p.reflectSubs(t, bindings)
		} else {
			rest = append(rest, b)
		}
	}
	//
	parts, err := p.substituteAll(rest, t.parts...)
	//
	if err != nil {
		return nil, err
	} else if index == nil {
		return p.Stack(t.name, parts...)
	}
	//
	switch v := index.Value.(type) {
	case *Number:
		if i := uint(v.value); i < uint(len(parts)) {
			return parts[i], nil
		}
		//
		return nil, fmt.Errorf("%w: stack index %g", array.ErrIndexOutOfBounds, v.value)
	case *Variable:
		if !slices.ContainsFunc(parts, func(part Term) bool { return part.Inputs().Has(v.name) }) {
			return p.Stack(v.name, parts...)
		}
	}
	//
	stack, err := p.Stack(t.name, parts...)
	//
	if err != nil {
		return nil, err
	}
	//
	return p.reflectSubs(stack, []Binding{*index})
}

// reflectSubs constructs a lazy substitution node, regardless of the active
// interpretation.
func (p *Arena) reflectSubs(t Term, bindings []Binding) (Term, error) {
	if bindings = relevant(t, bindings); len(bindings) == 0 {
		return t, nil
	}
	//
	var app = Application{Kind: KindSubs, Args: []Term{t}, Bindings: bindings}
	//
	if err := p.check(&app); err != nil {
		return nil, err
	}
	//
	return p.intern(&app), nil
}

// relevant returns those bindings whose names are free in a given term.
func relevant(t Term, bindings []Binding) []Binding {
	var inputs = t.Inputs()
	//
	for i, b := range bindings {
		if !inputs.Has(b.Name) {
			// Copy on first irrelevant binding
			result := slices.Clone(bindings[:i])
			//
			for _, c := range bindings[i+1:] {
				if inputs.Has(c.Name) {
					result = append(result, c)
				}
			}
			//
			return result
		}
	}
	//
	return bindings
}

func captures(bindings []Binding, name string) bool {
	return slices.ContainsFunc(bindings, func(b Binding) bool {
		return b.Value.Inputs().Has(name)
	})
}

// freshName derives a variable name from a given name which is not used by any
// binding or term.
func freshName(name string, bindings []Binding, terms []Term) string {
	for {
		name = name + "'"
		//
		used := slices.ContainsFunc(bindings, func(b Binding) bool {
			return b.Name == name || b.Value.Inputs().Has(name)
		}) || slices.ContainsFunc(terms, func(t Term) bool {
			return t.Inputs().Has(name)
		})
		//
		if !used {
			return name
		}
	}
}

func boundDomain(name string, terms []Term) domain.Domain {
	for _, t := range terms {
		if dom, ok := t.Inputs().Get(name); ok {
			return dom
		}
	}
	//
	panic(fmt.Sprintf("bound variable %s is not free in its scope", name))
}

// temporary returns a dimension name which cannot clash with any variable.
func temporary(name string) string {
	return "\x00" + name
}

func compareBindings(l, r Binding) int {
	return strings.Compare(l.Name, r.Name)
}
