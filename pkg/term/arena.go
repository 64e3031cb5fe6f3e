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
	"math"
	"slices"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/consensys/go-measure/pkg/util/collection/hash"
	"github.com/consensys/go-measure/pkg/util/collection/stack"
)

// Arena is responsible for constructing terms.  Every term constructed by an
// arena is hash-consed, such that constructing a term structurally equal to an
// existing term returns that existing term.  Terms remain in the arena for its
// lifetime.  The arena also maintains the stack of active interpretations,
// which determines what is produced when a composite term is constructed.  An
// arena is not safe for concurrent use.
type Arena struct {
	// Cons table
	table *hash.Map[consKey, Term]
	// Next unique identifier
	ids uint64
	// Stack of active interpretations, where the top is active.
	scopes *stack.Stack[Interpretation]
	// Metrics (if enabled)
	metrics *Metrics
}

// Option configures an arena when it is constructed.
type Option func(*Arena)

// WithMetrics configures an arena to record its activity using the given
// metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(arena *Arena) {
		arena.metrics = metrics
	}
}

// WithInterpretation configures the interpretation an arena uses when none has
// been explicitly activated.  By default, this is Eager.
func WithInterpretation(interpretation Interpretation) Option {
	return func(arena *Arena) {
		arena.scopes.Replace(interpretation)
	}
}

// NewArena constructs an empty arena.
func NewArena(options ...Option) *Arena {
	var arena = &Arena{
		table:  hash.NewMap[consKey, Term](1024),
		scopes: stack.NewStack[Interpretation](Eager),
	}
	//
	for _, option := range options {
		option(arena)
	}
	//
	return arena
}

// Size returns the number of distinct terms held in this arena.
func (p *Arena) Size() uint {
	return p.table.Size()
}

// Interpretation returns the currently active interpretation.
func (p *Arena) Interpretation() Interpretation {
	return p.scopes.Peek(0)
}

// Interpret activates a given interpretation for the duration of a given
// function, such that all terms constructed by that function are interpreted
// accordingly.  The previously active interpretation is restored however the
// function exits (including by panic).
func (p *Arena) Interpret(interpretation Interpretation, fn func() error) error {
	p.scopes.Push(interpretation)
	//
	defer p.scopes.Pop()
	//
	return fn()
}

// construct a term from a given application by type checking it, and then
// passing it to the active interpretation.
func (p *Arena) construct(app *Application) (Term, error) {
	if err := p.check(app); err != nil {
		return nil, err
	}
	//
	return p.Interpretation().Interpret(p, app)
}

// intern the node described by a given (type checked) application, returning
// the existing node if there is one.
func (p *Arena) intern(app *Application) Term {
	term, hit := p.table.Intern(keyOf(app), func() Term {
		return p.build(app)
	})
	//
	p.interned(hit)
	//
	return term
}

// build a new node from a given application.
func (p *Arena) build(app *Application) Term {
	var header = node{p.ids, app.inputs, app.output}
	//
	p.ids++
	//
	switch app.Kind {
	case KindVariable:
		return &Variable{header, app.Name}
	case KindNumber:
		return &Number{header, app.Value}
	case KindTensor:
		return &Tensor{header, app.Data}
	case KindUnary:
		return &Unary{header, app.Op, app.Args[0]}
	case KindBinary:
		return &Binary{header, app.Op, app.Args[0], app.Args[1]}
	case KindFinitary:
		return &Finitary{header, app.Op, slices.Clone(app.Args)}
	case KindReduce:
		return &Reduce{header, app.Op, app.Args[0], slices.Clone(app.Vars)}
	case KindStack:
		return &Stack{header, app.Name, slices.Clone(app.Args)}
	case KindSubs:
		return &Subs{header, app.Args[0], slices.Clone(app.Bindings)}
	case KindIntegrate:
		return &Integrate{header, app.Args[0], app.Args[1], slices.Clone(app.Vars)}
	default:
		panic("unknown term kind")
	}
}

// ============================================================================
// Cons Key
// ============================================================================

// consKey captures the structural identity of a node.  Children are identified
// by their unique identifiers, since they are themselves hash-consed.
type consKey struct {
	kind Kind
	op   *ops.Op
	// Stack index variable, or variable name
	name string
	// Bound variables, or binding names
	vars []string
	// Identifiers of children, including binding values
	children []uint64
	// Number value (as bits)
	value uint64
	// Number or tensor domain
	output domain.Domain
	// Tensor data
	data *array.Array
}

func keyOf(app *Application) consKey {
	var key = consKey{kind: app.Kind, op: app.Op, name: app.Name, vars: app.Vars, output: app.output,
		data: app.Data, value: math.Float64bits(app.Value)}
	//
	for _, arg := range app.Args {
		key.children = append(key.children, arg.header().id)
	}
	//
	for _, b := range app.Bindings {
		key.vars = append(key.vars, b.Name)
		key.children = append(key.children, b.Value.header().id)
	}
	//
	return key
}

// Equals implementation for the hash.Hasher interface.
func (p consKey) Equals(other consKey) bool {
	if p.kind != other.kind || p.op != other.op || p.name != other.name || p.value != other.value ||
		p.output != other.output || !slices.Equal(p.vars, other.vars) || !slices.Equal(p.children, other.children) {
		return false
	} else if p.data == nil || other.data == nil {
		return p.data == other.data
	}
	//
	return p.data.Equals(other.data)
}

// Hash implementation for the hash.Hasher interface.
func (p consKey) Hash() uint64 {
	var combiner = hash.NewCombiner()
	//
	combiner.Add(uint64(p.kind))
	//
	if p.op != nil {
		combiner.AddString(p.op.Name())
	}
	//
	combiner.AddString(p.name)
	//
	for _, v := range p.vars {
		combiner.AddString(v)
	}
	//
	for _, c := range p.children {
		combiner.Add(c)
	}
	//
	combiner.Add(p.value)
	combiner.Add(p.output.Hash())
	//
	if p.data != nil {
		combiner.Add(p.data.Hash())
	}
	//
	return combiner.Sum()
}
