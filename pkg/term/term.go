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
	"math/bits"
	"slices"
	"strings"

	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/consensys/go-measure/pkg/util/sexp"
)

var (
	// ErrDomainMismatch indicates two occurrences of the same variable name
	// with different domains, either during construction or substitution.
	ErrDomainMismatch = errors.New("domain mismatch")
	// ErrUnsupportedOperator indicates an operator used where it is not
	// permitted (e.g. a non-associative reduction), or a term which could not
	// be evaluated to a ground value when one was demanded.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrUnimplementedMeasure indicates a base measure requested over a
	// continuous variable.
	ErrUnimplementedMeasure = errors.New("unimplemented measure")
	// ErrShapeMismatch indicates array operands with incompatible shapes.
	ErrShapeMismatch = ops.ErrShapeMismatch
)

// Term represents a node in a symbolic expression tree.  Terms are immutable
// and hash-consed by the Arena which constructed them, meaning two terms from
// the same arena are structurally equal exactly when they are the same object.
// Terms from different arenas must never be combined.
type Term interface {
	// Kind returns the variant of this term.
	Kind() Kind
	// Inputs returns the free variables of this term, along with their
	// domains.
	Inputs() Inputs
	// Output returns the domain of values produced by this term.
	Output() domain.Domain
	// Lisp converts this term into an S-Expression, for example so it can be
	// printed.
	Lisp() sexp.SExp
	// String returns the printed form of this term.
	String() string
	// header returns the common data for this node.
	header() *node
}

// node holds the data common to all term variants.
type node struct {
	// Unique identifier within the enclosing arena.
	id uint64
	// Free variables of this term.
	inputs Inputs
	// Output domain of this term.
	output domain.Domain
}

// Inputs returns the free variables of this term.
func (p *node) Inputs() Inputs {
	return p.inputs
}

// Output returns the domain of this term.
func (p *node) Output() domain.Domain {
	return p.output
}

func (p *node) header() *node {
	return p
}

// ============================================================================
// Kinds
// ============================================================================

// Kind identifies the variant of a term, and is used as the basis for
// dispatching rewrite rules.
type Kind uint8

// The closed set of term variants.
const (
	KindVariable Kind = iota
	KindNumber
	KindTensor
	KindUnary
	KindBinary
	KindFinitary
	KindReduce
	KindStack
	KindSubs
	KindIntegrate
	numKinds
)

var kindNames = []string{"variable", "number", "tensor", "unary", "binary", "finitary", "reduce", "stack", "subs",
	"integrate"}

func (k Kind) String() string {
	return kindNames[k]
}

// KindSet is a set of term kinds, used to describe the operands accepted by a
// rule.
type KindSet uint32

var (
	// AnyKind matches a term of any kind.
	AnyKind = KindSet(1<<numKinds - 1)
	// ValueKinds matches terms holding concrete values.
	ValueKinds = KindsOf(KindNumber, KindTensor)
	// GroundKinds matches terms without any unresolved symbolic structure.
	GroundKinds = KindsOf(KindNumber, KindTensor, KindVariable)
)

// KindsOf constructs the set of the given kinds.
func KindsOf(kinds ...Kind) KindSet {
	var set KindSet
	//
	for _, k := range kinds {
		set |= 1 << k
	}
	//
	return set
}

// Contains checks whether a given kind is in this set.
func (s KindSet) Contains(kind Kind) bool {
	return s&(1<<kind) != 0
}

// Len returns the number of kinds in this set.
func (s KindSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

// IsValue checks whether a term holds a concrete value (i.e. a Number or a
// Tensor).
func IsValue(t Term) bool {
	return ValueKinds.Contains(t.Kind())
}

// ============================================================================
// Inputs
// ============================================================================

// Inputs is an immutable mapping of variable names to domains, which
// maintains the order in which variables were first encountered.
type Inputs struct {
	names   []string
	domains []domain.Domain
}

// Len returns the number of inputs.
func (p Inputs) Len() int {
	return len(p.names)
}

// Names returns the names of all inputs, in order.
func (p Inputs) Names() []string {
	return slices.Clone(p.names)
}

// Get returns the domain of a given input, or false if there is no such input.
func (p Inputs) Get(name string) (domain.Domain, bool) {
	if i := slices.Index(p.names, name); i >= 0 {
		return p.domains[i], true
	}
	//
	return domain.Domain{}, false
}

// Has checks whether a given variable is an input.
func (p Inputs) Has(name string) bool {
	return slices.Contains(p.names, name)
}

// Intersects checks whether any of the given names is an input.
func (p Inputs) Intersects(names []string) bool {
	for _, n := range names {
		if p.Has(n) {
			return true
		}
	}
	//
	return false
}

// Filter returns those names which are inputs, sorted and without duplicates.
func (p Inputs) Filter(names []string) []string {
	var result []string
	//
	for _, n := range names {
		if p.Has(n) {
			result = append(result, n)
		}
	}
	//
	slices.Sort(result)
	//
	return slices.Compact(result)
}

func (p Inputs) String() string {
	var items = make([]string, len(p.names))
	//
	for i, n := range p.names {
		items[i] = fmt.Sprintf("%s:%s", n, p.domains[i].String())
	}
	//
	return "{" + strings.Join(items, ",") + "}"
}

// add a new input, checking it is consistent with any existing input of the
// same name.
func (p *Inputs) add(name string, dom domain.Domain) error {
	if d, ok := p.Get(name); !ok {
		p.names = append(p.names, name)
		p.domains = append(p.domains, dom)
	} else if d != dom {
		return fmt.Errorf("%w: variable %s has domains %s and %s", ErrDomainMismatch, name, d.String(), dom.String())
	}
	//
	return nil
}

// without returns these inputs with the given names removed.
func (p Inputs) without(names []string) Inputs {
	var result Inputs
	//
	for i, n := range p.names {
		if !slices.Contains(names, n) {
			result.names = append(result.names, n)
			result.domains = append(result.domains, p.domains[i])
		}
	}
	//
	return result
}

// unionOf the inputs of zero or more terms, failing if they disagree on the
// domain of any variable.
func unionOf(terms ...Term) (Inputs, error) {
	var result Inputs
	//
	for _, t := range terms {
		inputs := t.Inputs()
		//
		for i, n := range inputs.names {
			if err := result.add(n, inputs.domains[i]); err != nil {
				return result, err
			}
		}
	}
	//
	return result, nil
}
