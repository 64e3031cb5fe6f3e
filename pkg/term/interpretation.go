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
	"sort"
	"strings"
	"sync"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/ops"
	log "github.com/sirupsen/logrus"
)

// Application describes a request to construct a (composite) term from its
// parts.  Applications are type checked before being passed to the active
// interpretation, which decides what term is actually produced.
type Application struct {
	// Kind of term being constructed.
	Kind Kind
	// Operator being applied (unary, binary, finitary and reduce only).
	Op *ops.Op
	// Child terms.  For Subs this is the single argument, and for Integrate
	// this is the measure followed by the integrand.
	Args []Term
	// Name of the index variable (stack only).
	Name string
	// Bound variables (reduce and integrate only), sorted.
	Vars []string
	// Bindings (subs only), sorted by name.
	Bindings []Binding
	// Data (tensor only).
	Data *array.Array
	// Value (number only).
	Value float64
	// Signature, as determined by type checking.
	inputs Inputs
	output domain.Domain
}

// Inputs returns the free variables of the term being constructed.
func (p *Application) Inputs() Inputs {
	return p.inputs
}

// Output returns the domain of the term being constructed.
func (p *Application) Output() domain.Domain {
	return p.output
}

// ============================================================================
// Interpretation
// ============================================================================

// Interpretation determines what term is produced for a given application.  An
// interpretation may simply build the corresponding node, or it may rewrite
// the application into an equivalent (e.g. evaluated or simplified) term.
type Interpretation interface {
	// Name of this interpretation, as used in logging and metrics.
	Name() string
	// Interpret a given (type checked) application within a given arena.
	Interpret(arena *Arena, app *Application) (Term, error)
}

// Reflect is the interpretation which builds (or reuses) exactly the node
// described by an application.
var Reflect Interpretation = reflection{}

type reflection struct{}

func (p reflection) Name() string {
	return "reflect"
}

func (p reflection) Interpret(arena *Arena, app *Application) (Term, error) {
	return arena.intern(app), nil
}

// Eager is the interpretation which evaluates applications over concrete
// values, and otherwise falls back to Reflect.
var Eager = NewDispatcher("eager", Reflect)

// Optimize is the interpretation which applies algebraic rewrites for
// integration, and otherwise falls back to Eager.
var Optimize = NewDispatcher("optimize", Eager)

// ============================================================================
// Rules
// ============================================================================

// RuleFunc rewrites an application into an equivalent term.  A rule declines
// to handle an application by returning nil (without an error).
type RuleFunc func(arena *Arena, app *Application) (Term, error)

// Pattern describes the applications matched by a rule, in terms of the kind
// of term being constructed and the kinds of its children.
type Pattern struct {
	// Kind of term matched.
	Kind Kind
	// Acceptable kinds for each leading child.
	Args []KindSet
	// Acceptable kinds for any remaining children.  When empty, the number of
	// children must match Args exactly.
	Rest KindSet
}

// On constructs a pattern for a fixed number of children.
func On(kind Kind, args ...KindSet) Pattern {
	return Pattern{kind, args, 0}
}

// Matches determines whether this pattern matches a given kind of term with
// children of the given kinds.
func (p Pattern) Matches(kind Kind, children []Kind) bool {
	if kind != p.Kind || len(children) < len(p.Args) {
		return false
	} else if len(children) > len(p.Args) && p.Rest == 0 {
		return false
	}
	//
	for i, k := range children {
		var set = p.Rest
		//
		if i < len(p.Args) {
			set = p.Args[i]
		}
		//
		if !set.Contains(k) {
			return false
		}
	}
	//
	return true
}

// Specificity measures how narrow this pattern is, such that more specific
// patterns are tried first.
func (p Pattern) Specificity() int {
	var score int
	//
	for _, set := range p.Args {
		score += int(numKinds) - set.Len()
	}
	//
	if p.Rest != 0 {
		score += int(numKinds) - p.Rest.Len()
	}
	//
	return score
}

// Rule is a named rewrite rule registered with a dispatcher.
type Rule struct {
	Name    string
	Pattern Pattern
	Apply   RuleFunc
}

// ============================================================================
// Dispatcher
// ============================================================================

// Dispatcher is an interpretation which holds a registry of rules, and tries
// every rule matching an application (most specific first) until one produces
// a term.  When no rule does, the application is passed to a fallback
// interpretation.
type Dispatcher struct {
	name     string
	fallback Interpretation
	rules    []*Rule
	// Matching rules for each kind signature, in priority order.
	cache map[string][]*Rule
	mutex sync.RWMutex
}

// NewDispatcher constructs a dispatcher without any rules.
func NewDispatcher(name string, fallback Interpretation) *Dispatcher {
	return &Dispatcher{name: name, fallback: fallback, cache: make(map[string][]*Rule)}
}

// Name implementation for Interpretation interface.
func (p *Dispatcher) Name() string {
	return p.name
}

// Fallback returns the interpretation used when no rule applies.
func (p *Dispatcher) Fallback() Interpretation {
	return p.fallback
}

// Register a new rule with this dispatcher.
func (p *Dispatcher) Register(name string, pattern Pattern, fn RuleFunc) *Dispatcher {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	//
	p.rules = append(p.rules, &Rule{name, pattern, fn})
	// Invalidate any cached matches
	clear(p.cache)
	//
	return p
}

// Rules returns the rules which match a given kind signature, in the order in
// which they would be tried.  Equally specific rules are tried in registration
// order.
func (p *Dispatcher) Rules(kind Kind, children []Kind) []*Rule {
	var key = signatureOf(kind, children)
	//
	p.mutex.RLock()
	rules, ok := p.cache[key]
	p.mutex.RUnlock()
	//
	if ok {
		return rules
	}
	//
	p.mutex.Lock()
	defer p.mutex.Unlock()
	//
	rules = nil
	//
	for _, r := range p.rules {
		if r.Pattern.Matches(kind, children) {
			rules = append(rules, r)
		}
	}
	//
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Pattern.Specificity() > rules[j].Pattern.Specificity()
	})
	//
	p.cache[key] = rules
	//
	return rules
}

// Interpret implementation for Interpretation interface.
func (p *Dispatcher) Interpret(arena *Arena, app *Application) (Term, error) {
	var children = make([]Kind, len(app.Args))
	//
	for i, arg := range app.Args {
		children[i] = arg.Kind()
	}
	//
	for _, rule := range p.Rules(app.Kind, children) {
		result, err := rule.Apply(arena, app)
		//
		if err != nil {
			return nil, err
		} else if result != nil {
			arena.rewritten(p.name, rule.Name)
			//
			if log.IsLevelEnabled(log.DebugLevel) {
				log.Debugf("%s rule %s rewrote %s application into %s", p.name, rule.Name, app.Kind.String(),
					result.String())
			}
			//
			return result, nil
		}
	}
	//
	return p.fallback.Interpret(arena, app)
}

func (p *Dispatcher) String() string {
	var names = make([]string, len(p.rules))
	//
	for i, r := range p.rules {
		names[i] = r.Name
	}
	//
	return fmt.Sprintf("%s{%s}", p.name, strings.Join(names, ","))
}

func signatureOf(kind Kind, children []Kind) string {
	var bytes = make([]byte, len(children)+1)
	//
	bytes[0] = byte(kind)
	//
	for i, k := range children {
		bytes[i+1] = byte(k)
	}
	//
	return string(bytes)
}
