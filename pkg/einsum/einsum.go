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
package einsum

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"unicode"

	"github.com/consensys/go-measure/pkg/array"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/consensys/go-measure/pkg/term"
)

// ErrUnsupportedBackend indicates an einsum requested over a semiring which the
// given method cannot compute.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// Backend identifies the semiring over which an einsum is computed.
type Backend string

const (
	// SumProduct contracts indices by summing products.
	SumProduct Backend = "sum-product"
	// MaxProduct contracts indices by maximising products.
	MaxProduct Backend = "max-product"
)

// ParseBackend converts a backend name into a backend.
func ParseBackend(name string) (Backend, error) {
	switch backend := Backend(name); backend {
	case SumProduct, MaxProduct:
		return backend, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedBackend, name)
	}
}

// Equation is an einsum equation, such as "ab,bc->ac".  Each index is a single
// letter, and is the name of a dimension of the corresponding operand.
type Equation struct {
	// Indices of each input operand.
	Inputs [][]string
	// Indices of the output.
	Output []string
}

// Parse an einsum equation.  When the output is omitted (i.e. there is no
// "->"), it consists of those indices occurring exactly once, in alphabetical
// order.
func Parse(text string) (Equation, error) {
	var (
		equation Equation
		counts   = make(map[string]uint)
		err      error
	)
	//
	inputs, output, explicit := strings.Cut(strings.ReplaceAll(text, " ", ""), "->")
	//
	for _, operand := range strings.Split(inputs, ",") {
		indices, err := parseIndices(operand)
		//
		if err != nil {
			return equation, fmt.Errorf("invalid einsum \"%s\": %w", text, err)
		}
		//
		for _, index := range indices {
			counts[index]++
		}
		//
		equation.Inputs = append(equation.Inputs, indices)
	}
	//
	if !explicit {
		for index, count := range counts {
			if count == 1 {
				equation.Output = append(equation.Output, index)
			}
		}
		//
		slices.Sort(equation.Output)
	} else if equation.Output, err = parseIndices(output); err != nil {
		return equation, fmt.Errorf("invalid einsum \"%s\": %w", text, err)
	}
	//
	for _, index := range equation.Output {
		if counts[index] == 0 {
			return equation, fmt.Errorf("invalid einsum \"%s\": output index %s not in any input", text, index)
		}
	}
	//
	return equation, nil
}

func parseIndices(text string) ([]string, error) {
	var indices []string
	//
	for _, r := range text {
		index := string(r)
		//
		if !unicode.IsLetter(r) {
			return nil, fmt.Errorf("invalid index '%c'", r)
		} else if slices.Contains(indices, index) {
			return nil, fmt.Errorf("repeated index %s", index)
		}
		//
		indices = append(indices, index)
	}
	//
	return indices, nil
}

// Contracted returns the indices which occur in some input but not in the
// output, in alphabetical order.
func (p Equation) Contracted() []string {
	var contracted []string
	//
	for _, indices := range p.Inputs {
		for _, index := range indices {
			if !slices.Contains(p.Output, index) {
				contracted = append(contracted, index)
			}
		}
	}
	//
	slices.Sort(contracted)
	//
	return slices.Compact(contracted)
}

func (p Equation) String() string {
	var inputs = make([]string, len(p.Inputs))
	//
	for i, indices := range p.Inputs {
		inputs[i] = strings.Join(indices, "")
	}
	//
	return strings.Join(inputs, ",") + "->" + strings.Join(p.Output, "")
}

// Naive computes an einsum symbolically, by integrating the product of the
// operands against the counting measure over the contracted indices.  The
// integral is simplified under the Optimize interpretation before being
// evaluated, and only the sum-product backend is supported.
func Naive(arena *term.Arena, backend Backend, equation Equation, operands ...term.Term) (term.Term, error) {
	if backend != SumProduct {
		return nil, fmt.Errorf("%w: %s (symbolic)", ErrUnsupportedBackend, backend)
	} else if err := equation.check(operands); err != nil {
		return nil, err
	}
	//
	var (
		contracted = equation.Contracted()
		integrand  term.Term
		result     term.Term
	)
	//
	err := arena.Interpret(term.Reflect, func() (err error) {
		integrand, err = arena.Finitary(ops.Mul, operands...)
		return err
	})
	//
	if err != nil {
		return nil, err
	}
	//
	err = arena.Interpret(term.Optimize, func() error {
		measure, err := arena.BaseMeasure(integrand, contracted, false)
		//
		if err == nil {
			result, err = arena.IntegrateOver(measure, integrand, contracted...)
		}
		//
		return err
	})
	//
	if err != nil {
		return nil, err
	} else if result, err = arena.Evaluate(result); err != nil {
		return nil, err
	}
	//
	return equation.arrange(arena, result)
}

// Direct computes an einsum by eagerly multiplying the operands, and then
// reducing over the contracted indices.
func Direct(arena *term.Arena, backend Backend, equation Equation, operands ...term.Term) (term.Term, error) {
	var reduction *ops.Op
	//
	switch backend {
	case SumProduct:
		reduction = ops.Add
	case MaxProduct:
		reduction = ops.Max
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
	//
	if err := equation.check(operands); err != nil {
		return nil, err
	}
	//
	var result term.Term
	//
	err := arena.Interpret(term.Eager, func() error {
		product, err := arena.Finitary(ops.Mul, operands...)
		//
		if err == nil {
			result, err = arena.Reduce(reduction, product, equation.Contracted()...)
		}
		//
		return err
	})
	//
	if err != nil {
		return nil, err
	}
	//
	return equation.arrange(arena, result)
}

// Example constructs random operands for an equation, where each index has a
// given size.
func Example(arena *term.Arena, equation Equation, sizes map[string]uint, rng *rand.Rand) ([]term.Term, error) {
	var operands = make([]term.Term, len(equation.Inputs))
	//
	for i, indices := range equation.Inputs {
		var dims = make([]uint, len(indices))
		//
		for j, index := range indices {
			if dims[j] = sizes[index]; dims[j] == 0 {
				return nil, fmt.Errorf("no size given for index %s", index)
			}
		}
		//
		data := make([]float64, elements(dims))
		//
		for j := range data {
			data[j] = rng.Float64()
		}
		//
		arr, err := array.New(indices, dims, nil, data)
		if err != nil {
			return nil, err
		}
		//
		if operands[i], err = arena.Tensor(arr); err != nil {
			return nil, err
		}
	}
	//
	return operands, nil
}

// check the operands match the equation.
func (p Equation) check(operands []term.Term) error {
	if len(operands) != len(p.Inputs) {
		return fmt.Errorf("%w: einsum %s expects %d operands, got %d", term.ErrShapeMismatch, p.String(),
			len(p.Inputs), len(operands))
	}
	//
	for i, operand := range operands {
		names := operand.Inputs().Names()
		//
		if !slices.Equal(sorted(names), sorted(p.Inputs[i])) {
			return fmt.Errorf("%w: einsum operand %d has indices %v, expected %v", term.ErrShapeMismatch, i, names,
				p.Inputs[i])
		}
		//
		for _, name := range names {
			if dom, _ := operand.Inputs().Get(name); dom.IsReal() {
				return fmt.Errorf("%w: einsum index %s is real", term.ErrDomainMismatch, name)
			}
		}
	}
	//
	return nil
}

// arrange the dimensions of an einsum result in the order of the output
// indices.
func (p Equation) arrange(arena *term.Arena, result term.Term) (term.Term, error) {
	switch t := result.(type) {
	case *term.Tensor:
		data, err := array.Permute(t.Array(), p.Output)
		if err != nil {
			return nil, err
		}
		//
		return arena.Tensor(data, t.Output())
	case *term.Number:
		if len(p.Output) == 0 {
			return t, nil
		}
	}
	//
	return nil, fmt.Errorf("%w: einsum %s produced %s", term.ErrUnsupportedOperator, p.String(), result.String())
}

func sorted(names []string) []string {
	names = slices.Clone(names)
	slices.Sort(names)
	//
	return names
}

func elements(dims []uint) uint {
	var n = uint(1)
	//
	for _, d := range dims {
		n *= d
	}
	//
	return n
}
