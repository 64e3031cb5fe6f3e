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
package array

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"strings"

	"github.com/consensys/go-measure/pkg/ops"
)

// ErrIndexOutOfBounds indicates an attempt to index a dimension beyond its size.
var ErrIndexOutOfBounds = errors.New("index out of bounds")

// Array is a dense, immutable array of float64 values.  An array is indexed by
// zero or more named (discrete) dimensions, and each index holds an element of
// a fixed shape.  Data is stored in row-major order with the named dimensions
// outermost.
type Array struct {
	// Names of the dimensions indexing this array.
	names []string
	// Size of each named dimension.
	sizes []uint
	// Shape of each element.
	shape []uint
	// Row-major data
	data []float64
}

// New constructs an array from its dimensions, element shape and data.  An
// error is returned if the amount of data does not match, or if a dimension
// name is repeated.
func New(names []string, sizes []uint, shape []uint, data []float64) (*Array, error) {
	if len(names) != len(sizes) {
		return nil, fmt.Errorf("%w: %d names for %d dimensions", ops.ErrShapeMismatch, len(names), len(sizes))
	}
	//
	for i, n := range names {
		if slices.Index(names, n) != i {
			return nil, fmt.Errorf("duplicate dimension \"%s\"", n)
		}
	}
	//
	if expected := product(sizes) * product(shape); uint(len(data)) != expected {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ops.ErrShapeMismatch, expected, len(data))
	}
	//
	return &Array{slices.Clone(names), slices.Clone(sizes), slices.Clone(shape), slices.Clone(data)}, nil
}

// Scalar constructs an array holding a single scalar value.
func Scalar(value float64) *Array {
	return &Array{nil, nil, nil, []float64{value}}
}

// Fill constructs an array of scalars over the given dimensions, where every
// element has the same value.
func Fill(names []string, sizes []uint, value float64) *Array {
	var data = make([]float64, product(sizes))
	//
	for i := range data {
		data[i] = value
	}
	//
	return &Array{slices.Clone(names), slices.Clone(sizes), nil, data}
}

// Arange constructs the one-dimensional array [0,1,..,size-1] indexed by the
// given dimension.
func Arange(name string, size uint) *Array {
	var data = make([]float64, size)
	//
	for i := range data {
		data[i] = float64(i)
	}
	//
	return &Array{[]string{name}, []uint{size}, nil, data}
}

// Names returns the dimension names of this array.
func (p *Array) Names() []string {
	return slices.Clone(p.names)
}

// Sizes returns the dimension sizes of this array.
func (p *Array) Sizes() []uint {
	return slices.Clone(p.sizes)
}

// Shape returns the shape of each element in this array.
func (p *Array) Shape() []uint {
	return slices.Clone(p.shape)
}

// Dim returns the size of a given dimension, or false if this array has no
// such dimension.
func (p *Array) Dim(name string) (uint, bool) {
	if i := slices.Index(p.names, name); i >= 0 {
		return p.sizes[i], true
	}
	//
	return 0, false
}

// Data returns a copy of the underlying data for this array.
func (p *Array) Data() []float64 {
	return slices.Clone(p.data)
}

// Get returns the first scalar of the element at a given index, where indices
// are given in dimension order.
func (p *Array) Get(index ...uint) float64 {
	return p.data[p.offset(index)*p.elements()]
}

// Equals determines whether two arrays are identical, including the order of
// their dimensions.
func (p *Array) Equals(other *Array) bool {
	if !slices.Equal(p.names, other.names) || !slices.Equal(p.sizes, other.sizes) ||
		!slices.Equal(p.shape, other.shape) || len(p.data) != len(other.data) {
		return false
	}
	//
	for i, v := range p.data {
		if math.Float64bits(v) != math.Float64bits(other.data[i]) {
			return false
		}
	}
	//
	return true
}

// Hash returns a 64-bit hashcode for this array.
func (p *Array) Hash() uint64 {
	var (
		hash  = fnv.New64a()
		bytes [8]byte
	)
	//
	for i, n := range p.names {
		hash.Write([]byte(n))
		binary.BigEndian.PutUint64(bytes[:], uint64(p.sizes[i]))
		hash.Write(bytes[:])
	}
	//
	for _, v := range p.data {
		binary.BigEndian.PutUint64(bytes[:], math.Float64bits(v))
		hash.Write(bytes[:])
	}
	//
	return hash.Sum64()
}

func (p *Array) String() string {
	var (
		dims   []string
		values []string
	)
	//
	for i, n := range p.names {
		dims = append(dims, fmt.Sprintf("%s:%d", n, p.sizes[i]))
	}
	//
	for _, v := range p.data {
		values = append(values, fmt.Sprintf("%g", v))
	}
	//
	return fmt.Sprintf("(%s)[%s]", strings.Join(dims, " "), strings.Join(values, " "))
}

// number of scalars making up each element
func (p *Array) elements() uint {
	return product(p.shape)
}

// offset (in elements) of a given index
func (p *Array) offset(index []uint) uint {
	var offset = uint(0)
	//
	for i, n := range p.sizes {
		offset = (offset * n) + index[i]
	}
	//
	return offset
}

func product(dims []uint) uint {
	var n = uint(1)
	//
	for _, d := range dims {
		n *= d
	}
	//
	return n
}
