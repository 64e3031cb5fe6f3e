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
	"fmt"
	"slices"

	"github.com/consensys/go-measure/pkg/ops"
)

// Unary applies a unary operator to every scalar of an array.
func Unary(op *ops.Op, arg *Array) *Array {
	var data = make([]float64, len(arg.data))
	//
	for i, v := range arg.data {
		data[i] = op.Apply1(v)
	}
	//
	return &Array{arg.names, arg.sizes, arg.shape, data}
}

// Binary applies a binary operator elementwise to two arrays.  The dimensions
// of the result are those of the left-hand side, followed by any dimensions
// of the right-hand side not already present.  Dimensions with the same name
// must have the same size, and element shapes must either match or one side
// must be scalar.
func Binary(op *ops.Op, lhs, rhs *Array) (*Array, error) {
	var (
		names = slices.Clone(lhs.names)
		sizes = slices.Clone(lhs.sizes)
	)
	//
	for i, n := range rhs.names {
		if j := slices.Index(names, n); j < 0 {
			names = append(names, n)
			sizes = append(sizes, rhs.sizes[i])
		} else if sizes[j] != rhs.sizes[i] {
			return nil, fmt.Errorf("%w: dimension %s has sizes %d and %d", ops.ErrShapeMismatch, n, sizes[j],
				rhs.sizes[i])
		}
	}
	//
	shape, err := broadcast(lhs.shape, rhs.shape)
	if err != nil {
		return nil, err
	}
	//
	var (
		lpos = positions(lhs.names, names)
		rpos = positions(rhs.names, names)
		lidx = make([]uint, len(lpos))
		ridx = make([]uint, len(rpos))
		le   = lhs.elements()
		re   = rhs.elements()
		n    = product(shape)
		data = make([]float64, 0, product(sizes)*n)
	)
	//
	forEachIndex(sizes, func(index []uint) {
		lo := lhs.offset(project(index, lpos, lidx)) * le
		ro := rhs.offset(project(index, rpos, ridx)) * re
		// Scalar elements are broadcast
		for j := range n {
			data = append(data, op.Apply2(lhs.data[lo+min(j, le-1)], rhs.data[ro+min(j, re-1)]))
		}
	})
	//
	return &Array{names, sizes, shape, data}, nil
}

// Reduce aggregates an array over zero or more of its dimensions using an
// associative operator.  Names which are not dimensions of the array are
// ignored.
func Reduce(op *ops.Op, arg *Array, reduced []string) (*Array, error) {
	if !op.IsAssociative() {
		return nil, fmt.Errorf("cannot reduce with non-associative operator %s", op.Name())
	}
	//
	var (
		names []string
		sizes []uint
		pos   = make([]int, len(arg.names))
	)
	//
	for i, name := range arg.names {
		if slices.Contains(reduced, name) {
			pos[i] = -1
		} else {
			pos[i] = len(names)
			names = append(names, name)
			sizes = append(sizes, arg.sizes[i])
		}
	}
	//
	if len(names) == len(arg.names) {
		return arg, nil
	}
	//
	var (
		n      = arg.elements()
		data   = make([]float64, product(sizes)*n)
		result = &Array{names, sizes, arg.shape, data}
		dst    = make([]uint, len(names))
	)
	//
	for i := range data {
		data[i] = op.Identity()
	}
	//
	forEachIndex(arg.sizes, func(index []uint) {
		for i, p := range pos {
			if p >= 0 {
				dst[p] = index[i]
			}
		}
		//
		var (
			src = arg.offset(index) * n
			off = result.offset(dst) * n
		)
		//
		for j := range n {
			data[off+j] = op.Apply2(data[off+j], arg.data[src+j])
		}
	})
	//
	return result, nil
}

// Index fixes a given dimension of an array at a given value, thus removing
// that dimension.  If the array has no such dimension, it is returned as is.
func Index(arg *Array, name string, value uint) (*Array, error) {
	var dim = slices.Index(arg.names, name)
	//
	if dim < 0 {
		return arg, nil
	} else if value >= arg.sizes[dim] {
		return nil, fmt.Errorf("%w: %s=%d (size %d)", ErrIndexOutOfBounds, name, value, arg.sizes[dim])
	}
	//
	names := slices.Delete(slices.Clone(arg.names), dim, dim+1)
	sizes := slices.Delete(slices.Clone(arg.sizes), dim, dim+1)
	//
	return gather(arg, names, sizes, func(dst []uint, src []uint) {
		copy(src, dst[:dim])
		src[dim] = value
		copy(src[dim+1:], dst[dim:])
	}), nil
}

// Rename a dimension of an array.  If the new name is already a dimension of
// the array then the diagonal is taken, which requires both dimensions to
// have the same size.  If the array has no dimension with the old name, it is
// returned as is.
func Rename(arg *Array, from string, to string) (*Array, error) {
	var (
		i = slices.Index(arg.names, from)
		j = slices.Index(arg.names, to)
	)
	//
	if i < 0 || from == to {
		return arg, nil
	} else if j < 0 {
		names := slices.Clone(arg.names)
		names[i] = to
		//
		return &Array{names, arg.sizes, arg.shape, arg.data}, nil
	} else if arg.sizes[i] != arg.sizes[j] {
		return nil, fmt.Errorf("%w: cannot identify %s:%d with %s:%d", ops.ErrShapeMismatch, from, arg.sizes[i], to,
			arg.sizes[j])
	}
	// Take the diagonal
	names := slices.Delete(slices.Clone(arg.names), i, i+1)
	sizes := slices.Delete(slices.Clone(arg.sizes), i, i+1)
	k := slices.Index(names, to)
	//
	return gather(arg, names, sizes, func(dst []uint, src []uint) {
		copy(src, dst[:i])
		copy(src[i+1:], dst[i:])
		src[i] = dst[k]
	}), nil
}

// Permute reorders the dimensions of an array, where the given names must be a
// permutation of its dimensions.
func Permute(arg *Array, names []string) (*Array, error) {
	var pos = positions(arg.names, names)
	//
	if len(names) != len(arg.names) || slices.Contains(pos, -1) {
		return nil, fmt.Errorf("%w: cannot permute %v into %v", ops.ErrShapeMismatch, arg.names, names)
	}
	//
	var sizes = make([]uint, len(names))
	//
	for i, p := range pos {
		sizes[p] = arg.sizes[i]
	}
	//
	return gather(arg, slices.Clone(names), sizes, func(dst []uint, src []uint) {
		project(dst, pos, src)
	}), nil
}

// ============================================================================
// Helpers
// ============================================================================

// Construct a new array over the given dimensions, where each element is
// copied from the source array at the index determined by a given mapping.
func gather(arg *Array, names []string, sizes []uint, mapping func(dst []uint, src []uint)) *Array {
	var (
		n    = arg.elements()
		data = make([]float64, 0, product(sizes)*n)
		src  = make([]uint, len(arg.names))
	)
	//
	forEachIndex(sizes, func(index []uint) {
		mapping(index, src)
		off := arg.offset(src) * n
		data = append(data, arg.data[off:off+n]...)
	})
	//
	return &Array{names, sizes, arg.shape, data}
}

func broadcast(lhs []uint, rhs []uint) ([]uint, error) {
	switch {
	case slices.Equal(lhs, rhs), len(rhs) == 0:
		return lhs, nil
	case len(lhs) == 0:
		return rhs, nil
	default:
		return nil, fmt.Errorf("%w: element shapes %v and %v", ops.ErrShapeMismatch, lhs, rhs)
	}
}

// Determine the position of each name within a given list of target names.
func positions(names []string, targets []string) []int {
	var pos = make([]int, len(names))
	//
	for i, n := range names {
		pos[i] = slices.Index(targets, n)
	}
	//
	return pos
}

// Project an index over a list of dimensions onto a subset of them.
func project(index []uint, pos []int, into []uint) []uint {
	for i, p := range pos {
		into[i] = index[p]
	}
	//
	return into
}

// Call a given function on every index of the space described by a given set
// of dimension sizes, in row-major order.
func forEachIndex(sizes []uint, fn func([]uint)) {
	var index = make([]uint, len(sizes))
	//
	for {
		fn(index)
		// Increment index, starting from the last dimension
		i := len(sizes) - 1
		//
		for ; i >= 0; i-- {
			index[i]++
			//
			if index[i] < sizes[i] {
				break
			}
			//
			index[i] = 0
		}
		//
		if i < 0 {
			return
		}
	}
}
