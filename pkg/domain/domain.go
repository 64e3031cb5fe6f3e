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
package domain

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// Domain describes the type of a variable or expression.  A domain is either
// discrete, in which case it is a finite set {0..n-1}, or real in which case
// it holds real-valued arrays of a given shape.  Domains are comparable values
// and, hence, two domains are equal (==) exactly when they have the same tag
// and parameters.
type Domain struct {
	// Size of a discrete domain, or zero for a real domain.
	size uint
	// Shape of a real domain.  This is encoded as a string of big-endian
	// dimensions so that domains remain comparable.
	shape string
}

// Bool is the discrete domain of truth values {0,1}.
var Bool = Discrete(2)

// Discrete constructs a finite domain of a given (non-zero) size.
func Discrete(size uint) Domain {
	if size == 0 {
		panic("discrete domain cannot be empty")
	}
	//
	return Domain{size, ""}
}

// Real constructs a real domain with a given shape.  An empty shape indicates
// a real scalar.
func Real(shape ...uint) Domain {
	var bytes = make([]byte, 4*len(shape))
	//
	for i, n := range shape {
		if n > math.MaxUint32 {
			panic(fmt.Sprintf("real dimension %d out of range", n))
		}
		//
		binary.BigEndian.PutUint32(bytes[i*4:], uint32(n))
	}
	//
	return Domain{0, string(bytes)}
}

// IsDiscrete determines whether this is a finite domain.
func (d Domain) IsDiscrete() bool {
	return d.size != 0
}

// IsReal determines whether this is a real-valued domain.
func (d Domain) IsReal() bool {
	return d.size == 0
}

// IsScalar determines whether values of this domain are single elements.
// Discrete domains are always scalar.
func (d Domain) IsScalar() bool {
	return len(d.shape) == 0
}

// Size returns the number of values in a discrete domain.  This panics for a
// real domain, since these are not enumerable.
func (d Domain) Size() uint {
	if d.size == 0 {
		panic(fmt.Sprintf("real domain %s has no size", d.String()))
	}
	//
	return d.size
}

// Shape returns the shape of the elements in this domain.
func (d Domain) Shape() []uint {
	var shape = make([]uint, len(d.shape)/4)
	//
	for i := range shape {
		shape[i] = uint(binary.BigEndian.Uint32([]byte(d.shape[i*4:])))
	}
	//
	return shape
}

// NumElements returns the number of scalar elements making up a single value
// in this domain.
func (d Domain) NumElements() uint {
	var n = uint(1)
	//
	for _, dim := range d.Shape() {
		n *= dim
	}
	//
	return n
}

// Scalar returns the scalar domain underlying this domain.  That is, a
// discrete domain is returned as is, whilst a real domain of any shape gives
// the real scalar domain.
func (d Domain) Scalar() Domain {
	if d.IsDiscrete() {
		return d
	}
	//
	return Domain{}
}

// Hash returns a 64-bit hashcode for this domain.
func (d Domain) Hash() uint64 {
	var (
		hash  = fnv.New64a()
		bytes [8]byte
	)
	//
	binary.BigEndian.PutUint64(bytes[:], uint64(d.size))
	hash.Write(bytes[:])
	hash.Write([]byte(d.shape))
	//
	return hash.Sum64()
}

func (d Domain) String() string {
	if d.IsDiscrete() {
		return fmt.Sprintf("int(%d)", d.size)
	} else if d.IsScalar() {
		return "real"
	}
	//
	var dims []string
	//
	for _, n := range d.Shape() {
		dims = append(dims, fmt.Sprintf("%d", n))
	}
	//
	return fmt.Sprintf("real(%s)", strings.Join(dims, ","))
}
