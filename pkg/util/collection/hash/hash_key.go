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
package hash

// A reasonably simple hashmap implementation which permits collisions.  The
// hash function need not uniquely identify the data in question, since
// buckets are searched using equality.

// Hasher provides a generic definition of a hashing function suitable for use
// within the hashmap.  This includes equality, which is used to resolve
// collisions.
type Hasher[T any] interface {
	// Check whether two items are equal (or not).
	Equals(T) bool
	// Return a suitable hashcode.
	Hash() uint64
}

// ============================================================================
// FNV1a Combiner
// ============================================================================

const (
	offset64 uint64 = 14695981039346656037
	prime64  uint64 = 1099511628211
)

// Combiner accumulates a 64-bit FNV1a hash over a sequence of hashes (or other
// uint64 values).  This provides a mechanism for hashing composite keys.
type Combiner struct {
	hash uint64
}

// NewCombiner constructs a new combiner with the standard FNV offset.
func NewCombiner() Combiner {
	return Combiner{offset64}
}

// Add a given value into this combined hash.
func (p *Combiner) Add(value uint64) {
	p.hash ^= value
	p.hash *= prime64
}

// AddString adds a string into this combined hash, one byte at a time.
func (p *Combiner) AddString(value string) {
	for i := range len(value) {
		p.Add(uint64(value[i]))
	}
	// Separator prevents ("ab","c") colliding with ("a","bc")
	p.Add(0xff)
}

// Sum returns the combined hash.
func (p *Combiner) Sum() uint64 {
	return p.hash
}
