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

import (
	"math/rand"
	"testing"
)

func Test_HashMap_01(t *testing.T) {
	items := []uint{1, 2, 3, 4, 3, 2, 1}
	check_HashMap(t, items)
}

func Test_HashMap_02(t *testing.T) {
	check_HashMap(t, randomUints(10, 32))
}

func Test_HashMap_03(t *testing.T) {
	check_HashMap(t, randomUints(1000, 32))
}

func Test_HashMap_04(t *testing.T) {
	// Many collisions
	check_HashMap(t, randomUints(1000, 4096))
}

func Test_HashMap_05(t *testing.T) {
	hmap := NewMap[testKey, uint](0)
	calls := 0
	constructor := func() uint {
		calls++
		return uint(calls)
	}
	//
	v1, ok1 := hmap.Intern(testKey{7, 1}, constructor)
	v2, ok2 := hmap.Intern(testKey{7, 1}, constructor)
	v3, ok3 := hmap.Intern(testKey{8, 1}, constructor)
	//
	if ok1 || !ok2 || ok3 {
		t.Errorf("unexpected intern results %t, %t, %t", ok1, ok2, ok3)
	} else if v1 != v2 || v1 == v3 {
		t.Errorf("unexpected intern values %d, %d, %d", v1, v2, v3)
	} else if calls != 2 || hmap.Size() != 2 || hmap.MaxBucket() != 2 {
		t.Errorf("unexpected state (calls=%d, size=%d)", calls, hmap.Size())
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

// testKey hashes into a limited number of buckets, in order to force
// collisions.
type testKey struct {
	value   uint
	buckets uint
}

func (p testKey) Equals(other testKey) bool {
	return p.value == other.value
}

func (p testKey) Hash() uint64 {
	var c = NewCombiner()
	//
	c.Add(uint64(p.value % p.buckets))
	//
	return c.Sum()
}

func check_HashMap(t *testing.T, items []uint) {
	gmap := initGoMap(items)
	hmap := NewMap[testKey, uint](0)
	// Insert items
	for key, val := range gmap {
		hmap.Insert(testKey{key, 16}, val)
	}
	// Sanity check number of unique items
	if hmap.Size() != uint(len(gmap)) {
		t.Errorf("expected %d items, got %d", len(gmap), hmap.Size())
	}
	// Sanity check containership
	for key, val := range gmap {
		if !hmap.ContainsKey(testKey{key, 16}) {
			t.Errorf("missing key %d", key)
		} else if v, ok := hmap.Get(testKey{key, 16}); !ok {
			t.Errorf("missing item %d=>%d", key, val)
		} else if v != val {
			t.Errorf("expecting %d=>%d, got %d=>%d", key, val, key, v)
		}
	}
}

func initGoMap(items []uint) map[uint]uint {
	gmap := make(map[uint]uint)
	//
	for _, v := range items {
		if w, ok := gmap[v]; ok {
			gmap[v] = w + 1
		} else {
			gmap[v] = 1
		}
	}
	//
	return gmap
}

func randomUints(n uint, m uint) []uint {
	var (
		rng   = rand.New(rand.NewSource(int64(n*31 + m)))
		items = make([]uint, n)
	)
	//
	for i := range items {
		items[i] = uint(rng.Intn(int(m)))
	}
	//
	return items
}
