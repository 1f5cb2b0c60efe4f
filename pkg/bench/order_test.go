// Copyright 2026 The ptremap Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pteditlab/ptremap/pkg/rand"
)

func TestSequentialOrder(t *testing.T) {
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, SequentialOrder(5)); diff != "" {
		t.Errorf("SequentialOrder mismatch (-want +got):\n%s", diff)
	}
	if got := SequentialOrder(0); len(got) != 0 {
		t.Errorf("SequentialOrder(0) = %v", got)
	}
}

// A random order visits every page exactly once.
func TestRandomOrderIsPermutation(t *testing.T) {
	const n = 10000
	order := RandomOrder(n, rand.New(1))
	if len(order) != n {
		t.Fatalf("len = %d, want %d", len(order), n)
	}
	if slices.Equal(order, SequentialOrder(n)) {
		t.Errorf("random order is the identity")
	}
	sorted := slices.Clone(order)
	slices.Sort(sorted)
	if diff := cmp.Diff(SequentialOrder(n), sorted); diff != "" {
		t.Errorf("sorted order mismatch (-want +got):\n%s", diff)
	}
}

func TestRandomOrderSeeded(t *testing.T) {
	a := RandomOrder(1000, rand.New(42))
	b := RandomOrder(1000, rand.New(42))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed, different orders (-a +b):\n%s", diff)
	}
	if c := RandomOrder(1000, rand.New(43)); slices.Equal(a, c) {
		t.Errorf("different seeds, same order")
	}
}

func TestWriteMask(t *testing.T) {
	const n = 100000
	mask := WriteMask(n, rand.New(7))
	writes := 0
	for _, w := range mask {
		if w {
			writes++
		}
	}
	if writes < n*45/100 || writes > n*55/100 {
		t.Errorf("%d of %d pages written, want about half", writes, n)
	}
	if diff := cmp.Diff(mask, WriteMask(n, rand.New(7))); diff != "" {
		t.Errorf("same seed, different masks")
	}
}
