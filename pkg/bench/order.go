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
	mrand "math/rand/v2"
)

// SequentialOrder returns 0, 1, ..., n-1.
func SequentialOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// RandomOrder returns a permutation of 0..n-1 drawn from rng.
func RandomOrder(n int, rng *mrand.Rand) []int {
	order := SequentialOrder(n)
	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// Order returns the visit order of pattern over n pages.
func Order(p Pattern, n int, rng *mrand.Rand) []int {
	if p == Random {
		return RandomOrder(n, rng)
	}
	return SequentialOrder(n)
}

// WriteMask returns, for each of n pages, whether a hybrid pass writes it.
// Each page is written with probability one half.
func WriteMask(n int, rng *mrand.Rand) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = rng.Uint64()&1 == 1
	}
	return mask
}
