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
	"fmt"

	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/memutil"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"github.com/pteditlab/ptremap/pkg/remap"
)

// Region is the memory a benchmark walks: page-aligned, contiguous, and
// resident once NewRegion returns.
type Region struct {
	space   memutil.AddressSpace
	mapping *memutil.Mapping
}

// NewRegion maps pages pages in space and writes every page once so that it
// is resident before any timing.
func NewRegion(space memutil.AddressSpace, pages int) (*Region, error) {
	m, err := space.Map(pages)
	if err != nil {
		return nil, err
	}
	if !m.Base.IsPageAligned() {
		space.Unmap(m)
		return nil, fmt.Errorf("%w: mapping %v is not page aligned", memutil.ErrAllocation, m)
	}
	for i := 0; i < m.Pages; i++ {
		m.StoreWord(i, uint64(i))
	}
	log.Debugf("Region %v touched", m)
	return &Region{space: space, mapping: m}, nil
}

// Pages returns the number of pages.
func (r *Region) Pages() int {
	return r.mapping.Pages
}

// Mapping returns the underlying mapping.
func (r *Region) Mapping() *memutil.Mapping {
	return r.mapping
}

// VerifyResident checks the present bit of every page through view.
func (r *Region) VerifyResident(view *remap.View, phase string) error {
	for i := 0; i < r.mapping.Pages; i++ {
		addr := r.mapping.Addr(i)
		present, err := view.BitIsSet(addr, 0, ptedit.BitPresent)
		if err != nil {
			return fmt.Errorf("checking page %d (%v): %w", i, addr, err)
		}
		if !present {
			return &InvariantViolationError{Page: i, Addr: addr, Phase: phase, Repetition: -1}
		}
	}
	return nil
}

// Release unmaps the region.
func (r *Region) Release() error {
	return r.space.Unmap(r.mapping)
}
