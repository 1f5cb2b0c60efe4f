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

package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/memutil"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

var (
	_ memutil.AddressSpace = (*Machine)(nil)
	_ memutil.Translator   = (*Machine)(nil)
)

// Map implements memutil.AddressSpace.Map. Directories are created eagerly;
// leaf entries stay empty until the page is first touched.
func (m *Machine) Map(pages int) (*memutil.Mapping, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("%w: invalid page count %d", memutil.ErrAllocation, pages)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	base := m.nextVA
	end, ok := base.AddLength(uint64(pages) << hostarch.PageShift)
	if !ok {
		return nil, fmt.Errorf("%w: %d pages at %v overflow", memutil.ErrAllocation, pages, base)
	}
	for i := 0; i < pages; i++ {
		addr := base + hostarch.Addr(i)<<hostarch.PageShift
		if i != 0 && ptedit.LevelPTE.Index(addr) != 0 {
			continue
		}
		if err := m.ensureTables(addr); err != nil {
			return nil, fmt.Errorf("%w: building tables for %v: %v", memutil.ErrAllocation, addr, err)
		}
	}
	m.vmas = append(m.vmas, vma{start: base, end: end})
	// Leave a guard page between mappings.
	m.nextVA = end + hostarch.PageSize
	return memutil.NewMapping(base, pages, m), nil
}

// Unmap implements memutil.AddressSpace.Unmap. Frames faulted in for the
// range are freed, including those no longer mapped because a leaf was
// pointed elsewhere. Frames the range maps but does not own are left alone.
func (m *Machine) Unmap(mp *memutil.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, v := range m.vmas {
		if v.start == mp.Base {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%v is not mapped", mp)
	}
	m.vmas = append(m.vmas[:idx], m.vmas[idx+1:]...)

	w := ptedit.Walker{Mem: phys{m}}
	for i := 0; i < mp.Pages; i++ {
		addr := mp.Addr(i)
		ent, err := w.Resolve(m.root, addr)
		if err != nil {
			return err
		}
		if ent.Valid&ptedit.ValidPTE == 0 || ent.PTE == 0 {
			continue
		}
		if pfn := ent.PTE.PFN(); ent.PTE.Present() {
			switch owner, ok := m.owner[pfn]; {
			case ok && owner == addr:
				m.freeFrame(pfn)
			case ok:
				log.Warningf("Unmapping %v which maps frame %v owned by %v", addr, pfn, owner)
			}
		}
		if err := w.Update(m.root, addr, ptedit.Entry{Valid: ptedit.ValidPTE}); err != nil {
			return err
		}
		m.invalidate(addr)
	}
	last := mp.Addr(mp.Pages - 1)
	for pfn, owner := range m.owner {
		if owner >= mp.Base && owner <= last {
			m.freeFrame(pfn)
		}
	}
	return nil
}

func (m *Machine) access(addr hostarch.Addr, write bool) []byte {
	f, err := m.translate(addr, write)
	if err != nil {
		panic(err)
	}
	return f
}

// LoadByte implements memutil.Translator.LoadByte.
func (m *Machine) LoadByte(addr hostarch.Addr) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access(addr, false)[addr.PageOffset()]
}

// StoreByte implements memutil.Translator.StoreByte.
func (m *Machine) StoreByte(addr hostarch.Addr, v byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access(addr, true)[addr.PageOffset()] = v
}

// LoadWord implements memutil.Translator.LoadWord. addr must not straddle a
// page boundary.
func (m *Machine) LoadWord(addr hostarch.Addr) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return binary.LittleEndian.Uint64(m.access(addr, false)[addr.PageOffset():])
}

// StoreWord implements memutil.Translator.StoreWord. addr must not straddle
// a page boundary.
func (m *Machine) StoreWord(addr hostarch.Addr, v uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	binary.LittleEndian.PutUint64(m.access(addr, true)[addr.PageOffset():], v)
}
