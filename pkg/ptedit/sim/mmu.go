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
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

type tlbEntry struct {
	vpn      uint64
	pfn      ptedit.PFN
	valid    bool
	writable bool
	dirty    bool
}

// tlb is a direct-mapped translation cache.
type tlb struct {
	entries []tlbEntry
	mask    uint64
}

func (t *tlb) init(n int) {
	t.entries = make([]tlbEntry, n)
	t.mask = uint64(n - 1)
}

func (t *tlb) lookup(vpn uint64) *tlbEntry {
	e := &t.entries[vpn&t.mask]
	if !e.valid || e.vpn != vpn {
		return nil
	}
	return e
}

func (t *tlb) fill(e tlbEntry) {
	e.valid = true
	t.entries[e.vpn&t.mask] = e
}

// invalidate drops the translation of vpn, like invlpg.
func (t *tlb) invalidate(vpn uint64) {
	if e := t.lookup(vpn); e != nil {
		e.valid = false
	}
}

// phys is the table memory of a Machine. Callers hold m.mu.
type phys struct {
	m *Machine
}

// ReadEntry implements ptedit.TableMemory.ReadEntry.
func (p phys) ReadEntry(table ptedit.PFN, index int) (ptedit.PTE, error) {
	if !p.m.valid(table) {
		return 0, fmt.Errorf("table frame %v outside physical memory", table)
	}
	return ptedit.PTE(binary.LittleEndian.Uint64(p.m.frame(table)[index*8:])), nil
}

// WriteEntry implements ptedit.TableMemory.WriteEntry.
func (p phys) WriteEntry(table ptedit.PFN, index int, pte ptedit.PTE) error {
	if !p.m.valid(table) {
		return fmt.Errorf("table frame %v outside physical memory", table)
	}
	binary.LittleEndian.PutUint64(p.m.frame(table)[index*8:], uint64(pte))
	return nil
}

// lockedPhys is phys for callers that do not hold m.mu. Each entry access
// is atomic on its own, as it is for a user-mode walk over physical memory.
type lockedPhys struct {
	m *Machine
}

// ReadEntry implements ptedit.TableMemory.ReadEntry.
func (p lockedPhys) ReadEntry(table ptedit.PFN, index int) (ptedit.PTE, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	return phys{p.m}.ReadEntry(table, index)
}

// WriteEntry implements ptedit.TableMemory.WriteEntry.
func (p lockedPhys) WriteEntry(table ptedit.PFN, index int, pte ptedit.PTE) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	return phys{p.m}.WriteEntry(table, index, pte)
}

// Fault describes an access the MMU could not translate. Accesses through
// memutil.Translator panic with a *Fault.
type Fault struct {
	Addr   hostarch.Addr
	Write  bool
	Reason string
}

// Error implements error.Error.
func (f *Fault) Error() string {
	kind := "read"
	if f.Write {
		kind = "write"
	}
	return fmt.Sprintf("page fault on %s of %v: %s", kind, f.Addr, f.Reason)
}

// translate returns the frame backing addr, faulting in a zero frame for
// untouched pages of a mapped range. Precondition: m.mu is held.
func (m *Machine) translate(addr hostarch.Addr, write bool) ([]byte, error) {
	if m.released {
		return nil, &Fault{Addr: addr, Write: write, Reason: "machine released"}
	}
	vpn := addr.PageNumber()
	if e := m.tlb.lookup(vpn); e != nil && (!write || e.writable) {
		m.stats.TLBHits++
		if write && !e.dirty {
			if err := m.markLeaf(addr, ptedit.BitDirty); err != nil {
				return nil, err
			}
			e.dirty = true
		}
		return m.frame(e.pfn), nil
	}
	m.stats.TLBMisses++

	w := ptedit.Walker{Mem: phys{m}}
	ent, err := w.Resolve(m.root, addr)
	if err != nil {
		return nil, &Fault{Addr: addr, Write: write, Reason: err.Error()}
	}
	if ent.Valid&ptedit.ValidPTE == 0 {
		return nil, &Fault{Addr: addr, Write: write, Reason: "no page table"}
	}
	leaf := ent.PTE
	if !leaf.Present() {
		if leaf != 0 || !m.findVMA(addr) {
			return nil, &Fault{Addr: addr, Write: write, Reason: "page not present"}
		}
		pfn, err := m.allocFrame()
		if err != nil {
			return nil, &Fault{Addr: addr, Write: write, Reason: err.Error()}
		}
		m.owner[pfn] = addr.RoundDown()
		leaf = leafFlags.WithPFN(pfn)
		m.stats.Faults++
	}
	switch {
	case !leaf.Has(ptedit.BitUser):
		return nil, &Fault{Addr: addr, Write: write, Reason: "supervisor page"}
	case write && !leaf.Has(ptedit.BitWritable):
		return nil, &Fault{Addr: addr, Write: write, Reason: "write to read-only page"}
	case !m.valid(leaf.PFN()):
		return nil, &Fault{Addr: addr, Write: write, Reason: fmt.Sprintf("frame %v outside physical memory", leaf.PFN())}
	}

	leaf = leaf.With(ptedit.BitAccessed)
	if write {
		leaf = leaf.With(ptedit.BitDirty)
	}
	if leaf != ent.PTE {
		ent.PTE = leaf
		if err := w.Update(m.root, addr, ent.LeafOnly()); err != nil {
			return nil, &Fault{Addr: addr, Write: write, Reason: err.Error()}
		}
	}
	m.tlb.fill(tlbEntry{
		vpn:      vpn,
		pfn:      leaf.PFN(),
		writable: leaf.Has(ptedit.BitWritable),
		dirty:    leaf.Has(ptedit.BitDirty),
	})
	return m.frame(leaf.PFN()), nil
}

// markLeaf sets bit in the leaf of addr without touching the TLB.
// Precondition: m.mu is held.
func (m *Machine) markLeaf(addr hostarch.Addr, bit ptedit.Bit) error {
	w := ptedit.Walker{Mem: phys{m}}
	ent, err := w.Resolve(m.root, addr)
	if err != nil {
		return err
	}
	ent.PTE = ent.PTE.With(bit)
	return w.Update(m.root, addr, ent.LeafOnly())
}

// ensureTables creates the directories above the leaf of addr.
// Precondition: m.mu is held.
func (m *Machine) ensureTables(addr hostarch.Addr) error {
	p := phys{m}
	table := m.root
	for l := ptedit.LevelPGD; l < ptedit.LevelPTE; l++ {
		idx := l.Index(addr)
		pte, err := p.ReadEntry(table, idx)
		if err != nil {
			return err
		}
		if !pte.Present() {
			pfn, err := m.allocFrame()
			if err != nil {
				return err
			}
			pte = dirFlags.WithPFN(pfn)
			if err := p.WriteEntry(table, idx, pte); err != nil {
				return err
			}
		}
		table = pte.PFN()
	}
	return nil
}
