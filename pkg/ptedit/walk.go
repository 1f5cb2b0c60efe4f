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

package ptedit

import (
	"fmt"

	"github.com/pteditlab/ptremap/pkg/hostarch"
)

// TableMemory gives entry-granular access to page tables stored in physical
// memory.
type TableMemory interface {
	// ReadEntry returns entry index of the table in frame table.
	ReadEntry(table PFN, index int) (PTE, error)

	// WriteEntry replaces entry index of the table in frame table.
	WriteEntry(table PFN, index int, pte PTE) error
}

// slot locates one entry in physical memory.
type slot struct {
	table PFN
	index int
}

// Walker performs four-level walks over TableMemory. It is shared by the
// backends that walk tables themselves instead of asking the kernel.
type Walker struct {
	Mem TableMemory
}

// walk resolves addr starting at the root table. The walk stops below the
// first non-present directory entry; the leaf entry is reported even when it
// is not present. Large pages are not supported.
func (w Walker) walk(root PFN, addr hostarch.Addr) (Entry, [NumLevels]slot, error) {
	e := Entry{VAddr: addr}
	var slots [NumLevels]slot
	table := root
	for l := LevelPGD; l < NumLevels; l++ {
		idx := l.Index(addr)
		pte, err := w.Mem.ReadEntry(table, idx)
		if err != nil {
			return e, slots, fmt.Errorf("reading %v entry %d of table %v: %w", l, idx, table, err)
		}
		slots[l] = slot{table: table, index: idx}
		e.Set(l, pte)

		if l == LevelPTE || !pte.Present() {
			break
		}
		if l != LevelPGD && pte.Has(BitHuge) {
			return e, slots, fmt.Errorf("%w: %v maps a large page at %v", ErrNotSupported, l, addr)
		}
		table = pte.PFN()
	}
	return e, slots, nil
}

// Resolve returns the translation path of addr.
func (w Walker) Resolve(root PFN, addr hostarch.Addr) (Entry, error) {
	e, _, err := w.walk(root, addr)
	return e, err
}

// Update writes the levels selected by e.Valid back into the tables. Every
// selected level must be reachable by the current walk.
func (w Walker) Update(root PFN, addr hostarch.Addr, e Entry) error {
	cur, slots, err := w.walk(root, addr)
	if err != nil {
		return err
	}
	for l := LevelPGD; l < NumLevels; l++ {
		if e.Valid&l.Mask() == 0 {
			continue
		}
		if cur.Valid&l.Mask() == 0 {
			return fmt.Errorf("%w: %v of %v is not reachable", ErrUnresolvedTranslation, l, addr)
		}
		s := slots[l]
		if err := w.Mem.WriteEntry(s.table, s.index, e.At(l)); err != nil {
			return fmt.Errorf("writing %v entry %d of table %v: %w", l, s.index, s.table, err)
		}
	}
	return nil
}

// LeafBits implements the read-modify-write bit operations on top of
// Resolve and Update for backends that have no native bit setters.
type LeafBits struct {
	Resolve func(addr hostarch.Addr, pid int) (Entry, error)
	Update  func(addr hostarch.Addr, pid int, e Entry) error
}

// SetBit sets bit b in the leaf entry of addr.
func (lb LeafBits) SetBit(addr hostarch.Addr, pid int, b Bit) error {
	return lb.modify(addr, pid, func(p PTE) PTE { return p.With(b) })
}

// ClearBit clears bit b in the leaf entry of addr.
func (lb LeafBits) ClearBit(addr hostarch.Addr, pid int, b Bit) error {
	return lb.modify(addr, pid, func(p PTE) PTE { return p.Without(b) })
}

// GetBit reports bit b of the leaf entry of addr.
func (lb LeafBits) GetBit(addr hostarch.Addr, pid int, b Bit) (bool, error) {
	e, err := lb.Resolve(addr, pid)
	if err != nil {
		return false, err
	}
	if e.Valid&ValidPTE == 0 {
		return false, nil
	}
	return e.PTE.Has(b), nil
}

func (lb LeafBits) modify(addr hostarch.Addr, pid int, fn func(PTE) PTE) error {
	e, err := lb.Resolve(addr, pid)
	if err != nil {
		return err
	}
	if e.Valid&ValidPTE == 0 {
		return fmt.Errorf("%w: no leaf entry for %v", ErrUnresolvedTranslation, addr)
	}
	e.PTE = fn(e.PTE)
	return lb.Update(addr, pid, e.LeafOnly())
}
