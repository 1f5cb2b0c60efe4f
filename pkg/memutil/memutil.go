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

// Package memutil maps page-granular memory and accesses it one page at a
// time.
package memutil

import (
	"errors"
	"fmt"

	"github.com/pteditlab/ptremap/pkg/hostarch"
)

// ErrAllocation is returned when memory cannot be mapped.
var ErrAllocation = errors.New("memory allocation failed")

// AddressSpace maps and unmaps page-aligned regions.
type AddressSpace interface {
	// Map maps pages zero-filled pages. They are not necessarily present
	// until first touched.
	Map(pages int) (*Mapping, error)

	// Unmap releases m. Accessing m afterwards is invalid.
	Unmap(m *Mapping) error
}

// Translator is implemented by address spaces whose pages cannot be
// dereferenced directly by this process.
type Translator interface {
	LoadByte(addr hostarch.Addr) byte
	StoreByte(addr hostarch.Addr, v byte)
	LoadWord(addr hostarch.Addr) uint64
	StoreWord(addr hostarch.Addr, v uint64)
}

// Mapping is a contiguous range of pages.
type Mapping struct {
	// Base is the address of the first page.
	Base hostarch.Addr

	// Pages is the number of pages.
	Pages int

	// Locked is set when the range was successfully mlocked.
	Locked bool

	// mem is the range itself when it is directly addressable. Otherwise
	// accesses go through tr.
	mem []byte
	tr  Translator
}

// Len returns the size of the mapping in bytes.
func (m *Mapping) Len() int {
	return m.Pages << hostarch.PageShift
}

// Addr returns the address of page i.
func (m *Mapping) Addr(i int) hostarch.Addr {
	return m.Base + hostarch.Addr(i)<<hostarch.PageShift
}

// Contains reports whether addr falls inside m.
func (m *Mapping) Contains(addr hostarch.Addr) bool {
	return addr >= m.Base && addr < m.Base+hostarch.Addr(m.Len())
}

// Bytes returns the mapped memory when it is directly addressable, or nil.
func (m *Mapping) Bytes() []byte {
	return m.mem
}

// LoadWord reads the machine word at the base of page i.
func (m *Mapping) LoadWord(i int) uint64 {
	if m.mem != nil {
		return loadWord(m.mem, i<<hostarch.PageShift)
	}
	return m.tr.LoadWord(m.Addr(i))
}

// StoreWord writes v to the machine word at the base of page i.
func (m *Mapping) StoreWord(i int, v uint64) {
	if m.mem != nil {
		storeWord(m.mem, i<<hostarch.PageShift, v)
		return
	}
	m.tr.StoreWord(m.Addr(i), v)
}

// LoadByte reads the byte at addr, which must lie inside m.
func (m *Mapping) LoadByte(addr hostarch.Addr) byte {
	if m.mem != nil {
		return m.mem[addr-m.Base]
	}
	return m.tr.LoadByte(addr)
}

// Fill sets every byte of page i to v.
func (m *Mapping) Fill(i int, v byte) {
	if m.mem != nil {
		p := m.mem[i<<hostarch.PageShift : (i+1)<<hostarch.PageShift]
		for j := range p {
			p[j] = v
		}
		return
	}
	base := m.Addr(i)
	for j := 0; j < hostarch.PageSize; j++ {
		m.tr.StoreByte(base+hostarch.Addr(j), v)
	}
}

// NewMapping returns a Mapping whose accesses go through tr. It is used by
// address spaces that implement their own translation.
func NewMapping(base hostarch.Addr, pages int, tr Translator) *Mapping {
	return &Mapping{Base: base, Pages: pages, tr: tr}
}

// String implements fmt.Stringer.String.
func (m *Mapping) String() string {
	return fmt.Sprintf("[%v, %v) %d pages", m.Base, m.Base+hostarch.Addr(m.Len()), m.Pages)
}
