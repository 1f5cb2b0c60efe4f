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

// Package ptedit defines the contract between ptremap and a page-table
// editing backend, together with the x86-64 entry layout shared by all
// backends.
//
// A backend exposes the translation path of a virtual address as a set of
// raw entries (PGD, PUD, PMD, PTE), lets the caller replace any of them, and
// reads physical frames by number. Editing live entries can corrupt the
// calling process's address space; callers should go through package remap,
// which checks preconditions before touching anything.
//
// Exactly one Handle may be open per process. See Open.
package ptedit

import (
	"fmt"
	"strconv"
	"strings"
)

// PFN is a physical frame number.
type PFN uint64

// Address returns the physical address of the first byte of the frame.
func (p PFN) Address() uint64 {
	return uint64(p) << pfnShift
}

// String implements fmt.Stringer.String.
func (p PFN) String() string {
	return fmt.Sprintf("%#x", uint64(p))
}

// Bit is the position of a status bit within a page table entry.
type Bit uint

// Status bits, x86-64 layout.
const (
	BitPresent      Bit = 0
	BitWritable     Bit = 1
	BitUser         Bit = 2
	BitWriteThrough Bit = 3
	BitCacheDisable Bit = 4
	BitAccessed     Bit = 5
	BitDirty        Bit = 6
	BitHuge         Bit = 7
	BitGlobal       Bit = 8
	BitNoExecute    Bit = 63
)

var bitNames = map[Bit]string{
	BitPresent:      "present",
	BitWritable:     "writable",
	BitUser:         "user",
	BitWriteThrough: "write-through",
	BitCacheDisable: "cache-disable",
	BitAccessed:     "accessed",
	BitDirty:        "dirty",
	BitHuge:         "huge",
	BitGlobal:       "global",
	BitNoExecute:    "no-execute",
}

// String implements fmt.Stringer.String.
func (b Bit) String() string {
	if name, ok := bitNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bit%d", uint(b))
}

// ParseBit parses a bit name as printed by Bit.String, or a bit number.
func ParseBit(s string) (Bit, error) {
	for b, name := range bitNames {
		if name == s {
			return b, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > 63 {
		return 0, fmt.Errorf("invalid page table bit %q", s)
	}
	return Bit(n), nil
}

const (
	pfnShift = 12

	// pfnMask selects bits 12..51, the physical address field.
	pfnMask = uint64(0x000ffffffffff000)
)

// PTE is a raw page table entry at any level of the translation path.
//
// PTE is a value type: every modifier returns a new entry and leaves the
// receiver untouched. Writing an entry back into the live tables is the
// backend's job.
type PTE uint64

// Has returns true iff bit b is set.
func (p PTE) Has(b Bit) bool {
	return uint64(p)&(1<<b) != 0
}

// With returns p with bit b set.
func (p PTE) With(b Bit) PTE {
	return p | PTE(1)<<b
}

// Without returns p with bit b cleared.
func (p PTE) Without(b Bit) PTE {
	return p &^ (PTE(1) << b)
}

// Present returns true iff the present bit is set.
func (p PTE) Present() bool {
	return p.Has(BitPresent)
}

// PFN extracts the frame number.
func (p PTE) PFN() PFN {
	return PFN((uint64(p) & pfnMask) >> pfnShift)
}

// WithPFN returns p with the frame number replaced by pfn. All status and
// reserved bits are preserved.
func (p PTE) WithPFN(pfn PFN) PTE {
	return PTE((uint64(p) &^ pfnMask) | ((uint64(pfn) << pfnShift) & pfnMask))
}

// Flags returns the non-address bits.
func (p PTE) Flags() uint64 {
	return uint64(p) &^ pfnMask
}

// String implements fmt.Stringer.String.
func (p PTE) String() string {
	if p == 0 {
		return "0"
	}
	var flags strings.Builder
	for _, f := range []struct {
		bit    Bit
		letter byte
	}{
		{BitPresent, 'P'},
		{BitWritable, 'W'},
		{BitUser, 'U'},
		{BitAccessed, 'A'},
		{BitDirty, 'D'},
		{BitHuge, 'H'},
		{BitGlobal, 'G'},
		{BitNoExecute, 'X'},
	} {
		if p.Has(f.bit) {
			flags.WriteByte(f.letter)
		} else {
			flags.WriteByte('-')
		}
	}
	return fmt.Sprintf("%#016x (pfn %v, %s)", uint64(p), p.PFN(), flags.String())
}
