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
	"strings"

	"github.com/pteditlab/ptremap/pkg/hostarch"
)

// Level identifies one level of the four-level translation path.
type Level int

// Translation levels, top to bottom. Five-level paging is reported with the
// P4D folded into the PGD, as Linux does on four-level hardware.
const (
	LevelPGD Level = iota
	LevelPUD
	LevelPMD
	LevelPTE

	// NumLevels is the number of translation levels.
	NumLevels = 4

	// EntriesPerTable is the number of entries in one table page.
	EntriesPerTable = 512
)

var levelShifts = [NumLevels]uint{39, 30, 21, 12}

// String implements fmt.Stringer.String.
func (l Level) String() string {
	switch l {
	case LevelPGD:
		return "PGD"
	case LevelPUD:
		return "PUD"
	case LevelPMD:
		return "PMD"
	case LevelPTE:
		return "PTE"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Index returns the index of addr's entry within the table at level l.
func (l Level) Index(addr hostarch.Addr) int {
	return int((uint64(addr) >> levelShifts[l]) & (EntriesPerTable - 1))
}

// ValidMask records which entries of a translation path carry meaning. On a
// resolved path it names the levels the walk reached; on an update it names
// the levels to write.
type ValidMask uint64

// Valid bits. The values match the PTEditor kernel interface.
const (
	ValidPGD ValidMask = 1 << 0
	ValidP4D ValidMask = 1 << 1
	ValidPUD ValidMask = 1 << 2
	ValidPMD ValidMask = 1 << 3
	ValidPTE ValidMask = 1 << 4
)

var levelValid = [NumLevels]ValidMask{ValidPGD, ValidPUD, ValidPMD, ValidPTE}

// Mask returns the ValidMask bit of level l.
func (l Level) Mask() ValidMask {
	return levelValid[l]
}

// Entry is the translation path of one virtual address in one process: a
// snapshot of the entry at each level.
//
// An Entry whose PGD is zero is unresolved; none of its other fields may be
// relied on.
type Entry struct {
	// PID is the process whose tables were walked. Zero means the caller.
	PID int

	// VAddr is the virtual address that was resolved.
	VAddr hostarch.Addr

	PGD PTE
	PUD PTE
	PMD PTE
	PTE PTE

	// Valid names the levels that were reached (on Resolve) or that should
	// be written (on Update).
	Valid ValidMask
}

// Resolved returns true iff the top-level entry is present.
func (e Entry) Resolved() bool {
	return e.PGD != 0
}

// At returns the entry at level l.
func (e Entry) At(l Level) PTE {
	switch l {
	case LevelPGD:
		return e.PGD
	case LevelPUD:
		return e.PUD
	case LevelPMD:
		return e.PMD
	case LevelPTE:
		return e.PTE
	}
	panic(fmt.Sprintf("invalid level %d", int(l)))
}

// Set replaces the entry at level l and marks it valid.
func (e *Entry) Set(l Level, pte PTE) {
	switch l {
	case LevelPGD:
		e.PGD = pte
	case LevelPUD:
		e.PUD = pte
	case LevelPMD:
		e.PMD = pte
	case LevelPTE:
		e.PTE = pte
	default:
		panic(fmt.Sprintf("invalid level %d", int(l)))
	}
	e.Valid |= l.Mask()
}

// LeafOnly returns a copy of e whose Valid mask selects only the PTE, so an
// Update writes the leaf and nothing else.
func (e Entry) LeafOnly() Entry {
	e.Valid = ValidPTE
	return e
}

// String renders the path one level per line.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entry for address %v (pid %d)\n", e.VAddr, e.PID)
	for l := LevelPGD; l < NumLevels; l++ {
		mark := ' '
		if e.Valid&l.Mask() == 0 {
			mark = '?'
		}
		fmt.Fprintf(&b, "  %c%s: %v\n", mark, l, e.At(l))
	}
	return b.String()
}
