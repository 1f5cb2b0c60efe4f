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

// Package sim is a software MMU that implements ptedit.Backend.
//
// A Machine owns simulated physical memory, backed by host pages, and one
// four-level address space whose tables live in that memory. It also
// implements memutil.AddressSpace: Map reserves a range with empty leaf
// entries, the first access to a page faults a zero frame in, and every
// access is translated through the tables and a small TLB. Editing a leaf
// through the Backend methods therefore changes what later accesses observe,
// exactly as editing a real page table would.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"golang.org/x/sys/unix"
)

const (
	// DefaultBase is where the first mapping is placed.
	DefaultBase = hostarch.Addr(0x100_0000_0000)

	// DefaultMaxFrames bounds simulated physical memory at 4 GiB.
	DefaultMaxFrames = 1 << 20

	// DefaultTLBEntries is the TLB size when Options leave it unset.
	DefaultTLBEntries = 64

	// framesPerChunk frames are mapped from the host at a time.
	framesPerChunk = 1024

	// dirFlags are the flags of directory entries created by Map.
	dirFlags = ptedit.PTE(1<<ptedit.BitPresent | 1<<ptedit.BitWritable | 1<<ptedit.BitUser | 1<<ptedit.BitAccessed)

	// leafFlags are the flags of leaf entries created on fault.
	leafFlags = ptedit.PTE(1<<ptedit.BitPresent | 1<<ptedit.BitWritable | 1<<ptedit.BitUser)
)

// ErrOutOfFrames is returned when simulated physical memory is exhausted.
var ErrOutOfFrames = errors.New("simulated physical memory exhausted")

// Options configures a Machine.
type Options struct {
	// Base is the address of the first mapping. Zero means DefaultBase.
	Base hostarch.Addr

	// MaxFrames bounds simulated physical memory. Zero means
	// DefaultMaxFrames.
	MaxFrames int

	// TLBEntries is the number of TLB entries, a power of two. Zero means
	// 64.
	TLBEntries int
}

// Stats are event counters.
type Stats struct {
	Faults        uint64
	TLBHits       uint64
	TLBMisses     uint64
	Invalidations uint64
	FramesInUse   int
}

// vma is a mapped range.
type vma struct {
	start, end hostarch.Addr
}

// Machine is a simulated MMU with its physical memory.
type Machine struct {
	mu sync.Mutex

	impl      ptedit.Impl
	maxFrames int

	// chunks back the frames; frame pfn lives in chunks[pfn/framesPerChunk].
	chunks [][]byte
	next   ptedit.PFN
	free   []ptedit.PFN

	// owner maps a faulted-in data frame to the page that owns it.
	owner map[ptedit.PFN]hostarch.Addr

	root   ptedit.PFN
	nextVA hostarch.Addr
	vmas   []vma

	tlb   tlb
	stats Stats

	released bool
}

var _ ptedit.Backend = (*Machine)(nil)

// New returns a Machine with an empty address space.
func New(opts Options) (*Machine, error) {
	m := &Machine{
		maxFrames: opts.MaxFrames,
		next:      1, // Frame 0 is never handed out.
		owner:     make(map[ptedit.PFN]hostarch.Addr),
		nextVA:    opts.Base,
	}
	if m.maxFrames == 0 {
		m.maxFrames = DefaultMaxFrames
	}
	if m.nextVA == 0 {
		m.nextVA = DefaultBase
	}
	if !m.nextVA.IsPageAligned() {
		return nil, fmt.Errorf("base %v is not page aligned", m.nextVA)
	}
	entries := opts.TLBEntries
	if entries == 0 {
		entries = DefaultTLBEntries
	}
	if entries&(entries-1) != 0 {
		return nil, fmt.Errorf("TLB size %d is not a power of two", entries)
	}
	m.tlb.init(entries)

	root, err := m.allocFrame()
	if err != nil {
		return nil, err
	}
	m.root = root
	return m, nil
}

// Root returns the frame of the top-level table.
func (m *Machine) Root() ptedit.PFN {
	return m.root
}

// Stats returns a snapshot of the event counters.
func (m *Machine) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.FramesInUse = int(m.next) - 1 - len(m.free)
	return s
}

// Release returns all simulated physical memory to the host. The Machine
// cannot be used afterwards.
func (m *Machine) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	m.released = true
	var firstErr error
	for _, c := range m.chunks {
		if err := unix.Munmap(c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.chunks = nil
	return firstErr
}

// frame returns the memory of pfn. Preconditions: m.mu is held and pfn was
// allocated.
func (m *Machine) frame(pfn ptedit.PFN) []byte {
	c := m.chunks[pfn/framesPerChunk]
	off := int(pfn%framesPerChunk) << hostarch.PageShift
	return c[off : off+hostarch.PageSize : off+hostarch.PageSize]
}

func (m *Machine) valid(pfn ptedit.PFN) bool {
	return pfn != 0 && pfn < m.next
}

// allocFrame returns a zeroed frame. Precondition: m.mu is held.
func (m *Machine) allocFrame() (ptedit.PFN, error) {
	if m.released {
		return 0, fmt.Errorf("machine released")
	}
	if n := len(m.free); n > 0 {
		pfn := m.free[n-1]
		m.free = m.free[:n-1]
		clear(m.frame(pfn))
		return pfn, nil
	}
	if int(m.next) > m.maxFrames {
		return 0, ErrOutOfFrames
	}
	if int(m.next/framesPerChunk) >= len(m.chunks) {
		c, err := unix.Mmap(-1, 0, framesPerChunk*hostarch.PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			return 0, fmt.Errorf("mapping frames: %w", err)
		}
		m.chunks = append(m.chunks, c)
	}
	pfn := m.next
	m.next++
	return pfn, nil
}

// freeFrame returns pfn to the allocator. Precondition: m.mu is held.
func (m *Machine) freeFrame(pfn ptedit.PFN) {
	delete(m.owner, pfn)
	m.free = append(m.free, pfn)
}

func (m *Machine) findVMA(addr hostarch.Addr) bool {
	for _, v := range m.vmas {
		if addr >= v.start && addr < v.end {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.String.
func (m *Machine) String() string {
	s := m.Stats()
	return fmt.Sprintf("sim: root %v, %d frames in use, %d faults, TLB %d hits %d misses %d invalidations",
		m.root, s.FramesInUse, s.Faults, s.TLBHits, s.TLBMisses, s.Invalidations)
}
