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

package memutil

import (
	"fmt"
	"unsafe"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/log"
	"golang.org/x/sys/unix"
)

// Host maps anonymous private memory in this process.
type Host struct {
	// Lock requests mlock(2) on new mappings. Failure to lock is logged and
	// reported through Mapping.Locked.
	Lock bool

	// HugePages leaves transparent huge pages enabled on new mappings.
	HugePages bool
}

var _ AddressSpace = (*Host)(nil)

// Map implements AddressSpace.Map.
func (h *Host) Map(pages int) (*Mapping, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("%w: invalid page count %d", ErrAllocation, pages)
	}
	size := pages << hostarch.PageShift
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap of %d pages: %v", ErrAllocation, pages, err)
	}
	m := &Mapping{
		Base:  hostarch.Addr(uintptr(unsafe.Pointer(unsafe.SliceData(mem)))),
		Pages: pages,
		mem:   mem,
	}
	if !h.HugePages {
		if err := unix.Madvise(mem, unix.MADV_NOHUGEPAGE); err != nil {
			log.Warningf("MADV_NOHUGEPAGE on %v failed: %v", m, err)
		}
	}
	if h.Lock {
		if err := unix.Mlock(mem); err != nil {
			log.Warningf("mlock of %v failed, continuing unlocked: %v", m, err)
		} else {
			m.Locked = true
		}
	}
	log.Debugf("Mapped %v", m)
	return m, nil
}

// Unmap implements AddressSpace.Unmap.
func (h *Host) Unmap(m *Mapping) error {
	if m.mem == nil {
		return fmt.Errorf("%v is not a host mapping", m)
	}
	if m.Locked {
		if err := unix.Munlock(m.mem); err != nil {
			log.Warningf("munlock of %v failed: %v", m, err)
		}
	}
	if err := unix.Munmap(m.mem); err != nil {
		return fmt.Errorf("munmap of %v: %w", m, err)
	}
	m.mem = nil
	return nil
}

func loadWord(mem []byte, off int) uint64 {
	_ = mem[off+7]
	return *(*uint64)(unsafe.Pointer(&mem[off]))
}

func storeWord(mem []byte, off int, v uint64) {
	_ = mem[off+7]
	*(*uint64)(unsafe.Pointer(&mem[off])) = v
}
