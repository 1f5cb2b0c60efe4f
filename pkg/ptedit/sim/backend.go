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
	"fmt"
	"os"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

// Init implements ptedit.Backend.Init.
func (m *Machine) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return fmt.Errorf("machine released")
	}
	return nil
}

// UseImplementation implements ptedit.Backend.UseImplementation.
func (m *Machine) UseImplementation(impl ptedit.Impl) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.impl = impl
	return nil
}

// PageSize implements ptedit.Backend.PageSize.
func (m *Machine) PageSize() (int, error) {
	return hostarch.PageSize, nil
}

// The machine has a single address space, which belongs to this process.
func checkPID(pid int) error {
	if pid != 0 && pid != os.Getpid() {
		return fmt.Errorf("%w: pid %d has no simulated address space", ptedit.ErrNotSupported, pid)
	}
	return nil
}

// Resolve implements ptedit.Backend.Resolve.
func (m *Machine) Resolve(addr hostarch.Addr, pid int) (ptedit.Entry, error) {
	if err := checkPID(pid); err != nil {
		return ptedit.Entry{}, err
	}
	var (
		e   ptedit.Entry
		err error
	)
	if m.implementation() == ptedit.ImplUser {
		e, err = ptedit.Walker{Mem: lockedPhys{m}}.Resolve(m.root, addr)
	} else {
		m.mu.Lock()
		e, err = ptedit.Walker{Mem: phys{m}}.Resolve(m.root, addr)
		m.mu.Unlock()
	}
	e.PID = pid
	return e, err
}

// Update implements ptedit.Backend.Update.
func (m *Machine) Update(addr hostarch.Addr, pid int, e ptedit.Entry) error {
	if err := checkPID(pid); err != nil {
		return err
	}
	if m.implementation() == ptedit.ImplUser {
		if err := (ptedit.Walker{Mem: lockedPhys{m}}).Update(m.root, addr, e); err != nil {
			return err
		}
		m.mu.Lock()
		m.invalidate(addr)
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := (ptedit.Walker{Mem: phys{m}}).Update(m.root, addr, e); err != nil {
		return err
	}
	m.invalidate(addr)
	return nil
}

// invalidate drops the cached translation of addr. Precondition: m.mu is
// held.
func (m *Machine) invalidate(addr hostarch.Addr) {
	m.tlb.invalidate(addr.PageNumber())
	m.stats.Invalidations++
}

func (m *Machine) implementation() ptedit.Impl {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.impl
}

func (m *Machine) leaf() ptedit.LeafBits {
	return ptedit.LeafBits{Resolve: m.Resolve, Update: m.Update}
}

// SetBit implements ptedit.Backend.SetBit.
func (m *Machine) SetBit(addr hostarch.Addr, pid int, bit ptedit.Bit) error {
	return m.leaf().SetBit(addr, pid, bit)
}

// ClearBit implements ptedit.Backend.ClearBit.
func (m *Machine) ClearBit(addr hostarch.Addr, pid int, bit ptedit.Bit) error {
	return m.leaf().ClearBit(addr, pid, bit)
}

// GetBit implements ptedit.Backend.GetBit.
func (m *Machine) GetBit(addr hostarch.Addr, pid int, bit ptedit.Bit) (bool, error) {
	return m.leaf().GetBit(addr, pid, bit)
}

// ReadPhysicalPage implements ptedit.Backend.ReadPhysicalPage.
func (m *Machine) ReadPhysicalPage(pfn ptedit.PFN, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released || !m.valid(pfn) {
		return fmt.Errorf("frame %v outside physical memory", pfn)
	}
	copy(buf, m.frame(pfn))
	return nil
}

// Cleanup implements ptedit.Backend.Cleanup. Simulated memory outlives the
// backend session; see Release.
func (m *Machine) Cleanup() error {
	log.Debugf("%v", m)
	return nil
}
