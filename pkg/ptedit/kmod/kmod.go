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

// Package kmod is a ptedit.Backend for the PTEditor kernel module.
//
// The module exposes its operations as ioctls on a character device. With
// ptedit.ImplKernel the module walks and updates the tables itself. With
// ptedit.ImplUser the walk runs in this process and the module is only used
// to read and write physical pages and to invalidate the TLB.
package kmod

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"golang.org/x/sys/unix"
)

// DefaultDevice is the device node created by the module.
const DefaultDevice = "/dev/pteditor"

// Options configures a Backend.
type Options struct {
	// Device is the device node. Empty means DefaultDevice.
	Device string
}

// Backend implements ptedit.Backend.
type Backend struct {
	device string
	fd     int
	impl   ptedit.Impl

	// mu serializes read-modify-write cycles on table pages in user mode.
	mu sync.Mutex
}

var _ ptedit.Backend = (*Backend)(nil)

// New returns an uninitialized Backend.
func New(opts Options) *Backend {
	dev := opts.Device
	if dev == "" {
		dev = DefaultDevice
	}
	return &Backend{device: dev, fd: -1}
}

// Init implements ptedit.Backend.Init.
func (b *Backend) Init() error {
	fd, err := unix.Open(b.device, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("opening %s (is the module loaded?): %w", b.device, err)
	}
	b.fd = fd
	log.Debugf("Opened %s, fd %d", b.device, fd)
	return nil
}

// UseImplementation implements ptedit.Backend.UseImplementation.
func (b *Backend) UseImplementation(impl ptedit.Impl) error {
	switch impl {
	case ptedit.ImplKernel, ptedit.ImplUser:
		b.impl = impl
		return nil
	default:
		return fmt.Errorf("%w: implementation %v", ptedit.ErrNotSupported, impl)
	}
}

// PageSize implements ptedit.Backend.PageSize.
func (b *Backend) PageSize() (int, error) {
	size, err := b.ioctlValue(_PTEDITOR_IOCTL_CMD_GET_PAGESIZE, 0)
	if err != nil {
		return 0, fmt.Errorf("GET_PAGESIZE: %w", err)
	}
	return int(size), nil
}

// Resolve implements ptedit.Backend.Resolve.
func (b *Backend) Resolve(addr hostarch.Addr, pid int) (ptedit.Entry, error) {
	if b.impl == ptedit.ImplUser {
		root, err := b.root(pid)
		if err != nil {
			return ptedit.Entry{}, err
		}
		e, err := ptedit.Walker{Mem: b}.Resolve(root, addr)
		e.PID = pid
		return e, err
	}

	v := vmEntry{pid: uintptr(pid), vaddr: uintptr(addr)}
	if err := b.resolve(&v); err != nil {
		return ptedit.Entry{}, fmt.Errorf("VM_RESOLVE %v: %w", addr, err)
	}
	return v.toEntry(), nil
}

// Update implements ptedit.Backend.Update.
func (b *Backend) Update(addr hostarch.Addr, pid int, e ptedit.Entry) error {
	if b.impl == ptedit.ImplUser {
		root, err := b.root(pid)
		if err != nil {
			return err
		}
		b.mu.Lock()
		err = ptedit.Walker{Mem: b}.Update(root, addr, e)
		b.mu.Unlock()
		if err != nil {
			return err
		}
		if err := b.invalidate(addr); err != nil {
			return fmt.Errorf("INVALIDATE_TLB %v: %w", addr, err)
		}
		return nil
	}

	// The module flushes the translation itself after an update.
	v := fromEntry(addr, pid, e)
	if err := b.update(&v); err != nil {
		return fmt.Errorf("VM_UPDATE %v: %w", addr, err)
	}
	return nil
}

func (b *Backend) leaf() ptedit.LeafBits {
	return ptedit.LeafBits{Resolve: b.Resolve, Update: b.Update}
}

// SetBit implements ptedit.Backend.SetBit.
func (b *Backend) SetBit(addr hostarch.Addr, pid int, bit ptedit.Bit) error {
	return b.leaf().SetBit(addr, pid, bit)
}

// ClearBit implements ptedit.Backend.ClearBit.
func (b *Backend) ClearBit(addr hostarch.Addr, pid int, bit ptedit.Bit) error {
	return b.leaf().ClearBit(addr, pid, bit)
}

// GetBit implements ptedit.Backend.GetBit.
func (b *Backend) GetBit(addr hostarch.Addr, pid int, bit ptedit.Bit) (bool, error) {
	return b.leaf().GetBit(addr, pid, bit)
}

// ReadPhysicalPage implements ptedit.Backend.ReadPhysicalPage.
func (b *Backend) ReadPhysicalPage(pfn ptedit.PFN, buf []byte) error {
	if err := b.readPage(pfn, buf[:hostarch.PageSize]); err != nil {
		return fmt.Errorf("READ_PAGE %v: %w", pfn, err)
	}
	return nil
}

// PAT returns the page attribute table MSR.
func (b *Backend) PAT() (uint64, error) {
	var pat uint64
	if err := b.getPAT(&pat); err != nil {
		return 0, fmt.Errorf("GET_PAT: %w", err)
	}
	return pat, nil
}

// Cleanup implements ptedit.Backend.Cleanup.
func (b *Backend) Cleanup() error {
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}

// root returns the frame holding the top-level table of pid.
func (b *Backend) root(pid int) (ptedit.PFN, error) {
	p := paging{pid: uintptr(pid)}
	if err := b.getRoot(&p); err != nil {
		return 0, fmt.Errorf("GET_ROOT pid %d: %w", pid, err)
	}
	// The root is a CR3 value; the low bits may carry a PCID.
	return ptedit.PTE(p.root).PFN(), nil
}

// ReadEntry implements ptedit.TableMemory.ReadEntry.
func (b *Backend) ReadEntry(table ptedit.PFN, index int) (ptedit.PTE, error) {
	buf := make([]byte, hostarch.PageSize)
	if err := b.readPage(table, buf); err != nil {
		return 0, err
	}
	return ptedit.PTE(binary.LittleEndian.Uint64(buf[index*8:])), nil
}

// WriteEntry implements ptedit.TableMemory.WriteEntry. The table page is
// read, patched and written back whole.
func (b *Backend) WriteEntry(table ptedit.PFN, index int, pte ptedit.PTE) error {
	buf := make([]byte, hostarch.PageSize)
	if err := b.readPage(table, buf); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[index*8:], uint64(pte))
	return b.writePage(table, buf)
}
