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

// Package pagemap is a read-only ptedit.Backend over /proc/<pid>/pagemap.
//
// The kernel exposes one 64-bit record per virtual page: bit 63 is set when
// the page is present and bits 0-54 carry the frame number, which reads as
// zero without CAP_SYS_ADMIN. Directory entries are not exposed. A present
// leaf is reported under synthetic present directories so that the path
// counts as resolved; a non-present leaf is reported alone.
//
// Writes and physical reads return ptedit.ErrNotSupported.
package pagemap

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"golang.org/x/sys/unix"
)

const (
	recordSize = 8

	pmPresent  = 1 << 63
	pmSwapped  = 1 << 62
	pmSoftDirt = 1 << 55
	pmPFNMask  = (1 << 55) - 1
)

// directory is the value reported for levels above a present leaf.
var directory = ptedit.PTE(0).With(ptedit.BitPresent)

// Options configures a Backend.
type Options struct {
	// ProcRoot is the procfs mount point. Empty means "/proc".
	ProcRoot string
}

// Backend implements ptedit.Backend.
type Backend struct {
	procRoot string

	mu   sync.Mutex
	self *os.File
	rec  [recordSize]byte
}

var _ ptedit.Backend = (*Backend)(nil)

// New returns an uninitialized Backend.
func New(opts Options) *Backend {
	root := opts.ProcRoot
	if root == "" {
		root = "/proc"
	}
	return &Backend{procRoot: root}
}

func (b *Backend) path(pid int) string {
	if pid == 0 {
		return filepath.Join(b.procRoot, "self", "pagemap")
	}
	return filepath.Join(b.procRoot, strconv.Itoa(pid), "pagemap")
}

// Init implements ptedit.Backend.Init.
func (b *Backend) Init() error {
	f, err := os.Open(b.path(0))
	if err != nil {
		return err
	}
	b.self = f
	return nil
}

// UseImplementation implements ptedit.Backend.UseImplementation. The kernel
// always performs the walk, so both implementations behave the same.
func (b *Backend) UseImplementation(impl ptedit.Impl) error {
	return nil
}

// PageSize implements ptedit.Backend.PageSize.
func (b *Backend) PageSize() (int, error) {
	return hostarch.HostPageSize(), nil
}

// Record returns the raw pagemap record of addr.
func (b *Backend) Record(addr hostarch.Addr, pid int) (uint64, error) {
	off := int64(addr.PageNumber()) * recordSize
	if pid != 0 {
		f, err := os.Open(b.path(pid))
		if err != nil {
			return 0, err
		}
		defer f.Close()
		var rec [recordSize]byte
		if err := pread(int(f.Fd()), rec[:], off); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(rec[:]), nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := pread(int(b.self.Fd()), b.rec[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b.rec[:]), nil
}

func pread(fd int, buf []byte, off int64) error {
	n, err := unix.Pread(fd, buf, off)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short pagemap read: %d bytes at offset %d", n, off)
	}
	return nil
}

// leaf converts a pagemap record into a leaf entry.
func leaf(rec uint64) ptedit.PTE {
	if rec&pmPresent == 0 {
		return 0
	}
	return ptedit.PTE(0).With(ptedit.BitPresent).WithPFN(ptedit.PFN(rec & pmPFNMask))
}

// Resolve implements ptedit.Backend.Resolve.
func (b *Backend) Resolve(addr hostarch.Addr, pid int) (ptedit.Entry, error) {
	rec, err := b.Record(addr, pid)
	if err != nil {
		return ptedit.Entry{}, fmt.Errorf("reading pagemap record of %v: %w", addr, err)
	}
	e := ptedit.Entry{PID: pid, VAddr: addr}
	pte := leaf(rec)
	if pte.Present() {
		e.Set(ptedit.LevelPGD, directory)
		e.Set(ptedit.LevelPUD, directory)
		e.Set(ptedit.LevelPMD, directory)
	}
	e.Set(ptedit.LevelPTE, pte)
	return e, nil
}

// Update implements ptedit.Backend.Update.
func (b *Backend) Update(hostarch.Addr, int, ptedit.Entry) error {
	return fmt.Errorf("%w: pagemap is read-only", ptedit.ErrNotSupported)
}

// SetBit implements ptedit.Backend.SetBit.
func (b *Backend) SetBit(hostarch.Addr, int, ptedit.Bit) error {
	return fmt.Errorf("%w: pagemap is read-only", ptedit.ErrNotSupported)
}

// ClearBit implements ptedit.Backend.ClearBit.
func (b *Backend) ClearBit(hostarch.Addr, int, ptedit.Bit) error {
	return fmt.Errorf("%w: pagemap is read-only", ptedit.ErrNotSupported)
}

// GetBit implements ptedit.Backend.GetBit.
func (b *Backend) GetBit(addr hostarch.Addr, pid int, bit ptedit.Bit) (bool, error) {
	rec, err := b.Record(addr, pid)
	if err != nil {
		return false, fmt.Errorf("reading pagemap record of %v: %w", addr, err)
	}
	return leaf(rec).Has(bit), nil
}

// ReadPhysicalPage implements ptedit.Backend.ReadPhysicalPage.
func (b *Backend) ReadPhysicalPage(ptedit.PFN, []byte) error {
	return fmt.Errorf("%w: pagemap cannot read physical memory", ptedit.ErrNotSupported)
}

// Cleanup implements ptedit.Backend.Cleanup.
func (b *Backend) Cleanup() error {
	if b.self == nil {
		return nil
	}
	err := b.self.Close()
	b.self = nil
	return err
}

// Swapped reports whether rec describes a page that is swapped out.
func Swapped(rec uint64) bool {
	return rec&pmSwapped != 0
}

// SoftDirty reports whether rec has the soft-dirty bit set.
func SoftDirty(rec uint64) bool {
	return rec&pmSoftDirt != 0
}
