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

package kmod

import (
	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

// Ioctl encoding, see include/uapi/asm-generic/ioctl.h.
const (
	_IOC_NRSHIFT   = 0
	_IOC_TYPESHIFT = 8
	_IOC_SIZESHIFT = 16
	_IOC_DIRSHIFT  = 30

	_IOC_NONE = 0
	_IOC_READ = 2

	sizeofSizeT = 8
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<_IOC_DIRSHIFT | typ<<_IOC_TYPESHIFT | nr<<_IOC_NRSHIFT | size<<_IOC_SIZESHIFT
}

// The module declares every data-carrying command as _IOR(magic, nr, size_t)
// regardless of the direction the data actually flows.
func ior(nr uintptr) uintptr {
	return ioc(_IOC_READ, _PTEDITOR_IOCTL_MAGIC, nr, sizeofSizeT)
}

func ionone(nr uintptr) uintptr {
	return ioc(_IOC_NONE, _PTEDITOR_IOCTL_MAGIC, nr, 0)
}

const _PTEDITOR_IOCTL_MAGIC = 0x3d17

var (
	_PTEDITOR_IOCTL_CMD_VM_RESOLVE     = ior(1)
	_PTEDITOR_IOCTL_CMD_VM_UPDATE      = ior(2)
	_PTEDITOR_IOCTL_CMD_READ_PAGE      = ior(5)
	_PTEDITOR_IOCTL_CMD_WRITE_PAGE     = ior(6)
	_PTEDITOR_IOCTL_CMD_GET_ROOT       = ior(7)
	_PTEDITOR_IOCTL_CMD_GET_PAGESIZE   = ionone(9)
	_PTEDITOR_IOCTL_CMD_INVALIDATE_TLB = ior(10)
	_PTEDITOR_IOCTL_CMD_GET_PAT        = ionone(11)
)

// Valid bits of vmEntry.valid. The module reports a P4D even when it is
// folded into the PGD.
const (
	validPGD = 1 << 0
	validP4D = 1 << 1
	validPUD = 1 << 2
	validPMD = 1 << 3
	validPTE = 1 << 4
)

// vmEntry is ptedit_entry_t.
type vmEntry struct {
	pid   uintptr
	vaddr uintptr
	pgd   uint64
	p4d   uint64
	pud   uint64
	pmd   uint64
	pte   uint64
	valid uint64
}

// paging is ptedit_paging_t.
type paging struct {
	pid  uintptr
	root uintptr
}

// page is ptedit_page_t.
type page struct {
	pfn    uint64
	buffer uintptr
}

// toEntry converts a resolved vmEntry. With four-level paging the P4D is the
// PGD slot itself and is dropped.
func (v *vmEntry) toEntry() ptedit.Entry {
	e := ptedit.Entry{
		PID:   int(v.pid),
		VAddr: hostarch.Addr(v.vaddr),
	}
	if v.valid&validPGD != 0 {
		e.Set(ptedit.LevelPGD, ptedit.PTE(v.pgd))
	}
	if v.valid&validPUD != 0 {
		e.Set(ptedit.LevelPUD, ptedit.PTE(v.pud))
	}
	if v.valid&validPMD != 0 {
		e.Set(ptedit.LevelPMD, ptedit.PTE(v.pmd))
	}
	if v.valid&validPTE != 0 {
		e.Set(ptedit.LevelPTE, ptedit.PTE(v.pte))
	}
	return e
}

// fromEntry builds the update request for e. validP4D is never requested:
// on four-level systems it would rewrite the PGD slot a second time.
func fromEntry(addr hostarch.Addr, pid int, e ptedit.Entry) vmEntry {
	v := vmEntry{
		pid:   uintptr(pid),
		vaddr: uintptr(addr),
		pgd:   uint64(e.PGD),
		p4d:   uint64(e.PGD),
		pud:   uint64(e.PUD),
		pmd:   uint64(e.PMD),
		pte:   uint64(e.PTE),
	}
	if e.Valid&ptedit.ValidPGD != 0 {
		v.valid |= validPGD
	}
	if e.Valid&ptedit.ValidPUD != 0 {
		v.valid |= validPUD
	}
	if e.Valid&ptedit.ValidPMD != 0 {
		v.valid |= validPMD
	}
	if e.Valid&ptedit.ValidPTE != 0 {
		v.valid |= validPTE
	}
	return v
}
