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
	"runtime"
	"unsafe"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"golang.org/x/sys/unix"
)

// ioctl issues req with a pointer argument.
func (b *Backend) ioctl(req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

// ioctlValue issues req with a scalar argument and returns the result.
func (b *Backend) ioctlValue(req, arg uintptr) (uintptr, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), req, arg)
	if errno != 0 {
		return 0, errno
	}
	return r, nil
}

func (b *Backend) resolve(v *vmEntry) error {
	return b.ioctl(_PTEDITOR_IOCTL_CMD_VM_RESOLVE, unsafe.Pointer(v))
}

func (b *Backend) update(v *vmEntry) error {
	return b.ioctl(_PTEDITOR_IOCTL_CMD_VM_UPDATE, unsafe.Pointer(v))
}

func (b *Backend) getRoot(p *paging) error {
	return b.ioctl(_PTEDITOR_IOCTL_CMD_GET_ROOT, unsafe.Pointer(p))
}

func (b *Backend) getPAT(pat *uint64) error {
	return b.ioctl(_PTEDITOR_IOCTL_CMD_GET_PAT, unsafe.Pointer(pat))
}

func (b *Backend) invalidate(addr hostarch.Addr) error {
	_, err := b.ioctlValue(_PTEDITOR_IOCTL_CMD_INVALIDATE_TLB, uintptr(addr))
	return err
}

// readPage and writePage require len(buf) == hostarch.PageSize.
func (b *Backend) readPage(pfn ptedit.PFN, buf []byte) error {
	p := page{pfn: uint64(pfn), buffer: uintptr(unsafe.Pointer(unsafe.SliceData(buf)))}
	err := b.ioctl(_PTEDITOR_IOCTL_CMD_READ_PAGE, unsafe.Pointer(&p))
	runtime.KeepAlive(buf)
	return err
}

func (b *Backend) writePage(pfn ptedit.PFN, buf []byte) error {
	p := page{pfn: uint64(pfn), buffer: uintptr(unsafe.Pointer(unsafe.SliceData(buf)))}
	err := b.ioctl(_PTEDITOR_IOCTL_CMD_WRITE_PAGE, unsafe.Pointer(&p))
	runtime.KeepAlive(buf)
	return err
}
