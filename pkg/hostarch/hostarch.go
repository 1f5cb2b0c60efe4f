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

// Package hostarch describes the host page geometry that the page-table
// editing code in this module assumes.
package hostarch

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	// PageShift is the binary log of the page size.
	PageShift = 12

	// PageSize is the size of a leaf-mapped page.
	PageSize = 1 << PageShift

	// PageMask masks the offset within a page.
	PageMask = PageSize - 1
)

// Addr is a virtual address in the calling process (or in the process named
// alongside it).
type Addr uintptr

// RoundDown returns the address rounded down to the nearest page boundary.
func (v Addr) RoundDown() Addr {
	return v & ^Addr(PageMask)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (v Addr) RoundUp() (addr Addr, ok bool) {
	addr = Addr(v + PageMask).RoundDown()
	ok = addr >= v
	return
}

// PageOffset returns the offset of v into the current page.
func (v Addr) PageOffset() uint64 {
	return uint64(v & PageMask)
}

// IsPageAligned returns true if v.PageOffset() == 0.
func (v Addr) IsPageAligned() bool {
	return v.PageOffset() == 0
}

// PageNumber returns the virtual page number of v.
func (v Addr) PageNumber() uint64 {
	return uint64(v) >> PageShift
}

// AddLength adds the given length to start and returns the result. ok is true
// iff adding the length did not overflow the range of Addr.
func (v Addr) AddLength(length uint64) (end Addr, ok bool) {
	end = v + Addr(length)
	// As of this writing, Go converts v to uint64 and compares the result.
	ok = end >= v && uint64(end-v) == length
	return
}

// String implements fmt.Stringer.String.
func (v Addr) String() string {
	return fmt.Sprintf("%#x", uintptr(v))
}

// HostPageSize returns the page size reported by the kernel.
func HostPageSize() int {
	return unix.Getpagesize()
}

// CheckHostPageSize returns an error if the kernel's base page size differs
// from PageSize.
func CheckHostPageSize() error {
	if size := HostPageSize(); size != PageSize {
		return fmt.Errorf("host page size is %d bytes, only %d byte pages are supported", size, PageSize)
	}
	return nil
}
