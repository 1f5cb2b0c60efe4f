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

	"github.com/pteditlab/ptremap/pkg/hostarch"
)

// Impl selects how a backend performs walks and updates.
type Impl int

const (
	// ImplKernel delegates walks and updates to privileged code.
	ImplKernel Impl = iota

	// ImplUser walks the tables in this process, using privileged code only
	// to read and write physical memory.
	ImplUser
)

// String implements fmt.Stringer.String.
func (i Impl) String() string {
	switch i {
	case ImplKernel:
		return "kernel"
	case ImplUser:
		return "user"
	default:
		return fmt.Sprintf("Impl(%d)", int(i))
	}
}

// Set implements flag.Value.Set.
func (i *Impl) Set(v string) error {
	switch v {
	case "kernel":
		*i = ImplKernel
	case "user":
		*i = ImplUser
	default:
		return fmt.Errorf("invalid implementation %q, must be 'kernel' or 'user'", v)
	}
	return nil
}

// Get implements flag.Getter.Get.
func (i *Impl) Get() any {
	return *i
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (i *Impl) UnmarshalText(text []byte) error {
	return i.Set(string(text))
}

//go:generate mockgen -source=backend.go -destination=mock_backend_test.go -package=ptedit

// Backend is a page-table editing capability.
//
// Addresses are interpreted in the address space of pid; pid 0 is the
// calling process. Update and the bit setters must leave no stale
// translation for the address behind: invalidating the TLB is the backend's
// obligation.
type Backend interface {
	// Init acquires the capability. It is called once, by Open.
	Init() error

	// UseImplementation selects between kernel-assisted and user-mode walks.
	UseImplementation(impl Impl) error

	// PageSize returns the page size the backend operates on.
	PageSize() (int, error)

	// Resolve returns the translation path of addr.
	Resolve(addr hostarch.Addr, pid int) (Entry, error)

	// Update writes the levels of e selected by e.Valid into the live tables
	// of addr.
	Update(addr hostarch.Addr, pid int, e Entry) error

	// SetBit sets bit b in the leaf entry of addr.
	SetBit(addr hostarch.Addr, pid int, b Bit) error

	// ClearBit clears bit b in the leaf entry of addr.
	ClearBit(addr hostarch.Addr, pid int, b Bit) error

	// GetBit reports bit b of the leaf entry of addr.
	GetBit(addr hostarch.Addr, pid int, b Bit) (bool, error)

	// ReadPhysicalPage copies frame pfn into buf, which must hold at least
	// one page.
	ReadPhysicalPage(pfn PFN, buf []byte) error

	// Cleanup releases the capability. It is called once, by Handle.Close.
	Cleanup() error
}
