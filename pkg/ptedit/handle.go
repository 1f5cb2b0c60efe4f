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
	"sync"
	"sync/atomic"

	"github.com/pteditlab/ptremap/pkg/cleanup"
	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/log"
)

// live is set while a Handle is open.
var live atomic.Bool

// Handle is the process-wide, explicitly owned page-table capability. It is
// passed to every component that needs the backend.
type Handle struct {
	backend Backend
	impl    Impl

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open initializes b, selects impl and checks the page size. Only one Handle
// may be open at a time; a second Open fails with ErrAlreadyOpen until the
// first is closed.
//
// Initialization failures wrap ErrBackendUnavailable.
func Open(b Backend, impl Impl) (*Handle, error) {
	if !live.CompareAndSwap(false, true) {
		return nil, ErrAlreadyOpen
	}
	cu := cleanup.Make(func() { live.Store(false) })
	defer cu.Clean()

	if err := b.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	cu.Add(func() {
		if err := b.Cleanup(); err != nil {
			log.Warningf("Backend cleanup after failed open: %v", err)
		}
	})

	if err := b.UseImplementation(impl); err != nil {
		return nil, fmt.Errorf("selecting %v implementation: %w", impl, err)
	}
	size, err := b.PageSize()
	if err != nil {
		return nil, fmt.Errorf("querying page size: %w", err)
	}
	if size != hostarch.PageSize {
		return nil, fmt.Errorf("%w: backend reports %d, want %d", ErrPageSizeMismatch, size, hostarch.PageSize)
	}

	cu.Release()
	log.Debugf("Page table backend open, implementation %v, page size %d", impl, size)
	return &Handle{backend: b, impl: impl}, nil
}

// Impl returns the implementation selected at Open.
func (h *Handle) Impl() Impl {
	return h.impl
}

// Backend returns the underlying backend.
func (h *Handle) Backend() Backend {
	return h.backend
}

// Close releases the capability. It is safe to call Close more than once and
// from several exit paths; only the first call reaches the backend.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeErr = h.backend.Cleanup()
		live.Store(false)
		log.Debugf("Page table backend closed")
	})
	return h.closeErr
}

// Resolve implements Backend.Resolve.
func (h *Handle) Resolve(addr hostarch.Addr, pid int) (Entry, error) {
	if h.closed.Load() {
		return Entry{}, ErrClosed
	}
	return h.backend.Resolve(addr, pid)
}

// Update implements Backend.Update.
func (h *Handle) Update(addr hostarch.Addr, pid int, e Entry) error {
	if h.closed.Load() {
		return ErrClosed
	}
	return h.backend.Update(addr, pid, e)
}

// SetBit implements Backend.SetBit.
func (h *Handle) SetBit(addr hostarch.Addr, pid int, b Bit) error {
	if h.closed.Load() {
		return ErrClosed
	}
	return h.backend.SetBit(addr, pid, b)
}

// ClearBit implements Backend.ClearBit.
func (h *Handle) ClearBit(addr hostarch.Addr, pid int, b Bit) error {
	if h.closed.Load() {
		return ErrClosed
	}
	return h.backend.ClearBit(addr, pid, b)
}

// GetBit implements Backend.GetBit.
func (h *Handle) GetBit(addr hostarch.Addr, pid int, b Bit) (bool, error) {
	if h.closed.Load() {
		return false, ErrClosed
	}
	return h.backend.GetBit(addr, pid, b)
}

// ReadPhysicalPage implements Backend.ReadPhysicalPage.
func (h *Handle) ReadPhysicalPage(pfn PFN, buf []byte) error {
	if h.closed.Load() {
		return ErrClosed
	}
	if len(buf) < hostarch.PageSize {
		return fmt.Errorf("buffer of %d bytes cannot hold a page", len(buf))
	}
	return h.backend.ReadPhysicalPage(pfn, buf)
}
