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

package remap

import (
	"errors"
	"fmt"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

// ErrNoFrame is returned by DonorOf when a page has no usable frame.
var ErrNoFrame = errors.New("page has no usable frame")

// accessBits are set on a remapped leaf, in this order.
var accessBits = []ptedit.Bit{ptedit.BitPresent, ptedit.BitWritable, ptedit.BitUser}

// Donor is a physical frame taken from a resolved, present leaf entry.
type Donor struct {
	addr hostarch.Addr
	pfn  ptedit.PFN
}

// Addr returns the page the frame was taken from.
func (d Donor) Addr() hostarch.Addr { return d.addr }

// PFN returns the frame number.
func (d Donor) PFN() ptedit.PFN { return d.pfn }

// String implements fmt.Stringer.String.
func (d Donor) String() string {
	return fmt.Sprintf("frame %v of %v", d.pfn, d.addr)
}

// Remapper edits leaf entries. Every method except SetPFN modifies live
// page tables.
type Remapper struct {
	h    *ptedit.Handle
	view *View
}

// NewRemapper returns a Remapper over h.
func NewRemapper(h *ptedit.Handle) *Remapper {
	return &Remapper{h: h, view: NewView(h)}
}

// View returns the View the Remapper resolves through.
func (r *Remapper) View() *View {
	return r.view
}

// SetPFN returns pte pointing at pfn, with every other bit unchanged.
func SetPFN(pte ptedit.PTE, pfn ptedit.PFN) ptedit.PTE {
	return pte.WithPFN(pfn)
}

// Apply writes pte as the leaf entry of addr.
func (r *Remapper) Apply(addr hostarch.Addr, pid int, pte ptedit.PTE) error {
	e := ptedit.Entry{PID: pid, VAddr: addr, PTE: pte, Valid: ptedit.ValidPTE}
	if err := r.h.Update(addr, pid, e); err != nil {
		return fmt.Errorf("updating leaf of %v: %w", addr, err)
	}
	return nil
}

// SetBit sets bit in the leaf entry of addr.
func (r *Remapper) SetBit(addr hostarch.Addr, pid int, bit ptedit.Bit) error {
	if err := r.h.SetBit(addr, pid, bit); err != nil {
		return fmt.Errorf("setting %v on %v: %w", bit, addr, err)
	}
	return nil
}

// ClearBit clears bit in the leaf entry of addr.
func (r *Remapper) ClearBit(addr hostarch.Addr, pid int, bit ptedit.Bit) error {
	if err := r.h.ClearBit(addr, pid, bit); err != nil {
		return fmt.Errorf("clearing %v on %v: %w", bit, addr, err)
	}
	return nil
}

// DonorOf returns the frame behind addr. The page must be resolved, present
// and expose a non-zero frame number.
func (r *Remapper) DonorOf(addr hostarch.Addr, pid int) (Donor, error) {
	e, err := r.view.Resolve(addr, pid)
	if err != nil {
		return Donor{}, err
	}
	if e.Valid&ptedit.ValidPTE == 0 || !e.PTE.Present() {
		return Donor{}, fmt.Errorf("%w: %v is not present", ErrNoFrame, addr)
	}
	if e.PTE.PFN() == 0 {
		return Donor{}, fmt.Errorf("%w: frame number of %v is hidden", ErrNoFrame, addr)
	}
	return Donor{addr: addr.RoundDown(), pfn: e.PTE.PFN()}, nil
}

// Remap points the leaf of addr at the donor's frame and marks it present,
// writable and user accessible. It returns the translation path as it was
// before the edit, for Restore.
//
// The target must resolve and have a leaf table. Nothing is retried.
func (r *Remapper) Remap(addr hostarch.Addr, pid int, donor Donor) (ptedit.Entry, error) {
	if donor.pfn == 0 {
		return ptedit.Entry{}, fmt.Errorf("%w: donor was not obtained from a present leaf", ErrNoFrame)
	}
	orig, err := r.view.Resolve(addr, pid)
	if err != nil {
		return orig, err
	}
	if orig.Valid&ptedit.ValidPTE == 0 {
		return orig, fmt.Errorf("%w: %v has no leaf table", ptedit.ErrUnresolvedTranslation, addr)
	}

	if err := r.Apply(addr, pid, SetPFN(orig.PTE, donor.pfn)); err != nil {
		return orig, err
	}
	for _, b := range accessBits {
		if err := r.SetBit(addr, pid, b); err != nil {
			return orig, err
		}
	}
	log.Debugf("Remapped %v onto %v, leaf was %v", addr, donor, orig.PTE)
	return orig, nil
}

// Restore writes back the leaf entry of a path returned by Remap.
func (r *Remapper) Restore(addr hostarch.Addr, pid int, orig ptedit.Entry) error {
	return r.Apply(addr, pid, orig.PTE)
}
