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
	"fmt"

	"github.com/pteditlab/ptremap/pkg/cleanup"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/memutil"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

// FillByte is written across the donor page.
const FillByte = 'A'

// Printer receives the demo's progress. Implementations tag each line.
type Printer interface {
	Progressf(format string, v ...any)
	OKf(format string, v ...any)
	Failf(format string, v ...any)
}

type nopPrinter struct{}

func (nopPrinter) Progressf(string, ...any) {}
func (nopPrinter) OKf(string, ...any)       {}
func (nopPrinter) Failf(string, ...any)     {}

// DemoOptions configures RunDemo.
type DemoOptions struct {
	// Keep leaves the target pointing at the donor frame instead of
	// restoring its original leaf before unmapping.
	Keep bool

	// Printer receives progress. Nil discards it.
	Printer Printer
}

// DemoResult is what RunDemo observed.
type DemoResult struct {
	Before   ptedit.Entry
	After    ptedit.Entry
	Donor    Donor
	PhysByte byte
	VirtByte byte
	Restored bool
}

// OK reports whether both the physical frame and the remapped page read
// back the fill byte.
func (r *DemoResult) OK() bool {
	return r.PhysByte == FillByte && r.VirtByte == FillByte
}

// RunDemo maps a target page and a donor page in space, fills the donor,
// remaps the target onto the donor's frame and reads the fill byte back both
// physically and through the target.
func RunDemo(h *ptedit.Handle, space memutil.AddressSpace, opts DemoOptions) (*DemoResult, error) {
	p := opts.Printer
	if p == nil {
		p = nopPrinter{}
	}
	r := NewRemapper(h)
	view := r.View()
	res := &DemoResult{}

	target, err := space.Map(1)
	if err != nil {
		return nil, err
	}
	var cu cleanup.Cleanup
	cu.AddErr(func() error { return space.Unmap(target) })
	defer func() {
		if err := cu.Clean(); err != nil {
			log.Warningf("Demo cleanup: %v", err)
		}
	}()
	v := target.Base

	p.Progressf("Page table walk of target %v (before remap)", v)
	before, err := view.Resolve(v, 0)
	if err != nil {
		p.Failf("Could not resolve page tables of %v", v)
		return nil, err
	}
	if before.Valid&ptedit.ValidPTE == 0 {
		// No leaf table yet. A read maps the page without dirtying it.
		p.Progressf("Target has no leaf table, touching it")
		target.LoadByte(v)
		if before, err = view.Resolve(v, 0); err != nil {
			return nil, err
		}
	}
	res.Before = before
	p.Progressf("%v", before)
	p.Progressf("PTE PFN %v", before.PTE.PFN())

	donorMap, err := space.Map(1)
	if err != nil {
		return nil, err
	}
	cu.AddErr(func() error { return space.Unmap(donorMap) })
	donorMap.Fill(0, FillByte)

	p.Progressf("Resolving donor %v", donorMap.Base)
	donor, err := r.DonorOf(donorMap.Base, 0)
	if err != nil {
		p.Failf("Donor has no usable frame")
		return nil, err
	}
	res.Donor = donor
	p.Progressf("Donor %v", donor)

	p.Progressf("Setting PFN of %v to %v and marking it present, writable, user", v, donor.PFN())
	orig, err := r.Remap(v, 0, donor)
	if err != nil {
		p.Failf("Remap failed")
		return nil, err
	}
	if !opts.Keep {
		// Restoring runs before the unmaps registered above.
		cu.AddErr(func() error {
			if err := r.Restore(v, 0, orig); err != nil {
				return err
			}
			res.Restored = true
			return nil
		})
	}

	p.Progressf("Page table walk of target %v (after remap)", v)
	after, err := view.Resolve(v, 0)
	if err != nil {
		return nil, err
	}
	res.After = after
	p.Progressf("%v", after)
	p.Progressf("PTE PFN %v", after.PTE.PFN())
	if after.PTE.PFN() != donor.PFN() {
		p.Failf("Target points at %v, want %v", after.PTE.PFN(), donor.PFN())
		return nil, fmt.Errorf("leaf of %v points at %v after remap, want %v", v, after.PTE.PFN(), donor.PFN())
	}

	frame, err := NewPhysicalReader(h).ReadFrame(donor.PFN())
	if err != nil {
		p.Failf("Could not read frame %v", donor.PFN())
		return nil, err
	}
	res.PhysByte = frame[0]
	p.Progressf("buf[0] = %q", res.PhysByte)

	res.VirtByte = target.LoadByte(v)
	p.Progressf("address[0] = %q", res.VirtByte)

	if res.OK() {
		p.OKf("Target %v reads the donor frame", v)
	} else {
		p.Failf("Target %v does not read the donor frame", v)
	}
	if err := cu.Clean(); err != nil {
		return res, err
	}
	return res, nil
}
