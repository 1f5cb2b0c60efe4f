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

// Package remap points virtual pages of this process at physical frames it
// already owns, by editing leaf page table entries through a ptedit.Handle.
package remap

import (
	"fmt"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

// View reads translation paths. It never modifies page tables.
type View struct {
	h *ptedit.Handle
}

// NewView returns a View over h.
func NewView(h *ptedit.Handle) *View {
	return &View{h: h}
}

// Resolve returns the translation path of addr in pid. If the top-level
// entry is absent the zeroed path is returned together with
// ptedit.ErrUnresolvedTranslation, and must not be used further.
func (v *View) Resolve(addr hostarch.Addr, pid int) (ptedit.Entry, error) {
	e, err := v.h.Resolve(addr, pid)
	if err != nil {
		return e, fmt.Errorf("resolving %v: %w", addr, err)
	}
	if !e.Resolved() {
		return e, fmt.Errorf("%w: no top-level entry for %v", ptedit.ErrUnresolvedTranslation, addr)
	}
	return e, nil
}

// BitIsSet reports bit of the leaf entry of addr.
func (v *View) BitIsSet(addr hostarch.Addr, pid int, bit ptedit.Bit) (bool, error) {
	return v.h.GetBit(addr, pid, bit)
}

// PFNOf returns the frame number a leaf entry points to.
func PFNOf(pte ptedit.PTE) ptedit.PFN {
	return pte.PFN()
}
