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

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

// PhysicalReader copies physical frames out.
type PhysicalReader struct {
	h *ptedit.Handle
}

// NewPhysicalReader returns a PhysicalReader over h.
func NewPhysicalReader(h *ptedit.Handle) *PhysicalReader {
	return &PhysicalReader{h: h}
}

// ReadFrame returns a fresh copy of frame pfn.
func (p *PhysicalReader) ReadFrame(pfn ptedit.PFN) ([]byte, error) {
	buf := make([]byte, hostarch.PageSize)
	if err := p.h.ReadPhysicalPage(pfn, buf); err != nil {
		return nil, fmt.Errorf("reading frame %v: %w", pfn, err)
	}
	return buf, nil
}
