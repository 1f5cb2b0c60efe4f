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

package bench

import (
	"time"

	"github.com/pteditlab/ptremap/pkg/memutil"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"github.com/pteditlab/ptremap/pkg/remap"
	"golang.org/x/sys/unix"
)

// sink receives the sum of all loaded words so loads cannot be elided.
var sink uint64

// pass is one walk over the region.
type pass struct {
	mapping *memutil.Mapping
	order   []int
	mask    []bool
	op      Op
	stamp   uint64
}

// timing is the cost of one pass.
type timing struct {
	wall time.Duration
	cpu  time.Duration
}

// threadCPUTime returns the CPU time consumed by the calling thread.
func threadCPUTime() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_THREAD_CPUTIME_ID, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}

// access performs the pass's operation on page i.
func (p *pass) access(i int) uint64 {
	switch {
	case p.op == Read, p.op == Hybrid && !p.mask[i]:
		return p.mapping.LoadWord(i)
	default:
		p.mapping.StoreWord(i, p.stamp+uint64(i))
		return 0
	}
}

// direct runs the pass without checks.
func (p *pass) direct() timing {
	var acc uint64
	cpu0 := threadCPUTime()
	start := time.Now()
	for _, i := range p.order {
		acc += p.access(i)
	}
	wall := time.Since(start)
	cpu := threadCPUTime() - cpu0
	sink += acc
	return timing{wall: wall, cpu: cpu}
}

// checked runs the pass, reading the present bit of each page through view
// before accessing it. A page that is not present stops the pass.
func (p *pass) checked(view *remap.View) (timing, error) {
	var acc uint64
	cpu0 := threadCPUTime()
	start := time.Now()
	for _, i := range p.order {
		addr := p.mapping.Addr(i)
		present, err := view.BitIsSet(addr, 0, ptedit.BitPresent)
		if err != nil {
			return timing{}, err
		}
		if !present {
			return timing{}, &InvariantViolationError{Page: i, Addr: addr}
		}
		acc += p.access(i)
	}
	wall := time.Since(start)
	cpu := threadCPUTime() - cpu0
	sink += acc
	return timing{wall: wall, cpu: cpu}, nil
}
