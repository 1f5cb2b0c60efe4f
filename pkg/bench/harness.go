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

// Package bench measures what it costs to check a page's present bit before
// every access, compared with accessing the page directly.
//
// A Harness maps a region, makes every page resident, and then for each unit
// of a Matrix walks the region once directly and once checked per
// repetition, over the same visit order and the same read/write mask.
package bench

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/memutil"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"github.com/pteditlab/ptremap/pkg/rand"
	"github.com/pteditlab/ptremap/pkg/remap"
	"github.com/rs/xid"
	"golang.org/x/sys/unix"
)

// MinRepetitions is the smallest accepted repetition count.
const MinRepetitions = 5

// Options configures a Harness.
type Options struct {
	// Pages is the size of the region in pages.
	Pages int

	// Repetitions is the number of direct/checked pairs per unit.
	Repetitions int

	// Matrix selects the units to run.
	Matrix Matrix

	// Seed seeds visit orders and write masks. Zero draws a seed.
	Seed uint64

	// CPU pins the run to one CPU. Negative leaves affinity alone.
	CPU int

	// ProgressEvery is the minimum interval between progress lines.
	ProgressEvery time.Duration
}

// DefaultOptions returns the options of a full run over 100000 pages.
func DefaultOptions() Options {
	return Options{
		Pages:         100000,
		Repetitions:   MinRepetitions,
		Matrix:        FullMatrix(),
		CPU:           -1,
		ProgressEvery: time.Second,
	}
}

func (o *Options) validate() error {
	if o.Pages <= 0 {
		return fmt.Errorf("invalid page count %d", o.Pages)
	}
	if o.Repetitions < MinRepetitions {
		return fmt.Errorf("at least %d repetitions are required, got %d", MinRepetitions, o.Repetitions)
	}
	if len(o.Matrix.Configs()) == 0 {
		return fmt.Errorf("empty benchmark matrix")
	}
	if o.CPU >= runtime.NumCPU() {
		return fmt.Errorf("CPU %d out of range, %d CPUs available", o.CPU, runtime.NumCPU())
	}
	return nil
}

// State is the lifecycle state of a Harness.
type State int

// Harness states, in lifecycle order.
const (
	StateUninitialized State = iota
	StateBackendReady
	StateRegionAllocated
	StateRunning
	StateResultsCollected
	StateReleased
)

// String implements fmt.Stringer.String.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBackendReady:
		return "backend-ready"
	case StateRegionAllocated:
		return "region-allocated"
	case StateRunning:
		return "running"
	case StateResultsCollected:
		return "results-collected"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Harness runs the benchmark. It is not safe for concurrent use.
type Harness struct {
	opts  Options
	space memutil.AddressSpace
	runID string

	state  State
	handle *ptedit.Handle
	view   *remap.View
	region *Region

	results  []Result
	progress log.Logger
}

// New returns a Harness that allocates its region in space.
func New(space memutil.AddressSpace, opts Options) (*Harness, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Seed == 0 {
		seed, err := rand.Seed()
		if err != nil {
			return nil, err
		}
		opts.Seed = seed
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = time.Second
	}
	return &Harness{
		opts:     opts,
		space:    space,
		runID:    xid.New().String(),
		progress: log.BasicRateLimitedLogger(every),
	}, nil
}

// RunID identifies this harness in reports.
func (h *Harness) RunID() string {
	return h.runID
}

// Options returns the effective options, including the drawn seed.
func (h *Harness) Options() Options {
	return h.opts
}

// State returns the current state.
func (h *Harness) State() State {
	return h.state
}

func (h *Harness) expect(op string, want State) error {
	if h.state != want {
		return fmt.Errorf("%w: %s in state %v, want %v", ErrState, op, h.state, want)
	}
	return nil
}

// Init takes ownership of an open handle. Close releases it.
func (h *Harness) Init(handle *ptedit.Handle) error {
	if err := h.expect("Init", StateUninitialized); err != nil {
		return err
	}
	if handle == nil {
		return fmt.Errorf("%w: nil handle", ptedit.ErrBackendUnavailable)
	}
	h.handle = handle
	h.view = remap.NewView(handle)
	h.state = StateBackendReady
	return nil
}

// Allocate maps the region, touches every page and verifies through the
// backend that every page is present.
func (h *Harness) Allocate() error {
	if err := h.expect("Allocate", StateBackendReady); err != nil {
		return err
	}
	r, err := NewRegion(h.space, h.opts.Pages)
	if err != nil {
		return err
	}
	if err := r.VerifyResident(h.view, "allocate"); err != nil {
		return errors.Join(err, r.Release())
	}
	h.region = r
	h.state = StateRegionAllocated
	log.Infof("Region of %d pages at %v resident", r.Pages(), r.Mapping().Base)
	return nil
}

// Region returns the allocated region, or nil.
func (h *Harness) Region() *Region {
	return h.region
}

// Run runs every unit of the matrix. A failed run leaves the harness in
// StateRunning; only Close is valid afterwards.
func (h *Harness) Run() error {
	if err := h.expect("Run", StateRegionAllocated); err != nil {
		return err
	}
	h.state = StateRunning

	restore, err := h.quiesce()
	if err != nil {
		return err
	}
	defer restore()

	rng := rand.New(h.opts.Seed)
	n := h.region.Pages()
	reps := h.opts.Repetitions
	for _, c := range h.opts.Matrix.Configs() {
		p := &pass{
			mapping: h.region.Mapping(),
			order:   Order(c.Pattern, n, rng),
			op:      c.Op,
		}
		if c.Op == Hybrid {
			p.mask = WriteMask(n, rng)
		}
		for rep := 0; rep < reps; rep++ {
			p.stamp = uint64(rep) << 32
			// Alternate which strategy goes first.
			pair := [2]Strategy{Direct, Checked}
			if rep%2 == 1 {
				pair = [2]Strategy{Checked, Direct}
			}
			for _, s := range pair {
				t, err := h.runPass(p, s)
				if err != nil {
					var iv *InvariantViolationError
					if errors.As(err, &iv) {
						iv.Phase = c.String()
						iv.Repetition = rep
					}
					return fmt.Errorf("%v %v repetition %d: %w", s, c, rep, err)
				}
				h.results = append(h.results, newResult(s, c, rep, t))
			}
			h.progress.Infof("%v: repetition %d/%d done", c, rep+1, reps)
		}
	}

	if err := h.region.VerifyResident(h.view, "verify"); err != nil {
		return err
	}
	h.state = StateResultsCollected
	return nil
}

func (h *Harness) runPass(p *pass, s Strategy) (timing, error) {
	runtime.GC()
	if s == Checked {
		return p.checked(h.view)
	}
	return p.direct(), nil
}

// quiesce locks the goroutine to its thread, disables the GC and optionally
// pins the thread. The returned function undoes all of it.
func (h *Harness) quiesce() (func(), error) {
	runtime.LockOSThread()
	gcPercent := debug.SetGCPercent(-1)
	restore := func() {
		debug.SetGCPercent(gcPercent)
		runtime.UnlockOSThread()
	}
	if h.opts.CPU < 0 {
		return restore, nil
	}

	var old, set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &old); err != nil {
		restore()
		return nil, fmt.Errorf("reading CPU affinity: %w", err)
	}
	set.Set(h.opts.CPU)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		restore()
		return nil, fmt.Errorf("pinning to CPU %d: %w", h.opts.CPU, err)
	}
	log.Debugf("Pinned to CPU %d", h.opts.CPU)
	return func() {
		if err := unix.SchedSetaffinity(0, &old); err != nil {
			log.Warningf("Restoring CPU affinity: %v", err)
		}
		restore()
	}, nil
}

// Results returns the results of every pass, in run order.
func (h *Harness) Results() ([]Result, error) {
	if err := h.expect("Results", StateResultsCollected); err != nil {
		return nil, err
	}
	return h.results, nil
}

// Comparisons summarizes the results per unit.
func (h *Harness) Comparisons() ([]Comparison, error) {
	results, err := h.Results()
	if err != nil {
		return nil, err
	}
	return Compare(results), nil
}

// Report returns the report of a completed run.
func (h *Harness) Report() (*Report, error) {
	results, err := h.Results()
	if err != nil {
		return nil, err
	}
	return &Report{
		RunID:       h.runID,
		Host:        DescribeHost(),
		Seed:        h.opts.Seed,
		Pages:       h.opts.Pages,
		Repetitions: h.opts.Repetitions,
		Results:     results,
		Comparisons: Compare(results),
	}, nil
}

// Close unmaps the region and closes the handle. It may be called in any
// state, more than once.
func (h *Harness) Close() error {
	if h.state == StateReleased {
		return nil
	}
	var errs []error
	if h.region != nil {
		if err := h.region.Release(); err != nil {
			errs = append(errs, fmt.Errorf("releasing region: %w", err))
		}
		h.region = nil
	}
	if h.handle != nil {
		if err := h.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing backend: %w", err))
		}
	}
	h.state = StateReleased
	return errors.Join(errs...)
}
