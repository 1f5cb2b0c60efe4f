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

package cmd

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/google/subcommands"
	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit/pagemap"
	"github.com/pteditlab/ptremap/pkg/remap"
	"github.com/pteditlab/ptremap/ptectl/config"
)

// Resolve implements subcommands.Command for the "resolve" command.
type Resolve struct {
	pid int
}

// Name implements subcommands.Command.Name.
func (*Resolve) Name() string {
	return "resolve"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Resolve) Synopsis() string {
	return "print the translation path of a virtual address"
}

// Usage implements subcommands.Command.Usage.
func (*Resolve) Usage() string {
	return `resolve [flags] [address] - print the page table entries that map address.

Without an address, a freshly mapped and touched page is resolved.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Resolve) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.pid, "pid", 0, "process whose tables are walked, 0 for ptectl itself.")
}

// Execute implements subcommands.Command.Execute.
func (r *Resolve) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	s, err := OpenSession(conf)
	if err != nil {
		return Errorf("opening session: %v", err)
	}
	defer s.Close()
	p := NewPrinter(os.Stdout)

	var addr hostarch.Addr
	if f.NArg() == 1 {
		v, err := strconv.ParseUint(f.Arg(0), 0, 64)
		if err != nil {
			return Errorf("invalid address %q: %v", f.Arg(0), err)
		}
		addr = hostarch.Addr(v)
	} else {
		if r.pid != 0 {
			return Errorf("an address is required with --pid")
		}
		m, err := s.Space.Map(1)
		if err != nil {
			return Errorf("mapping page: %v", err)
		}
		defer s.Space.Unmap(m)
		m.StoreWord(0, 1)
		addr = m.Base
		p.Progressf("Mapped and touched %v", m)
	}

	e, err := remap.NewView(s.Handle).Resolve(addr, r.pid)
	if err != nil {
		p.Failf("%v", err)
		return Errorf("resolving %v: %v", addr, err)
	}
	p.OKf("%v", e)
	p.Progressf("PTE PFN %v", remap.PFNOf(e.PTE))
	if pb, ok := s.Handle.Backend().(*pagemap.Backend); ok {
		rec, err := pb.Record(addr, r.pid)
		if err != nil {
			return Errorf("reading pagemap record: %v", err)
		}
		p.Progressf("pagemap record %#016x: swapped %t, soft-dirty %t", rec, pagemap.Swapped(rec), pagemap.SoftDirty(rec))
	}
	return subcommands.ExitSuccess
}
