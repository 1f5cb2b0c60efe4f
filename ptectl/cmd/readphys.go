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
	"encoding/hex"
	"flag"
	"os"
	"strconv"

	"github.com/google/subcommands"
	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"github.com/pteditlab/ptremap/pkg/remap"
	"github.com/pteditlab/ptremap/ptectl/config"
)

// ReadPhys implements subcommands.Command for the "readphys" command.
type ReadPhys struct {
	offset int
	length int
}

// Name implements subcommands.Command.Name.
func (*ReadPhys) Name() string {
	return "readphys"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*ReadPhys) Synopsis() string {
	return "dump the contents of a physical frame"
}

// Usage implements subcommands.Command.Usage.
func (*ReadPhys) Usage() string {
	return `readphys [flags] <pfn> - hex dump part of physical frame pfn.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *ReadPhys) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.offset, "offset", 0, "offset into the frame.")
	f.IntVar(&r.length, "len", 64, "number of bytes to dump.")
}

// Execute implements subcommands.Command.Execute.
func (r *ReadPhys) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if r.offset < 0 || r.length < 0 || r.offset+r.length > hostarch.PageSize {
		return Errorf("range [%d, %d) is outside the frame", r.offset, r.offset+r.length)
	}
	pfn, err := strconv.ParseUint(f.Arg(0), 0, 64)
	if err != nil {
		return Errorf("invalid frame number %q: %v", f.Arg(0), err)
	}
	conf := args[0].(*config.Config)

	s, err := OpenSession(conf)
	if err != nil {
		return Errorf("opening session: %v", err)
	}
	defer s.Close()

	frame, err := remap.NewPhysicalReader(s.Handle).ReadFrame(ptedit.PFN(pfn))
	if err != nil {
		return Errorf("reading frame %#x: %v", pfn, err)
	}
	d := hex.Dumper(os.Stdout)
	d.Write(frame[r.offset : r.offset+r.length])
	d.Close()
	return subcommands.ExitSuccess
}
