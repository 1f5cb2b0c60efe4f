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

	"github.com/google/subcommands"
	"github.com/pteditlab/ptremap/pkg/remap"
	"github.com/pteditlab/ptremap/ptectl/config"
)

// Remap implements subcommands.Command for the "remap" command.
type Remap struct {
	keep bool
}

// Name implements subcommands.Command.Name.
func (*Remap) Name() string {
	return "remap"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Remap) Synopsis() string {
	return "point a page at another page's frame and read it back"
}

// Usage implements subcommands.Command.Usage.
func (*Remap) Usage() string {
	return `remap [flags] - map a target and a donor page, fill the donor with 'A',
point the target's leaf entry at the donor's frame and check that both the
physical frame and the target read 'A'.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Remap) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.keep, "keep", false, "do not restore the target's original entry before unmapping.")
}

// Execute implements subcommands.Command.Execute.
func (r *Remap) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	s, err := OpenSession(conf)
	if err != nil {
		return Errorf("opening session: %v", err)
	}
	defer s.Close()

	res, err := remap.RunDemo(s.Handle, s.Space, remap.DemoOptions{
		Keep:    r.keep,
		Printer: NewPrinter(os.Stdout),
	})
	if err != nil {
		return Errorf("remap demo: %v", err)
	}
	if !res.OK() {
		return Errorf("target read %q physically and %q virtually, want %q", res.PhysByte, res.VirtByte, remap.FillByte)
	}
	return subcommands.ExitSuccess
}
