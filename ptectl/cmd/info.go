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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/pteditlab/ptremap/pkg/bench"
	"github.com/pteditlab/ptremap/pkg/hostarch"
	"github.com/pteditlab/ptremap/pkg/ptedit/kmod"
	"github.com/pteditlab/ptremap/ptectl/config"
)

// Info implements subcommands.Command for the "info" command.
type Info struct{}

// Name implements subcommands.Command.Name.
func (*Info) Name() string {
	return "info"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Info) Synopsis() string {
	return "describe the backend and the host"
}

// Usage implements subcommands.Command.Usage.
func (*Info) Usage() string {
	return `info - open the backend and print what it reports.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Info) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Info) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
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

	host := bench.DescribeHost()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%v\n", conf.Backend)
	fmt.Fprintf(w, "Implementation:\t%v\n", s.Handle.Impl())
	fmt.Fprintf(w, "Page size:\t%d\n", hostarch.PageSize)
	if kb, ok := s.Handle.Backend().(*kmod.Backend); ok {
		if pat, err := kb.PAT(); err != nil {
			fmt.Fprintf(w, "PAT:\tunavailable (%v)\n", err)
		} else {
			fmt.Fprintf(w, "PAT:\t%#016x\n", pat)
		}
	}
	if s.Machine != nil {
		st := s.Machine.Stats()
		fmt.Fprintf(w, "Root table:\t%v\n", s.Machine.Root())
		fmt.Fprintf(w, "Frames in use:\t%d\n", st.FramesInUse)
	}
	fmt.Fprintf(w, "Host:\t%s\n", host.Hostname)
	fmt.Fprintf(w, "Kernel:\t%s\n", host.Kernel)
	fmt.Fprintf(w, "CPU:\t%s (%d CPUs, %s)\n", host.CPUModel, host.CPUs, host.Arch)
	fmt.Fprintf(w, "Go:\t%s\n", host.Go)
	if err := w.Flush(); err != nil {
		return Errorf("writing output: %v", err)
	}
	return subcommands.ExitSuccess
}
