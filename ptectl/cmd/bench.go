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
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/pteditlab/ptremap/pkg/bench"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/ptectl/config"
)

// Bench implements subcommands.Command for the "bench" command.
type Bench struct {
	pages    int
	reps     int
	patterns string
	ops      string
	seed     uint64
	cpu      int
	format   bench.Format
	out      string
	progress time.Duration
}

// Name implements subcommands.Command.Name.
func (*Bench) Name() string {
	return "bench"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Bench) Synopsis() string {
	return "compare direct page access with present-checked access"
}

// Usage implements subcommands.Command.Usage.
func (*Bench) Usage() string {
	return `bench [flags] - map a region, then time passes over it with and without
reading each page's present bit first.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (b *Bench) SetFlags(f *flag.FlagSet) {
	def := bench.DefaultOptions()
	f.IntVar(&b.pages, "pages", def.Pages, "region size in pages.")
	f.IntVar(&b.reps, "reps", def.Repetitions, "direct/checked pairs per unit, at least 5.")
	f.StringVar(&b.patterns, "patterns", "all", "comma-separated access patterns: sequential, random.")
	f.StringVar(&b.ops, "ops", "all", "comma-separated operations: read, write, hybrid.")
	f.Uint64Var(&b.seed, "seed", 0, "seed for visit orders and write masks, 0 draws one.")
	f.IntVar(&b.cpu, "cpu", def.CPU, "CPU to pin the run to, -1 to leave affinity alone.")
	f.Var(&b.format, "format", "report format: text, json, yaml, csv, prom or html.")
	f.StringVar(&b.out, "out", "", "file the report is written to, default is stdout.")
	f.DurationVar(&b.progress, "progress", def.ProgressEvery, "minimum interval between progress log lines.")
}

// Execute implements subcommands.Command.Execute.
func (b *Bench) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	matrix, err := bench.ParseMatrix(b.patterns, b.ops)
	if err != nil {
		return Errorf("%v", err)
	}

	var out io.Writer = os.Stdout
	if b.out != "" {
		file, err := os.Create(b.out)
		if err != nil {
			return Errorf("creating %s: %v", b.out, err)
		}
		defer file.Close()
		out = file
	}

	s, err := OpenSession(conf)
	if err != nil {
		return Errorf("opening session: %v", err)
	}
	defer s.Close()

	hr, err := bench.New(s.Space, bench.Options{
		Pages:         b.pages,
		Repetitions:   b.reps,
		Matrix:        matrix,
		Seed:          b.seed,
		CPU:           b.cpu,
		ProgressEvery: b.progress,
	})
	if err != nil {
		return Errorf("%v", err)
	}
	defer hr.Close()

	if err := hr.Init(s.Handle); err != nil {
		return Errorf("%v", err)
	}
	if err := hr.Allocate(); err != nil {
		return Errorf("allocating region: %v", err)
	}
	log.Infof("Run %s: seed %d, %d units", hr.RunID(), hr.Options().Seed, len(matrix.Configs()))
	if err := hr.Run(); err != nil {
		return Errorf("benchmark run: %v", err)
	}
	report, err := hr.Report()
	if err != nil {
		return Errorf("%v", err)
	}
	if err := report.Write(out, b.format); err != nil {
		return Errorf("writing report: %v", err)
	}
	return subcommands.ExitSuccess
}
