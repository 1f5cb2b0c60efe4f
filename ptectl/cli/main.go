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

// Package cli is the main entrypoint for ptectl.
package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"runtime"

	"github.com/google/subcommands"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/ptectl/cmd"
	"github.com/pteditlab/ptremap/ptectl/config"
	"github.com/tebeka/atexit"
)

// Main is the main entrypoint.
func Main() {
	// Register all commands.
	forEachCmd(subcommands.Register)

	// Register with the main command line.
	config.RegisterFlags(flag.CommandLine)

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	// Create a new Config from the flags.
	conf, err := config.NewFromFlags(flag.CommandLine)
	if err != nil {
		cmd.Fatalf("%v", err)
	}

	var logTarget io.Writer = os.Stderr
	if conf.LogFilename != "" {
		f, err := log.OpenFile(conf.LogFilename)
		if err != nil {
			cmd.Fatalf("error opening log file %q: %v", conf.LogFilename, err)
		}
		atexit.Register(func() { f.Close() })
		logTarget = f
		cmd.ErrorLogger = f
	}
	log.SetTarget(newEmitter(conf.LogFormat, logTarget))
	if conf.Debug {
		log.SetLevel(log.Debug)
	}

	const delimString = `**************** ptectl ****************`
	log.Infof(delimString)
	log.Infof("%s, %s, %d CPUs, %s, PID %d, UID %d", runtime.Version(), runtime.GOARCH, runtime.NumCPU(), runtime.GOOS, os.Getpid(), os.Getuid())
	log.Debugf("Page size: 0x%x (%d bytes)", os.Getpagesize(), os.Getpagesize())
	log.Infof("Args: %v", os.Args)
	conf.Log()
	log.Infof(delimString)

	// Call the subcommand and pass in the configuration.
	subcmdCode := subcommands.Execute(context.Background(), conf)
	if subcmdCode == subcommands.ExitSuccess {
		log.Infof("Exiting with status: %v", subcmdCode)
	} else {
		log.Warningf("Failure to execute command, err: %v", subcmdCode)
	}
	atexit.Exit(int(subcmdCode))
}

// forEachCmd invokes the passed callback for each command supported by
// ptectl.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")
	cb(subcommands.CommandsCommand(), "")

	cb(new(cmd.Info), "")
	cb(new(cmd.Remap), "")
	cb(new(cmd.Bench), "")

	const debugGroup = "debug"
	cb(new(cmd.Resolve), debugGroup)
	cb(new(cmd.ReadPhys), debugGroup)
}

func newEmitter(format string, logFile io.Writer) log.Emitter {
	switch format {
	case "text":
		return log.GoogleEmitter{&log.Writer{Next: logFile}}
	case "json":
		return log.JSONEmitter{&log.Writer{Next: logFile}}
	}
	cmd.Fatalf("invalid log format %q, must be 'text' or 'json'", format)
	panic("unreachable")
}
