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

// Package cmd holds implementations of the ptectl commands.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/tebeka/atexit"
)

// ErrorLogger is where error messages are written in addition to stderr.
var ErrorLogger io.Writer

// Errorf logs error to the error log (--log), to stderr, and debug logs. It
// returns subcommands.ExitFailure for convenience with subcommand.Execute()
// methods:
//
//	return Errorf("Danger! Danger!")
func Errorf(format string, args ...any) subcommands.ExitStatus {
	log.Warningf("FATAL ERROR: "+format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	if ErrorLogger != nil {
		fmt.Fprintf(ErrorLogger, format+"\n", args...)
	}
	return subcommands.ExitFailure
}

// Fatalf logs the same way as Errorf() does, plus *exits* the process after
// running the registered exit handlers.
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	atexit.Exit(128)
}
