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
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset = "\x1b[0m"
	colorGreen = "\x1b[32m"
	colorRed   = "\x1b[31m"
	colorBlue  = "\x1b[34m"
)

// Printer writes status lines tagged [+] for success, [-] for failure and
// [~] for progress. Tags are colored when the output is a terminal. It
// implements remap.Printer.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a Printer writing to f.
func NewPrinter(f *os.File) *Printer {
	return &Printer{w: f, color: term.IsTerminal(int(f.Fd()))}
}

func (p *Printer) printf(tag, color, format string, v ...any) {
	if p.color {
		tag = color + tag + colorReset
	}
	msg := strings.TrimRight(fmt.Sprintf(format, v...), "\n")
	for i, line := range strings.Split(msg, "\n") {
		if i == 0 {
			fmt.Fprintf(p.w, "%s %s\n", tag, line)
		} else {
			fmt.Fprintf(p.w, "    %s\n", line)
		}
	}
}

// Progressf prints a [~] line.
func (p *Printer) Progressf(format string, v ...any) {
	p.printf("[~]", colorBlue, format, v...)
}

// OKf prints a [+] line.
func (p *Printer) OKf(format string, v ...any) {
	p.printf("[+]", colorGreen, format, v...)
}

// Failf prints a [-] line.
func (p *Printer) Failf(format string, v ...any) {
	p.printf("[-]", colorRed, format, v...)
}
