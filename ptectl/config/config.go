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

// Package config holds the ptectl configuration: command line flags and an
// optional TOML file.
package config

import (
	"fmt"

	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/ptedit"
)

// Config holds the settings shared by all ptectl commands.
//
// Fields tagged with `flag` are populated from the flag of that name; the
// `toml` tag names the same setting in a configuration file.
type Config struct {
	// ConfigFile is a TOML file with settings. Flags set explicitly on the
	// command line override it.
	ConfigFile string `flag:"config" toml:"-"`

	// LogFilename is where log messages are written. Empty means stderr.
	LogFilename string `flag:"log" toml:"log"`

	// LogFormat is the log format: text or json.
	LogFormat string `flag:"log-format" toml:"log-format"`

	// Debug enables debug logging.
	Debug bool `flag:"debug" toml:"debug"`

	// Backend selects the page table backend.
	Backend BackendType `flag:"backend" toml:"backend"`

	// Impl selects kernel-assisted or user-mode walks.
	Impl ptedit.Impl `flag:"impl" toml:"impl"`

	// Device is the PTEditor device node.
	Device string `flag:"device" toml:"device"`

	// ProcRoot is where procfs is mounted.
	ProcRoot string `flag:"proc-root" toml:"proc-root"`

	// SimFrames bounds the physical memory of the sim backend, in frames.
	SimFrames int `flag:"sim-frames" toml:"sim-frames"`

	// SimTLB is the number of TLB entries of the sim backend.
	SimTLB int `flag:"sim-tlb" toml:"sim-tlb"`

	// Mlock locks new host mappings into memory.
	Mlock bool `flag:"mlock" toml:"mlock"`

	// LockFile serializes ptectl sessions on this machine.
	LockFile string `flag:"lock-file" toml:"lock-file"`
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json'", c.LogFormat)
	}
	if c.SimFrames < 0 {
		return fmt.Errorf("sim-frames must not be negative, got %d", c.SimFrames)
	}
	if c.SimTLB < 0 || c.SimTLB&(c.SimTLB-1) != 0 {
		return fmt.Errorf("sim-tlb must be a power of two, got %d", c.SimTLB)
	}
	if c.LockFile == "" {
		return fmt.Errorf("lock-file must be set")
	}
	return nil
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config:")
	for _, f := range c.ToFlags() {
		log.Infof("\t%s", f)
	}
}

// BackendType selects a ptedit.Backend implementation.
type BackendType int

const (
	// BackendKmod uses the PTEditor kernel module.
	BackendKmod BackendType = iota

	// BackendPagemap reads /proc/<pid>/pagemap. It is read-only.
	BackendPagemap

	// BackendSim runs a software MMU inside the process.
	BackendSim
)

func backendTypePtr(v BackendType) *BackendType {
	return &v
}

// Set implements flag.Value.Set.
func (b *BackendType) Set(v string) error {
	switch v {
	case "kmod":
		*b = BackendKmod
	case "pagemap":
		*b = BackendPagemap
	case "sim":
		*b = BackendSim
	default:
		return fmt.Errorf("invalid backend %q, must be 'kmod', 'pagemap' or 'sim'", v)
	}
	return nil
}

// Get implements flag.Getter.Get.
func (b *BackendType) Get() any {
	return *b
}

// String implements fmt.Stringer.String.
func (b BackendType) String() string {
	switch b {
	case BackendKmod:
		return "kmod"
	case BackendPagemap:
		return "pagemap"
	case BackendSim:
		return "sim"
	}
	panic(fmt.Sprintf("Invalid backend type %d", b))
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (b *BackendType) UnmarshalText(text []byte) error {
	return b.Set(string(text))
}
