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

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"github.com/pteditlab/ptremap/pkg/ptedit/kmod"
	"github.com/pteditlab/ptremap/pkg/ptedit/sim"
)

func implPtr(v ptedit.Impl) *ptedit.Impl {
	return &v
}

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("config", "", "TOML file with settings. Flags given on the command line take precedence.")

	// Debugging flags.
	flagSet.String("log", "", "file path where log messages are written, default is stderr.")
	flagSet.String("log-format", "text", "log format: text (default) or json.")
	flagSet.Bool("debug", false, "enable debug logging.")

	// Backend flags.
	flagSet.Var(backendTypePtr(BackendKmod), "backend", "page table backend: kmod (default), pagemap (read-only) or sim.")
	flagSet.Var(implPtr(ptedit.ImplKernel), "impl", "walk implementation: kernel (default) or user.")
	flagSet.String("device", kmod.DefaultDevice, "PTEditor device node used by the kmod backend.")
	flagSet.String("proc-root", "/proc", "procfs mount point used by the pagemap backend.")
	flagSet.Int("sim-frames", sim.DefaultMaxFrames, "physical memory of the sim backend, in 4 KiB frames.")
	flagSet.Int("sim-tlb", sim.DefaultTLBEntries, "TLB entries of the sim backend, a power of two.")

	// Session flags.
	flagSet.Bool("mlock", false, "lock mapped pages into memory.")
	flagSet.String("lock-file", filepath.Join(os.TempDir(), "ptectl.lock"), "lock file that serializes ptectl sessions.")
}

// NewFromFlags creates a new Config with values coming from command line
// flags and, if --config names one, a TOML file. Precedence is defaults,
// then the file, then flags set explicitly.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		name, ok := st.Field(i).Tag.Lookup("flag")
		if !ok {
			continue
		}
		obj.Field(i).Set(reflect.ValueOf(get(flagSet, name)))
	}

	if conf.ConfigFile != "" {
		if _, err := toml.DecodeFile(conf.ConfigFile, conf); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", conf.ConfigFile, err)
		}
		// Flags given explicitly override the file.
		flagSet.Visit(func(fl *flag.Flag) {
			for i := 0; i < st.NumField(); i++ {
				if name, ok := st.Field(i).Tag.Lookup("flag"); ok && name == fl.Name {
					obj.Field(i).Set(reflect.ValueOf(get(flagSet, name)))
				}
			}
		})
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func get(flagSet *flag.FlagSet, name string) any {
	fl := flagSet.Lookup(name)
	if fl == nil {
		panic(fmt.Sprintf("Flag %q not found", name))
	}
	return fl.Value.(flag.Getter).Get()
}

// ToFlags returns a slice of flags that correspond to the given Config.
// Values equal to the flag default are omitted.
func (c *Config) ToFlags() []string {
	var rv []string

	flagSet := flag.NewFlagSet("tmp", flag.ContinueOnError)
	RegisterFlags(flagSet)

	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		name, ok := st.Field(i).Tag.Lookup("flag")
		if !ok {
			continue
		}
		val := getVal(obj.Field(i))
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		if val == fl.DefValue {
			continue
		}
		rv = append(rv, fmt.Sprintf("--%s=%s", fl.Name, val))
	}
	return rv
}

func getVal(field reflect.Value) string {
	if str, ok := field.Addr().Interface().(fmt.Stringer); ok {
		return str.String()
	}
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}
