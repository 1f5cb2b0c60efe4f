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

package bench

import (
	"fmt"
	"strings"
)

// Strategy is how a pass accesses a page.
type Strategy int

const (
	// Direct accesses the page without any check.
	Direct Strategy = iota

	// Checked reads the present bit of the page's leaf entry first.
	Checked
)

// Strategies lists all strategies.
var Strategies = []Strategy{Direct, Checked}

// String implements fmt.Stringer.String.
func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case Checked:
		return "checked"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Pattern is the order in which a pass visits pages.
type Pattern int

const (
	// Sequential visits pages in increasing address order.
	Sequential Pattern = iota

	// Random visits pages in a seeded permutation.
	Random
)

// String implements fmt.Stringer.String.
func (p Pattern) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePattern parses the name of a pattern.
func ParsePattern(s string) (Pattern, error) {
	switch s {
	case "sequential", "seq":
		return Sequential, nil
	case "random", "rand":
		return Random, nil
	}
	return 0, fmt.Errorf("invalid pattern %q, must be 'sequential' or 'random'", s)
}

// Op is the operation a pass performs on each page.
type Op int

const (
	// Read loads one word at the page base.
	Read Op = iota

	// Write stores one word at the page base.
	Write

	// Hybrid reads or writes, decided per page by a fixed mask.
	Hybrid
)

// String implements fmt.Stringer.String.
func (o Op) String() string {
	switch o {
	case Read:
		return "read"
	case Write:
		return "write"
	case Hybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ParseOp parses the name of an operation.
func ParseOp(s string) (Op, error) {
	switch s {
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	case "hybrid":
		return Hybrid, nil
	}
	return 0, fmt.Errorf("invalid operation %q, must be 'read', 'write' or 'hybrid'", s)
}

// Config is one unit of the benchmark: a pattern and an operation. Both
// strategies are run for every unit.
type Config struct {
	Pattern Pattern `json:"pattern" yaml:"pattern"`
	Op      Op      `json:"operation" yaml:"operation"`
}

// String implements fmt.Stringer.String.
func (c Config) String() string {
	return c.Pattern.String() + "/" + c.Op.String()
}

// Matrix is the set of units to run.
type Matrix struct {
	Patterns []Pattern
	Ops      []Op
}

// FullMatrix covers every pattern and operation.
func FullMatrix() Matrix {
	return Matrix{
		Patterns: []Pattern{Sequential, Random},
		Ops:      []Op{Read, Write, Hybrid},
	}
}

// Configs returns the units of m, patterns major.
func (m Matrix) Configs() []Config {
	var cs []Config
	for _, p := range m.Patterns {
		for _, o := range m.Ops {
			cs = append(cs, Config{Pattern: p, Op: o})
		}
	}
	return cs
}

// ParseMatrix parses comma-separated pattern and operation lists. "all" or
// an empty list selects every value.
func ParseMatrix(patterns, ops string) (Matrix, error) {
	full := FullMatrix()
	var m Matrix
	if patterns == "" || patterns == "all" {
		m.Patterns = full.Patterns
	} else {
		for _, s := range strings.Split(patterns, ",") {
			p, err := ParsePattern(strings.TrimSpace(s))
			if err != nil {
				return Matrix{}, err
			}
			m.Patterns = append(m.Patterns, p)
		}
	}
	if ops == "" || ops == "all" {
		m.Ops = full.Ops
	} else {
		for _, s := range strings.Split(ops, ",") {
			o, err := ParseOp(strings.TrimSpace(s))
			if err != nil {
				return Matrix{}, err
			}
			m.Ops = append(m.Ops, o)
		}
	}
	return m, nil
}
