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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMatrix(t *testing.T) {
	for _, tc := range []struct {
		patterns, ops string
		want          []Config
	}{
		{
			patterns: "sequential",
			ops:      "read",
			want:     []Config{{Sequential, Read}},
		},
		{
			patterns: "rand, seq",
			ops:      "write,hybrid",
			want: []Config{
				{Random, Write},
				{Random, Hybrid},
				{Sequential, Write},
				{Sequential, Hybrid},
			},
		},
		{
			patterns: "all",
			ops:      "",
			want: []Config{
				{Sequential, Read},
				{Sequential, Write},
				{Sequential, Hybrid},
				{Random, Read},
				{Random, Write},
				{Random, Hybrid},
			},
		},
	} {
		m, err := ParseMatrix(tc.patterns, tc.ops)
		if err != nil {
			t.Errorf("ParseMatrix(%q, %q) failed: %v", tc.patterns, tc.ops, err)
			continue
		}
		if diff := cmp.Diff(tc.want, m.Configs()); diff != "" {
			t.Errorf("ParseMatrix(%q, %q) configs mismatch (-want +got):\n%s", tc.patterns, tc.ops, diff)
		}
	}
}

func TestParseMatrixInvalid(t *testing.T) {
	if _, err := ParseMatrix("zigzag", "read"); err == nil {
		t.Errorf("ParseMatrix accepted an unknown pattern")
	}
	if _, err := ParseMatrix("random", "read,exec"); err == nil {
		t.Errorf("ParseMatrix accepted an unknown operation")
	}
}

func TestConfigString(t *testing.T) {
	if got, want := (Config{Random, Hybrid}).String(), "random/hybrid"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := Op(7).String(), "Op(7)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFormatSet(t *testing.T) {
	var f Format
	for i, name := range formatNames {
		if err := f.Set(name); err != nil {
			t.Fatalf("Set(%q) failed: %v", name, err)
		}
		if f != Format(i) || f.String() != name {
			t.Errorf("Set(%q) = %v", name, f)
		}
	}
	if err := f.Set("xml"); err == nil {
		t.Errorf("Set(xml) succeeded")
	}
}
