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
	"slices"
	"time"
)

// Result is the timing of one pass.
type Result struct {
	Strategy   Strategy      `json:"strategy" yaml:"strategy"`
	Pattern    Pattern       `json:"pattern" yaml:"pattern"`
	Op         Op            `json:"operation" yaml:"operation"`
	Repetition int           `json:"repetition" yaml:"repetition"`
	Elapsed    time.Duration `json:"-" yaml:"-"`
	CPU        time.Duration `json:"-" yaml:"-"`

	// Mirrors of Elapsed and CPU for serialization.
	ElapsedSeconds float64 `json:"elapsedSeconds" yaml:"elapsedSeconds"`
	CPUSeconds     float64 `json:"cpuSeconds" yaml:"cpuSeconds"`
}

func newResult(s Strategy, c Config, rep int, t timing) Result {
	return Result{
		Strategy:       s,
		Pattern:        c.Pattern,
		Op:             c.Op,
		Repetition:     rep,
		Elapsed:        t.wall,
		CPU:            t.cpu,
		ElapsedSeconds: t.wall.Seconds(),
		CPUSeconds:     t.cpu.Seconds(),
	}
}

// String formats r as {strategy, pattern, operation, elapsedSeconds}.
func (r Result) String() string {
	return fmt.Sprintf("{%v, %v, %v, %.6f}", r.Strategy, r.Pattern, r.Op, r.ElapsedSeconds)
}

// Config returns the unit the result belongs to.
func (r Result) Config() Config {
	return Config{Pattern: r.Pattern, Op: r.Op}
}

// Summary aggregates the repetitions of one strategy on one unit.
type Summary struct {
	N         int           `json:"n" yaml:"n"`
	Median    time.Duration `json:"median" yaml:"median"`
	Min       time.Duration `json:"min" yaml:"min"`
	Max       time.Duration `json:"max" yaml:"max"`
	MedianCPU time.Duration `json:"medianCPU" yaml:"medianCPU"`
}

func summarize(rs []Result) Summary {
	if len(rs) == 0 {
		return Summary{}
	}
	wall := make([]time.Duration, len(rs))
	cpu := make([]time.Duration, len(rs))
	for i, r := range rs {
		wall[i] = r.Elapsed
		cpu[i] = r.CPU
	}
	return Summary{
		N:         len(rs),
		Median:    median(wall),
		Min:       slices.Min(wall),
		Max:       slices.Max(wall),
		MedianCPU: median(cpu),
	}
}

// median returns the median of ds, the mean of the middle two for an even
// count. ds is not modified.
func median(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	s := slices.Clone(ds)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Comparison sets the strategies of one unit side by side.
type Comparison struct {
	Config  Config  `json:"config" yaml:"config"`
	Direct  Summary `json:"direct" yaml:"direct"`
	Checked Summary `json:"checked" yaml:"checked"`

	// Overhead is the checked median divided by the direct median.
	Overhead float64 `json:"overhead" yaml:"overhead"`

	// Monotonic is set when the checked median is not below the direct
	// median.
	Monotonic bool `json:"monotonic" yaml:"monotonic"`
}

// Compare groups results by unit, in order of first appearance.
func Compare(results []Result) []Comparison {
	var order []Config
	byUnit := make(map[Config][2][]Result)
	for _, r := range results {
		c := r.Config()
		g, ok := byUnit[c]
		if !ok {
			order = append(order, c)
		}
		g[r.Strategy] = append(g[r.Strategy], r)
		byUnit[c] = g
	}
	cmps := make([]Comparison, 0, len(order))
	for _, c := range order {
		g := byUnit[c]
		cmp := Comparison{
			Config:  c,
			Direct:  summarize(g[Direct]),
			Checked: summarize(g[Checked]),
		}
		if cmp.Direct.Median > 0 {
			cmp.Overhead = float64(cmp.Checked.Median) / float64(cmp.Direct.Median)
		}
		cmp.Monotonic = cmp.Checked.Median >= cmp.Direct.Median
		cmps = append(cmps, cmp)
	}
	return cmps
}
