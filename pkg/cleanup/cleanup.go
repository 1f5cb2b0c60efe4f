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

// Package cleanup runs undo steps on error paths.
//
//	cu := cleanup.Make(func() { space.Unmap(m) })
//	defer cu.Clean()
//	...
//	cu.Release() // Keep the mapping.
package cleanup

import "errors"

// Cleanup is a stack of undo steps, run last-in first-out.
type Cleanup struct {
	steps []func() error
}

// Make returns a Cleanup with f as its first step.
func Make(f func()) Cleanup {
	var c Cleanup
	c.Add(f)
	return c
}

// Add pushes f.
func (c *Cleanup) Add(f func()) {
	c.steps = append(c.steps, func() error {
		f()
		return nil
	})
}

// AddErr pushes f. Its error is reported by Clean.
func (c *Cleanup) AddErr(f func() error) {
	c.steps = append(c.steps, f)
}

// Clean runs and drops all steps. Every step runs even if an earlier one
// fails; the errors are joined.
func (c *Cleanup) Clean() error {
	steps := c.steps
	c.steps = nil
	return run(steps)
}

// Release drops all steps without running them and returns a function that
// runs them.
func (c *Cleanup) Release() func() error {
	steps := c.steps
	c.steps = nil
	return func() error { return run(steps) }
}

func run(steps []func() error) error {
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
