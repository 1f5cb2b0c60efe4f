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
	"errors"
	"fmt"

	"github.com/pteditlab/ptremap/pkg/hostarch"
)

// ErrState is returned when a Harness method is called in the wrong state.
var ErrState = errors.New("invalid harness state")

// InvariantViolationError is returned when a page of the region is found
// not present. The run that observed it is aborted.
type InvariantViolationError struct {
	// Page is the index of the page in the region.
	Page int

	// Addr is the page's address.
	Addr hostarch.Addr

	// Phase names where the check happened: "allocate", a unit such as
	// "random/hybrid", or "verify".
	Phase string

	// Repetition is the repetition of the unit, or -1 outside Run.
	Repetition int
}

// Error implements error.Error.
func (e *InvariantViolationError) Error() string {
	if e.Repetition < 0 {
		return fmt.Sprintf("page %d (%v) not present during %s", e.Page, e.Addr, e.Phase)
	}
	return fmt.Sprintf("page %d (%v) not present during %s repetition %d", e.Page, e.Addr, e.Phase, e.Repetition)
}
