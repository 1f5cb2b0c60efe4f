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

// Package rand provides seeds for the deterministic generators used to build
// benchmark visit orders.
package rand

import (
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand/v2"

	"golang.org/x/sys/unix"
)

// reader implements an io.Reader that returns bytes from getrandom(2).
type reader struct{}

// Read implements io.Reader.Read.
func (reader) Read(p []byte) (int, error) {
	return unix.Getrandom(p, 0)
}

// Reader is the default reader.
var Reader io.Reader = reader{}

// Seed returns a fresh 64-bit seed from Reader.
func Seed() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(Reader, b[:]); err != nil {
		return 0, fmt.Errorf("reading seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// New returns a deterministic generator for seed. Equal seeds produce equal
// sequences.
func New(seed uint64) *mrand.Rand {
	return mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
