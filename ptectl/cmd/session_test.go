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
	"errors"
	"flag"
	"path/filepath"
	"testing"

	"github.com/pteditlab/ptremap/pkg/ptedit"
	"github.com/pteditlab/ptremap/pkg/remap"
	"github.com/pteditlab/ptremap/ptectl/config"
)

func simConfig(t *testing.T) *config.Config {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	config.RegisterFlags(fs)
	for name, value := range map[string]string{
		"backend":    "sim",
		"sim-frames": "4096",
		"lock-file":  filepath.Join(t.TempDir(), "ptectl.lock"),
	} {
		if err := fs.Set(name, value); err != nil {
			t.Fatalf("Flag set %s=%s: %v", name, value, err)
		}
	}
	conf, err := config.NewFromFlags(fs)
	if err != nil {
		t.Fatalf("NewFromFlags failed: %v", err)
	}
	return conf
}

func TestSessionSim(t *testing.T) {
	conf := simConfig(t)
	s, err := OpenSession(conf)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	if s.Machine == nil || s.Space == nil {
		t.Fatalf("sim session without machine or space")
	}
	res, err := remap.RunDemo(s.Handle, s.Space, remap.DemoOptions{})
	if err != nil {
		t.Fatalf("RunDemo failed: %v", err)
	}
	if !res.OK() {
		t.Errorf("demo read %q and %q", res.PhysByte, res.VirtByte)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := s.Handle.Resolve(0, 0); !errors.Is(err, ptedit.ErrClosed) {
		t.Errorf("Resolve after Close = %v, want %v", err, ptedit.ErrClosed)
	}
}

func TestSessionExclusive(t *testing.T) {
	conf := simConfig(t)
	s, err := OpenSession(conf)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	if _, err := OpenSession(conf); err == nil {
		t.Errorf("second OpenSession on the same lock file succeeded")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The lock is free again.
	s, err = OpenSession(conf)
	if err != nil {
		t.Fatalf("OpenSession after Close failed: %v", err)
	}
	s.Close()
}

func TestSessionUnavailableBackend(t *testing.T) {
	conf := simConfig(t)
	conf.Backend = config.BackendKmod
	conf.Device = filepath.Join(t.TempDir(), "pteditor")
	if _, err := OpenSession(conf); !errors.Is(err, ptedit.ErrBackendUnavailable) {
		t.Fatalf("OpenSession = %v, want %v", err, ptedit.ErrBackendUnavailable)
	}
	// A failed open releases the lock.
	conf.Backend = config.BackendSim
	s, err := OpenSession(conf)
	if err != nil {
		t.Fatalf("OpenSession after failure: %v", err)
	}
	s.Close()
}
