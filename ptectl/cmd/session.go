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
	"sync"

	"github.com/gofrs/flock"
	"github.com/pteditlab/ptremap/pkg/cleanup"
	"github.com/pteditlab/ptremap/pkg/log"
	"github.com/pteditlab/ptremap/pkg/memutil"
	"github.com/pteditlab/ptremap/pkg/ptedit"
	"github.com/pteditlab/ptremap/pkg/ptedit/kmod"
	"github.com/pteditlab/ptremap/pkg/ptedit/pagemap"
	"github.com/pteditlab/ptremap/pkg/ptedit/sim"
	"github.com/pteditlab/ptremap/ptectl/config"
	"github.com/tebeka/atexit"
)

// Session is an open backend together with the address space commands map
// pages in. At most one session runs per machine, guarded by the lock file.
type Session struct {
	Handle *ptedit.Handle
	Space  memutil.AddressSpace

	// Machine is the simulated machine of the sim backend, nil otherwise.
	Machine *sim.Machine

	lock      *flock.Flock
	closeOnce sync.Once
	closeErr  error
	release   func() error
}

// OpenSession takes the session lock and opens the configured backend. The
// session is closed on exit through atexit if the command does not close it.
func OpenSession(conf *config.Config) (*Session, error) {
	s := &Session{lock: flock.New(conf.LockFile)}
	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", conf.LockFile, err)
	}
	if !locked {
		return nil, fmt.Errorf("another ptectl session holds %s", conf.LockFile)
	}
	var cu cleanup.Cleanup
	cu.AddErr(s.lock.Unlock)
	defer cu.Clean()

	b, err := newBackend(conf, s)
	if err != nil {
		return nil, err
	}
	if s.Machine != nil {
		cu.AddErr(s.Machine.Release)
	}
	h, err := ptedit.Open(b, conf.Impl)
	if err != nil {
		return nil, err
	}
	cu.AddErr(h.Close)
	s.Handle = h

	s.release = cu.Release()
	atexit.Register(func() {
		if err := s.Close(); err != nil {
			log.Warningf("Closing session: %v", err)
		}
	})
	log.Infof("Session open: backend %v, implementation %v", conf.Backend, conf.Impl)
	return s, nil
}

func newBackend(conf *config.Config, s *Session) (ptedit.Backend, error) {
	switch conf.Backend {
	case config.BackendKmod:
		s.Space = &memutil.Host{Lock: conf.Mlock}
		return kmod.New(kmod.Options{Device: conf.Device}), nil
	case config.BackendPagemap:
		s.Space = &memutil.Host{Lock: conf.Mlock}
		return pagemap.New(pagemap.Options{ProcRoot: conf.ProcRoot}), nil
	case config.BackendSim:
		m, err := sim.New(sim.Options{MaxFrames: conf.SimFrames, TLBEntries: conf.SimTLB})
		if err != nil {
			return nil, err
		}
		s.Machine = m
		s.Space = m
		return m, nil
	default:
		return nil, fmt.Errorf("unknown backend %v", conf.Backend)
	}
}

// Close closes the backend, releases the simulated machine if any and drops
// the session lock. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.release()
		log.Debugf("Session closed")
	})
	return s.closeErr
}
