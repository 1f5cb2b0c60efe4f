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

package ptedit

import (
	"errors"
	"testing"

	"github.com/pteditlab/ptremap/pkg/hostarch"
	"go.uber.org/mock/gomock"
)

func expectOpen(b *MockBackend, impl Impl) {
	b.EXPECT().Init().Return(nil)
	b.EXPECT().UseImplementation(impl).Return(nil)
	b.EXPECT().PageSize().Return(hostarch.PageSize, nil)
}

func TestOpenClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewMockBackend(ctrl)
	expectOpen(b, ImplUser)
	b.EXPECT().Cleanup().Return(nil).Times(1)

	h, err := Open(b, ImplUser)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if h.Impl() != ImplUser {
		t.Errorf("Impl() = %v, want %v", h.Impl(), ImplUser)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	// Second close is a no-op; Cleanup is expected once.
	if err := h.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestOpenInitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewMockBackend(ctrl)
	b.EXPECT().Init().Return(errors.New("no such device"))

	if _, err := Open(b, ImplKernel); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("Open = %v, want %v", err, ErrBackendUnavailable)
	}

	// A failed open must not leave the process marked as open.
	b2 := NewMockBackend(ctrl)
	expectOpen(b2, ImplKernel)
	b2.EXPECT().Cleanup().Return(nil)
	h, err := Open(b2, ImplKernel)
	if err != nil {
		t.Fatalf("Open after failure: %v", err)
	}
	h.Close()
}

func TestOpenPageSizeMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewMockBackend(ctrl)
	b.EXPECT().Init().Return(nil)
	b.EXPECT().UseImplementation(ImplKernel).Return(nil)
	b.EXPECT().PageSize().Return(2*hostarch.PageSize, nil)
	b.EXPECT().Cleanup().Return(nil)

	if _, err := Open(b, ImplKernel); !errors.Is(err, ErrPageSizeMismatch) {
		t.Errorf("Open = %v, want %v", err, ErrPageSizeMismatch)
	}
}

func TestOpenTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewMockBackend(ctrl)
	expectOpen(b, ImplKernel)
	b.EXPECT().Cleanup().Return(nil)

	h, err := Open(b, ImplKernel)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer h.Close()

	if _, err := Open(NewMockBackend(ctrl), ImplKernel); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second Open = %v, want %v", err, ErrAlreadyOpen)
	}
}

func TestClosedHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewMockBackend(ctrl)
	expectOpen(b, ImplKernel)
	b.EXPECT().Cleanup().Return(nil)

	h, err := Open(b, ImplKernel)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	h.Close()

	// No backend calls are expected past this point.
	if _, err := h.Resolve(0x1000, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Resolve = %v, want %v", err, ErrClosed)
	}
	if err := h.Update(0x1000, 0, Entry{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Update = %v, want %v", err, ErrClosed)
	}
	if err := h.SetBit(0x1000, 0, BitPresent); !errors.Is(err, ErrClosed) {
		t.Errorf("SetBit = %v, want %v", err, ErrClosed)
	}
	if _, err := h.GetBit(0x1000, 0, BitPresent); !errors.Is(err, ErrClosed) {
		t.Errorf("GetBit = %v, want %v", err, ErrClosed)
	}
	if err := h.ReadPhysicalPage(1, make([]byte, hostarch.PageSize)); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadPhysicalPage = %v, want %v", err, ErrClosed)
	}
}

func TestReadPhysicalPageShortBuffer(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewMockBackend(ctrl)
	expectOpen(b, ImplKernel)
	b.EXPECT().Cleanup().Return(nil)

	h, err := Open(b, ImplKernel)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer h.Close()
	if err := h.ReadPhysicalPage(1, make([]byte, 16)); err == nil {
		t.Errorf("ReadPhysicalPage with a short buffer succeeded")
	}
}

func TestHandlePassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewMockBackend(ctrl)
	expectOpen(b, ImplKernel)
	b.EXPECT().Cleanup().Return(nil)
	want := Entry{VAddr: 0x2000, PGD: 1, Valid: ValidPGD}
	b.EXPECT().Resolve(hostarch.Addr(0x2000), 0).Return(want, nil)
	b.EXPECT().ClearBit(hostarch.Addr(0x2000), 0, BitWritable).Return(nil)

	h, err := Open(b, ImplKernel)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer h.Close()
	got, err := h.Resolve(0x2000, 0)
	if err != nil || got != want {
		t.Errorf("Resolve = %v, %v, want %v", got, err, want)
	}
	if err := h.ClearBit(0x2000, 0, BitWritable); err != nil {
		t.Errorf("ClearBit failed: %v", err)
	}
}
