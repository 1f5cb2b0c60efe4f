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

import "errors"

var (
	// ErrBackendUnavailable is returned by Open when the backend cannot be
	// initialized, e.g. because the kernel module is not loaded.
	ErrBackendUnavailable = errors.New("page table backend unavailable")

	// ErrUnresolvedTranslation is returned when the top-level entry of an
	// address that is expected to be mapped is absent.
	ErrUnresolvedTranslation = errors.New("unresolved translation")

	// ErrPageSizeMismatch is returned by Open when the backend's page size is
	// not hostarch.PageSize.
	ErrPageSizeMismatch = errors.New("backend page size mismatch")

	// ErrNotSupported is returned for operations a backend cannot perform.
	ErrNotSupported = errors.New("operation not supported by backend")

	// ErrAlreadyOpen is returned by Open while another Handle is live.
	ErrAlreadyOpen = errors.New("page table backend already open in this process")

	// ErrClosed is returned by operations on a closed Handle.
	ErrClosed = errors.New("page table backend handle is closed")
)
