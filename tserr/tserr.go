// Copyright 2026 The tensorstore Authors.
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

// Package tserr holds the sentinel error kinds the chunk engine surfaces to
// callers, per the error taxonomy in spec.md §7. Call sites either return a
// sentinel as-is or annotate it with Wrap (github.com/pkg/errors.Wrapf), so
// callers can always errors.Is against the sentinel.
package tserr

import "github.com/pkg/errors"

var (
	// ErrReadOnly is returned when a mutating method is called on
	// read-only storage.
	ErrReadOnly = errors.New("tensorstore: storage is read-only")

	// ErrCorrupted is returned when TensorMeta and the ChunkIdEncoder
	// disagree about sample count, or a required encoder is missing.
	ErrCorrupted = errors.New("tensorstore: tensor metadata is corrupted")

	// ErrDynamicShape is returned by a read that requested a dense array
	// across samples that do not all share a shape.
	ErrDynamicShape = errors.New("tensorstore: cannot densify samples with differing shapes")

	// ErrUnsupported is returned for operations this core does not
	// implement, such as sub-slice updates on non-primary axes.
	ErrUnsupported = errors.New("tensorstore: operation not supported")

	// ErrInvalidShape is returned when a sample's shape is incompatible
	// with the tensor's established ndim.
	ErrInvalidShape = errors.New("tensorstore: invalid sample shape")

	// ErrInvalidDtype is returned when a sample cannot be cast to the
	// tensor's dtype.
	ErrInvalidDtype = errors.New("tensorstore: invalid sample dtype")

	// ErrNotFound is returned by Engine.Numpy when a requested sample index
	// lies outside [0, length). Engine construction does not look up the
	// tensor's metadata and never returns it.
	ErrNotFound = errors.New("tensorstore: tensor not found")
)

// Wrap annotates a sentinel with additional context while preserving
// errors.Is(result, sentinel).
func Wrap(sentinel error, format string, args ...interface{}) error {
	return errors.Wrapf(sentinel, format, args...)
}
