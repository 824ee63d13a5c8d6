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

// Package tensormeta holds the durable per-tensor header: dtype, the
// observed shape interval, sample count, chunk-size bounds and compression
// kind. See spec.md §3 and §4.4.
package tensormeta

import (
	"encoding/json"
	"fmt"

	"github.com/hoshimura/tensorstore/tserr"
)

// DefaultMaxChunkSize is used when a tensor is created without an explicit
// chunk-size bound.
const DefaultMaxChunkSize = 32 << 20 // 32 MiB, matches spec.md §8 scenarios.

// Meta is the durable per-tensor header.
type Meta struct {
	Dtype             string `json:"dtype"`
	MinShape          []int  `json:"min_shape"`
	MaxShape          []int  `json:"max_shape"`
	Length            int    `json:"length"`
	MaxChunkSize      int64  `json:"max_chunk_size"`
	SampleCompression string `json:"sample_compression,omitempty"`
}

// New returns a Meta with no samples observed yet.
func New(maxChunkSize int64) *Meta {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Meta{MaxChunkSize: maxChunkSize}
}

// MinChunkSize is always half of MaxChunkSize, per spec.md §4.1.
func (m *Meta) MinChunkSize() int64 {
	return m.MaxChunkSize / 2
}

// SetDtype records dtype, which the engine infers from the first extend
// batch, lazily, per spec.md §4.4. It is a no-op once a dtype is already set.
func (m *Meta) SetDtype(dtype string) {
	if m.Dtype == "" {
		m.Dtype = dtype
	}
}

// UpdateShapeInterval widens MinShape/MaxShape element-wise to include
// shape. The first observed shape establishes ndim; subsequent shapes must
// match that ndim or ErrInvalidShape is returned.
func (m *Meta) UpdateShapeInterval(shape []int) error {
	if m.MinShape == nil {
		m.MinShape = append([]int(nil), shape...)
		m.MaxShape = append([]int(nil), shape...)
		return nil
	}
	if len(shape) != len(m.MinShape) {
		return tserr.Wrap(tserr.ErrInvalidShape,
			"shape %v has ndim %d, tensor established ndim %d", shape, len(shape), len(m.MinShape))
	}
	for i, v := range shape {
		if v < m.MinShape[i] {
			m.MinShape[i] = v
		}
		if v > m.MaxShape[i] {
			m.MaxShape[i] = v
		}
	}
	return nil
}

// Marshal serializes Meta as JSON, matching the "T/tensor_meta.json" cache
// key named in spec.md §6.
func (m *Meta) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal populates m from a JSON blob previously produced by Marshal.
func (m *Meta) Unmarshal(data []byte) error {
	return json.Unmarshal(data, m)
}

// ShapeInterval describes a tensor's shape as an element-wise lower/upper
// bound, length included as the leading axis. See spec.md glossary
// ("Shape interval") and SPEC_FULL.md §10.
type ShapeInterval struct {
	Lower []int
	Upper []int
}

// Interval returns the ShapeInterval for length samples observed so far.
func (m *Meta) Interval(length int) ShapeInterval {
	lower := append([]int{length}, m.MinShape...)
	upper := append([]int{length}, m.MaxShape...)
	return ShapeInterval{Lower: lower, Upper: upper}
}

// IsDynamic reports whether any axis (other than length) has a non-trivial
// range, i.e. the tensor holds samples of more than one shape.
func (si ShapeInterval) IsDynamic() bool {
	for i := range si.Lower {
		if si.Lower[i] != si.Upper[i] {
			return true
		}
	}
	return false
}

// String renders the interval the way the original Python project's
// ShapeInterval.__str__ does: a fixed axis prints as a single number, a
// dynamic axis as "lower:upper".
func (si ShapeInterval) String() string {
	out := "("
	for i := range si.Lower {
		if i > 0 {
			out += ", "
		}
		if si.Lower[i] == si.Upper[i] {
			out += fmt.Sprintf("%d", si.Lower[i])
		} else {
			out += fmt.Sprintf("%d:%d", si.Lower[i], si.Upper[i])
		}
	}
	return out + ")"
}
