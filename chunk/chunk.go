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

package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// layoutVersion is the single version byte at the head of a chunk's
// on-disk layout (spec.md §6): version | shape_encoder_blob |
// byte_positions_encoder_blob | data_bytes.
const layoutVersion = 1

// Chunk is the unit of stored bytes (spec.md §3, §4.2): a growable byte
// buffer plus the two local encoders mapping local sample index to shape
// and to byte range.
type Chunk struct {
	ID   uint64
	Name string

	data    []byte
	shapes  ShapeEncoder
	bytePos BytePositionsEncoder
}

// New returns an empty chunk with the given id and name.
func New(id uint64, name string) *Chunk {
	return &Chunk{ID: id, Name: name}
}

// NumDataBytes returns the length of the chunk's data buffer.
func (c *Chunk) NumDataBytes() int64 {
	return int64(len(c.data))
}

// Nbytes returns the chunk's total serialized size, used to check the
// min/max chunk-size invariants (spec.md §3).
func (c *Chunk) Nbytes() int64 {
	b, err := c.Marshal()
	if err != nil {
		// Marshal cannot fail for an in-memory, already-valid chunk; fall
		// back to the data length (a lower bound on the serialized size)
		// rather than panicking a read path.
		return c.NumDataBytes()
	}
	return int64(len(b))
}

// IsUnderMinSpace reports whether NumDataBytes() is below min, per
// spec.md §4.2.
func (c *Chunk) IsUnderMinSpace(min int64) bool {
	return c.NumDataBytes() < min
}

// NumSamples returns the number of samples currently stored in the chunk.
func (c *Chunk) NumSamples() int {
	return c.shapes.NumSamples()
}

// MemoryviewData returns the chunk's data buffer. Per SPEC_FULL.md §9 /
// spec.md §9 ("Memoryview aliasing"), callers that outlive the chunk's
// residency in the cache must copy before returning; AppendSample/
// UpdateSample never retain slices handed in by callers either, for the
// same reason.
func (c *Chunk) MemoryviewData() []byte {
	return c.data
}

// AppendSample appends buffer as a single new sample with the given shape.
// The engine's placement algorithm (spec.md §4.1) guarantees this never
// pushes NumDataBytes() past maxChunkSize; AppendSample itself does not
// re-check that bound, matching spec.md §4.2 ("rejects by never being
// called — the engine pre-decides").
func (c *Chunk) AppendSample(buffer []byte, maxChunkSize int64, shape []int) {
	c.data = append(c.data, buffer...)
	c.shapes.Append(shape, 1)
	c.bytePos.Append(int64(len(buffer)), 1)
}

// UpdateSample overwrites the sample at local index i with buffer and
// shape, splicing the data buffer and shifting every later sample's byte
// range by the resulting length delta (spec.md §4.1 "Update algorithm").
func (c *Chunk) UpdateSample(i int, buffer []byte, shape []int) error {
	start, end, ok := c.bytePos.Range(i)
	if !ok {
		return fmt.Errorf("chunk: update index %d out of range [0,%d)", i, c.NumSamples())
	}
	newData := make([]byte, 0, len(c.data)-int(end-start)+len(buffer))
	newData = append(newData, c.data[:start]...)
	newData = append(newData, buffer...)
	newData = append(newData, c.data[end:]...)
	c.data = newData

	if _, err := c.bytePos.Set(i, int64(len(buffer))); err != nil {
		return err
	}
	return c.shapes.Set(i, shape)
}

// Marshal serializes the chunk to its on-disk layout:
// version(1) | len(shapeBlob) uint32 | shapeBlob | len(byteposBlob) uint32 |
// byteposBlob | xxhash64(data) uint64 | data.
func (c *Chunk) Marshal() ([]byte, error) {
	shapeBlob := c.shapes.Marshal()
	byteposBlob := c.bytePos.Marshal()

	buf := bytes.NewBuffer(nil)
	buf.WriteByte(layoutVersion)
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(shapeBlob))); err != nil {
		return nil, err
	}
	buf.Write(shapeBlob)
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(byteposBlob))); err != nil {
		return nil, err
	}
	buf.Write(byteposBlob)
	if err := binary.Write(buf, binary.LittleEndian, xxhash.Sum64(c.data)); err != nil {
		return nil, err
	}
	buf.Write(c.data)
	return buf.Bytes(), nil
}

// Unmarshal populates c from a blob produced by Marshal. A checksum
// mismatch or unrecognized version is reported as an error; callers in the
// engine translate this into tserr.ErrCorrupted.
func (c *Chunk) Unmarshal(blob []byte) error {
	r := bytes.NewReader(blob)
	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("chunk: reading version: %w", err)
	}
	if version != layoutVersion {
		return fmt.Errorf("chunk: unrecognized layout version %d", version)
	}

	shapeBlob, err := readLenPrefixed(r)
	if err != nil {
		return fmt.Errorf("chunk: shapes blob: %w", err)
	}
	byteposBlob, err := readLenPrefixed(r)
	if err != nil {
		return fmt.Errorf("chunk: byte-positions blob: %w", err)
	}
	var wantSum uint64
	if err := binary.Read(r, binary.LittleEndian, &wantSum); err != nil {
		return fmt.Errorf("chunk: reading checksum: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("chunk: reading data: %w", err)
	}
	if gotSum := xxhash.Sum64(data); gotSum != wantSum {
		return fmt.Errorf("chunk: checksum mismatch: want %x got %x", wantSum, gotSum)
	}

	if err := c.shapes.Unmarshal(shapeBlob); err != nil {
		return err
	}
	if err := c.bytePos.Unmarshal(byteposBlob); err != nil {
		return err
	}
	c.data = data
	return nil
}

func readLenPrefixed(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Shape returns the shape recorded for local sample index i.
func (c *Chunk) Shape(i int) ([]int, bool) {
	return c.shapes.Shape(i)
}

// ByteRange returns the (start, end) byte range for local sample index i.
func (c *Chunk) ByteRange(i int) (start, end int64, ok bool) {
	return c.bytePos.Range(i)
}
