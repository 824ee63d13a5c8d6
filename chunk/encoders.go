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

// Package chunk implements the unit of stored bytes (spec.md §3, §4.2): a
// growable byte buffer plus the two local run-length encoders that map a
// chunk-local sample index to its shape and to its (start, end) byte range.
package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hoshimura/tensorstore/chunkid"
)

// ShapeEncoder maps a chunk-local sample index to its shape tuple,
// run-length encoded over equal shapes (spec.md §4.3).
type ShapeEncoder struct {
	rle chunkid.RLE[int, []int]
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Append registers n consecutive samples with the given shape.
func (s *ShapeEncoder) Append(shape []int, n int) {
	if last, ok := s.rle.LastRow(); ok && shapeEqual(last.Value, shape) {
		s.rle.ExtendLast(n)
		return
	}
	s.rle.AppendRow(append([]int(nil), shape...), n)
}

// Shape returns the shape recorded for local sample index i.
func (s *ShapeEncoder) Shape(i int) ([]int, bool) {
	row, _, ok := s.rle.RowForIndex(i)
	if !ok {
		return nil, false
	}
	return row.Value, true
}

// NumSamples returns the number of samples the encoder covers.
func (s *ShapeEncoder) NumSamples() int {
	return s.rle.NumEntries()
}

// Set overwrites the shape at local index i, splitting/merging runs as
// needed, for Chunk.UpdateSample.
func (s *ShapeEncoder) Set(i int, shape []int) error {
	entries := s.rle.Entries()
	if i < 0 || i >= len(entries) {
		return fmt.Errorf("chunk: shape index %d out of range [0,%d)", i, len(entries))
	}
	entries[i] = append([]int(nil), shape...)
	s.rle.Rebuild(entries, shapeEqual)
	return nil
}

// Marshal serializes the encoder: row count, then per row a shape-length
// byte, the shape dims (uint32 each), and the run's last index (uint32).
func (s *ShapeEncoder) Marshal() []byte {
	rows := s.rle.Rows()
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(rows)))
	for _, row := range rows {
		buf = append(buf, byte(len(row.Value)))
		for _, dim := range row.Value {
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(dim))
			buf = append(buf, tmp[:]...)
		}
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(row.LastIdx))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// Unmarshal populates the encoder from a blob produced by Marshal.
func (s *ShapeEncoder) Unmarshal(data []byte) error {
	r := bytes.NewReader(data)
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("chunk: shapes row count: %w", err)
	}
	rows := make([]chunkid.Row[int, []int], 0, n)
	for i := uint32(0); i < n; i++ {
		ndimByte, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("chunk: shapes row %d ndim: %w", i, err)
		}
		shape := make([]int, ndimByte)
		for d := range shape {
			var dim uint32
			if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
				return fmt.Errorf("chunk: shapes row %d dim %d: %w", i, d, err)
			}
			shape[d] = int(dim)
		}
		var last uint32
		if err := binary.Read(r, binary.LittleEndian, &last); err != nil {
			return fmt.Errorf("chunk: shapes row %d last index: %w", i, err)
		}
		rows = append(rows, chunkid.Row[int, []int]{Value: shape, LastIdx: int(last)})
	}
	s.rle.SetRows(rows)
	return nil
}

// bytesRun is one run of equal-length byte spans: consecutive samples each
// of length Len, the first of which starts at Start0. Spec.md §4.3:
// "adjacent rows have contiguous byte ranges for contiguous indices".
type bytesRun struct {
	Start0 int64
	Len    int64
}

// BytePositionsEncoder maps a chunk-local sample index to its (start, end)
// byte range within the chunk's data buffer.
type BytePositionsEncoder struct {
	rle chunkid.RLE[int, bytesRun]
}

// Append registers n consecutive samples of byteLen bytes each, starting
// immediately after the current end of the buffer.
func (b *BytePositionsEncoder) Append(byteLen int64, n int) {
	next := b.endOfBuffer()
	if last, ok := b.rle.LastRow(); ok && last.Value.Len == byteLen {
		b.rle.ExtendLast(n)
		return
	}
	b.rle.AppendRow(bytesRun{Start0: next, Len: byteLen}, n)
}

func (b *BytePositionsEncoder) endOfBuffer() int64 {
	last, ok := b.rle.LastRow()
	if !ok {
		return 0
	}
	// Every sample within a run has the same length, so end-of-buffer is
	// simply Start0 plus the run's total byte span.
	runStart := int64(0)
	if rows := b.rle.Rows(); len(rows) > 1 {
		runStart = int64(rows[len(rows)-2].LastIdx) + 1
	}
	runLen := int64(last.LastIdx) - runStart + 1
	return last.Value.Start0 + runLen*last.Value.Len
}

// Range returns the (start, end) byte range for local sample index i.
func (b *BytePositionsEncoder) Range(i int) (start, end int64, ok bool) {
	row, local, found := b.rle.RowForIndex(i)
	if !found {
		return 0, 0, false
	}
	start = row.Value.Start0 + int64(local)*row.Value.Len
	end = start + row.Value.Len
	return start, end, true
}

// NumSamples returns the number of samples the encoder covers.
func (b *BytePositionsEncoder) NumSamples() int {
	return b.rle.NumEntries()
}

// LastEnd returns len(buffer) as implied by the encoder, i.e. the end byte
// of the last registered sample (spec.md §3 invariant:
// byte_positions_encoder[last] == len(buffer)). Returns 0 if empty.
func (b *BytePositionsEncoder) LastEnd() int64 {
	n := b.rle.NumEntries()
	if n == 0 {
		return 0
	}
	_, end, _ := b.Range(n - 1)
	return end
}

// Set overwrites the byte range for local index i to the new length
// newLen, shifting every later sample's start/end by the resulting delta,
// for Chunk.UpdateSample. Returns the delta (newLen - oldLen).
func (b *BytePositionsEncoder) Set(i int, newLen int64) (delta int64, err error) {
	entries := b.rle.Entries()
	if i < 0 || i >= len(entries) {
		return 0, fmt.Errorf("chunk: byte-position index %d out of range [0,%d)", i, len(entries))
	}
	oldLen := entries[i].Len
	delta = newLen - oldLen
	// Recompute Start0 for every entry from i onward (entry i's own start is
	// unaffected; only bytes after it shift).
	start := int64(0)
	if i > 0 {
		_, end, _ := b.Range(i - 1)
		start = end
	}
	entries[i] = bytesRun{Start0: start, Len: newLen}
	cursor := start + newLen
	for j := i + 1; j < len(entries); j++ {
		entries[j] = bytesRun{Start0: cursor, Len: entries[j].Len}
		cursor += entries[j].Len
	}
	b.rle.Rebuild(entries, func(a, bb bytesRun) bool { return a.Len == bb.Len })
	return delta, nil
}

// Marshal serializes the encoder: row count, then per row (Start0 int64,
// Len int64, LastIdx uint32), little-endian.
func (b *BytePositionsEncoder) Marshal() []byte {
	rows := b.rle.Rows()
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(rows)))
	for _, row := range rows {
		var tmp [20]byte
		binary.LittleEndian.PutUint64(tmp[0:8], uint64(row.Value.Start0))
		binary.LittleEndian.PutUint64(tmp[8:16], uint64(row.Value.Len))
		binary.LittleEndian.PutUint32(tmp[16:20], uint32(row.LastIdx))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// Unmarshal populates the encoder from a blob produced by Marshal.
func (b *BytePositionsEncoder) Unmarshal(data []byte) error {
	r := bytes.NewReader(data)
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("chunk: byte-positions row count: %w", err)
	}
	rows := make([]chunkid.Row[int, bytesRun], 0, n)
	for i := uint32(0); i < n; i++ {
		var tmp [20]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return fmt.Errorf("chunk: byte-positions row %d: %w", i, err)
		}
		rows = append(rows, chunkid.Row[int, bytesRun]{
			Value: bytesRun{
				Start0: int64(binary.LittleEndian.Uint64(tmp[0:8])),
				Len:    int64(binary.LittleEndian.Uint64(tmp[8:16])),
			},
			LastIdx: int(binary.LittleEndian.Uint32(tmp[16:20])),
		})
	}
	b.rle.SetRows(rows)
	return nil
}
