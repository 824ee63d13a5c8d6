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

package chunkid

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"iter"

	"github.com/google/uuid"
)

// Encoder is the ChunkIdEncoder of spec.md §4.3: a run-length table of
// (chunk_id, last_global_sample_index) rows, sorted by the second column.
type Encoder struct {
	rle RLE[int, uint64]
}

// NumSamples returns the total number of samples registered, O(1).
func (e *Encoder) NumSamples() int {
	return e.rle.NumEntries()
}

// NumChunks returns the number of distinct chunk ids registered, O(1).
func (e *Encoder) NumChunks() int {
	return e.rle.NumRows()
}

// GenerateChunkID returns a fresh random 64-bit chunk id and registers it
// as a new, empty-length row (its run starts after the current last
// sample). The caller must follow with RegisterSamples once the chunk
// actually holds data.
func (e *Encoder) GenerateChunkID() uint64 {
	id := randomChunkID()
	e.rle.AppendRow(id, 0)
	return id
}

// randomChunkID returns a random 64-bit id derived from a UUIDv4, folding
// its two 64-bit halves together with XOR rather than truncating, so both
// halves of the UUID's entropy contribute to the result.
func randomChunkID() uint64 {
	u := uuid.New()
	hi := binary.BigEndian.Uint64(u[:8])
	lo := binary.BigEndian.Uint64(u[8:])
	return hi ^ lo
}

// NameFromID returns the deterministic lowercase, zero-padded hex name for
// a chunk id, stable across versions per spec.md §6.
func NameFromID(id uint64) string {
	return fmt.Sprintf("%016x", id)
}

// RegisterSamples extends the last row's run by n, per spec.md §4.3. The
// row's chunk id (set by GenerateChunkID when a new chunk was created, or
// left as-is when reusing the last chunk) is unchanged.
func (e *Encoder) RegisterSamples(n int) error {
	if e.rle.NumRows() == 0 {
		return fmt.Errorf("chunkid: RegisterSamples called with no chunk registered")
	}
	e.rle.ExtendLast(n)
	return nil
}

// ChunkIDForSample returns the chunk id owning global sample index g.
func (e *Encoder) ChunkIDForSample(g int) (uint64, bool) {
	row, _, ok := e.rle.RowForIndex(g)
	if !ok {
		return 0, false
	}
	return row.Value, true
}

// TranslateIndexRelativeToChunks returns the local index of global sample
// index g inside its owning chunk.
func (e *Encoder) TranslateIndexRelativeToChunks(g int) (int, bool) {
	_, local, ok := e.rle.RowForIndex(g)
	return local, ok
}

// GetNameForChunk returns the chunk name for row i; i == -1 means the last
// chunk, per spec.md §4.3.
func (e *Encoder) GetNameForChunk(i int) (string, bool) {
	rows := e.rle.Rows()
	if i == -1 {
		if len(rows) == 0 {
			return "", false
		}
		return NameFromID(rows[len(rows)-1].Value), true
	}
	if i < 0 || i >= len(rows) {
		return "", false
	}
	return NameFromID(rows[i].Value), true
}

// Truncate recovers from the documented "length > sum(chunk samples)"
// inconsistency (spec.md §5) by dropping registrations past n samples.
func (e *Encoder) Truncate(n int) {
	e.rle.Truncate(n)
}

// Iter yields (chunkID, localSampleIndex) pairs for the global indices in
// values, in the order they appear in values, as a finite non-restartable
// lazy sequence per spec.md §9 ("Iterator producing fresh façade objects
// per sample"). Iteration stops at the first index no chunk owns.
func (e *Encoder) Iter(values []int) iter.Seq2[uint64, int] {
	return func(yield func(uint64, int) bool) {
		for _, g := range values {
			row, local, ok := e.rle.RowForIndex(g)
			if !ok {
				return
			}
			if !yield(row.Value, local) {
				return
			}
		}
	}
}

// Marshal serializes the encoder to a compact binary blob: a row count
// followed by (chunk_id uint64, last_index int64) pairs, little-endian.
func (e *Encoder) Marshal() []byte {
	rows := e.rle.Rows()
	buf := make([]byte, 4, 4+len(rows)*16)
	binary.LittleEndian.PutUint32(buf, uint32(len(rows)))
	for _, row := range rows {
		var tmp [16]byte
		binary.LittleEndian.PutUint64(tmp[0:8], row.Value)
		binary.LittleEndian.PutUint64(tmp[8:16], uint64(row.LastIdx))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// Unmarshal populates e from a blob produced by Marshal.
func (e *Encoder) Unmarshal(data []byte) error {
	r := bytes.NewReader(data)
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("chunkid: reading row count: %w", err)
	}
	rows := make([]Row[int, uint64], 0, n)
	for i := uint32(0); i < n; i++ {
		var tmp [16]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return fmt.Errorf("chunkid: reading row %d: %w", i, err)
		}
		rows = append(rows, Row[int, uint64]{
			Value:   binary.LittleEndian.Uint64(tmp[0:8]),
			LastIdx: int(binary.LittleEndian.Uint64(tmp[8:16])),
		})
	}
	e.rle.SetRows(rows)
	return nil
}
