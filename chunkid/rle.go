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

// Package chunkid implements the run-length-encoded tables described in
// spec.md §4.3: a dense table where each row extends the previous index by
// a run. ChunkIdEncoder is the global-sample-index-to-chunk-id table; the
// same generic machinery (RLE) backs the local shape and byte-position
// encoders owned by a Chunk.
package chunkid

import (
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/hoshimura/tensorstore/d"
)

// Row pairs a payload with the last index (inclusive) of the run it covers.
type Row[I constraints.Integer, V any] struct {
	Value    V
	LastIdx I
}

// RLE is a run-length encoded table: rows are sorted by LastIdx ascending,
// and row i's run starts at row[i-1].LastIdx + 1 (or 0 for row 0).
//
// It is the shared machinery behind all three run-length encoders named in
// spec.md §4.3 (chunk-id, shape, byte-position), parameterized over the row
// payload type V and the index type I.
type RLE[I constraints.Integer, V any] struct {
	rows []Row[I, V]
}

// NumEntries returns the number of indices covered by the table (one past
// the last row's LastIdx, or 0 if empty).
func (r *RLE[I, V]) NumEntries() int {
	if len(r.rows) == 0 {
		return 0
	}
	return int(r.rows[len(r.rows)-1].LastIdx) + 1
}

// NumRows returns the number of distinct runs in the table.
func (r *RLE[I, V]) NumRows() int {
	return len(r.rows)
}

// LastRow returns the last row and true, or the zero Row and false if the
// table is empty.
func (r *RLE[I, V]) LastRow() (Row[I, V], bool) {
	if len(r.rows) == 0 {
		return Row[I, V]{}, false
	}
	return r.rows[len(r.rows)-1], true
}

// ExtendLast extends the last row's run by n indices, keeping its payload.
// Panics if the table is empty; callers must AppendRow first.
func (r *RLE[I, V]) ExtendLast(n I) {
	d.PanicIfTrue(len(r.rows) == 0)
	r.rows[len(r.rows)-1].LastIdx += n
}

// AppendRow appends a new run of length n with the given value, starting
// immediately after the current last covered index.
func (r *RLE[I, V]) AppendRow(value V, n I) {
	start := I(0)
	if len(r.rows) > 0 {
		start = r.rows[len(r.rows)-1].LastIdx + 1
	}
	r.rows = append(r.rows, Row[I, V]{Value: value, LastIdx: start + n - 1})
}

// SetLastValue overwrites the payload of the last row without touching its
// run length. Nothing in this module calls it: Encoder.GenerateChunkID
// registers a new chunk id by appending a fresh row instead.
func (r *RLE[I, V]) SetLastValue(value V) {
	d.PanicIfTrue(len(r.rows) == 0)
	r.rows[len(r.rows)-1].Value = value
}

// RowForIndex performs the spec.md §3 lookup: binary search for the
// smallest row whose LastIdx >= idx. Returns the row, the local index
// within that row's run (idx minus the previous row's LastIdx minus 1, or
// idx for the first row), and true; or false if idx is out of range.
func (r *RLE[I, V]) RowForIndex(idx I) (row Row[I, V], localIdx I, ok bool) {
	n := len(r.rows)
	pos := sort.Search(n, func(i int) bool {
		return r.rows[i].LastIdx >= idx
	})
	if pos == n {
		return Row[I, V]{}, 0, false
	}
	row = r.rows[pos]
	if pos == 0 {
		localIdx = idx
	} else {
		localIdx = idx - r.rows[pos-1].LastIdx - 1
	}
	return row, localIdx, true
}

// Truncate drops every row whose run lies entirely beyond n entries and
// shrinks the last retained row's run so NumEntries() == n. Used to recover
// from the documented "length > sum(chunk sample counts)" inconsistency
// (spec.md §5) by truncating a table back to what was actually persisted.
func (r *RLE[I, V]) Truncate(n int) {
	if n <= 0 {
		r.rows = r.rows[:0]
		return
	}
	pos := sort.Search(len(r.rows), func(i int) bool {
		return int(r.rows[i].LastIdx)+1 >= n
	})
	if pos == len(r.rows) {
		return
	}
	r.rows = r.rows[:pos+1]
	r.rows[pos].LastIdx = I(n - 1)
}

// Entries expands the table back into one value per covered index, in
// ascending index order. Used by update paths that need to splice a single
// entry and re-derive runs afterward.
func (r *RLE[I, V]) Entries() []V {
	out := make([]V, 0, r.NumEntries())
	start := I(0)
	for _, row := range r.rows {
		for i := start; i <= row.LastIdx; i++ {
			out = append(out, row.Value)
		}
		start = row.LastIdx + 1
	}
	return out
}

// Rebuild replaces the table's rows with a fresh run-length encoding of
// values, merging adjacent entries for which eq reports true.
func (r *RLE[I, V]) Rebuild(values []V, eq func(a, b V) bool) {
	rows := make([]Row[I, V], 0, len(values))
	for _, v := range values {
		if len(rows) > 0 && eq(rows[len(rows)-1].Value, v) {
			rows[len(rows)-1].LastIdx++
			continue
		}
		start := I(0)
		if len(rows) > 0 {
			start = rows[len(rows)-1].LastIdx + 1
		}
		rows = append(rows, Row[I, V]{Value: v, LastIdx: start})
	}
	r.rows = rows
}

// ForEachRow visits every row in ascending order.
func (r *RLE[I, V]) ForEachRow(fn func(row Row[I, V])) {
	for _, row := range r.rows {
		fn(row)
	}
}

// Rows returns the underlying rows for serialization. Callers must not
// mutate the returned slice.
func (r *RLE[I, V]) Rows() []Row[I, V] {
	return r.rows
}

// SetRows replaces the table's rows wholesale, used when deserializing.
func (r *RLE[I, V]) SetRows(rows []Row[I, V]) {
	r.rows = rows
}
