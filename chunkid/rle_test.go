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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRLEAppendAndLookup(t *testing.T) {
	assert := assert.New(t)

	var r RLE[int, string]
	r.AppendRow("a", 3) // covers 0,1,2
	r.AppendRow("b", 2) // covers 3,4

	assert.Equal(5, r.NumEntries())
	assert.Equal(2, r.NumRows())

	row, local, ok := r.RowForIndex(0)
	assert.True(ok)
	assert.Equal("a", row.Value)
	assert.Equal(0, local)

	row, local, ok = r.RowForIndex(2)
	assert.True(ok)
	assert.Equal("a", row.Value)
	assert.Equal(2, local)

	row, local, ok = r.RowForIndex(3)
	assert.True(ok)
	assert.Equal("b", row.Value)
	assert.Equal(0, local)

	row, local, ok = r.RowForIndex(4)
	assert.True(ok)
	assert.Equal("b", row.Value)
	assert.Equal(1, local)

	_, _, ok = r.RowForIndex(5)
	assert.False(ok)
}

func TestRLEExtendLast(t *testing.T) {
	assert := assert.New(t)

	var r RLE[int, string]
	r.AppendRow("a", 1)
	r.ExtendLast(2)
	assert.Equal(3, r.NumEntries())
	assert.Equal(1, r.NumRows())

	row, local, ok := r.RowForIndex(2)
	assert.True(ok)
	assert.Equal("a", row.Value)
	assert.Equal(2, local)
}

func TestRLETruncate(t *testing.T) {
	assert := assert.New(t)

	var r RLE[int, string]
	r.AppendRow("a", 3)
	r.AppendRow("b", 3)
	r.Truncate(4)

	assert.Equal(4, r.NumEntries())
	assert.Equal(2, r.NumRows())
	row, local, ok := r.RowForIndex(3)
	assert.True(ok)
	assert.Equal("b", row.Value)
	assert.Equal(0, local)
}

func TestRLEEntriesAndRebuild(t *testing.T) {
	assert := assert.New(t)

	var r RLE[int, int]
	r.AppendRow(7, 2)
	r.AppendRow(9, 1)
	entries := r.Entries()
	assert.Equal([]int{7, 7, 9}, entries)

	entries[1] = 9 // merge the run boundary by hand
	r.Rebuild(entries, func(a, b int) bool { return a == b })
	assert.Equal(2, r.NumRows())
	assert.Equal(3, r.NumEntries())
}
