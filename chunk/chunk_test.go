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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkAppendSample(t *testing.T) {
	assert := assert.New(t)

	c := New(1, "deadbeef")
	c.AppendSample([]byte("abc"), 1024, []int{3})
	c.AppendSample([]byte("de"), 1024, []int{2})

	assert.Equal(2, c.NumSamples())
	assert.Equal(int64(5), c.NumDataBytes())

	shape, ok := c.Shape(1)
	assert.True(ok)
	assert.Equal([]int{2}, shape)

	start, end, ok := c.ByteRange(1)
	assert.True(ok)
	assert.Equal(int64(3), start)
	assert.Equal(int64(5), end)
}

func TestChunkIsUnderMinSpace(t *testing.T) {
	assert := assert.New(t)

	c := New(1, "deadbeef")
	c.AppendSample(make([]byte, 5), 1024, []int{5})
	assert.True(c.IsUnderMinSpace(10))
	assert.False(c.IsUnderMinSpace(5))
}

func TestChunkMarshalRoundTrip(t *testing.T) {
	assert := assert.New(t)

	c := New(42, "0000000000002a")
	c.AppendSample([]byte("hello"), 1024, []int{5})
	c.AppendSample([]byte("world!"), 1024, []int{6})

	blob, err := c.Marshal()
	assert.NoError(err)

	got := &Chunk{Name: c.Name}
	assert.NoError(got.Unmarshal(blob))
	assert.Equal(c.NumSamples(), got.NumSamples())
	assert.Equal(c.MemoryviewData(), got.MemoryviewData())

	for i := 0; i < c.NumSamples(); i++ {
		wantShape, _ := c.Shape(i)
		gotShape, ok := got.Shape(i)
		assert.True(ok)
		assert.Equal(wantShape, gotShape)
	}
}

func TestChunkUnmarshalDetectsCorruption(t *testing.T) {
	assert := assert.New(t)

	c := New(1, "deadbeef")
	c.AppendSample([]byte("hello"), 1024, []int{5})
	blob, err := c.Marshal()
	assert.NoError(err)

	// Flip the last byte of the data section to corrupt it without
	// touching the length-prefixed header framing.
	blob[len(blob)-1] ^= 0xFF

	got := &Chunk{}
	assert.Error(got.Unmarshal(blob))
}

func TestChunkUpdateSampleGrowsAndShiftsLaterSamples(t *testing.T) {
	assert := assert.New(t)

	c := New(1, "deadbeef")
	c.AppendSample([]byte("aaa"), 1024, []int{3})
	c.AppendSample([]byte("bbb"), 1024, []int{3})

	assert.NoError(c.UpdateSample(0, []byte("zzzzz"), []int{5}))

	assert.Equal([]byte("zzzzzbbb"), c.MemoryviewData())
	shape, ok := c.Shape(0)
	assert.True(ok)
	assert.Equal([]int{5}, shape)

	start, end, ok := c.ByteRange(1)
	assert.True(ok)
	assert.Equal(int64(5), start)
	assert.Equal(int64(8), end)
}
