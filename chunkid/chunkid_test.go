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

func TestEncoderRegisterAndTranslate(t *testing.T) {
	assert := assert.New(t)

	var e Encoder
	id1 := e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(3))

	id2 := e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(2))

	assert.Equal(5, e.NumSamples())
	assert.Equal(2, e.NumChunks())

	got, ok := e.ChunkIDForSample(0)
	assert.True(ok)
	assert.Equal(id1, got)

	got, ok = e.ChunkIDForSample(3)
	assert.True(ok)
	assert.Equal(id2, got)

	local, ok := e.TranslateIndexRelativeToChunks(4)
	assert.True(ok)
	assert.Equal(1, local)

	name, ok := e.GetNameForChunk(-1)
	assert.True(ok)
	assert.Equal(NameFromID(id2), name)
}

func TestEncoderIter(t *testing.T) {
	assert := assert.New(t)

	var e Encoder
	id1 := e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(2))
	id2 := e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(2))

	var ids []uint64
	var locals []int
	for id, local := range e.Iter([]int{0, 1, 2, 3}) {
		ids = append(ids, id)
		locals = append(locals, local)
	}
	assert.Equal([]uint64{id1, id1, id2, id2}, ids)
	assert.Equal([]int{0, 1, 0, 1}, locals)
}

func TestEncoderMarshalRoundTrip(t *testing.T) {
	assert := assert.New(t)

	var e Encoder
	e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(4))
	e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(6))

	blob := e.Marshal()

	var got Encoder
	assert.NoError(got.Unmarshal(blob))
	assert.Equal(e.NumSamples(), got.NumSamples())
	assert.Equal(e.NumChunks(), got.NumChunks())

	for i := 0; i < e.NumSamples(); i++ {
		wantID, _ := e.ChunkIDForSample(i)
		gotID, ok := got.ChunkIDForSample(i)
		assert.True(ok)
		assert.Equal(wantID, gotID)
	}
}

func TestEncoderRegisterSamplesWithoutChunkFails(t *testing.T) {
	var e Encoder
	assert.Error(t, e.RegisterSamples(1))
}

func TestEncoderTruncate(t *testing.T) {
	assert := assert.New(t)

	var e Encoder
	e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(5))
	e.GenerateChunkID()
	assert.NoError(e.RegisterSamples(5))

	e.Truncate(7)
	assert.Equal(7, e.NumSamples())
	assert.Equal(2, e.NumChunks())
}
