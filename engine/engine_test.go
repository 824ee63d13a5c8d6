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

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hoshimura/tensorstore/codec/zstdcodec"
	"github.com/hoshimura/tensorstore/tserr"
)

// fakeCache is an in-memory cache.Cache used only by these tests; it writes
// through immediately (Flush is a no-op) so tests can inspect or corrupt
// entries directly via the store field.
type fakeCache struct {
	store    map[string][]byte
	readOnly bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (c *fakeCache) Get(key string) ([]byte, bool, error) {
	v, ok := c.store[key]
	return v, ok, nil
}

func (c *fakeCache) Put(key string, value []byte) error {
	if c.readOnly {
		return tserr.ErrReadOnly
	}
	c.store[key] = value
	return nil
}

func (c *fakeCache) Delete(key string) error {
	if c.readOnly {
		return tserr.ErrReadOnly
	}
	delete(c.store, key)
	return nil
}

func (c *fakeCache) Flush() error { return nil }

func (c *fakeCache) ReadOnly() bool { return c.readOnly }

func newTestEngine(t *testing.T, cache *fakeCache) *Engine {
	t.Helper()
	return New("tensors/x", cache, zstdcodec.New())
}

func floats(vs ...float32) []float32 { return vs }

func TestExtendPacksSamplesIntoChunks(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine(t, newFakeCache())
	err := e.Extend([]any{
		floats(1, 2, 3),
		floats(4, 5, 6),
		floats(7, 8, 9),
	})
	assert.NoError(err)

	n, err := e.NumSamples()
	assert.NoError(err)
	assert.Equal(3, n)

	meta, err := e.TensorMeta()
	assert.NoError(err)
	assert.Equal("float32", meta.Dtype)
	assert.Equal([]int{3}, meta.MinShape)
	assert.Equal([]int{3}, meta.MaxShape)

	results, err := e.Numpy(context.Background(), []int{0, 1, 2}, false)
	assert.NoError(err)
	assert.Len(results, 3)
	for _, r := range results {
		assert.Equal([]int{3}, r.Shape)
		assert.Equal("float32", r.Dtype)
	}
}

func TestExtendHandlesDynamicShapes(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine(t, newFakeCache())
	assert.NoError(e.Extend([]any{floats(1, 2), floats(3, 4, 5)}))

	meta, err := e.TensorMeta()
	assert.NoError(err)
	assert.Equal([]int{2}, meta.MinShape)
	assert.Equal([]int{3}, meta.MaxShape)
	assert.True(meta.Interval(2).IsDynamic())

	_, err = e.Numpy(context.Background(), []int{0, 1}, false)
	assert.ErrorIs(err, tserr.ErrDynamicShape)

	results, err := e.Numpy(context.Background(), []int{0, 1}, true)
	assert.NoError(err)
	assert.Equal([]int{2}, results[0].Shape)
	assert.Equal([]int{3}, results[1].Shape)
}

func TestExtendAndReadEmptySample(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine(t, newFakeCache())
	assert.NoError(e.Extend([]any{floats(), floats(1, 2)}))

	results, err := e.Numpy(context.Background(), []int{0}, true)
	assert.NoError(err)
	assert.Equal([]int{0}, results[0].Shape)
	assert.Empty(results[0].Data)
}

func TestUpdateSameSizeOverwritesInPlace(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine(t, newFakeCache())
	assert.NoError(e.Extend([]any{floats(1, 2, 3), floats(4, 5, 6)}))

	assert.NoError(e.Update([]int{0}, []any{floats(9, 9, 9)}))

	results, err := e.Numpy(context.Background(), []int{0, 1}, false)
	assert.NoError(err)
	assert.Equal([]int{3}, results[0].Shape)

	// second sample is untouched
	want, err := e.Numpy(context.Background(), []int{1}, true)
	assert.NoError(err)
	assert.Equal([]int{3}, want[0].Shape)
}

func TestUpdateGrowingSizeShiftsLaterSamples(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine(t, newFakeCache())
	assert.NoError(e.Extend([]any{floats(1, 2), floats(3, 4), floats(5, 6)}))

	assert.NoError(e.Update([]int{0}, []any{floats(1, 2, 3, 4, 5)}))

	meta, err := e.TensorMeta()
	assert.NoError(err)
	assert.Equal([]int{2}, meta.MinShape)
	assert.Equal([]int{5}, meta.MaxShape)

	results, err := e.Numpy(context.Background(), []int{0, 1, 2}, true)
	assert.NoError(err)
	assert.Equal([]int{5}, results[0].Shape)
	assert.Equal([]int{2}, results[1].Shape)
	assert.Equal([]int{2}, results[2].Shape)
}

func TestReadOnlyCacheRejectsMutation(t *testing.T) {
	assert := assert.New(t)

	c := newFakeCache()
	c.readOnly = true
	e := newTestEngine(t, c)

	err := e.Append(floats(1, 2, 3))
	assert.ErrorIs(err, tserr.ErrReadOnly)
}

func TestValidateNumSamplesDetectsCorruption(t *testing.T) {
	assert := assert.New(t)

	c := newFakeCache()
	e := newTestEngine(t, c)
	assert.NoError(e.Extend([]any{floats(1, 2, 3)}))
	assert.NoError(e.ValidateNumSamplesIsSynchronized())

	// Simulate a crash between writing tensor_meta and updating the index by
	// rewriting the persisted tensor_meta.json with a length the encoder blob
	// does not match.
	meta, err := e.TensorMeta()
	assert.NoError(err)
	meta.Length = 5
	blob, err := meta.Marshal()
	assert.NoError(err)
	assert.NoError(c.Put("tensors/x/tensor_meta.json", blob))

	fresh := newTestEngine(t, c)
	err = fresh.ValidateNumSamplesIsSynchronized()
	assert.ErrorIs(err, tserr.ErrCorrupted)
}

func TestGetChunkNamesRespectsTarget(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine(t, newFakeCache())
	samples := make([]any, 0, 6)
	for i := 0; i < 6; i++ {
		samples = append(samples, floats(float32(i)))
	}
	assert.NoError(e.Extend(samples))

	names, err := e.GetChunkNames(0, 6, 1)
	assert.NoError(err)
	assert.Len(names, 1)

	all, err := e.GetChunkNames(0, 6, 0)
	assert.NoError(err)
	assert.GreaterOrEqual(len(all), 1)
}

func TestUpdateSubsliceIsUnsupported(t *testing.T) {
	e := newTestEngine(t, newFakeCache())
	err := e.UpdateSubslice(0, floats(1))
	assert.ErrorIs(t, err, tserr.ErrUnsupported)
}

func TestUpdateRejectsMismatchedLengths(t *testing.T) {
	e := newTestEngine(t, newFakeCache())
	assert.NoError(t, e.Extend([]any{floats(1, 2, 3)}))
	assert.Error(t, e.Update([]int{0, 1}, []any{floats(1, 2, 3)}))
}

func TestNumpyOutOfRangeIndexFails(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine(t, newFakeCache())
	assert.NoError(e.Extend([]any{floats(1, 2, 3)}))

	_, err := e.Numpy(context.Background(), []int{5}, true)
	assert.ErrorIs(err, tserr.ErrNotFound)
}
