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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoshimura/tensorstore/chunk"
	"github.com/hoshimura/tensorstore/chunkid"
	"github.com/hoshimura/tensorstore/codec"
	"github.com/hoshimura/tensorstore/tensormeta"
	"github.com/hoshimura/tensorstore/tserr"
)

// Numpy reads the samples at the given global indices. When aslist is
// false every sample must share a single shape (spec.md §4.1
// "densification"); a tensor holding dynamically-shaped samples must be
// read with aslist=true, or ErrDynamicShape is returned. Each index is read
// in its own goroutine (loading its owning chunk), bounded by the engine's
// read fanout (see WithReadFanout); results keep the order of indices.
func (e *Engine) Numpy(ctx context.Context, indices []int, aslist bool) ([]codec.NDArray, error) {
	meta, err := e.loadMeta()
	if err != nil {
		return nil, err
	}
	enc, err := e.loadEncoder(meta)
	if err != nil {
		return nil, err
	}
	for _, g := range indices {
		if g < 0 || g >= meta.Length {
			return nil, tserr.Wrap(tserr.ErrNotFound, "sample index %d out of range [0,%d)", g, meta.Length)
		}
	}

	results := make([]codec.NDArray, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.readFanout)
	for i, idx := range indices {
		i, idx := i, idx
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			nd, err := e.readOne(meta, enc, idx)
			e.metrics.ObserveRead(time.Since(start).Seconds())
			if err != nil {
				return err
			}
			results[i] = nd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !aslist && len(results) > 1 {
		want := results[0].Shape
		for _, r := range results[1:] {
			if !sameShape(r.Shape, want) {
				return nil, tserr.ErrDynamicShape
			}
		}
	}
	return results, nil
}

func sameShape(a, b []int) bool {
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

// readOne loads the chunk owning global index g and decodes that sample.
// This is the single-sample path Numpy fans out over; its decoding step is
// the exported ReadSampleFromChunk, for callers that already hold the owning
// chunk (e.g. a caller iterating ChunkIDEncoder().Iter themselves).
func (e *Engine) readOne(meta *tensormeta.Meta, enc *chunkid.Encoder, g int) (codec.NDArray, error) {
	chunkID, ok := enc.ChunkIDForSample(g)
	if !ok {
		return codec.NDArray{}, tserr.Wrap(tserr.ErrCorrupted, "no chunk registered for sample %d", g)
	}
	c, err := e.getChunk(chunkid.NameFromID(chunkID))
	if err != nil {
		return codec.NDArray{}, err
	}
	return e.ReadSampleFromChunk(g, c, meta, enc)
}

// ReadSampleFromChunk decodes the sample at global index g from chunk c,
// per spec.md §4.1. It copies the sample's bytes out of the chunk's backing
// buffer before returning (spec.md §9 "Memoryview aliasing"): the chunk may
// be evicted from the cache's hot tier immediately after this call returns.
func (e *Engine) ReadSampleFromChunk(g int, c *chunk.Chunk, meta *tensormeta.Meta, enc *chunkid.Encoder) (codec.NDArray, error) {
	local, ok := enc.TranslateIndexRelativeToChunks(g)
	if !ok {
		return codec.NDArray{}, tserr.Wrap(tserr.ErrCorrupted, "no local index for sample %d", g)
	}
	shape, ok := c.Shape(local)
	if !ok {
		return codec.NDArray{}, tserr.Wrap(tserr.ErrCorrupted, "no shape recorded for sample %d", g)
	}
	start, end, ok := c.ByteRange(local)
	if !ok {
		return codec.NDArray{}, tserr.Wrap(tserr.ErrCorrupted, "no byte range recorded for sample %d", g)
	}

	if start == end {
		// Empty sample (spec.md §8 scenario S3): no bytes to decompress, the
		// recorded shape (which may itself contain a zero dimension) is
		// authoritative on its own.
		return codec.NDArray{Data: nil, Shape: shape, Dtype: meta.Dtype}, nil
	}

	raw := c.MemoryviewData()[start:end]
	buf := append([]byte(nil), raw...)
	if meta.SampleCompression == "" {
		return codec.NDArray{Data: buf, Shape: shape, Dtype: meta.Dtype}, nil
	}
	return e.codec.Decompress(buf, shape)
}

// GetChunkNames returns the distinct chunk names covering global indices
// [start, last), stopping once target distinct names have been collected
// or last is reached, per spec.md §4.1 ("chunk-engine-side sharding hint").
// A target <= 0 means "no limit".
func (e *Engine) GetChunkNames(start, last, target int) (map[string]struct{}, error) {
	meta, err := e.loadMeta()
	if err != nil {
		return nil, err
	}
	enc, err := e.loadEncoder(meta)
	if err != nil {
		return nil, err
	}
	if last > meta.Length {
		last = meta.Length
	}

	names := map[string]struct{}{}
	for i := start; i < last; i++ {
		if target > 0 && len(names) >= target {
			break
		}
		id, ok := enc.ChunkIDForSample(i)
		if !ok {
			return nil, tserr.Wrap(tserr.ErrCorrupted, "no chunk registered for sample %d", i)
		}
		names[chunkid.NameFromID(id)] = struct{}{}
	}
	return names, nil
}
