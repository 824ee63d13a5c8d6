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
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/hoshimura/tensorstore/chunk"
	"github.com/hoshimura/tensorstore/chunkid"
	"github.com/hoshimura/tensorstore/tserr"
)

// resizeWarnLow and resizeWarnHigh bound the "reasonable" post-update chunk
// size as a fraction of [min_chunk_size, max_chunk_size], per spec.md §4.1's
// update algorithm: a chunk outside this band after an in-place splice is
// logged, not rejected.
const (
	resizeWarnLow  = 0.8
	resizeWarnHigh = 1.2
)

// Update overwrites the samples at the given global indices in place,
// splicing each owning chunk's data buffer and shifting subsequent byte
// offsets by the resulting length delta (spec.md §4.1 "Update algorithm").
// Update only ever touches the tensor's primary axis; updating a sub-slice
// of a single sample is not supported, see UpdateSubslice.
func (e *Engine) Update(indices []int, samples []any) error {
	if err := e.checkReadOnly(); err != nil {
		return err
	}
	if len(indices) != len(samples) {
		return fmt.Errorf("engine: Update got %d indices but %d samples", len(indices), len(samples))
	}
	if len(indices) == 0 {
		return nil
	}

	meta, err := e.loadMeta()
	if err != nil {
		return err
	}
	enc, err := e.loadEncoder(meta)
	if err != nil {
		return err
	}
	for _, g := range indices {
		if g < 0 || g >= meta.Length {
			return fmt.Errorf("engine: update index %d out of range [0,%d)", g, meta.Length)
		}
	}

	serialized, err := e.codec.Serialize(samples, meta, meta.MinChunkSize())
	if err != nil {
		return err
	}

	lastName, _ := enc.GetNameForChunk(-1)
	touchedOrder := []string{}
	touched := map[string]*chunk.Chunk{}
	warned := false

	for i, g := range indices {
		chunkID, ok := enc.ChunkIDForSample(g)
		if !ok {
			return tserr.Wrap(tserr.ErrCorrupted, "no chunk registered for sample %d", g)
		}
		name := chunkid.NameFromID(chunkID)
		c, ok := touched[name]
		if !ok {
			c, err = e.getChunk(name)
			if err != nil {
				return err
			}
			touched[name] = c
			touchedOrder = append(touchedOrder, name)
		}

		local, ok := enc.TranslateIndexRelativeToChunks(g)
		if !ok {
			return tserr.Wrap(tserr.ErrCorrupted, "no local index for sample %d", g)
		}
		s := serialized[i]
		if err := c.UpdateSample(local, s.Buffer, s.Shape); err != nil {
			return err
		}
		if err := meta.UpdateShapeInterval(s.Shape); err != nil {
			return err
		}

		if name != lastName {
			if nb := c.Nbytes(); float64(nb) < resizeWarnLow*float64(meta.MinChunkSize()) ||
				float64(nb) > resizeWarnHigh*float64(meta.MaxChunkSize) {
				warned = true
			}
		}
	}

	for _, name := range touchedOrder {
		if err := e.putChunk(name, touched[name]); err != nil {
			return err
		}
	}
	if err := e.synchronizeCache(meta, enc); err != nil {
		return err
	}
	if err := e.cache.Flush(); err != nil {
		return err
	}

	if warned {
		e.metrics.IncResizeWarnings()
		e.logger.Warn("update produced an out-of-range chunk size",
			zap.String("tensor", e.tensorKey),
			zap.String("min", humanize.Bytes(uint64(meta.MinChunkSize()))),
			zap.String("max", humanize.Bytes(uint64(meta.MaxChunkSize))),
		)
	}
	return nil
}

// UpdateSubslice would update a portion of a single sample along a
// non-primary axis. This core only ever tracks shape and byte position at
// whole-sample granularity (spec.md §4.1 scope), so it cannot splice a
// sub-region of one sample without rewriting the whole thing; callers that
// need this should read, mutate in their own array library, and call
// Update with the whole replacement sample instead.
func (e *Engine) UpdateSubslice(int, any) error {
	return tserr.Wrap(tserr.ErrUnsupported, "sub-slice update is not supported; update the whole sample instead")
}
