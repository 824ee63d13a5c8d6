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
	"go.uber.org/zap"

	"github.com/hoshimura/tensorstore/chunk"
	"github.com/hoshimura/tensorstore/chunkid"
	"github.com/hoshimura/tensorstore/tensormeta"
	"github.com/hoshimura/tensorstore/tserr"
)

// Append stores a single sample, per spec.md §4.1.
func (e *Engine) Append(sample any) error {
	return e.Extend([]any{sample})
}

// Extend stores samples in order, placing each into the last chunk when it
// fits (spec.md §4.1's "ceiling-count rule") or starting a fresh chunk
// otherwise. Partial progress from an interior failure is kept: every
// sample placed before the error is already synchronized to the cache.
func (e *Engine) Extend(samples []any) error {
	if err := e.checkReadOnly(); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	meta, err := e.loadMeta()
	if err != nil {
		return err
	}
	if meta.Dtype == "" {
		dtype, err := e.codec.InferDtype(samples)
		if err != nil {
			return tserr.Wrap(tserr.ErrInvalidDtype, "%v", err)
		}
		meta.SetDtype(dtype)
		meta.SampleCompression = e.codec.CompressionName()
	}
	enc, err := e.loadEncoder(meta)
	if err != nil {
		return err
	}

	serialized, err := e.codec.Serialize(samples, meta, meta.MinChunkSize())
	if err != nil {
		return err
	}

	last, err := e.lastChunk(enc)
	if err != nil {
		return err
	}

	// touched tracks every chunk this call wrote to, in creation order, so a
	// batch spanning several new chunks persists all of them, not just the
	// one holding the final sample.
	var touchedOrder []string
	touched := map[string]*chunk.Chunk{}

	var bytesAppended int64
	var loopErr error
	for _, s := range serialized {
		if err := meta.UpdateShapeInterval(s.Shape); err != nil {
			loopErr = err
			break
		}
		meta.Length++

		placed, isNew := e.placeSample(meta, enc, last, s.Buffer, s.Shape)
		if isNew {
			e.metrics.IncChunksCreated()
		}
		last = placed

		if err := enc.RegisterSamples(1); err != nil {
			return err
		}
		bytesAppended += int64(len(s.Buffer))

		name, _ := enc.GetNameForChunk(-1)
		if _, ok := touched[name]; !ok {
			touchedOrder = append(touchedOrder, name)
		}
		touched[name] = last
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
	if loopErr != nil {
		return loopErr
	}

	e.metrics.AddSamplesAppended(len(serialized))
	e.metrics.AddBytesAppended(bytesAppended)
	e.logger.Debug("extend",
		zap.String("tensor", e.tensorKey),
		zap.Int("samples", len(serialized)),
		zap.Int64("bytes", bytesAppended),
	)
	return nil
}

// placeSample implements the append placement algorithm of spec.md §4.1:
// merge into the last chunk when it is under min_chunk_size and the sample
// fits without crossing an additional max_chunk_size boundary; otherwise
// start a fresh chunk. Returns the chunk the sample was placed into and
// whether that chunk is newly created.
func (e *Engine) placeSample(meta *tensormeta.Meta, enc *chunkid.Encoder, last *chunk.Chunk, buffer []byte, shape []int) (*chunk.Chunk, bool) {
	minSize := meta.MinChunkSize()
	maxSize := meta.MaxChunkSize

	if last != nil && last.IsUnderMinSpace(minSize) {
		s := last.NumDataBytes()
		b := int64(len(buffer))
		if ceilDiv(b, maxSize) == ceilDiv(b+s, maxSize) {
			extra := b
			if room := maxSize - s; room < extra {
				extra = room
			}
			last.AppendSample(buffer[:extra], maxSize, shape)
			return last, false
		}
	}

	id := enc.GenerateChunkID()
	fresh := chunk.New(id, chunkid.NameFromID(id))
	fresh.AppendSample(buffer, maxSize, shape)
	return fresh, true
}

// ceilDiv returns ceil(x/y) for y > 0, matching spec.md §4.1's ct(x) =
// ceil(x / max_chunk_size).
func ceilDiv(x, y int64) int64 {
	if x <= 0 {
		return 0
	}
	return (x + y - 1) / y
}
