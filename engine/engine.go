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

// Package engine implements the ChunkEngine (spec.md §4.1): the
// coordinator that routes appends/updates into chunks obeying size limits,
// keeps TensorMeta and the ChunkIdEncoder synchronized with the cache, and
// fulfils reads via index translation.
package engine

import (
	"go.uber.org/zap"

	"github.com/hoshimura/tensorstore/cache"
	"github.com/hoshimura/tensorstore/chunk"
	"github.com/hoshimura/tensorstore/chunkid"
	"github.com/hoshimura/tensorstore/codec"
	"github.com/hoshimura/tensorstore/metrics"
	"github.com/hoshimura/tensorstore/tensormeta"
	"github.com/hoshimura/tensorstore/tserr"
)

// Engine is the ChunkEngine coordinator. TensorMeta and the ChunkIdEncoder
// are lazily materialized (spec.md §9 "get-or-create") the first time
// they're touched and cached on the struct for the lifetime of the value;
// per spec.md §5 a single Engine is only ever mutated by one goroutine at a
// time.
type Engine struct {
	tensorKey string
	cache     cache.Cache
	codec     codec.SampleCodec
	keys      cache.Keys
	logger    *zap.Logger
	metrics   *metrics.Collectors
	readFanout int

	meta *tensormeta.Meta
	enc  *chunkid.Encoder
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger sets the engine's structured logger. Defaults to a no-op
// logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the engine's Prometheus collector bundle. Defaults to
// nil, under which every metric update is a no-op.
func WithMetrics(m *metrics.Collectors) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithReadFanout bounds how many sample reads a single Numpy call may issue
// concurrently. Defaults to 8. GetChunkNames reads only the ChunkIdEncoder
// and does not use it.
func WithReadFanout(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.readFanout = n
		}
	}
}

// New returns an Engine operating on tensorKey within c, using sc to
// serialize/decompress samples.
func New(tensorKey string, c cache.Cache, sc codec.SampleCodec, opts ...Option) *Engine {
	e := &Engine{
		tensorKey:  tensorKey,
		cache:      c,
		codec:      sc,
		logger:     zap.NewNop(),
		readFanout: 8,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// checkReadOnly is called at the entry of every mutating method, per
// spec.md §5.
func (e *Engine) checkReadOnly() error {
	if e.cache.ReadOnly() {
		return tserr.ErrReadOnly
	}
	return nil
}

// loadMeta returns the tensor's TensorMeta, creating a blank one (lazily,
// per spec.md §3 "created lazily on first write") if absent.
func (e *Engine) loadMeta() (*tensormeta.Meta, error) {
	if e.meta != nil {
		return e.meta, nil
	}
	key := e.keys.TensorMetaKey(e.tensorKey)
	data, ok, err := e.cache.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.meta = tensormeta.New(tensormeta.DefaultMaxChunkSize)
		return e.meta, nil
	}
	m := &tensormeta.Meta{}
	if err := m.Unmarshal(data); err != nil {
		return nil, tserr.Wrap(tserr.ErrCorrupted, "unmarshaling tensor meta at %s: %v", key, err)
	}
	e.meta = m
	return e.meta, nil
}

// encoderExists reports whether a ChunkIdEncoder blob is present in the
// cache, without materializing a blank one.
func (e *Engine) encoderExists() (bool, error) {
	key := e.keys.ChunksIndexKey(e.tensorKey)
	_, ok, err := e.cache.Get(key)
	return ok, err
}

// loadEncoder returns the tensor's ChunkIdEncoder, creating a blank one if
// absent — unless TensorMeta already records length > 1, in which case a
// missing encoder means the tensor is corrupted (spec.md §4.3 docstring:
// "1 because we always update meta before writing samples").
func (e *Engine) loadEncoder(meta *tensormeta.Meta) (*chunkid.Encoder, error) {
	if e.enc != nil {
		return e.enc, nil
	}
	key := e.keys.ChunksIndexKey(e.tensorKey)
	data, ok, err := e.cache.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		if meta.Length > 1 {
			return nil, tserr.Wrap(tserr.ErrCorrupted,
				"tensor %s has length %d but no chunk id encoder", e.tensorKey, meta.Length)
		}
		e.enc = &chunkid.Encoder{}
		return e.enc, nil
	}
	enc := &chunkid.Encoder{}
	if err := enc.Unmarshal(data); err != nil {
		return nil, tserr.Wrap(tserr.ErrCorrupted, "unmarshaling chunk id encoder at %s: %v", key, err)
	}
	e.enc = enc
	return e.enc, nil
}

// getChunk loads and decodes the chunk named name.
func (e *Engine) getChunk(name string) (*chunk.Chunk, error) {
	key := e.keys.ChunkKey(e.tensorKey, name)
	data, ok, err := e.cache.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, tserr.Wrap(tserr.ErrCorrupted, "chunk %s referenced by encoder but missing from cache", key)
	}
	c := &chunk.Chunk{Name: name}
	if err := c.Unmarshal(data); err != nil {
		return nil, tserr.Wrap(tserr.ErrCorrupted, "unmarshaling chunk %s: %v", key, err)
	}
	return c, nil
}

// putChunk serializes and writes c back to the cache.
func (e *Engine) putChunk(name string, c *chunk.Chunk) error {
	blob, err := c.Marshal()
	if err != nil {
		return err
	}
	return e.cache.Put(e.keys.ChunkKey(e.tensorKey, name), blob)
}

// lastChunk returns the chunk holding the highest global sample index, or
// nil if the tensor has no chunks yet.
func (e *Engine) lastChunk(enc *chunkid.Encoder) (*chunk.Chunk, error) {
	name, ok := enc.GetNameForChunk(-1)
	if !ok {
		return nil, nil
	}
	return e.getChunk(name)
}

// synchronizeCache writes TensorMeta and the ChunkIdEncoder back to the
// cache. Callers (append, update) must have already written every chunk the
// new metadata will reference via putChunk before calling this, per
// spec.md §5's crash-ordering guarantee: metadata must never describe a
// sample whose bytes are not yet durable, so chunk data always lands first
// and the index/length update that makes it reachable lands last.
func (e *Engine) synchronizeCache(meta *tensormeta.Meta, enc *chunkid.Encoder) error {
	metaBlob, err := meta.Marshal()
	if err != nil {
		return err
	}
	if err := e.cache.Put(e.keys.TensorMetaKey(e.tensorKey), metaBlob); err != nil {
		return err
	}
	return e.cache.Put(e.keys.ChunksIndexKey(e.tensorKey), enc.Marshal())
}

// NumSamples is a read-only accessor (spec.md §6).
func (e *Engine) NumSamples() (int, error) {
	meta, err := e.loadMeta()
	if err != nil {
		return 0, err
	}
	return meta.Length, nil
}

// NumChunks is a read-only accessor (spec.md §6).
func (e *Engine) NumChunks() (int, error) {
	exists, err := e.encoderExists()
	if err != nil || !exists {
		return 0, err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return 0, err
	}
	enc, err := e.loadEncoder(meta)
	if err != nil {
		return 0, err
	}
	return enc.NumChunks(), nil
}

// TensorMeta is a read-only accessor (spec.md §6).
func (e *Engine) TensorMeta() (*tensormeta.Meta, error) {
	return e.loadMeta()
}

// ChunkIDEncoder is a read-only accessor (spec.md §6).
func (e *Engine) ChunkIDEncoder() (*chunkid.Encoder, error) {
	meta, err := e.loadMeta()
	if err != nil {
		return nil, err
	}
	return e.loadEncoder(meta)
}

// LastChunk is a read-only accessor (spec.md §6).
func (e *Engine) LastChunk() (*chunk.Chunk, error) {
	meta, err := e.loadMeta()
	if err != nil {
		return nil, err
	}
	enc, err := e.loadEncoder(meta)
	if err != nil {
		return nil, err
	}
	return e.lastChunk(enc)
}
