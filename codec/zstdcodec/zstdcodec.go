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

// Package zstdcodec is a reference codec.SampleCodec implementation backed
// by zstd (via dolt's own compression dependency, gozstd). It is a
// consumer of the codec package's interface, not a dependency of the core
// engine: the engine never imports this package, mirroring how dolt's nbs
// chunk store is itself compression-format-agnostic while the surrounding
// repository bundles zstd support for its own use.
package zstdcodec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dolthub/gozstd"

	"github.com/hoshimura/tensorstore/codec"
	"github.com/hoshimura/tensorstore/tensormeta"
)

// Codec serializes []float32 samples (the only sample type this reference
// implementation understands) by little-endian-encoding their flat data
// and compressing it with zstd at the given level.
type Codec struct {
	Level int
}

// New returns a Codec at zstd's default compression level.
func New() *Codec {
	return &Codec{Level: 3}
}

var _ codec.SampleCodec = (*Codec)(nil)

// Serialize implements codec.SampleCodec.
func (c *Codec) Serialize(samples []any, meta *tensormeta.Meta, minChunkSize int64) ([]codec.Sample, error) {
	maxChunkSize := minChunkSize * 2
	out := make([]codec.Sample, 0, len(samples))
	for _, s := range samples {
		raw, shape, err := flatten(s)
		if err != nil {
			return nil, err
		}
		compressed := gozstd.CompressLevel(nil, raw, c.Level)
		if int64(len(compressed)) > maxChunkSize {
			return nil, fmt.Errorf("%w: %d bytes > max_chunk_size %d", codec.ErrSampleTooLarge, len(compressed), maxChunkSize)
		}
		out = append(out, codec.Sample{Buffer: compressed, Shape: shape})
	}
	return out, nil
}

// Decompress implements codec.SampleCodec.
func (c *Codec) Decompress(buffer []byte, shape []int) (codec.NDArray, error) {
	if len(buffer) == 0 {
		return codec.NDArray{Data: nil, Shape: shape, Dtype: "float32"}, nil
	}
	raw, err := gozstd.Decompress(nil, buffer)
	if err != nil {
		return codec.NDArray{}, fmt.Errorf("zstdcodec: decompress: %w", err)
	}
	return codec.NDArray{Data: raw, Shape: shape, Dtype: "float32"}, nil
}

// CompressionName implements codec.SampleCodec.
func (c *Codec) CompressionName() string { return "zstd" }

// InferDtype implements codec.SampleCodec. This reference implementation
// only understands float32 samples.
func (c *Codec) InferDtype(samples []any) (string, error) {
	for _, s := range samples {
		if _, ok := s.([]float32); !ok {
			return "", fmt.Errorf("zstdcodec: unsupported sample type %T", s)
		}
	}
	return "float32", nil
}

// flatten converts a []float32 sample into its raw little-endian bytes and
// shape. Real codecs would dispatch on tensor dtype; this reference
// implementation only needs to exercise the interface end to end.
func flatten(s any) (raw []byte, shape []int, err error) {
	switch v := s.(type) {
	case []float32:
		buf := make([]byte, 4*len(v))
		for i, f := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
		}
		return buf, []int{len(v)}, nil
	default:
		return nil, nil, fmt.Errorf("zstdcodec: unsupported sample type %T", s)
	}
}
