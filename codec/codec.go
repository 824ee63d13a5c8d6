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

// Package codec declares the external Sample Codec contract the chunk
// engine calls (spec.md §4.5): converting user values into (buffer, shape)
// pairs, and decompressing a stored buffer back into an ndarray. Concrete
// codecs (e.g. codec/zstdcodec) live in subpackages; the engine only ever
// depends on this interface.
package codec

import (
	"fmt"

	"github.com/hoshimura/tensorstore/tensormeta"
)

// Sample is one (buffer, shape) pair produced by serializing a user value,
// per spec.md §4.5.
type Sample struct {
	Buffer []byte
	Shape  []int
}

// SampleCodec converts raw user input into (buffer, shape) pairs honoring
// the tensor's dtype and compression, and decompresses stored buffers back
// into dense arrays. It is the one external collaborator this core assumes
// is injectable, per spec.md §1 and §4.5.
type SampleCodec interface {
	// Serialize converts samples into (buffer, shape) pairs. Implementations
	// must reject (return an error) any buffer whose length would exceed
	// minChunkSize*2 (the tensor's max_chunk_size) as a programming error,
	// per spec.md §4.5.
	Serialize(samples []any, meta *tensormeta.Meta, minChunkSize int64) ([]Sample, error)

	// Decompress reconstructs a dense array of the given shape from a
	// stored buffer. An empty buffer with a shape containing a zero
	// dimension yields a zero-valued array, per spec.md §8 scenario S3;
	// callers (the engine) special-case the empty-buffer path themselves
	// rather than calling Decompress in that case.
	Decompress(buffer []byte, shape []int) (NDArray, error)

	// InferDtype reports the dtype name a batch of samples would be stored
	// under. The engine calls this once, on the first Extend of a tensor
	// whose TensorMeta.Dtype is still unset (spec.md §4.4).
	InferDtype(samples []any) (string, error)

	// CompressionName reports the name TensorMeta.SampleCompression should
	// record for buffers this codec produces ("" for no compression). The
	// engine records it once, the same way it records Dtype, so a later read
	// knows whether a stored buffer needs Decompress or can be used as-is.
	CompressionName() string
}

// NDArray is the decoded result of a read: raw bytes plus their shape and
// dtype, deliberately not committing to any particular numeric array
// library (out of scope per spec.md §1 — "the tensor façade presented to
// end users" owns turning this into a typed array).
type NDArray struct {
	Data  []byte
	Shape []int
	Dtype string
}

// ErrSampleTooLarge is returned by a SampleCodec when a produced buffer
// would not fit in any chunk, per spec.md §4.5.
var ErrSampleTooLarge = fmt.Errorf("codec: serialized sample exceeds max_chunk_size")
