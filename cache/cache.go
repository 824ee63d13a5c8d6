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

// Package cache names the one shared resource the engine depends on
// (spec.md §5): a keyed byte store with flush/readonly signalling. The
// engine only ever depends on the Cache interface; LRUCache is the
// reference write-through implementation exercised by this repository's
// own tests.
package cache

// Cache is a keyed byte store the engine treats as write-through with
// deferred flush (spec.md §5).
type Cache interface {
	// Get returns the bytes stored at key, or ok=false if absent.
	Get(key string) (value []byte, ok bool, err error)

	// Put writes value at key. It does not itself guarantee durability;
	// call Flush for that (spec.md §5 "Cancellation/timeout").
	Put(key string, value []byte) error

	// Delete removes key, if present.
	Delete(key string) error

	// Flush persists every dirty entry. The engine calls this as a hint at
	// the end of a batch (spec.md §9 "Cache flush timing"); it must not be
	// called less often than once per completed extend/update call.
	Flush() error

	// ReadOnly reports whether mutation is disallowed. The engine calls
	// this at the entry of every mutating method (spec.md §5).
	ReadOnly() bool
}

// Keys centralizes the deterministic key scheme named in spec.md §6, so
// the engine and any Cache implementation agree on one naming convention.
type Keys struct{}

// TensorMetaKey returns the key for a tensor's TensorMeta blob.
func (Keys) TensorMetaKey(tensorKey string) string {
	return tensorKey + "/tensor_meta.json"
}

// ChunksIndexKey returns the key for a tensor's ChunkIdEncoder blob.
func (Keys) ChunksIndexKey(tensorKey string) string {
	return tensorKey + "/chunks_index"
}

// ChunkKey returns the key for one chunk, named by NameFromID(chunkID).
func (Keys) ChunkKey(tensorKey, chunkName string) string {
	return tensorKey + "/chunks/" + chunkName
}
