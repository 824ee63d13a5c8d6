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

// Package metrics bundles the Prometheus collectors the engine updates
// along its append/update/read paths (SPEC_FULL.md §4.7), mirroring dolt's
// own store/metrics package's role of a small stats-counter bundle around
// the chunk store.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles the counters and histograms the engine touches. A
// nil *Collectors is valid and every method is then a no-op, so the engine
// works with zero configuration (spec.md §1 has no observability
// requirement; this is purely additive).
type Collectors struct {
	ChunksCreated       prometheus.Counter
	ChunkResizeWarnings prometheus.Counter
	SamplesAppended     prometheus.Counter
	BytesAppended       prometheus.Counter
	ReadLatencySeconds  prometheus.Histogram
}

// New registers a fresh Collectors bundle on reg. If reg is nil, a private
// registry is used so concurrent tests never collide on the global default
// registerer.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collectors{
		ChunksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tensorstore_chunks_created_total",
			Help: "Number of chunks created by the chunk engine.",
		}),
		ChunkResizeWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tensorstore_chunk_resize_warnings_total",
			Help: "Number of update batches that produced an out-of-range chunk size.",
		}),
		SamplesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tensorstore_samples_appended_total",
			Help: "Number of samples appended across all tensors.",
		}),
		BytesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tensorstore_bytes_appended_total",
			Help: "Number of sample bytes appended across all tensors.",
		}),
		ReadLatencySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tensorstore_read_latency_seconds",
			Help:    "Latency of single-sample reads from a chunk.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.ChunksCreated, c.ChunkResizeWarnings, c.SamplesAppended, c.BytesAppended, c.ReadLatencySeconds)
	return c
}

// IncChunksCreated records a new chunk allocation.
func (c *Collectors) IncChunksCreated() {
	if c != nil {
		c.ChunksCreated.Inc()
	}
}

// IncResizeWarnings records a suboptimal-chunk-size warning.
func (c *Collectors) IncResizeWarnings() {
	if c != nil {
		c.ChunkResizeWarnings.Inc()
	}
}

// AddSamplesAppended records n samples appended.
func (c *Collectors) AddSamplesAppended(n int) {
	if c != nil {
		c.SamplesAppended.Add(float64(n))
	}
}

// AddBytesAppended records n bytes appended.
func (c *Collectors) AddBytesAppended(n int64) {
	if c != nil {
		c.BytesAppended.Add(float64(n))
	}
}

// ObserveRead records a read-latency sample in seconds.
func (c *Collectors) ObserveRead(seconds float64) {
	if c != nil {
		c.ReadLatencySeconds.Observe(seconds)
	}
}
