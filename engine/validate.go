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

import "github.com/hoshimura/tensorstore/tserr"

// ValidateNumSamplesIsSynchronized checks that TensorMeta.Length agrees
// with the ChunkIdEncoder's sample count, per spec.md §5's corruption
// definition. A missing encoder counts as zero registered samples.
func (e *Engine) ValidateNumSamplesIsSynchronized() error {
	meta, err := e.loadMeta()
	if err != nil {
		return err
	}
	exists, err := e.encoderExists()
	if err != nil {
		return err
	}
	registered := 0
	if exists {
		enc, err := e.loadEncoder(meta)
		if err != nil {
			return err
		}
		registered = enc.NumSamples()
	}
	if meta.Length != registered {
		return tserr.Wrap(tserr.ErrCorrupted,
			"tensor_meta.length (%d) disagrees with chunk id encoder sample count (%d)", meta.Length, registered)
	}
	return nil
}
