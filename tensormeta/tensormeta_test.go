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

package tensormeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetaUpdateShapeIntervalWidens(t *testing.T) {
	assert := assert.New(t)

	m := New(DefaultMaxChunkSize)
	assert.NoError(m.UpdateShapeInterval([]int{3, 3}))
	assert.NoError(m.UpdateShapeInterval([]int{5, 1}))

	assert.Equal([]int{3, 1}, m.MinShape)
	assert.Equal([]int{5, 3}, m.MaxShape)
}

func TestMetaUpdateShapeIntervalRejectsNdimMismatch(t *testing.T) {
	assert := assert.New(t)

	m := New(DefaultMaxChunkSize)
	assert.NoError(m.UpdateShapeInterval([]int{3, 3}))
	assert.Error(m.UpdateShapeInterval([]int{3, 3, 3}))
}

func TestMetaSetDtypeIsOnlyEffectiveOnce(t *testing.T) {
	assert := assert.New(t)

	m := New(DefaultMaxChunkSize)
	m.SetDtype("float32")
	m.SetDtype("int64")
	assert.Equal("float32", m.Dtype)
}

func TestMetaMinChunkSizeIsHalfMax(t *testing.T) {
	assert := assert.New(t)

	m := New(1024)
	assert.Equal(int64(512), m.MinChunkSize())
}

func TestMetaMarshalRoundTrip(t *testing.T) {
	assert := assert.New(t)

	m := New(4096)
	m.SetDtype("float32")
	assert.NoError(m.UpdateShapeInterval([]int{2, 2}))
	m.Length = 1

	blob, err := m.Marshal()
	assert.NoError(err)

	got := &Meta{}
	assert.NoError(got.Unmarshal(blob))
	assert.Equal(m.Dtype, got.Dtype)
	assert.Equal(m.MinShape, got.MinShape)
	assert.Equal(m.MaxShape, got.MaxShape)
	assert.Equal(m.Length, got.Length)
	assert.Equal(m.MaxChunkSize, got.MaxChunkSize)
}

func TestShapeIntervalString(t *testing.T) {
	assert := assert.New(t)

	m := New(DefaultMaxChunkSize)
	assert.NoError(m.UpdateShapeInterval([]int{3, 10, 10}))
	assert.NoError(m.UpdateShapeInterval([]int{3, 10, 15}))

	si := m.Interval(7)
	assert.True(si.IsDynamic())
	assert.Equal("(7, 3, 10, 10:15)", si.String())
}

func TestShapeIntervalFixedIsNotDynamic(t *testing.T) {
	assert := assert.New(t)

	m := New(DefaultMaxChunkSize)
	assert.NoError(m.UpdateShapeInterval([]int{4, 4}))

	si := m.Interval(2)
	assert.False(si.IsDynamic())
	assert.Equal("(2, 4, 4)", si.String())
}
