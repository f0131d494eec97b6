// Copyright (C) 2024 The WFX Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registry

import (
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/model"
)

// P2: get_or_add(x); get_or_add(x) returns the same ID; distinct content
// yields distinct IDs.
func TestGetOrAddByteCodeDedups(t *testing.T) {
	b := New()
	id1 := b.GetOrAddByteCode([]byte("abc"))
	id2 := b.GetOrAddByteCode([]byte("abc"))
	wassert.For(t, "repeated byte code").That(id2).Equals(id1)

	id3 := b.GetOrAddByteCode([]byte("xyz"))
	if id3 == id1 {
		t.Errorf("distinct bytecode collapsed to the same ID %v", id1)
	}
}

func TestGetOrAddShaderDedupsByFullValue(t *testing.T) {
	b := New()
	def := model.ShaderDef{NameID: model.StringID(1), Stage: model.StageVertex}
	id1 := b.GetOrAddShader(def)
	id2 := b.GetOrAddShader(def)
	wassert.For(t, "repeated shader def").That(id2).Equals(id1)

	other := def
	other.Stage = model.StagePixel
	id3 := b.GetOrAddShader(other)
	if id3 == id1 {
		t.Errorf("shaders differing only in Stage collapsed to the same ID %v", id1)
	}
}

// GetOrAddIDGroup dedups by ordered equality, not set equality.
func TestGetOrAddIDGroupIsOrderSensitive(t *testing.T) {
	b := New()
	g1 := b.GetOrAddIDGroup([]uint32{1, 2, 3})
	g2 := b.GetOrAddIDGroup([]uint32{1, 2, 3})
	wassert.For(t, "repeated id group").That(g2).Equals(g1)

	g3 := b.GetOrAddIDGroup([]uint32{3, 2, 1})
	if g3 == g1 {
		t.Errorf("reordered id group collapsed to the same ID %v", g1)
	}
}

func TestToDefFromDefRoundTripsDedup(t *testing.T) {
	b := New()
	b.GetOrAddByteCode([]byte("one"))
	b.GetOrAddByteCode([]byte("two"))
	def := b.ToDef()

	reloaded := FromDef(def)
	wassert.For(t, "reloaded first byte code").That(reloaded.ByteCode(0)).Equals([]byte("one"))

	// Re-adding identical content after FromDef must still dedup.
	id := reloaded.GetOrAddByteCode([]byte("one"))
	wassert.For(t, "re-add after FromDef dedups").That(id).Equals(model.ByteCodeID(0))
}

func TestWithTmpIDBufferReturnsBufferToPool(t *testing.T) {
	b := New()
	before := len(b.scratchPool)
	_ = b.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		return append(buf, 1, 2, 3)
	})
	wassert.For(t, "scratch pool grew by exactly one").That(len(b.scratchPool)).Equals(before + 1)
}
