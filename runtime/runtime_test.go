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

package runtime

import (
	"context"
	"testing"

	"github.com/weavefx/wfxc/backend/faketest"
	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/library"
	"github.com/weavefx/wfxc/model"
)

type nopIncluder struct{}

func (nopIncluder) Include(path string) (string, bool) { return "", false }

func buildSampleLib(t *testing.T) *model.ShaderLibDef {
	t.Helper()
	const source = `#pragma flags FEATURE_A
[vertex]
void VS_Main() {
#ifdef FEATURE_A
  int a = 1;
#endif
}
`
	b := library.New(library.Configuration{Name: "rt-test", Platform: model.Platform{FeatureLevel: "5_0"}}, &faketest.Backend{}, nopIncluder{})
	ctx := context.Background()
	if err := b.AddRepo(ctx, "v.wfx", source); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}
	def, _, err := b.GetDefinition(ctx)
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	return &def
}

// spec §4.9: a loaded library resolves a shader by name for every variant
// of its declared flag, and IsDefined reflects the flag bit of that
// variant's ConfigID.
func TestShaderLibMapResolvesByNameAndVariant(t *testing.T) {
	def := buildSampleLib(t)
	m := Load(def, nil)

	off := model.MakeVariantID(0, 0)
	on := model.MakeVariantID(0, 1)

	offID, ok := m.TryShaderID("VS_Main", off)
	wassert.For(t, "resolves off variant").That(ok).Equals(true)
	onID, ok := m.TryShaderID("VS_Main", on)
	wassert.For(t, "resolves on variant").That(ok).Equals(true)
	if offID == onID {
		t.Errorf("distinct preprocessed variants collapsed to the same shader ID %v", offID)
	}

	wassert.For(t, "flag off").That(m.IsDefined("FEATURE_A", off)).Equals(false)
	wassert.For(t, "flag on").That(m.IsDefined("FEATURE_A", on)).Equals(true)

	defaultID, ok := m.TryDefaultShaderID("VS_Main")
	wassert.For(t, "default resolves").That(ok).Equals(true)
	wassert.For(t, "default matches config 0").That(defaultID).Equals(offID)
}

func TestShaderLibMapUnknownNameFails(t *testing.T) {
	def := buildSampleLib(t)
	m := Load(def, nil)

	_, ok := m.TryShaderID("PS_Main", model.MakeVariantID(0, 0))
	wassert.For(t, "unknown shader name").That(ok).Equals(false)
}

// SetFlag/ResetVariant round trip through the read-side map the same way
// config.Table does, but resolved by string name via the interner.
func TestShaderLibMapSetFlagAndResetVariant(t *testing.T) {
	def := buildSampleLib(t)
	m := Load(def, nil)

	v := m.SetFlag("FEATURE_A", true, model.MakeVariantID(0, 0))
	wassert.For(t, "flag set via name").That(m.IsDefined("FEATURE_A", v)).Equals(true)

	v = m.ResetVariant(v)
	wassert.For(t, "reset clears flag").That(m.IsDefined("FEATURE_A", v)).Equals(false)
}
