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

package library

import (
	"context"
	"testing"

	"github.com/weavefx/wfxc/backend/faketest"
	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/model"
)

type nopIncluder struct{}

func (nopIncluder) Include(path string) (string, bool) { return "", false }

func newTestBuilder(compiler *faketest.Backend) *Builder {
	return New(Configuration{Name: "test", Platform: model.Platform{FeatureLevel: "5_0"}}, compiler, nopIncluder{})
}

// S1: an empty repo yields a library with no shaders and no effects.
func TestEmptyRepoProducesEmptyLibrary(t *testing.T) {
	compiler := &faketest.Backend{}
	b := newTestBuilder(compiler)
	ctx := context.Background()

	err := b.AddRepo(ctx, "empty.wfx", "")
	wassert.For(t, "add repo error").That(err).IsNil()

	def, _, err := b.GetDefinition(ctx)
	wassert.For(t, "get definition error").That(err).IsNil()
	wassert.For(t, "repo count").That(len(def.Repos)).Equals(1)
	wassert.For(t, "shader count").That(len(def.Registry.Shaders)).Equals(0)
	wassert.For(t, "effect count").That(len(def.Registry.Effects)).Equals(0)
	wassert.For(t, "backend never invoked").That(compiler.CallCount).Equals(0)
}

// S2: a single compute entrypoint compiles to exactly one shader.
func TestSingleComputeShaderCompiles(t *testing.T) {
	const source = `[compute]
void CS_Main() {
  int x = 1;
}
`
	compiler := &faketest.Backend{}
	b := newTestBuilder(compiler)
	ctx := context.Background()

	wassert.For(t, "add repo error").That(b.AddRepo(ctx, "cs.wfx", source)).IsNil()
	def, stats, err := b.GetDefinition(ctx)
	wassert.For(t, "get definition error").That(err).IsNil()

	wassert.For(t, "one shader registered").That(len(def.Registry.Shaders)).Equals(1)
	wassert.For(t, "backend called once").That(compiler.CallCount).Equals(1)
	wassert.For(t, "compiled variant count").That(stats.CompiledVariantCount).Equals(1)
	wassert.For(t, "shader stage").That(def.Registry.Shaders[0].Stage).Equals(model.StageCompute)
}

// S3: a single flag fans out into 2 variants, each compiled independently
// because their preprocessed text differs.
func TestSingleFlagFansOutToTwoVariants(t *testing.T) {
	const source = `#pragma flags FEATURE_A
[vertex]
void VS_Main() {
#ifdef FEATURE_A
  int a = 1;
#endif
}
`
	compiler := &faketest.Backend{}
	b := newTestBuilder(compiler)
	ctx := context.Background()

	wassert.For(t, "add repo error").That(b.AddRepo(ctx, "v.wfx", source)).IsNil()
	_, stats, err := b.GetDefinition(ctx)
	wassert.For(t, "get definition error").That(err).IsNil()

	wassert.For(t, "two distinct variants compiled").That(compiler.CallCount).Equals(2)
	wassert.For(t, "compiled variant count").That(stats.CompiledVariantCount).Equals(2)
}

// S4: a technique with two explicit passes produces one effect whose pass
// group has two members.
func TestEffectWithTwoExplicitPasses(t *testing.T) {
	const source = `[vertex]
void VS_Main() {
}

[pixel]
void PS_Main() {
}

technique Tech {
  pass P0 {
    vertex VS_Main;
    pixel PS_Main;
  }
  pass P1 {
    vertex VS_Main;
  }
}
`
	compiler := &faketest.Backend{}
	b := newTestBuilder(compiler)
	ctx := context.Background()

	wassert.For(t, "add repo error").That(b.AddRepo(ctx, "fx.wfx", source)).IsNil()
	def, _, err := b.GetDefinition(ctx)
	wassert.For(t, "get definition error").That(err).IsNil()

	wassert.For(t, "one effect registered").That(len(def.Registry.Effects)).Equals(1)
	passGroupID := def.Registry.Effects[0].PassGroupID
	passGroup := def.Registry.IDGroups[passGroupID]
	wassert.For(t, "two passes in the technique").That(len(passGroup)).Equals(2)
}

// S5: re-adding an identical repo against an ingested cache is a cache hit
// and never calls the backend again.
func TestIdenticalRepoIsCacheHit(t *testing.T) {
	const source = `[vertex]
void VS_Main() {
  int a = 1;
}
`
	ctx := context.Background()
	compiler := &faketest.Backend{}
	first := newTestBuilder(compiler)
	wassert.For(t, "first add repo error").That(first.AddRepo(ctx, "v.wfx", source)).IsNil()
	cached, _, err := first.GetDefinition(ctx)
	wassert.For(t, "first get definition error").That(err).IsNil()
	firstCallCount := compiler.CallCount

	second := newTestBuilder(compiler)
	second.SetCache(ctx, &cached)
	wassert.For(t, "second add repo error").That(second.AddRepo(ctx, "v.wfx", source)).IsNil()
	_, stats, err := second.GetDefinition(ctx)
	wassert.For(t, "second get definition error").That(err).IsNil()

	wassert.For(t, "cache hit recorded").That(stats.CachedRepoCount).Equals(1)
	wassert.For(t, "backend not invoked again").That(compiler.CallCount).Equals(firstCallCount)
}

// Every repo's shader/effect variant refs must be stamped with that
// repo's own position in the builder, not always repo 0, since
// runtime.ShaderLibMap indexes its per-repo config tables by this field.
func TestSecondRepoVariantsCarryItsOwnRepoIndex(t *testing.T) {
	const sourceA = `[vertex]
void VS_MainA() {
}
`
	const sourceB = `[vertex]
void VS_MainB() {
}
`
	compiler := &faketest.Backend{}
	b := newTestBuilder(compiler)
	ctx := context.Background()

	wassert.For(t, "add repo A error").That(b.AddRepo(ctx, "a.wfx", sourceA)).IsNil()
	wassert.For(t, "add repo B error").That(b.AddRepo(ctx, "b.wfx", sourceB)).IsNil()

	def, _, err := b.GetDefinition(ctx)
	wassert.For(t, "get definition error").That(err).IsNil()
	wassert.For(t, "repo count").That(len(def.Repos)).Equals(2)

	firstRef := def.Repos[0].Variants[0].Shaders[0].VariantID
	secondRef := def.Repos[1].Variants[0].Shaders[0].VariantID
	wassert.For(t, "first repo stamps repo index 0").That(firstRef.RepoIndex()).Equals(uint32(0))
	wassert.For(t, "second repo stamps its own repo index").That(secondRef.RepoIndex()).Equals(uint32(1))
}

// S6: a technique declaring both a defaulted pass and an explicit pass is
// a syntax error.
func TestDefaultedAndExplicitPassConflict(t *testing.T) {
	const source = `[vertex]
void VS_Main() {
}

technique Tech {
  vertex VS_Main;
  pass P0 {
    vertex VS_Main;
  }
}
`
	compiler := &faketest.Backend{}
	b := newTestBuilder(compiler)
	ctx := context.Background()

	err := b.AddRepo(ctx, "fx.wfx", source)
	wassert.For(t, "conflicting pass forms is an error").That(err).IsNotNil()
}
