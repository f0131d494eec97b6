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

package preprocess

import (
	"strings"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
)

type mapIncluder map[string]string

func (m mapIncluder) Include(path string) (string, bool) {
	content, ok := m[path]
	return content, ok
}

func TestScanCollectsFlagsModesAndEntrypoints(t *testing.T) {
	const source = `#pragma flags FEATURE_A FEATURE_B
#pragma modes MODE_LOW MODE_HIGH
#pragma vertex VS_Main
#pragma pixel PS_Main
`
	p := New(mapIncluder{})
	err := p.Scan("t.wfx", source)
	wassert.For(t, "scan error").That(err).IsNil()

	decls := p.Declarations()
	wassert.For(t, "flag count").That(len(decls.FlagNames)).Equals(2)
	wassert.For(t, "mode count").That(len(decls.ModeNames)).Equals(2)
	wassert.For(t, "entrypoint count").That(len(decls.Entrypoints)).Equals(2)

	// VariantCount = (1 << FC) * MC = 4 * 2 = 8.
	wassert.For(t, "variant count").That(p.VariantCount()).Equals(8)
}

func TestScanRejectsFlagRedefinition(t *testing.T) {
	const source = `#pragma flags FEATURE_A
#pragma flags FEATURE_A
`
	p := New(mapIncluder{})
	err := p.Scan("t.wfx", source)
	wassert.For(t, "redefinition error").That(err).IsNotNil()
}

func TestScanFollowsIncludesForPragmas(t *testing.T) {
	inc := mapIncluder{
		"common.wfxh": "#pragma flags SHARED_FLAG\n",
	}
	const source = `#include "common.wfxh"
#pragma flags LOCAL_FLAG
`
	p := New(inc)
	err := p.Scan("t.wfx", source)
	wassert.For(t, "scan error").That(err).IsNil()
	wassert.For(t, "flag count across includes").That(len(p.Declarations().FlagNames)).Equals(2)
}

// spec §4.4.1: every variant gets the unconditional default mode macro.
func TestGenerateAlwaysDefinesDefaultModeMacro(t *testing.T) {
	const source = `#ifdef WFX_DEFAULT_VARIANT
int defaulted = 1;
#endif
`
	p := New(mapIncluder{})
	wassert.For(t, "scan error").That(p.Scan("t.wfx", source)).IsNil()

	out, err := p.Generate("t.wfx", source, 0)
	wassert.For(t, "generate error").That(err).IsNil()
	wassert.For(t, "default mode branch emitted").That(strings.Contains(out, "int defaulted = 1;")).Equals(true)
}

// A #if flag-gated region is included only for configs with that flag bit
// set, and excluded (but line-count preserving) otherwise.
func TestGenerateGatesOnFlagBit(t *testing.T) {
	const source = `#pragma flags FEATURE_A
#if FEATURE_A
int withFeature = 1;
#else
int withoutFeature = 1;
#endif
`
	p := New(mapIncluder{})
	wassert.For(t, "scan error").That(p.Scan("t.wfx", source)).IsNil()

	offOut, err := p.Generate("t.wfx", source, 0)
	wassert.For(t, "generate error (flag off)").That(err).IsNil()
	wassert.For(t, "flag off: else branch present").That(strings.Contains(offOut, "withoutFeature")).Equals(true)
	wassert.For(t, "flag off: if branch absent").That(strings.Contains(offOut, "withFeature = 1")).Equals(false)

	onOut, err := p.Generate("t.wfx", source, 1)
	wassert.For(t, "generate error (flag on)").That(err).IsNil()
	wassert.For(t, "flag on: if branch present").That(strings.Contains(onOut, "withFeature = 1")).Equals(true)
	wassert.For(t, "flag on: else branch absent").That(strings.Contains(onOut, "withoutFeature")).Equals(false)

	wassert.For(t, "line count preserved across variants").
		That(strings.Count(offOut, "\n")).Equals(strings.Count(onOut, "\n"))
}

func TestGenerateExpandsObjectAndFunctionMacros(t *testing.T) {
	const source = `#define SCALE 2
#define ADD(a, b) ((a) + (b))
int total = ADD(SCALE, 3);
`
	p := New(mapIncluder{})
	wassert.For(t, "scan error").That(p.Scan("t.wfx", source)).IsNil()

	out, err := p.Generate("t.wfx", source, 0)
	wassert.For(t, "generate error").That(err).IsNil()
	wassert.For(t, "macro expansion").That(strings.Contains(out, "int total = ((2) + (3));")).Equals(true)
}
