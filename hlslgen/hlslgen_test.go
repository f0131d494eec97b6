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

package hlslgen

import (
	"strings"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/lex"
	"github.com/weavefx/wfxc/parse"
)

func parseSource(t *testing.T, source string) (*parse.Store, []byte, []lex.LexBlock) {
	t.Helper()
	a, err := lex.Analyze("t.wfx", source)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	store, err := parse.NewBuilder(a.Blocks, a.Source(), "t.wfx").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return store, a.Source(), a.Blocks
}

func findFuncDef(store *parse.Store, name string) parse.SymbolID {
	for i, sym := range store.Symbols {
		if sym.Name == name && sym.Flags.Has(parse.FuncDefinition) {
			return parse.SymbolID(i)
		}
	}
	return parse.InvalidSymbolID
}

// P6 (global hoisting): a loose global referenced from main is hoisted
// into a synthesized constant buffer, bracketed by #line directives so
// original line numbers stay reachable across the altered line count.
func TestGenerateHoistsGlobalsWithLineDirectives(t *testing.T) {
	const source = `float g_Intensity;

[vertex]
void VS_Main() {
  float x = g_Intensity;
}
`
	store, src, blocks := parseSource(t, source)
	target := findFuncDef(store, "VS_Main")
	wassert.For(t, "VS_Main found").That(target != parse.InvalidSymbolID).Equals(true)

	out, err := Generate(store, src, blocks, target, nil)
	wassert.For(t, "generate error").That(err).IsNil()

	if !strings.Contains(out, "cbuffer _EffectGlobals {") {
		t.Errorf("output missing synthesized globals cbuffer:\n%s", out)
	}
	if !strings.Contains(out, "#line") {
		t.Errorf("output missing #line directive around the hoisted global:\n%s", out)
	}
	if !strings.Contains(out, "x = g_Intensity") {
		t.Errorf("output lost the entrypoint body referencing the hoisted global:\n%s", out)
	}
}

// P6 / spec §4.7: every entrypoint other than the target is masked out of
// the generated translation unit entirely.
func TestGenerateMasksOtherEntrypoints(t *testing.T) {
	const source = `[vertex]
void VS_Main() {
  int a = 1;
}

[pixel]
void PS_Main() {
  int b = 2;
}
`
	store, src, blocks := parseSource(t, source)
	target := findFuncDef(store, "VS_Main")
	other := findFuncDef(store, "PS_Main")

	out, err := Generate(store, src, blocks, target, []parse.SymbolID{target, other})
	wassert.For(t, "generate error").That(err).IsNil()

	if strings.Contains(out, "PS_Main") {
		t.Errorf("output retained the masked PS_Main entrypoint:\n%s", out)
	}
	if !strings.Contains(out, "VS_Main") || !strings.Contains(out, "a = 1") {
		t.Errorf("output lost the target VS_Main entrypoint:\n%s", out)
	}
}
