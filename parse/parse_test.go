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

package parse

import (
	"reflect"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/lex"
)

// P5: running the parser twice over the same block sequence produces
// token/symbol/scope arrays that are equal element-wise.
func TestParseIsDeterministic(t *testing.T) {
	const source = `
[compute]
[numthreads(8,8,1)]
void CS_Main(uint3 id : SV_DispatchThreadID) {
  int x = 1;
}
`
	runOnce := func() *Store {
		a, err := lex.Analyze("t.wfx", source)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		store, err := NewBuilder(a.Blocks, a.Source(), "t.wfx").Parse()
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		return store
	}

	s1 := runOnce()
	s2 := runOnce()

	wassert.For(t, "tokens").That(s1.Tokens).Equals(s2.Tokens)
	wassert.For(t, "symbols").That(s1.Symbols).Equals(s2.Symbols)
	if !reflect.DeepEqual(s1.Scopes, s2.Scopes) {
		t.Errorf("scopes differ between two parses of the same input:\n%+v\nvs\n%+v", s1.Scopes, s2.Scopes)
	}
}

// S2: a single attribute-tagged compute entrypoint parses to a function
// definition symbol carrying the compute stage tag.
func TestParseComputeEntrypointSymbol(t *testing.T) {
	const source = `
[compute]
void CS_Main(uint3 id : SV_DispatchThreadID) {
}
`
	a, err := lex.Analyze("t.wfx", source)
	wassert.For(t, "analyze error").That(err).IsNil()
	store, err := NewBuilder(a.Blocks, a.Source(), "t.wfx").Parse()
	wassert.For(t, "parse error").That(err).IsNil()

	var found *Symbol
	for i := range store.Symbols {
		if store.Symbols[i].Name == "CS_Main" {
			found = &store.Symbols[i]
		}
	}
	wassert.For(t, "CS_Main symbol found").That(found != nil).Equals(true)
	if found != nil {
		wassert.For(t, "CS_Main is a function definition").That(found.Flags.Has(FuncDefinition)).Equals(true)
	}
}
