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
	"fmt"

	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/parse"
	"github.com/weavefx/wfxc/preprocess"
	"github.com/weavefx/wfxc/wfxerr"
)

// entrypoint is one discovered shader entrypoint (spec §4.8.1).
type entrypoint struct {
	Name       string
	Stage      model.ShaderStage
	FuncSymbol parse.SymbolID
}

func stageFromSymbolFlags(f parse.SymbolTypes) (model.ShaderStage, bool) {
	switch {
	case f.Has(parse.SymVertex):
		return model.StageVertex, true
	case f.Has(parse.SymHull):
		return model.StageHull, true
	case f.Has(parse.SymDomain):
		return model.StageDomain, true
	case f.Has(parse.SymGeometry):
		return model.StageGeometry, true
	case f.Has(parse.SymPixel):
		return model.StagePixel, true
	case f.Has(parse.SymCompute):
		return model.StageCompute, true
	}
	return 0, false
}

// extractEntrypoints implements spec §4.8.1: attribute-tagged functions
// first, then pragma-declared names resolved against the global scope,
// then shader-block-form symbols resolved against their own scope —
// deduplicated by name, in that discovery order.
func extractEntrypoints(store *parse.Store, pragmaDecls []preprocess.PragmaEntrypoint) ([]entrypoint, error) {
	seen := make(map[string]bool)
	var out []entrypoint

	for i, sym := range store.Symbols {
		if !sym.Flags.Has(parse.FuncDefinition) || seen[sym.Name] {
			continue
		}
		tok := store.Tokens[sym.IdentTokenID]
		if !tok.Type.Has(parse.TokAttribShaderDecl) {
			continue
		}
		stage, ok := parse.StageFromTokenType(tok.Type)
		if !ok {
			continue
		}
		seen[sym.Name] = true
		out = append(out, entrypoint{Name: sym.Name, Stage: stage, FuncSymbol: parse.SymbolID(i)})
	}

	for _, d := range pragmaDecls {
		if seen[d.Name] {
			continue
		}
		overloads := store.Scopes[parse.GlobalScopeID].FuncOverloads[d.Name]
		if len(overloads) == 0 {
			return nil, wfxerr.NewSyntaxError(fmt.Sprintf("pragma entrypoint %q has no matching function definition", d.Name), "", 0, -1)
		}
		seen[d.Name] = true
		out = append(out, entrypoint{Name: d.Name, Stage: d.Stage, FuncSymbol: overloads[0]})
	}

	for i, sym := range store.Symbols {
		if !sym.Flags.Has(parse.ShaderBlockDef) || seen[sym.Name] {
			continue
		}
		stage, _ := stageFromSymbolFlags(sym.Flags)
		scope := store.Scopes[sym.ScopeID]
		overloads := scope.FuncOverloads[sym.Name]
		if len(overloads) == 0 {
			return nil, wfxerr.NewSyntaxError(fmt.Sprintf("shader block %q declares no matching function definition", sym.Name), "", 0, -1)
		}
		seen[sym.Name] = true
		out = append(out, entrypoint{Name: sym.Name, Stage: stage, FuncSymbol: overloads[0]})
		_ = i
	}

	return out, nil
}
