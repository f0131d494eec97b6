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
	"fmt"

	"github.com/weavefx/wfxc/internal/wlog"
	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/parse"
	"github.com/weavefx/wfxc/registry"
	"github.com/weavefx/wfxc/wfxerr"
)

// namedEffect pairs an EffectDef with its technique's source name, left
// unInterned here since this package has no interner dependency (kept
// symmetric with hlslgen's separation of concerns); the caller interns
// Name into the EffectDef's NameID.
type namedEffect struct {
	Name string
	Def  model.EffectDef
}

// extractEffects implements spec §4.8.2: for each technique symbol, a
// defaulted pass (bare shader references at technique scope) and
// explicit pass sub-scopes are mutually exclusive; whichever form is
// used, its shader references are resolved by name against shaderByName
// (built from this config's extracted entrypoints+compiled shaders) and
// assembled into nested ID groups (pass -> shaders, technique -> passes).
func extractEffects(ctx context.Context, reg *registry.Builder, store *parse.Store, shaderByName map[string]model.ShaderID) ([]namedEffect, error) {
	var out []namedEffect

	for i, techSym := range store.Symbols {
		if !techSym.Flags.Has(parse.TechniqueDef) {
			continue
		}
		techScope := techSym.ScopeID

		var defaulted []parse.SymbolID
		var passes []parse.SymbolID
		for j, sym := range store.Symbols {
			if sym.ContainingScope != techScope {
				continue
			}
			switch {
			case sym.Flags.Has(parse.PassDef):
				passes = append(passes, parse.SymbolID(j))
			case sym.Flags.Has(parse.SymShader) && sym.Flags.Has(parse.SymDeclaration):
				defaulted = append(defaulted, parse.SymbolID(j))
			}
		}

		if len(defaulted) > 0 && len(passes) > 0 {
			line := store.Tokens[techSym.IdentTokenID].BlockStart
			return nil, wfxerr.NewSyntaxError(fmt.Sprintf("technique %q declares both a defaulted pass and explicit passes", techSym.Name), "", 0, line)
		}

		var passGroupIDs []uint32
		if len(defaulted) > 0 {
			wlog.Wrap(ctx).With("technique", techSym.Name).Debug().Logf("synthesizing %s from %d technique-scope shader(s)", model.DefaultedPassName, len(defaulted))
			shaderIDs, err := resolvePassShaders(store, shaderByName, defaulted)
			if err != nil {
				return nil, err
			}
			passGroupIDs = append(passGroupIDs, uint32(reg.GetOrAddIDGroup(shaderIDs)))
		} else {
			for _, passSymID := range passes {
				passSym := store.Symbols[passSymID]
				var members []parse.SymbolID
				for j, sym := range store.Symbols {
					if sym.ContainingScope == passSym.ScopeID && sym.Flags.Has(parse.SymShader) && sym.Flags.Has(parse.SymDeclaration) {
						members = append(members, parse.SymbolID(j))
					}
				}
				shaderIDs, err := resolvePassShaders(store, shaderByName, members)
				if err != nil {
					return nil, err
				}
				passGroupIDs = append(passGroupIDs, uint32(reg.GetOrAddIDGroup(shaderIDs)))
			}
		}

		passGroup := reg.GetOrAddIDGroup(passGroupIDs)
		out = append(out, namedEffect{Name: techSym.Name, Def: model.EffectDef{PassGroupID: passGroup, NameID: model.InvalidStringID}})
		_ = i
	}

	return out, nil
}

func resolvePassShaders(store *parse.Store, shaderByName map[string]model.ShaderID, members []parse.SymbolID) ([]uint32, error) {
	out := make([]uint32, 0, len(members))
	for _, symID := range members {
		sym := store.Symbols[symID]
		id, ok := shaderByName[sym.Name]
		if !ok {
			return nil, wfxerr.NewSyntaxError(fmt.Sprintf("pass references unknown shader %q", sym.Name), "", 0, -1)
		}
		out = append(out, uint32(id))
	}
	return out, nil
}
