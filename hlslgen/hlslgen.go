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

// Package hlslgen implements the HLSL generator (spec §4.7): given a
// per-variant token/symbol/scope table and its source blocks, it masks
// every Weave-specific construct and every entrypoint but one, re-emits
// a single `main`, and synthesizes a constant buffer for loose globals.
package hlslgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/weavefx/wfxc/lex"
	"github.com/weavefx/wfxc/parse"
)

// mask is one source-mask entry (spec §4.7 "source-mask list").
type mask struct {
	altText    string
	startBlock int
	blockCount int
}

func (m mask) lastBlock() int { return m.startBlock + m.blockCount - 1 }

// Generate emits the single-entrypoint HLSL translation unit for target,
// one of the SymbolIDs in store.Symbols flagged FuncDefinition and
// reachable as an entrypoint (spec §4.7). otherEntrypoints lists every
// other entrypoint symbol in the repo/config, used to mask them out.
func Generate(store *parse.Store, source []byte, blocks []lex.LexBlock, target parse.SymbolID, otherEntrypoints []parse.SymbolID) (string, error) {
	targetSym := store.Symbols[target]
	if !targetSym.Flags.Has(parse.FuncDefinition) {
		return "", fmt.Errorf("hlslgen: target symbol %q is not a function definition", targetSym.Name)
	}

	globals := collectGlobals(store, targetSym.ScopeID)

	var masks []mask

	for _, tok := range store.Tokens {
		if !tok.Type.Has(parse.TokAttribShaderDecl) {
			continue
		}
		// mask the `[stage]` attribute brackets ahead of the function;
		// other attributes (e.g. numthreads) stay in the output.
		for end := tok.BlockStart - 1; end > 0 && blocks[end].Type.Has(lex.SquareBrackets|lex.EndContainer); {
			start := end
			for start > 0 && !blocks[start].Type.Has(lex.StartBracket) {
				start--
			}
			switch strings.ToLower(strings.TrimSpace(blockRangeText(source, blocks, start+1, end-start-1))) {
			case "vertex", "hull", "domain", "geometry", "pixel", "compute":
				masks = append(masks, mask{startBlock: start, blockCount: end - start + 1})
			}
			end = start - 1
		}
	}

	otherSet := make(map[parse.SymbolID]bool, len(otherEntrypoints))
	for _, id := range otherEntrypoints {
		if id != target {
			otherSet[id] = true
		}
	}

	for symID, sym := range store.Symbols {
		id := parse.SymbolID(symID)
		switch {
		case id == target:
			if inWeaveBlock(store, sym) {
				// main stays inside its Weave block: mask only the
				// block's open/close markers, keeping the body.
				owner := weaveOwner(store, sym)
				scope := store.Scopes[store.Symbols[owner].ScopeID]
				masks = append(masks, mask{startBlock: scope.BlockStart, blockCount: 1})
				endIdx := scope.BlockStart + scope.BlockCount - 1
				masks = append(masks, mask{startBlock: endIdx, blockCount: 1})
			}
		case otherSet[id]:
			masks = append(masks, mask{startBlock: funcSpanStart(store, sym), blockCount: funcSpanCount(store, sym)})
		case sym.Flags.Has(parse.SymWeave) && !sym.Flags.Has(parse.SymShader):
			// techniques, passes, generic weave blocks: masked entirely.
			masks = append(masks, mask{startBlock: funcSpanStart(store, sym), blockCount: funcSpanCount(store, sym)})
		}
	}

	if len(globals) > 0 {
		var sb strings.Builder
		sb.WriteString("cbuffer _EffectGlobals {\n")
		for _, g := range globals {
			sb.WriteString(blockRangeText(source, blocks, g.BlockStart, g.BlockCount))
			sb.WriteString("\n")
		}
		sb.WriteString("}")
		// The replacement text for every original global declaration lands
		// on the first one; the rest are simply deleted, so the cbuffer
		// appears once, at the position of the first declared global.
		masks = append(masks, mask{altText: sb.String(), startBlock: globals[0].BlockStart, blockCount: globals[0].BlockCount})
		for _, g := range globals[1:] {
			masks = append(masks, mask{startBlock: g.BlockStart, blockCount: g.BlockCount})
		}
	}

	masks = resolveOverlaps(masks)
	return emit(source, blocks, masks), nil
}

// collectGlobals walks every ancestor scope of funcScope and returns the
// identifier tokens of every plain variable symbol visible from main,
// sorted by symbol ID for stability (spec §4.7).
func collectGlobals(store *parse.Store, funcScope parse.ScopeID) []parse.Token {
	type entry struct {
		id  parse.SymbolID
		tok parse.Token
	}
	var found []entry
	scopeID := store.Scopes[funcScope].ParentScopeID
	for scopeID != parse.InvalidScopeID {
		scope := store.Scopes[scopeID]
		for _, symID := range scope.NameToSymbol {
			sym := store.Symbols[symID]
			if sym.Flags.Has(parse.VariableAssignDef) && !sym.Flags.Has(parse.SymArgument) {
				found = append(found, entry{id: symID, tok: store.Tokens[sym.IdentTokenID]})
			}
		}
		scopeID = scope.ParentScopeID
	}
	sort.Slice(found, func(i, j int) bool { return found[i].id < found[j].id })
	out := make([]parse.Token, len(found))
	for i, e := range found {
		out[i] = e.tok
	}
	return out
}

func inWeaveBlock(store *parse.Store, sym parse.Symbol) bool {
	return weaveOwner(store, sym) != parse.InvalidSymbolID
}

// weaveOwner returns the SymbolID of the nearest ancestor scope's owning
// symbol if it is a ShaderBlockDef, else InvalidSymbolID.
func weaveOwner(store *parse.Store, sym parse.Symbol) parse.SymbolID {
	tok := store.Tokens[sym.IdentTokenID]
	scopeID := scopeContaining(store, tok.BlockStart)
	if scopeID == parse.InvalidScopeID {
		return parse.InvalidSymbolID
	}
	owner := store.Scopes[scopeID].SymbolID
	if owner == parse.InvalidSymbolID {
		return parse.InvalidSymbolID
	}
	if store.Symbols[owner].Flags.Has(parse.ShaderBlockDef) {
		return owner
	}
	return parse.InvalidSymbolID
}

func scopeContaining(store *parse.Store, blockIdx int) parse.ScopeID {
	best := parse.InvalidScopeID
	for i, sc := range store.Scopes {
		if blockIdx >= sc.BlockStart && blockIdx < sc.BlockStart+sc.BlockCount {
			if best == parse.InvalidScopeID || sc.BlockCount < store.Scopes[best].BlockCount {
				best = parse.ScopeID(i)
			}
		}
	}
	return best
}

// funcSpanStart/funcSpanCount approximate "the entire block this symbol
// declares": from its identifier token's first block through the end of
// the scope it owns (its body), if any.
func funcSpanStart(store *parse.Store, sym parse.Symbol) int {
	return store.Tokens[sym.IdentTokenID].BlockStart
}

func funcSpanCount(store *parse.Store, sym parse.Symbol) int {
	start := funcSpanStart(store, sym)
	if sym.ScopeID == parse.InvalidScopeID {
		return store.Tokens[sym.IdentTokenID].BlockCount
	}
	scope := store.Scopes[sym.ScopeID]
	end := scope.BlockStart + scope.BlockCount
	if end <= start {
		return store.Tokens[sym.IdentTokenID].BlockCount
	}
	return end - start
}

// resolveOverlaps sorts by last-block ascending and walks backwards,
// nullifying or truncating earlier masks that overlap a later one
// (spec §4.7 "Resolve mask overlaps").
func resolveOverlaps(masks []mask) []mask {
	sort.SliceStable(masks, func(i, j int) bool { return masks[i].lastBlock() < masks[j].lastBlock() })
	for i := len(masks) - 1; i > 0; i-- {
		later := masks[i]
		for j := i - 1; j >= 0; j-- {
			earlier := masks[j]
			if earlier.blockCount == 0 {
				continue
			}
			if earlier.lastBlock() < later.startBlock {
				break
			}
			if earlier.startBlock >= later.startBlock {
				masks[j].blockCount = 0 // earlier is a subset/duplicate: nullify
				continue
			}
			masks[j].blockCount = later.startBlock - earlier.startBlock
		}
	}
	out := masks[:0]
	for _, m := range masks {
		if m.blockCount > 0 || m.altText != "" {
			out = append(out, m)
		}
	}
	return out
}

func blockRangeText(source []byte, blocks []lex.LexBlock, start, count int) string {
	if count <= 0 {
		return ""
	}
	lo := blocks[start].Start
	hi := blocks[start+count-1].End
	return string(source[lo:hi])
}

// emit walks blocks in order, reproducing original text between masks
// verbatim and substituting each mask's alt-text, bracketed by #line
// directives back to the original line numbers (spec §4.7).
func emit(source []byte, blocks []lex.LexBlock, masks []mask) string {
	byStart := make(map[int]mask, len(masks))
	for _, m := range masks {
		byStart[m.startBlock] = m
	}

	var sb strings.Builder
	lastEmittedLine := -1
	prevEnd := -1 // source offset just past the last block copied or dropped
	i := 0
	for i < len(blocks) {
		if m, ok := byStart[i]; ok {
			prevEnd = -1
			if m.altText != "" {
				sb.WriteString(fmt.Sprintf("#line %d\n", blocks[i].StartLine))
				sb.WriteString(m.altText)
				sb.WriteString("\n")
				if m.blockCount > 0 {
					endLine := blocks[i+m.blockCount-1].StartLine + blocks[i+m.blockCount-1].LineCount
					sb.WriteString(fmt.Sprintf("#line %d\n", endLine))
				}
				lastEmittedLine = -1
			}
			if m.blockCount > 0 {
				if m.altText == "" {
					prevEnd = blocks[i+m.blockCount-1].End
				}
				i += m.blockCount
			} else {
				i++
			}
			continue
		}
		blk := blocks[i]
		if prevEnd >= 0 {
			sb.Write(source[prevEnd:blk.Start])
		}
		if lastEmittedLine >= 0 && blk.StartLine-lastEmittedLine > 3 {
			sb.WriteString(fmt.Sprintf("#line %d\n", blk.StartLine))
		}
		sb.Write(source[blk.Start:blk.End])
		prevEnd = blk.End
		lastEmittedLine = blk.StartLine + blk.LineCount
		i++
	}
	return sb.String()
}
