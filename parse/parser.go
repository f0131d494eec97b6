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
	"strings"

	"github.com/weavefx/wfxc/lex"
	"github.com/weavefx/wfxc/wfxerr"
)

// Builder drives one parse of a block sequence into a Store (spec §4.6.3).
type Builder struct {
	Store  Store
	blocks []lex.LexBlock
	source []byte
	file   string
}

// NewBuilder prepares a Builder over one repo/config's analyzed blocks.
func NewBuilder(blocks []lex.LexBlock, source []byte, file string) *Builder {
	b := &Builder{blocks: blocks, source: source, file: file}
	b.Store.Scopes = append(b.Store.Scopes, *newScope(InvalidScopeID, InvalidSymbolID))
	return b
}

// Parse runs the parse loop over the whole block sequence, starting in the
// global scope (spec §4.6.3 step 1).
func (b *Builder) Parse() (*Store, error) {
	if err := b.parseRange(0, len(b.blocks), GlobalScopeID); err != nil {
		return nil, err
	}
	return &b.Store, nil
}

func (b *Builder) blockText(i int) string {
	blk := b.blocks[i]
	return string(b.source[blk.Start:blk.End])
}

// parseRange walks [lo, hi) of the block sequence within scopeID, matching
// declarations and recursing into nested scopes (spec §4.6.3 step 1-2).
func (b *Builder) parseRange(lo, hi int, scopeID ScopeID) error {
	i := lo
	var pendingAttrs []string
	for i < hi {
		blk := b.blocks[i]

		if blk.Type.Has(lex.Directive) {
			i++
			continue
		}

		if blk.Type.Has(lex.StartBracket) && (i == 0 || !b.blocks[i-1].Type.Has(lex.BracketPreamble)) {
			end := lex.MatchEnd(b.blocks, i)
			if end < 0 {
				return wfxerr.NewSyntaxError("unterminated attribute", b.file, blk.StartLine, i)
			}
			pendingAttrs = append(pendingAttrs, attrInnerText(b, i+1, end))
			i = end + 1
			continue
		}

		if blk.Type.Has(lex.StartContainer) {
			end := lex.MatchEnd(b.blocks, i)
			if end < 0 {
				return wfxerr.NewSyntaxError("unterminated container", b.file, blk.StartLine, i)
			}
			if blk.Type.Has(lex.Scope) {
				child := b.pushAnonymousScope(scopeID, i, end)
				if err := b.parseRange(i+1, end, child); err != nil {
					return err
				}
			}
			pendingAttrs = nil
			i = end + 1
			continue
		}

		next, ok, err := b.tryStatement(i, hi, scopeID, pendingAttrs)
		if err != nil {
			return err
		}
		if ok {
			pendingAttrs = nil
			i = next
			continue
		}
		i++
	}
	return nil
}

func attrInnerText(b *Builder, lo, hi int) string {
	if lo >= hi {
		return ""
	}
	start := b.blocks[lo].Start
	end := b.blocks[hi-1].End
	return strings.TrimSpace(string(b.source[start:end]))
}

func (b *Builder) pushAnonymousScope(parent ScopeID, startBlock, endBlock int) ScopeID {
	sc := newScope(parent, InvalidSymbolID)
	sc.BlockStart = startBlock
	sc.BlockCount = endBlock - startBlock + 1
	id := ScopeID(len(b.Store.Scopes))
	b.Store.Scopes = append(b.Store.Scopes, *sc)
	return id
}

// pushScope creates a scope owned by symID, for a matched declaration with
// a body (struct, cbuffer, technique, pass, weave block, function def).
func (b *Builder) pushScope(parent ScopeID, symID SymbolID, startBlock, endBlock int) ScopeID {
	sc := newScope(parent, symID)
	sc.BlockStart = startBlock
	sc.BlockCount = endBlock - startBlock + 1
	id := ScopeID(len(b.Store.Scopes))
	b.Store.Scopes = append(b.Store.Scopes, *sc)
	return id
}

// addToken appends a token and returns its ID. ChildStart/SymbolID default
// to their Invalid sentinels unless the caller fills them in afterward.
func (b *Builder) addToken(t Token) TokenID {
	t.ChildStart = InvalidTokenID
	t.SymbolID = InvalidSymbolID
	t.SubtypeID = -1
	id := TokenID(len(b.Store.Tokens))
	b.Store.Tokens = append(b.Store.Tokens, t)
	return id
}

// addSymbol appends a symbol, links it to scopeID's name table (erroring
// on redefinition per spec §4.6.3 edge policy), and returns its ID.
func (b *Builder) addSymbol(scopeID ScopeID, sym Symbol, line int) (SymbolID, error) {
	scope := &b.Store.Scopes[scopeID]
	if existing, ok := scope.NameToSymbol[sym.Name]; ok {
		prev := b.Store.Symbols[existing]
		if !(prev.Flags.Has(FuncDeclaration) && sym.Flags.Has(FuncDefinition)) {
			return InvalidSymbolID, wfxerr.NewSyntaxError("redefinition of \""+sym.Name+"\"", b.file, line, -1)
		}
	}
	sym.ContainingScope = scopeID
	id := SymbolID(len(b.Store.Symbols))
	b.Store.Symbols = append(b.Store.Symbols, sym)
	if !sym.Flags.Has(SymArgument) { // parameters are deferred to the function body scope
		scope.NameToSymbol[sym.Name] = id
	}
	return id, nil
}

func (b *Builder) addFuncOverload(scopeID ScopeID, name, signature string, symID SymbolID) {
	scope := &b.Store.Scopes[scopeID]
	scope.FuncOverloads[name] = append(scope.FuncOverloads[name], symID)
	_ = signature // signature strings are recomputed on demand by LookupOverload; kept simple here
}
