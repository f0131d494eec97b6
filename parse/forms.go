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
	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/wfxerr"
)

// stageKeywords maps the six stage-block leading keywords to their stage
// (spec §4.2 pragma vocabulary reused as block keywords in-body).
var stageKeywords = map[string]model.ShaderStage{
	"vertex":   model.StageVertex,
	"hull":     model.StageHull,
	"domain":   model.StageDomain,
	"geometry": model.StageGeometry,
	"pixel":    model.StagePixel,
	"compute":  model.StageCompute,
}

// stripTerminator removes a trailing statement-terminating character that
// scanExpression folded into the block's span (spec §4.5 "Preamble").
func stripTerminator(text string, t lex.BlockType) string {
	if t.Has(lex.Separator) && len(text) > 0 {
		return strings.TrimRight(text[:len(text)-1], " \t\r\n")
	}
	return text
}

func words(text string) []string {
	return strings.Fields(text)
}

// tryStatement attempts to recognize exactly one declaration or definition
// starting at block index i, returning the index just past what it
// consumed (spec §4.6.3 steps 2-5). ok is false when nothing in the
// catalogue matches the block at i, in which case the caller advances by
// one block and keeps scanning — unrecognized expression/statement text is
// not modeled.
func (b *Builder) tryStatement(i, hi int, scopeID ScopeID, attrs []string) (int, bool, error) {
	blk := b.blocks[i]

	if blk.Type.Has(lex.ScopePreamble) {
		return b.tryScopedForm(i, hi, scopeID, attrs)
	}

	// A bare Scope-starting block with no Preamble text at all (e.g. `{` at
	// statement position with nothing ahead of it) was already handled by
	// parseRange's anonymous-scope branch before we get here.

	if blk.Type.Any(lex.Preamble) || blk.Type.Has(lex.SemicolonSeparator) {
		return b.tryFuncOrVarForm(i, hi, scopeID, attrs)
	}

	return i, false, nil
}

// tryScopedForm recognizes `<keyword...> <name> { ... }` declarations:
// struct, cbuffer, technique, pass, weave, and the six stage blocks,
// including the `typedef struct { ... } Alias;` variant (spec §4.3, §4.6.2).
func (b *Builder) tryScopedForm(i, hi int, scopeID ScopeID, attrs []string) (int, bool, error) {
	blk := b.blocks[i]
	end := lex.MatchEnd(b.blocks, i)
	if end < 0 {
		return i, false, wfxerr.NewSyntaxError("unterminated scope", b.file, blk.StartLine, i)
	}

	head := words(stripTerminator(b.blockText(i), blk.Type))
	isTypedef := len(head) > 0 && head[0] == "typedef"
	if isTypedef {
		head = head[1:]
	}
	if len(head) == 0 {
		return i, false, nil
	}

	var flags SymbolTypes
	var stage model.ShaderStage
	hasStage := false
	var name string

	switch head[0] {
	case "struct":
		flags = StructDef
		if len(head) > 1 {
			name = head[len(head)-1]
		}
	case "cbuffer":
		flags = ConstBufDef
		if len(head) > 1 {
			name = head[1]
		}
	case "technique":
		flags = TechniqueDef
		if len(head) > 1 {
			name = head[1]
		}
	case "pass":
		flags = PassDef
		if len(head) > 1 {
			name = head[1]
		}
	case "weave":
		flags = SymWeave | SymDefinition | SymScope
		if len(head) > 1 {
			name = head[1]
		}
	default:
		if st, ok := stageKeywords[head[0]]; ok {
			flags = ShaderBlockDef | SymStageTag(st)
			stage = st
			hasStage = true
			if len(head) > 1 {
				name = head[1]
			}
		} else {
			return i, false, nil
		}
	}

	anonymous := name == ""
	if anonymous {
		flags |= SymAnonymous
	}

	// typedef-struct: the alias name follows the closing brace, e.g.
	// `typedef struct { ... } Alias;`. Look past the closing scope block
	// for a terminal Semicolon Preamble carrying the alias.
	consumeTo := end
	if isTypedef {
		if end+1 < hi && b.blocks[end+1].Type.Has(lex.SemicolonSeparator) {
			aliasWords := words(stripTerminator(b.blockText(end+1), b.blocks[end+1].Type))
			if len(aliasWords) > 0 {
				name = aliasWords[len(aliasWords)-1]
				anonymous = false
				flags &^= SymAnonymous
				flags |= SymAlias
			}
			consumeTo = end + 1
		}
	}

	identTok := b.addToken(Token{Text: name, Type: TokIdentifier | roleTokenFor(flags), Depth: blk.Depth, BlockStart: i, BlockCount: end - i + 1})

	var symID SymbolID
	var err error
	if anonymous {
		symID = SymbolID(len(b.Store.Symbols))
		b.Store.Symbols = append(b.Store.Symbols, Symbol{IdentTokenID: identTok, Flags: flags, Name: "", ContainingScope: scopeID})
	} else {
		symID, err = b.addSymbol(scopeID, Symbol{IdentTokenID: identTok, Flags: flags, Name: name}, blk.StartLine)
		if err != nil {
			return i, false, err
		}
	}
	b.Store.Tokens[identTok].SymbolID = symID

	child := b.pushScope(scopeID, symID, i, end)
	b.Store.Symbols[symID].ScopeID = child
	// block i+1 is the scope's opening brace; parse the statements between
	// it and the closing brace at end.
	if err := b.parseRange(i+2, end, child); err != nil {
		return i, false, err
	}

	applyAttrs(b, symID, attrs, stage, hasStage)
	return consumeTo + 1, true, nil
}

func roleTokenFor(flags SymbolTypes) TokenTypes {
	switch {
	case flags.Has(StructDef):
		return TokStruct
	case flags.Has(ConstBufDef):
		return TokConstBuf
	case flags.Has(TechniqueDef):
		return TokTechnique
	case flags.Has(PassDef):
		return TokPass
	case flags.Has(ShaderBlockDef):
		return TokShader
	default:
		return TokWeave
	}
}

// applyAttrs records `[stage]`-style attribute brackets found ahead of a
// declaration onto its owning symbol/token (spec §4.7 entrypoint tagging).
func applyAttrs(b *Builder, symID SymbolID, attrs []string, stage model.ShaderStage, hasStage bool) {
	if len(attrs) == 0 {
		return
	}
	sym := &b.Store.Symbols[symID]
	for _, a := range attrs {
		a = strings.ToLower(strings.TrimSpace(a))
		if st, ok := stageKeywords[a]; ok {
			sym.Flags |= SymStageTag(st)
			tok := &b.Store.Tokens[sym.IdentTokenID]
			tok.Type |= TokAttribShaderDecl | StageTokenType(st)
		}
	}
	_ = hasStage
	_ = stage
}

// tryFuncOrVarForm recognizes function prototypes/definitions, variable
// declarations/definitions, bare typedefs, and the ambiguous
// `<type> <ident>(...);` call-or-prototype form (spec §4.6.2).
func (b *Builder) tryFuncOrVarForm(start, hi int, scopeID ScopeID, attrs []string) (int, bool, error) {
	i := start
	var parenIdx, parenEnd int = -1, -1
	var head []string

	for i < hi {
		blk := b.blocks[i]
		if blk.Type.Has(lex.StartParen) {
			end := lex.MatchEnd(b.blocks, i)
			if end < 0 {
				return start, false, wfxerr.NewSyntaxError("unterminated parameter list", b.file, blk.StartLine, i)
			}
			parenIdx, parenEnd = i, end
			i = end + 1
			continue
		}
		if blk.Type.Has(lex.SemicolonSeparator) {
			head = append(head, words(stripTerminator(b.blockText(i), blk.Type))...)
			i++
			return b.finishFuncOrVar(start, i, scopeID, attrs, head, parenIdx, parenEnd, false)
		}
		if blk.Type.Has(lex.StartScope) && parenIdx >= 0 {
			// function body follows the parameter list.
			end := lex.MatchEnd(b.blocks, i)
			if end < 0 {
				return start, false, wfxerr.NewSyntaxError("unterminated function body", b.file, blk.StartLine, i)
			}
			return b.finishFuncOrVar(start, end+1, scopeID, attrs, head, parenIdx, parenEnd, true)
		}
		if blk.Type.Any(lex.Preamble) {
			head = append(head, words(stripTerminator(b.blockText(i), blk.Type))...)
			i++
			continue
		}
		// an unrecognized container (array bracket, angle bracket template,
		// nested scope with no preceding parameter list) aborts this attempt;
		// let the caller fall back to single-block skipping.
		return start, false, nil
	}
	return start, false, nil
}

func (b *Builder) finishFuncOrVar(start, next int, scopeID ScopeID, attrs []string, head []string, parenIdx, parenEnd int, hasBody bool) (int, bool, error) {
	isTypedef := len(head) > 0 && head[0] == "typedef"
	if isTypedef {
		head = head[1:]
	}
	if len(head) == 0 {
		return start, false, nil
	}

	if parenIdx >= 0 {
		if len(head) < 2 {
			return start, false, nil
		}
		name := head[len(head)-1]
		var flags SymbolTypes
		switch {
		case hasBody:
			flags = FuncDefinition
		default:
			flags = FuncDeclaration | SymAmbiguous
		}
		sig := canonicalSignature(b, parenIdx, parenEnd, head)
		blk := b.blocks[start]
		identTok := b.addToken(Token{Text: name, Type: FuncIdent, Depth: blk.Depth, BlockStart: start, BlockCount: next - start})
		symID, err := b.addSymbol(scopeID, Symbol{IdentTokenID: identTok, Flags: flags, Name: name}, blk.StartLine)
		if err != nil {
			return start, false, err
		}
		b.Store.Tokens[identTok].SymbolID = symID
		b.addFuncOverload(scopeID, name, sig, symID)
		b.recordParams(parenIdx, parenEnd)

		if hasBody {
			child := b.pushScope(scopeID, symID, parenIdx, next-1)
			b.Store.Symbols[symID].ScopeID = child
			// the Scope container's own blocks run from the block right
			// after the parameter list (its opening brace) to next-1 (its
			// closing brace); parseRange walks the statements in between.
			bodyOpen := parenEnd + 1
			if bodyOpen < next-1 {
				if err := b.parseRange(bodyOpen+1, next-1, child); err != nil {
					return start, false, err
				}
			}
		}
		applyAttrs(b, symID, attrs, 0, false)
		return next, true, nil
	}

	// No parameter list: a plain variable declaration/definition, a bare
	// `typedef <type> Alias;`, or a technique/pass member reference like
	// `vertex VS_Main;` naming an already-declared entrypoint by name
	// (spec §4.8.2 "defaulted pass" / explicit pass member).
	if len(head) < 2 {
		return start, false, nil
	}
	if !isTypedef && len(head) == 2 {
		if stage, ok := stageKeywords[head[0]]; ok {
			name := head[1]
			blk := b.blocks[start]
			identTok := b.addToken(Token{Text: name, Type: TokShader | TokIdentifier | StageTokenType(stage), Depth: blk.Depth, BlockStart: start, BlockCount: next - start})
			symID, err := b.addSymbol(scopeID, Symbol{IdentTokenID: identTok, Flags: SymShader | SymDeclaration | SymStageTag(stage), Name: name}, blk.StartLine)
			if err != nil {
				return start, false, err
			}
			b.Store.Tokens[identTok].SymbolID = symID
			return next, true, nil
		}
	}
	name := head[len(head)-1]
	blk := b.blocks[start]
	var flags SymbolTypes
	if isTypedef {
		flags = SymAlias | SymDefinition
	} else {
		flags = VariableAssignDef
	}
	identTok := b.addToken(Token{Text: name, Type: TokVariable | TokIdentifier, Depth: blk.Depth, BlockStart: start, BlockCount: next - start})
	symID, err := b.addSymbol(scopeID, Symbol{IdentTokenID: identTok, Flags: flags, Name: name}, blk.StartLine)
	if err != nil {
		return start, false, err
	}
	b.Store.Tokens[identTok].SymbolID = symID
	applyAttrs(b, symID, attrs, 0, false)
	return next, true, nil
}

// recordParams creates an argument-flagged symbol for each comma-separated
// parameter inside a function's parenthesis container. Argument symbols
// are never linked into a scope's NameToSymbol table (spec §4.6.1): a
// parameter is visible only through the owning function's Symbol, not via
// ordinary name lookup, since two overloads may reuse the same body scope
// shape with differently-named parameters.
func (b *Builder) recordParams(parenIdx, parenEnd int) {
	depth := 0
	segStart := parenIdx + 1
	flush := func(lo, hi int) {
		if lo >= hi {
			return
		}
		text := strings.TrimSpace(attrInnerText(b, lo, hi))
		ws := words(text)
		if len(ws) < 2 {
			return
		}
		name := ws[len(ws)-1]
		blk := b.blocks[lo]
		tok := b.addToken(Token{Text: name, Type: TokArgument | TokIdentifier, Depth: blk.Depth, BlockStart: lo, BlockCount: hi - lo})
		symID := SymbolID(len(b.Store.Symbols))
		b.Store.Symbols = append(b.Store.Symbols, Symbol{IdentTokenID: tok, Flags: SymArgument | SymParameter, Name: name, ContainingScope: InvalidScopeID})
		b.Store.Tokens[tok].SymbolID = symID
	}
	for i := parenIdx + 1; i < parenEnd; i++ {
		blk := b.blocks[i]
		if blk.Type.Has(lex.StartContainer) {
			depth++
		} else if blk.Type.Has(lex.EndContainer) {
			depth--
		}
		if depth == 0 && blk.Type.Has(lex.CommaSeparator) {
			flush(segStart, i)
			segStart = i + 1
		}
	}
	flush(segStart, parenEnd)
}

// canonicalSignature builds the overload-disambiguating string from a
// function's declared parameter type list (spec §4.6.3 step 5): the
// parameter-list text with identifier names stripped, names and default
// values being irrelevant to overload identity.
func canonicalSignature(b *Builder, parenIdx, parenEnd int, head []string) string {
	var sb strings.Builder
	if len(head) > 1 {
		sb.WriteString(strings.Join(head[:len(head)-1], " "))
	}
	sb.WriteByte('(')
	first := true
	depth := 0
	for i := parenIdx + 1; i < parenEnd; i++ {
		blk := b.blocks[i]
		if blk.Type.Has(lex.StartContainer) {
			depth++
		} else if blk.Type.Has(lex.EndContainer) {
			depth--
		}
		if depth != 0 {
			continue
		}
		text := strings.TrimSpace(stripTerminator(b.blockText(i), blk.Type))
		if text == "" {
			continue
		}
		ws := words(text)
		if len(ws) == 0 {
			continue
		}
		typeWords := ws
		if len(ws) > 1 {
			typeWords = ws[:len(ws)-1] // drop the parameter's own name
		}
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(strings.Join(typeWords, " "))
		first = false
	}
	sb.WriteByte(')')
	return sb.String()
}
