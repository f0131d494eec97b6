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

// Package parse implements the symbol parser (spec §4.6): a backtracking
// pattern matcher over lex blocks that produces a table of tokens,
// symbols and scopes suitable for semantic queries (entrypoint/effect
// extraction, HLSL generation).
package parse

import "github.com/weavefx/wfxc/model"

// TokenTypes is the bitset classifying one Token (spec §4.6.1).
type TokenTypes uint64

const (
	TokIntrinsic TokenTypes = 1 << iota
	TokUserDefined
	TokIdentifier
	TokKeyword
	TokLiteral
	TokType
	TokTypeModifier
	TokAttribute
	TokSemantic
	TokArgument
	TokParameter
	TokVariable
	TokFunction
	TokWeave
	TokShader
	TokPass
	TokTechnique
	TokConstBuf
	TokVertex
	TokHull
	TokDomain
	TokGeometry
	TokPixel
	TokCompute
	TokTemplate
	TokAlias
	TokStruct
	TokTypedef
	// AttribShaderDecl marks a token produced by a `[stage]` attribute
	// recognized on a function identifier (spec §4.7, §4.8.1).
	TokAttribShaderDecl
)

// FuncIdent is the role combinator for a function's identifying token.
const FuncIdent = TokFunction | TokIdentifier

func (t TokenTypes) Has(mask TokenTypes) bool { return t&mask == mask }
func (t TokenTypes) Any(mask TokenTypes) bool { return t&mask != 0 }

// StageTokenType returns the stage-tag bit for a ShaderStage.
func StageTokenType(s model.ShaderStage) TokenTypes {
	switch s {
	case model.StageVertex:
		return TokVertex
	case model.StageHull:
		return TokHull
	case model.StageDomain:
		return TokDomain
	case model.StageGeometry:
		return TokGeometry
	case model.StagePixel:
		return TokPixel
	case model.StageCompute:
		return TokCompute
	}
	return 0
}

// StageFromTokenType is the inverse of StageTokenType.
func StageFromTokenType(t TokenTypes) (model.ShaderStage, bool) {
	switch {
	case t.Has(TokVertex):
		return model.StageVertex, true
	case t.Has(TokHull):
		return model.StageHull, true
	case t.Has(TokDomain):
		return model.StageDomain, true
	case t.Has(TokGeometry):
		return model.StageGeometry, true
	case t.Has(TokPixel):
		return model.StagePixel, true
	case t.Has(TokCompute):
		return model.StageCompute, true
	}
	return 0, false
}

// TokenID indexes Store.Tokens.
type TokenID int32

// InvalidTokenID marks an absent token reference.
const InvalidTokenID TokenID = -1

// Token is one node of the symbol parser's flat token tree (spec §4.6.1).
type Token struct {
	Text        string
	Type        TokenTypes
	Depth       int
	BlockStart  int
	BlockCount  int
	ChildStart  TokenID
	ChildCount  int32
	SubtypeID   int32 // allocated type-info slot for Type/UserType captures, or -1
	SymbolID    SymbolID
}

// SymbolTypes is the bitset classifying one Symbol (spec §4.6.1).
type SymbolTypes uint64

const (
	SymScope SymbolTypes = 1 << iota
	SymWeave
	SymShader
	SymPass
	SymTechnique
	SymVertex
	SymHull
	SymDomain
	SymGeometry
	SymPixel
	SymCompute
	SymDeclaration
	SymDefinition
	SymUserDefined
	SymType
	SymAlias
	SymStruct
	SymFunction
	SymParameter
	SymVariable
	SymConstBuf
	SymAmbiguous
	SymArgument
	SymAnonymous
)

// Composite symbol aliases (spec §4.6.1).
const (
	FuncDefinition     = SymFunction | SymDefinition | SymScope
	FuncDeclaration    = SymFunction | SymDeclaration
	VariableAssignDef  = SymVariable | SymDeclaration | SymDefinition
	TechniqueDef       = SymTechnique | SymWeave | SymDefinition | SymScope
	ShaderBlockDef     = SymShader | SymWeave | SymDefinition | SymScope
	StructDef          = SymStruct | SymDefinition | SymScope
	ConstBufDef        = SymConstBuf | SymDefinition | SymScope
	PassDef            = SymPass | SymWeave | SymDefinition | SymScope
	AmbigFuncVarDecl   = SymAmbiguous | SymDeclaration
)

func (t SymbolTypes) Has(mask SymbolTypes) bool { return t&mask == mask }
func (t SymbolTypes) Any(mask SymbolTypes) bool { return t&mask != 0 }

// SymStageTag returns the stage-tag bit for a ShaderStage.
func SymStageTag(s model.ShaderStage) SymbolTypes {
	switch s {
	case model.StageVertex:
		return SymVertex
	case model.StageHull:
		return SymHull
	case model.StageDomain:
		return SymDomain
	case model.StageGeometry:
		return SymGeometry
	case model.StagePixel:
		return SymPixel
	case model.StageCompute:
		return SymCompute
	}
	return 0
}

// SymbolID indexes Store.Symbols.
type SymbolID int32

// InvalidSymbolID marks an absent symbol reference.
const InvalidSymbolID SymbolID = -1

// Symbol is one named declaration or definition (spec §4.6.1).
type Symbol struct {
	IdentTokenID TokenID
	ScopeID      ScopeID // the scope this symbol OWNS, if it Has(SymScope); else InvalidScopeID
	Flags        SymbolTypes
	Name         string

	// ContainingScope is the scope this symbol was declared IN (as
	// opposed to ScopeID, the scope it owns). Entrypoint/effect
	// extraction (spec §4.8.1, §4.8.2) walk a technique's or pass's
	// direct children by this field, since scope membership is not
	// otherwise recoverable from Scope.NameToSymbol's unordered map.
	ContainingScope ScopeID
}

// ScopeID indexes Store.Scopes.
type ScopeID int32

// InvalidScopeID marks an absent scope reference. Scope 0 is the implicit
// global scope (spec §4.6.1).
const InvalidScopeID ScopeID = -1
const GlobalScopeID ScopeID = 0

// Scope is a block-delimited region owning a set of symbols (spec §4.6.1).
type Scope struct {
	SymbolID     SymbolID // the symbol that owns this scope (InvalidSymbolID for global)
	ParentScopeID ScopeID
	BlockStart   int
	BlockCount   int

	NameToSymbol map[string]SymbolID
	FuncOverloads map[string][]SymbolID
}

func newScope(parent ScopeID, symID SymbolID) *Scope {
	return &Scope{
		SymbolID:      symID,
		ParentScopeID: parent,
		NameToSymbol:  map[string]SymbolID{},
		FuncOverloads: map[string][]SymbolID{},
	}
}

// Store holds the three parallel arrays produced by a parse (spec §4.6.1):
// tokens, symbols and scopes.
type Store struct {
	Tokens  []Token
	Symbols []Symbol
	Scopes  []Scope
}
