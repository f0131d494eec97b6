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

// Package model holds the data types shared by the whole pipeline: the
// interned-string ID, the registry's content types, and the serialized
// ShaderLibDef artifact (spec §3).
package model

import "math"

// StringID is a 32-bit handle into the string interner.
type StringID uint32

// InvalidID marks an absent StringID or registry ID, per spec §3.
const InvalidID uint32 = math.MaxUint32

// InvalidStringID is InvalidID typed as a StringID.
const InvalidStringID StringID = StringID(InvalidID)

// IsValid reports whether id does not hold the sentinel invalid value.
func (id StringID) IsValid() bool { return uint32(id) != InvalidID }

// ByteCodeID indexes the registry's bytecode blob arena.
type ByteCodeID uint32

// ConstID indexes the registry's constant-definition arena.
type ConstID uint32

// ConstBufID indexes the registry's constant-buffer-layout arena.
type ConstBufID uint32

// IOElementID indexes the registry's I/O-element-descriptor arena.
type IOElementID uint32

// ResourceID indexes the registry's resource-descriptor arena.
type ResourceID uint32

// IDGroupID indexes the registry's ordered-ID-group arena. Groups are used
// for constant-buffer member lists, pass shader lists, and effect pass
// lists alike — the element type is whatever the caller intends.
type IDGroupID uint32

// ShaderID indexes the registry's shader-definition arena.
type ShaderID uint32

// EffectID indexes the registry's effect-definition arena.
type EffectID uint32

// IsValid reports whether the ID differs from the InvalidID sentinel —
// small helpers so call sites read naturally.
func (id ByteCodeID) IsValid() bool   { return uint32(id) != InvalidID }
func (id ConstID) IsValid() bool      { return uint32(id) != InvalidID }
func (id ConstBufID) IsValid() bool   { return uint32(id) != InvalidID }
func (id IOElementID) IsValid() bool  { return uint32(id) != InvalidID }
func (id ResourceID) IsValid() bool   { return uint32(id) != InvalidID }
func (id IDGroupID) IsValid() bool    { return uint32(id) != InvalidID }
func (id ShaderID) IsValid() bool     { return uint32(id) != InvalidID }
func (id EffectID) IsValid() bool     { return uint32(id) != InvalidID }

// InvalidByteCodeID etc. are the typed sentinels for each ID kind.
const (
	InvalidByteCodeID  = ByteCodeID(InvalidID)
	InvalidConstID     = ConstID(InvalidID)
	InvalidConstBufID  = ConstBufID(InvalidID)
	InvalidIOElementID = IOElementID(InvalidID)
	InvalidResourceID  = ResourceID(InvalidID)
	InvalidIDGroupID   = IDGroupID(InvalidID)
	InvalidShaderID    = ShaderID(InvalidID)
	InvalidEffectID    = EffectID(InvalidID)
)
