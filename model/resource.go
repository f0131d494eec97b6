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

package model

// ShaderTypes is the resource-kind bitset from the backend reflection
// contract (spec §6): texture dimension × array/cube × R/RW × structured,
// or a sampler.
type ShaderTypes uint32

const (
	ResDim1D ShaderTypes = 1 << iota
	ResDim2D
	ResDim3D
	ResDimCube
	ResArray
	ResReadWrite
	ResStructured
	ResSampler
	ResRaw
)

// Has reports whether all bits in mask are set.
func (t ShaderTypes) Has(mask ShaderTypes) bool { return t&mask == mask }

// ConstantDef is one named constant inside a constant buffer, with its
// byte offset and size as reported by the backend reflection (spec §6).
type ConstantDef struct {
	NameID StringID
	Offset uint32
	Size   uint32
}

// ConstBufDef describes one constant buffer's layout: a name, its total
// size, and the ordered group of ConstID members.
type ConstBufDef struct {
	NameID     StringID
	TotalSize  uint32
	MembersID  IDGroupID // group of ConstID
}

// IOElementDef describes one input or output signature parameter.
type IOElementDef struct {
	NameID        StringID
	SemanticID    StringID
	SemanticIndex uint32
	Register      uint32
}

// ResourceDef describes one bound resource (texture, buffer, sampler).
type ResourceDef struct {
	NameID StringID
	Slot   uint32
	Kind   ShaderTypes
}
