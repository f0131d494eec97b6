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

package registry

import "github.com/weavefx/wfxc/model"

// ShaderDefHandle is a (registry, id) pair with no storage of its own
// (spec §4.2).
type ShaderDefHandle struct {
	Reg *Builder
	ID  model.ShaderID
}

func (h ShaderDefHandle) Get() model.ShaderDef { return h.Reg.Shader(h.ID) }

// EffectDefHandle likewise wraps an EffectID.
type EffectDefHandle struct {
	Reg *Builder
	ID  model.EffectID
}

func (h EffectDefHandle) Get() model.EffectDef { return h.Reg.Effect(h.ID) }

// PassGroup resolves the effect's ordered pass-group IDs.
func (h EffectDefHandle) PassGroup() []uint32 {
	return h.Reg.IDGroup(h.Get().PassGroupID)
}

// ConstBufDefHandle wraps a ConstBufID.
type ConstBufDefHandle struct {
	Reg *Builder
	ID  model.ConstBufID
}

func (h ConstBufDefHandle) Get() model.ConstBufDef { return h.Reg.ConstBuf(h.ID) }

// ConstBufGroupHandle wraps an IDGroupID whose members are ConstBufIDs.
type ConstBufGroupHandle struct {
	Reg *Builder
	ID  model.IDGroupID
}

// Len returns the number of member IDs in the group.
func (h ConstBufGroupHandle) Len() int { return len(h.Reg.IDGroup(h.ID)) }

// At resolves the i-th member as a ConstBufDefHandle.
func (h ConstBufGroupHandle) At(i int) ConstBufDefHandle {
	return ConstBufDefHandle{Reg: h.Reg, ID: model.ConstBufID(h.Reg.IDGroup(h.ID)[i])}
}

// IOLayoutHandle wraps an IDGroupID whose members are IOElementIDs.
type IOLayoutHandle struct {
	Reg *Builder
	ID  model.IDGroupID
}

func (h IOLayoutHandle) Len() int { return len(h.Reg.IDGroup(h.ID)) }

func (h IOLayoutHandle) At(i int) model.IOElementDef {
	return h.Reg.IOElement(model.IOElementID(h.Reg.IDGroup(h.ID)[i]))
}

// ResourceGroupHandle wraps an IDGroupID whose members are ResourceIDs.
type ResourceGroupHandle struct {
	Reg *Builder
	ID  model.IDGroupID
}

func (h ResourceGroupHandle) Len() int { return len(h.Reg.IDGroup(h.ID)) }

func (h ResourceGroupHandle) At(i int) model.ResourceDef {
	return h.Reg.Resource(model.ResourceID(h.Reg.IDGroup(h.ID)[i]))
}
