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

// Package runtime implements the read side of a built shader library
// (spec §4.9): a ShaderLibMap that resolves names and variant IDs
// against an immutable registry, safe for concurrent use by many
// readers once construction has finished.
package runtime

import (
	"github.com/weavefx/wfxc/config"
	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/registry"
	"github.com/weavefx/wfxc/strintern"
)

// ShaderHandle is a read-only view over one registered shader.
type ShaderHandle struct {
	reg *registry.Builder
	id  model.ShaderID
}

// ID returns the underlying registry ID.
func (h ShaderHandle) ID() model.ShaderID { return h.id }

// Def returns the shader's definition.
func (h ShaderHandle) Def() model.ShaderDef { return h.reg.Shader(h.id) }

// EffectHandle is a read-only view over one registered effect.
type EffectHandle struct {
	reg *registry.Builder
	id  model.EffectID
}

// ID returns the underlying registry ID.
func (h EffectHandle) ID() model.EffectID { return h.id }

// Def returns the effect's definition.
func (h EffectHandle) Def() model.EffectDef { return h.reg.Effect(h.id) }

// PassCount returns the number of passes in this effect.
func (h EffectHandle) PassCount() int {
	return len(h.reg.IDGroup(h.Def().PassGroupID))
}

// Pass returns the i'th pass as its ordered ShaderID list.
func (h EffectHandle) Pass(i int) []model.ShaderID {
	passGroupID := model.IDGroupID(h.reg.IDGroup(h.Def().PassGroupID)[i])
	members := h.reg.IDGroup(passGroupID)
	out := make([]model.ShaderID, len(members))
	for j, m := range members {
		out[j] = model.ShaderID(m)
	}
	return out
}

type repoIndex struct {
	table         *config.Table
	shadersByName map[string][]model.ShaderID // index by ConfigID
	effectsByName map[string][]model.EffectID
}

// ShaderLibMap is the immutable read-side view of a built library (spec
// §4.9). Construct once via Load, then share freely across goroutines.
type ShaderLibMap struct {
	reg      *registry.Builder
	interner *strintern.ReadOnlyHandle
	repos    []repoIndex

	// nameToRepo gives the default repo index for a name across the
	// whole library — the first repo (in build order) that declares it.
	nameToRepo map[string]int
}

// Load builds a ShaderLibMap over a deserialized ShaderLibDef. parent, if
// non-nil, is a shared string interner the def's strings were built
// against (spec §5 "Shared resources"); if nil, a standalone interner is
// rebuilt from def.StringIDs.
func Load(def *model.ShaderLibDef, parent *strintern.Table) *ShaderLibMap {
	var interner *strintern.Table
	if parent != nil {
		interner = parent
	} else {
		interner = strintern.LoadFrom(def.StringIDs)
	}
	handle := interner.Handle()

	reg := registry.FromDef(def.Registry)

	m := &ShaderLibMap{
		reg:        reg,
		interner:   &handle,
		repos:      make([]repoIndex, len(def.Repos)),
		nameToRepo: make(map[string]int),
	}

	for ri, repo := range def.Repos {
		idx := repoIndex{
			table:         config.New(repo.ConfigTable.FlagIDs, repo.ConfigTable.ModeIDs),
			shadersByName: make(map[string][]model.ShaderID),
			effectsByName: make(map[string][]model.EffectID),
		}

		for _, v := range repo.Variants {
			for _, ref := range v.Shaders {
				name := handle.Lookup(reg.Shader(ref.ShaderID).NameID)
				idx.shadersByName[name] = setAt(idx.shadersByName[name], int(ref.VariantID.ConfigID()), ref.ShaderID)
				if _, ok := m.nameToRepo[name]; !ok {
					m.nameToRepo[name] = ri
				}
			}
			for _, ref := range v.Effects {
				name := handle.Lookup(reg.Effect(ref.EffectID).NameID)
				idx.effectsByName[name] = setAtEffect(idx.effectsByName[name], int(ref.VariantID.ConfigID()), ref.EffectID)
				if _, ok := m.nameToRepo[name]; !ok {
					m.nameToRepo[name] = ri
				}
			}
		}
		m.repos[ri] = idx
	}

	return m
}

func setAt(s []model.ShaderID, idx int, v model.ShaderID) []model.ShaderID {
	for len(s) <= idx {
		s = append(s, model.InvalidShaderID)
	}
	s[idx] = v
	return s
}

func setAtEffect(s []model.EffectID, idx int, v model.EffectID) []model.EffectID {
	for len(s) <= idx {
		s = append(s, model.InvalidEffectID)
	}
	s[idx] = v
	return s
}

// Shader resolves a registry ShaderID to a handle.
func (m *ShaderLibMap) Shader(id model.ShaderID) ShaderHandle { return ShaderHandle{reg: m.reg, id: id} }

// Effect resolves a registry EffectID to a handle.
func (m *ShaderLibMap) Effect(id model.EffectID) EffectHandle { return EffectHandle{reg: m.reg, id: id} }

// TryShaderID resolves name+variant to a ShaderID, using the name's
// default repo (spec §4.9 "shared NameID -> repoID map").
func (m *ShaderLibMap) TryShaderID(name string, vID model.VariantID) (model.ShaderID, bool) {
	ri, ok := m.nameToRepo[name]
	if !ok {
		return model.InvalidShaderID, false
	}
	ids := m.repos[ri].shadersByName[name]
	cfg := int(vID.ConfigID())
	if cfg >= len(ids) || !ids[cfg].IsValid() {
		return model.InvalidShaderID, false
	}
	return ids[cfg], true
}

// TryEffectID resolves name+variant to an EffectID.
func (m *ShaderLibMap) TryEffectID(name string, vID model.VariantID) (model.EffectID, bool) {
	ri, ok := m.nameToRepo[name]
	if !ok {
		return model.InvalidEffectID, false
	}
	ids := m.repos[ri].effectsByName[name]
	cfg := int(vID.ConfigID())
	if cfg >= len(ids) || !ids[cfg].IsValid() {
		return model.InvalidEffectID, false
	}
	return ids[cfg], true
}

// TryDefaultShaderID resolves name against configID 0 of its default repo.
func (m *ShaderLibMap) TryDefaultShaderID(name string) (model.ShaderID, bool) {
	ri, ok := m.nameToRepo[name]
	if !ok {
		return model.InvalidShaderID, false
	}
	return m.TryShaderID(name, model.MakeVariantID(uint32(ri), 0))
}

// TryDefaultEffectID resolves name against configID 0 of its default repo.
func (m *ShaderLibMap) TryDefaultEffectID(name string) (model.EffectID, bool) {
	ri, ok := m.nameToRepo[name]
	if !ok {
		return model.InvalidEffectID, false
	}
	return m.TryEffectID(name, model.MakeVariantID(uint32(ri), 0))
}

// IsDefined reports whether the named flag/mode is set in vID, within
// vID's own repo's config table.
func (m *ShaderLibMap) IsDefined(name string, vID model.VariantID) bool {
	repo := m.repoFor(vID)
	if repo == nil {
		return false
	}
	nameID, ok := m.interner.TryLookup(name)
	if !ok {
		return false
	}
	return repo.table.IsDefined(nameID, vID.ConfigID())
}

// Defines returns every flag/mode name active in vID.
func (m *ShaderLibMap) Defines(vID model.VariantID) []string {
	repo := m.repoFor(vID)
	if repo == nil {
		return nil
	}
	ids := repo.table.GetDefines(vID.ConfigID())
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.interner.Lookup(id)
	}
	return out
}

// SetFlag returns vID with name's flag bit set/cleared, within vID's repo.
func (m *ShaderLibMap) SetFlag(name string, val bool, vID model.VariantID) model.VariantID {
	repo := m.repoFor(vID)
	if repo == nil {
		return vID
	}
	nameID, ok := m.interner.TryLookup(name)
	if !ok {
		return vID
	}
	cfg := repo.table.SetFlag(nameID, val, vID.ConfigID())
	return model.MakeVariantID(vID.RepoIndex(), cfg)
}

// SetMode returns vID with its mode switched to name, within vID's repo.
func (m *ShaderLibMap) SetMode(name string, vID model.VariantID) model.VariantID {
	repo := m.repoFor(vID)
	if repo == nil {
		return vID
	}
	nameID, ok := m.interner.TryLookup(name)
	if !ok {
		return vID
	}
	cfg := repo.table.SetMode(nameID, vID.ConfigID())
	return model.MakeVariantID(vID.RepoIndex(), cfg)
}

// ResetMode returns vID with its mode reset to the implicit default.
func (m *ShaderLibMap) ResetMode(vID model.VariantID) model.VariantID {
	repo := m.repoFor(vID)
	if repo == nil {
		return vID
	}
	cfg := repo.table.ResetMode(vID.ConfigID())
	return model.MakeVariantID(vID.RepoIndex(), cfg)
}

// ResetVariant returns vID with every flag cleared and its mode reset.
func (m *ShaderLibMap) ResetVariant(vID model.VariantID) model.VariantID {
	repo := m.repoFor(vID)
	if repo == nil {
		return vID
	}
	cfg := repo.table.ResetFlags(vID.ConfigID())
	cfg = repo.table.ResetMode(cfg)
	return model.MakeVariantID(vID.RepoIndex(), cfg)
}

func (m *ShaderLibMap) repoFor(vID model.VariantID) *repoIndex {
	ri := int(vID.RepoIndex())
	if ri < 0 || ri >= len(m.repos) {
		return nil
	}
	return &m.repos[ri]
}
