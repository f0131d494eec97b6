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

	"github.com/weavefx/wfxc/internal/wlog"
	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/strintern"
)

// mergeCacheHits re-adds every cached repo recorded as a hit into the
// current interner and registry, remapping every ID it carries (spec
// §4.8 "merge_cache_hits"). Content-addressed GetOrAdd* dedup means a
// piece of cached data that the current build already produced collapses
// onto the same ID instead of duplicating.
func (b *Builder) mergeCacheHits(ctx context.Context) error {
	remap := b.interner.Merge(b.cache.StringIDs)
	wlog.Wrap(ctx).With("build", b.buildID).Debug().Logf("merging %d cache hit(s)", len(b.hits))

	m := &cacheMerger{b: b, remap: remap}

	for _, hit := range m.b.hits {
		idx := indexOfPath(m.b.repoOrder, hit.path)
		if idx < 0 {
			continue // AddRepo placeholder bookkeeping drifted; nothing to fill
		}
		cachedRepo := m.b.cache.Repos[hit.cacheRepo]
		m.b.repos[idx] = m.remapRepo(cachedRepo, uint32(idx))
	}
	return nil
}

func indexOfPath(paths []string, path string) int {
	for i, p := range paths {
		if p == path {
			return i
		}
	}
	return -1
}

// cacheMerger carries the foreign->local StringID alias table and the
// source cache's registry across one merge pass.
type cacheMerger struct {
	b     *Builder
	remap strintern.RemapTable
}

func (m *cacheMerger) str(id model.StringID) model.StringID {
	if !id.IsValid() {
		return model.InvalidStringID
	}
	if n, ok := m.remap[id]; ok {
		return n
	}
	return model.InvalidStringID
}

func (m *cacheMerger) remapRepo(repo model.VariantRepoDef, newRepoIndex uint32) model.VariantRepoDef {
	out := model.VariantRepoDef{
		Path:            repo.Path,
		SourceSizeBytes: repo.SourceSizeBytes,
		SourceCRC32:     repo.SourceCRC32,
		ConfigTable: model.ConfigIDTableDef{
			FlagIDs: m.strSlice(repo.ConfigTable.FlagIDs),
			ModeIDs: m.strSlice(repo.ConfigTable.ModeIDs),
		},
		Variants: make([]model.VariantDef, len(repo.Variants)),
	}
	for i, v := range repo.Variants {
		out.Variants[i] = m.remapVariant(v, newRepoIndex)
	}
	return out
}

func (m *cacheMerger) strSlice(ids []model.StringID) []model.StringID {
	out := make([]model.StringID, len(ids))
	for i, id := range ids {
		out[i] = m.str(id)
	}
	return out
}

func (m *cacheMerger) remapVariant(v model.VariantDef, newRepoIndex uint32) model.VariantDef {
	var out model.VariantDef
	for _, ref := range v.Shaders {
		out.Shaders = append(out.Shaders, model.ShaderVariantRef{
			ShaderID:  m.remapShader(ref.ShaderID),
			VariantID: ref.VariantID.WithRepoIndex(newRepoIndex),
		})
	}
	for _, ref := range v.Effects {
		out.Effects = append(out.Effects, model.EffectVariantRef{
			EffectID:  m.remapEffect(ref.EffectID),
			VariantID: ref.VariantID.WithRepoIndex(newRepoIndex),
		})
	}
	return out
}

func (m *cacheMerger) remapShader(id model.ShaderID) model.ShaderID {
	src := m.b.cache.Registry.Shaders[id]
	return m.b.reg.GetOrAddShader(model.ShaderDef{
		FileNameID:      m.str(src.FileNameID),
		ByteCodeID:      m.remapByteCode(src.ByteCodeID),
		NameID:          m.str(src.NameID),
		Stage:           src.Stage,
		ThreadGroupSize: src.ThreadGroupSize,
		InLayoutID:      m.remapIOGroup(src.InLayoutID),
		OutLayoutID:     m.remapIOGroup(src.OutLayoutID),
		ResLayoutID:     m.remapResourceGroup(src.ResLayoutID),
		CBufGroupID:     m.remapConstBufGroup(src.CBufGroupID),
	})
}

func (m *cacheMerger) remapEffect(id model.EffectID) model.EffectID {
	src := m.b.cache.Registry.Effects[id]
	return m.b.reg.GetOrAddEffect(model.EffectDef{
		NameID:      m.str(src.NameID),
		PassGroupID: m.remapNestedGroup(src.PassGroupID, m.remapShaderGroup),
	})
}

func (m *cacheMerger) remapByteCode(id model.ByteCodeID) model.ByteCodeID {
	if !id.IsValid() {
		return model.InvalidByteCodeID
	}
	return m.b.reg.GetOrAddByteCode(m.b.cache.Registry.ByteCode[id])
}

func (m *cacheMerger) remapIOGroup(id model.IDGroupID) model.IDGroupID {
	if !id.IsValid() {
		return model.InvalidIDGroupID
	}
	members := m.b.cache.Registry.IDGroups[id]
	return m.b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, mem := range members {
			src := m.b.cache.Registry.IOElements[mem]
			newID := m.b.reg.GetOrAddIOElement(model.IOElementDef{
				NameID:        m.str(src.NameID),
				SemanticID:    m.str(src.SemanticID),
				SemanticIndex: src.SemanticIndex,
				Register:      src.Register,
			})
			buf = append(buf, uint32(newID))
		}
		return buf
	})
}

func (m *cacheMerger) remapResourceGroup(id model.IDGroupID) model.IDGroupID {
	if !id.IsValid() {
		return model.InvalidIDGroupID
	}
	members := m.b.cache.Registry.IDGroups[id]
	return m.b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, mem := range members {
			src := m.b.cache.Registry.Resources[mem]
			newID := m.b.reg.GetOrAddResource(model.ResourceDef{
				NameID: m.str(src.NameID),
				Slot:   src.Slot,
				Kind:   src.Kind,
			})
			buf = append(buf, uint32(newID))
		}
		return buf
	})
}

func (m *cacheMerger) remapConstGroup(id model.IDGroupID) model.IDGroupID {
	if !id.IsValid() {
		return model.InvalidIDGroupID
	}
	members := m.b.cache.Registry.IDGroups[id]
	return m.b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, mem := range members {
			src := m.b.cache.Registry.Constants[mem]
			newID := m.b.reg.GetOrAddConstant(model.ConstantDef{
				NameID: m.str(src.NameID),
				Offset: src.Offset,
				Size:   src.Size,
			})
			buf = append(buf, uint32(newID))
		}
		return buf
	})
}

func (m *cacheMerger) remapConstBufGroup(id model.IDGroupID) model.IDGroupID {
	if !id.IsValid() {
		return model.InvalidIDGroupID
	}
	members := m.b.cache.Registry.IDGroups[id]
	return m.b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, mem := range members {
			src := m.b.cache.Registry.ConstBufs[mem]
			newID := m.b.reg.GetOrAddConstBuf(model.ConstBufDef{
				NameID:    m.str(src.NameID),
				TotalSize: src.TotalSize,
				MembersID: m.remapConstGroup(src.MembersID),
			})
			buf = append(buf, uint32(newID))
		}
		return buf
	})
}

// remapShaderGroup re-adds a group whose members are ShaderIDs (a pass).
func (m *cacheMerger) remapShaderGroup(id model.IDGroupID) model.IDGroupID {
	members := m.b.cache.Registry.IDGroups[id]
	return m.b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, mem := range members {
			buf = append(buf, uint32(m.remapShader(model.ShaderID(mem))))
		}
		return buf
	})
}

// remapNestedGroup re-adds a group whose members are themselves
// IDGroupIDs (a technique's group of passes), applying leaf to each.
func (m *cacheMerger) remapNestedGroup(id model.IDGroupID, leaf func(model.IDGroupID) model.IDGroupID) model.IDGroupID {
	if !id.IsValid() {
		return model.InvalidIDGroupID
	}
	members := m.b.cache.Registry.IDGroups[id]
	return m.b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, mem := range members {
			buf = append(buf, uint32(leaf(model.IDGroupID(mem))))
		}
		return buf
	})
}
