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

package serial

import "github.com/weavefx/wfxc/model"

// WriteShaderLibDef encodes def in the field order fixed by spec §3:
// name, platform, repos, registry, stringIDs.
func WriteShaderLibDef(w *Writer, def *model.ShaderLibDef) {
	w.String(def.Name)
	writePlatform(w, def.Platform)

	w.Uint32(uint32(len(def.Repos)))
	for _, r := range def.Repos {
		writeVariantRepo(w, r)
	}

	writeRegistry(w, def.Registry)

	w.Uint32(uint32(len(def.StringIDs)))
	for _, s := range def.StringIDs {
		w.String(s)
	}
}

func writePlatform(w *Writer, p model.Platform) {
	w.Uint32(p.PreprocVersion)
	w.String(p.PreprocBuild)
	w.Uint32(p.BackendVersion)
	w.String(p.FeatureLevel)
	w.Uint8(uint8(p.Target))
}

func writeVariantRepo(w *Writer, r model.VariantRepoDef) {
	w.String(r.Path)
	w.Uint32(r.SourceSizeBytes)
	w.Uint32(r.SourceCRC32)
	writeConfigTable(w, r.ConfigTable)
	w.Uint32(uint32(len(r.Variants)))
	for _, v := range r.Variants {
		writeVariant(w, v)
	}
}

func writeConfigTable(w *Writer, c model.ConfigIDTableDef) {
	w.Uint32(uint32(len(c.FlagIDs)))
	for _, id := range c.FlagIDs {
		w.Uint32(uint32(id))
	}
	w.Uint32(uint32(len(c.ModeIDs)))
	for _, id := range c.ModeIDs {
		w.Uint32(uint32(id))
	}
}

func writeVariant(w *Writer, v model.VariantDef) {
	w.Uint32(uint32(len(v.Shaders)))
	for _, s := range v.Shaders {
		w.Uint32(uint32(s.ShaderID))
		w.Uint32(uint32(s.VariantID))
	}
	w.Uint32(uint32(len(v.Effects)))
	for _, e := range v.Effects {
		w.Uint32(uint32(e.EffectID))
		w.Uint32(uint32(e.VariantID))
	}
}

func writeRegistry(w *Writer, reg model.RegistryDef) {
	w.Uint32(uint32(len(reg.Constants)))
	for _, c := range reg.Constants {
		w.Uint32(uint32(c.NameID))
		w.Uint32(c.Offset)
		w.Uint32(c.Size)
	}

	w.Uint32(uint32(len(reg.ConstBufs)))
	for _, cb := range reg.ConstBufs {
		w.Uint32(uint32(cb.NameID))
		w.Uint32(cb.TotalSize)
		w.Uint32(uint32(cb.MembersID))
	}

	w.Uint32(uint32(len(reg.IOElements)))
	for _, io := range reg.IOElements {
		w.Uint32(uint32(io.NameID))
		w.Uint32(uint32(io.SemanticID))
		w.Uint32(io.SemanticIndex)
		w.Uint32(io.Register)
	}

	w.Uint32(uint32(len(reg.Resources)))
	for _, res := range reg.Resources {
		w.Uint32(uint32(res.NameID))
		w.Uint32(res.Slot)
		w.Uint32(uint32(res.Kind))
	}

	w.Uint32(uint32(len(reg.IDGroups)))
	for _, g := range reg.IDGroups {
		w.Uint32Slice(g)
	}

	w.Uint32(uint32(len(reg.ByteCode)))
	for _, b := range reg.ByteCode {
		w.Data(b)
	}

	w.Uint32(uint32(len(reg.Shaders)))
	for _, s := range reg.Shaders {
		w.Uint32(uint32(s.FileNameID))
		w.Uint32(uint32(s.ByteCodeID))
		w.Uint32(uint32(s.NameID))
		w.Uint8(uint8(s.Stage))
		w.Uint32(s.ThreadGroupSize[0])
		w.Uint32(s.ThreadGroupSize[1])
		w.Uint32(s.ThreadGroupSize[2])
		w.Uint32(uint32(s.InLayoutID))
		w.Uint32(uint32(s.OutLayoutID))
		w.Uint32(uint32(s.ResLayoutID))
		w.Uint32(uint32(s.CBufGroupID))
	}

	w.Uint32(uint32(len(reg.Effects)))
	for _, e := range reg.Effects {
		w.Uint32(uint32(e.NameID))
		w.Uint32(uint32(e.PassGroupID))
	}
}

// ReadShaderLibDef decodes a ShaderLibDef in the inverse of
// WriteShaderLibDef's field order. Check r.Err() after calling.
func ReadShaderLibDef(r *Reader) model.ShaderLibDef {
	var def model.ShaderLibDef
	def.Name = r.String()
	def.Platform = readPlatform(r)

	repoCount := r.Uint32()
	def.Repos = make([]model.VariantRepoDef, repoCount)
	for i := range def.Repos {
		def.Repos[i] = readVariantRepo(r)
	}

	def.Registry = readRegistry(r)

	strCount := r.Uint32()
	def.StringIDs = make([]string, strCount)
	for i := range def.StringIDs {
		def.StringIDs[i] = r.String()
	}
	return def
}

func readPlatform(r *Reader) model.Platform {
	var p model.Platform
	p.PreprocVersion = r.Uint32()
	p.PreprocBuild = r.String()
	p.BackendVersion = r.Uint32()
	p.FeatureLevel = r.String()
	p.Target = model.TargetPlatform(r.Uint8())
	return p
}

func readVariantRepo(r *Reader) model.VariantRepoDef {
	var v model.VariantRepoDef
	v.Path = r.String()
	v.SourceSizeBytes = r.Uint32()
	v.SourceCRC32 = r.Uint32()
	v.ConfigTable = readConfigTable(r)
	n := r.Uint32()
	v.Variants = make([]model.VariantDef, n)
	for i := range v.Variants {
		v.Variants[i] = readVariant(r)
	}
	return v
}

func readConfigTable(r *Reader) model.ConfigIDTableDef {
	var c model.ConfigIDTableDef
	n := r.Uint32()
	c.FlagIDs = make([]model.StringID, n)
	for i := range c.FlagIDs {
		c.FlagIDs[i] = model.StringID(r.Uint32())
	}
	n = r.Uint32()
	c.ModeIDs = make([]model.StringID, n)
	for i := range c.ModeIDs {
		c.ModeIDs[i] = model.StringID(r.Uint32())
	}
	return c
}

func readVariant(r *Reader) model.VariantDef {
	var v model.VariantDef
	n := r.Uint32()
	v.Shaders = make([]model.ShaderVariantRef, n)
	for i := range v.Shaders {
		v.Shaders[i] = model.ShaderVariantRef{
			ShaderID:  model.ShaderID(r.Uint32()),
			VariantID: model.VariantID(r.Uint32()),
		}
	}
	n = r.Uint32()
	v.Effects = make([]model.EffectVariantRef, n)
	for i := range v.Effects {
		v.Effects[i] = model.EffectVariantRef{
			EffectID:  model.EffectID(r.Uint32()),
			VariantID: model.VariantID(r.Uint32()),
		}
	}
	return v
}

func readRegistry(r *Reader) model.RegistryDef {
	var reg model.RegistryDef

	n := r.Uint32()
	reg.Constants = make([]model.ConstantDef, n)
	for i := range reg.Constants {
		reg.Constants[i] = model.ConstantDef{
			NameID: model.StringID(r.Uint32()),
			Offset: r.Uint32(),
			Size:   r.Uint32(),
		}
	}

	n = r.Uint32()
	reg.ConstBufs = make([]model.ConstBufDef, n)
	for i := range reg.ConstBufs {
		reg.ConstBufs[i] = model.ConstBufDef{
			NameID:    model.StringID(r.Uint32()),
			TotalSize: r.Uint32(),
			MembersID: model.IDGroupID(r.Uint32()),
		}
	}

	n = r.Uint32()
	reg.IOElements = make([]model.IOElementDef, n)
	for i := range reg.IOElements {
		reg.IOElements[i] = model.IOElementDef{
			NameID:        model.StringID(r.Uint32()),
			SemanticID:    model.StringID(r.Uint32()),
			SemanticIndex: r.Uint32(),
			Register:      r.Uint32(),
		}
	}

	n = r.Uint32()
	reg.Resources = make([]model.ResourceDef, n)
	for i := range reg.Resources {
		reg.Resources[i] = model.ResourceDef{
			NameID: model.StringID(r.Uint32()),
			Slot:   r.Uint32(),
			Kind:   model.ShaderTypes(r.Uint32()),
		}
	}

	n = r.Uint32()
	reg.IDGroups = make([][]uint32, n)
	for i := range reg.IDGroups {
		reg.IDGroups[i] = r.Uint32Slice()
	}

	n = r.Uint32()
	reg.ByteCode = make([][]byte, n)
	for i := range reg.ByteCode {
		reg.ByteCode[i] = r.Data()
	}

	n = r.Uint32()
	reg.Shaders = make([]model.ShaderDef, n)
	for i := range reg.Shaders {
		var s model.ShaderDef
		s.FileNameID = model.StringID(r.Uint32())
		s.ByteCodeID = model.ByteCodeID(r.Uint32())
		s.NameID = model.StringID(r.Uint32())
		s.Stage = model.ShaderStage(r.Uint8())
		s.ThreadGroupSize[0] = r.Uint32()
		s.ThreadGroupSize[1] = r.Uint32()
		s.ThreadGroupSize[2] = r.Uint32()
		s.InLayoutID = model.IDGroupID(r.Uint32())
		s.OutLayoutID = model.IDGroupID(r.Uint32())
		s.ResLayoutID = model.IDGroupID(r.Uint32())
		s.CBufGroupID = model.IDGroupID(r.Uint32())
		reg.Shaders[i] = s
	}

	n = r.Uint32()
	reg.Effects = make([]model.EffectDef, n)
	for i := range reg.Effects {
		reg.Effects[i] = model.EffectDef{
			NameID:      model.StringID(r.Uint32()),
			PassGroupID: model.IDGroupID(r.Uint32()),
		}
	}

	return reg
}
