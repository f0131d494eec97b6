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

// Package registry implements the append-only, deduplicating registry
// builder (spec §4.2): one arena per content type, each exposing
// get_or_add, with value-identity dedup so identical content always
// collapses to the same ID.
package registry

import (
	"encoding/binary"

	"github.com/weavefx/wfxc/model"
)

// Builder owns the registry's parallel arenas for one library build.
// ID allocation is stable within a build (spec §4.2).
type Builder struct {
	constants  []model.ConstantDef
	constBufs  []model.ConstBufDef
	ioElements []model.IOElementDef
	resources  []model.ResourceDef
	idGroups   [][]uint32
	byteCode   [][]byte

	shaders []model.ShaderDef
	effects []model.EffectDef

	constIdx     map[model.ConstantDef]model.ConstID
	constBufIdx  map[model.ConstBufDef]model.ConstBufID
	ioElementIdx map[model.IOElementDef]model.IOElementID
	resourceIdx  map[model.ResourceDef]model.ResourceID
	idGroupIdx   map[string]model.IDGroupID
	byteCodeIdx  map[string]model.ByteCodeID
	shaderIdx    map[model.ShaderDef]model.ShaderID
	effectIdx    map[model.EffectDef]model.EffectID

	scratchPool [][]uint32
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{
		constIdx:     make(map[model.ConstantDef]model.ConstID),
		constBufIdx:  make(map[model.ConstBufDef]model.ConstBufID),
		ioElementIdx: make(map[model.IOElementDef]model.IOElementID),
		resourceIdx:  make(map[model.ResourceDef]model.ResourceID),
		idGroupIdx:   make(map[string]model.IDGroupID),
		byteCodeIdx:  make(map[string]model.ByteCodeID),
		shaderIdx:    make(map[model.ShaderDef]model.ShaderID),
		effectIdx:    make(map[model.EffectDef]model.EffectID),
	}
}

// GetOrAddConstant dedups by full struct equality (spec I5).
func (b *Builder) GetOrAddConstant(v model.ConstantDef) model.ConstID {
	if id, ok := b.constIdx[v]; ok {
		return id
	}
	id := model.ConstID(len(b.constants))
	b.constants = append(b.constants, v)
	b.constIdx[v] = id
	return id
}

func (b *Builder) GetOrAddConstBuf(v model.ConstBufDef) model.ConstBufID {
	if id, ok := b.constBufIdx[v]; ok {
		return id
	}
	id := model.ConstBufID(len(b.constBufs))
	b.constBufs = append(b.constBufs, v)
	b.constBufIdx[v] = id
	return id
}

func (b *Builder) GetOrAddIOElement(v model.IOElementDef) model.IOElementID {
	if id, ok := b.ioElementIdx[v]; ok {
		return id
	}
	id := model.IOElementID(len(b.ioElements))
	b.ioElements = append(b.ioElements, v)
	b.ioElementIdx[v] = id
	return id
}

func (b *Builder) GetOrAddResource(v model.ResourceDef) model.ResourceID {
	if id, ok := b.resourceIdx[v]; ok {
		return id
	}
	id := model.ResourceID(len(b.resources))
	b.resources = append(b.resources, v)
	b.resourceIdx[v] = id
	return id
}

// GetOrAddIDGroup dedups an ordered []uint32 by ordered equality (spec §4.2
// "ID groups use ordered equality"). The slice is copied; callers may
// reuse scratch buffers (see GetTmpIDBuffer).
func (b *Builder) GetOrAddIDGroup(v []uint32) model.IDGroupID {
	key := groupKey(v)
	if id, ok := b.idGroupIdx[key]; ok {
		return id
	}
	cp := make([]uint32, len(v))
	copy(cp, v)
	id := model.IDGroupID(len(b.idGroups))
	b.idGroups = append(b.idGroups, cp)
	b.idGroupIdx[key] = id
	return id
}

func groupKey(v []uint32) string {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], x)
	}
	return string(buf)
}

// GetOrAddByteCode dedups shader bytecode blobs by content (spec §4.2,
// P2: identical bytecode collapses to one entry).
func (b *Builder) GetOrAddByteCode(v []byte) model.ByteCodeID {
	key := string(v)
	if id, ok := b.byteCodeIdx[key]; ok {
		return id
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	id := model.ByteCodeID(len(b.byteCode))
	b.byteCode = append(b.byteCode, cp)
	b.byteCodeIdx[key] = id
	return id
}

func (b *Builder) GetOrAddShader(v model.ShaderDef) model.ShaderID {
	if id, ok := b.shaderIdx[v]; ok {
		return id
	}
	id := model.ShaderID(len(b.shaders))
	b.shaders = append(b.shaders, v)
	b.shaderIdx[v] = id
	return id
}

func (b *Builder) GetOrAddEffect(v model.EffectDef) model.EffectID {
	if id, ok := b.effectIdx[v]; ok {
		return id
	}
	id := model.EffectID(len(b.effects))
	b.effects = append(b.effects, v)
	b.effectIdx[v] = id
	return id
}

// Lookups by ID, used by handles and by the HLSL generator / cache merge.

func (b *Builder) Constant(id model.ConstID) model.ConstantDef       { return b.constants[id] }
func (b *Builder) ConstBuf(id model.ConstBufID) model.ConstBufDef    { return b.constBufs[id] }
func (b *Builder) IOElement(id model.IOElementID) model.IOElementDef { return b.ioElements[id] }
func (b *Builder) Resource(id model.ResourceID) model.ResourceDef    { return b.resources[id] }
func (b *Builder) IDGroup(id model.IDGroupID) []uint32               { return b.idGroups[id] }
func (b *Builder) ByteCode(id model.ByteCodeID) []byte               { return b.byteCode[id] }
func (b *Builder) Shader(id model.ShaderID) model.ShaderDef          { return b.shaders[id] }
func (b *Builder) Effect(id model.EffectID) model.EffectDef          { return b.effects[id] }

// Counts, for statistics and serialization sizing.
func (b *Builder) ShaderCount() int  { return len(b.shaders) }
func (b *Builder) EffectCount() int  { return len(b.effects) }
func (b *Builder) ResourceCount() int { return len(b.resources) }

// ToDef flattens the arenas into the serializable RegistryDef (spec §3).
func (b *Builder) ToDef() model.RegistryDef {
	return model.RegistryDef{
		Constants:  append([]model.ConstantDef(nil), b.constants...),
		ConstBufs:  append([]model.ConstBufDef(nil), b.constBufs...),
		IOElements: append([]model.IOElementDef(nil), b.ioElements...),
		Resources:  append([]model.ResourceDef(nil), b.resources...),
		IDGroups:   append([][]uint32(nil), b.idGroups...),
		ByteCode:   append([][]byte(nil), b.byteCode...),
		Shaders:    append([]model.ShaderDef(nil), b.shaders...),
		Effects:    append([]model.EffectDef(nil), b.effects...),
	}
}

// FromDef rebuilds a Builder from a deserialized RegistryDef, re-deriving
// the dedup indices so further get_or_add calls (e.g. a cache merge) still
// dedup correctly against the loaded content.
func FromDef(d model.RegistryDef) *Builder {
	b := New()
	for _, v := range d.Constants {
		b.GetOrAddConstant(v)
	}
	for _, v := range d.ConstBufs {
		b.GetOrAddConstBuf(v)
	}
	for _, v := range d.IOElements {
		b.GetOrAddIOElement(v)
	}
	for _, v := range d.Resources {
		b.GetOrAddResource(v)
	}
	for _, v := range d.IDGroups {
		b.GetOrAddIDGroup(v)
	}
	for _, v := range d.ByteCode {
		b.GetOrAddByteCode(v)
	}
	for _, v := range d.Shaders {
		b.GetOrAddShader(v)
	}
	for _, v := range d.Effects {
		b.GetOrAddEffect(v)
	}
	return b
}

// GetTmpIDBuffer acquires a reusable scratch []uint32 from the pool (spec
// §9 "Scoped acquisition of work buffers"). Callers must return it via
// ReturnTmpIDBuffer on every exit path; prefer WithTmpIDBuffer below.
func (b *Builder) GetTmpIDBuffer() []uint32 {
	if n := len(b.scratchPool); n > 0 {
		buf := b.scratchPool[n-1]
		b.scratchPool = b.scratchPool[:n-1]
		return buf[:0]
	}
	return make([]uint32, 0, 8)
}

// ReturnTmpIDBuffer resets and returns buf to the pool.
func (b *Builder) ReturnTmpIDBuffer(buf []uint32) {
	b.scratchPool = append(b.scratchPool, buf[:0])
}

// WithTmpIDBuffer runs fn with a scratch buffer and registers the result it
// builds via GetOrAddIDGroup, guaranteeing the buffer is returned to the
// pool on every exit path (panic included).
func (b *Builder) WithTmpIDBuffer(fn func(buf []uint32) []uint32) model.IDGroupID {
	buf := b.GetTmpIDBuffer()
	defer b.ReturnTmpIDBuffer(buf)
	buf = fn(buf)
	return b.GetOrAddIDGroup(buf)
}
