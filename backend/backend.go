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

// Package backend specifies the compile/reflect contract (spec §6): an
// opaque "compile HLSL to bytecode + produce reflection" service whose
// implementation is out of this core. A real HLSL/D3D compiler binding
// is not provided; backend/faketest supplies a deterministic test double.
package backend

import (
	"context"

	"github.com/weavefx/wfxc/model"
)

// Request is one compile/reflect call's input.
type Request struct {
	Source       string
	Path         string // for diagnostics only
	Stage        model.ShaderStage
	Entrypoint   string
	FeatureLevel string
	Debug        bool
}

// ConstantInfo is one reflected constant-buffer member.
type ConstantInfo struct {
	Name   string
	Offset uint32
	Size   uint32
}

// ConstBufInfo is one reflected constant buffer.
type ConstBufInfo struct {
	Name      string
	TotalSize uint32
	Members   []ConstantInfo
}

// ParamInfo is one reflected input or output signature parameter.
type ParamInfo struct {
	Name          string
	Semantic      string
	SemanticIndex uint32
	Register      uint32
}

// ResourceInfo is one reflected bound resource.
type ResourceInfo struct {
	Name string
	Slot uint32
	Kind model.ShaderTypes
}

// Reflection is the full set of metadata the backend reports alongside
// the bytecode blob (spec §6).
type Reflection struct {
	Inputs          []ParamInfo
	Outputs         []ParamInfo
	ConstBufs       []ConstBufInfo
	Resources       []ResourceInfo
	ThreadGroupSize model.ThreadGroupSize
}

// Result is a successful compile/reflect call's output.
type Result struct {
	ByteCode   []byte
	Reflection Reflection
}

// Compiler is the external collaborator the library builder calls once
// per entrypoint per variant. Implementations are not assumed reentrant:
// the builder never calls Compile concurrently with itself (spec §5
// "Suspension points").
type Compiler interface {
	Compile(ctx context.Context, req Request) (Result, error)
}
