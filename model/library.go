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

// TargetPlatform is the output bytecode family. Per spec §1, the platform
// target is a tag on the output, not a divergent code path.
type TargetPlatform uint8

const (
	TargetD3D11 TargetPlatform = iota
	TargetD3D12
)

func (t TargetPlatform) String() string {
	switch t {
	case TargetD3D11:
		return "d3d11"
	case TargetD3D12:
		return "d3d12"
	default:
		return "unknown"
	}
}

// Platform is the build's target descriptor: preprocessor/backend
// versions plus the feature level and target enum (spec §4.8, §6).
type Platform struct {
	PreprocVersion uint32
	PreprocBuild   string
	BackendVersion uint32
	FeatureLevel   string
	Target         TargetPlatform
}

// Equal reports whether two platforms describe the same build
// configuration, used by the library builder to validate a cache before
// reuse (spec §4.8 "Cache ingestion").
func (p Platform) Equal(o Platform) bool {
	return p.PreprocVersion == o.PreprocVersion &&
		p.PreprocBuild == o.PreprocBuild &&
		p.BackendVersion == o.BackendVersion &&
		p.FeatureLevel == o.FeatureLevel &&
		p.Target == o.Target
}

// RegistryDef is the flattened, serializable form of the registry's
// parallel arenas (spec §3 "Registry").
type RegistryDef struct {
	Constants  []ConstantDef
	ConstBufs  []ConstBufDef
	IOElements []IOElementDef
	Resources  []ResourceDef
	IDGroups   [][]uint32
	ByteCode   [][]byte
	Shaders    []ShaderDef
	Effects    []EffectDef
}

// ShaderLibDef is the fully serialized artifact (spec §3).
type ShaderLibDef struct {
	Name      string
	Platform  Platform
	Repos     []VariantRepoDef
	Registry  RegistryDef
	StringIDs []string
}
