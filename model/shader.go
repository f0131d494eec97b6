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

// ShaderStage identifies the GPU pipeline stage an entrypoint targets.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageHull
	StageDomain
	StageGeometry
	StagePixel
	StageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageGeometry:
		return "geometry"
	case StagePixel:
		return "pixel"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// ThreadGroupSize is the (x, y, z) numthreads declaration, meaningful only
// for StageCompute.
type ThreadGroupSize [3]uint32

// ShaderDef is one compiled, reflected shader entrypoint (spec §3).
type ShaderDef struct {
	FileNameID      StringID
	ByteCodeID      ByteCodeID
	NameID          StringID
	Stage           ShaderStage
	ThreadGroupSize ThreadGroupSize
	InLayoutID      IDGroupID // group of input-parameter IOElementIDs; InvalidID if none
	OutLayoutID     IDGroupID // group of output-parameter IOElementIDs; InvalidID if none
	ResLayoutID     IDGroupID // group of resource descriptor ResourceIDs; InvalidID if none
	CBufGroupID     IDGroupID // group of constant-buffer ConstBufIDs; InvalidID if none
}
