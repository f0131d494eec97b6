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

// VariantID packs a repo index (high bits) and a config index (low 16
// bits), per spec §3's variant-ID algebra.
type VariantID uint32

// VariantOffsetBits and VariantMask implement OFF=16 and MASK=0xFFFF.
const (
	VariantOffsetBits = 16
	VariantMask       = 0xFFFF
)

// ConfigID returns vID & MASK.
func (v VariantID) ConfigID() uint32 { return uint32(v) & VariantMask }

// RepoIndex returns vID >> OFF.
func (v VariantID) RepoIndex() uint32 { return uint32(v) >> VariantOffsetBits }

// MakeVariantID builds vID(r, c) = (r << OFF) | c.
func MakeVariantID(repoIndex, configID uint32) VariantID {
	return VariantID((repoIndex << VariantOffsetBits) | (configID & VariantMask))
}

// WithRepoIndex repacks v's configID under a new repo index, used by cache
// merges that move a repo to a different index in the current build.
func (v VariantID) WithRepoIndex(repoIndex uint32) VariantID {
	return MakeVariantID(repoIndex, v.ConfigID())
}

// ConfigIDTableDef is the per-repo flag/mode declaration (spec §3).
type ConfigIDTableDef struct {
	FlagIDs []StringID
	ModeIDs []StringID
}

// FlagCount is FC = len(flagIDs), capped at 8 by the preprocessor.
func (c *ConfigIDTableDef) FlagCount() int { return len(c.FlagIDs) }

// ModeCount is MC = max(1, len(modeIDs)), capped at 256.
func (c *ConfigIDTableDef) ModeCount() int {
	if len(c.ModeIDs) == 0 {
		return 1
	}
	return len(c.ModeIDs)
}

// FlagValueCount is FV = 1 << FC.
func (c *ConfigIDTableDef) FlagValueCount() int { return 1 << c.FlagCount() }

// VariantCount is FV * MC, the total configs for this repo.
func (c *ConfigIDTableDef) VariantCount() int { return c.FlagValueCount() * c.ModeCount() }

// SplitConfigID returns (flagBits, modeIndex) = (configID % FV, configID / FV).
func (c *ConfigIDTableDef) SplitConfigID(configID uint32) (flagBits, modeIndex uint32) {
	fv := uint32(c.FlagValueCount())
	return configID % fv, configID / fv
}

// JoinConfigID is the inverse: configID(f, m) = f + m*FV.
func (c *ConfigIDTableDef) JoinConfigID(flagBits, modeIndex uint32) uint32 {
	return flagBits + modeIndex*uint32(c.FlagValueCount())
}

// ShaderVariantRef pairs a registry ShaderID with the variant it was
// generated for.
type ShaderVariantRef struct {
	ShaderID  ShaderID
	VariantID VariantID
}

// EffectVariantRef pairs a registry EffectID with the variant it was
// generated for.
type EffectVariantRef struct {
	EffectID  EffectID
	VariantID VariantID
}

// VariantDef holds the shaders and effects produced for one config index
// of one repo.
type VariantDef struct {
	Shaders []ShaderVariantRef
	Effects []EffectVariantRef
}

// Clone returns a deep copy, used when a duplicate-text variant reuses a
// prior VariantDef and retags its VariantID fields (spec §4.8 step 1.b).
func (v VariantDef) Clone() VariantDef {
	out := VariantDef{
		Shaders: make([]ShaderVariantRef, len(v.Shaders)),
		Effects: make([]EffectVariantRef, len(v.Effects)),
	}
	copy(out.Shaders, v.Shaders)
	copy(out.Effects, v.Effects)
	return out
}

// RetagVariantID rewrites every Shaders/Effects entry's VariantID to vID,
// keeping the referenced registry IDs untouched.
func (v *VariantDef) RetagVariantID(vID VariantID) {
	for i := range v.Shaders {
		v.Shaders[i].VariantID = vID
	}
	for i := range v.Effects {
		v.Effects[i].VariantID = vID
	}
}

// VariantRepoDef is one user-authored repository's compiled state.
type VariantRepoDef struct {
	Path            string
	SourceSizeBytes uint32
	SourceCRC32     uint32
	ConfigTable     ConfigIDTableDef
	Variants        []VariantDef
}
