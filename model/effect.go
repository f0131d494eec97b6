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

// EffectDef is a named ordered set of passes (spec §3). PassGroupID points
// to an IDGroup whose members are pass IDs (themselves IDGroupIDs whose
// members are ShaderIDs, in author order).
type EffectDef struct {
	NameID      StringID
	PassGroupID IDGroupID
}

// DefaultedPassName is the synthetic name given to a technique's implicit
// pass when shaders are declared directly at technique scope (spec §4.8.2).
const DefaultedPassName = "DefaultedPass"
