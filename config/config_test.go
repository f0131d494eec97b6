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

package config

import (
	"context"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/model"
)

// P3: configID(f,m) = f + m*FV and the inverse is exact, for every
// 0 <= f < FV, 0 <= m < MC.
func TestConfigIDRoundTripsOverFullRange(t *testing.T) {
	def := model.ConfigIDTableDef{
		FlagIDs: []model.StringID{0, 1, 2},
		ModeIDs: []model.StringID{10, 11, 12},
	}
	fv := def.FlagValueCount()
	mc := def.ModeCount()
	for f := 0; f < fv; f++ {
		for m := 0; m < mc; m++ {
			id := def.JoinConfigID(uint32(f), uint32(m))
			gotF, gotM := def.SplitConfigID(id)
			if gotF != uint32(f) || gotM != uint32(m) {
				t.Errorf("round trip (f=%d,m=%d): got (f=%d,m=%d)", f, m, gotF, gotM)
			}
		}
	}
}

// P3: a set_flag/is_defined round trip preserves the flag set.
func TestSetFlagIsDefinedRoundTrips(t *testing.T) {
	featureA := model.StringID(1)
	featureB := model.StringID(2)
	tab := New([]model.StringID{featureA, featureB}, nil)

	cfg := tab.SetFlag(featureA, true, 0)
	wassert.For(t, "FEATURE_A set").That(tab.IsDefined(featureA, cfg)).Equals(true)
	wassert.For(t, "FEATURE_B untouched").That(tab.IsDefined(featureB, cfg)).Equals(false)

	cfg = tab.SetFlag(featureB, true, cfg)
	wassert.For(t, "FEATURE_A still set").That(tab.IsDefined(featureA, cfg)).Equals(true)
	wassert.For(t, "FEATURE_B now set").That(tab.IsDefined(featureB, cfg)).Equals(true)

	cfg = tab.SetFlag(featureA, false, cfg)
	wassert.For(t, "FEATURE_A cleared").That(tab.IsDefined(featureA, cfg)).Equals(false)
	wassert.For(t, "FEATURE_B still set after clearing A").That(tab.IsDefined(featureB, cfg)).Equals(true)
}

func TestSetModeKeepsFlagsAndSwitchesMode(t *testing.T) {
	flag := model.StringID(1)
	defaultMode := model.StringID(20)
	altMode := model.StringID(21)
	tab := New([]model.StringID{flag}, []model.StringID{defaultMode, altMode})

	cfg := tab.SetFlag(flag, true, 0)
	cfg = tab.SetMode(altMode, cfg)

	wassert.For(t, "flag survives mode switch").That(tab.IsDefined(flag, cfg)).Equals(true)
	wassert.For(t, "new mode is defined").That(tab.IsDefined(altMode, cfg)).Equals(true)

	cfg = tab.ResetMode(cfg)
	wassert.For(t, "flag survives mode reset").That(tab.IsDefined(flag, cfg)).Equals(true)
	wassert.For(t, "mode reset to default is not 'defined'").That(tab.IsDefined(altMode, cfg)).Equals(false)
}

// spec §4.3: a conflicting mode pair in a define list logs a warning but
// still resolves deterministically (latest wins).
func TestSetDefinesLatestModeWins(t *testing.T) {
	defaultMode := model.StringID(29)
	modeA := model.StringID(30)
	modeB := model.StringID(31)
	tab := New(nil, []model.StringID{defaultMode, modeA, modeB})

	cfg := tab.SetDefines(context.Background(), []model.StringID{modeA, modeB})
	wassert.For(t, "latest mode wins").That(tab.IsDefined(modeB, cfg)).Equals(true)
	wassert.For(t, "earlier mode loses").That(tab.IsDefined(modeA, cfg)).Equals(false)
}
