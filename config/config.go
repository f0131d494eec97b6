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

// Package config implements the config-ID algebra (spec §4.3): translating
// a repo's declared flags and modes into packed variant config IDs and
// back.
package config

import (
	"context"

	"github.com/weavefx/wfxc/internal/wlog"
	"github.com/weavefx/wfxc/model"
)

// Table wraps a ConfigIDTableDef with the operations of spec §4.3. The
// first entry of ModeIDs is always the implicit default mode (index 0),
// matching the preprocessor's pragma rule (spec §4.4: "the first declared
// is the implicit default").
type Table struct {
	Def model.ConfigIDTableDef
}

// New builds a Table from declared flag and mode names, in declaration
// order (bit position / mode index is positional, per spec §4.3).
func New(flagIDs, modeIDs []model.StringID) *Table {
	return &Table{Def: model.ConfigIDTableDef{FlagIDs: flagIDs, ModeIDs: modeIDs}}
}

func (t *Table) flagIndex(nameID model.StringID) int {
	for i, id := range t.Def.FlagIDs {
		if id == nameID {
			return i
		}
	}
	return -1
}

func (t *Table) modeIndex(nameID model.StringID) int {
	for i, id := range t.Def.ModeIDs {
		if id == nameID {
			return i
		}
	}
	return -1
}

// SetFlag returns a configID equal to cfgID with nameID's bit set to val.
// If nameID is not a declared flag, cfgID is returned unchanged.
func (t *Table) SetFlag(nameID model.StringID, val bool, cfgID uint32) uint32 {
	i := t.flagIndex(nameID)
	if i < 0 {
		return cfgID
	}
	flagBits, modeIndex := t.Def.SplitConfigID(cfgID)
	bit := uint32(1) << uint(i)
	if val {
		flagBits |= bit
	} else {
		flagBits &^= bit
	}
	return t.Def.JoinConfigID(flagBits, modeIndex)
}

// SetMode returns a configID equal to cfgID with its mode switched to
// nameID, keeping flags unchanged. If nameID is not a declared mode,
// cfgID is returned unchanged.
func (t *Table) SetMode(nameID model.StringID, cfgID uint32) uint32 {
	i := t.modeIndex(nameID)
	if i < 0 {
		return cfgID
	}
	flagBits, _ := t.Def.SplitConfigID(cfgID)
	return t.Def.JoinConfigID(flagBits, uint32(i))
}

// ResetMode returns cfgID with its mode reset to the implicit default
// (index 0), keeping flags unchanged.
func (t *Table) ResetMode(cfgID uint32) uint32 {
	flagBits, _ := t.Def.SplitConfigID(cfgID)
	return t.Def.JoinConfigID(flagBits, 0)
}

// ResetFlags returns cfgID with every flag bit cleared, keeping the mode
// unchanged.
func (t *Table) ResetFlags(cfgID uint32) uint32 {
	_, modeIndex := t.Def.SplitConfigID(cfgID)
	return t.Def.JoinConfigID(0, modeIndex)
}

// IsDefined reports whether nameID (a declared flag or non-default mode)
// is active in cfgID.
func (t *Table) IsDefined(nameID model.StringID, cfgID uint32) bool {
	flagBits, modeIndex := t.Def.SplitConfigID(cfgID)
	if i := t.flagIndex(nameID); i >= 0 {
		return flagBits&(uint32(1)<<uint(i)) != 0
	}
	if i := t.modeIndex(nameID); i > 0 {
		return uint32(i) == modeIndex
	}
	return false
}

// GetDefines returns the mode name (if non-default) followed by every set
// flag's name, in declaration order — the same order the variant
// preprocessor injects macros in (spec §4.4.1), minus the unconditional
// default-mode macro which is not a declared name.
func (t *Table) GetDefines(cfgID uint32) []model.StringID {
	flagBits, modeIndex := t.Def.SplitConfigID(cfgID)
	var out []model.StringID
	if modeIndex > 0 && int(modeIndex) < len(t.Def.ModeIDs) {
		out = append(out, t.Def.ModeIDs[modeIndex])
	}
	for i, id := range t.Def.FlagIDs {
		if flagBits&(uint32(1)<<uint(i)) != 0 {
			out = append(out, id)
		}
	}
	return out
}

// SetDefines reconstructs a configID from a list of declared flag/mode
// names. The latest mode name in the list wins over earlier ones; a
// conflict between two distinct modes is logged as a warning (spec §4.3:
// "Mutually exclusive modes in a define list: the latest wins; a warning
// is logged.").
func (t *Table) SetDefines(ctx context.Context, list []model.StringID) uint32 {
	var flagBits, modeIndex uint32
	haveMode := false
	for _, id := range list {
		if i := t.flagIndex(id); i >= 0 {
			flagBits |= uint32(1) << uint(i)
			continue
		}
		if i := t.modeIndex(id); i >= 0 {
			if haveMode && uint32(i) != modeIndex {
				wlog.Wrap(ctx).Warning().Logf("mutually exclusive modes in define list: mode index %d overrides %d", i, modeIndex)
			}
			modeIndex = uint32(i)
			haveMode = true
		}
	}
	return t.Def.JoinConfigID(flagBits, modeIndex)
}
