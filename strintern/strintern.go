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

// Package strintern implements the string interner (spec §4.1): an
// append-only map from distinct strings to 32-bit IDs, with optional
// sharing of a parent interner.
package strintern

import "github.com/weavefx/wfxc/model"

// Table is one interner. It may have a parent, in which case lookups fall
// back to the parent but new insertions always land in this table.
type Table struct {
	parent *Table
	byStr  map[string]model.StringID
	byID   []string // local strings only; index 0 corresponds to parentLen
	parentLen int
}

// New creates a standalone interner with no parent.
func New() *Table {
	return &Table{byStr: make(map[string]model.StringID)}
}

// NewChild creates an interner that shares parent's existing strings:
// intern first falls back to parent for lookup, but new insertions go
// into the child only (spec §4.1).
func NewChild(parent *Table) *Table {
	return &Table{
		parent:    parent,
		byStr:     make(map[string]model.StringID),
		parentLen: parent.Len(),
	}
}

// Len returns the total number of distinct strings visible through this
// table, including any parent's.
func (t *Table) Len() int {
	if t.parent != nil {
		return t.parentLen + len(t.byID)
	}
	return len(t.byID)
}

// Intern returns s's StringID, allocating a new one if s has not been
// seen before by this table or its parent chain.
func (t *Table) Intern(s string) model.StringID {
	if id, ok := t.TryLookup(s); ok {
		return id
	}
	id := model.StringID(uint32(t.Len()))
	t.byStr[s] = id
	t.byID = append(t.byID, s)
	return id
}

// TryLookup returns the StringID for s without allocating, checking this
// table then falling back to the parent.
func (t *Table) TryLookup(s string) (model.StringID, bool) {
	if id, ok := t.byStr[s]; ok {
		return id, true
	}
	if t.parent != nil {
		if id, ok := t.parent.TryLookup(s); ok {
			return id, true
		}
	}
	return model.InvalidStringID, false
}

// Lookup returns the string for id, panicking if id is out of range — a
// programmer error, since every ID in the registry must already be
// interned (invariant I1).
func (t *Table) Lookup(id model.StringID) string {
	idx := uint32(id)
	if t.parent != nil {
		if int(idx) < t.parentLen {
			return t.parent.Lookup(id)
		}
		idx -= uint32(t.parentLen)
	}
	return t.byID[idx]
}

// Handle returns a read-only view over this table, safe to share across
// threads once the table stops mutating (spec §4.1 get_handle).
func (t *Table) Handle() ReadOnlyHandle {
	return ReadOnlyHandle{t: t}
}

// ReadOnlyHandle exposes Lookup/TryLookup without Intern, for consumers
// that must not grow the table (e.g. the runtime library map).
type ReadOnlyHandle struct{ t *Table }

func (h ReadOnlyHandle) Lookup(id model.StringID) string             { return h.t.Lookup(id) }
func (h ReadOnlyHandle) TryLookup(s string) (model.StringID, bool)    { return h.t.TryLookup(s) }

// All returns every local string together with its ID, in ID order,
// including inherited parent strings. Used by serialization to flatten
// the interner into ShaderLibDef.StringIDs.
func (t *Table) All() []string {
	out := make([]string, 0, t.Len())
	if t.parent != nil {
		out = append(out, t.parent.All()...)
	}
	out = append(out, t.byID...)
	return out
}

// RemapTable maps an old StringID (from a foreign table) to the ID it now
// has in this table, built by Merge.
type RemapTable map[model.StringID]model.StringID

// Merge interns every string from a foreign flattened string list into t,
// returning an old→new StringID alias table (spec §4.1 "merge of a
// foreign map producing an aliasing table old→new").
func (t *Table) Merge(foreign []string) RemapTable {
	remap := make(RemapTable, len(foreign))
	for i, s := range foreign {
		remap[model.StringID(uint32(i))] = t.Intern(s)
	}
	return remap
}

// LoadFrom rebuilds a standalone interner from a flattened string list
// (e.g. a deserialized ShaderLibDef.StringIDs), preserving IDs exactly.
func LoadFrom(strs []string) *Table {
	t := New()
	t.byID = append(t.byID, strs...)
	for i, s := range strs {
		t.byStr[s] = model.StringID(uint32(i))
	}
	return t
}
