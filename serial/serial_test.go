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

import (
	"reflect"
	"strings"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/model"
)

func sampleLibDef() *model.ShaderLibDef {
	return &model.ShaderLibDef{
		Name: "test-lib",
		Platform: model.Platform{
			PreprocVersion: 3,
			PreprocBuild:   "abc123",
			BackendVersion: 7,
			FeatureLevel:   "5_0",
			Target:         model.TargetD3D11,
		},
		Repos: []model.VariantRepoDef{
			{
				Path:            "fx.wfx",
				SourceSizeBytes: 42,
				SourceCRC32:     0xdeadbeef,
				ConfigTable:     model.ConfigIDTableDef{FlagIDs: []model.StringID{1}, ModeIDs: []model.StringID{2, 3}},
				Variants: []model.VariantDef{
					{Shaders: []model.ShaderVariantRef{{ShaderID: 0, VariantID: model.MakeVariantID(0, 0)}}},
				},
			},
		},
		Registry: model.RegistryDef{
			ByteCode: [][]byte{[]byte("bytecode-blob")},
			Shaders: []model.ShaderDef{
				{NameID: 4, Stage: model.StageVertex, ByteCodeID: 0},
			},
			IDGroups: [][]uint32{{1, 2, 3}},
		},
		StringIDs: []string{"", "FEATURE_A", "MODE_LOW", "MODE_HIGH", "VS_Main"},
	}
}

// P8 / spec §4.8: a cache round trip through Encode/Decode preserves the
// full library definition.
func TestCacheRoundTrip(t *testing.T) {
	def := sampleLibDef()
	blob, err := EncodeCache(def, 6)
	wassert.For(t, "encode error").That(err).IsNil()

	decoded, err := DecodeCache(blob)
	wassert.For(t, "decode error").That(err).IsNil()

	wassert.For(t, "name").That(decoded.Name).Equals(def.Name)
	wassert.For(t, "platform").That(decoded.Platform).Equals(def.Platform)

	wassert.For(t, "repo count").That(len(decoded.Repos)).Equals(len(def.Repos))
	wassert.For(t, "repo path").That(decoded.Repos[0].Path).Equals(def.Repos[0].Path)
	wassert.For(t, "repo size").That(decoded.Repos[0].SourceSizeBytes).Equals(def.Repos[0].SourceSizeBytes)
	wassert.For(t, "repo crc").That(decoded.Repos[0].SourceCRC32).Equals(def.Repos[0].SourceCRC32)
	if !reflect.DeepEqual(decoded.Repos[0].ConfigTable, def.Repos[0].ConfigTable) {
		t.Errorf("config table mismatch:\ngot  %+v\nwant %+v", decoded.Repos[0].ConfigTable, def.Repos[0].ConfigTable)
	}
	if !reflect.DeepEqual(decoded.Repos[0].Variants[0].Shaders, def.Repos[0].Variants[0].Shaders) {
		t.Errorf("variant shaders mismatch:\ngot  %+v\nwant %+v", decoded.Repos[0].Variants[0].Shaders, def.Repos[0].Variants[0].Shaders)
	}

	if !reflect.DeepEqual(decoded.Registry.ByteCode, def.Registry.ByteCode) {
		t.Errorf("bytecode mismatch:\ngot  %+v\nwant %+v", decoded.Registry.ByteCode, def.Registry.ByteCode)
	}
	if !reflect.DeepEqual(decoded.Registry.Shaders, def.Registry.Shaders) {
		t.Errorf("shaders mismatch:\ngot  %+v\nwant %+v", decoded.Registry.Shaders, def.Registry.Shaders)
	}
	if !reflect.DeepEqual(decoded.Registry.IDGroups, def.Registry.IDGroups) {
		t.Errorf("id groups mismatch:\ngot  %+v\nwant %+v", decoded.Registry.IDGroups, def.Registry.IDGroups)
	}
	if !reflect.DeepEqual(decoded.StringIDs, def.StringIDs) {
		t.Errorf("string ids mismatch:\ngot  %+v\nwant %+v", decoded.StringIDs, def.StringIDs)
	}
}

// A flipped last byte of the compressed payload (the zlib stream's own
// checksum trailer) makes decompression fail, reported as a non-fatal
// CacheError, never a panic.
func TestCacheDetectsCorruption(t *testing.T) {
	def := sampleLibDef()
	blob, err := EncodeCache(def, 6)
	wassert.For(t, "encode error").That(err).IsNil()

	corrupt := append([]byte(nil), blob...)
	corrupt[len(corrupt)-1] ^= 0xff

	_, err = DecodeCache(corrupt)
	wassert.For(t, "corruption detected").That(err).IsNotNil()
}

func TestDecodeCacheRejectsTruncatedFrame(t *testing.T) {
	_, err := DecodeCache([]byte{1, 2, 3})
	wassert.For(t, "truncated frame error").That(err).IsNotNil()
}

func TestSanitizeIdentifierReplacesNonIdentifierBytes(t *testing.T) {
	cases := []struct{ in, want string }{
		{"MyShader", "MyShader"},
		{"my-shader.fx", "my_shader_fx"},
		{"9lives", "_9lives"},
		{"", "_"},
		{"___", "___"},
	}
	for _, c := range cases {
		got := SanitizeIdentifier(c.in)
		wassert.For(t, "sanitize "+c.in).That(got).Equals(c.want)
	}
}

func TestWriteHeaderPadsToWordBoundaryAndNamesArray(t *testing.T) {
	var sb strings.Builder
	WriteHeader(&sb, "my-fx", []byte{1, 2, 3})
	out := sb.String()

	wassert.For(t, "pragma once present").That(strings.Contains(out, "#pragma once")).Equals(true)
	wassert.For(t, "sanitized array name").That(strings.Contains(out, "s_FX_my_fx[1]")).Equals(true)
	// 3 bytes pad to a single zero-extended little-endian uint64 word:
	// 0x0000000000030201.
	wassert.For(t, "padded word value").That(strings.Contains(out, "0x0000000000030201ULL")).Equals(true)
}
