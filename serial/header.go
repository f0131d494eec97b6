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
	"encoding/binary"
	"fmt"
	"strings"
)

// SanitizeIdentifier converts stem into a valid C++ identifier fragment,
// mirroring gapid's stringgen-style sanitization: any non-identifier byte
// becomes `_`, and a leading digit gets a `_` prefix (spec §12
// "Supplemented features").
func SanitizeIdentifier(stem string) string {
	var sb strings.Builder
	for i, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// WriteHeader emits a C++ header declaring `constexpr uint64_t
// s_FX_<Name>[N]` packed little-endian from blob, tail-padded with zero
// bytes within the last u64 (spec §6 "Header emission").
func WriteHeader(w *strings.Builder, stem string, blob []byte) {
	name := "s_FX_" + SanitizeIdentifier(stem)

	words := (len(blob) + 7) / 8
	padded := make([]byte, words*8)
	copy(padded, blob)

	fmt.Fprintf(w, "#pragma once\n\n")
	fmt.Fprintf(w, "constexpr uint64_t %s[%d] = {\n", name, words)
	for i := 0; i < words; i++ {
		v := binary.LittleEndian.Uint64(padded[i*8:])
		fmt.Fprintf(w, "    0x%016xULL,\n", v)
	}
	fmt.Fprintf(w, "};\n")
}
