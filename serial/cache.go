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
	"bytes"
	"compress/zlib"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"

	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/wfxerr"
)

// Frame is the cache file's outer envelope (spec §6 "Cache file layout"):
// a zlib-deflate archive over the binary-encoded ShaderLibDef, with a
// CRC validated against the pre-compression bytestream.
type Frame struct {
	CompressionLevel uint8
	OriginalCRC32    uint32
	OriginalSizeBytes uint32
	Data             []byte
}

// EncodeCache serializes def to a cache file's full byte contents
// (frame header + compressed payload).
func EncodeCache(def *model.ShaderLibDef, compressionLevel int) ([]byte, error) {
	w := NewWriter()
	WriteShaderLibDef(w, def)
	raw := w.Bytes()

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, compressionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "serial: creating zlib writer")
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, errors.Wrap(err, "serial: compressing cache payload")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "serial: closing zlib writer")
	}

	out := NewWriter()
	out.Uint8(uint8(compressionLevel))
	out.Uint32(crc32.ChecksumIEEE(raw))
	out.Uint32(uint32(len(raw)))
	out.Data(compressed.Bytes())
	return out.Bytes(), nil
}

// DecodeCache parses a cache file's full byte contents back into a
// ShaderLibDef, validating the CRC against the decompressed payload. A
// CRC or schema mismatch is a *wfxerr.CacheError (spec §7: never fatal,
// callers treat it as a cache miss).
func DecodeCache(raw []byte) (*model.ShaderLibDef, error) {
	r := NewReader(raw)
	level := r.Uint8()
	wantCRC := r.Uint32()
	wantSize := r.Uint32()
	compressed := r.Data()
	if err := r.Err(); err != nil {
		return nil, wfxerr.NewCacheError("truncated cache frame", err)
	}
	_ = level

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, wfxerr.NewCacheError("invalid zlib stream", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, wfxerr.NewCacheError("decompressing cache payload", err)
	}

	if uint32(len(payload)) != wantSize {
		return nil, wfxerr.NewCacheError("cache size mismatch", nil)
	}
	if crc32.ChecksumIEEE(payload) != wantCRC {
		return nil, wfxerr.NewCacheError("cache CRC mismatch", nil)
	}

	pr := NewReader(payload)
	def := ReadShaderLibDef(pr)
	if err := pr.Err(); err != nil {
		return nil, wfxerr.NewCacheError("malformed cache payload", err)
	}
	return &def, nil
}
