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

// Package serial implements the cache file layout and C++ header
// emission of spec §6: a zlib-deflate outer frame around a fixed
// field-order binary encoding of a ShaderLibDef.
package serial

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Writer is a small append-only binary encoder, modeled on gapid's
// core/data/binary.Writer but narrowed to the primitives ShaderLibDef
// actually needs.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded bytestream so far.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Uint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

// Data writes a length-prefixed byte blob.
func (w *Writer) Data(v []byte) {
	w.Uint32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

// String writes a length-prefixed UTF-8 string.
func (w *Writer) String(v string) {
	w.Data([]byte(v))
}

// Uint32Slice writes a length-prefixed []uint32.
func (w *Writer) Uint32Slice(v []uint32) {
	w.Uint32(uint32(len(v)))
	for _, x := range v {
		w.Uint32(x)
	}
}

// Reader is the Writer's inverse, reading sequentially from a fixed
// byte slice and reporting the first error encountered.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Err returns the first decoding error seen, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.fail(errors.Errorf("serial: unexpected end of stream reading %d byte(s) at offset %d", n, r.pos))
		return false
	}
	return true
}

func (r *Reader) Uint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) Uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) Uint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *Reader) Bool() bool { return r.Uint8() != 0 }

func (r *Reader) Data() []byte {
	n := int(r.Uint32())
	if !r.need(n) {
		return nil
	}
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+n])
	r.pos += n
	return v
}

func (r *Reader) String() string { return string(r.Data()) }

func (r *Reader) Uint32Slice() []uint32 {
	n := int(r.Uint32())
	if n == 0 {
		return nil
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = r.Uint32()
	}
	return out
}
