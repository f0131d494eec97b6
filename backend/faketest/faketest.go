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

// Package faketest implements backend.Compiler as a deterministic test
// double, standing in for the real HLSL/D3D compiler the core never
// ships (spec §1, §6). It is the only Compiler implementation in this
// repository and exists solely so library and cmd/wfxc can be exercised
// and tested end to end.
package faketest

import (
	"context"
	"crypto/sha256"

	"github.com/weavefx/wfxc/backend"
	"github.com/weavefx/wfxc/wfxerr"
)

// Backend is a deterministic stand-in compiler: the "bytecode" is a
// content hash of the source plus entrypoint name, so identical HLSL
// text for the same entrypoint always reflects to the same blob (needed
// for registry dedup, spec P2). Reflect is driven by a caller-supplied
// ReflectFunc, defaulting to an empty Reflection.
type Backend struct {
	// ReflectFunc, if set, computes the Reflection for a request instead
	// of the zero-value default. Tests set this to exercise specific
	// constant-buffer/resource/IO shapes without a real compiler.
	ReflectFunc func(backend.Request) backend.Reflection

	// FailFunc, if set, may reject a request with a backend diagnostic
	// instead of succeeding, letting tests exercise BackendError handling.
	FailFunc func(backend.Request) (string, bool)

	CallCount int
}

// Compile implements backend.Compiler.
func (b *Backend) Compile(ctx context.Context, req backend.Request) (backend.Result, error) {
	b.CallCount++
	if b.FailFunc != nil {
		if diag, fail := b.FailFunc(req); fail {
			return backend.Result{}, &wfxerr.BackendError{Entrypoint: req.Entrypoint, Diagnostic: diag}
		}
	}
	h := sha256.Sum256([]byte(req.Entrypoint + "\x00" + req.Source))
	refl := backend.Reflection{}
	if b.ReflectFunc != nil {
		refl = b.ReflectFunc(req)
	}
	return backend.Result{ByteCode: h[:], Reflection: refl}, nil
}
