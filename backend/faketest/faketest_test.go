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

package faketest

import (
	"context"
	"errors"
	"testing"

	"github.com/weavefx/wfxc/backend"
	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/wfxerr"
)

// Identical (entrypoint, source) pairs must compile to identical bytecode,
// and differing ones must not — the registry's byte code dedup (P2)
// depends on this.
func TestCompileIsContentAddressed(t *testing.T) {
	b := &Backend{}
	ctx := context.Background()

	r1, err := b.Compile(ctx, backend.Request{Source: "float4 main() { return 0; }", Entrypoint: "PS_Main"})
	wassert.For(t, "compile error").That(err).IsNil()
	r2, err := b.Compile(ctx, backend.Request{Source: "float4 main() { return 0; }", Entrypoint: "PS_Main"})
	wassert.For(t, "compile error").That(err).IsNil()
	wassert.For(t, "identical source+entrypoint dedups").That(r1.ByteCode).Equals(r2.ByteCode)

	r3, err := b.Compile(ctx, backend.Request{Source: "float4 main() { return 1; }", Entrypoint: "PS_Main"})
	wassert.For(t, "compile error").That(err).IsNil()
	if string(r3.ByteCode) == string(r1.ByteCode) {
		t.Errorf("distinct source collapsed to the same bytecode")
	}

	wassert.For(t, "call count").That(b.CallCount).Equals(3)
}

func TestFailFuncRejectsWithBackendError(t *testing.T) {
	b := &Backend{
		FailFunc: func(req backend.Request) (string, bool) {
			return "undeclared identifier g_Foo", true
		},
	}
	_, err := b.Compile(context.Background(), backend.Request{Source: "x", Entrypoint: "VS_Main"})
	wassert.For(t, "compile error").That(err).IsNotNil()

	var backendErr *wfxerr.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected a *wfxerr.BackendError, got %T", err)
	}
	wassert.For(t, "diagnostic preserved").That(backendErr.Diagnostic).Equals("undeclared identifier g_Foo")
}

func TestReflectFuncDrivesReflection(t *testing.T) {
	b := &Backend{
		ReflectFunc: func(req backend.Request) backend.Reflection {
			return backend.Reflection{Inputs: []backend.ParamInfo{{Name: "pos", Semantic: "POSITION"}}}
		},
	}
	r, err := b.Compile(context.Background(), backend.Request{Source: "x", Entrypoint: "VS_Main"})
	wassert.For(t, "compile error").That(err).IsNil()
	wassert.For(t, "reflected input count").That(len(r.Reflection.Inputs)).Equals(1)
}
