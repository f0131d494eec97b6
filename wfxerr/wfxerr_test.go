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

package wfxerr

import (
	stderrors "errors"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
)

func TestParseErrorFormatsWithAndWithoutLocation(t *testing.T) {
	bare := NewParseError("something went wrong", nil)
	wassert.For(t, "bare message").That(bare.Error()).Equals("something went wrong")

	located := NewParseError("something went wrong", nil).AtLine("fx.wfx", 7, 3)
	wassert.For(t, "located message").That(located.Error()).Equals("fx.wfx:7: something went wrong")
}

func TestSyntaxErrorPrefixesAndEmbedsParseError(t *testing.T) {
	err := NewSyntaxError("unexpected token", "fx.wfx", 12, 2)
	wassert.For(t, "syntax error message").That(err.Error()).Equals("syntax error: fx.wfx:12: unexpected token")
	wassert.For(t, "embedded parse error message").That(err.ParseError.Message).Equals("unexpected token")

	var target *SyntaxError
	wassert.For(t, "direct type recognized via errors.As").That(stderrors.As(error(err), &target)).Equals(true)
}

func TestBackendErrorIncludesEntrypointAndDiagnostic(t *testing.T) {
	err := &BackendError{Entrypoint: "PS_Main", Diagnostic: "undeclared identifier g_Foo"}
	wassert.For(t, "backend error message").That(err.Error()).Equals(`backend compile failed for "PS_Main": undeclared identifier g_Foo`)
}

func TestCacheErrorFormatsWithAndWithoutCause(t *testing.T) {
	bare := NewCacheError("schema mismatch", nil)
	wassert.For(t, "bare cache error").That(bare.Error()).Equals("cache error: schema mismatch")

	cause := stderrors.New("unexpected EOF")
	wrapped := NewCacheError("decompressing cache payload", cause)
	wassert.For(t, "wrapped cache error").That(wrapped.Error()).Equals("cache error: decompressing cache payload: unexpected EOF")
	wassert.For(t, "unwraps to cause").That(stderrors.Is(wrapped, cause)).Equals(true)
}
