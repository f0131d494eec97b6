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

package main

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
	"github.com/weavefx/wfxc/wfxerr"
)

func TestIdentBaseStripsDirAndExtension(t *testing.T) {
	wassert.For(t, "plain path").That(identBase("/a/b/MyEffect.wfx")).Equals("MyEffect")
	wassert.For(t, "no extension").That(identBase("MyEffect")).Equals("MyEffect")
}

func TestInputListAccumulatesRepeatedFlags(t *testing.T) {
	var l inputList
	if err := l.Set("a.wfx"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := l.Set("b.wfx"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	wassert.For(t, "accumulated inputs").That([]string(l)).Equals([]string{"a.wfx", "b.wfx"})
	wassert.For(t, "string form").That(l.String()).Equals("a.wfx,b.wfx")
}

// resolveInputs expands a glob and walks a directory for *.wfx files,
// deduplicating across overlapping patterns.
func TestResolveInputsGlobsAndWalksDirectories(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.wfx"), "")
	mustWrite(t, filepath.Join(dir, "b.wfx"), "")
	mustWrite(t, filepath.Join(dir, "ignore.txt"), "")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	mustWrite(t, filepath.Join(sub, "c.wfx"), "")

	files, err := resolveInputs([]string{dir, filepath.Join(dir, "a.wfx")})
	wassert.For(t, "resolve error").That(err).IsNil()

	sort.Strings(files)
	want := []string{filepath.Join(dir, "a.wfx"), filepath.Join(dir, "b.wfx"), filepath.Join(sub, "c.wfx")}
	sort.Strings(want)
	wassert.For(t, "resolved files").That(files).Equals(want)
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}

func TestReportCompileErrorMapsEffectErrorsToExitCode5(t *testing.T) {
	wassert.For(t, "syntax error").That(reportCompileError("f.wfx", wfxerr.NewSyntaxError("bad", "f.wfx", 1, 0))).Equals(exitEffectCompile)
	wassert.For(t, "parse error").That(reportCompileError("f.wfx", wfxerr.NewParseError("bad", nil))).Equals(exitEffectCompile)
	wassert.For(t, "backend error").That(reportCompileError("f.wfx", &wfxerr.BackendError{Entrypoint: "VS_Main", Diagnostic: "nope"})).Equals(exitEffectCompile)
}

func TestReportCompileErrorMapsUnknownErrorsToExitCode1(t *testing.T) {
	wassert.For(t, "unknown error").That(reportCompileError("f.wfx", os.ErrNotExist)).Equals(exitUnknown)
}
