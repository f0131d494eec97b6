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

package lex

import (
	"strings"
	"testing"

	"github.com/weavefx/wfxc/internal/wassert"
)

// P4: every StartContainer has a matching EndContainer at the same depth,
// depth is monotone non-negative, and the sum of all block line counts
// equals the preprocessed source's newline count.
func TestBlockAnalyzerBalance(t *testing.T) {
	source := "void f() {\n  if (x) {\n    g(1, 2);\n  }\n}\n"
	a, err := Analyze("t.wfx", source)
	wassert.For(t, "analyze error").That(err).IsNil()

	var depthStack []int
	startCount, endCount := 0, 0
	lineSum := 0
	for _, b := range a.Blocks {
		if b.Depth < 0 {
			t.Fatalf("negative depth at block %+v", b)
		}
		if b.Type.Has(StartContainer) {
			startCount++
			depthStack = append(depthStack, b.Depth)
		}
		if b.Type.Has(EndContainer) {
			endCount++
			if len(depthStack) == 0 {
				t.Fatalf("EndContainer with no matching open: %+v", b)
			}
			want := depthStack[len(depthStack)-1]
			depthStack = depthStack[:len(depthStack)-1]
			if b.Depth != want {
				t.Errorf("EndContainer depth %d, want %d (matching its StartContainer)", b.Depth, want)
			}
		}
		lineSum += b.LineCount
	}

	wassert.For(t, "start/end container counts match").That(endCount).Equals(startCount)
	wassert.For(t, "every open container was closed").That(len(depthStack)).Equals(0)

	wantLines := strings.Count(string(a.Source()), "\n")
	wassert.For(t, "sum of block line counts").That(lineSum).Equals(wantLines)
}

// P4 also has to hold when blank lines separate tokens (not just inside
// a single multi-line expression run).
func TestBlockAnalyzerBalanceWithBlankLines(t *testing.T) {
	source := "int a;\n\n\nint b;\n"
	a, err := Analyze("t.wfx", source)
	wassert.For(t, "analyze error").That(err).IsNil()

	lineSum := 0
	for _, b := range a.Blocks {
		lineSum += b.LineCount
	}
	wantLines := strings.Count(string(a.Source()), "\n")
	wassert.For(t, "sum of block line counts with blank lines").That(lineSum).Equals(wantLines)
}

// S7: an unterminated scope surfaces a syntax error citing its start line.
func TestUnterminatedScopeIsSyntaxError(t *testing.T) {
	source := "void f() {\n  g();\n"
	_, err := Analyze("t.wfx", source)
	wassert.For(t, "unterminated scope error").That(err).IsNotNil()
	if !strings.Contains(err.Error(), "unterminated scope '{' starting on line 1") {
		t.Errorf("got error %q, want it to cite the unterminated scope's start line", err.Error())
	}
}
