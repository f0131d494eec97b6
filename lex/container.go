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

// MatchEnd returns the index of the EndContainer block matching the
// StartContainer block at startIdx, so a reader can iterate "all blocks
// belonging to a container" by the [startIdx, end] range (spec §4.5).
// blocks must be a balanced sequence (as produced by a successful
// Analyze call).
func MatchEnd(blocks []LexBlock, startIdx int) int {
	depth := 0
	for i := startIdx; i < len(blocks); i++ {
		b := blocks[i]
		if b.Type.Has(StartContainer) {
			depth++
		} else if b.Type.Has(EndContainer) {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
