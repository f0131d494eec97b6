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

// Sanitize treats /* ... */ and // ...\n as whitespace (preserving line
// breaks so line counts stay correct), and normalizes non-\n control
// characters to space. It is done directly over a mutable copy of the
// source buffer (spec §4.5 "Pre-pass").
func Sanitize(source string) []byte {
	buf := []byte(source)
	n := len(buf)
	for i := 0; i < n; i++ {
		c := buf[i]
		if c == '/' && i+1 < n && buf[i+1] == '/' {
			j := i
			for j < n && buf[j] != '\n' {
				buf[j] = ' '
				j++
			}
			i = j - 1
			continue
		}
		if c == '/' && i+1 < n && buf[i+1] == '*' {
			j := i
			for j < n {
				if buf[j] == '*' && j+1 < n && buf[j+1] == '/' {
					buf[j] = ' '
					buf[j+1] = ' '
					j += 2
					break
				}
				if buf[j] != '\n' {
					buf[j] = ' '
				}
				j++
			}
			i = j - 1
			continue
		}
		if c != '\n' && c < 0x20 {
			buf[i] = ' '
		}
	}
	return buf
}
