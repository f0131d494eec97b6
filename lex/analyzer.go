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
	"fmt"
	"strconv"
	"strings"

	"github.com/weavefx/wfxc/wfxerr"
)

// openEntry tracks one open container on the analyzer's stack.
type openEntry struct {
	blockIndex int // index of the StartContainer block in a.Blocks
	delim      BlockType
	openPos    int // source offset of the opening character, for angle-bracket backtrack
	depth      int // depth value recorded on the StartContainer block
}

// Analyzer runs the block-analyzer pass of spec §4.5 over one
// preprocessed source buffer.
type Analyzer struct {
	source []byte
	path   string

	Blocks []LexBlock
	Files  []LexFile

	pos   int
	line  int
	depth int

	stack []openEntry

	angleDisabledUntil int // analyzer position before which '<' may not reopen a template

	pendingLines int // newlines seen since the last emitted block, not yet assigned to one
}

// Analyze runs the block analyzer over preprocessed source whose logical
// file path is path (used only for diagnostics; embedded #line
// directives may redirect it).
func Analyze(path, source string) (*Analyzer, error) {
	a := &Analyzer{
		source: Sanitize(source),
		path:   path,
		line:   1,
	}
	a.Files = append(a.Files, LexFile{Path: path, Line: 1})
	if err := a.run(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) run() error {
	n := len(a.source)
	for a.pos < n {
		c := a.source[a.pos]
		switch {
		case c == '\n':
			a.line++
			a.pendingLines++
			a.pos++
		case isBlank(c):
			a.pos++
		case c == '#':
			if err := a.scanDirective(); err != nil {
				return err
			}
		case c == '{' || c == '(' || c == '[':
			a.openContainer(c)
		case c == '<':
			if a.canOpenAngle() {
				a.openContainer(c)
			} else {
				a.scanExpression()
			}
		case c == '}' || c == ')' || c == ']':
			if err := a.closeContainer(c); err != nil {
				return err
			}
		case c == '>':
			if a.topIs(AngleBrackets) {
				a.closeAngle()
			} else {
				a.scanExpression()
			}
		default:
			a.scanExpression()
		}
	}
	return a.finish()
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func (a *Analyzer) topIs(delim BlockType) bool {
	return len(a.stack) > 0 && a.stack[len(a.stack)-1].delim == delim
}

func (a *Analyzer) canOpenAngle() bool {
	for _, e := range a.stack {
		if e.delim == AngleBrackets {
			return false
		}
	}
	return a.pos >= a.angleDisabledUntil
}

func delimFor(c byte) BlockType {
	switch c {
	case '{':
		return Scope
	case '(':
		return Parentheses
	case '[':
		return SquareBrackets
	case '<':
		return AngleBrackets
	}
	return 0
}

func startTypeFor(c byte) BlockType {
	return delimFor(c) | StartContainer
}

// flushPendingLines assigns newlines consumed as blank inter-block space
// since the last emitted block to that block's LineCount, so every
// newline in the source is attributed to exactly one block (spec §8 P4).
// Leading blank lines before any block has been emitted are folded into
// the block about to be created instead.
func (a *Analyzer) flushPendingLines(next *LexBlock) {
	if a.pendingLines == 0 {
		return
	}
	if len(a.Blocks) > 0 {
		a.Blocks[len(a.Blocks)-1].LineCount += a.pendingLines
	} else {
		next.LineCount += a.pendingLines
	}
	a.pendingLines = 0
}

func (a *Analyzer) openContainer(c byte) {
	a.depth++
	blk := LexBlock{
		Type:      startTypeFor(c),
		Depth:     a.depth,
		Start:     a.pos,
		End:       a.pos + 1,
		StartLine: a.line,
		LineCount: 0,
		FileIndex: len(a.Files) - 1,
	}
	a.flushPendingLines(&blk)
	idx := len(a.Blocks)
	a.Blocks = append(a.Blocks, blk)
	a.stack = append(a.stack, openEntry{blockIndex: idx, delim: delimFor(c), openPos: a.pos, depth: a.depth})
	a.pos++
}

func (a *Analyzer) closeContainer(c byte) error {
	want := delimFor(openCharFor(c))
	if len(a.stack) == 0 {
		return a.syntaxErr(fmt.Sprintf("unexpected %q with no open container", string(c)))
	}
	top := a.stack[len(a.stack)-1]
	if top.delim == AngleBrackets && want != AngleBrackets {
		// the run loop rescans from the '<' and meets c again afterwards.
		a.revertAngle()
		return nil
	}
	if top.delim != want {
		return a.syntaxErr(fmt.Sprintf("mismatched closing delimiter %q", string(c)))
	}
	a.stack = a.stack[:len(a.stack)-1]
	blk := LexBlock{
		Type:      want | EndContainer,
		Depth:     top.depth,
		Start:     a.pos,
		End:       a.pos + 1,
		StartLine: a.line,
		LineCount: 0,
		FileIndex: len(a.Files) - 1,
	}
	a.flushPendingLines(&blk)
	a.Blocks = append(a.Blocks, blk)
	a.depth--
	a.pos++
	return nil
}

func openCharFor(closeChar byte) byte {
	switch closeChar {
	case '}':
		return '{'
	case ')':
		return '('
	case ']':
		return '['
	}
	return 0
}

func (a *Analyzer) closeAngle() {
	top := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	blk := LexBlock{
		Type:      EndAngle,
		Depth:     top.depth,
		Start:     a.pos,
		End:       a.pos + 1,
		StartLine: a.line,
		LineCount: 0,
		FileIndex: len(a.Files) - 1,
	}
	a.flushPendingLines(&blk)
	a.Blocks = append(a.Blocks, blk)
	a.depth--
	a.pos++
}

// revertAngle backtracks the most recently opened AngleBrackets container:
// it truncates a.Blocks back to the container's StartContainer block,
// pops it off the stack, restores depth, rewinds a.pos to the '<' that
// opened it, and disables re-opening a template until the analyzer
// advances past the position where the mismatch was found (spec §4.5,
// §9 "Angle-bracket ambiguity").
func (a *Analyzer) revertAngle() {
	top := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	a.Blocks = a.Blocks[:top.blockIndex]
	a.depth = top.depth - 1
	a.angleDisabledUntil = a.pos + 1
	a.line -= strings.Count(string(a.source[top.openPos:a.pos]), "\n")
	a.pos = top.openPos
	// Any newlines counted during the abandoned attempt, whether already
	// flushed onto a now-discarded block or still pending, are recounted
	// when the backtracked span is rescanned as a plain expression.
	a.pendingLines = 0
}

// scanDirective consumes a full `#...` logical line, including trailing
// backslash-continuations, emitting DirectiveName and DirectiveBody
// blocks. `#line` directives push a new LexFile and reset the line
// counter (spec §4.5).
func (a *Analyzer) scanDirective() error {
	startLine := a.line
	start := a.pos
	a.pos++ // consume '#'
	nameStart := a.pos
	for a.pos < len(a.source) && isBlank(a.source[a.pos]) {
		a.pos++
	}
	nameStart = a.pos
	for a.pos < len(a.source) && isIdentByte(a.source[a.pos]) {
		a.pos++
	}
	name := string(a.source[nameStart:a.pos])
	nameBlk := LexBlock{
		Type:      DirectiveName,
		Depth:     a.depth,
		Start:     start,
		End:       a.pos,
		StartLine: startLine,
		LineCount: 0,
		FileIndex: len(a.Files) - 1,
	}
	a.flushPendingLines(&nameBlk)
	a.Blocks = append(a.Blocks, nameBlk)

	bodyStart := a.pos
	bodyLineStart := a.line
	lines := 0
	for a.pos < len(a.source) {
		if a.source[a.pos] == '\\' && a.pos+1 < len(a.source) && a.source[a.pos+1] == '\n' {
			a.pos += 2
			a.line++
			lines++
			continue
		}
		if a.source[a.pos] == '\n' {
			break
		}
		a.pos++
	}
	body := strings.TrimSpace(string(a.source[bodyStart:a.pos]))
	a.Blocks = append(a.Blocks, LexBlock{
		Type:      DirectiveBody,
		Depth:     a.depth,
		Start:     bodyStart,
		End:       a.pos,
		StartLine: bodyLineStart,
		LineCount: lines,
		FileIndex: len(a.Files) - 1,
	})

	if name == "line" {
		a.applyLineDirective(body)
	}
	return nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// applyLineDirective parses `<number> ["path"]` and pushes a new LexFile,
// resetting the analyzer's line counter to number.
func (a *Analyzer) applyLineDirective(body string) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}
	path := a.path
	if len(fields) > 1 {
		path = strings.Trim(fields[1], `"`)
	} else if len(a.Files) > 0 {
		path = a.Files[len(a.Files)-1].Path
	}
	a.Files = append(a.Files, LexFile{Path: path, Line: n})
	a.line = n
}

// breakSet characters that always end an expression run without being
// consumed as part of it (spec §4.5): opening/closing delimiters and '#'.
func isHardBreak(c byte) bool {
	switch c {
	case '{', '(', '[', '}', ')', ']', '#':
		return true
	}
	return false
}

func isTermBreak(c byte) bool {
	switch c {
	case ';', ':', '=', ',':
		return true
	}
	return false
}

func termType(c byte) BlockType {
	switch c {
	case ';':
		return SemicolonSeparator
	case ':':
		return ColonSeparator
	case '=':
		return AssignmentSeparator
	case ',':
		return CommaSeparator
	}
	return 0
}

// scanExpression builds one identifier/expression-run block starting at
// the analyzer's current (non-special) character, extending until a
// break character, EOF, an ordinary '<' (if template parsing may open)
// or an ordinary '>' (if an angle-bracket container is open) (spec §4.5).
func (a *Analyzer) scanExpression() {
	start := a.pos
	startLine := a.line
	lines := 0
	n := len(a.source)
	for a.pos < n {
		c := a.source[a.pos]
		if c == '\n' {
			lines++
			a.line++
			a.pos++
			continue
		}
		if isHardBreak(c) {
			a.emitExpr(start, a.pos, startLine, lines, plainOrPreamble(c))
			return
		}
		if isTermBreak(c) {
			a.pos++ // consume the terminator as part of the block
			a.emitExpr(start, a.pos, startLine, lines, termType(c))
			return
		}
		if c == '<' && a.canOpenAngle() {
			a.emitExpr(start, a.pos, startLine, lines, 0)
			return
		}
		if c == '>' && a.topIs(AngleBrackets) {
			a.emitExpr(start, a.pos, startLine, lines, 0)
			return
		}
		a.pos++
	}
	a.emitExpr(start, a.pos, startLine, lines, Unterminated)
}

func plainOrPreamble(breakChar byte) BlockType {
	switch breakChar {
	case '{':
		return ScopePreamble
	case '(':
		return ParenPreamble
	case '[':
		return BracketPreamble
	}
	return 0
}

func (a *Analyzer) emitExpr(start, end, startLine, lines int, extra BlockType) {
	blk := LexBlock{
		Type:      extra,
		Depth:     a.depth,
		Start:     start,
		End:       end,
		StartLine: startLine,
		LineCount: lines,
		FileIndex: len(a.Files) - 1,
	}
	a.flushPendingLines(&blk)
	a.Blocks = append(a.Blocks, blk)
}

// finish handles EOF: angle-bracket containers still open are reverted;
// any other still-open container is a syntax error citing its start line
// (spec §4.5).
func (a *Analyzer) finish() error {
	for len(a.stack) > 0 {
		top := a.stack[len(a.stack)-1]
		if top.delim != AngleBrackets {
			startLine := a.Blocks[top.blockIndex].StartLine
			name := delimName(top.delim)
			return a.syntaxErrAt(fmt.Sprintf("unterminated %s starting on line %d", name, startLine), startLine)
		}
		a.revertAngle()
		return a.run()
	}
	// Trailing blank lines after the last block (including EOF) have no
	// following block to flush onto; fold them into the last one emitted.
	if a.pendingLines > 0 && len(a.Blocks) > 0 {
		a.Blocks[len(a.Blocks)-1].LineCount += a.pendingLines
		a.pendingLines = 0
	}
	return nil
}

func delimName(d BlockType) string {
	switch d {
	case Scope:
		return "scope '{'"
	case Parentheses:
		return "parenthesis '('"
	case SquareBrackets:
		return "bracket '['"
	}
	return "container"
}

func (a *Analyzer) syntaxErr(msg string) error {
	return a.syntaxErrAt(msg, a.line)
}

func (a *Analyzer) syntaxErrAt(msg string, line int) error {
	return wfxerr.NewSyntaxError(msg, a.path, line, len(a.Blocks)-1)
}

// Source returns the sanitized buffer the blocks reference.
func (a *Analyzer) Source() []byte { return a.source }
