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

package preprocess

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weavefx/wfxc/wfxerr"
)

// DefaultModeMacroName is the unconditional macro added to every variant
// (spec §4.4.1 "Adds a default mode macro (always)").
const DefaultModeMacroName = "WFX_DEFAULT_VARIANT"

type macroDef struct {
	params []string // nil for an object-like macro
	body   string
}

type condFrame struct {
	parentActive bool // whether the enclosing region was emitting
	active       bool // whether THIS branch is currently emitting
	everTaken    bool // whether any branch in this #if..#endif has matched yet
	sawElse      bool
}

// expander carries one Generate call's mutable state: the macro table
// (seeded with the config's flag/mode defines) and the conditional stack.
type expander struct {
	p       *Preprocessor
	macros  map[string]macroDef
	cond    []condFrame
	out     strings.Builder
	curFile string
}

func (e *expander) active() bool {
	for _, f := range e.cond {
		if !f.active {
			return false
		}
	}
	return true
}

// Generate expands source for configID, returning the fully-preprocessed
// text. configID's flag bits and mode index are derived from the
// declarations scanned by Scan (spec §4.4.1-2).
func (p *Preprocessor) Generate(path, source string, configID uint32) (string, error) {
	if !p.initialized {
		return "", wfxerr.NewParseError("Generate called before Scan", nil)
	}
	fc := len(p.decls.FlagNames)
	mc := len(p.decls.ModeNames)
	if mc == 0 {
		mc = 1
	}
	fv := 1 << uint(fc)
	flagBits := configID % uint32(fv)
	modeIndex := configID / uint32(fv)

	e := &expander{macros: map[string]macroDef{}, p: p, curFile: path}
	e.macros[DefaultModeMacroName] = macroDef{body: "1"}
	if modeIndex > 0 && int(modeIndex) < len(p.decls.ModeNames) {
		e.macros[p.decls.ModeNames[modeIndex]] = macroDef{body: "1"}
	}
	for i, name := range p.decls.FlagNames {
		if flagBits&(uint32(1)<<uint(i)) != 0 {
			e.macros[name] = macroDef{body: "1"}
		}
	}

	if err := e.processFile(path, source); err != nil {
		return "", err
	}
	return e.out.String(), nil
}

func (e *expander) processFile(path, source string) error {
	lines := strings.Split(source, "\n")
	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if err := e.directive(path, lineNo, strings.TrimSpace(trimmed[1:])); err != nil {
				return err
			}
			continue
		}
		if !e.active() {
			e.out.WriteByte('\n')
			continue
		}
		e.out.WriteString(e.expandLine(line))
		e.out.WriteByte('\n')
	}
	return nil
}

func (e *expander) directive(path string, line int, body string) error {
	kw, rest := splitKeyword(body)
	switch kw {
	case "include":
		if !e.active() {
			e.out.WriteByte('\n')
			return nil
		}
		incPath, ok := parseIncludePath("include" + " " + rest)
		if !ok {
			return wfxerr.NewSyntaxError("malformed #include", path, line, -1)
		}
		content, ok := e.p.inc.Include(incPath)
		if !ok {
			return wfxerr.NewSyntaxError(fmt.Sprintf("cannot resolve #include %q", incPath), path, line, -1)
		}
		e.out.WriteString(fmt.Sprintf("#line 1 \"%s\"\n", incPath))
		savedFile := e.curFile
		e.curFile = incPath
		if err := e.processFile(incPath, content); err != nil {
			return err
		}
		e.curFile = savedFile
		e.out.WriteString(fmt.Sprintf("#line %d \"%s\"\n", line+1, path))
		return nil
	case "define":
		e.out.WriteByte('\n')
		if !e.active() {
			return nil
		}
		return e.define(path, line, rest)
	case "undef":
		e.out.WriteByte('\n')
		if !e.active() {
			return nil
		}
		delete(e.macros, strings.TrimSpace(rest))
		return nil
	case "pragma":
		// Stage/flags/modes pragmas were already consumed by Scan; none of
		// them are meaningful HLSL, so every #pragma line is dropped from
		// the emitted translation unit but keeps the line count stable.
		e.out.WriteByte('\n')
		return nil
	case "if":
		active := e.active()
		val := false
		if active {
			var err error
			val, err = e.evalCondition(path, line, rest)
			if err != nil {
				return err
			}
		}
		e.cond = append(e.cond, condFrame{parentActive: active, active: active && val, everTaken: active && val})
		e.out.WriteByte('\n')
		return nil
	case "ifdef":
		active := e.active()
		_, defined := e.macros[strings.TrimSpace(rest)]
		e.cond = append(e.cond, condFrame{parentActive: active, active: active && defined, everTaken: active && defined})
		e.out.WriteByte('\n')
		return nil
	case "ifndef":
		active := e.active()
		_, defined := e.macros[strings.TrimSpace(rest)]
		take := active && !defined
		e.cond = append(e.cond, condFrame{parentActive: active, active: take, everTaken: take})
		e.out.WriteByte('\n')
		return nil
	case "elif":
		if len(e.cond) == 0 {
			return wfxerr.NewSyntaxError("#elif without #if", path, line, -1)
		}
		top := &e.cond[len(e.cond)-1]
		if top.sawElse {
			return wfxerr.NewSyntaxError("#elif after #else", path, line, -1)
		}
		if top.parentActive && !top.everTaken {
			val, err := e.evalCondition(path, line, rest)
			if err != nil {
				return err
			}
			top.active = val
			top.everTaken = val
		} else {
			top.active = false
		}
		e.out.WriteByte('\n')
		return nil
	case "else":
		if len(e.cond) == 0 {
			return wfxerr.NewSyntaxError("#else without #if", path, line, -1)
		}
		top := &e.cond[len(e.cond)-1]
		if top.sawElse {
			return wfxerr.NewSyntaxError("duplicate #else", path, line, -1)
		}
		top.sawElse = true
		top.active = top.parentActive && !top.everTaken
		if top.active {
			top.everTaken = true
		}
		e.out.WriteByte('\n')
		return nil
	case "endif":
		if len(e.cond) == 0 {
			return wfxerr.NewSyntaxError("#endif without #if", path, line, -1)
		}
		e.cond = e.cond[:len(e.cond)-1]
		e.out.WriteByte('\n')
		return nil
	case "line":
		// Preserved verbatim: the block analyzer (spec §4.5) interprets
		// #line directives itself; the preprocessor only forwards them.
		if e.active() {
			e.out.WriteString("#" + body)
		}
		e.out.WriteByte('\n')
		return nil
	default:
		// Unknown directive (e.g. a plain #error or vendor extension):
		// passed through verbatim when active, for the backend or a
		// later stage to deal with.
		if e.active() {
			e.out.WriteString("#" + body)
		}
		e.out.WriteByte('\n')
		return nil
	}
}

func splitKeyword(body string) (kw, rest string) {
	i := 0
	for i < len(body) && !isSpace(body[i]) {
		i++
	}
	return body[:i], strings.TrimSpace(body[i:])
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func (e *expander) define(path string, line int, rest string) error {
	name, paramsAndBody := splitKeyword(rest)
	if p := strings.IndexByte(name, '('); p >= 0 {
		name = name[:p]
	}
	if name == "" {
		return wfxerr.NewSyntaxError("malformed #define", path, line, -1)
	}
	if strings.HasPrefix(rest[len(name):], "(") {
		// Function-like macro: NAME(a,b) body
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			return wfxerr.NewSyntaxError("malformed function-like macro", path, line, -1)
		}
		paramList := rest[len(name)+1 : close]
		var params []string
		for _, p := range strings.Split(paramList, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				params = append(params, p)
			}
		}
		body := strings.TrimSpace(rest[close+1:])
		e.macros[name] = macroDef{params: params, body: body}
		return nil
	}
	e.macros[name] = macroDef{body: strings.TrimSpace(paramsAndBody)}
	return nil
}

// expandLine performs one textual macro-substitution pass over line. It is
// not a fully conformant C expander (no token hide-sets, no rescans for
// recursive macros) — object-like and simple function-like macros are
// substituted once per occurrence, left to right. The arguments of a
// function-like macro are expanded before they are substituted.
func (e *expander) expandLine(line string) string {
	var out strings.Builder
	i := 0
	for i < len(line) {
		c := line[i]
		if isIdentStart(c) {
			j := i + 1
			for j < len(line) && isIdentPart(line[j]) {
				j++
			}
			word := line[i:j]
			if m, ok := e.macros[word]; ok {
				if m.params == nil {
					out.WriteString(m.body)
					i = j
					continue
				}
				// Function-like invocation: word(args)
				k := j
				for k < len(line) && isSpace(line[k]) {
					k++
				}
				if k < len(line) && line[k] == '(' {
					closeIdx, args := scanArgs(line, k)
					if closeIdx >= 0 {
						for ai := range args {
							args[ai] = e.expandLine(args[ai])
						}
						out.WriteString(substituteParams(m, args))
						i = closeIdx + 1
						continue
					}
				}
			}
			out.WriteString(word)
			i = j
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

func scanArgs(line string, open int) (closeIdx int, args []string) {
	depth := 0
	start := open + 1
	for i := open; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(line[start:i]))
				return i, args
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(line[start:i]))
				start = i + 1
			}
		}
	}
	return -1, nil
}

func substituteParams(m macroDef, args []string) string {
	body := m.body
	for i, p := range m.params {
		val := ""
		if i < len(args) {
			val = args[i]
		}
		body = replaceWord(body, p, val)
	}
	return body
}

func replaceWord(s, word, val string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if isIdentStart(s[i]) {
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			if s[i:j] == word {
				out.WriteString(val)
			} else {
				out.WriteString(s[i:j])
			}
			i = j
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// evalCondition evaluates a #if/#elif expression: defined(NAME), integer
// literals, macro names (0 if undefined, else their body parsed as an
// integer, defaulting to 1 if non-numeric), !, &&, ||, ==, !=, <, >, <=,
// >=, and parentheses.
func (e *expander) evalCondition(path string, line int, expr string) (bool, error) {
	expr = e.expandLine(expr) // resolve plain macro references first
	tokens := tokenizeExpr(expr)
	parser := &condParser{tokens: tokens, e: e}
	val, err := parser.parseOr()
	if err != nil {
		return false, wfxerr.NewSyntaxError(fmt.Sprintf("malformed #if expression: %v", err), path, line, -1)
	}
	if parser.pos != len(parser.tokens) {
		return false, wfxerr.NewSyntaxError("trailing tokens in #if expression", path, line, -1)
	}
	return val != 0, nil
}

type condParser struct {
	tokens []string
	pos    int
	e      *expander
}

func (p *condParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}
func (p *condParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *condParser) parseOr() (int, error) {
	v, err := p.parseAnd()
	if err != nil {
		return 0, err
	}
	for p.peek() == "||" {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return 0, err
		}
		if v != 0 || r != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v, nil
}

func (p *condParser) parseAnd() (int, error) {
	v, err := p.parseEquality()
	if err != nil {
		return 0, err
	}
	for p.peek() == "&&" {
		p.next()
		r, err := p.parseEquality()
		if err != nil {
			return 0, err
		}
		if v != 0 && r != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v, nil
}

func (p *condParser) parseEquality() (int, error) {
	v, err := p.parseRelational()
	if err != nil {
		return 0, err
	}
	for p.peek() == "==" || p.peek() == "!=" {
		op := p.next()
		r, err := p.parseRelational()
		if err != nil {
			return 0, err
		}
		if (op == "==" && v == r) || (op == "!=" && v != r) {
			v = 1
		} else {
			v = 0
		}
	}
	return v, nil
}

func (p *condParser) parseRelational() (int, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.peek() == "<" || p.peek() == ">" || p.peek() == "<=" || p.peek() == ">=" {
		op := p.next()
		r, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		ok := false
		switch op {
		case "<":
			ok = v < r
		case ">":
			ok = v > r
		case "<=":
			ok = v <= r
		case ">=":
			ok = v >= r
		}
		if ok {
			v = 1
		} else {
			v = 0
		}
	}
	return v, nil
}

func (p *condParser) parseUnary() (int, error) {
	if p.peek() == "!" {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (int, error) {
	t := p.next()
	switch {
	case t == "(":
		v, err := p.parseOr()
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, fmt.Errorf("expected )")
		}
		return v, nil
	case t == "defined":
		paren := p.peek() == "("
		if paren {
			p.next()
		}
		name := p.next()
		if paren {
			if p.next() != ")" {
				return 0, fmt.Errorf("expected ) after defined(")
			}
		}
		if _, ok := p.e.macros[name]; ok {
			return 1, nil
		}
		return 0, nil
	case t == "":
		return 0, fmt.Errorf("unexpected end of expression")
	default:
		if n, err := strconv.Atoi(t); err == nil {
			return n, nil
		}
		if m, ok := p.e.macros[t]; ok {
			if n, err := strconv.Atoi(strings.TrimSpace(m.body)); err == nil {
				return n, nil
			}
			return 1, nil
		}
		return 0, nil
	}
}

func tokenizeExpr(expr string) []string {
	var toks []string
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case isSpace(c):
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			toks = append(toks, expr[i:j])
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(expr) && expr[j] >= '0' && expr[j] <= '9' {
				j++
			}
			toks = append(toks, expr[i:j])
			i = j
		case c == '&' && i+1 < len(expr) && expr[i+1] == '&':
			toks = append(toks, "&&")
			i += 2
		case c == '|' && i+1 < len(expr) && expr[i+1] == '|':
			toks = append(toks, "||")
			i += 2
		case (c == '=' || c == '!' || c == '<' || c == '>') && i+1 < len(expr) && expr[i+1] == '=':
			toks = append(toks, expr[i:i+2])
			i += 2
		case c == '(' || c == ')' || c == '!' || c == '<' || c == '>':
			toks = append(toks, string(c))
			i++
		default:
			i++
		}
	}
	return toks
}
