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

// Package preprocess implements the variant preprocessor (spec §4.4): it
// evaluates C-like preprocessor directives plus a reserved pragma
// vocabulary (flags/modes/stage entrypoints), and for each variant config
// index emits a fully-expanded translation unit.
package preprocess

import (
	"fmt"
	"strings"

	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/wfxerr"
)

// MaxFlags and MaxModes are the pragma limits from spec §4.4.
const (
	MaxFlags = 8
	MaxModes = 256
)

// stageNames maps the six entrypoint pragma names to a ShaderStage.
var stageNames = map[string]model.ShaderStage{
	"vertex":   model.StageVertex,
	"hull":     model.StageHull,
	"domain":   model.StageDomain,
	"geometry": model.StageGeometry,
	"pixel":    model.StagePixel,
	"compute":  model.StageCompute,
}

// PragmaEntrypoint is one `#pragma <stage> <name>` declaration.
type PragmaEntrypoint struct {
	Stage model.ShaderStage
	Name  string
}

// Declarations is everything discovered by a Scan pass over a repo's
// top-level pragmas, before any variant is expanded.
type Declarations struct {
	FlagNames   []string
	ModeNames   []string
	Entrypoints []PragmaEntrypoint
}

// Includer resolves a `#include` path to file content. The core does not
// read files itself (spec §1); the library builder supplies this,
// backed by whatever filesystem abstraction the CLI front end uses.
type Includer interface {
	Include(path string) (content string, ok bool)
}

// Preprocessor holds the per-repo transient state of spec §4.4: the
// includer and the flag/mode/entrypoint declarations found by Scan. The
// macro table exists only for the duration of one Generate call. Reset
// clears the declarations and the initialized flag.
type Preprocessor struct {
	inc         Includer
	decls       Declarations
	flagSeen    map[string]bool
	modeSeen    map[string]bool
	initialized bool
}

// New creates a Preprocessor that resolves #include through inc.
func New(inc Includer) *Preprocessor {
	p := &Preprocessor{inc: inc}
	p.Reset()
	return p
}

// Reset clears the flag, mode and entrypoint declarations and the
// initialized flag (spec §4.4).
func (p *Preprocessor) Reset() {
	p.decls = Declarations{}
	p.flagSeen = map[string]bool{}
	p.modeSeen = map[string]bool{}
	p.initialized = false
}

// Declarations returns the flags/modes/entrypoints discovered by Scan.
func (p *Preprocessor) Declarations() Declarations { return p.decls }

// VariantCount is (1 << FC) * max(1, MC) for the scanned declarations.
func (p *Preprocessor) VariantCount() int {
	fc := len(p.decls.FlagNames)
	mc := len(p.decls.ModeNames)
	if mc == 0 {
		mc = 1
	}
	return (1 << uint(fc)) * mc
}

// Scan performs the one-time declaration pass over a repo's top-level
// source: it walks #pragma lines recursively through #include (so that
// flags/modes/entrypoints declared in included files are also seen),
// recording flags, modes and stage entrypoints. Redefinition of a flag or
// mode is an error (spec §4.4).
func (p *Preprocessor) Scan(path, source string) error {
	p.initialized = true
	return p.scanFile(path, source, map[string]bool{})
}

func (p *Preprocessor) scanFile(path, source string, visiting map[string]bool) error {
	if visiting[path] {
		return wfxerr.NewParseError(fmt.Sprintf("circular #include of %q", path), nil)
	}
	visiting[path] = true
	defer delete(visiting, path)

	lines := strings.Split(source, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		body := strings.TrimSpace(trimmed[1:])
		switch {
		case strings.HasPrefix(body, "include"):
			incPath, ok := parseIncludePath(body)
			if !ok {
				continue
			}
			content, ok := p.inc.Include(incPath)
			if !ok {
				return wfxerr.NewParseError(fmt.Sprintf("cannot resolve #include %q", incPath), nil).AtLine(path, i+1, -1)
			}
			if err := p.scanFile(incPath, content, visiting); err != nil {
				return err
			}
		case strings.HasPrefix(body, "pragma"):
			if err := p.scanPragma(path, i+1, strings.TrimSpace(body[len("pragma"):])); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Preprocessor) scanPragma(path string, line int, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	kw, args := fields[0], fields[1:]
	switch kw {
	case "flags":
		for _, name := range args {
			if p.flagSeen[name] {
				return wfxerr.NewSyntaxError(fmt.Sprintf("redefinition of flag %q", name), path, line, -1)
			}
			if len(p.decls.FlagNames) >= MaxFlags {
				return wfxerr.NewSyntaxError(fmt.Sprintf("too many flags (limit %d)", MaxFlags), path, line, -1)
			}
			p.flagSeen[name] = true
			p.decls.FlagNames = append(p.decls.FlagNames, name)
		}
	case "modes":
		for _, name := range args {
			if p.modeSeen[name] {
				return wfxerr.NewSyntaxError(fmt.Sprintf("redefinition of mode %q", name), path, line, -1)
			}
			if len(p.decls.ModeNames) >= MaxModes {
				return wfxerr.NewSyntaxError(fmt.Sprintf("too many modes (limit %d)", MaxModes), path, line, -1)
			}
			p.modeSeen[name] = true
			p.decls.ModeNames = append(p.decls.ModeNames, name)
		}
	default:
		if stage, ok := stageNames[kw]; ok {
			for _, name := range args {
				p.decls.Entrypoints = append(p.decls.Entrypoints, PragmaEntrypoint{Stage: stage, Name: name})
			}
		}
	}
	return nil
}

func parseIncludePath(body string) (string, bool) {
	rest := strings.TrimSpace(body[len("include"):])
	if len(rest) < 2 {
		return "", false
	}
	open, close := byte('"'), byte('"')
	if rest[0] == '<' {
		open, close = '<', '>'
	} else if rest[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(rest[1:], close)
	if end < 0 {
		return "", false
	}
	_ = open
	return rest[1 : 1+end], true
}
