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

// The wfxc command compiles WFX effect sources into a serialized shader
// library (spec §6). It is a thin front end: flag parsing, file/glob
// resolution and output writing only, delegating compilation to package
// library and serialization to package serial.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	stderrors "errors"

	"github.com/weavefx/wfxc/backend/faketest"
	"github.com/weavefx/wfxc/internal/wlog"
	"github.com/weavefx/wfxc/library"
	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/serial"
	"github.com/weavefx/wfxc/wfxerr"
)

// Exit codes (spec §6).
const (
	exitOK            = 0
	exitUnknown       = 1
	exitStandard      = 2
	exitFilesystem    = 3
	exitFramework     = 4
	exitEffectCompile = 5
	exitCriticalInit  = 10
)

// inputList collects repeated --input occurrences.
type inputList []string

func (l *inputList) String() string { return strings.Join(*l, ",") }
func (l *inputList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	inputs       inputList
	output       = flag.String("output", "", "Output path: a directory when not merging, a file when --merge is set")
	featureLevel = flag.String("feature-level", "5_0", "Backend feature level string")
	cacheDir     = flag.String("cache", "./wfxc", "Directory holding per-library .cache files to reuse across builds")
	merge        bool
	header       bool
	debugFlag    bool
	help         bool
)

func init() {
	flag.Var(&inputs, "input", "Input file or glob (required, may repeat)")
	flag.BoolVar(&merge, "merge", false, "Merge all inputs into a single library")
	flag.BoolVar(&merge, "m", false, "Merge all inputs into a single library (shorthand)")
	flag.BoolVar(&header, "header", false, "Also emit a C++ header alongside each cache file")
	flag.BoolVar(&header, "h", false, "Also emit a C++ header alongside each cache file (shorthand)")
	flag.BoolVar(&debugFlag, "debug", false, "Compile with debug info")
	flag.BoolVar(&debugFlag, "d", false, "Compile with debug info (shorthand)")
	flag.BoolVar(&help, "help", false, "Show usage")
}

func main() {
	flag.Parse()
	if help {
		flag.Usage()
		os.Exit(exitOK)
	}

	logFile, err := os.Create("wfxc.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: cannot create log file: %v\n", err)
		os.Exit(exitCriticalInit)
	}
	defer logFile.Close()
	wlog.SetHandler(func(r wlog.Record) {
		fmt.Fprintf(logFile, "[%s] %s\n", r.Severity, r.Message)
	})

	code := run(context.Background())
	os.Exit(code)
}

func run(ctx context.Context) int {
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "wfxc: at least one --input is required")
		flag.Usage()
		return exitStandard
	}
	if *output == "" {
		fmt.Fprintln(os.Stderr, "wfxc: --output is required")
		return exitStandard
	}

	files, err := resolveInputs(inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
		return exitFilesystem
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "wfxc: no input files matched")
		return exitStandard
	}

	platform := model.Platform{
		FeatureLevel: *featureLevel,
		Target:       model.TargetD3D11,
	}

	if merge {
		name := identBase(*output)
		return buildLibrary(ctx, name, platform, files, *output)
	}

	if err := os.MkdirAll(*output, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
		return exitFilesystem
	}
	for _, f := range files {
		name := identBase(f)
		outPath := filepath.Join(*output, name+".cache")
		if code := buildLibrary(ctx, name, platform, []string{f}, outPath); code != exitOK {
			return code
		}
	}
	return exitOK
}

// buildLibrary compiles files into one library named name, writing the
// cache file (and, if requested, the header) to outPath.
func buildLibrary(ctx context.Context, name string, platform model.Platform, files []string, outPath string) int {
	compiler := &faketest.Backend{}
	includer := &fsIncluder{}
	builder := library.New(library.Configuration{
		Name:     name,
		Platform: platform,
		Debug:    debugFlag,
	}, compiler, includer)

	cachePath := filepath.Join(*cacheDir, name+".cache")
	if raw, err := os.ReadFile(cachePath); err == nil {
		if cached, err := serial.DecodeCache(raw); err == nil {
			builder.SetCache(ctx, cached)
		} else {
			wlog.Wrap(ctx).With("cache", cachePath).Warning().Logf("ignoring unreadable cache: %v", err)
		}
	}

	for _, f := range files {
		source, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
			return exitFilesystem
		}
		if err := builder.AddRepo(ctx, f, string(source)); err != nil {
			return reportCompileError(f, err)
		}
	}

	def, stats, err := builder.GetDefinition(ctx)
	if err != nil {
		return reportCompileError(name, err)
	}
	wlog.Wrap(ctx).With("library", name).Info().Logf(
		"compiled %d variant(s), reused %d cached repo(s), %d shader(s), %d effect(s), %d resource(s)",
		stats.CompiledVariantCount, stats.CachedRepoCount, stats.ReusedShaderCount,
		stats.ReusedEffectCount, stats.ReusedResourceCount)

	blob, err := serial.EncodeCache(&def, 6)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
		return exitFramework
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
		return exitFilesystem
	}
	if err := os.WriteFile(outPath, blob, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
		return exitFilesystem
	}
	if err := os.MkdirAll(*cacheDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
		return exitFilesystem
	}
	if err := os.WriteFile(cachePath, blob, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
		return exitFilesystem
	}

	if header {
		var sb strings.Builder
		serial.WriteHeader(&sb, identBase(outPath), blob)
		headerPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".h"
		if err := os.WriteFile(headerPath, []byte(sb.String()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "wfxc: %v\n", err)
			return exitFilesystem
		}
	}

	return exitOK
}

// reportCompileError classifies err per spec §7/§6 exit codes.
func reportCompileError(subject string, err error) int {
	fmt.Fprintf(os.Stderr, "wfxc: %s: %v\n", subject, err)
	var parseErr *wfxerr.ParseError
	var syntaxErr *wfxerr.SyntaxError
	var backendErr *wfxerr.BackendError
	switch {
	case stderrors.As(err, &parseErr), stderrors.As(err, &syntaxErr), stderrors.As(err, &backendErr):
		return exitEffectCompile
	default:
		return exitUnknown
	}
}

// resolveInputs expands each --input occurrence as a glob, falling back
// to a directory walk for `*.wfx` files when it names a directory.
func resolveInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				err := filepath.WalkDir(m, func(path string, d os.DirEntry, err error) error {
					if err != nil {
						return err
					}
					if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".wfx") {
						if !seen[path] {
							seen[path] = true
							out = append(out, path)
						}
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
				continue
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// identBase derives a library/variable name stem from a path, stripping
// its directory and extension.
func identBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// fsIncluder resolves #include paths against the working directory,
// the only filesystem access point the core delegates out (spec §1).
type fsIncluder struct{}

func (fsIncluder) Include(path string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(content), true
}
