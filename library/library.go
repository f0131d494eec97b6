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

// Package library implements the library builder orchestrator (spec
// §4.8): it drives the preprocessor, block analyzer, symbol parser and
// HLSL generator over every variant of every repo, invokes the backend
// compile/reflect contract, deduplicates everything into a registry,
// and assembles the final serialized ShaderLibDef.
package library

import (
	"context"
	"hash/crc32"

	"github.com/google/uuid"

	"github.com/weavefx/wfxc/backend"
	"github.com/weavefx/wfxc/config"
	"github.com/weavefx/wfxc/hlslgen"
	"github.com/weavefx/wfxc/internal/wlog"
	"github.com/weavefx/wfxc/lex"
	"github.com/weavefx/wfxc/model"
	"github.com/weavefx/wfxc/parse"
	"github.com/weavefx/wfxc/preprocess"
	"github.com/weavefx/wfxc/registry"
	"github.com/weavefx/wfxc/strintern"
)

// dupRingSize is the default number of recently-emitted variant texts
// kept for the duplicate-reuse ring (spec §4.8 "a small ring... default
// four slots").
const dupRingSize = 4

// Configuration is the builder's constructor input (spec §4.8).
type Configuration struct {
	Name     string
	Platform model.Platform
	Debug    bool
}

// BuildStats reports cache and dedup effectiveness, surfaced by the CLI
// (spec §4.8 is silent on a concrete stats type; SPEC_FULL.md §12
// supplements it). The builder fills in CachedRepoCount and
// CompiledVariantCount; ReusedShaderCount, ReusedEffectCount and
// ReusedResourceCount are not computed and are always zero.
type BuildStats struct {
	CachedRepoCount      int
	ReusedShaderCount    int
	ReusedEffectCount    int
	ReusedResourceCount  int
	CompiledVariantCount int
}

type cacheHit struct {
	path      string
	cacheRepo int
}

// dupRingEntry is one slot of the per-repo duplicate-text reuse ring
// (spec §4.8 "unused flag/mode combinations produce byte-identical
// text and are not recompiled").
type dupRingEntry struct {
	text   string
	config uint32
}

// Builder drives one library build (spec §4.8). Not safe for concurrent
// use — the core is single-threaded per build (spec §5).
type Builder struct {
	cfg      Configuration
	compiler backend.Compiler
	includer preprocess.Includer

	interner *strintern.Table
	reg      *registry.Builder

	cache     *model.ShaderLibDef
	cacheByPath map[string]int

	repos     []model.VariantRepoDef
	repoOrder []string // path order, parallel to repos for cache merge bookkeeping
	hits      []cacheHit

	stats   BuildStats
	buildID uuid.UUID
}

// New creates an empty Builder.
func New(cfg Configuration, compiler backend.Compiler, includer preprocess.Includer) *Builder {
	return &Builder{
		cfg:      cfg,
		compiler: compiler,
		includer: includer,
		interner: strintern.New(),
		reg:      registry.New(),
		buildID:  uuid.New(),
	}
}

// SetCache ingests a previously-built library for reuse (spec §4.8
// "Cache ingestion"). A platform mismatch is not fatal — the cache is
// logged and ignored (spec §7 CacheError).
func (b *Builder) SetCache(ctx context.Context, lib *model.ShaderLibDef) {
	if lib == nil {
		return
	}
	if !lib.Platform.Equal(b.cfg.Platform) {
		wlog.Wrap(ctx).With("build", b.buildID).Warning().Log("cache platform mismatch; ignoring cache")
		return
	}
	b.cache = lib
	b.cacheByPath = make(map[string]int, len(lib.Repos))
	for i, r := range lib.Repos {
		b.cacheByPath[r.Path] = i
	}
}

// Clear resets all per-build state (spec §4.8 "clear()").
func (b *Builder) Clear() {
	b.interner = strintern.New()
	b.reg = registry.New()
	b.cache = nil
	b.cacheByPath = nil
	b.repos = nil
	b.repoOrder = nil
	b.hits = nil
	b.stats = BuildStats{}
}

// AddRepo processes one repository, per spec §4.8 "add_repo". If the
// cache holds an identical (path, crc, size) entry, the repo is recorded
// as a deferred cache hit instead of being reprocessed.
func (b *Builder) AddRepo(ctx context.Context, path, source string) error {
	ctx2 := wlog.Wrap(ctx).With("build", b.buildID).With("repo", path).Unwrap()
	crc := crc32.ChecksumIEEE([]byte(source))
	size := uint32(len(source))

	if b.cache != nil {
		if idx, ok := b.cacheByPath[path]; ok {
			cr := b.cache.Repos[idx]
			if cr.SourceCRC32 == crc && cr.SourceSizeBytes == size {
				b.hits = append(b.hits, cacheHit{path: path, cacheRepo: idx})
				b.repoOrder = append(b.repoOrder, path)
				b.repos = append(b.repos, model.VariantRepoDef{}) // placeholder, filled by mergeCacheHits
				return nil
			}
		}
		wlog.Wrap(ctx2).Warning().Log("cache miss; processing repo from source")
	}

	repoIndex := len(b.repos)
	repoDef, err := b.processRepo(ctx2, path, source, repoIndex)
	if err != nil {
		return err
	}
	b.repos = append(b.repos, repoDef)
	b.repoOrder = append(b.repoOrder, path)
	return nil
}

func (b *Builder) processRepo(ctx context.Context, path, source string, repoIndex int) (model.VariantRepoDef, error) {
	pp := preprocess.New(b.includer)
	if err := pp.Scan(path, source); err != nil {
		return model.VariantRepoDef{}, err
	}
	decls := pp.Declarations()

	flagIDs := make([]model.StringID, len(decls.FlagNames))
	for i, n := range decls.FlagNames {
		flagIDs[i] = b.interner.Intern(n)
	}
	modeIDs := make([]model.StringID, len(decls.ModeNames))
	for i, n := range decls.ModeNames {
		modeIDs[i] = b.interner.Intern(n)
	}
	table := config.New(flagIDs, modeIDs)
	variantCount := table.Def.VariantCount()

	repoDef := model.VariantRepoDef{
		Path:            path,
		SourceSizeBytes: uint32(len(source)),
		SourceCRC32:     crc32.ChecksumIEEE([]byte(source)),
		ConfigTable:     table.Def,
		Variants:        make([]model.VariantDef, variantCount),
	}

	var ring []dupRingEntry

	for configID := 0; configID < variantCount; configID++ {
		text, err := pp.Generate(path, source, uint32(configID))
		if err != nil {
			return model.VariantRepoDef{}, err
		}

		if dupIdx := findDuplicate(ring, text); dupIdx >= 0 {
			reused := repoDef.Variants[ring[dupIdx].config].Clone()
			reused.RetagVariantID(model.MakeVariantID(uint32(repoIndex), uint32(configID)))
			repoDef.Variants[configID] = reused
			wlog.Wrap(ctx).With("config", configID).Warning().Log("unused flag/mode combination; skipped")
			continue
		}

		variant, err := b.buildVariant(ctx, path, text, uint32(repoIndex), uint32(configID), decls.Entrypoints)
		if err != nil {
			return model.VariantRepoDef{}, err
		}
		repoDef.Variants[configID] = variant

		ring = append(ring, dupRingEntry{text: text, config: uint32(configID)})
		if len(ring) > dupRingSize {
			ring = ring[1:]
		}
	}

	return repoDef, nil
}

func findDuplicate(ring []dupRingEntry, text string) int {
	for i, e := range ring {
		if e.text == text {
			return i
		}
	}
	return -1
}

// buildVariant analyzes, parses, generates HLSL, compiles/reflects and
// registers every entrypoint and effect for one config (spec §4.8 step
// 1.c).
func (b *Builder) buildVariant(ctx context.Context, path, text string, repoIndex, configID uint32, pragmaDecls []preprocess.PragmaEntrypoint) (model.VariantDef, error) {
	analyzer, err := lex.Analyze(path, text)
	if err != nil {
		return model.VariantDef{}, err
	}
	pb := parse.NewBuilder(analyzer.Blocks, analyzer.Source(), path)
	store, err := pb.Parse()
	if err != nil {
		return model.VariantDef{}, err
	}

	eps, err := extractEntrypoints(store, pragmaDecls)
	if err != nil {
		return model.VariantDef{}, err
	}

	var variant model.VariantDef
	shaderByName := make(map[string]model.ShaderID, len(eps))
	vID := model.MakeVariantID(repoIndex, configID)

	for _, ep := range eps {
		var others []parse.SymbolID
		for _, other := range eps {
			if other.FuncSymbol != ep.FuncSymbol {
				others = append(others, other.FuncSymbol)
			}
		}
		shaderID, err := b.compileEntrypoint(ctx, path, ep, others, store, analyzer.Source(), analyzer.Blocks)
		if err != nil {
			return model.VariantDef{}, err
		}
		shaderByName[ep.Name] = shaderID
		variant.Shaders = append(variant.Shaders, model.ShaderVariantRef{ShaderID: shaderID, VariantID: vID})
	}

	effects, err := extractEffects(ctx, b.reg, store, shaderByName)
	if err != nil {
		return model.VariantDef{}, err
	}
	for _, ne := range effects {
		def := ne.Def
		def.NameID = b.interner.Intern(ne.Name)
		effectID := b.reg.GetOrAddEffect(def)
		variant.Effects = append(variant.Effects, model.EffectVariantRef{EffectID: effectID, VariantID: vID})
	}

	return variant, nil
}

func (b *Builder) compileEntrypoint(ctx context.Context, path string, ep entrypoint, others []parse.SymbolID, store *parse.Store, source []byte, blocks []lex.LexBlock) (model.ShaderID, error) {
	hlsl, err := hlslgen.Generate(store, source, blocks, ep.FuncSymbol, others)
	if err != nil {
		return model.InvalidShaderID, err
	}

	result, err := b.compiler.Compile(ctx, backend.Request{
		Source:       hlsl,
		Path:         path,
		Stage:        ep.Stage,
		Entrypoint:   ep.Name,
		FeatureLevel: b.cfg.Platform.FeatureLevel,
		Debug:        b.cfg.Debug,
	})
	if err != nil {
		return model.InvalidShaderID, err
	}
	b.stats.CompiledVariantCount++

	def := model.ShaderDef{
		FileNameID:      b.interner.Intern(path),
		ByteCodeID:      b.reg.GetOrAddByteCode(result.ByteCode),
		NameID:          b.interner.Intern(ep.Name),
		Stage:           ep.Stage,
		ThreadGroupSize: result.Reflection.ThreadGroupSize,
		InLayoutID:      b.registerIOLayout(result.Reflection.Inputs),
		OutLayoutID:     b.registerIOLayout(result.Reflection.Outputs),
		ResLayoutID:     b.registerResources(result.Reflection.Resources),
		CBufGroupID:     b.registerConstBufs(result.Reflection.ConstBufs),
	}
	return b.reg.GetOrAddShader(def), nil
}

func (b *Builder) registerIOLayout(params []backend.ParamInfo) model.IDGroupID {
	if len(params) == 0 {
		return model.InvalidIDGroupID
	}
	return b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, p := range params {
			id := b.reg.GetOrAddIOElement(model.IOElementDef{
				NameID:        b.interner.Intern(p.Name),
				SemanticID:    b.interner.Intern(p.Semantic),
				SemanticIndex: p.SemanticIndex,
				Register:      p.Register,
			})
			buf = append(buf, uint32(id))
		}
		return buf
	})
}

func (b *Builder) registerResources(resources []backend.ResourceInfo) model.IDGroupID {
	if len(resources) == 0 {
		return model.InvalidIDGroupID
	}
	return b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, r := range resources {
			id := b.reg.GetOrAddResource(model.ResourceDef{
				NameID: b.interner.Intern(r.Name),
				Slot:   r.Slot,
				Kind:   r.Kind,
			})
			buf = append(buf, uint32(id))
		}
		return buf
	})
}

func (b *Builder) registerConstBufs(cbufs []backend.ConstBufInfo) model.IDGroupID {
	if len(cbufs) == 0 {
		return model.InvalidIDGroupID
	}
	return b.reg.WithTmpIDBuffer(func(buf []uint32) []uint32 {
		for _, cb := range cbufs {
			membersID := b.reg.WithTmpIDBuffer(func(mbuf []uint32) []uint32 {
				for _, m := range cb.Members {
					cid := b.reg.GetOrAddConstant(model.ConstantDef{
						NameID: b.interner.Intern(m.Name),
						Offset: m.Offset,
						Size:   m.Size,
					})
					mbuf = append(mbuf, uint32(cid))
				}
				return mbuf
			})
			id := b.reg.GetOrAddConstBuf(model.ConstBufDef{
				NameID:    b.interner.Intern(cb.Name),
				TotalSize: cb.TotalSize,
				MembersID: membersID,
			})
			buf = append(buf, uint32(id))
		}
		return buf
	})
}

// GetDefinition assembles the final ShaderLibDef (spec §4.8
// "get_definition()"), merging in any deferred cache hits first.
func (b *Builder) GetDefinition(ctx context.Context) (model.ShaderLibDef, BuildStats, error) {
	if len(b.hits) > 0 {
		if err := b.mergeCacheHits(ctx); err != nil {
			return model.ShaderLibDef{}, BuildStats{}, err
		}
	}
	if len(b.hits) == len(b.repos) && len(b.repos) > 0 && b.cache != nil {
		return *b.cache, BuildStats{CachedRepoCount: len(b.hits)}, nil
	}

	stats := b.stats
	stats.CachedRepoCount = len(b.hits)
	def := model.ShaderLibDef{
		Name:      b.cfg.Name,
		Platform:  b.cfg.Platform,
		Repos:     append([]model.VariantRepoDef(nil), b.repos...),
		Registry:  b.reg.ToDef(),
		StringIDs: b.interner.All(),
	}
	return def, stats, nil
}
