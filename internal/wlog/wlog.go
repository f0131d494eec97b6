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

// Package wlog provides a small context-carried structured logger.
// Severity-filtered loggers are obtained from a context and accumulate
// key/value tags before the final Log/Logf call formats and dispatches
// to the active Handler.
package wlog

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Severity orders log records from least to most urgent.
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Record is a single emitted log line, with its accumulated tags.
type Record struct {
	Severity Severity
	Message  string
	Tags     []Tag
}

// Tag is one key/value pair attached to a logger before it is logged.
type Tag struct {
	Key   string
	Value interface{}
}

// Handler receives finished records. The default handler writes to stderr.
type Handler func(Record)

var (
	mu      sync.Mutex
	filter  = Debug
	handler = Handler(stderrHandler)
)

// SetFilter sets the minimum severity that reaches the handler.
func SetFilter(s Severity) {
	mu.Lock()
	defer mu.Unlock()
	filter = s
}

// SetHandler replaces the active record sink.
func SetHandler(h Handler) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = stderrHandler
	}
	handler = h
}

func stderrHandler(r Record) {
	fmt.Fprintf(os.Stderr, "[%s] %s%s\n", r.Severity, r.Message, formatTags(r.Tags))
}

func formatTags(tags []Tag) string {
	if len(tags) == 0 {
		return ""
	}
	out := ""
	for _, t := range tags {
		out += fmt.Sprintf(" %s=%v", t.Key, t.Value)
	}
	return out
}

type ctxKey struct{}

// Context carries a context.Context plus the tags accumulated so far.
type Context struct {
	ctx  context.Context
	tags []Tag
}

// Wrap returns a wlog.Context rooted at ctx, inheriting any tags already
// attached by an ancestor Wrap call.
func Wrap(ctx context.Context) Context {
	if v, ok := ctx.Value(ctxKey{}).([]Tag); ok {
		return Context{ctx: ctx, tags: v}
	}
	return Context{ctx: ctx}
}

// With returns a derived Context carrying one additional tag.
func (c Context) With(key string, value interface{}) Context {
	tags := make([]Tag, len(c.tags), len(c.tags)+1)
	copy(tags, c.tags)
	tags = append(tags, Tag{key, value})
	return Context{ctx: c.ctx, tags: tags}
}

// Unwrap returns a context.Context that remembers the accumulated tags,
// so a later wlog.Wrap of it resumes the same tag set.
func (c Context) Unwrap() context.Context {
	return context.WithValue(c.ctx, ctxKey{}, c.tags)
}

// Logger is obtained from a Context at a fixed severity.
type Logger struct {
	severity Severity
	tags     []Tag
}

// Debug returns a Logger at Debug severity carrying this Context's tags.
func (c Context) Debug() Logger { return c.at(Debug) }

// Info returns a Logger at Info severity carrying this Context's tags.
func (c Context) Info() Logger { return c.at(Info) }

// Warning returns a Logger at Warning severity carrying this Context's tags.
func (c Context) Warning() Logger { return c.at(Warning) }

// Error returns a Logger at Error severity carrying this Context's tags.
func (c Context) Error() Logger { return c.at(Error) }

func (c Context) at(s Severity) Logger {
	return Logger{severity: s, tags: c.tags}
}

// With returns a derived Logger carrying one additional tag.
func (l Logger) With(key string, value interface{}) Logger {
	tags := make([]Tag, len(l.tags), len(l.tags)+1)
	copy(tags, l.tags)
	tags = append(tags, Tag{key, value})
	return Logger{severity: l.severity, tags: tags}
}

// Active reports whether this Logger's severity would actually be emitted,
// letting a caller skip building an expensive message.
func (l Logger) Active() bool {
	mu.Lock()
	defer mu.Unlock()
	return l.severity >= filter
}

// Log dispatches msg to the active handler if the severity passes the filter.
func (l Logger) Log(msg string) {
	if !l.Active() {
		return
	}
	mu.Lock()
	h := handler
	mu.Unlock()
	h(Record{Severity: l.severity, Message: msg, Tags: l.tags})
}

// Logf formats and dispatches, as Log.
func (l Logger) Logf(format string, args ...interface{}) {
	if !l.Active() {
		return
	}
	l.Log(fmt.Sprintf(format, args...))
}
