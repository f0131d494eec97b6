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

// Package wfxerr defines the error kinds surfaced by the core: ParseError,
// SyntaxError, BackendError and CacheError (see spec §7).
package wfxerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError is a generic misuse or unexpected-state error, optionally
// carrying the originating file, line and lex-block index.
type ParseError struct {
	Message string
	File    string
	Line    int
	Block   int
	Cause   error
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return e.Message
}

// Unwrap lets errors.Is/As see through to the wrapped cause.
func (e *ParseError) Unwrap() error { return e.Cause }

// NewParseError builds a ParseError, wrapping cause with pkg/errors so a
// %+v format recovers a stack trace.
func NewParseError(message string, cause error) *ParseError {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &ParseError{Message: message, Cause: cause}
}

// AtLine attaches file/line/block context, returning the same error for
// chaining at the call site.
func (e *ParseError) AtLine(file string, line, block int) *ParseError {
	e.File = file
	e.Line = line
	e.Block = block
	return e
}

// SyntaxError is a ParseError subclass for the block analyzer and symbol
// parser: unterminated containers, unexpected delimiters, unknown capture
// tokens, duplicate symbol definitions, pragma redefinitions, malformed
// effects/passes.
type SyntaxError struct {
	*ParseError
}

// NewSyntaxError builds a SyntaxError located at file:line.
func NewSyntaxError(message, file string, line, block int) *SyntaxError {
	return &SyntaxError{ParseError: &ParseError{Message: message, File: file, Line: line, Block: block}}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.ParseError.Error())
}

// BackendError carries a compile/reflect failure verbatim from the
// external backend (spec §6).
type BackendError struct {
	Entrypoint string
	Diagnostic string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend compile failed for %q: %s", e.Entrypoint, e.Diagnostic)
}

// CacheError reports a CRC mismatch, schema mismatch, or platform
// mismatch encountered while loading a cache. Per spec §7 this is never
// fatal — callers log it and fall back to full processing.
type CacheError struct {
	Reason string
	Cause  error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Reason)
}

func (e *CacheError) Unwrap() error { return e.Cause }

// NewCacheError wraps cause (may be nil) with a human reason.
func NewCacheError(reason string, cause error) *CacheError {
	return &CacheError{Reason: reason, Cause: cause}
}

// Wrap is a thin re-export of pkg/errors.Wrap for packages that don't want
// to import pkg/errors directly, keeping the dependency surface in one
// place as gapid's core packages tend to do.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf is the formatted form of Wrap.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
