// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diag defines the positional diagnostics and build errors shared by
// the effect pipeline and the audio bank readers.
package diag

import (
	"errors"
	"fmt"
)

// Sentinel errors used for classification with errors.Is.
var (
	// ErrFormat reports a wrong magic number or a corrupt header.
	ErrFormat = errors.New("wrong format")

	// ErrParse reports one or more effect grammar errors.
	ErrParse = errors.New("parse error")

	// ErrCompile reports a shader compiler failure.
	ErrCompile = errors.New("shader compilation failed")

	// ErrNotSupported reports a construct the linker refuses, such as a
	// dynamic state expression.
	ErrNotSupported = errors.New("not supported")

	// ErrNotImplemented reports a known but unimplemented codec, event or
	// variation path.
	ErrNotImplemented = errors.New("not implemented")
)

// Kind categorizes build errors.
type Kind uint8

const (
	// KindFormat indicates a malformed binary input.
	KindFormat Kind = iota

	// KindParse indicates effect grammar errors.
	KindParse

	// KindCompile indicates shader compiler errors.
	KindCompile

	// KindLink indicates an error while linking techniques and parameters.
	KindLink

	// KindSerialize indicates the linked effect could not be written.
	KindSerialize

	// KindIO indicates a failure reading an input or include file.
	KindIO
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "Format"
	case KindParse:
		return "Parse"
	case KindCompile:
		return "Compile"
	case KindLink:
		return "Link"
	case KindSerialize:
		return "Serialize"
	case KindIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Position identifies a location in a source file. Line and Column are
// 1-based; zero means unknown.
type Position struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the position carries a line number.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String formats the position as file(line,col).
func (p Position) String() string {
	switch {
	case p.Line == 0:
		return p.File
	case p.Column == 0:
		return fmt.Sprintf("%s(%d)", p.File, p.Line)
	default:
		return fmt.Sprintf("%s(%d,%d)", p.File, p.Line, p.Column)
	}
}

// Message is one diagnostic line.
type Message struct {
	Pos  Position
	Text string

	// Raw is set when the line could not be parsed into a position and is
	// passed through verbatim.
	Raw bool
}

// String formats the message the way compilers print them.
func (m Message) String() string {
	if m.Raw || m.Pos.File == "" && !m.Pos.IsValid() {
		return m.Text
	}
	return m.Pos.String() + ": " + m.Text
}

// BuildError is a content build failure carrying the identity of the source
// that produced it.
type BuildError struct {
	Kind Kind

	// Source is the content identity (usually the source file path).
	Source string

	// Pos locates the first offending line when known.
	Pos Position

	Message string

	// Err is the classification sentinel or underlying cause.
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	loc := e.Source
	if e.Pos.File != "" || e.Pos.IsValid() {
		loc = e.Pos.String()
	}
	if loc == "" {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", loc, e.Kind, e.Message)
}

// Unwrap returns the classification sentinel or the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// NewBuildError creates a BuildError of the given kind.
func NewBuildError(kind Kind, source string, pos Position, err error, format string, args ...any) *BuildError {
	return &BuildError{
		Kind:    kind,
		Source:  source,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// AsBuildError converts err into a BuildError of the given kind unless it
// already is one. The original error stays reachable through Unwrap.
func AsBuildError(kind Kind, source string, err error) *BuildError {
	if err == nil {
		return nil
	}
	var be *BuildError
	if errors.As(err, &be) {
		if be.Source == "" {
			be.Source = source
		}
		return be
	}
	return &BuildError{
		Kind:    kind,
		Source:  source,
		Pos:     Position{File: source},
		Message: err.Error(),
		Err:     err,
	}
}
