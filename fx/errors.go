// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/contentcore/diag"
)

// Position locates a token in the effect source.
type Position = diag.Position

// ErrNoTechniques is returned when no technique with at least one pass
// survives parsing.
var ErrNoTechniques = errors.New("effect must contain at least one technique and pass")

// SourceError represents an error with source location information.
type SourceError struct {
	Message string
	Pos     Position
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// FormatWithContext returns the error message with the offending source line
// and a caret under the column.
func (e *SourceError) FormatWithContext(source string) string {
	if source == "" || !e.Pos.IsValid() {
		return e.Error()
	}

	lines := strings.Split(source, "\n")
	if e.Pos.Line > len(lines) {
		return e.Error()
	}
	line := lines[e.Pos.Line-1]
	col := e.Pos.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> %s\n", e.Pos)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Pos.Line, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// SourceErrors is the aggregated list of parse errors of one effect file.
type SourceErrors []*SourceError

// Error implements the error interface.
func (el SourceErrors) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// Is makes errors.Is(err, diag.ErrParse) true for parse error lists.
func (el SourceErrors) Is(target error) bool {
	return target == diag.ErrParse
}

// FormatAll returns all errors formatted with context.
func (el SourceErrors) FormatAll(source string) string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.FormatWithContext(source))
	}
	return sb.String()
}

// Add adds an error to the list.
func (el *SourceErrors) Add(err *SourceError) {
	*el = append(*el, err)
}

// HasErrors returns true if there are any errors.
func (el SourceErrors) HasErrors() bool {
	return len(el) > 0
}

// BuildError converts the list into one content build failure positioned
// at the first error.
func (el SourceErrors) BuildError(source string) *diag.BuildError {
	if len(el) == 0 {
		return nil
	}
	lines := make([]string, len(el))
	for i, e := range el {
		lines[i] = e.Error()
	}
	return &diag.BuildError{
		Kind:    diag.KindParse,
		Source:  source,
		Pos:     el[0].Pos,
		Message: strings.Join(lines, "\n"),
		Err:     el,
	}
}
