// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package preprocess expands macros and #include directives in effect source
// before it reaches the effect grammar parser.
//
// Only textual substitution is performed: object-like macros are replaced on
// identifier boundaries and conditional blocks are dropped. Every directive
// line is turned into an empty line so that line numbers inside one file are
// preserved, and the LineMap of the Result maps output lines back to the
// file and line they came from.
package preprocess

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/gogpu/contentcore/diag"
)

// maxIncludeDepth guards against include cycles.
const maxIncludeDepth = 32

// Options configures a Preprocessor.
type Options struct {
	// Defines are predefined object-like macros.
	Defines map[string]string

	// FS resolves #include paths. Includes fail when it is nil.
	FS fs.FS
}

// Result is the output of a Process call.
type Result struct {
	// Text is the expanded source.
	Text string

	// Dependencies lists every included file in first-seen order.
	Dependencies []string

	// Lines maps output lines to their origin.
	Lines LineMap
}

// Preprocessor expands one effect source file.
type Preprocessor interface {
	// Process expands source, which was read from file. The file name is
	// used for diagnostics and to resolve relative includes.
	Process(file, source string) (*Result, error)
}

// LineMap maps 1-based output lines to their origin.
type LineMap []diag.Position

// Lookup returns the origin of an output line. Unknown lines map to an
// invalid position.
func (m LineMap) Lookup(line int) diag.Position {
	if line < 1 || line > len(m) {
		return diag.Position{}
	}
	return m[line-1]
}

// ParseDefines parses "NAME=VALUE;NAME2" style definitions as accepted on
// the command line. Entries may also be separated by commas.
func ParseDefines(s string) map[string]string {
	defines := make(map[string]string)
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			value = "1"
		}
		defines[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return defines
}

// SortedDefines returns the names of defines in a stable order.
func SortedDefines(defines map[string]string) []string {
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a Preprocessor.
func New(opts Options) Preprocessor {
	return &preprocessor{opts: opts}
}

type preprocessor struct {
	opts Options
}

// condFrame tracks one #if/#ifdef nesting level.
type condFrame struct {
	parentActive bool
	active       bool
	taken        bool
	seenElse     bool
	pos          diag.Position
}

// state is the per-Process expansion state.
type state struct {
	fsys    fs.FS
	macros  map[string]string
	out     strings.Builder
	lines   LineMap
	deps    []string
	seen    map[string]bool
	pending bool
}

func (p *preprocessor) Process(file, source string) (*Result, error) {
	st := &state{
		fsys:   p.opts.FS,
		macros: make(map[string]string, len(p.opts.Defines)),
		seen:   make(map[string]bool),
	}
	for name, value := range p.opts.Defines {
		st.macros[name] = value
	}

	if err := st.expand(file, source, 0); err != nil {
		return nil, err
	}

	return &Result{
		Text:         st.out.String(),
		Dependencies: st.deps,
		Lines:        st.lines,
	}, nil
}

func (st *state) emit(line string, pos diag.Position) {
	if st.pending {
		st.out.WriteByte('\n')
	}
	st.out.WriteString(line)
	st.pending = true
	st.lines = append(st.lines, pos)
}

func (st *state) expand(file, source string, depth int) error {
	if depth > maxIncludeDepth {
		return diag.NewBuildError(diag.KindParse, file, diag.Position{File: file}, diag.ErrParse,
			"#include nested deeper than %d levels", maxIncludeDepth)
	}

	var stack []condFrame
	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	for i, line := range lines {
		pos := diag.Position{File: file, Line: i + 1, Column: 1}
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "#") {
			if active() {
				st.emit(st.substitute(line, nil), pos)
			} else {
				st.emit("", pos)
			}
			continue
		}

		directive, rest := splitDirective(trimmed[1:])
		switch directive {
		case "ifdef", "ifndef", "if":
			parent := active()
			var cond bool
			switch directive {
			case "ifdef":
				_, cond = st.macros[rest]
			case "ifndef":
				_, cond = st.macros[rest]
				cond = !cond
			default:
				cond = st.evalCondition(rest)
			}
			stack = append(stack, condFrame{
				parentActive: parent,
				active:       parent && cond,
				taken:        cond,
				pos:          pos,
			})
		case "elif":
			if len(stack) == 0 {
				return st.errorf(pos, "#elif without #if")
			}
			top := &stack[len(stack)-1]
			if top.seenElse {
				return st.errorf(pos, "#elif after #else")
			}
			cond := !top.taken && st.evalCondition(rest)
			top.active = top.parentActive && cond
			top.taken = top.taken || cond
		case "else":
			if len(stack) == 0 {
				return st.errorf(pos, "#else without #if")
			}
			top := &stack[len(stack)-1]
			if top.seenElse {
				return st.errorf(pos, "duplicate #else")
			}
			top.seenElse = true
			top.active = top.parentActive && !top.taken
			top.taken = true
		case "endif":
			if len(stack) == 0 {
				return st.errorf(pos, "#endif without #if")
			}
			stack = stack[:len(stack)-1]
		case "define":
			if active() {
				name, value := splitDirective(rest)
				if name == "" {
					return st.errorf(pos, "#define without a name")
				}
				st.macros[name] = value
			}
		case "undef":
			if active() {
				delete(st.macros, rest)
			}
		case "error":
			if active() {
				return st.errorf(pos, "#error %s", rest)
			}
		case "include":
			if !active() {
				break
			}
			if err := st.include(file, rest, pos, depth); err != nil {
				return err
			}
			continue
		}
		// Directives leave an empty line behind.
		st.emit("", pos)
	}

	if len(stack) > 0 {
		return st.errorf(stack[len(stack)-1].pos, "unterminated conditional block")
	}
	return nil
}

func (st *state) include(file, arg string, pos diag.Position, depth int) error {
	name := strings.Trim(strings.TrimSpace(arg), `"<>`)
	if name == "" {
		return st.errorf(pos, "#include without a file name")
	}
	if st.fsys == nil {
		return diag.NewBuildError(diag.KindIO, file, pos, fs.ErrNotExist, "cannot include %q: no include file system", name)
	}

	target := name
	if !path.IsAbs(name) {
		target = path.Join(path.Dir(file), name)
	}
	target = strings.TrimPrefix(path.Clean(target), "/")

	data, err := fs.ReadFile(st.fsys, target)
	if err != nil {
		return diag.NewBuildError(diag.KindIO, file, pos, err, "cannot include %q: %v", name, err)
	}
	if !st.seen[target] {
		st.seen[target] = true
		st.deps = append(st.deps, target)
	}
	return st.expand(target, string(data), depth+1)
}

func (st *state) errorf(pos diag.Position, format string, args ...any) error {
	return diag.NewBuildError(diag.KindParse, pos.File, pos, diag.ErrParse, format, args...)
}

// evalCondition evaluates the small #if subset: integers, defined(NAME),
// NAME, and a leading '!'.
func (st *state) evalCondition(expr string) bool {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "!") {
		return !st.evalCondition(expr[1:])
	}
	if strings.HasPrefix(expr, "defined") {
		name := strings.Trim(strings.TrimSpace(strings.TrimPrefix(expr, "defined")), "() ")
		_, ok := st.macros[name]
		return ok
	}
	value := strings.TrimSpace(st.substitute(expr, nil))
	switch value {
	case "", "0", "false":
		return false
	}
	// An identifier that survived substitution is an undefined macro.
	return !isIdentStart(rune(value[0]))
}

// substitute replaces defined macros on identifier boundaries. Text after a
// line comment is left alone.
func (st *state) substitute(line string, guard map[string]bool) string {
	if len(st.macros) == 0 {
		return line
	}

	var sb strings.Builder
	for i := 0; i < len(line); {
		c := rune(line[i])
		if c == '/' && i+1 < len(line) && line[i+1] == '/' {
			sb.WriteString(line[i:])
			break
		}
		if !isIdentStart(c) {
			sb.WriteByte(line[i])
			i++
			continue
		}
		j := i + 1
		for j < len(line) && isIdentPart(rune(line[j])) {
			j++
		}
		word := line[i:j]
		value, ok := st.macros[word]
		if ok && !guard[word] {
			inner := make(map[string]bool, len(guard)+1)
			for k := range guard {
				inner[k] = true
			}
			inner[word] = true
			sb.WriteString(st.substitute(value, inner))
		} else {
			sb.WriteString(word)
		}
		i = j
	}
	return sb.String()
}

func splitDirective(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func isIdentStart(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || r >= '0' && r <= '9'
}

// String describes the result for debugging.
func (r *Result) String() string {
	return fmt.Sprintf("preprocess.Result{%d lines, %d dependencies}", len(r.Lines), len(r.Dependencies))
}
