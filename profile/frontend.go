// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/wgsl"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
)

// frontEnd parses, lowers and validates the clean source once. Every pass
// of an effect compiles against the same source, so only the most recent
// module is kept.
type frontEnd struct {
	mu       sync.Mutex
	source   string
	loaded   bool
	module   *ir.Module
	warnings []wgsl.Warning
	err      error
}

func (f *frontEnd) load(source string) (*ir.Module, []wgsl.Warning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loaded && f.source == source {
		return f.module, f.warnings, f.err
	}
	f.module, f.warnings, f.err = lower(source)
	f.source = source
	f.loaded = true
	return f.module, f.warnings, f.err
}

func lower(source string) (*ir.Module, []wgsl.Warning, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, nil, err
	}
	res, err := wgsl.LowerWithWarnings(ast, source)
	if err != nil {
		return nil, nil, err
	}
	verrs, err := naga.Validate(res.Module)
	if err != nil {
		return nil, res.Warnings, err
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i := range verrs {
			errs[i] = verrs[i]
		}
		return nil, res.Warnings, errors.Join(errs...)
	}
	return res.Module, res.Warnings, nil
}

// selectEntryPoint returns a view of module holding only the named entry
// point of the given stage.
func selectEntryPoint(module *ir.Module, function string, stage effect.Stage) (*ir.Module, *ir.EntryPoint, error) {
	want := ir.StageVertex
	if stage == effect.StagePixel {
		want = ir.StageFragment
	}
	var other *ir.EntryPoint
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if ep.Name != function {
			continue
		}
		if ep.Stage == want {
			view := *module
			view.EntryPoints = []ir.EntryPoint{*ep}
			return &view, &view.EntryPoints[0], nil
		}
		other = ep
	}
	if other != nil {
		return nil, nil, fmt.Errorf("entry point %q is not a %s shader", function, stage)
	}
	return nil, nil, fmt.Errorf("entry point %q not found", function)
}

// errorLocation matches the positions naga prints: "line 3, column 7: "
// from the parser and "3:7: " from lowering.
var errorLocation = regexp.MustCompile(`(?:line ([0-9]+), column ([0-9]+)|\b([0-9]+):([0-9]+)):\s*`)

// locate pulls the first source position out of a front end error.
func locate(text string) (line, column int, msg string) {
	m := errorLocation.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, 0, text
	}
	num := func(i int) int {
		if m[2*i] < 0 {
			return 0
		}
		n, _ := strconv.Atoi(text[m[2*i]:m[2*i+1]])
		return n
	}
	line, column = num(1), num(2)
	if line == 0 {
		line, column = num(3), num(4)
	}
	return line, column, text[m[1]:]
}

// compileFailure turns a front end or backend error into the
// file(line,col): message lines a native compiler would print and hands
// them to the shared output classifier.
func compileFailure(ctx *effect.LinkContext, function string, err error) error {
	errs := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		line, col, msg := locate(e.Error())
		if line == 0 {
			lines = append(lines, fmt.Sprintf("%s: %s: %s", ctx.Info.File, function, msg))
			continue
		}
		pos := ctx.Position(line, col)
		lines = append(lines, fmt.Sprintf("%s: %s", pos, msg))
	}
	_, berr := diag.ProcessCompilerOutput(ctx.Info.File, strings.Join(lines, "\n"), true, ctx.Logger)
	return berr
}

// reportWarnings converts front end warnings into positional messages.
func reportWarnings(ctx *effect.LinkContext, warnings []wgsl.Warning) {
	for _, w := range warnings {
		pos := ctx.Position(w.Span.Start.Line, w.Span.Start.Column)
		ctx.AddWarnings(diag.Message{Pos: pos, Text: w.Message})
		ctx.Logger.Warn(w.Message, "file", pos.File, "line", pos.Line, "column", pos.Column)
	}
}
