// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/contentcore/diag"
)

func TestParseDefines(t *testing.T) {
	got := ParseDefines("A=1; B ;C=hello,D=")
	assert.Equal(t, map[string]string{"A": "1", "B": "1", "C": "hello", "D": ""}, got)
	assert.Equal(t, []string{"A", "B", "C", "D"}, SortedDefines(got))
}

func TestMacroSubstitution(t *testing.T) {
	pp := New(Options{Defines: map[string]string{"SCALE": "2.0", "FACTOR": "SCALE * SCALE"}})
	res, err := pp.Process("main.fx", "let a = FACTOR; // FACTOR stays\nlet SCALED = 1;")
	require.NoError(t, err)

	lines := strings.Split(res.Text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "let a = 2.0 * 2.0; // FACTOR stays", lines[0])
	assert.Equal(t, "let SCALED = 1;", lines[1])
}

func TestRecursiveMacroIsGuarded(t *testing.T) {
	pp := New(Options{Defines: map[string]string{"A": "B", "B": "A"}})
	res, err := pp.Process("main.fx", "A")
	require.NoError(t, err)
	assert.Equal(t, "A", res.Text)
}

func TestConditionals(t *testing.T) {
	src := `#define FOG
#ifdef FOG
fog
#else
nofog
#endif
#ifndef FOG
never
#elif 1
elif
#endif
#if defined(SKIN)
skin
#endif`
	res, err := New(Options{}).Process("main.fx", src)
	require.NoError(t, err)

	var kept []string
	for _, l := range strings.Split(res.Text, "\n") {
		if l != "" {
			kept = append(kept, l)
		}
	}
	assert.Equal(t, []string{"fog", "elif"}, kept)
	// Directive lines are blanked, so line numbers survive.
	assert.Len(t, res.Lines, strings.Count(src, "\n")+1)
}

func TestIncludeTracksDependenciesAndLines(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/common.fxh": {Data: []byte("struct Params {\n  tint: vec4<f32>,\n};")},
	}
	src := "// header\n#include \"common.fxh\"\n#include \"common.fxh\"\nbody"
	res, err := New(Options{FS: fsys}).Process("shaders/main.fx", src)
	require.NoError(t, err)

	assert.Equal(t, []string{"shaders/common.fxh"}, res.Dependencies)
	assert.Equal(t, diag.Position{File: "shaders/common.fxh", Line: 2, Column: 1}, res.Lines.Lookup(3))
	assert.Equal(t, diag.Position{File: "shaders/main.fx", Line: 4, Column: 1}, res.Lines.Lookup(8))
	assert.Equal(t, diag.Position{}, res.Lines.Lookup(99))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		kind diag.Kind
	}{
		{"unterminated", "#ifdef X\nfoo", Options{}, diag.KindParse},
		{"stray endif", "#endif", Options{}, diag.KindParse},
		{"error directive", "#error stop here", Options{}, diag.KindParse},
		{"include without fs", "#include \"a.fxh\"", Options{}, diag.KindIO},
		{"missing include", "#include \"a.fxh\"", Options{FS: fstest.MapFS{}}, diag.KindIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts).Process("main.fx", tt.src)
			require.Error(t, err)
			var be *diag.BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, "main.fx", be.Pos.File)
		})
	}
}
