// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package contentcore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/fx"
)

const colorEffect = `#include "common.fxh"

@group(0) @binding(0) var<uniform> tint: vec4<f32>;

@vertex
fn vs_main(@location(0) position: vec4<f32>) -> @builtin(position) vec4<f32> {
    return position * SCALE;
}

@fragment
fn ps_main() -> @location(0) vec4<f32> {
    return tint;
}

technique Color {
    pass P0 {
        VertexShader = compile vs_3_0 vs_main();
        PixelShader = compile ps_3_0 ps_main();
        ZWriteEnable = false;
    }
}
`

var includes = fstest.MapFS{
	"common.fxh": {Data: []byte("#define SCALE 1.0\n")},
}

func TestBuildEffect(t *testing.T) {
	res, err := BuildEffect("color.fx", []byte(colorEffect), Options{Platform: "vulkan", FS: includes})
	require.NoError(t, err)

	assert.Equal(t, []string{"common.fxh"}, res.Dependencies)
	assert.Empty(t, res.AdditionalOutputs)
	require.GreaterOrEqual(t, len(res.Data), 10)
	assert.Equal(t, effect.Signature, string(res.Data[:4]))

	obj, h, err := effect.Read(res.Data)
	require.NoError(t, err)
	assert.Equal(t, uint8(effect.Version), h.Version)
	require.Len(t, obj.Techniques, 1)
	assert.Equal(t, "Color", obj.Techniques[0].Name)
	require.Len(t, obj.Techniques[0].Passes, 1)
	pass := obj.Techniques[0].Passes[0]
	require.NotNil(t, pass.DepthStencil)
	assert.False(t, pass.DepthStencil.DepthWrite)
	assert.Len(t, obj.Shaders, 2)
	assert.GreaterOrEqual(t, obj.ParameterIndex("tint"), 0)
}

func TestBuildEffectDeterministic(t *testing.T) {
	a, err := BuildEffect("color.fx", []byte(colorEffect), Options{Platform: "opengl", FS: includes})
	require.NoError(t, err)
	b, err := BuildEffect("color.fx", []byte(colorEffect), Options{Platform: "opengl", FS: includes})
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestBuildEffectDebugListing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "color.mgfx")
	res, err := BuildEffect("color.fx", []byte(colorEffect), Options{
		Platform:   "vulkan",
		Debug:      true,
		OutputFile: out,
		FS:         includes,
	})
	require.NoError(t, err)
	require.Equal(t, []string{out + ".lst"}, res.AdditionalOutputs)

	listing, err := os.ReadFile(out + ".lst")
	require.NoError(t, err)
	assert.Contains(t, string(listing), "technique Color")
}

func TestBuildEffectUnknownPlatform(t *testing.T) {
	_, err := BuildEffect("color.fx", []byte(colorEffect), Options{Platform: "amiga", FS: includes})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrNotSupported))
}

func TestBuildEffectMissingInclude(t *testing.T) {
	_, err := BuildEffect("color.fx", []byte(colorEffect), Options{Platform: "vulkan"})
	require.Error(t, err)
	var be *diag.BuildError
	require.True(t, errors.As(err, &be))
}

func TestBuildEffectParseErrorsUseOriginalLines(t *testing.T) {
	src := "#define X 1\n\ntechnique T {\n    pass P {\n        ZFunc = Sometimes;\n    }\n}\n"
	_, err := BuildEffect("bad.fx", []byte(src), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrParse))

	var be *diag.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, diag.KindParse, be.Kind)
	assert.Equal(t, "bad.fx", be.Pos.File)
	assert.Equal(t, 5, be.Pos.Line)
}

func TestBuildEffectNoTechniques(t *testing.T) {
	_, err := BuildEffect("empty.fx", []byte("@fragment\nfn ps_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }\n"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fx.ErrNoTechniques))
}

func TestBuildEffectDefines(t *testing.T) {
	src := "#ifdef WITH_PASS\ntechnique T { pass P { PixelShader = compile ps_3_0 ps_main(); } }\n#endif\n" +
		"@fragment\nfn ps_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }\n"
	_, err := BuildEffect("defs.fx", []byte(src), DefaultOptions())
	require.Error(t, err)

	res, err := BuildEffect("defs.fx", []byte(src), Options{Platform: "vulkan", Defines: "WITH_PASS=1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Data)
}
