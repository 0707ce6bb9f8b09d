// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/fx"
)

const texturedEffect = `struct Params {
    world: mat4x4<f32>,
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var diffuse: texture_2d<f32>;
@group(0) @binding(2) var diffuseSampler: sampler;

sampler diffuseSampler = sampler_state {
    Texture = <DiffuseTexture>;
    MinFilter = Point;
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) texcoord0: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = params.world * vec4<f32>(position, 1.0);
    out.uv = texcoord0;
    return out;
}

@fragment
fn ps_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(diffuse, diffuseSampler, in.uv) * params.tint;
}

technique Textured {
    pass P0 {
        VertexShader = compile vs_3_0 vs_main();
        PixelShader = compile ps_3_0 ps_main();
    }
}
`

func parse(t *testing.T, file, src string) *fx.ShaderInfo {
	t.Helper()
	info, err := fx.Parse(file, src)
	require.NoError(t, err)
	return info
}

func TestForPlatform(t *testing.T) {
	tests := []struct {
		platform string
		want     string
		format   uint8
	}{
		{"Vulkan", "spirv", FormatSPIRV},
		{"linux", "spirv", FormatSPIRV},
		{"DesktopGL", "glsl", FormatGLSL},
		{"webgl", "glsles", FormatGLSL},
		{"Windows", "hlsl", FormatHLSL},
		{"iOS", "msl", FormatMSL},
		{"msl", "msl", FormatMSL},
	}
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			p, err := ForPlatform(tt.platform)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
			assert.Equal(t, tt.format, p.FormatID())
		})
	}

	_, err := ForPlatform("dreamcast")
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrNotSupported))
}

func TestSupports(t *testing.T) {
	assert.True(t, NewSPIRV().Supports("Android"))
	assert.False(t, NewSPIRV().Supports("windows"))
	assert.True(t, NewGLSLES().Supports("webgl"))
	assert.True(t, NewHLSL().Supports("hlsl"))
}

func TestAddMacrosKeepsUserDefines(t *testing.T) {
	defines := map[string]string{"HLSL": "0"}
	NewHLSL().AddMacros(defines)
	assert.Equal(t, "0", defines["HLSL"])
	assert.Equal(t, "1", defines["DIRECTX"])
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("ps_4_0_level_9_1")
	require.NoError(t, err)
	assert.Equal(t, Model{Stage: effect.StagePixel, Major: 4, Minor: 0, Level: "9_1"}, m)
	assert.Equal(t, "ps_4_0_level_9_1", m.String())

	m, err = ParseModel("VS_3_0")
	require.NoError(t, err)
	assert.Equal(t, effect.StageVertex, m.Stage)
	assert.Equal(t, 3, m.Major)

	for _, bad := range []string{"", "vs_3", "gs_4_0", "vs_x_0", "ps_4_0_level"} {
		_, err := ParseModel(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateShaderModels(t *testing.T) {
	pass := func(vs, ps string) *fx.Pass {
		return &fx.Pass{Name: "P0", VertexFunction: "vs_main", VertexModel: vs, PixelFunction: "ps_main", PixelModel: ps}
	}
	tests := []struct {
		name    string
		profile effect.ShaderProfile
		pass    *fx.Pass
		ok      bool
	}{
		{"glsl sm3", NewGLSL(), pass("vs_3_0", "ps_3_0"), true},
		{"glsl sm4 rejected", NewGLSL(), pass("vs_4_0", "ps_3_0"), false},
		{"hlsl sm3 rejected", NewHLSL(), pass("vs_3_0", "ps_4_0"), false},
		{"hlsl level", NewHLSL(), pass("vs_4_0_level_9_1", "ps_4_0_level_9_1"), true},
		{"spirv sm6", NewSPIRV(), pass("vs_6_0", "ps_6_0"), true},
		{"stage mismatch", NewSPIRV(), pass("ps_3_0", "ps_3_0"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.ValidateShaderModels(tt.pass)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, diag.ErrNotSupported))
			assert.Contains(t, err.Error(), `pass "P0"`)
		})
	}
}

func TestHLSLShaderModel(t *testing.T) {
	must := func(s string) Model {
		m, err := ParseModel(s)
		require.NoError(t, err)
		return m
	}
	assert.Equal(t, "5_0", hlslShaderModel(must("vs_4_0")).ProfileSuffix())
	assert.Equal(t, "5_1", hlslShaderModel(must("vs_5_1")).ProfileSuffix())
	assert.Equal(t, "6_2", hlslShaderModel(must("ps_6_2")).ProfileSuffix())
	assert.Equal(t, "6_7", hlslShaderModel(must("ps_6_9")).ProfileSuffix())
}

func TestUsageOf(t *testing.T) {
	tests := []struct {
		name  string
		usage effect.VertexElementUsage
		index int
	}{
		{"position", effect.UsagePosition, 0},
		{"in_pos", effect.UsagePosition, 0},
		{"color1", effect.UsageColor, 1},
		{"normal", effect.UsageNormal, 0},
		{"texcoord2", effect.UsageTextureCoordinate, 2},
		{"uv", effect.UsageTextureCoordinate, 0},
		{"blendweight_0", effect.UsageBlendWeight, 0},
		{"Tangent", effect.UsageTangent, 0},
	}
	for _, tt := range tests {
		usage, index := usageOf(tt.name)
		assert.Equal(t, tt.usage, usage, tt.name)
		assert.Equal(t, tt.index, index, tt.name)
	}
}

func TestLocate(t *testing.T) {
	line, col, msg := locate("parse error: parsing failed with 1 error(s): line 3, column 7: expected ';'")
	assert.Equal(t, 3, line)
	assert.Equal(t, 7, col)
	assert.Equal(t, "expected ';'", msg)

	line, col, msg = locate("12:4: unknown identifier 'foo'")
	assert.Equal(t, 12, line)
	assert.Equal(t, 4, col)
	assert.Equal(t, "unknown identifier 'foo'", msg)

	line, _, msg = locate("entry point \"x\" not found")
	assert.Zero(t, line)
	assert.Equal(t, "entry point \"x\" not found", msg)
}

func TestStripText(t *testing.T) {
	in := "#version 330 core\n\n// generated\nvoid main() {   \n    gl_Position = vec4(0.0); // out\n}\n"
	assert.Equal(t, "#version 330 core\nvoid main() {\n    gl_Position = vec4(0.0);\n}\n", string(stripText([]byte(in))))
}

func TestCompileSPIRV(t *testing.T) {
	info := parse(t, "textured.fx", texturedEffect)
	obj, _, err := effect.Compile(info, NewSPIRV(), effect.Options{})
	require.NoError(t, err)

	require.Len(t, obj.Shaders, 2)
	ps, vs := obj.Shaders[0], obj.Shaders[1]
	assert.Equal(t, effect.StagePixel, ps.Stage)
	assert.Equal(t, effect.StageVertex, vs.Stage)

	for _, sd := range obj.Shaders {
		require.GreaterOrEqual(t, len(sd.Bytecode), 4)
		assert.Equal(t, uint32(0x07230203), binary.LittleEndian.Uint32(sd.Bytecode))
		assert.NotEmpty(t, sd.StrippedBytecode)
		assert.LessOrEqual(t, len(sd.StrippedBytecode), len(sd.Bytecode))
	}

	// Both stages use the same uniform block.
	require.Len(t, obj.ConstantBuffers, 1)
	cb := obj.ConstantBuffers[0]
	assert.Equal(t, "params", cb.Name)
	assert.Equal(t, 80, cb.Size)
	require.Len(t, cb.Parameters, 2)
	assert.Equal(t, "world", cb.Parameters[0].Name)
	assert.Equal(t, effect.ClassMatrixColumns, cb.Parameters[0].Class)
	assert.Equal(t, uint8(4), cb.Parameters[0].Rows)
	assert.Equal(t, "tint", cb.Parameters[1].Name)
	assert.Equal(t, effect.ClassVector, cb.Parameters[1].Class)
	assert.Equal(t, []int{0, 64}, cb.ParameterOffset)
	assert.Equal(t, []int{0}, ps.ConstantBuffers)
	assert.Equal(t, []int{0}, vs.ConstantBuffers)

	require.Len(t, ps.Samplers, 1)
	s := ps.Samplers[0]
	assert.Equal(t, effect.Sampler2D, s.Type)
	assert.Equal(t, "diffuseSampler", s.SamplerName)
	assert.Equal(t, "DiffuseTexture", s.ParameterName)
	require.NotNil(t, s.State)
	assert.Equal(t, gputypes.FilterModeNearest, s.State.MinFilter)
	assert.Empty(t, vs.Samplers)

	idx := obj.ParameterIndex("DiffuseTexture")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, effect.ClassObject, obj.Parameters[idx].Class)
	assert.Equal(t, effect.TypeTexture2D, obj.Parameters[idx].Type)
	assert.Equal(t, idx, s.Parameter)

	require.Len(t, vs.Attributes, 2)
	assert.Equal(t, effect.Attribute{Name: "position", Usage: effect.UsagePosition, Location: 0}, vs.Attributes[0])
	assert.Equal(t, effect.Attribute{Name: "texcoord0", Usage: effect.UsageTextureCoordinate, Location: 1}, vs.Attributes[1])
	assert.Empty(t, ps.Attributes)
}

func TestCompileGLSLCombinedSamplers(t *testing.T) {
	info := parse(t, "textured.fx", texturedEffect)
	obj, _, err := effect.Compile(info, NewGLSL(), effect.Options{})
	require.NoError(t, err)
	require.Len(t, obj.Shaders, 2)

	ps := obj.Shaders[0]
	assert.Contains(t, string(ps.Bytecode), "#version 330")
	require.Len(t, ps.Samplers, 1)
	assert.Contains(t, ps.Samplers[0].SamplerName, "diffuseSampler")
	assert.Equal(t, "DiffuseTexture", ps.Samplers[0].ParameterName)
}

func TestCompileIsDeterministic(t *testing.T) {
	info := parse(t, "textured.fx", texturedEffect)
	var outputs [][]byte
	for range 2 {
		obj, _, err := effect.Compile(info, NewSPIRV(), effect.Options{})
		require.NoError(t, err)
		data, err := effect.Marshal(obj, effect.WriteOptions{FormatID: FormatSPIRV})
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestCompileMissingEntryPoint(t *testing.T) {
	src := strings.Replace(texturedEffect, "compile ps_3_0 ps_main()", "compile ps_3_0 missing_main()", 1)
	info := parse(t, "textured.fx", src)
	_, _, err := effect.Compile(info, NewSPIRV(), effect.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrCompile))
	assert.Contains(t, err.Error(), "missing_main")
}

func TestCompileWrongStage(t *testing.T) {
	src := strings.Replace(texturedEffect, "compile ps_3_0 ps_main()", "compile ps_3_0 vs_main()", 1)
	info := parse(t, "textured.fx", src)
	_, _, err := effect.Compile(info, NewSPIRV(), effect.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrCompile))
	assert.Contains(t, err.Error(), "not a pixel shader")
}

func TestCompileSyntaxErrorPosition(t *testing.T) {
	src := "@fragment\nfn ps_main() -> @location(0) vec4<f32> {\n    return vec4<f32>(1.0) +;\n}\n" +
		"technique T { pass P { PixelShader = compile ps_3_0 ps_main(); } }\n"
	info := parse(t, "broken.fx", src)
	_, _, err := effect.Compile(info, NewSPIRV(), effect.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrCompile))

	var be *diag.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "broken.fx", be.Pos.File)
	assert.Positive(t, be.Pos.Line)
}

func TestCompileResolvesPreprocessedLines(t *testing.T) {
	src := "@fragment\nfn ps_main() -> @location(0) vec4<f32> {\n    return vec4<f32>(1.0) +;\n}\n" +
		"technique T { pass P { PixelShader = compile ps_3_0 ps_main(); } }\n"
	info := parse(t, "main.fx", src)
	ctx := effect.NewLinkContext(info, false, nil)
	ctx.Resolve = func(line int) diag.Position { return diag.Position{File: "include.fxh", Line: line + 100} }

	_, err := NewSPIRV().CreateShader(ctx, "ps_main", "ps_3_0", effect.StagePixel)
	require.Error(t, err)
	var be *diag.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "include.fxh", be.Pos.File)
	assert.Greater(t, be.Pos.Line, 100)
}
