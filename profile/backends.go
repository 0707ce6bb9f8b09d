// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import (
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"
)

// SPIRV compiles to SPIR-V binaries for Vulkan.
type SPIRV struct {
	backend
}

// NewSPIRV returns the SPIR-V profile.
func NewSPIRV() *SPIRV {
	p := &SPIRV{}
	p.backend = backend{
		name:      "spirv",
		format:    FormatSPIRV,
		platforms: []string{"vulkan", "linux", "android"},
		macros:    map[string]string{"SPIRV": "1", "VULKAN": "1"},
		models:    modelRange{min: 2, max: 6},
		binary:    true,
		generate:  generateSPIRV,
	}
	return p
}

func generateSPIRV(m *ir.Module, _ *ir.EntryPoint, _ Model, debug bool) (output, error) {
	opts := spirv.DefaultOptions()
	opts.Version = spirv.Version1_3
	opts.Debug = debug
	code, err := naga.GenerateSPIRV(m, opts)
	if err != nil {
		return output{}, err
	}
	return output{code: code}, nil
}

// GLSL cross-compiles to GLSL source. Texture and sampler pairs are merged
// into combined sampler uniforms.
type GLSL struct {
	backend
	version glsl.Version
}

// NewGLSL returns the desktop OpenGL profile (GLSL 3.30).
func NewGLSL() *GLSL {
	return newGLSL("glsl", glsl.Version330, []string{"opengl", "desktopgl"})
}

// NewGLSLES returns the WebGL 2 profile (GLSL ES 3.00).
func NewGLSLES() *GLSL {
	return newGLSL("glsles", glsl.VersionES300, []string{"webgl"})
}

func newGLSL(name string, version glsl.Version, platforms []string) *GLSL {
	p := &GLSL{version: version}
	p.backend = backend{
		name:      name,
		format:    FormatGLSL,
		platforms: platforms,
		macros:    map[string]string{"GLSL": "1", "OPENGL": "1"},
		models:    modelRange{min: 2, max: 3},
		generate:  p.generateGLSL,
	}
	if version.ES {
		p.macros["GLSL_ES"] = "1"
	}
	return p
}

func (p *GLSL) generateGLSL(m *ir.Module, ep *ir.EntryPoint, _ Model, _ bool) (output, error) {
	opts := glsl.DefaultOptions()
	opts.LangVersion = p.version
	opts.EntryPoint = ep.Name
	src, info, err := glsl.Compile(m, opts)
	if err != nil {
		return output{}, err
	}
	return output{code: []byte(src), combined: info.TextureSamplerPairs}, nil
}

// HLSL cross-compiles to HLSL source for DirectX.
type HLSL struct {
	backend
}

// NewHLSL returns the DirectX profile.
func NewHLSL() *HLSL {
	p := &HLSL{}
	p.backend = backend{
		name:      "hlsl",
		format:    FormatHLSL,
		platforms: []string{"directx", "windows", "xbox"},
		macros:    map[string]string{"HLSL": "1", "DIRECTX": "1", "SM4": "1"},
		models:    modelRange{min: 4, max: 6},
		generate:  generateHLSL,
	}
	return p
}

// hlslShaderModel maps an effect model onto the closest model the backend
// emits. Models below 5.0 are raised to 5.0.
func hlslShaderModel(m Model) hlsl.ShaderModel {
	switch {
	case m.Major <= 4:
		return hlsl.ShaderModel5_0
	case m.Major == 5 && m.Minor == 0:
		return hlsl.ShaderModel5_0
	case m.Major == 5:
		return hlsl.ShaderModel5_1
	default:
		minor := min(m.Minor, int(hlsl.ShaderModel6_7-hlsl.ShaderModel6_0))
		return hlsl.ShaderModel6_0 + hlsl.ShaderModel(minor)
	}
}

func generateHLSL(m *ir.Module, ep *ir.EntryPoint, model Model, _ bool) (output, error) {
	opts := hlsl.DefaultOptions()
	opts.ShaderModel = hlslShaderModel(model)
	opts.EntryPoint = ep.Name
	opts.FakeMissingBindings = true
	src, _, err := hlsl.Compile(m, opts)
	if err != nil {
		return output{}, err
	}
	return output{code: []byte(src)}, nil
}

// MSL cross-compiles to Metal Shading Language.
type MSL struct {
	backend
}

// NewMSL returns the Metal profile.
func NewMSL() *MSL {
	p := &MSL{}
	p.backend = backend{
		name:      "msl",
		format:    FormatMSL,
		platforms: []string{"metal", "macos", "ios"},
		macros:    map[string]string{"METAL": "1", "MSL": "1"},
		models:    modelRange{min: 2, max: 6},
		generate:  generateMSL,
	}
	return p
}

func generateMSL(m *ir.Module, ep *ir.EntryPoint, _ Model, _ bool) (output, error) {
	src, _, err := msl.CompileWithPipeline(m, msl.DefaultOptions(), msl.PipelineOptions{
		EntryPoint: &msl.EntryPointSelector{Stage: ep.Stage, Name: ep.Name},
	})
	if err != nil {
		return output{}, err
	}
	return output{code: []byte(src)}, nil
}
