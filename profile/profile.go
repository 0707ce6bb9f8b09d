// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package profile provides the shader profiles an effect is compiled with.
//
// Every profile shares one WGSL front end (parse, lower, validate) and
// differs only in the naga backend that produces the final program:
//
//	SPIRV  Vulkan, Linux, Android
//	GLSL   OpenGL, DesktopGL, WebGL (GLSL ES)
//	HLSL   DirectX, Windows, Xbox
//	MSL    Metal, macOS, iOS
//
// A profile is chosen once per build with [ForPlatform].
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
)

// Format identifiers written into the effect header.
const (
	FormatGLSL  uint8 = 0
	FormatHLSL  uint8 = 1
	FormatSPIRV uint8 = 2
	FormatMSL   uint8 = 3
)

var platforms = map[string]func() effect.ShaderProfile{
	"vulkan":    func() effect.ShaderProfile { return NewSPIRV() },
	"linux":     func() effect.ShaderProfile { return NewSPIRV() },
	"android":   func() effect.ShaderProfile { return NewSPIRV() },
	"opengl":    func() effect.ShaderProfile { return NewGLSL() },
	"desktopgl": func() effect.ShaderProfile { return NewGLSL() },
	"webgl":     func() effect.ShaderProfile { return NewGLSLES() },
	"directx":   func() effect.ShaderProfile { return NewHLSL() },
	"windows":   func() effect.ShaderProfile { return NewHLSL() },
	"xbox":      func() effect.ShaderProfile { return NewHLSL() },
	"metal":     func() effect.ShaderProfile { return NewMSL() },
	"macos":     func() effect.ShaderProfile { return NewMSL() },
	"ios":       func() effect.ShaderProfile { return NewMSL() },
}

// ForPlatform returns a new profile for a target platform tag. Tags are
// case-insensitive; profile names ("spirv", "glsl", "glsles", "hlsl",
// "msl") are accepted as well.
func ForPlatform(platform string) (effect.ShaderProfile, error) {
	tag := strings.ToLower(strings.TrimSpace(platform))
	if mk, ok := platforms[tag]; ok {
		return mk(), nil
	}
	for _, p := range All() {
		if p.Name() == tag {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no shader profile for platform %q (known: %s)",
		diag.ErrNotSupported, platform, strings.Join(Platforms(), ", "))
}

// All returns one instance of every profile.
func All() []effect.ShaderProfile {
	return []effect.ShaderProfile{NewSPIRV(), NewGLSL(), NewGLSLES(), NewHLSL(), NewMSL()}
}

// Platforms lists the known platform tags in sorted order.
func Platforms() []string {
	tags := make([]string, 0, len(platforms))
	for tag := range platforms {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
