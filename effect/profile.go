// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"bytes"
	"log/slog"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/fx"
	"github.com/gogpu/contentcore/internal/logging"
)

// ShaderProfile compiles shaders for one target backend.
type ShaderProfile interface {
	// Name is the profile name used in options and logs.
	Name() string

	// FormatID is written into the effect header.
	FormatID() uint8

	// Supports reports whether the profile builds for a platform tag.
	Supports(platform string) bool

	// AddMacros adds the profile's predefined macros.
	AddMacros(defines map[string]string)

	// ValidateShaderModels rejects passes whose models the backend cannot
	// compile.
	ValidateShaderModels(pass *fx.Pass) error

	// CreateShader compiles function for stage and returns the shader with
	// its reflection data. Constant buffers are interned through ctx.
	CreateShader(ctx *LinkContext, function, model string, stage Stage) (*ShaderData, error)
}

// LinkContext is the shared state of one effect link. Profiles add
// constant buffers and warnings to it; the linker adds shaders.
type LinkContext struct {
	Info   *fx.ShaderInfo
	Object *Object
	Debug  bool
	Logger *slog.Logger

	// Resolve maps a line of the clean source back to where it came from
	// before preprocessing. Nil keeps lines as they are.
	Resolve func(line int) diag.Position

	Warnings []diag.Message
}

// NewLinkContext returns a context over an empty effect object.
func NewLinkContext(info *fx.ShaderInfo, debug bool, logger *slog.Logger) *LinkContext {
	return &LinkContext{
		Info:   info,
		Object: &Object{},
		Debug:  debug,
		Logger: logging.Or(logger),
	}
}

// InternConstantBuffer returns the index of a buffer equal to cb, adding
// cb when none exists.
func (ctx *LinkContext) InternConstantBuffer(cb *ConstantBufferData) int {
	for i, existing := range ctx.Object.ConstantBuffers {
		if existing.SameAs(cb) {
			return i
		}
	}
	ctx.Object.ConstantBuffers = append(ctx.Object.ConstantBuffers, cb)
	return len(ctx.Object.ConstantBuffers) - 1
}

// InternShader returns the stored shader with the same bytecode as sd, or
// stores sd. The returned shader's SharedIndex is its table position.
func (ctx *LinkContext) InternShader(sd *ShaderData) *ShaderData {
	for _, existing := range ctx.Object.Shaders {
		if existing.Stage == sd.Stage && bytes.Equal(existing.Bytecode, sd.Bytecode) {
			return existing
		}
	}
	sd.SharedIndex = len(ctx.Object.Shaders)
	ctx.Object.Shaders = append(ctx.Object.Shaders, sd)
	return sd
}

// Position returns the original location of a clean source line.
func (ctx *LinkContext) Position(line, column int) diag.Position {
	if ctx.Resolve != nil && line > 0 {
		pos := ctx.Resolve(line)
		if pos.File != "" {
			pos.Column = column
			return pos
		}
	}
	return diag.Position{File: ctx.Info.File, Line: line, Column: column}
}

// AddWarnings records compiler warnings.
func (ctx *LinkContext) AddWarnings(msgs ...diag.Message) {
	ctx.Warnings = append(ctx.Warnings, msgs...)
}
