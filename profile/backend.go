// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/fx"
)

// output is one backend compile result.
type output struct {
	code []byte

	// combined lists merged texture-sampler uniform names.
	combined []string
}

// generateFunc compiles the single entry point of m.
type generateFunc func(m *ir.Module, ep *ir.EntryPoint, model Model, debug bool) (output, error)

// backend implements effect.ShaderProfile on top of the shared front end.
// Concrete profiles embed it and supply the generator.
type backend struct {
	name      string
	format    uint8
	platforms []string
	macros    map[string]string
	models    modelRange

	// binary backends rebuild without debug info for the stripped
	// program; text backends strip comments instead.
	binary   bool
	generate generateFunc

	front    frontEnd
	reported *effect.LinkContext
}

// Name implements effect.ShaderProfile.
func (b *backend) Name() string { return b.name }

// FormatID implements effect.ShaderProfile.
func (b *backend) FormatID() uint8 { return b.format }

// Supports implements effect.ShaderProfile.
func (b *backend) Supports(platform string) bool {
	platform = strings.ToLower(platform)
	for _, p := range b.platforms {
		if p == platform {
			return true
		}
	}
	return platform == b.name
}

// AddMacros implements effect.ShaderProfile.
func (b *backend) AddMacros(defines map[string]string) {
	for k, v := range b.macros {
		if _, ok := defines[k]; !ok {
			defines[k] = v
		}
	}
}

// ValidateShaderModels implements effect.ShaderProfile.
func (b *backend) ValidateShaderModels(pass *fx.Pass) error {
	return b.models.validate(pass)
}

// CreateShader implements effect.ShaderProfile.
func (b *backend) CreateShader(ctx *effect.LinkContext, function, model string, stage effect.Stage) (*effect.ShaderData, error) {
	mdl, err := b.models.check(model, stage)
	if err != nil {
		return nil, diag.NewBuildError(diag.KindCompile, ctx.Info.File, diag.Position{File: ctx.Info.File}, err, "%v", err)
	}

	module, warnings, err := b.front.load(ctx.Info.CleanSource)
	if b.reported != ctx {
		b.reported = ctx
		reportWarnings(ctx, warnings)
	}
	if err != nil {
		return nil, compileFailure(ctx, function, err)
	}

	m, ep, err := selectEntryPoint(module, function, stage)
	if err != nil {
		return nil, compileFailure(ctx, function, err)
	}

	debug, err := b.generate(m, ep, mdl, true)
	if err != nil {
		return nil, compileFailure(ctx, function, err)
	}
	sd := &effect.ShaderData{
		Stage:    stage,
		Bytecode: debug.code,
	}
	if b.binary {
		release, err := b.generate(m, ep, mdl, false)
		if err != nil {
			return nil, compileFailure(ctx, function, err)
		}
		sd.StrippedBytecode = release.code
	} else {
		sd.StrippedBytecode = stripText(debug.code)
	}

	r := reflectEntryPoint(m, ep)
	sd.ConstantBuffers = constantBuffers(ctx, m, r)
	sd.Samplers = samplers(ctx, m, r, debug.combined)
	if stage == effect.StageVertex {
		sd.Attributes = attributes(m, ep)
	}

	ctx.Logger.Debug("shader compiled",
		"profile", b.name,
		"function", function,
		"model", mdl.String(),
		"bytes", len(sd.Bytecode),
		"stripped", len(sd.StrippedBytecode))
	return sd, nil
}

// stripText drops line comments, trailing blanks and empty lines from
// generated source.
func stripText(code []byte) []byte {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(code))
	sc.Buffer(make([]byte, 0, 64*1024), len(code)+1)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
