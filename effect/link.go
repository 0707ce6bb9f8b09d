// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/fx"
)

// Options configures Compile.
type Options struct {
	// Debug keeps unstripped bytecode in the output.
	Debug bool

	// Resolve maps clean source lines to their original file and line.
	Resolve func(line int) diag.Position

	Logger *slog.Logger
}

// Compile links a parsed effect. Techniques and passes are walked in
// declaration order, pixel shader before vertex shader, so identical input
// always yields identical tables.
func Compile(info *fx.ShaderInfo, profile ShaderProfile, opts Options) (*Object, []diag.Message, error) {
	if len(info.Techniques) == 0 {
		return nil, nil, diag.NewBuildError(diag.KindLink, info.File, diag.Position{File: info.File},
			fx.ErrNoTechniques, "%v", fx.ErrNoTechniques)
	}

	ctx := NewLinkContext(info, opts.Debug, opts.Logger)
	ctx.Resolve = opts.Resolve
	obj := ctx.Object

	for _, t := range info.Techniques {
		tech := &Technique{Name: t.Name}
		for _, p := range t.Passes {
			pass, err := linkPass(ctx, profile, p)
			if err != nil {
				return nil, ctx.Warnings, diag.AsBuildError(diag.KindLink, info.File, err)
			}
			tech.Passes = append(tech.Passes, pass)
		}
		obj.Techniques = append(obj.Techniques, tech)
	}

	if err := buildParameterTable(obj); err != nil {
		return nil, ctx.Warnings, diag.NewBuildError(diag.KindLink, info.File, diag.Position{File: info.File},
			err, "%v", err)
	}
	bindSamplers(obj)

	ctx.Logger.Debug("effect linked",
		"source", info.File,
		"profile", profile.Name(),
		"techniques", len(obj.Techniques),
		"shaders", len(obj.Shaders),
		"constantBuffers", len(obj.ConstantBuffers),
		"parameters", len(obj.Parameters))

	return obj, ctx.Warnings, nil
}

func linkPass(ctx *LinkContext, profile ShaderProfile, p *fx.Pass) (*Pass, error) {
	if p.VertexExpression != "" || p.PixelExpression != "" {
		expr := p.PixelExpression
		if expr == "" {
			expr = p.VertexExpression
		}
		return nil, diag.NewBuildError(diag.KindLink, ctx.Info.File, p.Pos, diag.ErrNotSupported,
			"shader state expression %q is not supported", expr)
	}
	if err := profile.ValidateShaderModels(p); err != nil {
		return nil, diag.NewBuildError(diag.KindLink, ctx.Info.File, p.Pos, err, "%v", err)
	}

	pass := &Pass{
		Name:         p.Name,
		VertexShader: -1,
		PixelShader:  -1,
		Blend:        p.BlendState,
		DepthStencil: p.DepthStencilState,
		Rasterizer:   p.RasterizerState,
	}

	if p.HasPixelShader() {
		sd, err := compileShader(ctx, profile, p.PixelFunction, p.PixelModel, StagePixel)
		if err != nil {
			return nil, err
		}
		pass.PixelShader = sd.SharedIndex
		pass.States = append(pass.States, PassState{
			Operation: OperationPixelShader,
			Type:      StateConstant,
			Index:     sd.SharedIndex,
		})
	}
	if p.HasVertexShader() {
		sd, err := compileShader(ctx, profile, p.VertexFunction, p.VertexModel, StageVertex)
		if err != nil {
			return nil, err
		}
		pass.VertexShader = sd.SharedIndex
		pass.States = append(pass.States, PassState{
			Operation: OperationVertexShader,
			Type:      StateConstant,
			Index:     sd.SharedIndex,
		})
	}
	return pass, nil
}

func compileShader(ctx *LinkContext, profile ShaderProfile, function, model string, stage Stage) (*ShaderData, error) {
	sd, err := profile.CreateShader(ctx, function, model, stage)
	if err != nil {
		return nil, err
	}
	sd.Stage = stage
	shared := ctx.InternShader(sd)
	if shared != sd {
		ctx.Logger.Debug("shader reused", "function", function, "stage", stage, "index", shared.SharedIndex)
	}
	return shared, nil
}

// buildParameterTable merges every constant buffer parameter into the flat
// table. The first declaration of a name wins; later ones must agree on
// shape.
func buildParameterTable(obj *Object) error {
	for _, cb := range obj.ConstantBuffers {
		cb.ParameterIndex = make([]int, len(cb.Parameters))
		for i, p := range cb.Parameters {
			idx := obj.ParameterIndex(p.Name)
			if idx < 0 {
				obj.Parameters = append(obj.Parameters, p)
				idx = len(obj.Parameters) - 1
			} else if prev := obj.Parameters[idx]; !prev.SameShape(p) {
				return fmt.Errorf("%w: parameter %q redeclared in constant buffer %q with a different type (%s %s %dx%d[%d], was %s %s %dx%d[%d])",
					diag.ErrNotSupported, p.Name, cb.Name,
					p.Class, p.Type, p.Rows, p.Columns, p.ElementCount(),
					prev.Class, prev.Type, prev.Rows, prev.Columns, prev.ElementCount())
			}
			cb.ParameterIndex[i] = idx
		}
	}
	return nil
}

// bindSamplers points every reflected sampler at its texture parameter,
// adding an object parameter for textures not seen before.
func bindSamplers(obj *Object) {
	for _, sd := range obj.Shaders {
		for i := range sd.Samplers {
			s := &sd.Samplers[i]
			idx := obj.ParameterIndex(s.ParameterName)
			if idx < 0 {
				obj.Parameters = append(obj.Parameters, &Parameter{
					Name:  s.ParameterName,
					Class: ClassObject,
					Type:  s.Type.ParameterType(),
				})
				idx = len(obj.Parameters) - 1
			}
			s.Parameter = idx
		}
	}
}
