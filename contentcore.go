// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package contentcore builds game content: effect files are compiled into
// a portable binary effect, and XACT audio projects are played back by the
// xact package.
//
// Example usage:
//
//	src, _ := os.ReadFile("Basic.fx")
//	res, err := contentcore.BuildEffect("Basic.fx", src, contentcore.Options{
//	    Platform: "vulkan",
//	    FS:       os.DirFS("."),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("Basic.mgfx", res.Data, 0o644)
//
// The build pipeline is:
//  1. Preprocess macros and includes
//  2. Parse techniques, passes and sampler states
//  3. Compile every referenced shader with the platform profile
//  4. Link shaders, constant buffers and parameters into one effect
//  5. Serialize the effect
package contentcore

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/fx"
	"github.com/gogpu/contentcore/internal/logging"
	"github.com/gogpu/contentcore/preprocess"
	"github.com/gogpu/contentcore/profile"
)

// Options configures an effect build.
type Options struct {
	// Platform selects the shader profile (default: vulkan).
	Platform string

	// Profile overrides Platform when set.
	Profile effect.ShaderProfile

	// Debug keeps debug bytecode and writes a listing next to OutputFile.
	Debug bool

	// Defines are extra macros in "NAME=VALUE;NAME2" form.
	Defines string

	// OutputFile is the path the caller writes Data to. It names the
	// debug listing.
	OutputFile string

	// FS resolves #include directives.
	FS fs.FS

	// Logger receives warnings. Nil uses the package logger.
	Logger *slog.Logger
}

// DefaultOptions returns release options for the Vulkan profile.
func DefaultOptions() Options {
	return Options{Platform: "vulkan"}
}

// EffectResult is a successful effect build.
type EffectResult struct {
	// Data is the serialized effect.
	Data []byte

	// Object is the linked effect Data was written from.
	Object *effect.Object

	// AdditionalOutputs lists files written besides Data.
	AdditionalOutputs []string

	// Dependencies lists every included file.
	Dependencies []string

	Warnings []diag.Message
}

// BuildEffect compiles one effect source. identity names the source in
// diagnostics, usually its path. Failures are *diag.BuildError values.
func BuildEffect(identity string, source []byte, opts Options) (*EffectResult, error) {
	log := logging.Or(opts.Logger)

	prof := opts.Profile
	if prof == nil {
		platform := opts.Platform
		if platform == "" {
			platform = DefaultOptions().Platform
		}
		p, err := profile.ForPlatform(platform)
		if err != nil {
			return nil, diag.NewBuildError(diag.KindCompile, identity, diag.Position{File: identity}, err, "%v", err)
		}
		prof = p
	}

	defines := preprocess.ParseDefines(opts.Defines)
	prof.AddMacros(defines)
	if opts.Debug {
		if _, ok := defines["DEBUG"]; !ok {
			defines["DEBUG"] = "1"
		}
	}

	pre, err := preprocess.New(preprocess.Options{Defines: defines, FS: opts.FS}).Process(identity, string(source))
	if err != nil {
		return nil, diag.AsBuildError(diag.KindParse, identity, err)
	}

	info, err := fx.Parse(identity, pre.Text)
	if err != nil {
		return nil, parseFailure(identity, pre.Lines, err)
	}

	resolve := func(line int) diag.Position { return pre.Lines.Lookup(line) }
	obj, warnings, err := effect.Compile(info, prof, effect.Options{
		Debug:   opts.Debug,
		Resolve: resolve,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	data, err := effect.Marshal(obj, effect.WriteOptions{
		FormatID: prof.FormatID(),
		Debug:    opts.Debug,
		Source:   identity,
	})
	if err != nil {
		return nil, err
	}

	res := &EffectResult{
		Data:         data,
		Object:       obj,
		Dependencies: pre.Dependencies,
		Warnings:     warnings,
	}
	if opts.Debug && opts.OutputFile != "" {
		listing := opts.OutputFile + ".lst"
		if err := os.WriteFile(listing, []byte(effect.Listing(obj)), 0o644); err != nil {
			return nil, diag.NewBuildError(diag.KindIO, identity, diag.Position{File: identity}, err,
				"writing listing: %v", err)
		}
		res.AdditionalOutputs = append(res.AdditionalOutputs, listing)
	}

	log.Info("effect built",
		"source", identity,
		"profile", prof.Name(),
		"bytes", len(data),
		"warnings", len(warnings))
	return res, nil
}

// parseFailure maps grammar errors from preprocessed lines back to the
// files they were written in.
func parseFailure(identity string, lines preprocess.LineMap, err error) error {
	var errs fx.SourceErrors
	if !errors.As(err, &errs) {
		return diag.AsBuildError(diag.KindParse, identity, err)
	}
	for _, e := range errs {
		if pos := lines.Lookup(e.Pos.Line); pos.File != "" {
			pos.Column = e.Pos.Column
			e.Pos = pos
		}
	}
	return errs.BuildError(identity)
}
