// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command fxc compiles an effect file into a binary effect.
//
// Usage:
//
//	fxc [options] <input.fx>
//
// Examples:
//
//	fxc Basic.fx                            # Compile for Vulkan to Basic.mgfx
//	fxc -platform opengl -o gl.mgfx Basic.fx
//	fxc -D QUALITY=2 -D SHADOWS Basic.fx    # Extra macros
//	fxc -config build.toml Basic.fx         # Options from a build file
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/contentcore"
	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/profile"
)

var (
	output      = flag.String("o", "", "output file (default: input with .mgfx extension)")
	platform    = flag.String("platform", "vulkan", "target platform: "+strings.Join(profile.Platforms(), ", "))
	debug       = flag.Bool("debug", false, "keep debug info and write a listing")
	config      = flag.String("config", "", "TOML build file")
	verify      = flag.Bool("verify", false, "read the written effect back and print a summary")
	verbose     = flag.Bool("v", false, "log build details to stderr")
	showVersion = flag.Bool("version", false, "print version")
	defines     defineList
)

const fxcVersion = "0.1.0-dev"

func main() {
	flag.Var(&defines, "D", "define a macro, NAME or NAME=VALUE (repeatable)")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("fxc version %s\n", fxcVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}
	inputPath := args[0]

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	contentcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cfg buildConfig
	if *config != "" {
		var err error
		cfg, err = loadConfig(*config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
			os.Exit(1)
		}
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	cfg = cfg.merge(set, *platform, *debug, defines, *output)
	if cfg.Output == "" {
		cfg.Output = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".mgfx"
	}
	includeDir := cfg.Include
	if includeDir == "" {
		includeDir = filepath.Dir(inputPath)
	}

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	res, err := contentcore.BuildEffect(filepath.Base(inputPath), source, contentcore.Options{
		Platform:   cfg.Platform,
		Debug:      cfg.Debug,
		Defines:    cfg.defineString(),
		OutputFile: cfg.Output,
		FS:         os.DirFS(includeDir),
	})
	if err != nil {
		report(err)
		os.Exit(1)
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}

	if err := os.WriteFile(cfg.Output, res.Data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Compiled %s to %s (%d bytes)\n", inputPath, cfg.Output, len(res.Data))
	for _, extra := range res.AdditionalOutputs {
		fmt.Printf("  wrote %s\n", extra)
	}

	if *verify {
		obj, h, err := effect.Read(res.Data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
			os.Exit(1)
		}
		summarize(obj, h)
	}
}

// report prints a build failure with its category.
func report(err error) {
	var be *diag.BuildError
	if errors.As(err, &be) {
		fmt.Fprintf(os.Stderr, "%s\n", be.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
}

func summarize(obj *effect.Object, h effect.Header) {
	fmt.Printf("effect v%d profile %d key %#08x\n", h.Version, h.FormatID, uint32(h.Key))
	fmt.Printf("  %d constant buffers, %d shaders, %d parameters\n",
		len(obj.ConstantBuffers), len(obj.Shaders), len(obj.Parameters))
	for _, t := range obj.Techniques {
		fmt.Printf("  technique %s\n", t.Name)
		for _, p := range t.Passes {
			fmt.Printf("    pass %s (vs %d, ps %d)\n", p.Name, p.VertexShader, p.PixelShader)
		}
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: fxc [options] <input.fx>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  fxc Basic.fx                          Compile for Vulkan\n")
	fmt.Fprintf(os.Stderr, "  fxc -platform opengl -o gl.mgfx Basic.fx\n")
	fmt.Fprintf(os.Stderr, "  fxc -config build.toml Basic.fx       Read options from a build file\n")
}
