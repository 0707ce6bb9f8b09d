// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command fxdis prints the contents of a compiled binary effect.
//
// Usage:
//
//	fxdis [options] <file.mgfx>
//
// Examples:
//
//	fxdis Basic.mgfx                  # Tables, shaders and techniques
//	fxdis -shader 0 Basic.mgfx > vs.spv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/profile"
)

var shader = flag.Int("shader", -1, "write the bytecode of shader N to stdout")

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	obj, h, err := effect.Read(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *shader >= 0 {
		if *shader >= len(obj.Shaders) {
			fmt.Fprintf(os.Stderr, "Error: shader %d of %d\n", *shader, len(obj.Shaders))
			os.Exit(1)
		}
		if _, err := os.Stdout.Write(obj.Shaders[*shader].Bytecode); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("; effect v%d profile %d key %#08x\n", h.Version, h.FormatID, uint32(h.Key))
	if h.FormatID == profile.FormatSPIRV {
		for i, sd := range obj.Shaders {
			fmt.Printf("; shader %d: %s\n", i, describeSPIRV(sd.Bytecode))
		}
	}
	fmt.Println()
	fmt.Print(effect.Listing(obj))
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: fxdis [options] <file.mgfx>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}
