// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command xactdump prints the contents of XACT audio banks as YAML.
//
// Usage:
//
//	xactdump -settings <file.xgs> [-wave <file.xwb>]... [-sound <file.xsb>]
//
// Examples:
//
//	xactdump -settings Game.xgs
//	xactdump -settings Game.xgs -wave Waves.xwb -sound Sounds.xsb
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/contentcore"
	"github.com/gogpu/contentcore/xact"
)

// fileList collects repeated -wave flags.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

var (
	settings = flag.String("settings", "", "settings bank (.xgs), required")
	sound    = flag.String("sound", "", "sound bank (.xsb)")
	verbose  = flag.Bool("v", false, "log parser details to stderr")
	waves    fileList
)

func main() {
	flag.Var(&waves, "wave", "wave bank (.xwb), repeatable")
	flag.Usage = usage
	flag.Parse()

	if *settings == "" {
		fmt.Fprintln(os.Stderr, "Error: -settings is required")
		usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	contentcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	e, err := xact.OpenEngine(*settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	r := report{Settings: dumpEngine(e)}
	for _, name := range waves {
		wb, err := e.OpenWaveBank(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		r.WaveBanks = append(r.WaveBanks, dumpWaveBank(wb))
	}
	if *sound != "" {
		sb, err := e.OpenSoundBank(*sound)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		r.SoundBank = dumpSoundBank(sb)
	}

	if err := writeYAML(os.Stdout, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: xactdump -settings <file.xgs> [-wave <file.xwb>]... [-sound <file.xsb>]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}
