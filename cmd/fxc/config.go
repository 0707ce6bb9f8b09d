// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// buildConfig is the optional build file, for example:
//
//	platform = "opengl"
//	debug = true
//	defines = ["QUALITY=2", "SHADOWS"]
//	output = "out/Basic.mgfx"
type buildConfig struct {
	Platform string   `toml:"platform"`
	Debug    bool     `toml:"debug"`
	Defines  []string `toml:"defines"`
	Output   string   `toml:"output"`
	Include  string   `toml:"include"`
}

func loadConfig(path string) (buildConfig, error) {
	var cfg buildConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := parseConfig(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte, cfg *buildConfig) error {
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// defineList collects repeated -D flags.
type defineList []string

func (d *defineList) String() string { return strings.Join(*d, ";") }

func (d *defineList) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("empty define")
	}
	*d = append(*d, v)
	return nil
}

// merge applies command line values over the build file. set holds the
// names of flags given explicitly.
func (cfg buildConfig) merge(set map[string]bool, platform string, debug bool, defines []string, output string) buildConfig {
	if set["platform"] || cfg.Platform == "" {
		cfg.Platform = platform
	}
	if set["debug"] {
		cfg.Debug = debug
	}
	cfg.Defines = append(cfg.Defines, defines...)
	if set["o"] || cfg.Output == "" {
		cfg.Output = output
	}
	return cfg
}

// defineString joins defines the way the build options expect them.
func (cfg buildConfig) defineString() string {
	return strings.Join(cfg.Defines, ";")
}
