// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
platform = "opengl"
debug = true
defines = ["QUALITY=2", "SHADOWS"]
output = "out/Basic.mgfx"
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, buildConfig{
		Platform: "opengl",
		Debug:    true,
		Defines:  []string{"QUALITY=2", "SHADOWS"},
		Output:   "out/Basic.mgfx",
	}, cfg)
	assert.Equal(t, "QUALITY=2;SHADOWS", cfg.defineString())
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	var cfg buildConfig
	err := parseConfig([]byte(`platfrom = "opengl"`), &cfg)
	assert.Error(t, err)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "none.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeFlagsOverConfig(t *testing.T) {
	cfg := buildConfig{Platform: "opengl", Debug: true, Defines: []string{"A"}, Output: "a.mgfx"}

	kept := cfg.merge(map[string]bool{}, "vulkan", false, nil, "")
	assert.Equal(t, "opengl", kept.Platform)
	assert.True(t, kept.Debug)
	assert.Equal(t, "a.mgfx", kept.Output)

	over := cfg.merge(map[string]bool{"platform": true, "debug": true, "o": true}, "directx", false, []string{"B=1"}, "b.mgfx")
	assert.Equal(t, "directx", over.Platform)
	assert.False(t, over.Debug)
	assert.Equal(t, []string{"A", "B=1"}, over.Defines)
	assert.Equal(t, "b.mgfx", over.Output)

	defaults := buildConfig{}.merge(map[string]bool{}, "vulkan", false, nil, "")
	assert.Equal(t, "vulkan", defaults.Platform)
}

func TestDefineList(t *testing.T) {
	var d defineList
	require.NoError(t, d.Set("A=1"))
	require.NoError(t, d.Set("B"))
	assert.Error(t, d.Set("  "))
	assert.Equal(t, "A=1;B", d.String())
}
