// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/fx"
)

// Model is a parsed shader model such as vs_3_0 or ps_4_0_level_9_1.
type Model struct {
	Stage effect.Stage
	Major int
	Minor int

	// Level is the feature level suffix ("9_1"), empty when absent.
	Level string
}

// String formats the model the way it is written in effect source.
func (m Model) String() string {
	prefix := "ps"
	if m.Stage == effect.StageVertex {
		prefix = "vs"
	}
	s := fmt.Sprintf("%s_%d_%d", prefix, m.Major, m.Minor)
	if m.Level != "" {
		s += "_level_" + m.Level
	}
	return s
}

// ParseModel parses a shader model name.
func ParseModel(name string) (Model, error) {
	var m Model
	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) < 3 {
		return m, fmt.Errorf("malformed shader model %q", name)
	}
	switch parts[0] {
	case "vs":
		m.Stage = effect.StageVertex
	case "ps":
		m.Stage = effect.StagePixel
	default:
		return m, fmt.Errorf("unknown shader model stage %q in %q", parts[0], name)
	}

	var err error
	if m.Major, err = strconv.Atoi(parts[1]); err != nil {
		return m, fmt.Errorf("malformed shader model %q", name)
	}
	if m.Minor, err = strconv.Atoi(parts[2]); err != nil {
		return m, fmt.Errorf("malformed shader model %q", name)
	}
	if len(parts) > 3 {
		if parts[3] != "level" || len(parts) < 5 {
			return m, fmt.Errorf("malformed shader model %q", name)
		}
		m.Level = strings.Join(parts[4:], "_")
	}
	return m, nil
}

// modelRange bounds the major versions a profile accepts.
type modelRange struct {
	min, max int
}

func (r modelRange) check(name string, want effect.Stage) (Model, error) {
	m, err := ParseModel(name)
	if err != nil {
		return m, fmt.Errorf("%w: %v", diag.ErrNotSupported, err)
	}
	if m.Stage != want {
		return m, fmt.Errorf("%w: %s shader model %q used for the %s stage",
			diag.ErrNotSupported, m.Stage, name, want)
	}
	if m.Major < r.min || m.Major > r.max {
		return m, fmt.Errorf("%w: shader model %q is outside %d..%d for this profile",
			diag.ErrNotSupported, name, r.min, r.max)
	}
	return m, nil
}

func (r modelRange) validate(pass *fx.Pass) error {
	if pass.HasVertexShader() {
		if _, err := r.check(pass.VertexModel, effect.StageVertex); err != nil {
			return fmt.Errorf("pass %q: %w", pass.Name, err)
		}
	}
	if pass.HasPixelShader() {
		if _, err := r.check(pass.PixelModel, effect.StagePixel); err != nil {
			return fmt.Errorf("pass %q: %w", pass.Name, err)
		}
	}
	return nil
}
