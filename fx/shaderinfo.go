// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fx

// ShaderInfo is the evaluated form of one effect file.
type ShaderInfo struct {
	// File is the content identity used in diagnostics.
	File string

	// Source is the effect text as handed to the parser. It is never modified.
	Source string

	// CleanSource is Source with every technique block and sampler_state
	// declaration replaced by whitespace. Line and column positions of the
	// remaining shader code are unchanged.
	CleanSource string

	// Techniques in declaration order, with empty techniques pruned.
	Techniques []*Technique

	// SamplerStates maps sampler names to their declared states.
	SamplerStates map[string]*SamplerStateInfo

	// Excluded lists the spans removed from CleanSource.
	Excluded []Span
}

// Technique is a named list of passes.
type Technique struct {
	Name   string
	Passes []*Pass
	Pos    Position
}

// Pass binds shader entry points and fixed-function state.
type Pass struct {
	Name string
	Pos  Position

	VertexFunction string
	VertexModel    string
	PixelFunction  string
	PixelModel     string

	// VertexExpression and PixelExpression hold the text of a shader state
	// assigned from an expression instead of a compile statement. The linker
	// rejects them.
	VertexExpression string
	PixelExpression  string

	BlendState        *BlendState
	DepthStencilState *DepthStencilState
	RasterizerState   *RasterizerState
}

// HasVertexShader reports whether the pass compiles a vertex shader.
func (p *Pass) HasVertexShader() bool { return p.VertexFunction != "" }

// HasPixelShader reports whether the pass compiles a pixel shader.
func (p *Pass) HasPixelShader() bool { return p.PixelFunction != "" }

// SamplerStateInfo is one sampler_state declaration.
type SamplerStateInfo struct {
	Name string
	Pos  Position

	// TextureName is the texture the sampler is bound to, or empty.
	TextureName string

	State *SamplerState
}

// Sampler returns the sampler state for name and whether it was declared.
func (si *ShaderInfo) Sampler(name string) (*SamplerStateInfo, bool) {
	s, ok := si.SamplerStates[name]
	return s, ok
}

// PassCount returns the number of passes over all techniques.
func (si *ShaderInfo) PassCount() int {
	n := 0
	for _, t := range si.Techniques {
		n += len(t.Passes)
	}
	return n
}
