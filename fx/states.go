// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
)

// BlendState is the blend block of a pass.
type BlendState struct {
	ColorSrc  gputypes.BlendFactor
	ColorDst  gputypes.BlendFactor
	ColorOp   gputypes.BlendOperation
	AlphaSrc  gputypes.BlendFactor
	AlphaDst  gputypes.BlendFactor
	AlphaOp   gputypes.BlendOperation
	WriteMask gputypes.ColorWriteMask

	// Factor is the constant blend color as R, G, B, A.
	Factor          [4]uint8
	MultiSampleMask uint32
}

// OpaqueBlend returns the state that overwrites the target.
func OpaqueBlend() *BlendState {
	return &BlendState{
		ColorSrc:        gputypes.BlendFactorOne,
		ColorDst:        gputypes.BlendFactorZero,
		ColorOp:         gputypes.BlendOperationAdd,
		AlphaSrc:        gputypes.BlendFactorOne,
		AlphaDst:        gputypes.BlendFactorZero,
		AlphaOp:         gputypes.BlendOperationAdd,
		WriteMask:       gputypes.ColorWriteMaskAll,
		Factor:          [4]uint8{255, 255, 255, 255},
		MultiSampleMask: math.MaxUint32,
	}
}

// StencilFace holds the stencil test of one face orientation.
type StencilFace struct {
	Compare   gputypes.CompareFunction
	Fail      gputypes.StencilOperation
	DepthFail gputypes.StencilOperation
	Pass      gputypes.StencilOperation
}

// DepthStencilState is the depth/stencil block of a pass.
type DepthStencilState struct {
	DepthEnable   bool
	DepthWrite    bool
	DepthCompare  gputypes.CompareFunction
	StencilEnable bool
	TwoSided      bool
	Front         StencilFace
	Back          StencilFace
	Reference     int32
	ReadMask      uint32
	WriteMask     uint32
}

// DefaultDepthStencil returns the depth-tested, stencil-off state.
func DefaultDepthStencil() *DepthStencilState {
	face := StencilFace{
		Compare:   gputypes.CompareFunctionAlways,
		Fail:      gputypes.StencilOperationKeep,
		DepthFail: gputypes.StencilOperationKeep,
		Pass:      gputypes.StencilOperationKeep,
	}
	return &DepthStencilState{
		DepthEnable:  true,
		DepthWrite:   true,
		DepthCompare: gputypes.CompareFunctionLessEqual,
		Front:        face,
		Back:         face,
		ReadMask:     math.MaxUint32,
		WriteMask:    math.MaxUint32,
	}
}

// FillMode selects solid or wireframe rasterization.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
)

// RasterizerState is the rasterizer block of a pass.
type RasterizerState struct {
	CullMode            gputypes.CullMode
	FrontFace           gputypes.FrontFace
	FillMode            FillMode
	DepthBias           float32
	SlopeScaleDepthBias float32
	ScissorTest         bool
	MultiSample         bool
}

// DefaultRasterizer culls counter-clockwise faces.
func DefaultRasterizer() *RasterizerState {
	return &RasterizerState{
		CullMode:    gputypes.CullModeBack,
		FrontFace:   gputypes.FrontFaceCW,
		FillMode:    FillSolid,
		MultiSample: true,
	}
}

// TextureAddressMode controls texture coordinates outside [0, 1].
type TextureAddressMode uint8

const (
	AddressWrap TextureAddressMode = iota
	AddressClamp
	AddressMirror
	AddressBorder
)

// SamplerState is the state block of a sampler_state declaration.
type SamplerState struct {
	MinFilter gputypes.FilterMode
	MagFilter gputypes.FilterMode
	MipFilter gputypes.MipmapFilterMode

	// NoMipmaps is set by MipFilter = None.
	NoMipmaps   bool
	Anisotropic bool

	AddressU TextureAddressMode
	AddressV TextureAddressMode
	AddressW TextureAddressMode

	// BorderColor is R, G, B, A.
	BorderColor   [4]uint8
	MaxAnisotropy int32
	MaxMipLevel   int32
	MipLodBias    float32
}

// DefaultSamplerState returns linear filtering with wrapping.
func DefaultSamplerState() *SamplerState {
	return &SamplerState{
		MinFilter:     gputypes.FilterModeLinear,
		MagFilter:     gputypes.FilterModeLinear,
		MipFilter:     gputypes.MipmapFilterModeLinear,
		AddressU:      AddressWrap,
		AddressV:      AddressWrap,
		AddressW:      AddressWrap,
		MaxAnisotropy: 4,
	}
}

// Value is the right-hand side of a state assignment.
type Value struct {
	Tokens []Token
	Pos    Position
}

// Text returns the lexemes joined without separators.
func (v Value) Text() string {
	var sb strings.Builder
	for _, t := range v.Tokens {
		sb.WriteString(t.Lexeme)
	}
	return sb.String()
}

// Word returns the lower-case value text.
func (v Value) Word() string {
	return strings.ToLower(v.Text())
}

// Bool parses true/false/1/0.
func (v Value) Bool() (bool, error) {
	switch v.Word() {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v.Text())
}

// Uint parses a decimal or 0x-prefixed hex integer.
func (v Value) Uint() (uint32, error) {
	text := strings.TrimRight(v.Word(), "u")
	n, err := strconv.ParseUint(text, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v.Text())
	}
	return uint32(n), nil
}

// Float parses a float literal with an optional f suffix.
func (v Value) Float() (float32, error) {
	text := strings.TrimRight(v.Word(), "f")
	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", v.Text())
	}
	return float32(f), nil
}

var blendFactors = map[string]gputypes.BlendFactor{
	"zero":           gputypes.BlendFactorZero,
	"one":            gputypes.BlendFactorOne,
	"srccolor":       gputypes.BlendFactorSrc,
	"invsrccolor":    gputypes.BlendFactorOneMinusSrc,
	"srcalpha":       gputypes.BlendFactorSrcAlpha,
	"invsrcalpha":    gputypes.BlendFactorOneMinusSrcAlpha,
	"destcolor":      gputypes.BlendFactorDst,
	"invdestcolor":   gputypes.BlendFactorOneMinusDst,
	"destalpha":      gputypes.BlendFactorDstAlpha,
	"invdestalpha":   gputypes.BlendFactorOneMinusDstAlpha,
	"srcalphasat":    gputypes.BlendFactorSrcAlphaSaturated,
	"blendfactor":    gputypes.BlendFactorConstant,
	"invblendfactor": gputypes.BlendFactorOneMinusConstant,
}

var blendOps = map[string]gputypes.BlendOperation{
	"add":         gputypes.BlendOperationAdd,
	"subtract":    gputypes.BlendOperationSubtract,
	"revsubtract": gputypes.BlendOperationReverseSubtract,
	"min":         gputypes.BlendOperationMin,
	"max":         gputypes.BlendOperationMax,
}

var compareFuncs = map[string]gputypes.CompareFunction{
	"never":        gputypes.CompareFunctionNever,
	"less":         gputypes.CompareFunctionLess,
	"equal":        gputypes.CompareFunctionEqual,
	"lessequal":    gputypes.CompareFunctionLessEqual,
	"greater":      gputypes.CompareFunctionGreater,
	"notequal":     gputypes.CompareFunctionNotEqual,
	"greaterequal": gputypes.CompareFunctionGreaterEqual,
	"always":       gputypes.CompareFunctionAlways,
}

var stencilOps = map[string]gputypes.StencilOperation{
	"keep":    gputypes.StencilOperationKeep,
	"zero":    gputypes.StencilOperationZero,
	"replace": gputypes.StencilOperationReplace,
	"incrsat": gputypes.StencilOperationIncrementClamp,
	"decrsat": gputypes.StencilOperationDecrementClamp,
	"invert":  gputypes.StencilOperationInvert,
	"incr":    gputypes.StencilOperationIncrementWrap,
	"decr":    gputypes.StencilOperationDecrementWrap,
}

var addressModes = map[string]TextureAddressMode{
	"wrap":       AddressWrap,
	"clamp":      AddressClamp,
	"mirror":     AddressMirror,
	"mirroronce": AddressMirror,
	"border":     AddressBorder,
}

var colorChannels = map[string]gputypes.ColorWriteMask{
	"red":   gputypes.ColorWriteMaskRed,
	"green": gputypes.ColorWriteMaskGreen,
	"blue":  gputypes.ColorWriteMaskBlue,
	"alpha": gputypes.ColorWriteMaskAlpha,
	"all":   gputypes.ColorWriteMaskAll,
	"none":  gputypes.ColorWriteMaskNone,
}

func lookup[T any](table map[string]T, kind string, v Value) (T, error) {
	x, ok := table[v.Word()]
	if !ok {
		var zero T
		return zero, fmt.Errorf("invalid %s %q", kind, v.Text())
	}
	return x, nil
}

func (p *Pass) blend() *BlendState {
	if p.BlendState == nil {
		p.BlendState = OpaqueBlend()
	}
	return p.BlendState
}

func (p *Pass) depthStencil() *DepthStencilState {
	if p.DepthStencilState == nil {
		p.DepthStencilState = DefaultDepthStencil()
	}
	return p.DepthStencilState
}

func (p *Pass) rasterizer() *RasterizerState {
	if p.RasterizerState == nil {
		p.RasterizerState = DefaultRasterizer()
	}
	return p.RasterizerState
}

// SetState applies one render state assignment to the pass. Shader states
// are handled by the parser.
func (p *Pass) SetState(name string, v Value) error {
	var err error
	switch strings.ToLower(name) {
	case "alphablendenable":
		var on bool
		if on, err = v.Bool(); err != nil {
			return err
		}
		if !on {
			p.blend()
			return nil
		}
		if p.BlendState == nil {
			b := OpaqueBlend()
			b.ColorDst = gputypes.BlendFactorOneMinusSrcAlpha
			b.AlphaDst = gputypes.BlendFactorOneMinusSrcAlpha
			p.BlendState = b
		}
	case "srcblend":
		b := p.blend()
		if b.ColorSrc, err = lookup(blendFactors, "blend", v); err == nil {
			b.AlphaSrc = b.ColorSrc
		}
	case "destblend":
		b := p.blend()
		if b.ColorDst, err = lookup(blendFactors, "blend", v); err == nil {
			b.AlphaDst = b.ColorDst
		}
	case "blendop":
		b := p.blend()
		if b.ColorOp, err = lookup(blendOps, "blend operation", v); err == nil {
			b.AlphaOp = b.ColorOp
		}
	case "srcblendalpha":
		p.blend().AlphaSrc, err = lookup(blendFactors, "blend", v)
	case "destblendalpha":
		p.blend().AlphaDst, err = lookup(blendFactors, "blend", v)
	case "blendopalpha":
		p.blend().AlphaOp, err = lookup(blendOps, "blend operation", v)
	case "separatealphablendenable":
		_, err = v.Bool()
	case "colorwriteenable":
		p.blend().WriteMask, err = parseColorMask(v)
	case "blendfactor":
		var c uint32
		if c, err = v.Uint(); err == nil {
			p.blend().Factor = argb(c)
		}
	case "multisamplemask":
		p.blend().MultiSampleMask, err = v.Uint()
	case "zenable":
		p.depthStencil().DepthEnable, err = v.Bool()
	case "zwriteenable":
		p.depthStencil().DepthWrite, err = v.Bool()
	case "zfunc":
		p.depthStencil().DepthCompare, err = lookup(compareFuncs, "comparison", v)
	case "stencilenable":
		p.depthStencil().StencilEnable, err = v.Bool()
	case "twosidedstencilmode":
		p.depthStencil().TwoSided, err = v.Bool()
	case "stencilfunc":
		p.depthStencil().Front.Compare, err = lookup(compareFuncs, "comparison", v)
	case "stencilpass":
		p.depthStencil().Front.Pass, err = lookup(stencilOps, "stencil operation", v)
	case "stencilfail":
		p.depthStencil().Front.Fail, err = lookup(stencilOps, "stencil operation", v)
	case "stencilzfail":
		p.depthStencil().Front.DepthFail, err = lookup(stencilOps, "stencil operation", v)
	case "ccw_stencilfunc":
		p.depthStencil().Back.Compare, err = lookup(compareFuncs, "comparison", v)
	case "ccw_stencilpass":
		p.depthStencil().Back.Pass, err = lookup(stencilOps, "stencil operation", v)
	case "ccw_stencilfail":
		p.depthStencil().Back.Fail, err = lookup(stencilOps, "stencil operation", v)
	case "ccw_stencilzfail":
		p.depthStencil().Back.DepthFail, err = lookup(stencilOps, "stencil operation", v)
	case "stencilref":
		var ref uint32
		if ref, err = v.Uint(); err == nil {
			p.depthStencil().Reference = int32(ref)
		}
	case "stencilmask":
		p.depthStencil().ReadMask, err = v.Uint()
	case "stencilwritemask":
		p.depthStencil().WriteMask, err = v.Uint()
	case "cullmode":
		r := p.rasterizer()
		switch v.Word() {
		case "none":
			r.CullMode = gputypes.CullModeNone
		case "cw":
			r.CullMode, r.FrontFace = gputypes.CullModeBack, gputypes.FrontFaceCCW
		case "ccw":
			r.CullMode, r.FrontFace = gputypes.CullModeBack, gputypes.FrontFaceCW
		default:
			err = fmt.Errorf("invalid cull mode %q", v.Text())
		}
	case "fillmode":
		switch v.Word() {
		case "solid":
			p.rasterizer().FillMode = FillSolid
		case "wireframe":
			p.rasterizer().FillMode = FillWireframe
		default:
			err = fmt.Errorf("invalid fill mode %q", v.Text())
		}
	case "depthbias":
		p.rasterizer().DepthBias, err = v.Float()
	case "slopescaledepthbias":
		p.rasterizer().SlopeScaleDepthBias, err = v.Float()
	case "scissortestenable":
		p.rasterizer().ScissorTest, err = v.Bool()
	case "multisampleantialias":
		p.rasterizer().MultiSample, err = v.Bool()
	default:
		return fmt.Errorf("unknown render state %q", name)
	}
	return err
}

// SetState applies one sampler state assignment.
func (s *SamplerStateInfo) SetState(name string, v Value) error {
	if s.State == nil {
		s.State = DefaultSamplerState()
	}
	st := s.State

	var err error
	switch strings.ToLower(name) {
	case "texture":
		s.TextureName = textureName(v)
		if s.TextureName == "" {
			err = fmt.Errorf("invalid texture reference %q", v.Text())
		}
	case "minfilter":
		err = setFilter(&st.MinFilter, st, v)
	case "magfilter":
		err = setFilter(&st.MagFilter, st, v)
	case "mipfilter":
		if v.Word() == "none" {
			st.NoMipmaps = true
			return nil
		}
		var f gputypes.FilterMode
		if err = setFilter(&f, st, v); err == nil {
			st.MipFilter = gputypes.MipmapFilterModeLinear
			if f == gputypes.FilterModeNearest {
				st.MipFilter = gputypes.MipmapFilterModeNearest
			}
		}
	case "filter":
		switch v.Word() {
		case "minmagmiplinear", "linear":
			st.MinFilter, st.MagFilter = gputypes.FilterModeLinear, gputypes.FilterModeLinear
			st.MipFilter = gputypes.MipmapFilterModeLinear
		case "minmagmippoint", "point":
			st.MinFilter, st.MagFilter = gputypes.FilterModeNearest, gputypes.FilterModeNearest
			st.MipFilter = gputypes.MipmapFilterModeNearest
		case "anisotropic":
			st.Anisotropic = true
		default:
			err = fmt.Errorf("invalid filter %q", v.Text())
		}
	case "addressu":
		st.AddressU, err = lookup(addressModes, "address mode", v)
	case "addressv":
		st.AddressV, err = lookup(addressModes, "address mode", v)
	case "addressw":
		st.AddressW, err = lookup(addressModes, "address mode", v)
	case "bordercolor":
		var c uint32
		if c, err = v.Uint(); err == nil {
			st.BorderColor = argb(c)
		}
	case "maxanisotropy":
		var n uint32
		if n, err = v.Uint(); err == nil {
			st.MaxAnisotropy = int32(n)
		}
	case "maxmiplevel":
		var n uint32
		if n, err = v.Uint(); err == nil {
			st.MaxMipLevel = int32(n)
		}
	case "miplodbias", "mipmaplodbias":
		st.MipLodBias, err = v.Float()
	default:
		return fmt.Errorf("unknown sampler state %q", name)
	}
	return err
}

func setFilter(dst *gputypes.FilterMode, st *SamplerState, v Value) error {
	switch v.Word() {
	case "point":
		*dst = gputypes.FilterModeNearest
	case "linear":
		*dst = gputypes.FilterModeLinear
	case "anisotropic":
		*dst = gputypes.FilterModeLinear
		st.Anisotropic = true
	default:
		return fmt.Errorf("invalid filter %q", v.Text())
	}
	return nil
}

// textureName accepts <name>, (name) and name.
func textureName(v Value) string {
	for _, t := range v.Tokens {
		if t.Kind == TokenIdent {
			return t.Lexeme
		}
	}
	return ""
}

func parseColorMask(v Value) (gputypes.ColorWriteMask, error) {
	if n, err := v.Uint(); err == nil {
		return gputypes.ColorWriteMask(n & 0xF), nil
	}
	var mask gputypes.ColorWriteMask
	for _, part := range strings.Split(v.Word(), "|") {
		c, ok := colorChannels[part]
		if !ok {
			return 0, fmt.Errorf("invalid color channel %q", part)
		}
		mask |= c
	}
	return mask, nil
}

// argb splits 0xAARRGGBB into R, G, B, A.
func argb(c uint32) [4]uint8 {
	return [4]uint8{uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)}
}
