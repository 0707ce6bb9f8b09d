// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/fx"
)

// Header is the fixed prefix of a serialized effect.
type Header struct {
	Version  uint8
	FormatID uint8
	Key      int32
}

// headerSize is signature, version, profile and key.
const headerSize = 10

// Read decodes a serialized effect. Shader code is returned in Bytecode.
func Read(data []byte) (*Object, Header, error) {
	var h Header
	if len(data) < headerSize || string(data[:4]) != Signature {
		return nil, h, fmt.Errorf("%w: missing %s signature", diag.ErrFormat, Signature)
	}
	h.Version = data[4]
	h.FormatID = data[5]
	h.Key = int32(binary.LittleEndian.Uint32(data[6:10]))
	if h.Version != Version {
		return nil, h, fmt.Errorf("%w: effect version %d, want %d", diag.ErrFormat, h.Version, Version)
	}

	body := data[headerSize:]
	if key := ComputeKey(body); key != h.Key {
		return nil, h, fmt.Errorf("%w: effect key %#08x does not match body %#08x", diag.ErrFormat, uint32(h.Key), uint32(key))
	}

	d := &decoder{buf: body}
	obj := d.object()
	if d.err != nil {
		return nil, h, d.err
	}
	if d.pos != len(body) {
		return nil, h, fmt.Errorf("%w: %d trailing bytes", diag.ErrFormat, len(body)-d.pos)
	}
	return obj, h, nil
}

type decoder struct {
	buf []byte
	pos int
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.buf) {
		d.err = fmt.Errorf("%w: unexpected end of effect data at offset %d", diag.ErrFormat, d.pos+headerSize)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) i32() int32    { return int32(d.u32()) }
func (d *decoder) f32() float32  { return math.Float32frombits(d.u32()) }
func (d *decoder) boolean() bool { return d.u8() != 0 }
func (d *decoder) count() int    { return int(d.u8()) }

func (d *decoder) color() (c [4]uint8) {
	copy(c[:], d.take(4))
	return c
}

func (d *decoder) str() string {
	if d.err != nil {
		return ""
	}
	n, size := binary.Uvarint(d.buf[d.pos:])
	if size <= 0 {
		d.err = fmt.Errorf("%w: bad string length at offset %d", diag.ErrFormat, d.pos+headerSize)
		return ""
	}
	d.pos += size
	return string(d.take(int(n)))
}

func (d *decoder) object() *Object {
	obj := &Object{}

	for range d.count() {
		cb := &ConstantBufferData{Name: d.str(), Size: int(d.u16())}
		for range d.count() {
			idx := d.count()
			cb.ParameterIndex = append(cb.ParameterIndex, idx)
			cb.ParameterOffset = append(cb.ParameterOffset, int(d.u16()))
		}
		obj.ConstantBuffers = append(obj.ConstantBuffers, cb)
	}

	for range d.count() {
		obj.Shaders = append(obj.Shaders, d.shader(len(obj.Shaders)))
	}

	for range d.count() {
		obj.Parameters = append(obj.Parameters, d.parameter())
	}

	for range d.count() {
		t := &Technique{Name: d.str()}
		d.u8() // annotations
		for range d.count() {
			t.Passes = append(t.Passes, d.pass())
		}
		obj.Techniques = append(obj.Techniques, t)
	}

	if d.err != nil {
		return nil
	}

	// Constant buffer parameters point into the parameter table.
	for _, cb := range obj.ConstantBuffers {
		for _, idx := range cb.ParameterIndex {
			if idx >= len(obj.Parameters) {
				d.err = fmt.Errorf("%w: constant buffer %q references parameter %d of %d", diag.ErrFormat, cb.Name, idx, len(obj.Parameters))
				return nil
			}
			cb.Parameters = append(cb.Parameters, obj.Parameters[idx])
		}
	}
	for _, sd := range obj.Shaders {
		for i := range sd.Samplers {
			s := &sd.Samplers[i]
			if s.Parameter >= len(obj.Parameters) {
				d.err = fmt.Errorf("%w: sampler %q references parameter %d of %d", diag.ErrFormat, s.SamplerName, s.Parameter, len(obj.Parameters))
				return nil
			}
			s.ParameterName = obj.Parameters[s.Parameter].Name
		}
	}
	return obj
}

func (d *decoder) shader(index int) *ShaderData {
	sd := &ShaderData{SharedIndex: index, Stage: StagePixel}
	if d.boolean() {
		sd.Stage = StageVertex
	}
	n := d.i32()
	sd.Bytecode = append([]byte(nil), d.take(int(n))...)

	for range d.count() {
		s := Sampler{
			Type:        SamplerType(d.u8()),
			TextureSlot: int(d.u8()),
			SamplerSlot: int(d.u8()),
		}
		if d.boolean() {
			s.State = d.samplerState()
		}
		s.SamplerName = d.str()
		s.Parameter = d.count()
		sd.Samplers = append(sd.Samplers, s)
	}

	for range d.count() {
		sd.ConstantBuffers = append(sd.ConstantBuffers, d.count())
	}

	for range d.count() {
		a := Attribute{Name: d.str()}
		a.Usage = VertexElementUsage(d.u8())
		a.Index = int(d.u8())
		a.Location = int(int16(d.u16()))
		sd.Attributes = append(sd.Attributes, a)
	}
	return sd
}

func (d *decoder) samplerState() *fx.SamplerState {
	st := &fx.SamplerState{}
	st.AddressU = fx.TextureAddressMode(d.u8())
	st.AddressV = fx.TextureAddressMode(d.u8())
	st.AddressW = fx.TextureAddressMode(d.u8())
	st.BorderColor = d.color()
	st.MinFilter = gputypes.FilterMode(d.u8())
	st.MagFilter = gputypes.FilterMode(d.u8())
	st.MipFilter = gputypes.MipmapFilterMode(d.u8())
	st.NoMipmaps = d.boolean()
	st.Anisotropic = d.boolean()
	st.MaxAnisotropy = d.i32()
	st.MaxMipLevel = d.i32()
	st.MipLodBias = d.f32()
	return st
}

func (d *decoder) parameter() *Parameter {
	p := &Parameter{
		Class: ParameterClass(d.u8()),
		Type:  ParameterType(d.u8()),
	}
	p.Name = d.str()
	p.Semantic = d.str()
	d.u8() // annotations
	p.Rows = d.u8()
	p.Columns = d.u8()

	for range d.count() {
		p.Elements = append(p.Elements, d.parameter())
	}
	for range d.count() {
		p.Members = append(p.Members, d.parameter())
	}
	if len(p.Elements) == 0 && len(p.Members) == 0 && p.Type.IsNumeric() {
		p.Data = append([]byte(nil), d.take(int(p.Rows)*int(p.Columns)*4)...)
	}
	return p
}

func (d *decoder) pass() *Pass {
	p := &Pass{Name: d.str()}
	d.u8() // annotations
	p.VertexShader = d.shaderIndex()
	p.PixelShader = d.shaderIndex()
	if p.PixelShader >= 0 {
		p.States = append(p.States, PassState{Operation: OperationPixelShader, Index: p.PixelShader})
	}
	if p.VertexShader >= 0 {
		p.States = append(p.States, PassState{Operation: OperationVertexShader, Index: p.VertexShader})
	}

	if d.boolean() {
		p.Blend = &fx.BlendState{
			ColorSrc:  gputypes.BlendFactor(d.u8()),
			ColorDst:  gputypes.BlendFactor(d.u8()),
			ColorOp:   gputypes.BlendOperation(d.u8()),
			AlphaSrc:  gputypes.BlendFactor(d.u8()),
			AlphaDst:  gputypes.BlendFactor(d.u8()),
			AlphaOp:   gputypes.BlendOperation(d.u8()),
			WriteMask: gputypes.ColorWriteMask(d.u8()),
		}
		p.Blend.Factor = d.color()
		p.Blend.MultiSampleMask = d.u32()
	}

	if d.boolean() {
		ds := &fx.DepthStencilState{}
		ds.DepthEnable = d.boolean()
		ds.DepthWrite = d.boolean()
		ds.DepthCompare = gputypes.CompareFunction(d.u8())
		ds.StencilEnable = d.boolean()
		ds.TwoSided = d.boolean()
		ds.Front = d.stencilFace()
		ds.Back = d.stencilFace()
		ds.Reference = d.i32()
		ds.ReadMask = d.u32()
		ds.WriteMask = d.u32()
		p.DepthStencil = ds
	}

	if d.boolean() {
		r := &fx.RasterizerState{}
		r.CullMode = gputypes.CullMode(d.u8())
		r.FrontFace = gputypes.FrontFace(d.u8())
		r.FillMode = fx.FillMode(d.u8())
		r.DepthBias = d.f32()
		r.SlopeScaleDepthBias = d.f32()
		r.ScissorTest = d.boolean()
		r.MultiSample = d.boolean()
		p.Rasterizer = r
	}
	return p
}

func (d *decoder) shaderIndex() int {
	i := d.u8()
	if i == noShader {
		return -1
	}
	return int(i)
}

func (d *decoder) stencilFace() fx.StencilFace {
	var f fx.StencilFace
	f.Compare = gputypes.CompareFunction(d.u8())
	f.Fail = gputypes.StencilOperation(d.u8())
	f.DepthFail = gputypes.StencilOperation(d.u8())
	f.Pass = gputypes.StencilOperation(d.u8())
	return f
}
