// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/fx"
)

// Signature opens every serialized effect.
const Signature = "MGFX"

// Version is the layout version written after the signature.
const Version = 10

// noShader marks a pass stage without a shader.
const noShader = 0xFF

// WriteOptions configures serialization.
type WriteOptions struct {
	// FormatID is the profile format byte.
	FormatID uint8

	// Debug writes the unstripped bytecode.
	Debug bool

	// Source is the content identity reported on failure.
	Source string
}

// Marshal serializes obj. The output depends only on obj and opts.
func Marshal(obj *Object, opts WriteOptions) ([]byte, error) {
	var body encoder
	body.object(obj, opts.Debug)
	if body.err != nil {
		return nil, diag.NewBuildError(diag.KindSerialize, opts.Source, diag.Position{File: opts.Source},
			body.err, "%v", body.err)
	}

	out := make([]byte, 0, len(body.buf)+10)
	out = append(out, Signature...)
	out = append(out, Version, opts.FormatID)
	out = binary.LittleEndian.AppendUint32(out, uint32(ComputeKey(body.buf)))
	out = append(out, body.buf...)
	return out, nil
}

// Write serializes obj to w.
func Write(w io.Writer, obj *Object, opts WriteOptions) error {
	data, err := Marshal(obj, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return diag.NewBuildError(diag.KindSerialize, opts.Source, diag.Position{File: opts.Source},
			err, "writing effect: %v", err)
	}
	return nil
}

// encoder appends little-endian values. The first error sticks.
type encoder struct {
	buf []byte
	err error
}

func (e *encoder) fail(format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf(format, args...)
	}
}

func (e *encoder) u8(v uint8)    { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16)  { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) u32(v uint32)  { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) i16(v int16)   { e.u16(uint16(v)) }
func (e *encoder) i32(v int32)   { e.u32(uint32(v)) }
func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }
func (e *encoder) raw(b []byte)  { e.buf = append(e.buf, b...) }

func (e *encoder) color(c [4]uint8) { e.raw(c[:]) }

func (e *encoder) boolean(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

// str writes a 7-bit length prefixed UTF-8 string.
func (e *encoder) str(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// count writes a one-byte element count.
func (e *encoder) count(n int, what string) {
	if n > math.MaxUint8 {
		e.fail("too many %s: %d (limit %d)", what, n, math.MaxUint8)
		return
	}
	e.u8(uint8(n))
}

// index writes a one-byte table index.
func (e *encoder) index(i int, what string) {
	if i < 0 || i >= noShader {
		e.fail("%s index %d out of range", what, i)
		return
	}
	e.u8(uint8(i))
}

func (e *encoder) object(obj *Object, debug bool) {
	e.count(len(obj.ConstantBuffers), "constant buffers")
	for _, cb := range obj.ConstantBuffers {
		e.constantBuffer(cb)
	}

	e.count(len(obj.Shaders), "shaders")
	for _, sd := range obj.Shaders {
		e.shader(sd, debug)
	}

	e.count(len(obj.Parameters), "parameters")
	for _, p := range obj.Parameters {
		e.parameter(p)
	}

	e.count(len(obj.Techniques), "techniques")
	for _, t := range obj.Techniques {
		e.str(t.Name)
		e.u8(0) // annotations
		e.count(len(t.Passes), "passes")
		for _, p := range t.Passes {
			e.pass(p)
		}
	}
}

func (e *encoder) constantBuffer(cb *ConstantBufferData) {
	e.str(cb.Name)
	if cb.Size < 0 || cb.Size > math.MaxUint16 {
		e.fail("constant buffer %q size %d out of range", cb.Name, cb.Size)
		return
	}
	e.u16(uint16(cb.Size))
	if len(cb.ParameterIndex) != len(cb.Parameters) || len(cb.ParameterOffset) != len(cb.Parameters) {
		e.fail("constant buffer %q is not linked", cb.Name)
		return
	}
	e.count(len(cb.Parameters), "constant buffer parameters")
	for i := range cb.Parameters {
		e.index(cb.ParameterIndex[i], "parameter")
		e.u16(uint16(cb.ParameterOffset[i]))
	}
}

func (e *encoder) shader(sd *ShaderData, debug bool) {
	code := sd.StrippedBytecode
	if debug || code == nil {
		code = sd.Bytecode
	}
	e.boolean(sd.Stage == StageVertex)
	e.i32(int32(len(code)))
	e.raw(code)

	e.count(len(sd.Samplers), "samplers")
	for i := range sd.Samplers {
		s := &sd.Samplers[i]
		e.u8(uint8(s.Type))
		e.u8(uint8(s.TextureSlot))
		e.u8(uint8(s.SamplerSlot))
		e.boolean(s.State != nil)
		if s.State != nil {
			e.samplerState(s.State)
		}
		e.str(s.SamplerName)
		e.index(s.Parameter, "sampler parameter")
	}

	e.count(len(sd.ConstantBuffers), "shader constant buffers")
	for _, idx := range sd.ConstantBuffers {
		e.index(idx, "constant buffer")
	}

	e.count(len(sd.Attributes), "attributes")
	for _, a := range sd.Attributes {
		e.str(a.Name)
		e.u8(uint8(a.Usage))
		e.u8(uint8(a.Index))
		e.i16(int16(a.Location))
	}
}

func (e *encoder) samplerState(st *fx.SamplerState) {
	e.u8(uint8(st.AddressU))
	e.u8(uint8(st.AddressV))
	e.u8(uint8(st.AddressW))
	e.color(st.BorderColor)
	e.u8(uint8(st.MinFilter))
	e.u8(uint8(st.MagFilter))
	e.u8(uint8(st.MipFilter))
	e.boolean(st.NoMipmaps)
	e.boolean(st.Anisotropic)
	e.i32(st.MaxAnisotropy)
	e.i32(st.MaxMipLevel)
	e.f32(st.MipLodBias)
}

func (e *encoder) parameter(p *Parameter) {
	e.u8(uint8(p.Class))
	e.u8(uint8(p.Type))
	e.str(p.Name)
	e.str(p.Semantic)
	e.u8(0) // annotations
	e.u8(p.Rows)
	e.u8(p.Columns)

	e.count(len(p.Elements), "array elements")
	for _, el := range p.Elements {
		e.parameter(el)
	}
	e.count(len(p.Members), "struct members")
	for _, m := range p.Members {
		e.parameter(m)
	}

	if len(p.Elements) > 0 || len(p.Members) > 0 || !p.Type.IsNumeric() {
		return
	}
	if p.Class == ClassObject {
		e.fail("parameter %q: object class with numeric type %s", p.Name, p.Type)
		return
	}
	size := int(p.Rows) * int(p.Columns) * 4
	data := make([]byte, size)
	copy(data, p.Data)
	e.raw(data)
}

func (e *encoder) pass(p *Pass) {
	e.str(p.Name)
	e.u8(0) // annotations
	e.shaderIndex(p.VertexShader)
	e.shaderIndex(p.PixelShader)

	e.boolean(p.Blend != nil)
	if b := p.Blend; b != nil {
		e.u8(uint8(b.ColorSrc))
		e.u8(uint8(b.ColorDst))
		e.u8(uint8(b.ColorOp))
		e.u8(uint8(b.AlphaSrc))
		e.u8(uint8(b.AlphaDst))
		e.u8(uint8(b.AlphaOp))
		e.u8(uint8(b.WriteMask))
		e.color(b.Factor)
		e.u32(b.MultiSampleMask)
	}

	e.boolean(p.DepthStencil != nil)
	if d := p.DepthStencil; d != nil {
		e.boolean(d.DepthEnable)
		e.boolean(d.DepthWrite)
		e.u8(uint8(d.DepthCompare))
		e.boolean(d.StencilEnable)
		e.boolean(d.TwoSided)
		e.stencilFace(d.Front)
		e.stencilFace(d.Back)
		e.i32(d.Reference)
		e.u32(d.ReadMask)
		e.u32(d.WriteMask)
	}

	e.boolean(p.Rasterizer != nil)
	if r := p.Rasterizer; r != nil {
		e.u8(uint8(r.CullMode))
		e.u8(uint8(r.FrontFace))
		e.u8(uint8(r.FillMode))
		e.f32(r.DepthBias)
		e.f32(r.SlopeScaleDepthBias)
		e.boolean(r.ScissorTest)
		e.boolean(r.MultiSample)
	}
}

func (e *encoder) shaderIndex(i int) {
	if i < 0 {
		e.u8(noShader)
		return
	}
	e.index(i, "shader")
}

func (e *encoder) stencilFace(f fx.StencilFace) {
	e.u8(uint8(f.Compare))
	e.u8(uint8(f.Fail))
	e.u8(uint8(f.DepthFail))
	e.u8(uint8(f.Pass))
}

// Listing returns a human-readable dump of obj for debug builds.
func Listing(obj *Object) string {
	var sb bytes.Buffer
	for i, cb := range obj.ConstantBuffers {
		fmt.Fprintf(&sb, "cbuffer %d %s size=%d\n", i, cb.Name, cb.Size)
		for j, p := range cb.Parameters {
			fmt.Fprintf(&sb, "  [%d] +%d %s %s %s %dx%d\n", cb.ParameterIndex[j], cb.ParameterOffset[j],
				p.Name, p.Class, p.Type, p.Rows, p.Columns)
		}
	}
	for i, sd := range obj.Shaders {
		fmt.Fprintf(&sb, "shader %d %s bytes=%d stripped=%d cbuffers=%v\n", i, sd.Stage,
			len(sd.Bytecode), len(sd.StrippedBytecode), sd.ConstantBuffers)
		for _, s := range sd.Samplers {
			fmt.Fprintf(&sb, "  sampler %s -> %s (param %d) slot t%d s%d\n", s.SamplerName, s.ParameterName,
				s.Parameter, s.TextureSlot, s.SamplerSlot)
		}
	}
	for i, p := range obj.Parameters {
		fmt.Fprintf(&sb, "param %d %s %s %s\n", i, p.Name, p.Class, p.Type)
	}
	for _, t := range obj.Techniques {
		fmt.Fprintf(&sb, "technique %s\n", t.Name)
		for _, p := range t.Passes {
			fmt.Fprintf(&sb, "  pass %s vs=%d ps=%d\n", p.Name, p.VertexShader, p.PixelShader)
		}
	}
	return sb.String()
}
